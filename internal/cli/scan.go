package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/matzehuels/sourcedeps/pkg/scan"
)

// scanCommand creates the scan command, which lists manifest candidates
// without parsing or downloading anything.
func (c *CLI) scanCommand() *cobra.Command {
	var asJSON bool

	cmd := &cobra.Command{
		Use:   "scan [root]",
		Short: "List manifest candidates and why they matched",
		Example: `  sourcedeps scan
  sourcedeps scan ./web --json`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := c.loadConfig(nil)
			if err != nil {
				return err
			}
			popts, err := c.pipelineOptions(cfg, rootArg(args))
			if err != nil {
				return err
			}
			scanner, err := scan.New(popts.Scan)
			if err != nil {
				return err
			}

			prog := newProgress(c.Logger)
			candidates, err := scanner.Scan(cmd.Context(), popts.Root)
			if err != nil {
				return err
			}
			prog.done(fmt.Sprintf("Scanned %s", popts.Root))

			w := cmd.OutOrStdout()
			if asJSON {
				if candidates == nil {
					candidates = []scan.Candidate{}
				}
				return printJSON(w, candidates)
			}
			if len(candidates) == 0 {
				printWarning(w, "no manifest candidates under %s", popts.Root)
				return nil
			}
			for _, cand := range candidates {
				printInfo(w, "%s %s", styleValue.Render(cand.Path), styleDim.Render("("+string(cand.Reason)+")"))
			}
			return nil
		},
	}

	cmd.Flags().BoolVar(&asJSON, "json", false, "print candidates as JSON")
	return cmd
}
