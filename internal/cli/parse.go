package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/matzehuels/sourcedeps/pkg/deps"
	"github.com/matzehuels/sourcedeps/pkg/scan"
)

// parseResult is the --json shape of one parsed file.
type parseResult struct {
	Path         string            `json:"path"`
	Strategy     deps.Strategy     `json:"strategy,omitempty"`
	Dependencies []deps.Dependency `json:"dependencies"`
	Error        string            `json:"error,omitempty"`
}

// parseCommand creates the parse command, which runs the strategy chain
// over explicit files and prints the records.
func (c *CLI) parseCommand() *cobra.Command {
	var asJSON bool

	cmd := &cobra.Command{
		Use:   "parse <file>...",
		Short: "Extract dependency records from manifest files",
		Long: `Extract (name, version) records from each file using the first strategy
that yields anything: embedded-eval, structured-json, structured-yaml,
textual-regex. A file with no records is reported and skipped.`,
		Example: `  sourcedeps parse package.json
  sourcedeps parse static/js/config.js deps.yaml --json`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			parser := deps.NewParser(deps.Options{Logger: c.Logger})
			results := make([]parseResult, 0, len(args))
			for _, path := range args {
				records, strategy, err := parser.Parse(scan.Candidate{Path: path})
				r := parseResult{Path: path, Strategy: strategy, Dependencies: records}
				if r.Dependencies == nil {
					r.Dependencies = []deps.Dependency{}
				}
				if err != nil {
					r.Error = err.Error()
				}
				results = append(results, r)
			}

			w := cmd.OutOrStdout()
			if asJSON {
				return printJSON(w, results)
			}
			for _, r := range results {
				if r.Error != "" {
					printError(w, "%s", r.Error)
					continue
				}
				printInfo(w, "%s %s", styleValue.Render(r.Path),
					styleDim.Render(fmt.Sprintf("%d records via %s", len(r.Dependencies), r.Strategy)))
				for _, d := range r.Dependencies {
					line := d.String()
					if d.PathPrefix != "" || d.BaseURL != "" {
						line += styleDim.Render(fmt.Sprintf("  base=%s prefix=%s", d.BaseURL, d.PathPrefix))
					}
					fmt.Fprintln(w, "    "+line)
				}
			}
			return nil
		},
	}

	cmd.Flags().BoolVar(&asJSON, "json", false, "print records as JSON")
	return cmd
}
