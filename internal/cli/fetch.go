package cli

import (
	"time"

	"github.com/spf13/cobra"

	"github.com/matzehuels/sourcedeps/pkg/config"
	"github.com/matzehuels/sourcedeps/pkg/pipeline"
)

// fetchOpts holds the command-line flags for the fetch command. Flags that
// were not set leave the configured value in place.
type fetchOpts struct {
	timeout      time.Duration
	maxRedirects int
	outputDir    string
	overwrite    bool
	dryRun       bool
	json         bool
}

// fetchCommand creates the fetch command, which runs the whole pipeline.
func (c *CLI) fetchCommand() *cobra.Command {
	var opts fetchOpts

	cmd := &cobra.Command{
		Use:   "fetch [root]",
		Short: "Discover manifests and download every declared dependency",
		Long: `Walk the source tree under root (default "."), extract dependency records
from every manifest candidate and download one script artifact per record into
<root>/external-dependencies/{name}@{version}.js.

Failures are reported per dependency; they never stop the run.`,
		Example: `  sourcedeps fetch
  sourcedeps fetch ./web --timeout 10s --overwrite
  sourcedeps fetch --dry-run --json`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.runFetch(cmd, rootArg(args), opts)
		},
	}

	cmd.Flags().DurationVar(&opts.timeout, "timeout", 0, "per-request timeout (default 5s)")
	cmd.Flags().IntVar(&opts.maxRedirects, "max-redirects", 0, "redirect hops per candidate, 0 disables following (default 5)")
	cmd.Flags().StringVarP(&opts.outputDir, "output-dir", "o", "", "artifact directory relative to root (default external-dependencies)")
	cmd.Flags().BoolVar(&opts.overwrite, "overwrite", false, "download again even when a valid artifact exists")
	cmd.Flags().BoolVar(&opts.dryRun, "dry-run", false, "scan and parse only, no network or file writes")
	cmd.Flags().BoolVar(&opts.json, "json", false, "print the run result as JSON")

	return cmd
}

func (c *CLI) runFetch(cmd *cobra.Command, root string, opts fetchOpts) error {
	flags := cmd.Flags()
	cfg, err := c.loadConfig(func(cfg *config.Config) {
		if flags.Changed("timeout") {
			cfg.Fetch.Timeout = config.Duration(opts.timeout)
		}
		if flags.Changed("max-redirects") {
			cfg.Fetch.MaxRedirects = opts.maxRedirects
		}
		if flags.Changed("output-dir") {
			cfg.Output.Dir = opts.outputDir
		}
		if flags.Changed("overwrite") {
			cfg.Output.Overwrite = opts.overwrite
		}
	})
	if err != nil {
		return err
	}

	popts, err := c.pipelineOptions(cfg, root)
	if err != nil {
		return err
	}
	popts.DryRun = opts.dryRun

	res, err := pipeline.NewRunner(c.Logger).Execute(cmd.Context(), popts)
	if res == nil {
		return err
	}

	w := cmd.OutOrStdout()
	if opts.json {
		if jerr := printJSON(w, res); jerr != nil {
			return jerr
		}
		return err
	}

	printResult(w, res)
	if err == nil && !popts.DryRun && res.Stats.Failed == 0 && res.Stats.Dependencies > 0 {
		printSuccess(w, "all dependencies available in %s", res.OutputDir)
	}
	return err
}
