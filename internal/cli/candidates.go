package cli

import (
	"strings"

	"github.com/spf13/cobra"

	"github.com/matzehuels/sourcedeps/pkg/deps"
	apperr "github.com/matzehuels/sourcedeps/pkg/errors"
	"github.com/matzehuels/sourcedeps/pkg/locator"
)

// candidatesCommand creates the candidates command, which prints the
// ordered URLs the fetcher would try for one dependency.
func (c *CLI) candidatesCommand() *cobra.Command {
	var (
		dep      deps.Dependency
		embedded bool
		asJSON   bool
	)

	cmd := &cobra.Command{
		Use:   "candidates <name>@<version>",
		Short: "Print the candidate download URLs for a dependency",
		Example: `  sourcedeps candidates left-pad@1.3.0
  sourcedeps candidates @scope/widget@2.0.0
  sourcedeps candidates chart@4.4.0 --embedded --base-url https://static.example.com --path-prefix vendor/`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			name, version, err := splitSpec(args[0])
			if err != nil {
				return err
			}
			dep.Name, dep.Version = name, version
			if embedded {
				if dep.BaseURL == "" || dep.PathPrefix == "" {
					return apperr.New(apperr.ErrCodeInvalidInput, "--embedded needs both --base-url and --path-prefix")
				}
				dep.Strategy = deps.StrategyEmbedded
			}

			cfg, err := c.loadConfig(nil)
			if err != nil {
				return err
			}
			gen, err := locator.New(cfg.LocatorOptions())
			if err != nil {
				return err
			}
			urls := gen.Candidates(dep)

			w := cmd.OutOrStdout()
			if asJSON {
				return printJSON(w, urls)
			}
			printTitle(w, dep.String()+" → "+dep.FileName())
			for _, u := range urls {
				printInfo(w, "%s", styleLink.Render(u))
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&dep.BaseURL, "base-url", "", "base URL declared next to the dependency")
	cmd.Flags().StringVar(&dep.PathPrefix, "path-prefix", "", "path prefix declared for the dependency")
	cmd.Flags().BoolVar(&embedded, "embedded", false, "treat the record as coming from an embedded configuration object")
	cmd.Flags().BoolVar(&asJSON, "json", false, "print URLs as a JSON array")
	return cmd
}

// splitSpec splits name@version at the last @, so scoped names such as
// @scope/pkg@1.0.0 keep their leading @.
func splitSpec(s string) (string, string, error) {
	i := strings.LastIndex(s, "@")
	if i <= 0 || i == len(s)-1 {
		return "", "", apperr.New(apperr.ErrCodeInvalidInput, "expected <name>@<version>, got %q", s)
	}
	name, version := s[:i], s[i+1:]
	if err := apperr.ValidateDependencyName(name); err != nil {
		return "", "", err
	}
	if err := apperr.ValidateVersion(version); err != nil {
		return "", "", err
	}
	return name, version, nil
}
