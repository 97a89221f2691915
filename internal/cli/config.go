package cli

import (
	"github.com/spf13/cobra"
)

// configCommand creates the config command, which prints the effective
// configuration after the config file and SOURCEDEPS_* variables are applied.
func (c *CLI) configCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "config",
		Short: "Print the effective configuration as TOML",
		Long: `Print the effective configuration as TOML.

Values come from the built-in defaults, then the config file (--config, or
./sourcedeps.toml when present), then SOURCEDEPS_* environment variables.
The output is a valid config file.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := c.loadConfig(nil)
			if err != nil {
				return err
			}
			return cfg.Encode(cmd.OutOrStdout())
		},
	}
}
