package cli

import (
	"github.com/spf13/cobra"
)

// completionCommand prints a completion script for the named shell. The
// scripts cover every subcommand and flag, including the --config path.
func (c *CLI) completionCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "completion <bash|zsh|fish|powershell>",
		Short: "Print a shell completion script",
		Long: `Print a completion script for sourcedeps to stdout.

The script completes the fetch, scan, parse, candidates and config commands
and their flags. Source it in the current shell, or save it where your shell
loads completions from so it is picked up by new sessions. Zsh needs compinit
enabled.`,
		Example: `  # current shell
  source <(sourcedeps completion bash)
  sourcedeps completion fish | source

  # new sessions
  sourcedeps completion bash > ~/.local/share/bash-completion/completions/sourcedeps
  sourcedeps completion zsh > "${fpath[1]}/_sourcedeps"
  sourcedeps completion fish > ~/.config/fish/completions/sourcedeps.fish
  sourcedeps completion powershell >> $PROFILE`,
		DisableFlagsInUseLine: true,
		ValidArgs:             []string{"bash", "zsh", "fish", "powershell"},
		Args:                  cobra.MatchAll(cobra.ExactArgs(1), cobra.OnlyValidArgs),
		RunE: func(cmd *cobra.Command, args []string) error {
			w := cmd.OutOrStdout()
			switch args[0] {
			case "bash":
				return cmd.Root().GenBashCompletionV2(w, true)
			case "zsh":
				return cmd.Root().GenZshCompletion(w)
			case "fish":
				return cmd.Root().GenFishCompletion(w, true)
			case "powershell":
				return cmd.Root().GenPowerShellCompletionWithDesc(w)
			}
			return nil
		},
	}

	return cmd
}
