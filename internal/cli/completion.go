package cli

import (
	"os"

	"github.com/spf13/cobra"
)

// completionCommand creates the completion command. The generated scripts
// complete subcommands and flags, including the export target and profile
// flags.
func (c *CLI) completionCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "completion [bash|zsh|fish|powershell]",
		Short: "Generate shell completion scripts",
		Long: `Generate a shell completion script for flowscribe.

The script completes subcommands (export, graph, validate) and their
flags. Load it once per session:

  $ source <(flowscribe completion bash)
  $ flowscribe completion zsh > "${fpath[1]}/_flowscribe"
  $ flowscribe completion fish | source
  PS> flowscribe completion powershell | Out-String | Invoke-Expression

or install it under your shell's completion directory to load it in
every session, e.g. /etc/bash_completion.d/flowscribe for bash or
~/.config/fish/completions/flowscribe.fish for fish.
`,
		DisableFlagsInUseLine: true,
		ValidArgs:             []string{"bash", "zsh", "fish", "powershell"},
		Args:                  cobra.MatchAll(cobra.ExactArgs(1), cobra.OnlyValidArgs),
		RunE: func(cmd *cobra.Command, args []string) error {
			switch args[0] {
			case "bash":
				return cmd.Root().GenBashCompletion(os.Stdout)
			case "zsh":
				return cmd.Root().GenZshCompletion(os.Stdout)
			case "fish":
				return cmd.Root().GenFishCompletion(os.Stdout, true)
			case "powershell":
				return cmd.Root().GenPowerShellCompletionWithDesc(os.Stdout)
			}
			return nil
		},
	}

	return cmd
}
