package main

import (
	"github.com/spf13/cobra"
)

var completionCmd = &cobra.Command{
	Use:   "completion [bash|zsh|fish|powershell]",
	Short: "Generate shell completion scripts",
	Long: `Generate shell completion scripts for lazyandrew.

To load completions:

Bash:
  $ source <(lazyandrew completion bash)
  # To load completions for each session, execute once:
  # Linux:
  $ lazyandrew completion bash > /etc/bash_completion.d/lazyandrew
  # macOS:
  $ lazyandrew completion bash > $(brew --prefix)/etc/bash_completion.d/lazyandrew

Zsh:
  # If shell completion is not already enabled in your environment,
  # you will need to enable it. You can execute the following once:
  $ echo "autoload -U compinit; compinit" >> ~/.zshrc
  # To load completions for each session, execute once:
  $ lazyandrew completion zsh > "${fpath[1]}/_lazyandrew"
  # You will need to start a new shell for this setup to take effect.

Fish:
  $ lazyandrew completion fish | source
  # To load completions for each session, execute once:
  $ lazyandrew completion fish > ~/.config/fish/completions/lazyandrew.fish

PowerShell:
  PS> lazyandrew completion powershell | Out-String | Invoke-Expression
  # To load completions for every new session, run:
  PS> lazyandrew completion powershell > lazyandrew.ps1
  # and source this file from your PowerShell profile.
`,
	DisableFlagsInUseLine: true,
	ValidArgs:             []string{"bash", "zsh", "fish", "powershell"},
	Args:                  cobra.MatchAll(cobra.ExactArgs(1), cobra.OnlyValidArgs),
	Run: func(cmd *cobra.Command, args []string) {
		switch args[0] {
		case "bash":
			rootCmd.GenBashCompletionV2(cmd.OutOrStdout(), true)
		case "zsh":
			rootCmd.GenZshCompletion(cmd.OutOrStdout())
		case "fish":
			rootCmd.GenFishCompletion(cmd.OutOrStdout(), true)
		case "powershell":
			rootCmd.GenPowerShellCompletionWithDesc(cmd.OutOrStdout())
		}
	},
}

func init() {
	rootCmd.AddCommand(completionCmd)
}
