package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/Zechiax/LazyAndrew/internal/common/logger"
	"github.com/Zechiax/LazyAndrew/internal/common/output"
	"github.com/Zechiax/LazyAndrew/internal/common/version"
)

var (
	verbose    bool
	quiet      bool
	noColor    bool
	logFile    bool
	configFile string
)

var rootCmd = &cobra.Command{
	Use:     "lazyandrew",
	Short:   "Keep Minecraft server plugins up to date",
	Long:    `Checks the plugins of a Minecraft server against Modrinth and replaces outdated ones with verified newer releases.`,
	Version: version.Short(),
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		if verbose {
			logger.SetVerbose(true)
		}
		if quiet {
			logger.SetQuiet(true)
		}
		if noColor {
			output.NoColor()
		}
		if logFile {
			if err := logger.Default().EnableFileLogging(); err != nil {
				logger.Warn("File logging disabled: %v", err)
			}
		}
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		logger.Default().Close()
	},
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print version information",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Fprintln(cmd.OutOrStdout(), version.Info())
	},
}

func init() {
	// Global flags
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Enable verbose output")
	rootCmd.PersistentFlags().BoolVarP(&quiet, "quiet", "q", false, "Suppress non-error output")
	rootCmd.PersistentFlags().BoolVar(&noColor, "no-color", false, "Disable colored output")
	rootCmd.PersistentFlags().BoolVar(&logFile, "log-file", false, "Also write a debug log under $XDG_STATE_HOME/lazyandrew/logs")
	rootCmd.PersistentFlags().StringVar(&configFile, "config", "", "Config file (default $XDG_CONFIG_HOME/lazyandrew/config.yaml)")

	rootCmd.AddCommand(versionCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
