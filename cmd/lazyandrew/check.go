package main

import (
	"context"
	"io"

	"github.com/spf13/cobra"

	"github.com/Zechiax/LazyAndrew/internal/common/config"
	"github.com/Zechiax/LazyAndrew/internal/common/logger"
)

var (
	checkTarget targetOptions
	// checkShowAll also lists plugins that are not on Modrinth
	checkShowAll bool
)

var checkCmd = &cobra.Command{
	Use:   "check",
	Short: "Check plugins for updates",
	Long: `Identify every plugin in the plugins directory on Modrinth and report which ones have a newer release for the target Minecraft version.

Examples:
  lazyandrew check -d ./plugins                 Check against the latest Minecraft release
  lazyandrew check -d ./plugins -g 1.20.1       Check against Minecraft 1.20.1
  lazyandrew check -d ./plugins --all           Also list plugins not on Modrinth`,
	Args: cobra.NoArgs,
	Run: func(cmd *cobra.Command, args []string) {
		cfg, err := loadConfig()
		if err != nil {
			fatal("loading config: %v", err)
		}
		ctx, cancel := runContext(cfg)
		defer cancel()

		if err := runCheck(ctx, cmd.OutOrStdout(), cfg, checkTarget, checkShowAll); err != nil {
			fatal("%v", err)
		}
	},
}

func init() {
	addTargetFlags(checkCmd, &checkTarget)
	checkCmd.Flags().BoolVarP(&checkShowAll, "all", "a", false, "Show plugins that are not on Modrinth")

	rootCmd.AddCommand(checkCmd)
}

func runCheck(ctx context.Context, w io.Writer, cfg *config.Config, target targetOptions, showAll bool) error {
	u, err := target.newUpdater(ctx, cfg, nil)
	if err != nil {
		return err
	}

	logger.Info("Checking plugins in %s for Minecraft %s", u.Dir(), u.GameVersion())
	results, err := u.Check(ctx)
	if err != nil {
		return err
	}

	printCheckResults(w, results, showAll)
	return nil
}
