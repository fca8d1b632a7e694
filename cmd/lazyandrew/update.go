package main

import (
	"context"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/Zechiax/LazyAndrew/internal/common/config"
	"github.com/Zechiax/LazyAndrew/internal/common/logger"
	"github.com/Zechiax/LazyAndrew/internal/updater"
)

var updateTarget targetOptions

var updateCmd = &cobra.Command{
	Use:   "update",
	Short: "Update outdated plugins",
	Long: `Check every plugin and replace the outdated ones with their latest release for the target Minecraft version.

Each download is verified against the SHA-512 hash published on Modrinth before anything is replaced. The old file is moved to the archive directory (oldplugins next to the plugins directory by default). Plugins listed in .lazyandrew/holds.toml are never replaced.

Examples:
  lazyandrew update -d ./plugins
  lazyandrew update -d ./plugins -g 1.20.1 --archive-dir ./backup`,
	Args: cobra.NoArgs,
	Run: func(cmd *cobra.Command, args []string) {
		cfg, err := loadConfig()
		if err != nil {
			fatal("loading config: %v", err)
		}
		ctx, cancel := runContext(cfg)
		defer cancel()

		var progress io.Writer
		if !quiet {
			progress = os.Stderr
		}
		if err := runUpdate(ctx, cmd.OutOrStdout(), progress, cfg, updateTarget); err != nil {
			fatal("%v", err)
		}
	},
}

func init() {
	addTargetFlags(updateCmd, &updateTarget)
	updateCmd.Flags().StringVar(&updateTarget.archiveDir, "archive-dir", "", "Where replaced plugin files are moved")

	rootCmd.AddCommand(updateCmd)
}

func runUpdate(ctx context.Context, w, progress io.Writer, cfg *config.Config, target targetOptions) error {
	u, err := target.newUpdater(ctx, cfg, progress)
	if err != nil {
		return err
	}

	logger.Info("Checking plugins in %s for Minecraft %s", u.Dir(), u.GameVersion())
	results, err := u.Check(ctx)
	if err != nil {
		return err
	}

	for _, r := range updater.SortResults(results, false) {
		if r.Status == updater.StatusLookupFailed {
			logger.Warn("%s", r.Message())
		}
	}

	applied, err := u.Apply(ctx, results)
	printApplyResults(w, applied)
	return err
}
