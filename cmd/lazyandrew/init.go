package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/Zechiax/LazyAndrew/internal/common/config"
	"github.com/Zechiax/LazyAndrew/internal/common/output"
)

var (
	initForce  bool
	initTarget targetOptions
)

var initCmd = &cobra.Command{
	Use:     "initialize",
	Aliases: []string{"init"},
	Short:   "Create the configuration file",
	Long: `Write a configuration file with the given defaults so later runs need no flags.

Examples:
  lazyandrew init -d /srv/minecraft/plugins -g 1.20.1
  lazyandrew init --force -d ./plugins`,
	Args: cobra.NoArgs,
	Run: func(cmd *cobra.Command, args []string) {
		path, err := runInit(initTarget, initForce)
		if err != nil {
			fatal("%v", err)
		}
		output.PrintSuccess("Configuration written to %s", path)
	},
}

func init() {
	initCmd.Flags().BoolVarP(&initForce, "force", "f", false, "Recreate the config, even if it already exists")
	addTargetFlags(initCmd, &initTarget)
	initCmd.Flags().StringVar(&initTarget.archiveDir, "archive-dir", "", "Where replaced plugin files are moved")

	rootCmd.AddCommand(initCmd)
}

// runInit writes a fresh config built from the defaults and target and
// returns its path.
func runInit(target targetOptions, force bool) (string, error) {
	path := configFile
	if path == "" {
		var err error
		if path, err = config.FindConfigPath(); err != nil {
			return "", err
		}
	}

	if _, err := os.Stat(path); err == nil && !force {
		return "", fmt.Errorf("config already exists at %s, use --force to recreate it", path)
	}

	cfg := config.Default()
	if target.directory != "" {
		cfg.Plugins.Directory = target.directory
	}
	if target.gameVersion != "" {
		cfg.Plugins.GameVersion = target.gameVersion
	}
	cfg.Plugins.ArchiveDir = target.archiveDir

	if err := cfg.SaveTo(path); err != nil {
		return "", fmt.Errorf("failed to write config: %w", err)
	}
	return path, nil
}
