package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"time"

	"github.com/schollz/progressbar/v3"
	"github.com/spf13/cobra"

	"github.com/Zechiax/LazyAndrew/internal/common/config"
	"github.com/Zechiax/LazyAndrew/internal/common/httpclient"
	"github.com/Zechiax/LazyAndrew/internal/common/logger"
	"github.com/Zechiax/LazyAndrew/internal/common/version"
	"github.com/Zechiax/LazyAndrew/internal/downloader"
	"github.com/Zechiax/LazyAndrew/internal/registry"
	"github.com/Zechiax/LazyAndrew/internal/updater"
)

// targetOptions select the plugin directory and game version of a run.
// Empty fields fall back to the config file.
type targetOptions struct {
	directory   string
	gameVersion string
	archiveDir  string
}

func addTargetFlags(cmd *cobra.Command, opts *targetOptions) {
	cmd.Flags().StringVarP(&opts.directory, "directory", "d", "", "The plugins directory")
	cmd.Flags().StringVarP(&opts.gameVersion, "game-version", "g", "", `Target Minecraft version (default "latest")`)
}

// loadConfig reads --config when given, the user config otherwise.
func loadConfig() (*config.Config, error) {
	if configFile != "" {
		return config.LoadFrom(configFile)
	}
	return config.Load()
}

// pluginDir resolves the plugin directory from flags and config.
func (o targetOptions) pluginDir(cfg *config.Config) (string, error) {
	if o.directory != "" {
		return o.directory, nil
	}
	dir, err := cfg.PluginDir()
	if err != nil {
		return "", err
	}
	if dir == "" {
		dir = config.DefaultPluginDir
	}
	return dir, nil
}

// newUpdater wires the registry client, downloader and updater for one run.
// progress receives download progress bars, nil disables them.
func (o targetOptions) newUpdater(ctx context.Context, cfg *config.Config, progress io.Writer) (*updater.Updater, error) {
	dir, err := o.pluginDir(cfg)
	if err != nil {
		return nil, err
	}

	gameVersion := o.gameVersion
	if gameVersion == "" {
		gameVersion = cfg.Plugins.GameVersion
	}

	archiveDir := o.archiveDir
	if archiveDir == "" {
		if archiveDir, err = cfg.ArchiveDir(); err != nil {
			return nil, err
		}
	}

	hc := httpclient.New()
	userAgent := cfg.Registry.UserAgent
	if userAgent == "" {
		userAgent = version.UserAgent()
	}
	hc.SetUserAgent(userAgent)

	var dlOpts []downloader.Option
	if progress != nil {
		dlOpts = append(dlOpts, downloader.WithProgress(progressBar(progress)))
	}

	logger.Debug("Plugin directory: %s, game version: %s, registry: %s", dir, gameVersion, cfg.Registry.BaseURL)

	return updater.New(ctx, registry.NewModrinth(cfg.Registry.BaseURL, hc), dir,
		updater.WithGameVersion(gameVersion),
		updater.WithArchiveDir(archiveDir),
		updater.WithConcurrency(cfg.Check.Concurrency),
		updater.WithDownloader(downloader.New(hc, dlOpts...)),
	)
}

// progressBar draws one byte progress bar per download on w.
func progressBar(w io.Writer) downloader.ProgressFunc {
	return func(name string, size int64) io.Writer {
		return progressbar.NewOptions64(size,
			progressbar.OptionSetWriter(w),
			progressbar.OptionSetDescription(name),
			progressbar.OptionSetWidth(30),
			progressbar.OptionShowBytes(true),
			progressbar.OptionThrottle(80*time.Millisecond),
			progressbar.OptionOnCompletion(func() {
				fmt.Fprintln(w)
			}),
		)
	}
}

// runContext is cancelled on interrupt and after the configured timeout.
func runContext(cfg *config.Config) (context.Context, context.CancelFunc) {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	if cfg.Registry.Timeout <= 0 {
		return ctx, stop
	}
	ctx, cancel := context.WithTimeout(ctx, cfg.Registry.Timeout)
	return ctx, func() {
		cancel()
		stop()
	}
}

// fatal logs the error and exits.
func fatal(format string, args ...interface{}) {
	logger.Error(format, args...)
	os.Exit(1)
}
