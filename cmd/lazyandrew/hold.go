package main

import (
	"fmt"
	"io"
	"sort"

	"github.com/spf13/cobra"

	"github.com/Zechiax/LazyAndrew/internal/common/output"
	"github.com/Zechiax/LazyAndrew/internal/updater"
)

var (
	holdTarget targetOptions
	holdReason string
)

var holdCmd = &cobra.Command{
	Use:   "hold [file...]",
	Short: "Prevent plugins from being updated",
	Long: `Add plugin files to the holds list of the plugins directory. Held plugins are still checked but never replaced by update.
Without arguments the current holds are listed.

Examples:
  lazyandrew hold -d ./plugins WorldEdit.jar --reason "waiting for 1.21"
  lazyandrew hold -d ./plugins`,
	Run: func(cmd *cobra.Command, args []string) {
		if err := runHold(cmd.OutOrStdout(), holdTarget, args, holdReason); err != nil {
			fatal("%v", err)
		}
	},
}

var unholdCmd = &cobra.Command{
	Use:   "unhold file...",
	Short: "Allow held plugins to be updated again",
	Args:  cobra.MinimumNArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		if err := runUnhold(cmd.OutOrStdout(), holdTarget, args); err != nil {
			fatal("%v", err)
		}
	},
}

func init() {
	for _, cmd := range []*cobra.Command{holdCmd, unholdCmd} {
		cmd.Flags().StringVarP(&holdTarget.directory, "directory", "d", "", "The plugins directory")
	}
	holdCmd.Flags().StringVarP(&holdReason, "reason", "r", "", "Why the plugin is held")

	rootCmd.AddCommand(holdCmd, unholdCmd)
}

func holdsDir(target targetOptions) (string, error) {
	cfg, err := loadConfig()
	if err != nil {
		return "", err
	}
	return target.pluginDir(cfg)
}

func runHold(w io.Writer, target targetOptions, names []string, reason string) error {
	dir, err := holdsDir(target)
	if err != nil {
		return err
	}
	holds, err := updater.LoadHolds(dir)
	if err != nil {
		return err
	}

	if len(names) == 0 {
		printHolds(w, holds)
		return nil
	}

	for _, name := range names {
		holds[name] = updater.Hold{Reason: reason}
	}
	if err := updater.SaveHolds(dir, holds); err != nil {
		return fmt.Errorf("failed to save holds: %w", err)
	}
	for _, name := range names {
		output.StatusLine(w, "up-to-date", "Holding %s", name)
	}
	return nil
}

func runUnhold(w io.Writer, target targetOptions, names []string) error {
	dir, err := holdsDir(target)
	if err != nil {
		return err
	}
	holds, err := updater.LoadHolds(dir)
	if err != nil {
		return err
	}

	for _, name := range names {
		if _, ok := holds[name]; !ok {
			output.StatusLine(w, "skipped", "%s is not held", name)
			continue
		}
		delete(holds, name)
		output.StatusLine(w, "up-to-date", "Released %s", name)
	}
	if err := updater.SaveHolds(dir, holds); err != nil {
		return fmt.Errorf("failed to save holds: %w", err)
	}
	return nil
}

func printHolds(w io.Writer, holds updater.Holds) {
	if len(holds) == 0 {
		output.StatusLine(w, "info", "No plugins are held")
		return
	}

	names := make([]string, 0, len(holds))
	for name := range holds {
		names = append(names, name)
	}
	sort.Strings(names)

	for _, name := range names {
		if reason := holds[name].Reason; reason != "" {
			fmt.Fprintf(w, "  %s  %s\n", output.FormatProject(name), output.Sprint(output.Dim, reason))
			continue
		}
		fmt.Fprintf(w, "  %s\n", output.FormatProject(name))
	}
}
