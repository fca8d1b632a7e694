package main

import (
	"errors"
	"fmt"
	"io"

	"github.com/Zechiax/LazyAndrew/internal/common/output"
	"github.com/Zechiax/LazyAndrew/internal/downloader"
	"github.com/Zechiax/LazyAndrew/internal/updater"
)

// printCheckResults writes one line per artifact in report order followed by
// a summary.
func printCheckResults(w io.Writer, results []updater.CheckResult, showAll bool) {
	if len(results) == 0 {
		output.StatusLine(w, "info", "No plugin files found")
		return
	}

	for _, r := range updater.SortResults(results, showAll) {
		status := r.Status.String()
		p := r.Payload()

		switch r.Status {
		case updater.StatusLookupFailed:
			output.StatusLine(w, status, "%s", r.Message())
		case updater.StatusUpToDate:
			output.StatusLine(w, status, "%s is up to date (%s)", r.ProjectTitle(), p.Current.VersionNumber)
		case updater.StatusUpdateAvailable:
			output.StatusLine(w, status, "%s can be updated: %s → %s", r.ProjectTitle(), p.Current.VersionNumber, p.Latest.VersionNumber)
			if p.Project != nil {
				fmt.Fprintf(w, "    %s\n", output.Sprint(output.Dim, p.Project.URL()))
			}
		case updater.StatusClientOnly:
			output.StatusLine(w, status, "%s has no server release for this version, check it manually", r.ProjectTitle())
			if p.Project != nil {
				fmt.Fprintf(w, "    %s\n", output.Sprint(output.Dim, p.Project.URL()))
			}
		case updater.StatusNotOnRegistry:
			output.StatusLine(w, status, "%s was not found on Modrinth", r.Name)
		default:
			output.StatusLine(w, status, "%s", r.Name)
		}
	}

	s := updater.Summarize(results)
	fmt.Fprintln(w)
	output.Header.Fprintf(w, "%d plugin(s): %d up to date, %d to update, %d client only, %d failed, %d not on Modrinth\n",
		len(results),
		s[updater.StatusUpToDate],
		s[updater.StatusUpdateAvailable],
		s[updater.StatusClientOnly],
		s[updater.StatusLookupFailed],
		s[updater.StatusNotOnRegistry],
	)
}

// printApplyResults writes the outcome of each attempted update.
func printApplyResults(w io.Writer, applied []updater.ApplyResult) {
	if len(applied) == 0 {
		output.StatusLine(w, "up-to-date", "Everything is up to date")
		return
	}

	updated := 0
	for _, res := range applied {
		outcome := res.Outcome.String()
		switch res.Outcome {
		case updater.OutcomeUpdated:
			updated++
			output.StatusLine(w, outcome, "Updated %s: %s → %s", res.Project, res.FromVersion, res.ToVersion)
			output.Dim.Fprintf(w, "    old file moved to %s\n", res.ArchivedPath)
		case updater.OutcomeSkipped:
			output.StatusLine(w, outcome, "Skipped %s", describeError(res.Err))
		default:
			// A bad download never touches the installed file, so it is a warning.
			if isHashMismatch(res.Err) {
				outcome = "hash-mismatch"
			}
			output.StatusLine(w, outcome, "Could not update %s", describeError(res.Err))
		}
	}

	fmt.Fprintln(w)
	output.Header.Fprintf(w, "%d of %d plugin(s) updated\n", updated, len(applied))
}

func isHashMismatch(err error) bool {
	var mismatch *downloader.HashMismatchError
	return errors.As(err, &mismatch)
}

func describeError(err error) string {
	if err == nil {
		return ""
	}
	if isHashMismatch(err) {
		return fmt.Sprintf("%v (the file was not installed)", err)
	}
	return err.Error()
}
