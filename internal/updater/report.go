package updater

import "sort"

// statusRank orders statuses for display.
var statusRank = map[CheckStatus]int{
	StatusLookupFailed:    0,
	StatusPendingCheck:    1,
	StatusUpToDate:        2,
	StatusClientOnly:      3,
	StatusUpdateAvailable: 4,
	StatusNotOnRegistry:   5,
}

// SortResults returns results in report order: failed lookups first, then
// up-to-date, client-only and update-available artifacts, with artifacts not
// on the registry last. Those are dropped entirely unless showAll is set.
// Ties are broken by name. The input slice is not modified.
func SortResults(results []CheckResult, showAll bool) []CheckResult {
	out := make([]CheckResult, 0, len(results))
	for _, r := range results {
		if r.Status == StatusNotOnRegistry && !showAll {
			continue
		}
		out = append(out, r)
	}

	sort.SliceStable(out, func(i, j int) bool {
		ri, rj := statusRank[out[i].Status], statusRank[out[j].Status]
		if ri != rj {
			return ri < rj
		}
		return out[i].Name < out[j].Name
	})
	return out
}

// Summary counts results per status.
type Summary map[CheckStatus]int

// Summarize counts results per status.
func Summarize(results []CheckResult) Summary {
	s := Summary{}
	for _, r := range results {
		s[r.Status]++
	}
	return s
}
