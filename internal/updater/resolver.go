package updater

import (
	"strings"

	"github.com/Masterminds/semver/v3"

	"github.com/Zechiax/LazyAndrew/internal/registry"
)

// DefaultLoaders are the server platforms a plugin release must target.
var DefaultLoaders = []string{"bukkit", "spigot", "paper", "purpur"}

// ResolveLatest returns the most recently published version that supports
// gameVersion and at least one of loaders (compared case-insensitively).
// It returns nil when no version qualifies.
//
// Versions published at the same instant are ordered by version number,
// semantically when both numbers parse and lexically otherwise, then by id.
// The result does not depend on the order of versions.
func ResolveLatest(versions []registry.Version, gameVersion string, loaders []string) *registry.Version {
	var best *registry.Version
	for i := range versions {
		v := &versions[i]
		if !contains(v.GameVersions, gameVersion) || !intersectsFold(v.Loaders, loaders) {
			continue
		}
		if best == nil || newer(v, best) {
			best = v
		}
	}
	return best
}

// IsLatest reports whether current and latest are the same release. Both the
// opaque id and the version number must match, so a re-tagged version with a
// reused number is still treated as different.
func IsLatest(current, latest registry.Version) bool {
	return current.ID == latest.ID && current.VersionNumber == latest.VersionNumber
}

// newer reports whether a sorts after b.
func newer(a, b *registry.Version) bool {
	if !a.DatePublished.Equal(b.DatePublished) {
		return a.DatePublished.After(b.DatePublished)
	}
	if c := compareVersionNumbers(a.VersionNumber, b.VersionNumber); c != 0 {
		return c > 0
	}
	return a.ID > b.ID
}

// compareVersionNumbers compares two version numbers, returning -1, 0 or 1.
// Numbers that parse as semantic versions sort above those that do not.
func compareVersionNumbers(a, b string) int {
	av, aErr := semver.NewVersion(strings.TrimPrefix(a, "v"))
	bv, bErr := semver.NewVersion(strings.TrimPrefix(b, "v"))
	switch {
	case aErr == nil && bErr == nil:
		if c := av.Compare(bv); c != 0 {
			return c
		}
	case aErr == nil:
		return 1
	case bErr == nil:
		return -1
	}
	return strings.Compare(a, b)
}

func contains(list []string, s string) bool {
	for _, item := range list {
		if item == s {
			return true
		}
	}
	return false
}

func intersectsFold(a, b []string) bool {
	for _, x := range a {
		for _, y := range b {
			if strings.EqualFold(x, y) {
				return true
			}
		}
	}
	return false
}
