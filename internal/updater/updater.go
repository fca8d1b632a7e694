// Package updater checks installed plugin files against the registry and
// replaces outdated ones with verified newer releases.
//
// Usage:
//
//	u, err := updater.New(ctx, registry.NewModrinth("", nil), "plugins")
//	if err != nil {
//	    log.Fatal(err)
//	}
//	results, err := u.Check(ctx)
//	applied, err := u.Apply(ctx, results)
package updater

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"golang.org/x/sync/errgroup"

	"github.com/Zechiax/LazyAndrew/internal/common/logger"
	"github.com/Zechiax/LazyAndrew/internal/downloader"
	"github.com/Zechiax/LazyAndrew/internal/hasher"
	"github.com/Zechiax/LazyAndrew/internal/registry"
)

const (
	// PluginExtension selects the files treated as plugins
	PluginExtension = ".jar"
	// LatestGameVersion asks for the newest release game version
	LatestGameVersion = "latest"
	// DefaultArchiveDirName is the archive directory created next to the plugin directory
	DefaultArchiveDirName = "oldplugins"
	// DefaultConcurrency bounds parallel registry work per run
	DefaultConcurrency = 4
)

// Updater coordinates one check-and-update run over a plugin directory.
type Updater struct {
	registry    registry.Client
	downloader  *downloader.Downloader
	dir         string
	archiveDir  string
	gameVersion string
	loaders     []string
	concurrency int
	holds       Holds
}

// Option is a functional option for configuring Updater
type Option func(*Updater)

// WithGameVersion sets the target game version. "" and "latest" select the
// newest release the registry reports.
func WithGameVersion(version string) Option {
	return func(u *Updater) {
		u.gameVersion = version
	}
}

// WithLoaders replaces the accepted loader set.
func WithLoaders(loaders []string) Option {
	return func(u *Updater) {
		u.loaders = loaders
	}
}

// WithArchiveDir sets where replaced files are moved.
func WithArchiveDir(dir string) Option {
	return func(u *Updater) {
		u.archiveDir = dir
	}
}

// WithDownloader sets the downloader used by Apply.
func WithDownloader(d *downloader.Downloader) Option {
	return func(u *Updater) {
		u.downloader = d
	}
}

// WithConcurrency bounds how many artifacts are looked up at once.
func WithConcurrency(n int) Option {
	return func(u *Updater) {
		u.concurrency = n
	}
}

// WithHolds sets the held plugins instead of reading the holds file.
func WithHolds(holds Holds) Option {
	return func(u *Updater) {
		u.holds = holds
	}
}

// New validates the plugin directory and target game version and returns a
// ready Updater. Both checks happen before any file is read.
func New(ctx context.Context, reg registry.Client, dir string, opts ...Option) (*Updater, error) {
	u := &Updater{
		registry:    reg,
		loaders:     DefaultLoaders,
		concurrency: DefaultConcurrency,
	}
	for _, opt := range opts {
		opt(u)
	}

	abs, err := filepath.Abs(dir)
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %v", ErrDirectoryNotFound, dir, err)
	}
	info, err := os.Stat(abs)
	if err != nil || !info.IsDir() {
		return nil, fmt.Errorf("%w: %s", ErrDirectoryNotFound, dir)
	}
	u.dir = abs

	if u.archiveDir == "" {
		u.archiveDir = filepath.Join(filepath.Dir(abs), DefaultArchiveDirName)
	}
	if u.concurrency < 1 {
		u.concurrency = 1
	}
	if u.downloader == nil {
		u.downloader = downloader.New(nil)
	}
	if u.holds == nil {
		holds, err := LoadHolds(abs)
		if err != nil {
			return nil, err
		}
		u.holds = holds
	}

	target, err := u.resolveGameVersion(ctx)
	if err != nil {
		return nil, err
	}
	u.gameVersion = target

	return u, nil
}

// resolveGameVersion turns the configured target into a concrete version.
func (u *Updater) resolveGameVersion(ctx context.Context) (string, error) {
	versions, err := u.registry.GameVersions(ctx)
	if err != nil {
		return "", fmt.Errorf("failed to fetch game versions: %w", err)
	}

	if u.gameVersion == "" || u.gameVersion == LatestGameVersion {
		latest := LatestRelease(versions)
		if latest == "" {
			return "", fmt.Errorf("%w: registry reports no release game version", ErrUnsupportedVersion)
		}
		logger.Debug("Target game version set to latest release: %s", latest)
		return latest, nil
	}

	for _, v := range versions {
		if v.Version == u.gameVersion {
			logger.Debug("Target game version set to %s", u.gameVersion)
			return u.gameVersion, nil
		}
	}
	return "", fmt.Errorf("%w: Minecraft version %q is not known to the registry", ErrUnsupportedVersion, u.gameVersion)
}

// LatestRelease returns the most recently dated release-type game version.
func LatestRelease(versions []registry.GameVersion) string {
	var best *registry.GameVersion
	for i := range versions {
		v := &versions[i]
		if v.VersionType != registry.GameVersionRelease {
			continue
		}
		if best == nil || v.Date.After(best.Date) {
			best = v
		}
	}
	if best == nil {
		return ""
	}
	return best.Version
}

// Dir returns the absolute plugin directory.
func (u *Updater) Dir() string { return u.dir }

// ArchiveDir returns where replaced files are archived.
func (u *Updater) ArchiveDir() string { return u.archiveDir }

// GameVersion returns the resolved target game version.
func (u *Updater) GameVersion() string { return u.gameVersion }

// Artifacts lists the plugin files in the plugin directory, sorted by name.
func (u *Updater) Artifacts() ([]Artifact, error) {
	entries, err := os.ReadDir(u.dir)
	if err != nil {
		return nil, fmt.Errorf("failed to read plugin directory: %w", err)
	}

	var artifacts []Artifact
	for _, entry := range entries {
		if filepath.Ext(entry.Name()) != PluginExtension {
			continue
		}
		path := filepath.Join(u.dir, entry.Name())
		if !entry.Type().IsRegular() {
			// Symlinks count when they point at a regular file.
			if entry.Type()&fs.ModeSymlink == 0 {
				continue
			}
			info, err := os.Stat(path)
			if err != nil || !info.Mode().IsRegular() {
				logger.Debug("Skipping %s: not a regular file", path)
				continue
			}
		}
		artifacts = append(artifacts, Artifact{Path: path, Name: entry.Name()})
	}
	sort.Slice(artifacts, func(i, j int) bool { return artifacts[i].Name < artifacts[j].Name })
	return artifacts, nil
}

// Check classifies every plugin file in the directory. Per-artifact registry
// failures are recorded on the results; only cancellation or an unreadable
// directory fail the whole run.
func (u *Updater) Check(ctx context.Context) ([]CheckResult, error) {
	artifacts, err := u.Artifacts()
	if err != nil {
		return nil, err
	}

	results := make([]CheckResult, len(artifacts))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(u.concurrency)
	for i, a := range artifacts {
		g.Go(func() error {
			results[i] = u.lookup(gctx, a)
			return gctx.Err()
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	if err := u.classify(ctx, results); err != nil {
		return nil, err
	}
	return results, nil
}

// lookup hashes one artifact and asks the registry which version it is.
func (u *Updater) lookup(ctx context.Context, a Artifact) CheckResult {
	logger.Debug("Checking file %s", a.Name)

	hash, err := hasher.HashFile(a.Path, hasher.SHA1)
	if err != nil {
		return lookupFailed(a.Name, fmt.Errorf("%s: failed to hash file: %w", a.Name, err))
	}

	current, err := u.registry.VersionByHash(ctx, hash, string(hasher.SHA1))
	switch {
	case errors.Is(err, registry.ErrNotFound):
		logger.Debug("File %s is not on the registry", a.Name)
		return notOnRegistry(a)
	case err != nil:
		logger.Warn("Update check failed for file %s", a.Name)
		return lookupFailed(a.Name, fmt.Errorf("%s: %w", a.Name, err))
	}

	return identified(a, *current)
}

// classify fetches project metadata and version lists for identified
// artifacts and assigns their terminal status.
func (u *Updater) classify(ctx context.Context, results []CheckResult) error {
	var pending []int
	idSet := make(map[string]bool)
	for i, r := range results {
		if r.Status == StatusPendingCheck {
			pending = append(pending, i)
			idSet[r.payload.Current.ProjectID] = true
		}
	}
	if len(pending) == 0 {
		return nil
	}

	ids := make([]string, 0, len(idSet))
	for id := range idSet {
		ids = append(ids, id)
	}
	sort.Strings(ids)

	projects, projectErrs := u.fetchProjects(ctx, ids)
	if ctx.Err() != nil {
		return ctx.Err()
	}

	versions := make(map[string][]registry.Version, len(ids))
	versionErrs := make(map[string]error)
	lists := make([][]registry.Version, len(ids))
	errs := make([]error, len(ids))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(u.concurrency)
	for i, id := range ids {
		if projectErrs[id] != nil {
			continue
		}
		g.Go(func() error {
			lists[i], errs[i] = u.registry.ProjectVersions(gctx, id)
			return gctx.Err()
		})
	}
	if err := g.Wait(); err != nil {
		return err
	}
	for i, id := range ids {
		if errs[i] != nil {
			versionErrs[id] = errs[i]
			continue
		}
		versions[id] = lists[i]
	}

	for _, i := range pending {
		r := results[i]
		id := r.payload.Current.ProjectID

		if err := projectErrs[id]; err != nil {
			results[i] = lookupFailed(r.Name, fmt.Errorf("%s: failed to fetch project %s: %w", r.Name, id, err))
			continue
		}
		if err := versionErrs[id]; err != nil {
			results[i] = lookupFailed(r.Name, fmt.Errorf("%s: failed to fetch versions of project %s: %w", r.Name, id, err))
			continue
		}

		project := projects[id]
		r.payload.Project = &project

		latest := ResolveLatest(versions[id], u.gameVersion, u.loaders)
		switch {
		case project.ServerSide == registry.SideUnsupported || latest == nil:
			r.Status = StatusClientOnly
		case IsLatest(r.payload.Current, *latest):
			r.payload.Latest = latest
			r.Status = StatusUpToDate
		default:
			r.payload.Latest = latest
			r.Status = StatusUpdateAvailable
		}
		results[i] = r
	}
	return nil
}

// fetchProjects loads project metadata in one batch call, falling back to
// single lookups for projects the batch did not return.
func (u *Updater) fetchProjects(ctx context.Context, ids []string) (map[string]registry.Project, map[string]error) {
	projects := make(map[string]registry.Project, len(ids))
	errs := make(map[string]error)

	batch, err := u.registry.Projects(ctx, ids)
	if err != nil {
		for _, id := range ids {
			errs[id] = err
		}
		return projects, errs
	}
	for _, p := range batch {
		projects[p.ID] = p
	}

	for _, id := range ids {
		if _, ok := projects[id]; ok {
			continue
		}
		logger.Debug("Project %s missing from batch response, fetching it alone", id)
		p, err := u.registry.Project(ctx, id)
		if err != nil {
			errs[id] = err
			continue
		}
		projects[id] = *p
	}
	return projects, errs
}

// normalizeLoaders lower-cases a loader list for display.
func normalizeLoaders(loaders []string) string {
	out := make([]string, len(loaders))
	for i, l := range loaders {
		out[i] = strings.ToLower(l)
	}
	return strings.Join(out, ", ")
}

// Loaders returns the accepted loader set as a display string.
func (u *Updater) Loaders() string {
	return normalizeLoaders(u.loaders)
}
