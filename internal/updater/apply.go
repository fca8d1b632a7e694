package updater

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/Zechiax/LazyAndrew/internal/common/logger"
	"github.com/Zechiax/LazyAndrew/internal/hasher"
)

// stagingSuffix marks a verified download waiting to be swapped in.
const stagingSuffix = ".lazyandrew-partial"

// rename is swapped out in tests to force the copy fallback of moveFile.
var rename = os.Rename

// Outcome is what happened to one artifact during Apply.
type Outcome int

const (
	// OutcomeUpdated means the new file is installed and the old one archived
	OutcomeUpdated Outcome = iota
	// OutcomeSkipped means the artifact needs manual attention and was left alone
	OutcomeSkipped
	// OutcomeFailed means the update was attempted and the artifact left untouched
	OutcomeFailed
)

func (o Outcome) String() string {
	switch o {
	case OutcomeUpdated:
		return "updated"
	case OutcomeSkipped:
		return "skipped"
	case OutcomeFailed:
		return "failed"
	default:
		return "unknown"
	}
}

// ApplyResult describes the replacement of one artifact.
type ApplyResult struct {
	Name    string
	Project string
	// FromVersion and ToVersion are version numbers
	FromVersion string
	ToVersion   string
	// OldPath is the artifact's original location
	OldPath string
	// ArchivedPath is where the old file went, set when Outcome is OutcomeUpdated
	ArchivedPath string
	// NewPath is the installed file, set when Outcome is OutcomeUpdated
	NewPath string
	Outcome Outcome
	Err     error
}

// Apply replaces every artifact whose status is StatusUpdateAvailable.
//
// For each artifact the new file is downloaded and its SHA-512 verified before
// anything on disk changes; the old file is then archived and the new file
// moved into place. A failure affects only that artifact. Cancellation is
// checked between artifacts, never in the middle of a swap, and the results
// gathered so far are returned with the context error.
func (u *Updater) Apply(ctx context.Context, results []CheckResult) ([]ApplyResult, error) {
	var applied []ApplyResult
	for _, r := range results {
		if r.Status != StatusUpdateAvailable {
			continue
		}
		if err := ctx.Err(); err != nil {
			return applied, err
		}
		res := u.applyOne(ctx, r)
		switch res.Outcome {
		case OutcomeUpdated:
			logger.Debug("Replaced %s with %s", res.OldPath, res.NewPath)
		default:
			logger.Debug("Did not update %s: %v", res.Name, res.Err)
		}
		applied = append(applied, res)
	}
	return applied, nil
}

func (u *Updater) applyOne(ctx context.Context, r CheckResult) ApplyResult {
	p := r.payload
	res := ApplyResult{
		Name:        r.Name,
		Project:     r.ProjectTitle(),
		FromVersion: p.Current.VersionNumber,
		ToVersion:   p.Latest.VersionNumber,
		OldPath:     p.Artifact.Path,
	}
	fail := func(outcome Outcome, err error) ApplyResult {
		res.Outcome = outcome
		res.Err = err
		return res
	}

	if hold, ok := u.holds.Held(r.Name); ok {
		if hold.Reason != "" {
			return fail(OutcomeSkipped, fmt.Errorf("%s: %w: %s", r.Name, ErrHeld, hold.Reason))
		}
		return fail(OutcomeSkipped, fmt.Errorf("%s: %w", r.Name, ErrHeld))
	}

	if n := len(p.Latest.Files); n != 1 {
		return fail(OutcomeSkipped, fmt.Errorf("%s: %w (%s %s has %d files)", r.Name, ErrAmbiguousRelease, res.Project, res.ToVersion, n))
	}
	file := p.Latest.Files[0]

	expected := file.Hash(string(hasher.SHA512))
	if expected == "" {
		return fail(OutcomeFailed, fmt.Errorf("%s: %w %q", r.Name, ErrMissingHash, file.Filename))
	}

	name := filepath.Base(file.Filename)
	if file.Filename == "" || name != file.Filename || name == "." || name == ".." || strings.HasPrefix(name, ".") {
		return fail(OutcomeFailed, fmt.Errorf("%s: %w %q", r.Name, ErrInvalidFilename, file.Filename))
	}

	dest := filepath.Join(u.dir, name)
	if dest != p.Artifact.Path {
		if _, err := os.Lstat(dest); err == nil {
			return fail(OutcomeFailed, fmt.Errorf("%s: %w: %s", r.Name, ErrDestinationExists, dest))
		}
	}

	dl, err := u.downloader.Download(ctx, file.URL, expected, hasher.SHA512)
	if err != nil {
		return fail(OutcomeFailed, fmt.Errorf("%s: %w", r.Name, err))
	}

	archived, err := u.swap(dl.Path, p.Artifact, dest)
	if err != nil {
		return fail(OutcomeFailed, fmt.Errorf("%s: %w", r.Name, err))
	}

	res.Outcome = OutcomeUpdated
	res.ArchivedPath = archived
	res.NewPath = dest
	return res
}

// swap installs the verified file at tmp in place of artifact. Either the old
// file ends up archived and the new one at dest, or the old file is back at
// its original path.
func (u *Updater) swap(tmp string, artifact Artifact, dest string) (string, error) {
	staged := filepath.Join(u.dir, "."+filepath.Base(dest)+stagingSuffix)
	// A previous run may have died mid-copy and left a partial file behind.
	if err := os.Remove(staged); err != nil && !os.IsNotExist(err) {
		os.Remove(tmp)
		return "", fmt.Errorf("failed to remove stale staging file: %w", err)
	}
	if err := moveFile(tmp, staged); err != nil {
		os.Remove(tmp)
		return "", fmt.Errorf("failed to stage download: %w", err)
	}

	if err := os.MkdirAll(u.archiveDir, 0755); err != nil {
		os.Remove(staged)
		return "", fmt.Errorf("failed to create archive directory: %w", err)
	}

	archived, err := archivePath(u.archiveDir, artifact.Name)
	if err != nil {
		os.Remove(staged)
		return "", err
	}

	if err := moveFile(artifact.Path, archived); err != nil {
		os.Remove(staged)
		return "", fmt.Errorf("failed to archive old file: %w", err)
	}

	if err := os.Rename(staged, dest); err != nil {
		if rbErr := moveFile(archived, artifact.Path); rbErr != nil {
			logger.Error("Could not restore %s from %s: %v", artifact.Path, archived, rbErr)
		}
		os.Remove(staged)
		return "", fmt.Errorf("failed to install new file: %w", err)
	}

	return archived, nil
}

// archivePath returns a free path for name inside dir. An existing archived
// file is never overwritten: foo.jar becomes foo.1.jar, foo.2.jar, and so on.
func archivePath(dir, name string) (string, error) {
	candidate := filepath.Join(dir, name)
	ext := filepath.Ext(name)
	stem := strings.TrimSuffix(name, ext)

	for i := 1; ; i++ {
		_, err := os.Lstat(candidate)
		if os.IsNotExist(err) {
			return candidate, nil
		}
		if err != nil {
			return "", fmt.Errorf("failed to inspect archive directory: %w", err)
		}
		candidate = filepath.Join(dir, stem+"."+strconv.Itoa(i)+ext)
	}
}

// moveFile renames src to dst, copying when a rename is not possible (for
// example across filesystems). dst must not exist.
func moveFile(src, dst string) error {
	if err := rename(src, dst); err == nil {
		return nil
	}

	if err := copyFile(src, dst); err != nil {
		return err
	}
	if err := os.Remove(src); err != nil {
		os.Remove(dst)
		return err
	}
	return nil
}

func copyFile(src, dst string) error {
	in, err := os.Open(src)
	if err != nil {
		return err
	}
	defer in.Close()

	info, err := in.Stat()
	if err != nil {
		return err
	}

	out, err := os.OpenFile(dst, os.O_CREATE|os.O_EXCL|os.O_WRONLY, info.Mode().Perm())
	if err != nil {
		return err
	}

	_, err = io.Copy(out, in)
	if err == nil {
		err = out.Sync()
	}
	if closeErr := out.Close(); err == nil {
		err = closeErr
	}
	if err != nil {
		os.Remove(dst)
	}
	return err
}
