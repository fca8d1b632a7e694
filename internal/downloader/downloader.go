// Package downloader fetches remote files into a scratch directory and
// verifies them against a declared digest.
package downloader

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"path"
	"path/filepath"

	"github.com/google/uuid"

	"github.com/Zechiax/LazyAndrew/internal/common/httpclient"
	"github.com/Zechiax/LazyAndrew/internal/common/logger"
	"github.com/Zechiax/LazyAndrew/internal/hasher"
)

// Error variables for downloader errors
var (
	// ErrDownloadFailed is returned when the remote file could not be fetched
	ErrDownloadFailed = errors.New("download failed")
	// ErrNotFound is returned alongside ErrDownloadFailed for a 404 response
	ErrNotFound = errors.New("remote file not found")
	// ErrHashMismatch is returned when the downloaded bytes do not match the expected digest
	ErrHashMismatch = errors.New("downloaded file hash does not match")
)

// DefaultScratchDirName is the directory created under os.TempDir for downloads
const DefaultScratchDirName = "LazyAndrewDownloads"

// HashMismatchError describes a failed integrity check.
type HashMismatchError struct {
	URL       string
	Algorithm hasher.Algorithm
	Expected  string
	Actual    string
}

func (e *HashMismatchError) Error() string {
	return fmt.Sprintf("%s hash of %s is %s, expected %s", e.Algorithm, e.URL, e.Actual, e.Expected)
}

// Unwrap lets errors.Is match ErrHashMismatch.
func (e *HashMismatchError) Unwrap() error {
	return ErrHashMismatch
}

// File is a downloaded file sitting in the scratch directory.
type File struct {
	// Path is the absolute location of the temp file
	Path string
	// Size is the number of bytes written
	Size int64
	// Hash is the digest computed while downloading
	Hash string
	// Algorithm is the algorithm Hash was computed with
	Algorithm hasher.Algorithm
	// Verified is false when no expected digest was supplied
	Verified bool
}

// Remove deletes the temp file.
func (f *File) Remove() error {
	return os.Remove(f.Path)
}

// ProgressFunc returns a writer that receives a copy of every downloaded byte.
// size is -1 when the server does not announce a length.
type ProgressFunc func(name string, size int64) io.Writer

// Downloader downloads files into a process-scoped scratch directory.
type Downloader struct {
	client     *httpclient.Client
	scratchDir string
	progress   ProgressFunc
	newName    func() string
}

// Option configures a Downloader
type Option func(*Downloader)

// WithScratchDir overrides the scratch directory.
func WithScratchDir(dir string) Option {
	return func(d *Downloader) {
		d.scratchDir = dir
	}
}

// WithProgress installs a progress hook.
func WithProgress(fn ProgressFunc) Option {
	return func(d *Downloader) {
		d.progress = fn
	}
}

// New creates a downloader using client for transport.
func New(client *httpclient.Client, opts ...Option) *Downloader {
	if client == nil {
		client = httpclient.New()
	}
	d := &Downloader{
		client:     client,
		scratchDir: filepath.Join(os.TempDir(), DefaultScratchDirName),
		newName:    uuid.NewString,
	}
	for _, opt := range opts {
		opt(d)
	}
	return d
}

// ScratchDir returns the directory downloads are written to.
func (d *Downloader) ScratchDir() string {
	return d.scratchDir
}

// Download fetches url into the scratch directory under a random name.
//
// When expected is non-empty the digest of the received bytes must match it
// (case-insensitive) or a *HashMismatchError is returned. An empty expected
// digest skips verification entirely. On any failure the temp file is removed.
func (d *Downloader) Download(ctx context.Context, url, expected string, alg hasher.Algorithm) (*File, error) {
	h, err := hasher.New(alg)
	if err != nil {
		return nil, err
	}

	if err := os.MkdirAll(d.scratchDir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create scratch directory: %w", err)
	}

	resp, err := d.client.Get(ctx, url)
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %v", ErrDownloadFailed, url, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusNotFound {
		return nil, fmt.Errorf("%w: %w: %s", ErrDownloadFailed, ErrNotFound, url)
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, fmt.Errorf("%w: %s: HTTP %d", ErrDownloadFailed, url, resp.StatusCode)
	}

	dest := filepath.Join(d.scratchDir, d.newName())
	out, err := os.OpenFile(dest, os.O_CREATE|os.O_EXCL|os.O_WRONLY, 0644)
	if err != nil {
		return nil, fmt.Errorf("failed to create temp file: %w", err)
	}

	writers := []io.Writer{out, h}
	if d.progress != nil {
		if w := d.progress(path.Base(resp.Request.URL.Path), resp.ContentLength); w != nil {
			writers = append(writers, w)
		}
	}

	written, copyErr := io.Copy(io.MultiWriter(writers...), resp.Body)
	closeErr := out.Close()
	if copyErr != nil {
		os.Remove(dest)
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		return nil, fmt.Errorf("%w: %s: %v", ErrDownloadFailed, url, copyErr)
	}
	if closeErr != nil {
		os.Remove(dest)
		return nil, fmt.Errorf("failed to write temp file: %w", closeErr)
	}

	file := &File{
		Path:      dest,
		Size:      written,
		Hash:      hasher.Sum(h),
		Algorithm: alg,
	}

	if expected == "" {
		logger.Debug("No %s hash supplied for %s, skipping verification", alg, url)
		return file, nil
	}

	if !hasher.Equal(expected, file.Hash) {
		os.Remove(dest)
		return nil, &HashMismatchError{
			URL:       url,
			Algorithm: alg,
			Expected:  expected,
			Actual:    file.Hash,
		}
	}

	file.Verified = true
	return file, nil
}
