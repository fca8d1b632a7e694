// Package registry talks to the Modrinth package index.
//
// The Client interface is the contract the updater depends on; Modrinth is the
// HTTP implementation against the v2 API. Lookups that find nothing return an
// error wrapping ErrNotFound so callers can tell expected absence from failure.
package registry

import (
	"context"
	"errors"
	"fmt"
	"time"
)

var (
	// ErrNotFound is returned when the registry has no record for the query
	ErrNotFound = errors.New("not found on registry")
)

// APIError is returned for any non-2xx registry response.
type APIError struct {
	StatusCode int
	URL        string
	Message    string
}

func (e *APIError) Error() string {
	if e.Message != "" {
		return fmt.Sprintf("registry returned status %d for %s: %s", e.StatusCode, e.URL, e.Message)
	}
	return fmt.Sprintf("registry returned status %d for %s", e.StatusCode, e.URL)
}

// Unwrap maps a 404 onto ErrNotFound.
func (e *APIError) Unwrap() error {
	if e.StatusCode == 404 {
		return ErrNotFound
	}
	return nil
}

// Side is a project's support classification for one environment.
type Side string

const (
	SideRequired    Side = "required"
	SideOptional    Side = "optional"
	SideUnsupported Side = "unsupported"
	SideUnknown     Side = "unknown"
)

// File is a downloadable file attached to a version.
type File struct {
	Hashes   map[string]string `json:"hashes"`
	URL      string            `json:"url"`
	Filename string            `json:"filename"`
	Primary  bool              `json:"primary"`
	Size     int64             `json:"size"`
}

// Hash returns the declared digest for alg ("sha1", "sha512") or "".
func (f File) Hash(alg string) string {
	return f.Hashes[alg]
}

// Version is a single published version of a project.
type Version struct {
	ID            string    `json:"id"`
	ProjectID     string    `json:"project_id"`
	Name          string    `json:"name"`
	VersionNumber string    `json:"version_number"`
	VersionType   string    `json:"version_type"`
	DatePublished time.Time `json:"date_published"`
	GameVersions  []string  `json:"game_versions"`
	Loaders       []string  `json:"loaders"`
	Files         []File    `json:"files"`
}

// Project is the parent metadata of a set of versions.
type Project struct {
	ID          string `json:"id"`
	Slug        string `json:"slug"`
	Title       string `json:"title"`
	ProjectType string `json:"project_type"`
	ServerSide  Side   `json:"server_side"`
	ClientSide  Side   `json:"client_side"`
}

// URL returns the canonical web page of the project.
func (p Project) URL() string {
	kind := p.ProjectType
	if kind == "" {
		kind = "project"
	}
	slug := p.Slug
	if slug == "" {
		slug = p.ID
	}
	return fmt.Sprintf("https://modrinth.com/%s/%s", kind, slug)
}

// GameVersion is a game release known to the registry.
type GameVersion struct {
	Version     string    `json:"version"`
	VersionType string    `json:"version_type"`
	Date        time.Time `json:"date"`
	Major       bool      `json:"major"`
}

// GameVersionRelease is the version type of stable game releases.
const GameVersionRelease = "release"

// Client is the registry contract used by the updater.
type Client interface {
	// VersionByHash returns the version owning a file with the given digest.
	VersionByHash(ctx context.Context, hash, algorithm string) (*Version, error)
	// Project returns a single project's metadata.
	Project(ctx context.Context, id string) (*Project, error)
	// Projects returns metadata for several projects in one round trip.
	Projects(ctx context.Context, ids []string) ([]Project, error)
	// ProjectVersions returns every version published for a project.
	ProjectVersions(ctx context.Context, id string) ([]Version, error)
	// GameVersions returns all game versions the registry knows about.
	GameVersions(ctx context.Context) ([]GameVersion, error)
}
