package registry

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"

	"github.com/Zechiax/LazyAndrew/internal/common/httpclient"
	"github.com/Zechiax/LazyAndrew/internal/common/logger"
)

// DefaultBaseURL is the Modrinth v2 API root
const DefaultBaseURL = "https://api.modrinth.com/v2"

// maxErrorBody bounds how much of an error response is kept in APIError
const maxErrorBody = 512

// Modrinth implements Client over the Modrinth REST API.
type Modrinth struct {
	BaseURL    string
	HTTPClient *httpclient.Client
}

// NewModrinth creates a client for baseURL using hc for transport.
// An empty baseURL selects DefaultBaseURL.
func NewModrinth(baseURL string, hc *httpclient.Client) *Modrinth {
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	if hc == nil {
		hc = httpclient.New()
	}
	return &Modrinth{
		BaseURL:    strings.TrimRight(baseURL, "/"),
		HTTPClient: hc,
	}
}

// VersionByHash implements Client.
func (m *Modrinth) VersionByHash(ctx context.Context, hash, algorithm string) (*Version, error) {
	q := url.Values{"algorithm": {algorithm}}
	var v Version
	if err := m.get(ctx, "/version_file/"+url.PathEscape(hash), q, &v); err != nil {
		return nil, err
	}
	return &v, nil
}

// Project implements Client.
func (m *Modrinth) Project(ctx context.Context, id string) (*Project, error) {
	var p Project
	if err := m.get(ctx, "/project/"+url.PathEscape(id), nil, &p); err != nil {
		return nil, err
	}
	return &p, nil
}

// Projects implements Client.
func (m *Modrinth) Projects(ctx context.Context, ids []string) ([]Project, error) {
	if len(ids) == 0 {
		return nil, nil
	}
	encoded, err := json.Marshal(ids)
	if err != nil {
		return nil, fmt.Errorf("failed to encode project ids: %w", err)
	}
	var projects []Project
	if err := m.get(ctx, "/projects", url.Values{"ids": {string(encoded)}}, &projects); err != nil {
		return nil, err
	}
	return projects, nil
}

// ProjectVersions implements Client.
func (m *Modrinth) ProjectVersions(ctx context.Context, id string) ([]Version, error) {
	var versions []Version
	if err := m.get(ctx, "/project/"+url.PathEscape(id)+"/version", nil, &versions); err != nil {
		return nil, err
	}
	return versions, nil
}

// GameVersions implements Client.
func (m *Modrinth) GameVersions(ctx context.Context) ([]GameVersion, error) {
	var versions []GameVersion
	if err := m.get(ctx, "/tag/game_version", nil, &versions); err != nil {
		return nil, err
	}
	return versions, nil
}

// get fetches path relative to BaseURL and decodes the JSON body into out.
func (m *Modrinth) get(ctx context.Context, path string, query url.Values, out interface{}) error {
	endpoint := m.BaseURL + path
	if len(query) > 0 {
		endpoint += "?" + query.Encode()
	}

	logger.Debug("GET %s", endpoint)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return err
	}
	req.Header.Set("Accept", "application/json")

	resp, err := m.HTTPClient.Do(req)
	if err != nil {
		return fmt.Errorf("registry request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
		return &APIError{
			StatusCode: resp.StatusCode,
			URL:        endpoint,
			Message:    strings.TrimSpace(string(body)),
		}
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("failed to decode response from %s: %w", endpoint, err)
	}
	return nil
}
