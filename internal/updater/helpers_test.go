package updater

import (
	"context"
	"crypto/sha1"
	"crypto/sha512"
	"encoding/hex"
	"errors"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/Zechiax/LazyAndrew/internal/common/httpclient"
	"github.com/Zechiax/LazyAndrew/internal/downloader"
	"github.com/Zechiax/LazyAndrew/internal/registry"
)

// fakeRegistry is an in-memory registry.Client that counts calls.
type fakeRegistry struct {
	mu           sync.Mutex
	byHash       map[string]registry.Version
	hashErrs     map[string]error
	projects     map[string]registry.Project
	omitFromBulk map[string]bool
	versions     map[string][]registry.Version
	versionErrs  map[string]error
	gameVersions []registry.GameVersion
	calls        map[string]int
}

func newFakeRegistry() *fakeRegistry {
	return &fakeRegistry{
		byHash:       make(map[string]registry.Version),
		hashErrs:     make(map[string]error),
		projects:     make(map[string]registry.Project),
		omitFromBulk: make(map[string]bool),
		versions:     make(map[string][]registry.Version),
		versionErrs:  make(map[string]error),
		gameVersions: []registry.GameVersion{
			{Version: "1.19.4", VersionType: "release", Date: date(2023, 3, 14)},
			{Version: "1.20", VersionType: "release", Date: date(2023, 6, 7)},
			{Version: "23w31a", VersionType: "snapshot", Date: date(2023, 8, 1)},
		},
		calls: make(map[string]int),
	}
}

func (f *fakeRegistry) count(method string) {
	f.mu.Lock()
	f.calls[method]++
	f.mu.Unlock()
}

func (f *fakeRegistry) callCount(method string) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls[method]
}

func (f *fakeRegistry) VersionByHash(ctx context.Context, hash, algorithm string) (*registry.Version, error) {
	f.count("VersionByHash")
	if algorithm != "sha1" {
		return nil, errors.New("unexpected algorithm " + algorithm)
	}
	if err, ok := f.hashErrs[hash]; ok {
		return nil, err
	}
	v, ok := f.byHash[hash]
	if !ok {
		return nil, &registry.APIError{StatusCode: 404, URL: "/version_file/" + hash}
	}
	return &v, nil
}

func (f *fakeRegistry) Project(ctx context.Context, id string) (*registry.Project, error) {
	f.count("Project")
	p, ok := f.projects[id]
	if !ok {
		return nil, &registry.APIError{StatusCode: 404, URL: "/project/" + id}
	}
	return &p, nil
}

func (f *fakeRegistry) Projects(ctx context.Context, ids []string) ([]registry.Project, error) {
	f.count("Projects")
	var out []registry.Project
	for _, id := range ids {
		if p, ok := f.projects[id]; ok && !f.omitFromBulk[id] {
			out = append(out, p)
		}
	}
	return out, nil
}

func (f *fakeRegistry) ProjectVersions(ctx context.Context, id string) ([]registry.Version, error) {
	f.count("ProjectVersions")
	if err, ok := f.versionErrs[id]; ok {
		return nil, err
	}
	return f.versions[id], nil
}

func (f *fakeRegistry) GameVersions(ctx context.Context) ([]registry.GameVersion, error) {
	f.count("GameVersions")
	return f.gameVersions, nil
}

func date(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func sha1Hex(data []byte) string {
	sum := sha1.Sum(data)
	return hex.EncodeToString(sum[:])
}

func sha512Hex(data []byte) string {
	sum := sha512.Sum512(data)
	return hex.EncodeToString(sum[:])
}

// writePlugin creates name in dir with content and returns its path.
func writePlugin(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatal(err)
	}
	return path
}

// pluginVersion builds a paper version for game version 1.20.
func pluginVersion(id, project, number string, published time.Time, files ...registry.File) registry.Version {
	return registry.Version{
		ID:            id,
		ProjectID:     project,
		VersionNumber: number,
		DatePublished: published,
		GameVersions:  []string{"1.20"},
		Loaders:       []string{"paper"},
		Files:         files,
	}
}

// testEnv is a plugin directory plus a download server.
type testEnv struct {
	root    string
	plugins string
	reg     *fakeRegistry
	server  *httptest.Server
	files   map[string][]byte
	mu      sync.Mutex
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	root := t.TempDir()
	env := &testEnv{
		root:    root,
		plugins: filepath.Join(root, "plugins"),
		reg:     newFakeRegistry(),
		files:   make(map[string][]byte),
	}
	if err := os.MkdirAll(env.plugins, 0755); err != nil {
		t.Fatal(err)
	}
	env.server = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		env.mu.Lock()
		body, ok := env.files[r.URL.Path]
		env.mu.Unlock()
		if !ok {
			http.NotFound(w, r)
			return
		}
		w.Write(body)
	}))
	t.Cleanup(env.server.Close)
	return env
}

// serveFile publishes content at path on the download server and returns a
// registry file descriptor declaring hash.
func (e *testEnv) serveFile(path, filename string, content []byte, declared string) registry.File {
	e.mu.Lock()
	e.files[path] = content
	e.mu.Unlock()
	return registry.File{
		URL:      e.server.URL + path,
		Filename: filename,
		Primary:  true,
		Hashes:   map[string]string{"sha1": sha1Hex(content), "sha512": declared},
	}
}

func (e *testEnv) downloader(t *testing.T) *downloader.Downloader {
	hc := httpclient.New()
	hc.SetHTTPClient(e.server.Client())
	hc.SetDelayFunc(func(time.Duration) {})
	return downloader.New(hc, downloader.WithScratchDir(filepath.Join(e.root, "scratch")))
}

func (e *testEnv) updater(t *testing.T, opts ...Option) *Updater {
	t.Helper()
	opts = append([]Option{WithGameVersion("1.20"), WithDownloader(e.downloader(t))}, opts...)
	u, err := New(context.Background(), e.reg, e.plugins, opts...)
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	return u
}

func findResult(t *testing.T, results []CheckResult, name string) CheckResult {
	t.Helper()
	for _, r := range results {
		if r.Name == name {
			return r
		}
	}
	t.Fatalf("no result for %s", name)
	return CheckResult{}
}

func exists(path string) bool {
	_, err := os.Lstat(path)
	return err == nil
}
