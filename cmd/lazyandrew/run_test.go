package main

import (
	"bytes"
	"context"
	"crypto/sha1"
	"crypto/sha512"
	"encoding/hex"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/Zechiax/LazyAndrew/internal/common/config"
	"github.com/Zechiax/LazyAndrew/internal/common/output"
	"github.com/Zechiax/LazyAndrew/internal/registry"
	"github.com/Zechiax/LazyAndrew/internal/updater"
)

func hexSum(data []byte, sha512sum bool) string {
	if sha512sum {
		sum := sha512.Sum512(data)
		return hex.EncodeToString(sum[:])
	}
	sum := sha1.Sum(data)
	return hex.EncodeToString(sum[:])
}

// fakeModrinth serves the registry endpoints for one outdated plugin
// (Vault.jar) and one current plugin (Essentials.jar).
type fakeModrinth struct {
	*httptest.Server
	byHash   map[string]registry.Version
	projects map[string]registry.Project
	versions map[string][]registry.Version
	files    map[string][]byte
}

func newFakeModrinth(t *testing.T) *fakeModrinth {
	t.Helper()
	f := &fakeModrinth{
		byHash:   map[string]registry.Version{},
		projects: map[string]registry.Project{},
		versions: map[string][]registry.Version{},
		files:    map[string][]byte{},
	}

	mux := http.NewServeMux()
	mux.HandleFunc("/tag/game_version", func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode([]registry.GameVersion{
			{Version: "1.20.1", VersionType: "release", Date: time.Date(2023, 6, 12, 0, 0, 0, 0, time.UTC)},
			{Version: "1.20", VersionType: "release", Date: time.Date(2023, 6, 7, 0, 0, 0, 0, time.UTC)},
		})
	})
	mux.HandleFunc("/version_file/", func(w http.ResponseWriter, r *http.Request) {
		v, ok := f.byHash[strings.TrimPrefix(r.URL.Path, "/version_file/")]
		if !ok {
			http.NotFound(w, r)
			return
		}
		json.NewEncoder(w).Encode(v)
	})
	mux.HandleFunc("/projects", func(w http.ResponseWriter, r *http.Request) {
		var ids []string
		json.Unmarshal([]byte(r.URL.Query().Get("ids")), &ids)
		var out []registry.Project
		for _, id := range ids {
			if p, ok := f.projects[id]; ok {
				out = append(out, p)
			}
		}
		json.NewEncoder(w).Encode(out)
	})
	mux.HandleFunc("/project/", func(w http.ResponseWriter, r *http.Request) {
		id := strings.TrimSuffix(strings.TrimPrefix(r.URL.Path, "/project/"), "/version")
		json.NewEncoder(w).Encode(f.versions[id])
	})
	mux.HandleFunc("/cdn/", func(w http.ResponseWriter, r *http.Request) {
		body, ok := f.files[r.URL.Path]
		if !ok {
			http.NotFound(w, r)
			return
		}
		w.Write(body)
	})

	f.Server = httptest.NewServer(mux)
	t.Cleanup(f.Close)
	return f
}

// addPlugin registers a plugin whose installed content is old and whose
// latest release serves content newer under filename.
func (f *fakeModrinth) addPlugin(project, title, old string, newer []byte, filename string) {
	current := registry.Version{
		ID: project + "-old", ProjectID: project, VersionNumber: "1.0",
		DatePublished: time.Date(2023, 1, 1, 0, 0, 0, 0, time.UTC),
		GameVersions:  []string{"1.20.1"}, Loaders: []string{"paper"},
	}
	f.byHash[hexSum([]byte(old), false)] = current
	f.projects[project] = registry.Project{ID: project, Slug: strings.ToLower(title), Title: title, ProjectType: "plugin", ServerSide: registry.SideRequired}
	f.versions[project] = []registry.Version{current}

	if newer == nil {
		return
	}
	path := "/cdn/" + filename
	f.files[path] = newer
	f.versions[project] = append(f.versions[project], registry.Version{
		ID: project + "-new", ProjectID: project, VersionNumber: "2.0",
		DatePublished: time.Date(2023, 7, 1, 0, 0, 0, 0, time.UTC),
		GameVersions:  []string{"1.20.1"}, Loaders: []string{"Paper"},
		Files: []registry.File{{
			URL: f.URL + path, Filename: filename, Primary: true,
			Hashes: map[string]string{"sha1": hexSum(newer, false), "sha512": hexSum(newer, true)},
		}},
	})
}

func setupRun(t *testing.T) (*fakeModrinth, *config.Config, string) {
	t.Helper()
	output.NoColor()

	server := newFakeModrinth(t)
	server.addPlugin("vault", "Vault", "vault 1.0", []byte("vault 2.0"), "Vault-2.0.jar")
	server.addPlugin("ess", "Essentials", "essentials 1.0", nil, "")

	root := t.TempDir()
	plugins := filepath.Join(root, "plugins")
	os.MkdirAll(plugins, 0755)
	os.WriteFile(filepath.Join(plugins, "Vault.jar"), []byte("vault 1.0"), 0644)
	os.WriteFile(filepath.Join(plugins, "Essentials.jar"), []byte("essentials 1.0"), 0644)
	os.WriteFile(filepath.Join(plugins, "Custom.jar"), []byte("home made"), 0644)

	cfg := config.Default()
	cfg.Registry.BaseURL = server.URL
	cfg.Plugins.Directory = plugins
	return server, cfg, plugins
}

func TestRunCheck(t *testing.T) {
	_, cfg, _ := setupRun(t)

	var out bytes.Buffer
	if err := runCheck(context.Background(), &out, cfg, targetOptions{}, false); err != nil {
		t.Fatalf("runCheck() error = %v", err)
	}

	report := out.String()
	for _, want := range []string{
		"✓ Essentials is up to date (1.0)",
		"⚠ Vault can be updated: 1.0 → 2.0",
		"https://modrinth.com/plugin/vault",
		"3 plugin(s): 1 up to date, 1 to update",
	} {
		if !strings.Contains(report, want) {
			t.Errorf("report missing %q:\n%s", want, report)
		}
	}
	if strings.Contains(report, "Custom.jar was not found") {
		t.Errorf("not-on-registry plugin shown without --all:\n%s", report)
	}
	if strings.Index(report, "Essentials") > strings.Index(report, "Vault can be updated") {
		t.Errorf("up-to-date plugins should come first:\n%s", report)
	}

	out.Reset()
	if err := runCheck(context.Background(), &out, cfg, targetOptions{}, true); err != nil {
		t.Fatalf("runCheck(all) error = %v", err)
	}
	if !strings.Contains(out.String(), "Custom.jar was not found on Modrinth") {
		t.Errorf("--all report missing Custom.jar:\n%s", out.String())
	}
}

func TestRunCheckUnsupportedVersion(t *testing.T) {
	_, cfg, _ := setupRun(t)

	err := runCheck(context.Background(), &bytes.Buffer{}, cfg, targetOptions{gameVersion: "1.7.10"}, false)
	if !errors.Is(err, updater.ErrUnsupportedVersion) {
		t.Fatalf("runCheck() error = %v, want ErrUnsupportedVersion", err)
	}
}

func TestRunCheckDirectoryFlagWins(t *testing.T) {
	_, cfg, _ := setupRun(t)

	missing := filepath.Join(t.TempDir(), "nope")
	err := runCheck(context.Background(), &bytes.Buffer{}, cfg, targetOptions{directory: missing}, false)
	if !errors.Is(err, updater.ErrDirectoryNotFound) {
		t.Fatalf("runCheck() error = %v, want ErrDirectoryNotFound", err)
	}
}

func TestRunUpdate(t *testing.T) {
	_, cfg, plugins := setupRun(t)

	var out bytes.Buffer
	if err := runUpdate(context.Background(), &out, nil, cfg, targetOptions{}); err != nil {
		t.Fatalf("runUpdate() error = %v", err)
	}

	if !strings.Contains(out.String(), "Updated Vault: 1.0 → 2.0") {
		t.Errorf("report missing update line:\n%s", out.String())
	}
	if _, err := os.Stat(filepath.Join(plugins, "Vault.jar")); !os.IsNotExist(err) {
		t.Error("Vault.jar should have been archived")
	}
	data, err := os.ReadFile(filepath.Join(plugins, "Vault-2.0.jar"))
	if err != nil || string(data) != "vault 2.0" {
		t.Errorf("Vault-2.0.jar = %q, %v", data, err)
	}
	archived := filepath.Join(filepath.Dir(plugins), updater.DefaultArchiveDirName, "Vault.jar")
	if data, err := os.ReadFile(archived); err != nil || string(data) != "vault 1.0" {
		t.Errorf("archived Vault.jar = %q, %v", data, err)
	}
}

func TestRunUpdateRespectsHolds(t *testing.T) {
	_, cfg, plugins := setupRun(t)
	if err := updater.SaveHolds(plugins, updater.Holds{"Vault.jar": {Reason: "testing"}}); err != nil {
		t.Fatal(err)
	}

	var out bytes.Buffer
	if err := runUpdate(context.Background(), &out, nil, cfg, targetOptions{}); err != nil {
		t.Fatalf("runUpdate() error = %v", err)
	}
	if !strings.Contains(out.String(), "Skipped") || !strings.Contains(out.String(), "testing") {
		t.Errorf("report missing skipped hold:\n%s", out.String())
	}
	if _, err := os.Stat(filepath.Join(plugins, "Vault.jar")); err != nil {
		t.Error("held Vault.jar should stay in place")
	}
}

func TestRunInit(t *testing.T) {
	configFile = filepath.Join(t.TempDir(), "config.yaml")
	defer func() { configFile = "" }()

	path, err := runInit(targetOptions{directory: "/srv/plugins", gameVersion: "1.20.1"}, false)
	if err != nil {
		t.Fatalf("runInit() error = %v", err)
	}
	if path != configFile {
		t.Errorf("runInit() path = %q, want %q", path, configFile)
	}

	cfg, err := config.LoadFrom(path)
	if err != nil {
		t.Fatalf("LoadFrom() error = %v", err)
	}
	if cfg.Plugins.Directory != "/srv/plugins" || cfg.Plugins.GameVersion != "1.20.1" {
		t.Errorf("config = %+v", cfg.Plugins)
	}

	if _, err := runInit(targetOptions{}, false); err == nil {
		t.Error("runInit() should refuse to overwrite without force")
	}
	if _, err := runInit(targetOptions{directory: "/other"}, true); err != nil {
		t.Fatalf("runInit(force) error = %v", err)
	}
	cfg, _ = config.LoadFrom(path)
	if cfg.Plugins.Directory != "/other" {
		t.Errorf("forced config directory = %q", cfg.Plugins.Directory)
	}
}

func TestRunHoldAndUnhold(t *testing.T) {
	output.NoColor()
	configFile = filepath.Join(t.TempDir(), "config.yaml")
	defer func() { configFile = "" }()
	dir := t.TempDir()
	target := targetOptions{directory: dir}

	var out bytes.Buffer
	if err := runHold(&out, target, []string{"Vault.jar"}, "pinned"); err != nil {
		t.Fatalf("runHold() error = %v", err)
	}
	holds, _ := updater.LoadHolds(dir)
	if hold, ok := holds.Held("Vault.jar"); !ok || hold.Reason != "pinned" {
		t.Fatalf("holds = %v", holds)
	}

	out.Reset()
	if err := runHold(&out, target, nil, ""); err != nil {
		t.Fatalf("runHold(list) error = %v", err)
	}
	if !strings.Contains(out.String(), "Vault.jar  pinned") {
		t.Errorf("list output = %q", out.String())
	}

	out.Reset()
	if err := runUnhold(&out, target, []string{"Vault.jar", "Other.jar"}); err != nil {
		t.Fatalf("runUnhold() error = %v", err)
	}
	if !strings.Contains(out.String(), "Other.jar is not held") {
		t.Errorf("unhold output = %q", out.String())
	}
	holds, _ = updater.LoadHolds(dir)
	if len(holds) != 0 {
		t.Errorf("holds after unhold = %v", holds)
	}
}
