package modrinth

import (
	"bytes"
	"context"
	"crypto/sha1"
	"encoding/hex"
	"encoding/json"
	"errors"
	"image"
	"image/png"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"sync/atomic"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	mhttp "github.com/handiism/mixlauncher/internal/http"
	"github.com/handiism/mixlauncher/internal/layout"
	"github.com/handiism/mixlauncher/internal/model"
)

func sha1Hex(s string) string {
	sum := sha1.Sum([]byte(s))
	return hex.EncodeToString(sum[:])
}

// fakeModrinth serves project versions and files. File bodies are their
// own names so that digests are predictable.
type fakeModrinth struct {
	srv       *httptest.Server
	mu        sync.Mutex
	projects  map[string][]Release
	versions  map[string]Release
	fileHits  map[string]int
	lastQuery map[string]string
}

func newFakeModrinth(t *testing.T) *fakeModrinth {
	t.Helper()
	f := &fakeModrinth{
		projects: make(map[string][]Release),
		versions: make(map[string]Release),
		fileHits: make(map[string]int),
	}
	f.srv = httptest.NewServer(http.HandlerFunc(f.serve))
	t.Cleanup(f.srv.Close)
	return f
}

func (f *fakeModrinth) serve(w http.ResponseWriter, r *http.Request) {
	f.mu.Lock()
	defer f.mu.Unlock()

	parts := strings.Split(strings.Trim(r.URL.Path, "/"), "/")
	switch {
	case len(parts) == 1 && parts[0] == "search":
		q := r.URL.Query()
		f.lastQuery = map[string]string{"query": q.Get("query"), "facets": q.Get("facets"), "limit": q.Get("limit")}
		w.Write([]byte(`{"hits": [{"title": "Sodium", "author": "jellysquid3", "description": "fast", "project_id": "AANobbMI", "slug": "sodium", "icon_url": "https://x/icon.png", "downloads": 42}]}`))
	case len(parts) == 3 && parts[0] == "project" && parts[2] == "version":
		f.lastQuery = map[string]string{"loaders": r.URL.Query().Get("loaders"), "game_versions": r.URL.Query().Get("game_versions")}
		releases, ok := f.projects[parts[1]]
		if !ok {
			http.NotFound(w, r)
			return
		}
		json.NewEncoder(w).Encode(releases)
	case len(parts) == 2 && parts[0] == "version":
		release, ok := f.versions[parts[1]]
		if !ok {
			http.NotFound(w, r)
			return
		}
		json.NewEncoder(w).Encode(release)
	case len(parts) == 2 && parts[0] == "files":
		f.fileHits[parts[1]]++
		w.Write([]byte(parts[1]))
	default:
		http.NotFound(w, r)
	}
}

func (f *fakeModrinth) release(projectID string, deps ...Dependency) Release {
	name := strings.ToLower(projectID) + ".jar"
	return Release{
		ID:        "v-" + projectID,
		ProjectID: projectID,
		Files: []File{
			{URL: f.srv.URL + "/files/extra-" + name, Filename: "extra-" + name},
			{URL: f.srv.URL + "/files/" + name, Filename: name, Primary: true, Hashes: map[string]string{"sha1": sha1Hex(name)}},
		},
		Dependencies: deps,
	}
}

func (f *fakeModrinth) addProject(projectID string, deps ...Dependency) {
	f.projects[projectID] = []Release{f.release(projectID, deps...)}
}

func (f *fakeModrinth) hits(name string) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.fileHits[name]
}

func (f *fakeModrinth) query(key string) string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.lastQuery[key]
}

func required(projectID string) Dependency {
	return Dependency{ProjectID: projectID, DependencyType: "required"}
}

type hookLog struct {
	installed []string
	deps      map[string][]model.PackageDependency
}

func (h *hookLog) hooks() Hooks {
	h.deps = make(map[string][]model.PackageDependency)
	return Hooks{
		OnDependencies: func(parent string, deps []model.PackageDependency) {
			h.deps[parent] = deps
		},
		OnInstalled: func(name string, ok bool) {
			state := "ok"
			if !ok {
				state = "failed"
			}
			h.installed = append(h.installed, name+":"+state)
		},
	}
}

func newInstaller(f *fakeModrinth, h *hookLog) *Installer {
	client := mhttp.NewClient(mhttp.DefaultOptions())
	return NewInstaller(NewClient(f.srv.URL, client), client, h.hooks())
}

func TestFacets(t *testing.T) {
	tests := []struct {
		name string
		q    Query
		want string
	}{
		{"modded", Query{GameVersion: "1.20.1", Loader: model.LoaderFabric}, `[["versions:1.20.1"],["project_type:mod"],["categories:fabric"]]`},
		{"vanilla", Query{GameVersion: "1.20.1", Loader: model.LoaderVanilla, ProjectType: "resourcepack"}, `[["versions:1.20.1"],["project_type:resourcepack"]]`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Facets(tt.q); got != tt.want {
				t.Errorf("Facets() = %s, want %s", got, tt.want)
			}
		})
	}
}

func TestClient_Search(t *testing.T) {
	f := newFakeModrinth(t)
	client := NewClient(f.srv.URL+"/", mhttp.NewClient(mhttp.DefaultOptions()))

	hits, err := client.Search(context.Background(), Query{Text: "sodium", GameVersion: "1.20.1", Loader: model.LoaderFabric})
	require.NoError(t, err)

	want := []model.ModSearchResult{{
		Title: "Sodium", Author: "jellysquid3", Description: "fast",
		ProjectID: "AANobbMI", Slug: "sodium", IconURL: "https://x/icon.png", Downloads: 42,
	}}
	if diff := cmp.Diff(want, hits); diff != "" {
		t.Errorf("Search() mismatch (-want +got):\n%s", diff)
	}
	assert.Equal(t, "sodium", f.query("query"))
	assert.Equal(t, "30", f.query("limit"))
	assert.Equal(t, `[["versions:1.20.1"],["project_type:mod"],["categories:fabric"]]`, f.query("facets"))
}

func TestClient_ProjectVersionsParams(t *testing.T) {
	f := newFakeModrinth(t)
	f.addProject("A")
	client := NewClient(f.srv.URL, mhttp.NewClient(mhttp.DefaultOptions()))

	releases, err := client.ProjectVersions(context.Background(), "A", model.LoaderQuilt, "1.20.1")
	require.NoError(t, err)
	require.Len(t, releases, 1)
	assert.Equal(t, `["quilt"]`, f.query("loaders"))
	assert.Equal(t, `["1.20.1"]`, f.query("game_versions"))
}

func TestClient_ParseFailure(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("<html>"))
	}))
	defer srv.Close()

	_, err := NewClient(srv.URL, mhttp.NewClient(mhttp.DefaultOptions())).Search(context.Background(), Query{})
	assert.ErrorIs(t, err, ErrParse)
}

func TestRelease_PrimaryFile(t *testing.T) {
	r := Release{Files: []File{{Filename: "a"}, {Filename: "b"}}}
	file, ok := r.PrimaryFile()
	assert.True(t, ok)
	assert.Equal(t, "a", file.Filename, "first file without a primary flag")

	_, ok = (&Release{}).PrimaryFile()
	assert.False(t, ok)
}

func TestRelease_RequiredDependencies(t *testing.T) {
	r := Release{Dependencies: []Dependency{
		{ProjectID: "A", DependencyType: "required"},
		{ProjectID: "B", DependencyType: "optional"},
		{VersionID: "vC", DependencyType: "required"},
		{DependencyType: "required"},
		{ProjectID: "D", DependencyType: "incompatible"},
	}}
	want := []model.PackageDependency{
		{ProjectID: "A", Kind: model.DependencyRequired},
		{VersionID: "vC", Kind: model.DependencyRequired},
	}
	if diff := cmp.Diff(want, r.RequiredDependencies()); diff != "" {
		t.Errorf("RequiredDependencies() mismatch (-want +got):\n%s", diff)
	}
}

func TestInstaller_DependenciesFirst(t *testing.T) {
	f := newFakeModrinth(t)
	f.addProject("A", required("B"), required("C"), Dependency{ProjectID: "D", DependencyType: "optional"})
	f.addProject("B")
	f.addProject("C")
	f.addProject("D")

	h := &hookLog{}
	modsDir := filepath.Join(t.TempDir(), "mods")
	report := newInstaller(f, h).Install(context.Background(), Request{ProjectID: "A", Loader: model.LoaderFabric, GameVersion: "1.20.1", ModsDir: modsDir})

	assert.True(t, report.OK())
	assert.Equal(t, []string{"b.jar", "c.jar", "a.jar"}, report.Installed)
	assert.Equal(t, []string{"b.jar:ok", "c.jar:ok", "a.jar:ok"}, h.installed)
	assert.Len(t, h.deps["A"], 2)
	for _, name := range []string{"a.jar", "b.jar", "c.jar"} {
		assert.FileExists(t, filepath.Join(modsDir, name))
		assert.Equal(t, 1, f.hits(name))
	}
	assert.Equal(t, 0, f.hits("d.jar"), "optional dependency must not be installed")
	assert.Equal(t, 0, f.hits("extra-a.jar"), "only the primary file is downloaded")
}

func TestInstaller_CyclesAndSharedDependencies(t *testing.T) {
	f := newFakeModrinth(t)
	f.addProject("A", required("B"), required("C"))
	f.addProject("B", required("A"), required("C"))
	f.addProject("C", required("B"))

	h := &hookLog{}
	modsDir := t.TempDir()
	report := newInstaller(f, h).Install(context.Background(), Request{ProjectID: "A", Loader: model.LoaderFabric, GameVersion: "1.20.1", ModsDir: modsDir})

	assert.True(t, report.OK())
	assert.Equal(t, []string{"c.jar", "b.jar", "a.jar"}, report.Installed)
	for _, name := range []string{"a.jar", "b.jar", "c.jar"} {
		assert.Equal(t, 1, f.hits(name))
	}
}

func TestInstaller_SkipsExistingFile(t *testing.T) {
	f := newFakeModrinth(t)
	f.addProject("A")
	modsDir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(modsDir, "a.jar"), []byte("old"), 0644))

	h := &hookLog{}
	report := newInstaller(f, h).Install(context.Background(), Request{ProjectID: "A", ModsDir: modsDir})

	assert.Equal(t, []string{"a.jar"}, report.Skipped)
	assert.Equal(t, []string{"a.jar:ok"}, h.installed)
	assert.Equal(t, 0, f.hits("a.jar"))
}

func TestInstaller_FailuresArePerPackage(t *testing.T) {
	f := newFakeModrinth(t)
	f.addProject("A", required("MISSING"), required("EMPTY"), required("B"))
	f.projects["EMPTY"] = []Release{}
	f.addProject("B")

	h := &hookLog{}
	modsDir := t.TempDir()
	report := newInstaller(f, h).Install(context.Background(), Request{ProjectID: "A", ModsDir: modsDir})

	assert.False(t, report.OK())
	assert.Equal(t, []string{"MISSING", "EMPTY"}, report.Failed)
	assert.Equal(t, []string{"b.jar", "a.jar"}, report.Installed)
	assert.Equal(t, []string{"MISSING:failed", "EMPTY:failed", "b.jar:ok", "a.jar:ok"}, h.installed)
}

func TestInstaller_NoCompatibleRelease(t *testing.T) {
	f := newFakeModrinth(t)
	f.projects["A"] = []Release{}
	client := mhttp.NewClient(mhttp.DefaultOptions())
	in := NewInstaller(NewClient(f.srv.URL, client), client, Hooks{})

	_, err := in.pickRelease(context.Background(), Request{Loader: model.LoaderFabric, GameVersion: "1.20.1"}, model.PackageDependency{ProjectID: "A"})
	assert.True(t, errors.Is(err, ErrNoCompatibleRelease))
}

func TestInstaller_IntegrityFailure(t *testing.T) {
	f := newFakeModrinth(t)
	bad := f.release("A")
	bad.Files[1].Hashes["sha1"] = sha1Hex("something else")
	f.projects["A"] = []Release{bad}

	h := &hookLog{}
	modsDir := t.TempDir()
	report := newInstaller(f, h).Install(context.Background(), Request{ProjectID: "A", ModsDir: modsDir})

	assert.Equal(t, []string{"a.jar"}, report.Failed)
	assert.NoFileExists(t, filepath.Join(modsDir, "a.jar"))
}

func TestInstaller_UnnamedFile(t *testing.T) {
	f := newFakeModrinth(t)
	unnamed := f.release("A")
	unnamed.Files[1].Filename = ""
	f.projects["A"] = []Release{unnamed}

	h := &hookLog{}
	modsDir := t.TempDir()
	report := newInstaller(f, h).Install(context.Background(), Request{ProjectID: "A", ModsDir: modsDir})

	assert.False(t, report.OK())
	assert.Equal(t, []string{"A"}, report.Failed)
	assert.Empty(t, report.Skipped)
	assert.Equal(t, []string{"A:failed"}, h.installed)
	assert.Equal(t, 0, f.hits("a.jar"))
	assert.DirExists(t, modsDir)
}

func TestInstaller_PinnedVersionDependency(t *testing.T) {
	f := newFakeModrinth(t)
	f.addProject("A", Dependency{VersionID: "v-Z", DependencyType: "required"})
	f.versions["v-Z"] = f.release("Z")

	h := &hookLog{}
	report := newInstaller(f, h).Install(context.Background(), Request{ProjectID: "A", ModsDir: t.TempDir()})

	assert.Equal(t, []string{"z.jar", "a.jar"}, report.Installed)
}

func TestInstaller_CancelledContext(t *testing.T) {
	f := newFakeModrinth(t)
	f.addProject("A")
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	h := &hookLog{}
	report := newInstaller(f, h).Install(ctx, Request{ProjectID: "A", ModsDir: t.TempDir()})
	assert.Equal(t, []string{"A"}, report.Failed)
}

func TestIconCache_Fetch(t *testing.T) {
	var icon bytes.Buffer
	require.NoError(t, png.Encode(&icon, image.NewRGBA(image.Rect(0, 0, 128, 128))))
	var hits atomic.Int64
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits.Add(1)
		w.Write(icon.Bytes())
	}))
	defer srv.Close()

	l := layout.New(t.TempDir())
	cache := NewIconCache(mhttp.NewClient(mhttp.DefaultOptions()), l, 0)
	hit := model.ModSearchResult{ProjectID: "AANobbMI", IconURL: srv.URL + "/icon.png"}

	path, err := cache.Fetch(context.Background(), hit)
	require.NoError(t, err)
	assert.Equal(t, l.IconPath("AANobbMI"), path)

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	img, err := png.Decode(bytes.NewReader(data))
	require.NoError(t, err)
	assert.Equal(t, image.Pt(DefaultIconSize, DefaultIconSize), img.Bounds().Size())

	_, err = cache.Fetch(context.Background(), hit)
	require.NoError(t, err)
	assert.Equal(t, int64(1), hits.Load(), "cached icon must not be fetched again")

	_, err = cache.Fetch(context.Background(), model.ModSearchResult{ProjectID: "x"})
	assert.ErrorIs(t, err, ErrNoIcon)
}
