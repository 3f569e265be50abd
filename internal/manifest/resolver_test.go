package manifest

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/handiism/mixlauncher/internal/download"
	mhttp "github.com/handiism/mixlauncher/internal/http"
	ioutils "github.com/handiism/mixlauncher/internal/io"
	"github.com/handiism/mixlauncher/internal/layout"
	"github.com/handiism/mixlauncher/internal/model"
)

type fakeRegistry struct {
	srv  *httptest.Server
	docs map[string]string
}

func newFakeRegistry(t *testing.T) *fakeRegistry {
	t.Helper()
	f := &fakeRegistry{docs: make(map[string]string)}
	f.srv = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		body, ok := f.docs[r.URL.Path]
		if !ok {
			http.NotFound(w, r)
			return
		}
		fmt.Fprint(w, body)
	}))
	t.Cleanup(f.srv.Close)
	return f
}

func (f *fakeRegistry) url(path string) string { return f.srv.URL + path }

func (f *fakeRegistry) serveVanilla() {
	f.docs["/manifest.json"] = fmt.Sprintf(`{
		"latest": {"release": "1.20.1"},
		"versions": [{"id": "1.20.1", "type": "release", "url": %q}]
	}`, f.url("/v/1.20.1.json"))

	f.docs["/v/1.20.1.json"] = fmt.Sprintf(`{
		"id": "1.20.1",
		"mainClass": "net.minecraft.client.main.Main",
		"assetIndex": {"id": "5", "url": %q, "sha1": "", "size": 0},
		"downloads": {"client": {"url": %q, "sha1": "c0ffee", "size": 10}},
		"libraries": [
			{"name": "a:common:1", "downloads": {"artifact": {"path": "a/common/1/common-1.jar", "url": %q, "sha1": "aa"}}},
			{"name": "a:osx-only:1", "downloads": {"artifact": {"path": "a/osx-only/1/osx-only-1.jar", "url": %q}},
			 "rules": [{"action": "allow", "os": {"name": "osx"}}, {"action": "disallow", "os": {"name": "linux"}}]},
			{"name": "a:symbolic:1"},
			{"name": "a:common:1", "downloads": {"artifact": {"path": "a/common/1/common-1.jar", "url": %q, "sha1": "aa"}}}
		]
	}`, f.url("/idx/5.json"), f.url("/client.jar"), f.url("/lib/common.jar"), f.url("/lib/osx.jar"), f.url("/lib/common.jar"))

	f.docs["/idx/5.json"] = fmt.Sprintf(`{"objects": {
		"minecraft/sounds/a.ogg": {"hash": %q, "size": 3},
		"minecraft/lang/en.json": {"hash": %q, "size": 4},
		"duplicate/a.ogg": {"hash": %q, "size": 3},
		"broken": {"hash": "x", "size": 1}
	}}`, hashA, hashB, hashA)
}

const (
	hashA = "ab12000000000000000000000000000000000000"
	hashB = "cd34000000000000000000000000000000000000"
)

func newTestResolver(f *fakeRegistry, root string) *Resolver {
	return NewResolver(Options{
		ManifestURL:  f.url("/manifest.json"),
		ResourcesURL: f.url("/objects/"),
		Platform:     "linux",
	}, mhttp.NewClient(mhttp.DefaultOptions()), layout.New(root))
}

func dests(tasks []model.Task) []string {
	var out []string
	for _, t := range tasks {
		out = append(out, t.Dest)
	}
	return out
}

func TestResolver_FetchCatalog(t *testing.T) {
	f := newFakeRegistry(t)
	f.serveVanilla()
	r := newTestResolver(f, t.TempDir())

	entries, err := r.FetchCatalog(context.Background())
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, model.KindRelease, entries[0].Kind)

	e, ok := r.Lookup("1.20.1")
	assert.True(t, ok)
	assert.Equal(t, f.url("/v/1.20.1.json"), e.URL)
	assert.Len(t, r.Entries(), 1)
}

func TestResolver_FetchCatalogNetworkFailure(t *testing.T) {
	f := newFakeRegistry(t)
	r := newTestResolver(f, t.TempDir())

	_, err := r.FetchCatalog(context.Background())
	assert.ErrorIs(t, err, mhttp.ErrStatus)
	assert.Empty(t, r.Entries())
}

func TestResolver_ResolveCatalogVersion(t *testing.T) {
	f := newFakeRegistry(t)
	f.serveVanilla()
	root := t.TempDir()
	l := layout.New(root)
	r := newTestResolver(f, root)

	plan, err := r.Resolve(context.Background(), "1.20.1")
	require.NoError(t, err)

	assert.Equal(t, "1.20.1", plan.VersionID)
	assert.Equal(t, "1.20.1", plan.BaseID)
	assert.False(t, plan.Local)
	assert.Equal(t, []string{
		l.ClientJarPath("1.20.1"),
		l.LibraryPath("a/common/1/common-1.jar"),
		l.AssetIndexPath("5"),
		l.AssetObjectPath(hashA),
		l.AssetObjectPath(hashB),
	}, dests(plan.Tasks))

	client := plan.Tasks[0]
	assert.Equal(t, f.url("/client.jar"), client.URL)
	assert.Equal(t, "c0ffee", client.SHA1)
	assert.Equal(t, int64(10), client.Size)

	obj := plan.Tasks[3]
	assert.Equal(t, f.url("/objects/ab/"+hashA), obj.URL)
	assert.Equal(t, hashA, obj.SHA1)

	assert.FileExists(t, l.DescriptorPath("1.20.1"))
	assert.FileExists(t, l.AssetIndexPath("5"))
}

func TestResolver_AssetIndexFailureYieldsNoObjects(t *testing.T) {
	f := newFakeRegistry(t)
	f.serveVanilla()
	delete(f.docs, "/idx/5.json")
	root := t.TempDir()
	r := newTestResolver(f, root)

	plan, err := r.Resolve(context.Background(), "1.20.1")
	require.NoError(t, err)
	assert.Len(t, plan.Tasks, 3, "client, library and index task only")
}

func TestResolver_SkipsObjectsOutsideStore(t *testing.T) {
	f := newFakeRegistry(t)
	f.serveVanilla()
	f.docs["/idx/5.json"] = fmt.Sprintf(`{"objects": {
		"escape": {"hash": "../victim.txt", "size": 1},
		"upper": {"hash": %q, "size": 1},
		"ok": {"hash": %q, "size": 3}
	}}`, strings.ToUpper(hashB), hashA)
	root := t.TempDir()
	l := layout.New(root)
	victim := filepath.Join(root, "victim.txt")
	require.NoError(t, os.WriteFile(victim, []byte("keep"), 0644))

	r := newTestResolver(f, root)
	q := download.NewManager(download.Options{Workers: 2, TickInterval: 10 * time.Millisecond})
	plan, err := r.Install(context.Background(), "1.20.1", q)
	require.NoError(t, err)
	q.WaitUntilDone()

	objects := filepath.Join(l.AssetsDir(), "objects") + string(filepath.Separator)
	var objectDests []string
	for _, d := range dests(plan.Tasks) {
		if strings.HasPrefix(d, l.AssetsDir()) && d != l.AssetIndexPath("5") {
			assert.True(t, strings.HasPrefix(d, objects), "dest %s escapes the object store", d)
			objectDests = append(objectDests, d)
		}
		assert.NotEqual(t, victim, d)
	}
	assert.Equal(t, []string{l.AssetObjectPath(hashA)}, objectDests)

	data, err := os.ReadFile(victim)
	require.NoError(t, err)
	assert.Equal(t, "keep", string(data))
}

func TestResolver_AssetIndexDigest(t *testing.T) {
	tests := []struct {
		name        string
		sha1        func(index string) string
		wantObjects int
	}{
		{"matching digest", func(index string) string { return ioutils.DigestBytes([]byte(index)) }, 2},
		{"mismatched digest", func(string) string { return strings.Repeat("0", 40) }, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newFakeRegistry(t)
			f.serveVanilla()
			sum := tt.sha1(f.docs["/idx/5.json"])
			f.docs["/v/1.20.1.json"] = strings.Replace(f.docs["/v/1.20.1.json"], `"sha1": "", "size": 0`, `"sha1": "`+sum+`", "size": 0`, 1)
			root := t.TempDir()
			l := layout.New(root)

			plan, err := newTestResolver(f, root).Resolve(context.Background(), "1.20.1")
			require.NoError(t, err)

			var objects int
			for _, task := range plan.Tasks {
				if strings.HasPrefix(task.Dest, filepath.Join(l.AssetsDir(), "objects")) {
					objects++
				}
			}
			assert.Equal(t, tt.wantObjects, objects)
			if tt.wantObjects == 0 {
				assert.NoFileExists(t, l.AssetIndexPath("5"))
			}
		})
	}
}

func TestResolver_DescriptorNetworkFailure(t *testing.T) {
	f := newFakeRegistry(t)
	f.serveVanilla()
	delete(f.docs, "/v/1.20.1.json")
	r := newTestResolver(f, t.TempDir())

	_, err := r.Resolve(context.Background(), "1.20.1")
	assert.ErrorIs(t, err, mhttp.ErrStatus)
}

func writeDescriptor(t *testing.T, l *layout.Layout, id, body string) {
	t.Helper()
	require.NoError(t, os.MkdirAll(l.VersionDir(id), 0755))
	require.NoError(t, os.WriteFile(l.DescriptorPath(id), []byte(body), 0644))
}

func TestResolver_LocalInheritingDescriptorInstallsParent(t *testing.T) {
	f := newFakeRegistry(t)
	f.serveVanilla()
	root := t.TempDir()
	l := layout.New(root)
	writeDescriptor(t, l, "fabric-loader-0.15.0-1.20.1", `{"id": "fabric-loader-0.15.0-1.20.1", "inheritsFrom": "1.20.1"}`)
	r := newTestResolver(f, root)

	plan, err := r.Resolve(context.Background(), "fabric-loader-0.15.0-1.20.1")
	require.NoError(t, err)
	assert.Equal(t, "fabric-loader-0.15.0-1.20.1", plan.VersionID)
	assert.Equal(t, "1.20.1", plan.BaseID)
	assert.True(t, plan.Local)
	assert.Contains(t, dests(plan.Tasks), l.ClientJarPath("1.20.1"))
}

func TestResolver_InheritanceCycle(t *testing.T) {
	f := newFakeRegistry(t)
	root := t.TempDir()
	l := layout.New(root)
	writeDescriptor(t, l, "a", `{"id": "a", "inheritsFrom": "b"}`)
	writeDescriptor(t, l, "b", `{"id": "b", "inheritsFrom": "a"}`)
	r := newTestResolver(f, root)

	_, err := r.Resolve(context.Background(), "a")
	assert.ErrorIs(t, err, ErrInheritanceCycle)
}

func TestResolver_VersionNotFound(t *testing.T) {
	f := newFakeRegistry(t)
	f.serveVanilla()
	r := newTestResolver(f, t.TempDir())

	_, err := r.Resolve(context.Background(), "9.9.9")
	assert.ErrorIs(t, err, ErrVersionNotFound)
}

func TestResolver_LocalDescriptorParseFailure(t *testing.T) {
	f := newFakeRegistry(t)
	root := t.TempDir()
	writeDescriptor(t, layout.New(root), "custom", `{"mainClass": "x"}`)
	r := newTestResolver(f, root)

	_, err := r.Resolve(context.Background(), "custom")
	assert.True(t, errors.Is(err, ErrParse))
}

type fakeQueue struct {
	tasks   []model.Task
	started int
}

func (q *fakeQueue) EnqueueBatch(tasks []model.Task) { q.tasks = append(q.tasks, tasks...) }
func (q *fakeQueue) Start()                          { q.started++ }

func TestResolver_Install(t *testing.T) {
	f := newFakeRegistry(t)
	f.serveVanilla()
	root := t.TempDir()
	r := newTestResolver(f, root)
	q := &fakeQueue{}

	plan, err := r.Install(context.Background(), "1.20.1", q)
	require.NoError(t, err)
	assert.Equal(t, plan.Tasks, q.tasks)
	assert.Equal(t, 1, q.started)
}

func TestResolver_InstallEmptyPlanDoesNotStart(t *testing.T) {
	f := newFakeRegistry(t)
	root := t.TempDir()
	writeDescriptor(t, layout.New(root), "bare", `{"id": "bare"}`)
	r := newTestResolver(f, root)
	q := &fakeQueue{}

	plan, err := r.Install(context.Background(), "bare", q)
	require.NoError(t, err)
	assert.Empty(t, plan.Tasks)
	assert.Equal(t, 0, q.started)
	assert.Equal(t, filepath.Join(root, "versions", "bare", "bare.json"), layout.New(root).DescriptorPath("bare"))
}
