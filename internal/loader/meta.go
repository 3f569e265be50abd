package loader

import (
	"context"
	"encoding/json"
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"sync/atomic"

	"golang.org/x/sync/errgroup"

	"github.com/handiism/mixlauncher/internal/ctxlog"
	"github.com/handiism/mixlauncher/internal/http"
	ioutils "github.com/handiism/mixlauncher/internal/io"
	"github.com/handiism/mixlauncher/internal/layout"
	"github.com/handiism/mixlauncher/internal/manifest"
	"github.com/handiism/mixlauncher/internal/model"
)

// DefaultLibraryWorkers bounds parallel library downloads.
const DefaultLibraryWorkers = 8

// MetaOptions configures a metadata-service loader.
type MetaOptions struct {
	// MetaURL is the metadata API base, e.g. https://meta.fabricmc.net/v2.
	MetaURL string
	// MavenURL is used for libraries that do not name a repository.
	MavenURL string
	// Workers bounds parallel library downloads.
	Workers int
}

// MetaInstaller installs loaders published through a Fabric-style metadata
// service: it picks the newest loader build for a game version, stores the
// launch profile as a version descriptor and downloads the profile's
// libraries.
type MetaInstaller struct {
	kind   model.LoaderKind
	opts   MetaOptions
	client *http.Client
	layout *layout.Layout
}

// NewFabric creates the Fabric installer.
func NewFabric(opts MetaOptions, client *http.Client, l *layout.Layout) *MetaInstaller {
	return newMeta(model.LoaderFabric, opts, client, l)
}

// NewQuilt creates the Quilt installer.
func NewQuilt(opts MetaOptions, client *http.Client, l *layout.Layout) *MetaInstaller {
	return newMeta(model.LoaderQuilt, opts, client, l)
}

func newMeta(kind model.LoaderKind, opts MetaOptions, client *http.Client, l *layout.Layout) *MetaInstaller {
	opts.MetaURL = strings.TrimRight(opts.MetaURL, "/")
	if opts.Workers <= 0 {
		opts.Workers = DefaultLibraryWorkers
	}
	return &MetaInstaller{kind: kind, opts: opts, client: client, layout: l}
}

// Kind implements Installer.
func (m *MetaInstaller) Kind() model.LoaderKind {
	return m.kind
}

type loaderBuild struct {
	Loader struct {
		Version string `json:"version"`
		Stable  bool   `json:"stable"`
	} `json:"loader"`
}

// Install implements Installer.
func (m *MetaInstaller) Install(ctx context.Context, gameVersion string) (Result, error) {
	logger := ctxlog.FromContext(ctx).With("loader", m.kind, "game_version", gameVersion)
	result := Result{Loader: m.kind}

	loaderVersion, err := m.latestLoader(ctx, gameVersion)
	if err != nil {
		return result, err
	}

	profileURL := fmt.Sprintf("%s/versions/loader/%s/%s/profile/json",
		m.opts.MetaURL, url.PathEscape(gameVersion), url.PathEscape(loaderVersion))
	data, err := m.client.Get(ctx, profileURL)
	if err != nil {
		return result, fmt.Errorf("fetch %s profile: %w", m.kind, err)
	}

	defaultID := fmt.Sprintf("%s-loader-%s-%s", m.kind, loaderVersion, gameVersion)
	data, desc, err := withDefaultID(data, defaultID)
	if err != nil {
		return result, err
	}
	result.VersionID = desc.ID

	if err := ioutils.WriteFile(m.layout.DescriptorPath(desc.ID), data); err != nil {
		return result, fmt.Errorf("persist %s profile: %w", m.kind, err)
	}
	logger.Info("loader profile stored", "version", desc.ID)

	result.FailedLibraries = m.downloadLibraries(ctx, desc.Libraries)
	if result.FailedLibraries > 0 {
		logger.Warn("some loader libraries failed", "failed", result.FailedLibraries)
	}
	if err := ctx.Err(); err != nil {
		return result, err
	}

	result.OK = true
	return result, nil
}

func (m *MetaInstaller) latestLoader(ctx context.Context, gameVersion string) (string, error) {
	var builds []loaderBuild
	u := m.opts.MetaURL + "/versions/loader/" + url.PathEscape(gameVersion)
	if err := m.client.GetJSON(ctx, u, &builds); err != nil {
		return "", fmt.Errorf("list %s builds: %w", m.kind, err)
	}
	if len(builds) == 0 || builds[0].Loader.Version == "" {
		return "", fmt.Errorf("%w: %s %s", ErrNoLoaderVersion, m.kind, gameVersion)
	}
	return builds[0].Loader.Version, nil
}

// withDefaultID fills in a missing "id" and returns the bytes to persist.
func withDefaultID(data []byte, defaultID string) ([]byte, *manifest.Descriptor, error) {
	desc, err := manifest.DecodeDescriptor(data)
	if err != nil {
		return nil, nil, err
	}
	if desc.ID != "" {
		return data, desc, nil
	}

	var raw map[string]json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, nil, &manifest.ParseError{Doc: "descriptor", Err: err}
	}
	id, _ := json.Marshal(defaultID)
	raw["id"] = id
	patched, err := json.MarshalIndent(raw, "", "  ")
	if err != nil {
		return nil, nil, err
	}
	desc.ID = defaultID
	return patched, desc, nil
}

// downloadLibraries fetches symbolic libraries that are not present yet and
// returns the number of failures. Failures do not stop other downloads.
func (m *MetaInstaller) downloadLibraries(ctx context.Context, libs []manifest.Library) int {
	logger := ctxlog.FromContext(ctx)

	var failed atomic.Int32
	g := new(errgroup.Group)
	g.SetLimit(m.opts.Workers)

	seen := make(map[string]bool, len(libs))
	for _, lib := range libs {
		rel := manifest.CoordinatePath(lib.Name)
		if rel == "" || seen[rel] {
			continue
		}
		seen[rel] = true

		dest := m.layout.LibraryPath(rel)
		if ioutils.FileExists(dest) && ioutils.Verify(dest, lib.SHA1) {
			continue
		}

		base := lib.URL
		if base == "" {
			base = m.opts.MavenURL
		}
		if !strings.HasSuffix(base, "/") {
			base += "/"
		}
		src := base + rel
		name := lib.Name
		sha1 := lib.SHA1

		g.Go(func() error {
			if ctx.Err() != nil {
				failed.Add(1)
				return nil
			}
			if err := ioutils.EnsureDir(filepath.Dir(dest)); err != nil {
				failed.Add(1)
				return nil
			}
			if _, err := m.client.DownloadFile(ctx, src, dest, nil); err != nil {
				logger.Warn("library download failed", "library", name, "url", src, "error", err)
				failed.Add(1)
				return nil
			}
			if !ioutils.Verify(dest, sha1) {
				os.Remove(dest)
				logger.Warn("library digest mismatch", "library", name, "error", ioutils.ErrIntegrity)
				failed.Add(1)
				return nil
			}
			logger.Debug("library downloaded", "library", name)
			return nil
		})
	}

	g.Wait()
	return int(failed.Load())
}
