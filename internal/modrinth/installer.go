package modrinth

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/handiism/mixlauncher/internal/ctxlog"
	"github.com/handiism/mixlauncher/internal/http"
	ioutils "github.com/handiism/mixlauncher/internal/io"
	"github.com/handiism/mixlauncher/internal/model"
)

// ErrNoCompatibleRelease is returned when a project has no release for the
// requested loader and game version.
var ErrNoCompatibleRelease = errors.New("no compatible release")

// Hooks receive per-package notifications during an install.
type Hooks struct {
	// OnDependencies is called with a package's required dependencies
	// before they are installed.
	OnDependencies func(parent string, deps []model.PackageDependency)

	// OnInstalled is called once per package with the file name (or the
	// project id when no file could be determined) and the outcome.
	OnInstalled func(name string, ok bool)
}

// Request describes a package install.
type Request struct {
	ProjectID   string
	Loader      model.LoaderKind
	GameVersion string
	ModsDir     string
}

// Report summarizes one top-level install.
type Report struct {
	// Installed lists downloaded file names.
	Installed []string
	// Skipped lists file names that were already present.
	Skipped []string
	// Failed lists the project ids or file names that failed.
	Failed []string
}

// OK reports whether nothing failed.
func (r Report) OK() bool {
	return len(r.Failed) == 0
}

// Installer installs registry packages and their required dependencies.
//
// Dependencies are installed depth-first before the package that needs
// them. Each project is visited at most once per Install call, so shared
// and cyclic dependencies terminate.
type Installer struct {
	client *Client
	files  *http.Client
	hooks  Hooks
}

// NewInstaller creates an Installer. files downloads release files and may
// use a longer timeout than the API client.
func NewInstaller(client *Client, files *http.Client, hooks Hooks) *Installer {
	return &Installer{client: client, files: files, hooks: hooks}
}

type installState struct {
	visited map[string]bool
	report  Report
}

// Install installs req.ProjectID and everything it requires into req.ModsDir.
// Failures are per package and never stop siblings.
func (in *Installer) Install(ctx context.Context, req Request) Report {
	st := &installState{visited: make(map[string]bool)}
	in.install(ctx, req, model.PackageDependency{ProjectID: req.ProjectID, Kind: model.DependencyRequired}, st)
	return st.report
}

func (in *Installer) install(ctx context.Context, req Request, pkg model.PackageDependency, st *installState) {
	logger := ctxlog.FromContext(ctx)

	key := visitKey(pkg.ProjectID, pkg.VersionID)
	if st.visited[key] {
		return
	}
	st.visited[key] = true

	name := pkg.ProjectID
	if name == "" {
		name = pkg.VersionID
	}

	if ctx.Err() != nil {
		in.fail(st, name)
		return
	}

	release, err := in.pickRelease(ctx, req, pkg)
	if err != nil {
		logger.Warn("no installable release", "project", name, "error", err)
		in.fail(st, name)
		return
	}
	if release.ProjectID != "" && release.ProjectID != pkg.ProjectID {
		if st.visited[release.ProjectID] {
			return
		}
		st.visited[release.ProjectID] = true
	}

	if deps := release.RequiredDependencies(); len(deps) > 0 {
		parent := release.ProjectID
		if parent == "" {
			parent = name
		}
		if in.hooks.OnDependencies != nil {
			in.hooks.OnDependencies(parent, deps)
		}
		for _, dep := range deps {
			in.install(ctx, req, dep, st)
		}
	}

	file, ok := release.PrimaryFile()
	if !ok {
		logger.Warn("release has no files", "project", name, "release", release.ID)
		in.fail(st, name)
		return
	}
	fileName := filepath.Base(file.Filename)
	if fileName == "." || fileName == string(filepath.Separator) {
		logger.Warn("release file has no name", "project", name, "release", release.ID)
		in.fail(st, name)
		return
	}
	dest := filepath.Join(req.ModsDir, fileName)

	if ioutils.FileExists(dest) {
		logger.Debug("mod already present", "file", fileName)
		st.report.Skipped = append(st.report.Skipped, fileName)
		in.installed(fileName, true)
		return
	}

	if err := in.download(ctx, file, dest); err != nil {
		logger.Warn("mod download failed", "file", fileName, "error", err)
		in.fail(st, fileName)
		return
	}

	logger.Info("mod installed", "file", fileName, "project", release.ProjectID)
	st.report.Installed = append(st.report.Installed, fileName)
	in.installed(fileName, true)
}

func (in *Installer) pickRelease(ctx context.Context, req Request, pkg model.PackageDependency) (*Release, error) {
	if pkg.VersionID != "" {
		return in.client.Version(ctx, pkg.VersionID)
	}
	releases, err := in.client.ProjectVersions(ctx, pkg.ProjectID, req.Loader, req.GameVersion)
	if err != nil {
		return nil, err
	}
	if len(releases) == 0 {
		return nil, fmt.Errorf("%w: %s for %s %s", ErrNoCompatibleRelease, pkg.ProjectID, req.Loader, req.GameVersion)
	}
	return &releases[0], nil
}

func (in *Installer) download(ctx context.Context, file File, dest string) error {
	if err := ioutils.EnsureDir(filepath.Dir(dest)); err != nil {
		return err
	}
	if _, err := in.files.DownloadFile(ctx, file.URL, dest, nil); err != nil {
		return err
	}
	if sha1 := file.Hashes["sha1"]; !ioutils.Verify(dest, sha1) {
		os.Remove(dest)
		return fmt.Errorf("%w: %s", ioutils.ErrIntegrity, file.Filename)
	}
	return nil
}

func (in *Installer) fail(st *installState, name string) {
	st.report.Failed = append(st.report.Failed, name)
	in.installed(name, false)
}

func (in *Installer) installed(name string, ok bool) {
	if in.hooks.OnInstalled != nil {
		in.hooks.OnInstalled(name, ok)
	}
}

func visitKey(projectID, versionID string) string {
	if projectID != "" {
		return projectID
	}
	return "version:" + versionID
}
