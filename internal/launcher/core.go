package launcher

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sync"

	"github.com/handiism/mixlauncher/internal/config"
	"github.com/handiism/mixlauncher/internal/ctxlog"
	"github.com/handiism/mixlauncher/internal/download"
	"github.com/handiism/mixlauncher/internal/http"
	"github.com/handiism/mixlauncher/internal/launch"
	"github.com/handiism/mixlauncher/internal/layout"
	"github.com/handiism/mixlauncher/internal/loader"
	"github.com/handiism/mixlauncher/internal/manifest"
	"github.com/handiism/mixlauncher/internal/model"
	"github.com/handiism/mixlauncher/internal/modrinth"
	"github.com/handiism/mixlauncher/internal/profile"
	"github.com/handiism/mixlauncher/internal/session"
)

// ErrClosed is returned by operations submitted after Close.
var ErrClosed = errors.New("launcher closed")

const eventBuffer = 256

// Option customizes a Core.
type Option func(*Core)

// WithGameRunner replaces the process runner used by Launch.
func WithGameRunner(r launch.Runner) Option {
	return func(c *Core) { c.runner = r }
}

// WithInstallerRunner replaces the process runner used by the Forge
// installer.
func WithInstallerRunner(r loader.CommandRunner) Option {
	return func(c *Core) { c.installerRunner = r }
}

// Core ties the launcher components together behind asynchronous
// operations. Results are published on Events.
type Core struct {
	settings *config.Settings
	layout   *layout.Layout
	logger   *slog.Logger

	ctx    context.Context
	cancel context.CancelFunc

	downloads *download.Manager
	resolver  *manifest.Resolver
	assembler *launch.Assembler
	profiles  *profile.Store
	mods      *modrinth.Client
	installer *modrinth.Installer
	icons     *modrinth.IconCache
	loaders   *loader.Registry

	runner          launch.Runner
	installerRunner loader.CommandRunner

	exec      *executor
	installMu sync.Mutex
	summaries chan download.Summary

	events    chan Event
	closing   chan struct{}
	closeOnce sync.Once
	evMu      sync.RWMutex
	closed    bool
}

// New wires every component from settings and prepares the data directory.
func New(ctx context.Context, s *config.Settings, opts ...Option) (*Core, error) {
	l := layout.New(s.DataDir)
	if err := l.Ensure(); err != nil {
		return nil, fmt.Errorf("prepare data dir: %w", err)
	}

	profiles, err := profile.Open(l)
	if err != nil {
		return nil, err
	}

	logger := ctxlog.FromContext(ctx)
	c := &Core{
		settings:  s,
		layout:    l,
		logger:    logger,
		profiles:  profiles,
		summaries: make(chan download.Summary, 1),
		events:    make(chan Event, eventBuffer),
		closing:   make(chan struct{}),
		runner:    &launch.ExecRunner{Stdout: os.Stdout, Stderr: os.Stderr},
	}
	for _, opt := range opts {
		opt(c)
	}
	c.ctx, c.cancel = context.WithCancel(ctxlog.WithLogger(ctx, logger))

	client := http.NewClient(s.HTTPOptions())
	files := http.NewClient(s.ModHTTPOptions())
	platform := s.PlatformName()

	c.downloads = download.NewManager(download.Options{
		Workers:       s.Workers,
		TickInterval:  s.ProgressInterval(),
		Client:        client,
		RetryCooldown: s.DownloadRetryCooldown,
		RetryExponent: s.DownloadRetryExponent,
		OnProgress: func(p download.Progress) {
			c.emit(Progress{Done: p.Done, Total: p.Total, File: p.CurrentFile, Bytes: p.Bytes})
		},
		OnFinished: func(sum download.Summary) {
			select {
			case c.summaries <- sum:
			default:
			}
		},
		Logger: logger,
	})

	c.resolver = manifest.NewResolver(manifest.Options{
		ManifestURL:  s.VersionManifestURL,
		ResourcesURL: s.ResourcesURL,
		Platform:     platform,
	}, client, l)
	c.assembler = launch.NewAssembler(l, platform, s.JavaPath)

	c.mods = modrinth.NewClient(s.ModrinthURL, client)
	c.installer = modrinth.NewInstaller(c.mods, files, modrinth.Hooks{
		OnDependencies: func(parent string, deps []model.PackageDependency) {
			c.emit(DependenciesFound{Parent: parent, Deps: deps})
		},
		OnInstalled: func(name string, ok bool) {
			c.emit(ModInstalled{Name: name, OK: ok})
		},
	})
	c.icons = modrinth.NewIconCache(files, l, modrinth.DefaultIconSize)

	c.loaders = loader.NewRegistry(
		loader.NewFabric(loader.MetaOptions{MetaURL: s.FabricMetaURL, MavenURL: s.FabricMavenURL}, files, l),
		loader.NewQuilt(loader.MetaOptions{MetaURL: s.QuiltMetaURL, MavenURL: s.QuiltMavenURL}, files, l),
		loader.NewForge(loader.ForgeOptions{
			PromotionsURL: s.ForgePromotionsURL,
			MavenURL:      s.ForgeMavenURL,
			JavaPath:      s.JavaPath,
			Timeout:       s.ForgeTimeout(),
		}, files, l, c.installerRunner),
	)

	c.exec = newExecutor(s.MaxConcurrentOperations, func(op string, err error) {
		c.emit(OperationFailed{Op: op, Err: err})
	})

	logger.Debug("launcher ready", "data_dir", l.Root, "platform", platform, "workers", c.downloads.Workers())
	return c, nil
}

// Events returns the notification channel. It is closed by Close.
func (c *Core) Events() <-chan Event {
	return c.events
}

// Layout returns the data directory layout.
func (c *Core) Layout() *layout.Layout {
	return c.layout
}

// Settings returns the settings the Core was built from.
func (c *Core) Settings() *config.Settings {
	return c.settings
}

// emit publishes ev. Progress snapshots are dropped when the buffer is full;
// other events wait for the consumer until Close.
func (c *Core) emit(ev Event) {
	c.evMu.RLock()
	defer c.evMu.RUnlock()
	if c.closed {
		return
	}

	if _, ok := ev.(Progress); ok {
		select {
		case c.events <- ev:
		default:
		}
		return
	}
	select {
	case c.events <- ev:
	case <-c.closing:
	}
}

func (c *Core) submit(name string, fn func(ctx context.Context) error) *Operation {
	select {
	case <-c.closing:
		op := &Operation{name: name, cancel: func() {}, done: make(chan struct{}), err: ErrClosed}
		close(op.done)
		return op
	default:
	}
	return c.exec.submit(c.ctx, name, fn)
}

// FetchCatalog downloads the version catalog and publishes CatalogReady.
func (c *Core) FetchCatalog() *Operation {
	return c.submit("fetch-catalog", func(ctx context.Context) error {
		entries, err := c.resolver.FetchCatalog(ctx)
		if err != nil {
			return err
		}
		c.emit(CatalogReady{Versions: entries})
		return nil
	})
}

// Versions returns the catalog entries loaded so far.
func (c *Core) Versions() []model.VersionEntry {
	return c.resolver.Entries()
}

// retryQueue applies the configured retry budget to planned tasks.
type retryQueue struct {
	*download.Manager
	retries int
}

func (q retryQueue) EnqueueBatch(tasks []model.Task) {
	for i := range tasks {
		if tasks[i].Retries == 0 {
			tasks[i].Retries = q.retries
		}
	}
	q.Manager.EnqueueBatch(tasks)
}

// Install downloads everything versionID needs. Progress is published while
// it runs and InstallFinished when it ends. Installs run one at a time.
func (c *Core) Install(versionID string) *Operation {
	return c.submit("install", func(ctx context.Context) error {
		c.installMu.Lock()
		defer c.installMu.Unlock()

		select {
		case <-c.summaries:
		default:
		}

		plan, err := c.resolver.Install(ctx, versionID, retryQueue{Manager: c.downloads, retries: c.settings.DownloadMaxRetries})
		if err != nil {
			c.emit(InstallFinished{VersionID: versionID, Message: err.Error()})
			return err
		}
		if len(plan.Tasks) == 0 {
			c.emit(InstallFinished{VersionID: versionID, OK: true, Message: "already up to date"})
			return nil
		}

		stop := context.AfterFunc(ctx, c.downloads.Cancel)
		c.downloads.WaitUntilDone()
		stop()

		if err := ctx.Err(); err != nil {
			c.emit(InstallFinished{VersionID: versionID, Message: "cancelled"})
			return err
		}

		var sum download.Summary
		select {
		case sum = <-c.summaries:
		case <-ctx.Done():
			return ctx.Err()
		}
		finished := InstallFinished{
			VersionID: versionID,
			OK:        sum.Failed == 0,
			Succeeded: sum.Succeeded,
			Failed:    sum.Failed,
			Message:   fmt.Sprintf("%d downloaded, %d failed", sum.Succeeded, sum.Failed),
		}
		c.emit(finished)
		if !finished.OK {
			return fmt.Errorf("install %s: %d downloads failed", versionID, sum.Failed)
		}
		return nil
	})
}

// InstalledVersions lists the locally installed version ids.
func (c *Core) InstalledVersions() ([]string, error) {
	return c.layout.InstalledVersions()
}

// InstallLoader installs a mod loader for gameVersion and publishes
// LoaderInstalled.
func (c *Core) InstallLoader(kind model.LoaderKind, gameVersion string) *Operation {
	return c.submit("install-loader", func(ctx context.Context) error {
		in, err := c.loaders.Get(kind)
		if err != nil {
			return err
		}
		res, err := in.Install(ctx, gameVersion)
		c.emit(LoaderInstalled{Loader: kind, VersionID: res.VersionID, OK: res.OK && err == nil})
		return err
	})
}

// SearchMods queries the package registry and publishes SearchResults.
func (c *Core) SearchMods(q modrinth.Query) *Operation {
	if q.Limit <= 0 {
		q.Limit = c.settings.SearchLimit
	}
	return c.submit("search", func(ctx context.Context) error {
		hits, err := c.mods.Search(ctx, q)
		if err != nil {
			return err
		}
		c.emit(SearchResults{Query: q.Text, Results: hits})
		return nil
	})
}

// Icon returns the local path of a search hit's thumbnail, fetching it on
// first use.
func (c *Core) Icon(ctx context.Context, hit model.ModSearchResult) (string, error) {
	return c.icons.Fetch(ctx, hit)
}

// ModRequest describes a package install.
type ModRequest struct {
	ProjectID string
	// Profile selects the target mods directory and, unless overridden,
	// the loader and game version.
	Profile     string
	Loader      model.LoaderKind
	GameVersion string
}

// InstallMod installs a package and its required dependencies. Each
// package is reported through ModInstalled.
func (c *Core) InstallMod(req ModRequest) *Operation {
	return c.submit("install-mod", func(ctx context.Context) error {
		modsDir := c.layout.DefaultModsDir()
		if req.Profile != "" {
			p, ok := c.profiles.Get(req.Profile)
			if !ok {
				return fmt.Errorf("%w: %s", profile.ErrProfileNotFound, req.Profile)
			}
			modsDir = p.ModsPath
			if req.Loader == "" {
				req.Loader = p.Loader
			}
			if req.GameVersion == "" {
				req.GameVersion = p.GameVersion
			}
		}

		report := c.installer.Install(ctx, modrinth.Request{
			ProjectID:   req.ProjectID,
			Loader:      req.Loader,
			GameVersion: req.GameVersion,
			ModsDir:     modsDir,
		})
		c.logger.Info("mod install finished", "project", req.ProjectID,
			"installed", len(report.Installed), "skipped", len(report.Skipped), "failed", len(report.Failed))
		if !report.OK() {
			return fmt.Errorf("install %s: %d packages failed", req.ProjectID, len(report.Failed))
		}
		return nil
	})
}

// LaunchRequest describes a game launch.
type LaunchRequest struct {
	// VersionID may be empty when Profile is set; the newest installed
	// version matching the profile's loader is used.
	VersionID string
	MemoryMB  int
	Profile   string
	Identity  session.Identity
}

// Launch assembles and runs the game, publishing LaunchStarted and
// LaunchExited.
func (c *Core) Launch(req LaunchRequest) *Operation {
	return c.submit("launch", func(ctx context.Context) error {
		areq := launch.Request{
			VersionID:   req.VersionID,
			MemoryMB:    req.MemoryMB,
			MinMemoryMB: c.settings.MinMemoryMB,
			Identity:    req.Identity,
		}
		if areq.MemoryMB == 0 {
			areq.MemoryMB = c.settings.MemoryMB
		}

		if req.Profile != "" {
			p, ok := c.profiles.Get(req.Profile)
			if !ok {
				return fmt.Errorf("%w: %s", profile.ErrProfileNotFound, req.Profile)
			}
			areq.GameDir = filepath.Dir(p.ModsPath)
			if areq.VersionID == "" {
				areq.VersionID = launch.ResolveVersionID(c.layout, p.Loader, p.GameVersion)
			}
		}

		cmd, err := c.assembler.Assemble(areq)
		if err != nil {
			return err
		}

		c.emit(LaunchStarted{VersionID: cmd.VersionID, Args: cmd.Args})
		code, err := c.runner.Run(ctx, cmd)
		if err != nil {
			return err
		}
		c.emit(LaunchExited{VersionID: cmd.VersionID, Code: code})
		return nil
	})
}

// Profiles lists content profiles.
func (c *Core) Profiles() []model.ModProfile {
	return c.profiles.List()
}

// CreateProfile adds a content profile.
func (c *Core) CreateProfile(name, gameVersion string, loader model.LoaderKind) (model.ModProfile, error) {
	return c.profiles.Create(name, gameVersion, loader)
}

// DeleteProfile removes a profile record. Its files are kept.
func (c *Core) DeleteProfile(name string) error {
	return c.profiles.Delete(name)
}

// Close cancels running operations, waits for them and closes Events.
func (c *Core) Close() error {
	c.closeOnce.Do(func() {
		close(c.closing)
		c.cancel()
		c.downloads.Cancel()
		c.exec.wait()

		c.evMu.Lock()
		c.closed = true
		close(c.events)
		c.evMu.Unlock()
	})
	return nil
}
