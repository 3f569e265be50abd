package manifest

import (
	"context"
	"errors"
	"fmt"
	"os"
	"regexp"
	"sort"
	"strings"
	"sync"

	"github.com/handiism/mixlauncher/internal/ctxlog"
	"github.com/handiism/mixlauncher/internal/http"
	ioutils "github.com/handiism/mixlauncher/internal/io"
	"github.com/handiism/mixlauncher/internal/layout"
	"github.com/handiism/mixlauncher/internal/model"
)

var (
	// ErrVersionNotFound is returned when an id is neither in the catalog
	// nor installed locally.
	ErrVersionNotFound = errors.New("version not found")

	// ErrInheritanceCycle is returned when descriptors inherit from each
	// other in a loop.
	ErrInheritanceCycle = errors.New("descriptor inheritance cycle")
)

// Options configures a Resolver.
type Options struct {
	// ManifestURL locates version_manifest_v2.json.
	ManifestURL string
	// ResourcesURL is the base URL of asset objects.
	ResourcesURL string
	// Platform is the rule platform name: linux, osx or windows.
	Platform string
}

// Plan is the set of download tasks that installs one version.
type Plan struct {
	// VersionID is the requested id.
	VersionID string
	// BaseID is the id whose artifacts are planned. It differs from
	// VersionID when a locally installed descriptor inherits from a parent.
	BaseID string
	// Descriptor is the descriptor of BaseID.
	Descriptor *Descriptor
	// Local is set when VersionID came from the local layout, not the catalog.
	Local bool
	Tasks []model.Task
}

// Queue receives planned tasks. *download.Manager satisfies it.
type Queue interface {
	EnqueueBatch(tasks []model.Task)
	Start()
}

// Resolver turns version ids into download plans.
type Resolver struct {
	opts   Options
	client *http.Client
	layout *layout.Layout

	mu      sync.RWMutex
	entries []model.VersionEntry
	byID    map[string]model.VersionEntry
}

// NewResolver creates a Resolver.
func NewResolver(opts Options, client *http.Client, l *layout.Layout) *Resolver {
	return &Resolver{
		opts:   opts,
		client: client,
		layout: l,
		byID:   make(map[string]model.VersionEntry),
	}
}

// FetchCatalog downloads the version catalog and replaces the in-memory
// index. Entries keep the remote order.
func (r *Resolver) FetchCatalog(ctx context.Context) ([]model.VersionEntry, error) {
	data, err := r.client.Get(ctx, r.opts.ManifestURL)
	if err != nil {
		return nil, fmt.Errorf("fetch version catalog: %w", err)
	}
	catalog, err := ParseCatalog(data)
	if err != nil {
		return nil, err
	}

	entries := catalog.Entries()
	byID := make(map[string]model.VersionEntry, len(entries))
	for _, e := range entries {
		byID[e.ID] = e
	}

	r.mu.Lock()
	r.entries = entries
	r.byID = byID
	r.mu.Unlock()

	ctxlog.FromContext(ctx).Debug("version catalog fetched", "versions", len(entries), "latest", catalog.Latest.Release)
	return entries, nil
}

// Entries returns the last fetched catalog.
func (r *Resolver) Entries() []model.VersionEntry {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return append([]model.VersionEntry(nil), r.entries...)
}

// Lookup finds a catalog entry by id.
func (r *Resolver) Lookup(id string) (model.VersionEntry, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	e, ok := r.byID[id]
	return e, ok
}

func (r *Resolver) catalogLoaded() bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.byID) > 0
}

// Resolve builds the download plan for id.
//
// Catalog versions have their descriptor fetched and persisted. Ids missing
// from the catalog fall back to a locally installed descriptor; when that
// descriptor inherits from a parent, the plan installs the parent.
func (r *Resolver) Resolve(ctx context.Context, id string) (*Plan, error) {
	if !r.catalogLoaded() {
		if _, err := r.FetchCatalog(ctx); err != nil {
			ctxlog.FromContext(ctx).Warn("catalog unavailable, using local descriptors only", "error", err)
		}
	}

	plan, err := r.resolve(ctx, id, make(map[string]bool))
	if err != nil {
		return nil, err
	}
	plan.VersionID = id
	return plan, nil
}

func (r *Resolver) resolve(ctx context.Context, id string, visited map[string]bool) (*Plan, error) {
	if visited[id] {
		return nil, fmt.Errorf("%w: %s", ErrInheritanceCycle, id)
	}
	visited[id] = true

	if entry, ok := r.Lookup(id); ok {
		desc, err := r.fetchDescriptor(ctx, entry)
		if err != nil {
			return nil, err
		}
		return r.plan(ctx, desc), nil
	}

	data, err := os.ReadFile(r.layout.DescriptorPath(id))
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("%w: %s", ErrVersionNotFound, id)
		}
		return nil, err
	}
	desc, err := ParseDescriptor(data)
	if err != nil {
		return nil, err
	}

	if desc.InheritsFrom == "" {
		plan := r.plan(ctx, desc)
		plan.Local = true
		return plan, nil
	}

	ctxlog.FromContext(ctx).Debug("resolving parent version", "version", id, "parent", desc.InheritsFrom)
	plan, err := r.resolve(ctx, desc.InheritsFrom, visited)
	if err != nil {
		return nil, fmt.Errorf("resolve parent of %s: %w", id, err)
	}
	plan.Local = true
	return plan, nil
}

func (r *Resolver) fetchDescriptor(ctx context.Context, entry model.VersionEntry) (*Descriptor, error) {
	data, err := r.client.Get(ctx, entry.URL)
	if err != nil {
		return nil, fmt.Errorf("fetch descriptor %s: %w", entry.ID, err)
	}
	desc, err := ParseDescriptor(data)
	if err != nil {
		return nil, err
	}
	if err := ioutils.WriteFile(r.layout.DescriptorPath(entry.ID), data); err != nil {
		return nil, fmt.Errorf("persist descriptor %s: %w", entry.ID, err)
	}
	return desc, nil
}

// planBuilder collects tasks, dropping repeated destinations.
type planBuilder struct {
	tasks []model.Task
	seen  map[string]bool
}

func (b *planBuilder) add(t model.Task) {
	if b.seen[t.Dest] {
		return
	}
	b.seen[t.Dest] = true
	b.tasks = append(b.tasks, t)
}

func (r *Resolver) plan(ctx context.Context, desc *Descriptor) *Plan {
	b := &planBuilder{seen: make(map[string]bool)}

	if c := desc.Downloads.Client; c != nil && c.URL != "" {
		b.add(model.Task{URL: c.URL, Dest: r.layout.ClientJarPath(desc.ID), SHA1: c.SHA1, Size: c.Size})
	}

	for _, lib := range desc.Libraries {
		if !Allowed(lib.Rules, r.opts.Platform) {
			continue
		}
		a, ok := lib.DirectArtifact()
		if !ok {
			continue
		}
		b.add(model.Task{URL: a.URL, Dest: r.layout.LibraryPath(a.Path), SHA1: a.SHA1, Size: a.Size})
	}

	if ref := desc.AssetIndex; ref != nil && ref.URL != "" && ref.ID != "" {
		indexPath := r.layout.AssetIndexPath(ref.ID)
		b.add(model.Task{URL: ref.URL, Dest: indexPath, SHA1: ref.SHA1, Size: ref.Size})
		r.planAssets(ctx, b, ref, indexPath)
	}

	return &Plan{BaseID: desc.ID, Descriptor: desc, Tasks: b.tasks}
}

// objectHash matches a lowercase hex SHA-1, the only form allowed as an
// object file name.
var objectHash = regexp.MustCompile(`^[0-9a-f]{40}$`)

// planAssets fetches the asset index eagerly and adds one task per object.
// Failures are logged and yield no object tasks.
func (r *Resolver) planAssets(ctx context.Context, b *planBuilder, ref *AssetIndexRef, indexPath string) {
	logger := ctxlog.FromContext(ctx)

	data, err := r.client.Get(ctx, ref.URL)
	if err != nil {
		logger.Warn("asset index unavailable", "id", ref.ID, "error", err)
		return
	}
	if ref.SHA1 != "" {
		if sum := ioutils.DigestBytes(data); !strings.EqualFold(sum, ref.SHA1) {
			logger.Warn("asset index digest mismatch", "id", ref.ID, "got", sum, "want", ref.SHA1)
			return
		}
	}
	index, err := ParseAssetIndex(data)
	if err != nil {
		logger.Warn("asset index unreadable", "id", ref.ID, "error", err)
		return
	}
	if err := ioutils.WriteFile(indexPath, data); err != nil {
		logger.Warn("asset index not persisted", "path", indexPath, "error", err)
	}

	names := make([]string, 0, len(index.Objects))
	for name := range index.Objects {
		names = append(names, name)
	}
	sort.Strings(names)

	base := strings.TrimRight(r.opts.ResourcesURL, "/")
	for _, name := range names {
		obj := index.Objects[name]
		if !objectHash.MatchString(obj.Hash) {
			logger.Warn("skipping asset with invalid hash", "asset", name, "hash", obj.Hash)
			continue
		}
		prefix := obj.Hash[:2]
		b.add(model.Task{
			URL:  base + "/" + prefix + "/" + obj.Hash,
			Dest: r.layout.AssetObjectPath(obj.Hash),
			SHA1: obj.Hash,
			Size: obj.Size,
		})
	}
}

// Install resolves id, enqueues its plan as one batch and starts q.
// An empty plan is returned without starting q.
func (r *Resolver) Install(ctx context.Context, id string, q Queue) (*Plan, error) {
	plan, err := r.Resolve(ctx, id)
	if err != nil {
		return nil, err
	}
	ctxlog.FromContext(ctx).Info("install planned", "version", id, "base", plan.BaseID, "tasks", len(plan.Tasks))
	if len(plan.Tasks) == 0 {
		return plan, nil
	}
	q.EnqueueBatch(plan.Tasks)
	q.Start()
	return plan, nil
}
