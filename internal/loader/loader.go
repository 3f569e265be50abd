package loader

import (
	"context"
	"errors"
	"fmt"

	"github.com/handiism/mixlauncher/internal/model"
)

var (
	// ErrNoLoaderVersion is returned when the loader has no build for the
	// requested game version.
	ErrNoLoaderVersion = errors.New("no loader version for game version")

	// ErrUnsupportedLoader is returned by Registry.Get for unknown kinds.
	ErrUnsupportedLoader = errors.New("unsupported loader")
)

// Result is the outcome of a loader install.
type Result struct {
	Loader model.LoaderKind
	// VersionID is the installed version id, empty on early failures.
	VersionID string
	OK        bool
	// FailedLibraries counts libraries that could not be downloaded.
	FailedLibraries int
}

// Installer installs one kind of mod loader on top of a game version.
type Installer interface {
	Kind() model.LoaderKind
	Install(ctx context.Context, gameVersion string) (Result, error)
}

// Registry selects installers by kind.
type Registry struct {
	byKind map[model.LoaderKind]Installer
}

// NewRegistry indexes installers by their Kind.
func NewRegistry(installers ...Installer) *Registry {
	r := &Registry{byKind: make(map[model.LoaderKind]Installer, len(installers))}
	for _, in := range installers {
		r.byKind[in.Kind()] = in
	}
	return r
}

// Get returns the installer for kind.
func (r *Registry) Get(kind model.LoaderKind) (Installer, error) {
	in, ok := r.byKind[kind]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnsupportedLoader, kind)
	}
	return in, nil
}
