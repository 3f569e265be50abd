package launcher

import (
	"github.com/handiism/mixlauncher/internal/model"
)

// Event is a notification published on Core.Events.
type Event interface {
	event()
}

// CatalogReady carries the fetched version catalog.
type CatalogReady struct {
	Versions []model.VersionEntry
}

// Progress is a periodic snapshot of the running download.
type Progress struct {
	Done  int
	Total int
	File  string
	Bytes int64
}

// InstallFinished ends a version install.
type InstallFinished struct {
	VersionID string
	OK        bool
	Message   string
	Succeeded int
	Failed    int
}

// SearchResults carries the hits of a registry search.
type SearchResults struct {
	Query   string
	Results []model.ModSearchResult
}

// DependenciesFound lists the required dependencies of a package before
// they are installed.
type DependenciesFound struct {
	Parent string
	Deps   []model.PackageDependency
}

// ModInstalled is published once per package of a mod install.
type ModInstalled struct {
	Name string
	OK   bool
}

// LoaderInstalled ends a loader install.
type LoaderInstalled struct {
	Loader    model.LoaderKind
	VersionID string
	OK        bool
}

// LaunchStarted is published right before the game process starts.
type LaunchStarted struct {
	VersionID string
	Args      []string
}

// LaunchExited carries the game's exit code.
type LaunchExited struct {
	VersionID string
	Code      int
}

// OperationFailed reports an operation that ended with an error.
type OperationFailed struct {
	Op  string
	Err error
}

func (CatalogReady) event()      {}
func (Progress) event()          {}
func (InstallFinished) event()   {}
func (SearchResults) event()     {}
func (DependenciesFound) event() {}
func (ModInstalled) event()      {}
func (LoaderInstalled) event()   {}
func (LaunchStarted) event()     {}
func (LaunchExited) event()      {}
func (OperationFailed) event()   {}
