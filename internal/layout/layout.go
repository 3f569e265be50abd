// Package layout maps artifact identities onto the local data directory.
//
// The tree is path-significant; other tools read it by these exact names:
//
//	<root>/versions/<id>/<id>.json        version descriptor
//	<root>/versions/<id>/<id>.jar         engine jar
//	<root>/versions/<id>/natives/         native libraries
//	<root>/libraries/<relative path>      libraries
//	<root>/assets/indexes/<id>.json       asset index
//	<root>/assets/objects/<hh>/<hash>     asset objects
//	<root>/profiles.json                  content profiles
//	<root>/profiles/<name>/mods/          per-profile mods
//	<root>/mods/                          default mods directory
package layout

import (
	"os"
	"path/filepath"
	"sort"

	ioutils "github.com/handiism/mixlauncher/internal/io"
)

// Layout resolves paths below a data root.
type Layout struct {
	Root string
}

// New returns a Layout rooted at root.
func New(root string) *Layout {
	return &Layout{Root: root}
}

// Ensure creates the top-level directories.
func (l *Layout) Ensure() error {
	for _, dir := range []string{l.VersionsDir(), l.LibrariesDir(), l.AssetsDir(), l.DefaultModsDir()} {
		if err := ioutils.EnsureDir(dir); err != nil {
			return err
		}
	}
	return nil
}

func (l *Layout) VersionsDir() string  { return filepath.Join(l.Root, "versions") }
func (l *Layout) LibrariesDir() string { return filepath.Join(l.Root, "libraries") }
func (l *Layout) AssetsDir() string    { return filepath.Join(l.Root, "assets") }

// DefaultModsDir is used when no profile is selected.
func (l *Layout) DefaultModsDir() string { return filepath.Join(l.Root, "mods") }

func (l *Layout) VersionDir(id string) string {
	return filepath.Join(l.VersionsDir(), id)
}

func (l *Layout) DescriptorPath(id string) string {
	return filepath.Join(l.VersionDir(id), id+".json")
}

func (l *Layout) ClientJarPath(id string) string {
	return filepath.Join(l.VersionDir(id), id+".jar")
}

func (l *Layout) NativesDir(id string) string {
	return filepath.Join(l.VersionDir(id), "natives")
}

// LibraryPath converts a slash-separated relative artifact path.
func (l *Layout) LibraryPath(rel string) string {
	return filepath.Join(l.LibrariesDir(), filepath.FromSlash(rel))
}

func (l *Layout) AssetIndexPath(id string) string {
	return filepath.Join(l.AssetsDir(), "indexes", id+".json")
}

// AssetObjectPath shards objects by the first two hex characters of their hash.
func (l *Layout) AssetObjectPath(hash string) string {
	return filepath.Join(l.AssetsDir(), "objects", hash[:2], hash)
}

func (l *Layout) ProfilesFile() string {
	return filepath.Join(l.Root, "profiles.json")
}

// ProfileModsDir returns the mods directory for a profile. The name must
// already be sanitized.
func (l *Layout) ProfileModsDir(name string) string {
	return filepath.Join(l.Root, "profiles", name, "mods")
}

func (l *Layout) IconPath(projectID string) string {
	return filepath.Join(l.Root, "cache", "icons", projectID+".png")
}

// InstalledVersions lists version directories that contain a descriptor,
// sorted by name.
func (l *Layout) InstalledVersions() ([]string, error) {
	entries, err := os.ReadDir(l.VersionsDir())
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, err
	}

	var ids []string
	for _, e := range entries {
		if e.IsDir() && ioutils.FileExists(l.DescriptorPath(e.Name())) {
			ids = append(ids, e.Name())
		}
	}
	sort.Strings(ids)
	return ids, nil
}
