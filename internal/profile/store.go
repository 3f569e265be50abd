// Package profile persists named content profiles. Each profile owns a mods
// directory under <root>/profiles/<name>/mods; the records themselves live in
// <root>/profiles.json.
package profile

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"strings"
	"sync"

	ioutils "github.com/handiism/mixlauncher/internal/io"
	"github.com/handiism/mixlauncher/internal/layout"
	"github.com/handiism/mixlauncher/internal/model"
)

var (
	ErrProfileExists   = errors.New("profile already exists")
	ErrProfileNotFound = errors.New("profile not found")
	ErrInvalidName     = errors.New("invalid profile name")
)

// Store is a file-backed list of profiles. It is safe for concurrent use.
type Store struct {
	mu       sync.Mutex
	layout   *layout.Layout
	profiles []model.ModProfile
}

// Open loads the profile list. A missing file yields an empty store.
func Open(l *layout.Layout) (*Store, error) {
	s := &Store{layout: l}

	data, err := os.ReadFile(l.ProfilesFile())
	if errors.Is(err, os.ErrNotExist) {
		return s, nil
	}
	if err != nil {
		return nil, err
	}
	if err := json.Unmarshal(data, &s.profiles); err != nil {
		return nil, fmt.Errorf("parse %s: %w", l.ProfilesFile(), err)
	}
	return s, nil
}

// Create adds a profile and creates its mods directory.
func (s *Store) Create(name, gameVersion string, loader model.LoaderKind) (model.ModProfile, error) {
	name = strings.TrimSpace(name)
	dir := ioutils.SanitizeFileName(name)
	if dir == "" {
		return model.ModProfile{}, fmt.Errorf("%w: %q", ErrInvalidName, name)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if s.indexOf(name) >= 0 {
		return model.ModProfile{}, fmt.Errorf("%w: %s", ErrProfileExists, name)
	}

	p := model.ModProfile{
		Name:        name,
		GameVersion: gameVersion,
		Loader:      loader,
		ModsPath:    s.layout.ProfileModsDir(dir),
	}
	if err := ioutils.EnsureDir(p.ModsPath); err != nil {
		return model.ModProfile{}, err
	}

	s.profiles = append(s.profiles, p)
	if err := s.save(); err != nil {
		s.profiles = s.profiles[:len(s.profiles)-1]
		return model.ModProfile{}, err
	}
	return p, nil
}

// List returns a copy of all profiles in creation order.
func (s *Store) List() []model.ModProfile {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]model.ModProfile(nil), s.profiles...)
}

// Get returns the named profile.
func (s *Store) Get(name string) (model.ModProfile, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if i := s.indexOf(name); i >= 0 {
		return s.profiles[i], true
	}
	return model.ModProfile{}, false
}

// ModsPath returns the profile's mods directory, or the shared mods
// directory when name is empty or unknown.
func (s *Store) ModsPath(name string) string {
	if p, ok := s.Get(name); ok {
		return p.ModsPath
	}
	return s.layout.DefaultModsDir()
}

// Delete removes the profile record. Files on disk are left in place.
func (s *Store) Delete(name string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	i := s.indexOf(name)
	if i < 0 {
		return fmt.Errorf("%w: %s", ErrProfileNotFound, name)
	}
	removed := s.profiles[i]
	s.profiles = append(s.profiles[:i], s.profiles[i+1:]...)
	if err := s.save(); err != nil {
		s.profiles = append(s.profiles[:i], append([]model.ModProfile{removed}, s.profiles[i:]...)...)
		return err
	}
	return nil
}

func (s *Store) indexOf(name string) int {
	for i, p := range s.profiles {
		if p.Name == name {
			return i
		}
	}
	return -1
}

func (s *Store) save() error {
	data, err := json.MarshalIndent(s.profiles, "", "  ")
	if err != nil {
		return err
	}
	return ioutils.WriteFile(s.layout.ProfilesFile(), data)
}
