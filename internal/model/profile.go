package model

import "strings"

// LoaderKind names a mod loader, or none.
type LoaderKind string

const (
	LoaderVanilla LoaderKind = "vanilla"
	LoaderFabric  LoaderKind = "fabric"
	LoaderQuilt   LoaderKind = "quilt"
	LoaderForge   LoaderKind = "forge"
)

// ParseLoaderKind parses a loader name case-insensitively. The empty string
// maps to LoaderVanilla.
func ParseLoaderKind(s string) (LoaderKind, bool) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "vanilla":
		return LoaderVanilla, true
	case "fabric":
		return LoaderFabric, true
	case "quilt":
		return LoaderQuilt, true
	case "forge":
		return LoaderForge, true
	default:
		return "", false
	}
}

// ModProfile is a named content profile with its own mods directory.
//
// When a profile is used for launching, the game directory becomes the
// parent of ModsPath so that saves and configs are isolated per profile.
type ModProfile struct {
	Name        string     `json:"name"`
	GameVersion string     `json:"gameVersion"`
	Loader      LoaderKind `json:"loader"`
	ModsPath    string     `json:"modsPath"`
}
