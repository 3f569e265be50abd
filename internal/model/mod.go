package model

// DependencyKind is the relation a release declares towards another package.
type DependencyKind string

const (
	DependencyRequired     DependencyKind = "required"
	DependencyOptional     DependencyKind = "optional"
	DependencyIncompatible DependencyKind = "incompatible"
	DependencyEmbedded     DependencyKind = "embedded"
)

// PackageDependency is one dependency declared by a registry release.
// Only required dependencies are installed.
type PackageDependency struct {
	// ProjectID identifies the depended-on package. May be empty when only
	// VersionID is known.
	ProjectID string

	// VersionID pins a specific release. Empty means any compatible release.
	VersionID string

	Kind DependencyKind
}

// Required reports whether the dependency must be installed.
func (d PackageDependency) Required() bool {
	return d.Kind == DependencyRequired
}

// ModSearchResult is one hit of a registry search.
type ModSearchResult struct {
	Title       string
	Author      string
	Description string
	ProjectID   string
	Slug        string
	IconURL     string
	Downloads   int64
}
