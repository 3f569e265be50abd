package model

// VersionKind classifies catalog entries.
type VersionKind int

const (
	KindOther VersionKind = iota
	KindRelease
	KindSnapshot
)

// ParseVersionKind maps the catalog "type" field to a VersionKind.
// Unknown values such as old_beta and old_alpha map to KindOther.
func ParseVersionKind(s string) VersionKind {
	switch s {
	case "release":
		return KindRelease
	case "snapshot":
		return KindSnapshot
	default:
		return KindOther
	}
}

// String returns the catalog spelling of the kind.
func (k VersionKind) String() string {
	switch k {
	case KindRelease:
		return "release"
	case KindSnapshot:
		return "snapshot"
	default:
		return "other"
	}
}

// VersionEntry is one row of the remote version catalog.
type VersionEntry struct {
	// ID is the version identifier, e.g. "1.20.1" or "23w31a".
	ID string

	// Kind is release, snapshot or other.
	Kind VersionKind

	// URL locates the version descriptor document.
	URL string
}
