package manifest

import (
	"encoding/json"
	"errors"
	"fmt"

	"github.com/handiism/mixlauncher/internal/model"
)

// ErrParse is matched by every *ParseError via errors.Is.
var ErrParse = errors.New("manifest: parse failure")

// ParseError reports a document that is not valid JSON, has fields of the
// wrong type, or lacks a required field.
type ParseError struct {
	// Doc names the document kind: catalog, descriptor or asset index.
	Doc string
	// Field is the missing required field, if that was the problem.
	Field string
	Err   error
}

func (e *ParseError) Error() string {
	if e.Field != "" {
		return fmt.Sprintf("parse %s: missing required field %q", e.Doc, e.Field)
	}
	return fmt.Sprintf("parse %s: %v", e.Doc, e.Err)
}

func (e *ParseError) Unwrap() error { return e.Err }

// Is reports whether target is ErrParse.
func (e *ParseError) Is(target error) bool { return target == ErrParse }

// Catalog is the remote version manifest (version_manifest_v2.json).
type Catalog struct {
	Latest   LatestVersions   `json:"latest"`
	Versions []CatalogVersion `json:"versions"`
}

// LatestVersions names the newest release and snapshot.
type LatestVersions struct {
	Release  string `json:"release"`
	Snapshot string `json:"snapshot"`
}

// CatalogVersion is one raw catalog row.
type CatalogVersion struct {
	ID   string `json:"id"`
	Type string `json:"type"`
	URL  string `json:"url"`
	SHA1 string `json:"sha1,omitempty"`
}

// Entries converts the catalog rows to model entries, preserving order.
func (c *Catalog) Entries() []model.VersionEntry {
	entries := make([]model.VersionEntry, 0, len(c.Versions))
	for _, v := range c.Versions {
		entries = append(entries, model.VersionEntry{
			ID:   v.ID,
			Kind: model.ParseVersionKind(v.Type),
			URL:  v.URL,
		})
	}
	return entries
}

// ParseCatalog decodes a version manifest. The versions array is required;
// missing string fields of individual rows are left empty.
func ParseCatalog(data []byte) (*Catalog, error) {
	var doc struct {
		Latest   LatestVersions    `json:"latest"`
		Versions *[]CatalogVersion `json:"versions"`
	}
	if err := json.Unmarshal(data, &doc); err != nil {
		return nil, &ParseError{Doc: "catalog", Err: err}
	}
	if doc.Versions == nil {
		return nil, &ParseError{Doc: "catalog", Field: "versions"}
	}
	return &Catalog{Latest: doc.Latest, Versions: *doc.Versions}, nil
}

// Descriptor is a per-version document. Loader profiles share the schema
// and point at their base version through InheritsFrom.
type Descriptor struct {
	ID           string         `json:"id"`
	InheritsFrom string         `json:"inheritsFrom,omitempty"`
	Type         string         `json:"type,omitempty"`
	MainClass    string         `json:"mainClass,omitempty"`
	Assets       string         `json:"assets,omitempty"`
	AssetIndex   *AssetIndexRef `json:"assetIndex,omitempty"`
	Downloads    Downloads      `json:"downloads"`
	Libraries    []Library      `json:"libraries"`
}

// Downloads holds the engine artifacts of a descriptor.
type Downloads struct {
	Client *Artifact `json:"client,omitempty"`
}

// Artifact is a downloadable file with optional integrity data.
type Artifact struct {
	Path string `json:"path,omitempty"`
	URL  string `json:"url"`
	SHA1 string `json:"sha1,omitempty"`
	Size int64  `json:"size,omitempty"`
}

// AssetIndexRef points at the asset index document of a version.
type AssetIndexRef struct {
	ID        string `json:"id"`
	URL       string `json:"url"`
	SHA1      string `json:"sha1,omitempty"`
	Size      int64  `json:"size,omitempty"`
	TotalSize int64  `json:"totalSize,omitempty"`
}

// Library is a classpath entry. Libraries either carry a direct artifact
// (Downloads.Artifact) or only a symbolic coordinate (Name) plus an optional
// repository base URL.
type Library struct {
	Name      string           `json:"name"`
	URL       string           `json:"url,omitempty"`
	// SHA1 is the digest of the maven artifact for symbolic libraries.
	SHA1      string           `json:"sha1,omitempty"`
	Downloads LibraryDownloads `json:"downloads"`
	Rules     []Rule           `json:"rules,omitempty"`
}

// LibraryDownloads holds the direct artifact of a library, if any.
type LibraryDownloads struct {
	Artifact *Artifact `json:"artifact,omitempty"`
}

// DirectArtifact returns the library's direct artifact when it has both a
// path and a URL.
func (l Library) DirectArtifact() (*Artifact, bool) {
	a := l.Downloads.Artifact
	if a == nil || a.Path == "" || a.URL == "" {
		return nil, false
	}
	return a, true
}

// AssetIndexID returns the asset index identifier, or "" if none is declared.
func (d *Descriptor) AssetIndexID() string {
	if d.AssetIndex != nil && d.AssetIndex.ID != "" {
		return d.AssetIndex.ID
	}
	return d.Assets
}

// Validate checks the required fields.
func (d *Descriptor) Validate() error {
	if d.ID == "" {
		return &ParseError{Doc: "descriptor", Field: "id"}
	}
	return nil
}

// ParseDescriptor decodes and validates a version descriptor.
func ParseDescriptor(data []byte) (*Descriptor, error) {
	d, err := DecodeDescriptor(data)
	if err != nil {
		return nil, err
	}
	if err := d.Validate(); err != nil {
		return nil, err
	}
	return d, nil
}

// DecodeDescriptor decodes a descriptor without validating required fields,
// for callers that fill in defaults first.
func DecodeDescriptor(data []byte) (*Descriptor, error) {
	var d Descriptor
	if err := json.Unmarshal(data, &d); err != nil {
		return nil, &ParseError{Doc: "descriptor", Err: err}
	}
	return &d, nil
}

// AssetIndex maps logical asset paths to content-addressed objects.
type AssetIndex struct {
	Objects map[string]AssetObject `json:"objects"`
}

// AssetObject is one entry of an asset index.
type AssetObject struct {
	Hash string `json:"hash"`
	Size int64  `json:"size"`
}

// ParseAssetIndex decodes an asset index. The objects map is required.
func ParseAssetIndex(data []byte) (*AssetIndex, error) {
	var idx AssetIndex
	if err := json.Unmarshal(data, &idx); err != nil {
		return nil, &ParseError{Doc: "asset index", Err: err}
	}
	if idx.Objects == nil {
		return nil, &ParseError{Doc: "asset index", Field: "objects"}
	}
	return &idx, nil
}
