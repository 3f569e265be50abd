package modrinth

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/url"
	"strconv"
	"strings"

	"github.com/handiism/mixlauncher/internal/http"
	"github.com/handiism/mixlauncher/internal/model"
)

// ErrParse reports a registry response that could not be decoded.
var ErrParse = errors.New("modrinth: parse failure")

// DefaultSearchLimit caps search results when Query.Limit is zero.
const DefaultSearchLimit = 30

// Query describes a registry search.
type Query struct {
	Text        string
	GameVersion string
	Loader      model.LoaderKind
	// ProjectType defaults to "mod".
	ProjectType string
	Limit       int
}

// Release is one published version of a project.
type Release struct {
	ID            string       `json:"id"`
	ProjectID     string       `json:"project_id"`
	Name          string       `json:"name"`
	VersionNumber string       `json:"version_number"`
	GameVersions  []string     `json:"game_versions"`
	Loaders       []string     `json:"loaders"`
	Files         []File       `json:"files"`
	Dependencies  []Dependency `json:"dependencies"`
}

// File is a downloadable file of a release.
type File struct {
	URL      string            `json:"url"`
	Filename string            `json:"filename"`
	Primary  bool              `json:"primary"`
	Size     int64             `json:"size"`
	Hashes   map[string]string `json:"hashes"`
}

// Dependency is a raw dependency record of a release.
type Dependency struct {
	ProjectID      string `json:"project_id"`
	VersionID      string `json:"version_id"`
	FileName       string `json:"file_name"`
	DependencyType string `json:"dependency_type"`
}

// PrimaryFile returns the file flagged primary, else the first file.
func (r *Release) PrimaryFile() (File, bool) {
	for _, f := range r.Files {
		if f.Primary {
			return f, true
		}
	}
	if len(r.Files) > 0 {
		return r.Files[0], true
	}
	return File{}, false
}

// RequiredDependencies returns the dependencies that must be installed, in
// declaration order.
func (r *Release) RequiredDependencies() []model.PackageDependency {
	var deps []model.PackageDependency
	for _, d := range r.Dependencies {
		dep := model.PackageDependency{
			ProjectID: d.ProjectID,
			VersionID: d.VersionID,
			Kind:      model.DependencyKind(d.DependencyType),
		}
		if dep.Required() && (dep.ProjectID != "" || dep.VersionID != "") {
			deps = append(deps, dep)
		}
	}
	return deps
}

type searchHit struct {
	Title       string `json:"title"`
	Author      string `json:"author"`
	Description string `json:"description"`
	ProjectID   string `json:"project_id"`
	Slug        string `json:"slug"`
	IconURL     string `json:"icon_url"`
	Downloads   int64  `json:"downloads"`
}

// Client queries the Modrinth v2 API.
type Client struct {
	baseURL string
	api     *http.Client
}

// NewClient creates a registry client for baseURL, e.g.
// "https://api.modrinth.com/v2".
func NewClient(baseURL string, client *http.Client) *Client {
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		api:     client,
	}
}

func (c *Client) getJSON(ctx context.Context, u string, v any) error {
	body, err := c.api.Get(ctx, u)
	if err != nil {
		return err
	}
	if err := json.Unmarshal(body, v); err != nil {
		return fmt.Errorf("%w: %s: %v", ErrParse, u, err)
	}
	return nil
}

// Facets builds the search facet filter: game version, project type and,
// for modded queries, the loader category.
func Facets(q Query) string {
	projectType := q.ProjectType
	if projectType == "" {
		projectType = "mod"
	}
	facets := [][]string{
		{"versions:" + q.GameVersion},
		{"project_type:" + projectType},
	}
	if q.Loader != "" && q.Loader != model.LoaderVanilla {
		facets = append(facets, []string{"categories:" + string(q.Loader)})
	}
	data, _ := json.Marshal(facets)
	return string(data)
}

// Search returns matching projects in registry order.
func (c *Client) Search(ctx context.Context, q Query) ([]model.ModSearchResult, error) {
	limit := q.Limit
	if limit <= 0 {
		limit = DefaultSearchLimit
	}

	params := url.Values{}
	params.Set("query", q.Text)
	params.Set("facets", Facets(q))
	params.Set("limit", strconv.Itoa(limit))

	var resp struct {
		Hits []searchHit `json:"hits"`
	}
	if err := c.getJSON(ctx, c.baseURL+"/search?"+params.Encode(), &resp); err != nil {
		return nil, err
	}

	results := make([]model.ModSearchResult, 0, len(resp.Hits))
	for _, h := range resp.Hits {
		results = append(results, model.ModSearchResult{
			Title:       h.Title,
			Author:      h.Author,
			Description: h.Description,
			ProjectID:   h.ProjectID,
			Slug:        h.Slug,
			IconURL:     h.IconURL,
			Downloads:   h.Downloads,
		})
	}
	return results, nil
}

// ProjectVersions lists releases of a project compatible with the loader and
// game version, newest first.
func (c *Client) ProjectVersions(ctx context.Context, projectID string, loader model.LoaderKind, gameVersion string) ([]Release, error) {
	params := url.Values{}
	if loader != "" && loader != model.LoaderVanilla {
		params.Set("loaders", jsonList(string(loader)))
	}
	if gameVersion != "" {
		params.Set("game_versions", jsonList(gameVersion))
	}

	u := c.baseURL + "/project/" + url.PathEscape(projectID) + "/version"
	if len(params) > 0 {
		u += "?" + params.Encode()
	}

	var releases []Release
	if err := c.getJSON(ctx, u, &releases); err != nil {
		return nil, err
	}
	return releases, nil
}

// Version fetches one release by id.
func (c *Client) Version(ctx context.Context, versionID string) (*Release, error) {
	var r Release
	if err := c.getJSON(ctx, c.baseURL+"/version/"+url.PathEscape(versionID), &r); err != nil {
		return nil, err
	}
	return &r, nil
}

func jsonList(values ...string) string {
	data, _ := json.Marshal(values)
	return string(data)
}
