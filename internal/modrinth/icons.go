package modrinth

import (
	"context"
	"errors"
	"fmt"

	"github.com/handiism/mixlauncher/internal/http"
	ioutils "github.com/handiism/mixlauncher/internal/io"
	"github.com/handiism/mixlauncher/internal/layout"
	"github.com/handiism/mixlauncher/internal/model"
)

// DefaultIconSize is the thumbnail edge length in pixels.
const DefaultIconSize = 64

// ErrNoIcon is returned for search hits without an icon URL.
var ErrNoIcon = errors.New("project has no icon")

// IconCache stores thumbnails of project icons below the data root.
type IconCache struct {
	files  *http.Client
	images *ioutils.ImageService
	layout *layout.Layout
	size   int
}

// NewIconCache creates an IconCache producing size×size thumbnails.
func NewIconCache(files *http.Client, l *layout.Layout, size int) *IconCache {
	if size <= 0 {
		size = DefaultIconSize
	}
	return &IconCache{
		files:  files,
		images: ioutils.NewImageService(),
		layout: l,
		size:   size,
	}
}

// Fetch returns the local thumbnail path for hit, downloading and scaling
// the icon on first use.
func (c *IconCache) Fetch(ctx context.Context, hit model.ModSearchResult) (string, error) {
	if hit.IconURL == "" {
		return "", ErrNoIcon
	}
	path := c.layout.IconPath(hit.ProjectID)
	if ioutils.FileExists(path) {
		return path, nil
	}

	data, err := c.files.Get(ctx, hit.IconURL)
	if err != nil {
		return "", fmt.Errorf("fetch icon %s: %w", hit.ProjectID, err)
	}
	thumb, err := c.images.Thumbnail(ctx, data, c.size)
	if err != nil {
		return "", fmt.Errorf("decode icon %s: %w", hit.ProjectID, err)
	}
	if err := ioutils.WriteFile(path, thumb); err != nil {
		return "", err
	}
	return path, nil
}
