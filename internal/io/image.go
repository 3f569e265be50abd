package ioutils

import (
	"bytes"
	"context"
	"image"
	_ "image/gif"  // GIF decoder registration
	_ "image/jpeg" // JPEG decoder registration
	"image/png"

	"golang.org/x/image/draw"
	_ "golang.org/x/image/webp" // WebP decoder registration
)

// ImageService provides image processing for registry icons.
//
// Registry icons arrive as PNG, JPEG, GIF or WebP in arbitrary sizes;
// ImageService scales them down to a fixed box and re-encodes them as PNG so
// that transparency survives.
//
// Example usage:
//
//	svc := NewImageService()
//	thumb, err := svc.Thumbnail(ctx, iconData, 64)
type ImageService struct{}

// NewImageService creates a new ImageService.
func NewImageService() *ImageService {
	return &ImageService{}
}

// Thumbnail resizes an image to fit within a size×size box and encodes it
// as PNG.
//
// The aspect ratio is preserved and images already inside the box keep their
// dimensions. The Catmull-Rom kernel is used for scaling.
//
// Example:
//
//	// A 512x256 icon becomes 64x32
//	thumb, err := svc.Thumbnail(ctx, data, 64)
func (s *ImageService) Thumbnail(ctx context.Context, data []byte, size int) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	img, _, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, err
	}

	bounds := img.Bounds()
	width := bounds.Dx()
	height := bounds.Dy()

	if width > size || height > size {
		ratio := float64(width) / float64(height)
		if ratio < 1 {
			// Height is the limiting factor
			width = max(1, int(float64(size)*ratio))
			height = size
		} else {
			// Width is the limiting factor
			height = max(1, int(float64(size)/ratio))
			width = size
		}
	}

	dst := image.NewRGBA(image.Rect(0, 0, width, height))
	draw.CatmullRom.Scale(dst, dst.Bounds(), img, bounds, draw.Over, nil)

	var buf bytes.Buffer
	if err := png.Encode(&buf, dst); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}
