// Package ioutils provides file system and image processing utilities.
//
// This package contains functions for:
//   - Content verification (streaming SHA-1 digests)
//   - File writing and directory creation
//   - Filename sanitization for cross-platform compatibility
//   - Icon thumbnailing
//
// # Content Verification
//
//	digest, err := ioutils.Digest("/data/libraries/org/lwjgl/lwjgl/3.3.1/lwjgl-3.3.1.jar")
//	if errors.Is(err, ioutils.ErrNotFound) {
//	    // not downloaded yet
//	}
//
//	// An empty expected digest always verifies
//	ok := ioutils.Verify(path, "9a8b...")
//
// # File Operations
//
//	// Write data, creating parent directories
//	err := ioutils.WriteFile("/data/versions/1.20.1/1.20.1.json", data)
//
//	// Ensure directory exists
//	err := ioutils.EnsureDir("/data/assets/objects/ab")
//
// # Filename Sanitization
//
// Use SanitizeFileName to remove invalid characters from filenames:
//
//	safe := ioutils.SanitizeFileName("Survival: Modded") // Returns "Survival_ Modded"
//
// # Image Processing
//
// The ImageService produces registry icon thumbnails:
//
//	svc := ioutils.NewImageService()
//	thumb, _ := svc.Thumbnail(ctx, iconData, 64)
package ioutils
