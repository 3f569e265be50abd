package ioutils

import (
	"crypto/sha1"
	"encoding/hex"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
)

// digestChunkSize is the read size used when hashing files.
const digestChunkSize = 16 * 1024

var (
	// ErrNotFound is returned by Digest when the file cannot be opened.
	ErrNotFound = errors.New("file not found")

	// ErrIntegrity reports content whose digest or size does not match the
	// expected value.
	ErrIntegrity = errors.New("integrity check failed")
)

// Digest returns the lowercase hex SHA-1 of the file at path, streaming it
// in fixed-size chunks.
//
// Returns ErrNotFound (wrapped) if the file cannot be opened.
func Digest(path string) (string, error) {
	f, err := os.Open(path)
	if err != nil {
		return "", fmt.Errorf("%w: %s", ErrNotFound, path)
	}
	defer f.Close()

	h := sha1.New()
	buf := make([]byte, digestChunkSize)
	if _, err := io.CopyBuffer(h, f, buf); err != nil {
		return "", err
	}
	return hex.EncodeToString(h.Sum(nil)), nil
}

// DigestBytes returns the lowercase hex SHA-1 of data.
func DigestBytes(data []byte) string {
	sum := sha1.Sum(data)
	return hex.EncodeToString(sum[:])
}

// Verify reports whether the file at path has the expected SHA-1 digest.
//
// An empty expected digest always verifies. A missing or unreadable file
// never does. Hex case is ignored.
func Verify(path, expected string) bool {
	if expected == "" {
		return true
	}
	actual, err := Digest(path)
	if err != nil {
		return false
	}
	return strings.EqualFold(actual, expected)
}
