// Package media stores uploaded recipe images on the local filesystem.
package media

import (
	"bytes"
	"encoding/base64"
	"errors"
	"fmt"
	"image"
	_ "image/gif"  // register GIF decoder
	_ "image/jpeg" // register JPEG decoder
	_ "image/png"  // register PNG decoder
	"os"
	"path"
	"path/filepath"
	"strings"

	"github.com/google/uuid"
	_ "golang.org/x/image/webp" // register WebP decoder
)

// ErrInvalidImage is returned for payloads that are not base64 data URIs of a supported image type.
var ErrInvalidImage = errors.New("media: invalid image")

const imageDir = "recipes/images"

var acceptedTypes = map[string]struct{}{
	"image/png":  {},
	"image/jpeg": {},
	"image/jpg":  {},
	"image/gif":  {},
	"image/webp": {},
}

// extensions maps image.DecodeConfig format names to file extensions.
var extensions = map[string]string{
	"png":  "png",
	"jpeg": "jpg",
	"gif":  "gif",
	"webp": "webp",
}

// Storage writes files below Root and builds their public URLs below URL.
type Storage struct {
	Root string
	URL  string
}

// New returns a Storage rooted at root and served under url.
func New(root, url string) *Storage {
	return &Storage{Root: root, URL: url}
}

// SaveDataURI decodes "data:image/<type>;base64,<payload>" and returns the
// stored name relative to Root. The payload must decode as a PNG, JPEG, GIF
// or WebP image; the extension follows the detected format.
func (s *Storage) SaveDataURI(uri string) (string, error) {
	header, payload, ok := strings.Cut(uri, ",")
	if !ok || !strings.HasPrefix(header, "data:") || !strings.HasSuffix(header, ";base64") {
		return "", ErrInvalidImage
	}
	mime := strings.ToLower(strings.TrimSuffix(strings.TrimPrefix(header, "data:"), ";base64"))
	if _, ok := acceptedTypes[mime]; !ok {
		return "", fmt.Errorf("%w: unsupported type %q", ErrInvalidImage, mime)
	}
	data, err := base64.StdEncoding.DecodeString(strings.TrimSpace(payload))
	if err != nil || len(data) == 0 {
		return "", ErrInvalidImage
	}
	cfg, format, err := image.DecodeConfig(bytes.NewReader(data))
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrInvalidImage, err)
	}
	ext, ok := extensions[format]
	if !ok || cfg.Width <= 0 || cfg.Height <= 0 {
		return "", fmt.Errorf("%w: unsupported format %q", ErrInvalidImage, format)
	}

	name := path.Join(imageDir, uuid.NewString()+"."+ext)
	full := filepath.Join(s.Root, filepath.FromSlash(name))
	if err := os.MkdirAll(filepath.Dir(full), 0o755); err != nil {
		return "", fmt.Errorf("create media dir: %w", err)
	}
	if err := os.WriteFile(full, data, 0o644); err != nil {
		return "", fmt.Errorf("write image: %w", err)
	}
	return name, nil
}

// Remove deletes a stored file. Missing files are ignored.
func (s *Storage) Remove(name string) error {
	if name == "" {
		return nil
	}
	err := os.Remove(filepath.Join(s.Root, filepath.FromSlash(path.Clean("/"+name))))
	if err != nil && !errors.Is(err, os.ErrNotExist) {
		return err
	}
	return nil
}

// URLFor returns the public URL of a stored name, or "" for none.
func (s *Storage) URLFor(name string) string {
	if name == "" {
		return ""
	}
	return s.URL + name
}
