package storage

import (
	"bytes"
	"fmt"
	"io"
	"net/url"
	"os"
	"path"
	"path/filepath"
	"strings"
	"sync"

	"github.com/google/uuid"
)

// DefaultExtension is used when a photo URL carries no usable extension
const DefaultExtension = "jpg"

// Manager writes downloaded photos into a temporary directory under fresh,
// unique names
type Manager struct {
	dir   string
	saved []string
	mu    sync.Mutex
}

// NewManager creates a new storage manager rooted at dir
func NewManager(dir string) (*Manager, error) {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create photo directory: %w", err)
	}
	return &Manager{dir: dir}, nil
}

// SavePhoto writes data under a new unique name with the given extension
// and returns the final path
func (m *Manager) SavePhoto(data []byte, ext string) (string, error) {
	ext = strings.TrimPrefix(ext, ".")
	if ext == "" {
		ext = DefaultExtension
	}

	filename := filepath.Join(m.dir, fmt.Sprintf("%s.%s", uuid.New().String(), ext))
	if err := writeAtomic(filename, bytes.NewReader(data)); err != nil {
		return "", err
	}

	m.mu.Lock()
	m.saved = append(m.saved, filename)
	m.mu.Unlock()

	return filename, nil
}

func writeAtomic(filename string, r io.Reader) error {
	tempFile := filename + ".tmp"
	out, err := os.Create(tempFile)
	if err != nil {
		return fmt.Errorf("failed to create temporary file: %w", err)
	}

	_, err = io.Copy(out, r)
	closeErr := out.Close()

	if err != nil {
		os.Remove(tempFile)
		return fmt.Errorf("failed to save photo data: %w", err)
	}
	if closeErr != nil {
		os.Remove(tempFile)
		return fmt.Errorf("failed to close file: %w", closeErr)
	}

	if err := os.Rename(tempFile, filename); err != nil {
		os.Remove(tempFile)
		return fmt.Errorf("failed to rename temporary file: %w", err)
	}
	return nil
}

// Saved returns the paths written so far, in order
func (m *Manager) Saved() []string {
	m.mu.Lock()
	defer m.mu.Unlock()

	out := make([]string, len(m.saved))
	copy(out, m.saved)
	return out
}

// ExtensionFromURL returns the extension of a URL's path without the dot,
// ignoring any query string
func ExtensionFromURL(rawURL string) string {
	p := rawURL
	if u, err := url.Parse(rawURL); err == nil {
		p = u.Path
	}
	return strings.TrimPrefix(path.Ext(p), ".")
}
