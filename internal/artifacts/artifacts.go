// Package artifacts persists screenshots and OCR previews as viewable PNG
// files under a single artifact directory.
package artifacts

import (
	"fmt"
	"image"
	"image/png"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"
)

// Store writes timestamped image artifacts into one directory.
type Store struct {
	dir string
}

// NewStore creates a store rooted at dir. The directory is created lazily
// on first save.
func NewStore(dir string) *Store {
	return &Store{dir: dir}
}

// Dir returns the artifact directory.
func (s *Store) Dir() string {
	return s.dir
}

// nowFn is swapped out in tests.
var nowFn = time.Now

// SaveImage writes img as a PNG named kind_HH-MM-SS-microseconds.png and
// returns the full path.
func (s *Store) SaveImage(img image.Image, kind string) (string, error) {
	if s == nil || strings.TrimSpace(s.dir) == "" {
		return "", fmt.Errorf("artifact directory is not configured")
	}
	if err := os.MkdirAll(s.dir, 0o755); err != nil {
		return "", fmt.Errorf("create artifact directory: %w", err)
	}

	now := nowFn()
	name := fmt.Sprintf("%s_%s-%06d.png", kind, now.Format("15-04-05"), now.Nanosecond()/1000)
	path := filepath.Join(s.dir, name)

	f, err := os.Create(path)
	if err != nil {
		return "", fmt.Errorf("create artifact: %w", err)
	}
	if err := png.Encode(f, img); err != nil {
		f.Close()
		os.Remove(path)
		return "", fmt.Errorf("encode artifact: %w", err)
	}
	if err := f.Close(); err != nil {
		return "", err
	}
	return path, nil
}

// List returns the PNG artifacts in the store, newest first.
func (s *Store) List() ([]string, error) {
	entries, err := os.ReadDir(s.dir)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, err
	}

	type stamped struct {
		path string
		mod  time.Time
	}
	var files []stamped
	for _, entry := range entries {
		if entry.IsDir() || !strings.HasSuffix(entry.Name(), ".png") {
			continue
		}
		info, err := entry.Info()
		if err != nil {
			continue
		}
		files = append(files, stamped{path: filepath.Join(s.dir, entry.Name()), mod: info.ModTime()})
	}
	sort.Slice(files, func(i, j int) bool { return files[i].mod.After(files[j].mod) })

	out := make([]string, len(files))
	for i, f := range files {
		out[i] = f.path
	}
	return out, nil
}

// Prune removes all but the keep newest artifacts. It is safe to call on a
// missing directory.
func (s *Store) Prune(keep int) error {
	if keep < 0 {
		keep = 0
	}
	files, err := s.List()
	if err != nil {
		return err
	}
	for _, path := range files[min(keep, len(files)):] {
		if err := os.Remove(path); err != nil && !os.IsNotExist(err) {
			return err
		}
	}
	return nil
}
