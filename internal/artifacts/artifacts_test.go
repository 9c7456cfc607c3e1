package artifacts

import (
	"image"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func TestSaveImageName(t *testing.T) {
	orig := nowFn
	nowFn = func() time.Time {
		return time.Date(2024, 6, 1, 14, 3, 52, 123456000, time.UTC)
	}
	defer func() { nowFn = orig }()

	dir := t.TempDir()
	s := NewStore(dir)
	path, err := s.SaveImage(image.NewRGBA(image.Rect(0, 0, 2, 2)), "screenshot")
	if err != nil {
		t.Fatalf("SaveImage: %v", err)
	}
	if filepath.Base(path) != "screenshot_14-03-52-123456.png" {
		t.Errorf("artifact name = %q", filepath.Base(path))
	}
	if _, err := os.Stat(path); err != nil {
		t.Errorf("artifact not on disk: %v", err)
	}
}

func TestSaveImageNoDir(t *testing.T) {
	s := NewStore("")
	if _, err := s.SaveImage(image.NewRGBA(image.Rect(0, 0, 1, 1)), "screenshot"); err == nil {
		t.Error("expected error for unconfigured store")
	}
}

func TestListAndPrune(t *testing.T) {
	dir := t.TempDir()
	s := NewStore(dir)

	stamp := time.Date(2024, 6, 1, 10, 0, 0, 0, time.UTC)
	orig := nowFn
	defer func() { nowFn = orig }()

	var paths []string
	for i := 0; i < 4; i++ {
		tick := stamp.Add(time.Duration(i) * time.Second)
		nowFn = func() time.Time { return tick }
		p, err := s.SaveImage(image.NewRGBA(image.Rect(0, 0, 1, 1)), "screenshot")
		if err != nil {
			t.Fatalf("SaveImage #%d: %v", i, err)
		}
		// List orders by modification time, which the filesystem assigns.
		now := time.Now().Add(time.Duration(i) * time.Second)
		if err := os.Chtimes(p, now, now); err != nil {
			t.Fatalf("Chtimes: %v", err)
		}
		paths = append(paths, p)
	}

	got, err := s.List()
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if len(got) != 4 {
		t.Fatalf("List returned %d entries, want 4", len(got))
	}
	if got[0] != paths[3] {
		t.Errorf("newest first: got %s, want %s", got[0], paths[3])
	}

	if err := s.Prune(2); err != nil {
		t.Fatalf("Prune: %v", err)
	}
	got, _ = s.List()
	if len(got) != 2 {
		t.Errorf("after prune: %d entries, want 2", len(got))
	}
	if !strings.HasSuffix(got[0], filepath.Base(paths[3])) {
		t.Errorf("prune kept %s, want newest %s", got[0], paths[3])
	}
}

func TestListMissingDir(t *testing.T) {
	s := NewStore(filepath.Join(t.TempDir(), "nope"))
	got, err := s.List()
	if err != nil || got != nil {
		t.Errorf("List on missing dir = %v, %v", got, err)
	}
	if err := s.Prune(1); err != nil {
		t.Errorf("Prune on missing dir: %v", err)
	}
}
