package library

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/kozaktomas/attendance-tracker/internal/facematch"
	"github.com/kozaktomas/attendance-tracker/internal/fingerprint"
)

// fakeAnalyzer maps file contents to analysis outcomes:
// "face:<x>" yields one face with descriptor {x}, "noface" yields none,
// "badenc" yields a face that failed encoding, anything else is undecodable.
type fakeAnalyzer struct {
	calls int
}

func (f *fakeAnalyzer) Analyze(_ context.Context, data []byte) ([]fingerprint.DetectedFace, error) {
	f.calls++
	s := string(data)
	switch {
	case strings.HasPrefix(s, "face:"):
		x := float64(len(strings.TrimPrefix(s, "face:")))
		return []fingerprint.DetectedFace{{Descriptor: facematch.Descriptor{x, 0}}}, nil
	case s == "noface":
		return nil, nil
	case s == "badenc":
		return []fingerprint.DetectedFace{{Err: fingerprint.ErrEncoding}}, nil
	default:
		return nil, fingerprint.ErrInvalidImage
	}
}

func writeLibrary(t *testing.T, files map[string]string) string {
	t.Helper()
	dir := t.TempDir()
	for rel, content := range files {
		path := filepath.Join(dir, rel)
		if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
			t.Fatalf("mkdir: %v", err)
		}
		if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
			t.Fatalf("write %s: %v", rel, err)
		}
	}
	return dir
}

func names(known []facematch.KnownIdentity) []string {
	out := make([]string, len(known))
	for i, k := range known {
		out[i] = k.Name
	}
	return out
}

func TestLoadReferenceLibrary_MissingDirectory(t *testing.T) {
	known, err := LoadReferenceLibrary(context.Background(), filepath.Join(t.TempDir(), "nope"), &fakeAnalyzer{}, DefaultOptions())

	if !errors.Is(err, ErrDirectoryNotFound) {
		t.Fatalf("expected ErrDirectoryNotFound, got %v", err)
	}
	if known == nil || len(known) != 0 {
		t.Fatalf("expected empty non-nil library, got %v", known)
	}

	// Every face is unknown against an empty library.
	results := facematch.RecognizeFrame([]facematch.Descriptor{{0, 0}, {1, 1}}, known)
	for i, r := range results {
		if r.IsKnown() || r.Confidence != 0 {
			t.Errorf("results[%d] = %+v, want unknown", i, r)
		}
	}
}

func TestLoadReferenceLibrary_OnePerIdentityByDefault(t *testing.T) {
	dir := writeLibrary(t, map[string]string{
		"Alice/001.jpg": "face:a",
		"Alice/002.jpg": "face:aa",
		"Bob/001.jpg":   "face:bbb",
		"README.txt":    "not a person",
	})
	analyzer := &fakeAnalyzer{}

	known, err := LoadReferenceLibrary(context.Background(), dir, analyzer, DefaultOptions())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if got := strings.Join(names(known), ","); got != "Alice,Bob" {
		t.Errorf("identities = %s, want Alice,Bob", got)
	}
	if known[0].Descriptor[0] != 1 {
		t.Errorf("expected first Alice image to be used, got %v", known[0].Descriptor)
	}
	if analyzer.calls != 2 {
		t.Errorf("analyzer called %d times, want 2", analyzer.calls)
	}
}

func TestLoadReferenceLibrary_AllImages(t *testing.T) {
	dir := writeLibrary(t, map[string]string{
		"Alice/001.jpg": "face:a",
		"Alice/002.jpg": "face:aa",
		"Bob/001.jpg":   "face:bbb",
	})

	known, err := LoadReferenceLibrary(context.Background(), dir, &fakeAnalyzer{}, Options{MaxImagesPerIdentity: 0})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if got := strings.Join(names(known), ","); got != "Alice,Alice,Bob" {
		t.Errorf("identities = %s, want Alice,Alice,Bob", got)
	}
	if !strings.HasSuffix(known[1].Source, filepath.Join("Alice", "002.jpg")) {
		t.Errorf("Source = %q", known[1].Source)
	}
}

func TestLoadReferenceLibrary_SkipsBadImages(t *testing.T) {
	dir := writeLibrary(t, map[string]string{
		"Alice/001.jpg": "corrupt",
		"Alice/002.jpg": "noface",
		"Alice/003.jpg": "badenc",
		"Alice/004.jpg": "face:aaaa",
		"Carol/001.jpg": "corrupt",
		"Carol/002.jpg": "noface",
	})

	known, err := LoadReferenceLibrary(context.Background(), dir, &fakeAnalyzer{}, DefaultOptions())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if len(known) != 1 || known[0].Name != "Alice" || known[0].Descriptor[0] != 4 {
		t.Errorf("expected only Alice from 004.jpg, got %+v", known)
	}
}

func TestLoadReferenceLibrary_Cancelled(t *testing.T) {
	dir := writeLibrary(t, map[string]string{"Alice/001.jpg": "face:a"})
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := LoadReferenceLibrary(ctx, dir, &fakeAnalyzer{}, DefaultOptions())
	if !errors.Is(err, context.Canceled) {
		t.Errorf("expected context.Canceled, got %v", err)
	}
}

func TestLoadImage_WrapsReferenceLoad(t *testing.T) {
	dir := writeLibrary(t, map[string]string{"x.jpg": "noface"})

	_, err := loadImage(context.Background(), filepath.Join(dir, "x.jpg"), &fakeAnalyzer{})
	if !errors.Is(err, ErrReferenceLoad) {
		t.Errorf("expected ErrReferenceLoad, got %v", err)
	}

	_, err = loadImage(context.Background(), filepath.Join(dir, "missing.jpg"), &fakeAnalyzer{})
	if !errors.Is(err, ErrReferenceLoad) || !errors.Is(err, os.ErrNotExist) {
		t.Errorf("expected ErrReferenceLoad wrapping ErrNotExist, got %v", err)
	}
}

func TestSummarize(t *testing.T) {
	known := []facematch.KnownIdentity{
		{Name: "Bob", Source: "b1"},
		{Name: "Alice", Source: "a1"},
		{Name: "Bob", Source: "b2"},
		{Name: "Carol"},
	}

	got := Summarize(known)

	if len(got) != 3 {
		t.Fatalf("got %d summaries, want 3", len(got))
	}
	if got[0].Name != "Bob" || got[0].References != 2 || len(got[0].Sources) != 2 {
		t.Errorf("got[0] = %+v", got[0])
	}
	if got[2].Name != "Carol" || got[2].References != 1 || got[2].Sources != nil {
		t.Errorf("got[2] = %+v", got[2])
	}
}
