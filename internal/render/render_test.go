package render

import (
	"bytes"
	"image"
	"image/color"
	"image/jpeg"
	"os"
	"path/filepath"
	"testing"

	"github.com/kozaktomas/attendance-tracker/internal/capture"
	"github.com/kozaktomas/attendance-tracker/internal/facematch"
)

func TestLabel(t *testing.T) {
	tests := []struct {
		name   string
		result facematch.MatchResult
		want   string
	}{
		{"identified", facematch.Identified("Alice", 0.1257), "Alice (87.43%)"},
		{"unknown", facematch.Unknown(), "Unknown"},
		{"rounding", facematch.Identified("Bob", 0.088), "Bob (91.20%)"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Label(tt.result); got != tt.want {
				t.Errorf("Label() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestLabel_RoundTripsThroughCleanName(t *testing.T) {
	result := facematch.Identified("Alice", 0.2)
	if got := facematch.CleanName(Label(result)); got != "Alice" {
		t.Errorf("CleanName(Label()) = %q, want Alice", got)
	}
}

func blankImage(w, h int) *image.RGBA {
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	for y := range h {
		for x := range w {
			img.SetRGBA(x, y, color.RGBA{0, 0, 0, 255})
		}
	}
	return img
}

func TestAnnotate_BoxColors(t *testing.T) {
	img := blankImage(200, 200)
	faces := []Face{
		{Region: image.Rect(10, 50, 60, 100), Result: facematch.Identified("Alice", 0.2)},
		{Region: image.Rect(100, 50, 150, 100), Result: facematch.Unknown()},
	}

	out := Annotate(img, faces)

	if got := out.RGBAAt(30, 50); got != colorKnown {
		t.Errorf("known face box color = %v, want %v", got, colorKnown)
	}
	if got := out.RGBAAt(120, 50); got != colorUnknown {
		t.Errorf("unknown face box color = %v, want %v", got, colorUnknown)
	}
	if got := img.RGBAAt(30, 50); got != (color.RGBA{0, 0, 0, 255}) {
		t.Errorf("source image was modified: %v", got)
	}
}

func TestAnnotate_RegionOutsideImage(t *testing.T) {
	img := blankImage(50, 50)
	faces := []Face{{Region: image.Rect(-20, -20, 500, 500), Result: facematch.Unknown()}}

	out := Annotate(img, faces)
	if out.Bounds() != img.Bounds() {
		t.Errorf("bounds changed: %v", out.Bounds())
	}
}

func TestAnnotator_Save(t *testing.T) {
	var buf bytes.Buffer
	if err := jpeg.Encode(&buf, blankImage(120, 80), nil); err != nil {
		t.Fatalf("encode: %v", err)
	}

	dir := filepath.Join(t.TempDir(), "annotated")
	a, err := NewAnnotator(dir)
	if err != nil {
		t.Fatalf("NewAnnotator() error: %v", err)
	}

	frame := capture.Frame{Seq: 7, Data: buf.Bytes()}
	path, err := a.Save(frame, []Face{{Region: image.Rect(10, 10, 50, 50), Result: facematch.Unknown()}})
	if err != nil {
		t.Fatalf("Save() error: %v", err)
	}
	if filepath.Base(path) != "frame-000007.jpg" {
		t.Errorf("unexpected path %s", path)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read: %v", err)
	}
	cfg, err := jpeg.DecodeConfig(bytes.NewReader(data))
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	if cfg.Width != 120 || cfg.Height != 80 {
		t.Errorf("annotated size = %dx%d, want 120x80", cfg.Width, cfg.Height)
	}
}

func TestAnnotator_SaveInvalidFrame(t *testing.T) {
	a, err := NewAnnotator(t.TempDir())
	if err != nil {
		t.Fatalf("NewAnnotator() error: %v", err)
	}
	if _, err := a.Save(capture.Frame{Seq: 1, Data: []byte("nope")}, nil); err == nil {
		t.Error("expected error for undecodable frame")
	}
}
