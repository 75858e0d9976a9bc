package fingerprint

import (
	"bytes"
	"errors"
	"image"
	"image/color"
	"image/jpeg"
	"image/png"
	"testing"
)

func testJPEG(t *testing.T, width, height int) []byte {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, width, height))
	for x := range width {
		for y := range height {
			img.Set(x, y, color.RGBA{uint8(x % 256), uint8(y % 256), 128, 255})
		}
	}
	var buf bytes.Buffer
	if err := jpeg.Encode(&buf, img, nil); err != nil {
		t.Fatalf("failed to encode test image: %v", err)
	}
	return buf.Bytes()
}

func TestFitWithin(t *testing.T) {
	tests := []struct {
		name          string
		width, height int
		maxSize       int
		wantW, wantH  int
	}{
		{"already small", 640, 480, 1280, 640, 480},
		{"landscape", 2560, 1440, 1280, 1280, 720},
		{"portrait", 1000, 2000, 500, 250, 500},
		{"square", 3000, 3000, 1000, 1000, 1000},
		{"resizing disabled", 4000, 3000, 0, 4000, 3000},
		{"extreme aspect ratio", 10000, 1, 100, 100, 1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w, h := fitWithin(tt.width, tt.height, tt.maxSize)
			if w != tt.wantW || h != tt.wantH {
				t.Errorf("fitWithin(%d, %d, %d) = %dx%d, want %dx%d",
					tt.width, tt.height, tt.maxSize, w, h, tt.wantW, tt.wantH)
			}
		})
	}
}

func TestPrepareImage_NoResize(t *testing.T) {
	data := testJPEG(t, 64, 48)

	out, scale, err := PrepareImage(data, 128)
	if err != nil {
		t.Fatalf("PrepareImage() error: %v", err)
	}
	if scale != 1 {
		t.Errorf("scale = %v, want 1", scale)
	}
	if !bytes.Equal(out, data) {
		t.Error("expected original data to be returned unchanged")
	}
}

func TestPrepareImage_Resize(t *testing.T) {
	data := testJPEG(t, 200, 100)

	out, scale, err := PrepareImage(data, 50)
	if err != nil {
		t.Fatalf("PrepareImage() error: %v", err)
	}
	if scale != 4 {
		t.Errorf("scale = %v, want 4", scale)
	}

	img, _, err := image.Decode(bytes.NewReader(out))
	if err != nil {
		t.Fatalf("resized output is not decodable: %v", err)
	}
	if img.Bounds().Dx() != 50 || img.Bounds().Dy() != 25 {
		t.Errorf("resized to %v, want 50x25", img.Bounds())
	}
}

func TestPrepareImage_PNGInput(t *testing.T) {
	img := image.NewGray(image.Rect(0, 0, 10, 10))
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		t.Fatalf("failed to encode png: %v", err)
	}

	if _, _, err := PrepareImage(buf.Bytes(), 100); err != nil {
		t.Errorf("PrepareImage() error for PNG: %v", err)
	}
}

func TestPrepareImage_Invalid(t *testing.T) {
	_, _, err := PrepareImage([]byte("definitely not an image"), 100)
	if !errors.Is(err, ErrInvalidImage) {
		t.Errorf("expected ErrInvalidImage, got %v", err)
	}
}
