package render

import (
	"fmt"
	"image/jpeg"
	"os"
	"path/filepath"

	"github.com/kozaktomas/attendance-tracker/internal/capture"
	"github.com/kozaktomas/attendance-tracker/internal/fingerprint"
)

const jpegQuality = 85

// Annotator writes annotated copies of frames to a directory.
type Annotator struct {
	dir string
}

// NewAnnotator creates the output directory and returns an annotator writing into it.
func NewAnnotator(dir string) (*Annotator, error) {
	if err := os.MkdirAll(dir, 0750); err != nil {
		return nil, fmt.Errorf("mkdir failed: %w", err)
	}
	return &Annotator{dir: dir}, nil
}

// Save draws faces onto the frame and stores it as frame-NNNNNN.jpg.
// Returns the written path.
func (a *Annotator) Save(frame capture.Frame, faces []Face) (string, error) {
	img, err := fingerprint.DecodeImage(frame.Data)
	if err != nil {
		return "", err
	}

	outPath := filepath.Join(a.dir, fmt.Sprintf("frame-%06d.jpg", frame.Seq))
	f, err := os.Create(outPath) //nolint:gosec // name is built from the frame sequence number
	if err != nil {
		return "", fmt.Errorf("create file failed: %w", err)
	}
	defer f.Close()

	if err := jpeg.Encode(f, Annotate(img, faces), &jpeg.Options{Quality: jpegQuality}); err != nil {
		return "", fmt.Errorf("encode failed: %w", err)
	}
	return outPath, nil
}
