// Package capture provides the frames the attendance pipeline processes.
package capture

import (
	"context"
	"errors"
	"strings"
	"time"
)

// ErrCapture marks a failure of the video source. It is fatal for a run.
var ErrCapture = errors.New("capture failed")

// Frame is one captured image.
type Frame struct {
	Seq        int
	Data       []byte
	CapturedAt time.Time
	Origin     string // file path or URL
}

// Source yields frames one at a time.
// Next blocks until a frame is available and returns io.EOF when the
// source is exhausted. Other errors wrap ErrCapture.
type Source interface {
	Next(ctx context.Context) (Frame, error)
	Close() error
}

// Open returns a snapshot source for http(s) URLs and a directory source otherwise.
func Open(ctx context.Context, source string, watch bool, interval time.Duration) (Source, error) {
	if strings.HasPrefix(source, "http://") || strings.HasPrefix(source, "https://") {
		s := NewSnapshotSource(source, interval)
		if err := s.Open(ctx); err != nil {
			return nil, err
		}
		return s, nil
	}
	return NewDirectorySource(source, watch)
}
