package capture

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"time"
)

// maxSnapshotSize bounds a single snapshot response.
const maxSnapshotSize = 32 << 20

// SnapshotSource polls a camera's still-image URL (e.g. /snapshot.jpg).
type SnapshotSource struct {
	url      string
	interval time.Duration
	client   *http.Client
	last     time.Time
	seq      int
}

// NewSnapshotSource creates a source fetching url at most once per interval.
func NewSnapshotSource(url string, interval time.Duration) *SnapshotSource {
	return &SnapshotSource{
		url:      url,
		interval: interval,
		client:   &http.Client{Timeout: 10 * time.Second},
	}
}

// Open checks that the camera answers. A failure wraps ErrCapture.
func (s *SnapshotSource) Open(ctx context.Context) error {
	if _, err := s.fetch(ctx); err != nil {
		return fmt.Errorf("could not open camera: %w", err)
	}
	return nil
}

// Next waits for the poll interval and fetches a snapshot.
func (s *SnapshotSource) Next(ctx context.Context) (Frame, error) {
	if !s.last.IsZero() {
		if wait := s.interval - time.Since(s.last); wait > 0 {
			timer := time.NewTimer(wait)
			select {
			case <-ctx.Done():
				timer.Stop()
				return Frame{}, ctx.Err()
			case <-timer.C:
			}
		}
	}
	s.last = time.Now()

	data, err := s.fetch(ctx)
	if err != nil {
		return Frame{}, fmt.Errorf("could not read frame: %w", err)
	}

	s.seq++
	return Frame{Seq: s.seq, Data: data, CapturedAt: s.last, Origin: s.url}, nil
}

func (s *SnapshotSource) fetch(ctx context.Context) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, s.url, nil)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrCapture, err)
	}

	resp, err := s.client.Do(req)
	if err != nil {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		return nil, fmt.Errorf("%w: %w", ErrCapture, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("%w: camera returned status %d", ErrCapture, resp.StatusCode)
	}

	data, err := io.ReadAll(io.LimitReader(resp.Body, maxSnapshotSize))
	if err != nil {
		return nil, fmt.Errorf("%w: read snapshot: %w", ErrCapture, err)
	}
	if len(data) == 0 {
		return nil, fmt.Errorf("%w: empty snapshot", ErrCapture)
	}
	return data, nil
}

// Close releases idle connections.
func (s *SnapshotSource) Close() error {
	s.client.CloseIdleConnections()
	return nil
}
