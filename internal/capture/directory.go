package capture

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/fsnotify/fsnotify"
)

var imageExtensions = map[string]bool{
	".jpg": true, ".jpeg": true, ".png": true, ".gif": true,
	".bmp": true, ".tif": true, ".tiff": true, ".webp": true,
}

// DirectorySource replays the images of a directory in lexical order.
// In watch mode it keeps waiting for new images (e.g. written by a camera
// daemon) instead of ending with io.EOF. Writers should move finished files
// into the directory so a half-written image is never picked up.
type DirectorySource struct {
	dir     string
	seen    map[string]bool
	pending []string
	seq     int
	watcher *fsnotify.Watcher
}

// NewDirectorySource opens dir as a frame source.
func NewDirectorySource(dir string, watch bool) (*DirectorySource, error) {
	info, err := os.Stat(dir)
	if err != nil {
		return nil, fmt.Errorf("%w: could not open %s: %w", ErrCapture, dir, err)
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("%w: %s is not a directory", ErrCapture, dir)
	}

	s := &DirectorySource{dir: dir, seen: make(map[string]bool)}
	if watch {
		w, err := fsnotify.NewWatcher()
		if err != nil {
			return nil, fmt.Errorf("%w: watch %s: %w", ErrCapture, dir, err)
		}
		if err := w.Add(dir); err != nil {
			w.Close()
			return nil, fmt.Errorf("%w: watch %s: %w", ErrCapture, dir, err)
		}
		s.watcher = w
	}

	if err := s.scan(); err != nil {
		s.Close()
		return nil, err
	}
	return s, nil
}

// scan queues image files not yet returned, in lexical order.
func (s *DirectorySource) scan() error {
	entries, err := os.ReadDir(s.dir)
	if err != nil {
		return fmt.Errorf("%w: read %s: %w", ErrCapture, s.dir, err)
	}
	var found []string
	for _, e := range entries {
		if e.IsDir() || !isImage(e.Name()) {
			continue
		}
		path := filepath.Join(s.dir, e.Name())
		if !s.seen[path] {
			s.seen[path] = true
			found = append(found, path)
		}
	}
	sort.Strings(found)
	s.pending = append(s.pending, found...)
	return nil
}

func isImage(name string) bool {
	return imageExtensions[strings.ToLower(filepath.Ext(name))]
}

// Next returns the next queued image.
func (s *DirectorySource) Next(ctx context.Context) (Frame, error) {
	for len(s.pending) == 0 {
		if err := ctx.Err(); err != nil {
			return Frame{}, err
		}
		if s.watcher == nil {
			return Frame{}, io.EOF
		}
		if err := s.wait(ctx); err != nil {
			return Frame{}, err
		}
	}

	path := s.pending[0]
	s.pending = s.pending[1:]

	data, err := os.ReadFile(path)
	if err != nil {
		return Frame{}, fmt.Errorf("%w: could not read frame %s: %w", ErrCapture, path, err)
	}

	s.seq++
	return Frame{Seq: s.seq, Data: data, CapturedAt: time.Now(), Origin: path}, nil
}

// wait blocks until a new file is written or moved into the directory.
func (s *DirectorySource) wait(ctx context.Context) error {
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case ev, ok := <-s.watcher.Events:
			if !ok {
				return io.EOF
			}
			if !ev.Has(fsnotify.Write) && !ev.Has(fsnotify.Create) && !ev.Has(fsnotify.Rename) {
				continue
			}
			if !isImage(ev.Name) {
				continue
			}
			if err := s.scan(); err != nil {
				return err
			}
			if len(s.pending) > 0 {
				return nil
			}
		case err, ok := <-s.watcher.Errors:
			if !ok {
				return io.EOF
			}
			return fmt.Errorf("%w: watch %s: %w", ErrCapture, s.dir, err)
		}
	}
}

// Close stops watching the directory.
func (s *DirectorySource) Close() error {
	if s.watcher != nil {
		if err := s.watcher.Close(); err != nil {
			return fmt.Errorf("close watcher: %w", err)
		}
		s.watcher = nil
	}
	return nil
}
