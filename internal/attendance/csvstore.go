package attendance

import (
	"bytes"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/gofrs/flock"
	"github.com/kozaktomas/attendance-tracker/internal/constants"
)

// ErrStoreLocked is returned when another process already owns the log file.
var ErrStoreLocked = errors.New("attendance log is locked by another process")

// Header is the first row of every attendance log.
var Header = []string{"Name", "Timestamp", "Confidence"}

// LogFilePath returns the per-run log path for a run started at start
// (e.g., "out/2024-05-01_08-30-00_attendance.csv").
func LogFilePath(dir string, start time.Time) string {
	return filepath.Join(dir, start.Format(constants.LogFileTimeFormat)+constants.LogFileSuffix)
}

// CSVStore appends attendance entries to a CSV file it owns exclusively.
type CSVStore struct {
	path string
	file *os.File
	lock *flock.Flock
}

// OpenCSVStore opens the log at path for appending, creating it with the header
// row if it does not exist or is empty. Existing rows are left untouched and not read.
func OpenCSVStore(path string) (*CSVStore, error) {
	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("create log directory: %w", err)
		}
	}

	lock := flock.New(path + ".lock")
	ok, err := lock.TryLock()
	if err != nil {
		return nil, fmt.Errorf("acquire log lock: %w", err)
	}
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrStoreLocked, path)
	}

	file, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		lock.Unlock()
		return nil, fmt.Errorf("open attendance log: %w", err)
	}

	s := &CSVStore{path: path, file: file, lock: lock}

	info, err := file.Stat()
	if err != nil {
		s.Close()
		return nil, fmt.Errorf("stat attendance log: %w", err)
	}
	if info.Size() == 0 {
		if err := s.writeRow(Header); err != nil {
			s.Close()
			return nil, fmt.Errorf("write header: %w", err)
		}
	}

	return s, nil
}

// Path returns the log file path.
func (s *CSVStore) Path() string {
	return s.path
}

// Append writes entry as one row and syncs it to disk before returning.
func (s *CSVStore) Append(entry Entry) error {
	return s.writeRow([]string{
		entry.Name,
		entry.FormattedTimestamp(),
		entry.FormattedConfidence(),
	})
}

// writeRow encodes the full record in memory first so the file only ever sees
// a single write of a complete row.
func (s *CSVStore) writeRow(record []string) error {
	var buf bytes.Buffer
	w := csv.NewWriter(&buf)
	if err := w.Write(record); err != nil {
		return fmt.Errorf("encode row: %w", err)
	}
	w.Flush()
	if err := w.Error(); err != nil {
		return fmt.Errorf("encode row: %w", err)
	}

	if _, err := s.file.Write(buf.Bytes()); err != nil {
		return fmt.Errorf("write row: %w", err)
	}
	if err := s.file.Sync(); err != nil {
		return fmt.Errorf("sync log: %w", err)
	}
	return nil
}

// Close closes the file and releases the lock.
func (s *CSVStore) Close() error {
	var errs []error
	if s.file != nil {
		if err := s.file.Close(); err != nil {
			errs = append(errs, fmt.Errorf("close attendance log: %w", err))
		}
		s.file = nil
	}
	if s.lock != nil {
		if err := s.lock.Unlock(); err != nil {
			errs = append(errs, fmt.Errorf("release log lock: %w", err))
		}
	}
	return errors.Join(errs...)
}

// ReadEntries parses an attendance log written by CSVStore.
// Timestamps are interpreted in the local time zone.
func ReadEntries(path string) ([]Entry, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open attendance log: %w", err)
	}
	defer f.Close()

	r := csv.NewReader(f)
	r.FieldsPerRecord = len(Header)
	r.TrimLeadingSpace = true

	var entries []Entry
	for line := 1; ; line++ {
		record, err := r.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("read attendance log: %w", err)
		}
		if line == 1 && isHeader(record) {
			continue
		}

		entry, err := parseRecord(record)
		if err != nil {
			return nil, fmt.Errorf("line %d: %w", line, err)
		}
		entries = append(entries, entry)
	}
	return entries, nil
}

func isHeader(record []string) bool {
	for i, h := range Header {
		if strings.TrimSpace(record[i]) != h {
			return false
		}
	}
	return true
}

func parseRecord(record []string) (Entry, error) {
	ts, err := time.ParseInLocation(constants.TimestampFormat, strings.TrimSpace(record[1]), time.Local)
	if err != nil {
		return Entry{}, fmt.Errorf("parse timestamp: %w", err)
	}

	pct := strings.TrimSuffix(strings.TrimSpace(record[2]), "%")
	conf, err := strconv.ParseFloat(pct, 64)
	if err != nil {
		return Entry{}, fmt.Errorf("parse confidence: %w", err)
	}

	return Entry{
		Name:       record[0],
		Timestamp:  ts,
		Confidence: conf / 100,
	}, nil
}
