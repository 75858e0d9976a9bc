package attendance

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/kozaktomas/attendance-tracker/internal/facematch"
)

func TestLogFilePath(t *testing.T) {
	start := time.Date(2024, time.May, 6, 8, 3, 9, 0, time.Local)
	got := LogFilePath("out", start)
	want := filepath.Join("out", "2024-05-06_08-03-09_attendance.csv")
	if got != want {
		t.Errorf("LogFilePath() = %q, want %q", got, want)
	}
}

func TestFormatConfidence(t *testing.T) {
	tests := []struct {
		input    float64
		expected string
	}{
		{0.8743, "87.43%"},
		{0.5, "50.00%"},
		{1, "100.00%"},
		{0.91204, "91.20%"},
	}

	for _, tt := range tests {
		t.Run(tt.expected, func(t *testing.T) {
			if got := FormatConfidence(tt.input); got != tt.expected {
				t.Errorf("FormatConfidence(%v) = %q, want %q", tt.input, got, tt.expected)
			}
		})
	}
}

func readLines(t *testing.T, path string) []string {
	t.Helper()
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("failed to read log: %v", err)
	}
	return strings.Split(strings.TrimRight(string(data), "\n"), "\n")
}

func TestCSVStore_CreatesHeader(t *testing.T) {
	path := filepath.Join(t.TempDir(), "run", "log.csv")

	store, err := OpenCSVStore(path)
	if err != nil {
		t.Fatalf("OpenCSVStore() error: %v", err)
	}
	defer store.Close()

	lines := readLines(t, path)
	if len(lines) != 1 || lines[0] != "Name,Timestamp,Confidence" {
		t.Errorf("unexpected file content: %q", lines)
	}
}

func TestCSVStore_AppendRowFormat(t *testing.T) {
	path := filepath.Join(t.TempDir(), "log.csv")
	store, err := OpenCSVStore(path)
	if err != nil {
		t.Fatalf("OpenCSVStore() error: %v", err)
	}
	defer store.Close()

	entry := Entry{
		Name:       "Alice",
		Timestamp:  time.Date(2024, time.May, 6, 8, 30, 5, 0, time.Local),
		Confidence: 0.8743,
	}
	if err := store.Append(entry); err != nil {
		t.Fatalf("Append() error: %v", err)
	}

	lines := readLines(t, path)
	if len(lines) != 2 {
		t.Fatalf("got %d lines, want 2", len(lines))
	}
	if lines[1] != "Alice,2024-05-06 08:30:05,87.43%" {
		t.Errorf("row = %q", lines[1])
	}
}

func TestCSVStore_ExistingFileKeepsRows(t *testing.T) {
	path := filepath.Join(t.TempDir(), "log.csv")
	existing := "Name,Timestamp,Confidence\nBob,2024-05-06 07:00:00,90.00%\n"
	if err := os.WriteFile(path, []byte(existing), 0o644); err != nil {
		t.Fatalf("failed to seed log: %v", err)
	}

	store, err := OpenCSVStore(path)
	if err != nil {
		t.Fatalf("OpenCSVStore() error: %v", err)
	}

	// The existing row is not used to seed deduplication.
	ledger := NewLedger(store)
	written, err := ledger.Log([]facematch.MatchResult{identified("Bob", 0.8)}, morning)
	if err != nil {
		t.Fatalf("Log() error: %v", err)
	}
	if len(written) != 1 {
		t.Errorf("expected Bob to be logged again after restart, got %d entries", len(written))
	}
	store.Close()

	lines := readLines(t, path)
	if len(lines) != 3 {
		t.Fatalf("got %d lines, want 3: %q", len(lines), lines)
	}
	if lines[0] != "Name,Timestamp,Confidence" || !strings.HasPrefix(lines[1], "Bob,2024-05-06 07:00:00") {
		t.Errorf("existing content was modified: %q", lines)
	}
}

func TestCSVStore_Locked(t *testing.T) {
	path := filepath.Join(t.TempDir(), "log.csv")

	first, err := OpenCSVStore(path)
	if err != nil {
		t.Fatalf("OpenCSVStore() error: %v", err)
	}

	_, err = OpenCSVStore(path)
	if !errors.Is(err, ErrStoreLocked) {
		t.Fatalf("expected ErrStoreLocked, got %v", err)
	}

	if err := first.Close(); err != nil {
		t.Fatalf("Close() error: %v", err)
	}

	second, err := OpenCSVStore(path)
	if err != nil {
		t.Fatalf("expected reopen after close to succeed, got %v", err)
	}
	second.Close()
}

func TestCSVStore_QuotesDelimiters(t *testing.T) {
	path := filepath.Join(t.TempDir(), "log.csv")
	store, err := OpenCSVStore(path)
	if err != nil {
		t.Fatalf("OpenCSVStore() error: %v", err)
	}

	entry := Entry{Name: "Doe, John", Timestamp: morning, Confidence: 0.75}
	if err := store.Append(entry); err != nil {
		t.Fatalf("Append() error: %v", err)
	}
	store.Close()

	entries, err := ReadEntries(path)
	if err != nil {
		t.Fatalf("ReadEntries() error: %v", err)
	}
	if len(entries) != 1 || entries[0].Name != "Doe, John" {
		t.Errorf("unexpected entries: %+v", entries)
	}
}

func TestReadEntries_RoundTripsLedger(t *testing.T) {
	path := filepath.Join(t.TempDir(), "log.csv")
	store, err := OpenCSVStore(path)
	if err != nil {
		t.Fatalf("OpenCSVStore() error: %v", err)
	}

	ledger := NewLedger(store)
	for i := range 3 {
		if _, err := ledger.Log([]facematch.MatchResult{identified("Alice", 0.9)}, morning.Add(time.Duration(i)*time.Second)); err != nil {
			t.Fatalf("Log() error: %v", err)
		}
	}
	store.Close()

	entries, err := ReadEntries(path)
	if err != nil {
		t.Fatalf("ReadEntries() error: %v", err)
	}
	if len(entries) != 1 {
		t.Fatalf("got %d rows, want exactly 1 for Alice", len(entries))
	}
	if entries[0].Name != "Alice" || !entries[0].Timestamp.Equal(morning) {
		t.Errorf("unexpected entry: %+v", entries[0])
	}
	if entries[0].FormattedConfidence() != "90.00%" {
		t.Errorf("confidence = %s, want 90.00%%", entries[0].FormattedConfidence())
	}
}

func TestReadEntries_LegacyHeaderWithSpaces(t *testing.T) {
	path := filepath.Join(t.TempDir(), "log.csv")
	content := "Name, Timestamp, Confidence\nAlice, 2024-05-06 08:30:00, 87.43%\n"
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("failed to write log: %v", err)
	}

	entries, err := ReadEntries(path)
	if err != nil {
		t.Fatalf("ReadEntries() error: %v", err)
	}
	if len(entries) != 1 || entries[0].Name != "Alice" {
		t.Fatalf("unexpected entries: %+v", entries)
	}
	if diff := entries[0].Confidence - 0.8743; diff > 1e-9 || diff < -1e-9 {
		t.Errorf("Confidence = %v, want 0.8743", entries[0].Confidence)
	}
}

func TestReadEntries_Malformed(t *testing.T) {
	path := filepath.Join(t.TempDir(), "log.csv")
	content := "Name,Timestamp,Confidence\nAlice,yesterday,87.43%\n"
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("failed to write log: %v", err)
	}

	if _, err := ReadEntries(path); err == nil {
		t.Error("expected error for malformed timestamp")
	}
}
