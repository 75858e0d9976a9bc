// Package attendance keeps the day-scoped, append-only attendance log.
package attendance

import (
	"fmt"
	"time"

	"github.com/kozaktomas/attendance-tracker/internal/constants"
)

// Date is a calendar day without a time component.
type Date struct {
	Year  int
	Month time.Month
	Day   int
}

// DateOf returns the calendar day of t in t's own location.
func DateOf(t time.Time) Date {
	y, m, d := t.Date()
	return Date{Year: y, Month: m, Day: d}
}

func (d Date) String() string {
	return fmt.Sprintf("%04d-%02d-%02d", d.Year, d.Month, d.Day)
}

// Key identifies one person on one day. At most one entry is ever logged per key.
type Key struct {
	Name string
	Day  Date
}

// Entry is one persisted attendance record.
type Entry struct {
	Name       string    `json:"name"`
	Timestamp  time.Time `json:"timestamp"`
	Confidence float64   `json:"confidence"`
}

// Key returns the deduplication key of the entry.
func (e Entry) Key() Key {
	return Key{Name: e.Name, Day: DateOf(e.Timestamp)}
}

// FormattedTimestamp returns the timestamp as written to the log.
func (e Entry) FormattedTimestamp() string {
	return e.Timestamp.Format(constants.TimestampFormat)
}

// FormattedConfidence returns the confidence as a percentage string (e.g., "87.43%").
func (e Entry) FormattedConfidence() string {
	return FormatConfidence(e.Confidence)
}

// FormatConfidence formats a [0,1] confidence as a percentage with two decimals.
func FormatConfidence(confidence float64) string {
	return fmt.Sprintf("%.2f%%", confidence*100)
}

// Store persists attendance entries.
// Append must either write the whole entry durably or fail without leaving a partial record.
type Store interface {
	Append(entry Entry) error
}
