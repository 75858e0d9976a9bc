package attendance

import (
	"fmt"
	"sync"
	"time"

	"github.com/kozaktomas/attendance-tracker/internal/constants"
	"github.com/kozaktomas/attendance-tracker/internal/facematch"
)

// Ledger decides which recognized faces get logged and writes them to a Store.
//
// The set of already logged keys lives only in memory and starts empty:
// an existing log is never scanned, so a restarted process may log a person
// again on the same day.
type Ledger struct {
	store  Store
	seen   map[Key]struct{}
	logged []Entry
	mu     sync.RWMutex
}

// NewLedger creates a ledger writing to store.
func NewLedger(store Store) *Ledger {
	return &Ledger{
		store: store,
		seen:  make(map[Key]struct{}),
	}
}

// Log records every result that qualifies for attendance at time now.
//
// A result qualifies when it is identified with confidence of at least
// LogConfidenceThreshold. Names are cleaned of display annotations before the
// (name, day) key is derived; results whose key was already logged are skipped.
// Returns the entries written by this call, in input order. On a store error the
// entries written so far are returned with the error and the failed key stays
// unlogged.
func (l *Ledger) Log(results []facematch.MatchResult, now time.Time) ([]Entry, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	var written []Entry
	for _, r := range results {
		if !r.IsKnown() || r.Confidence < constants.LogConfidenceThreshold {
			continue
		}

		name := facematch.CleanName(r.Name)
		if name == "" {
			continue
		}

		entry := Entry{Name: name, Timestamp: now, Confidence: r.Confidence}
		key := entry.Key()
		if _, ok := l.seen[key]; ok {
			continue
		}

		if err := l.store.Append(entry); err != nil {
			return written, fmt.Errorf("append attendance for %s: %w", name, err)
		}

		l.seen[key] = struct{}{}
		l.logged = append(l.logged, entry)
		written = append(written, entry)
	}

	return written, nil
}

// Seen reports whether name was already logged on the day of t.
func (l *Ledger) Seen(name string, t time.Time) bool {
	l.mu.RLock()
	defer l.mu.RUnlock()
	_, ok := l.seen[Key{Name: name, Day: DateOf(t)}]
	return ok
}

// Entries returns a copy of all entries logged by this ledger, oldest first.
func (l *Ledger) Entries() []Entry {
	l.mu.RLock()
	defer l.mu.RUnlock()
	out := make([]Entry, len(l.logged))
	copy(out, l.logged)
	return out
}

// Count returns the number of entries logged by this ledger.
func (l *Ledger) Count() int {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return len(l.logged)
}
