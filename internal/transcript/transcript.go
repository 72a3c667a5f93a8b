// Package transcript is the append-only record of one call.
package transcript

import (
	"sync"
	"time"
)

// Role says who spoke a turn.
type Role string

const (
	Customer  Role = "customer"
	Assistant Role = "assistant"
)

// Valid reports whether r is a known role.
func (r Role) Valid() bool {
	return r == Customer || r == Assistant
}

// Entry is one turn.
type Entry struct {
	Role      Role      `json:"role"`
	Text      string    `json:"content"`
	Timestamp time.Time `json:"timestamp"`
}

// Log is append-only. It is safe for concurrent use so that readers such
// as a status endpoint can snapshot it while the call is in progress.
type Log struct {
	mu      sync.RWMutex
	entries []Entry
	now     func() time.Time
}

// Option configures a Log.
type Option func(*Log)

// WithClock replaces time.Now, for tests and replays.
func WithClock(now func() time.Time) Option {
	return func(l *Log) { l.now = now }
}

// New returns an empty log.
func New(opts ...Option) *Log {
	l := &Log{now: time.Now}
	for _, o := range opts {
		o(l)
	}
	return l
}

// Append records a turn stamped with the current time and returns it.
func (l *Log) Append(role Role, text string) Entry {
	l.mu.Lock()
	defer l.mu.Unlock()
	e := Entry{Role: role, Text: text, Timestamp: l.now().UTC()}
	l.entries = append(l.entries, e)
	return e
}

// Entries returns a copy of every turn in order.
func (l *Log) Entries() []Entry {
	l.mu.RLock()
	defer l.mu.RUnlock()
	out := make([]Entry, len(l.entries))
	copy(out, l.entries)
	return out
}

// Len returns the number of turns.
func (l *Log) Len() int {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return len(l.entries)
}

// Last returns the most recent turn spoken by role.
func (l *Log) Last(role Role) (Entry, bool) {
	l.mu.RLock()
	defer l.mu.RUnlock()
	for i := len(l.entries) - 1; i >= 0; i-- {
		if l.entries[i].Role == role {
			return l.entries[i], true
		}
	}
	return Entry{}, false
}
