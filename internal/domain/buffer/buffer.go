package buffer

import (
	"time"

	"github.com/okian/smaile/internal/domain/expression"
)

// Window presets. The mobile window trades stability for responsiveness on
// devices that produce fewer frames per second.
const (
	WindowDesktop         = 500 * time.Millisecond
	WindowMobile          = 300 * time.Millisecond
	DefaultSilenceTimeout = 1000 * time.Millisecond
)

// Entry is one ingested vector with its arrival time.
type Entry struct {
	Vector    expression.Vector
	Timestamp time.Time
}

// Buffer is an arrival-ordered queue of entries. After every Ingest each
// retained entry satisfies now-Timestamp <= window.
//
// A Buffer is owned by a single detection loop and is not safe for
// concurrent use.
type Buffer struct {
	entries        []Entry
	window         time.Duration
	silenceTimeout time.Duration
}

// New creates an empty buffer using the desktop window by default.
func New(opts ...Option) *Buffer {
	b := &Buffer{
		window:         WindowDesktop,
		silenceTimeout: DefaultSilenceTimeout,
	}
	for _, opt := range opts {
		opt(b)
	}
	return b
}

// Ingest appends v stamped with now and evicts every entry older than the
// window. A timestamp earlier than the newest entry is clamped to it so the
// arrival order stays monotonic.
func (b *Buffer) Ingest(v expression.Vector, now time.Time) {
	if n := len(b.entries); n > 0 && now.Before(b.entries[n-1].Timestamp) {
		now = b.entries[n-1].Timestamp
	}
	b.entries = append(b.entries, Entry{Vector: v, Timestamp: now})
	b.evict(now)
}

// evict drops the stale prefix. Timestamps are monotonic, so the first
// fresh entry ends the scan.
func (b *Buffer) evict(now time.Time) {
	cut := 0
	for cut < len(b.entries) && now.Sub(b.entries[cut].Timestamp) > b.window {
		cut++
	}
	if cut == 0 {
		return
	}
	n := copy(b.entries, b.entries[cut:])
	clear(b.entries[n:])
	b.entries = b.entries[:n]
}

// ClearIfStale empties the buffer when the oldest entry has aged past the
// silence timeout, meaning the face has been gone long enough that the
// history no longer describes it. It reports whether a clear happened.
func (b *Buffer) ClearIfStale(now time.Time) bool {
	if len(b.entries) == 0 {
		return false
	}
	if now.Sub(b.entries[0].Timestamp) <= b.silenceTimeout {
		return false
	}
	b.Reset()
	return true
}

// Reset drops every entry.
func (b *Buffer) Reset() {
	clear(b.entries)
	b.entries = b.entries[:0]
}

// IsEmpty reports whether the buffer holds no entries.
func (b *Buffer) IsEmpty() bool { return len(b.entries) == 0 }

// Len returns the number of retained entries.
func (b *Buffer) Len() int { return len(b.entries) }

// SetWindow changes the retention window. Entries that fall outside a
// shorter window are dropped on the next Ingest. Non-positive values are
// ignored.
func (b *Buffer) SetWindow(window time.Duration) {
	WithWindow(window)(b)
}

// SetSilenceTimeout changes the delay used by ClearIfStale. Non-positive
// values are ignored.
func (b *Buffer) SetSilenceTimeout(timeout time.Duration) {
	WithSilenceTimeout(timeout)(b)
}

// Window returns the retention window.
func (b *Buffer) Window() time.Duration { return b.window }

// SilenceTimeout returns the silence timeout used by ClearIfStale.
func (b *Buffer) SilenceTimeout() time.Duration { return b.silenceTimeout }

// Oldest returns the oldest retained entry.
func (b *Buffer) Oldest() (Entry, bool) {
	if len(b.entries) == 0 {
		return Entry{}, false
	}
	return b.entries[0], true
}

// Entries returns a copy of the retained entries in arrival order.
func (b *Buffer) Entries() []Entry {
	out := make([]Entry, len(b.entries))
	copy(out, b.entries)
	return out
}
