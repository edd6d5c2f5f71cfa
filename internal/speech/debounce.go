package speech

import (
	"strings"
	"sync"
	"time"
)

// DuplicateWindow is how long a dispatched transcript suppresses an
// identical repeat.
const DuplicateWindow = 5 * time.Second

var cancelWords = []string{"stop", "cancel", "nevermind"}

// Debouncer filters voice transcripts before they reach the message
// pipeline: empty input, cancel words, and rapid duplicates are dropped.
type Debouncer struct {
	mu           sync.Mutex
	last         string
	lastAt       time.Time
	timeProvider func() time.Time // for tests
}

// NewDebouncer creates a debouncer.
func NewDebouncer() *Debouncer {
	return &Debouncer{timeProvider: time.Now}
}

// Accept reports whether the transcript should be dispatched. Accepted
// transcripts become the remembered duplicate for the next DuplicateWindow.
func (d *Debouncer) Accept(transcript string) bool {
	trimmed := strings.TrimSpace(transcript)
	if trimmed == "" {
		return false
	}

	lower := strings.ToLower(trimmed)
	for _, w := range cancelWords {
		if strings.Contains(lower, w) {
			return false
		}
	}

	d.mu.Lock()
	defer d.mu.Unlock()

	now := d.timeProvider()
	if d.last != "" && now.Sub(d.lastAt) >= DuplicateWindow {
		d.last = ""
	}
	if trimmed == d.last {
		return false
	}

	d.last = trimmed
	d.lastAt = now
	return true
}

// Reset forgets the remembered transcript.
func (d *Debouncer) Reset() {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.last = ""
}
