package lookup

import "sync"

// Tracker suppresses repeated scans while a pointer stays on the same
// window or inside the last matched span. Scanner does not use it; hosts
// call ShouldScan before Scan and Record after a match.
type Tracker struct {
	mu     sync.Mutex
	text   string
	window string
	match  Result
	has    bool
}

// ShouldScan reports whether scanning text at offset would differ from the
// last scan. It remembers the window for the next call.
func (t *Tracker) ShouldScan(text string, offset, maxWindow int) bool {
	if maxWindow <= 0 {
		maxWindow = DefaultMaxWindow
	}

	t.mu.Lock()
	defer t.mu.Unlock()

	if t.has && text == t.text && offset >= t.match.Start && offset < t.match.End() {
		return false
	}

	runes := []rune(text)
	if offset < 0 || offset > len(runes) {
		return false
	}
	end := offset + maxWindow
	if end > len(runes) {
		end = len(runes)
	}
	window := string(runes[offset:end])
	if text == t.text && window == t.window {
		return false
	}
	if text != t.text {
		t.has = false
	}
	t.text = text
	t.window = window
	return true
}

// Record remembers the matched span of text.
func (t *Tracker) Record(text string, r Result) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.text = text
	t.match = r
	t.has = true
}

// Last returns the last recorded match, if any.
func (t *Tracker) Last() (Result, bool) {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.match, t.has
}

// Reset forgets all state.
func (t *Tracker) Reset() {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.text, t.window = "", ""
	t.match, t.has = Result{}, false
}
