// Package scanner assembles raw keystrokes from a barcode scanner in
// keyboard-wedge mode into discrete scan codes. The scanner types each
// character of the barcode and finishes with Enter; everything between two
// terminators is one code.
package scanner

import (
	"errors"
	"log/slog"
	"sync"
	"sync/atomic"
)

// DefaultMaxCodeLength caps the keystroke buffer. Wedge devices have no
// protocol-level length limit, so a wedged key or line noise could grow the
// buffer without bound.
const DefaultMaxCodeLength = 512

// ErrAlreadyAttached is returned when a second key source is attached to
// the same aggregator. Two sources would double-process every keystroke.
var ErrAlreadyAttached = errors.New("scanner: key source already attached")

// Sink receives each completed scan code. It must not block; returning
// false means the code was dropped downstream.
type Sink func(code string) bool

// Aggregator buffers keystrokes until the terminator and emits the
// assembled code into its sink.
type Aggregator struct {
	mu     sync.Mutex
	buf    []rune
	maxLen int

	sink     Sink
	log      *slog.Logger
	attached atomic.Bool
}

func New(maxLen int, sink Sink, log *slog.Logger) *Aggregator {
	if maxLen <= 0 {
		maxLen = DefaultMaxCodeLength
	}
	return &Aggregator{
		buf:    make([]rune, 0, 64),
		maxLen: maxLen,
		sink:   sink,
		log:    log,
	}
}

// Push feeds one key's character representation. Carriage return and
// newline both count as the Enter terminator.
func (a *Aggregator) Push(r rune) {
	a.mu.Lock()
	defer a.mu.Unlock()

	switch r {
	case '\r', '\n':
		a.flushLocked()
	default:
		if len(a.buf) >= a.maxLen {
			// Overflow runes are discarded; the eventual terminator still
			// emits whatever fit.
			return
		}
		a.buf = append(a.buf, r)
	}
}

func (a *Aggregator) flushLocked() {
	if len(a.buf) == 0 {
		// A bare terminator (double-tap Enter) emits nothing.
		return
	}
	code := string(a.buf)
	a.buf = a.buf[:0]

	if !a.sink(code) {
		a.log.Warn("scan code dropped, intake queue full", "len", len(code))
	}
}
