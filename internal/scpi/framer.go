// internal/scpi/framer.go
package scpi

// DefaultMaxLineLength bounds a pending line when no limit is configured.
const DefaultMaxLineLength = 256

// Framer splits an unbuffered byte stream into response lines.
// CR is dropped, LF terminates. It never blocks and keeps partial lines
// across calls.
//
// A line longer than the limit is discarded up to its terminator and
// counted as an overflow.
type Framer struct {
	buf        []byte
	max        int
	discarding bool
	overflows  uint64
}

// NewFramer returns a framer bounded to max bytes per line.
func NewFramer(max int) *Framer {
	if max <= 0 {
		max = DefaultMaxLineLength
	}
	return &Framer{
		buf: make([]byte, 0, max),
		max: max,
	}
}

// Feed consumes one byte. It returns a completed line and true when c
// terminates a non-empty buffer.
func (f *Framer) Feed(c byte) (string, bool) {
	switch c {
	case '\r':
		return "", false
	case '\n':
		if f.discarding {
			f.discarding = false
			return "", false
		}
		if len(f.buf) == 0 {
			return "", false
		}
		line := string(f.buf)
		f.buf = f.buf[:0]
		return line, true
	}

	if f.discarding {
		return "", false
	}
	if len(f.buf) >= f.max {
		f.buf = f.buf[:0]
		f.discarding = true
		f.overflows++
		return "", false
	}
	f.buf = append(f.buf, c)
	return "", false
}

// Pending is the number of bytes accumulated since the last terminator.
func (f *Framer) Pending() int {
	return len(f.buf)
}

// Overflows is the number of lines discarded for exceeding the limit.
func (f *Framer) Overflows() uint64 {
	return f.overflows
}

// Reset drops any partial line.
func (f *Framer) Reset() {
	f.buf = f.buf[:0]
	f.discarding = false
}
