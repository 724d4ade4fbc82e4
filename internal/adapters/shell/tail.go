package shell

import (
	"bytes"
	"sync"
	"unicode/utf8"
)

// DefaultTailSize bounds the output kept with a record.
const DefaultTailSize = 64 << 10

// Tail keeps the last bytes written to it. It is safe for the concurrent
// stdout and stderr copies of one process.
type Tail struct {
	mu        sync.Mutex
	limit     int
	buf       []byte
	truncated bool
	// aligned is set when the last dropped byte ended a line.
	aligned bool
}

// NewTail returns a Tail that keeps at most limit bytes.
func NewTail(limit int) *Tail {
	return &Tail{limit: limit}
}

func (t *Tail) Write(p []byte) (int, error) {
	t.mu.Lock()
	defer t.mu.Unlock()

	t.buf = append(t.buf, p...)
	if over := len(t.buf) - t.limit; over > 0 {
		t.aligned = t.buf[over-1] == '\n'
		t.buf = append(t.buf[:0], t.buf[over:]...)
		t.truncated = true
	}
	return len(p), nil
}

// String returns the kept output. After truncation it starts at the first
// complete line, or at the first complete rune when no line break is left.
func (t *Tail) String() string {
	t.mu.Lock()
	defer t.mu.Unlock()

	out := t.buf
	if t.truncated && !t.aligned {
		if i := bytes.IndexByte(out, '\n'); i >= 0 && i < len(out)-1 {
			out = out[i+1:]
		} else {
			for len(out) > 0 && !utf8.RuneStart(out[0]) {
				out = out[1:]
			}
		}
	}
	return string(out)
}
