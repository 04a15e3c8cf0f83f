package testutil

import (
	"bytes"
	"strings"
	"sync"
)

// SafeBuffer is an io.Writer that collects log output from concurrent
// tasks. The zero value is ready to use.
type SafeBuffer struct {
	mu  sync.Mutex
	buf bytes.Buffer
}

func (b *SafeBuffer) Write(p []byte) (int, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.Write(p)
}

func (b *SafeBuffer) String() string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.String()
}

// Lines returns the non-empty lines written so far.
func (b *SafeBuffer) Lines() []string {
	var out []string
	for _, l := range strings.Split(b.String(), "\n") {
		if l != "" {
			out = append(out, l)
		}
	}
	return out
}

// Count returns how many lines contain substr.
func (b *SafeBuffer) Count(substr string) int {
	n := 0
	for _, l := range b.Lines() {
		if strings.Contains(l, substr) {
			n++
		}
	}
	return n
}
