package ui

import (
	"fmt"
	"io"
	"sync"

	"github.com/prabalesh/netoverlay/internal/models"
)

// Plain writes one line per reading, for status bars that read stdout.
type Plain struct {
	mu     sync.Mutex
	w      io.Writer
	closed bool
	err    error
}

func NewPlain(w io.Writer) *Plain {
	return &Plain{w: w}
}

func (p *Plain) Render(r models.Reading) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.closed || p.err != nil {
		return
	}
	if _, err := fmt.Fprintln(p.w, FormatText(r)); err != nil {
		p.err = err
	}
}

// Err returns the first write error; rendering stops after it.
func (p *Plain) Err() error {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.err
}

func (p *Plain) Close() {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.closed = true
}
