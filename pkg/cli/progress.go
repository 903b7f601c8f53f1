package cli

import (
	"fmt"
	"io"
	"os"
	"strings"
	"sync"
	"sync/atomic"
	"time"
)

// ProgressReporter reports progress for long-running operations. Add may be
// called from many goroutines.
type ProgressReporter interface {
	Start(total int64)
	Add(n int64)
	Finish()
	Error(err error)
}

// SimpleProgress renders a single-line text progress bar.
type SimpleProgress struct {
	mu       sync.Mutex
	total    int64
	current  atomic.Int64
	started  time.Time
	writer   io.Writer
	every    int64
	finished bool
}

// NewProgressReporter creates a reporter writing to w, or os.Stderr when w
// is nil.
func NewProgressReporter(w io.Writer) *SimpleProgress {
	if w == nil {
		w = os.Stderr
	}
	return &SimpleProgress{writer: w, every: 1}
}

// Start resets the reporter for total items.
func (p *SimpleProgress) Start(total int64) {
	p.mu.Lock()
	defer p.mu.Unlock()

	p.total = total
	p.current.Store(0)
	p.started = time.Now()
	p.finished = false
	p.every = max(total/100, 1)
	p.render(0)
}

// Add records n completed items. The bar is redrawn about every percent.
func (p *SimpleProgress) Add(n int64) {
	cur := p.current.Add(n)
	if cur%p.every != 0 && cur != p.total {
		return
	}
	p.mu.Lock()
	defer p.mu.Unlock()
	if !p.finished {
		p.render(cur)
	}
}

// Current returns the number of completed items.
func (p *SimpleProgress) Current() int64 {
	return p.current.Load()
}

// Finish draws the final state and ends the line.
func (p *SimpleProgress) Finish() {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.finished {
		return
	}
	p.finished = true
	p.render(p.current.Load())
	fmt.Fprintln(p.writer)
}

// Error reports an error during progress.
func (p *SimpleProgress) Error(err error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	fmt.Fprintf(p.writer, "\nerror: %v\n", err)
}

func (p *SimpleProgress) render(cur int64) {
	if p.total <= 0 {
		return
	}

	percent := float64(cur) / float64(p.total) * 100
	const barWidth = 40
	filled := min(int(float64(barWidth)*percent/100), barWidth)
	bar := strings.Repeat("#", filled) + strings.Repeat(".", barWidth-filled)

	rate := 0.0
	if elapsed := time.Since(p.started).Seconds(); elapsed > 0 {
		rate = float64(cur) / elapsed
	}

	fmt.Fprintf(p.writer, "\r[%s] %5.1f%% (%d/%d) %.0f req/s", bar, percent, cur, p.total, rate)
}
