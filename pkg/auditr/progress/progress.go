// Package progress draws a byte-count progress bar on a terminal while
// files are hashed.
package progress

import (
	"fmt"
	"io"
	"os"
	"sync"
	"time"

	"github.com/charmbracelet/bubbles/progress"
	"github.com/charmbracelet/lipgloss"
	"github.com/dustin/go-humanize"
	"github.com/mattn/go-isatty"
)

const (
	defaultInterval = 100 * time.Millisecond
	maxBarWidth     = 50
	minBarWidth     = 10
)

var countStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("245"))

// Bar tracks bytes processed against a known total. It only draws when its
// writer is a terminal, unless forced.
type Bar struct {
	mu       sync.Mutex
	w        io.Writer
	model    progress.Model
	total    uint64
	done     uint64
	interval time.Duration
	last     time.Time
	enabled  bool
	now      func() time.Time
}

// Option configures a Bar.
type Option func(*Bar)

// WithInterval sets the minimum time between redraws.
func WithInterval(d time.Duration) Option {
	return func(b *Bar) { b.interval = d }
}

// WithForce draws even when the writer is not a terminal.
func WithForce() Option {
	return func(b *Bar) { b.enabled = true }
}

// WithWidth fixes the bar width in cells.
func WithWidth(width int) Option {
	return func(b *Bar) { b.model.Width = width }
}

// New returns a bar for total bytes written to w.
func New(w io.Writer, total uint64, opts ...Option) *Bar {
	width := maxBarWidth
	enabled := false
	if f, ok := w.(*os.File); ok && isTerminal(f) {
		enabled = true
		if cols := terminalWidth(f); cols > 0 {
			width = min(maxBarWidth, max(minBarWidth, cols-30))
		}
	}

	b := &Bar{
		w:        w,
		model:    progress.New(progress.WithDefaultGradient(), progress.WithWidth(width)),
		total:    total,
		interval: defaultInterval,
		enabled:  enabled,
		now:      time.Now,
	}
	for _, opt := range opts {
		opt(b)
	}
	return b
}

// Add records n more bytes and redraws if the interval has elapsed.
func (b *Bar) Add(n int64) {
	b.mu.Lock()
	defer b.mu.Unlock()

	if n > 0 {
		b.done += uint64(n)
	}
	if !b.enabled {
		return
	}
	if now := b.now(); now.Sub(b.last) >= b.interval {
		b.last = now
		b.draw()
	}
}

// Done returns the bytes recorded so far.
func (b *Bar) Done() uint64 {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.done
}

// Finish draws the final state and ends the line.
func (b *Bar) Finish() {
	b.mu.Lock()
	defer b.mu.Unlock()

	if !b.enabled {
		return
	}
	b.draw()
	fmt.Fprintln(b.w)
}

// Percent returns the completed fraction in [0, 1].
func (b *Bar) Percent() float64 {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.percent()
}

func (b *Bar) percent() float64 {
	if b.total == 0 {
		return 1
	}
	return min(1, float64(b.done)/float64(b.total))
}

func (b *Bar) draw() {
	counts := fmt.Sprintf("%s / %s", humanize.IBytes(b.done), humanize.IBytes(b.total))
	fmt.Fprintf(b.w, "\r%s %s", b.model.ViewAs(b.percent()), countStyle.Render(counts))
}

func isTerminal(f *os.File) bool {
	return isatty.IsTerminal(f.Fd()) || isatty.IsCygwinTerminal(f.Fd())
}
