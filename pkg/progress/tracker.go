// Package progress reports packing progress on a terminal.
package progress

import (
	"fmt"
	"io"
	"os"
	"time"

	"github.com/charmbracelet/lipgloss"
	"github.com/mattn/go-isatty"
)

// Reporter receives progress notifications. Tick is called after every
// completed entry and Done exactly once at the end of a run.
type Reporter interface {
	Tick(completed int, label string)
	Done(success bool)
}

const (
	ttyInterval   = 250 * time.Millisecond
	plainInterval = time.Second
)

var frames = []rune("⠋⠙⠹⠸⠼⠴⠦⠧⠇⠏")

var (
	okStyle   = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("2"))
	failStyle = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("1"))
)

// Spinner is a Reporter drawing a single updating line on a terminal, or
// throttled plain lines on any other writer.
type Spinner struct {
	out   io.Writer
	title string
	tty   bool
	now   func() time.Time

	started  time.Time
	lastDraw time.Time
	frame    int
	count    int
	label    string
}

// NewSpinner returns a Spinner writing to out. Terminal mode is used when out
// is a terminal file.
func NewSpinner(out io.Writer, title string) *Spinner {
	s := &Spinner{out: out, title: title, now: time.Now}
	if f, ok := out.(*os.File); ok {
		s.tty = isatty.IsTerminal(f.Fd()) || isatty.IsCygwinTerminal(f.Fd())
	}
	return s
}

// Tick records a completed entry and redraws when the interval elapsed.
func (s *Spinner) Tick(completed int, label string) {
	now := s.now()
	if s.started.IsZero() {
		s.started = now
	}

	s.count = completed
	s.label = label

	interval := plainInterval
	if s.tty {
		interval = ttyInterval
	}
	if !s.lastDraw.IsZero() && now.Sub(s.lastDraw) < interval {
		return
	}

	s.lastDraw = now
	s.draw()
}

func (s *Spinner) draw() {
	if s.tty {
		frame := frames[s.frame%len(frames)]
		s.frame++
		fmt.Fprintf(s.out, "\r\033[K%c %s %d files packed (%s)", frame, s.title, s.count, s.label)
		return
	}

	fmt.Fprintf(s.out, "%s %d files packed (%s)\n", s.title, s.count, s.label)
}

// Done prints the final summary line.
func (s *Spinner) Done(success bool) {
	if s.tty {
		fmt.Fprint(s.out, "\r\033[K")
	}

	elapsed := time.Duration(0)
	if !s.started.IsZero() {
		elapsed = s.now().Sub(s.started).Round(time.Millisecond)
	}

	if success {
		fmt.Fprintf(s.out, "%s %d files packed in %s\n", okStyle.Render("✓"), s.count, elapsed)
		return
	}

	fmt.Fprintf(s.out, "%s packing failed after %d files\n", failStyle.Render("✗"), s.count)
}
