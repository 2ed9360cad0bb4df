// ABOUTME: User-facing notices (success / error) for console operations
// ABOUTME: Console writes colored lines and collapses repeats; Recorder captures notices in tests

package notify

import (
	"fmt"
	"io"
	"sync"
	"time"

	"github.com/fatih/color"

	"github.com/workshop/kgconsole/internal/dedupe"
)

// Level distinguishes success notices from error notices.
type Level string

const (
	LevelSuccess Level = "success"
	LevelError   Level = "error"
)

// Notice is one message shown to the user.
type Notice struct {
	Level   Level
	Message string
}

// Notifier shows notices to the user.
type Notifier interface {
	Success(msg string)
	Error(msg string)
}

// Nop discards every notice.
type Nop struct{}

func (Nop) Success(string) {}
func (Nop) Error(string)   {}

// Console prints notices to a writer, green for success and red for errors.
// Identical notices inside the dedupe window are printed once.
type Console struct {
	mu     sync.Mutex
	out    io.Writer
	window *dedupe.Window
}

// NewConsole creates a console notifier. A zero window disables collapsing.
func NewConsole(out io.Writer, window time.Duration) *Console {
	return &Console{
		out:    out,
		window: dedupe.New(window, 64),
	}
}

// Success prints a success notice.
func (c *Console) Success(msg string) {
	c.show(LevelSuccess, msg)
}

// Error prints an error notice.
func (c *Console) Error(msg string) {
	c.show(LevelError, msg)
}

func (c *Console) show(level Level, msg string) {
	if !c.window.Admit(string(level) + "\x00" + msg) {
		return
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	switch level {
	case LevelSuccess:
		fmt.Fprintln(c.out, color.GreenString("✓ ")+msg)
	default:
		fmt.Fprintln(c.out, color.RedString("✗ ")+msg)
	}
}

// Recorder keeps every notice in memory.
type Recorder struct {
	mu      sync.Mutex
	notices []Notice
}

// Success records a success notice.
func (r *Recorder) Success(msg string) {
	r.add(LevelSuccess, msg)
}

// Error records an error notice.
func (r *Recorder) Error(msg string) {
	r.add(LevelError, msg)
}

func (r *Recorder) add(level Level, msg string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.notices = append(r.notices, Notice{Level: level, Message: msg})
}

// Notices returns a copy of the recorded notices in order.
func (r *Recorder) Notices() []Notice {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]Notice, len(r.notices))
	copy(out, r.notices)
	return out
}

// Count returns how many notices of the given level were recorded.
func (r *Recorder) Count(level Level) int {
	r.mu.Lock()
	defer r.mu.Unlock()
	n := 0
	for _, notice := range r.notices {
		if notice.Level == level {
			n++
		}
	}
	return n
}

// Reset clears the recorded notices.
func (r *Recorder) Reset() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.notices = nil
}
