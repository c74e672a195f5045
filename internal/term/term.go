/*
Package term answers the capability questions a progress display needs about
an output stream: is it an interactive terminal, how wide is it, and does it
understand cursor movement.
*/
package term

import (
	"os"
	"strconv"
	"sync"
	"sync/atomic"

	"github.com/mattn/go-isatty"
	"golang.org/x/term"

	"github.com/astralkn/termprogress/log"
)

// DefaultWidth is used when the width of the output can not be detected.
const DefaultWidth = 80

// resizes is incremented every time the process receives a window size change
// notification.
var resizes atomic.Uint64

var watchOnce sync.Once

// Info describes the capabilities of one output stream. The width is cached
// and refreshed after the terminal is resized.
type Info struct {
	fd          uintptr
	interactive bool
	cursor      bool
	getSize     func(fd int) (width, height int, err error)

	mu         sync.Mutex
	width      int
	generation uint64
}

// Detect the capabilities of f.
func Detect(f *os.File) *Info {
	fd := f.Fd()
	interactive := isatty.IsTerminal(fd) || isatty.IsCygwinTerminal(fd)
	info := &Info{
		fd:          fd,
		interactive: interactive,
		cursor:      interactive && supportsCursor(os.Getenv("TERM")),
		getSize:     term.GetSize,
	}
	if interactive {
		watchOnce.Do(func() { watchResize(resizes.Add) })
	}
	info.refresh()
	return info
}

func supportsCursor(termEnv string) bool {
	return termEnv != "dumb"
}

// IsTerminal returns true if the stream is attended by a terminal.
func (i *Info) IsTerminal() bool {
	return i.interactive
}

// SupportsCursor returns true if the terminal understands cursor movement and
// erase sequences.
func (i *Info) SupportsCursor() bool {
	return i.cursor
}

// Width returns the number of columns of the terminal.
func (i *Info) Width() int {
	i.mu.Lock()
	defer i.mu.Unlock()
	if i.generation != resizes.Load() {
		i.refreshLocked()
	}
	return i.width
}

func (i *Info) refresh() {
	i.mu.Lock()
	defer i.mu.Unlock()
	i.refreshLocked()
}

func (i *Info) refreshLocked() {
	i.generation = resizes.Load()
	if i.interactive {
		w, _, err := i.getSize(int(i.fd))
		if err == nil && w > 0 {
			i.width = w
			return
		}
		log.Debugf("failed to detect terminal width of fd %d: %v", i.fd, err)
	}
	i.width = widthFromEnv()
}

func widthFromEnv() int {
	if cols, err := strconv.Atoi(os.Getenv("COLUMNS")); err == nil && cols > 0 {
		return cols
	}
	return DefaultWidth
}
