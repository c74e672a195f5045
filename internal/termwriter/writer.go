/*
Package termwriter implements a buffered Writer for redrawing a block of lines
on an interactive terminal.
*/
package termwriter

import (
	"bytes"
	"io"
	"strings"
)

// Writer buffers a frame until Flush is called, so that every redraw reaches
// the terminal in a single write.
type Writer struct {
	out io.Writer
	buf bytes.Buffer
}

// New returns a new Writer
func New(out io.Writer) *Writer {
	return &Writer{out: out}
}

// Redraw replaces the up lines most recently printed by the caller.
// Persistent lines are printed first and are never redrawn again. Progressing
// lines are printed below them and are expected to be replaced by the next
// call to Redraw. Anything left below the new frame is erased.
func (w *Writer) Redraw(up int, persistent []string, progressing []string) {
	defer w.hideCursor()()
	w.up(up)
	for _, lines := range [][]string{persistent, progressing} {
		for _, l := range lines {
			w.writeLine(l)
		}
	}
	w.clearBelow()
}

// Clear erases the up lines most recently printed and leaves the cursor where
// the first of them started.
func (w *Writer) Clear(up int) {
	if up == 0 {
		return
	}
	w.up(up)
	w.clearBelow()
}

// Append writes lines without any cursor movement. It is used for output that
// is not an interactive terminal.
func (w *Writer) Append(lines []string) {
	for _, l := range lines {
		w.buf.WriteString(l)
		w.buf.WriteByte('\n')
	}
}

// Flush writes the buffered frame to the underlying writer. The buffer is
// reset even when the write fails.
func (w *Writer) Flush() error {
	if w.buf.Len() == 0 {
		return nil
	}
	defer w.buf.Reset()
	_, err := w.out.Write(w.buf.Bytes())
	return err
}

// Buffered returns the number of bytes waiting for Flush.
func (w *Writer) Buffered() int {
	return w.buf.Len()
}

func (w *Writer) writeLine(l string) {
	// embedded newlines would desync the caller's line count
	w.buf.WriteString(strings.ReplaceAll(l, "\n", " "))
	w.clearRest()
	w.buf.WriteByte('\n')
}
