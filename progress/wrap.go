package progress

import (
	"bytes"
	"io"
	"strings"
	"sync"
)

// Reader advances a Bar by the number of bytes read.
type Reader struct {
	io.Reader
	bar *Bar
}

func (r *Reader) Read(p []byte) (int, error) {
	n, err := r.Reader.Read(p)
	if n > 0 {
		r.bar.Inc(uint64(n))
	}
	return n, err
}

// Close closes the wrapped reader, if it is an io.Closer.
func (r *Reader) Close() error {
	if c, ok := r.Reader.(io.Closer); ok {
		return c.Close()
	}
	return nil
}

// Wrap returns a Reader that advances the bar by every byte read from r.
func (b *Bar) Wrap(r io.Reader) *Reader {
	return &Reader{Reader: r, bar: b}
}

// Writer advances a Bar by the number of bytes written.
type Writer struct {
	io.Writer
	bar *Bar
}

func (w *Writer) Write(p []byte) (int, error) {
	n, err := w.Writer.Write(p)
	if n > 0 {
		w.bar.Inc(uint64(n))
	}
	return n, err
}

// WrapWriter returns a Writer that advances the bar by every byte written to
// w.
func (b *Bar) WrapWriter(w io.Writer) *Writer {
	return &Writer{Writer: w, bar: b}
}

// LineWriter prints every complete line written to it above the bars of a
// Multi, so that log output does not tear the progress display. An incomplete
// line is held until the rest of it is written, or Flush is called. Once the
// target of the Multi stops drawing, lines go to the fallback writer.
type LineWriter struct {
	multi    *Multi
	fallback io.Writer

	mu      sync.Mutex
	pending []byte
}

// LineWriter returns a writer that prints lines above the bars of m. Lines
// written while the target of m is hidden or degraded are written to
// fallback, or dropped if fallback is nil.
func (m *Multi) LineWriter(fallback io.Writer) *LineWriter {
	return &LineWriter{multi: m, fallback: fallback}
}

func (w *LineWriter) Write(p []byte) (int, error) {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.pending = append(w.pending, p...)
	end := bytes.LastIndexByte(w.pending, '\n')
	if end < 0 {
		return len(p), nil
	}
	text := strings.ReplaceAll(string(w.pending[:end+1]), "\r\n", "\n")
	w.pending = append(w.pending[:0], w.pending[end+1:]...)
	return len(p), w.print(text)
}

// Flush prints the incomplete line, if there is one.
func (w *LineWriter) Flush() error {
	w.mu.Lock()
	defer w.mu.Unlock()
	if len(w.pending) == 0 {
		return nil
	}
	text := string(w.pending) + "\n"
	w.pending = w.pending[:0]
	return w.print(text)
}

// print text, which ends with a newline.
func (w *LineWriter) print(text string) error {
	if !w.multi.target.active() {
		if w.fallback == nil {
			return nil
		}
		_, err := io.WriteString(w.fallback, text)
		return err
	}
	w.multi.printQueued(strings.Split(strings.TrimSuffix(text, "\n"), "\n"))
	return nil
}
