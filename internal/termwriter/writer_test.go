package termwriter

import (
	"bytes"
	"errors"
	"testing"

	"gotest.tools/v3/assert"

	"github.com/astralkn/termprogress/internal/text"
)

func TestWriter_Redraw(t *testing.T) {
	out := new(bytes.Buffer)
	w := New(out)

	w.Redraw(0, nil, []string{"a", "b"})
	assert.Equal(t, out.Len(), 0, "nothing is written before Flush")
	assert.NilError(t, w.Flush())
	assert.Equal(t, out.String(), "\x1b[?25la\x1b[0K\nb\x1b[0K\n\x1b[0J\x1b[?25h")
	assert.Equal(t, w.Buffered(), 0)

	out.Reset()
	w.Redraw(2, []string{"done"}, []string{"c"})
	assert.NilError(t, w.Flush())
	assert.Equal(t, out.String(), "\x1b[?25l\r\x1b[2Adone\x1b[0K\nc\x1b[0K\n\x1b[0J\x1b[?25h")
}

func TestWriter_RedrawOnScreen(t *testing.T) {
	screen := new(text.Screen)
	w := New(screen)

	w.Redraw(0, nil, []string{"first", "second", "third"})
	assert.NilError(t, w.Flush())
	w.Redraw(3, []string{"kept"}, []string{"x"})
	assert.NilError(t, w.Flush())
	assert.Equal(t, screen.Contents(), "kept\nx")

	w.Redraw(1, nil, []string{"multi\nline"})
	assert.NilError(t, w.Flush())
	assert.Equal(t, screen.Contents(), "kept\nmulti line")
	assert.Equal(t, screen.Writes(), 3)
}

func TestWriter_Clear(t *testing.T) {
	screen := new(text.Screen)
	w := New(screen)
	w.Append([]string{"above"})
	w.Redraw(0, nil, []string{"a", "b"})
	assert.NilError(t, w.Flush())

	w.Clear(0)
	assert.Equal(t, w.Buffered(), 0)
	w.Clear(2)
	assert.NilError(t, w.Flush())
	assert.Equal(t, screen.Contents(), "above")
}

func TestWriter_Append(t *testing.T) {
	out := new(bytes.Buffer)
	w := New(out)
	w.Append([]string{"one", "two"})
	w.Append(nil)
	assert.NilError(t, w.Flush())
	assert.Equal(t, out.String(), "one\ntwo\n")

	assert.NilError(t, w.Flush(), "empty flush")
}

type errWriter struct{}

func (errWriter) Write([]byte) (int, error) {
	return 0, errors.New("closed")
}

func TestWriter_FlushError(t *testing.T) {
	w := New(errWriter{})
	w.Append([]string{"lost"})
	assert.Error(t, w.Flush(), "closed")
	assert.Equal(t, w.Buffered(), 0)
}
