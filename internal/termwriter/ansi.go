package termwriter

import (
	"strconv"
)

// csi is the control sequence introducer, ESC followed by '['.
const csi = "\x1b["

// hide cursor
var hide = csi + "?25l"

// show cursor
var show = csi + "?25h"

func (w *Writer) up(count int) {
	if count <= 0 {
		return
	}
	w.buf.WriteString("\r" + csi + strconv.Itoa(count) + "A")
}

func (w *Writer) clearRest() {
	w.buf.WriteString(csi + "0K")
}

func (w *Writer) clearBelow() {
	w.buf.WriteString(csi + "0J")
}

// hideCursor hides the cursor and returns a function to restore the cursor back.
func (w *Writer) hideCursor() func() {
	w.buf.WriteString(hide)
	return func() {
		w.buf.WriteString(show)
	}
}
