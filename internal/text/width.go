/*
Package text measures and pads strings by the number of terminal columns they
occupy, ignoring ANSI escape sequences.
*/
package text

import (
	"strings"

	"github.com/charmbracelet/x/ansi"
	"github.com/rivo/uniseg"
)

// Strip removes ANSI escape sequences from s, including OSC sequences such as
// hyperlinks. Control characters like \r are kept.
func Strip(s string) string {
	if !strings.ContainsRune(s, '\x1b') {
		return s
	}
	return ansi.Strip(s)
}

// Width returns the number of columns s occupies on a terminal.
func Width(s string) int {
	return ansi.StringWidth(s)
}

// VisualRows returns the number of terminal rows needed to print lines when
// the terminal is width columns wide. Every line occupies at least one row,
// even when it is empty or contains only escape sequences.
func VisualRows(lines []string, width int) int {
	rows := 0
	for _, line := range lines {
		w := Width(line)
		switch {
		case width <= 0 || w <= width:
			rows++
		default:
			rows += (w + width - 1) / width
		}
	}
	return rows
}

// Graphemes splits s into user-perceived characters.
func Graphemes(s string) []string {
	var out []string
	g := uniseg.NewGraphemes(s)
	for g.Next() {
		out = append(out, g.Str())
	}
	return out
}

// Align is the horizontal placement of a value inside a padded field.
type Align uint8

const (
	AlignLeft Align = iota
	AlignCenter
	AlignRight
)

// Pad pads s with spaces to width columns. If s is wider than width it is
// returned unchanged, unless truncate is set, in which case it is cut to fit.
func Pad(s string, width int, align Align, truncate bool) string {
	cols := Width(s)
	if cols >= width {
		if truncate && cols > width {
			return ansi.Truncate(s, width, "")
		}
		return s
	}

	diff := width - cols
	var left, right int
	switch align {
	case AlignRight:
		left = diff
	case AlignCenter:
		left = diff / 2
		right = diff - left
	default:
		right = diff
	}
	return strings.Repeat(" ", left) + s + strings.Repeat(" ", right)
}
