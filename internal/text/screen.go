package text

import (
	"strconv"
	"strings"
	"sync"

	"github.com/mattn/go-runewidth"
)

// Screen is an io.Writer that interprets the subset of ANSI sequences used to
// redraw progress output, and keeps the resulting screen contents. It lets
// tests assert on what a user would see rather than on the raw byte stream.
//
// Supported: printable text, '\n' (as CR+LF), '\r', CSI n A/B (cursor up and
// down), CSI n K (erase in line), CSI n J (erase in display), and the cursor
// visibility sequences, which are ignored. Colour sequences are dropped.
type Screen struct {
	mu     sync.Mutex
	rows   [][]rune
	row    int
	col    int
	writes int
}

// Write implements io.Writer.
func (s *Screen) Write(p []byte) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.writes++
	in := []rune(string(p))
	for i := 0; i < len(in); i++ {
		r := in[i]
		switch r {
		case '\n':
			s.row++
			s.col = 0
		case '\r':
			s.col = 0
		case '\x1b':
			i = s.control(in, i)
		default:
			s.put(r)
		}
	}
	return len(p), nil
}

// Writes returns the number of times Write was called.
func (s *Screen) Writes() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.writes
}

// Cursor returns the current row and column of the cursor.
func (s *Screen) Cursor() (row, col int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.row, s.col
}

// Contents returns the visible rows, with trailing spaces and trailing empty
// rows removed.
func (s *Screen) Contents() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	lines := make([]string, 0, len(s.rows))
	for _, row := range s.rows {
		lines = append(lines, strings.TrimRight(strings.ReplaceAll(string(row), "\x00", ""), " "))
	}
	for len(lines) > 0 && lines[len(lines)-1] == "" {
		lines = lines[:len(lines)-1]
	}
	return strings.Join(lines, "\n")
}

func (s *Screen) grow() {
	for len(s.rows) <= s.row {
		s.rows = append(s.rows, nil)
	}
}

func (s *Screen) put(r rune) {
	s.grow()
	line := s.rows[s.row]
	for len(line) < s.col {
		line = append(line, ' ')
	}
	if s.col < len(line) {
		line[s.col] = r
	} else {
		line = append(line, r)
	}
	// wide runes occupy a second cell which is never addressed directly
	for i := 1; i < runewidth.RuneWidth(r); i++ {
		if s.col+i < len(line) {
			line[s.col+i] = '\x00'
		} else {
			line = append(line, '\x00')
		}
	}
	s.rows[s.row] = line
	s.col += max(runewidth.RuneWidth(r), 1)
}

// control handles the escape sequence starting at in[i] and returns the index
// of its final rune.
func (s *Screen) control(in []rune, i int) int {
	if i+1 >= len(in) || in[i+1] != '[' {
		return i
	}
	j := i + 2
	for j < len(in) && (in[j] >= '0' && in[j] <= '9' || in[j] == ';' || in[j] == '?') {
		j++
	}
	if j >= len(in) {
		return len(in) - 1
	}
	params := string(in[i+2 : j])
	n, err := strconv.Atoi(params)
	if err != nil {
		n = 0
	}
	switch in[j] {
	case 'A':
		s.row = max(s.row-max(n, 1), 0)
	case 'B':
		s.row += max(n, 1)
	case 'K':
		s.eraseLine(n)
	case 'J':
		s.eraseDisplay(n)
	}
	return j
}

func (s *Screen) eraseLine(mode int) {
	if s.row >= len(s.rows) {
		return
	}
	switch mode {
	case 0:
		if s.col < len(s.rows[s.row]) {
			s.rows[s.row] = s.rows[s.row][:s.col]
		}
	default:
		s.rows[s.row] = nil
	}
}

func (s *Screen) eraseDisplay(mode int) {
	if mode != 0 {
		s.rows = nil
		return
	}
	s.eraseLine(0)
	if s.row+1 < len(s.rows) {
		s.rows = s.rows[:s.row+1]
	}
}
