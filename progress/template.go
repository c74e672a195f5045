package progress

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/astralkn/termprogress/internal/color"
	"github.com/astralkn/termprogress/internal/text"
)

type placeholder uint8

const (
	literal placeholder = iota
	phPos
	phLen
	phPercent
	phElapsed
	phElapsedPrecise
	phETA
	phETAPrecise
	phDuration
	phDurationPrecise
	phMsg
	phWideMsg
	phPrefix
	phSpinner
	phBar
	phWideBar
	phPerSec
	phBytes
	phTotalBytes
	phBytesPerSec
	phBinaryBytes
	phDecimalBytes
	phBinaryTotalBytes
	phDecimalTotalBytes
	phBinaryBytesPerSec
	phDecimalBytesPerSec
)

var placeholders = map[string]placeholder{
	"pos":              phPos,
	"len":              phLen,
	"percent":          phPercent,
	"elapsed":          phElapsed,
	"elapsed_precise":  phElapsedPrecise,
	"eta":              phETA,
	"eta_precise":      phETAPrecise,
	"duration":         phDuration,
	"duration_precise": phDurationPrecise,
	"msg":              phMsg,
	"wide_msg":         phWideMsg,
	"prefix":           phPrefix,
	"spinner":          phSpinner,
	"bar":              phBar,
	"wide_bar":         phWideBar,
	"per_sec":          phPerSec,
	"bytes":            phBytes,
	"total_bytes":      phTotalBytes,
	"bytes_per_sec":    phBytesPerSec,

	"binary_bytes":          phBinaryBytes,
	"decimal_bytes":         phDecimalBytes,
	"binary_total_bytes":    phBinaryTotalBytes,
	"decimal_total_bytes":   phDecimalTotalBytes,
	"binary_bytes_per_sec":  phBinaryBytesPerSec,
	"decimal_bytes_per_sec": phDecimalBytesPerSec,
}

// defaultBarWidth is the width of {bar} when the template does not set one.
const defaultBarWidth = 20

// maxFieldWidth bounds the width of a placeholder, which is allocated on
// every render.
const maxFieldWidth = 4096

type segment struct {
	kind     placeholder
	literal  string
	width    int
	align    text.Align
	truncate bool
	style    *color.Style
	alt      *color.Style
}

func (s segment) wide() bool {
	return s.kind == phWideBar || s.kind == phWideMsg
}

// Template is a compiled display template. A Template is immutable and may be
// shared by any number of bars.
type Template struct {
	source string
	lines  [][]segment
}

// TemplateError is returned when a template can not be compiled.
type TemplateError struct {
	Template string
	// Offset is the byte offset in Template where the problem was found.
	Offset int
	Reason string
}

func (e *TemplateError) Error() string {
	return fmt.Sprintf("invalid template at offset %d: %s", e.Offset, e.Reason)
}

// Compile parses a template. A template is literal text with placeholders in
// braces:
//
//	{key}
//	{key:[<^>][width][!][.style][/altstyle]}
//
// The optional alignment and width pad the value, and ! truncates values that
// are wider than width. The style is a dotted list of colours and attributes
// (red.on_blue.bold). The alternate style colours the unfilled part of a bar.
// Use {{ and }} for literal braces. Every newline starts a new output line.
//
// All errors, including unknown keys, are reported here and never when the
// template is rendered.
func Compile(source string) (*Template, error) {
	p := &parser{source: source, lines: [][]segment{nil}}
	if err := p.parse(); err != nil {
		return nil, err
	}
	return &Template{source: source, lines: p.lines}, nil
}

// MustCompile is like Compile but panics if the template can not be compiled.
func MustCompile(source string) *Template {
	t, err := Compile(source)
	if err != nil {
		panic(err)
	}
	return t
}

// String returns the source of the template.
func (t *Template) String() string {
	return t.source
}

type parser struct {
	source string
	lines  [][]segment
	buf    strings.Builder
}

func (p *parser) fail(offset int, format string, args ...interface{}) error {
	return &TemplateError{
		Template: p.source,
		Offset:   offset,
		Reason:   fmt.Sprintf(format, args...),
	}
}

func (p *parser) parse() error {
	src := p.source
	for i := 0; i < len(src); i++ {
		switch c := src[i]; c {
		case '{':
			if i+1 < len(src) && src[i+1] == '{' {
				p.buf.WriteByte('{')
				i++
				continue
			}
			end := strings.IndexAny(src[i+1:], "{}\n")
			if end < 0 || src[i+1+end] != '}' {
				return p.fail(i, "unclosed '{'")
			}
			seg, err := p.placeholder(i, src[i+1:i+1+end])
			if err != nil {
				return err
			}
			if err := p.add(i, seg); err != nil {
				return err
			}
			i += end + 1
		case '}':
			if i+1 < len(src) && src[i+1] == '}' {
				p.buf.WriteByte('}')
				i++
				continue
			}
			return p.fail(i, "unmatched '}'")
		case '\n':
			p.flushLiteral()
			p.lines = append(p.lines, nil)
		default:
			p.buf.WriteByte(c)
		}
	}
	p.flushLiteral()
	return nil
}

func (p *parser) flushLiteral() {
	if p.buf.Len() == 0 {
		return
	}
	last := len(p.lines) - 1
	p.lines[last] = append(p.lines[last], segment{kind: literal, literal: p.buf.String()})
	p.buf.Reset()
}

func (p *parser) add(offset int, seg segment) error {
	p.flushLiteral()
	last := len(p.lines) - 1
	if seg.wide() {
		for _, other := range p.lines[last] {
			if other.wide() {
				return p.fail(offset, "more than one wide element on a line")
			}
		}
	}
	p.lines[last] = append(p.lines[last], seg)
	return nil
}

func (p *parser) placeholder(offset int, body string) (segment, error) {
	key, format, hasFormat := strings.Cut(body, ":")
	kind, ok := placeholders[key]
	switch {
	case key == "":
		return segment{}, p.fail(offset, "empty placeholder")
	case !ok:
		return segment{}, p.fail(offset, "unknown placeholder %q", key)
	}
	seg := segment{kind: kind}
	if !hasFormat {
		return seg, nil
	}

	rest := format
	if rest != "" {
		switch rest[0] {
		case '<':
			seg.align, rest = text.AlignLeft, rest[1:]
		case '^':
			seg.align, rest = text.AlignCenter, rest[1:]
		case '>':
			seg.align, rest = text.AlignRight, rest[1:]
		}
	}
	digits := len(rest) - len(strings.TrimLeft(rest, "0123456789"))
	if digits > 0 {
		width, err := strconv.Atoi(rest[:digits])
		if err != nil {
			return segment{}, p.fail(offset, "invalid width %q", rest[:digits])
		}
		if width > maxFieldWidth {
			return segment{}, p.fail(offset, "width %d is larger than %d", width, maxFieldWidth)
		}
		seg.width, rest = width, rest[digits:]
	}
	if strings.HasPrefix(rest, "!") {
		seg.truncate, rest = true, rest[1:]
	}

	var styleSpec, altSpec string
	switch {
	case rest == "":
	case rest[0] == '.':
		styleSpec, altSpec, _ = strings.Cut(rest[1:], "/")
	case rest[0] == '/':
		altSpec = rest[1:]
	default:
		return segment{}, p.fail(offset, "invalid format %q for %s", format, key)
	}

	var err error
	if styleSpec != "" {
		if seg.style, err = color.Parse(styleSpec); err != nil {
			return segment{}, p.fail(offset, "%v", err)
		}
	}
	if altSpec != "" {
		if seg.alt, err = color.Parse(altSpec); err != nil {
			return segment{}, p.fail(offset, "%v", err)
		}
	}
	return seg, nil
}

// render evaluates the template against snap. The wide element of each line,
// if any, fills whatever width is left by the other segments.
func (t *Template) render(snap Snapshot, st *Style, width int) []string {
	if width <= 0 {
		width = defaultTermWidth
	}
	out := make([]string, 0, len(t.lines))
	for _, line := range t.lines {
		parts := make([]string, len(line))
		wideAt := -1
		used := 0
		for i, seg := range line {
			if seg.wide() {
				wideAt = i
				continue
			}
			parts[i] = seg.render(snap, st, seg.width)
			used += text.Width(parts[i])
		}
		if wideAt >= 0 {
			remaining := width - used
			if remaining < 0 {
				remaining = 0
			}
			parts[wideAt] = line[wideAt].render(snap, st, remaining)
		}
		out = append(out, strings.Join(parts, ""))
	}
	return out
}

func (s segment) render(snap Snapshot, st *Style, width int) string {
	switch s.kind {
	case literal:
		return s.literal
	case phBar:
		if width == 0 {
			width = defaultBarWidth
		}
		return st.formatBar(snap.Fraction(), width, s.style, s.alt)
	case phWideBar:
		return st.formatBar(snap.Fraction(), width, s.style, s.alt)
	case phWideMsg:
		return s.style.Apply(text.Pad(snap.Message, width, s.align, true))
	}

	value := s.value(snap, st)
	if s.width > 0 {
		value = text.Pad(value, s.width, s.align, s.truncate)
	}
	return s.style.Apply(value)
}

func (s segment) value(snap Snapshot, st *Style) string {
	switch s.kind {
	case phPos:
		return strconv.FormatUint(snap.Position, 10)
	case phLen:
		if !snap.HasLength {
			return "?"
		}
		return strconv.FormatUint(snap.Length, 10)
	case phPercent:
		return strconv.Itoa(snap.Percent())
	case phElapsed:
		return formatDuration(snap.Elapsed())
	case phElapsedPrecise:
		return formatDurationPrecise(snap.Elapsed())
	case phETA:
		if !snap.ETAKnown {
			return st.unknown
		}
		return formatDuration(snap.ETA)
	case phETAPrecise:
		if !snap.ETAKnown {
			return st.unknown
		}
		return formatDurationPrecise(snap.ETA)
	case phDuration:
		d, ok := snap.Duration()
		if !ok {
			return st.unknown
		}
		return formatDuration(d)
	case phDurationPrecise:
		d, ok := snap.Duration()
		if !ok {
			return st.unknown
		}
		return formatDurationPrecise(d)
	case phMsg:
		return snap.Message
	case phPrefix:
		return snap.Prefix
	case phSpinner:
		return st.spinnerFrame(snap)
	case phPerSec:
		if !snap.RateKnown {
			return st.unknown
		}
		return formatRate(snap.Rate)
	case phBytes, phBinaryBytes:
		return binaryBytes(snap.Position)
	case phDecimalBytes:
		return decimalBytes(snap.Position)
	case phTotalBytes, phBinaryTotalBytes, phDecimalTotalBytes:
		if !snap.HasLength {
			return "?"
		}
		if s.kind == phDecimalTotalBytes {
			return decimalBytes(snap.Length)
		}
		return binaryBytes(snap.Length)
	case phBytesPerSec, phBinaryBytesPerSec, phDecimalBytesPerSec:
		if !snap.RateKnown {
			return st.unknown
		}
		if s.kind == phDecimalBytesPerSec {
			return decimalBytes(uint64(snap.Rate)) + "/s"
		}
		return binaryBytes(uint64(snap.Rate)) + "/s"
	}
	return ""
}
