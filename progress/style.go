package progress

import (
	"strings"

	"github.com/pkg/errors"

	"github.com/astralkn/termprogress/internal/color"
	"github.com/astralkn/termprogress/internal/text"
)

const (
	defaultBarTemplate     = "{wide_bar} {pos}/{len}"
	defaultSpinnerTemplate = "{spinner} {msg}"
	defaultTickStrings     = "⠋⠙⠹⠸⠼⠴⠦⠧⠇⠏"
	defaultFinalTick       = "✔"
	defaultProgressChars   = "█░"
	defaultUnknown         = "unknown"
)

// Style controls how a bar is rendered: the template, the frames of the
// spinner, and the glyphs of the bar. A Style is immutable, the With methods
// return a modified copy.
type Style struct {
	template      *Template
	tickStrings   []string
	finalTick     string
	progressChars []string
	charWidth     int
	unknown       string
}

// NewStyle returns a Style that renders template with the default spinner
// frames and bar glyphs.
func NewStyle(template string) (*Style, error) {
	tmpl, err := Compile(template)
	if err != nil {
		return nil, err
	}
	return &Style{
		template:      tmpl,
		tickStrings:   text.Graphemes(defaultTickStrings),
		finalTick:     defaultFinalTick,
		progressChars: text.Graphemes(defaultProgressChars),
		charWidth:     1,
		unknown:       defaultUnknown,
	}, nil
}

func mustStyle(template string) *Style {
	st, err := NewStyle(template)
	if err != nil {
		panic(err)
	}
	return st
}

// DefaultBarStyle is used by bars with a length when no style is given.
func DefaultBarStyle() *Style {
	return mustStyle(defaultBarTemplate)
}

// DefaultSpinnerStyle is used by bars without a length when no style is
// given.
func DefaultSpinnerStyle() *Style {
	return mustStyle(defaultSpinnerTemplate)
}

// Template returns the compiled template of the style.
func (s *Style) Template() *Template {
	return s.template
}

// WithTemplate returns a copy of the style that renders template.
func (s *Style) WithTemplate(template string) (*Style, error) {
	tmpl, err := Compile(template)
	if err != nil {
		return nil, err
	}
	c := *s
	c.template = tmpl
	return &c, nil
}

// WithTickStrings returns a copy of the style that animates the spinner with
// frames, and shows final once the bar is finished.
func (s *Style) WithTickStrings(frames []string, final string) (*Style, error) {
	if len(frames) == 0 {
		return nil, errors.New("spinner needs at least one frame")
	}
	c := *s
	c.tickStrings = append([]string(nil), frames...)
	c.finalTick = final
	return &c, nil
}

// WithProgressChars returns a copy of the style that draws the bar with the
// glyphs in chars. The first glyph fills completed cells, the last glyph
// fills empty cells, and any glyphs in between are used for the partially
// filled cell, from most to least complete. Every glyph must have the same
// display width.
func (s *Style) WithProgressChars(chars string) (*Style, error) {
	glyphs := text.Graphemes(chars)
	if len(glyphs) < 2 {
		return nil, errors.Errorf("progress chars %q: need at least 2 glyphs", chars)
	}
	width := text.Width(glyphs[0])
	if width == 0 {
		return nil, errors.Errorf("progress chars %q: glyph %q has no width", chars, glyphs[0])
	}
	for _, g := range glyphs[1:] {
		if w := text.Width(g); w != width {
			return nil, errors.Errorf(
				"progress chars %q: glyph %q is %d columns wide, expected %d",
				chars, g, w, width)
		}
	}
	c := *s
	c.progressChars = glyphs
	c.charWidth = width
	return &c, nil
}

// WithUnknown returns a copy of the style that renders values which can not
// be estimated, like the ETA of a bar without a length, as unknown.
func (s *Style) WithUnknown(unknown string) *Style {
	c := *s
	c.unknown = unknown
	return &c
}

func (s *Style) spinnerFrame(snap Snapshot) string {
	if snap.Status == StatusFinished {
		return s.finalTick
	}
	return s.tickStrings[snap.Ticks%uint64(len(s.tickStrings))]
}

// formatBar draws a bar width columns wide, filled to fraction.
func (s *Style) formatBar(fraction float64, width int, filled, rest *color.Style) string {
	cells := width / s.charWidth
	if cells <= 0 {
		return ""
	}
	fill := fraction * float64(cells)
	full := int(fill)
	if full > cells {
		full = cells
	}

	var head string
	if fill > 0 && full < cells {
		head = s.headGlyph(fill - float64(full))
	}
	empty := cells - full
	if head != "" {
		empty--
	}

	done := strings.Repeat(s.progressChars[0], full) + head
	todo := strings.Repeat(s.progressChars[len(s.progressChars)-1], empty)
	return filled.Apply(done) + rest.Apply(todo)
}

// headGlyph picks the glyph for the partially filled cell.
func (s *Style) headGlyph(frac float64) string {
	fine := s.progressChars[1 : len(s.progressChars)-1]
	switch len(fine) {
	case 0:
		return s.progressChars[len(s.progressChars)-1]
	case 1:
		return fine[0]
	}
	// fine glyphs are ordered from most to least complete
	i := len(fine) - 1 - int(frac*float64(len(fine)))
	if i < 0 {
		i = 0
	}
	return fine[i]
}
