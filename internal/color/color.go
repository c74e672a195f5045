/*
Package color parses dotted style specifications, such as "green.bold" or
"white.on_blue", into styles that can be applied to rendered text.
*/
package color

import (
	"strconv"
	"strings"

	"github.com/fatih/color"
	"github.com/pkg/errors"
)

var foreground = map[string]color.Attribute{
	"black":   color.FgBlack,
	"red":     color.FgRed,
	"green":   color.FgGreen,
	"yellow":  color.FgYellow,
	"blue":    color.FgBlue,
	"magenta": color.FgMagenta,
	"cyan":    color.FgCyan,
	"white":   color.FgWhite,
}

var attributes = map[string]color.Attribute{
	"bold":       color.Bold,
	"dim":        color.Faint,
	"italic":     color.Italic,
	"underlined": color.Underline,
	"blink":      color.BlinkSlow,
	"reverse":    color.ReverseVideo,
	"hidden":     color.Concealed,
}

const (
	hiOffset = color.FgHiBlack - color.FgBlack
	bgOffset = color.BgBlack - color.FgBlack
)

// Style is a parsed style specification.
type Style struct {
	spec  string
	attrs []color.Attribute
}

// Parse a dotted style specification. Each element is a colour name
// (optionally prefixed with "bright_"), a background colour prefixed with
// "on_", a 256-colour palette index (optionally prefixed with "on_"), or a text
// attribute such as "bold".
func Parse(spec string) (*Style, error) {
	style := &Style{spec: spec}
	for _, token := range strings.Split(spec, ".") {
		attrs, err := parseToken(token)
		if err != nil {
			return nil, errors.Wrapf(err, "invalid style %q", spec)
		}
		style.attrs = append(style.attrs, attrs...)
	}
	return style, nil
}

func parseToken(token string) ([]color.Attribute, error) {
	if token == "" {
		return nil, errors.New("empty style element")
	}
	if a, ok := attributes[token]; ok {
		return []color.Attribute{a}, nil
	}

	name, background := strings.CutPrefix(token, "on_")
	if n, err := strconv.Atoi(name); err == nil {
		if n < 0 || n > 255 {
			return nil, errors.Errorf("palette index %d out of range", n)
		}
		if background {
			return []color.Attribute{48, 5, color.Attribute(n)}, nil
		}
		return []color.Attribute{38, 5, color.Attribute(n)}, nil
	}

	name, bright := strings.CutPrefix(name, "bright_")
	a, ok := foreground[name]
	if !ok {
		return nil, errors.Errorf("unknown style element %q", token)
	}
	if bright {
		a += hiOffset
	}
	if background {
		a += bgOffset
	}
	return []color.Attribute{a}, nil
}

// Apply returns s wrapped in the escape sequences for the style. When colour
// output is disabled s is returned unchanged.
func (st *Style) Apply(s string) string {
	if st == nil || len(st.attrs) == 0 || s == "" {
		return s
	}
	return color.New(st.attrs...).Sprint(s)
}

// String returns the specification the style was parsed from.
func (st *Style) String() string {
	if st == nil {
		return ""
	}
	return st.spec
}
