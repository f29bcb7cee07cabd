// Package theme maps syntax color names to terminal styles.
//
// A theme is a named set of styles keyed by the color names that
// syntax definitions emit ("keyword", "string", "comment", ...). The
// "default" entry styles everything a theme does not name, including
// unhighlighted text.
//
// User themes are JSON files:
//
//	{
//	  "name": "example",
//	  "styles": {
//	    "default": {"fg": "#ebdbb2", "bg": "#282828"},
//	    "keyword": {"fg": "#fb4934", "bold": true},
//	    "comment": {"fg": "#928374", "italic": true},
//	    "number":  {"index": 5}
//	  }
//	}
package theme

import (
	"fmt"
	"os"

	"github.com/lucasb-eyer/go-colorful"
	"github.com/tidwall/gjson"

	"github.com/stanza-editor/stanza/internal/renderer/core"
)

// Theme resolves syntax color names to styles.
type Theme struct {
	name   string
	styles map[string]core.Style
	def    core.Style
}

// Name returns the theme's display name.
func (t *Theme) Name() string { return t.name }

// Default returns the style for unhighlighted text.
func (t *Theme) Default() core.Style { return t.def }

// Lookup returns the style for a syntax color name, falling back to
// the default style for names the theme does not define.
func (t *Theme) Lookup(name string) core.Style {
	if s, ok := t.styles[name]; ok {
		return s
	}
	return t.def
}

// Builtin returns the default theme. It uses the 16-color palette so
// it follows the user's terminal colors.
func Builtin() *Theme {
	return &Theme{
		name: "default",
		def:  core.DefaultStyle(),
		styles: map[string]core.Style{
			"keyword":  core.DefaultStyle().WithForeground(core.Indexed(3)).Bold(),
			"type":     core.DefaultStyle().WithForeground(core.Indexed(2)),
			"constant": core.DefaultStyle().WithForeground(core.Indexed(6)),
			"number":   core.DefaultStyle().WithForeground(core.Indexed(5)),
			"string":   core.DefaultStyle().WithForeground(core.Indexed(1)),
			"comment":  core.DefaultStyle().WithForeground(core.Indexed(8)).Italic(),
			"preproc":  core.DefaultStyle().WithForeground(core.Indexed(4)),
			"error":    core.DefaultStyle().WithForeground(core.Indexed(15)).WithBackground(core.Indexed(1)),
		},
	}
}

// Parse reads a JSON theme. source names the origin in errors.
func Parse(data []byte, source string) (*Theme, error) {
	if !gjson.ValidBytes(data) {
		return nil, fmt.Errorf("theme %s: invalid JSON", source)
	}
	root := gjson.ParseBytes(data)

	t := &Theme{
		name:   root.Get("name").String(),
		def:    core.DefaultStyle(),
		styles: make(map[string]core.Style),
	}
	if t.name == "" {
		t.name = source
	}

	stylesNode := root.Get("styles")
	if !stylesNode.Exists() {
		return nil, fmt.Errorf("theme %s: missing styles object", source)
	}

	var parseErr error
	stylesNode.ForEach(func(key, val gjson.Result) bool {
		style, err := parseStyle(val)
		if err != nil {
			parseErr = fmt.Errorf("theme %s: style %q: %w", source, key.String(), err)
			return false
		}
		t.styles[key.String()] = style
		return true
	})
	if parseErr != nil {
		return nil, parseErr
	}

	if def, ok := t.styles["default"]; ok {
		t.def = def
	}
	return t, nil
}

// LoadFile reads a JSON theme from disk.
func LoadFile(path string) (*Theme, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	return Parse(data, path)
}

func parseStyle(node gjson.Result) (core.Style, error) {
	s := core.DefaultStyle()

	if fg := node.Get("fg"); fg.Exists() {
		c, err := parseColor(fg)
		if err != nil {
			return s, fmt.Errorf("fg: %w", err)
		}
		s.Foreground = c
	}
	if bg := node.Get("bg"); bg.Exists() {
		c, err := parseColor(bg)
		if err != nil {
			return s, fmt.Errorf("bg: %w", err)
		}
		s.Background = c
	}
	if idx := node.Get("index"); idx.Exists() {
		n := idx.Int()
		if n < 0 || n > 255 {
			return s, fmt.Errorf("palette index %d out of range", n)
		}
		s.Foreground = core.Indexed(uint8(n))
	}

	if node.Get("bold").Bool() {
		s = s.Bold()
	}
	if node.Get("italic").Bool() {
		s = s.Italic()
	}
	if node.Get("underline").Bool() {
		s = s.Underline()
	}
	if node.Get("reverse").Bool() {
		s = s.Reverse()
	}
	return s, nil
}

func parseColor(node gjson.Result) (core.Color, error) {
	str := node.String()
	if str == "default" {
		return core.ColorDefault, nil
	}
	c, err := colorful.Hex(str)
	if err != nil {
		return core.Color{}, fmt.Errorf("bad color %q", str)
	}
	r, g, b := c.RGB255()
	return core.RGB(r, g, b), nil
}
