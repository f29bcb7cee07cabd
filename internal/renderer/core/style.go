package core

// Color represents a terminal color: true color RGB, a palette index,
// or the terminal's default.
type Color struct {
	R, G, B uint8
	// Indexed selects palette mode: R holds the index, G and B are
	// ignored.
	Indexed bool
	// Default marks the terminal's default color.
	Default bool
}

// ColorDefault is the terminal's default color.
var ColorDefault = Color{Default: true}

// RGB creates a true color.
func RGB(r, g, b uint8) Color {
	return Color{R: r, G: g, B: b}
}

// Indexed creates a palette color (0-255).
func Indexed(index uint8) Color {
	return Color{R: index, Indexed: true}
}

// Attribute is a set of text attribute flags.
type Attribute uint8

const (
	AttrBold Attribute = 1 << iota
	AttrItalic
	AttrUnderline
	AttrReverse
	AttrDim
)

// Has reports whether the set contains attr.
func (a Attribute) Has(attr Attribute) bool { return a&attr != 0 }

// Style is the visual style of a cell.
type Style struct {
	Foreground Color
	Background Color
	Attributes Attribute
}

// DefaultStyle is the terminal's default style.
func DefaultStyle() Style {
	return Style{Foreground: ColorDefault, Background: ColorDefault}
}

// WithForeground returns the style with fg replacing the foreground.
func (s Style) WithForeground(fg Color) Style {
	s.Foreground = fg
	return s
}

// WithBackground returns the style with bg replacing the background.
func (s Style) WithBackground(bg Color) Style {
	s.Background = bg
	return s
}

// Bold returns the style with the bold attribute set.
func (s Style) Bold() Style {
	s.Attributes |= AttrBold
	return s
}

// Italic returns the style with the italic attribute set.
func (s Style) Italic() Style {
	s.Attributes |= AttrItalic
	return s
}

// Underline returns the style with the underline attribute set.
func (s Style) Underline() Style {
	s.Attributes |= AttrUnderline
	return s
}

// Reverse returns the style with reverse video set.
func (s Style) Reverse() Style {
	s.Attributes |= AttrReverse
	return s
}
