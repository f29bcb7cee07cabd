package core

import "github.com/mattn/go-runewidth"

// Cell is one terminal cell. A zero Rune with zero Width marks the
// continuation of a wide character in the cell to its left.
type Cell struct {
	Rune  rune
	Width int
	Style Style
}

// EmptyCell returns a blank cell with the given style.
func EmptyCell(style Style) Cell {
	return Cell{Rune: ' ', Width: 1, Style: style}
}

// NewCell creates a cell for r, measuring its display width.
func NewCell(r rune, style Style) Cell {
	return Cell{Rune: r, Width: runewidth.RuneWidth(r), Style: style}
}

// ContinuationCell returns the filler cell placed after a wide rune.
func ContinuationCell(style Style) Cell {
	return Cell{Style: style}
}

// IsContinuation reports whether this cell is wide-character filler.
func (c Cell) IsContinuation() bool {
	return c.Rune == 0 && c.Width == 0
}
