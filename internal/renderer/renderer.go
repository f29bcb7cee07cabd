// Package renderer draws buffer views into a terminal backend, using
// the highlight cache for per-byte colors and the theme to map color
// names to terminal styles.
package renderer

import (
	"fmt"
	"unicode/utf8"

	"github.com/mattn/go-runewidth"

	"github.com/stanza-editor/stanza/internal/renderer/backend"
	"github.com/stanza-editor/stanza/internal/renderer/core"
	"github.com/stanza-editor/stanza/internal/renderer/theme"
	"github.com/stanza-editor/stanza/internal/syntax"
)

// Renderer draws views into a backend.
type Renderer struct {
	backend  backend.Backend
	theme    *theme.Theme
	tabWidth int
}

// New creates a renderer. tabWidth must be at least 1.
func New(b backend.Backend, th *theme.Theme, tabWidth int) *Renderer {
	if tabWidth < 1 {
		tabWidth = 1
	}
	return &Renderer{backend: b, theme: th, tabWidth: tabWidth}
}

// SetTheme swaps the theme; the caller redraws afterwards.
func (r *Renderer) SetTheme(th *theme.Theme) { r.theme = th }

// TabWidth returns the configured tab width.
func (r *Renderer) TabWidth() int { return r.tabWidth }

// Draw redraws the whole viewport: the visible buffer lines, the
// status line, and the cursor. It scrolls the view first so the cursor
// stays visible.
func (r *Renderer) Draw(v *View) {
	width, height := r.backend.Size()
	textHeight := height - 1
	if textHeight < 0 {
		textHeight = 0
	}
	v.ScrollTo(textHeight)

	for row := 0; row < textHeight; row++ {
		r.drawLine(v, v.top+row, row, width)
	}
	r.drawStatus(v, width, height)
	r.placeCursor(v, width, textHeight)
	r.backend.Show()
}

// DrawLineEdit redraws after an edit confined to a single line. It
// redraws that line and keeps going downward while the highlight cache
// reports that the next line's start state changed, so multi-line
// constructs like block comments propagate without a full redraw.
func (r *Renderer) DrawLineEdit(v *View, line int) {
	width, height := r.backend.Size()
	textHeight := height - 1
	if textHeight < 0 {
		textHeight = 0
	}
	if v.ScrollTo(textHeight) {
		// The edit moved the viewport; nothing cheaper than a full
		// redraw applies.
		r.Draw(v)
		return
	}

	for ; line < v.buf.LineCount(); line++ {
		row := line - v.top
		if row >= textHeight {
			break
		}
		var changed bool
		if row >= 0 {
			changed = r.drawLine(v, line, row, width)
		} else if v.cache != nil {
			// Above the viewport: advance the cache without drawing.
			_, changed = v.cache.LineColors(line)
		}
		if !changed {
			break
		}
	}
	r.drawStatus(v, width, height)
	r.placeCursor(v, width, textHeight)
	r.backend.Show()
}

// drawLine renders one buffer line into one screen row, returning
// whether the next line's highlight start state changed. Rows past the
// end of the buffer are blanked.
func (r *Renderer) drawLine(v *View, line, row, width int) bool {
	def := r.theme.Default()
	if line >= v.buf.LineCount() {
		for x := 0; x < width; x++ {
			r.backend.SetCell(x, row, core.EmptyCell(def))
		}
		return false
	}

	text := v.buf.LineText(line)
	var colors []syntax.Color
	nextChanged := false
	if v.cache != nil {
		colors, nextChanged = v.cache.LineColors(line)
	}

	x := 0
	for i := 0; i < len(text) && x < width; {
		ru, size := utf8.DecodeRuneInString(text[i:])
		style := r.styleFor(v, colors, i)
		if ru == '\t' {
			for stop := x + r.tabWidth - x%r.tabWidth; x < stop && x < width; x++ {
				r.backend.SetCell(x, row, core.EmptyCell(style))
			}
		} else {
			cell := core.NewCell(ru, style)
			r.backend.SetCell(x, row, cell)
			x++
			for w := 1; w < cell.Width && x < width; w++ {
				r.backend.SetCell(x, row, core.ContinuationCell(style))
				x++
			}
		}
		i += size
	}
	for ; x < width; x++ {
		r.backend.SetCell(x, row, core.EmptyCell(def))
	}
	return nextChanged
}

// styleFor resolves the style of the byte at offset i. The color slice
// may be shorter than the line when the cache is nil.
func (r *Renderer) styleFor(v *View, colors []syntax.Color, i int) core.Style {
	if i >= len(colors) {
		return r.theme.Default()
	}
	c := colors[i]
	if c == syntax.ColorKeep {
		return r.theme.Default()
	}
	name := v.cache.Graph().ColorName(c)
	if name == "" {
		return r.theme.Default()
	}
	return r.theme.Lookup(name)
}

// drawStatus renders the status line on the bottom row.
func (r *Renderer) drawStatus(v *View, width, height int) {
	if height < 1 {
		return
	}
	row := height - 1
	style := r.theme.Default().Reverse()

	name := v.buf.Path()
	if name == "" {
		name = "[no name]"
	}
	dirty := ""
	if v.buf.Dirty() {
		dirty = " [+]"
	}
	left := fmt.Sprintf(" %s%s", name, dirty)
	ft := v.filetype
	if ft == "" {
		ft = "none"
	}
	right := fmt.Sprintf("%s  %d:%d ", ft, v.curLine+1, v.curCol+1)

	x := 0
	for _, ru := range left {
		if x >= width {
			break
		}
		r.backend.SetCell(x, row, core.NewCell(ru, style))
		x += runeCells(ru, x, r.tabWidth)
	}
	pad := width - x - utf8.RuneCountInString(right)
	for ; pad > 0 && x < width; pad-- {
		r.backend.SetCell(x, row, core.EmptyCell(style))
		x++
	}
	for _, ru := range right {
		if x >= width {
			break
		}
		r.backend.SetCell(x, row, core.NewCell(ru, style))
		x++
	}
}

// placeCursor positions the hardware cursor at the view's cursor,
// hiding it when it falls outside the viewport.
func (r *Renderer) placeCursor(v *View, width, textHeight int) {
	row := v.curLine - v.top
	if row < 0 || row >= textHeight {
		r.backend.HideCursor()
		return
	}
	x := displayWidth(v.buf.LineText(v.curLine), v.curCol, r.tabWidth)
	if x >= width {
		x = width - 1
	}
	r.backend.SetCursor(x, row)
}

// runeCells returns how many cells r occupies when drawn at display
// column x.
func runeCells(r rune, x, tabWidth int) int {
	if r == '\t' {
		return tabWidth - x%tabWidth
	}
	if w := runewidth.RuneWidth(r); w > 0 {
		return w
	}
	return 1
}
