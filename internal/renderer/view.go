package renderer

import (
	"unicode/utf8"

	"github.com/stanza-editor/stanza/internal/engine/buffer"
	"github.com/stanza-editor/stanza/internal/syntax/hlcache"
)

// View is one buffer displayed in a viewport: a top line, a cursor,
// and the highlight cache for the buffer's syntax. The cache may be
// nil for buffers with no recognized filetype.
type View struct {
	buf      *buffer.Buffer
	cache    *hlcache.Cache
	filetype string

	top             int // first visible buffer line
	curLine, curCol int // cursor position, col in bytes
	wantCol         int // sticky display column for vertical motion
}

// NewView creates a view over buf. cache may be nil.
func NewView(buf *buffer.Buffer, cache *hlcache.Cache, filetype string) *View {
	return &View{buf: buf, cache: cache, filetype: filetype, wantCol: -1}
}

// Buffer returns the buffer under the view.
func (v *View) Buffer() *buffer.Buffer { return v.buf }

// Cache returns the view's highlight cache, or nil.
func (v *View) Cache() *hlcache.Cache { return v.cache }

// SetCache replaces the highlight cache, e.g. after a syntax reload.
func (v *View) SetCache(cache *hlcache.Cache, filetype string) {
	v.cache = cache
	v.filetype = filetype
}

// Filetype returns the detected filetype name, or "".
func (v *View) Filetype() string { return v.filetype }

// Top returns the first visible buffer line.
func (v *View) Top() int { return v.top }

// Cursor returns the cursor position (line, byte column).
func (v *View) Cursor() (line, col int) { return v.curLine, v.curCol }

// SetCursor moves the cursor, clamping to the buffer.
func (v *View) SetCursor(line, col int) {
	if line < 0 {
		line = 0
	}
	if max := v.buf.LineCount() - 1; line > max {
		line = max
	}
	v.curLine = line
	v.clampCol(col)
	v.wantCol = -1
}

func (v *View) clampCol(col int) {
	n := len(v.buf.LineText(v.curLine))
	if col < 0 {
		col = 0
	}
	if col > n {
		col = n
	}
	v.curCol = col
}

// MoveCursor moves the cursor by a line and column delta, keeping the
// display column sticky across vertical motion over short lines.
func (v *View) MoveCursor(dLine, dCol int, tabWidth int) {
	if dLine != 0 {
		if v.wantCol < 0 {
			v.wantCol = displayWidth(v.buf.LineText(v.curLine), v.curCol, tabWidth)
		}
		v.curLine += dLine
		if v.curLine < 0 {
			v.curLine = 0
		}
		if max := v.buf.LineCount() - 1; v.curLine > max {
			v.curLine = max
		}
		v.curCol = colForDisplayWidth(v.buf.LineText(v.curLine), v.wantCol, tabWidth)
		return
	}
	if dCol != 0 {
		v.wantCol = -1
		line := v.buf.LineText(v.curLine)
		col := v.curCol
		for ; dCol > 0; dCol-- {
			if col >= len(line) {
				break
			}
			_, size := utf8.DecodeRuneInString(line[col:])
			col += size
		}
		for ; dCol < 0; dCol++ {
			if col == 0 {
				break
			}
			_, size := utf8.DecodeLastRuneInString(line[:col])
			col -= size
		}
		v.clampCol(col)
	}
}

// ScrollTo makes the cursor visible in a viewport of the given height,
// returning true when the top line moved.
func (v *View) ScrollTo(height int) bool {
	if height < 1 {
		height = 1
	}
	top := v.top
	if v.curLine < top {
		top = v.curLine
	}
	if v.curLine >= top+height {
		top = v.curLine - height + 1
	}
	if max := v.buf.LineCount() - 1; top > max {
		top = max
	}
	if top < 0 {
		top = 0
	}
	changed := top != v.top
	v.top = top
	return changed
}

// displayWidth returns the display column of byte offset col in line,
// expanding tabs.
func displayWidth(line string, col int, tabWidth int) int {
	x := 0
	for i := 0; i < col && i < len(line); {
		r, size := utf8.DecodeRuneInString(line[i:])
		x += runeCells(r, x, tabWidth)
		i += size
	}
	return x
}

// colForDisplayWidth returns the byte offset in line closest to the
// given display column.
func colForDisplayWidth(line string, want int, tabWidth int) int {
	x := 0
	for i := 0; i < len(line); {
		r, size := utf8.DecodeRuneInString(line[i:])
		w := runeCells(r, x, tabWidth)
		if x+w > want {
			return i
		}
		x += w
		i += size
	}
	return len(line)
}
