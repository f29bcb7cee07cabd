package backend

import "github.com/stanza-editor/stanza/internal/renderer/core"

// Memory implements Backend on an in-memory grid. It backs renderer
// tests and has no input of its own; tests push events with Post.
type Memory struct {
	width, height    int
	cells            []core.Cell
	cursorX, cursorY int
	cursorHidden     bool
	shown            int
	events           chan Event
}

// NewMemory creates a memory backend with a fixed size.
func NewMemory(width, height int) *Memory {
	m := &Memory{
		width:  width,
		height: height,
		cells:  make([]core.Cell, width*height),
		events: make(chan Event, 16),
	}
	m.Clear()
	return m
}

func (m *Memory) Init() error { return nil }

func (m *Memory) Fini() { close(m.events) }

func (m *Memory) Size() (int, int) { return m.width, m.height }

func (m *Memory) SetCell(x, y int, c core.Cell) {
	if x < 0 || y < 0 || x >= m.width || y >= m.height {
		return
	}
	m.cells[y*m.width+x] = c
}

func (m *Memory) SetCursor(x, y int) {
	m.cursorX, m.cursorY = x, y
	m.cursorHidden = false
}

func (m *Memory) HideCursor() { m.cursorHidden = true }

func (m *Memory) Clear() {
	for i := range m.cells {
		m.cells[i] = core.EmptyCell(core.DefaultStyle())
	}
}

func (m *Memory) Show() { m.shown++ }

func (m *Memory) PollEvent() Event {
	ev, ok := <-m.events
	if !ok {
		return nil
	}
	return ev
}

// Post queues an event for PollEvent.
func (m *Memory) Post(ev Event) { m.events <- ev }

// Cell returns the staged cell at (x, y).
func (m *Memory) Cell(x, y int) core.Cell {
	if x < 0 || y < 0 || x >= m.width || y >= m.height {
		return core.Cell{}
	}
	return m.cells[y*m.width+x]
}

// Row returns the runes of row y as a string, skipping continuation
// cells. Trailing spaces are preserved.
func (m *Memory) Row(y int) string {
	runes := make([]rune, 0, m.width)
	for x := 0; x < m.width; x++ {
		c := m.Cell(x, y)
		if c.IsContinuation() {
			continue
		}
		runes = append(runes, c.Rune)
	}
	return string(runes)
}

// ShowCount returns how many times Show has been called.
func (m *Memory) ShowCount() int { return m.shown }

// CursorPos returns the cursor position and whether it is visible.
func (m *Memory) CursorPos() (x, y int, visible bool) {
	return m.cursorX, m.cursorY, !m.cursorHidden
}

var _ Backend = (*Memory)(nil)
