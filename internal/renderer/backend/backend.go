// Package backend abstracts the terminal the editor draws into. The
// tcell implementation drives a real terminal; the memory
// implementation backs tests.
package backend

import "github.com/stanza-editor/stanza/internal/renderer/core"

// Backend is a grid of cells plus an input event stream.
type Backend interface {
	// Init takes over the terminal. Fini must be called before exit.
	Init() error
	Fini()

	// Size returns the grid dimensions in cells.
	Size() (width, height int)

	// SetCell stages a cell; nothing is visible until Show.
	SetCell(x, y int, c core.Cell)

	// SetCursor places the hardware cursor.
	SetCursor(x, y int)
	HideCursor()

	// Clear stages a full-screen erase.
	Clear()

	// Show flushes staged changes to the terminal.
	Show()

	// PollEvent blocks for the next input event. It returns nil after
	// Fini.
	PollEvent() Event
}

// Event is a terminal input event.
type Event interface {
	isEvent()
}

// Modifiers is a set of key modifier flags.
type Modifiers uint8

const (
	ModCtrl Modifiers = 1 << iota
	ModAlt
	ModShift
)

// Has reports whether the set contains mod.
func (m Modifiers) Has(mod Modifiers) bool { return m&mod != 0 }

// Key identifies a non-printing key.
type Key int

const (
	// KeyRune marks a printable character; the Rune field holds it.
	KeyRune Key = iota
	KeyUp
	KeyDown
	KeyLeft
	KeyRight
	KeyHome
	KeyEnd
	KeyPageUp
	KeyPageDown
	KeyEnter
	KeyBackspace
	KeyDelete
	KeyTab
	KeyEscape
)

// KeyEvent is a key press.
type KeyEvent struct {
	Key  Key
	Rune rune
	Mod  Modifiers
}

func (KeyEvent) isEvent() {}

// ResizeEvent reports the new terminal size.
type ResizeEvent struct {
	Width, Height int
}

func (ResizeEvent) isEvent() {}
