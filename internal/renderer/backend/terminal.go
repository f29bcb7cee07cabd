package backend

import (
	"github.com/gdamore/tcell/v2"

	"github.com/stanza-editor/stanza/internal/renderer/core"
)

// Terminal implements Backend on a real terminal via tcell.
type Terminal struct {
	screen tcell.Screen
}

// NewTerminal allocates a terminal backend. Init must be called before
// any drawing.
func NewTerminal() (*Terminal, error) {
	screen, err := tcell.NewScreen()
	if err != nil {
		return nil, err
	}
	return &Terminal{screen: screen}, nil
}

func (t *Terminal) Init() error {
	if err := t.screen.Init(); err != nil {
		return err
	}
	t.screen.EnablePaste()
	return nil
}

func (t *Terminal) Fini() {
	t.screen.Fini()
}

func (t *Terminal) Size() (int, int) {
	return t.screen.Size()
}

func (t *Terminal) SetCell(x, y int, c core.Cell) {
	if c.IsContinuation() {
		// tcell manages wide-rune continuation itself.
		return
	}
	t.screen.SetContent(x, y, c.Rune, nil, convertStyle(c.Style))
}

func (t *Terminal) SetCursor(x, y int) {
	t.screen.ShowCursor(x, y)
}

func (t *Terminal) HideCursor() {
	t.screen.HideCursor()
}

func (t *Terminal) Clear() {
	t.screen.Clear()
}

func (t *Terminal) Show() {
	t.screen.Show()
}

// PollEvent converts tcell events to backend events, skipping kinds
// the editor does not consume.
func (t *Terminal) PollEvent() Event {
	for {
		switch ev := t.screen.PollEvent().(type) {
		case nil:
			return nil
		case *tcell.EventResize:
			w, h := ev.Size()
			return ResizeEvent{Width: w, Height: h}
		case *tcell.EventKey:
			if ke, ok := convertKey(ev); ok {
				return ke
			}
		}
	}
}

func convertKey(ev *tcell.EventKey) (KeyEvent, bool) {
	var mod Modifiers
	if ev.Modifiers()&tcell.ModCtrl != 0 {
		mod |= ModCtrl
	}
	if ev.Modifiers()&tcell.ModAlt != 0 {
		mod |= ModAlt
	}
	if ev.Modifiers()&tcell.ModShift != 0 {
		mod |= ModShift
	}

	switch ev.Key() {
	case tcell.KeyRune:
		return KeyEvent{Key: KeyRune, Rune: ev.Rune(), Mod: mod}, true
	case tcell.KeyUp:
		return KeyEvent{Key: KeyUp, Mod: mod}, true
	case tcell.KeyDown:
		return KeyEvent{Key: KeyDown, Mod: mod}, true
	case tcell.KeyLeft:
		return KeyEvent{Key: KeyLeft, Mod: mod}, true
	case tcell.KeyRight:
		return KeyEvent{Key: KeyRight, Mod: mod}, true
	case tcell.KeyHome:
		return KeyEvent{Key: KeyHome, Mod: mod}, true
	case tcell.KeyEnd:
		return KeyEvent{Key: KeyEnd, Mod: mod}, true
	case tcell.KeyPgUp:
		return KeyEvent{Key: KeyPageUp, Mod: mod}, true
	case tcell.KeyPgDn:
		return KeyEvent{Key: KeyPageDown, Mod: mod}, true
	case tcell.KeyEnter:
		return KeyEvent{Key: KeyEnter, Mod: mod}, true
	case tcell.KeyBackspace, tcell.KeyBackspace2:
		return KeyEvent{Key: KeyBackspace, Mod: mod}, true
	case tcell.KeyDelete:
		return KeyEvent{Key: KeyDelete, Mod: mod}, true
	case tcell.KeyTab:
		return KeyEvent{Key: KeyTab, Mod: mod}, true
	case tcell.KeyEscape:
		return KeyEvent{Key: KeyEscape, Mod: mod}, true
	}

	// Ctrl-letter combinations arrive as dedicated tcell keys.
	if k := ev.Key(); k >= tcell.KeyCtrlA && k <= tcell.KeyCtrlZ {
		return KeyEvent{
			Key:  KeyRune,
			Rune: rune('a' + int(k) - int(tcell.KeyCtrlA)),
			Mod:  mod | ModCtrl,
		}, true
	}
	return KeyEvent{}, false
}

func convertStyle(s core.Style) tcell.Style {
	style := tcell.StyleDefault
	if !s.Foreground.Default {
		style = style.Foreground(convertColor(s.Foreground))
	}
	if !s.Background.Default {
		style = style.Background(convertColor(s.Background))
	}
	if s.Attributes.Has(core.AttrBold) {
		style = style.Bold(true)
	}
	if s.Attributes.Has(core.AttrItalic) {
		style = style.Italic(true)
	}
	if s.Attributes.Has(core.AttrUnderline) {
		style = style.Underline(true)
	}
	if s.Attributes.Has(core.AttrReverse) {
		style = style.Reverse(true)
	}
	if s.Attributes.Has(core.AttrDim) {
		style = style.Dim(true)
	}
	return style
}

func convertColor(c core.Color) tcell.Color {
	if c.Indexed {
		return tcell.PaletteColor(int(c.R))
	}
	return tcell.NewRGBColor(int32(c.R), int32(c.G), int32(c.B))
}

var _ Backend = (*Terminal)(nil)
