package app

import (
	"strings"
	"unicode/utf8"

	"github.com/stanza-editor/stanza/internal/engine/history"
	"github.com/stanza-editor/stanza/internal/renderer"
	"github.com/stanza-editor/stanza/internal/renderer/backend"
)

// Run initializes the backend and drives the event loop until the
// user quits or the backend's event stream ends.
func (app *Application) Run() error {
	if err := app.backend.Init(); err != nil {
		return err
	}
	defer app.backend.Fini()

	if app.View() == nil {
		app.OpenScratch()
	}
	app.redraw()

	if app.watcher != nil {
		go app.watchSyntax()
	}

	for {
		ev := app.backend.PollEvent()
		if ev == nil {
			return nil
		}
		switch ev := ev.(type) {
		case backend.ResizeEvent:
			app.redraw()
		case backend.KeyEvent:
			if app.handleKey(ev) {
				return nil
			}
		}
	}
}

// watchSyntax applies syntax live-reload batches until the watcher
// closes.
func (app *Application) watchSyntax() {
	changes, errs := app.watcher.Changes(), app.watcher.Errors()
	for changes != nil || errs != nil {
		select {
		case paths, ok := <-changes:
			if !ok {
				changes = nil
				continue
			}
			app.logger.Info("syntax files changed: %s", strings.Join(paths, ", "))
			app.reloadSyntax()
			app.redraw()
		case err, ok := <-errs:
			if !ok {
				errs = nil
				continue
			}
			app.logger.Error("watching %s: %v", app.cfg.SyntaxDir, err)
		}
	}
}

// redraw repaints the whole viewport. drawMu keeps the reload
// goroutine's repaints from interleaving with the event loop's.
func (app *Application) redraw() {
	app.drawMu.Lock()
	defer app.drawMu.Unlock()
	app.renderer.Draw(app.View())
}

// redrawLine repaints incrementally from an edited line.
func (app *Application) redrawLine(line int) {
	app.drawMu.Lock()
	defer app.drawMu.Unlock()
	app.renderer.DrawLineEdit(app.View(), line)
}

// handleKey applies one key event, returning true when the editor
// should exit.
func (app *Application) handleKey(ev backend.KeyEvent) bool {
	v := app.View()
	buf := v.Buffer()
	line, col := v.Cursor()
	tab := app.renderer.TabWidth()

	if ev.Key == backend.KeyRune && ev.Mod.Has(backend.ModCtrl) {
		switch ev.Rune {
		case 'q':
			return true
		case 's':
			if err := app.Save(); err != nil {
				app.logger.Error("save failed: %v", err)
			}
			app.redraw()
		case 'z':
			app.applyHistory(app.history.Undo)
		case 'y':
			app.applyHistory(app.history.Redo)
		}
		return false
	}

	switch ev.Key {
	case backend.KeyUp:
		v.MoveCursor(-1, 0, tab)
		app.redraw()
	case backend.KeyDown:
		v.MoveCursor(1, 0, tab)
		app.redraw()
	case backend.KeyLeft:
		v.MoveCursor(0, -1, tab)
		app.redraw()
	case backend.KeyRight:
		v.MoveCursor(0, 1, tab)
		app.redraw()
	case backend.KeyHome:
		v.SetCursor(line, 0)
		app.redraw()
	case backend.KeyEnd:
		v.SetCursor(line, len(buf.LineText(line)))
		app.redraw()
	case backend.KeyPageUp, backend.KeyPageDown:
		_, h := app.backend.Size()
		page := h - 1
		if page < 1 {
			page = 1
		}
		if ev.Key == backend.KeyPageUp {
			page = -page
		}
		v.MoveCursor(page, 0, tab)
		app.redraw()

	case backend.KeyEnter:
		oldText := buf.LineText(line)
		if err := buf.SplitLine(line, col); err != nil {
			app.logger.Error("split line: %v", err)
			return false
		}
		app.history.Push(&history.Op{
			StartLine: line,
			OldLines:  []string{oldText},
			NewLines:  []string{buf.LineText(line), buf.LineText(line + 1)},
			Before:    history.Position{Line: line, Col: col},
			After:     history.Position{Line: line + 1, Col: 0},
		})
		v.SetCursor(line+1, 0)
		app.redraw()

	case backend.KeyBackspace:
		switch {
		case col > 0:
			oldText := buf.LineText(line)
			_, size := utf8.DecodeLastRuneInString(oldText[:col])
			if err := buf.DeleteRange(line, col-size, line, col); err != nil {
				app.logger.Error("delete: %v", err)
				return false
			}
			app.history.Push(&history.Op{
				StartLine: line,
				OldLines:  []string{oldText},
				NewLines:  []string{buf.LineText(line)},
				Before:    history.Position{Line: line, Col: col},
				After:     history.Position{Line: line, Col: col - size},
			})
			v.SetCursor(line, col-size)
			app.redrawLine(line)
		case line > 0:
			prevText := buf.LineText(line - 1)
			curText := buf.LineText(line)
			if err := buf.JoinLines(line - 1); err != nil {
				app.logger.Error("join lines: %v", err)
				return false
			}
			app.history.Push(&history.Op{
				StartLine: line - 1,
				OldLines:  []string{prevText, curText},
				NewLines:  []string{buf.LineText(line - 1)},
				Before:    history.Position{Line: line, Col: 0},
				After:     history.Position{Line: line - 1, Col: len(prevText)},
			})
			v.SetCursor(line-1, len(prevText))
			app.redraw()
		}

	case backend.KeyDelete:
		text := buf.LineText(line)
		switch {
		case col < len(text):
			_, size := utf8.DecodeRuneInString(text[col:])
			if err := buf.DeleteRange(line, col, line, col+size); err != nil {
				app.logger.Error("delete: %v", err)
				return false
			}
			app.history.Push(&history.Op{
				StartLine: line,
				OldLines:  []string{text},
				NewLines:  []string{buf.LineText(line)},
				Before:    history.Position{Line: line, Col: col},
				After:     history.Position{Line: line, Col: col},
			})
			app.redrawLine(line)
		case line < buf.LineCount()-1:
			nextText := buf.LineText(line + 1)
			if err := buf.JoinLines(line); err != nil {
				app.logger.Error("join lines: %v", err)
				return false
			}
			app.history.Push(&history.Op{
				StartLine: line,
				OldLines:  []string{text, nextText},
				NewLines:  []string{buf.LineText(line)},
				Before:    history.Position{Line: line, Col: col},
				After:     history.Position{Line: line, Col: col},
			})
			app.redraw()
		}

	case backend.KeyTab:
		app.insertText(v, line, col, "\t")
	case backend.KeyRune:
		if ev.Mod.Has(backend.ModAlt) {
			return false
		}
		app.insertText(v, line, col, string(ev.Rune))
	}
	return false
}

func (app *Application) insertText(v *renderer.View, line, col int, text string) {
	buf := v.Buffer()
	oldText := buf.LineText(line)
	if err := buf.InsertText(line, col, text); err != nil {
		app.logger.Error("insert: %v", err)
		return
	}
	app.history.Push(&history.Op{
		StartLine: line,
		OldLines:  []string{oldText},
		NewLines:  []string{buf.LineText(line)},
		Before:    history.Position{Line: line, Col: col},
		After:     history.Position{Line: line, Col: col + len(text)},
		Coalesce:  true,
	})
	v.SetCursor(line, col+len(text))
	app.redrawLine(line)
}

// applyHistory runs an undo or redo step and moves the cursor to the
// position the op recorded.
func (app *Application) applyHistory(step func(history.Buffer) (history.Position, error)) {
	v := app.View()
	pos, err := step(v.Buffer())
	if err != nil {
		app.logger.Debug("%v", err)
		return
	}
	v.SetCursor(pos.Line, pos.Col)
	app.redraw()
}
