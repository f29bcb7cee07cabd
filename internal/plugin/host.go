// Package plugin hosts user Lua scripts.
//
// Scripts run in a sandboxed interpreter: only the base, string, table
// and math libraries are open, so plugins cannot touch the filesystem
// or spawn processes. The editor exposes one global table, stanza, with
// functions for extending filetype detection and hooking file opens.
package plugin

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"sync"

	lua "github.com/yuin/gopher-lua"

	"github.com/stanza-editor/stanza/internal/syntax/filetype"
)

// ErrHostClosed is returned when a closed host is used.
var ErrHostClosed = errors.New("plugin host closed")

// Host owns one Lua interpreter shared by all loaded scripts.
//
// gopher-lua states are not goroutine-safe; the mutex serializes all
// access so the host can be called from any goroutine.
type Host struct {
	mu       sync.Mutex
	L        *lua.LState
	closed   bool
	detector *filetype.Detector
	onOpen   []*lua.LFunction
}

// NewHost creates a sandboxed Lua host. Filetype registrations made by
// scripts land in det.
func NewHost(det *filetype.Detector) *Host {
	L := lua.NewState(lua.Options{SkipOpenLibs: true})

	// Only side-effect-free stdlib. io, os, debug and package stay
	// closed; plugins get their capabilities through the stanza table.
	lua.OpenBase(L)
	lua.OpenTable(L)
	lua.OpenString(L)
	lua.OpenMath(L)
	for _, name := range []string{"dofile", "loadfile", "load", "loadstring"} {
		L.SetGlobal(name, lua.LNil)
	}

	h := &Host{L: L, detector: det}
	mod := L.SetFuncs(L.NewTable(), map[string]lua.LGFunction{
		"on_open": h.luaOnOpen,
	})
	ftMod := L.SetFuncs(L.NewTable(), map[string]lua.LGFunction{
		"extension":   h.luaFiletype(filetype.DetectExtension),
		"basename":    h.luaFiletype(filetype.DetectBasename),
		"filename":    h.luaFiletype(filetype.DetectFilename),
		"content":     h.luaFiletype(filetype.DetectContent),
		"interpreter": h.luaFiletype(filetype.DetectInterpreter),
	})
	L.SetField(mod, "filetype", ftMod)
	L.SetGlobal("stanza", mod)
	return h
}

// luaFiletype adapts Detector.AddRule to a Lua function taking
// (filetype, pattern). Registration failures raise a Lua error so the
// offending script line is reported.
func (h *Host) luaFiletype(kind filetype.DetectKind) lua.LGFunction {
	return func(L *lua.LState) int {
		name := L.CheckString(1)
		pattern := L.CheckString(2)
		if err := h.detector.AddRule(name, pattern, kind); err != nil {
			L.RaiseError("%s", err)
		}
		return 0
	}
}

// luaOnOpen registers a callback invoked when a file is opened. The
// callback receives (path, filetype) and may return a replacement
// filetype name.
func (h *Host) luaOnOpen(L *lua.LState) int {
	fn := L.CheckFunction(1)
	h.onOpen = append(h.onOpen, fn)
	return 0
}

// RunString executes Lua source. Used by tests and the command line.
func (h *Host) RunString(code string) error {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.closed {
		return ErrHostClosed
	}
	return h.protect(func() error { return h.L.DoString(code) })
}

// RunFile executes one script file.
func (h *Host) RunFile(path string) error {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.closed {
		return ErrHostClosed
	}
	return h.protect(func() error { return h.L.DoFile(path) })
}

// LoadDir runs every *.lua file in dir in name order. A missing
// directory is not an error. The first failing script stops loading.
func (h *Host) LoadDir(dir string) error {
	entries, err := os.ReadDir(dir)
	if err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return err
	}
	var paths []string
	for _, e := range entries {
		if !e.IsDir() && filepath.Ext(e.Name()) == ".lua" {
			paths = append(paths, filepath.Join(dir, e.Name()))
		}
	}
	sort.Strings(paths)
	for _, p := range paths {
		if err := h.RunFile(p); err != nil {
			return fmt.Errorf("plugin %s: %w", filepath.Base(p), err)
		}
	}
	return nil
}

// FileOpened runs the registered on_open hooks for a newly opened
// file and returns the filetype to use, which is ft unless a hook
// returned a non-empty string. Hook errors are returned with the
// last successful filetype.
func (h *Host) FileOpened(path, ft string) (string, error) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.closed {
		return ft, ErrHostClosed
	}
	for _, fn := range h.onOpen {
		var ret lua.LValue
		err := h.protect(func() error {
			h.L.Push(fn)
			h.L.Push(lua.LString(path))
			h.L.Push(lua.LString(ft))
			if err := h.L.PCall(2, 1, nil); err != nil {
				return err
			}
			ret = h.L.Get(-1)
			h.L.Pop(1)
			return nil
		})
		if err != nil {
			return ft, err
		}
		if s, ok := ret.(lua.LString); ok && s != "" {
			ft = string(s)
		}
	}
	return ft, nil
}

// protect runs fn with panic recovery; gopher-lua panics on some
// internal errors instead of returning them.
func (h *Host) protect(fn func() error) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("lua panic: %v", r)
		}
	}()
	return fn()
}

// Close releases the interpreter. Further calls return ErrHostClosed.
func (h *Host) Close() {
	h.mu.Lock()
	defer h.mu.Unlock()
	if !h.closed {
		h.L.Close()
		h.closed = true
	}
}
