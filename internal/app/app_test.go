package app

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stanza-editor/stanza/internal/config"
	"github.com/stanza-editor/stanza/internal/renderer/backend"
)

// testConfig points every directory at a fresh temp dir so the host
// machine's real configuration cannot leak into tests.
func testConfig(t *testing.T) config.Config {
	t.Helper()
	cfg := config.Default()
	cfg.SyntaxDir = filepath.Join(t.TempDir(), "syntax")
	cfg.PluginDir = filepath.Join(t.TempDir(), "plugins")
	cfg.LiveReload = false
	return cfg
}

func newTestApp(t *testing.T) (*Application, *backend.Memory) {
	t.Helper()
	m := backend.NewMemory(60, 10)
	app, err := New(testConfig(t), m, NullLogger)
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(app.Close)
	return app, m
}

func TestOpenFileDetectsFiletype(t *testing.T) {
	app, _ := newTestApp(t)

	path := filepath.Join(t.TempDir(), "main.go")
	if err := os.WriteFile(path, []byte("func main() {}\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	if err := app.OpenFile(path); err != nil {
		t.Fatal(err)
	}

	v := app.View()
	if v.Filetype() != "go" {
		t.Errorf("filetype = %q, want go", v.Filetype())
	}
	if v.Cache() == nil {
		t.Error("go file should have a highlight cache")
	}
	if got := v.Buffer().LineText(0); got != "func main() {}" {
		t.Errorf("line 0 = %q", got)
	}
}

func TestOpenFileUnknownType(t *testing.T) {
	app, _ := newTestApp(t)

	path := filepath.Join(t.TempDir(), "notes.xyzzy")
	if err := os.WriteFile(path, []byte("hello\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	if err := app.OpenFile(path); err != nil {
		t.Fatal(err)
	}
	v := app.View()
	if v.Filetype() != "" {
		t.Errorf("filetype = %q, want none", v.Filetype())
	}
	if v.Cache() != nil {
		t.Error("unknown filetype should have no highlight cache")
	}
}

func TestOpenFileMissing(t *testing.T) {
	app, _ := newTestApp(t)

	path := filepath.Join(t.TempDir(), "new.go")
	if err := app.OpenFile(path); err != nil {
		t.Fatal(err)
	}
	v := app.View()
	if v.Buffer().LineCount() != 1 || v.Buffer().LineText(0) != "" {
		t.Error("missing file should open empty")
	}
	if v.Buffer().Path() != path {
		t.Errorf("path = %q", v.Buffer().Path())
	}
	if v.Filetype() != "go" {
		t.Errorf("filetype = %q, detection should still use the name", v.Filetype())
	}
}

func TestSaveRoundTrip(t *testing.T) {
	app, _ := newTestApp(t)

	path := filepath.Join(t.TempDir(), "out.txt")
	if err := app.OpenFile(path); err != nil {
		t.Fatal(err)
	}
	buf := app.View().Buffer()
	if err := buf.InsertText(0, 0, "hello\nworld"); err != nil {
		t.Fatal(err)
	}
	if err := app.Save(); err != nil {
		t.Fatal(err)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	if got := string(data); got != "hello\nworld" {
		t.Errorf("file = %q", got)
	}
	if buf.Dirty() {
		t.Error("buffer should be clean after save")
	}
}

func TestSaveWithoutPath(t *testing.T) {
	app, _ := newTestApp(t)
	app.OpenScratch()
	if err := app.Save(); err == nil {
		t.Error("saving a scratch buffer should error")
	}
}

const tinySyntax = `syntax go

state start text
	char x this keyword
	eat this
`

func TestUserSyntaxOverridesBuiltin(t *testing.T) {
	cfg := testConfig(t)
	if err := os.MkdirAll(cfg.SyntaxDir, 0o755); err != nil {
		t.Fatal(err)
	}
	path := filepath.Join(cfg.SyntaxDir, "go.syntax")
	if err := os.WriteFile(path, []byte(tinySyntax), 0o644); err != nil {
		t.Fatal(err)
	}

	m := backend.NewMemory(60, 10)
	app, err := New(cfg, m, NullLogger)
	if err != nil {
		t.Fatal(err)
	}
	defer app.Close()

	app.mu.Lock()
	g := app.graphs["go"]
	app.mu.Unlock()
	if g == nil {
		t.Fatal("go graph missing")
	}
	if g.NumStates() != 1 {
		t.Errorf("user definition should have replaced the builtin, states = %d", g.NumStates())
	}
}

func TestReloadSyntaxReattachesCache(t *testing.T) {
	cfg := testConfig(t)
	m := backend.NewMemory(60, 10)
	app, err := New(cfg, m, NullLogger)
	if err != nil {
		t.Fatal(err)
	}
	defer app.Close()

	goFile := filepath.Join(t.TempDir(), "main.go")
	if err := os.WriteFile(goFile, []byte("func f() {}\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	if err := app.OpenFile(goFile); err != nil {
		t.Fatal(err)
	}
	before := app.View().Cache()
	if before == nil {
		t.Fatal("expected a cache")
	}

	// Drop a replacement go.syntax and reload.
	if err := os.MkdirAll(cfg.SyntaxDir, 0o755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(filepath.Join(cfg.SyntaxDir, "go.syntax"), []byte(tinySyntax), 0o644); err != nil {
		t.Fatal(err)
	}
	app.reloadSyntax()

	after := app.View().Cache()
	if after == nil {
		t.Fatal("cache dropped by reload")
	}
	if after == before {
		t.Error("reload should build a fresh cache")
	}
	if after.Graph().NumStates() != 1 {
		t.Error("cache not attached to the reloaded graph")
	}

	// The new cache must be listening: after an edit it should see
	// the buffer's current bytes.
	buf := app.View().Buffer()
	if err := buf.InsertText(0, 0, "x"); err != nil {
		t.Fatal(err)
	}
	colors, _ := after.LineColors(0)
	if len(colors) != len("xfunc f() {}\n") {
		t.Errorf("got %d colors after edit", len(colors))
	}
}

func TestBadPluginFailsStartup(t *testing.T) {
	cfg := testConfig(t)
	if err := os.MkdirAll(cfg.PluginDir, 0o755); err != nil {
		t.Fatal(err)
	}
	bad := filepath.Join(cfg.PluginDir, "bad.lua")
	if err := os.WriteFile(bad, []byte("this is not lua"), 0o644); err != nil {
		t.Fatal(err)
	}
	if _, err := New(cfg, backend.NewMemory(10, 4), NullLogger); err == nil {
		t.Error("broken plugin should fail startup")
	} else if !strings.Contains(err.Error(), "bad.lua") {
		t.Errorf("error %q should name the script", err)
	}
}

func TestUnknownTheme(t *testing.T) {
	cfg := testConfig(t)
	cfg.Theme = "no-such-theme"
	if _, err := New(cfg, backend.NewMemory(10, 4), NullLogger); err == nil {
		t.Error("unknown theme should fail startup")
	}
}

func TestRunQuits(t *testing.T) {
	app, m := newTestApp(t)
	app.OpenScratch()

	m.Post(backend.KeyEvent{Key: backend.KeyRune, Rune: 'q', Mod: backend.ModCtrl})
	done := make(chan error, 1)
	go func() { done <- app.Run() }()

	select {
	case err := <-done:
		if err != nil {
			t.Fatal(err)
		}
	case <-time.After(5 * time.Second):
		t.Fatal("Run did not exit on quit")
	}
	if m.ShowCount() == 0 {
		t.Error("Run should have drawn at least once")
	}
}
