package app

import (
	"fmt"
	"os"
	"strings"
	"sync"

	"github.com/stanza-editor/stanza/internal/config"
	"github.com/stanza-editor/stanza/internal/config/watcher"
	"github.com/stanza-editor/stanza/internal/engine/buffer"
	"github.com/stanza-editor/stanza/internal/engine/history"
	"github.com/stanza-editor/stanza/internal/plugin"
	"github.com/stanza-editor/stanza/internal/renderer"
	"github.com/stanza-editor/stanza/internal/renderer/backend"
	"github.com/stanza-editor/stanza/internal/renderer/theme"
	"github.com/stanza-editor/stanza/internal/syntax"
	"github.com/stanza-editor/stanza/internal/syntax/filetype"
	"github.com/stanza-editor/stanza/internal/syntax/hlcache"
	"github.com/stanza-editor/stanza/internal/syntax/synfile"
)

// Application owns every long-lived editor component and the terminal
// event loop. mu guards the pieces the syntax reload goroutine touches
// concurrently with the event loop.
type Application struct {
	cfg    config.Config
	logger *Logger

	backend  backend.Backend
	renderer *renderer.Renderer
	detector *filetype.Detector
	host     *plugin.Host
	watcher  *watcher.Watcher

	mu      sync.Mutex
	graphs  map[string]*syntax.Graph
	view    *renderer.View
	history *history.Stack

	drawMu sync.Mutex
}

// New assembles an application on the given backend. The backend is
// not initialized until Run.
func New(cfg config.Config, b backend.Backend, logger *Logger) (*Application, error) {
	if logger == nil {
		logger = NullLogger
	}

	th, err := loadTheme(cfg.Theme)
	if err != nil {
		return nil, err
	}

	app := &Application{
		cfg:      cfg,
		logger:   logger,
		backend:  b,
		renderer: renderer.New(b, th, cfg.TabWidth),
		detector: filetype.NewDetector(),
	}

	if err := app.loadGraphs(); err != nil {
		return nil, err
	}

	app.host = plugin.NewHost(app.detector)
	if err := app.host.LoadDir(cfg.PluginDir); err != nil {
		app.host.Close()
		return nil, fmt.Errorf("loading plugins: %w", err)
	}

	if cfg.LiveReload {
		w, err := watcher.New(watcher.DefaultDebounce, ".syntax")
		if err != nil {
			logger.Warn("syntax watcher unavailable: %v", err)
		} else if err := w.Watch(cfg.SyntaxDir); err != nil {
			// The user syntax dir usually does not exist yet.
			logger.Debug("not watching %s: %v", cfg.SyntaxDir, err)
			w.Close()
		} else {
			app.watcher = w
		}
	}
	return app, nil
}

// loadTheme resolves a theme name or file path.
func loadTheme(name string) (*theme.Theme, error) {
	if name == "" || name == "default" {
		return theme.Builtin(), nil
	}
	if strings.ContainsRune(name, os.PathSeparator) || strings.HasSuffix(name, ".json") {
		return theme.LoadFile(name)
	}
	return nil, fmt.Errorf("unknown theme %q", name)
}

// loadGraphs compiles the built-in syntax definitions and overlays the
// user's syntax directory.
func (app *Application) loadGraphs() error {
	graphs := synfile.Builtin()
	user, err := synfile.LoadDir(app.cfg.SyntaxDir)
	if err != nil {
		return fmt.Errorf("loading syntax dir: %w", err)
	}
	for name, g := range user {
		graphs[name] = g
	}
	app.mu.Lock()
	app.graphs = graphs
	app.mu.Unlock()
	return nil
}

// OpenFile loads path into a buffer, detects its filetype, and makes
// it the displayed view. A missing file opens an empty buffer that the
// first save will create.
func (app *Application) OpenFile(path string) error {
	var buf *buffer.Buffer
	f, err := os.Open(path)
	switch {
	case err == nil:
		buf, err = buffer.NewFromReader(f)
		f.Close()
		if err != nil {
			return fmt.Errorf("reading %s: %w", path, err)
		}
	case os.IsNotExist(err):
		buf = buffer.NewFromString("")
	default:
		return fmt.Errorf("opening %s: %w", path, err)
	}
	buf.SetPath(path)

	ft := app.detector.Detect(path, []byte(buf.LineText(0)))
	ft, err = app.host.FileOpened(path, ft)
	if err != nil {
		app.logger.Warn("plugin hook failed for %s: %v", path, err)
	}
	app.logger.Info("opened %s", path)
	app.logger.Debug("filetype %q for %s", ft, path)

	app.mu.Lock()
	defer app.mu.Unlock()
	var cache *hlcache.Cache
	if g, ok := app.graphs[ft]; ok {
		cache = hlcache.New(g, buf)
		buf.AddListener(cache)
	} else if ft != "" {
		app.logger.Debug("no syntax definition for filetype %q", ft)
		ft = ""
	}
	app.view = renderer.NewView(buf, cache, ft)
	app.history = history.NewStack()
	return nil
}

// OpenScratch makes an unnamed empty buffer the displayed view.
func (app *Application) OpenScratch() {
	app.mu.Lock()
	defer app.mu.Unlock()
	app.view = renderer.NewView(buffer.NewFromString(""), nil, "")
	app.history = history.NewStack()
}

// View returns the displayed view.
func (app *Application) View() *renderer.View {
	app.mu.Lock()
	defer app.mu.Unlock()
	return app.view
}

// Save writes the view's buffer back to its path.
func (app *Application) Save() error {
	v := app.View()
	path := v.Buffer().Path()
	if path == "" {
		return fmt.Errorf("buffer has no file name")
	}
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	if _, err := v.Buffer().WriteTo(f); err != nil {
		f.Close()
		return err
	}
	if err := f.Close(); err != nil {
		return err
	}
	app.logger.Info("wrote %s", path)
	return nil
}

// reloadSyntax recompiles all graphs and reattaches the view's
// highlight cache to the new graph for its filetype.
func (app *Application) reloadSyntax() {
	if err := app.loadGraphs(); err != nil {
		app.logger.Error("syntax reload failed: %v", err)
		return
	}

	app.mu.Lock()
	defer app.mu.Unlock()
	v := app.view
	if v == nil || v.Filetype() == "" {
		return
	}
	buf := v.Buffer()
	if old := v.Cache(); old != nil {
		buf.RemoveListener(old)
	}
	if g, ok := app.graphs[v.Filetype()]; ok {
		cache := hlcache.New(g, buf)
		buf.AddListener(cache)
		v.SetCache(cache, v.Filetype())
	} else {
		v.SetCache(nil, "")
	}
	app.logger.Info("syntax definitions reloaded")
}

// Close releases everything but the backend, which Run owns.
func (app *Application) Close() {
	if app.watcher != nil {
		app.watcher.Close()
	}
	if app.host != nil {
		app.host.Close()
	}
}
