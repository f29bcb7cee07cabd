package hlcache

import (
	"testing"

	"github.com/stanza-editor/stanza/internal/syntax"
)

// sliceSource is a LineSource backed by a string slice. Every line is
// newline-terminated unless noFinalNL marks the last one as bare.
type sliceSource struct {
	lines     []string
	noFinalNL bool

	// lineCalls counts Line invocations, for reuse-check tests.
	lineCalls int
}

func (s *sliceSource) LineCount() int { return len(s.lines) }

func (s *sliceSource) Line(i int) []byte {
	s.lineCalls++
	if s.noFinalNL && i == len(s.lines)-1 {
		return []byte(s.lines[i])
	}
	return []byte(s.lines[i] + "\n")
}

// failer is the sliver of testing.T that buildStringGraph needs; the
// rapid property tests pass their own test handle, which satisfies it
// too.
type failer interface {
	Helper()
	Fatal(args ...any)
}

// buildStringGraph compiles the two-state plain/string syntax used
// throughout these tests: a double quote toggles string mode, and an
// unterminated string carries into the next line.
func buildStringGraph(tb failer) (g *syntax.Graph, plain, strc syntax.Color) {
	tb.Helper()
	b := syntax.NewBuilder("string-test")
	code := b.StateRef("code")
	str := b.StateRef("string")
	plain = b.Color("plain")
	strc = b.Color("string")

	var quote syntax.ByteClass
	quote.Set('"')
	b.AddCond(code, syntax.Cond{Kind: syntax.CondByteClass, Class: &quote, Action: syntax.Action{Color: strc, Dest: str}})
	b.AddCond(str, syntax.Cond{Kind: syntax.CondByteClass, Class: &quote, Action: syntax.Action{Color: strc, Dest: code}})
	if err := b.Define(code, syntax.Action{Color: plain, Dest: code}, false); err != nil {
		tb.Fatal(err)
	}
	if err := b.Define(str, syntax.Action{Color: strc, Dest: str}, false); err != nil {
		tb.Fatal(err)
	}
	g, err := b.Build()
	if err != nil {
		tb.Fatal(err)
	}
	return g, plain, strc
}

func lineColorsCopy(c *Cache, line int) []syntax.Color {
	colors, _ := c.LineColors(line)
	return append([]syntax.Color(nil), colors...)
}

// warm fills the cache for the whole buffer.
func warm(c *Cache, src *sliceSource) {
	c.EnsureValidThrough(src.LineCount() - 1)
}

func TestNewCache(t *testing.T) {
	g, plain, _ := buildStringGraph(t)
	src := &sliceSource{lines: []string{"hello"}}
	c := New(g, src)

	if c.Len() != 1 || c.FirstHole() != 1 {
		t.Fatalf("fresh cache: len %d, hole %d; want 1, 1", c.Len(), c.FirstHole())
	}
	if c.StartState(0) != g.Start() {
		t.Error("entry 0 must be the graph start state")
	}

	colors, nextChanged := c.LineColors(0)
	for i, col := range colors {
		if col != plain {
			t.Errorf("byte %d = %v, want plain", i, col)
		}
	}
	if !nextChanged {
		t.Error("first render should report the next boundary as new")
	}
	if c.Len() != 2 || c.FirstHole() != 2 {
		t.Errorf("after render: len %d, hole %d; want 2, 2", c.Len(), c.FirstHole())
	}
}

func TestWarmCacheIsStable(t *testing.T) {
	g, _, _ := buildStringGraph(t)
	src := &sliceSource{lines: []string{`a "multi`, `line" b`, "plain"}}
	c := New(g, src)
	warm(c, src)

	for i := range src.lines {
		first := lineColorsCopy(c, i)
		again, nextChanged := c.LineColors(i)
		if nextChanged {
			t.Errorf("line %d: nextChanged on a warm cache", i)
		}
		for j := range first {
			if first[j] != again[j] {
				t.Errorf("line %d byte %d: %v then %v", i, j, first[j], again[j])
			}
		}
	}
}

func TestStringStateCarriesAcrossLines(t *testing.T) {
	g, plain, strc := buildStringGraph(t)
	src := &sliceSource{lines: []string{`open "here`, `close" done`}}
	c := New(g, src)

	colors := lineColorsCopy(c, 1)
	// `close"` continues the string opened on line 0.
	for i := 0; i < 6; i++ {
		if colors[i] != strc {
			t.Errorf("byte %d = %v, want string", i, colors[i])
		}
	}
	if colors[7] != plain {
		t.Errorf("byte 7 = %v, want plain", colors[7])
	}
}

// An edit inside a single line needs no insert/delete
// notification; the line's own colors change, and the next line's start
// state is unchanged when the line still ends in the start state.
func TestIntraLineEdit(t *testing.T) {
	g, plain, strc := buildStringGraph(t)
	src := &sliceSource{lines: []string{"say hi", "after"}}
	c := New(g, src)
	warm(c, src)

	before := lineColorsCopy(c, 0)
	for _, col := range before {
		if col != plain {
			t.Fatalf("precondition: line 0 should be all plain, got %v", before)
		}
	}

	src.lines[0] = `say "hi"`
	c.LineModified(0)

	after, nextChanged := c.LineColors(0)
	if nextChanged {
		t.Error("balanced quotes end back in the start state; nextChanged should be false")
	}
	sawString := false
	for _, col := range after {
		if col == strc {
			sawString = true
		}
	}
	if !sawString {
		t.Errorf("edited line should now contain string coloring: %v", after)
	}
}

func TestIntraLineEditChangesNextState(t *testing.T) {
	g, _, strc := buildStringGraph(t)
	src := &sliceSource{lines: []string{"aaa", "bbb"}}
	c := New(g, src)
	warm(c, src)

	src.lines[0] = `aaa "open`
	c.LineModified(0)

	_, nextChanged := c.LineColors(0)
	if !nextChanged {
		t.Error("unterminated string must change the next line's start state")
	}
	colors := lineColorsCopy(c, 1)
	for i, col := range colors {
		if col != strc {
			t.Errorf("line 1 byte %d = %v, want string", i, col)
		}
	}
}

// Inserting 3 lines at index 5 of a warm 10-line buffer
// leaves the hole cursor at 6, and asking for validity beyond the
// buffer is a fatal error.
func TestInsertMarksHole(t *testing.T) {
	g, _, _ := buildStringGraph(t)
	lines := make([]string, 10)
	for i := range lines {
		lines[i] = "x"
	}
	src := &sliceSource{lines: lines}
	c := New(g, src)
	warm(c, src)

	if c.Len() != 10 || c.FirstHole() != 10 {
		t.Fatalf("warm: len %d, hole %d; want 10, 10", c.Len(), c.FirstHole())
	}

	src.lines = append(src.lines[:5], append([]string{"", "", ""}, src.lines[5:]...)...)
	c.LinesInserted(5, 3)

	if c.FirstHole() != 6 {
		t.Errorf("firstHole = %d, want 6", c.FirstHole())
	}
	if c.Len() != 13 {
		t.Errorf("len = %d, want 13", c.Len())
	}

	defer func() {
		if recover() == nil {
			t.Error("EnsureValidThrough past the buffer should panic")
		}
	}()
	c.EnsureValidThrough(20)
}

// Deleting lines 2-4 where the shifted stale state
// matches the recomputed one closes the hole after a single rescan.
func TestDeleteReuseClosesHoleEarly(t *testing.T) {
	g, _, _ := buildStringGraph(t)
	lines := make([]string, 10)
	for i := range lines {
		lines[i] = "plain text"
	}
	src := &sliceSource{lines: lines}
	c := New(g, src)
	warm(c, src)

	src.lines = append(src.lines[:2], src.lines[5:]...)
	c.LinesDeleted(2, 3)
	if c.FirstHole() != 3 {
		t.Fatalf("firstHole = %d, want 3", c.FirstHole())
	}

	src.lineCalls = 0
	c.EnsureValidThrough(src.LineCount() - 1)

	if src.lineCalls != 1 {
		t.Errorf("reuse check should rescan exactly 1 line, rescanned %d", src.lineCalls)
	}
	if c.FirstHole() != c.Len() {
		t.Errorf("hole should be fully closed: hole %d, len %d", c.FirstHole(), c.Len())
	}
}

func TestDeleteWithoutReuseRescansSuffix(t *testing.T) {
	g, _, strc := buildStringGraph(t)
	// Line 2 opens a string that lines 3+ live inside. Deleting it
	// flips every following start state.
	src := &sliceSource{lines: []string{"a", "b", `open "`, "in string", "still in"}}
	c := New(g, src)
	warm(c, src)

	src.lines = append(src.lines[:2], src.lines[3:]...)
	c.LinesDeleted(2, 1)

	colors := lineColorsCopy(c, 2)
	for i, col := range colors {
		if col == strc {
			t.Errorf("line 2 byte %d still string-colored after delete", i)
		}
	}
}

func TestInsertNearCacheEndTruncates(t *testing.T) {
	g, _, _ := buildStringGraph(t)
	src := &sliceSource{lines: []string{"a", "b", "c", "d", "e"}}
	c := New(g, src)
	warm(c, src)

	// The invalidated suffix reaches the cache end: stale entries are
	// discarded rather than shifted.
	src.lines = append(src.lines[:4], append([]string{"n1", "n2"}, src.lines[4:]...)...)
	c.LinesInserted(4, 2)

	if c.Len() != 5 || c.FirstHole() != 5 {
		t.Errorf("len %d, hole %d; want 5, 5", c.Len(), c.FirstHole())
	}

	// No stale reads: everything recomputes cleanly.
	c.EnsureValidThrough(src.LineCount() - 1)
	if c.FirstHole() != c.Len() {
		t.Errorf("hole %d, len %d after revalidation", c.FirstHole(), c.Len())
	}
}

func TestDeleteNearCacheEndTruncates(t *testing.T) {
	g, _, _ := buildStringGraph(t)
	src := &sliceSource{lines: []string{"a", "b", "c", "d", "e"}}
	c := New(g, src)
	warm(c, src)

	src.lines = src.lines[:3]
	c.LinesDeleted(3, 2)

	if c.Len() != 3 {
		t.Errorf("len = %d, want 3", c.Len())
	}
	c.EnsureValidThrough(2)
	if c.FirstHole() < 3 {
		t.Errorf("firstHole = %d after revalidation", c.FirstHole())
	}
}

func TestDeleteBarelyWarmCacheKeepsStartEntry(t *testing.T) {
	g, _, _ := buildStringGraph(t)
	lines := make([]string, 10)
	for i := range lines {
		lines[i] = "x"
	}
	src := &sliceSource{lines: lines}
	c := New(g, src)
	c.EnsureValidThrough(1) // only the first boundaries are known

	src.lines = src.lines[4:]
	c.LinesDeleted(0, 4)

	if c.Len() < 1 || c.StartState(0) != g.Start() {
		t.Fatal("start-of-buffer entry must survive any delete")
	}
	c.EnsureValidThrough(src.LineCount() - 1)
}

func TestEditBeyondCacheIsNoop(t *testing.T) {
	g, _, _ := buildStringGraph(t)
	src := &sliceSource{lines: []string{"a", "b", "c", "d"}}
	c := New(g, src)
	// Only entry 0 exists; edits far below have nothing to invalidate.

	src.lines = append(src.lines, "e", "f")
	c.LinesInserted(4, 2)
	if c.Len() != 1 || c.FirstHole() != 1 {
		t.Errorf("len %d, hole %d; want 1, 1", c.Len(), c.FirstHole())
	}

	src.lines = src.lines[:4]
	c.LinesDeleted(4, 2)
	if c.Len() != 1 || c.FirstHole() != 1 {
		t.Errorf("len %d, hole %d; want 1, 1", c.Len(), c.FirstHole())
	}
}

// Reuse soundness: when an edit leaves the following lines' bytes and
// recomputed start state unchanged, their colors are byte-identical.
func TestReuseSoundness(t *testing.T) {
	g, _, _ := buildStringGraph(t)
	src := &sliceSource{lines: []string{`a "b" c`, "one", "two", "three"}}
	c := New(g, src)
	warm(c, src)

	before := make([][]syntax.Color, 4)
	for i := 1; i < 4; i++ {
		before[i] = lineColorsCopy(c, i)
	}

	src.lines[0] = `a "bb" c` // still balanced: line 1 start state unchanged
	c.LineModified(0)

	if _, nextChanged := c.LineColors(0); nextChanged {
		t.Fatal("edit should not change line 1's start state")
	}
	for i := 1; i < 4; i++ {
		after := lineColorsCopy(c, i)
		for j := range after {
			if after[j] != before[i][j] {
				t.Errorf("line %d byte %d changed: %v -> %v", i, j, before[i][j], after[j])
			}
		}
	}
}

func TestMissedNotificationIsFatal(t *testing.T) {
	g, _, _ := buildStringGraph(t)
	src := &sliceSource{lines: []string{"aa", "bb"}}
	c := New(g, src)
	warm(c, src)

	// Mutate line 0 without telling the cache. The rescan now
	// contradicts a trusted entry, which the cache treats as caller
	// misuse.
	src.lines[0] = `aa "`

	defer func() {
		if recover() == nil {
			t.Error("expected panic on missed edit notification")
		}
	}()
	c.LineColors(0)
}

func TestNegativeRangesPanic(t *testing.T) {
	g, _, _ := buildStringGraph(t)
	src := &sliceSource{lines: []string{"a"}}
	c := New(g, src)

	for name, fn := range map[string]func(){
		"insert": func() { c.LinesInserted(-1, 1) },
		"delete": func() { c.LinesDeleted(0, -2) },
		"ensure": func() { c.EnsureValidThrough(-1) },
	} {
		func() {
			defer func() {
				if recover() == nil {
					t.Errorf("%s: expected panic", name)
				}
			}()
			fn()
		}()
	}
}

func TestFinalLineWithoutNewline(t *testing.T) {
	g, _, strc := buildStringGraph(t)
	src := &sliceSource{lines: []string{`x "y`, `z"`}, noFinalNL: true}
	c := New(g, src)

	colors := lineColorsCopy(c, 1)
	if len(colors) != 2 {
		t.Fatalf("len = %d, want 2 (no newline byte)", len(colors))
	}
	if colors[0] != strc || colors[1] != strc {
		t.Errorf("colors = %v, want string, string", colors)
	}
}
