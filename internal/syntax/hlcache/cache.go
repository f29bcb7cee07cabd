// Package hlcache implements the per-buffer incremental highlight
// cache: one cached line-start state per line boundary plus a cursor
// marking the first entry that can no longer be trusted.
//
// The cache invariant is simple to state: every entry below the hole
// cursor equals what a from-scratch scan of the buffer would produce.
// Edits never run the scanner; they only shift entries and mark ranges
// untrusted. Rendering closes holes lazily, and stops early when a
// recomputed state is identical to the stale entry already stored at
// the same position, because scanning is a pure function of (state,
// line bytes).
package hlcache

import (
	"fmt"

	"github.com/stanza-editor/stanza/internal/syntax"
)

// LineSource supplies raw line bytes by line index. Line must include
// the trailing newline byte except for the buffer's final line when it
// has none.
type LineSource interface {
	// LineCount returns the number of lines in the buffer, always >= 1.
	LineCount() int

	// Line returns the bytes of line i. The slice is only read, never
	// retained past the call.
	Line(i int) []byte
}

// Cache holds the line start states for one buffer under one syntax.
// It is owned by its buffer and used only from the editor loop; there
// is no locking. Misuse (indices beyond the buffer, edit notifications
// delivered out of order) is a programming error and panics.
type Cache struct {
	scanner *syntax.Scanner
	src     LineSource

	// states[i] is the scanner state at the start of line i.
	// states[0] is the graph's start state and is never invalidated.
	// Entries at or past firstHole may be stale or StateNone.
	states    []syntax.StateID
	firstHole int
}

// New installs a fresh cache for a buffer that was just assigned the
// given syntax: only the start-of-buffer entry is known.
func New(g *syntax.Graph, src LineSource) *Cache {
	return &Cache{
		scanner:   syntax.NewScanner(g),
		src:       src,
		states:    []syntax.StateID{g.Start()},
		firstHole: 1,
	}
}

// Graph returns the graph this cache scans with.
func (c *Cache) Graph() *syntax.Graph { return c.scanner.Graph() }

// Len returns the number of line boundaries currently tracked.
func (c *Cache) Len() int { return len(c.states) }

// FirstHole returns the index of the first untrusted entry.
func (c *Cache) FirstHole() int { return c.firstHole }

// StartState returns the cached start state for a line, or StateNone
// when the entry is a hole. Exposed for tests and debugging overlays.
func (c *Cache) StartState(line int) syntax.StateID {
	if line < 0 || line >= len(c.states) {
		return syntax.StateNone
	}
	return c.states[line]
}

// EnsureValidThrough makes every start state up to and including line
// trustworthy, rescanning forward from the line before the hole. When a
// recomputed state matches the stale entry stored at the same index,
// everything up to the next hole marker is valid again without further
// scanning.
func (c *Cache) EnsureValidThrough(line int) {
	if line < 0 || line >= c.src.LineCount() {
		panic(fmt.Sprintf("hlcache: line %d out of range (%d lines)", line, c.src.LineCount()))
	}
	for c.firstHole <= line {
		c.checkInvariants()

		// The entry before the hole is valid by definition of the hole
		// cursor; scan that line to learn the next boundary state.
		idx := c.firstHole - 1
		_, end := c.scanner.ScanLine(c.states[idx], c.src.Line(idx))

		next := idx + 1
		switch {
		case next == len(c.states):
			c.states = append(c.states, end)
			c.firstHole = len(c.states)
		case c.states[next] == syntax.StateNone:
			c.states[next] = end
			c.firstHole++
		case c.states[next] == end:
			// Hole closed: the stale suffix is valid again up to the
			// next explicit hole marker.
			c.findHole(next + 1)
		default:
			c.states[next] = end
			c.firstHole = next + 1
		}
	}
}

// LineColors returns one color per byte of the given line, plus a flag
// reporting whether the following line's start state changed. The
// renderer keeps redrawing subsequent lines while the flag is true.
// The returned slice is valid until the next call on this cache.
func (c *Cache) LineColors(line int) ([]syntax.Color, bool) {
	c.EnsureValidThrough(line)
	colors, end := c.scanner.ScanLine(c.states[line], c.src.Line(line))

	next := line + 1
	nextChanged := false
	switch {
	case next == len(c.states):
		c.states = append(c.states, end)
		c.firstHole = len(c.states)
		nextChanged = true
	case c.states[next] == syntax.StateNone:
		c.states[next] = end
		// This can leave firstHole pointing at a non-hole entry; the
		// reuse check in EnsureValidThrough tolerates that.
		c.firstHole = next + 1
		nextChanged = true
	case next == c.firstHole:
		if c.states[next] == end {
			c.findHole(next + 1)
		} else {
			c.states[next] = end
			c.firstHole = next + 1
			nextChanged = true
		}
	default:
		if c.states[next] != end {
			panic(fmt.Sprintf("hlcache: valid entry at line %d disagrees with rescan; missed edit notification?", next))
		}
	}
	return colors, nextChanged
}

// LinesInserted must be called after count new lines were spliced into
// the buffer starting at index first. count may be zero for an edit
// that changed line first's bytes without changing the line count.
func (c *Cache) LinesInserted(first, count int) {
	if first < 0 || count < 0 {
		panic(fmt.Sprintf("hlcache: bad insert range %d+%d", first, count))
	}
	n := len(c.states)
	if first >= n {
		// Nothing cached at or past the edit.
		return
	}

	last := first + count
	if last+1 >= n {
		// The invalidated suffix reaches the end of the cache; stale
		// entries past the edit are not worth preserving.
		c.truncate(first + 1)
		return
	}

	if count > 0 {
		c.states = append(c.states, make([]syntax.StateID, count)...)
		copy(c.states[last+1:], c.states[first+1:n])
	}
	if first != last {
		// The moved suffix is fine, but the entries covering the new
		// lines hold unknown data. There is no per-entry validity
		// tracking beyond the hole cursor, so mark them all.
		for i := first + 1; i <= last+1; i++ {
			c.states[i] = syntax.StateNone
		}
	}
	c.newHole(first + 1)
}

// LinesDeleted must be called after count lines were removed from the
// buffer starting at index first.
func (c *Cache) LinesDeleted(first, count int) {
	if first < 0 || count < 0 {
		panic(fmt.Sprintf("hlcache: bad delete range %d+%d", first, count))
	}
	n := len(c.states)
	if n == 1 || first >= n {
		return
	}

	last := first + count
	if last+1 >= n {
		// n-count <= first+1 here, so everything kept is still valid.
		keep := n - count
		if keep < 1 {
			keep = 1
		}
		c.truncate(keep)
		return
	}

	if count > 0 {
		copy(c.states[first+1:], c.states[last+1:n])
		c.states = c.states[:n-count]
	}
	c.newHole(first + 1)
}

// LineModified must be called after an edit that changed the bytes of a
// line without changing the buffer's line count.
func (c *Cache) LineModified(line int) {
	c.LinesInserted(line, 0)
}

func (c *Cache) truncate(n int) {
	if n < 1 {
		panic(fmt.Sprintf("hlcache: truncation to %d entries would drop the start-of-buffer state", n))
	}
	c.checkInvariants()
	c.states = c.states[:n]
	if c.firstHole > n {
		c.firstHole = n
	}
}

// newHole marks idx as the first untrusted entry, keeping the cheaper
// of the two representations: moving the cursor back, or writing a
// hole marker beyond it.
func (c *Cache) newHole(idx int) {
	if idx == c.firstHole {
		return
	}
	if idx > c.firstHole {
		if idx < len(c.states) {
			c.states[idx] = syntax.StateNone
		}
		return
	}
	// The old cursor position may hold a trusted-looking entry; mark it
	// so findHole can see past boundaries restored by the reuse check.
	if c.firstHole < len(c.states) {
		c.states[c.firstHole] = syntax.StateNone
	}
	c.firstHole = idx
}

// findHole advances the cursor to the next explicit hole marker at or
// after pos.
func (c *Cache) findHole(pos int) {
	for pos < len(c.states) && c.states[pos] != syntax.StateNone {
		pos++
	}
	c.firstHole = pos
}

func (c *Cache) checkInvariants() {
	if c.firstHole < 1 || c.firstHole > len(c.states) {
		panic(fmt.Sprintf("hlcache: hole cursor %d inconsistent with %d entries", c.firstHole, len(c.states)))
	}
}
