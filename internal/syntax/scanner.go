package syntax

import (
	"bytes"
	"fmt"
)

// Scanner runs a rule graph over single lines. It owns a reusable color
// buffer, so a Scanner belongs to one buffer's highlight machinery and
// the slice returned by ScanLine is valid only until the next call.
type Scanner struct {
	graph  *Graph
	colors []Color
}

// NewScanner creates a scanner for the given graph.
func NewScanner(g *Graph) *Scanner {
	return &Scanner{graph: g}
}

// Graph returns the graph the scanner runs.
func (s *Scanner) Graph() *Graph { return s.graph }

// ScanLine scans one line starting in the given state and returns one
// color per byte plus the state at the end of the line. The line must
// include its trailing newline byte except when it is the buffer's
// final, newline-less line; the newline is colored like any other byte.
//
// Scanning is a pure function of (start, line): identical inputs always
// produce identical output.
func (s *Scanner) ScanLine(start StateID, line []byte) ([]Color, StateID) {
	if cap(s.colors) < len(line) {
		s.colors = make([]Color, len(line))
	}
	colors := s.colors[:len(line)]
	for i := range colors {
		colors[i] = ColorKeep
	}

	state := start
	i := 0
	sidx := -1 // pending span start, -1 when no span is open

	// A well-formed graph cannot chain more non-consuming transitions
	// than it has states. Exceeding the cap means the rule compiler let
	// a default-action cycle through, which is not recoverable.
	maxIdle := 2 * (s.graph.NumStates() + 1)
	idle := 0

top:
	for i < len(line) {
		idle++
		if idle > maxIdle {
			panic(fmt.Sprintf("syntax %q: default-action cycle in state %s",
				s.graph.Name(), s.graph.State(state).Name))
		}
		ch := line[i]
		st := s.graph.State(state)
		for ci := range st.Conds {
			cond := &st.Conds[ci]
			a := cond.Action
			switch cond.Kind {
			case CondByteClassConsume:
				if cond.Class.Has(ch) {
					if sidx < 0 {
						sidx = i
					}
					colors[i] = a.Color
					i++
					state = a.Dest
					idle = 0
					continue top
				}
			case CondByteClass:
				if cond.Class.Has(ch) {
					colors[i] = a.Color
					i++
					sidx = -1
					state = a.Dest
					idle = 0
					continue top
				}
			case CondBufferExact:
				if sidx >= 0 && matchSpan(cond, line[sidx:i]) {
					fill(colors[sidx:i], a.Color)
					sidx = -1
					state = a.Dest
					continue top
				}
			case CondInListLinear, CondInListHashed:
				if sidx >= 0 && cond.List.Contains(line[sidx:i]) {
					fill(colors[sidx:i], a.Color)
					sidx = -1
					state = a.Dest
					continue top
				}
			case CondLiteral:
				n := len(cond.Str)
				if len(line)-i >= n && bytes.Equal(line[i:i+n], cond.Str) {
					fill(colors[i:i+n], a.Color)
					i += n
					sidx = -1
					state = a.Dest
					idle = 0
					continue top
				}
			case CondLiteralIgnoreCase:
				n := len(cond.Str)
				if len(line)-i >= n && equalFold(line[i:i+n], cond.Str) {
					fill(colors[i:i+n], a.Color)
					i += n
					sidx = -1
					state = a.Dest
					idle = 0
					continue top
				}
			case CondLiteral2:
				if ch == cond.Str[0] && len(line)-i > 1 && line[i+1] == cond.Str[1] {
					colors[i] = a.Color
					colors[i+1] = a.Color
					i += 2
					sidx = -1
					state = a.Dest
					idle = 0
					continue top
				}
			case CondRecolorTail:
				// Recolor conditions never consume or transition;
				// evaluation continues with the next condition.
				idx := i - cond.Tail
				if idx < 0 {
					idx = 0
				}
				fill(colors[idx:i], a.Color)
			case CondRecolorPendingSpan:
				if sidx >= 0 {
					fill(colors[sidx:i], a.Color)
					sidx = -1
				}
			}
		}

		// No condition matched: apply the default action. A NoEat
		// default is a pure state transition.
		a := st.Default
		if !st.NoEat {
			if a.Color != ColorKeep {
				colors[i] = a.Color
			}
			i++
			idle = 0
		}
		sidx = -1
		state = a.Dest
	}

	return colors, state
}

func matchSpan(cond *Cond, span []byte) bool {
	if cond.IgnoreCase {
		return equalFold(span, cond.Str)
	}
	return bytes.Equal(span, cond.Str)
}

func fill(colors []Color, c Color) {
	for i := range colors {
		colors[i] = c
	}
}
