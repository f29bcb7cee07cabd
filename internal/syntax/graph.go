package syntax

import "fmt"

// StateID identifies a state within a Graph's state table.
// States are interned by the graph, so two StateIDs are the same state
// exactly when they are equal. StateNone marks the absence of a state.
type StateID int32

// StateNone is the invalid state handle.
const StateNone StateID = -1

// Color is an opaque color handle assigned at graph compile time.
// The scanner only stores and compares colors; resolving a Color to a
// terminal style is the theme layer's job.
type Color int32

// ColorKeep means "keep whatever color the byte already has". It is the
// emit color of non-consuming default actions.
const ColorKeep Color = -1

// Action is the outcome of a matched condition or a state's default:
// an emit color and a destination state.
type Action struct {
	Color Color
	Dest  StateID
}

// CondKind discriminates the condition variants.
type CondKind uint8

const (
	// CondByteClassConsume consumes a byte in the class and opens or
	// extends the pending span.
	CondByteClassConsume CondKind = iota

	// CondByteClass consumes a byte in the class and abandons any
	// pending span.
	CondByteClass

	// CondBufferExact matches the pending span against a fixed string.
	CondBufferExact

	// CondInListLinear matches the pending span against a word list by
	// linear scan.
	CondInListLinear

	// CondInListHashed matches the pending span against a word list via
	// hash buckets.
	CondInListHashed

	// CondLiteral matches a fixed string at the current position.
	CondLiteral

	// CondLiteralIgnoreCase is CondLiteral with ASCII case folding.
	CondLiteralIgnoreCase

	// CondLiteral2 is the 2-byte case-sensitive literal fast path.
	CondLiteral2

	// CondRecolorTail rewrites the color of the last Tail emitted bytes.
	// It never consumes and never transitions.
	CondRecolorTail

	// CondRecolorPendingSpan rewrites the color of the pending span and
	// clears it. It never consumes and never transitions.
	CondRecolorPendingSpan
)

// String returns the condition kind name used in error messages.
func (k CondKind) String() string {
	switch k {
	case CondByteClassConsume:
		return "char -b"
	case CondByteClass:
		return "char"
	case CondBufferExact:
		return "bufis"
	case CondInListLinear:
		return "inlist"
	case CondInListHashed:
		return "inlist -h"
	case CondLiteral:
		return "str"
	case CondLiteralIgnoreCase:
		return "istr"
	case CondLiteral2:
		return "str2"
	case CondRecolorTail:
		return "recolor"
	case CondRecolorPendingSpan:
		return "recolor buffer"
	default:
		return "unknown"
	}
}

// Cond is a single condition in a state's priority list. Kind selects
// the variant; the other fields are meaningful only for the kinds that
// use them.
type Cond struct {
	Kind CondKind

	// Class is the byte bit-set for the byte-class kinds.
	Class *ByteClass

	// Str is the literal for CondLiteral* and CondBufferExact.
	Str []byte

	// IgnoreCase enables ASCII case folding for CondBufferExact.
	IgnoreCase bool

	// List is the word set for the in-list kinds.
	List *StringSet

	// Tail is the recolor length for CondRecolorTail.
	Tail int

	// Action is applied when the condition wins. For the recolor kinds
	// only Action.Color is used.
	Action Action
}

// State is one node of the rule graph: an ordered condition list and a
// default action. Immutable once the graph is built.
type State struct {
	// Name is the state's name from the syntax definition, kept for
	// diagnostics.
	Name string

	// Conds are evaluated in order; the first match wins.
	Conds []Cond

	// Default is applied when no condition matches.
	Default Action

	// NoEat makes the default action a pure transition that consumes
	// nothing. The rule compiler must guarantee every NoEat cycle
	// eventually consumes; the scanner treats violations as fatal.
	NoEat bool
}

// Graph is a compiled, immutable syntax definition. It is shared
// read-only between all buffers using the same syntax.
type Graph struct {
	name       string
	states     []State
	start      StateID
	colorNames []string
}

// Name returns the syntax name (e.g. "go", "c").
func (g *Graph) Name() string { return g.name }

// Start returns the designated start state.
func (g *Graph) Start() StateID { return g.start }

// NumStates returns the number of interned states.
func (g *Graph) NumStates() int { return len(g.states) }

// State returns the state for a handle. The returned pointer aliases
// graph-owned memory and must not be mutated.
func (g *Graph) State(id StateID) *State {
	return &g.states[id]
}

// StateByName looks a state up by its definition name.
func (g *Graph) StateByName(name string) (StateID, bool) {
	for i := range g.states {
		if g.states[i].Name == name {
			return StateID(i), true
		}
	}
	return StateNone, false
}

// NumColors returns the number of distinct colors the graph emits.
func (g *Graph) NumColors() int { return len(g.colorNames) }

// ColorName returns the name a color handle was compiled from.
// ColorKeep has no name.
func (g *Graph) ColorName(c Color) string {
	if c < 0 || int(c) >= len(g.colorNames) {
		return ""
	}
	return g.colorNames[c]
}

// ColorNames returns all color names, indexed by Color handle.
func (g *Graph) ColorNames() []string {
	names := make([]string, len(g.colorNames))
	copy(names, g.colorNames)
	return names
}

// ByteClass is a 256-bit set of byte values.
type ByteClass [32]byte

// Set adds a byte to the class.
func (b *ByteClass) Set(c byte) {
	b[c>>3] |= 1 << (c & 7)
}

// SetRange adds the inclusive byte range [lo, hi].
func (b *ByteClass) SetRange(lo, hi byte) {
	for c := int(lo); c <= int(hi); c++ {
		b.Set(byte(c))
	}
}

// SetString adds every byte of s.
func (b *ByteClass) SetString(s string) {
	for i := 0; i < len(s); i++ {
		b.Set(s[i])
	}
}

// Invert flips the class to its complement.
func (b *ByteClass) Invert() {
	for i := range b {
		b[i] = ^b[i]
	}
}

// Has reports whether the class contains c.
func (b *ByteClass) Has(c byte) bool {
	return b[c>>3]&(1<<(c&7)) != 0
}

// Validate checks internal graph consistency: every destination must
// reference an interned state and recolor lengths must be positive.
// The builder calls this; it is exposed for loaders that assemble
// graphs directly.
func (g *Graph) Validate() error {
	if len(g.states) == 0 {
		return fmt.Errorf("syntax %q: no states", g.name)
	}
	if g.start < 0 || int(g.start) >= len(g.states) {
		return fmt.Errorf("syntax %q: start state out of range", g.name)
	}
	for i := range g.states {
		st := &g.states[i]
		if err := g.checkDest(st.Name, "default", st.Default.Dest); err != nil {
			return err
		}
		for ci := range st.Conds {
			c := &st.Conds[ci]
			switch c.Kind {
			case CondRecolorTail:
				if c.Tail <= 0 {
					return fmt.Errorf("syntax %q: state %s: recolor length must be positive", g.name, st.Name)
				}
			case CondRecolorPendingSpan:
				// No destination to check.
			default:
				if err := g.checkDest(st.Name, c.Kind.String(), c.Action.Dest); err != nil {
					return err
				}
			}
		}
	}
	return nil
}

func (g *Graph) checkDest(state, what string, dest StateID) error {
	if dest < 0 || int(dest) >= len(g.states) {
		return fmt.Errorf("syntax %q: state %s: %s destination out of range", g.name, state, what)
	}
	return nil
}
