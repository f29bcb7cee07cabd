package syntax

import "fmt"

// Builder assembles a Graph. States and colors may be referenced before
// they are defined; Build reports any reference that was never
// resolved. The syntax-file compiler and the tests both construct
// graphs through a Builder.
type Builder struct {
	name     string
	states   []State
	defined  []bool
	stateIDs map[string]StateID
	colors   []string
	colorIDs map[string]Color
}

// NewBuilder starts a graph for the named syntax.
func NewBuilder(name string) *Builder {
	return &Builder{
		name:     name,
		stateIDs: make(map[string]StateID),
		colorIDs: make(map[string]Color),
	}
}

// StateRef interns a state name and returns its handle, creating a
// forward reference if the state has not been defined yet. The first
// state referenced or defined becomes the start state.
func (b *Builder) StateRef(name string) StateID {
	if id, ok := b.stateIDs[name]; ok {
		return id
	}
	id := StateID(len(b.states))
	b.states = append(b.states, State{Name: name})
	b.defined = append(b.defined, false)
	b.stateIDs[name] = id
	return id
}

// Color interns a color name and returns its handle.
func (b *Builder) Color(name string) Color {
	if id, ok := b.colorIDs[name]; ok {
		return id
	}
	id := Color(len(b.colors))
	b.colors = append(b.colors, name)
	b.colorIDs[name] = id
	return id
}

// Define marks a state as defined and sets its default action.
// Defining the same state twice is an error.
func (b *Builder) Define(id StateID, def Action, noEat bool) error {
	if b.defined[id] {
		return fmt.Errorf("syntax %q: state %s defined twice", b.name, b.states[id].Name)
	}
	b.defined[id] = true
	b.states[id].Default = def
	b.states[id].NoEat = noEat
	return nil
}

// AddCond appends a condition to a state's priority list. Conditions
// are evaluated in the order they were added. Literal and buffer-exact
// strings are pre-folded here when the condition is case-insensitive,
// and 2-byte case-sensitive literals are rewritten to the fast path.
func (b *Builder) AddCond(id StateID, c Cond) {
	switch c.Kind {
	case CondLiteral:
		if len(c.Str) == 2 {
			c.Kind = CondLiteral2
		}
	case CondLiteralIgnoreCase, CondBufferExact:
		if c.Kind == CondLiteralIgnoreCase || c.IgnoreCase {
			c.Str = []byte(foldASCII(string(c.Str)))
		}
	}
	b.states[id].Conds = append(b.states[id].Conds, c)
}

// Build finalizes the graph. Every referenced state must have been
// defined.
func (b *Builder) Build() (*Graph, error) {
	for i, ok := range b.defined {
		if !ok {
			return nil, fmt.Errorf("syntax %q: state %s referenced but never defined", b.name, b.states[i].Name)
		}
	}
	g := &Graph{
		name:       b.name,
		states:     b.states,
		start:      0,
		colorNames: b.colors,
	}
	if err := g.Validate(); err != nil {
		return nil, err
	}
	return g, nil
}
