package syntax

import "testing"

func TestByteClassSetHas(t *testing.T) {
	var bc ByteClass

	bc.Set('a')
	bc.Set(0)
	bc.Set(255)

	if !bc.Has('a') || !bc.Has(0) || !bc.Has(255) {
		t.Error("Has should report set bytes")
	}
	if bc.Has('b') || bc.Has(254) {
		t.Error("Has should not report unset bytes")
	}
}

func TestByteClassRange(t *testing.T) {
	var bc ByteClass
	bc.SetRange('a', 'z')

	for c := byte('a'); c <= 'z'; c++ {
		if !bc.Has(c) {
			t.Errorf("range should contain %q", c)
		}
	}
	if bc.Has('A') || bc.Has('`') || bc.Has('{') {
		t.Error("range should not contain bytes outside [a, z]")
	}
}

func TestByteClassInvert(t *testing.T) {
	var bc ByteClass
	bc.SetString("abc")
	bc.Invert()

	if bc.Has('a') || bc.Has('b') || bc.Has('c') {
		t.Error("inverted class should exclude original bytes")
	}
	if !bc.Has('d') || !bc.Has('\n') || !bc.Has(0) {
		t.Error("inverted class should include everything else")
	}
}

func TestStringSetLinear(t *testing.T) {
	s := NewStringSet([]string{"if", "else", "for"}, false)

	if s.Hashed() {
		t.Error("small set should use linear scan")
	}
	if !s.Contains([]byte("if")) || !s.Contains([]byte("for")) {
		t.Error("Contains should find member words")
	}
	if s.Contains([]byte("i")) || s.Contains([]byte("iff")) || s.Contains([]byte("IF")) {
		t.Error("Contains should require exact length and bytes")
	}
}

func TestStringSetHashed(t *testing.T) {
	words := []string{"break", "case", "chan", "const", "continue", "default", "defer", "else", "for", "func"}
	s := NewStringSet(words, false)

	if !s.Hashed() {
		t.Errorf("set of %d words should be hashed", len(words))
	}
	for _, w := range words {
		if !s.Contains([]byte(w)) {
			t.Errorf("Contains(%q) = false, want true", w)
		}
	}
	if s.Contains([]byte("fun")) || s.Contains([]byte("funcs")) {
		t.Error("Contains should reject non-members")
	}
}

func TestStringSetIgnoreCase(t *testing.T) {
	for _, hashed := range []bool{false, true} {
		words := []string{"SELECT", "from"}
		if hashed {
			words = append(words, "a", "b", "c", "d", "e", "f")
		}
		s := NewStringSet(words, true)

		if s.Hashed() != hashed {
			t.Fatalf("Hashed() = %v, want %v", s.Hashed(), hashed)
		}
		for _, probe := range []string{"select", "SELECT", "SeLeCt", "FROM"} {
			if !s.Contains([]byte(probe)) {
				t.Errorf("hashed=%v: Contains(%q) = false, want true", hashed, probe)
			}
		}
		if s.Contains([]byte("selec")) {
			t.Errorf("hashed=%v: truncated word should not match", hashed)
		}
	}
}

func TestBuilderInternsStatesAndColors(t *testing.T) {
	b := NewBuilder("test")

	s0 := b.StateRef("start")
	if again := b.StateRef("start"); again != s0 {
		t.Errorf("StateRef should intern: got %d and %d", s0, again)
	}
	c0 := b.Color("plain")
	if again := b.Color("plain"); again != c0 {
		t.Errorf("Color should intern: got %d and %d", c0, again)
	}
	if other := b.Color("string"); other == c0 {
		t.Error("distinct color names should get distinct handles")
	}
}

func TestBuilderUndefinedState(t *testing.T) {
	b := NewBuilder("test")
	s0 := b.StateRef("start")
	missing := b.StateRef("missing")
	if err := b.Define(s0, Action{Color: b.Color("plain"), Dest: missing}, false); err != nil {
		t.Fatalf("Define: %v", err)
	}

	if _, err := b.Build(); err == nil {
		t.Error("Build should fail when a referenced state is never defined")
	}
}

func TestBuilderDoubleDefine(t *testing.T) {
	b := NewBuilder("test")
	s0 := b.StateRef("start")
	def := Action{Color: b.Color("plain"), Dest: s0}
	if err := b.Define(s0, def, false); err != nil {
		t.Fatalf("first Define: %v", err)
	}
	if err := b.Define(s0, def, false); err == nil {
		t.Error("second Define of the same state should fail")
	}
}

func TestBuilderLiteral2Rewrite(t *testing.T) {
	b := NewBuilder("test")
	s0 := b.StateRef("start")
	b.AddCond(s0, Cond{
		Kind:   CondLiteral,
		Str:    []byte("//"),
		Action: Action{Color: b.Color("comment"), Dest: s0},
	})
	if err := b.Define(s0, Action{Color: b.Color("plain"), Dest: s0}, false); err != nil {
		t.Fatalf("Define: %v", err)
	}
	g, err := b.Build()
	if err != nil {
		t.Fatalf("Build: %v", err)
	}

	if got := g.State(0).Conds[0].Kind; got != CondLiteral2 {
		t.Errorf("2-byte literal should compile to CondLiteral2, got %v", got)
	}
}

func TestGraphStateByName(t *testing.T) {
	b := NewBuilder("test")
	s0 := b.StateRef("start")
	other := b.StateRef("other")
	def := Action{Color: b.Color("plain"), Dest: s0}
	if err := b.Define(s0, def, false); err != nil {
		t.Fatal(err)
	}
	if err := b.Define(other, def, false); err != nil {
		t.Fatal(err)
	}
	g, err := b.Build()
	if err != nil {
		t.Fatal(err)
	}

	if id, ok := g.StateByName("other"); !ok || id != other {
		t.Errorf("StateByName(other) = %d, %v", id, ok)
	}
	if _, ok := g.StateByName("nope"); ok {
		t.Error("StateByName should miss unknown names")
	}
	if g.Start() != s0 {
		t.Errorf("first defined state should be the start state, got %d", g.Start())
	}
}

func TestGraphColorNames(t *testing.T) {
	b := NewBuilder("test")
	s0 := b.StateRef("start")
	plain := b.Color("plain")
	str := b.Color("string")
	if err := b.Define(s0, Action{Color: plain, Dest: s0}, false); err != nil {
		t.Fatal(err)
	}
	g, err := b.Build()
	if err != nil {
		t.Fatal(err)
	}

	if g.NumColors() != 2 {
		t.Fatalf("NumColors = %d, want 2", g.NumColors())
	}
	if g.ColorName(plain) != "plain" || g.ColorName(str) != "string" {
		t.Error("ColorName should return the compiled names")
	}
	if g.ColorName(ColorKeep) != "" {
		t.Error("ColorKeep has no name")
	}
}
