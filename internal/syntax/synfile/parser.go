// Package synfile compiles syntax definition files into rule graphs.
//
// A definition is a line-oriented command file:
//
//	syntax go
//
//	list keywords break case chan const continue default defer else
//	list -i months jan feb mar
//
//	state code
//	  char -b a-zA-Z_ word
//	  char \" string string
//	  str // linecomment comment
//	  eat this
//
//	state word ident
//	  char -b a-zA-Z0-9_ this
//	  inlist keywords code keyword
//	  noeat code
//
//	state string string
//	  char " code
//	  eat this
//
//	state linecomment comment
//	  eat this
//
// Each state block lists conditions in priority order and ends with its
// default action, `eat DEST [COLOR]` or `noeat DEST`. `this` names the
// state being defined. An omitted color defaults to the state's color,
// which defaults to the state's name.
package synfile

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/stanza-editor/stanza/internal/syntax"
)

// ParseError reports a malformed definition with its position.
type ParseError struct {
	Path string
	Line int
	Msg  string
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("%s:%d: %s", e.Path, e.Line, e.Msg)
}

// parser holds the state of one compilation.
type parser struct {
	path    string
	line    int
	builder *syntax.Builder
	lists   map[string]*syntax.StringSet

	// current state block
	cur        syntax.StateID
	curOpen    bool
	curName    string
	curColor   string
	haveSyntax bool
}

// Parse compiles a definition read from r. path is used in error
// messages only.
func Parse(r io.Reader, path string) (*syntax.Graph, error) {
	p := &parser{
		path:  path,
		lists: make(map[string]*syntax.StringSet),
		cur:   syntax.StateNone,
	}

	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	for scanner.Scan() {
		p.line++
		if err := p.command(scanner.Text()); err != nil {
			return nil, err
		}
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("reading %s: %w", path, err)
	}

	if !p.haveSyntax {
		return nil, p.errf("missing syntax declaration")
	}
	if err := p.closeState(); err != nil {
		return nil, err
	}
	g, err := p.builder.Build()
	if err != nil {
		return nil, &ParseError{Path: p.path, Line: p.line, Msg: err.Error()}
	}
	return g, nil
}

// LoadFile compiles the definition stored at path.
func LoadFile(path string) (*syntax.Graph, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	return Parse(f, path)
}

// LoadDir compiles every *.syntax file in dir, keyed by syntax name.
// A directory that does not exist yields an empty map.
func LoadDir(dir string) (map[string]*syntax.Graph, error) {
	matches, err := filepath.Glob(filepath.Join(dir, "*.syntax"))
	if err != nil {
		return nil, err
	}
	graphs := make(map[string]*syntax.Graph, len(matches))
	for _, path := range matches {
		g, err := LoadFile(path)
		if err != nil {
			return nil, err
		}
		graphs[g.Name()] = g
	}
	return graphs, nil
}

func (p *parser) errf(format string, args ...any) error {
	return &ParseError{Path: p.path, Line: p.line, Msg: fmt.Sprintf(format, args...)}
}

func (p *parser) command(text string) error {
	args, err := splitFields(text)
	if err != nil {
		return p.errf("%s", err)
	}
	if len(args) == 0 {
		return nil
	}
	cmd, args := args[0], args[1:]

	if cmd == "syntax" {
		if p.haveSyntax {
			return p.errf("duplicate syntax declaration")
		}
		if len(args) != 1 {
			return p.errf("syntax needs exactly one name")
		}
		p.haveSyntax = true
		p.builder = syntax.NewBuilder(args[0])
		return nil
	}
	if !p.haveSyntax {
		return p.errf("%s before syntax declaration", cmd)
	}

	switch cmd {
	case "list":
		return p.cmdList(args)
	case "state":
		return p.cmdState(args)
	case "char":
		return p.cmdChar(args)
	case "str", "istr":
		return p.cmdStr(cmd, args)
	case "bufis":
		return p.cmdBufis(args)
	case "inlist":
		return p.cmdInList(args)
	case "recolor":
		return p.cmdRecolor(args)
	case "eat":
		return p.cmdEat(args)
	case "noeat":
		return p.cmdNoEat(args)
	default:
		return p.errf("unknown command %q", cmd)
	}
}

func (p *parser) cmdList(args []string) error {
	ignoreCase := false
	if len(args) > 0 && args[0] == "-i" {
		ignoreCase = true
		args = args[1:]
	}
	if len(args) < 2 {
		return p.errf("list needs a name and at least one word")
	}
	name := args[0]
	if _, dup := p.lists[name]; dup {
		return p.errf("list %q defined twice", name)
	}
	p.lists[name] = syntax.NewStringSet(args[1:], ignoreCase)
	return nil
}

func (p *parser) cmdState(args []string) error {
	if err := p.closeState(); err != nil {
		return err
	}
	if len(args) < 1 || len(args) > 2 {
		return p.errf("state needs a name and an optional color")
	}
	p.curName = args[0]
	p.curColor = args[0]
	if len(args) == 2 {
		p.curColor = args[1]
	}
	p.cur = p.builder.StateRef(p.curName)
	p.curOpen = true
	return nil
}

// closeState verifies the open state block was terminated by a default
// action.
func (p *parser) closeState() error {
	if p.curOpen {
		return p.errf("state %s has no default action (eat or noeat)", p.curName)
	}
	return nil
}

// needState guards condition commands appearing outside a state block.
func (p *parser) needState(cmd string) error {
	if p.cur == syntax.StateNone {
		return p.errf("%s outside a state block", cmd)
	}
	if !p.curOpen {
		return p.errf("%s after the state's default action", cmd)
	}
	return nil
}

func (p *parser) cmdChar(args []string) error {
	if err := p.needState("char"); err != nil {
		return err
	}
	buffered, negate := false, false
	for len(args) > 0 && strings.HasPrefix(args[0], "-") && len(args[0]) > 1 {
		switch args[0] {
		case "-b":
			buffered = true
		case "-n":
			negate = true
		default:
			return p.errf("char: unknown flag %q", args[0])
		}
		args = args[1:]
	}
	if len(args) < 2 || len(args) > 3 {
		return p.errf("char needs a character set, a destination and an optional color")
	}
	class, err := parseByteClass(args[0])
	if err != nil {
		return p.errf("char: %s", err)
	}
	if negate {
		class.Invert()
	}
	kind := syntax.CondByteClass
	if buffered {
		kind = syntax.CondByteClassConsume
	}
	p.builder.AddCond(p.cur, syntax.Cond{
		Kind:   kind,
		Class:  class,
		Action: p.action(args[1], args[2:]),
	})
	return nil
}

func (p *parser) cmdStr(cmd string, args []string) error {
	if err := p.needState(cmd); err != nil {
		return err
	}
	if len(args) < 2 || len(args) > 3 {
		return p.errf("%s needs a string, a destination and an optional color", cmd)
	}
	if args[0] == "" {
		return p.errf("%s: empty string", cmd)
	}
	kind := syntax.CondLiteral
	if cmd == "istr" {
		kind = syntax.CondLiteralIgnoreCase
	}
	p.builder.AddCond(p.cur, syntax.Cond{
		Kind:   kind,
		Str:    []byte(args[0]),
		Action: p.action(args[1], args[2:]),
	})
	return nil
}

func (p *parser) cmdBufis(args []string) error {
	if err := p.needState("bufis"); err != nil {
		return err
	}
	ignoreCase := false
	if len(args) > 0 && args[0] == "-i" {
		ignoreCase = true
		args = args[1:]
	}
	if len(args) < 2 || len(args) > 3 {
		return p.errf("bufis needs a string, a destination and an optional color")
	}
	p.builder.AddCond(p.cur, syntax.Cond{
		Kind:       syntax.CondBufferExact,
		Str:        []byte(args[0]),
		IgnoreCase: ignoreCase,
		Action:     p.action(args[1], args[2:]),
	})
	return nil
}

func (p *parser) cmdInList(args []string) error {
	if err := p.needState("inlist"); err != nil {
		return err
	}
	if len(args) < 2 || len(args) > 3 {
		return p.errf("inlist needs a list name, a destination and an optional color")
	}
	list, ok := p.lists[args[0]]
	if !ok {
		return p.errf("inlist: unknown list %q", args[0])
	}
	kind := syntax.CondInListLinear
	if list.Hashed() {
		kind = syntax.CondInListHashed
	}
	p.builder.AddCond(p.cur, syntax.Cond{
		Kind:   kind,
		List:   list,
		Action: p.action(args[1], args[2:]),
	})
	return nil
}

func (p *parser) cmdRecolor(args []string) error {
	if err := p.needState("recolor"); err != nil {
		return err
	}
	switch len(args) {
	case 1:
		p.builder.AddCond(p.cur, syntax.Cond{
			Kind:   syntax.CondRecolorPendingSpan,
			Action: syntax.Action{Color: p.builder.Color(args[0]), Dest: syntax.StateNone},
		})
		return nil
	case 2:
		n, err := strconv.Atoi(args[1])
		if err != nil || n <= 0 {
			return p.errf("recolor: count must be a positive integer")
		}
		p.builder.AddCond(p.cur, syntax.Cond{
			Kind:   syntax.CondRecolorTail,
			Tail:   n,
			Action: syntax.Action{Color: p.builder.Color(args[0]), Dest: syntax.StateNone},
		})
		return nil
	default:
		return p.errf("recolor needs a color and an optional count")
	}
}

func (p *parser) cmdEat(args []string) error {
	if err := p.needState("eat"); err != nil {
		return err
	}
	if len(args) < 1 || len(args) > 2 {
		return p.errf("eat needs a destination and an optional color")
	}
	if err := p.builder.Define(p.cur, p.action(args[0], args[1:]), false); err != nil {
		return p.errf("%s", err)
	}
	p.curOpen = false
	return nil
}

func (p *parser) cmdNoEat(args []string) error {
	if err := p.needState("noeat"); err != nil {
		return err
	}
	if len(args) != 1 {
		return p.errf("noeat needs a destination")
	}
	def := syntax.Action{Color: syntax.ColorKeep, Dest: p.dest(args[0])}
	if err := p.builder.Define(p.cur, def, true); err != nil {
		return p.errf("%s", err)
	}
	p.curOpen = false
	return nil
}

// action resolves DEST [COLOR] argument pairs, applying the state's
// color when none is given.
func (p *parser) action(dest string, color []string) syntax.Action {
	name := p.curColor
	if len(color) == 1 {
		name = color[0]
	}
	return syntax.Action{Color: p.builder.Color(name), Dest: p.dest(dest)}
}

func (p *parser) dest(name string) syntax.StateID {
	if name == "this" {
		return p.cur
	}
	return p.builder.StateRef(name)
}

// parseByteClass interprets a char set: plain bytes and lo-hi ranges.
// Escapes were already expanded by the tokenizer; a literal '-' must
// come first or last in the set.
func parseByteClass(set string) (*syntax.ByteClass, error) {
	if set == "" {
		return nil, fmt.Errorf("empty character set")
	}
	var class syntax.ByteClass
	for i := 0; i < len(set); i++ {
		if i+2 < len(set) && set[i+1] == '-' && set[i+2] >= set[i] {
			class.SetRange(set[i], set[i+2])
			i += 2
			continue
		}
		class.Set(set[i])
	}
	return &class, nil
}

// splitFields tokenizes a command line: whitespace-separated words,
// double-quoted strings, backslash escapes, and '#' comments.
func splitFields(line string) ([]string, error) {
	var fields []string
	i := 0
	for {
		for i < len(line) && (line[i] == ' ' || line[i] == '\t') {
			i++
		}
		if i >= len(line) || line[i] == '#' {
			return fields, nil
		}
		var sb strings.Builder
		quoted := false
		for i < len(line) {
			c := line[i]
			if quoted {
				if c == '"' {
					quoted = false
					i++
					continue
				}
			} else {
				if c == ' ' || c == '\t' {
					break
				}
				if c == '"' {
					quoted = true
					i++
					continue
				}
			}
			if c == '\\' {
				if i+1 >= len(line) {
					return nil, fmt.Errorf("trailing backslash")
				}
				i++
				sb.WriteByte(escapeByte(line[i]))
				i++
				continue
			}
			sb.WriteByte(c)
			i++
		}
		if quoted {
			return nil, fmt.Errorf("unterminated quote")
		}
		fields = append(fields, sb.String())
	}
}

func escapeByte(c byte) byte {
	switch c {
	case 'n':
		return '\n'
	case 't':
		return '\t'
	case '0':
		return 0
	default:
		return c
	}
}
