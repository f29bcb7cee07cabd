package synfile

import (
	"fmt"
	"strings"

	"github.com/stanza-editor/stanza/internal/syntax"
)

// Builtin compiles the syntax definitions shipped with the editor.
// Users override or extend these by dropping *.syntax files into the
// configured syntax directory.
func Builtin() map[string]*syntax.Graph {
	graphs := make(map[string]*syntax.Graph, len(builtinDefs))
	for _, src := range builtinDefs {
		g, err := Parse(strings.NewReader(src), "<builtin>")
		if err != nil {
			panic(fmt.Sprintf("builtin syntax: %v", err))
		}
		graphs[g.Name()] = g
	}
	return graphs
}

var builtinDefs = []string{goSyntax, cSyntax}

const goSyntax = `syntax go

list keywords break case chan const continue default defer else fallthrough for func go goto if import interface map package range return select struct switch type var
list types any bool byte complex64 complex128 error float32 float64 int int8 int16 int32 int64 rune string uint uint8 uint16 uint32 uint64 uintptr
list constants true false iota nil

state code text
  char -b a-zA-Z_ word
  char 0-9 number number
  char \" string string
  char ' charlit string
  char ` + "`" + ` rawstring string
  str // linecomment comment
  str /* blockcomment comment
  eat this

state word ident
  char -b a-zA-Z0-9_ this
  inlist keywords code keyword
  inlist types code type
  inlist constants code constant
  noeat code

state number number
  char 0-9a-fA-FxX._ this
  noeat code

state string string
  char \" code
  char \\ stringescape
  char \n code
  eat this

state stringescape string
  eat string

state charlit string
  char ' code
  char \\ charlitescape
  char \n code
  eat this

state charlitescape string
  eat charlit

state rawstring string
  char ` + "`" + ` code
  eat this

state linecomment comment
  char \n code
  eat this

state blockcomment comment
  str */ code
  eat this
`

const cSyntax = `syntax c

list keywords auto break case const continue default do else enum extern for goto if inline register restrict return sizeof static struct switch typedef union volatile while
list types char double float int long short signed unsigned void
list constants NULL true false

state code text
  char -b a-zA-Z_ word
  char 0-9 number number
  char \" string string
  char ' charlit string
  char \# preproc preproc
  str // linecomment comment
  str /* blockcomment comment
  eat this

state word ident
  char -b a-zA-Z0-9_ this
  inlist keywords code keyword
  inlist types code type
  inlist constants code constant
  noeat code

state number number
  char 0-9a-fA-FxXuUlL. this
  noeat code

state string string
  char \" code
  char \\ stringescape
  char \n code
  eat this

state stringescape string
  eat string

state charlit string
  char ' code
  char \\ charlitescape
  char \n code
  eat this

state charlitescape string
  eat charlit

state preproc preproc
  char \n code
  eat this

state linecomment comment
  char \n code
  eat this

state blockcomment comment
  str */ code
  eat this
`
