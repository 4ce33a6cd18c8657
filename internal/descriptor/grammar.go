// Package descriptor parses Dalvik type descriptors and method
// prototypes ("L<pkg>/<name>;" for classes, "B S C I J F D Z"
// for primitives, "[T" for arrays) into a small typed AST, and renders
// the corresponding dotted Java type name. This is the one place in
// the core that benefits from a declarative grammar rather than ad-hoc
// string slicing, the same tool the rest of the module's teacher lineage
// reaches for when parsing a compact textual format.
package descriptor

import (
	"github.com/alecthomas/participle/v2"
	"github.com/alecthomas/participle/v2/lexer"
)

// Inside "L...;" the lexer switches state, so a name segment such as
// "String" is one Ident even when it starts with a primitive letter.
var descriptorLexer = lexer.MustStateful(lexer.Rules{
	"Root": {
		{Name: "LParen", Pattern: `\(`},
		{Name: "RParen", Pattern: `\)`},
		{Name: "LBracket", Pattern: `\[`},
		{Name: "LClass", Pattern: `L`, Action: lexer.Push("Class")},
		{Name: "Prim", Pattern: `[BSCIJFDZV]`},
	},
	"Class": {
		{Name: "Semi", Pattern: `;`, Action: lexer.Pop()},
		{Name: "Slash", Pattern: `/`},
		{Name: "Ident", Pattern: `[^/;]+`},
	},
})

// Descriptor is the parsed form of a single Dalvik type descriptor.
type Descriptor struct {
	Pos lexer.Position

	Array *Descriptor `"[" @@`
	Class *ClassType `| @@`
	Prim string `| @Prim`
}

// ClassType is the "L<pkg>/<name>;" reference-type form.
type ClassType struct {
	Parts []string `"L" @Ident ("/" @Ident)* ";"`
}

var parser = participle.MustBuild[Descriptor](
	participle.Lexer(descriptorLexer),
	participle.UseLookahead(2),
)

// Parse parses a single Dalvik type descriptor string.
func Parse(src string) (*Descriptor, error) {
	return parser.ParseString("", src)
}

// Prototype is the parsed form of a method prototype descriptor, e.g.
// "(II)Ljava/lang/String;": a parenthesized parameter-type list
// followed by the return-type descriptor.
type Prototype struct {
	Pos lexer.Position

	Params []*Descriptor `"(" @@* ")"`
	Return *Descriptor `@@`
}

var prototypeParser = participle.MustBuild[Prototype](
	participle.Lexer(descriptorLexer),
	participle.UseLookahead(2),
)

// ParsePrototype parses a method prototype descriptor string.
func ParsePrototype(src string) (*Prototype, error) {
	return prototypeParser.ParseString("", src)
}
