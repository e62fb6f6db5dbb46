package expression

import (
	"github.com/alecthomas/participle/v2"
	"github.com/alecthomas/participle/v2/lexer"
)

// rawExpression is the parse tree root. It is converted to the typed
// expression variants after parsing.
type rawExpression struct {
	Pos        lexer.Position
	Component  *rawComponent  `  @@`
	Structured *rawStructured `| Prefix @@`
}

type rawComponent struct {
	ComponentID string `ComponentPrefix @Ident`
	Prop        string `PropertyLevel @Ident`
}

type rawStructured struct {
	Entity    *rawEntityLevel    `  EntityLevel @@`
	FieldType *rawFieldTypeLevel `| @@`
}

// rawEntityLevel is "<entity data type>␝" followed by a field or an object.
type rawEntityLevel struct {
	Pos        lexer.Position
	EntityType string         `@Ident FieldLevel`
	Body       *rawEntityBody `@@`
}

type rawEntityBody struct {
	Object *rawEntityObject `  @@`
	Field  *rawFieldTail    `| @@`
}

type rawEntityObject struct {
	Entries []*rawEntityEntry `ObjectOpen @@ ( Comma @@ )* ObjectClose`
}

type rawEntityEntry struct {
	Pos    lexer.Position
	Name   string        `@Ident`
	Symbol string        `@( FollowRef | UseProp )`
	Tail   *rawFieldTail `@@`
}

// rawFieldTail is "<field>␞<delta?>␟<prop>" with an optional followed
// reference "␜␜<entity level>".
type rawFieldTail struct {
	Pos        lexer.Position
	Field      string          `@Ident FieldItemLevel`
	Delta      string          `@Ident?`
	Prop       string          `PropertyLevel @Ident`
	Referenced *rawEntityLevel `( EntityLevel EntityLevel @@ )?`
}

// rawFieldTypeLevel is "<field type>␟" followed by a prop or an object.
type rawFieldTypeLevel struct {
	FieldType string            `@Ident PropertyLevel`
	Body      *rawFieldTypeBody `@@`
}

type rawFieldTypeBody struct {
	Object *rawFieldTypeObject `  @@`
	Prop   *rawFieldTypeProp   `| @@`
}

type rawFieldTypeObject struct {
	Entries []*rawFieldTypeEntry `ObjectOpen @@ ( Comma @@ )* ObjectClose`
}

type rawFieldTypeEntry struct {
	Pos    lexer.Position
	Name   string            `@Ident`
	Symbol string            `@( FollowRef | UseProp )`
	Target *rawFieldTypeProp `@@`
}

type rawFieldTypeProp struct {
	Pos        lexer.Position
	Prop       string          `@Ident`
	Referenced *rawEntityLevel `( EntityLevel EntityLevel @@ )?`
}

var parser = participle.MustBuild[rawExpression](
	participle.Lexer(Lexer),
)
