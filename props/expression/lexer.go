package expression

import (
	"github.com/alecthomas/participle/v2/lexer"
)

// reservedClass lists every rune of the delimiter alphabet in regexp class
// syntax. Identifiers are the maximal runs of anything else.
const reservedClass = `\x{2139}\x{FE0E}\x{241C}-\x{241F}{},\x{219D}\x{21A0}\x{2FF2}`

// Lexer tokenizes serialized expressions.
var Lexer = lexer.MustSimple([]lexer.SimpleRule{
	{Name: "Prefix", Pattern: `\x{2139}\x{FE0E}?`},
	{Name: "ComponentPrefix", Pattern: `\x{2FF2}`},
	{Name: "EntityLevel", Pattern: `\x{241C}`},
	{Name: "FieldLevel", Pattern: `\x{241D}`},
	{Name: "FieldItemLevel", Pattern: `\x{241E}`},
	{Name: "PropertyLevel", Pattern: `\x{241F}`},
	{Name: "ObjectOpen", Pattern: `\{`},
	{Name: "ObjectClose", Pattern: `\}`},
	{Name: "Comma", Pattern: `,`},
	{Name: "FollowRef", Pattern: `\x{219D}`},
	{Name: "UseProp", Pattern: `\x{21A0}`},
	{Name: "Ident", Pattern: `[^` + reservedClass + `\s]+`},
})
