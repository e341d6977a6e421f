// Package tagexpr parses inject struct-tag expressions.
//
// A tag expression is a comma-separated option list, where every option is an
// identifier with an optional value:
//
//	inject:""                    no options
//	inject:"optional"            flag option
//	inject:"optional,group=db"   flag plus valued option
//	inject:"-"                   skip marker, the field is never injected
package tagexpr

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/alecthomas/participle/v2"
	"github.com/alecthomas/participle/v2/lexer"
)

// SkipMarker is the tag value that excludes a field from injection.
const SkipMarker = "-"

// Option is a single parsed tag option.
type Option struct {
	Name     string
	Value    string
	HasValue bool
}

// exprAST is the participle grammar root for a tag expression.
type exprAST struct {
	Options []*optionAST `parser:"@@ ( Comma @@ )*"`
}

// optionAST is one `ident` or `ident=value` entry.
type optionAST struct {
	Name  string  `parser:"@Ident"`
	Value *string `parser:"( Equals @(String | Ident | Number) )?"`
}

var tagLexer = lexer.MustSimple([]lexer.SimpleRule{
	{Name: "String", Pattern: `"(\\"|[^"])*"`},
	{Name: "Ident", Pattern: `[a-zA-Z_][a-zA-Z0-9_.\-]*`},
	{Name: "Number", Pattern: `[0-9]+(\.[0-9]+)?`},
	{Name: "Equals", Pattern: `=`},
	{Name: "Comma", Pattern: `,`},
	{Name: "Whitespace", Pattern: `\s+`},
})

var tagParser = participle.MustBuild[exprAST](
	participle.Lexer(tagLexer),
	participle.Elide("Whitespace"),
)

// IsSkip reports whether the tag is the bare skip marker.
func IsSkip(tag string) bool {
	return strings.TrimSpace(tag) == SkipMarker
}

// Parse parses a tag expression into its option list. An empty tag yields no
// options. The skip marker must be checked with IsSkip before calling Parse.
func Parse(tag string) ([]Option, error) {
	tag = strings.TrimSpace(tag)
	if tag == "" {
		return nil, nil
	}
	if tag == SkipMarker {
		return nil, fmt.Errorf("tag expression %q is the skip marker, not an option list", tag)
	}

	ast, err := tagParser.ParseString("", tag)
	if err != nil {
		return nil, fmt.Errorf("invalid tag expression %q: %w", tag, err)
	}

	options := make([]Option, 0, len(ast.Options))
	for _, opt := range ast.Options {
		parsed := Option{Name: opt.Name}
		if opt.Value != nil {
			parsed.HasValue = true
			parsed.Value = unquote(*opt.Value)
		}
		options = append(options, parsed)
	}
	return options, nil
}

// unquote strips quotes from string-literal values, leaving other values as-is.
func unquote(value string) string {
	if len(value) >= 2 && value[0] == '"' {
		if unquoted, err := strconv.Unquote(value); err == nil {
			return unquoted
		}
	}
	return value
}
