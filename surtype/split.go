package surtype

import (
	"fmt"
	"strings"

	"github.com/alecthomas/participle/v2/lexer"
)

// statementLexer tokenizes SurrealQL just enough to find statement
// boundaries: string literals, bracketed record ids, and comments may
// all contain semicolons that do not end a statement. Chunk excludes
// every character another rule claims so comment starters get matched
// first.
var statementLexer = lexer.MustSimple([]lexer.SimpleRule{
	{Name: "Comment", Pattern: `(?:--|//|#)[^\n]*`},
	{Name: "String", Pattern: `"(?:[^"\\]|\\.)*"|'(?:[^'\\]|\\.)*'`},
	{Name: "Record", Pattern: `⟨[^⟩]*⟩`},
	{Name: "Semi", Pattern: `;`},
	{Name: "Whitespace", Pattern: `\s+`},
	{Name: "Chunk", Pattern: `[^;"'⟨\s/#-]+`},
	{Name: "Any", Pattern: `.`},
})

// SplitStatements splits a SurrealQL script into individual statements
// at semicolons. Semicolons inside string literals, bracketed record
// ids, and comments do not split. Comments are dropped; statements come
// back trimmed, without the trailing semicolon, and empty statements
// are skipped.
func SplitStatements(script string) ([]string, error) {
	lx, err := statementLexer.LexString("script.surql", script)
	if err != nil {
		return nil, fmt.Errorf("split statements: %w", err)
	}

	symbols := statementLexer.Symbols()
	semi := symbols["Semi"]
	comment := symbols["Comment"]

	var statements []string
	var current strings.Builder
	flush := func() {
		if s := strings.TrimSpace(current.String()); s != "" {
			statements = append(statements, s)
		}
		current.Reset()
	}

	for {
		tok, err := lx.Next()
		if err != nil {
			return nil, fmt.Errorf("split statements: %w", err)
		}
		if tok.EOF() {
			break
		}
		switch tok.Type {
		case semi:
			flush()
		case comment:
			// dropped
		default:
			current.WriteString(tok.Value)
		}
	}
	flush()
	return statements, nil
}
