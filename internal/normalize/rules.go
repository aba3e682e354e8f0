package normalize

import (
	"errors"
	"fmt"
	"io"

	"github.com/alecthomas/participle/v2"
	"github.com/alecthomas/participle/v2/lexer"
)

// ErrBadRules is returned when a substitution rules file cannot be parsed.
var ErrBadRules = errors.New("bad substitution rules")

// Rule is one extra literal substitution.
type Rule struct {
	From string
	To   string
	Pos  lexer.Position
}

// A rules file holds one substitution per line:
//
//	# comment
//	"ſ" -> "s"
//	"‌" => ""
//
// Strings use Go escape syntax.
var (
	rulesLexer = lexer.MustSimple([]lexer.SimpleRule{
		{Name: "Comment", Pattern: `#[^\n]*`},
		{Name: "Whitespace", Pattern: `[ \t\r]+`},
		{Name: "Newline", Pattern: `\n+`},
		{Name: "String", Pattern: `"(?:\\.|[^"\\\n])*"`},
		{Name: "Arrow", Pattern: `->|=>`},
	})

	rulesParser = participle.MustBuild[rulesFile](
		participle.Lexer(rulesLexer),
		participle.Elide("Whitespace", "Comment"),
		participle.Unquote("String"),
	)
)

type rulesFile struct {
	Lines []*ruleLine `parser:"Newline* ( @@ Newline* )*"`
}

type ruleLine struct {
	Pos  lexer.Position
	From string `parser:"@String Arrow"`
	To   string `parser:"@String"`
}

// ParseRules reads a substitution rules file. name is used in error
// positions.
func ParseRules(name string, r io.Reader) ([]Rule, error) {
	f, err := rulesParser.Parse(name, r)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrBadRules, err)
	}
	rules := make([]Rule, 0, len(f.Lines))
	for _, l := range f.Lines {
		if l.From == "" {
			return nil, fmt.Errorf("%w: %s: empty pattern", ErrBadRules, l.Pos)
		}
		rules = append(rules, Rule{From: l.From, To: l.To, Pos: l.Pos})
	}
	return rules, nil
}
