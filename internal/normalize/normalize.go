// Package normalize turns raw input text into the character stream consumed
// by the layout engine: typographic folding, the optional extreme and compact
// transforms, the legend prefix, and unknown character filtering.
package normalize

import (
	"fmt"
	"strings"
	"unicode"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

// legendTemplate wraps the legend text ahead of the document body.
const legendTemplate = "[[CHARACTERS LEGEND: %s CHARACTERS LEGEND END.]]\n\n"

// Normalizer applies the fixed typographic table plus optional extra rules.
// A Normalizer is immutable and safe for concurrent use.
type Normalizer struct {
	rules       *strings.Replacer
	foldAccents bool
	keepDigits  bool
}

// Option configures a Normalizer.
type Option func(*Normalizer)

// WithRules adds substitutions applied after the built-in table.
// Rules are matched in the given order at each position.
func WithRules(rules []Rule) Option {
	return func(n *Normalizer) {
		if len(rules) == 0 {
			return
		}
		pairs := make([]string, 0, 2*len(rules))
		for _, r := range rules {
			if r.From == "" {
				continue
			}
			pairs = append(pairs, r.From, r.To)
		}
		if len(pairs) > 0 {
			n.rules = strings.NewReplacer(pairs...)
		}
	}
}

// WithAccentFolding strips combining marks left after the built-in table,
// so letters such as "ő" fold to their base letter.
func WithAccentFolding(on bool) Option {
	return func(n *Normalizer) {
		n.foldAccents = on
	}
}

// WithDeferredSubscripts leaves ASCII digits alone in extreme mode. The
// caller applies Subscript after Filter, so digits written by hex escapes
// are subscripted too.
func WithDeferredSubscripts(on bool) Option {
	return func(n *Normalizer) {
		n.keepDigits = on
	}
}

// New returns a Normalizer.
func New(opts ...Option) *Normalizer {
	n := &Normalizer{}
	for _, opt := range opts {
		opt(n)
	}
	return n
}

var defaultNormalizer = New()

// Normalize applies the default Normalizer. See (*Normalizer).Normalize.
func Normalize(text string, extreme, compact bool, legend string) string {
	return defaultNormalizer.Normalize(text, extreme, compact, legend)
}

// Normalize prepares text for layout:
//
//  1. a non-empty legend is prepended in the bracketed legend block
//  2. CRLF and CR become LF
//  3. the typographic table folds symbols, then any extra rules run
//  4. extreme lowercases and maps ASCII digits to subscripts
//  5. compact or extreme collapses every whitespace run to one space
//
// Unmapped characters pass through; unknown glyph detection happens in Filter.
func (n *Normalizer) Normalize(text string, extreme, compact bool, legend string) string {
	t := text
	if legend != "" {
		t = LegendBlock(legend) + t
	}

	t = lineEndings.Replace(t)
	t = typographicReplacer.Replace(t)
	if n.rules != nil {
		t = n.rules.Replace(t)
	}
	if n.foldAccents {
		t = foldAccents(t)
	}

	if extreme {
		t = cases.Lower(language.Und).String(t)
		if !n.keepDigits {
			t = Subscript(t)
		}
	}

	if compact || extreme {
		t = CollapseSpace(t)
	}
	return t
}

// Subscript maps every ASCII digit in s to its subscript form.
func Subscript(s string) string {
	return subscripts.Replace(s)
}

// LegendBlock formats legend as the prefix block, including the blank line
// that separates it from the body.
func LegendBlock(legend string) string {
	return fmt.Sprintf(legendTemplate, legend)
}

// CleanLegend collapses whitespace runs in a legend source and trims it.
func CleanLegend(raw string) string {
	return strings.TrimSpace(CollapseSpace(raw))
}

// IsSpace matches the whitespace class collapsed in compact mode.
func IsSpace(r rune) bool {
	return unicode.IsSpace(r) || r == '\ufeff'
}

// CollapseSpace replaces every whitespace run with a single ' '.
func CollapseSpace(s string) string {
	var b strings.Builder
	b.Grow(len(s))
	inSpace := false
	for _, r := range s {
		if IsSpace(r) {
			if !inSpace {
				b.WriteByte(' ')
				inSpace = true
			}
			continue
		}
		inSpace = false
		b.WriteRune(r)
	}
	return b.String()
}

// foldAccents decomposes, drops nonspacing marks and recomposes.
func foldAccents(s string) string {
	t := transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)
	out, _, err := transform.String(t, s)
	if err != nil {
		return s
	}
	return out
}
