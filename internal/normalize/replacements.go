package normalize

import "strings"

// typographic folds symbols the bitmap fonts do not carry into ASCII or
// near-ASCII equivalents. Pairs are old, new. Order matters only where keys
// overlap: the spaced four-dot ellipsis precedes the three-dot one so the
// longer run is matched first.
var typographic = []string{
	"—", "-", "–", "-", "“", "\"", "”", "\"",
	"„", "\"", "«", "\"", "»", "\"", "‘", "'",
	"’", "'", "‚", "'", "‹", "'", "›", "'",
	"…", "...", ". . . .", "....", ". . .", "...", "´", "'",
	"\t", "    ", "À", "A", "Æ", "AE", "à", "a",
	"â", "a", "æ", "ae", "ç", "c", "è", "e",
	"ê", "e", "ë", "e", "î", "i", "ï", "i",
	"ô", "o", "ý", "y", "œ", "oe", "ű", "u",
	"\u2007", " ", "•", "-", "↑", "^", "∗", "*",
	"⋅", ".", "\u00a0", " ", "§", "S", "¨", "\"",
	"©", "(c)", "\u00ad", "-", "®", "(r)", "°", "*",
	"±", "+-", "²", "2", "³", "3", "·", ".",
	"¹", "1", "º", "o", "¼", "1/4", "×", "x",
	"å", "a", "÷", "/", "ā", "a", "Ć", "C",
	"ć", "c", "č", "c", "ĺ", "l", "ō", "o",
	"Š", "S", "š", "s", "ž", "z", "ɓ", "b",
	"˜", "~", "\u0301", "'", "\u0335", "-", "Π", "P",
	"Σ", "E", "α", "a", "γ", "y", "η", "n",
	"π", "pi", "ρ", "p", "χ", "x", "І", "I",
	"і", "i", "ѣ", "e", "ѫ", "o", "ᵢ", "i",
	"ṣ", "s", "\u200b", "", "\u200d", "", "‐", "-",
	"‑", "-", "―", "-", "\u2061", "", "⁰", "0",
	"⁴", "4", "⁵", "5", "⁷", "7", "⁸", "8",
	"⁹", "9", "ₐ", "a", "ₓ", "x", "ₘ", "m",
	"€", "E", "\u20e3", "", "№", "No", "™", "tm",
	"⅓", "1/3", "←", "<-", "→", "->", "↔", "<->",
	"⇒", "=>", "∆", "^", "∑", "E", "−", "-",
	"√", "v", "∞", "oo", "≈", "~", "≠", "!=",
	"≤", "<=", "≥", ">=", "─", "-", "│", "|",
	"└", "L", "├", "+", "■", "#", "▪", "-",
	"►", ">", "○", "o", "●", "O", "◦", "o",
	"★", "*", "☆", "*", "☐", "[]", "☑", "[x]",
	"♀", "f", "♂", "m", "♥", "<3", "♾", "oo",
	"⚡", "z", "✅", "[x]", "✓", "v", "✔", "v",
	"❌", "x", "❤", "<3", "➡", "->", "⟶", "->",
	"⨁", "+", "⭐", "*", "⭕", "O", "、", ",",
	"。", ".", "《", "<", "》", ">", "Ç", "C",
	"ò", "o", "ù", "u", "û", "u", "ę", "e",
	"ȃ", "a", "\u0300", "'", "ό", "o", "ỳ", "y",
	"\u2009", " ", "\u202f", " ",
}

// typographicReplacer applies the whole table in one left-to-right pass.
var typographicReplacer = strings.NewReplacer(typographic...)

// subscripts maps ASCII digits to their subscript forms for extreme mode.
var subscripts = strings.NewReplacer(
	"0", "₀", "1", "₁", "2", "₂", "3", "₃", "4", "₄",
	"5", "₅", "6", "₆", "7", "₇", "8", "₈", "9", "₉",
)

// lineEndings rewrites CRLF and lone CR as LF.
var lineEndings = strings.NewReplacer("\r\n", "\n", "\r", "\n")

// Replacements returns a copy of the built-in typographic table as old/new
// pairs.
func Replacements() [][2]string {
	out := make([][2]string, 0, len(typographic)/2)
	for i := 0; i+1 < len(typographic); i += 2 {
		out = append(out, [2]string{typographic[i], typographic[i+1]})
	}
	return out
}
