package normalize

import "strings"

// cyrillicA is the probe rune: a table that defines it is assumed to carry
// Cyrillic glyphs.
const cyrillicA = 'а'

// cyrillicLower is a reversible Latin spelling of the Russian alphabet.
var cyrillicLower = [][2]string{
	{"а", "a"}, {"б", "b"}, {"в", "v"}, {"г", "g"}, {"д", "d"},
	{"е", "je"}, {"ё", "jo"}, {"ж", "zh"}, {"з", "z"}, {"и", "i"},
	{"й", "ji"}, {"к", "k"}, {"л", "l"}, {"м", "m"}, {"н", "n"},
	{"о", "o"}, {"п", "p"}, {"р", "r"}, {"с", "s"}, {"т", "t"},
	{"у", "u"}, {"ф", "f"}, {"х", "kh"}, {"ц", "c"}, {"ч", "ch"},
	{"ш", "sh"}, {"щ", "xh"}, {"ъ", "qh"}, {"ы", "yh"}, {"ь", "jh"},
	{"э", "e"}, {"ю", "uh"}, {"я", "ja"},
}

var cyrillicReplacer = newCyrillicReplacer()

func newCyrillicReplacer() *strings.Replacer {
	pairs := make([]string, 0, 4*len(cyrillicLower))
	for _, p := range cyrillicLower {
		pairs = append(pairs, p[0], p[1])
		pairs = append(pairs, strings.ToUpper(p[0]), capitalize(p[1]))
	}
	return strings.NewReplacer(pairs...)
}

// capitalize upper-cases the first byte of an ASCII word.
func capitalize(s string) string {
	if s == "" {
		return s
	}
	return strings.ToUpper(s[:1]) + s[1:]
}

// SupportsCyrillic reports whether known appears to define Cyrillic glyphs.
func SupportsCyrillic(known Lookup) bool {
	return known != nil && known.Has(cyrillicA)
}

// Transliterate spells Russian letters in Latin. Other runes are unchanged.
func Transliterate(text string) string {
	return cyrillicReplacer.Replace(text)
}
