package question

import "strings"

// irregularPlurals maps common irregular plural nouns to their singular
// forms. Checked before any suffix rule.
var irregularPlurals = map[string]string{
	"people":   "person",
	"children": "child",
	"men":      "man",
	"women":    "woman",
	"teeth":    "tooth",
	"feet":     "foot",
	"mice":     "mouse",
	"geese":    "goose",
	"oxen":     "ox",
}

// Singularize converts a plural domain display name to singular form so
// questions read naturally ("Which greek muse has Lyre as their symbol?").
// Only the last word of a multi-word name is touched, preserving prefixes
// like "Greek". Irregular plurals are looked up first, then ordered
// suffix rules; names that match nothing (e.g. "Data", "Glass") pass
// through unchanged.
func Singularize(name string) string {
	words := strings.Fields(name)
	if len(words) == 0 {
		return name
	}
	last := words[len(words)-1]

	if singular, ok := irregularPlurals[strings.ToLower(last)]; ok {
		if isUpper(last[0]) {
			singular = strings.ToUpper(singular[:1]) + singular[1:]
		}
		words[len(words)-1] = singular
		return strings.Join(words, " ")
	}

	switch {
	case strings.HasSuffix(last, "ies") && len(last) > 3:
		// Categories -> Category, Stories -> Story
		last = last[:len(last)-3] + "y"
	case strings.HasSuffix(last, "ves") && len(last) > 3:
		// Wolves -> Wolf
		last = last[:len(last)-3] + "f"
	case strings.HasSuffix(last, "xes") && len(last) > 3:
		// Boxes -> Box
		last = last[:len(last)-2]
	case strings.HasSuffix(last, "ches") || strings.HasSuffix(last, "shes"):
		// Matches -> Match, Dishes -> Dish
		last = last[:len(last)-2]
	case strings.HasSuffix(last, "sses") && len(last) > 4:
		// Glasses -> Glass
		last = last[:len(last)-2]
	case strings.HasSuffix(last, "ses") && len(last) > 3 && !isVowel(last[len(last)-4]):
		// Lenses -> Lense is wrong, but consonant+ses strips cleanly:
		// Sphinxes handled above; this covers Bosses-like stems.
		last = last[:len(last)-2]
	case strings.HasSuffix(last, "s") && !strings.HasSuffix(last, "ss"):
		// Default: Planets -> Planet, Muses -> Muse. "Glass" keeps its s.
		last = last[:len(last)-1]
	}

	words[len(words)-1] = last
	return strings.Join(words, " ")
}

func isUpper(c byte) bool {
	return c >= 'A' && c <= 'Z'
}

func isVowel(c byte) bool {
	switch c | 0x20 {
	case 'a', 'e', 'i', 'o', 'u':
		return true
	}
	return false
}
