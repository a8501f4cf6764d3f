// Package textnorm cleans forum text into the lowercase alphanumeric form used
// by the topic-modeling corpus.
package textnorm

import (
	"regexp"
	"strings"
)

// Character classes below spell out Unicode word/space semantics because RE2's
// \w, \s and \S are ASCII-only.
const (
	wordClass    = `\p{L}\p{N}_`
	spaceClass   = `\t-\r\x{1c}-\x{1f}\x{85}\p{Z}`
	nonSpaceRun  = `[^` + spaceClass + `]+`
	wordChar     = `[` + wordClass + `]`
	nonWordChar  = `[^` + wordClass + `]`
	contractions = `([` + wordClass + `!?.,]'` + nonWordChar + `)|(` + nonWordChar + `'` + wordChar + `)|(^'` + wordChar + `)`
)

// dottedCapitalI lowers U+0130 to "i" plus a combining dot above (U+0307), its
// full Unicode lowercase mapping. strings.ToLower applies only the simple
// mapping and would drop the dot.
var dottedCapitalI = strings.NewReplacer("\u0130", "i\u0307")

var (
	linkPattern        = regexp.MustCompile(`(http|www\.)` + nonSpaceRun)
	apostrophePattern  = regexp.MustCompile(`[‘’‛']`)
	contractionPattern = regexp.MustCompile(contractions)
	nonAlnumPattern    = regexp.MustCompile(`[^a-z0-9]`)
	spacePattern       = regexp.MustCompile(`\s+`)
)

// Normalize returns text reduced to lowercase ASCII letters, digits and single
// spaces. Links starting with "http" or "www." are dropped and apostrophes are
// removed so the halves of a contraction are merged ("it's" becomes "its").
// Lowercasing uses the full mapping, so "İstanbul" becomes "i stanbul": the
// combining dot left behind by "İ" is a separator like any other non-ASCII
// character.
//
// The contraction rule runs after apostrophes are already gone and therefore
// never matches; it is kept so the rewrite sequence stays identical to the one
// used for earlier corpora.
func Normalize(text string) string {
	text = linkPattern.ReplaceAllLiteralString(strings.ToLower(dottedCapitalI.Replace(text)), " ")
	text = apostrophePattern.ReplaceAllLiteralString(text, "")
	text = contractionPattern.ReplaceAllLiteralString(text, "")
	text = nonAlnumPattern.ReplaceAllLiteralString(text, " ")
	text = spacePattern.ReplaceAllLiteralString(text, " ")
	return strings.TrimSpace(text)
}
