package evaluator

import (
	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"github.com/sunholo/tscore/internal/types"
)

// applyCasing implements the four StringIntrinsic reductions over
// x/text/cases rather than a hand-rolled ASCII upper/lower, so case
// folding is more than `strings.ToUpper` on bytes.
// Capitalize/Uncapitalize only transform the first rune (TypeScript's
// semantics, unlike cases.Title which title-cases every word).
func applyCasing(kind types.StringIntrinsicKind, s string) string {
	upper := cases.Upper(language.Und)
	lower := cases.Lower(language.Und)
	switch kind {
	case types.Uppercase:
		return upper.String(s)
	case types.Lowercase:
		return lower.String(s)
	case types.Capitalize:
		if s == "" {
			return s
		}
		r := []rune(s)
		return upper.String(string(r[0])) + string(r[1:])
	case types.Uncapitalize:
		if s == "" {
			return s
		}
		r := []rune(s)
		return lower.String(string(r[0])) + string(r[1:])
	default:
		return s
	}
}
