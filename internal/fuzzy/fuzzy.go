// Package fuzzy decides whether a place name plausibly refers to a company
// by scoring the two strings with one of several edit-distance strategies.
package fuzzy

import (
	"math"
	"sort"
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/agext/levenshtein"
	"github.com/rotisserie/eris"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

// Strategy selects how two names are compared.
type Strategy int

const (
	// Ratio compares the two full strings.
	Ratio Strategy = iota
	// PartialRatio compares the shorter string against its best-matching
	// window in the longer one.
	PartialRatio
	// TokenSortRatio compares the sorted word tokens of both strings.
	TokenSortRatio
	// TokenSetRatio compares the de-duplicated word sets of both strings.
	TokenSetRatio
)

var strategyNames = [...]string{
	Ratio:          "ratio",
	PartialRatio:   "partial_ratio",
	TokenSortRatio: "token_sort_ratio",
	TokenSetRatio:  "token_set_ratio",
}

var strategyAliases = map[string]Strategy{
	"exact_ratio":     Ratio,
	"levenshtein":     Ratio,
	"substring_ratio": PartialRatio,
	"partial":         PartialRatio,
	"token_sort":      TokenSortRatio,
	"token_set":       TokenSetRatio,
}

// scorers holds one scoring function per strategy, indexed by Strategy.
var scorers = [...]func(a, b string) int{
	Ratio:          ratio,
	PartialRatio:   partialRatio,
	TokenSortRatio: tokenSortRatio,
	TokenSetRatio:  tokenSetRatio,
}

func (s Strategy) String() string {
	if !s.valid() {
		return "unknown"
	}
	return strategyNames[s]
}

func (s Strategy) valid() bool {
	return s >= Ratio && s <= TokenSetRatio
}

// ParseStrategy converts a configuration value such as "token_set_ratio"
// into a Strategy.
func ParseStrategy(name string) (Strategy, error) {
	key := strings.ToLower(strings.TrimSpace(name))
	key = strings.ReplaceAll(key, "-", "_")
	for i, n := range strategyNames {
		if n == key {
			return Strategy(i), nil
		}
	}
	if s, ok := strategyAliases[key]; ok {
		return s, nil
	}
	return 0, eris.Errorf("fuzzy: unknown strategy %q", name)
}

// Score returns the similarity of a and b in [0, 100] under the strategy.
// An unknown strategy scores 0.
func Score(s Strategy, a, b string) int {
	if !s.valid() {
		return 0
	}
	return scorers[s](a, b)
}

// Match reports whether candidate is similar enough to target. The score
// must strictly exceed threshold.
func Match(target, candidate string, s Strategy, threshold float64) bool {
	return float64(Score(s, target, candidate)) > threshold
}

// Matcher binds a strategy to a threshold.
type Matcher struct {
	Strategy  Strategy
	Threshold float64
}

// Match reports whether candidate plausibly names target.
func (m Matcher) Match(target, candidate string) bool {
	return Match(target, candidate, m.Strategy, m.Threshold)
}

// ratioParams weights a substitution as a deletion plus an insertion so the
// distance normalises against the combined length of both strings.
var ratioParams = levenshtein.NewParams().SubCost(2)

func ratio(a, b string) int {
	la, lb := utf8.RuneCountInString(a), utf8.RuneCountInString(b)
	if la == 0 || lb == 0 {
		return 0
	}
	total := la + lb
	d := levenshtein.Distance(a, b, ratioParams)
	return int(math.RoundToEven(100 * float64(total-d) / float64(total)))
}

func partialRatio(a, b string) int {
	shorter, longer := []rune(a), []rune(b)
	if len(shorter) > len(longer) {
		shorter, longer = longer, shorter
	}
	if len(shorter) == 0 {
		return 0
	}
	if len(shorter) == len(longer) {
		return ratio(a, b)
	}

	needle := string(shorter)
	best := 0
	for i := 0; i+len(shorter) <= len(longer); i++ {
		r := ratio(needle, string(longer[i:i+len(shorter)]))
		if r > best {
			best = r
			if best == 100 {
				break
			}
		}
	}
	return best
}

func tokenSortRatio(a, b string) int {
	return ratio(sortedTokens(a), sortedTokens(b))
}

func tokenSetRatio(a, b string) int {
	pa, pb := process(a), process(b)
	if pa == "" || pb == "" {
		return 0
	}

	setA, setB := tokenSet(pa), tokenSet(pb)

	var inter, onlyA, onlyB []string
	for t := range setA {
		if setB[t] {
			inter = append(inter, t)
		} else {
			onlyA = append(onlyA, t)
		}
	}
	for t := range setB {
		if !setA[t] {
			onlyB = append(onlyB, t)
		}
	}
	sort.Strings(inter)
	sort.Strings(onlyA)
	sort.Strings(onlyB)

	sect := strings.Join(inter, " ")
	withA := strings.TrimSpace(sect + " " + strings.Join(onlyA, " "))
	withB := strings.TrimSpace(sect + " " + strings.Join(onlyB, " "))

	return max(ratio(sect, withA), ratio(sect, withB), ratio(withA, withB))
}

// process prepares s for the token strategies: non-ASCII runes are dropped,
// every rune other than an ASCII letter, digit or underscore becomes a space,
// and the result is lower-cased and trimmed.
func process(s string) string {
	var b strings.Builder
	b.Grow(len(s))
	for _, r := range s {
		switch {
		case r >= utf8.RuneSelf:
		case r == '_' || unicode.IsLetter(r) || unicode.IsDigit(r):
			b.WriteRune(r)
		default:
			b.WriteByte(' ')
		}
	}
	return strings.TrimSpace(cases.Lower(language.Und).String(b.String()))
}

func sortedTokens(s string) string {
	tokens := strings.Fields(process(s))
	sort.Strings(tokens)
	return strings.Join(tokens, " ")
}

func tokenSet(s string) map[string]bool {
	set := make(map[string]bool)
	for _, t := range strings.Fields(s) {
		set[t] = true
	}
	return set
}
