package shortlog

import (
	"sort"
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/junegunn/fzf/src/algo"
	"github.com/junegunn/fzf/src/util"
)

// fzf-style narrowing for the filter popover's value lists.
// matching and scoring come from junegunn/fzf's algo package.
//
// query syntax:
//   "foo"     fuzzy subsequence match
//   "'foo"    exact substring match
//   "^foo"    prefix match
//   "foo$"    suffix match
//   "!foo"    negated match (combines with the forms above)
//   "a b"     AND: all space-separated terms must match
//   "a | b"   OR: at least one pipe-separated group must match

func init() {
	algo.Init("default")
}

// PickerQuery is a parsed picker query. parse once, score many.
type PickerQuery struct {
	groups [][]pickerTerm
}

type pickerKind int

const (
	pickFuzzy pickerKind = iota
	pickExact
	pickPrefix
	pickSuffix
)

type pickerTerm struct {
	runes         []rune
	kind          pickerKind
	negated       bool
	caseSensitive bool
}

// ParsePickerQuery parses raw into a reusable query. Upper-case letters in a
// term make that term case-sensitive (smart case).
func ParsePickerQuery(raw string) PickerQuery {
	var q PickerQuery
	for _, part := range strings.Split(strings.TrimSpace(raw), " | ") {
		var group []pickerTerm
		for _, tok := range strings.Fields(part) {
			group = append(group, parsePickerTerm(tok))
		}
		if len(group) > 0 {
			q.groups = append(q.groups, group)
		}
	}
	return q
}

// Empty reports whether the query has no terms.
func (q PickerQuery) Empty() bool {
	return len(q.groups) == 0
}

func parsePickerTerm(tok string) pickerTerm {
	t := pickerTerm{kind: pickFuzzy}
	if len(tok) > 1 && tok[0] == '!' {
		t.negated = true
		tok = tok[1:]
	}
	switch {
	case len(tok) > 1 && tok[0] == '\'':
		t.kind = pickExact
		tok = tok[1:]
	case len(tok) > 1 && tok[0] == '^':
		t.kind = pickPrefix
		tok = tok[1:]
	case len(tok) > 1 && tok[len(tok)-1] == '$':
		t.kind = pickSuffix
		tok = tok[:len(tok)-1]
	}
	t.caseSensitive = hasUpper(tok)
	if !t.caseSensitive {
		tok = strings.ToLower(tok)
	}
	t.runes = []rune(tok)
	return t
}

func hasUpper(s string) bool {
	for i := 0; i < len(s); {
		r, size := utf8.DecodeRuneInString(s[i:])
		if unicode.IsUpper(r) {
			return true
		}
		i += size
	}
	return false
}

// Score scores candidate against the query. higher is better.
func (q PickerQuery) Score(candidate string) (int, bool) {
	if q.Empty() {
		return 0, true
	}
	slab := util.MakeSlab(16*1024, 2048)
	chars := util.ToChars([]byte(candidate))
	best, matched := -1, false
	for _, group := range q.groups {
		total, ok := 0, true
		for i := range group {
			s, hit := group[i].score(&chars, slab)
			if !hit {
				ok = false
				break
			}
			total += s
		}
		if ok && total > best {
			best, matched = total, true
		}
	}
	return best, matched
}

func (t *pickerTerm) score(chars *util.Chars, slab *util.Slab) (int, bool) {
	var fn func(bool, bool, bool, *util.Chars, []rune, bool, *util.Slab) (algo.Result, *[]int)
	switch t.kind {
	case pickExact:
		fn = algo.ExactMatchNaive
	case pickPrefix:
		fn = algo.PrefixMatch
	case pickSuffix:
		fn = algo.SuffixMatch
	default:
		fn = algo.FuzzyMatchV2
	}
	res, _ := fn(t.caseSensitive, false, true, chars, t.runes, false, slab)
	hit := res.Start >= 0
	if t.negated {
		return 0, !hit
	}
	if !hit {
		return 0, false
	}
	return res.Score, true
}

// PickValues narrows values to those matching query, best score first and
// ties in their original order. An empty query returns values unchanged.
func PickValues(values []string, query string) []string {
	q := ParsePickerQuery(query)
	if q.Empty() {
		return values
	}
	type hit struct {
		i, score int
	}
	var hits []hit
	for i, v := range values {
		if s, ok := q.Score(v); ok {
			hits = append(hits, hit{i, s})
		}
	}
	sort.SliceStable(hits, func(a, b int) bool {
		return hits[a].score > hits[b].score
	})
	out := make([]string, len(hits))
	for i, h := range hits {
		out[i] = values[h.i]
	}
	return out
}
