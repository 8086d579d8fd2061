package shortlog

import (
	"fmt"
	"strings"
	"time"

	"github.com/dlclark/regexp2"
)

// StyleRule colours rows whose cell in Column matches. Within a rule the
// checks run equals, then includes, then regex; across rules the first
// matching rule wins. Column accepts the same index aliases as jump rules.
type StyleRule struct {
	Column          string     `json:"column"`
	Equals          StringList `json:"equals,omitempty"`
	Includes        StringList `json:"includes,omitempty"`
	Regex           string     `json:"regex,omitempty"`
	BackgroundColor string     `json:"backgroundColor,omitempty"`
	Color           string     `json:"color,omitempty"`
	Badge           bool       `json:"badge,omitempty"`
}

// RowStyle is the outcome of matching a row against the rules.
type RowStyle struct {
	Matched    bool
	Rule       int // index of the winning rule
	Background string
	Color      string
	Badge      string // badge text, "" when the rule has no badge
}

// regexTimeout bounds a single style regex evaluation.
const regexTimeout = 50 * time.Millisecond

type compiledStyle struct {
	rule     StyleRule
	ref      ColumnRef
	equals   []string
	includes []string
	re       *regexp2.Regexp
}

// StyleSet is a compiled, ordered rule list.
type StyleSet struct {
	rules []compiledStyle
	errs  []error
}

// CompileStyles compiles rules. A regex that fails to compile disables only
// that rule's regex check; the failure is kept in Errors.
func CompileStyles(rules []StyleRule) StyleSet {
	var set StyleSet
	for i, r := range rules {
		c := compiledStyle{rule: r, ref: ParseColumnRef(r.Column)}
		for _, e := range r.Equals {
			c.equals = append(c.equals, strings.ToLower(e))
		}
		for _, in := range r.Includes {
			c.includes = append(c.includes, strings.ToLower(in))
		}
		if r.Regex != "" {
			re, err := regexp2.Compile(r.Regex, regexp2.ECMAScript|regexp2.IgnoreCase)
			if err != nil {
				set.errs = append(set.errs, fmt.Errorf("style rule %d (%s): %w", i, r.Column, err))
			} else {
				re.MatchTimeout = regexTimeout
				c.re = re
			}
		}
		set.rules = append(set.rules, c)
	}
	return set
}

// Errors returns the regex compilation failures.
func (s StyleSet) Errors() []error {
	return s.errs
}

// Len returns the number of rules.
func (s StyleSet) Len() int {
	return len(s.rules)
}

// Match returns the style of the first rule matching row.
func (s StyleSet) Match(row Row, orig, visible int) RowStyle {
	for i := range s.rules {
		c := &s.rules[i]
		val := c.ref.value(row, orig, visible)
		if !c.matches(val) {
			continue
		}
		st := RowStyle{
			Matched:    true,
			Rule:       i,
			Background: c.rule.BackgroundColor,
			Color:      c.rule.Color,
		}
		if c.rule.Badge {
			st.Badge = val
			if st.Badge == "" {
				st.Badge = c.rule.Column
			}
		}
		return st
	}
	return RowStyle{Rule: -1}
}

func (c *compiledStyle) matches(val string) bool {
	lv := strings.ToLower(val)
	for _, e := range c.equals {
		if lv == e {
			return true
		}
	}
	for _, in := range c.includes {
		if strings.Contains(lv, in) {
			return true
		}
	}
	if c.re != nil {
		ok, err := c.re.MatchString(val)
		return err == nil && ok
	}
	return false
}
