// Package limit parses the BOS limit-expression language (spec §4.2):
// comma-separated terms narrowing a session's component set by xname,
// group, role, or wildcard.
package limit

import "strings"

// term operators, checked in the order they appear in a component
// against the raw token prefix.
const (
	opIntersect = '&'
	opSubtract  = '!'
)

// wildcard tokens that expand to "every component under consideration".
var wildcards = map[string]bool{
	"all": true,
	"*":   true,
}

// Expression is a parsed limit string ready to apply against a candidate
// ID set.
type Expression struct {
	terms []term
}

type term struct {
	op       byte // 0, opIntersect, or opSubtract
	wildcard bool
	value    string
}

// Parse splits raw on commas and classifies each term by its leading
// operator character. Terms are evaluated left to right by Apply: a bare
// term unions into the running set, '&' intersects, '!' subtracts.
func Parse(raw string) Expression {
	var expr Expression
	for _, tok := range strings.Split(raw, ",") {
		tok = strings.TrimSpace(tok)
		if tok == "" {
			continue
		}
		t := term{}
		switch tok[0] {
		case opIntersect, opSubtract:
			t.op = tok[0]
			tok = tok[1:]
		}
		if wildcards[tok] {
			t.wildcard = true
		}
		t.value = tok
		expr.terms = append(expr.terms, t)
	}
	return expr
}

// Apply resolves expr against universe (every candidate ID the limit may
// select from) using resolve to expand each literal term (an xname, a
// group name, a role) into the concrete IDs it names. The result starts
// empty; each term folds into it per its operator.
func Apply(expr Expression, universe []string, resolve func(term string) []string) []string {
	set := map[string]bool{}
	universeSet := make(map[string]bool, len(universe))
	for _, id := range universe {
		universeSet[id] = true
	}

	for _, t := range expr.terms {
		var ids []string
		if t.wildcard {
			ids = universe
		} else {
			ids = resolve(t.value)
		}

		switch t.op {
		case opIntersect:
			next := map[string]bool{}
			for _, id := range ids {
				if set[id] {
					next[id] = true
				}
			}
			set = next
		case opSubtract:
			for _, id := range ids {
				delete(set, id)
			}
		default:
			for _, id := range ids {
				if universeSet[id] {
					set[id] = true
				}
			}
		}
	}

	out := make([]string, 0, len(set))
	for id := range set {
		out = append(out, id)
	}
	return out
}
