package limit

import (
	"sort"
	"testing"

	"github.com/stretchr/testify/assert"
)

func resolveByGroup(groups map[string][]string) func(string) []string {
	return func(term string) []string { return groups[term] }
}

func TestApply_UnionOfBareTerms(t *testing.T) {
	universe := []string{"x1", "x2", "x3"}
	expr := Parse("x1,x2")
	got := Apply(expr, universe, resolveByGroup(map[string][]string{}))
	sort.Strings(got)
	assert.Equal(t, []string{"x1", "x2"}, got)
}

func TestApply_IntersectNarrowsRunningSet(t *testing.T) {
	universe := []string{"x1", "x2", "x3"}
	groups := map[string][]string{"compute": {"x1", "x2"}}
	expr := Parse("all,&compute")
	got := Apply(expr, universe, resolveByGroup(groups))
	sort.Strings(got)
	assert.Equal(t, []string{"x1", "x2"}, got)
}

func TestApply_SubtractRemovesFromRunningSet(t *testing.T) {
	universe := []string{"x1", "x2", "x3"}
	expr := Parse("all,!x2")
	got := Apply(expr, universe, resolveByGroup(map[string][]string{}))
	sort.Strings(got)
	assert.Equal(t, []string{"x1", "x3"}, got)
}

func TestApply_WildcardSelectsEntireUniverse(t *testing.T) {
	universe := []string{"x1", "x2"}
	expr := Parse("*")
	got := Apply(expr, universe, resolveByGroup(map[string][]string{}))
	sort.Strings(got)
	assert.Equal(t, []string{"x1", "x2"}, got)
}

func TestApply_BareTermOutsideUniverseIsDropped(t *testing.T) {
	universe := []string{"x1"}
	groups := map[string][]string{"compute": {"x1", "x9"}}
	expr := Parse("compute")
	got := Apply(expr, universe, resolveByGroup(groups))
	assert.Equal(t, []string{"x1"}, got)
}

func TestParse_SkipsBlankTerms(t *testing.T) {
	expr := Parse("x1, ,x2")
	assert.Len(t, expr.terms, 2)
}
