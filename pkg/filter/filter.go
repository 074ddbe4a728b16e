package filter

import (
	"strings"

	"github.com/mattsolo1/grove-tagtree/pkg/models"
)

// Query is a parsed search filter. Groups separated by "|" are
// disjunctive; space-separated terms within a group are conjunctive.
// A "-" prefix negates a term, a tag marker prefix turns substring
// matching into a case-insensitive prefix match over tags.
type Query struct {
	groups [][]term
}

type term struct {
	text      string
	negate    bool
	tagPrefix bool
}

// Parse builds a Query from user input. It never fails: empty or
// degenerate input yields a query that admits every document.
func Parse(input string) *Query {
	q := &Query{}

	for _, rawGroup := range strings.Split(input, "|") {
		var terms []term
		for _, rawTerm := range strings.Fields(rawGroup) {
			t := term{}
			if strings.HasPrefix(rawTerm, "-") {
				t.negate = true
				rawTerm = rawTerm[1:]
			}
			if strings.HasPrefix(rawTerm, models.TagMarker) {
				t.tagPrefix = true
				rawTerm = rawTerm[len(models.TagMarker):]
			}
			if rawTerm == "" {
				continue
			}
			t.text = strings.ToLower(rawTerm)
			terms = append(terms, t)
		}
		if len(terms) > 0 {
			q.groups = append(q.groups, terms)
		}
	}

	return q
}

// Empty reports whether the query admits every document.
func (q *Query) Empty() bool {
	return q == nil || len(q.groups) == 0
}

// Match evaluates the query against a document's resolved tags and
// display title. A document passes if any group's terms all hold.
func (q *Query) Match(tags []string, title string) bool {
	if q.Empty() {
		return true
	}

	lowerTags := make([]string, len(tags))
	for i, t := range tags {
		lowerTags[i] = strings.ToLower(t)
	}
	lowerTitle := strings.ToLower(title)

	for _, group := range q.groups {
		if matchGroup(group, lowerTags, lowerTitle) {
			return true
		}
	}
	return false
}

func matchGroup(group []term, tags []string, title string) bool {
	for _, t := range group {
		if t.matches(tags, title) == t.negate {
			return false
		}
	}
	return true
}

func (t term) matches(tags []string, title string) bool {
	if t.tagPrefix {
		for _, tag := range tags {
			if strings.HasPrefix(tag, t.text) {
				return true
			}
		}
		return false
	}

	if strings.Contains(title, t.text) {
		return true
	}
	for _, tag := range tags {
		if strings.Contains(tag, t.text) {
			return true
		}
	}
	return false
}
