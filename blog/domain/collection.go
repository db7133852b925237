package domain

import (
	"slices"
	"strings"
	"time"
)

// Collection is the whole ordered set of posts. It is the unit of persistence:
// every tier reads and writes it in one piece.
type Collection []Post

// Clone returns a deep copy of c. A nil collection stays nil.
func (c Collection) Clone() Collection {
	if c == nil {
		return nil
	}
	out := make(Collection, len(c))
	for i, p := range c {
		out[i] = p.Clone()
	}
	return out
}

// Find returns the post with the given slug.
func (c Collection) Find(slug string) (Post, bool) {
	i := c.index(slug)
	if i < 0 {
		return Post{}, false
	}
	return c[i], true
}

// Upsert replaces the post sharing p's slug in place, or prepends p when the
// slug is new. The receiver is not modified.
func (c Collection) Upsert(p Post) Collection {
	out := c.Clone()
	if i := out.index(p.Slug); i >= 0 {
		out[i] = p.Clone()
		return out
	}
	return append(Collection{p.Clone()}, out...)
}

// SortedByDate returns a copy ordered by date, newest first. Dates that do not
// parse as YYYY-MM-DD are compared as plain strings. Ties keep their relative
// order.
func (c Collection) SortedByDate() Collection {
	out := c.Clone()
	if out == nil {
		out = Collection{}
	}
	slices.SortStableFunc(out, func(a, b Post) int {
		return compareDates(b.Date, a.Date)
	})
	return out
}

func (c Collection) index(slug string) int {
	return slices.IndexFunc(c, func(p Post) bool { return p.Slug == slug })
}

func compareDates(a, b string) int {
	ta, errA := time.Parse(DateLayout, a)
	tb, errB := time.Parse(DateLayout, b)
	if errA == nil && errB == nil {
		return ta.Compare(tb)
	}
	return strings.Compare(a, b)
}
