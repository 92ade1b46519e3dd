package http

import (
	"errors"
	"net/url"
	"strconv"
	"strings"

	"fondo/internal/engine"
)

// ParamSearch is the query parameter carrying the free-text search. Every
// other criterion uses the field name as its parameter (region=Puglia).
const ParamSearch = "search"

const maxSearchLen = 200

var errBadPage = errors.New("offset and limit must be non-negative integers")

// ParseCriteria reads the filters of profile p from query. Parameters for
// fields the profile does not offer are ignored; TUTTI, TUTTE and empty
// values leave the field unrestricted. Values outside the vocabulary are kept
// and simply match nothing.
func ParseCriteria(query url.Values, p engine.Profile) engine.Criteria {
	c := engine.Criteria{}
	for _, f := range p.Filters {
		c = c.With(f, sanitizeInput(query.Get(f.String())))
	}
	search := sanitizeInput(query.Get(ParamSearch))
	if r := []rune(search); len(r) > maxSearchLen {
		search = string(r[:maxSearchLen])
	}
	c.Search = search
	return c
}

// EncodeCriteria is the inverse of ParseCriteria, used to build chart and
// export links that carry the current selection.
func EncodeCriteria(c engine.Criteria) url.Values {
	q := url.Values{}
	for _, f := range c.Active() {
		q.Set(f.String(), c.Equals[f])
	}
	if c.Search != "" {
		q.Set(ParamSearch, c.Search)
	}
	return q
}

// page is an optional window over the filtered records.
type page struct {
	Offset int
	Limit  int // 0 means no limit
}

func parsePage(query url.Values) (page, error) {
	var p page
	for name, dst := range map[string]*int{"offset": &p.Offset, "limit": &p.Limit} {
		v := strings.TrimSpace(query.Get(name))
		if v == "" {
			continue
		}
		n, err := strconv.Atoi(v)
		if err != nil || n < 0 {
			return page{}, errBadPage
		}
		*dst = n
	}
	return p, nil
}

// window returns the [Offset, Offset+Limit) slice bounds clamped to n.
func (p page) window(n int) (int, int) {
	lo := min(p.Offset, n)
	hi := n
	// compared against the remainder so a huge limit cannot overflow
	if p.Limit > 0 && p.Limit < n-lo {
		hi = lo + p.Limit
	}
	return lo, hi
}

// sanitizeInput drops control characters and trims whitespace.
func sanitizeInput(s string) string {
	return strings.TrimSpace(strings.Map(func(r rune) rune {
		if r < 32 && r != '\t' {
			return -1
		}
		return r
	}, s))
}
