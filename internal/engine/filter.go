// Package engine filters a dataset and computes the grouped aggregations shown
// on the dashboard. Everything here is a pure function of its inputs: the
// dataset is read-only and every result is a fresh per-request value.
package engine

import (
	"maps"
	"slices"
	"strings"

	"golang.org/x/text/cases"

	"fondo/internal/core"
)

// Tokens the UI uses for "no restriction" on a select.
const (
	AnyMasculine = "TUTTI"
	AnyFeminine  = "TUTTE"
)

// Criteria is a set of independent predicates combined with AND.
//
// Equals restricts a field to an exact, case-sensitive value; a missing or
// empty entry leaves the field unrestricted. Search, when non-empty, keeps
// only records where at least one of SearchFields contains it as a
// case-insensitive substring.
type Criteria struct {
	Equals       map[core.Field]string
	Search       string
	SearchFields []core.Field
}

// View is the subsequence of a dataset matching a Criteria.
type View struct {
	Records []core.Record
}

// IsAny reports whether a request value means "no restriction".
func IsAny(v string) bool {
	v = strings.TrimSpace(v)
	return v == "" || v == AnyMasculine || v == AnyFeminine
}

// With returns a copy of c restricting field f to v. Values for which IsAny
// holds clear the restriction.
func (c Criteria) With(f core.Field, v string) Criteria {
	out := c
	out.Equals = maps.Clone(c.Equals)
	if out.Equals == nil {
		out.Equals = make(map[core.Field]string)
	}
	if IsAny(v) {
		delete(out.Equals, f)
	} else {
		out.Equals[f] = v
	}
	return out
}

// Active returns the restricted fields in stable order.
func (c Criteria) Active() []core.Field {
	out := make([]core.Field, 0, len(c.Equals))
	for f, v := range c.Equals {
		if v != "" {
			out = append(out, f)
		}
	}
	slices.Sort(out)
	return out
}

// IsEmpty reports whether c restricts nothing.
func (c Criteria) IsEmpty() bool {
	return len(c.Active()) == 0 && c.Search == ""
}

// matcher is a compiled Criteria. Folding the needle once keeps the per-record
// work to one fold per searched field.
type matcher struct {
	equals []equality
	needle string
	fields []core.Field
	fold   cases.Caser
}

type equality struct {
	field core.Field
	value string
}

func compile(c Criteria) matcher {
	m := matcher{fields: c.SearchFields}
	for _, f := range c.Active() {
		m.equals = append(m.equals, equality{field: f, value: c.Equals[f]})
	}
	// The needle is used verbatim; callers sanitize user input.
	if c.Search != "" {
		m.fold = cases.Fold()
		m.needle = m.fold.String(c.Search)
		if len(m.fields) == 0 {
			m.fields = []core.Field{core.FieldBeneficiary}
		}
	}
	return m
}

func (m *matcher) match(r core.Record) bool {
	for _, e := range m.equals {
		if r.Value(e.field) != e.value {
			return false
		}
	}
	if m.needle == "" {
		return true
	}
	for _, f := range m.fields {
		if strings.Contains(m.fold.String(r.Value(f)), m.needle) {
			return true
		}
	}
	return false
}

// Apply returns the records matching c in their original order. It never
// fails: a value outside a field's vocabulary simply matches nothing.
func Apply(records []core.Record, c Criteria) View {
	m := compile(c)
	out := make([]core.Record, 0, len(records))
	for _, r := range records {
		if m.match(r) {
			out = append(out, r)
		}
	}
	return View{Records: out}
}

// Len returns the number of records in the view.
func (v View) Len() int {
	return len(v.Records)
}

// IsEmpty reports whether nothing matched.
func (v View) IsEmpty() bool {
	return len(v.Records) == 0
}
