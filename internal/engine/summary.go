package engine

import (
	"github.com/shopspring/decimal"

	"fondo/internal/core"
)

// KPIs is the headline row of the dashboard.
type KPIs struct {
	Total         decimal.Decimal
	Records       int
	Beneficiaries int
	Sectors       int
	Regions       int // excludes core.UnassignedRegion
}

// ViewResult pairs a view definition with its computed groups.
type ViewResult struct {
	ViewSpec
	Groups Result
}

// Summary is everything one request needs to render.
type Summary struct {
	Profile     string
	Criteria    Criteria
	View        View
	DatasetRows int
	KPIs        KPIs
	Views       []ViewResult
}

// ComputeKPIs derives the headline numbers from v.
func ComputeKPIs(v View) KPIs {
	return KPIs{
		Total:         Sum(v),
		Records:       v.Len(),
		Beneficiaries: CountDistinct(v, core.FieldBeneficiary, ""),
		Sectors:       CountDistinct(v, core.FieldMacroSector, ""),
		Regions:       CountDistinct(v, core.FieldRegion, core.UnassignedRegion),
	}
}

// Summarize filters ds with c and computes the KPIs and every view of p. The
// profile decides which fields free-text search looks at.
func Summarize(ds *core.Dataset, c Criteria, p Profile) Summary {
	c.SearchFields = p.SearchFields
	v := Apply(ds.Records(), c)

	s := Summary{
		Profile:     p.Name,
		Criteria:    c,
		View:        v,
		DatasetRows: ds.Len(),
		KPIs:        ComputeKPIs(v),
		Views:       make([]ViewResult, 0, len(p.Views)),
	}
	for _, vs := range p.Views {
		s.Views = append(s.Views, ViewResult{ViewSpec: vs, Groups: AggregateBy(v, vs.Spec())})
	}
	return s
}

// Lookup returns the computed view named name.
func (s Summary) Lookup(name string) (ViewResult, bool) {
	for _, v := range s.Views {
		if v.Name == name {
			return v, true
		}
	}
	return ViewResult{}, false
}

// IsEmpty reports whether the criteria matched nothing.
func (s Summary) IsEmpty() bool {
	return s.View.IsEmpty()
}
