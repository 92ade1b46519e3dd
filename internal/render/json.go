package render

import (
	"encoding/json"
	"io"

	"github.com/shopspring/decimal"

	"fondo/internal/core"
	"fondo/internal/engine"
)

// SummaryDoc is the JSON form of an engine.Summary. Amounts are emitted as
// JSON numbers carrying the exact decimal value.
type SummaryDoc struct {
	Profile     string      `json:"profile"`
	Criteria    CriteriaDoc `json:"criteria"`
	Rows        int         `json:"rows"`
	DatasetRows int         `json:"dataset_rows"`
	KPIs        KPIDoc      `json:"kpis"`
	Views       []ViewDoc   `json:"views"`
}

type CriteriaDoc struct {
	Filters map[string]string `json:"filters"`
	Search  string            `json:"search,omitempty"`
}

type KPIDoc struct {
	Total         json.Number `json:"total"`
	Records       int         `json:"records"`
	Beneficiaries int         `json:"beneficiaries"`
	Sectors       int         `json:"sectors"`
	Regions       int         `json:"regions"`
}

type ViewDoc struct {
	Name   string     `json:"name"`
	Title  string     `json:"title"`
	Chart  string     `json:"chart"`
	Groups []GroupDoc `json:"groups"`
}

type GroupDoc struct {
	Key   string      `json:"key"`
	Value json.Number `json:"value"`
}

// RecordDoc is one row of the detail table.
type RecordDoc struct {
	Beneficiary string      `json:"beneficiary"`
	SubjectType string      `json:"subject_type"`
	Province    string      `json:"province"`
	Region      string      `json:"region"`
	MacroSector string      `json:"macro_sector"`
	Purpose     string      `json:"purpose,omitempty"`
	Year        int         `json:"year"`
	Amount      json.Number `json:"amount"`
}

// OptionsDoc lists the values each filter select offers. The unassigned
// region is reported apart from the regular region list.
type OptionsDoc struct {
	Profile          string              `json:"profile"`
	Filters          map[string][]string `json:"filters"`
	UnassignedRegion string              `json:"unassigned_region,omitempty"`
}

func number(d decimal.Decimal) json.Number {
	return json.Number(d.String())
}

// NewSummaryDoc converts s. Slices are never nil so empty results encode as [].
func NewSummaryDoc(s engine.Summary) SummaryDoc {
	doc := SummaryDoc{
		Profile: s.Profile,
		Criteria: CriteriaDoc{
			Filters: make(map[string]string),
			Search:  s.Criteria.Search,
		},
		Rows:        s.View.Len(),
		DatasetRows: s.DatasetRows,
		KPIs: KPIDoc{
			Total:         number(s.KPIs.Total),
			Records:       s.KPIs.Records,
			Beneficiaries: s.KPIs.Beneficiaries,
			Sectors:       s.KPIs.Sectors,
			Regions:       s.KPIs.Regions,
		},
		Views: make([]ViewDoc, 0, len(s.Views)),
	}
	for _, f := range s.Criteria.Active() {
		doc.Criteria.Filters[f.String()] = s.Criteria.Equals[f]
	}
	for _, v := range s.Views {
		vd := ViewDoc{
			Name:   v.Name,
			Title:  v.Title,
			Chart:  v.Chart,
			Groups: make([]GroupDoc, 0, len(v.Groups)),
		}
		for _, g := range v.Groups {
			vd.Groups = append(vd.Groups, GroupDoc{Key: g.Key, Value: number(g.Value)})
		}
		doc.Views = append(doc.Views, vd)
	}
	return doc
}

// NewRecordDocs converts the filtered records of a view.
func NewRecordDocs(records []core.Record) []RecordDoc {
	out := make([]RecordDoc, 0, len(records))
	for _, r := range records {
		out = append(out, RecordDoc{
			Beneficiary: r.Beneficiary,
			SubjectType: r.SubjectType,
			Province:    r.Province,
			Region:      r.Region,
			MacroSector: r.MacroSector,
			Purpose:     r.Purpose,
			Year:        r.Year,
			Amount:      number(r.Amount),
		})
	}
	return out
}

// NewOptionsDoc builds the select options of p from ds.
func NewOptionsDoc(ds *core.Dataset, p engine.Profile) OptionsDoc {
	doc := OptionsDoc{Profile: p.Name, Filters: make(map[string][]string, len(p.Filters))}
	for _, f := range p.Filters {
		values := ds.DistinctValues(f)
		if f == core.FieldRegion {
			kept := values[:0]
			for _, v := range values {
				if v == core.UnassignedRegion {
					doc.UnassignedRegion = v
					continue
				}
				kept = append(kept, v)
			}
			values = kept
		}
		doc.Filters[f.String()] = values
	}
	return doc
}

// JSON writes v indented, followed by a newline.
func JSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
