package http

import (
	"strings"

	"fondo/internal/core"
	"fondo/internal/engine"
	"fondo/internal/render"
)

// pageData is everything index.html renders. All formatting happens here so
// the template stays free of logic.
type pageData struct {
	Title       string
	Headline    string
	Filters     []filterSelect
	Search      string
	SearchLabel string
	KPIs        []kpi
	Charts      []chartRef
	Columns     []string
	Rows        [][]string
	Shown       string
	Empty       bool
	ExportURL   string
	Footer      string
}

type filterSelect struct {
	Name    string
	Label   string
	Options []option
}

type option struct {
	Value    string
	Label    string
	Selected bool
}

type kpi struct {
	Label string
	Value string
}

type chartRef struct {
	Title string
	URL   string
	Empty bool
	Wide  bool
}

// filterLabels are the select captions; anyLabels the "no restriction"
// entry, agreeing in gender with the noun.
var (
	filterLabels = map[core.Field]string{
		core.FieldMacroSector: "Macro-Settore",
		core.FieldSubjectType: "Tipologia",
		core.FieldRegion:      "Regione",
		core.FieldProvince:    "Provincia",
		core.FieldYear:        "Anno",
		core.FieldBeneficiary: "Beneficiario",
		core.FieldPurpose:     "Finalità",
	}
	anyLabels = map[core.Field]string{
		core.FieldRegion:   engine.AnyFeminine,
		core.FieldProvince: engine.AnyFeminine,
		core.FieldPurpose:  engine.AnyFeminine,
		core.FieldYear:     "Tutti",
	}
)

func newPageData(ds *core.Dataset, sum engine.Summary, p engine.Profile) pageData {
	st := ds.Stats()
	query := EncodeCriteria(sum.Criteria).Encode()
	suffix := ""
	if query != "" {
		suffix = "?" + query
	}

	data := pageData{
		Title:       p.Title,
		Headline:    render.Headline(st),
		Search:      sum.Criteria.Search,
		SearchLabel: searchLabel(p.SearchFields),
		KPIs: []kpi{
			{Label: "Importo", Value: render.Millions(sum.KPIs.Total)},
			{Label: "Beneficiari", Value: render.Count(sum.KPIs.Beneficiaries)},
			{Label: "Settori", Value: render.Count(sum.KPIs.Sectors)},
			{Label: "Regioni", Value: render.Count(sum.KPIs.Regions)},
		},
		Empty:     sum.IsEmpty(),
		Shown:     render.Shown(sum),
		ExportURL: "/export.xlsx" + suffix,
		Footer:    footer(ds, st),
	}

	for _, f := range p.Filters {
		data.Filters = append(data.Filters, newFilterSelect(f, ds.DistinctValues(f), sum.Criteria.Equals[f]))
	}

	for i, v := range sum.Views {
		data.Charts = append(data.Charts, chartRef{
			Title: v.Title,
			URL:   "/charts/" + v.Name + ".png" + suffix,
			Empty: !render.Plottable(v.Groups),
			// the last view spans the full row, like the region ranking
			Wide: i == len(sum.Views)-1 && len(sum.Views)%2 == 1,
		})
	}

	for _, f := range p.TableFields {
		data.Columns = append(data.Columns, render.ColumnTitle(f))
	}
	if !data.Empty {
		data.Rows = make([][]string, 0, sum.View.Len())
		for _, rec := range sum.View.Records {
			row := make([]string, 0, len(p.TableFields))
			for _, f := range p.TableFields {
				row = append(row, render.Cell(rec, f))
			}
			data.Rows = append(data.Rows, row)
		}
	}
	return data
}

func newFilterSelect(f core.Field, values []string, selected string) filterSelect {
	anyLabel, ok := anyLabels[f]
	if !ok {
		anyLabel = engine.AnyMasculine
	}
	anyValue := anyLabel
	if f == core.FieldYear {
		anyValue = ""
	}

	fs := filterSelect{
		Name:    f.String(),
		Label:   filterLabels[f],
		Options: make([]option, 0, len(values)+1),
	}
	fs.Options = append(fs.Options, option{Value: anyValue, Label: anyLabel, Selected: selected == ""})
	for _, v := range values {
		fs.Options = append(fs.Options, option{Value: v, Label: v, Selected: v == selected})
	}
	return fs
}

// searchLabel is the search box placeholder: "Ricerca beneficiario...".
func searchLabel(fields []core.Field) string {
	names := make([]string, 0, len(fields))
	for _, f := range fields {
		names = append(names, strings.ToLower(render.ColumnTitle(f)))
	}
	if len(names) == 0 {
		names = append(names, strings.ToLower(render.ColumnTitle(core.FieldBeneficiary)))
	}
	return "Ricerca " + strings.Join(names, ", ") + "..."
}

func footer(ds *core.Dataset, st core.DatasetStats) string {
	out := "Dashboard Fondo Parlamentare"
	if yr := render.YearRange(st); yr != "" {
		out += " " + yr
	}
	if !ds.LoadedAt().IsZero() {
		out += " • dati caricati il " + ds.LoadedAt().Format("02/01/2006 15:04")
	}
	return out
}
