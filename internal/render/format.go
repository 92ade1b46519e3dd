// Package render turns engine results into presentation artefacts: Italian
// number formatting, PNG charts and XLSX workbooks.
package render

import (
	"fmt"

	"github.com/shopspring/decimal"
	"golang.org/x/text/language"
	"golang.org/x/text/message"

	"fondo/internal/core"
	"fondo/internal/engine"
)

var million = decimal.NewFromInt(1_000_000)

func printer() *message.Printer {
	return message.NewPrinter(language.Italian)
}

// Count formats an integer with Italian thousands separators: 1.002.
func Count(n int) string {
	return printer().Sprintf("%d", n)
}

// Euro formats an amount with two decimals: € 1.234.567,89.
func Euro(d decimal.Decimal) string {
	r := d.Round(2)
	whole := r.IntPart()
	cents := r.Sub(decimal.NewFromInt(whole)).Shift(2).Abs().IntPart()
	return fmt.Sprintf("€ %s,%02d", printer().Sprintf("%d", whole), cents)
}

// Millions formats an amount the way the KPI row shows it: €12,3M.
func Millions(d decimal.Decimal) string {
	r := d.Div(million).Round(1)
	whole := r.IntPart()
	tenth := r.Sub(decimal.NewFromInt(whole)).Shift(1).Abs().IntPart()
	return fmt.Sprintf("€%s,%dM", printer().Sprintf("%d", whole), tenth)
}

// YearRange renders the span of years in a dataset: 2026-2027, or a single
// year when both ends match.
func YearRange(st core.DatasetStats) string {
	if st.Records == 0 {
		return ""
	}
	if st.MinYear == st.MaxYear {
		return fmt.Sprintf("%d", st.MinYear)
	}
	return fmt.Sprintf("%d-%d", st.MinYear, st.MaxYear)
}

// Headline is the page subtitle: 501 beneficiari • 1.002 record • 2026-2027.
func Headline(st core.DatasetStats) string {
	return fmt.Sprintf("%s beneficiari • %s record • %s", Count(st.Beneficiaries), Count(st.Records), YearRange(st))
}

// Shown is the caption above the detail table.
func Shown(s engine.Summary) string {
	return fmt.Sprintf("Mostrando %s record su %s totali", Count(s.View.Len()), Count(s.DatasetRows))
}

// Column headings of the detail table.
var columnTitles = map[core.Field]string{
	core.FieldBeneficiary: "Beneficiario",
	core.FieldSubjectType: "Tipologia",
	core.FieldProvince:    "Provincia",
	core.FieldRegion:      "Regione",
	core.FieldMacroSector: "Macro-Settore",
	core.FieldPurpose:     "Finalità",
	core.FieldYear:        "Anno",
	core.FieldAmount:      "Importo",
}

// ColumnTitle returns the Italian heading for f.
func ColumnTitle(f core.Field) string {
	if t, ok := columnTitles[f]; ok {
		return t
	}
	return f.String()
}

// Cell renders field f of r for the detail table.
func Cell(r core.Record, f core.Field) string {
	if f == core.FieldAmount {
		return Euro(r.Amount)
	}
	return r.Value(f)
}
