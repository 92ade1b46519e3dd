package render

import (
	"fmt"
	"io"
	"strings"

	"github.com/xuri/excelize/v2"

	"fondo/internal/core"
	"fondo/internal/engine"
)

// Sheet names of the exported workbook.
const (
	SheetDetails = "Dettagli"
	SheetSummary = "Riepilogo"
)

// Workbook writes the filtered records and every aggregation of s as XLSX.
// columns selects the detail table fields, in order.
func Workbook(w io.Writer, s engine.Summary, columns []core.Field) error {
	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName("Sheet1", SheetDetails); err != nil {
		return fmt.Errorf("rename sheet: %w", err)
	}
	if _, err := f.NewSheet(SheetSummary); err != nil {
		return fmt.Errorf("create summary sheet: %w", err)
	}

	headerStyle, err := f.NewStyle(&excelize.Style{
		Font: &excelize.Font{Bold: true, Color: "#FFFFFF"},
		Fill: excelize.Fill{Type: "pattern", Color: []string{"#1F77B4"}, Pattern: 1},
	})
	if err != nil {
		return fmt.Errorf("header style: %w", err)
	}
	// Built-in format 4 is "#,##0.00".
	amountStyle, err := f.NewStyle(&excelize.Style{NumFmt: 4})
	if err != nil {
		return fmt.Errorf("amount style: %w", err)
	}

	if err := writeDetails(f, s, columns, headerStyle, amountStyle); err != nil {
		return err
	}
	if err := writeSummary(f, s, headerStyle, amountStyle); err != nil {
		return err
	}

	if _, err := f.WriteTo(w); err != nil {
		return fmt.Errorf("write workbook: %w", err)
	}
	return nil
}

func writeDetails(f *excelize.File, s engine.Summary, columns []core.Field, headerStyle, amountStyle int) error {
	header := make([]interface{}, len(columns))
	for i, c := range columns {
		header[i] = ColumnTitle(c)
	}
	if err := f.SetSheetRow(SheetDetails, "A1", &header); err != nil {
		return fmt.Errorf("write details header: %w", err)
	}
	last, _ := excelize.CoordinatesToCellName(len(columns), 1)
	if err := f.SetCellStyle(SheetDetails, "A1", last, headerStyle); err != nil {
		return fmt.Errorf("style details header: %w", err)
	}

	for i, r := range s.View.Records {
		row := make([]interface{}, len(columns))
		for j, c := range columns {
			switch c {
			case core.FieldAmount:
				row[j] = r.Amount.InexactFloat64()
			case core.FieldYear:
				row[j] = r.Year
			default:
				row[j] = r.Value(c)
			}
		}
		cell, _ := excelize.CoordinatesToCellName(1, i+2)
		if err := f.SetSheetRow(SheetDetails, cell, &row); err != nil {
			return fmt.Errorf("write details row %d: %w", i+1, err)
		}
	}

	for j, c := range columns {
		col, _ := excelize.ColumnNumberToName(j + 1)
		width := 14.0
		switch c {
		case core.FieldBeneficiary, core.FieldPurpose:
			width = 40
		case core.FieldAmount:
			width = 16
			if len(s.View.Records) > 0 {
				if err := f.SetCellStyle(SheetDetails, col+"2", fmt.Sprintf("%s%d", col, len(s.View.Records)+1), amountStyle); err != nil {
					return fmt.Errorf("style amounts: %w", err)
				}
			}
		}
		if err := f.SetColWidth(SheetDetails, col, col, width); err != nil {
			return fmt.Errorf("set column width: %w", err)
		}
	}
	return nil
}

func writeSummary(f *excelize.File, s engine.Summary, headerStyle, amountStyle int) error {
	row := 1
	put := func(values ...interface{}) error {
		cell, _ := excelize.CoordinatesToCellName(1, row)
		row++
		return f.SetSheetRow(SheetSummary, cell, &values)
	}

	kpis := [][]interface{}{
		{"Importo totale", s.KPIs.Total.InexactFloat64()},
		{"Record", s.KPIs.Records},
		{"Beneficiari", s.KPIs.Beneficiaries},
		{"Macro-settori", s.KPIs.Sectors},
		{"Regioni", s.KPIs.Regions},
	}
	if err := put("Indicatore", "Valore"); err != nil {
		return fmt.Errorf("write summary header: %w", err)
	}
	if err := f.SetCellStyle(SheetSummary, "A1", "B1", headerStyle); err != nil {
		return fmt.Errorf("style summary header: %w", err)
	}
	for i, k := range kpis {
		if err := put(k...); err != nil {
			return fmt.Errorf("write kpi: %w", err)
		}
		if i == 0 {
			if err := f.SetCellStyle(SheetSummary, "B2", "B2", amountStyle); err != nil {
				return fmt.Errorf("style total: %w", err)
			}
		}
	}
	if filters := DescribeCriteria(s.Criteria); filters != "" {
		if err := put("Filtri", filters); err != nil {
			return fmt.Errorf("write filters: %w", err)
		}
	}

	for _, v := range s.Views {
		row++
		start := row
		if err := put(v.Title, "Importo"); err != nil {
			return fmt.Errorf("write view %s: %w", v.Name, err)
		}
		if err := f.SetCellStyle(SheetSummary, fmt.Sprintf("A%d", start), fmt.Sprintf("B%d", start), headerStyle); err != nil {
			return fmt.Errorf("style view %s: %w", v.Name, err)
		}
		if len(v.Groups) == 0 {
			if err := put("Nessun dato"); err != nil {
				return fmt.Errorf("write view %s: %w", v.Name, err)
			}
			continue
		}
		for _, g := range v.Groups {
			if err := put(g.Key, g.Value.InexactFloat64()); err != nil {
				return fmt.Errorf("write view %s: %w", v.Name, err)
			}
		}
		if err := f.SetCellStyle(SheetSummary, fmt.Sprintf("B%d", start+1), fmt.Sprintf("B%d", row-1), amountStyle); err != nil {
			return fmt.Errorf("style view %s: %w", v.Name, err)
		}
	}

	if err := f.SetColWidth(SheetSummary, "A", "A", 40); err != nil {
		return fmt.Errorf("set column width: %w", err)
	}
	return f.SetColWidth(SheetSummary, "B", "B", 18)
}

// DescribeCriteria renders active criteria as "region=Puglia, ricerca=bari".
func DescribeCriteria(c engine.Criteria) string {
	var parts []string
	for _, f := range c.Active() {
		parts = append(parts, fmt.Sprintf("%s=%s", f, c.Equals[f]))
	}
	if s := c.Search; s != "" {
		parts = append(parts, "ricerca="+s)
	}
	return strings.Join(parts, ", ")
}
