// Package source decodes disbursement tables into records. The csv, sqlite,
// google and memory subpackages feed it rows from their storage.
package source

import (
	"fmt"
	"strconv"
	"strings"

	"fondo/internal/core"
)

// Column names of the published dataset.
const (
	ColBeneficiary = "Beneficiario"
	ColSubjectType = "Tipologia_Soggetto"
	ColProvince    = "Provincia"
	ColRegion      = "Regione"
	ColMacroSector = "Macro_Settore"
	ColPurpose     = "Finalita_Oggetto"
	ColYear        = "Anno"
	ColAmount      = "Importo"
)

// RequiredColumns must appear in every source header.
var RequiredColumns = []string{
	ColBeneficiary,
	ColSubjectType,
	ColProvince,
	ColRegion,
	ColMacroSector,
	ColYear,
	ColAmount,
}

// Header maps column names to positions in a row.
type Header struct {
	index   map[string]int
	purpose bool
}

// ParseHeader locates the known columns. Names are trimmed, and a leading
// UTF-8 byte order mark is ignored. Every missing required column is
// reported in a single error.
func ParseHeader(source string, cols []string) (Header, error) {
	h := Header{index: make(map[string]int, len(cols))}
	for i, c := range cols {
		c = strings.TrimSpace(strings.TrimPrefix(c, "\ufeff"))
		if _, dup := h.index[c]; !dup {
			h.index[c] = i
		}
	}
	var missing []string
	for _, c := range RequiredColumns {
		if _, ok := h.index[c]; !ok {
			missing = append(missing, c)
		}
	}
	if len(missing) > 0 {
		return Header{}, &core.LoadError{
			Source: source,
			Line:   1,
			Column: strings.Join(missing, ", "),
			Err:    core.ErrMissingColumn,
		}
	}
	_, h.purpose = h.index[ColPurpose]
	return h, nil
}

// HasPurpose reports whether the optional purpose column is present.
func (h Header) HasPurpose() bool {
	return h.purpose
}

func (h Header) cell(row []string, col string) string {
	i, ok := h.index[col]
	if !ok || i >= len(row) {
		return ""
	}
	return strings.TrimSpace(row[i])
}

// Record decodes one data row. line is the 1-based position used in errors.
func (h Header) Record(source string, line int, row []string) (core.Record, error) {
	year, err := ParseYear(h.cell(row, ColYear))
	if err != nil {
		return core.Record{}, &core.LoadError{Source: source, Line: line, Column: ColYear, Err: err}
	}
	raw := h.cell(row, ColAmount)
	amount, err := core.ParseAmount(raw)
	if err != nil {
		return core.Record{}, &core.LoadError{Source: source, Line: line, Column: ColAmount, Err: fmt.Errorf("%w: %q", err, raw)}
	}
	r := core.Record{
		Beneficiary: h.cell(row, ColBeneficiary),
		SubjectType: h.cell(row, ColSubjectType),
		Province:    h.cell(row, ColProvince),
		Region:      h.cell(row, ColRegion),
		MacroSector: h.cell(row, ColMacroSector),
		Year:        year,
		Amount:      amount,
	}
	if h.purpose {
		r.Purpose = h.cell(row, ColPurpose)
	}
	return r, nil
}

// ParseYear accepts integer years, including the "2026.0" form produced by
// spreadsheet exports.
func ParseYear(s string) (int, error) {
	s = strings.TrimSuffix(strings.TrimSpace(s), ".0")
	y, err := strconv.Atoi(s)
	if err != nil {
		return 0, fmt.Errorf("%w: %q", core.ErrInvalidYear, s)
	}
	return y, nil
}

// Decode turns a header row followed by data rows into records. Fully blank
// rows are skipped. firstLine is the line number of the header row.
func Decode(source string, firstLine int, rows [][]string) ([]core.Record, error) {
	if len(rows) == 0 {
		return nil, &core.LoadError{Source: source, Err: fmt.Errorf("%w: no header row", core.ErrMissingColumn)}
	}
	h, err := ParseHeader(source, rows[0])
	if err != nil {
		return nil, err
	}
	out := make([]core.Record, 0, len(rows)-1)
	for i, row := range rows[1:] {
		if Blank(row) {
			continue
		}
		r, err := h.Record(source, firstLine+1+i, row)
		if err != nil {
			return nil, err
		}
		out = append(out, r)
	}
	return out, nil
}

// Blank reports whether every cell of row is empty or whitespace.
func Blank(row []string) bool {
	for _, c := range row {
		if strings.TrimSpace(c) != "" {
			return false
		}
	}
	return true
}
