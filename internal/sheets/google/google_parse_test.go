package google

import (
	"errors"
	"testing"

	"fondo/internal/core"
)

func TestParseValues(t *testing.T) {
	values := [][]interface{}{
		{"Beneficiario", "Tipologia_Soggetto", "Provincia", "Regione", "Macro_Settore", "Finalita_Oggetto", "Anno", "Importo"},
		{"Comune di Enna", "Comune", "EN", "Sicilia", "Infrastrutture", "Strada", 2026.0, 1500000.0},
		{},
		{"Parrocchia S. Rocco", "Ente religioso", "", "Non assegnata", "Cultura", nil, 2027.0, "2.500,75"},
	}

	recs, err := parseValues("sheet", values)
	if err != nil {
		t.Fatalf("parse err: %v", err)
	}
	if len(recs) != 2 {
		t.Fatalf("expected 2 records, got %d", len(recs))
	}
	if recs[0].Year != 2026 || !recs[0].Amount.Equal(core.MustAmount("1500000")) {
		t.Fatalf("unexpected first record: %+v", recs[0])
	}
	if recs[1].Purpose != "" || !recs[1].Amount.Equal(core.MustAmount("2500.75")) {
		t.Fatalf("unexpected second record: %+v", recs[1])
	}
}

func TestParseValuesMissingHeader(t *testing.T) {
	_, err := parseValues("sheet", [][]interface{}{{"Beneficiario", "Importo"}})
	if !errors.Is(err, core.ErrMissingColumn) {
		t.Fatalf("expected ErrMissingColumn, got %v", err)
	}
	_, err = parseValues("sheet", nil)
	if !errors.Is(err, core.ErrMissingColumn) {
		t.Fatalf("expected ErrMissingColumn for empty sheet, got %v", err)
	}
}

func TestCellString(t *testing.T) {
	cases := map[interface{}]string{
		nil:    "",
		" x ":  "x",
		2026.0: "2026",
		1.5e7:  "15000000",
		12.25:  "12.25",
		true:   "true",
	}
	for in, want := range cases {
		if got := cellString(in); got != want {
			t.Fatalf("cellString(%v) = %q, want %q", in, got, want)
		}
	}
}
