// Package memory serves a fixed set of records, for tests and demos.
package memory

import (
	"context"
	"slices"
	"sync/atomic"

	"fondo/internal/core"
)

type Store struct {
	name  string
	items []core.Record
	reads atomic.Int64
}

func New(name string, records []core.Record) *Store {
	if name == "" {
		name = "memory"
	}
	return &Store{name: name, items: slices.Clone(records)}
}

func (s *Store) Name() string { return s.name }

// Rows returns a copy of the records.
func (s *Store) Rows(ctx context.Context) ([]core.Record, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	s.reads.Add(1)
	return slices.Clone(s.items), nil
}

// Reads reports how many times Rows has been served.
func (s *Store) Reads() int64 {
	return s.reads.Load()
}

// Sample is a small dataset shaped like the published one.
func Sample() []core.Record {
	return []core.Record{
		{Beneficiary: "Comune di Lecce", SubjectType: "Comune", Province: "LE", Region: "Puglia", MacroSector: "Cultura", Purpose: "Restauro del teatro comunale", Year: 2026, Amount: core.MustAmount("150000")},
		{Beneficiary: "Comune di Lecce", SubjectType: "Comune", Province: "LE", Region: "Puglia", MacroSector: "Infrastrutture", Purpose: "Rifacimento marciapiedi", Year: 2027, Amount: core.MustAmount("80000")},
		{Beneficiary: "ASD Virtus Roma", SubjectType: "Associazione sportiva", Province: "RM", Region: "Lazio", MacroSector: "Sport", Purpose: "Attrezzature palestra", Year: 2026, Amount: core.MustAmount("25000")},
		{Beneficiary: "Parrocchia San Rocco", SubjectType: "Ente religioso", Province: "PA", Region: "Sicilia", MacroSector: "Sociale", Purpose: "Mensa solidale", Year: 2026, Amount: core.MustAmount("40000")},
		{Beneficiary: "Fondazione Arte Viva", SubjectType: "Fondazione", Province: "MI", Region: "Lombardia", MacroSector: "Cultura", Purpose: "Rassegna musicale", Year: 2027, Amount: core.MustAmount("60000")},
		{Beneficiary: "Pro Loco Valle", SubjectType: "Associazione", Province: "", Region: core.UnassignedRegion, MacroSector: "Cultura", Purpose: "Sagra del paese", Year: 2027, Amount: core.MustAmount("12000")},
	}
}
