package core

import (
	"slices"
	"strconv"
	"time"
)

// Dataset is the immutable, fully loaded table of records. Callers must treat
// the slice returned by Records as read-only; it is shared by every request.
type Dataset struct {
	source   string
	loadedAt time.Time
	records  []Record
	vocab    map[Field][]string
}

// DatasetStats are the headline numbers of a loaded dataset.
type DatasetStats struct {
	Records       int
	Beneficiaries int
	MinYear       int
	MaxYear       int
}

// NewDataset takes ownership of records and precomputes the distinct-value
// vocabulary of every categorical field.
func NewDataset(source string, loadedAt time.Time, records []Record) *Dataset {
	ds := &Dataset{
		source:   source,
		loadedAt: loadedAt,
		records:  records,
		vocab:    make(map[Field][]string),
	}
	for _, f := range Fields() {
		if !f.IsCategorical() {
			continue
		}
		ds.vocab[f] = distinct(records, f)
	}
	return ds
}

func (d *Dataset) Source() string      { return d.source }
func (d *Dataset) LoadedAt() time.Time { return d.loadedAt }
func (d *Dataset) Len() int            { return len(d.records) }
func (d *Dataset) Records() []Record   { return d.records }

// DistinctValues returns the sorted distinct values of field f. The returned
// slice is a copy. Years sort numerically, every other field sorts by
// case-sensitive byte order.
func (d *Dataset) DistinctValues(f Field) []string {
	return slices.Clone(d.vocab[f])
}

// Stats summarizes the dataset for page headers.
func (d *Dataset) Stats() DatasetStats {
	st := DatasetStats{
		Records:       len(d.records),
		Beneficiaries: len(d.vocab[FieldBeneficiary]),
	}
	for i, r := range d.records {
		if i == 0 || r.Year < st.MinYear {
			st.MinYear = r.Year
		}
		if i == 0 || r.Year > st.MaxYear {
			st.MaxYear = r.Year
		}
	}
	return st
}

func distinct(records []Record, f Field) []string {
	seen := make(map[string]struct{})
	out := make([]string, 0)
	for _, r := range records {
		v := r.Value(f)
		if _, ok := seen[v]; ok {
			continue
		}
		seen[v] = struct{}{}
		out = append(out, v)
	}
	slices.SortFunc(out, func(a, b string) int { return CompareKeys(f, a, b) })
	return out
}

// CompareKeys orders two values of field f: numerically for years (falling
// back to byte order for non-numeric input), by byte order otherwise.
func CompareKeys(f Field, a, b string) int {
	if f == FieldYear {
		ai, aerr := strconv.Atoi(a)
		bi, berr := strconv.Atoi(b)
		if aerr == nil && berr == nil {
			switch {
			case ai < bi:
				return -1
			case ai > bi:
				return 1
			default:
				return 0
			}
		}
	}
	switch {
	case a < b:
		return -1
	case a > b:
		return 1
	default:
		return 0
	}
}
