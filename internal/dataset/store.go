// Package dataset owns the process-wide, load-once dataset.
package dataset

import (
	"context"
	"errors"
	"fmt"
	"sync/atomic"
	"time"

	"golang.org/x/sync/singleflight"

	"fondo/internal/core"
	"fondo/internal/log"
)

// Source reads every row of a tabular source. Implementations return a
// *core.LoadError for missing or malformed input.
type Source interface {
	Name() string
	Rows(ctx context.Context) ([]core.Record, error)
}

// Store loads the dataset from its Source on first use and serves the same
// immutable instance for the rest of the process lifetime. A failed load is
// not remembered, so a later call retries.
type Store struct {
	src    Source
	logger *log.Logger
	now    func() time.Time

	group singleflight.Group
	ds    atomic.Pointer[core.Dataset]

	// OnLoad, when set, observes every completed read of the source.
	OnLoad func(ds *core.Dataset, took time.Duration, err error)
}

// NewStore returns a Store backed by src. It does not read src.
func NewStore(src Source, logger *log.Logger) *Store {
	if logger == nil {
		logger = log.Default()
	}
	return &Store{
		src:    src,
		logger: logger.WithComponent(log.ComponentDataset),
		now:    time.Now,
	}
}

// Load returns the dataset, reading the source if it has not been read yet.
// Concurrent first callers share a single read.
func (s *Store) Load(ctx context.Context) (*core.Dataset, error) {
	if ds := s.ds.Load(); ds != nil {
		return ds, nil
	}

	v, err, _ := s.group.Do("load", func() (any, error) {
		if ds := s.ds.Load(); ds != nil {
			return ds, nil
		}
		return s.read(ctx)
	})
	if err != nil {
		return nil, err
	}
	return v.(*core.Dataset), nil
}

func (s *Store) read(ctx context.Context) (*core.Dataset, error) {
	start := s.now()
	records, err := s.src.Rows(ctx)
	took := s.now().Sub(start)
	if err != nil {
		if !core.IsLoadError(err) {
			err = &core.LoadError{Source: s.src.Name(), Err: err}
		}
		s.logger.Error("Dataset load failed",
			log.FieldSource, s.src.Name(),
			log.FieldError, err)
		if s.OnLoad != nil {
			s.OnLoad(nil, took, err)
		}
		return nil, err
	}

	for i, r := range records {
		if verr := r.Validate(); verr != nil {
			err := &core.LoadError{Source: s.src.Name(), Line: i + 1, Err: verr}
			if s.OnLoad != nil {
				s.OnLoad(nil, took, err)
			}
			return nil, err
		}
	}

	ds := core.NewDataset(s.src.Name(), s.now(), records)
	s.ds.Store(ds)

	st := ds.Stats()
	s.logger.Info("Dataset loaded",
		log.FieldSource, ds.Source(),
		log.FieldRecords, st.Records,
		"beneficiaries", st.Beneficiaries,
		"years", fmt.Sprintf("%d-%d", st.MinYear, st.MaxYear),
		log.FieldDuration, took.String())
	if s.OnLoad != nil {
		s.OnLoad(ds, took, nil)
	}
	return ds, nil
}

// Loaded reports whether the dataset is available without reading.
func (s *Store) Loaded() bool {
	return s.ds.Load() != nil
}

// DistinctValues returns the sorted vocabulary of field f, loading the
// dataset if needed.
func (s *Store) DistinctValues(ctx context.Context, f core.Field) ([]string, error) {
	if !f.IsCategorical() {
		return nil, fmt.Errorf("%w: %q", core.ErrUnknownField, f)
	}
	ds, err := s.Load(ctx)
	if err != nil {
		return nil, err
	}
	return ds.DistinctValues(f), nil
}

// ErrNotLoaded is returned by Get before the first successful Load.
var ErrNotLoaded = errors.New("dataset not loaded")

// Get returns the dataset without triggering a read.
func (s *Store) Get() (*core.Dataset, error) {
	if ds := s.ds.Load(); ds != nil {
		return ds, nil
	}
	return nil, ErrNotLoaded
}
