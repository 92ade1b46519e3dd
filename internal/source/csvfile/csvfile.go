// Package csvfile reads the dataset from a delimited text file.
package csvfile

import (
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"

	"fondo/internal/core"
	"fondo/internal/source"
)

// Source reads records from a CSV file on disk.
type Source struct {
	path  string
	comma rune
}

// Option customizes a Source.
type Option func(*Source)

// WithDelimiter sets the field separator. The default is ','.
func WithDelimiter(r rune) Option {
	return func(s *Source) {
		if r != 0 {
			s.comma = r
		}
	}
}

// New returns a Source for path. The file is not opened until Rows.
func New(path string, opts ...Option) *Source {
	s := &Source{path: path, comma: ','}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func (s *Source) Name() string { return s.path }

// Rows reads and decodes the whole file.
func (s *Source) Rows(ctx context.Context) ([]core.Record, error) {
	f, err := os.Open(s.path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			err = fmt.Errorf("%w: %v", core.ErrSourceMissing, err)
		}
		return nil, &core.LoadError{Source: s.path, Err: err}
	}
	defer f.Close()
	return Read(ctx, s.path, f, s.comma)
}

// Read decodes CSV from r. name identifies the input in errors.
func Read(ctx context.Context, name string, r io.Reader, comma rune) ([]core.Record, error) {
	cr := csv.NewReader(r)
	cr.Comma = comma
	cr.FieldsPerRecord = -1
	cr.TrimLeadingSpace = true

	var (
		header source.Header
		seen   bool
		out    []core.Record
	)
	for {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		row, err := cr.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			le := &core.LoadError{Source: name, Err: err}
			var pe *csv.ParseError
			if errors.As(err, &pe) {
				le.Line = pe.Line
			}
			return nil, le
		}
		line, _ := cr.FieldPos(0)
		if !seen {
			header, err = source.ParseHeader(name, row)
			if err != nil {
				return nil, err
			}
			seen = true
			continue
		}
		if source.Blank(row) {
			continue
		}
		rec, err := header.Record(name, line, row)
		if err != nil {
			return nil, err
		}
		out = append(out, rec)
	}
	if !seen {
		return nil, &core.LoadError{Source: name, Err: fmt.Errorf("%w: empty file", core.ErrMissingColumn)}
	}
	return out, nil
}
