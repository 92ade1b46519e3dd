package core

import (
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/shopspring/decimal"
)

// UnassignedRegion marks records whose region could not be determined.
const UnassignedRegion = "Non assegnata"

const (
	FieldBeneficiary Field = "beneficiary"
	FieldSubjectType Field = "subject_type"
	FieldProvince    Field = "province"
	FieldRegion      Field = "region"
	FieldMacroSector Field = "macro_sector"
	FieldPurpose     Field = "purpose"
	FieldYear        Field = "year"
	FieldAmount      Field = "amount"
)

type (
	// Field names a column of a Record.
	Field string

	// Record is one disbursement line item.
	Record struct {
		Beneficiary string
		SubjectType string
		Province    string
		Region      string
		MacroSector string
		Purpose     string // empty unless the source carries Finalita_Oggetto
		Year        int
		Amount      decimal.Decimal
	}
)

var (
	ErrUnknownField   = errors.New("unknown field")
	ErrNegativeAmount = errors.New("negative amount")
	ErrInvalidAmount  = errors.New("invalid amount")
)

// Fields lists every known field in display order.
func Fields() []Field {
	return []Field{
		FieldBeneficiary,
		FieldSubjectType,
		FieldProvince,
		FieldRegion,
		FieldMacroSector,
		FieldPurpose,
		FieldYear,
		FieldAmount,
	}
}

// ParseField resolves a field name, ignoring case and surrounding spaces.
func ParseField(s string) (Field, error) {
	f := Field(strings.ToLower(strings.TrimSpace(s)))
	if !f.IsValid() {
		return "", fmt.Errorf("%w: %q", ErrUnknownField, s)
	}
	return f, nil
}

func (f Field) String() string {
	return string(f)
}

// IsValid reports whether f is a known field.
func (f Field) IsValid() bool {
	switch f {
	case FieldBeneficiary, FieldSubjectType, FieldProvince, FieldRegion,
		FieldMacroSector, FieldPurpose, FieldYear, FieldAmount:
		return true
	default:
		return false
	}
}

// IsCategorical reports whether f can be used as a grouping key or an
// exact-match filter.
func (f Field) IsCategorical() bool {
	return f.IsValid() && f != FieldAmount
}

// Value returns the string form of field f used for matching and grouping.
// Unknown fields yield the empty string.
func (r Record) Value(f Field) string {
	switch f {
	case FieldBeneficiary:
		return r.Beneficiary
	case FieldSubjectType:
		return r.SubjectType
	case FieldProvince:
		return r.Province
	case FieldRegion:
		return r.Region
	case FieldMacroSector:
		return r.MacroSector
	case FieldPurpose:
		return r.Purpose
	case FieldYear:
		return strconv.Itoa(r.Year)
	case FieldAmount:
		return r.Amount.String()
	default:
		return ""
	}
}

// HasRegion reports whether the record carries a determined region.
func (r Record) HasRegion() bool {
	return r.Region != UnassignedRegion
}

// Validate rejects what no source may yield. Blank text cells, including the
// beneficiary, are ordinary values.
func (r Record) Validate() error {
	if r.Amount.IsNegative() {
		return ErrNegativeAmount
	}
	return nil
}
