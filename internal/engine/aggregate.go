package engine

import (
	"fmt"
	"slices"

	"github.com/shopspring/decimal"

	"fondo/internal/core"
)

// Op reduces a group of records to one value.
type Op string

const (
	OpSum           Op = "sum"
	OpCountDistinct Op = "count_distinct"
)

// Order selects how groups are ranked.
type Order string

const (
	// OrderDescValue ranks by value, highest first; equal values fall back
	// to ascending key.
	OrderDescValue Order = "desc_value"
	// OrderAscKey sorts by key, years numerically.
	OrderAscKey Order = "asc_key"
)

func (o Op) IsValid() bool    { return o == OpSum || o == OpCountDistinct }
func (o Order) IsValid() bool { return o == OrderDescValue || o == OrderAscKey }

// Spec describes one aggregation. The zero Op sums and the zero Order is
// OrderDescValue.
//
// Key is the grouping field; an empty Key yields a single ungrouped group.
// Value is the field reduced by Op: summed for OpSum (the amount field), or
// counted for OpCountDistinct. Records whose Key value equals Exclude are
// dropped before grouping; for an ungrouped count it is the counted value that
// is compared. TopN <= 0 keeps every group.
type Spec struct {
	Key     core.Field
	Value   core.Field
	Op      Op
	Exclude string
	TopN    int
	Order   Order
}

// Group is one (label, value) pair of an aggregation.
type Group struct {
	Key   string
	Value decimal.Decimal
}

// Result is an ordered aggregation. A nil or empty Result means there is
// nothing to display.
type Result []Group

// Total sums the values of every group in r.
func (r Result) Total() decimal.Decimal {
	total := decimal.Zero
	for _, g := range r {
		total = total.Add(g.Value)
	}
	return total
}

// Keys returns the group labels in order.
func (r Result) Keys() []string {
	out := make([]string, len(r))
	for i, g := range r {
		out[i] = g.Key
	}
	return out
}

// Validate reports a Spec that AggregateBy cannot honour.
func (s Spec) Validate() error {
	if s.Key != "" && !s.Key.IsCategorical() {
		return fmt.Errorf("%w: key %q", core.ErrUnknownField, s.Key)
	}
	if s.Op != "" && !s.Op.IsValid() {
		return fmt.Errorf("unknown op %q", s.Op)
	}
	if s.Op != OpCountDistinct && s.valueField() != core.FieldAmount {
		return fmt.Errorf("sum needs the amount field, got %q", s.Value)
	}
	if s.Op == OpCountDistinct && !s.valueField().IsCategorical() {
		return fmt.Errorf("%w: count field %q", core.ErrUnknownField, s.Value)
	}
	if s.Order != "" && !s.Order.IsValid() {
		return fmt.Errorf("unknown order %q", s.Order)
	}
	return nil
}

func (s Spec) valueField() core.Field {
	if s.Value == "" {
		return core.FieldAmount
	}
	return s.Value
}

func (s Spec) excluded(r core.Record) bool {
	if s.Exclude == "" {
		return false
	}
	if s.Key == "" {
		return r.Value(s.valueField()) == s.Exclude
	}
	return r.Value(s.Key) == s.Exclude
}

type bucket struct {
	sum      decimal.Decimal
	distinct map[string]struct{}
}

// AggregateBy groups v by s.Key, reduces each group with s.Op, drops the
// excluded key, orders and truncates. An empty view, or one emptied by the
// exclusion, yields an empty Result.
func AggregateBy(v View, s Spec) Result {
	buckets := make(map[string]*bucket)
	keys := make([]string, 0)
	vf := s.valueField()

	for _, r := range v.Records {
		if s.excluded(r) {
			continue
		}
		k := ""
		if s.Key != "" {
			k = r.Value(s.Key)
		}
		b, ok := buckets[k]
		if !ok {
			b = &bucket{sum: decimal.Zero}
			if s.Op == OpCountDistinct {
				b.distinct = make(map[string]struct{})
			}
			buckets[k] = b
			keys = append(keys, k)
		}
		switch s.Op {
		case OpCountDistinct:
			b.distinct[r.Value(vf)] = struct{}{}
		default:
			b.sum = b.sum.Add(r.Amount)
		}
	}
	if len(keys) == 0 {
		return Result{}
	}

	out := make(Result, 0, len(keys))
	for _, k := range keys {
		b := buckets[k]
		val := b.sum
		if s.Op == OpCountDistinct {
			val = decimal.NewFromInt(int64(len(b.distinct)))
		}
		out = append(out, Group{Key: k, Value: val})
	}

	switch s.Order {
	case OrderAscKey:
		slices.SortFunc(out, func(a, b Group) int {
			return core.CompareKeys(s.Key, a.Key, b.Key)
		})
	default:
		slices.SortFunc(out, func(a, b Group) int {
			if c := b.Value.Cmp(a.Value); c != 0 {
				return c
			}
			return core.CompareKeys(s.Key, a.Key, b.Key)
		})
	}

	if s.TopN > 0 && len(out) > s.TopN {
		out = out[:s.TopN]
	}
	return out
}

// Sum is the ungrouped total amount of v.
func Sum(v View) decimal.Decimal {
	return AggregateBy(v, Spec{Op: OpSum}).Total()
}

// CountDistinct is the number of distinct values of f in v, ignoring exclude.
func CountDistinct(v View, f core.Field, exclude string) int {
	return int(AggregateBy(v, Spec{Value: f, Op: OpCountDistinct, Exclude: exclude}).Total().IntPart())
}
