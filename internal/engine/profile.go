package engine

import (
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"gopkg.in/yaml.v3"

	"fondo/internal/core"
)

// Chart kinds a view can be rendered as.
const (
	ChartPie  = "pie"
	ChartBar  = "bar"
	ChartLine = "line"
)

// Names of the built-in profiles.
const (
	ProfileSimple = "simple"
	ProfileRich   = "rich"
)

var ErrUnknownProfile = errors.New("unknown profile")

// ViewSpec is a named aggregation together with how it is presented.
type ViewSpec struct {
	Name    string     `yaml:"name"`
	Title   string     `yaml:"title"`
	Key     core.Field `yaml:"key"`
	Op      Op         `yaml:"op"`
	Exclude string     `yaml:"exclude"`
	TopN    int        `yaml:"top_n"`
	Order   Order      `yaml:"order"`
	Chart   string     `yaml:"chart"`
}

// Spec returns the aggregation described by vs.
func (vs ViewSpec) Spec() Spec {
	return Spec{
		Key:     vs.Key,
		Value:   core.FieldAmount,
		Op:      vs.Op,
		Exclude: vs.Exclude,
		TopN:    vs.TopN,
		Order:   vs.Order,
	}
}

// Profile selects which filters, search fields, table columns and views a
// dashboard variant offers. The engine itself is the same for every profile.
type Profile struct {
	Name         string       `yaml:"name"`
	Title        string       `yaml:"title"`
	Filters      []core.Field `yaml:"filters"`
	SearchFields []core.Field `yaml:"search_fields"`
	TableFields  []core.Field `yaml:"table_fields"`
	Views        []ViewSpec   `yaml:"views"`
}

func standardViews() []ViewSpec {
	return []ViewSpec{
		{Name: "sectors", Title: "Distribuzione per Macro-Settore", Key: core.FieldMacroSector, Op: OpSum, Order: OrderDescValue, Chart: ChartPie},
		{Name: "subject_types", Title: "Importi per Tipologia Soggetto", Key: core.FieldSubjectType, Op: OpSum, TopN: 8, Order: OrderDescValue, Chart: ChartBar},
		{Name: "years", Title: "Andamento per Anno", Key: core.FieldYear, Op: OpSum, Order: OrderAscKey, Chart: ChartLine},
		{Name: "beneficiaries", Title: "Top 12 Beneficiari", Key: core.FieldBeneficiary, Op: OpSum, TopN: 12, Order: OrderDescValue, Chart: ChartBar},
		{Name: "regions", Title: "Top 10 Regioni", Key: core.FieldRegion, Op: OpSum, Exclude: core.UnassignedRegion, TopN: 10, Order: OrderDescValue, Chart: ChartBar},
	}
}

// SimpleProfile is the basic dashboard: four selects, search on beneficiary.
func SimpleProfile() Profile {
	return Profile{
		Name:         ProfileSimple,
		Title:        "Fondo Parlamentare Interventi",
		Filters:      []core.Field{core.FieldMacroSector, core.FieldSubjectType, core.FieldRegion, core.FieldYear},
		SearchFields: []core.Field{core.FieldBeneficiary},
		TableFields: []core.Field{
			core.FieldBeneficiary, core.FieldSubjectType, core.FieldProvince,
			core.FieldRegion, core.FieldMacroSector, core.FieldYear, core.FieldAmount,
		},
		Views: standardViews(),
	}
}

// RichProfile adds the province filter, searches province and region too and
// shows the purpose column.
func RichProfile() Profile {
	p := SimpleProfile()
	p.Name = ProfileRich
	p.Filters = []core.Field{core.FieldMacroSector, core.FieldSubjectType, core.FieldRegion, core.FieldProvince, core.FieldYear}
	p.SearchFields = []core.Field{core.FieldBeneficiary, core.FieldProvince, core.FieldRegion}
	p.TableFields = []core.Field{
		core.FieldBeneficiary, core.FieldSubjectType, core.FieldProvince, core.FieldRegion,
		core.FieldMacroSector, core.FieldPurpose, core.FieldYear, core.FieldAmount,
	}
	return p
}

// BuiltinProfile returns the named built-in profile.
func BuiltinProfile(name string) (Profile, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "", ProfileSimple:
		return SimpleProfile(), nil
	case ProfileRich:
		return RichProfile(), nil
	default:
		return Profile{}, fmt.Errorf("%w: %q", ErrUnknownProfile, name)
	}
}

// LoadProfile decodes and validates a YAML profile. Omitted ops default to
// sum and omitted orders to desc_value.
func LoadProfile(r io.Reader) (Profile, error) {
	var p Profile
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)
	if err := dec.Decode(&p); err != nil {
		return Profile{}, fmt.Errorf("decode profile: %w", err)
	}
	for i := range p.Views {
		if p.Views[i].Op == "" {
			p.Views[i].Op = OpSum
		}
		if p.Views[i].Order == "" {
			p.Views[i].Order = OrderDescValue
		}
	}
	if len(p.SearchFields) == 0 {
		p.SearchFields = []core.Field{core.FieldBeneficiary}
	}
	if err := p.Validate(); err != nil {
		return Profile{}, err
	}
	return p, nil
}

// LoadProfileFile reads a YAML profile from path.
func LoadProfileFile(path string) (Profile, error) {
	f, err := os.Open(path)
	if err != nil {
		return Profile{}, fmt.Errorf("open profile: %w", err)
	}
	defer f.Close()
	return LoadProfile(f)
}

// Validate collects every problem in p into one error.
func (p Profile) Validate() error {
	var errs []string

	if strings.TrimSpace(p.Name) == "" {
		errs = append(errs, "name is required")
	}
	for _, f := range p.Filters {
		if !f.IsCategorical() {
			errs = append(errs, fmt.Sprintf("filter %q is not a categorical field", f))
		}
	}
	for _, f := range p.SearchFields {
		if !f.IsCategorical() {
			errs = append(errs, fmt.Sprintf("search field %q is not a text field", f))
		}
	}
	for _, f := range p.TableFields {
		if !f.IsValid() {
			errs = append(errs, fmt.Sprintf("table field %q is unknown", f))
		}
	}

	seen := make(map[string]bool)
	for _, v := range p.Views {
		if v.Name == "" {
			errs = append(errs, "view name is required")
			continue
		}
		if seen[v.Name] {
			errs = append(errs, fmt.Sprintf("view %q is defined twice", v.Name))
		}
		seen[v.Name] = true
		if v.Key == "" {
			errs = append(errs, fmt.Sprintf("view %q: key is required", v.Name))
		}
		if err := v.Spec().Validate(); err != nil {
			errs = append(errs, fmt.Sprintf("view %q: %v", v.Name, err))
		}
		switch v.Chart {
		case "", ChartPie, ChartBar, ChartLine:
		default:
			errs = append(errs, fmt.Sprintf("view %q: unknown chart %q", v.Name, v.Chart))
		}
		if v.TopN < 0 {
			errs = append(errs, fmt.Sprintf("view %q: top_n must not be negative", v.Name))
		}
	}

	if len(errs) > 0 {
		return fmt.Errorf("invalid profile:\n- %s", strings.Join(errs, "\n- "))
	}
	return nil
}

// View returns the view named name.
func (p Profile) View(name string) (ViewSpec, bool) {
	for _, v := range p.Views {
		if v.Name == name {
			return v, true
		}
	}
	return ViewSpec{}, false
}

// HasFilter reports whether the profile offers a select for f.
func (p Profile) HasFilter(f core.Field) bool {
	for _, x := range p.Filters {
		if x == f {
			return true
		}
	}
	return false
}
