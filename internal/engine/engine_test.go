package engine

import (
	"fmt"
	"math/rand"
	"strings"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"fondo/internal/core"
)

func sampleDataset() *core.Dataset {
	return core.NewDataset("sample", time.Unix(0, 0), []core.Record{
		{Beneficiary: "BeneficiaryX", SubjectType: "Comune", Province: "P1", Region: "RegionR1", MacroSector: "SectorA", Year: 2026, Amount: core.MustAmount("100")},
		{Beneficiary: "BeneficiaryY", SubjectType: "Associazione", Province: "P1", Region: "RegionR1", MacroSector: "SectorA", Year: 2026, Amount: core.MustAmount("50")},
		{Beneficiary: "BeneficiaryX", SubjectType: "Comune", Province: "P2", Region: core.UnassignedRegion, MacroSector: "SectorB", Year: 2027, Amount: core.MustAmount("30")},
	})
}

func dec(s string) decimal.Decimal { return core.MustAmount(s) }

func assertGroups(t *testing.T, want []Group, got Result) {
	t.Helper()
	require.Len(t, got, len(want))
	for i := range want {
		assert.Equal(t, want[i].Key, got[i].Key, "group %d key", i)
		assert.True(t, want[i].Value.Equal(got[i].Value), "group %d (%s) value: want %s, got %s", i, want[i].Key, want[i].Value, got[i].Value)
	}
}

func TestSectorFilterExcludesOtherSectors(t *testing.T) {
	ds := sampleDataset()
	c := Criteria{}.With(core.FieldMacroSector, "SectorA")

	s := Summarize(ds, c, SimpleProfile())

	assert.Equal(t, 2, s.KPIs.Records)
	assert.True(t, s.KPIs.Total.Equal(dec("150")))
	assert.Equal(t, 2, s.KPIs.Beneficiaries)
	regions, ok := s.Lookup("regions")
	require.True(t, ok)
	assertGroups(t, []Group{{"RegionR1", dec("150")}}, regions.Groups)
}

func TestUnfilteredSummaryCoversWholeDataset(t *testing.T) {
	ds := sampleDataset()

	s := Summarize(ds, Criteria{}, SimpleProfile())

	assert.Equal(t, 3, s.DatasetRows)
	assert.True(t, s.KPIs.Total.Equal(dec("180")))
	assert.Equal(t, 1, s.KPIs.Regions)
	assert.Equal(t, 2, s.KPIs.Sectors)
	sectors, ok := s.Lookup("sectors")
	require.True(t, ok)
	assertGroups(t, []Group{{"SectorA", dec("150")}, {"SectorB", dec("30")}}, sectors.Groups)

	years, _ := s.Lookup("years")
	assertGroups(t, []Group{{"2026", dec("150")}, {"2027", dec("30")}}, years.Groups)
}

func TestSearchWithoutMatchesYieldsEmptySummary(t *testing.T) {
	ds := sampleDataset()

	s := Summarize(ds, Criteria{Search: "zzz-nobody"}, SimpleProfile())

	assert.True(t, s.IsEmpty())
	assert.True(t, s.KPIs.Total.IsZero())
	assert.Zero(t, s.KPIs.Records)
	assert.Zero(t, s.KPIs.Beneficiaries)
	assert.Zero(t, s.KPIs.Sectors)
	assert.Zero(t, s.KPIs.Regions)
	require.Len(t, s.Views, 5)
	for _, v := range s.Views {
		assert.Empty(t, v.Groups, v.Name)
	}
}

func TestApplyUnknownValueIsEmpty(t *testing.T) {
	v := Apply(sampleDataset().Records(), Criteria{}.With(core.FieldRegion, "Atlantide"))
	assert.True(t, v.IsEmpty())
}

func TestApplyEqualityIsCaseSensitive(t *testing.T) {
	v := Apply(sampleDataset().Records(), Criteria{}.With(core.FieldMacroSector, "sectora"))
	assert.True(t, v.IsEmpty())
}

func TestApplySearchIsCaseInsensitive(t *testing.T) {
	recs := sampleDataset().Records()

	v := Apply(recs, Criteria{Search: "beneficiaryx"})
	assert.Equal(t, 2, v.Len())

	// Region is only searched when asked for.
	v = Apply(recs, Criteria{Search: "non assegnata"})
	assert.True(t, v.IsEmpty())
	v = Apply(recs, Criteria{Search: "NON ASSEGNATA", SearchFields: []core.Field{core.FieldBeneficiary, core.FieldProvince, core.FieldRegion}})
	assert.Equal(t, 1, v.Len())
}

func TestApplySearchKeepsSurroundingSpaces(t *testing.T) {
	recs := []core.Record{
		{Beneficiary: "Comune di Bari", Amount: dec("1")},
		{Beneficiary: "Ex Comune", Amount: dec("1")},
	}

	v := Apply(recs, Criteria{Search: " comune"})
	require.Equal(t, 1, v.Len())
	assert.Equal(t, "Ex Comune", v.Records[0].Beneficiary)

	assert.Equal(t, 2, Apply(recs, Criteria{Search: "comune"}).Len())
	assert.False(t, Criteria{Search: " "}.IsEmpty())
}

func TestAnyTokensClearRestriction(t *testing.T) {
	c := Criteria{}.With(core.FieldRegion, "RegionR1").With(core.FieldRegion, AnyFeminine)
	assert.True(t, c.IsEmpty())
	c = c.With(core.FieldSubjectType, AnyMasculine).With(core.FieldYear, "")
	assert.True(t, c.IsEmpty())
}

func TestWithDoesNotAlias(t *testing.T) {
	base := Criteria{}.With(core.FieldYear, "2026")
	derived := base.With(core.FieldYear, "2027")
	assert.Equal(t, "2026", base.Equals[core.FieldYear])
	assert.Equal(t, "2027", derived.Equals[core.FieldYear])
}

func TestTieBreakByAscendingKey(t *testing.T) {
	v := View{Records: []core.Record{
		{Beneficiary: "Zeta", Amount: dec("10")},
		{Beneficiary: "Alfa", Amount: dec("10")},
		{Beneficiary: "Mu", Amount: dec("20")},
		{Beneficiary: "Beta", Amount: dec("10")},
	}}

	got := AggregateBy(v, Spec{Key: core.FieldBeneficiary, Op: OpSum, Order: OrderDescValue})

	assert.Equal(t, []string{"Mu", "Alfa", "Beta", "Zeta"}, got.Keys())

	top := AggregateBy(v, Spec{Key: core.FieldBeneficiary, Op: OpSum, TopN: 2})
	assert.Equal(t, []string{"Mu", "Alfa"}, top.Keys())
}

func TestYearsSortNumerically(t *testing.T) {
	v := View{Records: []core.Record{
		{Year: 2027, Amount: dec("1")},
		{Year: 999, Amount: dec("1")},
		{Year: 2026, Amount: dec("5")},
	}}
	got := AggregateBy(v, Spec{Key: core.FieldYear, Op: OpSum, Order: OrderAscKey})
	assert.Equal(t, []string{"999", "2026", "2027"}, got.Keys())
}

func TestExcludeOnlySentinelLeavesEmpty(t *testing.T) {
	v := View{Records: []core.Record{{Region: core.UnassignedRegion, Amount: dec("3")}}}

	assert.Empty(t, AggregateBy(v, Spec{Key: core.FieldRegion, Op: OpSum, Exclude: core.UnassignedRegion}))
	assert.Empty(t, AggregateBy(View{}, Spec{Op: OpSum}))
	assert.Zero(t, CountDistinct(v, core.FieldRegion, core.UnassignedRegion))
	assert.Equal(t, 1, CountDistinct(v, core.FieldRegion, ""))
}

func TestSpecValidate(t *testing.T) {
	assert.NoError(t, Spec{Key: core.FieldRegion}.Validate())
	assert.NoError(t, Spec{Value: core.FieldBeneficiary, Op: OpCountDistinct}.Validate())
	assert.Error(t, Spec{Key: core.FieldAmount}.Validate())
	assert.Error(t, Spec{Key: core.FieldRegion, Op: "avg"}.Validate())
	assert.Error(t, Spec{Key: core.FieldRegion, Order: "random"}.Validate())
	assert.Error(t, Spec{Value: core.FieldRegion, Op: OpSum}.Validate())
}

// randomDataset builds a reproducible dataset with plenty of collisions on
// every categorical field.
func randomDataset(seed int64, n int) *core.Dataset {
	rng := rand.New(rand.NewSource(seed))
	regions := []string{"Lazio", "Puglia", "Sicilia", "Veneto", core.UnassignedRegion}
	sectors := []string{"Cultura", "Sport", "Infrastrutture", "Sociale"}
	types := []string{"Comune", "Associazione", "Impresa", "Parrocchia", "Fondazione"}
	records := make([]core.Record, n)
	for i := range records {
		records[i] = core.Record{
			Beneficiary: fmt.Sprintf("Ente %02d", rng.Intn(40)),
			SubjectType: types[rng.Intn(len(types))],
			Province:    fmt.Sprintf("P%d", rng.Intn(9)),
			Region:      regions[rng.Intn(len(regions))],
			MacroSector: sectors[rng.Intn(len(sectors))],
			Year:        2026 + rng.Intn(2),
			Amount:      decimal.New(int64(rng.Intn(500000)), -2),
		}
	}
	return core.NewDataset("random", time.Unix(0, 0), records)
}

func randomCriteria(rng *rand.Rand, ds *core.Dataset) Criteria {
	c := Criteria{}
	for _, f := range []core.Field{core.FieldMacroSector, core.FieldSubjectType, core.FieldRegion, core.FieldYear} {
		if rng.Intn(3) == 0 {
			vals := ds.DistinctValues(f)
			c = c.With(f, vals[rng.Intn(len(vals))])
		}
	}
	if rng.Intn(4) == 0 {
		c.Search = fmt.Sprintf("ente %d", rng.Intn(5))
	}
	return c
}

// naiveTotal recomputes the filter without the engine.
func naiveTotal(records []core.Record, c Criteria) decimal.Decimal {
	total := decimal.Zero
	for _, r := range records {
		if v, ok := c.Equals[core.FieldMacroSector]; ok && r.MacroSector != v {
			continue
		}
		if v, ok := c.Equals[core.FieldSubjectType]; ok && r.SubjectType != v {
			continue
		}
		if v, ok := c.Equals[core.FieldRegion]; ok && r.Region != v {
			continue
		}
		if v, ok := c.Equals[core.FieldYear]; ok && fmt.Sprint(r.Year) != v {
			continue
		}
		if c.Search != "" && !strings.Contains(strings.ToLower(r.Beneficiary), strings.ToLower(c.Search)) {
			continue
		}
		total = total.Add(r.Amount)
	}
	return total
}

func TestPropertiesOverRandomCriteria(t *testing.T) {
	ds := randomDataset(42, 1000)
	rng := rand.New(rand.NewSource(7))
	profile := SimpleProfile()

	for i := 0; i < 200; i++ {
		c := randomCriteria(rng, ds)
		s := Summarize(ds, c, profile)
		total := s.KPIs.Total

		require.True(t, total.Equal(naiveTotal(ds.Records(), c)), "criteria %+v: engine total differs from reference", c)

		again := Apply(s.View.Records, s.Criteria)
		require.Equal(t, s.View.Records, again.Records, "filtering must be idempotent")

		for _, f := range []core.Field{core.FieldMacroSector, core.FieldSubjectType, core.FieldYear, core.FieldBeneficiary} {
			full := AggregateBy(s.View, Spec{Key: f, Op: OpSum})
			require.True(t, full.Total().Equal(total), "partition by %s", f)
		}

		ranking := AggregateBy(s.View, Spec{Key: core.FieldRegion, Op: OpSum, Exclude: core.UnassignedRegion})
		sentinel := decimal.Zero
		for _, r := range s.View.Records {
			if !r.HasRegion() {
				sentinel = sentinel.Add(r.Amount)
			}
		}
		require.True(t, sentinel.Equal(total.Sub(ranking.Total())), "sentinel amount must equal total minus region ranking")
	}
}

func TestApplyOrderOfPredicatesIsIrrelevant(t *testing.T) {
	ds := randomDataset(3, 300)
	a := Criteria{}.With(core.FieldYear, "2026").With(core.FieldRegion, "Lazio")
	b := Criteria{}.With(core.FieldRegion, "Lazio").With(core.FieldYear, "2026")

	assert.Equal(t, Apply(ds.Records(), a).Records, Apply(ds.Records(), b).Records)

	stepwise := Apply(Apply(ds.Records(), Criteria{}.With(core.FieldRegion, "Lazio")).Records, Criteria{}.With(core.FieldYear, "2026"))
	assert.Equal(t, Apply(ds.Records(), a).Records, stepwise.Records)
}
