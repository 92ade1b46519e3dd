package http

import (
	"net/url"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"fondo/internal/core"
	"fondo/internal/engine"
)

func TestParseCriteria(t *testing.T) {
	tests := []struct {
		name    string
		query   string
		profile engine.Profile
		equals  map[core.Field]string
		search  string
	}{
		{"empty", "", engine.SimpleProfile(), map[core.Field]string{}, ""},
		{"any tokens", "macro_sector=TUTTI&region=TUTTE&year=", engine.SimpleProfile(), map[core.Field]string{}, ""},
		{"exact values", "region=Puglia&year=2026", engine.SimpleProfile(),
			map[core.Field]string{core.FieldRegion: "Puglia", core.FieldYear: "2026"}, ""},
		{"province ignored by simple", "province=LE", engine.SimpleProfile(), map[core.Field]string{}, ""},
		{"province kept by rich", "province=LE", engine.RichProfile(),
			map[core.Field]string{core.FieldProvince: "LE"}, ""},
		{"search trimmed", "search=%20%20comune%09", engine.SimpleProfile(), map[core.Field]string{}, "comune"},
		{"control chars dropped", "region=Pu%00glia", engine.SimpleProfile(),
			map[core.Field]string{core.FieldRegion: "Puglia"}, ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			q, err := url.ParseQuery(tt.query)
			require.NoError(t, err)

			c := ParseCriteria(q, tt.profile)
			got := map[core.Field]string{}
			for _, f := range c.Active() {
				got[f] = c.Equals[f]
			}
			assert.Equal(t, tt.equals, got)
			assert.Equal(t, tt.search, c.Search)
		})
	}
}

func TestParseCriteriaCapsSearch(t *testing.T) {
	q := url.Values{ParamSearch: {strings.Repeat("à", 500)}}
	c := ParseCriteria(q, engine.SimpleProfile())
	assert.Len(t, []rune(c.Search), maxSearchLen)
}

func TestEncodeCriteriaRoundTrip(t *testing.T) {
	c := engine.Criteria{Search: "bari"}.
		With(core.FieldRegion, "Puglia").
		With(core.FieldYear, "2026")

	q := EncodeCriteria(c)
	assert.Equal(t, "region=Puglia&search=bari&year=2026", q.Encode())

	back := ParseCriteria(q, engine.SimpleProfile())
	assert.Equal(t, c.Equals, back.Equals)
	assert.Equal(t, c.Search, back.Search)

	assert.Empty(t, EncodeCriteria(engine.Criteria{}).Encode())
}

func TestParsePage(t *testing.T) {
	p, err := parsePage(url.Values{"offset": {"5"}, "limit": {"10"}})
	require.NoError(t, err)
	lo, hi := p.window(12)
	assert.Equal(t, 5, lo)
	assert.Equal(t, 12, hi)

	p, err = parsePage(url.Values{})
	require.NoError(t, err)
	lo, hi = p.window(3)
	assert.Equal(t, 0, lo)
	assert.Equal(t, 3, hi)

	p, err = parsePage(url.Values{"offset": {"1"}, "limit": {"9223372036854775807"}})
	require.NoError(t, err)
	lo, hi = p.window(3)
	assert.Equal(t, 1, lo)
	assert.Equal(t, 3, hi)

	lo, hi = page{Offset: 1, Limit: 2}.window(3)
	assert.Equal(t, 1, lo)
	assert.Equal(t, 3, hi)

	_, err = parsePage(url.Values{"limit": {"abc"}})
	assert.ErrorIs(t, err, errBadPage)
	_, err = parsePage(url.Values{"offset": {"-1"}})
	assert.ErrorIs(t, err, errBadPage)
}
