package render

import (
	"fmt"
	"io"
	"strings"

	"fondo/internal/engine"
)

// Text writes s for a terminal: the KPI row followed by every view as a list
// of label and amount pairs.
func Text(w io.Writer, s engine.Summary) error {
	tw := &textWriter{w: w}

	tw.printf("Profilo: %s\n", s.Profile)
	if f := DescribeCriteria(s.Criteria); f != "" {
		tw.printf("Filtri: %s\n", f)
	}
	tw.printf("%s\n\n", Shown(s))

	tw.printf("Totale erogato:  %s\n", Euro(s.KPIs.Total))
	tw.printf("Beneficiari:     %s\n", Count(s.KPIs.Beneficiaries))
	tw.printf("Macro-settori:   %s\n", Count(s.KPIs.Sectors))
	tw.printf("Regioni:         %s\n", Count(s.KPIs.Regions))

	for _, v := range s.Views {
		tw.printf("\n%s\n%s\n", v.Title, strings.Repeat("-", len([]rune(v.Title))))
		if len(v.Groups) == 0 {
			tw.printf("Nessun dato\n")
			continue
		}
		width := 0
		for _, g := range v.Groups {
			width = max(width, len([]rune(Truncate(g.Key, 40))))
		}
		for _, g := range v.Groups {
			label := Truncate(g.Key, 40)
			pad := strings.Repeat(" ", width-len([]rune(label)))
			tw.printf("  %s%s  %s\n", label, pad, Euro(g.Value))
		}
	}
	return tw.err
}

// textWriter remembers the first write error so callers check once.
type textWriter struct {
	w   io.Writer
	err error
}

func (t *textWriter) printf(format string, args ...any) {
	if t.err != nil {
		return
	}
	_, t.err = fmt.Fprintf(t.w, format, args...)
}
