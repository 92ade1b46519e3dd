package http

import (
	"bytes"
	"errors"
	"net/http"
	"strings"
	"time"

	"fondo/internal/core"
	"fondo/internal/engine"
	"fondo/internal/log"
	"fondo/internal/metrics"
	"fondo/internal/render"
)

const xlsxContentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"

// summarize filters the dataset with the request's criteria and computes the
// profile's views. ok is false when the dataset is not loaded yet, in which
// case a 503 has already been written.
func (s *Server) summarize(w http.ResponseWriter, r *http.Request) (engine.Summary, *core.Dataset, bool) {
	ds, err := s.store.Get()
	if err != nil {
		unavailable(w, r)
		return engine.Summary{}, nil, false
	}

	c := ParseCriteria(r.URL.Query(), s.profile)
	start := time.Now()
	sum := engine.Summarize(ds, c, s.profile)
	took := time.Since(start)

	metrics.ObserveSummary(sum.View.Len(), took)
	s.slog.LogSummary(r.Context(), s.profile.Name, render.DescribeCriteria(sum.Criteria),
		sum.View.Len(), sum.KPIs.Total.String(), took)
	return sum, ds, true
}

func (s *Server) handleIndex(w http.ResponseWriter, r *http.Request) {
	sum, ds, ok := s.summarize(w, r)
	if !ok {
		return
	}

	var buf bytes.Buffer
	if err := s.templates.ExecuteTemplate(&buf, "index.html", newPageData(ds, sum, s.profile)); err != nil {
		s.fail(w, r, log.OpRender, err)
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.Header().Set("Cache-Control", "no-store")
	_, _ = w.Write(buf.Bytes())
}

func (s *Server) handleOptions(w http.ResponseWriter, r *http.Request) {
	ds, err := s.store.Get()
	if err != nil {
		unavailable(w, r)
		return
	}
	s.writeJSON(w, r, http.StatusOK, render.NewOptionsDoc(ds, s.profile))
}

func (s *Server) handleSummary(w http.ResponseWriter, r *http.Request) {
	sum, _, ok := s.summarize(w, r)
	if !ok {
		return
	}
	s.writeJSON(w, r, http.StatusOK, render.NewSummaryDoc(sum))
}

// recordsDoc is one window of the filtered detail table.
type recordsDoc struct {
	Rows    int                `json:"rows"`
	Offset  int                `json:"offset"`
	Records []render.RecordDoc `json:"records"`
}

func (s *Server) handleRecords(w http.ResponseWriter, r *http.Request) {
	pg, err := parsePage(r.URL.Query())
	if err != nil {
		writeError(w, r, http.StatusBadRequest, err.Error())
		return
	}
	sum, _, ok := s.summarize(w, r)
	if !ok {
		return
	}
	lo, hi := pg.window(sum.View.Len())
	s.writeJSON(w, r, http.StatusOK, recordsDoc{
		Rows:    sum.View.Len(),
		Offset:  lo,
		Records: render.NewRecordDocs(sum.View.Records[lo:hi]),
	})
}

// handleChart serves /charts/{view}.png. A view with no data answers 204 so
// the page can show its placeholder instead.
func (s *Server) handleChart(w http.ResponseWriter, r *http.Request) {
	name, ok := strings.CutSuffix(r.PathValue("file"), ".png")
	if !ok {
		writeError(w, r, http.StatusNotFound, "Grafico non trovato")
		return
	}
	if _, ok := s.profile.View(name); !ok {
		writeError(w, r, http.StatusNotFound, "Grafico non trovato")
		return
	}

	sum, _, ok := s.summarize(w, r)
	if !ok {
		return
	}
	vr, _ := sum.Lookup(name)

	var buf bytes.Buffer
	err := render.Chart(&buf, vr)
	switch {
	case errors.Is(err, render.ErrNoData):
		metrics.ChartsRendered.WithLabelValues(name, "empty").Inc()
		w.WriteHeader(http.StatusNoContent)
		return
	case err != nil:
		metrics.ChartsRendered.WithLabelValues(name, "error").Inc()
		s.fail(w, r, log.OpChart, err)
		return
	}
	metrics.ChartsRendered.WithLabelValues(name, "ok").Inc()
	w.Header().Set("Content-Type", "image/png")
	w.Header().Set("Cache-Control", "no-store")
	_, _ = w.Write(buf.Bytes())
}

func (s *Server) handleExport(w http.ResponseWriter, r *http.Request) {
	sum, _, ok := s.summarize(w, r)
	if !ok {
		return
	}

	var buf bytes.Buffer
	if err := render.Workbook(&buf, sum, s.profile.TableFields); err != nil {
		metrics.Exports.WithLabelValues("error").Inc()
		s.fail(w, r, log.OpExport, err)
		return
	}
	metrics.Exports.WithLabelValues("ok").Inc()
	s.logger.InfoContext(r.Context(), "Export served",
		log.FieldOperation, log.OpExport,
		log.FieldRecords, sum.View.Len(),
		log.FieldCriteria, render.DescribeCriteria(sum.Criteria))

	w.Header().Set("Content-Type", xlsxContentType)
	w.Header().Set("Content-Disposition", `attachment; filename="fondo_parlamentare.xlsx"`)
	w.Header().Set("Cache-Control", "no-store")
	_, _ = w.Write(buf.Bytes())
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	_, _ = w.Write([]byte("ok"))
}

// handleReady is 200 once the dataset has been loaded.
func (s *Server) handleReady(w http.ResponseWriter, r *http.Request) {
	if !s.store.Loaded() {
		http.Error(w, "loading", http.StatusServiceUnavailable)
		return
	}
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	_, _ = w.Write([]byte("ready"))
}
