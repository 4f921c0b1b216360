package server

import (
	"context"
	"net/http"

	"github.com/go-chi/chi/v5"
	"gitlab.com/yelinaung/expense-splitter/internal/auth"
	"gitlab.com/yelinaung/expense-splitter/internal/logger"
	"gitlab.com/yelinaung/expense-splitter/internal/report"
	"gitlab.com/yelinaung/expense-splitter/internal/service"
)

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	if err := s.svc.Ping(r.Context()); err != nil {
		logger.FromContext(r.Context()).Warn().Err(err).Msg("Health check failed")
		writeJSON(r.Context(), w, http.StatusServiceUnavailable, map[string]string{"status": "unavailable"})
		return
	}
	writeJSON(r.Context(), w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) handleCreate(w http.ResponseWriter, r *http.Request) {
	var in service.CreateInput
	if err := decodeJSON(w, r, &in); err != nil {
		s.writeError(w, r, err)
		return
	}

	e, err := s.svc.Create(r.Context(), callerID(r.Context()), in)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(r.Context(), w, http.StatusCreated, e)
}

func (s *Server) handleList(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	f, err := parseFilter(q)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	p, err := parsePage(q)
	if err != nil {
		s.writeError(w, r, err)
		return
	}

	listing, err := s.svc.List(r.Context(), callerID(r.Context()), f, p)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(r.Context(), w, http.StatusOK, listing)
}

func (s *Server) handleStatistics(w http.ResponseWriter, r *http.Request) {
	from, to, err := parseStatsRange(r.URL.Query())
	if err != nil {
		s.writeError(w, r, err)
		return
	}

	stats, err := s.svc.Statistics(r.Context(), callerID(r.Context()), from, to)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(r.Context(), w, http.StatusOK, stats)
}

func (s *Server) handleStatisticsChart(w http.ResponseWriter, r *http.Request) {
	from, to, err := parseStatsRange(r.URL.Query())
	if err != nil {
		s.writeError(w, r, err)
		return
	}

	png, err := s.svc.StatisticsChart(r.Context(), callerID(r.Context()), from, to)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	w.Header().Set("Content-Type", "image/png")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(png)
}

func (s *Server) handleSettlements(w http.ResponseWriter, r *http.Request) {
	balances, err := s.svc.Settlements(r.Context(), callerID(r.Context()))
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(r.Context(), w, http.StatusOK, balances)
}

func (s *Server) handleExport(w http.ResponseWriter, r *http.Request) {
	f, err := parseFilter(r.URL.Query())
	if err != nil {
		s.writeError(w, r, err)
		return
	}

	data, err := s.svc.ExportCSV(r.Context(), callerID(r.Context()), f)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	w.Header().Set("Content-Type", "text/csv; charset=utf-8")
	w.Header().Set("Content-Disposition", `attachment; filename="`+report.ExportFilename(s.now())+`"`)
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(data)
}

func (s *Server) handleSuggestCategory(w http.ResponseWriter, r *http.Request) {
	var body struct {
		Description string `json:"description"`
	}
	if err := decodeJSON(w, r, &body); err != nil {
		s.writeError(w, r, err)
		return
	}

	suggestion, err := s.svc.SuggestCategory(r.Context(), body.Description)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(r.Context(), w, http.StatusOK, suggestion)
}

func (s *Server) handleGet(w http.ResponseWriter, r *http.Request) {
	id, err := parseID(chi.URLParam(r, "id"))
	if err != nil {
		s.writeError(w, r, err)
		return
	}

	e, err := s.svc.Get(r.Context(), callerID(r.Context()), id)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(r.Context(), w, http.StatusOK, e)
}

func (s *Server) handleUpdate(w http.ResponseWriter, r *http.Request) {
	id, err := parseID(chi.URLParam(r, "id"))
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	var in service.UpdateInput
	if err := decodeJSON(w, r, &in); err != nil {
		s.writeError(w, r, err)
		return
	}

	e, err := s.svc.Update(r.Context(), callerID(r.Context()), id, in)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(r.Context(), w, http.StatusOK, e)
}

func (s *Server) handleDelete(w http.ResponseWriter, r *http.Request) {
	id, err := parseID(chi.URLParam(r, "id"))
	if err != nil {
		s.writeError(w, r, err)
		return
	}

	if err := s.svc.Delete(r.Context(), callerID(r.Context()), id); err != nil {
		s.writeError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleMarkPaid(w http.ResponseWriter, r *http.Request) {
	id, err := parseID(chi.URLParam(r, "id"))
	if err != nil {
		s.writeError(w, r, err)
		return
	}

	e, err := s.svc.MarkPaid(r.Context(), callerID(r.Context()), id)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(r.Context(), w, http.StatusOK, e)
}

// callerID is only called behind auth.Middleware, which guarantees a user.
func callerID(ctx context.Context) int64 {
	id, _ := auth.UserID(ctx)
	return id
}
