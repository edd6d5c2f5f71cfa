package server

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/tradepal/assistant/internal/logging"
	"github.com/tradepal/assistant/internal/store"
)

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, err error) {
	status := http.StatusInternalServerError
	if errors.Is(err, store.ErrNotFound) {
		status = http.StatusNotFound
	}
	writeJSON(w, status, map[string]string{"error": err.Error()})
}

func decode(w http.ResponseWriter, r *http.Request, v any) bool {
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid JSON body"})
		return false
	}
	return true
}

func (s *Server) handleListAlerts(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, s.cfg.Store.Alerts())
}

func (s *Server) handleCreateAlert(w http.ResponseWriter, r *http.Request) {
	var a store.PriceAlert
	if !decode(w, r, &a) {
		return
	}
	created, err := s.cfg.Store.CreateAlert(a)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, created)
}

func (s *Server) handleUpdateAlert(w http.ResponseWriter, r *http.Request) {
	var a store.PriceAlert
	if !decode(w, r, &a) {
		return
	}
	a.ID = chi.URLParam(r, "id")
	if err := s.cfg.Store.UpdateAlert(a); err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, a)
}

func (s *Server) handleDeleteAlert(w http.ResponseWriter, r *http.Request) {
	if err := s.cfg.Store.DeleteAlert(chi.URLParam(r, "id")); err != nil {
		writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleExecuteAlert(w http.ResponseWriter, r *http.Request) {
	executed, err := s.cfg.Store.ExecuteAlert(chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, executed)
}

func (s *Server) handleListPlans(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, s.cfg.Store.Plans())
}

func (s *Server) handleCreatePlan(w http.ResponseWriter, r *http.Request) {
	var p store.SavingPlan
	if !decode(w, r, &p) {
		return
	}
	created, err := s.cfg.Store.CreatePlan(p)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, created)
}

func (s *Server) handleUpdatePlan(w http.ResponseWriter, r *http.Request) {
	var p store.SavingPlan
	if !decode(w, r, &p) {
		return
	}
	p.ID = chi.URLParam(r, "id")
	if err := s.cfg.Store.UpdatePlan(p); err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, p)
}

func (s *Server) handleDeletePlan(w http.ResponseWriter, r *http.Request) {
	if err := s.cfg.Store.DeletePlan(chi.URLParam(r, "id")); err != nil {
		writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleListGoals(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, s.cfg.Store.Goals())
}

func (s *Server) handleCreateGoal(w http.ResponseWriter, r *http.Request) {
	var g store.Goal
	if !decode(w, r, &g) {
		return
	}
	created, err := s.cfg.Store.CreateGoal(g)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, created)
}

func (s *Server) handleUpdateGoal(w http.ResponseWriter, r *http.Request) {
	var g store.Goal
	if !decode(w, r, &g) {
		return
	}
	g.ID = chi.URLParam(r, "id")
	if err := s.cfg.Store.UpdateGoal(g); err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, g)
}

func (s *Server) handleDeleteGoal(w http.ResponseWriter, r *http.Request) {
	if err := s.cfg.Store.DeleteGoal(chi.URLParam(r, "id")); err != nil {
		writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleLogs(w http.ResponseWriter, r *http.Request) {
	if s.cfg.Logs == nil {
		writeJSON(w, http.StatusOK, []logging.LogEntry{})
		return
	}
	limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))
	writeJSON(w, http.StatusOK, s.cfg.Logs.GetHistory(limit))
}
