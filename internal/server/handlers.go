package server

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"

	"animarr/internal/jobs"
	"animarr/internal/services"
	"animarr/internal/settings"
	"animarr/internal/store"
	"animarr/internal/template"
)

type runJobRequest struct {
	JobType    string `json:"job_type"`
	Season     string `json:"season,omitempty"`
	SeasonYear int    `json:"season_year,omitempty"`
	TitleID    *int64 `json:"title_id,omitempty"`
}

func (s *Server) handleRunJob(w http.ResponseWriter, r *http.Request) {
	var request runJobRequest
	if err := json.NewDecoder(r.Body).Decode(&request); err != nil {
		writeError(w, http.StatusBadRequest, fmt.Sprintf("decode request: %v", err))
		return
	}
	jobType, ok := store.ParseJobType(request.JobType)
	if !ok {
		writeError(w, http.StatusBadRequest, fmt.Sprintf("unknown job type %q", request.JobType))
		return
	}

	params := jobs.Params{
		Season:     request.Season,
		SeasonYear: request.SeasonYear,
		TitleID:    request.TitleID,
	}
	execution, err := s.runner.Start(r.Context(), jobType, store.TriggerManual, params)
	if err != nil {
		if errors.Is(err, services.ErrAlreadyRunning) {
			writeJSON(w, http.StatusConflict, map[string]string{
				"error":  fmt.Sprintf("failed: %s already running", jobType),
				"status": "rejected",
			})
			return
		}
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	writeJSON(w, http.StatusAccepted, toExecutionPayload(execution))
}

func (s *Server) handleJobHistory(w http.ResponseWriter, r *http.Request) {
	filter := store.HistoryFilter{}
	query := r.URL.Query()

	if raw := query.Get("job_type"); raw != "" {
		jobType, ok := store.ParseJobType(raw)
		if !ok {
			writeError(w, http.StatusBadRequest, fmt.Sprintf("unknown job type %q", raw))
			return
		}
		filter.Type = jobType
	}
	if raw := query.Get("status"); raw != "" {
		filter.Status = store.JobStatus(strings.ToLower(raw))
	}
	if raw := query.Get("title_id"); raw != "" {
		id, err := strconv.ParseInt(raw, 10, 64)
		if err != nil {
			writeError(w, http.StatusBadRequest, "title_id must be an integer")
			return
		}
		filter.TitleID = &id
	}
	if raw := query.Get("limit"); raw != "" {
		limit, err := strconv.Atoi(raw)
		if err != nil || limit <= 0 || limit > 500 {
			writeError(w, http.StatusBadRequest, "limit must be between 1 and 500")
			return
		}
		filter.Limit = limit
	}

	executions, err := s.runner.History(r.Context(), filter)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"executions": toExecutionPayloads(executions),
		"count":      len(executions),
	})
}

func (s *Server) handleRunningJobs(w http.ResponseWriter, r *http.Request) {
	executions, err := s.runner.Running(r.Context())
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"executions": toExecutionPayloads(executions),
		"count":      len(executions),
	})
}

func (s *Server) handleGetJob(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	execution, err := s.runner.Get(r.Context(), id)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	if execution == nil {
		writeError(w, http.StatusNotFound, "execution not found")
		return
	}
	writeJSON(w, http.StatusOK, toExecutionPayload(execution))
}

func (s *Server) handleJobStatistics(w http.ResponseWriter, r *http.Request) {
	period, ok := store.ParsePeriod(r.URL.Query().Get("period"))
	if !ok {
		writeError(w, http.StatusBadRequest, "period must be one of 24h, 7d, 30d, all")
		return
	}
	aggregates, err := s.runner.Statistics(r.Context(), period)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, toStatisticsPayload(period, aggregates))
}

func (s *Server) handleListTitles(w http.ResponseWriter, r *http.Request) {
	titles, err := s.store.ListTitles(r.Context())
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	payloads := make([]titlePayload, 0, len(titles))
	for _, title := range titles {
		payloads = append(payloads, toTitlePayload(title))
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"titles": payloads,
		"count":  len(payloads),
	})
}

func (s *Server) handleEffectiveSettings(w http.ResponseWriter, r *http.Request) {
	titleID, err := parseID(chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	effective, err := s.resolver.Resolve(r.Context(), titleID)
	if err != nil {
		if errors.Is(err, services.ErrNotFound) {
			writeError(w, http.StatusNotFound, "title not in catalog")
			return
		}
		if errors.Is(err, services.ErrValidation) {
			writeError(w, http.StatusUnprocessableEntity, err.Error())
			return
		}
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, toEffectivePayload(effective))
}

func (s *Server) handleGetSettings(w http.ResponseWriter, r *http.Request) {
	titleID, err := parseID(chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	var record *store.Settings
	if titleID == store.GlobalSettingsID {
		record, err = s.store.GlobalSettings(r.Context())
	} else {
		record, err = s.store.GetSettings(r.Context(), titleID)
	}
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	if record == nil {
		writeError(w, http.StatusNotFound, "settings not found")
		return
	}
	writeJSON(w, http.StatusOK, toSettingsPayload(record))
}

func (s *Server) handlePutSettings(w http.ResponseWriter, r *http.Request) {
	titleID, err := parseID(chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	var payload settingsPayload
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		writeError(w, http.StatusBadRequest, fmt.Sprintf("decode request: %v", err))
		return
	}

	if payload.PreferredResolution != "" {
		normalized, err := settings.NormalizeResolution(payload.PreferredResolution)
		if err != nil {
			writeError(w, http.StatusUnprocessableEntity, err.Error())
			return
		}
		payload.PreferredResolution = normalized
	}

	record := payload.toModel(titleID)
	stored, err := s.store.UpsertSettings(r.Context(), record)
	if err != nil {
		if errors.Is(err, services.ErrValidation) {
			writeError(w, http.StatusUnprocessableEntity, err.Error())
			return
		}
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, toSettingsPayload(stored))
}

func (s *Server) handleDeleteSettings(w http.ResponseWriter, r *http.Request) {
	titleID, err := parseID(chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	// Deleting the global record resets it to defaults instead.
	if titleID == store.GlobalSettingsID {
		record, err := s.store.ResetGlobalSettings(r.Context())
		if err != nil {
			writeError(w, http.StatusInternalServerError, err.Error())
			return
		}
		writeJSON(w, http.StatusOK, toSettingsPayload(record))
		return
	}

	if err := s.store.DeleteSettings(r.Context(), titleID); err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"deleted": titleID})
}

type renderRequest struct {
	Template string `json:"template"`
	TitleID  int64  `json:"title_id,omitempty"`
}

func (s *Server) handleRenderTemplate(w http.ResponseWriter, r *http.Request) {
	var request renderRequest
	if err := json.NewDecoder(r.Body).Decode(&request); err != nil {
		writeError(w, http.StatusBadRequest, fmt.Sprintf("decode request: %v", err))
		return
	}
	if strings.TrimSpace(request.Template) == "" {
		writeError(w, http.StatusBadRequest, "template is required")
		return
	}

	vars := template.DateVariables(s.now())
	if request.TitleID > 0 {
		effective, err := s.resolver.Resolve(r.Context(), request.TitleID)
		if err != nil {
			if errors.Is(err, services.ErrNotFound) {
				writeError(w, http.StatusNotFound, "title not in catalog")
				return
			}
			writeError(w, http.StatusInternalServerError, err.Error())
			return
		}
		vars = effective.Variables
	}

	rendered := template.Render(request.Template, vars)
	writeJSON(w, http.StatusOK, map[string]any{
		"rendered":   rendered,
		"unresolved": template.HasUnresolved(rendered),
	})
}

func (s *Server) handleListSeen(w http.ResponseWriter, r *http.Request) {
	var titleID *int64
	if raw := r.URL.Query().Get("title_id"); raw != "" {
		id, err := strconv.ParseInt(raw, 10, 64)
		if err != nil {
			writeError(w, http.StatusBadRequest, "title_id must be an integer")
			return
		}
		titleID = &id
	}
	limit := 50
	if raw := r.URL.Query().Get("limit"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil || parsed <= 0 || parsed > 500 {
			writeError(w, http.StatusBadRequest, "limit must be between 1 and 500")
			return
		}
		limit = parsed
	}

	entries, err := s.store.ListSeen(r.Context(), titleID, limit)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"entries": toSeenPayloads(entries),
		"count":   len(entries),
	})
}

func parseID(raw string) (int64, error) {
	id, err := strconv.ParseInt(strings.TrimSpace(raw), 10, 64)
	if err != nil || id < 0 {
		return 0, fmt.Errorf("id must be a non-negative integer")
	}
	return id, nil
}
