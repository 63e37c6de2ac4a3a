package http

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"

	"github.com/go-playground/validator/v10"

	"github.com/ChoraichiFadwa/ECOLead-Finance/internal/application/command"
	"github.com/ChoraichiFadwa/ECOLead-Finance/internal/application/query"
	"github.com/ChoraichiFadwa/ECOLead-Finance/internal/domain/catalog"
	"github.com/ChoraichiFadwa/ECOLead-Finance/internal/domain/metrics"
	"github.com/ChoraichiFadwa/ECOLead-Finance/internal/domain/shared"
	"github.com/ChoraichiFadwa/ECOLead-Finance/pkg/logger"
)

// validate checks request DTOs.
var validate = validator.New(validator.WithRequiredStructEnabled())

// ══════════════════════════════════════════════════════════════════════════════
// REQUEST / RESPONSE DTOs
// ══════════════════════════════════════════════════════════════════════════════

type createStudentRequest struct {
	Name  string `json:"name" validate:"required,max=120"`
	Email string `json:"email" validate:"required,email,max=254"`
}

type submitMissionRequest struct {
	Choices struct {
		Main string `json:"main" validate:"required,max=16"`
	} `json:"choices"`
	TimeSpentSeconds int `json:"time_spent_seconds" validate:"gte=0"`
}

type historyParams struct {
	Page     int `validate:"gte=0"`
	PageSize int `validate:"gte=0,lte=200"`
}

type suggestParams struct {
	Goal      string   `validate:"max=64"`
	MaxBundle int      `validate:"gte=0,lte=50"`
	Concepts  []string `validate:"dive,required"`
}

// submitMissionResponse is the pipeline result.
type submitMissionResponse struct {
	Success          bool           `json:"success"`
	ScoreEarned      int            `json:"score_earned"`
	TotalScore       int            `json:"total_score"`
	MetricsChanges   metrics.Vector `json:"metrics_changes"`
	NewMetrics       metrics.Vector `json:"new_metrics"`
	Feedback         string         `json:"feedback"`
	LevelUp          bool           `json:"level_up"`
	PreviousLevel    string         `json:"previous_level"`
	NewLevel         string         `json:"new_level,omitempty"`
	EventsApplied    []string       `json:"events_applied"`
	ConceptCompleted bool           `json:"concept_completed"`
	UnlockedLevel    *catalog.Level `json:"unlocked_level,omitempty"`
	UnlockedMission  string         `json:"unlocked_mission,omitempty"`
}

func newSubmitMissionResponse(r *command.SubmitMissionResult) submitMissionResponse {
	resp := submitMissionResponse{
		Success:          true,
		ScoreEarned:      r.ScoreEarned,
		TotalScore:       r.TotalScore,
		MetricsChanges:   r.MetricsChanges,
		NewMetrics:       r.NewMetrics,
		Feedback:         r.Feedback,
		LevelUp:          r.LevelUp,
		PreviousLevel:    r.PreviousLevel,
		EventsApplied:    r.EventsApplied,
		ConceptCompleted: r.ConceptCompleted,
		UnlockedLevel:    r.UnlockedLevel,
		UnlockedMission:  r.UnlockedMission,
	}
	if r.LevelUp {
		resp.NewLevel = r.NewLevel
	}
	if resp.EventsApplied == nil {
		resp.EventsApplied = []string{}
	}
	return resp
}

// ══════════════════════════════════════════════════════════════════════════════
// HEALTH & STATUS HANDLERS
// ══════════════════════════════════════════════════════════════════════════════

// handleRoot serves the root endpoint with basic API information.
func (s *Server) handleRoot(w http.ResponseWriter, r *http.Request) {
	info := map[string]any{
		"name":    "ECOLead Finance API",
		"version": s.config.Version,
		"endpoints": map[string]string{
			"health":   "/health",
			"concepts": "/concepts",
			"students": "/students",
			"metrics":  "/metrics",
		},
	}
	if s.deps.Catalog != nil {
		info["catalog"] = s.deps.Catalog.Fingerprint()
	}
	writeJSON(w, http.StatusOK, info)
}

// handleHealth reports every dependency check.
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	status := s.deps.HealthChecker.Check(r.Context())
	if status.Uptime == "" {
		status.Uptime = s.Uptime().String()
	}
	code := http.StatusOK
	if !status.Healthy {
		code = http.StatusServiceUnavailable
	}
	writeJSON(w, code, status)
}

// handleReady handles the readiness probe. Only critical checks count.
func (s *Server) handleReady(w http.ResponseWriter, r *http.Request) {
	status := s.deps.HealthChecker.Check(r.Context())
	if !status.Ready {
		writeJSON(w, http.StatusServiceUnavailable, map[string]string{
			"status": "not_ready",
			"reason": status.Message,
		})
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "ready"})
}

// handleLive handles the liveness probe.
func (s *Server) handleLive(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "alive"})
}

// ══════════════════════════════════════════════════════════════════════════════
// STUDENT HANDLERS
// ══════════════════════════════════════════════════════════════════════════════

// handleCreateStudent handles POST /students. A known email returns the
// existing student with 200 instead of 201.
func (s *Server) handleCreateStudent(w http.ResponseWriter, r *http.Request) {
	var req createStudentRequest
	if !s.decodeBody(w, r, &req) {
		return
	}

	result, err := s.deps.CreateStudent.Handle(r.Context(), command.CreateStudentCommand{
		Name:  strings.TrimSpace(req.Name),
		Email: req.Email,
	})
	if err != nil {
		s.writeDomainError(w, r, err)
		return
	}

	status := http.StatusOK
	if result.Created {
		status = http.StatusCreated
	}
	writeJSON(w, status, query.NewStudentDTO(result.Student))
}

// handleGetStudent handles GET /students/{id}.
func (s *Server) handleGetStudent(w http.ResponseWriter, r *http.Request) {
	dto, err := s.deps.GetStudent.Handle(r.Context(), studentQuery(r))
	if err != nil {
		s.writeDomainError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, dto)
}

// handleGetProfile handles GET /students/{id}/profile.
func (s *Server) handleGetProfile(w http.ResponseWriter, r *http.Request) {
	dto, err := s.deps.GetStudent.Profile(r.Context(), studentQuery(r))
	if err != nil {
		s.writeDomainError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, dto)
}

// handleSelectProfile handles POST /students/{id}/profile?profile={k}.
func (s *Server) handleSelectProfile(w http.ResponseWriter, r *http.Request) {
	raw := r.URL.Query().Get("profile")
	if raw == "" {
		writeError(w, r, http.StatusBadRequest, "invalid_request", "profile query parameter is required", "")
		return
	}
	profile, err := catalog.ParseProfile(raw)
	if err != nil {
		s.writeDomainError(w, r, err)
		return
	}

	student, err := s.deps.SelectProfile.Handle(r.Context(), command.SelectProfileCommand{
		StudentID: r.PathValue("id"),
		Profile:   profile,
	})
	if err != nil {
		s.writeDomainError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, query.NewStudentDTO(*student))
}

// handleGetStage handles GET /students/{id}/stage.
func (s *Server) handleGetStage(w http.ResponseWriter, r *http.Request) {
	dto, err := s.deps.GetStage.Handle(r.Context(), studentQuery(r))
	if err != nil {
		s.writeDomainError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, dto)
}

// ══════════════════════════════════════════════════════════════════════════════
// PROGRESS HANDLERS
// ══════════════════════════════════════════════════════════════════════════════

// handleProgressSummary handles GET /students/{id}/progress.
func (s *Server) handleProgressSummary(w http.ResponseWriter, r *http.Request) {
	dto, err := s.deps.Progress.Summary(r.Context(), studentQuery(r))
	if err != nil {
		s.writeDomainError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, dto)
}

// handleConceptProgress handles GET /students/{id}/concept-progress.
func (s *Server) handleConceptProgress(w http.ResponseWriter, r *http.Request) {
	list, err := s.deps.Progress.Concepts(r.Context(), studentQuery(r))
	if err != nil {
		s.writeDomainError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, list)
}

// handleConceptLevels handles GET /students/{id}/concepts/{conceptId}/progress.
func (s *Server) handleConceptLevels(w http.ResponseWriter, r *http.Request) {
	dto, err := s.deps.Progress.Levels(r.Context(), query.GetConceptLevelsQuery{
		StudentID: r.PathValue("id"),
		ConceptID: r.PathValue("conceptId"),
	})
	if err != nil {
		s.writeDomainError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, dto)
}

// handleMetricHistory handles GET /students/{id}/metric-history?page=&page_size=.
func (s *Server) handleMetricHistory(w http.ResponseWriter, r *http.Request) {
	var params historyParams
	var err error
	if params.Page, err = intParam(r, "page"); err != nil {
		writeError(w, r, http.StatusBadRequest, "invalid_request", err.Error(), "")
		return
	}
	if params.PageSize, err = intParam(r, "page_size"); err != nil {
		writeError(w, r, http.StatusBadRequest, "invalid_request", err.Error(), "")
		return
	}
	if !s.validateParams(w, r, params) {
		return
	}

	dto, err := s.deps.MetricHistory.Handle(r.Context(), query.GetMetricHistoryQuery{
		StudentID: r.PathValue("id"),
		Page:      params.Page,
		PageSize:  params.PageSize,
	})
	if err != nil {
		s.writeDomainError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, dto)
}

// ══════════════════════════════════════════════════════════════════════════════
// CATALOG HANDLERS
// ══════════════════════════════════════════════════════════════════════════════

// handleListConcepts handles GET /concepts?profile=. Without a profile every
// concept is listed.
func (s *Server) handleListConcepts(w http.ResponseWriter, r *http.Request) {
	profile := catalog.ProfileUnset
	if raw := r.URL.Query().Get("profile"); raw != "" {
		p, err := catalog.ParseProfile(raw)
		if err != nil {
			s.writeDomainError(w, r, err)
			return
		}
		profile = p
	}
	writeJSON(w, http.StatusOK, s.deps.Catalog.Concepts(profile))
}

// handleConceptMissions handles GET /concepts/{id}/missions?level=.
func (s *Server) handleConceptMissions(w http.ResponseWriter, r *http.Request) {
	var level *catalog.Level
	if raw := r.URL.Query().Get("level"); raw != "" {
		l, err := catalog.ParseLevel(raw)
		if err != nil {
			s.writeDomainError(w, r, err)
			return
		}
		level = &l
	}

	list, err := s.deps.Catalog.Missions(r.PathValue("id"), level)
	if err != nil {
		s.writeDomainError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, list)
}

// handleGetMission handles GET /missions/id/{id}.
func (s *Server) handleGetMission(w http.ResponseWriter, r *http.Request) {
	dto, err := s.deps.Catalog.Mission(r.PathValue("id"))
	if err != nil {
		s.writeDomainError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, dto)
}

// ══════════════════════════════════════════════════════════════════════════════
// MISSION HANDLERS
// ══════════════════════════════════════════════════════════════════════════════

// handleNextMission handles GET /students/{id}/next-mission.
func (s *Server) handleNextMission(w http.ResponseWriter, r *http.Request) {
	dto, err := s.deps.NextMission.Handle(r.Context(), studentQuery(r))
	if err != nil {
		s.writeDomainError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, dto)
}

// handleSubmitMission handles POST /students/{id}/missions/{missionId}/submit.
func (s *Server) handleSubmitMission(w http.ResponseWriter, r *http.Request) {
	var req submitMissionRequest
	if !s.decodeBody(w, r, &req) {
		return
	}

	result, err := s.deps.SubmitMission.Handle(r.Context(), command.SubmitMissionCommand{
		StudentID:        r.PathValue("id"),
		MissionID:        r.PathValue("missionId"),
		Choice:           req.Choices.Main,
		TimeSpentSeconds: req.TimeSpentSeconds,
		CorrelationID:    getRequestID(r.Context()),
	})
	if err != nil {
		s.writeDomainError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, newSubmitMissionResponse(result))
}

// ══════════════════════════════════════════════════════════════════════════════
// STRATEGY HANDLERS
// ══════════════════════════════════════════════════════════════════════════════

// handleSuggest handles POST /strategy/students/{id}/suggest?goal=&max_bundle=&concepts=.
func (s *Server) handleSuggest(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	params := suggestParams{Goal: q.Get("goal")}
	var err error
	if params.MaxBundle, err = intParam(r, "max_bundle"); err != nil {
		writeError(w, r, http.StatusBadRequest, "invalid_request", err.Error(), "")
		return
	}
	if raw := q.Get("concepts"); raw != "" {
		for _, c := range strings.Split(raw, ",") {
			params.Concepts = append(params.Concepts, strings.TrimSpace(c))
		}
	}
	if !s.validateParams(w, r, params) {
		return
	}

	dto, err := s.deps.SuggestBundle.Handle(r.Context(), query.SuggestBundleQuery{
		StudentID: r.PathValue("id"),
		Goal:      params.Goal,
		MaxBundle: params.MaxBundle,
		Concepts:  params.Concepts,
	})
	if err != nil {
		s.writeDomainError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, dto)
}

// handleStrategicContext handles GET /strategy/students/{id}/strategic-context.
func (s *Server) handleStrategicContext(w http.ResponseWriter, r *http.Request) {
	dto, err := s.deps.StrategicContext.Handle(r.Context(), studentQuery(r))
	if err != nil {
		s.writeDomainError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, dto)
}

// ══════════════════════════════════════════════════════════════════════════════
// NOTIFICATION HANDLERS
// ══════════════════════════════════════════════════════════════════════════════

// handleListNotifications handles GET /students/{id}/notifications.
func (s *Server) handleListNotifications(w http.ResponseWriter, r *http.Request) {
	if s.deps.Notifications == nil {
		writeError(w, r, http.StatusNotImplemented, "not_implemented", "Notifications are disabled", "")
		return
	}
	dto, err := s.deps.Notifications.Handle(r.Context(), studentQuery(r))
	if err != nil {
		s.writeDomainError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, dto)
}

// handleMarkNotificationRead handles POST /students/{id}/notifications/{nid}/read.
func (s *Server) handleMarkNotificationRead(w http.ResponseWriter, r *http.Request) {
	if s.deps.MarkNotificationRead == nil {
		writeError(w, r, http.StatusNotImplemented, "not_implemented", "Notifications are disabled", "")
		return
	}
	err := s.deps.MarkNotificationRead.Handle(r.Context(), command.MarkNotificationReadCommand{
		StudentID:      r.PathValue("id"),
		NotificationID: r.PathValue("nid"),
	})
	if err != nil {
		s.writeDomainError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"id": r.PathValue("nid"), "is_read": true})
}

// ══════════════════════════════════════════════════════════════════════════════
// ERROR TRANSLATION
// ══════════════════════════════════════════════════════════════════════════════

// writeDomainError maps the domain error taxonomy onto HTTP statuses.
func (s *Server) writeDomainError(w http.ResponseWriter, r *http.Request, err error) {
	log := logger.FromContext(r.Context())
	message := domainMessage(err)

	switch {
	case shared.IsNotFound(err):
		writeError(w, r, http.StatusNotFound, "not_found", message, "")
	case shared.IsDuplicateSubmission(err):
		writeError(w, r, http.StatusConflict, "duplicate_submission", shared.ErrMissionCompleted.Message, "")
	case shared.IsInvalidSubmission(err):
		writeError(w, r, http.StatusBadRequest, "invalid_submission", message, "")
	case shared.IsValidation(err):
		writeError(w, r, http.StatusBadRequest, "invalid_request", message, "")
	case shared.IsInconsistentState(err):
		log.Error("inconsistent state", logger.Err(err), logger.String("path", r.URL.Path))
		writeError(w, r, http.StatusInternalServerError, "inconsistent_state", "Progression state is inconsistent", "")
	case errors.Is(err, context.DeadlineExceeded):
		writeError(w, r, http.StatusGatewayTimeout, "timeout", "Request timed out", "")
	case errors.Is(err, context.Canceled):
		writeError(w, r, http.StatusServiceUnavailable, "request_cancelled", "Request was cancelled", "")
	default:
		log.Error("request failed", logger.Err(err), logger.String("path", r.URL.Path))
		writeError(w, r, http.StatusInternalServerError, "internal_error", "An unexpected error occurred", "")
	}
}

// domainMessage returns the outermost DomainError message, or the error text.
func domainMessage(err error) string {
	var de *shared.DomainError
	if errors.As(err, &de) {
		return de.Message
	}
	return err.Error()
}

// ══════════════════════════════════════════════════════════════════════════════
// REQUEST HELPERS
// ══════════════════════════════════════════════════════════════════════════════

func studentQuery(r *http.Request) query.GetStudentQuery {
	return query.GetStudentQuery{StudentID: r.PathValue("id")}
}

// decodeBody decodes and validates a JSON body. It writes the error
// response itself and reports whether the handler may continue.
func (s *Server) decodeBody(w http.ResponseWriter, r *http.Request, dst any) bool {
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	if err := dec.Decode(dst); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			writeError(w, r, http.StatusRequestEntityTooLarge, "payload_too_large", "Request body too large", "")
			return false
		}
		writeError(w, r, http.StatusBadRequest, "invalid_json", "Request body is not valid JSON", err.Error())
		return false
	}
	return s.validateParams(w, r, dst)
}

func (s *Server) validateParams(w http.ResponseWriter, r *http.Request, v any) bool {
	if err := validate.Struct(v); err != nil {
		writeError(w, r, http.StatusBadRequest, "invalid_request", "Request validation failed", validationDetails(err))
		return false
	}
	return true
}

// validationDetails flattens validator errors into one line.
func validationDetails(err error) string {
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return err.Error()
	}
	parts := make([]string, 0, len(verrs))
	for _, fe := range verrs {
		parts = append(parts, fmt.Sprintf("%s failed on %s", fe.Namespace(), fe.Tag()))
	}
	return strings.Join(parts, "; ")
}

// intParam parses an optional integer query parameter. Missing means 0.
func intParam(r *http.Request, key string) (int, error) {
	raw := r.URL.Query().Get(key)
	if raw == "" {
		return 0, nil
	}
	n, err := strconv.Atoi(raw)
	if err != nil {
		return 0, fmt.Errorf("%s must be an integer", key)
	}
	return n, nil
}
