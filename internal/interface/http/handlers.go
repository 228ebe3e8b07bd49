package http

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/go-playground/validator/v10"

	"github.com/nexus-academicus/1board/internal/application/command"
	"github.com/nexus-academicus/1board/internal/application/query"
	"github.com/nexus-academicus/1board/internal/domain/shared"
	"github.com/nexus-academicus/1board/pkg/logger"
)

// ══════════════════════════════════════════════════════════════════════════════
// REQUEST DTOs
// ══════════════════════════════════════════════════════════════════════════════

var validate = validator.New(validator.WithRequiredStructEnabled())

type ensureStudentRequest struct {
	Name      string `json:"name" validate:"max=120"`
	AvatarURL string `json:"avatarUrl" validate:"omitempty,url,max=512"`
}

// Absent fields are left unchanged; an empty string clears a link.
type updateProfileRequest struct {
	Name        *string `json:"name" validate:"omitempty,min=1,max=120"`
	GitHubURL   *string `json:"githubUrl" validate:"omitempty,max=512"`
	LinkedInURL *string `json:"linkedinUrl" validate:"omitempty,max=512"`
}

type recordActivityRequest struct {
	Source      string   `json:"source" validate:"required"`
	Points      *float64 `json:"points" validate:"required"`
	Description string   `json:"description" validate:"max=500"`
	Date        string   `json:"date"`
	ExternalID  string   `json:"externalId" validate:"max=128"`
}

type awardPointsRequest struct {
	Identity string   `json:"identity" validate:"required"`
	Points   *float64 `json:"points" validate:"required"`
	Reason   string   `json:"reason" validate:"required,max=500"`
}

type addEventRequest struct {
	Title       string `json:"title" validate:"required,max=200"`
	Date        string `json:"date" validate:"required"`
	Description string `json:"description" validate:"max=2000"`
	Location    string `json:"location" validate:"max=200"`
	Link        string `json:"link" validate:"omitempty,url"`
}

// decodeAndValidate reads a JSON body into dst and runs the struct tags.
// It writes the 400 response itself and reports whether the caller may go on.
func (s *Server) decodeAndValidate(w http.ResponseWriter, r *http.Request, dst interface{}) bool {
	if s.config.MaxBodyBytes > 0 {
		r.Body = http.MaxBytesReader(w, r.Body, s.config.MaxBodyBytes)
	}
	defer r.Body.Close()

	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			writeJSONError(w, r, http.StatusRequestEntityTooLarge, "payload_too_large", "Request body too large")
			return false
		}
		writeJSONError(w, r, http.StatusBadRequest, "invalid_request", "Invalid JSON payload")
		return false
	}

	if err := validate.Struct(dst); err != nil {
		var verrs validator.ValidationErrors
		if errors.As(err, &verrs) {
			details := make([]string, 0, len(verrs))
			for _, fe := range verrs {
				details = append(details, fmt.Sprintf("%s: failed %q", fe.Field(), fe.Tag()))
			}
			writeJSONError(w, r, http.StatusBadRequest, "validation_failed", "Request validation failed", details...)
			return false
		}
		writeJSONError(w, r, http.StatusBadRequest, "invalid_request", err.Error())
		return false
	}
	return true
}

// writeDomainError maps error kinds to HTTP statuses.
func writeDomainError(w http.ResponseWriter, r *http.Request, op string, err error) {
	switch {
	case shared.IsValidation(err):
		writeJSONError(w, r, http.StatusBadRequest, "invalid_request", publicMessage(err))
	case shared.IsNotFound(err):
		writeJSONError(w, r, http.StatusNotFound, "not_found", publicMessage(err))
	case shared.IsAlreadyExists(err):
		writeJSONError(w, r, http.StatusConflict, "conflict", publicMessage(err))
	case errors.Is(err, shared.ErrUnauthorized):
		writeJSONError(w, r, http.StatusUnauthorized, "unauthorized", publicMessage(err))
	case errors.Is(err, shared.ErrForbidden):
		writeJSONError(w, r, http.StatusForbidden, "forbidden", publicMessage(err))
	case shared.IsUnavailable(err):
		logger.FromContext(r.Context()).Warn("dependency unavailable", logger.Operation(op), logger.Err(err))
		writeJSONError(w, r, http.StatusServiceUnavailable, "service_unavailable", "A backing service is unavailable, please retry")
	default:
		logger.FromContext(r.Context()).Error("request failed", logger.Operation(op), logger.Err(err))
		writeJSONError(w, r, http.StatusInternalServerError, "internal_error", "An unexpected error occurred")
	}
}

// publicMessage returns the DomainError message when there is one, never the
// wrapped chain.
func publicMessage(err error) string {
	var de *shared.DomainError
	if errors.As(err, &de) && de.Message != "" {
		return de.Message
	}
	return err.Error()
}

func notConfigured(w http.ResponseWriter, r *http.Request) {
	writeJSONError(w, r, http.StatusNotImplemented, "not_implemented", "Endpoint is not configured")
}

// ══════════════════════════════════════════════════════════════════════════════
// LEADERBOARD & STUDENT HANDLERS
// ══════════════════════════════════════════════════════════════════════════════

// handleGetLeaderboard handles GET /api/v1/leaderboard?q=&limit=
func (s *Server) handleGetLeaderboard(w http.ResponseWriter, r *http.Request) {
	if s.deps.GetLeaderboard == nil {
		notConfigured(w, r)
		return
	}

	result, err := s.deps.GetLeaderboard.Handle(r.Context(), query.GetLeaderboardQuery{
		Search: r.URL.Query().Get("q"),
		Limit:  getQueryParamInt(r, "limit", 0),
	})
	if err != nil {
		writeDomainError(w, r, "get_leaderboard", err)
		return
	}

	writeJSONWithMeta(w, r, http.StatusOK, result.Entries, &ResponseMeta{
		TotalCount: result.Total,
		FromCache:  result.FromCache,
	})
}

// handleGetStudent handles GET /api/v1/students/{identity}
func (s *Server) handleGetStudent(w http.ResponseWriter, r *http.Request) {
	if s.deps.GetStudent == nil {
		notConfigured(w, r)
		return
	}

	dto, err := s.deps.GetStudent.Handle(r.Context(), query.GetStudentQuery{Identity: r.PathValue("identity")})
	if err != nil {
		writeDomainError(w, r, "get_student", err)
		return
	}
	writeJSON(w, r, http.StatusOK, dto)
}

// handleGetStudentRank handles GET /api/v1/students/{identity}/rank
func (s *Server) handleGetStudentRank(w http.ResponseWriter, r *http.Request) {
	if s.deps.GetStudentRank == nil {
		notConfigured(w, r)
		return
	}

	dto, err := s.deps.GetStudentRank.Handle(r.Context(), query.GetStudentRankQuery{Identity: r.PathValue("identity")})
	if err != nil {
		writeDomainError(w, r, "get_student_rank", err)
		return
	}
	writeJSON(w, r, http.StatusOK, dto)
}

// handleEnsureStudent handles POST /api/v1/students/ensure. The identity
// provider calls it after every sign-in.
func (s *Server) handleEnsureStudent(w http.ResponseWriter, r *http.Request) {
	if s.deps.EnsureStudent == nil {
		notConfigured(w, r)
		return
	}

	identity := strings.TrimSpace(r.Header.Get(HeaderUserID))
	if identity == "" {
		writeJSONError(w, r, http.StatusUnauthorized, "unauthorized", "Caller identity is required")
		return
	}

	var req ensureStudentRequest
	if !s.decodeAndValidate(w, r, &req) {
		return
	}

	res, err := s.deps.EnsureStudent.Handle(r.Context(), command.EnsureStudentCommand{
		Identity:      identity,
		Name:          req.Name,
		AvatarURL:     req.AvatarURL,
		CorrelationID: getRequestID(r.Context()),
	})
	if err != nil {
		writeDomainError(w, r, "ensure_student", err)
		return
	}

	status := http.StatusOK
	if res.Created {
		status = http.StatusCreated
	}
	writeJSON(w, r, status, res.Student)
}

// handleUpdateProfile handles PATCH /api/v1/students/{identity}
func (s *Server) handleUpdateProfile(w http.ResponseWriter, r *http.Request) {
	if s.deps.UpdateProfile == nil {
		notConfigured(w, r)
		return
	}

	var req updateProfileRequest
	if !s.decodeAndValidate(w, r, &req) {
		return
	}

	updated, err := s.deps.UpdateProfile.Handle(r.Context(), command.UpdateProfileCommand{
		Identity:    r.PathValue("identity"),
		Name:        req.Name,
		GitHubURL:   req.GitHubURL,
		LinkedInURL: req.LinkedInURL,
	})
	if err != nil {
		writeDomainError(w, r, "update_profile", err)
		return
	}
	writeJSON(w, r, http.StatusOK, updated)
}

// handleRecordActivity handles POST /api/v1/students/{identity}/activities
func (s *Server) handleRecordActivity(w http.ResponseWriter, r *http.Request) {
	if s.deps.RecordActivity == nil {
		notConfigured(w, r)
		return
	}

	var req recordActivityRequest
	if !s.decodeAndValidate(w, r, &req) {
		return
	}

	res, err := s.deps.RecordActivity.Handle(r.Context(), command.RecordActivityCommand{
		Identity:      r.PathValue("identity"),
		Source:        req.Source,
		Points:        *req.Points,
		Description:   req.Description,
		Date:          req.Date,
		ExternalID:    req.ExternalID,
		CorrelationID: getRequestID(r.Context()),
	})
	if err != nil {
		writeDomainError(w, r, "record_activity", err)
		return
	}
	writeJSON(w, r, http.StatusCreated, res)
}

// handleAwardPoints handles POST /api/v1/admin/awards
func (s *Server) handleAwardPoints(w http.ResponseWriter, r *http.Request) {
	if s.deps.AwardPoints == nil {
		notConfigured(w, r)
		return
	}

	var req awardPointsRequest
	if !s.decodeAndValidate(w, r, &req) {
		return
	}

	res, err := s.deps.AwardPoints.Handle(r.Context(), command.AwardPointsCommand{
		Identity:      req.Identity,
		Points:        *req.Points,
		Reason:        req.Reason,
		CorrelationID: getRequestID(r.Context()),
	})
	if err != nil {
		writeDomainError(w, r, "award_points", err)
		return
	}

	logger.FromContext(r.Context()).Info("points awarded by admin",
		logger.Identity(req.Identity),
		logger.Points(res.Entry.Points),
	)
	writeJSON(w, r, http.StatusCreated, res)
}

// ══════════════════════════════════════════════════════════════════════════════
// EVENT HANDLERS
// ══════════════════════════════════════════════════════════════════════════════

// handleListEvents handles GET /api/v1/events
func (s *Server) handleListEvents(w http.ResponseWriter, r *http.Request) {
	if s.deps.ListEvents == nil {
		notConfigured(w, r)
		return
	}

	events, err := s.deps.ListEvents.Handle(r.Context())
	if err != nil {
		writeDomainError(w, r, "list_events", err)
		return
	}
	writeJSONWithMeta(w, r, http.StatusOK, events, &ResponseMeta{TotalCount: len(events)})
}

// handleUpcomingEvents handles GET /api/v1/events/upcoming?limit=
func (s *Server) handleUpcomingEvents(w http.ResponseWriter, r *http.Request) {
	if s.deps.UpcomingEvents == nil {
		notConfigured(w, r)
		return
	}

	events, err := s.deps.UpcomingEvents.Handle(r.Context(), query.UpcomingEventsQuery{
		Limit: getQueryParamInt(r, "limit", 0),
	})
	if err != nil {
		writeDomainError(w, r, "upcoming_events", err)
		return
	}
	writeJSON(w, r, http.StatusOK, events)
}

// handleAddEvent handles POST /api/v1/events
func (s *Server) handleAddEvent(w http.ResponseWriter, r *http.Request) {
	if s.deps.AddEvent == nil {
		notConfigured(w, r)
		return
	}

	var req addEventRequest
	if !s.decodeAndValidate(w, r, &req) {
		return
	}

	ev, err := s.deps.AddEvent.Handle(r.Context(), command.AddEventCommand{
		Title:       req.Title,
		Date:        req.Date,
		Description: req.Description,
		Location:    req.Location,
		Link:        req.Link,
	})
	if err != nil {
		writeDomainError(w, r, "add_event", err)
		return
	}
	writeJSON(w, r, http.StatusCreated, ev)
}

// handleDeleteEvent handles DELETE /api/v1/events/{id}
func (s *Server) handleDeleteEvent(w http.ResponseWriter, r *http.Request) {
	if s.deps.DeleteEvent == nil {
		notConfigured(w, r)
		return
	}

	id := r.PathValue("id")
	if err := s.deps.DeleteEvent.Handle(r.Context(), command.DeleteEventCommand{ID: id}); err != nil {
		writeDomainError(w, r, "delete_event", err)
		return
	}
	writeJSON(w, r, http.StatusOK, map[string]string{"id": id, "status": "deleted"})
}

// ══════════════════════════════════════════════════════════════════════════════
// LEETCODE
// ══════════════════════════════════════════════════════════════════════════════

// handleDailyProblem handles GET /api/v1/leetcode/daily
func (s *Server) handleDailyProblem(w http.ResponseWriter, r *http.Request) {
	if s.deps.GetDailyProblem == nil {
		notConfigured(w, r)
		return
	}

	problem, err := s.deps.GetDailyProblem.Handle(r.Context())
	if err != nil {
		writeDomainError(w, r, "get_daily_problem", err)
		return
	}
	writeJSON(w, r, http.StatusOK, problem)
}
