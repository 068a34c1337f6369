package controllers

import (
	"log/slog"
	"net/http"

	"eventcrm/internal/delivery/http/helpers"
	"eventcrm/internal/domain"
)

// UserListSuccessResponse is the success response envelope for GET /users (200).
type UserListSuccessResponse struct {
	Data  helpers.PaginatedList[*domain.UserSummary] `json:"data"`
	Error *helpers.APIError                          `json:"error"`
}

// UserController serves segment queries over users.
type UserController struct {
	Logger   *slog.Logger
	Segments domain.SegmentService
}

// NewUserController creates a UserController with the given logger and segment service.
func NewUserController(logger *slog.Logger, segments domain.SegmentService) *UserController {
	return &UserController{
		Logger:   logger,
		Segments: segments,
	}
}

// ListSegment godoc
// @Summary List users in a segment
// @Description Filters users by profile substrings (case-insensitive) and inclusive bounds on the derived event counters. Every item carries total_owned_events, total_hosting_events and total_registered_events. Unknown ordering fields fall back to username.
// @Tags users
// @Produce json
// @Security BearerAuth
// @Param company query string false "Company contains"
// @Param job_title query string false "Job title contains"
// @Param city query string false "City contains"
// @Param state query string false "State contains"
// @Param total_owned_events_min query int false "Minimum owned events"
// @Param total_owned_events_max query int false "Maximum owned events"
// @Param total_hosting_events_min query int false "Minimum hosted events"
// @Param total_hosting_events_max query int false "Maximum hosted events"
// @Param total_registered_events_min query int false "Minimum registered events"
// @Param total_registered_events_max query int false "Maximum registered events"
// @Param ordering query string false "Sort field, prefix with - for descending"
// @Param page query int false "Page number (default 1)"
// @Param page_size query int false "Page size (default 20, max 100)"
// @Success 200 {object} controllers.UserListSuccessResponse "data contains items and pagination"
// @Failure 400 {object} helpers.APIResponse "error.code: bad_request"
// @Failure 401 {object} helpers.APIResponse "error.code: unauthorized"
// @Failure 403 {object} helpers.APIResponse "error.code: forbidden"
// @Failure 500 {object} helpers.APIResponse "error.code: internal_error"
// @Router /users [get]
func (c *UserController) ListSegment(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	criteria, err := domain.ParseSegmentCriteria(q)
	if err != nil {
		helpers.WriteJSONError(w, http.StatusBadRequest, helpers.ErrCodeBadRequest, err.Error())
		return
	}
	params, err := helpers.ParsePaginationStrict(r)
	if err != nil {
		helpers.WriteJSONError(w, http.StatusBadRequest, helpers.ErrCodeBadRequest, err.Error())
		return
	}
	order := domain.ParseUserOrdering(q.Get("ordering"))

	users, total, err := c.Segments.Filter(r.Context(), criteria, order, params)
	if err != nil {
		writeControllerError(c.Logger, w, r, err)
		return
	}
	helpers.WriteJSONSuccess(w, http.StatusOK, helpers.NewPaginatedList(users, params, total, order.String()))
}

// writeControllerError writes err with its mapped status, logging only unexpected errors.
func writeControllerError(logger *slog.Logger, w http.ResponseWriter, r *http.Request, err error) {
	if _, _, ok := helpers.StatusForError(err); !ok {
		logger.ErrorContext(r.Context(), "request failed", "path", r.URL.Path, "method", r.Method, "err", err)
	}
	helpers.WriteServiceError(w, err)
}
