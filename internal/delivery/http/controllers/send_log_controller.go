package controllers

import (
	"log/slog"
	"net/http"
	"strings"
	"time"

	"eventcrm/internal/delivery/http/helpers"
	"eventcrm/internal/domain"
)

const dateLayout = "2006-01-02"

// SendLogListSuccessResponse is the success response envelope for GET /send-logs (200).
type SendLogListSuccessResponse struct {
	Data  helpers.PaginatedList[*domain.SendLog] `json:"data"`
	Error *helpers.APIError                      `json:"error"`
}

// SendLogController lists the bulk-send audit log.
type SendLogController struct {
	Logger  *slog.Logger
	Service domain.SendLogService
}

func NewSendLogController(logger *slog.Logger, svc domain.SendLogService) *SendLogController {
	return &SendLogController{
		Logger:  logger,
		Service: svc,
	}
}

// List godoc
// @Summary List send logs
// @Description Read-only audit of bulk sends, newest first by default. created_from and created_to accept RFC 3339 timestamps or plain dates; a plain created_to date includes the whole day.
// @Tags emails
// @Produce json
// @Security BearerAuth
// @Param status query string false "pending, success, partial_success or failed"
// @Param created_from query string false "Created at or after"
// @Param created_to query string false "Created at or before"
// @Param event_title query string false "Event title contains"
// @Param ordering query string false "created_at, subject, status, num_recipients or num_sent_successfully; prefix with - for descending"
// @Param page query int false "Page number (default 1)"
// @Param page_size query int false "Page size (default 20, max 100)"
// @Success 200 {object} controllers.SendLogListSuccessResponse "data contains items and pagination"
// @Failure 400 {object} helpers.APIResponse "error.code: bad_request"
// @Failure 401 {object} helpers.APIResponse "error.code: unauthorized"
// @Failure 403 {object} helpers.APIResponse "error.code: forbidden"
// @Failure 500 {object} helpers.APIResponse "error.code: internal_error"
// @Router /send-logs [get]
func (c *SendLogController) List(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	from, err := parseTimeParam(q.Get("created_from"), false)
	if err != nil {
		helpers.WriteJSONError(w, http.StatusBadRequest, helpers.ErrCodeBadRequest, "created_from: "+err.Error())
		return
	}
	to, err := parseTimeParam(q.Get("created_to"), true)
	if err != nil {
		helpers.WriteJSONError(w, http.StatusBadRequest, helpers.ErrCodeBadRequest, "created_to: "+err.Error())
		return
	}
	query := domain.SendLogQuery{
		Status:      domain.SendStatus(strings.TrimSpace(q.Get("status"))),
		CreatedFrom: from,
		CreatedTo:   to,
		EventTitle:  strings.TrimSpace(q.Get("event_title")),
	}
	order := domain.ParseSortOrder(strings.TrimSpace(q.Get("ordering")), domain.SendLogSortFields, domain.DefaultSendLogSort)
	params := helpers.ParsePagination(r)

	logs, total, err := c.Service.List(r.Context(), query, order, params)
	if err != nil {
		writeControllerError(c.Logger, w, r, err)
		return
	}
	helpers.WriteJSONSuccess(w, http.StatusOK, helpers.NewPaginatedList(logs, params, total, order.String()))
}

// parseTimeParam accepts RFC 3339 or YYYY-MM-DD. With endOfDay a plain date is moved to its last instant.
func parseTimeParam(raw string, endOfDay bool) (*time.Time, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return nil, nil
	}
	if t, err := time.Parse(time.RFC3339, raw); err == nil {
		return &t, nil
	}
	t, err := time.Parse(dateLayout, raw)
	if err != nil {
		return nil, domain.NewValidationError("", "must be an RFC 3339 timestamp or a YYYY-MM-DD date")
	}
	if endOfDay {
		t = t.Add(24*time.Hour - time.Nanosecond)
	}
	return &t, nil
}
