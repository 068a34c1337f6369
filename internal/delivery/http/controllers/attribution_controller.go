package controllers

import (
	"log/slog"
	"net/http"
	"strings"

	"eventcrm/internal/delivery/http/helpers"
	"eventcrm/internal/domain"
)

// AttributionListSuccessResponse is the success response envelope for GET /attributions (200).
type AttributionListSuccessResponse struct {
	Data  helpers.PaginatedList[*domain.AttributionRecord] `json:"data"`
	Error *helpers.APIError                                `json:"error"`
}

// AttributionController lists campaign attribution records.
type AttributionController struct {
	Logger  *slog.Logger
	Service domain.AttributionService
}

func NewAttributionController(logger *slog.Logger, svc domain.AttributionService) *AttributionController {
	return &AttributionController{
		Logger:  logger,
		Service: svc,
	}
}

// List godoc
// @Summary List attribution records
// @Description Read-only list of role changes that carried campaign tags. search matches user email, username, event title and campaign; the utm fields match exactly.
// @Tags attributions
// @Produce json
// @Security BearerAuth
// @Param search query string false "Free-text search"
// @Param utm_source query string false "Exact utm_source"
// @Param utm_medium query string false "Exact utm_medium"
// @Param utm_campaign query string false "Exact utm_campaign"
// @Param role_change_type query string false "host, attendee or unregistered"
// @Param ordering query string false "created_at, utm_source, utm_medium, utm_campaign or role_change_type; prefix with - for descending"
// @Param page query int false "Page number (default 1)"
// @Param page_size query int false "Page size (default 20, max 100)"
// @Success 200 {object} controllers.AttributionListSuccessResponse "data contains items and pagination"
// @Failure 400 {object} helpers.APIResponse "error.code: bad_request"
// @Failure 401 {object} helpers.APIResponse "error.code: unauthorized"
// @Failure 403 {object} helpers.APIResponse "error.code: forbidden"
// @Failure 500 {object} helpers.APIResponse "error.code: internal_error"
// @Router /attributions [get]
func (c *AttributionController) List(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	changeType := domain.ChangeType(strings.TrimSpace(q.Get("role_change_type")))
	switch changeType {
	case "", domain.ChangeHost, domain.ChangeAttendee, domain.ChangeUnregistered:
	default:
		helpers.WriteJSONError(w, http.StatusBadRequest, helpers.ErrCodeBadRequest, "role_change_type must be host, attendee or unregistered")
		return
	}
	query := domain.AttributionQuery{
		Search:         strings.TrimSpace(q.Get("search")),
		UTMSource:      strings.TrimSpace(q.Get("utm_source")),
		UTMMedium:      strings.TrimSpace(q.Get("utm_medium")),
		UTMCampaign:    strings.TrimSpace(q.Get("utm_campaign")),
		RoleChangeType: changeType,
	}
	order := domain.ParseSortOrder(strings.TrimSpace(q.Get("ordering")), domain.AttributionSortFields, domain.DefaultAttributionSort)
	params := helpers.ParsePagination(r)

	records, total, err := c.Service.List(r.Context(), query, order, params)
	if err != nil {
		writeControllerError(c.Logger, w, r, err)
		return
	}
	helpers.WriteJSONSuccess(w, http.StatusOK, helpers.NewPaginatedList(records, params, total, order.String()))
}
