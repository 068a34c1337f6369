package controllers

import (
	"errors"
	"log/slog"
	"net/http"
	"strings"

	"eventcrm/internal/delivery/http/helpers"
	"eventcrm/internal/domain"
)

// RoleChangeRequest is the request body for POST /events/{slug}/role.
// The UTM fields are copied from the event page URL by the client.
type RoleChangeRequest struct {
	Token    string `json:"token"`
	IsHost   bool   `json:"is_host"`
	IsAttend bool   `json:"is_attend"`
	domain.UTMParams
}

// Validate implements Validator.
func (req RoleChangeRequest) Validate() []string {
	var errs []string
	if strings.TrimSpace(req.Token) == "" {
		errs = append(errs, "token is required")
	}
	return errs
}

// RoleChangeSuccessResponse is the success response envelope for POST /events/{slug}/role (200).
type RoleChangeSuccessResponse struct {
	Data  *domain.RoleChangeResponse `json:"data"`
	Error *helpers.APIError          `json:"error"`
}

// ParticipationController handles the self-service role change.
type ParticipationController struct {
	Logger  *slog.Logger
	Service domain.ParticipationService
}

func NewParticipationController(logger *slog.Logger, svc domain.ParticipationService) *ParticipationController {
	return &ParticipationController{
		Logger:  logger,
		Service: svc,
	}
}

// ChangeRole godoc
// @Summary Host, attend or leave an event
// @Description Applies the requested role for the user identified by the emailed link token. is_host and is_attend are mutually exclusive; both false unregisters. Any handled outcome, including "already in that role", is a 200. Invalid input, a full event and an invalid or expired token are a 400 whose data still carries the unchanged participation status when known.
// @Tags events
// @Accept json
// @Produce json
// @Param slug path string true "Event slug"
// @Param body body RoleChangeRequest true "Token, role flags and campaign tags"
// @Success 200 {object} controllers.RoleChangeSuccessResponse "data contains messages, final role flags and the event aggregate"
// @Failure 400 {object} helpers.APIResponse "error.code: bad_request"
// @Failure 404 {object} helpers.APIResponse "error.code: not_found"
// @Failure 409 {object} helpers.APIResponse "error.code: conflict"
// @Failure 500 {object} helpers.APIResponse "error.code: internal_error"
// @Router /events/{slug}/role [post]
func (c *ParticipationController) ChangeRole(w http.ResponseWriter, r *http.Request) {
	slug := r.PathValue("slug")
	if !domain.ValidSlug(slug) {
		helpers.WriteJSONError(w, http.StatusNotFound, helpers.ErrCodeNotFound, domain.ErrEventNotFound.Error())
		return
	}
	var req RoleChangeRequest
	if !helpers.DecodeAndValidate(w, r, &req) {
		return
	}

	resp, err := c.Service.ChangeRoleWithToken(r.Context(), domain.RoleChangeRequest{
		Token:     strings.TrimSpace(req.Token),
		EventSlug: slug,
		IsHost:    req.IsHost,
		IsAttend:  req.IsAttend,
		UTM:       req.UTMParams,
	})
	switch {
	case err == nil:
		helpers.WriteJSONSuccess(w, http.StatusOK, resp)
	case errors.Is(err, domain.ErrInvalidToken),
		errors.Is(err, domain.ErrCapacityExceeded),
		errors.Is(err, domain.ErrInvalidInput):
		msg := err.Error()
		if resp != nil && len(resp.Messages) > 0 {
			msg = resp.Messages[0]
		}
		helpers.WriteJSONErrorWithData(w, http.StatusBadRequest, helpers.ErrCodeBadRequest, msg, resp)
	default:
		writeControllerError(c.Logger, w, r, err)
	}
}
