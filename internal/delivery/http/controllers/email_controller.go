package controllers

import (
	"log/slog"
	"net/http"
	"strings"

	"eventcrm/internal/delivery/http/helpers"
	"eventcrm/internal/delivery/http/middleware"
	"eventcrm/internal/domain"
)

// SendEmailRequest is the request body for POST /emails/send. The segment criteria
// fields sit next to the message fields.
type SendEmailRequest struct {
	Subject   string `json:"subject"`
	Body      string `json:"body"`
	HTMLBody  string `json:"html_body"`
	EventSlug string `json:"event_slug"`
	domain.SegmentCriteria
}

// Validate implements Validator.
func (s SendEmailRequest) Validate() []string {
	var errs []string
	if strings.TrimSpace(s.Subject) == "" {
		errs = append(errs, "subject is required")
	}
	if strings.TrimSpace(s.Body) == "" {
		errs = append(errs, "body is required")
	}
	if slug := strings.TrimSpace(s.EventSlug); slug != "" && !domain.ValidSlug(slug) {
		errs = append(errs, "event_slug is not a valid slug")
	}
	return errs
}

// SendEmailSuccessResponse is the success response envelope for POST /emails/send (200).
type SendEmailSuccessResponse struct {
	Data  *domain.SendOutcome `json:"data"`
	Error *helpers.APIError   `json:"error"`
}

// EmailController triggers bulk sends.
type EmailController struct {
	Logger  *slog.Logger
	Service domain.BulkMailService
}

func NewEmailController(logger *slog.Logger, svc domain.BulkMailService) *EmailController {
	return &EmailController{
		Logger:  logger,
		Service: svc,
	}
}

// Send godoc
// @Summary Send an email to a user segment
// @Description Sends one email per user matching the criteria and records a send log. With event_slug each recipient gets a personal event link, substituted for {event_link} in the body or appended. Individual delivery failures never abort the send; data reports how many were delivered.
// @Tags emails
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param body body SendEmailRequest true "Message and segment criteria"
// @Success 200 {object} controllers.SendEmailSuccessResponse "data contains sent_count, recipients_count and message"
// @Failure 400 {object} helpers.APIResponse "error.code: bad_request"
// @Failure 401 {object} helpers.APIResponse "error.code: unauthorized"
// @Failure 403 {object} helpers.APIResponse "error.code: forbidden"
// @Failure 404 {object} helpers.APIResponse "error.code: not_found"
// @Failure 500 {object} helpers.APIResponse "error.code: internal_error"
// @Router /emails/send [post]
func (c *EmailController) Send(w http.ResponseWriter, r *http.Request) {
	var req SendEmailRequest
	if !helpers.DecodeAndValidate(w, r, &req) {
		return
	}
	senderID, ok := middleware.UserIDFromContext(r.Context())
	if !ok {
		helpers.WriteJSONError(w, http.StatusUnauthorized, helpers.ErrCodeUnauthorized, "unauthorized")
		return
	}

	out, err := c.Service.SendToSegment(r.Context(), domain.BulkSendRequest{
		Subject:   req.Subject,
		Body:      req.Body,
		HTMLBody:  req.HTMLBody,
		Criteria:  req.SegmentCriteria,
		EventSlug: req.EventSlug,
		SenderID:  senderID,
	})
	if err != nil {
		writeControllerError(c.Logger, w, r, err)
		return
	}
	helpers.WriteJSONSuccess(w, http.StatusOK, out)
}
