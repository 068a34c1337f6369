package services

import (
	"context"
	"errors"
	"fmt"
	"html"
	"log/slog"
	"net/url"
	"strings"
	"time"
	"unicode/utf8"

	"eventcrm/internal/domain"
)

const (
	campaignTemplate  = "campaign"
	eventLinkToken    = "{event_link}"
	maxSubjectLength  = 255
	campaignUTMSource = "crm_email"
	campaignUTMMedium = "email"
	campaignContent   = "textlink"
)

type bulkMailService struct {
	segments       domain.SegmentService
	eventRepo      domain.EventRepository
	sendLogs       domain.SendLogRepository
	codec          domain.LinkTokenCodec
	mailer         domain.Mailer
	renderer       domain.EmailTemplateRenderer
	publicBaseURL  string
	metrics        *Metrics
	logger         *slog.Logger
	contextTimeout time.Duration
}

// BulkMailDeps groups the collaborators of the bulk mail service.
type BulkMailDeps struct {
	Segments      domain.SegmentService
	EventRepo     domain.EventRepository
	SendLogs      domain.SendLogRepository
	Codec         domain.LinkTokenCodec
	Mailer        domain.Mailer
	Renderer      domain.EmailTemplateRenderer
	PublicBaseURL string
	Metrics       *Metrics
	Logger        *slog.Logger
}

func NewBulkMailService(deps BulkMailDeps, timeout time.Duration) domain.BulkMailService {
	return &bulkMailService{
		segments:       deps.Segments,
		eventRepo:      deps.EventRepo,
		sendLogs:       deps.SendLogs,
		codec:          deps.Codec,
		mailer:         deps.Mailer,
		renderer:       deps.Renderer,
		publicBaseURL:  strings.TrimRight(deps.PublicBaseURL, "/"),
		metrics:        deps.Metrics,
		logger:         deps.Logger,
		contextTimeout: timeout,
	}
}

func validateBulkSend(req *domain.BulkSendRequest) error {
	req.Subject = strings.TrimSpace(req.Subject)
	if req.Subject == "" {
		return domain.NewValidationError("subject", "is required")
	}
	if utf8.RuneCountInString(req.Subject) > maxSubjectLength {
		return domain.NewValidationError("subject", fmt.Sprintf("must be at most %d characters", maxSubjectLength))
	}
	if strings.TrimSpace(req.Body) == "" {
		return domain.NewValidationError("body", "is required")
	}
	req.EventSlug = strings.TrimSpace(req.EventSlug)
	req.Criteria.Normalize()
	return req.Criteria.Validate()
}

// SendToSegment delivers one personalized email per segment member and records the attempt.
// Individual delivery failures never abort the loop.
func (s *bulkMailService) SendToSegment(ctx context.Context, req domain.BulkSendRequest) (*domain.SendOutcome, error) {
	if err := validateBulkSend(&req); err != nil {
		return nil, err
	}

	var event *domain.Event
	if req.EventSlug != "" {
		var err error
		if event, err = s.getEvent(ctx, req.EventSlug); err != nil {
			return nil, err
		}
	}

	users, err := s.segments.All(ctx, req.Criteria)
	if err != nil {
		return nil, fmt.Errorf("resolve segment: %w", err)
	}
	recipients := make([]*domain.UserSummary, 0, len(users))
	emails := make([]string, 0, len(users))
	for _, u := range users {
		if strings.TrimSpace(u.Email) == "" {
			continue
		}
		recipients = append(recipients, u)
		emails = append(emails, u.Email)
	}
	if len(recipients) == 0 {
		return &domain.SendOutcome{
			Failed:  []string{},
			Message: "No users found matching the filter criteria. No emails sent.",
		}, nil
	}

	log := &domain.SendLog{
		Subject:        req.Subject,
		Body:           req.Body,
		FiltersApplied: req.Criteria,
		Recipients:     emails,
		NumRecipients:  len(emails),
		Status:         domain.SendPending,
	}
	if event != nil {
		log.EventID = &event.ID
	}
	if req.SenderID != "" {
		log.SentByID = &req.SenderID
	}
	if err := s.createLog(ctx, log); err != nil {
		return nil, fmt.Errorf("create send log: %w", err)
	}

	sent := 0
	failed := make([]string, 0)
	var firstErr error
	for _, u := range recipients {
		if err := s.deliver(ctx, req, event, u); err != nil {
			s.logger.WarnContext(ctx, "bulk email delivery failed", "send_log_id", log.ID, "to", u.Email, "err", err)
			s.metrics.delivery(false)
			failed = append(failed, u.Email)
			if firstErr == nil {
				firstErr = err
			}
			continue
		}
		s.metrics.delivery(true)
		sent++
	}

	status := domain.StatusFor(sent, len(recipients))
	errorMessage := ""
	if firstErr != nil {
		errorMessage = fmt.Sprintf("%d of %d deliveries failed: %v", len(failed), len(recipients), firstErr)
	}
	if err := s.finalizeLog(ctx, log.ID, sent, status, errorMessage); err != nil {
		s.logger.ErrorContext(ctx, "send log not finalized", "send_log_id", log.ID, "sent", sent, "status", status, "err", err)
		status = domain.SendPending
	}

	return &domain.SendOutcome{
		SentCount:       sent,
		RecipientsCount: len(recipients),
		Status:          status,
		SendLogID:       log.ID,
		Failed:          failed,
		Message:         outcomeMessage(sent, len(recipients)),
	}, nil
}

func (s *bulkMailService) getEvent(ctx context.Context, slug string) (*domain.Event, error) {
	ctx, cancel := context.WithTimeout(ctx, s.contextTimeout)
	defer cancel()

	event, err := s.eventRepo.GetBySlug(ctx, slug)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return nil, domain.ErrEventNotFound
		}
		return nil, fmt.Errorf("get event: %w", err)
	}
	return event, nil
}

func (s *bulkMailService) createLog(ctx context.Context, log *domain.SendLog) error {
	ctx, cancel := context.WithTimeout(ctx, s.contextTimeout)
	defer cancel()
	return s.sendLogs.Create(ctx, log)
}

func (s *bulkMailService) finalizeLog(ctx context.Context, id string, sent int, status domain.SendStatus, errorMessage string) error {
	// The request may already be gone after a long loop; the log still has to be closed.
	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), s.contextTimeout)
	defer cancel()
	return s.sendLogs.Finalize(ctx, id, sent, status, errorMessage)
}

func (s *bulkMailService) deliver(ctx context.Context, req domain.BulkSendRequest, event *domain.Event, u *domain.UserSummary) error {
	text, htmlBody := req.Body, req.HTMLBody
	if event != nil {
		link, err := s.eventLink(event, u)
		if err != nil {
			return err
		}
		text = withLink(text, link)
		if htmlBody != "" {
			htmlBody = withHTMLLink(htmlBody, link)
		}
	}
	renderedHTML, renderedText, err := s.renderer.Render(campaignTemplate, domain.CampaignEmailData{
		Subject:  req.Subject,
		TextBody: text,
		HTMLBody: htmlBody,
	})
	if err != nil {
		return fmt.Errorf("render email: %w", err)
	}

	ctx, cancel := context.WithTimeout(ctx, s.contextTimeout)
	defer cancel()
	return s.mailer.Send(ctx, u.Email, req.Subject, renderedHTML, renderedText)
}

// eventLink builds the recipient's event page URL carrying campaign tags and a link token
// that expires when the event ends.
func (s *bulkMailService) eventLink(event *domain.Event, u *domain.UserSummary) (string, error) {
	token, err := s.codec.Issue(u.Email, u.ID, event.EndAt)
	if err != nil {
		return "", fmt.Errorf("issue link token: %w", err)
	}
	q := url.Values{}
	q.Set("utm_source", campaignUTMSource)
	q.Set("utm_medium", campaignUTMMedium)
	q.Set("utm_campaign", campaignName(event.Slug))
	q.Set("utm_content", campaignContent)
	// The token is already query-escaped.
	return s.publicBaseURL + "/events/" + url.PathEscape(event.Slug) + "?" + q.Encode() + "&token=" + token, nil
}

func campaignName(slug string) string {
	return "event_" + strings.ReplaceAll(slug, "-", "_")
}

func withLink(body, link string) string {
	if strings.Contains(body, eventLinkToken) {
		return strings.ReplaceAll(body, eventLinkToken, link)
	}
	return body + "\n\nMore info: " + link
}

func withHTMLLink(body, link string) string {
	escaped := html.EscapeString(link)
	if strings.Contains(body, eventLinkToken) {
		return strings.ReplaceAll(body, eventLinkToken, escaped)
	}
	return body + `<p>More info: <a href="` + escaped + `">` + escaped + `</a></p>`
}

func outcomeMessage(sent, total int) string {
	switch {
	case sent == total:
		return fmt.Sprintf("Emails sent successfully to %d recipients.", sent)
	case sent > 0:
		return fmt.Sprintf("Emails sent to %d of %d recipients.", sent, total)
	default:
		return fmt.Sprintf("Failed to send emails to all %d recipients.", total)
	}
}
