package services

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"eventcrm/internal/domain"
)

type attributionService struct {
	repo           domain.AttributionRepository
	logger         *slog.Logger
	contextTimeout time.Duration
}

func NewAttributionService(repo domain.AttributionRepository, logger *slog.Logger, timeout time.Duration) domain.AttributionService {
	return &attributionService{repo: repo, logger: logger, contextTimeout: timeout}
}

func (s *attributionService) Record(ctx context.Context, userID, eventID string, changeType domain.ChangeType, utm domain.UTMParams) domain.RecordOutcome {
	if changeType == domain.ChangeNone || changeType == "" {
		return domain.RecordOutcome{Message: "No role change to attribute."}
	}
	if utm.IsEmpty() {
		return domain.RecordOutcome{Message: "No attribution parameters supplied."}
	}

	ctx, cancel := context.WithTimeout(ctx, s.contextTimeout)
	defer cancel()

	utm = utm.Trimmed()
	rec := &domain.AttributionRecord{
		UserID:         &userID,
		EventID:        &eventID,
		UTMSource:      utm.Source,
		UTMMedium:      utm.Medium,
		UTMCampaign:    utm.Campaign,
		UTMTerm:        utm.Term,
		UTMContent:     utm.Content,
		SessionID:      utm.SessionID,
		RoleChangeType: changeType,
	}
	if err := s.repo.Create(ctx, rec); err != nil {
		s.logger.WarnContext(ctx, "attribution not recorded",
			"user_id", userID, "event_id", eventID, "change_type", changeType, "err", err)
		return domain.RecordOutcome{Message: "Your change was saved, but campaign tracking could not be recorded."}
	}
	return domain.RecordOutcome{Recorded: true, Message: "Campaign tracking recorded."}
}

func (s *attributionService) List(ctx context.Context, q domain.AttributionQuery, order domain.SortOrder, params domain.PaginationParams) ([]*domain.AttributionRecord, int, error) {
	ctx, cancel := context.WithTimeout(ctx, s.contextTimeout)
	defer cancel()

	records, total, err := s.repo.List(ctx, q, order, params)
	if err != nil {
		return nil, 0, fmt.Errorf("list attributions: %w", err)
	}
	return records, total, nil
}
