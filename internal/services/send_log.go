package services

import (
	"context"
	"fmt"
	"time"

	"eventcrm/internal/domain"
)

type sendLogService struct {
	repo           domain.SendLogRepository
	contextTimeout time.Duration
}

func NewSendLogService(repo domain.SendLogRepository, timeout time.Duration) domain.SendLogService {
	return &sendLogService{repo: repo, contextTimeout: timeout}
}

func (s *sendLogService) List(ctx context.Context, q domain.SendLogQuery, order domain.SortOrder, params domain.PaginationParams) ([]*domain.SendLog, int, error) {
	ctx, cancel := context.WithTimeout(ctx, s.contextTimeout)
	defer cancel()

	if q.Status != "" && !q.Status.Valid() {
		return nil, 0, domain.NewValidationError("status", "unknown status")
	}
	logs, total, err := s.repo.List(ctx, q, order, params)
	if err != nil {
		return nil, 0, fmt.Errorf("list send logs: %w", err)
	}
	return logs, total, nil
}
