package services

import (
	"context"
	"fmt"
	"time"

	"eventcrm/internal/domain"
)

type segmentService struct {
	userRepo       domain.UserRepository
	contextTimeout time.Duration
}

func NewSegmentService(userRepo domain.UserRepository, timeout time.Duration) domain.SegmentService {
	return &segmentService{userRepo: userRepo, contextTimeout: timeout}
}

func (s *segmentService) Filter(ctx context.Context, criteria domain.SegmentCriteria, order domain.SortOrder, params domain.PaginationParams) ([]*domain.UserSummary, int, error) {
	ctx, cancel := context.WithTimeout(ctx, s.contextTimeout)
	defer cancel()

	criteria.Normalize()
	if err := criteria.Validate(); err != nil {
		return nil, 0, err
	}
	order = domain.ParseSortOrder(order.String(), domain.UserSortFields, domain.DefaultUserSort)
	users, total, err := s.userRepo.ListSegment(ctx, criteria, order, params)
	if err != nil {
		return nil, 0, fmt.Errorf("list segment: %w", err)
	}
	return users, total, nil
}

func (s *segmentService) All(ctx context.Context, criteria domain.SegmentCriteria) ([]*domain.UserSummary, error) {
	users, _, err := s.Filter(ctx, criteria, domain.DefaultUserSort, domain.PaginationParams{})
	return users, err
}
