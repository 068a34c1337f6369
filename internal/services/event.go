package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"eventcrm/internal/domain"
)

type eventService struct {
	eventRepo         domain.EventRepository
	participationRepo domain.ParticipationRepository
	contextTimeout    time.Duration
}

func NewEventService(eventRepo domain.EventRepository, participationRepo domain.ParticipationRepository, timeout time.Duration) domain.EventService {
	return &eventService{
		eventRepo:         eventRepo,
		participationRepo: participationRepo,
		contextTimeout:    timeout,
	}
}

func (s *eventService) CreateEvent(ctx context.Context, event *domain.Event) error {
	ctx, cancel := context.WithTimeout(ctx, s.contextTimeout)
	defer cancel()

	if event.OwnerID == "" {
		return domain.NewValidationError("owner_id", "event owner is required")
	}
	event.Slug = strings.ToLower(strings.TrimSpace(event.Slug))
	event.Title = strings.TrimSpace(event.Title)
	if err := event.Validate(); err != nil {
		return err
	}
	if err := s.eventRepo.Create(ctx, event); err != nil {
		if errors.Is(err, domain.ErrConflict) {
			return err
		}
		return fmt.Errorf("create event: %w", err)
	}
	return nil
}

func (s *eventService) GetAggregate(ctx context.Context, slug string) (*domain.EventAggregate, error) {
	ctx, cancel := context.WithTimeout(ctx, s.contextTimeout)
	defer cancel()

	event, err := s.eventRepo.GetBySlug(ctx, slug)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return nil, domain.ErrEventNotFound
		}
		return nil, fmt.Errorf("get event: %w", err)
	}
	return s.aggregate(ctx, event)
}

func (s *eventService) aggregate(ctx context.Context, event *domain.Event) (*domain.EventAggregate, error) {
	hosts, err := s.participationRepo.ListHosts(ctx, event.ID)
	if err != nil {
		return nil, fmt.Errorf("list hosts: %w", err)
	}
	attendees, err := s.participationRepo.CountByRole(ctx, event.ID, domain.RoleAttendee)
	if err != nil {
		return nil, fmt.Errorf("count attendees: %w", err)
	}
	agg := &domain.EventAggregate{
		Event:         event,
		Hosts:         hosts,
		HostCount:     len(hosts),
		AttendeeCount: attendees,
	}
	if event.MaxCapacity != nil {
		left := *event.MaxCapacity - attendees
		if left < 0 {
			left = 0
		}
		agg.SpotsLeft = &left
	}
	return agg, nil
}

func (s *eventService) DeleteEvent(ctx context.Context, slug string) error {
	ctx, cancel := context.WithTimeout(ctx, s.contextTimeout)
	defer cancel()

	if err := s.eventRepo.DeleteBySlug(ctx, slug); err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return domain.ErrEventNotFound
		}
		return fmt.Errorf("delete event: %w", err)
	}
	return nil
}
