package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"eventcrm/internal/domain"
)

type participationService struct {
	eventRepo         domain.EventRepository
	participationRepo domain.ParticipationRepository
	userRepo          domain.UserRepository
	codec             domain.LinkTokenCodec
	attribution       domain.AttributionService
	events            domain.EventService
	metrics           *Metrics
	logger            *slog.Logger
	contextTimeout    time.Duration
}

// ParticipationDeps groups the collaborators of the participation service.
type ParticipationDeps struct {
	EventRepo         domain.EventRepository
	ParticipationRepo domain.ParticipationRepository
	UserRepo          domain.UserRepository
	Codec             domain.LinkTokenCodec
	Attribution       domain.AttributionService
	Events            domain.EventService
	Metrics           *Metrics
	Logger            *slog.Logger
}

func NewParticipationService(deps ParticipationDeps, timeout time.Duration) domain.ParticipationService {
	return &participationService{
		eventRepo:         deps.EventRepo,
		participationRepo: deps.ParticipationRepo,
		userRepo:          deps.UserRepo,
		codec:             deps.Codec,
		attribution:       deps.Attribution,
		events:            deps.Events,
		metrics:           deps.Metrics,
		logger:            deps.Logger,
		contextTimeout:    timeout,
	}
}

func (s *participationService) Transition(ctx context.Context, event *domain.Event, userID string, wantHost, wantAttendee bool) (*domain.TransitionResult, error) {
	ctx, cancel := context.WithTimeout(ctx, s.contextTimeout)
	defer cancel()

	desired, err := domain.DesiredRole(wantHost, wantAttendee)
	if err != nil {
		current, rerr := s.participationRepo.GetRole(ctx, event.ID, userID)
		if rerr != nil {
			return nil, fmt.Errorf("get role: %w", rerr)
		}
		s.metrics.roleTransition("rejected")
		return domain.NewTransitionResult(current, domain.ChangeNone, false, "You cannot host and attend the same event."), err
	}

	var result *domain.TransitionResult
	err = s.participationRepo.WithEventLock(ctx, event.ID, func(ctx context.Context, tx domain.ParticipationTx) error {
		current := domain.RoleNone
		p, err := tx.Get(ctx, event.ID, userID)
		switch {
		case err == nil:
			current = p.Role
		case errors.Is(err, domain.ErrNotFound):
		default:
			return fmt.Errorf("get participation: %w", err)
		}

		plan := domain.PlanTransition(current, desired)
		if plan.ChangeType == domain.ChangeNone {
			result = domain.NewTransitionResult(current, domain.ChangeNone, false, unchangedMessage(current, event.Title))
			return nil
		}
		if plan.Remove {
			if _, err := tx.Delete(ctx, event.ID, userID); err != nil {
				return fmt.Errorf("remove participation: %w", err)
			}
		}
		if plan.NeedsCapacityCheck() && event.MaxCapacity != nil {
			attendees, err := tx.CountByRole(ctx, event.ID, domain.RoleAttendee)
			if err != nil {
				return fmt.Errorf("count attendees: %w", err)
			}
			if attendees >= *event.MaxCapacity {
				result = domain.NewTransitionResult(current, domain.ChangeNone, false,
					fmt.Sprintf("Sorry, %s has reached its maximum capacity.", event.Title))
				return domain.ErrCapacityExceeded
			}
		}
		if plan.Insert != domain.RoleNone {
			if err := tx.Insert(ctx, &domain.Participation{UserID: userID, EventID: event.ID, Role: plan.Insert}); err != nil {
				return err
			}
		}
		result = domain.NewTransitionResult(desired, plan.ChangeType, true, appliedMessage(plan.ChangeType, event.Title))
		return nil
	})
	if err != nil {
		if errors.Is(err, domain.ErrCapacityExceeded) {
			s.metrics.roleTransition("rejected")
			return result, err
		}
		if errors.Is(err, domain.ErrConflict) {
			return nil, fmt.Errorf("%w: your participation was changed by another request, please retry", domain.ErrConflict)
		}
		return nil, fmt.Errorf("transition role: %w", err)
	}
	s.metrics.roleTransition(result.ChangeType)
	return result, nil
}

func (s *participationService) ChangeRoleWithToken(ctx context.Context, req domain.RoleChangeRequest) (*domain.RoleChangeResponse, error) {
	ctx, cancel := context.WithTimeout(ctx, s.contextTimeout)
	defer cancel()

	claims, err := s.codec.Redeem(req.Token)
	if err != nil {
		return nil, domain.ErrInvalidToken
	}
	user, err := s.userRepo.GetByID(ctx, claims.UserID)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return nil, domain.ErrInvalidToken
		}
		return nil, fmt.Errorf("get user: %w", err)
	}
	if !strings.EqualFold(user.Email, claims.Email) {
		return nil, domain.ErrInvalidToken
	}

	event, err := s.eventRepo.GetBySlug(ctx, req.EventSlug)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return nil, domain.ErrEventNotFound
		}
		return nil, fmt.Errorf("get event: %w", err)
	}

	result, terr := s.Transition(ctx, event, user.ID, req.IsHost, req.IsAttend)
	if result == nil {
		return nil, terr
	}
	if terr == nil && result.Applied && !req.UTM.IsEmpty() {
		outcome := s.attribution.Record(ctx, user.ID, event.ID, result.ChangeType, req.UTM)
		if !outcome.Recorded {
			result.Messages = append(result.Messages, outcome.Message)
		}
	}

	agg, err := s.events.GetAggregate(ctx, event.Slug)
	if err != nil {
		s.logger.ErrorContext(ctx, "event aggregate unavailable after role change", "event", event.Slug, "err", err)
		agg = &domain.EventAggregate{Event: event, Hosts: []*domain.HostSummary{}}
	}
	return &domain.RoleChangeResponse{
		Messages:    result.Messages,
		IsHosting:   result.FinalIsHosting,
		IsAttending: result.FinalIsAttending,
		ChangeType:  result.ChangeType,
		Applied:     result.Applied,
		Event:       agg,
	}, terr
}

func appliedMessage(change domain.ChangeType, title string) string {
	switch change {
	case domain.ChangeHost:
		return fmt.Sprintf("You are now hosting %s.", title)
	case domain.ChangeAttendee:
		return fmt.Sprintf("You are registered to attend %s.", title)
	default:
		return fmt.Sprintf("You are no longer participating in %s.", title)
	}
}

func unchangedMessage(role domain.Role, title string) string {
	switch role {
	case domain.RoleHost:
		return fmt.Sprintf("You are already hosting %s.", title)
	case domain.RoleAttendee:
		return fmt.Sprintf("You are already registered to attend %s.", title)
	default:
		return fmt.Sprintf("You are not participating in %s.", title)
	}
}
