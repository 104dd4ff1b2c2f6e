// Package notify tells item owners about matches, in-app and on the event
// broker.
package notify

import (
	"context"
	"errors"
	"fmt"

	"github.com/rs/zerolog"

	"github.com/h-tadlaoui/nova-app/internal/events"
	"github.com/h-tadlaoui/nova-app/internal/matching"
	"github.com/h-tadlaoui/nova-app/internal/model"
)

type notificationRepo interface {
	CreateNotification(ctx context.Context, n model.Notification) (*model.Notification, error)
}

// Service writes notifications and publishes match events.
type Service struct {
	repo      notificationRepo
	publisher events.Publisher
	log       zerolog.Logger
}

// NewService creates a Service. A nil publisher drops events.
func NewService(repo notificationRepo, publisher events.Publisher, log zerolog.Logger) *Service {
	if publisher == nil {
		publisher = events.NopPublisher{}
	}
	return &Service{
		repo:      repo,
		publisher: publisher,
		log:       log.With().Str("component", "notify").Logger(),
	}
}

// MatchesCreated notifies both owners of every newly created match and
// publishes a match.created event per match. Every match is attempted;
// failures are joined.
func (s *Service) MatchesCreated(ctx context.Context, source model.Item, created []matching.CreatedMatch) error {
	var errs []error
	for _, c := range created {
		m := c.Match
		matchID := m.ID

		for _, n := range []model.Notification{
			{
				UserID:         source.OwnerID,
				Type:           model.NotificationMatchFound,
				Title:          "Potential match found",
				Message:        fmt.Sprintf("Your %s %s report may match a %s report (%d%% match).", source.Type, source.Category, c.Candidate.Type, m.Score),
				RelatedItemID:  &source.ID,
				RelatedMatchID: &matchID,
			},
			{
				UserID:         c.Candidate.OwnerID,
				Type:           model.NotificationMatchFound,
				Title:          "Potential match found",
				Message:        fmt.Sprintf("Your %s %s report may match a %s report (%d%% match).", c.Candidate.Type, c.Candidate.Category, source.Type, m.Score),
				RelatedItemID:  &c.Candidate.ID,
				RelatedMatchID: &matchID,
			},
		} {
			if _, err := s.repo.CreateNotification(ctx, n); err != nil {
				errs = append(errs, fmt.Errorf("notifying user %d of match %d: %w", n.UserID, m.ID, err))
			}
		}

		event := events.NewMatchEvent(m.ID, m.LostItemID, m.FoundItemID, m.Score, m.Status)
		if err := s.publisher.Publish(ctx, events.RouteMatchCreated, event); err != nil {
			errs = append(errs, fmt.Errorf("publishing match %d: %w", m.ID, err))
		}
	}

	if len(errs) > 0 {
		return errors.Join(errs...)
	}
	s.log.Debug().Int64("item_id", source.ID).Int("matches", len(created)).Msg("owners notified")
	return nil
}

// MatchReviewed tells the other owner that a match was confirmed or
// rejected, and publishes the matching event. reviewer owns one side of m.
func (s *Service) MatchReviewed(ctx context.Context, m model.Match, reviewerItem, otherItem model.Item) error {
	var nType, title, route string
	switch m.Status {
	case model.MatchStatusConfirmed:
		nType, title, route = model.NotificationMatchConfirmed, "Match confirmed", events.RouteMatchConfirmed
	case model.MatchStatusRejected:
		nType, title, route = model.NotificationMatchRejected, "Match rejected", events.RouteMatchRejected
	default:
		return fmt.Errorf("match %d has status %s: %w", m.ID, m.Status, model.ErrValidation)
	}

	matchID := m.ID
	var errs []error
	_, err := s.repo.CreateNotification(ctx, model.Notification{
		UserID:         otherItem.OwnerID,
		Type:           nType,
		Title:          title,
		Message:        fmt.Sprintf("The owner of the %s %s report %s the match with your %s report.", reviewerItem.Type, reviewerItem.Category, m.Status, otherItem.Type),
		RelatedItemID:  &otherItem.ID,
		RelatedMatchID: &matchID,
	})
	if err != nil {
		errs = append(errs, fmt.Errorf("notifying user %d of match %d: %w", otherItem.OwnerID, m.ID, err))
	}

	event := events.NewMatchEvent(m.ID, m.LostItemID, m.FoundItemID, m.Score, m.Status)
	if err := s.publisher.Publish(ctx, route, event); err != nil {
		errs = append(errs, fmt.Errorf("publishing match %d: %w", m.ID, err))
	}
	return errors.Join(errs...)
}
