package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/lovance/backend/internal/events"
	"github.com/lovance/backend/internal/models"
	"github.com/lovance/backend/internal/repository"

	"github.com/rs/zerolog"
)

// WidgetService builds and caches the per-user widget snapshot, the
// server-side source for the home-screen widget process. Snapshots live in
// Redis until the next UTC midnight (streaks roll over at midnight) and are
// rebuilt eagerly on every content event.
type WidgetService struct {
	content      ContentStore
	partnerships PartnershipStore
	users        UserStore
	cache        SnapshotCache
	hub          *WSHub
	logger       zerolog.Logger
}

// NewWidgetService creates a new widget service
func NewWidgetService(content ContentStore, partnerships PartnershipStore, users UserStore, cache SnapshotCache, hub *WSHub, logger zerolog.Logger) *WidgetService {
	return &WidgetService{
		content:      content,
		partnerships: partnerships,
		users:        users,
		cache:        cache,
		hub:          hub,
		logger:       logger,
	}
}

// Snapshot returns the widget snapshot for a user, serving from the cache
// and falling back to a rebuild from Postgres on miss.
func (s *WidgetService) Snapshot(ctx context.Context, userID string) (*models.WidgetSnapshot, error) {
	snap, err := s.cache.GetWidget(ctx, userID)
	if err != nil {
		// Cache trouble degrades to a rebuild, never to an error.
		s.logger.Warn().Err(err).Str("user_id", userID).Msg("Widget cache read failed")
	}
	if snap != nil {
		return snap, nil
	}
	return s.Rebuild(ctx, userID)
}

// Rebuild recomputes the snapshot from the database and stores it.
func (s *WidgetService) Rebuild(ctx context.Context, userID string) (*models.WidgetSnapshot, error) {
	snap := &models.WidgetSnapshot{}

	partnership, err := s.partnerships.GetByUserID(ctx, userID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			// Unpaired users get an empty snapshot.
			s.store(ctx, userID, snap)
			return snap, nil
		}
		return nil, fmt.Errorf("failed to get partnership: %w", err)
	}

	user, err := s.users.GetByID(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to get user: %w", err)
	}
	snap.DaysTogether = DaysTogether(user.Anniversary, partnership.CreatedAt)

	latest, err := s.content.Latest(ctx, partnership.ID)
	if err != nil && !errors.Is(err, repository.ErrNotFound) {
		return nil, fmt.Errorf("failed to get latest content: %w", err)
	}
	if latest != nil {
		unread, err := s.content.UnreadCount(ctx, partnership.ID, userID)
		if err != nil {
			return nil, fmt.Errorf("failed to count unread: %w", err)
		}
		snap.Widget = &models.WidgetData{
			ContentID:   latest.ID,
			ContentType: latest.Type,
			SenderID:    latest.SenderID,
			SenderName:  latest.SenderName,
			ImageURL:    latest.ImageURL,
			NoteText:    latest.NoteText,
			StatusEmoji: latest.StatusEmoji,
			StatusText:  latest.StatusText,
			Caption:     latest.Caption,
			UnreadCount: unread,
			CreatedAt:   latest.CreatedAt,
		}
	}

	days, err := s.content.ActivityDays(ctx, partnership.ID)
	if err != nil {
		return nil, fmt.Errorf("failed to get activity days: %w", err)
	}
	snap.Streak = ComputeStreak(days, time.Now().UTC())

	s.store(ctx, userID, snap)
	return snap, nil
}

func (s *WidgetService) store(ctx context.Context, userID string, snap *models.WidgetSnapshot) {
	if err := s.cache.SetWidget(ctx, userID, snap, untilNextUTCMidnight(time.Now().UTC())); err != nil {
		s.logger.Warn().Err(err).Str("user_id", userID).Msg("Widget cache write failed")
	}
}

// untilNextUTCMidnight bounds the cache TTL so a stale streak never
// survives a day boundary.
func untilNextUTCMidnight(now time.Time) time.Duration {
	next := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, time.UTC).AddDate(0, 0, 1)
	return next.Sub(now)
}

// ComputeStreak derives streak data from distinct activity days sorted
// newest first. The current streak counts only if the latest day is today
// or yesterday.
func ComputeStreak(days []time.Time, now time.Time) models.StreakData {
	var streak models.StreakData
	if len(days) == 0 {
		return streak
	}

	streak.LastDay = days[0].Format("2006-01-02")

	// Longest: longest run of consecutive days anywhere in the history.
	run := 1
	longest := 1
	for i := 1; i < len(days); i++ {
		if days[i-1].Sub(days[i]) == 24*time.Hour {
			run++
		} else {
			run = 1
		}
		if run > longest {
			longest = run
		}
	}
	streak.Longest = longest

	today := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, time.UTC)
	gap := today.Sub(days[0])
	if gap > 24*time.Hour {
		return streak
	}
	current := 1
	for i := 1; i < len(days); i++ {
		if days[i-1].Sub(days[i]) != 24*time.Hour {
			break
		}
		current++
	}
	streak.Current = current
	return streak
}

// EventTypes lists the events that invalidate widget snapshots.
func (s *WidgetService) EventTypes() []string {
	return []string{
		events.TypeContentCreated,
		events.TypeContentRead,
		events.TypeContentDeleted,
		events.TypePartnerConnected,
		events.TypePartnerDisconnected,
	}
}

// Handle rebuilds both partners' snapshots after a content or pairing
// change and pushes a widget_update frame over the realtime hub.
func (s *WidgetService) Handle(ctx context.Context, event events.Event) error {
	var userIDs [2]string
	switch e := event.(type) {
	case events.ContentCreated:
		userIDs = [2]string{e.Content.SenderID, e.ReceiverID}
	case events.ContentRead:
		userIDs = [2]string{e.ReaderID, e.SenderID}
	case events.ContentDeleted:
		userIDs = [2]string{e.UserAID, e.UserBID}
	case events.PartnerConnected:
		userIDs = [2]string{e.Partnership.UserAID, e.Partnership.UserBID}
	case events.PartnerDisconnected:
		userIDs = [2]string{e.UserAID, e.UserBID}
	default:
		return nil
	}

	for _, userID := range userIDs {
		if userID == "" {
			continue
		}
		snap, err := s.Rebuild(ctx, userID)
		if err != nil {
			s.logger.Error().Err(err).Str("user_id", userID).Msg("Widget rebuild failed")
			continue
		}
		if s.hub.IsOnline(userID) {
			if err := s.hub.Send(userID, WSMessage{Type: MsgWidgetUpdate, Data: snap}); err != nil {
				s.logger.Debug().Err(err).Str("user_id", userID).Msg("Widget update not delivered")
			}
		}
	}
	return nil
}
