package services

import (
	"context"
	"testing"
	"time"

	"github.com/lovance/backend/internal/models"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func day(t *testing.T, s string) time.Time {
	t.Helper()
	d, err := time.ParseInLocation("2006-01-02", s, time.UTC)
	require.NoError(t, err)
	return d
}

func TestComputeStreak(t *testing.T) {
	now := day(t, "2026-03-10").Add(15 * time.Hour)

	t.Run("empty history", func(t *testing.T) {
		streak := ComputeStreak(nil, now)
		assert.Zero(t, streak.Current)
		assert.Zero(t, streak.Longest)
		assert.Empty(t, streak.LastDay)
	})

	t.Run("active run through today", func(t *testing.T) {
		days := []time.Time{day(t, "2026-03-10"), day(t, "2026-03-09"), day(t, "2026-03-08")}
		streak := ComputeStreak(days, now)
		assert.Equal(t, 3, streak.Current)
		assert.Equal(t, 3, streak.Longest)
		assert.Equal(t, "2026-03-10", streak.LastDay)
	})

	t.Run("run ending yesterday still counts", func(t *testing.T) {
		days := []time.Time{day(t, "2026-03-09"), day(t, "2026-03-08")}
		streak := ComputeStreak(days, now)
		assert.Equal(t, 2, streak.Current)
	})

	t.Run("gap breaks the current streak", func(t *testing.T) {
		days := []time.Time{day(t, "2026-03-07"), day(t, "2026-03-06"), day(t, "2026-03-05")}
		streak := ComputeStreak(days, now)
		assert.Zero(t, streak.Current)
		assert.Equal(t, 3, streak.Longest)
		assert.Equal(t, "2026-03-07", streak.LastDay)
	})

	t.Run("longest run is found in older history", func(t *testing.T) {
		days := []time.Time{
			day(t, "2026-03-10"),
			day(t, "2026-02-20"), day(t, "2026-02-19"), day(t, "2026-02-18"), day(t, "2026-02-17"),
		}
		streak := ComputeStreak(days, now)
		assert.Equal(t, 1, streak.Current)
		assert.Equal(t, 4, streak.Longest)
	})
}

func TestUntilNextUTCMidnight(t *testing.T) {
	now := day(t, "2026-03-10").Add(23*time.Hour + 30*time.Minute)
	assert.Equal(t, 30*time.Minute, untilNextUTCMidnight(now))

	t.Run("never zero", func(t *testing.T) {
		assert.Equal(t, 24*time.Hour, untilNextUTCMidnight(day(t, "2026-03-10")))
	})
}

func newWidgetFixture(t *testing.T) (*WidgetService, *contentFixture, *fakeSnapshotCache) {
	t.Helper()
	f := newContentFixture(t)
	cache := newFakeSnapshotCache()
	svc := NewWidgetService(f.content, f.partnerships, f.users, cache, NewWSHub(), zerolog.Nop())
	return svc, f, cache
}

func TestSnapshotRebuild(t *testing.T) {
	widget, f, cache := newWidgetFixture(t)

	// Alice sends a note; Bob has not read it.
	_, err := f.svc.Create(context.Background(), f.alice.ID, CreateContentParams{
		Type:     models.ContentTypeNote,
		NoteText: strptr("good morning"),
	})
	require.NoError(t, err)

	snap, err := widget.Snapshot(context.Background(), f.bob.ID)
	require.NoError(t, err)
	require.NotNil(t, snap.Widget)

	assert.Equal(t, models.ContentTypeNote, snap.Widget.ContentType)
	assert.Equal(t, "Alice", snap.Widget.SenderName)
	assert.Equal(t, 1, snap.Widget.UnreadCount)
	assert.Equal(t, 1, snap.Streak.Current)

	// Second read is served from the cache.
	cached, err := cache.GetWidget(context.Background(), f.bob.ID)
	require.NoError(t, err)
	require.NotNil(t, cached)

	again, err := widget.Snapshot(context.Background(), f.bob.ID)
	require.NoError(t, err)
	assert.Equal(t, snap.Widget.ContentID, again.Widget.ContentID)
}

func TestSnapshotUnpairedUser(t *testing.T) {
	widget, f, _ := newWidgetFixture(t)
	carol := f.users.add("Carol", "CCCCCC")

	snap, err := widget.Snapshot(context.Background(), carol.ID)
	require.NoError(t, err)
	assert.Nil(t, snap.Widget)
	assert.Zero(t, snap.Streak.Current)
	assert.Zero(t, snap.DaysTogether)
}

func TestSnapshotEmptyPartnership(t *testing.T) {
	widget, f, _ := newWidgetFixture(t)

	snap, err := widget.Snapshot(context.Background(), f.alice.ID)
	require.NoError(t, err)
	assert.Nil(t, snap.Widget)
	assert.Zero(t, snap.Streak.Current)
}

func TestWidgetEventRebuildsBothPartners(t *testing.T) {
	widget, f, cache := newWidgetFixture(t)

	content, err := f.svc.Create(context.Background(), f.alice.ID, CreateContentParams{
		Type:     models.ContentTypeNote,
		NoteText: strptr("ping"),
	})
	require.NoError(t, err)

	// The content service published on a recorder; replay into the projector.
	for _, ev := range f.bus.byType("content.created") {
		require.NoError(t, widget.Handle(context.Background(), ev))
	}

	for _, userID := range []string{f.alice.ID, f.bob.ID} {
		snap, err := cache.GetWidget(context.Background(), userID)
		require.NoError(t, err)
		require.NotNil(t, snap, "no snapshot for %s", userID)
		assert.Equal(t, content.ID, snap.Widget.ContentID)
	}

	// The sender has nothing unread, the receiver has one.
	aliceSnap, _ := cache.GetWidget(context.Background(), f.alice.ID)
	bobSnap, _ := cache.GetWidget(context.Background(), f.bob.ID)
	assert.Zero(t, aliceSnap.Widget.UnreadCount)
	assert.Equal(t, 1, bobSnap.Widget.UnreadCount)
}
