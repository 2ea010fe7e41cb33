package services

import (
	"context"
	"testing"
	"time"

	"github.com/lovance/backend/internal/events"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newPartnerFixture() (*PartnerService, *fakeUserStore, *fakePartnershipStore, *busRecorder) {
	users := newFakeUserStore()
	partnerships := newFakePartnershipStore()
	bus := &busRecorder{}
	svc := NewPartnerService(partnerships, users, bus, NewWSHub())
	return svc, users, partnerships, bus
}

func TestConnect(t *testing.T) {
	svc, users, _, bus := newPartnerFixture()
	alice := users.add("Alice", "AAAAAA")
	bob := users.add("Bob", "BBBBBB")

	partnership, err := svc.Connect(context.Background(), alice.ID, "BBBBBB")
	require.NoError(t, err)

	assert.True(t, partnership.Has(alice.ID))
	assert.True(t, partnership.Has(bob.ID))
	assert.Less(t, partnership.UserAID, partnership.UserBID)

	published := bus.byType(events.TypePartnerConnected)
	require.Len(t, published, 1)
	ev := published[0].(events.PartnerConnected)
	assert.Equal(t, alice.ID, ev.Initiator.ID)
	assert.Equal(t, bob.ID, ev.Partner.ID)
}

func TestConnectCodeNotFound(t *testing.T) {
	svc, users, _, _ := newPartnerFixture()
	alice := users.add("Alice", "AAAAAA")

	_, err := svc.Connect(context.Background(), alice.ID, "ZZZZZZ")
	assert.ErrorIs(t, err, ErrCodeNotFound)

	t.Run("wrong length short-circuits", func(t *testing.T) {
		_, err := svc.Connect(context.Background(), alice.ID, "ABC")
		assert.ErrorIs(t, err, ErrCodeNotFound)
	})
}

func TestConnectSelfPair(t *testing.T) {
	svc, users, _, _ := newPartnerFixture()
	alice := users.add("Alice", "AAAAAA")

	_, err := svc.Connect(context.Background(), alice.ID, "AAAAAA")
	assert.ErrorIs(t, err, ErrSelfPair)
}

func TestConnectAlreadyPaired(t *testing.T) {
	svc, users, _, _ := newPartnerFixture()
	alice := users.add("Alice", "AAAAAA")
	bob := users.add("Bob", "BBBBBB")
	carol := users.add("Carol", "CCCCCC")

	_, err := svc.Connect(context.Background(), alice.ID, "BBBBBB")
	require.NoError(t, err)

	// Carol connecting to Bob hits Bob's existing partnership.
	_, err = svc.Connect(context.Background(), carol.ID, "BBBBBB")
	assert.ErrorIs(t, err, ErrAlreadyPaired)

	// Alice connecting again hits her own.
	_, err = svc.Connect(context.Background(), alice.ID, "CCCCCC")
	assert.ErrorIs(t, err, ErrAlreadyPaired)

	_ = bob
}

func TestPartner(t *testing.T) {
	svc, users, _, _ := newPartnerFixture()
	alice := users.add("Alice", "AAAAAA")
	bob := users.add("Bob", "BBBBBB")

	_, err := svc.Partner(context.Background(), alice.ID)
	assert.ErrorIs(t, err, ErrNoPartner)

	_, err = svc.Connect(context.Background(), alice.ID, "BBBBBB")
	require.NoError(t, err)

	info, err := svc.Partner(context.Background(), alice.ID)
	require.NoError(t, err)
	assert.Equal(t, bob.ID, info.Partner.ID)
	assert.False(t, info.Online)
	assert.False(t, info.ConnectedAt.IsZero())
}

func TestDisconnect(t *testing.T) {
	svc, users, partnerships, bus := newPartnerFixture()
	alice := users.add("Alice", "AAAAAA")
	users.add("Bob", "BBBBBB")

	_, err := svc.Connect(context.Background(), alice.ID, "BBBBBB")
	require.NoError(t, err)

	require.NoError(t, svc.Disconnect(context.Background(), alice.ID))

	_, err = partnerships.GetByUserID(context.Background(), alice.ID)
	assert.Error(t, err)

	require.Len(t, bus.byType(events.TypePartnerDisconnected), 1)

	t.Run("second disconnect reports no partner", func(t *testing.T) {
		assert.ErrorIs(t, svc.Disconnect(context.Background(), alice.ID), ErrNoPartner)
	})
}

func TestDaysTogether(t *testing.T) {
	connected := time.Now().Add(-10 * 24 * time.Hour)

	assert.Equal(t, 10, DaysTogether(nil, connected))

	anniversary := time.Now().Add(-100 * 24 * time.Hour)
	assert.Equal(t, 100, DaysTogether(&anniversary, connected))

	t.Run("future anniversary clamps to zero", func(t *testing.T) {
		future := time.Now().Add(48 * time.Hour)
		assert.Equal(t, 0, DaysTogether(&future, connected))
	})
}
