package services

import (
	"context"
	"testing"
	"time"

	"github.com/lovance/backend/internal/events"
	"github.com/lovance/backend/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type contentFixture struct {
	svc          *ContentService
	users        *fakeUserStore
	partnerships *fakePartnershipStore
	content      *fakeContentStore
	bus          *busRecorder
	alice        *models.User
	bob          *models.User
}

func newContentFixture(t *testing.T) *contentFixture {
	t.Helper()
	users := newFakeUserStore()
	partnerships := newFakePartnershipStore()
	content := newFakeContentStore()
	bus := &busRecorder{}

	alice := users.add("Alice", "AAAAAA")
	bob := users.add("Bob", "BBBBBB")
	_, err := partnerships.Connect(context.Background(), alice.ID, bob.ID)
	require.NoError(t, err)

	return &contentFixture{
		svc:          NewContentService(content, partnerships, users, fakeMediaStore{}, bus),
		users:        users,
		partnerships: partnerships,
		content:      content,
		bus:          bus,
		alice:        alice,
		bob:          bob,
	}
}

func TestValidateContent(t *testing.T) {
	cases := []struct {
		name    string
		params  CreateContentParams
		wantErr bool
	}{
		{"photo with image", CreateContentParams{Type: models.ContentTypePhoto, ImageURL: strptr("https://cdn.test/a.jpg")}, false},
		{"photo without image", CreateContentParams{Type: models.ContentTypePhoto}, true},
		{"note with text", CreateContentParams{Type: models.ContentTypeNote, NoteText: strptr("hi")}, false},
		{"note without text", CreateContentParams{Type: models.ContentTypeNote}, true},
		{"drawing with data", CreateContentParams{Type: models.ContentTypeDrawing, DrawingData: strptr("svg...")}, false},
		{"drawing without data", CreateContentParams{Type: models.ContentTypeDrawing}, true},
		{"status with emoji", CreateContentParams{Type: models.ContentTypeStatus, StatusEmoji: strptr("🥰")}, false},
		{"status without emoji", CreateContentParams{Type: models.ContentTypeStatus, StatusText: strptr("missing you")}, true},
		{"unknown type", CreateContentParams{Type: "video"}, true},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			err := validateContent(tc.params)
			if tc.wantErr {
				assert.ErrorIs(t, err, ErrInvalidContent)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestCreateContent(t *testing.T) {
	f := newContentFixture(t)

	content, err := f.svc.Create(context.Background(), f.alice.ID, CreateContentParams{
		Type:     models.ContentTypeNote,
		NoteText: strptr("thinking of you"),
	})
	require.NoError(t, err)

	assert.Equal(t, f.alice.ID, content.SenderID)
	assert.Equal(t, "Alice", content.SenderName)
	assert.False(t, content.Read)

	published := f.bus.byType(events.TypeContentCreated)
	require.Len(t, published, 1)
	ev := published[0].(events.ContentCreated)
	assert.Equal(t, f.bob.ID, ev.ReceiverID)
	assert.Equal(t, content.ID, ev.Content.ID)
}

func TestCreateContentWithoutPartner(t *testing.T) {
	f := newContentFixture(t)
	carol := f.users.add("Carol", "CCCCCC")

	_, err := f.svc.Create(context.Background(), carol.ID, CreateContentParams{
		Type:     models.ContentTypeNote,
		NoteText: strptr("hello?"),
	})
	assert.ErrorIs(t, err, ErrNoPartner)
}

func TestListClampsPagination(t *testing.T) {
	f := newContentFixture(t)
	for i := 0; i < 3; i++ {
		_, err := f.svc.Create(context.Background(), f.alice.ID, CreateContentParams{
			Type:     models.ContentTypeNote,
			NoteText: strptr("note"),
		})
		require.NoError(t, err)
	}

	t.Run("zero limit defaults", func(t *testing.T) {
		items, total, err := f.svc.List(context.Background(), f.bob.ID, 0, 0)
		require.NoError(t, err)
		assert.Equal(t, 3, total)
		assert.Len(t, items, 3)
	})

	t.Run("limit clamps to max", func(t *testing.T) {
		_, total, err := f.svc.List(context.Background(), f.bob.ID, 10000, 0)
		require.NoError(t, err)
		assert.Equal(t, 3, total)
	})

	t.Run("negative offset resets", func(t *testing.T) {
		items, _, err := f.svc.List(context.Background(), f.bob.ID, 2, -5)
		require.NoError(t, err)
		assert.Len(t, items, 2)
	})
}

func TestMarkRead(t *testing.T) {
	f := newContentFixture(t)
	content, err := f.svc.Create(context.Background(), f.alice.ID, CreateContentParams{
		Type:     models.ContentTypeNote,
		NoteText: strptr("read me"),
	})
	require.NoError(t, err)

	t.Run("sender cannot read own content", func(t *testing.T) {
		assert.ErrorIs(t, f.svc.MarkRead(context.Background(), f.alice.ID, content.ID), ErrForbidden)
	})

	t.Run("receiver reads once", func(t *testing.T) {
		require.NoError(t, f.svc.MarkRead(context.Background(), f.bob.ID, content.ID))
		assert.Len(t, f.bus.byType(events.TypeContentRead), 1)
	})

	t.Run("repeat is idempotent and silent", func(t *testing.T) {
		require.NoError(t, f.svc.MarkRead(context.Background(), f.bob.ID, content.ID))
		assert.Len(t, f.bus.byType(events.TypeContentRead), 1)
	})

	t.Run("outsider is rejected", func(t *testing.T) {
		carol := f.users.add("Carol", "CCCCCC")
		dave := f.users.add("Dave", "DDDDDD")
		_, err := f.partnerships.Connect(context.Background(), carol.ID, dave.ID)
		require.NoError(t, err)
		assert.ErrorIs(t, f.svc.MarkRead(context.Background(), carol.ID, content.ID), ErrForbidden)
	})
}

func TestDeleteContent(t *testing.T) {
	f := newContentFixture(t)
	content, err := f.svc.Create(context.Background(), f.alice.ID, CreateContentParams{
		Type:     models.ContentTypeNote,
		NoteText: strptr("delete me"),
	})
	require.NoError(t, err)

	t.Run("receiver cannot delete", func(t *testing.T) {
		assert.ErrorIs(t, f.svc.Delete(context.Background(), f.bob.ID, content.ID), ErrForbidden)
	})

	t.Run("sender deletes", func(t *testing.T) {
		require.NoError(t, f.svc.Delete(context.Background(), f.alice.ID, content.ID))
		_, err := f.content.GetByID(context.Background(), content.ID)
		assert.Error(t, err)
		assert.Len(t, f.bus.byType(events.TypeContentDeleted), 1)
	})
}

func TestUploadURL(t *testing.T) {
	f := newContentFixture(t)

	upload, err := f.svc.UploadURL(context.Background(), f.alice.ID, "image/jpeg")
	require.NoError(t, err)
	assert.NotEmpty(t, upload.MediaID)
	assert.Contains(t, upload.UploadURL, "images/"+upload.MediaID+".jpg")
	assert.Contains(t, upload.PublicURL, "images/"+upload.MediaID+".jpg")

	t.Run("requires a partner", func(t *testing.T) {
		carol := f.users.add("Carol", "CCCCCC")
		_, err := f.svc.UploadURL(context.Background(), carol.ID, "image/jpeg")
		assert.ErrorIs(t, err, ErrNoPartner)
	})
}

func TestMonthRollup(t *testing.T) {
	f := newContentFixture(t)

	_, err := f.svc.Create(context.Background(), f.alice.ID, CreateContentParams{
		Type:     models.ContentTypePhoto,
		ImageURL: strptr("https://cdn.test/images/a.jpg"),
	})
	require.NoError(t, err)
	_, err = f.svc.Create(context.Background(), f.bob.ID, CreateContentParams{
		Type:     models.ContentTypeNote,
		NoteText: strptr("note"),
	})
	require.NoError(t, err)

	month := time.Now().UTC().Format("2006-01")

	t.Run("explicit month", func(t *testing.T) {
		rollup, err := f.svc.MonthRollup(context.Background(), f.alice.ID, month)
		require.NoError(t, err)
		assert.Equal(t, month, rollup.Month)
		assert.Len(t, rollup.PhotoURLs, 1)
		assert.Equal(t, 1, rollup.NoteCount)
	})

	t.Run("empty month defaults to current", func(t *testing.T) {
		rollup, err := f.svc.MonthRollup(context.Background(), f.alice.ID, "")
		require.NoError(t, err)
		assert.Equal(t, month, rollup.Month)
	})

	t.Run("malformed month rejected", func(t *testing.T) {
		_, err := f.svc.MonthRollup(context.Background(), f.alice.ID, "June 2025")
		assert.ErrorIs(t, err, ErrInvalidContent)
	})

	t.Run("months list", func(t *testing.T) {
		months, err := f.svc.Months(context.Background(), f.alice.ID)
		require.NoError(t, err)
		assert.Equal(t, []string{month}, months)
	})
}
