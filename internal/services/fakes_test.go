package services

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/lovance/backend/internal/events"
	"github.com/lovance/backend/internal/models"
	"github.com/lovance/backend/internal/repository"

	"github.com/google/uuid"
)

type fakeUserStore struct {
	mu    sync.Mutex
	users map[string]*models.User
}

func newFakeUserStore() *fakeUserStore {
	return &fakeUserStore{users: make(map[string]*models.User)}
}

func (f *fakeUserStore) Create(_ context.Context, user *models.User) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.users[user.ID] = user
	return nil
}

func (f *fakeUserStore) GetByID(_ context.Context, id string) (*models.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if u, ok := f.users[id]; ok {
		return u, nil
	}
	return nil, repository.ErrNotFound
}

func (f *fakeUserStore) GetByCode(_ context.Context, code string) (*models.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, u := range f.users {
		if u.Code == code {
			return u, nil
		}
	}
	return nil, repository.ErrNotFound
}

func (f *fakeUserStore) CodeExists(_ context.Context, code string) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, u := range f.users {
		if u.Code == code {
			return true, nil
		}
	}
	return false, nil
}

func (f *fakeUserStore) UpdateProfile(_ context.Context, userID string, name *string, anniversary *time.Time, onboarded *bool) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	u, ok := f.users[userID]
	if !ok {
		return repository.ErrNotFound
	}
	if name != nil {
		u.Name = *name
	}
	if anniversary != nil {
		u.Anniversary = anniversary
	}
	if onboarded != nil {
		u.Onboarded = *onboarded
	}
	return nil
}

func (f *fakeUserStore) SetProfileImage(_ context.Context, userID, url string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	u, ok := f.users[userID]
	if !ok {
		return repository.ErrNotFound
	}
	u.ProfileImageURL = &url
	return nil
}

func (f *fakeUserStore) add(name, code string) *models.User {
	u := &models.User{
		ID:        uuid.New().String(),
		Name:      name,
		Code:      code,
		CreatedAt: time.Now(),
	}
	f.users[u.ID] = u
	return u
}

type fakePartnershipStore struct {
	mu           sync.Mutex
	partnerships map[string]*models.Partnership
}

func newFakePartnershipStore() *fakePartnershipStore {
	return &fakePartnershipStore{partnerships: make(map[string]*models.Partnership)}
}

func (f *fakePartnershipStore) Connect(_ context.Context, userAID, userBID string) (*models.Partnership, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, p := range f.partnerships {
		if p.Has(userAID) || p.Has(userBID) {
			return nil, repository.ErrAlreadyPaired
		}
	}
	if userAID > userBID {
		userAID, userBID = userBID, userAID
	}
	p := &models.Partnership{
		ID:        uuid.New().String(),
		UserAID:   userAID,
		UserBID:   userBID,
		CreatedAt: time.Now(),
	}
	f.partnerships[p.ID] = p
	return p, nil
}

func (f *fakePartnershipStore) GetByID(_ context.Context, id string) (*models.Partnership, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if p, ok := f.partnerships[id]; ok {
		return p, nil
	}
	return nil, repository.ErrNotFound
}

func (f *fakePartnershipStore) GetByUserID(_ context.Context, userID string) (*models.Partnership, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, p := range f.partnerships {
		if p.Has(userID) {
			return p, nil
		}
	}
	return nil, repository.ErrNotFound
}

func (f *fakePartnershipStore) Dissolve(_ context.Context, id string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, ok := f.partnerships[id]; !ok {
		return repository.ErrNotFound
	}
	delete(f.partnerships, id)
	return nil
}

type fakeContentStore struct {
	mu    sync.Mutex
	items []*models.Content
}

func newFakeContentStore() *fakeContentStore {
	return &fakeContentStore{}
}

func (f *fakeContentStore) Create(_ context.Context, c *models.Content) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.items = append(f.items, c)
	return nil
}

func (f *fakeContentStore) GetByID(_ context.Context, id string) (*models.Content, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, c := range f.items {
		if c.ID == id {
			return c, nil
		}
	}
	return nil, repository.ErrNotFound
}

func (f *fakeContentStore) byPartnership(partnershipID string) []*models.Content {
	var out []*models.Content
	for _, c := range f.items {
		if c.PartnershipID == partnershipID {
			out = append(out, c)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	return out
}

func (f *fakeContentStore) ListByPartnership(_ context.Context, partnershipID string, limit, offset int) ([]*models.Content, int, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	all := f.byPartnership(partnershipID)
	total := len(all)
	if offset >= total {
		return nil, total, nil
	}
	end := offset + limit
	if end > total {
		end = total
	}
	return all[offset:end], total, nil
}

func (f *fakeContentStore) Latest(_ context.Context, partnershipID string) (*models.Content, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	all := f.byPartnership(partnershipID)
	if len(all) == 0 {
		return nil, repository.ErrNotFound
	}
	return all[0], nil
}

func (f *fakeContentStore) MarkRead(_ context.Context, id string) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, c := range f.items {
		if c.ID == id {
			if c.Read {
				return false, nil
			}
			now := time.Now()
			c.Read = true
			c.ReadAt = &now
			return true, nil
		}
	}
	return false, repository.ErrNotFound
}

func (f *fakeContentStore) Delete(_ context.Context, id string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	for i, c := range f.items {
		if c.ID == id {
			f.items = append(f.items[:i], f.items[i+1:]...)
			return nil
		}
	}
	return repository.ErrNotFound
}

func (f *fakeContentStore) UnreadCount(_ context.Context, partnershipID, userID string) (int, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	count := 0
	for _, c := range f.items {
		if c.PartnershipID == partnershipID && c.SenderID != userID && !c.Read {
			count++
		}
	}
	return count, nil
}

func (f *fakeContentStore) MonthRollup(_ context.Context, partnershipID string, from, to time.Time) (*models.MemoryRollup, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	rollup := &models.MemoryRollup{Month: from.Format("2006-01"), PhotoURLs: []string{}}
	for _, c := range f.byPartnership(partnershipID) {
		if c.CreatedAt.Before(from) || !c.CreatedAt.Before(to) {
			continue
		}
		switch c.Type {
		case models.ContentTypePhoto:
			if c.ImageURL != nil {
				rollup.PhotoURLs = append(rollup.PhotoURLs, *c.ImageURL)
			}
		case models.ContentTypeNote:
			rollup.NoteCount++
		case models.ContentTypeStatus:
			rollup.StatusCount++
		case models.ContentTypeDrawing:
			rollup.DrawingCount++
		}
	}
	return rollup, nil
}

func (f *fakeContentStore) Months(_ context.Context, partnershipID string, limit int) ([]string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	seen := make(map[string]bool)
	var months []string
	for _, c := range f.byPartnership(partnershipID) {
		m := c.CreatedAt.UTC().Format("2006-01")
		if !seen[m] {
			seen[m] = true
			months = append(months, m)
		}
	}
	if len(months) > limit {
		months = months[:limit]
	}
	return months, nil
}

func (f *fakeContentStore) ActivityDays(_ context.Context, partnershipID string) ([]time.Time, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	seen := make(map[time.Time]bool)
	for _, c := range f.byPartnership(partnershipID) {
		d := c.CreatedAt.UTC().Truncate(24 * time.Hour)
		seen[d] = true
	}
	var days []time.Time
	for d := range seen {
		days = append(days, d)
	}
	sort.Slice(days, func(i, j int) bool { return days[i].After(days[j]) })
	return days, nil
}

type fakeDeviceStore struct {
	mu      sync.Mutex
	devices map[string]*models.Device // by token
	purged  []time.Time
}

func newFakeDeviceStore() *fakeDeviceStore {
	return &fakeDeviceStore{devices: make(map[string]*models.Device)}
}

func (f *fakeDeviceStore) Upsert(_ context.Context, d *models.Device) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.devices[d.Token] = d
	return nil
}

func (f *fakeDeviceStore) ListByUser(_ context.Context, userID string) ([]*models.Device, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []*models.Device
	for _, d := range f.devices {
		if d.UserID == userID {
			out = append(out, d)
		}
	}
	return out, nil
}

func (f *fakeDeviceStore) DeleteByToken(_ context.Context, userID, token string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	d, ok := f.devices[token]
	if !ok || d.UserID != userID {
		return repository.ErrNotFound
	}
	delete(f.devices, token)
	return nil
}

func (f *fakeDeviceStore) DeleteToken(_ context.Context, token string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	delete(f.devices, token)
	return nil
}

func (f *fakeDeviceStore) PurgeUnused(_ context.Context, before time.Time) (int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.purged = append(f.purged, before)
	var n int64
	for token, d := range f.devices {
		if d.LastUsedAt.Before(before) {
			delete(f.devices, token)
			n++
		}
	}
	return n, nil
}

type fakeSnapshotCache struct {
	mu    sync.Mutex
	snaps map[string]*models.WidgetSnapshot
}

func newFakeSnapshotCache() *fakeSnapshotCache {
	return &fakeSnapshotCache{snaps: make(map[string]*models.WidgetSnapshot)}
}

func (f *fakeSnapshotCache) GetWidget(_ context.Context, userID string) (*models.WidgetSnapshot, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.snaps[userID], nil
}

func (f *fakeSnapshotCache) SetWidget(_ context.Context, userID string, snap *models.WidgetSnapshot, _ time.Duration) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.snaps[userID] = snap
	return nil
}

func (f *fakeSnapshotCache) DeleteWidget(_ context.Context, userID string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	delete(f.snaps, userID)
	return nil
}

type fakeMediaStore struct{}

func (fakeMediaStore) PresignUpload(_ context.Context, key, _ string) (string, error) {
	return "https://upload.test/" + key, nil
}

func (fakeMediaStore) PublicURL(key string) string {
	return "https://cdn.test/" + key
}

func (fakeMediaStore) UploadExpirySeconds() int { return 300 }

type busRecorder struct {
	mu     sync.Mutex
	events []events.Event
}

func (b *busRecorder) Publish(_ context.Context, evs ...events.Event) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.events = append(b.events, evs...)
}

func (b *busRecorder) byType(eventType string) []events.Event {
	b.mu.Lock()
	defer b.mu.Unlock()
	var out []events.Event
	for _, e := range b.events {
		if e.EventType() == eventType {
			out = append(out, e)
		}
	}
	return out
}

func strptr(s string) *string { return &s }
