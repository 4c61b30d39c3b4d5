package notification

import (
	"context"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"campus-portal/internal/apperr"
	"campus-portal/internal/changefeed"
)

type memoryStore struct {
	mu    sync.Mutex
	items []Item
}

func (m *memoryStore) Create(_ context.Context, n *Item) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.items = append(m.items, *n)
	return nil
}

func (m *memoryStore) ListByType(_ context.Context, audience Audience, typ Type) ([]Item, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]Item, 0)
	for _, n := range m.items {
		if n.Audience == audience && n.Type == typ {
			out = append(out, n)
		}
	}
	return out, nil
}

func (m *memoryStore) MarkRead(_ context.Context, audience Audience, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for i := range m.items {
		if m.items[i].ID == id && m.items[i].Audience == audience {
			m.items[i].Read = true
			return nil
		}
	}
	return ErrNotFound
}

func (m *memoryStore) MarkAllRead(_ context.Context, audience Audience) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var n int64
	for i := range m.items {
		if m.items[i].Audience == audience && !m.items[i].Read {
			m.items[i].Read = true
			n++
		}
	}
	return n, nil
}

func (m *memoryStore) Count(context.Context) (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.items), nil
}

var now = time.Date(2026, 10, 17, 12, 0, 0, 0, time.UTC)

func newTestService() (*Service, *memoryStore) {
	store := &memoryStore{}
	svc := NewService(store, changefeed.NewMemoryFeed())
	svc.now = func() time.Time { return now }
	return svc, store
}

func TestFeedMergesCategoriesNewestFirst(t *testing.T) {
	ctx := context.Background()
	svc, _ := newTestService()

	_, err := svc.Notify(ctx, Item{Audience: AudienceUser, Type: TypeAnnouncement, Title: "older", CreatedAt: now.Add(-3 * time.Hour)})
	require.NoError(t, err)
	_, err = svc.Notify(ctx, Item{Audience: AudienceUser, Type: TypeInquiry, Title: "newest", CreatedAt: now.Add(-time.Minute)})
	require.NoError(t, err)
	_, err = svc.Notify(ctx, Item{Audience: AudienceUser, Type: TypeAnnouncement, Title: "middle", CreatedAt: now.Add(-2 * time.Hour)})
	require.NoError(t, err)
	_, err = svc.Notify(ctx, Item{Audience: AudienceAdmin, Type: TypeRegistration, Title: "admin only"})
	require.NoError(t, err)

	feed, err := svc.Feed(ctx, AudienceUser)
	require.NoError(t, err)

	titles := make([]string, 0, len(feed.Items))
	for _, n := range feed.Items {
		titles = append(titles, n.Title)
	}
	assert.Equal(t, []string{"newest", "middle", "older"}, titles)
	assert.Len(t, feed.Categories[TypeAnnouncement], 2)
	assert.Len(t, feed.Categories[TypeInquiry], 1)
	assert.Equal(t, 3, feed.Unread)
	assert.Equal(t, "1 minute ago", feed.Items[0].Date)
}

func TestNotifyRejectsTypeOutsideAudience(t *testing.T) {
	svc, _ := newTestService()
	_, err := svc.Notify(context.Background(), Item{Audience: AudienceUser, Type: TypeRegistration, Title: "x"})
	assert.ErrorIs(t, err, apperr.ErrInvalidInput)
}

func TestMarkReadIsIdempotent(t *testing.T) {
	ctx := context.Background()
	svc, store := newTestService()

	a, err := svc.Notify(ctx, Item{Audience: AudienceAdmin, Type: TypeInquiry, Title: "New AI Inquiry"})
	require.NoError(t, err)
	b, err := svc.Notify(ctx, Item{Audience: AudienceAdmin, Type: TypeInquiry, Title: "New AI Inquiry"})
	require.NoError(t, err)

	require.NoError(t, svc.MarkRead(ctx, AudienceAdmin, a.ID))
	once := append([]Item(nil), store.items...)
	require.NoError(t, svc.MarkRead(ctx, AudienceAdmin, a.ID))

	assert.Equal(t, once, store.items)

	feed, err := svc.Feed(ctx, AudienceAdmin)
	require.NoError(t, err)
	assert.Equal(t, 1, feed.Unread)
	for _, n := range feed.Items {
		assert.Equal(t, n.ID == a.ID, n.Read, "only the marked item flips")
	}
	assert.NotEqual(t, a.ID, b.ID)
}

func TestMarkReadScopedToAudience(t *testing.T) {
	ctx := context.Background()
	svc, _ := newTestService()

	a, err := svc.Notify(ctx, Item{Audience: AudienceAdmin, Type: TypeInquiry, Title: "New AI Inquiry"})
	require.NoError(t, err)

	assert.ErrorIs(t, svc.MarkRead(ctx, AudienceUser, a.ID), apperr.ErrNotFound)
}

func TestSeedSamples(t *testing.T) {
	ctx := context.Background()
	svc, _ := newTestService()

	require.NoError(t, svc.Seed(ctx))
	require.NoError(t, svc.Seed(ctx))

	user, err := svc.Feed(ctx, AudienceUser)
	require.NoError(t, err)
	assert.Len(t, user.Items, 4)
	assert.Equal(t, 2, user.Unread)
	assert.Equal(t, "2 hours ago", user.Items[0].Date)

	admin, err := svc.Feed(ctx, AudienceAdmin)
	require.NoError(t, err)
	assert.Len(t, admin.Items, 3)
	assert.Equal(t, "1 hour ago", admin.Items[0].Date)
}

func TestRelativeTime(t *testing.T) {
	tests := []struct {
		age  time.Duration
		want string
	}{
		{10 * time.Second, "Just now"},
		{5 * time.Minute, "5 minutes ago"},
		{2 * time.Hour, "2 hours ago"},
		{30 * time.Hour, "Yesterday"},
		{3 * 24 * time.Hour, "3 days ago"},
		{30 * 24 * time.Hour, "Sep 17, 2026"},
		{-time.Hour, "Just now"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, RelativeTime(now.Add(-tt.age), now), tt.age.String())
	}
}

func TestMarkReadHandler(t *testing.T) {
	svc, _ := newTestService()
	item, err := svc.Notify(context.Background(), Item{Audience: AudienceUser, Type: TypeAnnouncement, Title: "Foundation Day"})
	require.NoError(t, err)

	h := NewHandler(svc, AudienceUser)
	r := chi.NewRouter()
	r.Post("/api/notifications/{id}/read", h.MarkRead)

	for i := 0; i < 2; i++ {
		rec := httptest.NewRecorder()
		r.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/api/notifications/"+item.ID+"/read", nil))
		assert.Equal(t, http.StatusNoContent, rec.Code)
	}

	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/api/notifications/missing/read", nil))
	assert.Equal(t, http.StatusNotFound, rec.Code)
}
