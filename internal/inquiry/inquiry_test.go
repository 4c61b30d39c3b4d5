package inquiry

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"sort"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"campus-portal/internal/changefeed"
	"campus-portal/internal/notification"
)

type memoryStore struct {
	mu    sync.Mutex
	items map[string]Inquiry
}

func newMemoryStore() *memoryStore {
	return &memoryStore{items: make(map[string]Inquiry)}
}

func (m *memoryStore) List(context.Context) ([]Inquiry, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]Inquiry, 0, len(m.items))
	for _, i := range m.items {
		out = append(out, i)
	}
	sort.Slice(out, func(a, b int) bool { return out[a].CreatedAt.After(out[b].CreatedAt) })
	return out, nil
}

func (m *memoryStore) Get(_ context.Context, id string) (*Inquiry, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	i, ok := m.items[id]
	if !ok {
		return nil, ErrNotFound
	}
	return &i, nil
}

func (m *memoryStore) Create(_ context.Context, i *Inquiry) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	i.CreatedAt = time.Now()
	m.items[i.ID] = *i
	return nil
}

func (m *memoryStore) Upsert(_ context.Context, i *Inquiry) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.items[i.ID] = *i
	return nil
}

func (m *memoryStore) UpdateStatus(_ context.Context, id string, status Status) (*Inquiry, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	i, ok := m.items[id]
	if !ok {
		return nil, ErrNotFound
	}
	i.Status = status
	m.items[id] = i
	return &i, nil
}

func (m *memoryStore) Reassign(_ context.Context, id, department string) (*Inquiry, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	i, ok := m.items[id]
	if !ok {
		return nil, ErrNotFound
	}
	i.Recommended = department
	i.Status = StatusApproved
	m.items[id] = i
	return &i, nil
}

func (m *memoryStore) CountByStatus(_ context.Context, status Status) (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	n := 0
	for _, i := range m.items {
		if i.Status == status {
			n++
		}
	}
	return n, nil
}

type recordingNotifier struct {
	mu    sync.Mutex
	items []notification.Item
}

func (r *recordingNotifier) Notify(_ context.Context, n notification.Item) (*notification.Item, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.items = append(r.items, n)
	return &n, nil
}

type failingClassifier struct{}

func (failingClassifier) Classify(context.Context, string) ([]Recommendation, error) {
	return nil, errors.New("model offline")
}

func TestKeywordClassifier(t *testing.T) {
	tests := []struct {
		query string
		want  []string
		top   float64
	}{
		{"I have a question about my final GRADE", []string{"Registrar's Office", "Academics Office"}, 0.92},
		{"When does enrollment open?", []string{"Academics Office", "Registrar's Office"}, 0.88},
		{"Can I drop a subject?", []string{"Academics Office", "Registrar's Office"}, 0.88},
		{"Where is the clinic?", []string{"Student Affairs"}, 0.85},
	}

	for _, tt := range tests {
		t.Run(tt.query, func(t *testing.T) {
			recs, err := KeywordClassifier{}.Classify(context.Background(), tt.query)
			require.NoError(t, err)
			got := make([]string, 0, len(recs))
			for _, r := range recs {
				got = append(got, r.Department)
			}
			assert.Equal(t, tt.want, got)
			assert.Equal(t, tt.top, recs[0].Confidence)
		})
	}
}

func TestSubmitStoresTopRecommendation(t *testing.T) {
	ctx := context.Background()
	feed := changefeed.NewMemoryFeed()
	sub, err := feed.Subscribe(ctx, changefeed.Inquiries)
	require.NoError(t, err)
	defer sub.Close()

	notifier := &recordingNotifier{}
	svc := NewService(newMemoryStore(), nil, feed, notifier)

	res, err := svc.Submit(ctx, SubmitInput{Query: "  My grade in Math 101 is missing  "})
	require.NoError(t, err)
	assert.Equal(t, "My grade in Math 101 is missing", res.Inquiry.Query)
	assert.Equal(t, "Registrar's Office", res.Inquiry.Recommended)
	assert.Equal(t, StatusPending, res.Inquiry.Status)
	assert.Len(t, res.Recommendations, 2)

	ev := <-sub.Events()
	assert.Equal(t, res.Inquiry.ID, ev.DocumentID)

	require.Len(t, notifier.items, 1)
	assert.Equal(t, notification.AudienceAdmin, notifier.items[0].Audience)

	n, err := svc.CountPending(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, n)
}

func TestSubmitRejectsBlankAndClassifierFailure(t *testing.T) {
	ctx := context.Background()

	_, err := NewService(newMemoryStore(), nil, nil, nil).Submit(ctx, SubmitInput{Query: "   "})
	assert.Error(t, err)

	store := newMemoryStore()
	_, err = NewService(store, failingClassifier{}, nil, nil).Submit(ctx, SubmitInput{Query: "Hello"})
	assert.ErrorContains(t, err, "model offline")
	assert.Empty(t, store.items)
}

func TestReassignApprovesAndNotifiesStudent(t *testing.T) {
	ctx := context.Background()
	notifier := &recordingNotifier{}
	svc := NewService(newMemoryStore(), nil, nil, notifier)
	require.NoError(t, svc.Seed(ctx))

	i, err := svc.Reassign(ctx, "how-can-i-apply-for-", ReassignInput{Department: "Registrar's Office"})
	require.NoError(t, err)
	assert.Equal(t, StatusApproved, i.Status)
	assert.Equal(t, "Registrar's Office", i.Recommended)

	require.Len(t, notifier.items, 1)
	assert.Equal(t, notification.AudienceUser, notifier.items[0].Audience)
	assert.Equal(t, "Re: How can I apply for a scholarship?", notifier.items[0].Title)

	_, err = svc.UpdateStatus(ctx, "how-can-i-apply-for-", StatusInput{Status: "Rejected"})
	require.NoError(t, err)
	assert.Len(t, notifier.items, 1)
}

func TestSeedIsIdempotent(t *testing.T) {
	ctx := context.Background()
	store := newMemoryStore()
	svc := NewService(store, nil, nil, nil)

	require.NoError(t, svc.Seed(ctx))
	require.NoError(t, svc.Seed(ctx))

	list, err := svc.List(ctx)
	require.NoError(t, err)
	require.Len(t, list, 4)
	assert.Equal(t, "How can I apply for a scholarship?", list[0].Query)
	assert.Equal(t, "i-forgot-my-password", seedID("I forgot my password, how do I reset it?"))
}

func TestStatusHandler(t *testing.T) {
	svc := NewService(newMemoryStore(), nil, nil, nil)
	require.NoError(t, svc.Seed(context.Background()))
	h := NewHandler(svc)
	r := chi.NewRouter()
	r.Put("/api/admin/inquiries/{id}/status", h.UpdateStatus)

	tests := []struct {
		name   string
		id     string
		body   string
		status int
	}{
		{"approve", "i-forgot-my-password", `{"status":"Approved"}`, http.StatusOK},
		{"unknown status", "i-forgot-my-password", `{"status":"Closed"}`, http.StatusBadRequest},
		{"missing inquiry", "nope", `{"status":"Rejected"}`, http.StatusNotFound},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := httptest.NewRecorder()
			r.ServeHTTP(rec, httptest.NewRequest(http.MethodPut, "/api/admin/inquiries/"+tt.id+"/status", strings.NewReader(tt.body)))
			assert.Equal(t, tt.status, rec.Code)
		})
	}
}
