package department

import (
	"context"
	"encoding/json"
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
	"campus-portal/internal/validate"
)

type memoryStore struct {
	mu    sync.Mutex
	items map[string]Department
}

func newMemoryStore() *memoryStore {
	return &memoryStore{items: make(map[string]Department)}
}

func (m *memoryStore) List(context.Context) ([]Department, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]Department, 0, len(m.items))
	for _, d := range m.items {
		out = append(out, d)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out, nil
}

func (m *memoryStore) GetBySlug(_ context.Context, slug string) (*Department, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, d := range m.items {
		if d.Slug == slug {
			return &d, nil
		}
	}
	return nil, ErrNotFound
}

func (m *memoryStore) Create(_ context.Context, d *Department) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	d.CreatedAt = time.Now()
	m.items[d.ID] = *d
	return nil
}

func (m *memoryStore) Update(_ context.Context, d *Department) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.items[d.ID]; !ok {
		return ErrNotFound
	}
	m.items[d.ID] = *d
	return nil
}

func (m *memoryStore) Delete(_ context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.items[id]; !ok {
		return ErrNotFound
	}
	delete(m.items, id)
	return nil
}

func (m *memoryStore) Count(context.Context) (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.items), nil
}

func TestSlugify(t *testing.T) {
	assert.Equal(t, "registrars-office", Slugify("Registrar's Office"))
	assert.Equal(t, "it-services", Slugify("  IT Services "))
	assert.Equal(t, "student-affairs", Slugify("Student -- Affairs!"))
}

func TestSeedOnlyFillsEmptyDirectory(t *testing.T) {
	ctx := context.Background()
	store := newMemoryStore()
	svc := NewService(store, changefeed.NewMemoryFeed())

	require.NoError(t, svc.Seed(ctx))
	require.NoError(t, svc.Seed(ctx))

	n, err := svc.Count(ctx)
	require.NoError(t, err)
	assert.Equal(t, 4, n)

	d, err := svc.GetBySlug(ctx, "Registrars-Office")
	require.NoError(t, err)
	assert.Equal(t, "Registrar's Office", d.Name)
}

func TestCreateValidatesAndPublishes(t *testing.T) {
	ctx := context.Background()
	feed := changefeed.NewMemoryFeed()
	sub, err := feed.Subscribe(ctx, changefeed.Departments)
	require.NoError(t, err)
	defer sub.Close()

	svc := NewService(newMemoryStore(), feed)

	_, err = svc.Create(ctx, Input{Name: "Library", Email: "not-an-email"})
	var verr *validate.Error
	require.True(t, errors.As(err, &verr))
	assert.Contains(t, verr.Map(), "email")
	assert.Contains(t, verr.Map(), "phone")

	d, err := svc.Create(ctx, Input{Name: "Campus Library", Email: "library@nbsc.edu.ph", Phone: "(012) 345-6790", Description: "Books."})
	require.NoError(t, err)
	assert.Equal(t, "campus-library", d.Slug)

	ev := <-sub.Events()
	assert.Equal(t, d.ID, ev.DocumentID)
	assert.Equal(t, changefeed.OpCreated, ev.Op)
}

func TestGetUnknownSlugIsNotFound(t *testing.T) {
	h := NewHandler(NewService(newMemoryStore(), nil))
	r := chi.NewRouter()
	r.Get("/api/departments/{slug}", h.Get)

	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/departments/nowhere", nil))

	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestCreateHandlerRejectsInvalidForm(t *testing.T) {
	h := NewHandler(NewService(newMemoryStore(), nil))
	r := chi.NewRouter()
	r.Post("/api/admin/departments", h.Create)

	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/api/admin/departments", strings.NewReader(`{"name":"Clinic"}`)))

	require.Equal(t, http.StatusBadRequest, rec.Code)
	var body struct {
		Errors map[string]string `json:"errors"`
	}
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&body))
	assert.Equal(t, "this field is required", body.Errors["email"])
}
