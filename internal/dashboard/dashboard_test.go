package dashboard

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func constant(n int) Counter {
	return func(context.Context) (int, error) { return n, nil }
}

func TestStats(t *testing.T) {
	h := NewHandler(NewService(Sources{
		Students:         constant(3),
		Announcements:    constant(5),
		Departments:      constant(4),
		PendingInquiries: constant(2),
	}))

	rec := httptest.NewRecorder()
	h.Stats(rec, httptest.NewRequest(http.MethodGet, "/api/admin/stats", nil))
	require.Equal(t, http.StatusOK, rec.Code)

	var got Stats
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&got))
	assert.Equal(t, Stats{Students: 3, Announcements: 5, Departments: 4, PendingInquiries: 2}, got)
}

func TestStatsPropagatesErrors(t *testing.T) {
	svc := NewService(Sources{Students: func(context.Context) (int, error) { return 0, errors.New("db down") }})
	_, err := svc.Stats(context.Background())
	assert.EqualError(t, err, "db down")
}
