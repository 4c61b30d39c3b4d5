package chat

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	myMiddleware "campus-portal/internal/middleware"
)

func as(id myMiddleware.Identity, next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		next.ServeHTTP(w, r.WithContext(myMiddleware.WithIdentity(r.Context(), id)))
	})
}

var (
	juanIdentity  = myMiddleware.Identity{Subject: juan.StudentID, Name: juan.Name, Role: myMiddleware.RoleStudent}
	adminIdentity = myMiddleware.Identity{Subject: "admin@nbsc.edu.ph", Name: "Administrator", Role: myMiddleware.RoleAdmin}
)

func newRouter(h *Handler) chi.Router {
	r := chi.NewRouter()
	r.Get("/api/conversations", h.List)
	r.Post("/api/conversations", h.Start)
	r.Get("/api/conversations/{id}/messages", h.Messages)
	r.Post("/api/conversations/{id}/messages", h.Send)
	r.Post("/api/conversations/{id}/open", h.Open)
	r.Get("/ws", h.ServeWs)
	return r
}

func TestRESTSendAndOpen(t *testing.T) {
	svc, store, presence, feed := newTestService()
	store.put(Conversation{ID: "c1", Name: "IT Services", StudentID: juan.StudentID, Unread: 1})
	h := NewHandler(svc, NewProjection(svc, feed), presence)
	r := newRouter(h)

	rec := httptest.NewRecorder()
	as(juanIdentity, r).ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/api/conversations/c1/messages", strings.NewReader(`{"text":"Thank you"}`)))
	require.Equal(t, http.StatusCreated, rec.Code)
	assert.Contains(t, rec.Body.String(), `"unread":2`)

	rec = httptest.NewRecorder()
	as(juanIdentity, r).ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/api/conversations/c1/messages", strings.NewReader(`{"text":"   "}`)))
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = httptest.NewRecorder()
	as(adminIdentity, r).ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/api/conversations/c1/open", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"unread":0`)

	rec = httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/conversations", nil))
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestServeWs(t *testing.T) {
	svc, store, presence, feed := newTestService()
	store.put(Conversation{ID: "c1", Name: "IT Services", StudentID: juan.StudentID, Unread: 3})
	h := NewHandler(svc, NewProjection(svc, feed), presence)

	srv := httptest.NewServer(as(adminIdentity, newRouter(h)))
	defer srv.Close()

	ws, _, err := websocket.DefaultDialer.Dial("ws"+strings.TrimPrefix(srv.URL, "http")+"/ws", nil)
	require.NoError(t, err)
	defer ws.Close()

	read := func(want string) map[string]any {
		t.Helper()
		for {
			require.NoError(t, ws.SetReadDeadline(time.Now().Add(2*time.Second)))
			var frame map[string]any
			require.NoError(t, ws.ReadJSON(&frame))
			if frame["type"] == want {
				return frame
			}
		}
	}

	conversations := read("conversations")["conversations"].([]any)
	require.Len(t, conversations, 1)

	require.NoError(t, ws.WriteJSON(map[string]string{"type": "select", "conversation_id": "c1"}))
	// The first messages push may arrive before or after the selection ack.
	seen := map[string]any{}
	for len(seen) < 2 {
		require.NoError(t, ws.SetReadDeadline(time.Now().Add(2*time.Second)))
		var frame map[string]any
		require.NoError(t, ws.ReadJSON(&frame))
		if typ := frame["type"].(string); typ == "selected" || typ == "messages" {
			seen[typ] = frame["conversation_id"]
		}
	}
	assert.Equal(t, "c1", seen["selected"])
	assert.Equal(t, "c1", seen["messages"])

	require.Eventually(t, func() bool {
		viewing, _ := presence.Viewing(context.Background(), PartyAdmin, "c1")
		return viewing
	}, 2*time.Second, 10*time.Millisecond)

	require.NoError(t, ws.WriteJSON(map[string]any{"type": "send", "text": "On it", "as_department": true}))
	msgs := read("messages")["messages"].([]any)
	require.Len(t, msgs, 1)
	sender := msgs[0].(map[string]any)["sender"].(map[string]any)
	assert.Equal(t, "IT Services", sender["label"])

	require.NoError(t, ws.WriteJSON(map[string]string{"type": "select", "conversation_id": "missing"}))
	assert.Equal(t, "conversation not found", read("error")["error"])
}
