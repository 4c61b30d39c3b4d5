package live

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"campus-portal/internal/changefeed"
)

func TestStreamPushesSnapshotOnEveryChange(t *testing.T) {
	feed := changefeed.NewMemoryFeed()
	var count atomic.Int32
	load := func(context.Context, *http.Request) (any, error) {
		return []string{strings.Repeat("a", int(count.Load()))}, nil
	}

	srv := httptest.NewServer(Stream(feed, "announcements", load, changefeed.Announcements))
	defer srv.Close()

	ws, _, err := websocket.DefaultDialer.Dial("ws"+strings.TrimPrefix(srv.URL, "http"), nil)
	require.NoError(t, err)
	defer ws.Close()

	readFrame := func() (string, []string) {
		require.NoError(t, ws.SetReadDeadline(time.Now().Add(2*time.Second)))
		_, payload, err := ws.ReadMessage()
		require.NoError(t, err)
		var f struct {
			Type string   `json:"type"`
			Data []string `json:"data"`
		}
		require.NoError(t, json.Unmarshal(payload, &f))
		return f.Type, f.Data
	}

	typ, data := readFrame()
	assert.Equal(t, "announcements", typ)
	assert.Equal(t, []string{""}, data)

	count.Store(1)
	require.NoError(t, changefeed.Notify(context.Background(), feed, changefeed.Announcements, "a1", changefeed.OpCreated))

	_, data = readFrame()
	assert.Equal(t, []string{"a"}, data)
}
