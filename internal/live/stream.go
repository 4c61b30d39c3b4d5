package live

import (
	"context"
	"errors"
	"log"
	"net/http"

	"campus-portal/internal/changefeed"
)

// Frame is the envelope for every server-to-client message.
type Frame struct {
	Type string `json:"type"`
	Data any    `json:"data,omitempty"`
}

// Loader produces the snapshot for one request.
type Loader func(ctx context.Context, r *http.Request) (any, error)

// Stream serves a websocket that receives a `frameType` frame carrying a
// fresh snapshot on connect and after every change to the given collections.
func Stream(src changefeed.Source, frameType string, load Loader, collections ...string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		conn, err := Upgrade(w, r)
		if err != nil {
			log.Printf("live: upgrade: %v", err)
			return
		}

		// The request context ends when this handler returns, so the watch
		// gets its own.
		ctx, cancel := context.WithCancel(context.Background())
		go func() {
			<-conn.Done()
			cancel()
		}()

		go conn.WritePump(nil)
		go conn.ReadPump(nil)
		go func() {
			defer conn.Close()
			err := changefeed.Watch(ctx, src, changefeed.Query{Collections: collections},
				func(ctx context.Context) (any, error) { return load(ctx, r) },
				func(v any) { conn.WriteJSON(Frame{Type: frameType, Data: v}) },
			)
			if err != nil && !errors.Is(err, changefeed.ErrClosed) {
				log.Printf("live: watch %s: %v", frameType, err)
			}
		}()
	}
}
