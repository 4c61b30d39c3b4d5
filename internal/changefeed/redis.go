package changefeed

import (
	"context"
	"encoding/json"
	"fmt"
	"log"

	"github.com/redis/go-redis/v9"
)

const channelPrefix = "campus:changes:"

// All is the full list of collections, used when subscribing to everything.
var All = []string{Conversations, Messages, Announcements, Departments, Users, Inquiries, Notifications}

// RedisFeed carries events over Redis pub/sub so every server instance sees
// every write.
type RedisFeed struct {
	redis *redis.Client
}

func NewRedisFeed(client *redis.Client) *RedisFeed {
	return &RedisFeed{redis: client}
}

func channelName(collection string) string {
	return channelPrefix + collection
}

func (f *RedisFeed) Publish(ctx context.Context, ev Event) error {
	payload, err := json.Marshal(ev)
	if err != nil {
		return fmt.Errorf("encode event: %w", err)
	}
	if err := f.redis.Publish(ctx, channelName(ev.Collection), payload).Err(); err != nil {
		return fmt.Errorf("publish %s: %w", ev.Collection, err)
	}
	return nil
}

// Subscribe opens one Redis subscription for the given collections (all of
// them when none are named). It returns only once Redis has confirmed the
// subscription.
func (f *RedisFeed) Subscribe(ctx context.Context, collections ...string) (*Subscription, error) {
	if len(collections) == 0 {
		collections = All
	}
	channels := make([]string, 0, len(collections))
	for _, c := range collections {
		channels = append(channels, channelName(c))
	}

	pubsub := f.redis.Subscribe(ctx, channels...)
	if _, err := pubsub.Receive(ctx); err != nil {
		_ = pubsub.Close()
		return nil, fmt.Errorf("subscribe: %w", err)
	}

	out := make(chan Event, subscriberBuffer)
	go func() {
		defer close(out)
		for msg := range pubsub.Channel() {
			var ev Event
			if err := json.Unmarshal([]byte(msg.Payload), &ev); err != nil {
				log.Printf("changefeed: drop malformed event on %s: %v", msg.Channel, err)
				continue
			}
			select {
			case out <- ev:
			default:
			}
		}
	}()

	return NewSubscription(out, func() { _ = pubsub.Close() }), nil
}
