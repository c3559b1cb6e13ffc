package broadcast

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"
)

const defaultChannel = "merchantops:session"

// Redis broadcasts events over a pub/sub channel, for sibling instances
// running in separate processes.
type Redis struct {
	client  *redis.Client
	channel string

	mu     sync.Mutex
	subs   map[int]func(Event)
	nextID int
	pubsub *redis.PubSub
	done   chan struct{}
	closed bool
}

// NewRedis connects the broadcaster to a channel. An empty channel name
// uses the default.
func NewRedis(client *redis.Client, channel string) *Redis {
	if channel == "" {
		channel = defaultChannel
	}
	return &Redis{
		client:  client,
		channel: channel,
		subs:    map[int]func(Event){},
	}
}

// Publish sends the event with a short bounded timeout so a slow or dead
// redis never stalls a logout.
func (r *Redis) Publish(ctx context.Context, e Event) error {
	payload, err := json.Marshal(e)
	if err != nil {
		return fmt.Errorf("broadcast: encode event: %w", err)
	}
	ctx, cancel := context.WithTimeout(ctx, 2*time.Second)
	defer cancel()
	if err := r.client.Publish(ctx, r.channel, payload).Err(); err != nil {
		return fmt.Errorf("broadcast: publish: %w", err)
	}
	return nil
}

// Subscribe registers a handler; the first subscriber starts the
// receive loop.
func (r *Redis) Subscribe(fn func(Event)) func() {
	r.mu.Lock()
	defer r.mu.Unlock()
	id := r.nextID
	r.nextID++
	r.subs[id] = fn
	if r.pubsub == nil && !r.closed {
		r.pubsub = r.client.Subscribe(context.Background(), r.channel)
		r.done = make(chan struct{})
		go r.receive(r.pubsub, r.done)
	}
	return func() {
		r.mu.Lock()
		defer r.mu.Unlock()
		delete(r.subs, id)
	}
}

// Close stops the receive loop and drops all subscribers.
func (r *Redis) Close() error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.closed {
		return nil
	}
	r.closed = true
	r.subs = map[int]func(Event){}
	if r.pubsub != nil {
		err := r.pubsub.Close()
		<-r.done
		r.pubsub = nil
		return err
	}
	return nil
}

func (r *Redis) receive(pubsub *redis.PubSub, done chan struct{}) {
	defer close(done)
	for msg := range pubsub.Channel() {
		var e Event
		if err := json.Unmarshal([]byte(msg.Payload), &e); err != nil {
			continue
		}
		r.mu.Lock()
		subs := make([]func(Event), 0, len(r.subs))
		for _, fn := range r.subs {
			subs = append(subs, fn)
		}
		r.mu.Unlock()
		for _, fn := range subs {
			fn(e)
		}
	}
}

var _ Broadcaster = (*Redis)(nil)
