package events

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"
)

// RedisConfig holds Redis pub/sub configuration.
type RedisConfig struct {
	Address  string `mapstructure:"address"`
	Password string `mapstructure:"password"`
	DB       int    `mapstructure:"db"`
	// Prefix namespaces topics on a shared Redis instance.
	Prefix string `mapstructure:"prefix"`
}

// RedisPubSub implements PubSub on Redis channels so lifecycle events
// can reach consumers outside this process. Redis pub/sub is itself
// fire-and-forget, which matches the delivery contract.
type RedisPubSub struct {
	client *redis.Client
	prefix string

	mu   sync.Mutex
	subs map[*redis.PubSub]struct{}
}

// NewRedisPubSub connects to Redis and verifies the connection.
func NewRedisPubSub(cfg RedisConfig) (*RedisPubSub, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     cfg.Address,
		Password: cfg.Password,
		DB:       cfg.DB,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := client.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("failed to connect to redis: %w", err)
	}

	prefix := cfg.Prefix
	if prefix == "" {
		prefix = "room-coordinator"
	}

	return &RedisPubSub{
		client: client,
		prefix: prefix,
		subs:   make(map[*redis.PubSub]struct{}),
	}, nil
}

func (r *RedisPubSub) channel(topic string) string {
	return r.prefix + ":" + topic
}

// Publish sends the event to the topic's Redis channel.
func (r *RedisPubSub) Publish(ctx context.Context, topic string, event *Event) error {
	data, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("failed to marshal event: %w", err)
	}
	return r.client.Publish(ctx, r.channel(topic), data).Err()
}

// Subscribe opens a feed backed by a Redis channel subscription.
func (r *RedisPubSub) Subscribe(ctx context.Context, topic string) (*Subscription, error) {
	pubsub := r.client.Subscribe(ctx, r.channel(topic))

	r.mu.Lock()
	r.subs[pubsub] = struct{}{}
	r.mu.Unlock()

	eventCh := make(chan *Event, subscriberBuffer)
	go r.processMessages(ctx, pubsub, eventCh)

	cancel := func() {
		r.mu.Lock()
		if _, ok := r.subs[pubsub]; ok {
			delete(r.subs, pubsub)
			pubsub.Close()
		}
		r.mu.Unlock()
	}

	return &Subscription{C: eventCh, cancel: cancel}, nil
}

// Close closes all subscriptions and the Redis client.
func (r *RedisPubSub) Close() error {
	r.mu.Lock()
	for pubsub := range r.subs {
		pubsub.Close()
	}
	r.subs = make(map[*redis.PubSub]struct{})
	r.mu.Unlock()

	return r.client.Close()
}

func (r *RedisPubSub) processMessages(ctx context.Context, pubsub *redis.PubSub, eventCh chan<- *Event) {
	defer close(eventCh)

	ch := pubsub.Channel()

	for {
		select {
		case <-ctx.Done():
			return
		case msg, ok := <-ch:
			if !ok {
				return
			}

			var event Event
			if err := json.Unmarshal([]byte(msg.Payload), &event); err != nil {
				continue
			}

			select {
			case eventCh <- &event:
			default:
				// Consumer is not keeping up, drop.
			}
		}
	}
}
