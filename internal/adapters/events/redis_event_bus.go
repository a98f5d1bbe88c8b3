package events

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"

	"github.com/zatekoja/clinicbooking/internal/domain/entities"
	"github.com/zatekoja/clinicbooking/internal/domain/providers"
	redisclient "github.com/zatekoja/clinicbooking/internal/infrastructure/clients/redis"
	"github.com/zatekoja/clinicbooking/internal/infrastructure/observability"
)

const subscriberBuffer = 100

// RedisEventBus fans appointment changes out to every API instance over Redis Pub/Sub
type RedisEventBus struct {
	client        *redisclient.Client
	subscriptions map[string]*redis.PubSub
	subscribers   map[string]map[chan *entities.AppointmentEvent]struct{}
	mu            sync.RWMutex
	ctx           context.Context
	cancel        context.CancelFunc
	logger        *zerolog.Logger
}

// NewRedisEventBus creates a new Redis-based event bus
func NewRedisEventBus(client *redisclient.Client) providers.EventBus {
	ctx, cancel := context.WithCancel(context.Background())
	return &RedisEventBus{
		client:        client,
		subscriptions: make(map[string]*redis.PubSub),
		subscribers:   make(map[string]map[chan *entities.AppointmentEvent]struct{}),
		ctx:           ctx,
		cancel:        cancel,
		logger:        observability.GetLogger(),
	}
}

// Publish publishes an event to all subscribers
func (b *RedisEventBus) Publish(ctx context.Context, channel string, event *entities.AppointmentEvent) error {
	if event == nil {
		return errors.New("event is nil")
	}

	data, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("failed to marshal event: %w", err)
	}

	if err := b.client.Client().Publish(ctx, channel, data).Err(); err != nil {
		return fmt.Errorf("failed to publish event: %w", err)
	}

	b.logger.Debug().
		Str("channel", channel).
		Str("event_type", string(event.Type)).
		Str("event_id", event.EventID).
		Msg("Published appointment event")
	return nil
}

// Subscribe subscribes to events on a channel. The returned channel is closed
// when ctx is done or the bus is closed.
func (b *RedisEventBus) Subscribe(ctx context.Context, channel string) (<-chan *entities.AppointmentEvent, error) {
	for {
		b.mu.RLock()
		closed := b.ctx.Err() != nil
		_, exists := b.subscriptions[channel]
		b.mu.RUnlock()
		if closed {
			return nil, errors.New("event bus is closed")
		}

		// Handshake without the lock; Close must never wait on Redis.
		var fresh *redis.PubSub
		if !exists {
			pubsub := b.client.Client().Subscribe(b.ctx, channel)
			// Wait for the subscription confirmation so no publish is missed.
			if _, err := pubsub.Receive(ctx); err != nil {
				_ = pubsub.Close()
				return nil, fmt.Errorf("failed to subscribe to %s: %w", channel, err)
			}
			fresh = pubsub
		}

		eventChan, subscriberCount, err := b.addSubscriber(channel, fresh)
		if err != nil {
			return nil, err
		}
		if eventChan == nil {
			// the subscription went away between the check and the lock
			continue
		}

		b.logger.Debug().Str("channel", channel).Int("subscribers", subscriberCount).Msg("Subscribed")

		go func() {
			select {
			case <-ctx.Done():
			case <-b.ctx.Done():
			}
			b.removeSubscriber(channel, eventChan)
		}()

		return eventChan, nil
	}
}

// addSubscriber registers a subscriber channel, installing fresh as the channel's
// subscription unless another caller got there first. It returns a nil channel when
// there is no subscription to attach to.
func (b *RedisEventBus) addSubscriber(channel string, fresh *redis.PubSub) (chan *entities.AppointmentEvent, int, error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.ctx.Err() != nil {
		if fresh != nil {
			_ = fresh.Close()
		}
		return nil, 0, errors.New("event bus is closed")
	}

	if _, exists := b.subscriptions[channel]; exists {
		if fresh != nil {
			_ = fresh.Close()
		}
	} else {
		if fresh == nil {
			return nil, 0, nil
		}
		b.subscriptions[channel] = fresh
		go b.receiveMessages(channel, fresh)
	}

	if b.subscribers[channel] == nil {
		b.subscribers[channel] = make(map[chan *entities.AppointmentEvent]struct{})
	}
	eventChan := make(chan *entities.AppointmentEvent, subscriberBuffer)
	b.subscribers[channel][eventChan] = struct{}{}
	return eventChan, len(b.subscribers[channel]), nil
}

// receiveMessages receives messages from Redis and broadcasts them to subscribers
func (b *RedisEventBus) receiveMessages(channel string, pubsub *redis.PubSub) {
	ch := pubsub.Channel()
	for {
		select {
		case <-b.ctx.Done():
			return
		case msg, ok := <-ch:
			if !ok {
				return
			}

			var event entities.AppointmentEvent
			if err := json.Unmarshal([]byte(msg.Payload), &event); err != nil {
				b.logger.Warn().Err(err).Str("channel", channel).Msg("Dropping malformed event")
				continue
			}

			b.mu.RLock()
			for subscriber := range b.subscribers[channel] {
				e := event
				select {
				case subscriber <- &e:
				default:
					b.logger.Warn().Str("channel", channel).Str("event_id", event.EventID).Msg("Subscriber channel full, skipping event")
				}
			}
			b.mu.RUnlock()
		}
	}
}

func (b *RedisEventBus) removeSubscriber(channel string, eventChan chan *entities.AppointmentEvent) {
	b.mu.Lock()
	defer b.mu.Unlock()

	subscribers, exists := b.subscribers[channel]
	if !exists {
		return
	}
	if _, ok := subscribers[eventChan]; !ok {
		return
	}

	delete(subscribers, eventChan)
	close(eventChan)

	if len(subscribers) == 0 {
		delete(b.subscribers, channel)
		if pubsub, ok := b.subscriptions[channel]; ok {
			_ = pubsub.Close()
			delete(b.subscriptions, channel)
			b.logger.Debug().Str("channel", channel).Msg("Closed subscription")
		}
	}
}

// Close closes the event bus and all subscriptions
func (b *RedisEventBus) Close() error {
	b.cancel()

	b.mu.Lock()
	defer b.mu.Unlock()

	var errs []error
	for channel, subscribers := range b.subscribers {
		for subscriber := range subscribers {
			close(subscriber)
		}
		delete(b.subscribers, channel)
	}
	for channel, pubsub := range b.subscriptions {
		if err := pubsub.Close(); err != nil {
			errs = append(errs, fmt.Errorf("close subscription %s: %w", channel, err))
		}
		delete(b.subscriptions, channel)
	}

	return errors.Join(errs...)
}
