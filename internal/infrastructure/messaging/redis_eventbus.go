package messaging

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/nexus-academicus/1board/internal/domain/shared"
	"github.com/nexus-academicus/1board/pkg/logger"
)

// ══════════════════════════════════════════════════════════════════════════════
// REDIS EVENT BUS
// Publishes locally and relays through Redis Pub/Sub so that every instance
// (server replicas and the worker) sees the same domain events.
// ══════════════════════════════════════════════════════════════════════════════

// DefaultChannel is the Pub/Sub channel carrying domain events.
const DefaultChannel = "1board:events"

// RedisClient is the slice of Pub/Sub the bus needs.
type RedisClient interface {
	Publish(ctx context.Context, channel string, message []byte) error
	Subscribe(ctx context.Context, channels ...string) (<-chan RedisMessage, error)
	Close() error
}

// RedisMessage is one message received from a channel.
type RedisMessage struct {
	Channel string
	Payload []byte
	Err     error
}

// RedisEventBus wraps an InMemoryEventBus with cross-instance delivery.
type RedisEventBus struct {
	local      *InMemoryEventBus
	client     RedisClient
	channel    string
	instanceID string
	log        *logger.Logger

	cancel context.CancelFunc
	done   chan struct{}
	once   sync.Once
}

// RedisEventBusConfig configures RedisEventBus.
type RedisEventBusConfig struct {
	Channel string
	Local   InMemoryEventBusConfig
	Logger  *logger.Logger
}

// eventEnvelope is the wire form of an event.
type eventEnvelope struct {
	InstanceID    string                 `json:"instance_id"`
	Type          shared.EventType       `json:"type"`
	AggregateID   string                 `json:"aggregate_id"`
	Timestamp     time.Time              `json:"timestamp"`
	CorrelationID string                 `json:"correlation_id,omitempty"`
	Payload       map[string]interface{} `json:"payload"`
}

// RemoteEvent is an event received from another instance.
type RemoteEvent struct {
	shared.BaseEvent
	Data       map[string]interface{}
	InstanceID string
}

// Payload implements shared.Event.
func (e RemoteEvent) Payload() map[string]interface{} { return e.Data }

// NewRedisEventBus starts relaying messages from the channel into the local bus.
func NewRedisEventBus(client RedisClient, config RedisEventBusConfig) (*RedisEventBus, error) {
	if config.Channel == "" {
		config.Channel = DefaultChannel
	}
	if config.Logger == nil {
		config.Logger = logger.Nop()
	}
	if config.Local.Logger == nil {
		config.Local.Logger = config.Logger
	}

	ctx, cancel := context.WithCancel(context.Background())
	msgs, err := client.Subscribe(ctx, config.Channel)
	if err != nil {
		cancel()
		return nil, fmt.Errorf("redis event bus: subscribe %s: %w", config.Channel, err)
	}

	b := &RedisEventBus{
		local:      NewInMemoryEventBus(config.Local),
		client:     client,
		channel:    config.Channel,
		instanceID: generateInstanceID(),
		log:        config.Logger.With(logger.Component("redis_eventbus")),
		cancel:     cancel,
		done:       make(chan struct{}),
	}
	go b.relay(ctx, msgs)
	return b, nil
}

// InstanceID identifies this process on the channel.
func (b *RedisEventBus) InstanceID() string { return b.instanceID }

// Subscribe implements shared.EventSubscriber.
func (b *RedisEventBus) Subscribe(eventType shared.EventType, handler shared.EventHandler) error {
	return b.local.Subscribe(eventType, handler)
}

// SubscribeAll implements shared.EventSubscriber.
func (b *RedisEventBus) SubscribeAll(handler shared.EventHandler) error {
	return b.local.SubscribeAll(handler)
}

// Publish delivers locally, then relays to Redis. A relay failure is logged;
// local subscribers have already seen the event.
func (b *RedisEventBus) Publish(event shared.Event) error {
	if err := b.local.Publish(event); err != nil {
		return err
	}

	data, err := b.encode(event)
	if err != nil {
		return fmt.Errorf("redis event bus: encode: %w", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	if err := b.client.Publish(ctx, b.channel, data); err != nil {
		b.log.Warn("relay failed",
			logger.String("event_type", string(event.EventType())),
			logger.Err(err),
		)
	}
	return nil
}

func (b *RedisEventBus) encode(event shared.Event) ([]byte, error) {
	env := eventEnvelope{
		InstanceID:  b.instanceID,
		Type:        event.EventType(),
		AggregateID: event.AggregateID(),
		Timestamp:   event.OccurredAt(),
		Payload:     event.Payload(),
	}
	if c, ok := event.(interface{ Correlation() string }); ok {
		env.CorrelationID = c.Correlation()
	}
	return json.Marshal(env)
}

func (b *RedisEventBus) relay(ctx context.Context, msgs <-chan RedisMessage) {
	defer close(b.done)
	for {
		select {
		case <-ctx.Done():
			return
		case msg, ok := <-msgs:
			if !ok {
				return
			}
			if msg.Err != nil {
				b.log.Warn("subscription error", logger.Err(msg.Err))
				continue
			}
			b.deliver(msg.Payload)
		}
	}
}

func (b *RedisEventBus) deliver(raw []byte) {
	var env eventEnvelope
	if err := json.Unmarshal(raw, &env); err != nil {
		b.log.Warn("dropping malformed event", logger.Err(err))
		return
	}
	if env.InstanceID == b.instanceID {
		return
	}

	event := RemoteEvent{
		BaseEvent: shared.BaseEvent{
			Type:          env.Type,
			Timestamp:     env.Timestamp,
			AggregateId:   env.AggregateID,
			CorrelationID: env.CorrelationID,
		},
		Data:       env.Payload,
		InstanceID: env.InstanceID,
	}
	if err := b.local.Publish(event); err != nil {
		b.log.Warn("local delivery failed", logger.Err(err))
	}
}

// Close stops the relay and the local bus.
func (b *RedisEventBus) Close() error {
	var err error
	b.once.Do(func() {
		b.cancel()
		<-b.done
		err = b.client.Close()
		_ = b.local.Close()
	})
	return err
}

var _ shared.EventBus = (*RedisEventBus)(nil)

func generateInstanceID() string {
	buf := make([]byte, 8)
	if _, err := rand.Read(buf); err != nil {
		return fmt.Sprintf("inst-%d", time.Now().UnixNano())
	}
	return hex.EncodeToString(buf)
}

// ══════════════════════════════════════════════════════════════════════════════
// GO-REDIS ADAPTER
// ══════════════════════════════════════════════════════════════════════════════

// GoRedisClient adapts *redis.Client to RedisClient.
type GoRedisClient struct {
	rdb    *redis.Client
	mu     sync.Mutex
	pubsub []*redis.PubSub
}

// NewGoRedisClient wraps an existing client. Closing the adapter closes only
// its subscriptions, not the shared client.
func NewGoRedisClient(rdb *redis.Client) *GoRedisClient {
	return &GoRedisClient{rdb: rdb}
}

// Publish implements RedisClient.
func (c *GoRedisClient) Publish(ctx context.Context, channel string, message []byte) error {
	return c.rdb.Publish(ctx, channel, message).Err()
}

// Subscribe implements RedisClient.
func (c *GoRedisClient) Subscribe(ctx context.Context, channels ...string) (<-chan RedisMessage, error) {
	ps := c.rdb.Subscribe(ctx, channels...)
	if _, err := ps.Receive(ctx); err != nil {
		_ = ps.Close()
		return nil, err
	}

	c.mu.Lock()
	c.pubsub = append(c.pubsub, ps)
	c.mu.Unlock()

	out := make(chan RedisMessage, 64)
	go func() {
		defer close(out)
		for msg := range ps.Channel() {
			select {
			case out <- RedisMessage{Channel: msg.Channel, Payload: []byte(msg.Payload)}:
			case <-ctx.Done():
				return
			}
		}
	}()
	return out, nil
}

// Close implements RedisClient.
func (c *GoRedisClient) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	var firstErr error
	for _, ps := range c.pubsub {
		if err := ps.Close(); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	c.pubsub = nil
	return firstErr
}
