// Package feed replicates the session collection to every connected client.
// The store publishes whole-collection change events on the in-process bus;
// this service pushes them through redis pub/sub so all server instances
// converge, and hands subscribers full snapshots. Clients are guaranteed
// eventual convergence to the latest collection, not delivery of every
// intermediate snapshot.
package feed

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"sync"

	"github.com/redis/go-redis/v9"

	"github.com/shiomura/utakai/internal/domain"
	"github.com/shiomura/utakai/internal/event"
	"github.com/shiomura/utakai/internal/telemetry"
)

type Config struct {
	EventBus *event.Bus
	Redis    redis.UniversalClient
	Prefix   string

	// Snapshot reads the current collection for the initial delivery on
	// Subscribe. Optional; without it subscribers only see changes.
	Snapshot func(ctx context.Context) ([]domain.Session, error)
}

type Service struct {
	eb       *event.Bus
	redis    redis.UniversalClient
	prefix   string
	snapshot func(ctx context.Context) ([]domain.Session, error)
}

// Notification is the envelope every feed message travels in.
type Notification struct {
	Event string          `json:"event"`
	Data  json.RawMessage `json:"data"`
}

func NewService(c Config) *Service {
	s := &Service{
		eb:       c.EventBus,
		redis:    c.Redis,
		prefix:   c.Prefix,
		snapshot: c.Snapshot,
	}

	s.eb.Subscribe(domain.EventNameSessionsChanged, func(ctx context.Context, e event.Event) error {
		return s.publishSessions(ctx, e.(domain.EventSessionsChanged))
	})

	s.eb.Subscribe(domain.EventNameRosterChanged, func(ctx context.Context, e event.Event) error {
		return s.publishRoster(ctx, e.(domain.EventRosterChanged))
	})

	return s
}

func (s *Service) publishSessions(ctx context.Context, e domain.EventSessionsChanged) error {
	data, err := domain.EncodeSessions(e.Sessions)
	if err != nil {
		return fmt.Errorf("feed: encode sessions: %w", err)
	}

	return s.publish(ctx, domain.EventNameSessionsChanged, data)
}

func (s *Service) publishRoster(ctx context.Context, e domain.EventRosterChanged) error {
	data, err := json.Marshal(e.Names)
	if err != nil {
		return fmt.Errorf("feed: encode roster: %w", err)
	}

	return s.publish(ctx, domain.EventNameRosterChanged, data)
}

func (s *Service) publish(ctx context.Context, name string, data json.RawMessage) error {
	b, err := json.Marshal(Notification{Event: name, Data: data})
	if err != nil {
		return fmt.Errorf("feed: marshal %s: %w", name, err)
	}

	if err := s.redis.Publish(ctx, s.channel(), b).Err(); err != nil {
		return fmt.Errorf("feed: publish %s: %w", name, err)
	}

	telemetry.FeedPublishes.Inc()
	return nil
}

// Subscribe delivers the full session collection to onChange: once with the
// current collection right away, then again every time any session anywhere
// in the collection changes. It returns an unsubscribe function. A corrupt
// broadcast degrades to an empty collection rather than killing the
// subscription.
func (s *Service) Subscribe(ctx context.Context, onChange func([]domain.Session)) (func(), error) {
	unsubscribe, err := s.SubscribeRaw(ctx, func(n Notification) {
		if n.Event != domain.EventNameSessionsChanged {
			return
		}

		sessions, err := domain.DecodeSessions(n.Data)
		if err != nil {
			slog.ErrorContext(ctx, "feed: corrupt sessions broadcast", "error", err)
		}
		onChange(sessions)
	})
	if err != nil {
		return nil, err
	}

	if s.snapshot != nil {
		sessions, err := s.snapshot(ctx)
		if err != nil {
			// The subscription stands; the next write catches the client up.
			slog.ErrorContext(ctx, "feed: initial snapshot read failed", "error", err)
		} else {
			onChange(sessions)
		}
	}

	return unsubscribe, nil
}

// SubscribeRaw delivers every feed notification undecoded. The websocket
// fan-out uses this to forward envelopes verbatim.
func (s *Service) SubscribeRaw(ctx context.Context, onMessage func(Notification)) (func(), error) {
	ps := s.redis.Subscribe(ctx, s.channel())

	// Force the SUBSCRIBE round-trip so a dead redis fails here, not later.
	if _, err := ps.Receive(ctx); err != nil {
		_ = ps.Close()
		return nil, fmt.Errorf("feed: subscribe: %w", err)
	}

	done := make(chan struct{})
	go func() {
		ch := ps.Channel()
		for {
			select {
			case <-done:
				return
			case <-ctx.Done():
				return
			case msg, ok := <-ch:
				if !ok {
					return
				}

				var n Notification
				if err := json.Unmarshal([]byte(msg.Payload), &n); err != nil {
					slog.ErrorContext(ctx, "feed: corrupt notification", "error", err)
					continue
				}
				onMessage(n)
			}
		}
	}()

	var once sync.Once
	unsubscribe := func() {
		once.Do(func() {
			close(done)
			_ = ps.Close()
		})
	}

	return unsubscribe, nil
}

func (s *Service) channel() string {
	return fmt.Sprintf("%s:changes", s.prefix)
}
