package realtime

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/url"
	"time"

	"github.com/gigglobal/gigs/pkg/log"
	"github.com/gorilla/websocket"
)

const (
	defaultInitialBackoff = time.Second
	defaultMaxBackoff     = 30 * time.Second
	// The server sends heartbeats well within this window.
	readWait = 90 * time.Second
)

// Subscriber reads JSON events from the notification websocket and
// broadcasts them into a Hub, reconnecting with capped exponential backoff
// until its context ends.
type Subscriber struct {
	url            string
	hub            *Hub
	dialer         websocket.Dialer
	initialBackoff time.Duration
	maxBackoff     time.Duration
	log            *log.Logger
}

// SubscriberOption customizes a Subscriber.
type SubscriberOption func(*Subscriber)

// WithBackoff sets the initial and maximum reconnect delay.
func WithBackoff(initial, max time.Duration) SubscriberOption {
	return func(s *Subscriber) {
		if initial > 0 {
			s.initialBackoff = initial
		}
		if max >= s.initialBackoff {
			s.maxBackoff = max
		}
	}
}

// NewSubscriber returns a subscriber for the ws:// or wss:// endpoint
// socketURL feeding hub.
func NewSubscriber(socketURL string, hub *Hub, opts ...SubscriberOption) (*Subscriber, error) {
	u, err := url.Parse(socketURL)
	if err != nil {
		return nil, fmt.Errorf("parsing socket url: %w", err)
	}
	if u.Scheme != "ws" && u.Scheme != "wss" {
		return nil, fmt.Errorf("invalid socket url %q: scheme must be ws or wss", socketURL)
	}
	if hub == nil {
		return nil, errors.New("nil hub")
	}

	s := &Subscriber{
		url: u.String(),
		hub: hub,
		dialer: websocket.Dialer{
			Proxy:            websocket.DefaultDialer.Proxy,
			HandshakeTimeout: 10 * time.Second,
		},
		initialBackoff: defaultInitialBackoff,
		maxBackoff:     defaultMaxBackoff,
		log:            log.ForService("realtime"),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s, nil
}

// Run blocks, keeping a connection open until ctx is done. It returns
// ctx.Err().
func (s *Subscriber) Run(ctx context.Context) error {
	backoff := s.initialBackoff
	for {
		if ctx.Err() != nil {
			return ctx.Err()
		}

		conn, _, err := s.dialer.DialContext(ctx, s.url, nil)
		if err != nil {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			s.log.Warnf("connect to %s failed (%v), retrying in %s", s.url, err, backoff)
			if !sleep(ctx, backoff) {
				return ctx.Err()
			}
			backoff = min(backoff*2, s.maxBackoff)
			continue
		}

		s.log.Debugf("connected to %s", s.url)
		backoff = s.initialBackoff
		s.readLoop(ctx, conn)
		s.log.Debugf("disconnected from %s", s.url)

		if !sleep(ctx, 250*time.Millisecond) {
			return ctx.Err()
		}
	}
}

func (s *Subscriber) readLoop(ctx context.Context, conn *websocket.Conn) {
	done := make(chan struct{})
	defer close(done)
	go func() {
		select {
		case <-ctx.Done():
			_ = conn.Close()
		case <-done:
		}
	}()
	defer func() {
		if err := conn.Close(); err != nil && ctx.Err() == nil {
			s.log.Debugf("closing connection: %v", err)
		}
	}()

	for {
		if err := conn.SetReadDeadline(time.Now().Add(readWait)); err != nil {
			return
		}
		_, data, err := conn.ReadMessage()
		if err != nil {
			if ctx.Err() == nil && !websocket.IsCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
				s.log.Debugf("read: %v", err)
			}
			return
		}
		var e Event
		if err := json.Unmarshal(data, &e); err != nil {
			s.log.Debugf("skipping malformed event: %v", err)
			continue
		}
		if e.Type == "" || e.Type == Heartbeat {
			continue
		}
		s.hub.Broadcast(e)
	}
}

func sleep(ctx context.Context, d time.Duration) bool {
	select {
	case <-time.After(d):
		return true
	case <-ctx.Done():
		return false
	}
}
