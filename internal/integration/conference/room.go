// Package conference tracks the media room a session is published to.
package conference

import (
	"context"
	"errors"
	"slices"
	"sync"

	"github.com/futig/interview-engine/internal/entity"
	"github.com/grpc-ecosystem/go-grpc-middleware/logging/zap/ctxzap"
	"go.uber.org/zap"
)

const (
	EventStreamCreated   = "streamCreated"
	EventStreamDestroyed = "streamDestroyed"
	EventException       = "exception"
)

var (
	ErrEmptyToken       = errors.New("conference token is empty")
	ErrAlreadyConnected = errors.New("conference already connected")
	ErrNotConnected     = errors.New("conference not connected")
)

// Event is a room notification. StreamID is set for stream events,
// Message for exceptions.
type Event struct {
	Type     string
	StreamID string
	Message  string
}

// IsEvent reports whether a signal channel message carries a room event.
func IsEvent(eventType string) bool {
	switch eventType {
	case EventStreamCreated, EventStreamDestroyed, EventException:
		return true
	}
	return false
}

// EventFromSignal converts a signal channel message into a room event.
func EventFromSignal(env entity.SignalEnvelope) (Event, bool) {
	if !IsEvent(env.Type) {
		return Event{}, false
	}

	ev := Event{Type: env.Type}
	if env.Type == EventException {
		ev.Message = env.Data
	} else {
		ev.StreamID = env.Data
	}
	return ev, true
}

type Room struct {
	mu          sync.Mutex
	sessionID   string
	token       string
	connected   bool
	published   bool
	subscribers map[string]struct{}
	logger      *zap.Logger
}

func NewRoom(sessionID string, logger *zap.Logger) *Room {
	return &Room{
		sessionID:   sessionID,
		subscribers: make(map[string]struct{}),
		logger:      logger.With(zap.String("session_id", sessionID)),
	}
}

// Connect joins the room with a connection token.
func (r *Room) Connect(ctx context.Context, token string) error {
	if token == "" {
		return ErrEmptyToken
	}
	if err := ctx.Err(); err != nil {
		return err
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if r.connected {
		return ErrAlreadyConnected
	}
	r.token = token
	r.connected = true

	ctxzap.Info(ctx, "connected to conference", zap.String("session_id", r.sessionID))
	return nil
}

// Publish starts sending the local audio and video to the room.
func (r *Room) Publish(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if !r.connected {
		return ErrNotConnected
	}
	r.published = true

	ctxzap.Info(ctx, "publishing to conference", zap.String("session_id", r.sessionID))
	return nil
}

// Disconnect leaves the room. Safe to call more than once.
func (r *Room) Disconnect() {
	r.mu.Lock()
	defer r.mu.Unlock()

	if !r.connected {
		return
	}
	r.connected = false
	r.published = false
	r.token = ""
	clear(r.subscribers)

	r.logger.Info("disconnected from conference")
}

func (r *Room) Connected() bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.connected
}

func (r *Room) Published() bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.published
}

// HandleEvent updates the subscriber list. Exceptions are only logged.
func (r *Room) HandleEvent(ev Event) {
	r.mu.Lock()
	defer r.mu.Unlock()

	switch ev.Type {
	case EventStreamCreated:
		if ev.StreamID == "" {
			return
		}
		r.subscribers[ev.StreamID] = struct{}{}
		r.logger.Debug("stream created", zap.String("stream_id", ev.StreamID))
	case EventStreamDestroyed:
		delete(r.subscribers, ev.StreamID)
		r.logger.Debug("stream destroyed", zap.String("stream_id", ev.StreamID))
	case EventException:
		r.logger.Warn("conference exception", zap.String("message", ev.Message))
	default:
		r.logger.Debug("ignoring conference event", zap.String("type", ev.Type))
	}
}

// Subscribers returns the remote stream ids in sorted order.
func (r *Room) Subscribers() []string {
	r.mu.Lock()
	defer r.mu.Unlock()

	ids := make([]string, 0, len(r.subscribers))
	for id := range r.subscribers {
		ids = append(ids, id)
	}
	slices.Sort(ids)
	return ids
}
