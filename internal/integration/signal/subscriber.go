// Package signal receives pushed session signals over a WebSocket.
package signal

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"time"

	"github.com/coder/websocket"
	"github.com/futig/interview-engine/internal/config"
	"github.com/futig/interview-engine/internal/entity"
	pkgRetry "github.com/futig/interview-engine/internal/pkg/retry"
	"github.com/grpc-ecosystem/go-grpc-middleware/logging/zap/ctxzap"
	"go.uber.org/zap"
)

// Handler receives every well-formed message in arrival order.
type Handler func(ctx context.Context, env entity.SignalEnvelope)

type Subscriber struct {
	config config.SignalConnectorConfig
	logger *zap.Logger
}

func NewSubscriber(cfg config.SignalConnectorConfig, logger *zap.Logger) *Subscriber {
	return &Subscriber{
		config: cfg,
		logger: logger,
	}
}

// Subscribe delivers the session's signals to handler until ctx is done.
// Dropped connections are re-dialed after ReconnectDelay.
func (s *Subscriber) Subscribe(ctx context.Context, sessionID string, handler Handler) error {
	endpoint, err := s.buildURL(sessionID)
	if err != nil {
		return err
	}

	ctx = ctxzap.ToContext(ctx, s.logger.With(zap.String("session_id", sessionID)))

	for {
		err := s.listen(ctx, endpoint, handler)
		if ctx.Err() != nil {
			return nil
		}
		ctxzap.Warn(ctx, "signal channel dropped, reconnecting",
			zap.Duration("delay", s.config.ReconnectDelay),
			zap.Error(err),
		)

		select {
		case <-ctx.Done():
			return nil
		case <-time.After(s.config.ReconnectDelay):
		}
	}
}

func (s *Subscriber) listen(ctx context.Context, endpoint string, handler Handler) error {
	conn, err := s.dial(ctx, endpoint)
	if err != nil {
		return err
	}
	defer conn.CloseNow()

	if s.config.ReadLimit > 0 {
		conn.SetReadLimit(s.config.ReadLimit)
	}
	ctxzap.Info(ctx, "signal channel connected")

	for {
		typ, msg, err := conn.Read(ctx)
		if err != nil {
			if websocket.CloseStatus(err) == websocket.StatusNormalClosure {
				return errors.New("signal channel closed by peer")
			}
			return fmt.Errorf("read signal: %w", err)
		}
		if typ != websocket.MessageText {
			continue
		}

		env, ok := parseEnvelope(msg)
		if !ok {
			ctxzap.Warn(ctx, "dropping malformed signal message", zap.Int("size", len(msg)))
			continue
		}
		handler(ctx, env)
	}
}

func (s *Subscriber) dial(ctx context.Context, endpoint string) (*websocket.Conn, error) {
	headers := http.Header{}
	if s.config.Token != "" {
		headers.Set("Authorization", "Bearer "+s.config.Token)
	}

	var conn *websocket.Conn
	err := pkgRetry.Do(ctx, &s.config.Retry, "dial signal channel", nil, func(ctx context.Context) error {
		c, _, err := websocket.Dial(ctx, endpoint, &websocket.DialOptions{
			HTTPHeader: headers,
		})
		if err != nil {
			return err
		}
		conn = c
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("dial signal channel: %w", err)
	}

	return conn, nil
}

func (s *Subscriber) buildURL(sessionID string) (string, error) {
	u, err := url.Parse(s.config.URL)
	if err != nil {
		return "", fmt.Errorf("parse signal url: %w", err)
	}

	q := u.Query()
	q.Set("sessionId", sessionID)
	u.RawQuery = q.Encode()

	return u.String(), nil
}

func parseEnvelope(data []byte) (entity.SignalEnvelope, bool) {
	var env entity.SignalEnvelope
	if err := json.Unmarshal(data, &env); err != nil {
		return entity.SignalEnvelope{}, false
	}
	if env.Type == "" {
		return entity.SignalEnvelope{}, false
	}
	return env, true
}
