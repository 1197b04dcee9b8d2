package signal

import (
	"context"

	"github.com/grpc-ecosystem/go-grpc-middleware/logging/zap/ctxzap"
	"go.uber.org/zap"
)

// MockSubscriber delivers nothing; signals can still be posted over HTTP.
type MockSubscriber struct {
	logger *zap.Logger
}

func NewMockSubscriber(logger *zap.Logger) *MockSubscriber {
	return &MockSubscriber{
		logger: logger,
	}
}

func (m *MockSubscriber) Subscribe(ctx context.Context, sessionID string, handler Handler) error {
	ctxzap.Info(ctx, "[MOCK] subscribed to signal channel", zap.String("session_id", sessionID))
	<-ctx.Done()
	return nil
}
