package expression

import (
	"context"
	"hash/fnv"

	"github.com/futig/interview-engine/internal/entity"
	"github.com/grpc-ecosystem/go-grpc-middleware/logging/zap/ctxzap"
	"go.uber.org/zap"
)

// mockProfiles are returned round-robin by frame hash so the live score moves.
var mockProfiles = []entity.Expressions{
	{"neutral": 0.7, "happy": 0.25, "sad": 0.05},
	{"happy": 0.6, "neutral": 0.35, "surprised": 0.05},
	{"neutral": 0.5, "happy": 0.1, "fearful": 0.2, "sad": 0.2},
	nil, // no face
}

// MockConnector is a detector that derives expressions from the frame bytes.
type MockConnector struct {
	logger *zap.Logger
}

func NewMockConnector(logger *zap.Logger) *MockConnector {
	return &MockConnector{
		logger: logger,
	}
}

func (m *MockConnector) LoadModels(ctx context.Context, modelURL string) error {
	ctxzap.Info(ctx, "[MOCK] loading expression models", zap.String("model_url", modelURL))
	return nil
}

func (m *MockConnector) DetectExpressions(ctx context.Context, frame *entity.Frame) (entity.Expressions, error) {
	h := fnv.New32a()
	_, _ = h.Write(frame.Data)

	return mockProfiles[h.Sum32()%uint32(len(mockProfiles))], nil
}
