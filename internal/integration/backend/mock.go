package backend

import (
	"context"
	"fmt"
	"sync/atomic"

	"github.com/futig/interview-engine/internal/entity"
	"github.com/grpc-ecosystem/go-grpc-middleware/logging/zap/ctxzap"
	"go.uber.org/zap"
)

// MockConnector stands in for the interview backend when mocks are enabled.
type MockConnector struct {
	logger     *zap.Logger
	recordings atomic.Int64
}

func NewMockConnector(logger *zap.Logger) *MockConnector {
	return &MockConnector{
		logger: logger,
	}
}

func (m *MockConnector) CreateConnection(ctx context.Context, sessionID string) (string, error) {
	ctxzap.Info(ctx, "[MOCK] creating media connection", zap.String("session_id", sessionID))
	return "mock-token-" + sessionID, nil
}

func (m *MockConnector) RequestQuestions(ctx context.Context, req *entity.AIQuestionsRequest) error {
	ctxzap.Info(ctx, "[MOCK] requesting AI questions", zap.String("interview_id", req.InterviewID))
	return nil
}

func (m *MockConnector) StartRecording(ctx context.Context, sessionID string) (string, error) {
	id := fmt.Sprintf("mock-recording-%d", m.recordings.Add(1))
	ctxzap.Info(ctx, "[MOCK] recording started", zap.String("recording_id", id))
	return id, nil
}

func (m *MockConnector) StopRecording(ctx context.Context, recordingID string, req entity.StopRecordingRequest) (*entity.AnswerTranscript, error) {
	ctxzap.Info(ctx, "[MOCK] recording stopped", zap.String("recording_id", recordingID))
	return &entity.AnswerTranscript{
		Text:       "This is a transcribed mock answer to: " + req.Question,
		Confidence: 0.5,
	}, nil
}

func (m *MockConnector) CloseSession(ctx context.Context, sessionID string, report *entity.InterviewReport) error {
	ctxzap.Info(ctx, "[MOCK] closing session",
		zap.String("session_id", sessionID),
		zap.Float64("face_score", report.FaceScore),
		zap.Float64("pronunciation_score", report.PronunciationScore),
	)
	return nil
}
