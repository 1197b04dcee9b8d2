package interview

import (
	"context"

	"github.com/futig/interview-engine/internal/entity"
	"github.com/futig/interview-engine/internal/integration/signal"
)

type BackendConnector interface {
	CreateConnection(ctx context.Context, sessionID string) (string, error)
	RequestQuestions(ctx context.Context, req *entity.AIQuestionsRequest) error
	StartRecording(ctx context.Context, sessionID string) (string, error)
	StopRecording(ctx context.Context, recordingID string, req entity.StopRecordingRequest) (*entity.AnswerTranscript, error)
	CloseSession(ctx context.Context, sessionID string, report *entity.InterviewReport) error
}

type SignalSubscriber interface {
	Subscribe(ctx context.Context, sessionID string, handler signal.Handler) error
}

type SnapshotStore interface {
	Save(snapshot *entity.Snapshot)
	Get(sessionID string) (*entity.Snapshot, bool)
	Delete(sessionID string)
}
