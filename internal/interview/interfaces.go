package interview

import (
	"context"

	"github.com/futig/interview-engine/internal/entity"
)

// Recorder controls the remote answer recording.
type Recorder interface {
	StartRecording(ctx context.Context, sessionID string) (string, error)
	StopRecording(ctx context.Context, recordingID string, req entity.StopRecordingRequest) (*entity.AnswerTranscript, error)
}

// Finalizer hands the report of a finished session over for persistence.
type Finalizer interface {
	Finalize(ctx context.Context, sessionID string, report *entity.InterviewReport, questions []entity.QuestionRecord) error
}

// Speaker reads a question prompt aloud. Failures are not reported.
type Speaker interface {
	Speak(ctx context.Context, text string)
}

type SnapshotStore interface {
	Save(snapshot *entity.Snapshot)
}
