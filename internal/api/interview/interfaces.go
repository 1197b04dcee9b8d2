package interview

import (
	"context"

	"github.com/futig/interview-engine/internal/entity"
)

type InterviewUsecase interface {
	StartSession(ctx context.Context, req *entity.StartSessionRequest) (*entity.Snapshot, error)
	GetSession(ctx context.Context, sessionID string) (*entity.Snapshot, error)
	Advance(ctx context.Context, sessionID string) (*entity.Snapshot, error)
	PushFrame(ctx context.Context, sessionID string, frame *entity.Frame) error
	Signal(ctx context.Context, sessionID string, req *entity.SignalRequest) error
	GetReport(ctx context.Context, sessionID string, format entity.ResultFormat) (*entity.ReportFile, error)
	Quit(ctx context.Context, sessionID string) error
}
