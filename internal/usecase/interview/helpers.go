package interview

import (
	"context"
	"fmt"
	"math/rand/v2"
	"sync/atomic"
	"time"

	"github.com/futig/interview-engine/internal/entity"
	"github.com/futig/interview-engine/internal/observe"
	"github.com/futig/interview-engine/internal/repository"
	"github.com/grpc-ecosystem/go-grpc-middleware/logging/zap/ctxzap"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"
)

// pickQuestions draws count distinct questions from the bank in random order.
func pickQuestions(bank []string, count int) []entity.QuestionRecord {
	count = min(count, len(bank))

	records := make([]entity.QuestionRecord, 0, count)
	for _, i := range rand.Perm(len(bank))[:count] {
		records = append(records, entity.NewQuestionRecord(bank[i]))
	}
	return records
}

// reportFinalizer closes the backend session and then stores the report, so
// a stored report always belongs to a finalized session. A retry after a
// failed save does not close the backend session again.
type reportFinalizer struct {
	reports repository.ReportRepository
	backend BackendConnector
	closed  atomic.Bool
}

func (f *reportFinalizer) Finalize(
	ctx context.Context,
	sessionID string,
	report *entity.InterviewReport,
	questions []entity.QuestionRecord,
) (err error) {
	ctx, span := observe.StartSpan(ctx, "interview.finalize",
		trace.WithAttributes(attribute.String("session.id", sessionID)))
	defer func() { observe.EndSpan(span, err) }()

	if !f.closed.Load() {
		if err := f.backend.CloseSession(ctx, sessionID, report); err != nil {
			return fmt.Errorf("close backend session: %w", err)
		}
		f.closed.Store(true)
	}

	stored := &entity.StoredReport{
		SessionID: sessionID,
		Report:    *report,
		Questions: questions,
		CreatedAt: time.Now().UTC(),
	}

	if err := f.reports.SaveReport(ctx, stored); err != nil {
		return fmt.Errorf("save report: %w", err)
	}

	return nil
}

// logSpeaker stands in for speech synthesis; the client reads the prompt itself.
type logSpeaker struct{}

func (logSpeaker) Speak(ctx context.Context, text string) {
	ctxzap.Debug(ctx, "speaking question", zap.Int("length", len(text)))
}
