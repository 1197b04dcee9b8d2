package repository

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/futig/interview-engine/internal/entity"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// ReportRepository defines the interface for report persistence
type ReportRepository interface {
	SaveReport(ctx context.Context, report *entity.StoredReport) error
	GetReport(ctx context.Context, sessionID string) (*entity.StoredReport, error)
}

var _ ReportRepository = &ReportPostgres{}

// ReportPostgres implements ReportRepository using PostgreSQL
type ReportPostgres struct {
	db *pgxpool.Pool
}

func NewReportPostgres(db *pgxpool.Pool) *ReportPostgres {
	return &ReportPostgres{
		db: db,
	}
}

const upsertReportQuery = `
INSERT INTO interview_reports (
    session_id, interview_id, pronunciation_score, face_score,
    face_graph, pronunciation_graph, questions, created_at
) VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
ON CONFLICT (session_id) DO UPDATE SET
    interview_id        = EXCLUDED.interview_id,
    pronunciation_score = EXCLUDED.pronunciation_score,
    face_score          = EXCLUDED.face_score,
    face_graph          = EXCLUDED.face_graph,
    pronunciation_graph = EXCLUDED.pronunciation_graph,
    questions           = EXCLUDED.questions,
    updated_at          = NOW()`

const getReportQuery = `
SELECT session_id, interview_id, pronunciation_score, face_score,
       face_graph, pronunciation_graph, questions, created_at
FROM interview_reports
WHERE session_id = $1`

// SaveReport stores the report, replacing an earlier one of the same session.
func (r *ReportPostgres) SaveReport(ctx context.Context, report *entity.StoredReport) error {
	questions, err := json.Marshal(toQuestionRows(report.Questions))
	if err != nil {
		return fmt.Errorf("marshal questions: %w", err)
	}

	_, err = r.db.Exec(ctx, upsertReportQuery,
		report.SessionID,
		report.Report.InterviewID,
		report.Report.PronunciationScore,
		report.Report.FaceScore,
		report.Report.FaceGraph,
		report.Report.PronunciationGraph,
		questions,
		report.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("save report: %w", err)
	}

	return nil
}

func (r *ReportPostgres) GetReport(ctx context.Context, sessionID string) (*entity.StoredReport, error) {
	var (
		report    entity.StoredReport
		questions []byte
	)

	err := r.db.QueryRow(ctx, getReportQuery, sessionID).Scan(
		&report.SessionID,
		&report.Report.InterviewID,
		&report.Report.PronunciationScore,
		&report.Report.FaceScore,
		&report.Report.FaceGraph,
		&report.Report.PronunciationGraph,
		&questions,
		&report.CreatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, entity.ErrReportNotFound
		}
		return nil, fmt.Errorf("get report: %w", err)
	}

	records, err := fromQuestionRows(questions)
	if err != nil {
		return nil, err
	}
	report.Questions = records

	return &report, nil
}
