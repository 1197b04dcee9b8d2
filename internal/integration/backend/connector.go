package backend

import (
	"context"
	"fmt"
	"net/http"
	"net/url"

	"github.com/futig/interview-engine/internal/config"
	"github.com/futig/interview-engine/internal/entity"
	"github.com/futig/interview-engine/internal/integration/common"
	pkgRetry "github.com/futig/interview-engine/internal/pkg/retry"
	pkghttp "github.com/futig/interview-engine/pkg/http"
	"github.com/grpc-ecosystem/go-grpc-middleware/logging/zap/ctxzap"
	"go.uber.org/zap"
)

// Connector talks to the interview backend: media session handshake,
// AI question generation, answer recording and session close.
type Connector struct {
	config    config.BackendConnectorConfig
	connector *pkghttp.Connector
	logger    *zap.Logger
}

func NewConnector(
	cfg config.BackendConnectorConfig,
	logger *zap.Logger,
) *Connector {
	return &Connector{
		connector: common.NewBaseConnector(cfg.HTTPClientConfig, logger),
		config:    cfg,
		logger:    logger,
	}
}

// CreateConnection opens a media connection for the session and returns its token.
func (c *Connector) CreateConnection(ctx context.Context, sessionID string) (string, error) {
	ctxzap.Info(ctx, "creating media connection", zap.String("session_id", sessionID))

	endpoint := fmt.Sprintf("%s/%s/connections", c.config.SessionsEndpoint, url.PathEscape(sessionID))
	token, err := c.connector.DoTextRequest(ctx, http.MethodPost, endpoint, nil)
	if err != nil {
		return "", fmt.Errorf("create connection failed: %w", err)
	}

	if token == "" {
		return "", fmt.Errorf("create connection failed: empty token")
	}

	return token, nil
}

// RequestQuestions asks the backend to generate questions. The generated
// list arrives later on the signal channel.
func (c *Connector) RequestQuestions(ctx context.Context, req *entity.AIQuestionsRequest) error {
	ctxzap.Info(ctx, "requesting AI questions",
		zap.String("interview_id", req.InterviewID),
		zap.Int("question_count", req.QuestionCnt),
	)

	err := c.connector.DoRequest(ctx, http.MethodPost, c.config.QuestionsEndpoint, req, nil)
	if err != nil {
		return fmt.Errorf("request questions failed: %w", err)
	}

	return nil
}

// StartRecording starts recording the candidate's answer and returns the recording id.
func (c *Connector) StartRecording(ctx context.Context, sessionID string) (string, error) {
	endpoint := fmt.Sprintf("%s/start/%s", c.config.RecordingEndpoint, url.PathEscape(sessionID))

	recordingID, err := c.connector.DoTextRequest(ctx, http.MethodPost, endpoint, nil)
	if err != nil {
		return "", fmt.Errorf("start recording failed: %w", err)
	}

	ctxzap.Info(ctx, "recording started", zap.String("recording_id", recordingID))

	return recordingID, nil
}

// StopRecording stops the recording and returns the transcribed answer.
func (c *Connector) StopRecording(ctx context.Context, recordingID string, req entity.StopRecordingRequest) (*entity.AnswerTranscript, error) {
	endpoint := fmt.Sprintf("%s/stop/%s", c.config.RecordingEndpoint, url.PathEscape(recordingID))

	var resp entity.AnswerTranscript
	err := pkgRetry.Do(ctx, &c.config.Retry, "stop_recording", pkghttp.IsRetryable, func(ctx context.Context) error {
		return c.connector.DoRequest(ctx, http.MethodPost, endpoint, req, &resp)
	})
	if err != nil {
		return nil, fmt.Errorf("stop recording failed: %w", err)
	}

	ctxzap.Info(ctx, "recording stopped",
		zap.String("recording_id", recordingID),
		zap.Int("answer_length", len(resp.Text)),
		zap.Float64("confidence", resp.Confidence),
	)

	return &resp, nil
}

// CloseSession closes the media session and hands the interview report over.
func (c *Connector) CloseSession(ctx context.Context, sessionID string, report *entity.InterviewReport) error {
	endpoint := fmt.Sprintf("%s/%s", c.config.SessionsEndpoint, url.PathEscape(sessionID))

	err := pkgRetry.Do(ctx, &c.config.Retry, "close_session", pkghttp.IsRetryable, func(ctx context.Context) error {
		return c.connector.DoRequest(ctx, http.MethodDelete, endpoint, report, nil)
	})
	if err != nil {
		return fmt.Errorf("close session failed: %w", err)
	}

	ctxzap.Info(ctx, "session closed on backend", zap.String("session_id", sessionID))

	return nil
}
