package interview

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"

	"github.com/futig/interview-engine/internal/entity"
	"github.com/futig/interview-engine/internal/pkg/logger"
	"github.com/futig/interview-engine/internal/pkg/response"
	"github.com/go-chi/chi/v5"
	"github.com/grpc-ecosystem/go-grpc-middleware/logging/zap/ctxzap"
	"go.uber.org/zap"
)

type Handler struct {
	usecase      InterviewUsecase
	maxFrameSize int64
}

func NewHandler(usecase InterviewUsecase, maxFrameSize int64) *Handler {
	return &Handler{
		usecase:      usecase,
		maxFrameSize: maxFrameSize,
	}
}

// StartSession handles POST /interview-session - Bootstrap or resume a session
func (h *Handler) StartSession(w http.ResponseWriter, r *http.Request) {
	ctx := logger.WithAction(r.Context(), "StartSession")

	var req entity.StartSessionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.respondError(ctx, w, http.StatusBadRequest, "invalid request body", err)
		return
	}

	ctxzap.Info(ctx, "starting interview session",
		zap.String("session_id", req.SessionID),
		zap.String("statement_id", req.StatementID),
		zap.Int("questions_count", req.QuestionsCount),
	)

	snap, err := h.usecase.StartSession(ctx, &req)
	if err != nil {
		h.handleUsecaseError(ctx, w, err)
		return
	}

	response.Created(w, snap)
}

// GetSession handles GET /interview-session/{id} - Current session snapshot
func (h *Handler) GetSession(w http.ResponseWriter, r *http.Request) {
	sessionID := chi.URLParam(r, "id")
	ctx := logger.WithSession(r.Context(), sessionID, "GetSession")

	snap, err := h.usecase.GetSession(ctx, sessionID)
	if err != nil {
		h.handleUsecaseError(ctx, w, err)
		return
	}

	response.JSON(w, http.StatusOK, snap)
}

// Advance handles POST /interview-session/{id}/advance - Perform the stage action
func (h *Handler) Advance(w http.ResponseWriter, r *http.Request) {
	sessionID := chi.URLParam(r, "id")
	ctx := logger.WithSession(r.Context(), sessionID, "Advance")

	snap, err := h.usecase.Advance(ctx, sessionID)
	if err != nil {
		h.handleUsecaseError(ctx, w, err)
		return
	}

	ctxzap.Info(ctx, "session advanced", zap.String("stage", string(snap.State.Stage)))
	response.JSON(w, http.StatusOK, snap)
}

// PushFrame handles POST /interview-session/{id}/frame - Upload the latest camera frame
func (h *Handler) PushFrame(w http.ResponseWriter, r *http.Request) {
	sessionID := chi.URLParam(r, "id")
	ctx := logger.WithSession(r.Context(), sessionID, "PushFrame")

	data, err := io.ReadAll(http.MaxBytesReader(w, r.Body, h.maxFrameSize))
	if err != nil {
		var maxErr *http.MaxBytesError
		if errors.As(err, &maxErr) {
			h.respondError(ctx, w, http.StatusRequestEntityTooLarge, "frame too large", err)
			return
		}
		h.respondError(ctx, w, http.StatusBadRequest, "failed to read frame", err)
		return
	}

	frame, err := toFrame(data)
	if err != nil {
		h.handleUsecaseError(ctx, w, err)
		return
	}

	if err := h.usecase.PushFrame(ctx, sessionID, frame); err != nil {
		h.handleUsecaseError(ctx, w, err)
		return
	}

	response.NoContent(w)
}

// Signal handles POST /interview-session/{id}/signal - Deliver a pushed signal
func (h *Handler) Signal(w http.ResponseWriter, r *http.Request) {
	sessionID := chi.URLParam(r, "id")
	ctx := logger.WithSession(r.Context(), sessionID, "Signal")

	var req entity.SignalRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.respondError(ctx, w, http.StatusBadRequest, "invalid request body", err)
		return
	}

	if err := h.usecase.Signal(ctx, sessionID, &req); err != nil {
		h.handleUsecaseError(ctx, w, err)
		return
	}

	response.Accepted(w, map[string]string{"status": "accepted"})
}

// GetReport handles GET /interview-session/{id}/report - Download the final report
func (h *Handler) GetReport(w http.ResponseWriter, r *http.Request) {
	sessionID := chi.URLParam(r, "id")
	format := entity.ResultFormat(r.URL.Query().Get("format"))
	ctx := logger.AddFields(logger.WithSession(r.Context(), sessionID, "GetReport"),
		zap.String("format", string(format)),
	)

	file, err := h.usecase.GetReport(ctx, sessionID, format)
	if err != nil {
		h.handleUsecaseError(ctx, w, err)
		return
	}

	response.File(w, file.ContentType, file.FileName, file.Data)
}

// Quit handles DELETE /interview-session/{id} - Leave without a report
func (h *Handler) Quit(w http.ResponseWriter, r *http.Request) {
	sessionID := chi.URLParam(r, "id")
	ctx := logger.WithSession(r.Context(), sessionID, "Quit")

	if err := h.usecase.Quit(ctx, sessionID); err != nil {
		h.handleUsecaseError(ctx, w, err)
		return
	}

	response.NoContent(w)
}

func (h *Handler) respondError(ctx context.Context, w http.ResponseWriter, status int, message string, err error) {
	if status >= http.StatusInternalServerError {
		ctxzap.Error(ctx, message, zap.Error(err))
	} else {
		ctxzap.Warn(ctx, message, zap.Error(err))
	}
	response.Error(w, status, message)
}

func (h *Handler) handleUsecaseError(ctx context.Context, w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, entity.ErrSessionNotFound) || errors.Is(err, entity.ErrReportNotFound):
		h.respondError(ctx, w, http.StatusNotFound, "resource not found", err)
	case errors.Is(err, entity.ErrInvalidParameter) || errors.Is(err, entity.ErrInvalidFormat) ||
		errors.Is(err, entity.ErrMissingField) || errors.Is(err, entity.ErrMalformedSignal):
		h.respondError(ctx, w, http.StatusBadRequest, "invalid parameter", err)
	case errors.Is(err, entity.ErrSessionExists) || errors.Is(err, entity.ErrTransitionInProgress) ||
		errors.Is(err, entity.ErrSessionFinished) || errors.Is(err, entity.ErrNoQuestions):
		h.respondError(ctx, w, http.StatusConflict, "invalid session state", err)
	case errors.Is(err, entity.ErrBootstrapFailed) || errors.Is(err, entity.ErrFinalizeFailed) ||
		errors.Is(err, entity.ErrRecordingFailed):
		h.respondError(ctx, w, http.StatusBadGateway, "upstream service failed", err)
	default:
		h.respondError(ctx, w, http.StatusInternalServerError, "internal server error", err)
	}
}
