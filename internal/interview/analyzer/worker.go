// Package analyzer runs facial-expression analysis in a dedicated goroutine.
//
// Callers talk to the Worker through typed request/response messages, so a
// stalled model load or a slow frame never blocks the session control loop:
// callers bound each request with a context and simply abandon it.
package analyzer

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/futig/interview-engine/internal/entity"
	"go.uber.org/zap"
)

// Detector is the expression-detection backend. DetectExpressions returns
// nil expressions when no face is present in the frame.
type Detector interface {
	LoadModels(ctx context.Context, modelURL string) error
	DetectExpressions(ctx context.Context, frame *entity.Frame) (entity.Expressions, error)
}

type MessageType string

const (
	MessageLoadModels     MessageType = "LOAD_MODELS"
	MessageAnalyzeFace    MessageType = "ANALYZE_FACE"
	MessageModelsLoaded   MessageType = "MODELS_LOADED"
	MessageAnalysisResult MessageType = "ANALYSIS_RESULT"
	MessageError          MessageType = "ERROR"
)

type Request struct {
	Type      MessageType
	ModelURL  string
	ImageData *entity.Frame
}

type Response struct {
	Type   MessageType
	Result *entity.AnalysisResult
	Error  string
}

type envelope struct {
	ctx   context.Context
	req   Request
	reply chan Response
}

// Worker serves one request at a time. The loaded flag and model URL are
// owned by the worker goroutine.
type Worker struct {
	detector Detector
	logger   *zap.Logger

	requests chan envelope
	quit     chan struct{}
	done     chan struct{}
	stopOnce sync.Once

	modelURL string
	loaded   bool
}

func NewWorker(detector Detector, modelURL string, logger *zap.Logger) *Worker {
	w := &Worker{
		detector: detector,
		logger:   logger,
		requests: make(chan envelope),
		quit:     make(chan struct{}),
		done:     make(chan struct{}),
		modelURL: modelURL,
	}

	go w.loop()

	return w
}

// Post sends a request and waits for its response.
func (w *Worker) Post(ctx context.Context, req Request) (Response, error) {
	env := envelope{
		ctx:   ctx,
		req:   req,
		reply: make(chan Response, 1),
	}

	select {
	case w.requests <- env:
	case <-ctx.Done():
		return Response{}, ctx.Err()
	case <-w.done:
		return Response{}, entity.ErrWorkerTerminated
	}

	select {
	case resp := <-env.reply:
		return resp, nil
	case <-ctx.Done():
		return Response{}, ctx.Err()
	case <-w.done:
		return Response{}, entity.ErrWorkerTerminated
	}
}

// LoadModels asks the worker to initialise its models. Repeated calls are no-ops once loaded.
func (w *Worker) LoadModels(ctx context.Context, modelURL string) error {
	resp, err := w.Post(ctx, Request{Type: MessageLoadModels, ModelURL: modelURL})
	if err != nil {
		return fmt.Errorf("post load models: %w", err)
	}

	if resp.Type == MessageError {
		return fmt.Errorf("%w: %s", entity.ErrModelsNotLoaded, resp.Error)
	}

	return nil
}

// Analyze scores a single frame.
func (w *Worker) Analyze(ctx context.Context, frame *entity.Frame) (entity.AnalysisResult, error) {
	resp, err := w.Post(ctx, Request{Type: MessageAnalyzeFace, ImageData: frame})
	if err != nil {
		return entity.AnalysisResult{}, fmt.Errorf("post analyze face: %w", err)
	}

	switch resp.Type {
	case MessageAnalysisResult:
		if resp.Result == nil {
			return entity.AnalysisResult{}, errors.New("analysis response without result")
		}
		return *resp.Result, nil
	case MessageError:
		return entity.AnalysisResult{}, errors.New(resp.Error)
	default:
		return entity.AnalysisResult{}, fmt.Errorf("unexpected response type: %s", resp.Type)
	}
}

// Terminate stops the worker. Requests in flight are abandoned.
func (w *Worker) Terminate() {
	w.stopOnce.Do(func() {
		close(w.quit)
	})
}

func (w *Worker) Done() <-chan struct{} {
	return w.done
}

func (w *Worker) loop() {
	defer close(w.done)

	for {
		select {
		case <-w.quit:
			return
		case env := <-w.requests:
			env.reply <- w.handle(env.ctx, env.req)
		}
	}
}

func (w *Worker) handle(ctx context.Context, req Request) Response {
	switch req.Type {
	case MessageLoadModels:
		if req.ModelURL != "" {
			w.modelURL = req.ModelURL
		}
		if err := w.loadModels(ctx); err != nil {
			return errorResponse(err.Error())
		}
		return Response{Type: MessageModelsLoaded}

	case MessageAnalyzeFace:
		if req.ImageData == nil || len(req.ImageData.Data) == 0 {
			return errorResponse("ImageData is required for face analysis")
		}
		if err := w.loadModels(ctx); err != nil {
			return errorResponse(err.Error())
		}
		result := w.analyze(ctx, req.ImageData)
		return Response{Type: MessageAnalysisResult, Result: &result}

	default:
		return errorResponse(fmt.Sprintf("Unknown message type: %s", req.Type))
	}
}

func (w *Worker) loadModels(ctx context.Context) error {
	if w.loaded {
		return nil
	}

	if err := w.detector.LoadModels(ctx, w.modelURL); err != nil {
		w.logger.Error("failed to load detection models",
			zap.String("model_url", w.modelURL),
			zap.Error(err),
		)
		return fmt.Errorf("load models from %s: %w", w.modelURL, err)
	}

	w.loaded = true
	w.logger.Info("detection models loaded", zap.String("model_url", w.modelURL))

	return nil
}

// analyze never fails: detector errors degrade to the empty result.
func (w *Worker) analyze(ctx context.Context, frame *entity.Frame) entity.AnalysisResult {
	expressions, err := w.detector.DetectExpressions(ctx, frame)
	if err != nil {
		w.logger.Warn("face analysis error", zap.Error(err))
		return entity.AnalysisResult{}
	}

	return Evaluate(expressions)
}

func errorResponse(message string) Response {
	if message == "" {
		message = "Unknown error"
	}
	return Response{Type: MessageError, Error: message}
}
