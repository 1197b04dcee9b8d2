package interview

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/futig/interview-engine/internal/config"
	"github.com/futig/interview-engine/internal/entity"
	"github.com/futig/interview-engine/internal/integration/conference"
	"github.com/futig/interview-engine/internal/interview"
	"github.com/futig/interview-engine/internal/interview/analyzer"
	"github.com/futig/interview-engine/internal/interview/sampler"
	"github.com/futig/interview-engine/internal/observe"
	"github.com/futig/interview-engine/internal/pkg/formatter"
	"github.com/futig/interview-engine/internal/pkg/logger"
	"github.com/futig/interview-engine/internal/repository"
	"github.com/google/uuid"
	"github.com/grpc-ecosystem/go-grpc-middleware/logging/zap/ctxzap"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

// session groups the machine with the resources it was bootstrapped with.
type session struct {
	id       string
	machine  *interview.Machine
	frames   *sampler.FrameBuffer
	room     *conference.Room
	worker   *analyzer.Worker
	cancel   context.CancelFunc
	stopOnce sync.Once
}

// InterviewUsecase owns the running interview sessions
type InterviewUsecase struct {
	backend    BackendConnector
	detector   analyzer.Detector
	subscriber SignalSubscriber
	reports    repository.ReportRepository
	snapshots  SnapshotStore
	formatters *formatter.Factory
	cfg        config.InterviewConfig
	useAI      bool
	questions  []string
	metrics    *observe.Metrics
	logger     *zap.Logger

	baseCtx    context.Context
	baseCancel context.CancelFunc

	mu       sync.Mutex
	sessions map[string]*session
	// starting reserves ids whose bootstrap is in progress
	starting map[string]struct{}
}

// NewUsecase creates a new interview use case
func NewUsecase(
	backend BackendConnector,
	detector analyzer.Detector,
	subscriber SignalSubscriber,
	reports repository.ReportRepository,
	snapshots SnapshotStore,
	formatters *formatter.Factory,
	cfg config.InterviewConfig,
	useAI bool,
	questions []string,
	metrics *observe.Metrics,
	logger *zap.Logger,
) *InterviewUsecase {
	baseCtx, baseCancel := context.WithCancel(ctxzap.ToContext(context.Background(), logger))

	return &InterviewUsecase{
		backend:    backend,
		detector:   detector,
		subscriber: subscriber,
		reports:    reports,
		snapshots:  snapshots,
		formatters: formatters,
		cfg:        cfg,
		useAI:      useAI,
		questions:  questions,
		metrics:    metrics,
		logger:     logger,
		baseCtx:    baseCtx,
		baseCancel: baseCancel,
		sessions:   make(map[string]*session),
		starting:   make(map[string]struct{}),
	}
}

// StartSession bootstraps a session and starts its control loop. A session
// with a stored snapshot resumes where it stopped.
func (uc *InterviewUsecase) StartSession(ctx context.Context, req *entity.StartSessionRequest) (*entity.Snapshot, error) {
	ctx = logger.WithAction(ctx, "start_session")

	if req.SessionID == "" {
		return nil, fmt.Errorf("%w: %w: session_id", entity.ErrBootstrapFailed, entity.ErrMissingField)
	}
	if req.QuestionsCount < 0 {
		return nil, fmt.Errorf("%w: questions_count must not be negative", entity.ErrInvalidParameter)
	}
	ctx = logger.AddFields(ctx, zap.String("session_id", req.SessionID))

	if err := uc.reserve(req.SessionID); err != nil {
		return nil, err
	}
	sess, snap, err := uc.bootstrap(ctx, req)
	uc.mu.Lock()
	delete(uc.starting, req.SessionID)
	if err == nil {
		uc.sessions[req.SessionID] = sess
	}
	uc.mu.Unlock()
	if err != nil {
		return nil, err
	}

	ctxzap.Info(ctx, "interview session started",
		zap.String("interview_id", snap.InterviewID),
		zap.String("stage", string(snap.State.Stage)),
		zap.Int("questions", len(snap.Questions)),
	)

	return snap, nil
}

func (uc *InterviewUsecase) reserve(sessionID string) error {
	uc.mu.Lock()
	defer uc.mu.Unlock()

	if _, ok := uc.sessions[sessionID]; ok {
		return entity.ErrSessionExists
	}
	if _, ok := uc.starting[sessionID]; ok {
		return entity.ErrSessionExists
	}
	uc.starting[sessionID] = struct{}{}
	return nil
}

func (uc *InterviewUsecase) bootstrap(ctx context.Context, req *entity.StartSessionRequest) (*session, *entity.Snapshot, error) {
	interviewID := req.InterviewID
	statementID := req.StatementID
	var (
		records []entity.QuestionRecord
		state   entity.SessionState
		resumed bool
	)

	if stored, ok := uc.snapshots.Get(req.SessionID); ok {
		if stored.Finished {
			return nil, nil, entity.ErrSessionFinished
		}
		records = stored.Questions
		state = stored.State
		if stored.InterviewID != "" {
			interviewID = stored.InterviewID
		}
		if stored.StatementID != "" {
			statementID = stored.StatementID
		}
		resumed = true
		ctxzap.Info(ctx, "resuming session from snapshot",
			zap.String("stage", string(state.Stage)),
			zap.Int("question_cursor", state.QuestionCursor),
		)
	}

	if interviewID == "" {
		interviewID = uuid.NewString()
	}

	count := req.QuestionsCount
	if count == 0 {
		count = uc.cfg.DefaultQuestionsCount
	}
	// AI sessions start from the preset list too; a generated list
	// replaces the records after the current one when it arrives.
	if !resumed {
		records = pickQuestions(uc.questions, count)
	}

	bootCtx, cancel := context.WithTimeout(ctx, uc.cfg.BootstrapTimeout)
	defer cancel()
	bootCtx, span := observe.StartSpan(bootCtx, "interview.bootstrap",
		trace.WithAttributes(attribute.String("session.id", req.SessionID)))

	room := conference.NewRoom(req.SessionID, uc.logger)
	worker := analyzer.NewWorker(uc.detector, uc.cfg.ModelURL, uc.logger.Named("analyzer").With(zap.String("session_id", req.SessionID)))

	g, gctx := errgroup.WithContext(bootCtx)
	g.Go(func() error {
		token, err := uc.backend.CreateConnection(gctx, req.SessionID)
		if err != nil {
			return fmt.Errorf("create connection: %w", err)
		}
		if err := room.Connect(gctx, token); err != nil {
			return fmt.Errorf("connect to conference: %w", err)
		}
		if err := room.Publish(gctx); err != nil {
			return fmt.Errorf("publish to conference: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		if err := worker.LoadModels(gctx, uc.cfg.ModelURL); err != nil {
			return fmt.Errorf("load expression models: %w", err)
		}
		return nil
	})
	err := g.Wait()
	observe.EndSpan(span, err)
	if err != nil {
		worker.Terminate()
		room.Disconnect()
		ctxzap.Error(ctx, "session bootstrap failed", zap.Error(err))
		return nil, nil, fmt.Errorf("%w: %v", entity.ErrBootstrapFailed, err)
	}

	sessCtx, sessCancel := context.WithCancel(uc.baseCtx)
	sess := &session{
		id:     req.SessionID,
		frames: sampler.NewFrameBuffer(),
		room:   room,
		worker: worker,
		cancel: sessCancel,
	}

	machineCfg := interview.Config{
		SessionID:       req.SessionID,
		InterviewID:     interviewID,
		StatementID:     statementID,
		Questions:       records,
		State:           state,
		UseAI:           uc.useAI,
		AnswerSeconds:   uc.cfg.AnswerSeconds,
		TimerUnit:       uc.cfg.TimerUnit,
		SampleInterval:  uc.cfg.SampleInterval,
		AnalysisTimeout: uc.cfg.AnalysisTimeout,
		Analyzer:        worker,
		Frames:          sess.frames,
		Finalizer:       &reportFinalizer{reports: uc.reports, backend: uc.backend},
		Speaker:         logSpeaker{},
		Store:           uc.snapshots,
		OnTeardown:      func() { uc.teardown(sess) },
		Metrics:         uc.metrics,
		Logger:          uc.logger.Named("interview"),
	}
	if uc.useAI {
		machineCfg.Recorder = uc.backend
	}

	machine, err := interview.New(machineCfg)
	if err != nil {
		sessCancel()
		worker.Terminate()
		room.Disconnect()
		return nil, nil, fmt.Errorf("%w: %w", entity.ErrBootstrapFailed, err)
	}
	sess.machine = machine

	go machine.Run(sessCtx)
	go uc.subscribe(sessCtx, sess)

	if uc.useAI && !resumed && statementID != "" {
		go uc.requestQuestions(sessCtx, &entity.AIQuestionsRequest{
			InterviewID: interviewID,
			SessionID:   req.SessionID,
			StatementID: statementID,
			QuestionCnt: count,
		})
	}

	snap, err := machine.Snapshot(ctx)
	if err != nil {
		machine.Close()
		return nil, nil, fmt.Errorf("read initial snapshot: %w", err)
	}

	return sess, snap, nil
}

func (uc *InterviewUsecase) subscribe(ctx context.Context, sess *session) {
	ctx = logger.AddFields(ctx, zap.String("session_id", sess.id))

	err := uc.subscriber.Subscribe(ctx, sess.id, func(ctx context.Context, env entity.SignalEnvelope) {
		if err := uc.route(ctx, sess, env.Type, env.Data); err != nil {
			ctxzap.Debug(ctx, "signal not applied", zap.String("type", env.Type), zap.Error(err))
		}
	})
	if err != nil {
		ctxzap.Error(ctx, "signal subscription failed", zap.Error(err))
	}
}

func (uc *InterviewUsecase) requestQuestions(ctx context.Context, req *entity.AIQuestionsRequest) {
	ctx = logger.WithAction(ctx, "request_questions")
	if err := uc.backend.RequestQuestions(ctx, req); err != nil {
		ctxzap.Warn(ctx, "failed to request AI questions", zap.Error(err))
	}
}

// route hands conference events to the room and everything else to the machine.
func (uc *InterviewUsecase) route(ctx context.Context, sess *session, eventType, data string) error {
	if ev, ok := conference.EventFromSignal(entity.SignalEnvelope{Type: eventType, Data: data}); ok {
		sess.room.HandleEvent(ev)
		return nil
	}
	return sess.machine.Signal(ctx, eventType, data)
}

// teardown releases the session resources once its control loop has stopped.
func (uc *InterviewUsecase) teardown(sess *session) {
	sess.stopOnce.Do(func() {
		sess.cancel()
		sess.room.Disconnect()
		sess.worker.Terminate()
		sess.frames.Reset()
		uc.logger.Info("interview session torn down", zap.String("session_id", sess.id))
	})

	uc.mu.Lock()
	if uc.sessions[sess.id] == sess {
		delete(uc.sessions, sess.id)
	}
	uc.mu.Unlock()
}

func (uc *InterviewUsecase) get(sessionID string) (*session, bool) {
	uc.mu.Lock()
	defer uc.mu.Unlock()
	sess, ok := uc.sessions[sessionID]
	return sess, ok
}

// Advance moves the session to its next stage.
func (uc *InterviewUsecase) Advance(ctx context.Context, sessionID string) (*entity.Snapshot, error) {
	ctx = logger.WithAction(ctx, "advance")

	sess, ok := uc.get(sessionID)
	if !ok {
		if stored, ok := uc.snapshots.Get(sessionID); ok && stored.Finished {
			return nil, entity.ErrSessionFinished
		}
		return nil, entity.ErrSessionNotFound
	}

	snap, err := sess.machine.Advance(ctx)
	if err != nil {
		if errors.Is(err, entity.ErrSessionClosed) {
			return nil, entity.ErrSessionNotFound
		}
		return nil, err
	}

	return snap, nil
}

// PushFrame replaces the latest video frame of the session.
func (uc *InterviewUsecase) PushFrame(ctx context.Context, sessionID string, frame *entity.Frame) error {
	if frame == nil || len(frame.Data) == 0 {
		return fmt.Errorf("%w: frame", entity.ErrMissingField)
	}

	sess, ok := uc.get(sessionID)
	if !ok {
		return entity.ErrSessionNotFound
	}

	sess.frames.Put(frame)
	return nil
}

// Signal applies a signal posted over HTTP.
func (uc *InterviewUsecase) Signal(ctx context.Context, sessionID string, req *entity.SignalRequest) error {
	ctx = logger.WithAction(ctx, "signal")

	if req.Type == "" {
		return fmt.Errorf("%w: type", entity.ErrMissingField)
	}

	sess, ok := uc.get(sessionID)
	if !ok {
		return entity.ErrSessionNotFound
	}

	err := uc.route(ctx, sess, req.Type, req.Data)
	if errors.Is(err, entity.ErrSessionClosed) {
		return entity.ErrSessionNotFound
	}
	return err
}

// GetSession returns the live snapshot, or the stored one once the session
// is no longer running.
func (uc *InterviewUsecase) GetSession(ctx context.Context, sessionID string) (*entity.Snapshot, error) {
	if sess, ok := uc.get(sessionID); ok {
		snap, err := sess.machine.Snapshot(ctx)
		if err == nil {
			return snap, nil
		}
		if !errors.Is(err, entity.ErrSessionClosed) {
			return nil, err
		}
	}

	if stored, ok := uc.snapshots.Get(sessionID); ok {
		return stored, nil
	}

	return nil, entity.ErrSessionNotFound
}

// GetReport renders the stored report of a finished session.
func (uc *InterviewUsecase) GetReport(ctx context.Context, sessionID string, format entity.ResultFormat) (*entity.ReportFile, error) {
	ctx = logger.WithAction(ctx, "get_report")

	if format == "" {
		format = entity.FormatJSON
	}
	if !format.IsValid() {
		return nil, fmt.Errorf("%w: %s", entity.ErrInvalidFormat, format)
	}

	stored, err := uc.reports.GetReport(ctx, sessionID)
	if err != nil {
		return nil, fmt.Errorf("get report: %w", err)
	}

	f, err := uc.formatters.Create(format)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", entity.ErrInvalidFormat, err)
	}

	data, err := f.Format(stored)
	if err != nil {
		ctxzap.Error(ctx, "failed to format report", zap.String("format", string(format)), zap.Error(err))
		return nil, fmt.Errorf("format report: %w", err)
	}

	return &entity.ReportFile{
		Data:        data,
		ContentType: f.ContentType(),
		FileName:    "interview-report-" + sessionID + f.FileExtension(),
	}, nil
}

// Quit tears the session down without producing a report.
func (uc *InterviewUsecase) Quit(ctx context.Context, sessionID string) error {
	ctx = logger.WithAction(ctx, "quit")

	sess, ok := uc.get(sessionID)
	if !ok {
		return entity.ErrSessionNotFound
	}

	sess.machine.Close()
	select {
	case <-sess.machine.Done():
	case <-ctx.Done():
		return ctx.Err()
	}

	uc.teardown(sess)
	uc.snapshots.Delete(sessionID)

	ctxzap.Info(ctx, "interview session quit", zap.String("session_id", sessionID))
	return nil
}

// Shutdown stops every running session and waits for their loops to exit.
func (uc *InterviewUsecase) Shutdown(ctx context.Context) error {
	uc.mu.Lock()
	sessions := make([]*session, 0, len(uc.sessions))
	for _, sess := range uc.sessions {
		sessions = append(sessions, sess)
	}
	uc.mu.Unlock()

	for _, sess := range sessions {
		sess.machine.Close()
	}

	defer uc.baseCancel()
	for _, sess := range sessions {
		select {
		case <-sess.machine.Done():
			uc.teardown(sess)
		case <-ctx.Done():
			return fmt.Errorf("shutdown interview sessions: %w", ctx.Err())
		}
	}

	uc.logger.Info("interview sessions stopped", zap.Int("count", len(sessions)))
	return nil
}
