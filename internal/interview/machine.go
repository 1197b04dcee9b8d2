// Package interview drives one interview session through its stages.
//
// A Machine owns all mutable session state. Every mutation runs on the
// control loop started by Run: external callers, the countdown, the face
// sampler and network completions all post closures into it.
package interview

import (
	"context"
	"errors"
	"fmt"
	"math"
	"sync"
	"time"

	"github.com/futig/interview-engine/internal/entity"
	"github.com/futig/interview-engine/internal/interview/countdown"
	"github.com/futig/interview-engine/internal/interview/report"
	"github.com/futig/interview-engine/internal/interview/sampler"
	"github.com/futig/interview-engine/internal/interview/signal"
	"github.com/futig/interview-engine/internal/observe"
	"go.uber.org/zap"
)

const (
	DefaultAnswerSeconds = 60

	MockSpeechScore = 50
	MockAnswer      = "I applied for this position because I enjoy building products that people use every day. " +
		"I like turning a rough idea into something reliable, and I keep learning from every project and every teammate I work with."
	MockFeedback = "The answer clearly explains the motivation and stays focused on the role. " +
		"It would be stronger with a concrete example from a past project and a short note on how the candidate plans to keep growing."
)

type Config struct {
	SessionID   string
	InterviewID string
	StatementID string

	// Questions and State restore a previously persisted session.
	Questions []entity.QuestionRecord
	State     entity.SessionState

	UseAI           bool
	AnswerSeconds   int
	TimerUnit       time.Duration
	SampleInterval  time.Duration
	AnalysisTimeout time.Duration

	Analyzer  sampler.Analyzer
	Frames    sampler.FrameSource
	Recorder  Recorder
	Finalizer Finalizer
	Speaker   Speaker
	Store     SnapshotStore

	// OnTeardown runs once after the control loop has stopped.
	OnTeardown func()

	Metrics *observe.Metrics
	Logger  *zap.Logger
}

type outcome struct {
	snapshot *entity.Snapshot
	err      error
}

type Machine struct {
	sessionID     string
	interviewID   string
	statementID   string
	useAI         bool
	answerSeconds int

	recorder   Recorder
	finalizer  Finalizer
	speaker    Speaker
	store      SnapshotStore
	onTeardown func()
	metrics    *observe.Metrics
	logger     *zap.Logger

	ops  chan func()
	quit chan struct{}
	done chan struct{}

	// ctx is the control loop context, set by Run before the loop starts.
	ctx       context.Context
	closeOnce sync.Once

	// owned by the control loop
	state       entity.SessionState
	records     []entity.QuestionRecord
	recordingID string
	pending     bool
	finished    bool
	closing     bool // set once finalized, stops the loop after the current op
	result      *entity.InterviewReport

	sampler   *sampler.Sampler
	countdown *countdown.Countdown
}

func New(cfg Config) (*Machine, error) {
	if cfg.SessionID == "" {
		return nil, fmt.Errorf("%w: session id", entity.ErrMissingField)
	}
	if cfg.Finalizer == nil {
		return nil, fmt.Errorf("%w: finalizer", entity.ErrMissingField)
	}
	if cfg.AnswerSeconds <= 0 {
		cfg.AnswerSeconds = DefaultAnswerSeconds
	}
	if cfg.Logger == nil {
		cfg.Logger = zap.NewNop()
	}

	state := cfg.State
	if state.Stage == "" {
		state.Stage = entity.StageStart
	}
	if err := state.Stage.Validate(); err != nil {
		return nil, fmt.Errorf("%w: %v", entity.ErrInvalidParameter, err)
	}
	// an interrupted answer has to be recorded again
	if state.Stage == entity.StageAnswer {
		state.Stage = entity.StageWait
	}
	if state.QuestionCursor < 0 || state.FeedbackCursor < 0 {
		return nil, fmt.Errorf("%w: negative cursor", entity.ErrInvalidParameter)
	}
	if state.FeedbackCursor > state.QuestionCursor+1 {
		state.FeedbackCursor = state.QuestionCursor + 1
	}

	records := make([]entity.QuestionRecord, 0, len(cfg.Questions))
	for _, q := range cfg.Questions {
		r := q.Clone()
		if r.FaceScoreList == nil {
			r.FaceScoreList = []int{}
		}
		records = append(records, r)
	}

	m := &Machine{
		sessionID:     cfg.SessionID,
		interviewID:   cfg.InterviewID,
		statementID:   cfg.StatementID,
		useAI:         cfg.UseAI,
		answerSeconds: cfg.AnswerSeconds,
		recorder:      cfg.Recorder,
		finalizer:     cfg.Finalizer,
		speaker:       cfg.Speaker,
		store:         cfg.Store,
		onTeardown:    cfg.OnTeardown,
		metrics:       cfg.Metrics,
		logger:        cfg.Logger.With(zap.String("session_id", cfg.SessionID)),
		ops:           make(chan func()),
		quit:          make(chan struct{}),
		done:          make(chan struct{}),
		ctx:           context.Background(),
		state:         state,
		records:       records,
	}

	m.sampler = sampler.New(sampler.Config{
		Analyzer: cfg.Analyzer,
		Frames:   cfg.Frames,
		Dispatch: m.call,
		Period:   cfg.SampleInterval,
		Timeout:  cfg.AnalysisTimeout,
		Metrics:  cfg.Metrics,
		Logger:   m.logger.Named("sampler"),
	})
	m.countdown = countdown.New(countdown.Config{
		Unit:     cfg.TimerUnit,
		Dispatch: m.call,
		OnExpire: m.onExpire,
	})

	return m, nil
}

// Run processes control loop operations until ctx is cancelled, Close is
// called or the session has been finalized.
func (m *Machine) Run(ctx context.Context) {
	ctx, cancel := context.WithCancel(ctx)
	m.ctx = ctx

	m.metrics.SessionStarted(ctx)
	m.logger.Info("session control loop started",
		zap.String("stage", string(m.state.Stage)),
		zap.Int("questions", len(m.records)),
	)

	defer func() {
		m.sampler.Stop()
		m.countdown.Cancel()
		cancel()
		m.metrics.SessionEnded(context.Background())
		close(m.done)

		m.logger.Info("session control loop stopped", zap.Bool("finished", m.finished))
		if m.onTeardown != nil {
			m.onTeardown()
		}
	}()

	for !m.closing {
		select {
		case <-ctx.Done():
			return
		case <-m.quit:
			return
		case op := <-m.ops:
			op()
		}
	}
}

// Close stops the control loop without finalizing the session.
func (m *Machine) Close() {
	m.closeOnce.Do(func() {
		close(m.quit)
	})
}

// Finished reports whether the loop has stopped after a successful finalization.
func (m *Machine) Finished() bool {
	select {
	case <-m.done:
		return m.finished
	default:
		return false
	}
}

// Done is closed once the control loop has stopped.
func (m *Machine) Done() <-chan struct{} {
	return m.done
}

// Advance performs the action of the current stage and returns the
// resulting snapshot.
func (m *Machine) Advance(ctx context.Context) (*entity.Snapshot, error) {
	reply := make(chan outcome, 1)
	if err := m.call(ctx, func() { m.dispatch(reply) }); err != nil {
		if errors.Is(err, entity.ErrSessionClosed) && m.Finished() {
			return nil, entity.ErrSessionFinished
		}
		return nil, err
	}

	select {
	case out := <-reply:
		return out.snapshot, out.err
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

// Signal applies one push-channel event. Malformed payloads are dropped and
// the error is returned to the caller only for reporting.
func (m *Machine) Signal(ctx context.Context, eventType, data string) error {
	update, err := signal.Parse(eventType, data)
	if err != nil {
		m.logger.Warn("dropping malformed signal", zap.String("type", eventType), zap.Error(err))
		m.metrics.RecordSignalDropped(ctx, "malformed")
		return err
	}
	if update.Kind == signal.KindIgnored {
		m.logger.Debug("ignoring signal", zap.String("type", eventType), zap.Stringer("kind", update.Kind))
		return nil
	}

	return m.call(ctx, func() { m.applySignal(update) })
}

func (m *Machine) Snapshot(ctx context.Context) (*entity.Snapshot, error) {
	var snap *entity.Snapshot
	if err := m.call(ctx, func() { snap = m.snapshot() }); err != nil {
		return nil, err
	}
	return snap, nil
}

// Report returns the report produced by a successful finalization.
func (m *Machine) Report(ctx context.Context) (*entity.InterviewReport, error) {
	var rep *entity.InterviewReport
	if err := m.call(ctx, func() { rep = m.result }); err != nil {
		return nil, err
	}
	if rep == nil {
		return nil, entity.ErrReportNotFound
	}
	return rep, nil
}

// call runs fn on the control loop and waits for it to return.
func (m *Machine) call(ctx context.Context, fn func()) error {
	ran := make(chan struct{})
	op := func() {
		fn()
		close(ran)
	}

	select {
	case m.ops <- op:
	case <-ctx.Done():
		return ctx.Err()
	case <-m.done:
		return entity.ErrSessionClosed
	}

	select {
	case <-ran:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	case <-m.done:
		select {
		case <-ran:
			return nil
		default:
			return entity.ErrSessionClosed
		}
	}
}

// enqueue posts fn without waiting. It is used by network completions.
func (m *Machine) enqueue(fn func()) {
	select {
	case m.ops <- fn:
	case <-m.done:
	}
}

func (m *Machine) dispatch(reply chan<- outcome) {
	if m.finished {
		m.respond(reply, entity.ErrSessionFinished)
		return
	}
	if m.pending {
		m.respond(reply, entity.ErrTransitionInProgress)
		return
	}

	switch m.state.Stage {
	case entity.StageStart, entity.StageWait:
		m.respond(reply, m.startQuestion())
	case entity.StageQuestion:
		m.startAnswer(reply)
	case entity.StageAnswer:
		m.stopAnswer(reply)
	case entity.StageEnd:
		m.finish(reply)
	default:
		m.respond(reply, fmt.Errorf("%w: unknown stage %q", entity.ErrInvalidParameter, m.state.Stage))
	}
}

func (m *Machine) onExpire() {
	m.logger.Info("answer time is over, advancing")

	reply := make(chan outcome, 1)
	m.dispatch(reply)

	go func() {
		select {
		case out := <-reply:
			if out.err != nil && !errors.Is(out.err, entity.ErrTransitionInProgress) {
				m.logger.Warn("automatic advance failed", zap.Error(out.err))
			}
		case <-m.done:
		}
	}()
}

func (m *Machine) startQuestion() error {
	if m.state.QuestionCursor >= len(m.records) {
		return entity.ErrNoQuestions
	}

	if m.speaker != nil {
		text := m.records[m.state.QuestionCursor].Question
		go m.speaker.Speak(m.ctx, text)
	}

	m.countdown.Stop()
	m.transition(entity.StageQuestion)

	return nil
}

func (m *Machine) startAnswer(reply chan<- outcome) {
	if !m.useAI || m.recorder == nil {
		m.openAnswer()
		m.respond(reply, nil)
		return
	}

	m.pending = true
	ctx := m.ctx
	go func() {
		recordingID, err := m.recorder.StartRecording(ctx, m.sessionID)
		m.enqueue(func() {
			m.pending = false
			if err != nil {
				m.logger.Error("failed to start recording", zap.Error(err))
				m.respond(reply, fmt.Errorf("%w: %v", entity.ErrRecordingFailed, err))
				return
			}
			m.recordingID = recordingID
			m.openAnswer()
			m.respond(reply, nil)
		})
	}()
}

func (m *Machine) openAnswer() {
	m.transition(entity.StageAnswer)
	m.countdown.Restart(m.ctx, m.answerSeconds)
	m.sampler.Start(m.ctx)
}

func (m *Machine) stopAnswer(reply chan<- outcome) {
	m.countdown.Stop()
	m.sampler.Stop()

	idx := m.state.QuestionCursor
	series := m.sampler.Series()
	m.sampler.Clear()

	if idx < len(m.records) {
		m.records[idx].FaceScoreList = series
		m.records[idx].FaceScore = report.FaceScore(series)
	}

	if !m.useAI || m.recorder == nil {
		if err := signal.AssignFeedback(m.records, &m.state, MockFeedback); err != nil {
			m.logger.Warn("mock feedback dropped", zap.Error(err))
		}
		m.completeAnswer(idx, MockAnswer, MockSpeechScore)
		m.respond(reply, nil)
		return
	}

	req := entity.StopRecordingRequest{InterviewID: m.interviewID}
	if idx < len(m.records) {
		req.Question = m.records[idx].Question
	}
	recordingID := m.recordingID

	m.pending = true
	ctx := m.ctx
	go func() {
		transcript, err := m.recorder.StopRecording(ctx, recordingID, req)
		m.enqueue(func() {
			m.pending = false
			if err != nil {
				m.logger.Warn("failed to stop recording, keeping an empty answer",
					zap.String("recording_id", recordingID),
					zap.Error(err),
				)
				m.completeAnswer(idx, "", 0)
				m.respond(reply, nil)
				return
			}
			m.completeAnswer(idx, transcript.Text, SpeechScore(transcript.Confidence))
			m.respond(reply, nil)
		})
	}()
}

func (m *Machine) completeAnswer(idx int, answer string, speechScore int) {
	if idx < len(m.records) {
		m.records[idx].Answer = answer
		m.records[idx].SpeechScore = speechScore
	}
	m.recordingID = ""
	m.state.QuestionCursor = idx + 1

	if m.state.QuestionCursor >= len(m.records) {
		m.transition(entity.StageEnd)
		return
	}
	m.transition(entity.StageWait)
}

func (m *Machine) finish(reply chan<- outcome) {
	rep, err := report.Aggregate(m.interviewID, m.records)
	if err != nil {
		m.respond(reply, err)
		return
	}

	questions := m.cloneRecords()

	m.pending = true
	ctx := m.ctx
	go func() {
		start := time.Now()
		err := m.finalizer.Finalize(ctx, m.sessionID, rep, questions)
		m.metrics.RecordFinalize(ctx, time.Since(start), err)

		m.enqueue(func() {
			m.pending = false
			if err != nil {
				m.logger.Error("failed to finalize session", zap.Error(err))
				m.respond(reply, fmt.Errorf("%w: %v", entity.ErrFinalizeFailed, err))
				return
			}

			m.result = rep
			m.finished = true
			m.persist()
			m.logger.Info("session finalized",
				zap.Float64("face_score", rep.FaceScore),
				zap.Float64("pronunciation_score", rep.PronunciationScore),
			)
			m.respond(reply, nil)
			m.closing = true
		})
	}()
}

func (m *Machine) applySignal(update signal.Update) {
	if m.finished {
		m.metrics.RecordSignalDropped(m.ctx, "finished")
		return
	}

	switch update.Kind {
	case signal.KindQuestions:
		m.records = signal.MergeQuestions(m.records, m.state.QuestionCursor, update.Questions)
		m.logger.Info("question list updated",
			zap.Stringer("signal", update.Kind),
			zap.Int("questions", len(m.records)),
		)
	case signal.KindFeedback:
		if err := signal.AssignFeedback(m.records, &m.state, update.Feedback); err != nil {
			m.logger.Warn("dropping feedback", zap.Stringer("signal", update.Kind), zap.Error(err))
			m.metrics.RecordSignalDropped(m.ctx, "out_of_range")
			return
		}
	default:
		return
	}

	m.persist()
}

func (m *Machine) transition(to entity.Stage) {
	from := m.state.Stage
	m.state.Stage = to

	m.metrics.RecordTransition(m.ctx, string(from), string(to))
	m.logger.Info("stage changed",
		zap.String("from", string(from)),
		zap.String("to", string(to)),
		zap.Int("question_cursor", m.state.QuestionCursor),
	)

	m.persist()
}

func (m *Machine) respond(reply chan<- outcome, err error) {
	if reply == nil {
		return
	}
	if err != nil {
		reply <- outcome{err: err}
		return
	}
	reply <- outcome{snapshot: m.snapshot()}
}

func (m *Machine) persist() {
	if m.store == nil {
		return
	}
	m.store.Save(m.snapshot())
}

func (m *Machine) snapshot() *entity.Snapshot {
	snap := &entity.Snapshot{
		SessionID:     m.sessionID,
		InterviewID:   m.interviewID,
		StatementID:   m.statementID,
		State:         m.state,
		Questions:     m.cloneRecords(),
		Timer:         m.countdown.State(),
		RemainingTime: m.countdown.Remaining(),
		RecordingID:   m.recordingID,
		Finished:      m.finished,
		UpdatedAt:     time.Now(),
	}

	if m.state.QuestionCursor < len(m.records) {
		snap.CurrentQuestion = m.records[m.state.QuestionCursor].Question
	}
	snap.LastEmotion, snap.LastScore = m.sampler.Last()
	snap.SampleCount = m.sampler.Len()

	return snap
}

func (m *Machine) cloneRecords() []entity.QuestionRecord {
	out := make([]entity.QuestionRecord, 0, len(m.records))
	for _, r := range m.records {
		out = append(out, r.Clone())
	}
	return out
}

// SpeechScore converts a transcription confidence into a 0-100 score.
func SpeechScore(confidence float64) int {
	return int(math.Floor(confidence * 100))
}
