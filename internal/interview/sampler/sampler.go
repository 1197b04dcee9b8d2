// Package sampler periodically captures video frames, submits them for
// expression analysis and folds the outcome into a per-question score series.
package sampler

import (
	"context"
	"fmt"
	"time"

	"github.com/futig/interview-engine/internal/entity"
	"github.com/futig/interview-engine/internal/observe"
	"go.uber.org/zap"
)

const (
	defaultPeriod  = time.Second
	defaultTimeout = 900 * time.Millisecond
)

type Analyzer interface {
	Analyze(ctx context.Context, frame *entity.Frame) (entity.AnalysisResult, error)
}

type FrameSource interface {
	Capture(ctx context.Context) (*entity.Frame, error)
}

// Dispatcher runs fn on the session control loop and returns once it has run.
type Dispatcher func(ctx context.Context, fn func()) error

// Sample is the outcome of one sampling tick.
type Sample struct {
	Generation uint64
	Result     entity.AnalysisResult
	Err        error
}

type Config struct {
	Analyzer Analyzer
	Frames   FrameSource
	Dispatch Dispatcher
	Period   time.Duration
	Timeout  time.Duration
	Metrics  *observe.Metrics
	Logger   *zap.Logger
}

// Sampler state is owned by the control loop: every method except the
// internal run goroutine must be called from there.
type Sampler struct {
	analyzer Analyzer
	frames   FrameSource
	dispatch Dispatcher
	period   time.Duration
	timeout  time.Duration
	metrics  *observe.Metrics
	logger   *zap.Logger

	running    bool
	cancel     context.CancelFunc
	generation uint64
	series     []int

	lastEmotion *entity.Emotion
	lastScore   int
}

func New(cfg Config) *Sampler {
	if cfg.Period <= 0 {
		cfg.Period = defaultPeriod
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = defaultTimeout
	}
	if cfg.Logger == nil {
		cfg.Logger = zap.NewNop()
	}

	return &Sampler{
		analyzer: cfg.Analyzer,
		frames:   cfg.Frames,
		dispatch: cfg.Dispatch,
		period:   cfg.Period,
		timeout:  cfg.Timeout,
		metrics:  cfg.Metrics,
		logger:   cfg.Logger,
		series:   []int{},
	}
}

// Start begins sampling. It is a no-op while already running.
func (s *Sampler) Start(ctx context.Context) {
	if s.running {
		return
	}

	s.generation++
	runCtx, cancel := context.WithCancel(ctx)
	s.cancel = cancel
	s.running = true

	go s.run(runCtx, s.generation)
}

// Stop ends sampling and keeps the series. It is a no-op when not running.
func (s *Sampler) Stop() {
	if !s.running {
		return
	}

	s.cancel()
	s.cancel = nil
	s.running = false
}

// Clear stops sampling and discards the series. Results still in flight
// belong to the old generation and are dropped when they arrive.
func (s *Sampler) Clear() {
	s.Stop()
	s.generation++
	s.series = []int{}
}

func (s *Sampler) Running() bool {
	return s.running
}

func (s *Sampler) Generation() uint64 {
	return s.generation
}

// Series returns a copy of the accumulated scores.
func (s *Sampler) Series() []int {
	return append([]int{}, s.series...)
}

// Len is the number of samples folded into the current series.
func (s *Sampler) Len() int {
	return len(s.series)
}

// Last returns the most recent successful reading.
func (s *Sampler) Last() (*entity.Emotion, int) {
	if s.lastEmotion == nil {
		return nil, s.lastScore
	}
	emotion := *s.lastEmotion
	return &emotion, s.lastScore
}

// Fold appends the outcome of one tick. A missing or failed reading repeats
// the previous score (0 for an empty series) so the series keeps one entry
// per tick. It reports whether the sample belonged to the current generation.
func (s *Sampler) Fold(sample Sample) bool {
	if sample.Generation != s.generation {
		s.logger.Debug("dropping stale face sample",
			zap.Uint64("sample_generation", sample.Generation),
			zap.Uint64("generation", s.generation),
		)
		s.metrics.RecordSample(context.Background(), observe.SampleStale)
		return false
	}

	if sample.Err == nil && sample.Result.Detected() {
		score := *sample.Result.Score
		emotion := *sample.Result.Emotion
		s.series = append(s.series, score)
		s.lastEmotion = &emotion
		s.lastScore = score
		s.metrics.RecordSample(context.Background(), observe.SampleDetected)
		return true
	}

	if sample.Err != nil {
		s.logger.Warn("face analysis failed, carrying previous score forward", zap.Error(sample.Err))
		s.metrics.RecordSample(context.Background(), observe.SampleFailed)
	} else {
		s.metrics.RecordSample(context.Background(), observe.SampleMissed)
	}

	s.series = append(s.series, s.previous())
	return true
}

func (s *Sampler) previous() int {
	if len(s.series) == 0 {
		return 0
	}
	return s.series[len(s.series)-1]
}

// run takes one sample per tick. The next tick is not taken before the
// previous sample has been folded; ticks that fire meanwhile are dropped by
// the ticker.
func (s *Sampler) run(ctx context.Context, generation uint64) {
	ticker := time.NewTicker(s.period)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
		}

		sample := s.take(ctx, generation)
		if err := s.dispatch(ctx, func() { s.Fold(sample) }); err != nil {
			return
		}
	}
}

func (s *Sampler) take(ctx context.Context, generation uint64) Sample {
	sampleCtx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	sample := Sample{Generation: generation}

	frame, err := s.frames.Capture(sampleCtx)
	if err != nil {
		sample.Err = fmt.Errorf("capture frame: %w", err)
		return sample
	}

	result, err := s.analyzer.Analyze(sampleCtx, frame)
	if err != nil {
		sample.Err = fmt.Errorf("analyze frame: %w", err)
		return sample
	}

	sample.Result = result
	return sample
}
