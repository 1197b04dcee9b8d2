package sampler

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/futig/interview-engine/internal/entity"
	"go.uber.org/zap/zaptest"
)

type fakeAnalyzer struct {
	mu      sync.Mutex
	results []entity.AnalysisResult
	errs    []error
	calls   int
}

func (a *fakeAnalyzer) Analyze(ctx context.Context, frame *entity.Frame) (entity.AnalysisResult, error) {
	a.mu.Lock()
	defer a.mu.Unlock()

	i := a.calls
	a.calls++
	if i < len(a.errs) && a.errs[i] != nil {
		return entity.AnalysisResult{}, a.errs[i]
	}
	if i < len(a.results) {
		return a.results[i], nil
	}
	return entity.AnalysisResult{}, nil
}

type staticFrames struct {
	err error
}

func (f staticFrames) Capture(ctx context.Context) (*entity.Frame, error) {
	if f.err != nil {
		return nil, f.err
	}
	return &entity.Frame{Data: []byte{1}, Width: 1, Height: 1}, nil
}

func detected(score int, label string) entity.AnalysisResult {
	return entity.AnalysisResult{
		Score:   &score,
		Emotion: &entity.Emotion{Label: label, Probability: 0.9},
	}
}

// lockedDispatch stands in for the control loop: folds run one at a time
// under mu, and the test reads sampler state under the same lock.
func lockedDispatch(mu *sync.Mutex, folds *int) Dispatcher {
	return func(ctx context.Context, fn func()) error {
		if err := ctx.Err(); err != nil {
			return err
		}
		mu.Lock()
		defer mu.Unlock()
		fn()
		if folds != nil {
			*folds++
		}
		return nil
	}
}

func TestFold_CarryForward(t *testing.T) {
	s := New(Config{Logger: zaptest.NewLogger(t)})
	gen := s.Generation()

	samples := []Sample{
		{Generation: gen}, // no face, empty series -> 0
		{Generation: gen, Result: detected(70, "happy")}, // 70
		{Generation: gen, Err: errors.New("timeout")},    // carry 70
		{Generation: gen}, // carry 70
		{Generation: gen, Result: detected(40, "sad")}, // 40
	}
	for _, sample := range samples {
		if !s.Fold(sample) {
			t.Fatalf("sample %+v dropped", sample)
		}
	}

	want := []int{0, 70, 70, 70, 40}
	got := s.Series()
	if len(got) != len(want) {
		t.Fatalf("series length = %d, want %d", len(got), len(want))
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("series[%d] = %d, want %d", i, got[i], want[i])
		}
	}

	emotion, score := s.Last()
	if emotion == nil || emotion.Label != "sad" || score != 40 {
		t.Errorf("last reading = %+v/%d, want sad/40", emotion, score)
	}
}

func TestFold_DropsStaleGeneration(t *testing.T) {
	s := New(Config{Logger: zaptest.NewLogger(t)})
	stale := s.Generation()
	s.Clear()

	if s.Fold(Sample{Generation: stale, Result: detected(90, "happy")}) {
		t.Fatal("stale sample was folded")
	}
	if len(s.Series()) != 0 {
		t.Errorf("series = %v, want empty", s.Series())
	}
	if emotion, _ := s.Last(); emotion != nil {
		t.Errorf("stale sample updated last emotion: %+v", emotion)
	}
}

func TestClear_ResetsSeries(t *testing.T) {
	s := New(Config{Logger: zaptest.NewLogger(t)})
	s.Fold(Sample{Generation: s.Generation(), Result: detected(60, "neutral")})
	s.Clear()

	if len(s.Series()) != 0 {
		t.Errorf("series = %v after Clear, want empty", s.Series())
	}
}

func TestSampler_OneEntryPerTick(t *testing.T) {
	var (
		mu    sync.Mutex
		folds int
	)
	analyzer := &fakeAnalyzer{
		results: []entity.AnalysisResult{detected(80, "happy"), {}, detected(55, "neutral")},
		errs:    []error{nil, nil, nil, errors.New("worker busy")},
	}
	s := New(Config{
		Analyzer: analyzer,
		Frames:   staticFrames{},
		Dispatch: lockedDispatch(&mu, &folds),
		Period:   5 * time.Millisecond,
		Timeout:  50 * time.Millisecond,
		Logger:   zaptest.NewLogger(t),
	})

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	mu.Lock()
	s.Start(ctx)
	s.Start(ctx)
	gen := s.Generation()
	mu.Unlock()

	deadline := time.After(2 * time.Second)
	for {
		mu.Lock()
		n := len(s.series)
		if n >= 6 {
			s.Stop()
			mu.Unlock()
			break
		}
		mu.Unlock()

		select {
		case <-deadline:
			t.Fatal("sampler did not produce enough ticks")
		case <-time.After(time.Millisecond):
		}
	}

	mu.Lock()
	defer mu.Unlock()

	if gen != 1 {
		t.Errorf("second Start bumped the generation to %d", gen)
	}
	series := s.Series()
	if len(series) != folds {
		t.Errorf("series length %d != ticks folded %d", len(series), folds)
	}
	want := []int{80, 80, 55, 55}
	for i := range want {
		if series[i] != want[i] {
			t.Errorf("series[%d] = %d, want %d", i, series[i], want[i])
		}
	}
}

func TestSampler_CaptureFailureCountsAsTick(t *testing.T) {
	var mu sync.Mutex
	analyzer := &fakeAnalyzer{}
	s := New(Config{
		Analyzer: analyzer,
		Frames:   staticFrames{err: entity.ErrNoFrame},
		Dispatch: lockedDispatch(&mu, nil),
		Period:   5 * time.Millisecond,
		Logger:   zaptest.NewLogger(t),
	})

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	mu.Lock()
	s.Start(ctx)
	mu.Unlock()

	deadline := time.After(2 * time.Second)
	for {
		mu.Lock()
		n := len(s.series)
		if n >= 3 {
			s.Stop()
			mu.Unlock()
			break
		}
		mu.Unlock()

		select {
		case <-deadline:
			t.Fatal("capture failures were not folded")
		case <-time.After(time.Millisecond):
		}
	}

	mu.Lock()
	defer mu.Unlock()
	for i, v := range s.Series() {
		if v != 0 {
			t.Errorf("series[%d] = %d, want 0", i, v)
		}
	}
	analyzer.mu.Lock()
	defer analyzer.mu.Unlock()
	if analyzer.calls != 0 {
		t.Errorf("analyzer called %d times without a frame", analyzer.calls)
	}
}

func TestSampler_StopWhenIdleIsNoop(t *testing.T) {
	s := New(Config{Logger: zaptest.NewLogger(t)})
	s.Stop()
	if s.Running() {
		t.Error("sampler reports running after Stop")
	}
}

func TestFrameBuffer(t *testing.T) {
	b := NewFrameBuffer()
	ctx := context.Background()

	if _, err := b.Capture(ctx); !errors.Is(err, entity.ErrNoFrame) {
		t.Fatalf("empty buffer: got %v, want ErrNoFrame", err)
	}

	b.Put(&entity.Frame{Data: []byte{1, 2}, Width: 0, Height: 10})
	if _, err := b.Capture(ctx); !errors.Is(err, entity.ErrNoFrame) {
		t.Errorf("zero-width frame: got %v, want ErrNoFrame", err)
	}

	b.Put(&entity.Frame{Data: []byte{1, 2}, Width: 640, Height: 480, ContentType: "image/jpeg"})
	frame, err := b.Capture(ctx)
	if err != nil {
		t.Fatalf("Capture: %v", err)
	}
	if frame.Width != 640 || frame.ContentType != "image/jpeg" {
		t.Errorf("unexpected frame %+v", frame)
	}

	b.Reset()
	if _, err := b.Capture(ctx); !errors.Is(err, entity.ErrNoFrame) {
		t.Errorf("after Reset: got %v, want ErrNoFrame", err)
	}
}
