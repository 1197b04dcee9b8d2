package analyzer

import (
	"context"
	"errors"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/futig/interview-engine/internal/entity"
	"go.uber.org/zap/zaptest"
)

type fakeDetector struct {
	loadCalls   atomic.Int32
	loadErr     error
	loadBlock   chan struct{}
	expressions entity.Expressions
	detectErr   error
	lastURL     atomic.Value
}

func (d *fakeDetector) LoadModels(ctx context.Context, modelURL string) error {
	d.loadCalls.Add(1)
	d.lastURL.Store(modelURL)
	if d.loadBlock != nil {
		select {
		case <-d.loadBlock:
		case <-ctx.Done():
			return ctx.Err()
		}
	}
	return d.loadErr
}

func (d *fakeDetector) DetectExpressions(ctx context.Context, frame *entity.Frame) (entity.Expressions, error) {
	if d.detectErr != nil {
		return nil, d.detectErr
	}
	return d.expressions, nil
}

func testFrame() *entity.Frame {
	return &entity.Frame{Data: []byte{1, 2, 3}, ContentType: "image/jpeg"}
}

func TestWorker_LoadModelsIsIdempotent(t *testing.T) {
	detector := &fakeDetector{}
	w := NewWorker(detector, "/models", zaptest.NewLogger(t))
	defer w.Terminate()

	ctx := context.Background()

	var wg sync.WaitGroup
	for i := 0; i < 5; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if err := w.LoadModels(ctx, ""); err != nil {
				t.Errorf("LoadModels: %v", err)
			}
		}()
	}
	wg.Wait()

	if _, err := w.Analyze(ctx, testFrame()); err != nil {
		t.Fatalf("Analyze: %v", err)
	}

	if got := detector.loadCalls.Load(); got != 1 {
		t.Errorf("expected models to load once, got %d loads", got)
	}
	if got := detector.lastURL.Load(); got != "/models" {
		t.Errorf("expected default model url, got %v", got)
	}
}

func TestWorker_LoadModelsOverridesURL(t *testing.T) {
	detector := &fakeDetector{}
	w := NewWorker(detector, "/models", zaptest.NewLogger(t))
	defer w.Terminate()

	if err := w.LoadModels(context.Background(), "https://cdn.example.com/models"); err != nil {
		t.Fatalf("LoadModels: %v", err)
	}
	if got := detector.lastURL.Load(); got != "https://cdn.example.com/models" {
		t.Errorf("got model url %v", got)
	}
}

func TestWorker_LoadFailureIsReported(t *testing.T) {
	detector := &fakeDetector{loadErr: errors.New("404 weights")}
	w := NewWorker(detector, "/models", zaptest.NewLogger(t))
	defer w.Terminate()

	err := w.LoadModels(context.Background(), "")
	if !errors.Is(err, entity.ErrModelsNotLoaded) {
		t.Fatalf("expected ErrModelsNotLoaded, got %v", err)
	}

	// a later analysis retries the load and reports it as an error response
	if _, err := w.Analyze(context.Background(), testFrame()); err == nil {
		t.Fatal("expected analysis error while models are unavailable")
	}
	if got := detector.loadCalls.Load(); got != 2 {
		t.Errorf("expected a retry on the next request, got %d loads", got)
	}
}

func TestWorker_Analyze(t *testing.T) {
	t.Run("face detected", func(t *testing.T) {
		detector := &fakeDetector{expressions: entity.Expressions{"happy": 0.8, "sad": 0.1, "neutral": 0.1}}
		w := NewWorker(detector, "/models", zaptest.NewLogger(t))
		defer w.Terminate()

		result, err := w.Analyze(context.Background(), testFrame())
		if err != nil {
			t.Fatalf("Analyze: %v", err)
		}
		if !result.Detected() {
			t.Fatal("expected a detection")
		}
		if *result.Score != 85 {
			t.Errorf("score = %d, want 85", *result.Score)
		}
		if result.Emotion.Label != "happy" {
			t.Errorf("emotion = %s, want happy", result.Emotion.Label)
		}
	})

	t.Run("no face", func(t *testing.T) {
		w := NewWorker(&fakeDetector{}, "/models", zaptest.NewLogger(t))
		defer w.Terminate()

		result, err := w.Analyze(context.Background(), testFrame())
		if err != nil {
			t.Fatalf("Analyze: %v", err)
		}
		if result.Detected() {
			t.Errorf("expected null result, got %+v", result)
		}
	})

	t.Run("detector error becomes null result", func(t *testing.T) {
		w := NewWorker(&fakeDetector{detectErr: errors.New("bad tensor")}, "/models", zaptest.NewLogger(t))
		defer w.Terminate()

		result, err := w.Analyze(context.Background(), testFrame())
		if err != nil {
			t.Fatalf("expected error to be absorbed, got %v", err)
		}
		if result.Detected() {
			t.Errorf("expected null result, got %+v", result)
		}
	})

	t.Run("missing image data", func(t *testing.T) {
		w := NewWorker(&fakeDetector{}, "/models", zaptest.NewLogger(t))
		defer w.Terminate()

		resp, err := w.Post(context.Background(), Request{Type: MessageAnalyzeFace})
		if err != nil {
			t.Fatalf("Post: %v", err)
		}
		if resp.Type != MessageError || resp.Error != "ImageData is required for face analysis" {
			t.Errorf("unexpected response %+v", resp)
		}
	})
}

func TestWorker_UnknownMessage(t *testing.T) {
	w := NewWorker(&fakeDetector{}, "/models", zaptest.NewLogger(t))
	defer w.Terminate()

	resp, err := w.Post(context.Background(), Request{Type: "RESIZE"})
	if err != nil {
		t.Fatalf("Post: %v", err)
	}
	if resp.Type != MessageError {
		t.Fatalf("expected ERROR, got %s", resp.Type)
	}
	if !strings.Contains(resp.Error, "Unknown message type: RESIZE") {
		t.Errorf("unexpected error text %q", resp.Error)
	}
}

func TestWorker_StalledLoadDoesNotBlockCaller(t *testing.T) {
	detector := &fakeDetector{loadBlock: make(chan struct{})}
	w := NewWorker(detector, "/models", zaptest.NewLogger(t))
	defer w.Terminate()

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()

	start := time.Now()
	_, err := w.Analyze(ctx, testFrame())
	if err == nil {
		t.Fatal("expected error from stalled load")
	}
	if elapsed := time.Since(start); elapsed > time.Second {
		t.Errorf("caller blocked for %v", elapsed)
	}
}

func TestWorker_Terminate(t *testing.T) {
	w := NewWorker(&fakeDetector{}, "/models", zaptest.NewLogger(t))
	w.Terminate()
	w.Terminate()

	select {
	case <-w.Done():
	case <-time.After(time.Second):
		t.Fatal("worker did not stop")
	}

	_, err := w.Analyze(context.Background(), testFrame())
	if !errors.Is(err, entity.ErrWorkerTerminated) {
		t.Errorf("expected ErrWorkerTerminated, got %v", err)
	}
}
