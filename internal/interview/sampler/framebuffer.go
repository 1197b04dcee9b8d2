package sampler

import (
	"context"
	"sync"

	"github.com/futig/interview-engine/internal/entity"
)

// FrameBuffer holds the latest frame uploaded by the client.
type FrameBuffer struct {
	mu    sync.RWMutex
	frame *entity.Frame
}

func NewFrameBuffer() *FrameBuffer {
	return &FrameBuffer{}
}

func (b *FrameBuffer) Put(frame *entity.Frame) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.frame = frame
}

// Capture returns the latest frame or entity.ErrNoFrame.
func (b *FrameBuffer) Capture(ctx context.Context) (*entity.Frame, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	b.mu.RLock()
	defer b.mu.RUnlock()

	if b.frame == nil || len(b.frame.Data) == 0 || b.frame.Width == 0 || b.frame.Height == 0 {
		return nil, entity.ErrNoFrame
	}

	frame := *b.frame
	return &frame, nil
}

func (b *FrameBuffer) Reset() {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.frame = nil
}
