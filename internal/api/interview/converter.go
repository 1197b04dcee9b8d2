package interview

import (
	"bytes"
	"fmt"
	"image"
	_ "image/jpeg"
	_ "image/png"
	"time"

	"github.com/futig/interview-engine/internal/entity"
)

// toFrame reads the image header of an uploaded frame. Pixels are left
// encoded; the detector decodes them.
func toFrame(data []byte) (*entity.Frame, error) {
	if len(data) == 0 {
		return nil, fmt.Errorf("%w: frame body", entity.ErrMissingField)
	}

	cfg, format, err := image.DecodeConfig(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("%w: unsupported frame image: %v", entity.ErrInvalidParameter, err)
	}

	return &entity.Frame{
		Data:        data,
		ContentType: "image/" + format,
		Width:       cfg.Width,
		Height:      cfg.Height,
		CapturedAt:  time.Now().UTC(),
	}, nil
}
