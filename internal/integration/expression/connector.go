package expression

import (
	"context"
	"fmt"
	"mime/multipart"
	"net/http"
	"net/textproto"

	"github.com/futig/interview-engine/internal/config"
	"github.com/futig/interview-engine/internal/entity"
	"github.com/futig/interview-engine/internal/integration/common"
	pkghttp "github.com/futig/interview-engine/pkg/http"
	"github.com/grpc-ecosystem/go-grpc-middleware/logging/zap/ctxzap"
	"go.uber.org/zap"
)

type loadModelsRequest struct {
	ModelURL string `json:"model_url"`
}

type detection struct {
	Expressions entity.Expressions `json:"expressions"`
}

type detectResponse struct {
	Detections []detection `json:"detections"`
}

// Connector is the remote facial-expression detector.
type Connector struct {
	config    config.ExpressionConnectorConfig
	connector *pkghttp.Connector
	logger    *zap.Logger
}

func NewConnector(
	cfg config.ExpressionConnectorConfig,
	logger *zap.Logger,
) *Connector {
	return &Connector{
		connector: common.NewBaseConnector(cfg.HTTPClientConfig, logger),
		config:    cfg,
		logger:    logger,
	}
}

// LoadModels asks the detector to load the expression models from modelURL.
func (c *Connector) LoadModels(ctx context.Context, modelURL string) error {
	ctxzap.Info(ctx, "loading expression models", zap.String("model_url", modelURL))

	err := c.connector.DoRequest(ctx, http.MethodPost, c.config.ModelsEndpoint, &loadModelsRequest{ModelURL: modelURL}, nil)
	if err != nil {
		return fmt.Errorf("load models failed: %w", err)
	}

	return nil
}

// DetectExpressions returns the expressions of the first face in the frame,
// or nil when no face was found.
func (c *Connector) DetectExpressions(ctx context.Context, frame *entity.Frame) (entity.Expressions, error) {
	prepareBody := func(writer *multipart.Writer) error {
		header := make(textproto.MIMEHeader)
		header.Set("Content-Disposition", `form-data; name="frame"; filename="frame"`)
		contentType := frame.ContentType
		if contentType == "" {
			contentType = "application/octet-stream"
		}
		header.Set("Content-Type", contentType)

		part, err := writer.CreatePart(header)
		if err != nil {
			return fmt.Errorf("create frame part: %w", err)
		}

		if _, err := part.Write(frame.Data); err != nil {
			return fmt.Errorf("write frame content: %w", err)
		}

		return nil
	}

	var resp detectResponse
	err := c.connector.DoMultipartRequest(ctx, http.MethodPost, c.config.DetectEndpoint, prepareBody, &resp)
	if err != nil {
		return nil, fmt.Errorf("detect expressions failed: %w", err)
	}

	if len(resp.Detections) == 0 {
		return nil, nil
	}

	return resp.Detections[0].Expressions, nil
}
