package common

import (
	"github.com/futig/interview-engine/internal/config"
	pkgHTTP "github.com/futig/interview-engine/pkg/http"
	"go.uber.org/zap"
)

const userAgent = "interview-engine"

// NewBaseConnector builds the outbound HTTP connector shared by the
// collaborator clients: request logging, bearer auth and pooled keep-alive
// connections, all tuned from cfg.
func NewBaseConnector(cfg config.HTTPClientConfig, logger *zap.Logger) *pkgHTTP.Connector {
	return pkgHTTP.NewConnector(
		&pkgHTTP.ConnectorConfig{
			Logger:  logger,
			BaseURL: cfg.Url,
		},
		pkgHTTP.WithRequestTimeout(cfg.RequestTimeout),
		pkgHTTP.WithConnClientTimeout(cfg.ConnTimeout),
		pkgHTTP.WithClientKeepAlive(cfg.KeepAlive),
		pkgHTTP.WithIdleConnTimeout(cfg.IdleConnTimeout),
		pkgHTTP.WithResponseHeaderTimeout(cfg.ResponseHeaderTimeout),
		pkgHTTP.WithMaxIdleConnsPerHost(cfg.MaxIdleConnsPerHost),
		pkgHTTP.WithStaticHeader("User-Agent", userAgent),
		pkgHTTP.WithAuthToken(cfg.Token),
		pkgHTTP.WithRequestLogging(),
	)
}
