// Package httpapi exposes the registry over JSON/HTTP using gin.
package httpapi

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/rs/cors"

	"github.com/dmitrijs2005/here/internal/common"
	"github.com/dmitrijs2005/here/internal/logging"
	"github.com/dmitrijs2005/here/internal/models"
)

// Registry is the set of operations served over HTTP.
type Registry interface {
	GetServerInfo() models.AppInfo
	GetClientInfo(ctx context.Context, account string, passwd *string) (*models.PresenceRecord, error)
	PostClientInfo(ctx context.Context, record models.PresenceRecord) (int64, error)
}

// Options configures the optional parts of the HTTP surface.
type Options struct {
	// CORSOrigins enables CORS for the listed origins. Empty disables it.
	CORSOrigins []string
	// Metrics, when set, is served on the metrics path.
	Metrics http.Handler
}

// NewHandler builds the HTTP handler for reg.
func NewHandler(reg Registry, logger logging.Logger, opts Options) http.Handler {
	gin.SetMode(gin.ReleaseMode)

	h := &handler{reg: reg, logger: logger.With("module", "httpapi")}

	router := gin.New()
	router.Use(gin.Recovery(), requestLogger(h.logger))

	api := router.Group(common.APIPrefix)
	api.GET(common.PathServerInfo, h.getServerInfo)
	api.GET(common.PathGetClientInfo, h.getClientInfo)
	api.POST(common.PathPostClientInfo, h.postClientInfo)

	if opts.Metrics != nil {
		router.GET(common.PathMetrics, gin.WrapH(opts.Metrics))
	}

	if len(opts.CORSOrigins) == 0 {
		return router
	}
	return cors.New(cors.Options{
		AllowedOrigins: opts.CORSOrigins,
		AllowedMethods: []string{http.MethodGet, http.MethodPost},
		AllowedHeaders: []string{"Content-Type"},
	}).Handler(router)
}

// requestLogger writes one line per request through logger.
func requestLogger(logger logging.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		logger.Debug(c.Request.Context(), "request",
			"method", c.Request.Method,
			"path", c.FullPath(),
			"status", c.Writer.Status(),
			"duration", time.Since(start).String(),
			"remote", c.ClientIP())
	}
}
