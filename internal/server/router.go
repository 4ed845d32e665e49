package server

import (
	"net/http"
	"strings"

	"github.com/gin-contrib/gzip"
	"github.com/gin-gonic/gin"
	"github.com/gin-gonic/gin/binding"
	"github.com/go-playground/validator/v10"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"
)

// Modes reports which adapter implementation backs each capability.
type Modes struct {
	Profile string `json:"profile_mode"`
	Oracle  string `json:"oracle_mode"`
	Catalog string `json:"catalog_mode"`

	// OracleCircuit reports the model circuit breaker state when the live
	// oracle is in use.
	OracleCircuit func() string `json:"-"`
}

type healthResponse struct {
	Status string `json:"status"`
	Modes
	OracleCircuitState string `json:"oracle_circuit,omitempty"`
}

func NewRouter(ginMode string, logger *zap.Logger, modes Modes, handler *Handler) *gin.Engine {
	setGinMode(ginMode)
	if v, ok := binding.Validator.Engine().(*validator.Validate); ok {
		v.RegisterTagNameFunc(tagName("json"))
	}

	router := gin.New()
	router.Use(
		RequestID(),
		RequestLogger(logger),
		gin.Recovery(),
		newGzipMiddleware(),
	)

	RegisterHealthRoutes(router, modes)
	handler.RegisterRoutes(router)

	return router
}

func newGzipMiddleware() gin.HandlerFunc {
	return gzip.Gzip(gzip.DefaultCompression, gzip.WithCustomShouldCompressFn(func(c *gin.Context) bool {
		switch c.Request.URL.Path {
		case "/health", "/metrics":
			return false
		}
		return true
	}))
}

func RegisterHealthRoutes(router *gin.Engine, modes Modes) {
	router.GET("/health", func(c *gin.Context) {
		resp := healthResponse{Status: "ok", Modes: modes}
		if modes.OracleCircuit != nil {
			resp.OracleCircuitState = modes.OracleCircuit()
		}
		c.JSON(http.StatusOK, resp)
	})

	router.GET("/metrics", gin.WrapH(promhttp.Handler()))
}

func setGinMode(mode string) {
	switch strings.ToLower(strings.TrimSpace(mode)) {
	case gin.DebugMode:
		gin.SetMode(gin.DebugMode)
	case gin.TestMode:
		gin.SetMode(gin.TestMode)
	default:
		gin.SetMode(gin.ReleaseMode)
	}
}
