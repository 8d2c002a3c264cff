package main

import (
	"context"
	"fmt"
	"net/http"
	"path/filepath"
	"time"

	"github.com/cockroachdb/errors"
	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/Skufu/meddev/internal/logger"
	"github.com/Skufu/meddev/internal/reasoning"
	"github.com/Skufu/meddev/internal/render"
)

type HealthChecker interface {
	Ping(ctx context.Context) error
}

// Analyzer runs one case through the generate/validate/repair chain.
type Analyzer interface {
	Run(ctx context.Context, in reasoning.CaseInput) reasoning.Result
}

type analysisResponse struct {
	reasoning.Result
	Sections []render.Section `json:"sections,omitempty"`
	HTML     string           `json:"html,omitempty"`
}

func setupRouter(analyzer Analyzer, health HealthChecker, gatherer prometheus.Gatherer, staticRoot string, log *logger.Logger) *gin.Engine {
	router := gin.New()
	router.Use(
		requestLogger(log),
		gin.Recovery(),
		limitBodySize(1<<20), // 1MB max body
		cors.New(cors.Config{
			AllowOrigins: []string{"*"},
			AllowMethods: []string{"GET", "POST", "OPTIONS"},
			AllowHeaders: []string{"Origin", "Content-Type"},
			MaxAge:       12 * time.Hour,
		}),
	)

	router.Static("/static", staticRoot)
	router.StaticFile("/", filepath.Join(staticRoot, "index.html"))
	router.StaticFile("/styles.css", filepath.Join(staticRoot, "styles.css"))
	router.StaticFile("/app.js", filepath.Join(staticRoot, "app.js"))

	router.GET("/healthz", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	router.GET("/readyz", func(c *gin.Context) {
		if health == nil {
			c.JSON(http.StatusOK, gin.H{"status": "ok", "model": "unchecked"})
			return
		}

		ctx, cancel := context.WithTimeout(c.Request.Context(), 2*time.Second)
		defer cancel()

		if err := health.Ping(ctx); err != nil {
			log.Warn("readiness check failed", "error", err)
			c.JSON(http.StatusServiceUnavailable, gin.H{
				"status": "degraded",
				"model":  "unreachable",
			})
			return
		}

		c.JSON(http.StatusOK, gin.H{
			"status": "ok",
			"model":  "ok",
		})
	})

	if gatherer != nil {
		router.GET("/metrics", gin.WrapH(promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{})))
	}

	router.POST("/api/analysis", func(c *gin.Context) {
		var payload reasoning.CaseInput
		if err := c.ShouldBindJSON(&payload); err != nil {
			c.JSON(http.StatusUnprocessableEntity, gin.H{
				"error":   "validation_failed",
				"details": validationDetails(err),
			})
			return
		}

		res := analyzer.Run(c.Request.Context(), payload)
		c.JSON(analysisStatus(res), newAnalysisResponse(res))
	})

	return router
}

func newAnalysisResponse(res reasoning.Result) analysisResponse {
	resp := analysisResponse{Result: res}
	if res.HasOutput() {
		resp.Sections = render.Sections(res.Output)
		resp.HTML = render.HTML(res.Output)
	}
	return resp
}

// analysisStatus maps a transport abort to 502 and rejected case data to 422.
// Success, soft-fail and exhaustion are all well-formed answers and return 200.
func analysisStatus(res reasoning.Result) int {
	switch res.Cause {
	case reasoning.CauseTransport:
		return http.StatusBadGateway
	case reasoning.CauseInvalidInput:
		return http.StatusUnprocessableEntity
	default:
		return http.StatusOK
	}
}

func validationDetails(err error) []string {
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return []string{"invalid payload"}
	}
	details := make([]string, 0, len(verrs))
	for _, fe := range verrs {
		switch fe.Field() {
		case "Age":
			details = append(details, "age must be a whole number between 0 and 120")
		case "Sex":
			details = append(details, "sex must be Male or Female")
		default:
			details = append(details, fmt.Sprintf("%s is too long", fe.Field()))
		}
	}
	return details
}

func limitBodySize(maxBytes int64) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, maxBytes)
		c.Next()
	}
}

func requestLogger(log *logger.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		log.Info("http request",
			"method", c.Request.Method,
			"path", c.Request.URL.Path,
			"status", c.Writer.Status(),
			"duration_ms", time.Since(start).Milliseconds(),
			"client_ip", c.ClientIP(),
		)
	}
}
