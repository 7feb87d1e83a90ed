// Package router wires the HTTP routes of the retrieval service.
package router

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/kart-io/logger"

	"github.com/zakon-kg/lawrag/internal/lawrag/handler"
	"github.com/zakon-kg/lawrag/internal/lawrag/metrics"
)

// New builds the gin engine with all service routes.
func New(searchHandler *handler.SearchHandler) *gin.Engine {
	gin.SetMode(gin.ReleaseMode)

	engine := gin.New()
	engine.Use(gin.Recovery(), requestLogger())

	engine.GET("/healthz", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	engine.GET("/metrics", func(c *gin.Context) {
		c.String(http.StatusOK, metrics.GetSearchMetrics().Export("lawrag", ""))
	})

	v1 := engine.Group("/v1")
	{
		v1.POST("/answers", searchHandler.Answer)
		v1.POST("/answers/document", searchHandler.AnswerDocument)
		v1.POST("/answers/image", searchHandler.AnswerImage)
		v1.GET("/stats", searchHandler.Stats)
	}

	return engine
}

// requestLogger logs each request with method, path, status and latency.
func requestLogger() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		logger.Infow("http request",
			"method", c.Request.Method,
			"path", c.Request.URL.Path,
			"status", c.Writer.Status(),
			"latency", time.Since(start).String(),
			"client_ip", c.ClientIP(),
		)
	}
}
