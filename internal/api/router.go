package api

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/akylbek/payment-system/payment-checkout/internal/handlers"
	"github.com/akylbek/payment-system/payment-checkout/internal/metrics"
	"github.com/akylbek/payment-system/payment-checkout/internal/telemetry"
)

func NewRouter(checkout *handlers.CheckoutHandler, payments *handlers.PaymentHandler) *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(telemetry.TracingMiddleware())
	r.Use(metrics.Middleware)

	// Prometheus metrics
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))

	// Health check
	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok", "service": "payment-checkout"})
	})

	// Checkout sessions
	sessions := r.Group("/checkout/sessions")
	sessions.POST("", checkout.CreateSession)
	sessions.GET("/:id", checkout.GetSession)
	sessions.POST("/:id/submit", checkout.Submit)
	sessions.POST("/:id/reset", checkout.Reset)

	// Charge endpoint
	r.POST("/api/payment", payments.Charge)
	r.GET("/api/payment/:id", payments.GetCharge)

	return r
}
