package api

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"github.com/mdawahq/mdawa-transfer/internal/auth"
	"github.com/mdawahq/mdawa-transfer/internal/middleware"
)

type Router struct {
	handler *Handler
	auth    *auth.Service
}

func NewRouter(handler *Handler, authService *auth.Service) *Router {
	return &Router{
		handler: handler,
		auth:    authService,
	}
}

func (r *Router) SetupRouter(logger *zap.Logger) *gin.Engine {
	router := gin.New()

	router.Use(
		middleware.RequestID(),
		middleware.SecurityHeaders(),
		middleware.Recovery(logger),
		middleware.Logger(logger),
		middleware.RateLimit(rate.Every(time.Second), 30),
	)

	router.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "healthy"})
	})

	api := router.Group("/api")
	{
		api.POST("/auth/login", r.handler.Login)

		protected := api.Group("")
		protected.Use(auth.RequireAuth(r.auth))
		{
			transfers := protected.Group("/transfers")
			{
				transfers.POST("/receive", r.handler.ReceiveTransfer)
				transfers.POST("/verify", r.handler.VerifyTransfer)
			}

			patients := protected.Group("/patients")
			{
				patients.GET("", r.handler.ListPatients)
				patients.GET("/:id", r.handler.GetPatient)
			}
		}
	}

	router.NoRoute(func(c *gin.Context) {
		c.JSON(http.StatusNotFound, gin.H{"error": "endpoint not found"})
	})

	return router
}
