package http

import (
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/coinfolio/coinfolio-backend/internal/usecase/dashboard"
	"github.com/coinfolio/coinfolio-backend/internal/usecase/ledger"
)

// Server exposes the dashboard and ledger services over a JSON API
type Server struct {
	R                *gin.Engine
	LedgerService    *ledger.LedgerService
	DashboardService *dashboard.DashboardService
	Logger           *zap.Logger
}

// NewServer wires the router, services, and middleware.
// An empty apiToken disables the bearer-token check (local development).
func NewServer(
	ledgerService *ledger.LedgerService,
	dashboardService *dashboard.DashboardService,
	logger *zap.Logger,
	corsOrigin string,
	apiToken string,
) *Server {
	g := gin.New()

	// Request logging
	g.Use(func(c *gin.Context) {
		start := time.Now()
		c.Next()
		logger.Info("http_request",
			zap.String("method", c.Request.Method),
			zap.String("path", c.Request.URL.Path),
			zap.Int("status", c.Writer.Status()),
			zap.String("ip", c.ClientIP()),
			zap.Duration("latency", time.Since(start)),
		)
	})

	g.Use(gin.Recovery())

	// CORS
	g.Use(func(c *gin.Context) {
		origin := c.GetHeader("Origin")
		c.Writer.Header().Set("Vary", "Origin")
		c.Writer.Header().Set("Access-Control-Allow-Headers", "Content-Type, Authorization")
		c.Writer.Header().Set("Access-Control-Allow-Methods", "GET, POST, OPTIONS")
		c.Writer.Header().Set("Access-Control-Max-Age", "86400")
		if corsOrigin == "*" {
			c.Writer.Header().Set("Access-Control-Allow-Origin", "*")
		} else if origin != "" && origin == corsOrigin {
			c.Writer.Header().Set("Access-Control-Allow-Origin", corsOrigin)
		}
		if c.Request.Method == http.MethodOptions {
			c.AbortWithStatus(http.StatusNoContent)
			return
		}
		c.Next()
	})

	s := &Server{
		R:                g,
		LedgerService:    ledgerService,
		DashboardService: dashboardService,
		Logger:           logger,
	}

	g.GET("/health", func(c *gin.Context) { c.JSON(http.StatusOK, gin.H{"ok": true}) })

	api := g.Group("/api")
	if apiToken != "" {
		api.Use(bearerToken(apiToken))
	}
	api.GET("/portfolio", s.getPortfolio)
	api.GET("/realized", s.getRealizedSales)
	api.GET("/transactions", s.getTransactions)
	api.POST("/transactions", s.postTransaction)
	api.GET("/profiles", s.getProfiles)
	api.POST("/profiles", s.postProfile)

	return s
}

// bearerToken validates the Authorization header against a static token.
// Missing or mismatching tokens abort with 401.
func bearerToken(validToken string) gin.HandlerFunc {
	return func(c *gin.Context) {
		header := c.GetHeader("Authorization")
		if header == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, apiError{Code: "unauthorized", Message: "missing authorization header"})
			return
		}
		token := strings.TrimPrefix(header, "Bearer ")
		if token != validToken {
			c.AbortWithStatusJSON(http.StatusUnauthorized, apiError{Code: "unauthorized", Message: "invalid token"})
			return
		}
		c.Next()
	}
}
