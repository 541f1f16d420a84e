package restapi

import (
	"time"

	"solana_tokens/internal/app/port"
	"solana_tokens/internal/app/provider"
	"solana_tokens/internal/infrastructure/configloader"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
	"go.uber.org/zap"
)

// SetupRouter builds the gin engine. Token routes live under /api/v1, which is the
// subtree the store is provided to.
func SetupRouter(store port.TokenStore, cfg *configloader.Config, appLogger port.Logger, zapLogger *zap.Logger) *gin.Engine {
	router := gin.New()

	corsConfig := cors.DefaultConfig()
	corsConfig.AllowAllOrigins = true
	corsConfig.AllowMethods = []string{"GET", "POST", "OPTIONS"}
	corsConfig.AllowHeaders = []string{"Origin", "Content-Type", "Accept"}
	router.Use(cors.New(corsConfig))
	router.Use(ZapLoggerMiddleware(zapLogger))
	router.Use(gin.Recovery())

	tokenHandler := NewTokenHandler(appLogger)
	apiV1 := router.Group("/api/v1", provider.Middleware(store))
	{
		apiV1.GET("/tokens", tokenHandler.ListTokens)
		apiV1.GET("/tokens/:address", tokenHandler.GetToken)
		apiV1.POST("/tokens/strict", tokenHandler.RefreshStrict)
		apiV1.POST("/tokens/all", tokenHandler.RefreshAll)
	}

	router.GET("/metrics", gin.WrapH(promhttp.Handler()))

	if cfg != nil && cfg.Swagger.Enabled {
		router.StaticFile("/docs/swagger.yaml", "./docs/swagger.yaml")
		swaggerURL := ginSwagger.URL("/docs/swagger.yaml")
		router.GET(cfg.Swagger.Path+"/*any", ginSwagger.WrapHandler(swaggerFiles.Handler, swaggerURL))
	}

	return router
}

// ZapLoggerMiddleware logs one entry per request.
func ZapLoggerMiddleware(logger *zap.Logger) gin.HandlerFunc {
	if logger == nil {
		logger = zap.NewNop()
	}
	logger = logger.Named("HTTP")
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		logger.Info("Request handled",
			zap.String("method", c.Request.Method),
			zap.String("path", c.Request.URL.Path),
			zap.Int("status", c.Writer.Status()),
			zap.Duration("latency", time.Since(start)),
		)
	}
}
