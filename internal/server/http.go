package server

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	authpkg "github.com/lk2023060901/iqac-backend/internal/auth"
	"github.com/lk2023060901/iqac-backend/internal/auth/middleware"
	"github.com/lk2023060901/iqac-backend/internal/conf"
	"github.com/lk2023060901/iqac-backend/internal/pkg/logger"
	"github.com/lk2023060901/iqac-backend/internal/record/service"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

type HTTPServer struct {
	server *http.Server
	logger *logger.Logger
}

func NewHTTPServer(
	config *conf.Config,
	log *logger.Logger,
	jwtManager *authpkg.JWTManager,
	authService *authpkg.AuthService,
	recordService *service.RecordService,
	redisClient *redis.Client,
) *HTTPServer {
	gin.SetMode(gin.ReleaseMode)

	router := gin.New()
	router.Use(logger.GinRecovery(log))
	router.Use(logger.GinLogger(log))
	router.Use(middleware.CORS())

	// Uploads never need more than the configured ceiling in memory.
	router.MaxMultipartMemory = config.Upload.MaxSizeBytes

	router.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"status": "ok",
			"time":   time.Now().Format(time.RFC3339),
		})
	})

	api := router.Group("/api")
	api.Use(middleware.OptionalJWTAuth(jwtManager))

	authService.RegisterRoutes(api)

	uploadLimiter := middleware.RateLimiter(redisClient, middleware.RateLimiterConfig{}, log)
	recordService.RegisterRoutes(api, middleware.RequireAdmin(jwtManager, log), uploadLimiter)

	addr := fmt.Sprintf("%s:%d", config.Server.Host, config.Server.Port)

	return &HTTPServer{
		server: &http.Server{
			Addr:    addr,
			Handler: router,
		},
		logger: log,
	}
}

func (s *HTTPServer) Start() error {
	s.logger.Info("starting HTTP server", zap.String("addr", s.server.Addr))

	if err := s.server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return err
	}

	return nil
}

func (s *HTTPServer) Stop(ctx context.Context) error {
	s.logger.Info("stopping HTTP server")
	return s.server.Shutdown(ctx)
}
