package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	authpkg "github.com/lk2023060901/iqac-backend/internal/auth"
	"github.com/lk2023060901/iqac-backend/internal/conf"
	"github.com/lk2023060901/iqac-backend/internal/data"
	"github.com/lk2023060901/iqac-backend/internal/notify"
	"github.com/lk2023060901/iqac-backend/internal/pkg/blob"
	"github.com/lk2023060901/iqac-backend/internal/pkg/logger"
	"github.com/lk2023060901/iqac-backend/internal/record/biz"
	recorddata "github.com/lk2023060901/iqac-backend/internal/record/data"
	"github.com/lk2023060901/iqac-backend/internal/record/service"
	"github.com/lk2023060901/iqac-backend/internal/server"
	"go.uber.org/zap"
)

var (
	configFile = flag.String("config", "config.yaml", "config file path")
)

func main() {
	flag.Parse()

	config, err := conf.LoadConfig(*configFile)
	if err != nil {
		panic("failed to load config: " + err.Error())
	}

	logConfig := &logger.Config{
		Level:            config.Log.Level,
		Format:           config.Log.Format,
		Output:           config.Log.Output,
		EnableCaller:     config.Log.EnableCaller,
		EnableStacktrace: config.Log.EnableStacktrace,
		File: logger.FileConfig{
			Filename:   config.Log.File.Filename,
			MaxSize:    config.Log.File.MaxSize,
			MaxAge:     config.Log.File.MaxAge,
			MaxBackups: config.Log.File.MaxBackups,
			Compress:   config.Log.File.Compress,
		},
	}

	log, err := logger.New(logConfig)
	if err != nil {
		panic("failed to initialize logger: " + err.Error())
	}
	defer log.Sync()

	if err := logger.InitGlobal(logConfig); err != nil {
		log.Fatal("failed to initialize global logger", zap.Error(err))
	}

	log.Info("config loaded successfully")

	d, cleanup, err := data.NewData(config, log.Logger)
	if err != nil {
		log.Fatal("failed to initialize data layer", zap.Error(err))
	}
	defer cleanup()

	blobStore, err := newBlobStore(config, d)
	if err != nil {
		// A deployment without working payload storage must not serve.
		log.Fatal("failed to initialize blob store", zap.Error(err))
	}

	recordRepo := recorddata.NewRecordRepo(d.DB)
	notifier := notify.NewDecisionNotifier(config.SMTP, log.Logger)

	recordUseCase := biz.NewRecordUseCase(
		recordRepo,
		blobStore,
		notifier,
		config.Upload.AllowedMimeTypes,
		config.Upload.AutoApproveKinds,
		log.Logger,
	)

	jwtManager := authpkg.NewJWTManager(config.Auth.JWTSecret, config.Auth.JWTIssuer, config.Auth.TokenTTL)
	authService := authpkg.NewAuthService(config.Auth, jwtManager, log.Logger)
	recordService := service.NewRecordService(recordUseCase, config.Upload, log.Logger)

	httpServer := server.NewHTTPServer(config, log, jwtManager, authService, recordService, d.RedisClient)

	go func() {
		if err := httpServer.Start(); err != nil {
			log.Fatal("failed to start HTTP server", zap.Error(err))
		}
	}()

	log.Info("server started successfully")

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info("shutting down server...")

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := httpServer.Stop(ctx); err != nil {
		log.Error("HTTP server forced to shutdown", zap.Error(err))
	}

	log.Info("server exited")
}

func newBlobStore(config *conf.Config, d *data.Data) (blob.Store, error) {
	switch config.Storage.Backend {
	case "filesystem":
		return blob.NewFilesystemStore(config.Storage.RootCandidates, d.Logger)
	case "inline":
		return blob.NewInlineStore(), nil
	case "s3":
		return blob.NewS3Store(context.Background(), d.MinIOClient, config.Storage.S3.Bucket)
	default:
		return nil, fmt.Errorf("unknown storage backend %q", config.Storage.Backend)
	}
}
