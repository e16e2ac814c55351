package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/suPer8Hu/companion-studio/internal/app"
	"github.com/suPer8Hu/companion-studio/internal/companion"
	"github.com/suPer8Hu/companion-studio/internal/config"
	"github.com/suPer8Hu/companion-studio/internal/db"
	"github.com/suPer8Hu/companion-studio/internal/httpapi"
	"github.com/suPer8Hu/companion-studio/internal/logging"
	"github.com/suPer8Hu/companion-studio/internal/store/rabbitmq"
	"github.com/suPer8Hu/companion-studio/internal/store/redisstore"
	"go.uber.org/zap"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("config: %v", err)
	}

	logger, err := logging.New(cfg.LogLevel, cfg.LogFormat)
	if err != nil {
		log.Fatalf("logger: %v", err)
	}
	defer func() { _ = logger.Sync() }()

	if cfg.LogFormat == "json" {
		gin.SetMode(gin.ReleaseMode)
	}

	var closers app.Closers

	gdb, err := db.Connect(cfg.DBDSN)
	if err != nil {
		logger.Fatal("db connect", zap.Error(err))
	}
	closers.Add("db", func() error { return db.Close(gdb) })

	if err := db.Migrate(gdb); err != nil {
		logger.Fatal("db migrate", zap.Error(err))
	}
	if n, err := db.SeedCategories(context.Background(), gdb, db.DefaultCategories); err != nil {
		logger.Fatal("seed categories", zap.Error(err))
	} else if n > 0 {
		logger.Info("seeded categories", zap.Int("created", n))
	}

	var rds *redisstore.Store
	if cfg.RedisEnabled {
		rds = redisstore.New(cfg.RedisAddr, cfg.RedisPassword, cfg.RedisDB, cfg.CategoryCacheTTL)
		pctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		err := rds.Ping(pctx)
		cancel()
		if err != nil {
			logger.Warn("redis unavailable, category cache disabled", zap.String("addr", cfg.RedisAddr), zap.Error(err))
			_ = rds.Close()
			rds = nil
		} else {
			closers.Add("redis", rds.Close)
		}
	}

	var notifier companion.Notifier
	if cfg.EventsEnabled {
		pub, err := rabbitmq.NewPublisher(cfg.RabbitURL, cfg.RabbitQueue)
		if err != nil {
			logger.Warn("rabbitmq unavailable, companion events disabled", zap.String("queue", cfg.RabbitQueue), zap.Error(err))
		} else {
			notifier = pub
			closers.Add("rabbitmq", pub.Close)
		}
	}

	srv := &http.Server{
		Addr:              cfg.HTTPAddr,
		Handler:           httpapi.NewRouter(gdb, cfg, rds, notifier, logger),
		ReadHeaderTimeout: 10 * time.Second,
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	go func() {
		logger.Info("server started", zap.String("addr", cfg.HTTPAddr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("listen", zap.Error(err))
			stop()
		}
	}()

	<-ctx.Done()
	logger.Info("server shutting down")

	sctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	closers.Add("http", func() error { return srv.Shutdown(sctx) })

	if err := closers.Close(); err != nil {
		logger.Error("shutdown", zap.Error(err))
	}
}
