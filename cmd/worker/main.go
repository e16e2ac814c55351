package main

import (
	"context"
	"errors"
	"log"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"
	"github.com/suPer8Hu/companion-studio/internal/app"
	"github.com/suPer8Hu/companion-studio/internal/companion"
	"github.com/suPer8Hu/companion-studio/internal/config"
	"github.com/suPer8Hu/companion-studio/internal/db"
	"github.com/suPer8Hu/companion-studio/internal/logging"
	"github.com/suPer8Hu/companion-studio/internal/store/rabbitmq"
	"github.com/suPer8Hu/companion-studio/internal/store/redisstore"
	"github.com/suPer8Hu/companion-studio/internal/worker"
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

	var closers app.Closers
	defer func() {
		if err := closers.Close(); err != nil {
			logger.Error("shutdown", zap.Error(err))
		}
	}()

	gdb, err := db.Connect(cfg.DBDSN)
	if err != nil {
		logger.Fatal("db connect", zap.Error(err))
	}
	closers.Add("db", func() error { return db.Close(gdb) })

	rds := redisstore.New(cfg.RedisAddr, cfg.RedisPassword, cfg.RedisDB, cfg.CategoryCacheTTL)
	closers.Add("redis", rds.Close)

	counter := worker.NewCategoryCounter(companion.NewRepo(gdb), rds, logger)

	conn, err := amqp.Dial(cfg.RabbitURL)
	if err != nil {
		logger.Fatal("rabbit dial", zap.Error(err))
	}
	closers.Add("rabbit conn", conn.Close)

	ch, err := conn.Channel()
	if err != nil {
		logger.Fatal("rabbit channel", zap.Error(err))
	}
	closers.Add("rabbit channel", ch.Close)

	topo := rabbitmq.NewTopology(cfg.RabbitQueue)
	if err := topo.Declare(ch); err != nil {
		logger.Fatal("queue declare", zap.Error(err))
	}

	concurrency := cfg.WorkerConcurrency
	if err := ch.Qos(concurrency, 0, false); err != nil {
		logger.Fatal("qos", zap.Error(err))
	}

	msgs, err := ch.Consume(cfg.RabbitQueue, "", false, false, false, false, nil)
	if err != nil {
		logger.Fatal("consume", zap.Error(err))
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	logger.Info("worker started", zap.String("queue", cfg.RabbitQueue), zap.Int("concurrency", concurrency))

	jobs := make(chan amqp.Delivery, concurrency*2)

	var wg sync.WaitGroup
	wg.Add(concurrency)
	for i := 0; i < concurrency; i++ {
		go func(workerID int) {
			defer wg.Done()
			wlog := logger.With(zap.Int("worker", workerID))
			for d := range jobs {
				handleDelivery(ctx, wlog, counter, retrier{topo: topo, ch: ch}, d)
			}
		}(i)
	}

	for {
		select {
		case <-ctx.Done():
			logger.Info("worker shutting down")
			close(jobs)
			wg.Wait()
			return

		case d, ok := <-msgs:
			if !ok {
				logger.Warn("delivery channel closed")
				close(jobs)
				wg.Wait()
				return
			}
			jobs <- d
		}
	}
}

const maxRetries = 3

type retrier struct {
	topo rabbitmq.Topology
	ch   *amqp.Channel
}

func handleDelivery(ctx context.Context, log *zap.Logger, counter *worker.CategoryCounter, r retrier, d amqp.Delivery) {
	evt, err := rabbitmq.DecodeEvent(d.Body)
	if err != nil {
		log.Warn("bad message", zap.String("message_id", d.MessageId), zap.Error(err))
		_ = d.Nack(false, false)
		return
	}

	start := time.Now()
	err = counter.Handle(ctx, evt)
	if err == nil {
		if err := d.Ack(false); err != nil {
			log.Warn("ack failed", zap.String("event_id", evt.EventID), zap.Error(err))
		}
		return
	}

	attempts := rabbitmq.Attempts(d)
	retry := !errors.Is(err, worker.ErrBadEvent) && attempts < maxRetries
	log.Error("event failed",
		zap.String("event_id", evt.EventID),
		zap.String("companion_id", evt.CompanionID),
		zap.Int("attempts", attempts),
		zap.Bool("retry", retry),
		zap.Duration("cost", time.Since(start)),
		zap.Error(err),
	)
	if !retry {
		_ = d.Nack(false, false)
		return
	}

	// not ctx: the event must reach the retry queue during shutdown too
	if err := r.topo.PublishRetry(context.Background(), r.ch, d); err != nil {
		log.Error("retry publish failed", zap.String("event_id", evt.EventID), zap.Error(err))
		_ = d.Nack(false, false)
		return
	}
	_ = d.Ack(false)
}
