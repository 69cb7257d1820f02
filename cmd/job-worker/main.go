// Package main 异步章节生成任务执行器入口（job-worker）
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"novel-planner/internal/config"
	"novel-planner/internal/domain/entity"
	"novel-planner/internal/infrastructure/llm"
	"novel-planner/internal/infrastructure/messaging"
	"novel-planner/internal/wire"
	"novel-planner/pkg/logger"
	"novel-planner/pkg/tracer"
)

const dlqAlertThreshold = 100

func main() {
	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		fmt.Printf("Failed to load config: %v\n", err)
		os.Exit(1)
	}

	logger.Init(cfg.Observability.Logging.Level, cfg.Observability.Logging.Format)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	shutdown, err := tracer.Init(ctx, tracer.Config{
		ServiceName: "job-worker",
		Endpoint:    cfg.Observability.Tracing.Endpoint,
		SampleRate:  cfg.Observability.Tracing.SampleRate,
		Enabled:     cfg.Observability.Tracing.Enabled,
	})
	if err != nil {
		logger.Fatal(ctx, "failed to init tracer", err)
	}
	defer func() { _ = shutdown(context.Background()) }()

	llm.RegisterCallbacks()

	worker, cleanup, err := wire.InitializeWorker(ctx, cfg)
	if err != nil {
		logger.Fatal(ctx, "failed to initialize service", err)
	}
	defer cleanup()
	svc, dl := worker.Service, worker.Data
	if dl.RedisClient == nil {
		logger.Fatal(ctx, "job-worker requires redis", fmt.Errorf("cache.redis is disabled or unreachable"))
	}

	streamCfg := cfg.Messaging.RedisStream
	consumer := messaging.NewConsumer(dl.RedisClient.Redis(), messaging.ConsumerConfig{
		Stream:        messaging.StreamChapterGen,
		Group:         messaging.ConsumerGroupChapterWorker.WithPrefix(streamCfg.ConsumerGroupPrefix),
		ConsumerName:  hostnameConsumerName(),
		BlockTimeout:  streamCfg.BlockTimeout,
		ClaimInterval: streamCfg.ClaimInterval,
		RetryLimit:    streamCfg.RetryLimit,
		Backoff:       messaging.BackoffFromConfig(streamCfg.RetryBackoff),
	})

	consumer.RegisterHandler(entity.JobTypeChapterGen, func(ctx context.Context, msg *messaging.Message) error {
		var job entity.GenerationJob
		if err := msg.UnmarshalPayload(&job); err != nil {
			return err
		}
		return svc.HandleChapterJob(ctx, &job)
	})

	if err := consumer.Start(ctx); err != nil {
		logger.Fatal(ctx, "failed to start consumer", err)
	}
	go consumer.MonitorDLQ(ctx, dlqAlertThreshold)

	log := logger.FromContext(ctx)
	log.Info("job-worker started", "stream", messaging.StreamChapterGen)

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info("job-worker shutting down")
	consumer.Stop()
	select {
	case <-consumer.Done():
	case <-time.After(30 * time.Second):
		log.Warn("consumer did not stop in time")
	}
	cancel()
}

func hostnameConsumerName() string {
	host, err := os.Hostname()
	if err != nil || host == "" {
		host = "worker"
	}
	return fmt.Sprintf("%s-%d", host, os.Getpid())
}
