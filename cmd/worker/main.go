package main

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/hibiken/asynq"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"

	"github.com/dom/storyverse/internal/config"
	"github.com/dom/storyverse/internal/jobs"
	"github.com/dom/storyverse/internal/logging"
	"github.com/dom/storyverse/internal/workflow"
	"github.com/dom/storyverse/internal/workflow/checkpoint"
)

const exampleThreadID = "example-thread-1"

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	cfg, err := config.Load()
	if err != nil {
		slog.Default().Error("load config", slog.Any("error", err))
		os.Exit(1)
	}
	logger := logging.New(cfg).With(slog.String("worker", cfg.WorkerName))

	poolCfg, err := pgxpool.ParseConfig(cfg.DatabaseURL)
	if err != nil {
		logger.Error("parse database url", slog.Any("error", err))
		os.Exit(1)
	}
	poolCfg.MaxConns = cfg.CheckpointPoolSize
	pool, err := pgxpool.NewWithConfig(ctx, poolCfg)
	if err != nil {
		logger.Error("connect database", slog.Any("error", err))
		os.Exit(1)
	}
	defer pool.Close()

	checkpoints := checkpoint.NewPostgres(pool)
	if err := checkpoints.Setup(ctx); err != nil {
		logger.Error("setup checkpoints", slog.Any("error", err))
		os.Exit(1)
	}

	redisClient := redis.NewClient(&redis.Options{Addr: cfg.RedisAddr})
	defer func() {
		if err := redisClient.Close(); err != nil {
			logger.Warn("redis close", slog.Any("error", err))
		}
	}()
	if err := redisClient.Ping(ctx).Err(); err != nil {
		logger.Warn("redis ping", slog.Any("error", err))
	}

	graph, err := workflow.NewExampleGraph(checkpoints, logger)
	if err != nil {
		logger.Error("compile example graph", slog.Any("error", err))
		os.Exit(1)
	}
	runner := jobs.NewRunner(map[string]jobs.Runnable{
		workflow.ExampleGraphName: jobs.Bind(graph),
	}, logger)

	redisOpts := asynq.RedisClientOpt{Addr: cfg.RedisAddr}
	worker, err := jobs.NewWorker(jobs.WorkerConfig{
		RedisOpts:   redisOpts,
		Concurrency: cfg.WorkerConcurrency,
		Logger:      logger,
		Handlers: []jobs.TaskHandler{
			{Type: jobs.TaskWorkflowRun, Handler: runner.Handle},
		},
	})
	if err != nil {
		logger.Error("init worker", slog.Any("error", err))
		os.Exit(1)
	}

	if cfg.WorkerRunExample {
		if err := enqueueExample(ctx, redisOpts, logger); err != nil {
			logger.Error("enqueue example", slog.Any("error", err))
		}
	}

	logger.Info("worker starting", slog.Int("concurrency", cfg.WorkerConcurrency))
	if err := worker.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
		logger.Error("worker run", slog.Any("error", err))
		os.Exit(1)
	}
	logger.Info("worker stopped")
}

func enqueueExample(ctx context.Context, redisOpts asynq.RedisClientOpt, logger *slog.Logger) error {
	input, err := json.Marshal(workflow.ExampleInput("Hello, start the workflow!"))
	if err != nil {
		return err
	}
	client := jobs.NewClient(redisOpts)
	defer client.Close()

	info, err := client.EnqueueWorkflow(ctx, jobs.WorkflowRunPayload{
		Graph:    workflow.ExampleGraphName,
		ThreadID: exampleThreadID,
		Input:    input,
	})
	if err != nil {
		return err
	}
	logger.Info("example workflow enqueued", slog.String("task_id", info.ID), slog.String("thread_id", exampleThreadID))
	return nil
}
