package main

import (
	"context"
	"net/http"
	"os"

	"github.com/hibiken/asynq"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/redis/go-redis/v9"
	"github.com/robfig/cron/v3"
	"github.com/rs/zerolog"

	"go-media-platform/internal/cache"
	"go-media-platform/internal/config"
	"go-media-platform/internal/database"
	"go-media-platform/internal/folders"
	"go-media-platform/internal/ingest"
	"go-media-platform/internal/search"
	"go-media-platform/internal/storage"
	"go-media-platform/internal/thumbnail"
)

func main() {
	log := zerolog.New(os.Stderr).With().Timestamp().Str("service", "worker").Logger()

	cfg, err := config.Load()
	if err != nil {
		log.Fatal().Err(err).Msg("failed to load configuration")
	}

	db, err := database.Connect(cfg)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to connect to database")
	}
	if err := database.Migrate(db); err != nil {
		log.Fatal().Err(err).Msg("failed to run migrations")
	}

	store, err := storage.New(cfg)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to initialize storage")
	}

	redisOpt := asynq.RedisClientOpt{
		Addr:     cfg.Redis.Addr,
		Password: cfg.Redis.Password,
		DB:       cfg.Redis.DB,
	}

	queue := ingest.NewQueue(redisOpt)
	defer queue.Close()

	rdb := redis.NewClient(&redis.Options{
		Addr:     cfg.Redis.Addr,
		Password: cfg.Redis.Password,
		DB:       cfg.Redis.DB,
	})
	defer rdb.Close()

	esClient, err := search.NewElasticsearchClient(cfg.Elasticsearch)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to initialize search client")
	}
	indexer := search.NewIndexer(db, esClient, log)

	folderSvc := folders.NewService(db, cache.New(rdb), cfg.Pipeline.FolderCacheTTL, queue, log)
	materializer := ingest.NewMaterializer(db, indexer, queue, log)
	generator := thumbnail.NewGenerator(db, store, cfg.Pipeline.ThumbnailSize, cfg.Pipeline.FFmpegTimeout, log)

	if os.Getenv("REINDEX_ON_START") == "true" {
		go func() {
			count, err := indexer.ReindexAll(context.Background())
			if err != nil {
				log.Error().Err(err).Msg("startup reindex failed")
				return
			}
			log.Info().Int("documents", count).Msg("startup reindex done")
		}()
	}

	if cfg.Pipeline.ReindexSchedule != "" {
		scheduler := cron.New()
		_, err := scheduler.AddFunc(cfg.Pipeline.ReindexSchedule, func() {
			count, err := indexer.ReindexAll(context.Background())
			if err != nil {
				log.Error().Err(err).Msg("scheduled reindex failed")
				return
			}
			log.Info().Int("documents", count).Msg("scheduled reindex done")
		})
		if err != nil {
			log.Fatal().Err(err).Str("schedule", cfg.Pipeline.ReindexSchedule).Msg("invalid reindex schedule")
		}
		scheduler.Start()
		defer scheduler.Stop()
	}

	// Metrics endpoint for the worker process.
	go func() {
		mux := http.NewServeMux()
		mux.Handle("/metrics", promhttp.Handler())
		if err := http.ListenAndServe(":9090", mux); err != nil {
			log.Error().Err(err).Msg("metrics endpoint exited")
		}
	}()

	srv := asynq.NewServer(redisOpt, asynq.Config{
		Concurrency: cfg.Pipeline.WorkerCount,
		Queues:      map[string]int{"default": 1},
	})

	mux := asynq.NewServeMux()
	mux.HandleFunc(ingest.TaskCreateMedia, materializer.HandleCreateMedia)
	mux.HandleFunc(ingest.TaskThumbnail, generator.HandleThumbnail)
	mux.Handle(ingest.TaskFolderChanged, ingest.NewFolderChangedHandler(folderSvc, log))

	log.Info().Int("concurrency", cfg.Pipeline.WorkerCount).Msg("starting worker")
	if err := srv.Run(mux); err != nil {
		log.Fatal().Err(err).Msg("worker exited")
	}
}
