package main

import (
	"os"

	"github.com/gin-gonic/gin"
	"github.com/hibiken/asynq"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"

	"go-media-platform/internal/api"
	"go-media-platform/internal/api/handlers"
	"go-media-platform/internal/cache"
	"go-media-platform/internal/config"
	"go-media-platform/internal/database"
	"go-media-platform/internal/folders"
	"go-media-platform/internal/ingest"
	"go-media-platform/internal/search"
	"go-media-platform/internal/storage"
)

func main() {
	log := zerolog.New(os.Stderr).With().Timestamp().Logger()

	cfg, err := config.Load()
	if err != nil {
		log.Fatal().Err(err).Msg("failed to load configuration")
	}
	if cfg.Server.Env == "production" {
		gin.SetMode(gin.ReleaseMode)
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

	queue := ingest.NewQueue(asynq.RedisClientOpt{
		Addr:     cfg.Redis.Addr,
		Password: cfg.Redis.Password,
		DB:       cfg.Redis.DB,
	})
	defer queue.Close()

	rdb := redis.NewClient(&redis.Options{
		Addr:     cfg.Redis.Addr,
		Password: cfg.Redis.Password,
		DB:       cfg.Redis.DB,
	})
	defer rdb.Close()

	folderSvc := folders.NewService(db, cache.New(rdb), cfg.Pipeline.FolderCacheTTL, queue, log)

	esClient, err := search.NewElasticsearchClient(cfg.Elasticsearch)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to initialize search client")
	}
	indexer := search.NewIndexer(db, esClient, log)

	h := handlers.New(db, cfg, store, queue, folderSvc, indexer, log)

	router := gin.Default()
	api.SetupRoutes(router, h, cfg.JWT.Secret)

	log.Info().Str("port", cfg.Server.Port).Msg("starting api server")
	if err := router.Run(":" + cfg.Server.Port); err != nil {
		log.Fatal().Err(err).Msg("server exited")
	}
}
