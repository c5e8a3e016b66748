// Package handlers exposes the media platform over HTTP. Handlers stay
// thin: validation, folder resolution and blob writes happen inline, and
// everything durable is materialized by the worker from queued messages.
package handlers

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
	"gorm.io/gorm"

	"go-media-platform/internal/config"
	"go-media-platform/internal/faults"
	"go-media-platform/internal/folders"
	"go-media-platform/internal/ingest"
	"go-media-platform/internal/models"
	"go-media-platform/internal/storage"
)

// MediaEnqueuer is the queue surface the upload handler needs.
type MediaEnqueuer interface {
	EnqueueCreateMedia(ctx context.Context, msg ingest.CreateMediaMessage) error
}

// MediaSearcher answers free-text media queries.
type MediaSearcher interface {
	SearchMedias(ctx context.Context, scope, query string) ([]models.Media, error)
}

// Handler bundles the dependencies the HTTP adapters share.
type Handler struct {
	db      *gorm.DB
	cfg     *config.Config
	store   storage.Storage
	queue   MediaEnqueuer
	folders *folders.Service
	search  MediaSearcher
	log     zerolog.Logger
}

func New(db *gorm.DB, cfg *config.Config, store storage.Storage, queue MediaEnqueuer, folderSvc *folders.Service, searcher MediaSearcher, log zerolog.Logger) *Handler {
	return &Handler{
		db:      db,
		cfg:     cfg,
		store:   store,
		queue:   queue,
		folders: folderSvc,
		search:  searcher,
		log:     log.With().Str("component", "api").Logger(),
	}
}

// scope returns the workplace the authenticated request acts in.
func scope(c *gin.Context) string {
	return c.GetString("workplace_id")
}

func actingUser(c *gin.Context) *string {
	if userID := c.GetString("user_id"); userID != "" {
		return &userID
	}
	return nil
}

// respondError maps the fault taxonomy onto status codes. Anything outside
// the taxonomy is a 500 with the detail kept in the logs.
func (h *Handler) respondError(c *gin.Context, err error) {
	switch {
	case faults.IsValidation(err):
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
	case faults.IsNotFound(err):
		c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
	case faults.IsPathSecurity(err):
		c.JSON(http.StatusForbidden, gin.H{"error": err.Error()})
	default:
		h.log.Error().Err(err).Str("path", c.FullPath()).Msg("request failed")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Internal server error"})
	}
}
