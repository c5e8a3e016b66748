// Package search keeps the media index in sync and serves free-text
// queries over it.
package search

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"

	"github.com/rs/zerolog"
	"gorm.io/gorm"

	"go-media-platform/internal/models"
)

// IndexName is the index media documents are written to.
const IndexName = "medias"

// searchColumns are the database columns a free-text query matches
// against.
var searchColumns = []string{"title", "file_name", "path", "context_key", "mime_type", "alt"}

// Document is the projection stored in the index. The id is enough to
// hydrate the full record from the database; the path makes the document
// self-describing when inspected.
type Document struct {
	ID   string `json:"id"`
	Path string `json:"path"`
}

// Indexer writes media documents into the search index and answers
// queries.
type Indexer struct {
	db     *gorm.DB
	client Client
	log    zerolog.Logger
}

func NewIndexer(db *gorm.DB, client Client, log zerolog.Logger) *Indexer {
	return &Indexer{
		db:     db,
		client: client,
		log:    log.With().Str("component", "search").Logger(),
	}
}

// Index upserts the document for a single media record.
func (i *Indexer) Index(ctx context.Context, media *models.Media) error {
	doc := Document{ID: media.ID, Path: media.Path}
	if err := i.client.Index(ctx, IndexName, media.ID, doc); err != nil {
		return fmt.Errorf("failed to index media %s: %w", media.ID, err)
	}
	return nil
}

// SearchMedias runs a free-text query over the indexed columns and
// hydrates the hits from the database, scoped to the workplace.
func (i *Indexer) SearchMedias(ctx context.Context, scope, query string) ([]models.Media, error) {
	body := map[string]interface{}{
		"query": map[string]interface{}{
			"multi_match": map[string]interface{}{
				"query":  query,
				"fields": searchColumns,
			},
		},
	}

	hits, err := i.client.Search(ctx, IndexName, body)
	if err != nil {
		return nil, fmt.Errorf("media search failed: %w", err)
	}
	if len(hits) == 0 {
		return []models.Media{}, nil
	}

	ids := make([]string, 0, len(hits))
	for _, hit := range hits {
		var doc Document
		if err := json.Unmarshal(hit, &doc); err != nil {
			i.log.Warn().Err(err).Msg("skipping malformed search hit")
			continue
		}
		ids = append(ids, doc.ID)
	}

	var medias []models.Media
	err = i.db.WithContext(ctx).
		Where("workplace_id = ? AND id IN ?", scope, ids).
		Find(&medias).Error
	if err != nil {
		return nil, err
	}

	// Hydration comes back in database order; restore the relevance order
	// the index reported.
	rank := make(map[string]int, len(ids))
	for pos, id := range ids {
		rank[id] = pos
	}
	sort.SliceStable(medias, func(a, b int) bool {
		return rank[medias[a].ID] < rank[medias[b].ID]
	})
	return medias, nil
}

// ReindexAll rebuilds the index from the database, walking all live media
// in batches. Returns the number of documents written.
func (i *Indexer) ReindexAll(ctx context.Context) (int, error) {
	if err := i.client.DeleteIndex(ctx, IndexName); err != nil {
		return 0, fmt.Errorf("failed to drop index before reindex: %w", err)
	}

	indexed := 0
	var batch []models.Media
	err := i.db.WithContext(ctx).FindInBatches(&batch, 200, func(tx *gorm.DB, _ int) error {
		for idx := range batch {
			if err := i.Index(ctx, &batch[idx]); err != nil {
				return err
			}
			indexed++
		}
		return nil
	}).Error
	if err != nil {
		return indexed, err
	}

	i.log.Info().Int("documents", indexed).Msg("media reindex complete")
	return indexed, nil
}
