package search

import (
	"context"
	"encoding/json"
	"errors"
	"path/filepath"
	"testing"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"go-media-platform/internal/models"
)

type fakeClient struct {
	docs       map[string]Document
	deletes    int
	indexErr   error
	searchHits []Document
}

func newFakeClient() *fakeClient {
	return &fakeClient{docs: map[string]Document{}}
}

func (f *fakeClient) Index(ctx context.Context, index, id string, document interface{}) error {
	if f.indexErr != nil {
		return f.indexErr
	}
	f.docs[id] = document.(Document)
	return nil
}

func (f *fakeClient) Search(ctx context.Context, index string, query map[string]interface{}) ([]json.RawMessage, error) {
	out := make([]json.RawMessage, 0, len(f.searchHits))
	for _, doc := range f.searchHits {
		raw, err := json.Marshal(doc)
		if err != nil {
			return nil, err
		}
		out = append(out, raw)
	}
	return out, nil
}

func (f *fakeClient) DeleteIndex(ctx context.Context, index string) error {
	f.deletes++
	f.docs = map[string]Document{}
	return nil
}

func newSearchDB(t *testing.T) *gorm.DB {
	t.Helper()

	dsn := filepath.Join(t.TempDir(), "search.db")
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{})
	require.NoError(t, err)

	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)

	require.NoError(t, db.AutoMigrate(&models.MediaFolder{}, &models.Media{}, &models.MediaThumbnail{}))
	return db
}

func seedMedia(t *testing.T, db *gorm.DB, scope, fileName string) *models.Media {
	t.Helper()

	media := &models.Media{
		WorkplaceID: scope,
		FileName:    fileName,
		MimeType:    "image/png",
		MediaType:   models.KindImage,
		Path:        scope + "/" + fileName,
	}
	require.NoError(t, db.Create(media).Error)
	return media
}

func TestIndexWritesIDAndPath(t *testing.T) {
	db := newSearchDB(t)
	client := newFakeClient()
	indexer := NewIndexer(db, client, zerolog.Nop())

	media := seedMedia(t, db, uuid.NewString(), "a.png")
	require.NoError(t, indexer.Index(context.Background(), media))

	doc, ok := client.docs[media.ID]
	require.True(t, ok)
	assert.Equal(t, media.ID, doc.ID)
	assert.Equal(t, media.Path, doc.Path)
}

func TestSearchMediasHydratesHitsScoped(t *testing.T) {
	db := newSearchDB(t)
	client := newFakeClient()
	indexer := NewIndexer(db, client, zerolog.Nop())
	ctx := context.Background()

	scope := uuid.NewString()
	mine := seedMedia(t, db, scope, "report.png")
	other := seedMedia(t, db, uuid.NewString(), "report.png")

	client.searchHits = []Document{
		{ID: mine.ID, Path: mine.Path},
		{ID: other.ID, Path: other.Path},
	}

	results, err := indexer.SearchMedias(ctx, scope, "report")
	require.NoError(t, err)
	require.Len(t, results, 1)
	assert.Equal(t, mine.ID, results[0].ID)
}

func TestSearchMediasKeepsRelevanceOrder(t *testing.T) {
	db := newSearchDB(t)
	client := newFakeClient()
	indexer := NewIndexer(db, client, zerolog.Nop())

	scope := uuid.NewString()
	first := seedMedia(t, db, scope, "a.png")
	second := seedMedia(t, db, scope, "b.png")

	// The index ranks the later record higher; hydration must not fall
	// back to database order.
	client.searchHits = []Document{
		{ID: second.ID, Path: second.Path},
		{ID: first.ID, Path: first.Path},
	}

	results, err := indexer.SearchMedias(context.Background(), scope, "png")
	require.NoError(t, err)
	require.Len(t, results, 2)
	assert.Equal(t, second.ID, results[0].ID)
	assert.Equal(t, first.ID, results[1].ID)
}

func TestSearchMediasNoHits(t *testing.T) {
	db := newSearchDB(t)
	indexer := NewIndexer(db, newFakeClient(), zerolog.Nop())

	results, err := indexer.SearchMedias(context.Background(), uuid.NewString(), "nothing")
	require.NoError(t, err)
	assert.Empty(t, results)
}

func TestReindexAllRebuildsFromDatabase(t *testing.T) {
	db := newSearchDB(t)
	client := newFakeClient()
	indexer := NewIndexer(db, client, zerolog.Nop())
	ctx := context.Background()

	scope := uuid.NewString()
	seedMedia(t, db, scope, "a.png")
	seedMedia(t, db, scope, "b.png")

	// Soft-deleted records stay out of the rebuilt index.
	gone := seedMedia(t, db, scope, "c.png")
	require.NoError(t, db.Delete(gone).Error)

	count, err := indexer.ReindexAll(ctx)
	require.NoError(t, err)
	assert.Equal(t, 2, count)
	assert.Equal(t, 1, client.deletes)
	assert.Len(t, client.docs, 2)
}

func TestReindexAllSurfacesIndexErrors(t *testing.T) {
	db := newSearchDB(t)
	client := newFakeClient()
	client.indexErr = errors.New("cluster unavailable")
	indexer := NewIndexer(db, client, zerolog.Nop())

	seedMedia(t, db, uuid.NewString(), "a.png")

	_, err := indexer.ReindexAll(context.Background())
	require.Error(t, err)
}
