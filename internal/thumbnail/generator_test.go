package thumbnail

import (
	"bytes"
	"context"
	"image"
	"image/png"
	"path/filepath"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"go-media-platform/internal/faults"
	"go-media-platform/internal/models"
	"go-media-platform/internal/storage"
)

func newThumbDB(t *testing.T) *gorm.DB {
	t.Helper()

	dsn := filepath.Join(t.TempDir(), "thumbs.db")
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{})
	require.NoError(t, err)

	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)

	require.NoError(t, db.AutoMigrate(&models.MediaFolder{}, &models.Media{}, &models.MediaThumbnail{}))
	return db
}

func newThumbStore(t *testing.T) storage.Storage {
	t.Helper()

	root := t.TempDir()
	store, err := storage.NewLocalStorage(root, root)
	require.NoError(t, err)
	return store
}

func uploadPNG(t *testing.T, store storage.Storage, key string) {
	t.Helper()

	img := image.NewRGBA(image.Rect(0, 0, 32, 24))
	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, img))

	_, err := store.Upload(&buf, key)
	require.NoError(t, err)
}

func seedMedia(t *testing.T, db *gorm.DB, kind, fileName, key string) *models.Media {
	t.Helper()

	media := &models.Media{
		WorkplaceID: uuid.NewString(),
		FileName:    fileName,
		MimeType:    "image/png",
		MediaType:   kind,
		Path:        key,
	}
	require.NoError(t, db.Create(media).Error)
	return media
}

func TestGenerateImageThumbnail(t *testing.T) {
	db := newThumbDB(t)
	store := newThumbStore(t)
	g := NewGenerator(db, store, 64, time.Second, zerolog.Nop())
	ctx := context.Background()

	key := "uploads/images/photo.png"
	uploadPNG(t, store, key)
	media := seedMedia(t, db, models.KindImage, "photo.png", key)

	require.NoError(t, g.Generate(ctx, media.ID))

	var thumb models.MediaThumbnail
	require.NoError(t, db.First(&thumb, "media_id = ?", media.ID).Error)
	assert.Equal(t, 64, thumb.Width)
	assert.Equal(t, 64, thumb.Height)
	assert.Equal(t, "uploads/images/thumbnails/photo_thumbnail_64.png", thumb.Path)

	exists, err := store.Exists(thumb.Path)
	require.NoError(t, err)
	assert.True(t, exists)
}

func TestGenerateIsIdempotentPerSize(t *testing.T) {
	db := newThumbDB(t)
	store := newThumbStore(t)
	g := NewGenerator(db, store, 64, time.Second, zerolog.Nop())
	ctx := context.Background()

	key := "uploads/images/photo.png"
	uploadPNG(t, store, key)
	media := seedMedia(t, db, models.KindImage, "photo.png", key)

	require.NoError(t, g.Generate(ctx, media.ID))
	require.NoError(t, g.Generate(ctx, media.ID))

	var count int64
	require.NoError(t, db.Model(&models.MediaThumbnail{}).
		Where("media_id = ?", media.ID).Count(&count).Error)
	assert.EqualValues(t, 1, count)
}

func TestGenerateMissingSourceFile(t *testing.T) {
	db := newThumbDB(t)
	store := newThumbStore(t)
	g := NewGenerator(db, store, 64, time.Second, zerolog.Nop())

	media := seedMedia(t, db, models.KindImage, "gone.png", "uploads/images/gone.png")

	err := g.Generate(context.Background(), media.ID)
	require.Error(t, err)
	assert.True(t, faults.IsNotFound(err))

	// The failed attempt left no thumbnail row behind.
	var count int64
	require.NoError(t, db.Model(&models.MediaThumbnail{}).
		Where("media_id = ?", media.ID).Count(&count).Error)
	assert.Zero(t, count)
}

func TestGenerateMissingMedia(t *testing.T) {
	g := NewGenerator(newThumbDB(t), newThumbStore(t), 64, time.Second, zerolog.Nop())

	err := g.Generate(context.Background(), uuid.NewString())
	require.Error(t, err)
	assert.True(t, faults.IsNotFound(err))
}

func TestGenerateSkipsNonVisualMedia(t *testing.T) {
	db := newThumbDB(t)
	store := newThumbStore(t)
	g := NewGenerator(db, store, 64, time.Second, zerolog.Nop())

	media := seedMedia(t, db, models.KindDocument, "report.pdf", "uploads/documents/report.pdf")

	require.NoError(t, g.Generate(context.Background(), media.ID))

	var count int64
	require.NoError(t, db.Model(&models.MediaThumbnail{}).
		Where("media_id = ?", media.ID).Count(&count).Error)
	assert.Zero(t, count)
}

func TestGenerateVideoToolFailure(t *testing.T) {
	db := newThumbDB(t)
	store := newThumbStore(t)
	g := NewGenerator(db, store, 64, time.Second, zerolog.Nop())

	// A PNG posing as a video makes ffmpeg fail whether or not the binary
	// is installed.
	key := "uploads/videos/clip.mp4"
	uploadPNG(t, store, key)
	media := seedMedia(t, db, models.KindVideo, "clip.mp4", key)

	err := g.Generate(context.Background(), media.ID)
	require.Error(t, err)
	assert.True(t, faults.IsExternalTool(err))
}
