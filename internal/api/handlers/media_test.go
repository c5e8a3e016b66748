package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"net/textproto"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"go-media-platform/internal/cache"
	"go-media-platform/internal/config"
	"go-media-platform/internal/folders"
	"go-media-platform/internal/ingest"
	"go-media-platform/internal/models"
)

type fakeStore struct {
	uploads []string
	deleted []string
}

func (f *fakeStore) Upload(reader io.Reader, key string) (string, error) {
	if _, err := io.Copy(io.Discard, reader); err != nil {
		return "", err
	}
	f.uploads = append(f.uploads, key)
	return key, nil
}

func (f *fakeStore) Download(key string) (io.ReadCloser, error) {
	return io.NopCloser(strings.NewReader("")), nil
}

func (f *fakeStore) Exists(key string) (bool, error) { return false, nil }

func (f *fakeStore) Delete(key string) error {
	f.deleted = append(f.deleted, key)
	return nil
}

func (f *fakeStore) PublicURL(key string) string { return "/medias/" + key }

type fakeQueue struct {
	created []ingest.CreateMediaMessage
}

func (f *fakeQueue) EnqueueCreateMedia(ctx context.Context, msg ingest.CreateMediaMessage) error {
	f.created = append(f.created, msg)
	return nil
}

type fakeSearcher struct {
	results []models.Media
}

func (f *fakeSearcher) SearchMedias(ctx context.Context, scope, query string) ([]models.Media, error) {
	return f.results, nil
}

type handlerFixture struct {
	handler *Handler
	db      *gorm.DB
	store   *fakeStore
	queue   *fakeQueue
	scope   string
	router  *gin.Engine
}

func newFixture(t *testing.T) *handlerFixture {
	t.Helper()
	gin.SetMode(gin.TestMode)

	dsn := filepath.Join(t.TempDir(), "api.db")
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{})
	require.NoError(t, err)
	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	require.NoError(t, db.AutoMigrate(&models.MediaFolder{}, &models.Media{}, &models.MediaThumbnail{}))

	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { rdb.Close() })

	store := &fakeStore{}
	queue := &fakeQueue{}
	folderSvc := folders.NewService(db, cache.New(rdb), time.Minute, nil, zerolog.Nop())
	cfg := &config.Config{}

	h := New(db, cfg, store, queue, folderSvc, &fakeSearcher{}, zerolog.Nop())

	fx := &handlerFixture{handler: h, db: db, store: store, queue: queue, scope: uuid.NewString()}

	router := gin.New()
	router.Use(func(c *gin.Context) { c.Set("workplace_id", fx.scope) })
	router.POST("/media/upload", h.UploadMedia)
	router.GET("/media/:id", h.GetMedia)
	router.PUT("/media/:id", h.UpdateMedia)
	router.DELETE("/media/:id", h.DeleteMedia)
	fx.router = router

	return fx
}

func (fx *handlerFixture) seedMedia(t *testing.T) *models.Media {
	t.Helper()

	favorite := true
	media := &models.Media{
		WorkplaceID: fx.scope,
		FileName:    "photo.png",
		Title:       "old title",
		Alt:         "old alt",
		MimeType:    "image/png",
		MediaType:   models.KindImage,
		Path:        fx.scope + "/" + uuid.NewString() + "_photo.png",
		Favorite:    &favorite,
	}
	require.NoError(t, fx.db.Create(media).Error)
	return media
}

func multipartUpload(t *testing.T, fields map[string]string, fileName, mimeType string, content []byte) (*bytes.Buffer, string) {
	t.Helper()

	body := &bytes.Buffer{}
	writer := multipart.NewWriter(body)
	for k, v := range fields {
		require.NoError(t, writer.WriteField(k, v))
	}

	header := textproto.MIMEHeader{}
	header.Set("Content-Disposition", `form-data; name="files"; filename="`+fileName+`"`)
	header.Set("Content-Type", mimeType)
	part, err := writer.CreatePart(header)
	require.NoError(t, err)
	_, err = part.Write(content)
	require.NoError(t, err)

	require.NoError(t, writer.Close())
	return body, writer.FormDataContentType()
}

func TestUploadMediaAcceptsAndEnqueues(t *testing.T) {
	fx := newFixture(t)

	body, contentType := multipartUpload(t, map[string]string{"folder": "docs"}, "photo.png", "image/png", []byte("png bytes"))
	req := httptest.NewRequest(http.MethodPost, "/media/upload", body)
	req.Header.Set("Content-Type", contentType)
	rec := httptest.NewRecorder()
	fx.router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusAccepted, rec.Code)
	require.Len(t, fx.queue.created, 1)

	msg := fx.queue.created[0]
	assert.NotEmpty(t, msg.MediaID)
	assert.Equal(t, fx.scope, msg.WorkplaceID)
	assert.Equal(t, "photo.png", msg.FileName)
	assert.Equal(t, models.KindImage, msg.Type)
	assert.Equal(t, "docs", msg.ContextKey)
	assert.True(t, strings.HasPrefix(msg.Path, fx.scope+"/docs/"))

	require.Len(t, fx.store.uploads, 1)
	assert.Equal(t, msg.Path, fx.store.uploads[0])

	// Nothing is persisted synchronously.
	var count int64
	require.NoError(t, fx.db.Model(&models.Media{}).Count(&count).Error)
	assert.Zero(t, count)
}

func TestUploadMediaRejectsUnsupportedType(t *testing.T) {
	fx := newFixture(t)

	body, contentType := multipartUpload(t, nil, "font.woff2", "font/woff2", []byte("nope"))
	req := httptest.NewRequest(http.MethodPost, "/media/upload", body)
	req.Header.Set("Content-Type", contentType)
	rec := httptest.NewRecorder()
	fx.router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusAccepted, rec.Code)

	var resp struct {
		Accepted int `json:"accepted"`
		Results  []struct {
			Success bool   `json:"success"`
			Error   string `json:"error"`
		} `json:"results"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Zero(t, resp.Accepted)
	require.Len(t, resp.Results, 1)
	assert.False(t, resp.Results[0].Success)
	assert.NotEmpty(t, resp.Results[0].Error)

	assert.Empty(t, fx.queue.created)
	assert.Empty(t, fx.store.uploads)
}

func TestUpdateMediaPartialFields(t *testing.T) {
	fx := newFixture(t)
	media := fx.seedMedia(t)

	// title changes, favorite is cleared to NULL, alt is absent and stays.
	payload := `{"title":"new title","favorite":null}`
	req := httptest.NewRequest(http.MethodPut, "/media/"+media.ID, strings.NewReader(payload))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	fx.router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)

	var updated models.Media
	require.NoError(t, fx.db.First(&updated, "id = ?", media.ID).Error)
	assert.Equal(t, "new title", updated.Title)
	assert.Equal(t, "old alt", updated.Alt)
	assert.Nil(t, updated.Favorite)
}

func TestUpdateMediaBooleanValue(t *testing.T) {
	fx := newFixture(t)
	media := fx.seedMedia(t)

	payload := `{"private":true}`
	req := httptest.NewRequest(http.MethodPut, "/media/"+media.ID, strings.NewReader(payload))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	fx.router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)

	var updated models.Media
	require.NoError(t, fx.db.First(&updated, "id = ?", media.ID).Error)
	require.NotNil(t, updated.Private)
	assert.True(t, *updated.Private)
	// favorite was not in the payload and keeps its value.
	require.NotNil(t, updated.Favorite)
	assert.True(t, *updated.Favorite)
}

func TestUpdateMediaMetaData(t *testing.T) {
	fx := newFixture(t)
	media := fx.seedMedia(t)

	payload := `{"metaData":{"alt":"hero image","customTag":"landing"}}`
	req := httptest.NewRequest(http.MethodPut, "/media/"+media.ID, strings.NewReader(payload))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	fx.router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)

	var updated models.Media
	require.NoError(t, fx.db.First(&updated, "id = ?", media.ID).Error)
	assert.Equal(t, "hero image", updated.MetaData["alt"])
	assert.Equal(t, "landing", updated.MetaData["customTag"])
}

func TestUpdateMediaNotFound(t *testing.T) {
	fx := newFixture(t)

	req := httptest.NewRequest(http.MethodPut, "/media/"+uuid.NewString(), strings.NewReader(`{"title":"x"}`))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	fx.router.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestDeleteMediaSoftDeletesAndRemovesBlob(t *testing.T) {
	fx := newFixture(t)
	media := fx.seedMedia(t)

	req := httptest.NewRequest(http.MethodDelete, "/media/"+media.ID, nil)
	rec := httptest.NewRecorder()
	fx.router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, []string{media.Path}, fx.store.deleted)

	var visible int64
	require.NoError(t, fx.db.Model(&models.Media{}).Where("id = ?", media.ID).Count(&visible).Error)
	assert.Zero(t, visible)

	var total int64
	require.NoError(t, fx.db.Unscoped().Model(&models.Media{}).Where("id = ?", media.ID).Count(&total).Error)
	assert.EqualValues(t, 1, total)
}

func TestGetMediaScopedToWorkplace(t *testing.T) {
	fx := newFixture(t)

	other := &models.Media{
		WorkplaceID: uuid.NewString(),
		FileName:    "other.png",
		MimeType:    "image/png",
		MediaType:   models.KindImage,
		Path:        uuid.NewString() + "/other.png",
	}
	require.NoError(t, fx.db.Create(other).Error)

	req := httptest.NewRequest(http.MethodGet, "/media/"+other.ID, nil)
	rec := httptest.NewRecorder()
	fx.router.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusNotFound, rec.Code)
}
