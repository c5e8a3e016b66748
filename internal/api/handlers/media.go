package handlers

import (
	"encoding/json"
	"errors"
	"io"
	"mime/multipart"
	"net/http"
	"os"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"gorm.io/gorm"

	"go-media-platform/internal/ingest"
	"go-media-platform/internal/models"
	"go-media-platform/internal/storage"
	"go-media-platform/internal/validation"
)

// UploadMedia accepts one or more files, stores the blobs synchronously
// and enqueues materialization. Files are validated and stored
// independently: one rejected file never blocks the rest of the batch.
func (h *Handler) UploadMedia(c *gin.Context) {
	workplace := scope(c)

	form, err := c.MultipartForm()
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "No files uploaded"})
		return
	}
	files := form.File["files"]
	if len(files) == 0 {
		files = form.File["file"]
	}
	if len(files) == 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "No files uploaded"})
		return
	}

	var parentID *string
	if folderID := c.PostForm("folder_id"); folderID != "" {
		parentID = &folderID
	}

	folder, err := h.folders.Resolver().Resolve(c.Request.Context(), workplace, c.PostForm("folder"), parentID)
	if err != nil {
		h.respondError(c, err)
		return
	}

	accepted := 0
	results := make([]gin.H, 0, len(files))
	for _, file := range files {
		result := h.acceptUpload(c, workplace, folder, file)
		if result["success"] == true {
			accepted++
		}
		results = append(results, result)
	}

	c.JSON(http.StatusAccepted, gin.H{
		"message":  "Upload accepted",
		"total":    len(files),
		"accepted": accepted,
		"results":  results,
	})
}

// acceptUpload runs the synchronous half of ingestion for one file:
// validation gate, optional virus scan, blob write, queue message. The
// media id is generated here so the response can reference the record the
// worker will create.
func (h *Handler) acceptUpload(c *gin.Context, workplace string, folder *models.MediaFolder, file *multipart.FileHeader) gin.H {
	fail := func(err error) gin.H {
		return gin.H{"fileName": file.Filename, "success": false, "error": err.Error()}
	}

	mimeType := file.Header.Get("Content-Type")
	if err := validation.CheckMimeTypeAndSize(mimeType, file.Size); err != nil {
		return fail(err)
	}

	src, err := file.Open()
	if err != nil {
		return fail(err)
	}
	defer src.Close()

	var reader io.Reader = src
	if h.cfg.Pipeline.VirusScan {
		scanned, cleanup, err := h.scanUpload(src)
		if err != nil {
			return fail(err)
		}
		defer cleanup()
		reader = scanned
	}

	key, err := storage.StoreFile(h.store, reader, file.Filename, folder.Path)
	if err != nil {
		return fail(err)
	}

	mediaID := uuid.NewString()
	msg := ingest.CreateMediaMessage{
		MediaID:       mediaID,
		MediaFolderID: folder.ID,
		WorkplaceID:   workplace,
		Path:          key,
		FileName:      file.Filename,
		MimeType:      mimeType,
		Size:          file.Size,
		Type:          models.KindForMime(mimeType),
		UserID:        actingUser(c),
		ContextKey:    folder.Name,
		Title:         c.PostForm("title"),
		Alt:           c.PostForm("alt"),
	}
	if err := h.queue.EnqueueCreateMedia(c.Request.Context(), msg); err != nil {
		// The blob is orphaned if the message never makes it out; remove it
		// so a retried upload starts clean.
		if delErr := h.store.Delete(key); delErr != nil {
			h.log.Error().Err(delErr).Str("key", key).Msg("failed to remove orphaned blob")
		}
		return fail(err)
	}

	return gin.H{
		"fileName": file.Filename,
		"success":  true,
		"mediaId":  mediaID,
		"path":     key,
		"url":      h.store.PublicURL(key),
	}
}

// scanUpload spools the upload to a scratch file so clamdscan can read it,
// then hands back a reader over the verified bytes.
func (h *Handler) scanUpload(src io.Reader) (io.Reader, func(), error) {
	tmp, err := os.CreateTemp("", "upload-*")
	if err != nil {
		return nil, nil, err
	}
	cleanup := func() {
		tmp.Close()
		os.Remove(tmp.Name())
	}

	if _, err := io.Copy(tmp, src); err != nil {
		cleanup()
		return nil, nil, err
	}
	if err := validation.ScanFile(tmp.Name()); err != nil {
		cleanup()
		return nil, nil, err
	}
	if _, err := tmp.Seek(0, io.SeekStart); err != nil {
		cleanup()
		return nil, nil, err
	}
	return tmp, cleanup, nil
}

func (h *Handler) GetMedia(c *gin.Context) {
	var media models.Media
	err := h.db.WithContext(c.Request.Context()).
		Preload("Thumbnails").
		Preload("Folder").
		Where("id = ? AND workplace_id = ?", c.Param("id"), scope(c)).
		First(&media).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		c.JSON(http.StatusNotFound, gin.H{"error": "Media not found"})
		return
	}
	if err != nil {
		h.respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"media": media,
		"url":   h.store.PublicURL(media.Path),
	})
}

func (h *Handler) ListMedia(c *gin.Context) {
	page, _ := strconv.Atoi(c.DefaultQuery("page", "1"))
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "10"))
	if page < 1 {
		page = 1
	}
	if limit < 1 || limit > 100 {
		limit = 10
	}

	query := h.db.WithContext(c.Request.Context()).Model(&models.Media{}).
		Where("workplace_id = ?", scope(c))

	if mediaType := c.Query("type"); mediaType != "" {
		query = query.Where("media_type = ?", mediaType)
	}
	if folderID := c.Query("folder_id"); folderID != "" {
		query = query.Where("folder_id = ?", folderID)
	}
	if contextKey := c.Query("context_key"); contextKey != "" {
		query = query.Where("context_key = ?", contextKey)
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		h.respondError(c, err)
		return
	}

	var media []models.Media
	err := query.Offset((page - 1) * limit).Limit(limit).
		Order("created_at DESC").
		Find(&media).Error
	if err != nil {
		h.respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"media": media,
		"pagination": gin.H{
			"current_page": page,
			"total_pages":  (total + int64(limit) - 1) / int64(limit),
			"total_items":  total,
			"per_page":     limit,
		},
	})
}

// updatableStrings are the string columns a partial update may touch.
var updatableStrings = map[string]string{
	"title":  "title",
	"alt":    "alt",
	"path":   "path",
	"userId": "user_id",
}

// updatableBools are the tri-state columns: absent leaves the column
// alone, null clears it, a value sets it.
var updatableBools = map[string]string{
	"favorite": "favorite",
	"private":  "private",
}

// UpdateMedia applies a partial update. The payload is decoded to raw
// fields first so an absent key and an explicit null stay distinguishable.
func (h *Handler) UpdateMedia(c *gin.Context) {
	var payload map[string]json.RawMessage
	if err := c.ShouldBindJSON(&payload); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	var media models.Media
	err := h.db.WithContext(c.Request.Context()).
		Where("id = ? AND workplace_id = ?", c.Param("id"), scope(c)).
		First(&media).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		c.JSON(http.StatusNotFound, gin.H{"error": "Media not found"})
		return
	}
	if err != nil {
		h.respondError(c, err)
		return
	}

	updates := map[string]interface{}{}

	for field, column := range updatableStrings {
		raw, ok := payload[field]
		if !ok {
			continue
		}
		var value *string
		if err := json.Unmarshal(raw, &value); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid value for " + field})
			return
		}
		if value != nil {
			updates[column] = *value
		}
	}

	for field, column := range updatableBools {
		raw, ok := payload[field]
		if !ok {
			continue
		}
		var value *bool
		if err := json.Unmarshal(raw, &value); err != nil {
			// Anything that is not a boolean is treated as unset.
			value = nil
		}
		if value == nil {
			updates[column] = gorm.Expr("NULL")
		} else {
			updates[column] = *value
		}
	}

	if raw, ok := payload["metaData"]; ok {
		var meta models.JSON
		if err := json.Unmarshal(raw, &meta); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid value for metaData"})
			return
		}
		updates["meta_data"] = meta
	}

	if len(updates) > 0 {
		if err := h.db.WithContext(c.Request.Context()).
			Model(&media).Updates(updates).Error; err != nil {
			h.respondError(c, err)
			return
		}
	}

	if err := h.db.WithContext(c.Request.Context()).
		First(&media, "id = ?", media.ID).Error; err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"media": media})
}

// DeleteMedia soft-deletes the record and removes the blob. The record is
// authoritative: a blob that outlives its row is only logged.
func (h *Handler) DeleteMedia(c *gin.Context) {
	var media models.Media
	err := h.db.WithContext(c.Request.Context()).
		Where("id = ? AND workplace_id = ?", c.Param("id"), scope(c)).
		First(&media).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		c.JSON(http.StatusNotFound, gin.H{"error": "Media not found"})
		return
	}
	if err != nil {
		h.respondError(c, err)
		return
	}

	if err := h.db.WithContext(c.Request.Context()).Delete(&media).Error; err != nil {
		h.respondError(c, err)
		return
	}

	if err := h.store.Delete(media.Path); err != nil {
		h.log.Error().Err(err).Str("key", media.Path).Msg("failed to delete blob")
	}

	c.JSON(http.StatusOK, gin.H{"message": "Media deleted successfully"})
}

// SearchMedia answers free-text queries from the search index.
func (h *Handler) SearchMedia(c *gin.Context) {
	query := c.Query("q")
	if query == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Query parameter q is required"})
		return
	}

	media, err := h.search.SearchMedias(c.Request.Context(), scope(c), query)
	if err != nil {
		h.respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"media": media,
		"total": len(media),
	})
}
