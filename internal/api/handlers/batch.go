package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"go-media-platform/internal/models"
)

// HandleBatchOperation applies one operation to a set of media records.
// Supported operations: delete (soft delete plus blob removal) and move
// (reassign to another folder in the same workplace).
func (h *Handler) HandleBatchOperation(c *gin.Context) {
	var input struct {
		Operation string   `json:"operation" binding:"required"`
		MediaIDs  []string `json:"media_ids" binding:"required"`
		FolderID  *string  `json:"folder_id"`
	}

	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	ctx := c.Request.Context()
	workplace := scope(c)

	switch input.Operation {
	case "delete":
		var media []models.Media
		err := h.db.WithContext(ctx).
			Where("id IN ? AND workplace_id = ?", input.MediaIDs, workplace).
			Find(&media).Error
		if err != nil {
			h.respondError(c, err)
			return
		}

		if err := h.db.WithContext(ctx).
			Where("id IN ? AND workplace_id = ?", input.MediaIDs, workplace).
			Delete(&models.Media{}).Error; err != nil {
			h.respondError(c, err)
			return
		}

		for _, m := range media {
			if err := h.store.Delete(m.Path); err != nil {
				h.log.Error().Err(err).Str("key", m.Path).Msg("failed to delete blob")
			}
		}

	case "move":
		if input.FolderID == nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Folder ID required for move operation"})
			return
		}

		var folder models.MediaFolder
		err := h.db.WithContext(ctx).
			Where("id = ? AND workplace_id = ?", *input.FolderID, workplace).
			First(&folder).Error
		if errors.Is(err, gorm.ErrRecordNotFound) {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid folder ID"})
			return
		}
		if err != nil {
			h.respondError(c, err)
			return
		}

		if err := h.db.WithContext(ctx).Model(&models.Media{}).
			Where("id IN ? AND workplace_id = ?", input.MediaIDs, workplace).
			Update("folder_id", folder.ID).Error; err != nil {
			h.respondError(c, err)
			return
		}

	default:
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid operation"})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"message":      "Batch operation completed",
		"operation":    input.Operation,
		"affected_ids": input.MediaIDs,
	})
}
