package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"go-media-platform/internal/models"
)

// CreateFolder find-or-creates a folder in the caller's workplace.
func (h *Handler) CreateFolder(c *gin.Context) {
	var input struct {
		Name     string  `json:"name" binding:"required,min=1,max=255"`
		ParentID *string `json:"parent_id,omitempty"`
	}

	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid input: folder name is required"})
		return
	}

	folder, err := h.folders.Create(c.Request.Context(), scope(c), input.Name, input.ParentID)
	if err != nil {
		h.respondError(c, err)
		return
	}

	c.JSON(http.StatusCreated, folder)
}

// ListFolders serves the cached listings: root folders by default, folders
// matching ?name= when given.
func (h *Handler) ListFolders(c *gin.Context) {
	ctx := c.Request.Context()
	workplace := scope(c)

	var (
		folders []models.MediaFolder
		err     error
	)
	if name := c.Query("name"); name != "" {
		folders, err = h.folders.GetFolderByName(ctx, workplace, name)
	} else {
		folders, err = h.folders.GetRootFolders(ctx, workplace)
	}
	if err != nil {
		h.respondError(c, err)
		return
	}

	// Media counts are live, not cached with the listing.
	for i := range folders {
		var count int64
		if err := h.db.WithContext(ctx).Model(&models.Media{}).
			Where("folder_id = ?", folders[i].ID).Count(&count).Error; err != nil {
			continue
		}
		folders[i].MediaCount = count
	}

	c.JSON(http.StatusOK, gin.H{"folders": folders})
}

// GetFolder returns a single folder with its media count.
func (h *Handler) GetFolder(c *gin.Context) {
	ctx := c.Request.Context()

	var folder models.MediaFolder
	err := h.db.WithContext(ctx).
		Where("id = ? AND workplace_id = ?", c.Param("id"), scope(c)).
		First(&folder).Error
	if err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "Folder not found"})
		return
	}

	var count int64
	if err := h.db.WithContext(ctx).Model(&models.Media{}).
		Where("folder_id = ?", folder.ID).Count(&count).Error; err == nil {
		folder.MediaCount = count
	}

	c.JSON(http.StatusOK, folder)
}

// UpdateFolder renames a folder; the service rewrites the subtree paths.
func (h *Handler) UpdateFolder(c *gin.Context) {
	var input struct {
		Name string `json:"name" binding:"required,min=1,max=255"`
	}

	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid input: folder name is required"})
		return
	}

	folder, err := h.folders.Rename(c.Request.Context(), scope(c), c.Param("id"), input.Name)
	if err != nil {
		h.respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, folder)
}

// DeleteFolder removes a folder and its subtree.
func (h *Handler) DeleteFolder(c *gin.Context) {
	if err := h.folders.Delete(c.Request.Context(), scope(c), c.Param("id")); err != nil {
		h.respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "Folder deleted successfully"})
}
