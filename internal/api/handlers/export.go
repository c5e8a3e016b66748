package handlers

import (
	"encoding/csv"
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"

	"go-media-platform/internal/models"
)

// ExportCSV streams the workplace's media inventory as CSV.
func (h *Handler) ExportCSV(c *gin.Context) {
	var media []models.Media
	err := h.db.WithContext(c.Request.Context()).
		Where("workplace_id = ?", scope(c)).
		Order("created_at").
		Find(&media).Error
	if err != nil {
		h.respondError(c, err)
		return
	}

	c.Header("Content-Type", "text/csv")
	c.Header("Content-Disposition", "attachment;filename=media_export.csv")

	writer := csv.NewWriter(c.Writer)
	if err := writer.Write([]string{"ID", "FileName", "Title", "MimeType", "Type", "Size", "Path", "Created At"}); err != nil {
		h.respondError(c, err)
		return
	}

	for _, m := range media {
		record := []string{
			m.ID,
			m.FileName,
			m.Title,
			m.MimeType,
			m.MediaType,
			fmt.Sprint(m.FileSize),
			m.Path,
			m.CreatedAt.String(),
		}
		if err := writer.Write(record); err != nil {
			h.respondError(c, err)
			return
		}
	}

	writer.Flush()
}

// ExportJSON streams the workplace's media inventory as JSON.
func (h *Handler) ExportJSON(c *gin.Context) {
	var media []models.Media
	err := h.db.WithContext(c.Request.Context()).
		Where("workplace_id = ?", scope(c)).
		Order("created_at").
		Find(&media).Error
	if err != nil {
		h.respondError(c, err)
		return
	}

	c.Header("Content-Disposition", "attachment;filename=media_export.json")

	jsonData, err := json.MarshalIndent(media, "", "  ")
	if err != nil {
		h.respondError(c, err)
		return
	}

	c.Data(http.StatusOK, "application/json", jsonData)
}
