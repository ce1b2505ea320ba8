package handlers

import (
	"encoding/csv"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/magpress/media-center/internal/models"

	"github.com/gin-gonic/gin"
)

// ExportMedia writes the user's media inventory as CSV or JSON. The export
// honors the same filters as the list endpoint.
func ExportMedia(c *gin.Context) {
	userID := c.GetUint("user_id")

	format := strings.ToLower(c.Param("format"))
	if format == "" {
		format = strings.ToLower(c.DefaultQuery("format", "csv"))
	}
	if format != "csv" && format != "json" {
		c.JSON(http.StatusBadRequest, gin.H{"error": fmt.Sprintf("Unsupported export format: %s", format)})
		return
	}

	var media []models.Media
	if err := listQuery(c, userID).Preload("Tags").Order("created_at DESC").Find(&media).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to fetch media"})
		return
	}
	attachURLsAll(media)

	stamp := time.Now().Format("20060102-150405")
	if format == "json" {
		c.Header("Content-Disposition", fmt.Sprintf(`attachment; filename="media-export-%s.json"`, stamp))
		c.JSON(http.StatusOK, gin.H{"media": media, "exported_at": time.Now().UTC(), "total": len(media)})
		return
	}

	c.Header("Content-Type", "text/csv")
	c.Header("Content-Disposition", fmt.Sprintf(`attachment; filename="media-export-%s.csv"`, stamp))

	writer := csv.NewWriter(c.Writer)
	writer.Write([]string{
		"id", "filename", "display_name", "type", "mime_type", "size",
		"width", "height", "caption", "alt_text", "tags", "url", "created_at",
	})
	for i := range media {
		item := &media[i]
		tags := make([]string, 0, len(item.Tags))
		for _, tag := range item.Tags {
			tags = append(tags, tag.Name)
		}
		writer.Write([]string{
			item.ID,
			item.Filename,
			item.DisplayName,
			string(item.Type),
			item.MimeType,
			strconv.FormatInt(item.Size, 10),
			strconv.Itoa(item.Width),
			strconv.Itoa(item.Height),
			item.Caption,
			item.AltText,
			strings.Join(tags, ";"),
			item.URL,
			item.CreatedAt.Format(time.RFC3339),
		})
	}
	writer.Flush()
}
