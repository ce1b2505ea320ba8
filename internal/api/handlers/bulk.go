package handlers

import (
	"archive/zip"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/magpress/media-center/internal/database"
	"github.com/magpress/media-center/internal/models"
	"github.com/magpress/media-center/internal/storage"

	"github.com/gin-gonic/gin"
)

// ownedMedia loads the subset of the requested ids that belong to the user.
func ownedMedia(ids []string, userID uint) ([]models.Media, error) {
	var media []models.Media
	err := database.GetDB().Preload("Tags").
		Where("id IN ? AND user_id = ?", ids, userID).Find(&media).Error
	return media, err
}

// BulkUpdateMedia applies shared metadata, tag and privacy changes to a set of
// media items. Items are processed one at a time; a failure on one item does
// not stop the rest.
func BulkUpdateMedia(c *gin.Context) {
	userID := c.GetUint("user_id")

	var input struct {
		MediaIDs      []string `json:"media_ids" binding:"required,min=1"`
		Caption       *string  `json:"caption"`
		AltText       *string  `json:"alt_text"`
		Description   *string  `json:"description"`
		IsPrivate     *bool    `json:"is_private"`
		AllowDownload *bool    `json:"allow_download"`
		AddTags       []string `json:"add_tags"`
		RemoveTags    []string `json:"remove_tags"`
	}
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	media, err := ownedMedia(input.MediaIDs, userID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to load media"})
		return
	}

	updates := map[string]interface{}{}
	if input.Caption != nil {
		updates["caption"] = *input.Caption
	}
	if input.AltText != nil {
		updates["alt_text"] = *input.AltText
	}
	if input.Description != nil {
		updates["description"] = *input.Description
	}
	if input.IsPrivate != nil {
		updates["is_private"] = *input.IsPrivate
	}
	if input.AllowDownload != nil {
		updates["allow_download"] = *input.AllowDownload
	}

	db := database.GetDB()
	updated := 0
	failed := []gin.H{}
	for i := range media {
		item := &media[i]
		if len(updates) > 0 {
			if err := db.Model(item).Updates(updates).Error; err != nil {
				failed = append(failed, gin.H{"id": item.ID, "error": err.Error()})
				continue
			}
		}
		if len(input.AddTags) > 0 {
			tags, err := models.FindOrCreateTags(db, input.AddTags)
			if err == nil {
				err = db.Model(item).Association("Tags").Append(tags)
			}
			if err != nil {
				failed = append(failed, gin.H{"id": item.ID, "error": err.Error()})
				continue
			}
		}
		if len(input.RemoveTags) > 0 {
			var tags []models.Tag
			names := make([]string, 0, len(input.RemoveTags))
			for _, name := range input.RemoveTags {
				names = append(names, models.NormalizeTag(name))
			}
			db.Where("name IN ?", names).Find(&tags)
			if len(tags) > 0 {
				if err := db.Model(item).Association("Tags").Delete(tags); err != nil {
					failed = append(failed, gin.H{"id": item.ID, "error": err.Error()})
					continue
				}
			}
		}
		recordHistory(item.ID, userID, "updated", "bulk update")
		updated++
	}

	c.JSON(http.StatusOK, gin.H{
		"message": fmt.Sprintf("Updated %d of %d media items", updated, len(input.MediaIDs)),
		"updated": updated,
		"failed":  failed,
	})
}

// BulkDeleteMedia removes a set of media items and their stored files.
func BulkDeleteMedia(c *gin.Context) {
	userID := c.GetUint("user_id")

	var input struct {
		MediaIDs []string `json:"media_ids" binding:"required,min=1"`
	}
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	media, err := ownedMedia(input.MediaIDs, userID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to load media"})
		return
	}

	db := database.GetDB()
	provider := storage.GetProvider()
	deleted := 0
	failed := []gin.H{}
	for i := range media {
		item := &media[i]
		if err := db.Select("Tags").Delete(item).Error; err != nil {
			failed = append(failed, gin.H{"id": item.ID, "error": err.Error()})
			continue
		}
		// Row is gone; file cleanup failures are logged via history only.
		provider.Delete(item.Path)
		if item.ThumbnailPath != "" {
			provider.Delete(item.ThumbnailPath)
		}
		deleted++
	}

	c.JSON(http.StatusOK, gin.H{
		"message": fmt.Sprintf("Deleted %d of %d media items", deleted, len(input.MediaIDs)),
		"deleted": deleted,
		"failed":  failed,
	})
}

// BulkMoveMedia moves a set of media items into a folder, or to the root when
// folder_id is absent.
func BulkMoveMedia(c *gin.Context) {
	userID := c.GetUint("user_id")

	var input struct {
		MediaIDs []string `json:"media_ids" binding:"required,min=1"`
		FolderID *uint    `json:"folder_id"`
	}
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	db := database.GetDB()
	if input.FolderID != nil {
		var folder models.Folder
		if err := db.Where("id = ? AND user_id = ?", *input.FolderID, userID).First(&folder).Error; err != nil {
			c.JSON(http.StatusNotFound, gin.H{"error": "Folder not found"})
			return
		}
	}

	result := db.Model(&models.Media{}).
		Where("id IN ? AND user_id = ?", input.MediaIDs, userID).
		Update("folder_id", input.FolderID)
	if result.Error != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to move media"})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"message": fmt.Sprintf("Moved %d of %d media items", result.RowsAffected, len(input.MediaIDs)),
		"moved":   result.RowsAffected,
	})
}

// BulkDownloadMedia streams the selected files as a single zip archive. Items
// that cannot be read are skipped so one bad file does not abort the archive.
func BulkDownloadMedia(c *gin.Context) {
	userID := c.GetUint("user_id")

	var input struct {
		MediaIDs []string `json:"media_ids" binding:"required,min=1"`
	}
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	media, err := ownedMedia(input.MediaIDs, userID)
	if err != nil || len(media) == 0 {
		c.JSON(http.StatusNotFound, gin.H{"error": "No media found"})
		return
	}

	filename := fmt.Sprintf("media-%s.zip", time.Now().Format("20060102-150405"))
	c.Header("Content-Type", "application/zip")
	c.Header("Content-Disposition", fmt.Sprintf(`attachment; filename="%s"`, filename))

	provider := storage.GetProvider()
	archive := zip.NewWriter(c.Writer)
	defer archive.Close()

	// Names inside the archive must be unique even when display names collide.
	used := map[string]int{}
	for i := range media {
		item := &media[i]
		if !item.AllowDownload {
			continue
		}
		reader, err := provider.Download(item.Path)
		if err != nil {
			continue
		}

		name := item.Filename
		if n := used[name]; n > 0 {
			name = fmt.Sprintf("%d-%s", n, name)
		}
		used[item.Filename]++

		entry, err := archive.Create(name)
		if err != nil {
			reader.Close()
			break
		}
		io.Copy(entry, reader)
		reader.Close()
	}
}
