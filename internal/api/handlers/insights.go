package handlers

import (
	"bytes"
	"fmt"
	"html"
	"net/http"
	"strconv"
	"time"

	"github.com/magpress/media-center/internal/database"
	"github.com/magpress/media-center/internal/models"
	"github.com/magpress/media-center/internal/storage"
	"github.com/magpress/media-center/internal/utils"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// recordHistory appends an event to a media item's edit history. History is
// informational; failures are not surfaced to the caller.
func recordHistory(mediaID string, userID uint, event, detail string) {
	entry := models.HistoryEntry{
		MediaID: mediaID,
		UserID:  userID,
		Event:   event,
		Detail:  detail,
	}
	database.GetDB().Create(&entry)
}

// GetMediaStats reports totals by type and overall storage use.
func GetMediaStats(c *gin.Context) {
	userID := c.GetUint("user_id")
	db := database.GetDB()

	var total int64
	var totalSize int64
	if err := db.Model(&models.Media{}).Where("user_id = ?", userID).Count(&total).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to compute stats"})
		return
	}
	db.Model(&models.Media{}).Where("user_id = ?", userID).Select("COALESCE(SUM(size), 0)").Scan(&totalSize)

	byType := map[string]int64{}
	rows := []struct {
		Type  models.MediaType
		Count int64
	}{}
	db.Model(&models.Media{}).Select("type, COUNT(*) as count").
		Where("user_id = ?", userID).Group("type").Scan(&rows)
	for _, row := range rows {
		byType[string(row.Type)] = row.Count
	}

	var recentCount int64
	db.Model(&models.Media{}).Where("user_id = ? AND created_at >= ?", userID, time.Now().AddDate(0, 0, -7)).
		Count(&recentCount)

	var folderCount int64
	db.Model(&models.Folder{}).Where("user_id = ?", userID).Count(&folderCount)

	c.JSON(http.StatusOK, gin.H{
		"totalMedia":   total,
		"totalSize":    totalSize,
		"byType":       byType,
		"recentUpload": recentCount,
		"totalFolders": folderCount,
	})
}

// GetRecentMedia returns the newest items, default 10.
func GetRecentMedia(c *gin.Context) {
	userID := c.GetUint("user_id")

	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "10"))
	if limit < 1 || limit > 100 {
		limit = 10
	}

	var media []models.Media
	if err := database.GetDB().Preload("Tags").Where("user_id = ?", userID).
		Order("created_at DESC").Limit(limit).Find(&media).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to fetch recent media"})
		return
	}
	attachURLsAll(media)

	c.JSON(http.StatusOK, gin.H{"media": media})
}

// GetMediaByType lists one media type; the type comes from the path.
func GetMediaByType(c *gin.Context) {
	mediaType := c.Param("type")
	switch models.MediaType(mediaType) {
	case models.MediaImage, models.MediaVideo, models.MediaAudio, models.MediaDocument:
	default:
		c.JSON(http.StatusBadRequest, gin.H{"error": fmt.Sprintf("Unknown media type: %s", mediaType)})
		return
	}

	c.Request.URL.RawQuery = c.Request.URL.RawQuery + "&type=" + mediaType
	ListMedia(c)
}

// GetMediaUsage lists the places a media item is referenced.
func GetMediaUsage(c *gin.Context) {
	userID := c.GetUint("user_id")

	media, err := models.GetMediaByID(c.Param("id"), userID)
	if err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "Media not found"})
		return
	}

	var usage []models.MediaUsage
	if err := database.GetDB().Where("media_id = ?", media.ID).Order("created_at DESC").Find(&usage).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to fetch usage"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"usage": usage, "total": len(usage)})
}

// GetMediaHistory lists edit-history events plus derived items.
func GetMediaHistory(c *gin.Context) {
	userID := c.GetUint("user_id")

	media, err := models.GetMediaByID(c.Param("id"), userID)
	if err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "Media not found"})
		return
	}

	var history []models.HistoryEntry
	if err := database.GetDB().Where("media_id = ?", media.ID).Order("created_at DESC").Find(&history).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to fetch history"})
		return
	}

	var derived []models.Media
	database.GetDB().Where("original_id = ?", media.ID).Order("created_at DESC").Find(&derived)
	attachURLsAll(derived)

	c.JSON(http.StatusOK, gin.H{"history": history, "derived": derived})
}

// TrackMediaAccess records one view of a media item.
func TrackMediaAccess(c *gin.Context) {
	userID := c.GetUint("user_id")

	media, err := models.GetMediaByID(c.Param("id"), userID)
	if err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "Media not found"})
		return
	}

	entry := models.AccessLog{
		MediaID:   media.ID,
		UserID:    userID,
		Action:    "view",
		RemoteIP:  c.ClientIP(),
		UserAgent: c.Request.UserAgent(),
	}
	db := database.GetDB()
	if err := db.Create(&entry).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to record access"})
		return
	}
	db.Model(media).UpdateColumn("view_count", gorm.Expr("view_count + 1"))

	c.JSON(http.StatusOK, gin.H{"message": "Access recorded"})
}

// GetMediaAccessLogs pages through a media item's access log.
func GetMediaAccessLogs(c *gin.Context) {
	userID := c.GetUint("user_id")

	media, err := models.GetMediaByID(c.Param("id"), userID)
	if err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "Media not found"})
		return
	}

	page, _ := strconv.Atoi(c.DefaultQuery("page", "1"))
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "50"))
	if page < 1 {
		page = 1
	}
	if limit < 1 || limit > 200 {
		limit = 50
	}

	var total int64
	db := database.GetDB()
	db.Model(&models.AccessLog{}).Where("media_id = ?", media.ID).Count(&total)

	var logs []models.AccessLog
	if err := db.Where("media_id = ?", media.ID).Order("created_at DESC").
		Offset((page - 1) * limit).Limit(limit).Find(&logs).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to fetch access logs"})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"logs":        logs,
		"totalLogs":   total,
		"totalPages":  (total + int64(limit) - 1) / int64(limit),
		"currentPage": page,
	})
}

// GetEmbedCode renders an HTML snippet for embedding a media item.
func GetEmbedCode(c *gin.Context) {
	userID := c.GetUint("user_id")

	media, err := models.GetMediaByID(c.Param("id"), userID)
	if err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "Media not found"})
		return
	}
	attachURLs(media)

	width := utils.ParseIntOption(c.Query("width"))
	height := utils.ParseIntOption(c.Query("height"))
	sizeAttrs := ""
	if width > 0 {
		sizeAttrs += fmt.Sprintf(` width="%d"`, width)
	}
	if height > 0 {
		sizeAttrs += fmt.Sprintf(` height="%d"`, height)
	}

	var code string
	switch media.Type {
	case models.MediaImage:
		code = fmt.Sprintf(`<img src="%s" alt="%s"%s>`, media.URL, html.EscapeString(media.AltText), sizeAttrs)
	case models.MediaVideo:
		code = fmt.Sprintf(`<video src="%s" controls%s></video>`, media.URL, sizeAttrs)
	case models.MediaAudio:
		code = fmt.Sprintf(`<audio src="%s" controls></audio>`, media.URL)
	default:
		code = fmt.Sprintf(`<a href="%s">%s</a>`, media.URL, html.EscapeString(media.DisplayName))
	}

	c.JSON(http.StatusOK, gin.H{"embed_code": code})
}

// OptimizeMedia re-encodes an image in place at reduced quality and size.
func OptimizeMedia(c *gin.Context) {
	userID := c.GetUint("user_id")

	media, err := models.GetMediaByID(c.Param("id"), userID)
	if err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "Media not found"})
		return
	}
	if media.Type != models.MediaImage {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Media is not an image"})
		return
	}

	var input struct {
		Quality      int `json:"quality"`
		MaxDimension int `json:"max_dimension"`
	}
	// Body is optional; defaults apply when absent.
	c.ShouldBindJSON(&input)
	if input.Quality <= 0 || input.Quality > 100 {
		input.Quality = 80
	}
	if input.MaxDimension <= 0 {
		input.MaxDimension = 1920
	}

	provider := storage.GetProvider()
	reader, err := provider.Download(media.Path)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to read original file"})
		return
	}
	defer reader.Close()

	options := utils.TransformationOptions{Quality: input.Quality, Format: "jpeg"}
	if media.Width > input.MaxDimension || media.Height > input.MaxDimension {
		if media.Width >= media.Height {
			options.Width = input.MaxDimension
		} else {
			options.Height = input.MaxDimension
		}
	}

	optimized, err := utils.TransformImage(reader, options)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": fmt.Sprintf("Failed to optimize image: %v", err)})
		return
	}

	if _, err := provider.UploadBytes(optimized, media.Path); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to store optimized image"})
		return
	}

	savedBytes := media.Size - int64(len(optimized))
	updates, err := optimizedUpdates(optimized)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to inspect optimized image"})
		return
	}
	if err := database.GetDB().Model(media).Updates(updates).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to update media record"})
		return
	}

	recordHistory(media.ID, userID, "optimized",
		fmt.Sprintf("re-encoded at quality %d, saved %d bytes", input.Quality, savedBytes))

	c.JSON(http.StatusOK, gin.H{
		"message":     "Media optimized",
		"saved_bytes": savedBytes,
		"new_size":    len(optimized),
	})
}

// optimizedUpdates re-inspects re-encoded bytes so the stored size, checksum,
// dimensions and format stay in sync with the file. Output is always JPEG.
func optimizedUpdates(optimized []byte) (map[string]interface{}, error) {
	info, err := utils.InspectFile(bytes.NewReader(optimized), "optimized.jpg")
	if err != nil {
		return nil, err
	}
	return map[string]interface{}{
		"size":      info.Size,
		"mime_type": info.MimeType,
		"format":    info.Format,
		"checksum":  info.Checksum,
		"width":     info.Width,
		"height":    info.Height,
	}, nil
}

// GenerateThumbnail (re)builds the stored thumbnail for an image.
func GenerateThumbnail(c *gin.Context) {
	userID := c.GetUint("user_id")

	media, err := models.GetMediaByID(c.Param("id"), userID)
	if err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "Media not found"})
		return
	}
	if media.Type != models.MediaImage {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Media is not an image"})
		return
	}

	var input struct {
		Width  int `json:"width"`
		Height int `json:"height"`
	}
	c.ShouldBindJSON(&input)
	if input.Width <= 0 {
		input.Width = 300
	}
	if input.Height <= 0 {
		input.Height = 300
	}

	provider := storage.GetProvider()
	reader, err := provider.Download(media.Path)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to read original file"})
		return
	}
	defer reader.Close()

	thumb, err := utils.TransformImage(reader, utils.TransformationOptions{
		Width: input.Width, Height: input.Height, Fit: "cover", Quality: 80,
	})
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": fmt.Sprintf("Failed to generate thumbnail: %v", err)})
		return
	}

	thumbKey := fmt.Sprintf("thumbs/%s.jpg", media.ID)
	if _, err := provider.UploadBytes(thumb, thumbKey); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to store thumbnail"})
		return
	}

	if err := database.GetDB().Model(media).Update("thumbnail_path", thumbKey).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to update media record"})
		return
	}

	media.ThumbnailPath = thumbKey
	attachURLs(media)
	c.JSON(http.StatusOK, gin.H{"thumbnail_url": media.ThumbnailURL})
}

// GetMediaVariants lists derived versions of a media item.
func GetMediaVariants(c *gin.Context) {
	userID := c.GetUint("user_id")

	media, err := models.GetMediaByID(c.Param("id"), userID)
	if err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "Media not found"})
		return
	}

	var variants []models.Media
	if err := database.GetDB().Where("original_id = ? AND user_id = ?", media.ID, userID).
		Order("created_at DESC").Find(&variants).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to fetch variants"})
		return
	}
	attachURLsAll(variants)

	c.JSON(http.StatusOK, gin.H{"variants": variants})
}

// CreateMediaVariant produces a new derived item from transformation options.
func CreateMediaVariant(c *gin.Context) {
	userID := c.GetUint("user_id")

	media, err := models.GetMediaByID(c.Param("id"), userID)
	if err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "Media not found"})
		return
	}
	if media.Type != models.MediaImage {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Media is not an image"})
		return
	}

	var options utils.TransformationOptions
	if err := c.ShouldBindJSON(&options); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if err := options.Validate(); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if options.Preset != "" {
		if err := utils.ApplyPreset(&options, options.Preset); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
	}

	provider := storage.GetProvider()
	reader, err := provider.Download(media.Path)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to read original file"})
		return
	}
	defer reader.Close()

	transformed, err := utils.TransformImage(reader, options)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": fmt.Sprintf("Failed to transform image: %v", err)})
		return
	}

	variantID := uuid.NewString()
	ext := ".jpg"
	if options.Format == "png" {
		ext = ".png"
	}
	key := variantID + ext
	if _, err := provider.UploadBytes(transformed, key); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to store variant"})
		return
	}

	variant := models.Media{
		ID:            variantID,
		UserID:        userID,
		FolderID:      media.FolderID,
		OriginalID:    &media.ID,
		Type:          models.MediaImage,
		Filename:      media.Filename,
		DisplayName:   media.DisplayName,
		AltText:       media.AltText,
		Caption:       media.Caption,
		Path:          key,
		MimeType:      options.ContentType(media.MimeType),
		Format:        ext[1:],
		Size:          int64(len(transformed)),
		AllowDownload: media.AllowDownload,
		IsPrivate:     media.IsPrivate,
	}
	if err := database.GetDB().Create(&variant).Error; err != nil {
		provider.Delete(key)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to save variant"})
		return
	}

	recordHistory(media.ID, userID, "variant", fmt.Sprintf("variant created as %s", variantID))
	attachURLs(&variant)
	c.JSON(http.StatusCreated, gin.H{"media": variant})
}
