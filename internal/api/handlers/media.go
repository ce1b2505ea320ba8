package handlers

import (
	"bytes"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/magpress/media-center/internal/config"
	"github.com/magpress/media-center/internal/database"
	"github.com/magpress/media-center/internal/models"
	"github.com/magpress/media-center/internal/storage"
	"github.com/magpress/media-center/internal/utils"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

const defaultURLExpiration = 24 * time.Hour

// attachURLs fills the transient URL fields from the storage provider.
func attachURLs(media *models.Media) {
	provider := storage.GetProvider()
	if provider == nil {
		return
	}
	media.URL = provider.GetPublicURL(media.Path)
	if media.ThumbnailPath != "" {
		media.ThumbnailURL = provider.GetPublicURL(media.ThumbnailPath)
	}
}

func attachURLsAll(media []models.Media) {
	for i := range media {
		attachURLs(&media[i])
	}
}

// saveUpload stores file bytes and creates the Media row inside a transaction.
// The uploaded object is removed again if the database write fails.
func saveUpload(data []byte, filename string, userID uint, folderID *uint, fields map[string]string, tagNames []string) (*models.Media, error) {
	info, err := utils.InspectFile(bytes.NewReader(data), filename)
	if err != nil {
		return nil, fmt.Errorf("failed to inspect file: %v", err)
	}

	provider := storage.GetProvider()
	id := uuid.NewString()
	key := fmt.Sprintf("%s%s", id, filepath.Ext(filename))
	if _, err := provider.UploadBytes(data, key); err != nil {
		return nil, fmt.Errorf("failed to store file: %v", err)
	}

	displayName := fields["display_name"]
	if displayName == "" {
		displayName = filename
	}

	media := models.Media{
		ID:            id,
		UserID:        userID,
		FolderID:      folderID,
		Type:          models.TypeFromMime(info.MimeType),
		Filename:      filename,
		DisplayName:   displayName,
		AltText:       fields["alt_text"],
		Caption:       fields["caption"],
		Description:   fields["description"],
		Path:          key,
		MimeType:      info.MimeType,
		Format:        info.Format,
		Size:          info.Size,
		Checksum:      info.Checksum,
		Width:         info.Width,
		Height:        info.Height,
		AllowDownload: true,
	}
	if original := fields["original_id"]; original != "" {
		media.OriginalID = &original
	}

	// Generate a thumbnail for images
	if media.Type == models.MediaImage {
		thumb, err := utils.TransformImage(bytes.NewReader(data), utils.TransformationOptions{
			Width: 300, Height: 300, Fit: "cover", Quality: 80,
		})
		if err == nil {
			thumbKey := fmt.Sprintf("thumbs/%s.jpg", id)
			if _, err := provider.UploadBytes(thumb, thumbKey); err == nil {
				media.ThumbnailPath = thumbKey
			}
		}
	}

	tx := database.GetDB().Begin()
	if err := tx.Create(&media).Error; err != nil {
		tx.Rollback()
		provider.Delete(key)
		return nil, fmt.Errorf("failed to save media record: %v", err)
	}

	if len(tagNames) > 0 {
		tags, err := models.FindOrCreateTags(tx, tagNames)
		if err != nil {
			tx.Rollback()
			provider.Delete(key)
			return nil, fmt.Errorf("failed to process tags: %v", err)
		}
		if err := tx.Model(&media).Association("Tags").Append(&tags); err != nil {
			tx.Rollback()
			provider.Delete(key)
			return nil, fmt.Errorf("failed to associate tags: %v", err)
		}
		media.Tags = tags
	}
	tx.Commit()

	attachURLs(&media)
	return &media, nil
}

// resolveFolder validates an optional folder id for the current user.
func resolveFolder(c *gin.Context, raw string, userID uint) (*uint, bool) {
	if raw == "" {
		return nil, true
	}
	parsed, err := strconv.ParseUint(raw, 10, 32)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid folder ID"})
		return nil, false
	}
	id := uint(parsed)
	var folder models.Folder
	if err := database.GetDB().Where("id = ? AND user_id = ?", id, userID).First(&folder).Error; err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid folder ID"})
		return nil, false
	}
	return &id, true
}

func UploadMedia(c *gin.Context) {
	cfg, _ := config.Load()
	userID := c.GetUint("user_id")

	file, err := c.FormFile("file")
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "No file uploaded"})
		return
	}

	if file.Size > cfg.Storage.MaxUploadSize {
		c.JSON(http.StatusBadRequest, gin.H{"error": "File too large"})
		return
	}

	folderID, ok := resolveFolder(c, c.PostForm("folder_id"), userID)
	if !ok {
		return
	}

	f, err := file.Open()
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": fmt.Sprintf("Failed to open file: %v", err)})
		return
	}
	defer f.Close()

	data, err := io.ReadAll(f)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": fmt.Sprintf("Failed to read file: %v", err)})
		return
	}

	fields := map[string]string{
		"display_name": c.PostForm("display_name"),
		"alt_text":     c.PostForm("alt_text"),
		"caption":      c.PostForm("caption"),
		"description":  c.PostForm("description"),
		"original_id":  c.PostForm("original_id"),
	}

	media, err := saveUpload(data, file.Filename, userID, folderID, fields, c.PostFormArray("tags"))
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	if media.OriginalID != nil {
		recordHistory(*media.OriginalID, userID, "derived", fmt.Sprintf("edited copy saved as %s", media.ID))
	}

	c.JSON(http.StatusOK, gin.H{"message": "File uploaded successfully", "media": media})
}

// listQuery builds the filtered media query shared by list and search.
func listQuery(c *gin.Context, userID uint) *gorm.DB {
	db := database.GetDB()
	query := db.Model(&models.Media{}).Where("user_id = ?", userID)

	if mediaType := c.Query("type"); mediaType != "" {
		query = query.Where("type = ?", mediaType)
	}
	if search := c.Query("search"); search != "" {
		like := "%" + search + "%"
		query = query.Where("filename ILIKE ? OR display_name ILIKE ? OR caption ILIKE ? OR alt_text ILIKE ?",
			like, like, like, like)
	}
	if folderID := c.Query("folder_id"); folderID != "" {
		if folderID == "root" {
			query = query.Where("folder_id IS NULL")
		} else {
			query = query.Where("folder_id = ?", folderID)
		}
	}
	if fromDate, ok := utils.ParseFromDate(c.Query("from_date")); ok {
		query = query.Where("created_at >= ?", fromDate)
	}
	if tags := c.QueryArray("tags"); len(tags) > 0 {
		// Subquery keeps the outer query flat so Count stays correct.
		matching := db.Table("media_tags").
			Select("media_tags.media_id").
			Joins("JOIN tags ON tags.id = media_tags.tag_id").
			Where("tags.name IN ?", tags).
			Group("media_tags.media_id").
			Having("COUNT(DISTINCT tags.name) = ?", len(tags))
		query = query.Where("media.id IN (?)", matching)
	}
	return query
}

func ListMedia(c *gin.Context) {
	userID := c.GetUint("user_id")

	page, _ := strconv.Atoi(c.DefaultQuery("page", "1"))
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "24"))
	if page < 1 {
		page = 1
	}
	if limit < 1 || limit > 100 {
		limit = 24
	}

	query := listQuery(c, userID)

	var total int64
	if err := query.Count(&total).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": fmt.Sprintf("Failed to count media: %v", err)})
		return
	}

	order := fmt.Sprintf("%s %s", utils.SortColumn(c.Query("sortBy")), utils.SortDirection(c.Query("sortOrder")))

	var media []models.Media
	offset := (page - 1) * limit
	if err := query.Preload("Tags").Order(order).Offset(offset).Limit(limit).Find(&media).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": fmt.Sprintf("Failed to fetch media: %v", err)})
		return
	}
	attachURLsAll(media)

	c.JSON(http.StatusOK, gin.H{
		"media":       media,
		"totalMedia":  total,
		"totalPages":  (total + int64(limit) - 1) / int64(limit),
		"currentPage": page,
	})
}

// SearchMedia is ListMedia with the free-text query under "q". The raw URL is
// read directly so gin does not cache the query map before it is rewritten.
func SearchMedia(c *gin.Context) {
	if q := c.Request.URL.Query().Get("q"); q != "" {
		c.Request.URL.RawQuery = c.Request.URL.RawQuery + "&search=" + url.QueryEscape(q)
	}
	ListMedia(c)
}

func GetMedia(c *gin.Context) {
	userID := c.GetUint("user_id")

	media, err := models.GetMediaByID(c.Param("id"), userID)
	if err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "Media not found"})
		return
	}
	attachURLs(media)

	expiration := defaultURLExpiration
	if seconds, err := strconv.Atoi(c.DefaultQuery("expires", "")); err == nil && seconds > 0 {
		expiration = time.Duration(seconds) * time.Second
	}
	presigned, err := storage.GetProvider().GetPresignedURL(media.Path, expiration)
	if err == nil {
		media.URL = presigned
	}

	if media.FolderID != nil {
		var folder models.Folder
		if err := database.GetDB().Select("id, name, color").First(&folder, *media.FolderID).Error; err == nil {
			c.JSON(http.StatusOK, gin.H{
				"media":  media,
				"folder": gin.H{"id": folder.ID, "name": folder.Name, "color": folder.Color},
			})
			return
		}
	}

	c.JSON(http.StatusOK, gin.H{"media": media})
}

func UpdateMedia(c *gin.Context) {
	userID := c.GetUint("user_id")

	var input struct {
		DisplayName   *string  `json:"display_name"`
		AltText       *string  `json:"alt_text"`
		Caption       *string  `json:"caption"`
		Description   *string  `json:"description"`
		FolderID      *uint    `json:"folder_id"`
		IsPrivate     *bool    `json:"is_private"`
		AllowDownload *bool    `json:"allow_download"`
		Tags          []string `json:"tags"`
	}
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	media, err := models.GetMediaByID(c.Param("id"), userID)
	if err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "Media not found"})
		return
	}

	updates := map[string]interface{}{}
	if input.DisplayName != nil {
		updates["display_name"] = *input.DisplayName
	}
	if input.AltText != nil {
		updates["alt_text"] = *input.AltText
	}
	if input.Caption != nil {
		updates["caption"] = *input.Caption
	}
	if input.Description != nil {
		updates["description"] = *input.Description
	}
	if input.FolderID != nil {
		updates["folder_id"] = *input.FolderID
	}
	if input.IsPrivate != nil {
		updates["is_private"] = *input.IsPrivate
	}
	if input.AllowDownload != nil {
		updates["allow_download"] = *input.AllowDownload
	}

	db := database.GetDB()
	if len(updates) > 0 {
		if err := db.Model(media).Updates(updates).Error; err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to update media"})
			return
		}
	}

	if input.Tags != nil {
		tags, err := models.FindOrCreateTags(db, input.Tags)
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to process tags"})
			return
		}
		if err := db.Model(media).Association("Tags").Replace(&tags); err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to update tags"})
			return
		}
		media.Tags = tags
	}

	recordHistory(media.ID, userID, "updated", "metadata updated")
	attachURLs(media)
	c.JSON(http.StatusOK, gin.H{"media": media})
}

func DeleteMedia(c *gin.Context) {
	userID := c.GetUint("user_id")

	media, err := models.GetMediaByID(c.Param("id"), userID)
	if err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "Media not found"})
		return
	}

	provider := storage.GetProvider()
	if err := provider.Delete(media.Path); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": fmt.Sprintf("Failed to delete file: %v", err)})
		return
	}
	if media.ThumbnailPath != "" {
		provider.Delete(media.ThumbnailPath)
	}

	if err := database.GetDB().Delete(media).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to delete media record"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "Media deleted successfully"})
}

// MoveMedia assigns a media item to a folder (nil folder_id moves it to root).
func MoveMedia(c *gin.Context) {
	userID := c.GetUint("user_id")

	var input struct {
		FolderID *uint `json:"folder_id"`
	}
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	media, err := models.GetMediaByID(c.Param("id"), userID)
	if err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "Media not found"})
		return
	}

	if input.FolderID != nil {
		var folder models.Folder
		if err := database.GetDB().Where("id = ? AND user_id = ?", *input.FolderID, userID).First(&folder).Error; err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid folder ID"})
			return
		}
	}

	if err := database.GetDB().Model(media).Update("folder_id", input.FolderID).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to move media"})
		return
	}

	media.FolderID = input.FolderID
	attachURLs(media)
	c.JSON(http.StatusOK, gin.H{"media": media})
}

// copyMediaRecord duplicates a media item's stored object and row.
func copyMediaRecord(src *models.Media, userID uint, folderID *uint) (*models.Media, error) {
	provider := storage.GetProvider()
	reader, err := provider.Download(src.Path)
	if err != nil {
		return nil, fmt.Errorf("failed to read original file: %v", err)
	}
	defer reader.Close()

	data, err := io.ReadAll(reader)
	if err != nil {
		return nil, fmt.Errorf("failed to read original file: %v", err)
	}

	id := uuid.NewString()
	key := fmt.Sprintf("%s%s", id, filepath.Ext(src.Path))
	if _, err := provider.UploadBytes(data, key); err != nil {
		return nil, fmt.Errorf("failed to store copy: %v", err)
	}

	duplicate := *src
	duplicate.ID = id
	duplicate.Path = key
	duplicate.FolderID = folderID
	duplicate.OriginalID = &src.ID
	duplicate.ViewCount = 0
	duplicate.CreatedAt = time.Time{}
	duplicate.UpdatedAt = time.Time{}
	duplicate.ThumbnailPath = ""

	if src.ThumbnailPath != "" {
		if thumbReader, err := provider.Download(src.ThumbnailPath); err == nil {
			thumbData, err := io.ReadAll(thumbReader)
			thumbReader.Close()
			if err == nil {
				thumbKey := fmt.Sprintf("thumbs/%s.jpg", id)
				if _, err := provider.UploadBytes(thumbData, thumbKey); err == nil {
					duplicate.ThumbnailPath = thumbKey
				}
			}
		}
	}

	if err := database.GetDB().Create(&duplicate).Error; err != nil {
		provider.Delete(key)
		return nil, fmt.Errorf("failed to save copy: %v", err)
	}
	if len(src.Tags) > 0 {
		database.GetDB().Model(&duplicate).Association("Tags").Append(&src.Tags)
	}

	attachURLs(&duplicate)
	return &duplicate, nil
}

// CopyMedia duplicates a media item into a target folder.
func CopyMedia(c *gin.Context) {
	userID := c.GetUint("user_id")

	var input struct {
		FolderID *uint `json:"folder_id"`
	}
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	media, err := models.GetMediaByID(c.Param("id"), userID)
	if err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "Media not found"})
		return
	}

	duplicate, err := copyMediaRecord(media, userID, input.FolderID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusCreated, gin.H{"media": duplicate})
}

// DuplicateMedia copies a media item into its own folder.
func DuplicateMedia(c *gin.Context) {
	userID := c.GetUint("user_id")

	media, err := models.GetMediaByID(c.Param("id"), userID)
	if err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "Media not found"})
		return
	}

	duplicate, err := copyMediaRecord(media, userID, media.FolderID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	recordHistory(media.ID, userID, "duplicated", fmt.Sprintf("duplicated as %s", duplicate.ID))
	c.JSON(http.StatusCreated, gin.H{"media": duplicate})
}

// ReplaceMedia swaps the stored file while keeping the metadata and id.
func ReplaceMedia(c *gin.Context) {
	cfg, _ := config.Load()
	userID := c.GetUint("user_id")

	media, err := models.GetMediaByID(c.Param("id"), userID)
	if err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "Media not found"})
		return
	}

	file, err := c.FormFile("file")
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "No file uploaded"})
		return
	}
	if file.Size > cfg.Storage.MaxUploadSize {
		c.JSON(http.StatusBadRequest, gin.H{"error": "File too large"})
		return
	}

	f, err := file.Open()
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": fmt.Sprintf("Failed to open file: %v", err)})
		return
	}
	defer f.Close()

	data, err := io.ReadAll(f)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": fmt.Sprintf("Failed to read file: %v", err)})
		return
	}

	info, err := utils.InspectFile(bytes.NewReader(data), file.Filename)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": fmt.Sprintf("Failed to inspect file: %v", err)})
		return
	}

	provider := storage.GetProvider()
	key := fmt.Sprintf("%s%s", media.ID, filepath.Ext(file.Filename))
	if _, err := provider.UploadBytes(data, key); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": fmt.Sprintf("Failed to store file: %v", err)})
		return
	}
	if key != media.Path {
		provider.Delete(media.Path)
	}

	updates := map[string]interface{}{
		"path":      key,
		"filename":  file.Filename,
		"mime_type": info.MimeType,
		"format":    info.Format,
		"size":      info.Size,
		"checksum":  info.Checksum,
		"width":     info.Width,
		"height":    info.Height,
		"type":      models.TypeFromMime(info.MimeType),
	}
	if err := database.GetDB().Model(media).Updates(updates).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to update media record"})
		return
	}

	recordHistory(media.ID, userID, "replaced", fmt.Sprintf("file replaced with %s", file.Filename))

	refreshed, err := models.GetMediaByID(media.ID, userID)
	if err == nil {
		media = refreshed
	}
	attachURLs(media)
	c.JSON(http.StatusOK, gin.H{"media": media})
}

// ServeMediaFile streams a stored file through the application server.
func ServeMediaFile(c *gin.Context) {
	// Wildcard params carry a leading slash.
	path := strings.TrimPrefix(c.Param("filename"), "/")
	if path == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Filename required"})
		return
	}

	var media models.Media
	if err := database.GetDB().Where("path = ? OR thumbnail_path = ?", path, path).First(&media).Error; err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "Media not found"})
		return
	}

	// Private items are only served with a valid presigned token.
	if media.IsPrivate {
		verifier, ok := storage.GetProvider().(storage.AccessVerifier)
		if !ok || verifier.VerifyAccessToken(path, c.Query("exp"), c.Query("sig")) != nil {
			c.JSON(http.StatusForbidden, gin.H{"error": "Access denied"})
			return
		}
	}

	reader, err := storage.GetProvider().Download(path)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": fmt.Sprintf("Failed to fetch file: %v", err)})
		return
	}
	defer reader.Close()

	contentLength := media.Size
	mimeType := media.MimeType
	if path != media.Path {
		// thumbnails are always JPEG and have their own size
		contentLength = -1
		mimeType = "image/jpeg"
	}
	c.Header("Content-Disposition", fmt.Sprintf("inline; filename=%q", media.Filename))
	c.DataFromReader(http.StatusOK, contentLength, mimeType, reader, nil)
}
