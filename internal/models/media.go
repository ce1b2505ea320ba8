package models

import (
	"errors"
	"strings"
	"time"

	"github.com/magpress/media-center/internal/database"

	"gorm.io/gorm"
)

// MediaType classifies a stored file by its broad kind.
type MediaType string

const (
	MediaImage    MediaType = "image"
	MediaVideo    MediaType = "video"
	MediaAudio    MediaType = "audio"
	MediaDocument MediaType = "document"
)

// TypeFromMime maps a MIME type onto a MediaType.
func TypeFromMime(mimeType string) MediaType {
	switch {
	case strings.HasPrefix(mimeType, "image/"):
		return MediaImage
	case strings.HasPrefix(mimeType, "video/"):
		return MediaVideo
	case strings.HasPrefix(mimeType, "audio/"):
		return MediaAudio
	default:
		return MediaDocument
	}
}

// Media represents a stored media file and its descriptive metadata.
type Media struct {
	ID       string    `json:"id" gorm:"primarykey"`
	UserID   uint      `json:"user_id" gorm:"index"`
	FolderID *uint     `json:"folder_id" gorm:"index"`
	Type     MediaType `json:"type" gorm:"index"`

	// Original the item was derived from (edited copies, variants, thumbnails).
	OriginalID *string `json:"original_id,omitempty" gorm:"index"`

	Filename    string `json:"filename"`
	DisplayName string `json:"display_name"`
	AltText     string `json:"alt_text"`
	Caption     string `json:"caption"`
	Description string `json:"description"`

	Path          string `json:"-"`
	ThumbnailPath string `json:"-"`
	URL           string `json:"url" gorm:"-"`
	ThumbnailURL  string `json:"thumbnail_url,omitempty" gorm:"-"`

	MimeType string  `json:"mime_type"`
	Format   string  `json:"format"`
	Size     int64   `json:"size"`
	Checksum string  `json:"checksum" gorm:"index"`
	Width    int     `json:"width,omitempty"`
	Height   int     `json:"height,omitempty"`
	Duration float64 `json:"duration,omitempty"`

	IsPrivate     bool  `json:"is_private"`
	AllowDownload bool  `json:"allow_download" gorm:"default:true"`
	ViewCount     int64 `json:"view_count"`

	Tags []Tag `json:"tags" gorm:"many2many:media_tags;"`

	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
	DeletedAt gorm.DeletedAt `json:"-" gorm:"index"`
}

// TableName specifies the table name for the Media model
func (Media) TableName() string {
	return "media"
}

type Tag struct {
	ID        uint           `json:"id" gorm:"primarykey"`
	Name      string         `json:"name" gorm:"unique"`
	CreatedAt time.Time      `json:"-"`
	UpdatedAt time.Time      `json:"-"`
	DeletedAt gorm.DeletedAt `json:"-" gorm:"index"`
	Media     []Media        `json:"-" gorm:"many2many:media_tags;"`
}

// NormalizeTag lower-cases and trims a tag name. Tags are stored de-duplicated
// under their normalized form.
func NormalizeTag(name string) string {
	return strings.ToLower(strings.TrimSpace(name))
}

// FindOrCreateTags resolves tag names into Tag rows, creating missing ones.
func FindOrCreateTags(db *gorm.DB, names []string) ([]Tag, error) {
	seen := make(map[string]bool)
	tags := make([]Tag, 0, len(names))
	for _, name := range names {
		normalized := NormalizeTag(name)
		if normalized == "" || seen[normalized] {
			continue
		}
		seen[normalized] = true

		var tag Tag
		if err := db.Where("name = ?", normalized).FirstOrCreate(&tag, Tag{Name: normalized}).Error; err != nil {
			return nil, err
		}
		tags = append(tags, tag)
	}
	return tags, nil
}

// GetMediaByID retrieves a media record by its ID scoped to a user.
func GetMediaByID(id string, userID uint) (*Media, error) {
	db := database.GetDB()
	if db == nil {
		return nil, errors.New("database connection not initialized")
	}

	var media Media
	if err := db.Preload("Tags").Where("id = ? AND user_id = ?", id, userID).First(&media).Error; err != nil {
		return nil, err
	}
	return &media, nil
}
