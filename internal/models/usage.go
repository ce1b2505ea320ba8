package models

import (
	"time"
)

// MediaUsage records where a media item is referenced (articles, pages, covers).
type MediaUsage struct {
	ID         uint      `json:"id" gorm:"primarykey"`
	MediaID    string    `json:"media_id" gorm:"index;not null"`
	EntityType string    `json:"entity_type"`
	EntityID   string    `json:"entity_id"`
	Context    string    `json:"context"`
	CreatedAt  time.Time `json:"created_at"`
}

// AccessLog records one view or download of a media item.
type AccessLog struct {
	ID        uint      `json:"id" gorm:"primarykey"`
	MediaID   string    `json:"media_id" gorm:"index;not null"`
	UserID    uint      `json:"user_id"`
	Action    string    `json:"action"`
	RemoteIP  string    `json:"remote_ip"`
	UserAgent string    `json:"user_agent"`
	CreatedAt time.Time `json:"created_at"`
}

// HistoryEntry is a point-in-time event in a media item's edit history.
type HistoryEntry struct {
	ID        uint      `json:"id" gorm:"primarykey"`
	MediaID   string    `json:"media_id" gorm:"index;not null"`
	UserID    uint      `json:"user_id"`
	Event     string    `json:"event"`
	Detail    string    `json:"detail"`
	CreatedAt time.Time `json:"created_at"`
}

func (HistoryEntry) TableName() string {
	return "media_history"
}
