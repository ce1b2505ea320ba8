package models

import (
	"time"
)

// Setting is one persisted site preference (popup flags, defaults, toggles).
type Setting struct {
	Key       string    `json:"key" gorm:"primarykey"`
	Value     string    `json:"value"`
	UpdatedAt time.Time `json:"updated_at"`
}
