package handlers

import (
	"net/http"

	"github.com/magpress/media-center/internal/settings"

	"github.com/gin-gonic/gin"
)

var settingsStore *settings.Store

// SetSettingsStore wires the settings store built at startup into the handlers.
func SetSettingsStore(store *settings.Store) {
	settingsStore = store
}

// Settings the library exposes, with their defaults. Unknown keys are rejected
// so typos do not silently create dead settings.
var knownSettings = map[string]string{
	"default_view":         "grid",
	"items_per_page":       "24",
	"default_sort":         "date",
	"auto_generate_thumbs": "true",
	"allow_public_links":   "false",
	"max_upload_mb":        "50",
}

// GetSettings returns every setting, with defaults filled in for unset keys.
func GetSettings(c *gin.Context) {
	if settingsStore == nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "Settings store not initialized"})
		return
	}

	values := map[string]string{}
	for key, fallback := range knownSettings {
		values[key] = settingsStore.GetString(key, fallback)
	}

	c.JSON(http.StatusOK, gin.H{"settings": values})
}

// UpdateSettings writes one or more settings. The whole batch is validated
// before anything is saved.
func UpdateSettings(c *gin.Context) {
	if settingsStore == nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "Settings store not initialized"})
		return
	}

	var input map[string]string
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if len(input) == 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "No settings provided"})
		return
	}

	for key := range input {
		if _, ok := knownSettings[key]; !ok {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Unknown setting: " + key})
			return
		}
	}

	for key, value := range input {
		if err := settingsStore.SetString(key, value); err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to save setting: " + key})
			return
		}
	}

	GetSettings(c)
}

// GetSetting returns one setting by key.
func GetSetting(c *gin.Context) {
	if settingsStore == nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "Settings store not initialized"})
		return
	}

	key := c.Param("key")
	fallback, ok := knownSettings[key]
	if !ok {
		c.JSON(http.StatusNotFound, gin.H{"error": "Unknown setting: " + key})
		return
	}

	c.JSON(http.StatusOK, gin.H{"key": key, "value": settingsStore.GetString(key, fallback)})
}

// UpdateSetting writes one setting by key.
func UpdateSetting(c *gin.Context) {
	if settingsStore == nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "Settings store not initialized"})
		return
	}

	key := c.Param("key")
	if _, ok := knownSettings[key]; !ok {
		c.JSON(http.StatusNotFound, gin.H{"error": "Unknown setting: " + key})
		return
	}

	var input struct {
		Value string `json:"value" binding:"required"`
	}
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	if err := settingsStore.SetString(key, input.Value); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to save setting"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"key": key, "value": input.Value})
}
