package handlers

import (
	"net/http"
	"strconv"

	"github.com/magpress/media-center/internal/database"
	"github.com/magpress/media-center/internal/models"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"
)

// CreateFolder creates a folder, optionally nested under a parent.
func CreateFolder(c *gin.Context) {
	userID := c.GetUint("user_id")

	var input struct {
		Name        string `json:"name" binding:"required"`
		Description string `json:"description"`
		Color       string `json:"color"`
		ParentID    *uint  `json:"parent_id"`
	}
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	db := database.GetDB()
	if input.ParentID != nil {
		var parent models.Folder
		if err := db.Where("id = ? AND user_id = ?", *input.ParentID, userID).First(&parent).Error; err != nil {
			c.JSON(http.StatusNotFound, gin.H{"error": "Parent folder not found"})
			return
		}
	}

	var existing models.Folder
	if err := db.Where("user_id = ? AND name = ? AND parent_id IS NOT DISTINCT FROM ?",
		userID, input.Name, input.ParentID).First(&existing).Error; err == nil {
		c.JSON(http.StatusConflict, gin.H{"error": "A folder with this name already exists here"})
		return
	}

	folder := models.Folder{
		Name:        input.Name,
		Description: input.Description,
		Color:       input.Color,
		ParentID:    input.ParentID,
		UserID:      userID,
	}
	if err := db.Create(&folder).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to create folder"})
		return
	}

	c.JSON(http.StatusCreated, gin.H{"folder": folder})
}

// ListFolders returns the user's folders as a flat list with media counts.
func ListFolders(c *gin.Context) {
	userID := c.GetUint("user_id")

	var folders []models.Folder
	if err := database.GetDB().Where("user_id = ?", userID).Order("name ASC").Find(&folders).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to fetch folders"})
		return
	}
	attachMediaCounts(folders, userID)

	c.JSON(http.StatusOK, gin.H{"folders": folders})
}

// GetFolderTree returns the user's folders nested by parent.
func GetFolderTree(c *gin.Context) {
	userID := c.GetUint("user_id")

	var folders []models.Folder
	if err := database.GetDB().Where("user_id = ?", userID).Order("name ASC").Find(&folders).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to fetch folders"})
		return
	}
	attachMediaCounts(folders, userID)

	c.JSON(http.StatusOK, gin.H{"tree": models.BuildFolderTree(folders)})
}

// GetFolder returns one folder with its media count.
func GetFolder(c *gin.Context) {
	userID := c.GetUint("user_id")
	folderID, err := strconv.Atoi(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid folder id"})
		return
	}

	var folder models.Folder
	db := database.GetDB()
	if err := db.Where("id = ? AND user_id = ?", folderID, userID).First(&folder).Error; err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "Folder not found"})
		return
	}
	db.Model(&models.Media{}).Where("folder_id = ?", folder.ID).Count(&folder.MediaCount)

	c.JSON(http.StatusOK, gin.H{"folder": folder})
}

// UpdateFolder renames or restyles a folder, or reparents it.
func UpdateFolder(c *gin.Context) {
	userID := c.GetUint("user_id")
	folderID, err := strconv.Atoi(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid folder id"})
		return
	}

	var folder models.Folder
	db := database.GetDB()
	if err := db.Where("id = ? AND user_id = ?", folderID, userID).First(&folder).Error; err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "Folder not found"})
		return
	}

	var input struct {
		Name        *string `json:"name"`
		Description *string `json:"description"`
		Color       *string `json:"color"`
		ParentID    *uint   `json:"parent_id"`
	}
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	if input.ParentID != nil {
		if *input.ParentID == folder.ID {
			c.JSON(http.StatusBadRequest, gin.H{"error": "A folder cannot be its own parent"})
			return
		}
		var parent models.Folder
		if err := db.Where("id = ? AND user_id = ?", *input.ParentID, userID).First(&parent).Error; err != nil {
			c.JSON(http.StatusNotFound, gin.H{"error": "Parent folder not found"})
			return
		}
	}

	updates := map[string]interface{}{}
	if input.Name != nil {
		updates["name"] = *input.Name
	}
	if input.Description != nil {
		updates["description"] = *input.Description
	}
	if input.Color != nil {
		updates["color"] = *input.Color
	}
	if input.ParentID != nil {
		updates["parent_id"] = *input.ParentID
	}
	if len(updates) > 0 {
		if err := db.Model(&folder).Updates(updates).Error; err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to update folder"})
			return
		}
	}

	c.JSON(http.StatusOK, gin.H{"folder": folder})
}

// DeleteFolder removes a folder. Contained media moves to the root and child
// folders are reparented to the deleted folder's parent; nothing is lost.
func DeleteFolder(c *gin.Context) {
	userID := c.GetUint("user_id")
	folderID, err := strconv.Atoi(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid folder id"})
		return
	}

	var folder models.Folder
	db := database.GetDB()
	if err := db.Where("id = ? AND user_id = ?", folderID, userID).First(&folder).Error; err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "Folder not found"})
		return
	}

	err = db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Model(&models.Media{}).Where("folder_id = ?", folder.ID).
			Update("folder_id", nil).Error; err != nil {
			return err
		}
		if err := tx.Model(&models.Folder{}).Where("parent_id = ?", folder.ID).
			Update("parent_id", folder.ParentID).Error; err != nil {
			return err
		}
		return tx.Delete(&folder).Error
	})
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to delete folder"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "Folder deleted"})
}

func attachMediaCounts(folders []models.Folder, userID uint) {
	if len(folders) == 0 {
		return
	}
	rows := []struct {
		FolderID uint
		Count    int64
	}{}
	database.GetDB().Model(&models.Media{}).
		Select("folder_id, COUNT(*) as count").
		Where("user_id = ? AND folder_id IS NOT NULL", userID).
		Group("folder_id").Scan(&rows)

	counts := make(map[uint]int64, len(rows))
	for _, row := range rows {
		counts[row.FolderID] = row.Count
	}
	for i := range folders {
		folders[i].MediaCount = counts[folders[i].ID]
	}
}
