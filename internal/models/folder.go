package models

import (
	"gorm.io/gorm"
)

type Folder struct {
	gorm.Model
	Name        string `json:"name" gorm:"not null"`
	Description string `json:"description"`
	Color       string `json:"color"`
	ParentID    *uint  `json:"parent_id" gorm:"index"`
	UserID      uint   `json:"user_id" gorm:"not null;index"`
	MediaCount  int64  `json:"media_count" gorm:"-"`
}

// FolderNode is a folder with its children, as returned by the tree endpoint.
type FolderNode struct {
	Folder
	Children []*FolderNode `json:"children"`
}

// BuildFolderTree arranges a flat folder list into parent/child nodes. Folders
// are only ever created with an existing parent, so the input is acyclic.
func BuildFolderTree(folders []Folder) []*FolderNode {
	nodes := make(map[uint]*FolderNode, len(folders))
	for i := range folders {
		nodes[folders[i].ID] = &FolderNode{Folder: folders[i], Children: []*FolderNode{}}
	}

	roots := []*FolderNode{}
	for i := range folders {
		node := nodes[folders[i].ID]
		if node.ParentID != nil {
			if parent, ok := nodes[*node.ParentID]; ok {
				parent.Children = append(parent.Children, node)
				continue
			}
		}
		roots = append(roots, node)
	}
	return roots
}
