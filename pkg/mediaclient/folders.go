package mediaclient

import (
	"context"
	"net/http"
	"strconv"
)

// FolderRequest carries folder create/update fields.
type FolderRequest struct {
	Name        string `json:"name,omitempty"`
	Description string `json:"description,omitempty"`
	Color       string `json:"color,omitempty"`
	ParentID    *uint  `json:"parent_id,omitempty"`
}

// Folders lists all folders flat, with media counts.
func (c *Client) Folders(ctx context.Context) ([]Folder, error) {
	var out struct {
		Folders []Folder `json:"folders"`
	}
	if err := c.get(ctx, "/media/folders", &out); err != nil {
		return nil, err
	}
	return out.Folders, nil
}

// FolderTree returns folders nested by parent.
func (c *Client) FolderTree(ctx context.Context) ([]*FolderNode, error) {
	var out struct {
		Tree []*FolderNode `json:"tree"`
	}
	if err := c.get(ctx, "/media/folders/tree", &out); err != nil {
		return nil, err
	}
	return out.Tree, nil
}

// GetFolder fetches one folder.
func (c *Client) GetFolder(ctx context.Context, id uint) (*Folder, error) {
	var out struct {
		Folder Folder `json:"folder"`
	}
	if err := c.get(ctx, "/media/folders/"+strconv.FormatUint(uint64(id), 10), &out); err != nil {
		return nil, err
	}
	return &out.Folder, nil
}

// CreateFolder creates a folder, optionally nested under a parent.
func (c *Client) CreateFolder(ctx context.Context, req FolderRequest) (*Folder, error) {
	var out struct {
		Folder Folder `json:"folder"`
	}
	if err := c.doJSON(ctx, http.MethodPost, "/media/folders", req, &out); err != nil {
		return nil, err
	}
	return &out.Folder, nil
}

// UpdateFolder renames, restyles or reparents a folder.
func (c *Client) UpdateFolder(ctx context.Context, id uint, req FolderRequest) (*Folder, error) {
	var out struct {
		Folder Folder `json:"folder"`
	}
	path := "/media/folders/" + strconv.FormatUint(uint64(id), 10)
	if err := c.doJSON(ctx, http.MethodPut, path, req, &out); err != nil {
		return nil, err
	}
	return &out.Folder, nil
}

// DeleteFolder removes a folder. Media inside moves to the root.
func (c *Client) DeleteFolder(ctx context.Context, id uint) error {
	return c.doJSON(ctx, http.MethodDelete, "/media/folders/"+strconv.FormatUint(uint64(id), 10), nil, nil)
}
