package mediaclient

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
)

// BulkUpdateRequest carries shared changes applied to several media items.
type BulkUpdateRequest struct {
	MediaIDs      []string `json:"media_ids"`
	Caption       *string  `json:"caption,omitempty"`
	AltText       *string  `json:"alt_text,omitempty"`
	Description   *string  `json:"description,omitempty"`
	IsPrivate     *bool    `json:"is_private,omitempty"`
	AllowDownload *bool    `json:"allow_download,omitempty"`
	AddTags       []string `json:"add_tags,omitempty"`
	RemoveTags    []string `json:"remove_tags,omitempty"`
}

// BulkResult reports how a bulk call went per item.
type BulkResult struct {
	Message string `json:"message"`
	Updated int    `json:"updated"`
	Deleted int    `json:"deleted"`
	Moved   int64  `json:"moved"`
	Failed  []struct {
		ID    string `json:"id"`
		Error string `json:"error"`
	} `json:"failed"`
}

// BulkUpdate applies shared metadata changes to several media items.
func (c *Client) BulkUpdate(ctx context.Context, req BulkUpdateRequest) (*BulkResult, error) {
	var result BulkResult
	if err := c.doJSON(ctx, http.MethodPut, "/media/bulk", req, &result); err != nil {
		return nil, err
	}
	return &result, nil
}

// BulkDelete removes several media items.
func (c *Client) BulkDelete(ctx context.Context, ids []string) (*BulkResult, error) {
	body := map[string]interface{}{"media_ids": ids}
	var result BulkResult
	if err := c.doJSON(ctx, http.MethodDelete, "/media/bulk", body, &result); err != nil {
		return nil, err
	}
	return &result, nil
}

// BulkMove puts several media items into a folder; nil moves them to the root.
func (c *Client) BulkMove(ctx context.Context, ids []string, folderID *uint) (*BulkResult, error) {
	body := map[string]interface{}{"media_ids": ids, "folder_id": folderID}
	var result BulkResult
	if err := c.doJSON(ctx, http.MethodPut, "/media/bulk/move", body, &result); err != nil {
		return nil, err
	}
	return &result, nil
}

// BulkDownload streams the selected files as a zip archive into w.
func (c *Client) BulkDownload(ctx context.Context, ids []string, w io.Writer) error {
	data, err := json.Marshal(map[string]interface{}{"media_ids": ids})
	if err != nil {
		return err
	}

	req, err := c.newRequest(ctx, http.MethodPost, "/media/bulk/download", bytes.NewReader(data), "application/json")
	if err != nil {
		return err
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return parseAPIError(resp)
	}

	_, err = io.Copy(w, resp.Body)
	return err
}
