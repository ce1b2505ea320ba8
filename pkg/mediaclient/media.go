package mediaclient

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/url"
	"strconv"
	"time"
)

// ListOptions are the filters accepted by List.
type ListOptions struct {
	Page      int
	Limit     int
	SortBy    string // name | date | size | type
	SortOrder string // asc | desc
	Search    string
	Type      string // image | video | audio | document
	FolderID  string // numeric id, or "root" for unfiled items
	FromDate  time.Time
	Tags      []string
}

func (o ListOptions) encode() string {
	values := queryValues(map[string]string{
		"sortBy":    o.SortBy,
		"sortOrder": o.SortOrder,
		"search":    o.Search,
		"type":      o.Type,
		"folder_id": o.FolderID,
	})
	if o.Page > 0 {
		values.Set("page", strconv.Itoa(o.Page))
	}
	if o.Limit > 0 {
		values.Set("limit", strconv.Itoa(o.Limit))
	}
	if !o.FromDate.IsZero() {
		values.Set("from_date", o.FromDate.Format(time.RFC3339))
	}
	for _, tag := range o.Tags {
		values.Add("tags", tag)
	}
	return values.Encode()
}

// List fetches one page of media.
func (c *Client) List(ctx context.Context, opts ListOptions) (*Page, error) {
	var page Page
	if err := c.get(ctx, "/media?"+opts.encode(), &page); err != nil {
		return nil, err
	}
	return &page, nil
}

// Search fetches one page of media matching the query text.
func (c *Client) Search(ctx context.Context, query string, opts ListOptions) (*Page, error) {
	var page Page
	path := "/media/search?q=" + url.QueryEscape(query)
	if encoded := opts.encode(); encoded != "" {
		path += "&" + encoded
	}
	if err := c.get(ctx, path, &page); err != nil {
		return nil, err
	}
	return &page, nil
}

// Get fetches one media item.
func (c *Client) Get(ctx context.Context, id string) (*MediaItem, error) {
	var out struct {
		Media MediaItem `json:"media"`
	}
	if err := c.get(ctx, "/media/"+id, &out); err != nil {
		return nil, err
	}
	return &out.Media, nil
}

// UploadRequest describes one file upload.
type UploadRequest struct {
	Filename    string
	Reader      io.Reader
	Size        int64 // used for progress; 0 disables percentage reporting
	FolderID    *uint
	DisplayName string
	AltText     string
	Caption     string
	Description string
	OriginalID  string
	Tags        []string

	// Progress, when set, receives whole percentages 0-100 as the request
	// body is written.
	Progress func(percent int)
}

// countingReader reports write progress of the multipart body.
type countingReader struct {
	reader   io.Reader
	total    int64
	count    int64
	last     int
	progress func(int)
}

func (r *countingReader) Read(buf []byte) (int, error) {
	n, err := r.reader.Read(buf)
	r.count += int64(n)
	if r.progress != nil && r.total > 0 {
		percent := int(r.count * 100 / r.total)
		if percent > 100 {
			percent = 100
		}
		if percent != r.last {
			r.last = percent
			r.progress(percent)
		}
	}
	return n, err
}

// Upload stores a new media item.
func (c *Client) Upload(ctx context.Context, req UploadRequest) (*MediaItem, error) {
	if req.Filename == "" {
		return nil, fmt.Errorf("upload: filename is required")
	}
	if req.Reader == nil {
		return nil, fmt.Errorf("upload: reader is required")
	}

	var body bytes.Buffer
	writer := multipart.NewWriter(&body)

	part, err := writer.CreateFormFile("file", req.Filename)
	if err != nil {
		return nil, err
	}
	if _, err := io.Copy(part, req.Reader); err != nil {
		return nil, err
	}

	fields := map[string]string{
		"display_name": req.DisplayName,
		"alt_text":     req.AltText,
		"caption":      req.Caption,
		"description":  req.Description,
		"original_id":  req.OriginalID,
	}
	if req.FolderID != nil {
		fields["folder_id"] = strconv.FormatUint(uint64(*req.FolderID), 10)
	}
	for key, value := range fields {
		if value != "" {
			writer.WriteField(key, value)
		}
	}
	for _, tag := range req.Tags {
		writer.WriteField("tags", tag)
	}
	if err := writer.Close(); err != nil {
		return nil, err
	}

	reader := &countingReader{
		reader:   &body,
		total:    int64(body.Len()),
		progress: req.Progress,
	}

	httpReq, err := c.newRequest(ctx, http.MethodPost, "/media/upload", reader, writer.FormDataContentType())
	if err != nil {
		return nil, err
	}
	httpReq.ContentLength = reader.total

	var out struct {
		Media MediaItem `json:"media"`
	}
	if err := c.do(httpReq, &out); err != nil {
		return nil, err
	}
	if req.Progress != nil {
		req.Progress(100)
	}
	return &out.Media, nil
}

// UploadFromURL asks the server to fetch a remote file. The returned id
// identifies the upload session, not a media item.
func (c *Client) UploadFromURL(ctx context.Context, remoteURL string, folderID *uint, tags []string) (string, error) {
	body := map[string]interface{}{"url": remoteURL}
	if folderID != nil {
		body["folder_id"] = *folderID
	}
	if len(tags) > 0 {
		body["tags"] = tags
	}

	var out struct {
		UploadID string `json:"upload_id"`
	}
	if err := c.doJSON(ctx, http.MethodPost, "/media/upload-from-url", body, &out); err != nil {
		return "", err
	}
	return out.UploadID, nil
}

// UploadProgress reports the state of an upload session.
func (c *Client) UploadProgress(ctx context.Context, uploadID string) (*UploadSession, error) {
	var out struct {
		Session UploadSession `json:"session"`
	}
	if err := c.get(ctx, "/media/upload/"+uploadID+"/progress", &out); err != nil {
		return nil, err
	}
	return &out.Session, nil
}

// CancelUpload aborts an in-flight upload session.
func (c *Client) CancelUpload(ctx context.Context, uploadID string) error {
	return c.doJSON(ctx, http.MethodDelete, "/media/upload/"+uploadID, nil, nil)
}

// UpdateRequest carries partial metadata changes; nil fields are untouched.
type UpdateRequest struct {
	DisplayName   *string  `json:"display_name,omitempty"`
	AltText       *string  `json:"alt_text,omitempty"`
	Caption       *string  `json:"caption,omitempty"`
	Description   *string  `json:"description,omitempty"`
	FolderID      *uint    `json:"folder_id,omitempty"`
	IsPrivate     *bool    `json:"is_private,omitempty"`
	AllowDownload *bool    `json:"allow_download,omitempty"`
	// Tags replaces the full tag set; nil leaves tags untouched, an empty
	// slice clears them.
	Tags []string `json:"tags"`
}

// Update applies partial metadata changes to a media item.
func (c *Client) Update(ctx context.Context, id string, req UpdateRequest) (*MediaItem, error) {
	var out struct {
		Media MediaItem `json:"media"`
	}
	if err := c.doJSON(ctx, http.MethodPut, "/media/"+id, req, &out); err != nil {
		return nil, err
	}
	return &out.Media, nil
}

// Delete removes a media item and its stored file.
func (c *Client) Delete(ctx context.Context, id string) error {
	return c.doJSON(ctx, http.MethodDelete, "/media/"+id, nil, nil)
}

// Move puts a media item into a folder; nil moves it to the root.
func (c *Client) Move(ctx context.Context, id string, folderID *uint) error {
	body := map[string]interface{}{"folder_id": folderID}
	return c.doJSON(ctx, http.MethodPut, "/media/"+id+"/move", body, nil)
}

// Copy duplicates a media item into a folder.
func (c *Client) Copy(ctx context.Context, id string, folderID *uint) (*MediaItem, error) {
	body := map[string]interface{}{"folder_id": folderID}
	var out struct {
		Media MediaItem `json:"media"`
	}
	if err := c.doJSON(ctx, http.MethodPost, "/media/"+id+"/copy", body, &out); err != nil {
		return nil, err
	}
	return &out.Media, nil
}

// Duplicate clones a media item in place.
func (c *Client) Duplicate(ctx context.Context, id string) (*MediaItem, error) {
	var out struct {
		Media MediaItem `json:"media"`
	}
	if err := c.doJSON(ctx, http.MethodPost, "/media/"+id+"/duplicate", nil, &out); err != nil {
		return nil, err
	}
	return &out.Media, nil
}

// Replace swaps a media item's file while keeping its id and metadata.
func (c *Client) Replace(ctx context.Context, id, filename string, reader io.Reader) (*MediaItem, error) {
	var body bytes.Buffer
	writer := multipart.NewWriter(&body)
	part, err := writer.CreateFormFile("file", filename)
	if err != nil {
		return nil, err
	}
	if _, err := io.Copy(part, reader); err != nil {
		return nil, err
	}
	if err := writer.Close(); err != nil {
		return nil, err
	}

	httpReq, err := c.newRequest(ctx, http.MethodPut, "/media/"+id+"/replace", &body, writer.FormDataContentType())
	if err != nil {
		return nil, err
	}

	var out struct {
		Media MediaItem `json:"media"`
	}
	if err := c.do(httpReq, &out); err != nil {
		return nil, err
	}
	return &out.Media, nil
}

// Optimize re-encodes an image server-side at reduced quality.
func (c *Client) Optimize(ctx context.Context, id string) error {
	return c.doJSON(ctx, http.MethodPost, "/media/"+id+"/optimize", nil, nil)
}

// GenerateThumbnail (re)builds an image's thumbnail and returns its URL.
func (c *Client) GenerateThumbnail(ctx context.Context, id string) (string, error) {
	var out struct {
		ThumbnailURL string `json:"thumbnail_url"`
	}
	if err := c.doJSON(ctx, http.MethodPost, "/media/"+id+"/thumbnail", nil, &out); err != nil {
		return "", err
	}
	return out.ThumbnailURL, nil
}

// VariantRequest describes a derived rendition of an image.
type VariantRequest struct {
	Width   int    `json:"width,omitempty"`
	Height  int    `json:"height,omitempty"`
	Fit     string `json:"fit,omitempty"`
	Quality int    `json:"quality,omitempty"`
	Format  string `json:"format,omitempty"`
	Preset  string `json:"preset,omitempty"`
}

// Variants lists the derived renditions of a media item.
func (c *Client) Variants(ctx context.Context, id string) ([]MediaItem, error) {
	var out struct {
		Variants []MediaItem `json:"variants"`
	}
	if err := c.get(ctx, "/media/"+id+"/variants", &out); err != nil {
		return nil, err
	}
	return out.Variants, nil
}

// CreateVariant produces a derived rendition of an image.
func (c *Client) CreateVariant(ctx context.Context, id string, req VariantRequest) (*MediaItem, error) {
	var out struct {
		Media MediaItem `json:"media"`
	}
	if err := c.doJSON(ctx, http.MethodPost, "/media/"+id+"/variants", req, &out); err != nil {
		return nil, err
	}
	return &out.Media, nil
}

// EmbedCode returns an HTML snippet for embedding a media item.
func (c *Client) EmbedCode(ctx context.Context, id string) (string, error) {
	var out struct {
		EmbedCode string `json:"embed_code"`
	}
	if err := c.get(ctx, "/media/"+id+"/embed", &out); err != nil {
		return "", err
	}
	return out.EmbedCode, nil
}

// Track records a view of a media item. Tracking is best-effort; failures are
// swallowed so display paths never break on analytics.
func (c *Client) Track(ctx context.Context, id string) {
	c.doJSON(ctx, http.MethodPost, "/media/"+id+"/track", nil, nil)
}

// AccessLogs pages through a media item's tracked views.
func (c *Client) AccessLogs(ctx context.Context, id string, page, limit int) ([]AccessLogEntry, error) {
	values := url.Values{}
	if page > 0 {
		values.Set("page", strconv.Itoa(page))
	}
	if limit > 0 {
		values.Set("limit", strconv.Itoa(limit))
	}
	path := "/media/" + id + "/access-logs"
	if encoded := values.Encode(); encoded != "" {
		path += "?" + encoded
	}

	var out struct {
		Logs []AccessLogEntry `json:"logs"`
	}
	if err := c.get(ctx, path, &out); err != nil {
		return nil, err
	}
	return out.Logs, nil
}

// Usage lists where a media item is referenced.
func (c *Client) Usage(ctx context.Context, id string) ([]UsageEntry, error) {
	var out struct {
		Usage []UsageEntry `json:"usage"`
	}
	if err := c.get(ctx, "/media/"+id+"/usage", &out); err != nil {
		return nil, err
	}
	return out.Usage, nil
}

// History returns a media item's edit events and derived items.
func (c *Client) History(ctx context.Context, id string) ([]HistoryEntry, []MediaItem, error) {
	var out struct {
		History []HistoryEntry `json:"history"`
		Derived []MediaItem    `json:"derived"`
	}
	if err := c.get(ctx, "/media/"+id+"/history", &out); err != nil {
		return nil, nil, err
	}
	return out.History, out.Derived, nil
}

// Stats summarizes the library.
func (c *Client) Stats(ctx context.Context) (*Stats, error) {
	var stats Stats
	if err := c.get(ctx, "/media/stats", &stats); err != nil {
		return nil, err
	}
	return &stats, nil
}

// Recent returns the newest media items.
func (c *Client) Recent(ctx context.Context, limit int) ([]MediaItem, error) {
	path := "/media/recent"
	if limit > 0 {
		path += "?limit=" + strconv.Itoa(limit)
	}
	var out struct {
		Media []MediaItem `json:"media"`
	}
	if err := c.get(ctx, path, &out); err != nil {
		return nil, err
	}
	return out.Media, nil
}

// ByType fetches one page of a single media type.
func (c *Client) ByType(ctx context.Context, mediaType string, opts ListOptions) (*Page, error) {
	var page Page
	path := "/media/type/" + url.PathEscape(mediaType)
	if encoded := opts.encode(); encoded != "" {
		path += "?" + encoded
	}
	if err := c.get(ctx, path, &page); err != nil {
		return nil, err
	}
	return &page, nil
}

// Download streams a media item's file into w using its public URL.
func (c *Client) Download(ctx context.Context, item *MediaItem, w io.Writer) error {
	if item.URL == "" {
		return fmt.Errorf("download: media %s has no URL", item.ID)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, item.URL, nil)
	if err != nil {
		return err
	}
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
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
