package mediaclient

import "time"

// Tag is a normalized label attached to media.
type Tag struct {
	ID   uint   `json:"id"`
	Name string `json:"name"`
}

// MediaItem is one library entry as returned by the API.
type MediaItem struct {
	ID            string    `json:"id"`
	FolderID      *uint     `json:"folder_id"`
	OriginalID    *string   `json:"original_id"`
	Type          string    `json:"type"`
	Filename      string    `json:"filename"`
	DisplayName   string    `json:"display_name"`
	AltText       string    `json:"alt_text"`
	Caption       string    `json:"caption"`
	Description   string    `json:"description"`
	URL           string    `json:"url"`
	ThumbnailURL  string    `json:"thumbnail_url"`
	MimeType      string    `json:"mime_type"`
	Format        string    `json:"format"`
	Size          int64     `json:"size"`
	Checksum      string    `json:"checksum"`
	Width         int       `json:"width"`
	Height        int       `json:"height"`
	Duration      float64   `json:"duration"`
	IsPrivate     bool      `json:"is_private"`
	AllowDownload bool      `json:"allow_download"`
	ViewCount     int64     `json:"view_count"`
	Tags          []Tag     `json:"tags"`
	CreatedAt     time.Time `json:"created_at"`
	UpdatedAt     time.Time `json:"updated_at"`
}

// IsImage reports whether the item can be opened in the editor.
func (m *MediaItem) IsImage() bool { return m.Type == "image" }

// TagNames returns the item's tags as plain strings.
func (m *MediaItem) TagNames() []string {
	names := make([]string, 0, len(m.Tags))
	for _, tag := range m.Tags {
		names = append(names, tag.Name)
	}
	return names
}

// Folder is one library folder.
type Folder struct {
	ID          uint      `json:"ID"`
	Name        string    `json:"name"`
	Description string    `json:"description"`
	Color       string    `json:"color"`
	ParentID    *uint     `json:"parent_id"`
	MediaCount  int64     `json:"media_count"`
	CreatedAt   time.Time `json:"CreatedAt"`
}

// FolderNode is a folder with its children, as returned by the tree endpoint.
type FolderNode struct {
	Folder
	Children []*FolderNode `json:"children"`
}

// Page is the list envelope returned by List and Search.
type Page struct {
	Media       []MediaItem `json:"media"`
	TotalMedia  int64       `json:"totalMedia"`
	TotalPages  int         `json:"totalPages"`
	CurrentPage int         `json:"currentPage"`
}

// Stats summarizes the library.
type Stats struct {
	TotalMedia   int64            `json:"totalMedia"`
	TotalSize    int64            `json:"totalSize"`
	ByType       map[string]int64 `json:"byType"`
	RecentUpload int64            `json:"recentUpload"`
	TotalFolders int64            `json:"totalFolders"`
}

// UploadSession is the state of an out-of-band upload.
type UploadSession struct {
	ID        string    `json:"id"`
	Filename  string    `json:"filename"`
	State     string    `json:"state"`
	Progress  int       `json:"progress"`
	MediaID   string    `json:"media_id"`
	Error     string    `json:"error"`
	StartedAt time.Time `json:"started_at"`
}

// UsageEntry records one place a media item is referenced.
type UsageEntry struct {
	ID         uint      `json:"id"`
	MediaID    string    `json:"media_id"`
	EntityType string    `json:"entity_type"`
	EntityID   string    `json:"entity_id"`
	Context    string    `json:"context"`
	CreatedAt  time.Time `json:"created_at"`
}

// HistoryEntry records one edit-history event.
type HistoryEntry struct {
	ID        uint      `json:"id"`
	MediaID   string    `json:"media_id"`
	Event     string    `json:"event"`
	Detail    string    `json:"detail"`
	CreatedAt time.Time `json:"created_at"`
}

// AccessLogEntry records one tracked view.
type AccessLogEntry struct {
	ID        uint      `json:"id"`
	MediaID   string    `json:"media_id"`
	Action    string    `json:"action"`
	RemoteIP  string    `json:"remote_ip"`
	UserAgent string    `json:"user_agent"`
	CreatedAt time.Time `json:"created_at"`
}
