package handlers

import (
	"context"
	"fmt"
	"io"
	"log"
	"net/http"
	"net/url"
	"path"
	"strings"
	"time"

	"github.com/magpress/media-center/internal/config"
	ws "github.com/magpress/media-center/internal/websocket"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/gorilla/websocket"
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin:     func(r *http.Request) bool { return true },
}

// UploadProgressSocket upgrades the connection and keeps it registered until
// the client goes away. Events are pushed by the session registry.
func UploadProgressSocket(c *gin.Context) {
	userID := c.GetUint("user_id")

	conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		log.Printf("websocket upgrade failed: %v", err)
		return
	}

	client := &ws.Client{UserID: userID, Conn: conn}
	manager := ws.GetManager()
	manager.Register(client)
	defer func() {
		manager.Unregister(client)
		conn.Close()
	}()

	// Drain control frames; the socket is push-only.
	for {
		if _, _, err := conn.ReadMessage(); err != nil {
			return
		}
	}
}

// progressReader counts bytes as they pass through and reports whole-percent
// changes to the session registry.
type progressReader struct {
	reader    io.Reader
	total     int64
	read      int64
	sessionID string
	registry  *ws.SessionRegistry
	last      int
}

func (p *progressReader) Read(buf []byte) (int, error) {
	n, err := p.reader.Read(buf)
	p.read += int64(n)
	if p.total > 0 {
		percent := int(p.read * 100 / p.total)
		if percent > 100 {
			percent = 100
		}
		if percent != p.last {
			p.last = percent
			p.registry.SetProgress(p.sessionID, percent)
		}
	}
	return n, err
}

// UploadMediaFromURL fetches a remote file into storage. The fetch runs in the
// background; the response carries an upload id the client can poll or watch
// over the websocket, and cancel while it is in flight.
func UploadMediaFromURL(c *gin.Context) {
	cfg, _ := config.Load()
	userID := c.GetUint("user_id")

	var input struct {
		URL         string   `json:"url" binding:"required,url"`
		FolderID    *uint    `json:"folder_id"`
		DisplayName string   `json:"display_name"`
		AltText     string   `json:"alt_text"`
		Caption     string   `json:"caption"`
		Tags        []string `json:"tags"`
	}
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	parsed, err := url.Parse(input.URL)
	if err != nil || (parsed.Scheme != "http" && parsed.Scheme != "https") {
		c.JSON(http.StatusBadRequest, gin.H{"error": "URL must be http or https"})
		return
	}

	filename := path.Base(parsed.Path)
	if filename == "" || filename == "/" || filename == "." {
		filename = "download"
	}

	uploadID := uuid.NewString()
	registry := ws.GetSessionRegistry()
	_, ctx := registry.Start(uploadID, userID, filename)

	fields := map[string]string{
		"display_name": input.DisplayName,
		"alt_text":     input.AltText,
		"caption":      input.Caption,
	}

	go fetchAndStore(ctx, registry, uploadID, input.URL, filename, userID,
		input.FolderID, fields, input.Tags, cfg.Storage.MaxUploadSize)

	c.JSON(http.StatusAccepted, gin.H{"upload_id": uploadID, "filename": filename})
}

func fetchAndStore(ctx context.Context, registry *ws.SessionRegistry, uploadID, rawURL, filename string,
	userID uint, folderID *uint, fields map[string]string, tags []string, maxSize int64) {

	client := &http.Client{Timeout: 10 * time.Minute}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		registry.Fail(uploadID, fmt.Sprintf("invalid request: %v", err))
		return
	}

	resp, err := client.Do(req)
	if err != nil {
		if ctx.Err() != nil {
			return // canceled; registry already holds the terminal state
		}
		registry.Fail(uploadID, fmt.Sprintf("fetch failed: %v", err))
		return
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		registry.Fail(uploadID, fmt.Sprintf("remote server returned %d", resp.StatusCode))
		return
	}
	if maxSize > 0 && resp.ContentLength > maxSize {
		registry.Fail(uploadID, "file exceeds the maximum upload size")
		return
	}

	reader := &progressReader{
		reader:    resp.Body,
		total:     resp.ContentLength,
		sessionID: uploadID,
		registry:  registry,
	}

	limit := maxSize
	if limit <= 0 {
		limit = 1 << 30
	}
	data, err := io.ReadAll(io.LimitReader(reader, limit+1))
	if err != nil {
		if ctx.Err() != nil {
			return
		}
		registry.Fail(uploadID, fmt.Sprintf("download failed: %v", err))
		return
	}
	if int64(len(data)) > limit {
		registry.Fail(uploadID, "file exceeds the maximum upload size")
		return
	}
	if ctx.Err() != nil {
		return
	}

	// Prefer an extension derived from the response when the URL had none.
	if path.Ext(filename) == "" {
		if ct := resp.Header.Get("Content-Type"); ct != "" {
			if ext := extensionForContentType(ct); ext != "" {
				filename += ext
			}
		}
	}

	media, err := saveUpload(data, filename, userID, folderID, fields, tags)
	if err != nil {
		registry.Fail(uploadID, err.Error())
		return
	}
	registry.Complete(uploadID, media.ID)
}

func extensionForContentType(contentType string) string {
	if idx := strings.Index(contentType, ";"); idx >= 0 {
		contentType = contentType[:idx]
	}
	switch strings.TrimSpace(contentType) {
	case "image/jpeg":
		return ".jpg"
	case "image/png":
		return ".png"
	case "image/gif":
		return ".gif"
	case "image/webp":
		return ".webp"
	case "video/mp4":
		return ".mp4"
	case "audio/mpeg":
		return ".mp3"
	case "application/pdf":
		return ".pdf"
	}
	return ""
}

// GetUploadProgress reports the state of an upload session.
func GetUploadProgress(c *gin.Context) {
	userID := c.GetUint("user_id")

	session, ok := ws.GetSessionRegistry().Get(c.Param("id"), userID)
	if !ok {
		c.JSON(http.StatusNotFound, gin.H{"error": "Upload session not found"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"session": session})
}

// CancelUpload aborts an in-flight upload session.
func CancelUpload(c *gin.Context) {
	userID := c.GetUint("user_id")

	if !ws.GetSessionRegistry().Cancel(c.Param("id"), userID) {
		c.JSON(http.StatusNotFound, gin.H{"error": "No cancelable upload session found"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "Upload canceled"})
}
