package utils

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"image"
	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"
	"io"
	"net/http"
	"path/filepath"
	"strings"
)

// FileInfo holds technical details extracted from an uploaded file.
type FileInfo struct {
	MimeType string
	Format   string
	Size     int64
	Checksum string
	Width    int
	Height   int
}

// InspectFile reads an upload once and extracts MIME type, sha256 checksum and,
// for images, pixel dimensions. The reader must be positioned at the start.
func InspectFile(r io.ReadSeeker, filename string) (*FileInfo, error) {
	hasher := sha256.New()
	size, err := io.Copy(hasher, r)
	if err != nil {
		return nil, fmt.Errorf("failed to read file: %v", err)
	}
	if _, err := r.Seek(0, io.SeekStart); err != nil {
		return nil, fmt.Errorf("failed to rewind file: %v", err)
	}

	buffer := make([]byte, 512)
	n, err := r.Read(buffer)
	if err != nil && err != io.EOF {
		return nil, fmt.Errorf("failed to read file header: %v", err)
	}
	if _, err := r.Seek(0, io.SeekStart); err != nil {
		return nil, fmt.Errorf("failed to rewind file: %v", err)
	}

	info := &FileInfo{
		MimeType: DetectMimeType(buffer[:n], filename),
		Format:   strings.TrimPrefix(strings.ToLower(filepath.Ext(filename)), "."),
		Size:     size,
		Checksum: hex.EncodeToString(hasher.Sum(nil)),
	}

	if strings.HasPrefix(info.MimeType, "image/") {
		if cfg, _, err := image.DecodeConfig(r); err == nil {
			info.Width = cfg.Width
			info.Height = cfg.Height
		}
		if _, err := r.Seek(0, io.SeekStart); err != nil {
			return nil, fmt.Errorf("failed to rewind file: %v", err)
		}
	}

	return info, nil
}

// DetectMimeType determines the MIME type from file contents, falling back to
// the file extension for formats http.DetectContentType cannot identify.
func DetectMimeType(header []byte, filename string) string {
	if len(header) > 0 {
		mimeType := http.DetectContentType(header)
		if mimeType != "application/octet-stream" {
			return mimeType
		}
	}

	ext := strings.ToLower(filepath.Ext(filename))
	mimeTypes := map[string]string{
		".jpg":  "image/jpeg",
		".jpeg": "image/jpeg",
		".png":  "image/png",
		".gif":  "image/gif",
		".webp": "image/webp",
		".svg":  "image/svg+xml",
		".mp4":  "video/mp4",
		".mov":  "video/quicktime",
		".avi":  "video/x-msvideo",
		".mp3":  "audio/mpeg",
		".wav":  "audio/wav",
		".ogg":  "audio/ogg",
		".pdf":  "application/pdf",
		".txt":  "text/plain",
	}
	if mimeType, found := mimeTypes[ext]; found {
		return mimeType
	}
	return "application/octet-stream"
}
