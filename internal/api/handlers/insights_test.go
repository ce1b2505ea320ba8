package handlers

import (
	"bytes"
	"crypto/sha256"
	"encoding/hex"
	"image"
	"image/jpeg"
	"testing"
)

func TestOptimizedUpdatesRefreshFileDetails(t *testing.T) {
	var buf bytes.Buffer
	if err := jpeg.Encode(&buf, image.NewRGBA(image.Rect(0, 0, 120, 80)), &jpeg.Options{Quality: 80}); err != nil {
		t.Fatalf("encode: %v", err)
	}
	data := buf.Bytes()

	updates, err := optimizedUpdates(data)
	if err != nil {
		t.Fatalf("optimizedUpdates: %v", err)
	}
	if updates["mime_type"] != "image/jpeg" || updates["format"] != "jpg" {
		t.Fatalf("content type not refreshed: %v", updates)
	}
	if updates["width"] != 120 || updates["height"] != 80 {
		t.Fatalf("dimensions not refreshed: %v", updates)
	}
	if updates["size"] != int64(len(data)) {
		t.Fatalf("size = %v, want %d", updates["size"], len(data))
	}
	sum := sha256.Sum256(data)
	if updates["checksum"] != hex.EncodeToString(sum[:]) {
		t.Fatalf("checksum not refreshed: %v", updates["checksum"])
	}
}
