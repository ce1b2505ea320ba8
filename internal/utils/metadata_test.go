package utils

import (
	"bytes"
	"image"
	"image/png"
	"testing"
)

func pngBytes(t *testing.T, w, h int) []byte {
	t.Helper()
	var buf bytes.Buffer
	if err := png.Encode(&buf, image.NewRGBA(image.Rect(0, 0, w, h))); err != nil {
		t.Fatalf("failed to encode test image: %v", err)
	}
	return buf.Bytes()
}

func TestInspectFileImage(t *testing.T) {
	data := pngBytes(t, 40, 20)

	info, err := InspectFile(bytes.NewReader(data), "cover.png")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if info.MimeType != "image/png" {
		t.Fatalf("expected image/png, got %q", info.MimeType)
	}
	if info.Width != 40 || info.Height != 20 {
		t.Fatalf("expected 40x20, got %dx%d", info.Width, info.Height)
	}
	if info.Size != int64(len(data)) {
		t.Fatalf("expected size %d, got %d", len(data), info.Size)
	}
	if len(info.Checksum) != 64 {
		t.Fatalf("expected sha256 hex checksum, got %q", info.Checksum)
	}
	if info.Format != "png" {
		t.Fatalf("expected format png, got %q", info.Format)
	}
}

func TestInspectFileChecksumStable(t *testing.T) {
	data := []byte("the same bytes")
	a, err := InspectFile(bytes.NewReader(data), "a.txt")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	b, err := InspectFile(bytes.NewReader(data), "b.txt")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if a.Checksum != b.Checksum {
		t.Fatalf("expected identical checksums, got %q and %q", a.Checksum, b.Checksum)
	}
}

func TestDetectMimeTypeFallsBackToExtension(t *testing.T) {
	if got := DetectMimeType(nil, "song.mp3"); got != "audio/mpeg" {
		t.Fatalf("expected audio/mpeg, got %q", got)
	}
	if got := DetectMimeType(nil, "unknown.xyz"); got != "application/octet-stream" {
		t.Fatalf("expected fallback, got %q", got)
	}
}

func TestTransformImageResize(t *testing.T) {
	data := pngBytes(t, 100, 50)

	out, err := TransformImage(bytes.NewReader(data), TransformationOptions{Width: 50, Format: "png"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	cfg, _, err := image.DecodeConfig(bytes.NewReader(out))
	if err != nil {
		t.Fatalf("failed to decode output: %v", err)
	}
	if cfg.Width != 50 || cfg.Height != 25 {
		t.Fatalf("expected 50x25, got %dx%d", cfg.Width, cfg.Height)
	}
}

func TestTransformImagePassThrough(t *testing.T) {
	data := pngBytes(t, 10, 10)
	out, err := TransformImage(bytes.NewReader(data), TransformationOptions{})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !bytes.Equal(out, data) {
		t.Fatalf("expected untouched bytes when no options set")
	}
}

func TestTransformationOptionsValidate(t *testing.T) {
	bad := TransformationOptions{Fit: "stretch"}
	if err := bad.Validate(); err == nil {
		t.Fatalf("expected invalid fit mode to be rejected")
	}
	bad = TransformationOptions{Quality: 101}
	if err := bad.Validate(); err == nil {
		t.Fatalf("expected out-of-range quality to be rejected")
	}
	good := TransformationOptions{Width: 800, Fit: "cover", Quality: 80, Format: "jpeg"}
	if err := good.Validate(); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}
