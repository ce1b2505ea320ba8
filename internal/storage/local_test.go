package storage

import (
	"io"
	"net/url"
	"strings"
	"testing"
	"time"
)

func TestLocalRoundTrip(t *testing.T) {
	store, err := NewLocalStorage(t.TempDir(), "http://localhost:8080", "test-secret")
	if err != nil {
		t.Fatalf("NewLocalStorage: %v", err)
	}

	key, err := store.UploadBytes([]byte("hello"), "abc123.jpg")
	if err != nil {
		t.Fatalf("UploadBytes: %v", err)
	}

	reader, err := store.Download(key)
	if err != nil {
		t.Fatalf("Download: %v", err)
	}
	defer reader.Close()
	data, _ := io.ReadAll(reader)
	if string(data) != "hello" {
		t.Fatalf("round trip gave %q", data)
	}

	if err := store.Delete(key); err != nil {
		t.Fatalf("Delete: %v", err)
	}
	if _, err := store.Download(key); err == nil {
		t.Fatal("deleted object should not download")
	}
}

func TestLocalNestedKeys(t *testing.T) {
	store, err := NewLocalStorage(t.TempDir(), "http://localhost:8080", "test-secret")
	if err != nil {
		t.Fatalf("NewLocalStorage: %v", err)
	}

	key, err := store.UploadBytes([]byte("thumb"), "thumbs/abc123.jpg")
	if err != nil {
		t.Fatalf("UploadBytes: %v", err)
	}
	if key != "thumbs/abc123.jpg" {
		t.Fatalf("key = %q", key)
	}
	if _, err := store.Download(key); err != nil {
		t.Fatalf("Download: %v", err)
	}
}

func TestLocalRejectsPathTraversal(t *testing.T) {
	store, err := NewLocalStorage(t.TempDir(), "http://localhost:8080", "test-secret")
	if err != nil {
		t.Fatalf("NewLocalStorage: %v", err)
	}

	if _, err := store.Download("../../etc/passwd"); err == nil {
		t.Fatal("path traversal should be rejected")
	}
}

func TestLocalPublicURL(t *testing.T) {
	store, err := NewLocalStorage(t.TempDir(), "http://cdn.example.com/", "test-secret")
	if err != nil {
		t.Fatalf("NewLocalStorage: %v", err)
	}

	url := store.GetPublicURL("abc.jpg")
	if url != "http://cdn.example.com/media/files/abc.jpg" {
		t.Fatalf("url = %q", url)
	}

	presigned, err := store.GetPresignedURL("abc.jpg", 0)
	if err != nil {
		t.Fatalf("GetPresignedURL: %v", err)
	}
	if !strings.Contains(presigned, "?exp=") || !strings.Contains(presigned, "&sig=") {
		t.Fatalf("presigned url missing token: %q", presigned)
	}
}

func presignedToken(t *testing.T, store Storage, path string, expiration time.Duration) (string, string) {
	t.Helper()
	presigned, err := store.GetPresignedURL(path, expiration)
	if err != nil {
		t.Fatalf("GetPresignedURL: %v", err)
	}
	parsed, err := url.Parse(presigned)
	if err != nil {
		t.Fatalf("presigned url does not parse: %v", err)
	}
	query := parsed.Query()
	return query.Get("exp"), query.Get("sig")
}

func TestLocalAccessTokens(t *testing.T) {
	store, err := NewLocalStorage(t.TempDir(), "http://localhost:8080", "test-secret")
	if err != nil {
		t.Fatalf("NewLocalStorage: %v", err)
	}
	verifier, ok := store.(AccessVerifier)
	if !ok {
		t.Fatal("local storage must verify its own presigned tokens")
	}

	exp, sig := presignedToken(t, store, "private/a.jpg", time.Hour)
	if err := verifier.VerifyAccessToken("private/a.jpg", exp, sig); err != nil {
		t.Fatalf("valid token rejected: %v", err)
	}
	if verifier.VerifyAccessToken("other.jpg", exp, sig) == nil {
		t.Fatal("token must be bound to the signed path")
	}
	if verifier.VerifyAccessToken("private/a.jpg", exp, "deadbeef") == nil {
		t.Fatal("tampered signature must be rejected")
	}
	if verifier.VerifyAccessToken("private/a.jpg", "", "") == nil {
		t.Fatal("missing token must be rejected")
	}

	exp, sig = presignedToken(t, store, "private/a.jpg", -time.Minute)
	if verifier.VerifyAccessToken("private/a.jpg", exp, sig) == nil {
		t.Fatal("expired token must be rejected")
	}
}

func TestLocalTokensDifferAcrossSecrets(t *testing.T) {
	first, err := NewLocalStorage(t.TempDir(), "http://localhost:8080", "secret-one")
	if err != nil {
		t.Fatalf("NewLocalStorage: %v", err)
	}
	second, err := NewLocalStorage(t.TempDir(), "http://localhost:8080", "secret-two")
	if err != nil {
		t.Fatalf("NewLocalStorage: %v", err)
	}

	exp, sig := presignedToken(t, first, "a.jpg", time.Hour)
	if second.(AccessVerifier).VerifyAccessToken("a.jpg", exp, sig) == nil {
		t.Fatal("tokens from one signing key must not verify under another")
	}
}

func TestMemoryIsolation(t *testing.T) {
	store := NewMemoryStorage()
	original := []byte("data")
	key, err := store.UploadBytes(original, "x.bin")
	if err != nil {
		t.Fatalf("UploadBytes: %v", err)
	}

	// Mutating the caller's slice must not change the stored object.
	original[0] = 'X'
	reader, err := store.Download(key)
	if err != nil {
		t.Fatalf("Download: %v", err)
	}
	data, _ := io.ReadAll(reader)
	if string(data) != "data" {
		t.Fatalf("stored object was aliased: %q", data)
	}
	if store.Len() != 1 {
		t.Fatalf("Len = %d", store.Len())
	}
}
