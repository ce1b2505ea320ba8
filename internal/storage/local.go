package storage

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"
)

// LocalStorage stores files on the local filesystem and serves them through
// the application server. Presigned URLs carry an HMAC token over path and
// expiry so the serving handler can gate private files.
type LocalStorage struct {
	root      string
	publicURL string
	secret    []byte
}

// NewLocalStorage creates a local filesystem storage rooted at path.
func NewLocalStorage(root, publicURL, signingSecret string) (Storage, error) {
	if err := os.MkdirAll(root, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create storage directory: %v", err)
	}
	return &LocalStorage{
		root:      root,
		publicURL: strings.TrimRight(publicURL, "/"),
		secret:    []byte(signingSecret),
	}, nil
}

func (l *LocalStorage) fullPath(path string) (string, error) {
	cleaned := filepath.Clean("/" + path)
	full := filepath.Join(l.root, cleaned)
	if !strings.HasPrefix(full, filepath.Clean(l.root)+string(os.PathSeparator)) {
		return "", fmt.Errorf("invalid storage path: %s", path)
	}
	return full, nil
}

func (l *LocalStorage) Upload(reader io.Reader, filename string) (string, error) {
	data, err := io.ReadAll(reader)
	if err != nil {
		return "", fmt.Errorf("failed to read file: %v", err)
	}
	return l.UploadBytes(data, filename)
}

func (l *LocalStorage) UploadBytes(data []byte, filename string) (string, error) {
	key := filepath.Clean(filename)
	full, err := l.fullPath(key)
	if err != nil {
		return "", err
	}
	if err := os.MkdirAll(filepath.Dir(full), 0o755); err != nil {
		return "", fmt.Errorf("failed to create directory: %v", err)
	}
	if err := os.WriteFile(full, data, 0o644); err != nil {
		return "", fmt.Errorf("failed to write file: %v", err)
	}
	return key, nil
}

func (l *LocalStorage) Download(path string) (io.ReadCloser, error) {
	full, err := l.fullPath(path)
	if err != nil {
		return nil, err
	}
	f, err := os.Open(full)
	if err != nil {
		return nil, fmt.Errorf("failed to open file: %v", err)
	}
	return f, nil
}

func (l *LocalStorage) Delete(path string) error {
	full, err := l.fullPath(path)
	if err != nil {
		return err
	}
	if err := os.Remove(full); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("failed to delete file: %v", err)
	}
	return nil
}

func (l *LocalStorage) GetPublicURL(path string) string {
	return fmt.Sprintf("%s/media/files/%s", l.publicURL, path)
}

// GetPresignedURL returns a time-limited URL. Local files carry an expiry and
// an HMAC signature checked by the file-serving handler.
func (l *LocalStorage) GetPresignedURL(path string, expiration time.Duration) (string, error) {
	exp := time.Now().Add(expiration).Unix()
	return fmt.Sprintf("%s?exp=%d&sig=%s", l.GetPublicURL(path), exp, l.signPath(path, exp)), nil
}

func (l *LocalStorage) signPath(path string, exp int64) string {
	mac := hmac.New(sha256.New, l.secret)
	fmt.Fprintf(mac, "%s:%d", path, exp)
	return hex.EncodeToString(mac.Sum(nil))
}

// VerifyAccessToken checks the exp/sig pair from a presigned URL against a
// storage path. Tokens are bound to the exact path they were issued for.
func (l *LocalStorage) VerifyAccessToken(path, exp, sig string) error {
	if exp == "" || sig == "" {
		return fmt.Errorf("missing access token")
	}
	expiry, err := strconv.ParseInt(exp, 10, 64)
	if err != nil {
		return fmt.Errorf("invalid expiry: %s", exp)
	}
	if time.Now().Unix() > expiry {
		return fmt.Errorf("access token expired")
	}
	if !hmac.Equal([]byte(sig), []byte(l.signPath(path, expiry))) {
		return fmt.Errorf("invalid access token")
	}
	return nil
}
