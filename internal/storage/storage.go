// Package storage abstracts the blob backends media bytes are written to.
// Keys are slash-separated paths relative to the backend root; the folder
// resolver supplies the directory part and StoreFile generates the file
// part.
package storage

import (
	"fmt"
	"io"
	"path"
	"regexp"
	"strings"

	"github.com/google/uuid"

	"go-media-platform/internal/config"
	"go-media-platform/internal/faults"
)

// Storage is the blob store contract shared by all backends.
type Storage interface {
	// Upload streams the reader's content to the given key and returns the
	// stored key.
	Upload(reader io.Reader, key string) (string, error)
	Download(key string) (io.ReadCloser, error)
	Exists(key string) (bool, error)
	Delete(key string) error
	PublicURL(key string) string
}

// New builds the configured backend.
func New(cfg *config.Config) (Storage, error) {
	switch strings.ToLower(cfg.Storage.Provider) {
	case "local":
		return NewLocalStorage(cfg.Storage.Path, cfg.Storage.AllowedUploadDir)
	case "seaweedfs":
		return NewSeaweedFSStorage(cfg.Storage.SeaweedFS.MasterURL,
			fmt.Sprintf("http://localhost:%d", cfg.Storage.SeaweedFS.VolumePort))
	case "s3":
		return NewS3Storage(cfg.Storage.S3)
	default:
		return nil, fmt.Errorf("unsupported storage provider: %s", cfg.Storage.Provider)
	}
}

var unsafeNameChars = regexp.MustCompile(`[^A-Za-z0-9_.-]`)

// SanitizeFileName strips a client-supplied file name down to a
// filesystem-safe form. Spaces become underscores; anything outside
// [A-Za-z0-9_.-] is dropped. An empty result is a hard error.
func SanitizeFileName(filename string) (string, error) {
	sanitized := unsafeNameChars.ReplaceAllString(
		strings.ReplaceAll(strings.TrimSpace(filename), " ", "_"), "")

	if sanitized == "" || strings.Trim(sanitized, "._-") == "" {
		return "", &faults.ValidationError{
			Reason: fmt.Sprintf("the cleaned file name is invalid: %q", filename),
		}
	}

	return sanitized, nil
}

// StoreFile writes an uploaded file under the destination folder path with
// a collision-free name: a uniqueness token, the sanitized original base
// name and the original extension.
func StoreFile(s Storage, reader io.Reader, originalName, folderPath string) (string, error) {
	sanitized, err := SanitizeFileName(originalName)
	if err != nil {
		return "", err
	}

	ext := path.Ext(sanitized)
	base := strings.TrimSuffix(sanitized, ext)
	key := folderPath + uuid.NewString() + "_" + base + ext

	return s.Upload(reader, key)
}
