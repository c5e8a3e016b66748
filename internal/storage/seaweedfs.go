package storage

import (
	"bytes"
	"fmt"
	"io"
	"net/url"

	"github.com/linxGnu/goseaweedfs"

	"go-media-platform/internal/faults"
)

// SeaweedFSStorage stores blobs through a SeaweedFS filer.
type SeaweedFSStorage struct {
	client    *goseaweedfs.Filer
	publicURL string
}

func NewSeaweedFSStorage(masterURL, publicURL string) (*SeaweedFSStorage, error) {
	client, err := goseaweedfs.NewFiler(masterURL, nil)
	if err != nil {
		return nil, &faults.StorageError{Op: "init", Err: fmt.Errorf("failed to create SeaweedFS client: %v", err)}
	}

	return &SeaweedFSStorage{client: client, publicURL: publicURL}, nil
}

func (s *SeaweedFSStorage) Upload(reader io.Reader, key string) (string, error) {
	// The filer client needs the size up front, so the stream is buffered.
	data, err := io.ReadAll(reader)
	if err != nil {
		return "", &faults.StorageError{Op: "read", Err: err}
	}

	if _, err := s.client.Upload(bytes.NewReader(data), int64(len(data)), key, "default", ""); err != nil {
		return "", &faults.StorageError{Op: "write", Err: fmt.Errorf("failed to upload to SeaweedFS: %v", err)}
	}

	return key, nil
}

func (s *SeaweedFSStorage) Download(key string) (io.ReadCloser, error) {
	data, status, err := s.client.Get(key, url.Values{}, nil)
	if err != nil {
		return nil, &faults.StorageError{Op: "read", Err: err}
	}
	if status == 404 {
		return nil, &faults.NotFoundError{Kind: "source file", ID: key}
	}
	return io.NopCloser(bytes.NewReader(data)), nil
}

func (s *SeaweedFSStorage) Exists(key string) (bool, error) {
	_, status, err := s.client.Get(key, url.Values{}, nil)
	if err != nil {
		return false, &faults.StorageError{Op: "stat", Err: err}
	}
	return status != 404, nil
}

func (s *SeaweedFSStorage) Delete(key string) error {
	if err := s.client.Delete(key, url.Values{}); err != nil {
		return &faults.StorageError{Op: "delete", Err: err}
	}
	return nil
}

func (s *SeaweedFSStorage) PublicURL(key string) string {
	return fmt.Sprintf("%s/%s", s.publicURL, key)
}
