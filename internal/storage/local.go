package storage

import (
	"io"
	"os"
	"path/filepath"
	"strings"

	"go-media-platform/internal/faults"
)

// LocalStorage writes blobs under a root directory on a local or network
// mounted filesystem. Every key is resolved and checked against the
// configured allowed upload directory before any filesystem operation.
type LocalStorage struct {
	root        string
	allowedRoot string
}

func NewLocalStorage(root, allowedDir string) (*LocalStorage, error) {
	absRoot, err := filepath.Abs(root)
	if err != nil {
		return nil, &faults.StorageError{Op: "init", Err: err}
	}
	absAllowed, err := filepath.Abs(allowedDir)
	if err != nil {
		return nil, &faults.StorageError{Op: "init", Err: err}
	}
	if err := os.MkdirAll(absRoot, 0o755); err != nil {
		return nil, &faults.StorageError{Op: "init", Err: err}
	}

	return &LocalStorage{root: absRoot, allowedRoot: absAllowed}, nil
}

// resolve maps a key to an absolute path and rejects anything that escapes
// the allowed upload directory, including "../" traversal hidden in the key.
func (l *LocalStorage) resolve(key string) (string, error) {
	full, err := filepath.Abs(filepath.Join(l.root, filepath.FromSlash(key)))
	if err != nil {
		return "", &faults.StorageError{Op: "resolve", Err: err}
	}

	if full != l.allowedRoot && !strings.HasPrefix(full, l.allowedRoot+string(filepath.Separator)) {
		return "", &faults.PathSecurityError{Path: full}
	}

	return full, nil
}

func (l *LocalStorage) Upload(reader io.Reader, key string) (string, error) {
	full, err := l.resolve(key)
	if err != nil {
		return "", err
	}

	if err := os.MkdirAll(filepath.Dir(full), 0o755); err != nil {
		return "", &faults.StorageError{Op: "mkdir", Err: err}
	}

	f, err := os.Create(full)
	if err != nil {
		return "", &faults.StorageError{Op: "create", Err: err}
	}
	defer f.Close()

	if _, err := io.Copy(f, reader); err != nil {
		os.Remove(full)
		return "", &faults.StorageError{Op: "write", Err: err}
	}

	return key, nil
}

func (l *LocalStorage) Download(key string) (io.ReadCloser, error) {
	full, err := l.resolve(key)
	if err != nil {
		return nil, err
	}

	f, err := os.Open(full)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, &faults.NotFoundError{Kind: "source file", ID: key}
		}
		return nil, &faults.StorageError{Op: "read", Err: err}
	}
	return f, nil
}

func (l *LocalStorage) Exists(key string) (bool, error) {
	full, err := l.resolve(key)
	if err != nil {
		return false, err
	}

	if _, err := os.Stat(full); err != nil {
		if os.IsNotExist(err) {
			return false, nil
		}
		return false, &faults.StorageError{Op: "stat", Err: err}
	}
	return true, nil
}

func (l *LocalStorage) Delete(key string) error {
	full, err := l.resolve(key)
	if err != nil {
		return err
	}

	if err := os.Remove(full); err != nil && !os.IsNotExist(err) {
		return &faults.StorageError{Op: "delete", Err: err}
	}
	return nil
}

func (l *LocalStorage) PublicURL(key string) string {
	return "/medias/" + key
}
