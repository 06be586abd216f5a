package reports

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path"
	"path/filepath"
	"strings"

	"securereport/core/store"
	"securereport/core/utils"

	"github.com/gofrs/uuid/v5"
)

var (
	ErrFileTooLarge    = errors.New("attachment too large")
	ErrInvalidFileName = errors.New("invalid attachment name")
)

// FileStorage keeps attachment bodies on local disk, audio and other files in
// separate subdirectories.
type FileStorage struct {
	dir      string
	maxBytes int64
}

func NewFileStorage(dir string, maxBytes int64) *FileStorage {
	return &FileStorage{dir: dir, maxBytes: maxBytes}
}

type SavedFile struct {
	StoredName string
	SizeBytes  int64
	SHA256     string
}

func (fs *FileStorage) Save(kind, originalName string, r io.Reader) (SavedFile, error) {
	if fs == nil || strings.TrimSpace(fs.dir) == "" {
		return SavedFile{}, errors.New("attachment storage not configured")
	}
	reader := r
	if fs.maxBytes > 0 {
		reader = io.LimitReader(r, fs.maxBytes+1)
	}
	data, err := io.ReadAll(reader)
	if err != nil {
		return SavedFile{}, err
	}
	if fs.maxBytes > 0 && int64(len(data)) > fs.maxBytes {
		return SavedFile{}, ErrFileTooLarge
	}
	id, err := uuid.NewV4()
	if err != nil {
		return SavedFile{}, err
	}
	sub := "files"
	if kind == store.AttachmentKindAudio {
		sub = "audio"
	}
	name := path.Join(sub, id.String()+safeExt(originalName))
	full := filepath.Join(fs.dir, filepath.FromSlash(name))
	if err := os.MkdirAll(filepath.Dir(full), 0o700); err != nil {
		return SavedFile{}, err
	}
	if err := os.WriteFile(full, data, 0o600); err != nil {
		return SavedFile{}, fmt.Errorf("write attachment: %w", err)
	}
	return SavedFile{StoredName: name, SizeBytes: int64(len(data)), SHA256: utils.Sha256Hex(data)}, nil
}

func (fs *FileStorage) Open(storedName string) (*os.File, error) {
	full, err := fs.resolve(storedName)
	if err != nil {
		return nil, err
	}
	return os.Open(full)
}

func (fs *FileStorage) Remove(storedName string) error {
	full, err := fs.resolve(storedName)
	if err != nil {
		return err
	}
	if err := os.Remove(full); err != nil && !errors.Is(err, os.ErrNotExist) {
		return err
	}
	return nil
}

func (fs *FileStorage) resolve(storedName string) (string, error) {
	if fs == nil {
		return "", errors.New("attachment storage not configured")
	}
	clean := path.Clean("/" + strings.ReplaceAll(storedName, "\\", "/"))
	if clean == "/" || clean != "/"+storedName {
		return "", ErrInvalidFileName
	}
	return filepath.Join(fs.dir, filepath.FromSlash(clean[1:])), nil
}

func safeExt(name string) string {
	ext := strings.ToLower(filepath.Ext(name))
	if len(ext) < 2 || len(ext) > 10 {
		return ""
	}
	for _, r := range ext[1:] {
		if !(r >= 'a' && r <= 'z' || r >= '0' && r <= '9') {
			return ""
		}
	}
	return ext
}
