package blob

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
)

// FileBackend maps file://bucket/key onto root/bucket/key on local disk.
type FileBackend struct {
	root string
}

// NewFileBackend creates a FileBackend rooted at root.
func NewFileBackend(root string) *FileBackend {
	if root == "" {
		root = "."
	}
	return &FileBackend{root: root}
}

func (f *FileBackend) path(bucket, key string) (string, error) {
	base := filepath.Join(f.root, bucket)
	p := filepath.Join(base, filepath.FromSlash(key))
	if p != base && !strings.HasPrefix(p, base+string(filepath.Separator)) {
		return "", fmt.Errorf("blob:file - key %q escapes bucket %q", key, bucket)
	}
	return p, nil
}

func (f *FileBackend) List(_ context.Context, bucket, prefix string) ([]string, error) {
	base := filepath.Join(f.root, bucket)
	var keys []string
	err := filepath.WalkDir(base, func(p string, d fs.DirEntry, err error) error {
		if err != nil {
			if errors.Is(err, fs.ErrNotExist) {
				return fs.SkipAll
			}
			return err
		}
		if d.IsDir() {
			return nil
		}
		rel, err := filepath.Rel(base, p)
		if err != nil {
			return err
		}
		key := filepath.ToSlash(rel)
		if strings.HasPrefix(key, prefix) {
			keys = append(keys, key)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return keys, nil
}

func (f *FileBackend) Get(_ context.Context, bucket, key string) ([]byte, error) {
	p, err := f.path(bucket, key)
	if err != nil {
		return nil, err
	}
	data, err := os.ReadFile(p)
	if errors.Is(err, fs.ErrNotExist) {
		return nil, ErrNotFound
	}
	return data, err
}

func (f *FileBackend) Put(_ context.Context, bucket, key string, data []byte) error {
	p, err := f.path(bucket, key)
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(p), 0o755); err != nil {
		return err
	}
	return os.WriteFile(p, data, 0o644)
}
