// Package cache implements ports.CacheStore on the local filesystem.
// Entries are tar.gz archives under a cache root, one file per key. The key
// already encodes the OS class and lockfile fingerprint, so the store itself
// stays a dumb content-addressed bucket.
package cache

import (
	"archive/tar"
	"compress/gzip"
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
)

// Store is a filesystem cache rooted at BasePath.
type Store struct {
	BasePath string
}

// NewStore creates a Store. If basePath is empty, it defaults to
// ".gantry/cache".
func NewStore(basePath string) *Store {
	if basePath == "" {
		basePath = filepath.Join(".gantry", "cache")
	}
	return &Store{BasePath: basePath}
}

func (s *Store) entryPath(key string) string {
	return filepath.Join(s.BasePath, key+".tar.gz")
}

// Restore extracts the entry for key into dest. A missing entry is a miss,
// not an error.
func (s *Store) Restore(ctx context.Context, key, dest string) (bool, error) {
	f, err := os.Open(s.entryPath(key))
	if err != nil {
		if os.IsNotExist(err) {
			return false, nil
		}
		return false, fmt.Errorf("failed to open cache entry: %w", err)
	}
	defer f.Close()

	gz, err := gzip.NewReader(f)
	if err != nil {
		return false, fmt.Errorf("corrupt cache entry %s: %w", key, err)
	}
	defer gz.Close()

	tr := tar.NewReader(gz)
	for {
		if err := ctx.Err(); err != nil {
			return false, err
		}
		hdr, err := tr.Next()
		if err == io.EOF {
			break
		}
		if err != nil {
			return false, fmt.Errorf("corrupt cache entry %s: %w", key, err)
		}

		// Refuse entries that would escape dest.
		name := filepath.Clean(hdr.Name)
		if strings.HasPrefix(name, "..") || filepath.IsAbs(name) {
			return false, fmt.Errorf("cache entry %s contains invalid path %q", key, hdr.Name)
		}
		target := filepath.Join(dest, name)

		switch hdr.Typeflag {
		case tar.TypeDir:
			if err := os.MkdirAll(target, os.FileMode(hdr.Mode)); err != nil {
				return false, err
			}
		case tar.TypeReg:
			if err := os.MkdirAll(filepath.Dir(target), 0755); err != nil {
				return false, err
			}
			out, err := os.OpenFile(target, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, os.FileMode(hdr.Mode))
			if err != nil {
				return false, err
			}
			if _, err := io.Copy(out, tr); err != nil {
				out.Close()
				return false, err
			}
			out.Close()
		}
	}
	return true, nil
}

// Save captures src under key. The archive is written to a temp file and
// renamed, so a concurrent reader never sees a half-written entry.
func (s *Store) Save(ctx context.Context, key, src string) error {
	if err := os.MkdirAll(s.BasePath, 0755); err != nil {
		return fmt.Errorf("failed to ensure cache directory: %w", err)
	}

	tmp, err := os.CreateTemp(s.BasePath, key+".*.partial")
	if err != nil {
		return fmt.Errorf("failed to create cache temp file: %w", err)
	}
	defer os.Remove(tmp.Name())

	gz := gzip.NewWriter(tmp)
	tw := tar.NewWriter(gz)

	walkErr := filepath.Walk(src, func(path string, info os.FileInfo, err error) error {
		if err != nil {
			return err
		}
		if err := ctx.Err(); err != nil {
			return err
		}
		rel, err := filepath.Rel(src, path)
		if err != nil {
			return err
		}
		if rel == "." {
			return nil
		}

		hdr, err := tar.FileInfoHeader(info, "")
		if err != nil {
			return err
		}
		hdr.Name = filepath.ToSlash(rel)
		if err := tw.WriteHeader(hdr); err != nil {
			return err
		}
		if !info.Mode().IsRegular() {
			return nil
		}

		f, err := os.Open(path)
		if err != nil {
			return err
		}
		defer f.Close()
		_, err = io.Copy(tw, f)
		return err
	})

	if cerr := tw.Close(); walkErr == nil {
		walkErr = cerr
	}
	if cerr := gz.Close(); walkErr == nil {
		walkErr = cerr
	}
	if cerr := tmp.Close(); walkErr == nil {
		walkErr = cerr
	}
	if walkErr != nil {
		return fmt.Errorf("failed to archive %s: %w", src, walkErr)
	}

	if err := os.Rename(tmp.Name(), s.entryPath(key)); err != nil {
		return fmt.Errorf("failed to finalize cache entry: %w", err)
	}
	return nil
}
