// Package local archives raw bill renditions on the local filesystem,
// laid out by congress/bill-type/bill-number the same way the cloud
// backends key their objects.
package local

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
)

// Config locates the archive root.
type Config struct {
	// BaseDir is the directory bill renditions are written under. It is
	// created if missing and must be writable.
	BaseDir string
}

// BlobStore writes rendition payloads under a base directory and hands
// back file:// URIs.
type BlobStore struct {
	baseDir string
}

// New validates the archive root. Misconfiguration fails here, at
// startup, rather than mid-job on the first bill.
func New(cfg Config) (*BlobStore, error) {
	base := strings.TrimSpace(cfg.BaseDir)
	if base == "" {
		return nil, fmt.Errorf("archive base directory is required")
	}

	info, err := os.Stat(base)
	switch {
	case os.IsNotExist(err):
		if mkErr := os.MkdirAll(base, 0o750); mkErr != nil {
			return nil, fmt.Errorf("create archive root: %w", mkErr)
		}
	case err != nil:
		return nil, fmt.Errorf("stat archive root: %w", err)
	case !info.IsDir():
		return nil, fmt.Errorf("archive root %s is not a directory", base)
	}

	probe, err := os.CreateTemp(base, ".probe-*")
	if err != nil {
		return nil, fmt.Errorf("archive root is not writable: %w", err)
	}
	name := probe.Name()
	_ = probe.Close()
	if err := os.Remove(name); err != nil {
		return nil, fmt.Errorf("remove write probe: %w", err)
	}

	return &BlobStore{baseDir: base}, nil
}

// PutObject streams one rendition to disk. The payload lands under a
// temporary name and is renamed into place, so a job re-run that
// refreshes a bill's text never leaves a truncated file behind.
func (s *BlobStore) PutObject(_ context.Context, path string, _ string, data io.Reader) (string, error) {
	if strings.TrimSpace(path) == "" {
		return "", fmt.Errorf("object path is required")
	}

	target := filepath.Join(s.baseDir, path)
	if !strings.HasPrefix(filepath.Clean(target), filepath.Clean(s.baseDir)+string(filepath.Separator)) {
		return "", fmt.Errorf("object path %q escapes the archive root", path)
	}

	dir := filepath.Dir(target)
	if err := os.MkdirAll(dir, 0o750); err != nil {
		return "", fmt.Errorf("create rendition directory: %w", err)
	}

	tmp, err := os.CreateTemp(dir, filepath.Base(target)+".tmp-*")
	if err != nil {
		return "", fmt.Errorf("create rendition file: %w", err)
	}
	if _, err := io.Copy(tmp, data); err != nil {
		_ = tmp.Close()
		_ = os.Remove(tmp.Name())
		return "", fmt.Errorf("write rendition: %w", err)
	}
	if err := tmp.Close(); err != nil {
		_ = os.Remove(tmp.Name())
		return "", fmt.Errorf("close rendition file: %w", err)
	}
	if err := os.Chmod(tmp.Name(), 0o600); err != nil {
		_ = os.Remove(tmp.Name())
		return "", fmt.Errorf("set rendition permissions: %w", err)
	}
	if err := os.Rename(tmp.Name(), target); err != nil {
		_ = os.Remove(tmp.Name())
		return "", fmt.Errorf("place rendition: %w", err)
	}

	return fmt.Sprintf("file://%s", target), nil
}
