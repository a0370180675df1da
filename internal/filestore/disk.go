package filestore

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"

	"github.com/gabriel-vasile/mimetype"

	"github.com/patric-chuzhbe/arsipsurat/internal/models"
)

// Disk stores attachments as files in a single directory.
type Disk struct {
	dir    string
	policy Policy
	now    func() time.Time
}

// NewDisk creates the directory if needed and returns a Disk store rooted there.
func NewDisk(dir string, policy Policy) (*Disk, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("in internal/filestore/disk.go/NewDisk(): error while `os.MkdirAll()` calling: %w", err)
	}

	return &Disk{
		dir:    dir,
		policy: policy,
		now:    time.Now,
	}, nil
}

// Dir returns the directory the store writes to.
func (d *Disk) Dir() string {
	return d.dir
}

// Save checks the upload against the policy and writes it under a new name.
func (d *Disk) Save(ctx context.Context, upload *models.Upload) (string, error) {
	checked, err := d.policy.check(upload)
	if err != nil {
		return "", err
	}

	name := generateName(d.now(), checked.ext)
	path := filepath.Join(d.dir, name)

	file, err := os.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0o644)
	if err != nil {
		return "", fmt.Errorf("in internal/filestore/disk.go/Save(): error while `os.OpenFile()` calling: %w", err)
	}

	written, err := io.Copy(file, io.LimitReader(checked.content, d.policy.MaxSize+1))
	closeErr := file.Close()
	switch {
	case err != nil:
		_ = os.Remove(path)
		return "", fmt.Errorf("in internal/filestore/disk.go/Save(): error while `io.Copy()` calling: %w", err)
	case written > d.policy.MaxSize:
		_ = os.Remove(path)
		return "", models.ErrFileTooLarge
	case closeErr != nil:
		_ = os.Remove(path)
		return "", closeErr
	}

	return name, nil
}

// Remove deletes the named file. A file that is already gone is not an error.
func (d *Disk) Remove(ctx context.Context, name string) error {
	if !ValidName(name) {
		return nil
	}
	err := os.Remove(filepath.Join(d.dir, name))
	if err != nil && !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("in internal/filestore/disk.go/Remove(): error while `os.Remove()` calling: %w", err)
	}

	return nil
}

// Exists reports whether the named file is present.
func (d *Disk) Exists(name string) bool {
	if !ValidName(name) {
		return false
	}
	_, err := os.Stat(filepath.Join(d.dir, name))
	return err == nil
}

// Open returns the named file for download.
func (d *Disk) Open(ctx context.Context, name string) (*Object, error) {
	if !ValidName(name) {
		return nil, models.ErrAttachmentNotFound
	}

	path := filepath.Join(d.dir, name)
	file, err := os.Open(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, models.ErrAttachmentNotFound
		}
		return nil, err
	}

	info, err := file.Stat()
	if err != nil {
		_ = file.Close()
		return nil, err
	}
	if info.IsDir() {
		_ = file.Close()
		return nil, models.ErrAttachmentNotFound
	}

	detected, err := mimetype.DetectReader(file)
	if err != nil {
		_ = file.Close()
		return nil, err
	}
	if _, err := file.Seek(0, io.SeekStart); err != nil {
		_ = file.Close()
		return nil, err
	}

	return &Object{
		Body:        file,
		Size:        info.Size(),
		ContentType: detected.String(),
		ModTime:     info.ModTime(),
	}, nil
}
