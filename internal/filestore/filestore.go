// Package filestore keeps letter attachments. Files are addressed by a
// generated name and live either in a flat directory on disk or in an
// S3-compatible bucket. Both backends enforce the same upload Policy before
// anything is written.
package filestore

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/gabriel-vasile/mimetype"
	"github.com/google/uuid"
	"github.com/thoas/go-funk"

	"github.com/patric-chuzhbe/arsipsurat/internal/models"
)

// NamePrefix starts every generated attachment name.
const NamePrefix = "surat-"

// sniffLen is how much of an upload is inspected to detect its content type.
const sniffLen = 3072

// allowedTypes maps an allowed extension to the content types its bytes may
// sniff as. Parent types count, so a .docx that only sniffs as zip passes.
var allowedTypes = map[string][]string{
	".pdf":  {"application/pdf"},
	".doc":  {"application/msword", "application/x-ole-storage"},
	".docx": {"application/vnd.openxmlformats-officedocument.wordprocessingml.document", "application/zip"},
	".jpg":  {"image/jpeg"},
	".jpeg": {"image/jpeg"},
	".png":  {"image/png"},
}

// Object is an opened attachment.
type Object struct {
	Body        io.ReadCloser
	Size        int64
	ContentType string
	ModTime     time.Time
}

// Policy is the size and type restriction applied to uploads.
type Policy struct {
	MaxSize int64
}

// checked is an upload that passed the policy.
type checked struct {
	ext         string
	contentType string
	content     io.Reader
}

// AllowedExtensions lists the accepted attachment extensions.
func AllowedExtensions() []string {
	extensions := funk.Keys(allowedTypes).([]string)
	sort.Strings(extensions)
	return extensions
}

func (p Policy) check(upload *models.Upload) (*checked, error) {
	ext := strings.ToLower(filepath.Ext(upload.Filename))
	families, ok := allowedTypes[ext]
	if !ok {
		return nil, fmt.Errorf("%w: extension %q", models.ErrFileTypeNotAllowed, ext)
	}

	if upload.Size > p.MaxSize {
		return nil, fmt.Errorf("%w: %d bytes", models.ErrFileTooLarge, upload.Size)
	}

	head := make([]byte, sniffLen)
	n, err := io.ReadFull(upload.Content, head)
	if err != nil && !errors.Is(err, io.ErrUnexpectedEOF) && !errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("in internal/filestore/filestore.go/check(): error while `io.ReadFull()` calling: %w", err)
	}
	head = head[:n]

	detected := mimetype.Detect(head)
	if !matchesFamily(detected, families) {
		return nil, fmt.Errorf("%w: %s content in a %s file", models.ErrFileTypeNotAllowed, detected.String(), ext)
	}

	return &checked{
		ext:         ext,
		contentType: detected.String(),
		content:     io.MultiReader(bytes.NewReader(head), upload.Content),
	}, nil
}

func matchesFamily(detected *mimetype.MIME, families []string) bool {
	for m := detected; m != nil; m = m.Parent() {
		for _, family := range families {
			if m.Is(family) {
				return true
			}
		}
	}
	return false
}

// readLimited reads at most maxSize bytes of content and fails with
// ErrFileTooLarge when there is more.
func readLimited(content io.Reader, maxSize int64) ([]byte, error) {
	data, err := io.ReadAll(io.LimitReader(content, maxSize+1))
	if err != nil {
		return nil, err
	}
	if int64(len(data)) > maxSize {
		return nil, models.ErrFileTooLarge
	}
	return data, nil
}

func generateName(now time.Time, ext string) string {
	return NamePrefix + fmt.Sprint(now.UnixMilli()) + "-" + uuid.NewString() + ext
}

// ValidName reports whether name could have been produced by this package:
// a bare file name with no path components.
func ValidName(name string) bool {
	return name != "" &&
		name != "." &&
		name != ".." &&
		!strings.ContainsAny(name, `/\`) &&
		filepath.Base(name) == name
}
