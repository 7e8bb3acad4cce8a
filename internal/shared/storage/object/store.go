package object

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"path"
	"strings"
)

// ErrInvalidKey is returned for keys that are empty, absolute or escape the store root.
var ErrInvalidKey = errors.New("invalid storage key")

// ObjectStore holds supplier conversation uploads and the plain-text copies
// extracted from them. Keys are slash-separated and chosen by the caller.
type ObjectStore interface {
	Put(ctx context.Context, key string, contentType string, r io.Reader) (sizeBytes int64, err error)
	Open(ctx context.Context, key string) (io.ReadCloser, error)
}

// Content types accepted for conversation uploads.
const (
	ContentTypeText     = "text/plain"
	ContentTypeMarkdown = "text/markdown"
	ContentTypeCSV      = "text/csv"
	ContentTypePDF      = "application/pdf"
	ContentTypeDOCX     = "application/vnd.openxmlformats-officedocument.wordprocessingml.document"
)

var contentTypeByExt = map[string]string{
	".txt":  ContentTypeText,
	".text": ContentTypeText,
	".log":  ContentTypeText,
	".md":   ContentTypeMarkdown,
	".csv":  ContentTypeCSV,
	".pdf":  ContentTypePDF,
	".docx": ContentTypeDOCX,
}

// Save sniffs the first 512 bytes of r, stores it under key and returns the
// stored size with the detected content type.
func Save(ctx context.Context, store ObjectStore, key, fileName string, r io.Reader) (int64, string, error) {
	var sniff [512]byte
	n, err := io.ReadFull(r, sniff[:])
	if err != nil && err != io.EOF && err != io.ErrUnexpectedEOF {
		return 0, "", fmt.Errorf("read sniff: %w", err)
	}
	contentType := ContentType(fileName, sniff[:n])
	size, err := store.Put(ctx, key, contentType, io.MultiReader(bytes.NewReader(sniff[:n]), r))
	if err != nil {
		return 0, "", err
	}
	return size, contentType, nil
}

// ContentType prefers the file extension because chat exports sniff as
// generic text and .docx sniffs as a zip archive.
func ContentType(fileName string, head []byte) string {
	if ct, ok := contentTypeByExt[strings.ToLower(path.Ext(fileName))]; ok {
		return ct
	}
	return http.DetectContentType(head)
}

// CleanKey normalizes key and rejects traversal.
func CleanKey(key string) (string, error) {
	if strings.TrimSpace(key) == "" || strings.HasPrefix(key, "/") {
		return "", ErrInvalidKey
	}
	clean := path.Clean(key)
	if clean == "." || clean == ".." || strings.HasPrefix(clean, "../") {
		return "", ErrInvalidKey
	}
	return clean, nil
}
