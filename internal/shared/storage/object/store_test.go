package object

import (
	"bytes"
	"context"
	"errors"
	"io"
	"strings"
	"testing"
)

type recordingStore struct {
	key         string
	contentType string
	body        []byte
}

func (s *recordingStore) Put(_ context.Context, key, contentType string, r io.Reader) (int64, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return 0, err
	}
	s.key, s.contentType, s.body = key, contentType, data
	return int64(len(data)), nil
}

func (s *recordingStore) Open(context.Context, string) (io.ReadCloser, error) {
	return io.NopCloser(bytes.NewReader(s.body)), nil
}

func TestSaveKeepsSniffedBytes(t *testing.T) {
	store := &recordingStore{}
	body := strings.Repeat("Supplier: MOQ 500 pcs. ", 40)

	size, ct, err := Save(context.Background(), store, "knowledge-uploads/u/1/chat.md", "chat.md", strings.NewReader(body))
	if err != nil {
		t.Fatalf("save: %v", err)
	}
	if size != int64(len(body)) || string(store.body) != body {
		t.Fatalf("body truncated: size=%d", size)
	}
	if ct != ContentTypeMarkdown {
		t.Fatalf("expected markdown, got %q", ct)
	}
}

func TestContentType(t *testing.T) {
	cases := []struct {
		name string
		head []byte
		want string
	}{
		{name: "offer.DOCX", head: []byte("PK\x03\x04"), want: ContentTypeDOCX},
		{name: "prices.csv", head: []byte("item,moq\n"), want: ContentTypeCSV},
		{name: "chat", head: []byte("%PDF-1.7"), want: "application/pdf"},
		{name: "chat", head: []byte("hello"), want: "text/plain; charset=utf-8"},
	}
	for _, tc := range cases {
		if got := ContentType(tc.name, tc.head); got != tc.want {
			t.Errorf("ContentType(%q) = %q, want %q", tc.name, got, tc.want)
		}
	}
}

func TestCleanKey(t *testing.T) {
	good, err := CleanKey("knowledge-uploads/abc/./x/chat.txt")
	if err != nil || good != "knowledge-uploads/abc/x/chat.txt" {
		t.Fatalf("unexpected clean key %q, %v", good, err)
	}
	for _, key := range []string{"", "/etc/passwd", "../secret", "a/../../b", ".."} {
		if _, err := CleanKey(key); !errors.Is(err, ErrInvalidKey) {
			t.Errorf("CleanKey(%q) expected ErrInvalidKey, got %v", key, err)
		}
	}
}
