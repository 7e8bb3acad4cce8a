package s3

import (
	"bytes"
	"context"
	"errors"
	"io"
	"strings"
	"testing"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	s3types "github.com/aws/aws-sdk-go-v2/service/s3/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeS3 struct {
	objects map[string][]byte
	lastPut *s3.PutObjectInput
}

func (f *fakeS3) PutObject(_ context.Context, in *s3.PutObjectInput, _ ...func(*s3.Options)) (*s3.PutObjectOutput, error) {
	data, err := io.ReadAll(in.Body)
	if err != nil {
		return nil, err
	}
	f.objects[aws.ToString(in.Key)] = data
	f.lastPut = in
	return &s3.PutObjectOutput{}, nil
}

func (f *fakeS3) GetObject(_ context.Context, in *s3.GetObjectInput, _ ...func(*s3.Options)) (*s3.GetObjectOutput, error) {
	data, ok := f.objects[aws.ToString(in.Key)]
	if !ok {
		return nil, &s3types.NoSuchKey{}
	}
	return &s3.GetObjectOutput{Body: io.NopCloser(bytes.NewReader(data))}, nil
}

func TestApplyPrefix(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name   string
		prefix string
		key    string
		want   string
	}{
		{name: "no prefix", prefix: "", key: "knowledge-uploads/u/1/chat.txt", want: "knowledge-uploads/u/1/chat.txt"},
		{name: "simple prefix", prefix: "staging", key: "knowledge-uploads/u/1/chat.txt", want: "staging/knowledge-uploads/u/1/chat.txt"},
		{name: "prefix trailing slash", prefix: "staging/", key: "knowledge-uploads/u/1/chat.txt", want: "staging/knowledge-uploads/u/1/chat.txt"},
		{name: "prefix and key slashes", prefix: "/staging/", key: "/knowledge-uploads/u/1/chat.txt", want: "staging/knowledge-uploads/u/1/chat.txt"},
		{name: "nested prefix", prefix: "env/prod", key: "k/chat.txt", want: "env/prod/k/chat.txt"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			if got := applyPrefix(tt.prefix, tt.key); got != tt.want {
				t.Fatalf("applyPrefix(%q, %q) = %q, want %q", tt.prefix, tt.key, got, tt.want)
			}
		})
	}
}

func TestPutAppliesPrefixAndEncryption(t *testing.T) {
	client := &fakeS3{objects: map[string][]byte{}}
	store := newWithClient(client, "sourcing-uploads", "/prod/", "kms-123")
	ctx := context.Background()

	n, err := store.Put(ctx, "knowledge-uploads/u/1/chat.txt", "text/plain", strings.NewReader("MOQ 500"))
	require.NoError(t, err)
	assert.EqualValues(t, 7, n)
	assert.Equal(t, "prod/knowledge-uploads/u/1/chat.txt", aws.ToString(client.lastPut.Key))
	assert.Equal(t, s3types.ServerSideEncryptionAwsKms, client.lastPut.ServerSideEncryption)
	assert.Equal(t, "kms-123", aws.ToString(client.lastPut.SSEKMSKeyId))

	rc, err := store.Open(ctx, "knowledge-uploads/u/1/chat.txt")
	require.NoError(t, err)
	defer rc.Close()
	data, _ := io.ReadAll(rc)
	assert.Equal(t, "MOQ 500", string(data))
}

func TestOpenMissingObject(t *testing.T) {
	store := newWithClient(&fakeS3{objects: map[string][]byte{}}, "b", "", "")
	_, err := store.Open(context.Background(), "knowledge-uploads/u/1/never-uploaded.txt")
	assert.True(t, errors.Is(err, ErrNotFound), "got %v", err)
}

func TestPutDefaultsToSSES3(t *testing.T) {
	client := &fakeS3{objects: map[string][]byte{}}
	store := newWithClient(client, "b", "", "")
	_, err := store.Put(context.Background(), "k/a.txt", "", strings.NewReader("x"))
	require.NoError(t, err)
	assert.Equal(t, s3types.ServerSideEncryptionAes256, client.lastPut.ServerSideEncryption)
	assert.Nil(t, client.lastPut.ContentType)
}
