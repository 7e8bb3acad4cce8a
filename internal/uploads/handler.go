// Package uploads hands out presigned S3 PUT URLs so browsers can send
// supplier conversation files straight to the bucket. The knowledge package
// picks them up afterwards through /knowledge/uploads/ingest.
package uploads

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"path"
	"strings"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	v4 "github.com/aws/aws-sdk-go-v2/aws/signer/v4"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/gin-gonic/gin"

	"sourcing-backend/internal/extract"
	"sourcing-backend/internal/knowledge"
	"sourcing-backend/internal/shared/server/middleware"
	"sourcing-backend/internal/shared/server/respond"
	"sourcing-backend/internal/shared/storage/object"
	"sourcing-backend/internal/shared/telemetry"
	"sourcing-backend/internal/shared/util"
)

const (
	presignExpires = 15 * time.Minute
	defaultRegion  = "us-east-1"
	uploaderMeta   = "uploader"
)

var acceptedTypes = []string{
	object.ContentTypeText,
	object.ContentTypeMarkdown,
	object.ContentTypeCSV,
	object.ContentTypePDF,
	object.ContentTypeDOCX,
}

// PutPresigner signs S3 PUT requests.
type PutPresigner interface {
	PresignPutObject(ctx context.Context, params *s3.PutObjectInput, optFns ...func(*s3.PresignOptions)) (*v4.PresignedHTTPRequest, error)
}

// Handler issues upload URLs. Storage keys in responses are store-relative;
// the signed object key carries the object store prefix.
type Handler struct {
	presign PutPresigner
	bucket  string
	prefix  string
}

// NewHandler builds a Handler for the bucket and prefix the S3 object store uses.
func NewHandler(ctx context.Context, region, bucket, prefix string) (*Handler, error) {
	region = strings.TrimSpace(region)
	if region == "" {
		region = defaultRegion
	}
	bucket = strings.TrimSpace(bucket)
	if bucket == "" {
		return nil, errors.New("uploads: S3_BUCKET is required")
	}
	cfg, err := awsconfig.LoadDefaultConfig(ctx, awsconfig.WithRegion(region))
	if err != nil {
		return nil, fmt.Errorf("uploads: load aws config: %w", err)
	}
	return &Handler{
		presign: s3.NewPresignClient(s3.NewFromConfig(cfg)),
		bucket:  bucket,
		prefix:  strings.Trim(strings.TrimSpace(prefix), "/"),
	}, nil
}

type presignRequest struct {
	FileName    string `json:"fileName"`
	ContentType string `json:"contentType"`
	SizeBytes   int64  `json:"sizeBytes"`
}

// validate normalizes the request and returns a client-facing message when
// it cannot be signed.
func (r *presignRequest) validate() string {
	r.FileName = strings.TrimSpace(r.FileName)
	r.ContentType = strings.ToLower(strings.TrimSpace(r.ContentType))
	switch {
	case r.FileName == "":
		return "fileName is required"
	case !accepted(r.ContentType):
		return "contentType is not allowed"
	case r.SizeBytes <= 0 || r.SizeBytes > extract.MaxSourceBytes:
		return fmt.Sprintf("sizeBytes must be between 1 and %d", extract.MaxSourceBytes)
	}
	if path.Ext(r.FileName) != "" {
		if byExt := object.ContentType(r.FileName, nil); accepted(byExt) && byExt != r.ContentType {
			return "fileName extension does not match contentType"
		}
	}
	return ""
}

func accepted(contentType string) bool {
	for _, ct := range acceptedTypes {
		if ct == contentType {
			return true
		}
	}
	return false
}

type presignResponse struct {
	UploadURL        string            `json:"uploadUrl"`
	StorageKey       string            `json:"storageKey"`
	ExpiresInSeconds int64             `json:"expiresInSeconds"`
	// RequiredHeaders are signed and must be sent unchanged with the PUT.
	RequiredHeaders  map[string]string `json:"requiredHeaders"`
}

// RegisterRoutes mounts the presign route. Uploading feeds the knowledge
// base, so it takes the same guards as knowledge writes.
func (h *Handler) RegisterRoutes(rg *gin.RouterGroup, guards ...gin.HandlerFunc) {
	rg.POST("/knowledge/uploads/presign", append(guards, h.presignUpload)...)
}

func (h *Handler) presignUpload(c *gin.Context) {
	var req presignRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respond.Error(c, http.StatusBadRequest, "validation_error", "invalid request body", nil)
		return
	}
	if msg := req.validate(); msg != "" {
		respond.Error(c, http.StatusBadRequest, "validation_error", msg, nil)
		return
	}

	userID := middleware.UserIDFromContext(c)
	storageKey, err := knowledge.UploadKey(userID, req.FileName)
	if err != nil {
		respond.Error(c, http.StatusBadRequest, "validation_error", "invalid fileName", nil)
		return
	}

	objectKey := applyPrefix(h.prefix, storageKey)
	uploader := util.HashUserKey(userID)
	out, err := h.presign.PresignPutObject(c.Request.Context(), presignInput(h.bucket, objectKey, req.ContentType, uploader), func(opts *s3.PresignOptions) {
		opts.Expires = presignExpires
	})
	if err != nil {
		telemetry.Error("uploads.presign_failed", map[string]any{
			"error":        err,
			"bucket":       h.bucket,
			"key":          objectKey,
			"content_type": req.ContentType,
			"size_bytes":   req.SizeBytes,
			"request_id":   middleware.RequestIDFromContext(c),
		})
		respond.Error(c, http.StatusInternalServerError, "internal_error", "failed to generate upload url", nil)
		return
	}

	telemetry.Info("uploads.presigned", map[string]any{
		"key":          storageKey,
		"content_type": req.ContentType,
		"size_bytes":   req.SizeBytes,
		"request_id":   middleware.RequestIDFromContext(c),
	})
	respond.OK(c, presignResponse{
		UploadURL:        out.URL,
		StorageKey:       storageKey,
		ExpiresInSeconds: int64(presignExpires.Seconds()),
		RequiredHeaders: map[string]string{
			"Content-Type":                req.ContentType,
			"x-amz-meta-" + uploaderMeta: uploader,
		},
	})
}

func presignInput(bucket, key, contentType, uploader string) *s3.PutObjectInput {
	in := &s3.PutObjectInput{
		Bucket:      aws.String(bucket),
		Key:         aws.String(key),
		ContentType: aws.String(contentType),
	}
	if uploader != "" {
		in.Metadata = map[string]string{uploaderMeta: uploader}
	}
	return in
}

func applyPrefix(prefix, key string) string {
	if prefix == "" {
		return key
	}
	return prefix + "/" + strings.TrimLeft(key, "/")
}
