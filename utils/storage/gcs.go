package storage

import (
	"bytes"
	"context"
	"fmt"
	"time"

	"github.com/eidosai/eidos/utils/config"
	"github.com/eidosai/eidos/utils/prompt"
	"google.golang.org/api/googleapi"
	"google.golang.org/api/option"
	gcs "google.golang.org/api/storage/v1"
)

// GCSUploader stores images in a Cloud Storage bucket and returns V4 signed URLs
type GCSUploader struct {
	service *gcs.Service
	signer  *Signer
	bucket  string
	prefix  string
	expiry  time.Duration
}

// NewGCSUploader builds an uploader from the GCS section of the configuration
func NewGCSUploader(ctx context.Context, cfg config.GCSConfig, opts ...option.ClientOption) (*GCSUploader, error) {
	key, err := cfg.ServiceAccountKeyJSON()
	if err != nil {
		return nil, err
	}
	if len(key) == 0 {
		return nil, fmt.Errorf("GCS service account key is required")
	}

	signer, err := NewSigner(key)
	if err != nil {
		return nil, err
	}

	clientOpts := append([]option.ClientOption{option.WithCredentialsJSON(key)}, opts...)
	if cfg.ProjectID != "" {
		clientOpts = append(clientOpts, option.WithQuotaProject(cfg.ProjectID))
	}
	service, err := gcs.NewService(ctx, clientOpts...)
	if err != nil {
		return nil, fmt.Errorf("error creating storage client: %w", err)
	}

	return &GCSUploader{
		service: service,
		signer:  signer,
		bucket:  cfg.BucketName,
		prefix:  cfg.ObjectPrefix,
		expiry:  time.Duration(cfg.SignedURLExpiry) * time.Second,
	}, nil
}

// Upload inserts the image under a fresh object name and signs a GET URL for it
func (u *GCSUploader) Upload(ctx context.Context, image prompt.ImageData) (string, error) {
	name := ObjectName(u.prefix, image.MIMEType)
	mimeType := image.MIMEType
	if mimeType == "" {
		mimeType = "image/png"
	}

	object := &gcs.Object{Name: name, ContentType: mimeType}
	_, err := u.service.Objects.Insert(u.bucket, object).
		Media(bytes.NewReader(image.Data), googleapi.ContentType(mimeType)).
		Context(ctx).
		Do()
	if err != nil {
		return "", fmt.Errorf("error uploading %s to bucket %s: %w", name, u.bucket, err)
	}
	config.VerboseLog("Uploaded gs://%s/%s (%d bytes)", u.bucket, name, len(image.Data))

	return u.signer.SignedURL(u.bucket, name, u.expiry)
}
