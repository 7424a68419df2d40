package supabase

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strings"

	"github.com/boddenberg/sales-onboarding-bfa-go/internal/domain"

	"go.opentelemetry.io/otel/attribute"
	"go.uber.org/zap"
)

// ============================================================
// FileStorage implementation: /storage/v1
// ============================================================

func (c *Client) storageRequest(ctx context.Context, method, path, contentType string, body []byte) (*http.Request, error) {
	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+"/storage/v1/"+path, bytes.NewReader(body))
	if err != nil {
		return nil, err
	}
	req.Header.Set("apikey", c.apiKey)
	req.Header.Set("Authorization", "Bearer "+c.serviceRoleKey)
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}
	return req, nil
}

// EnsureBucket creates bucket when it does not exist yet. Known buckets
// are remembered for the lifetime of the client.
func (c *Client) EnsureBucket(ctx context.Context, bucket string, public bool, sizeLimit int64) error {
	if _, ok := c.buckets.Load(bucket); ok {
		return nil
	}

	ctx, span := tracer.Start(ctx, "Supabase.EnsureBucket")
	defer span.End()
	span.SetAttributes(attribute.String("storage.bucket", bucket))

	req, err := c.storageRequest(ctx, http.MethodGet, "bucket/"+url.PathEscape(bucket), "", nil)
	if err != nil {
		return err
	}
	if _, err := c.send(req); err == nil {
		c.buckets.Store(bucket, struct{}{})
		return nil
	}

	payload, err := json.Marshal(map[string]any{
		"id":              bucket,
		"name":            bucket,
		"public":          public,
		"file_size_limit": sizeLimit,
	})
	if err != nil {
		return err
	}
	req, err = c.storageRequest(ctx, http.MethodPost, "bucket", "application/json", payload)
	if err != nil {
		return err
	}
	_, err = c.mutate("supabase/storage.bucket", func() ([]byte, error) { return c.send(req) })
	if err != nil && !isDuplicate(err) {
		return err
	}

	c.logger.Info("storage: bucket ready", zap.String("bucket", bucket))
	c.buckets.Store(bucket, struct{}{})
	return nil
}

// Upload stores data at bucket/path and returns its public URL. Concurrent
// uploads are bounded by the client bulkhead.
func (c *Client) Upload(ctx context.Context, bucket, path, contentType string, data []byte) (*domain.UploadedFile, error) {
	ctx, span := tracer.Start(ctx, "Supabase.Upload")
	defer span.End()
	span.SetAttributes(
		attribute.String("storage.bucket", bucket),
		attribute.Int("storage.size", len(data)),
	)

	if contentType == "" {
		contentType = "application/octet-stream"
	}

	err := c.uploads.Do(ctx, func() error {
		req, err := c.storageRequest(ctx, http.MethodPost, "object/"+bucket+"/"+escapePath(path), contentType, data)
		if err != nil {
			return err
		}
		req.Header.Set("x-upsert", "true")
		_, err = c.mutate("supabase/storage.object", func() ([]byte, error) { return c.sendWith(c.uploadClient, req) })
		return err
	})
	if err != nil {
		return nil, err
	}

	return &domain.UploadedFile{
		Bucket:    bucket,
		Path:      path,
		PublicURL: c.PublicURL(bucket, path),
	}, nil
}

// PublicURL returns the public object URL of bucket/path.
func (c *Client) PublicURL(bucket, path string) string {
	return fmt.Sprintf("%s/storage/v1/object/public/%s/%s", c.baseURL, bucket, escapePath(path))
}

func escapePath(p string) string {
	parts := strings.Split(p, "/")
	for i, s := range parts {
		parts[i] = url.PathEscape(s)
	}
	return strings.Join(parts, "/")
}

func isDuplicate(err error) bool {
	var backend *domain.ErrBackend
	if !errors.As(err, &backend) {
		return false
	}
	return backend.Status == http.StatusConflict ||
		strings.Contains(strings.ToLower(backend.Message), "already exists")
}
