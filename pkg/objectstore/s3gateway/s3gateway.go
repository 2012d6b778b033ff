// Package s3gateway implements pkg/objectstore.Gateway on Amazon S3, grounded
// on the session/bucket-handle wrapper style of discursive-image-diroom's
// aws package: a thin struct around *s3.S3 plus an s3manager uploader.
package s3gateway

import (
	"bytes"
	"context"
	"fmt"
	"io"

	"github.com/aws/aws-sdk-go/aws"
	"github.com/aws/aws-sdk-go/aws/awserr"
	"github.com/aws/aws-sdk-go/aws/session"
	"github.com/aws/aws-sdk-go/service/s3"
	"github.com/aws/aws-sdk-go/service/s3/s3manager"

	"github.com/waveshift/subpipeline/pkg/objectstore"
)

// Gateway implements objectstore.Gateway against one S3 bucket.
type Gateway struct {
	client       *s3.S3
	bucket       string
	publicDomain string
}

var _ objectstore.Gateway = (*Gateway)(nil)

// Config configures a Gateway.
type Config struct {
	Region       string
	Bucket       string
	PublicDomain string
}

// New creates a Gateway backed by a new AWS session in the given region.
func New(cfg Config) (*Gateway, error) {
	sess, err := session.NewSession(&aws.Config{
		Region: aws.String(cfg.Region),
	})
	if err != nil {
		return nil, fmt.Errorf("s3gateway: creating session: %w", err)
	}

	return &Gateway{
		client:       s3.New(sess),
		bucket:       cfg.Bucket,
		publicDomain: cfg.PublicDomain,
	}, nil
}

// Get reads the full object at key.
func (g *Gateway) Get(ctx context.Context, key string) ([]byte, error) {
	out, err := g.client.GetObjectWithContext(ctx, &s3.GetObjectInput{
		Bucket: aws.String(g.bucket),
		Key:    aws.String(key),
	})
	if err != nil {
		if aerr, ok := err.(awserr.Error); ok && aerr.Code() == s3.ErrCodeNoSuchKey {
			return nil, objectstore.ErrNotFound
		}
		return nil, fmt.Errorf("s3gateway: get %s: %w", key, err)
	}
	defer out.Body.Close()

	data, err := io.ReadAll(out.Body)
	if err != nil {
		return nil, fmt.Errorf("s3gateway: reading body of %s: %w", key, err)
	}
	return data, nil
}

// Put uploads data to key via the s3manager uploader.
func (g *Gateway) Put(ctx context.Context, key string, data []byte, contentType string) error {
	uploader := s3manager.NewUploaderWithClient(g.client)
	_, err := uploader.UploadWithContext(ctx, &s3manager.UploadInput{
		Bucket:      aws.String(g.bucket),
		Key:         aws.String(key),
		Body:        bytes.NewReader(data),
		ContentType: aws.String(contentType),
	})
	if err != nil {
		return fmt.Errorf("s3gateway: put %s: %w", key, err)
	}
	return nil
}

// Head returns metadata for key without fetching its body.
func (g *Gateway) Head(ctx context.Context, key string) (objectstore.Metadata, error) {
	out, err := g.client.HeadObjectWithContext(ctx, &s3.HeadObjectInput{
		Bucket: aws.String(g.bucket),
		Key:    aws.String(key),
	})
	if err != nil {
		if aerr, ok := err.(awserr.Error); ok && aerr.Code() == "NotFound" {
			return objectstore.Metadata{}, objectstore.ErrNotFound
		}
		return objectstore.Metadata{}, fmt.Errorf("s3gateway: head %s: %w", key, err)
	}

	meta := objectstore.Metadata{}
	if out.ContentType != nil {
		meta.ContentType = *out.ContentType
	}
	if out.ContentLength != nil {
		meta.ContentLength = *out.ContentLength
	}
	return meta, nil
}

// PublicURL prefers the configured public domain; otherwise falls back to
// the raw key.
func (g *Gateway) PublicURL(key string) string {
	return objectstore.BuildPublicURL(g.publicDomain, key)
}
