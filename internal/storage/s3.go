// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

// Package storage provides an S3-compatible object storage client for the
// template preview images and export files. It wraps the AWS SDK v2 and is
// configured for path-style access (required by CEPH/Hetzner).
package storage

import (
	"bytes"
	"context"
	"fmt"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	s3types "github.com/aws/aws-sdk-go-v2/service/s3/types"

	"dalley/internal/backend"
)

// Config holds the connection settings and physical bucket names.
type Config struct {
	Endpoint     string
	Region       string
	AccessKey    string
	SecretKey    string
	ImagesBucket string
	FilesBucket  string
	// PublicURL is an optional CDN/direct URL serving both buckets.
	PublicURL string
}

// Client implements backend.Storage on two public buckets.
type Client struct {
	s3        *s3.Client
	buckets   map[backend.Bucket]string
	endpoint  string
	publicURL string
}

// New creates an S3 storage client with path-style addressing.
func New(cfg Config) (*Client, error) {
	if cfg.Endpoint == "" || cfg.AccessKey == "" || cfg.SecretKey == "" {
		return nil, fmt.Errorf("storage: endpoint and credentials are required")
	}

	endpoint := strings.TrimRight(cfg.Endpoint, "/")

	s3Client := s3.New(s3.Options{
		Region:                     cfg.Region,
		BaseEndpoint:               aws.String(endpoint),
		Credentials:                credentials.NewStaticCredentialsProvider(cfg.AccessKey, cfg.SecretKey, ""),
		UsePathStyle:               true,
		RequestChecksumCalculation: aws.RequestChecksumCalculationWhenRequired,
	})

	return &Client{
		s3: s3Client,
		buckets: map[backend.Bucket]string{
			backend.BucketImages: orDefault(cfg.ImagesBucket, string(backend.BucketImages)),
			backend.BucketFiles:  orDefault(cfg.FilesBucket, string(backend.BucketFiles)),
		},
		endpoint:  endpoint,
		publicURL: strings.TrimRight(cfg.PublicURL, "/"),
	}, nil
}

// Upload stores body at path in bucket with public-read ACL. Without
// opts.Upsert an existing object is not replaced.
func (c *Client) Upload(ctx context.Context, bucket backend.Bucket, path string, body []byte, opts backend.UploadOptions) error {
	name, ok := c.buckets[bucket]
	if !ok {
		return fmt.Errorf("s3 upload: unknown bucket %q", bucket)
	}

	input := &s3.PutObjectInput{
		Bucket:        aws.String(name),
		Key:           aws.String(path),
		Body:          bytes.NewReader(body),
		ContentLength: aws.Int64(int64(len(body))),
		ACL:           s3types.ObjectCannedACLPublicRead,
	}
	if opts.ContentType != "" {
		input.ContentType = aws.String(opts.ContentType)
	}
	if opts.CacheControl > 0 {
		input.CacheControl = aws.String(fmt.Sprintf("max-age=%d", int(opts.CacheControl.Seconds())))
	}
	if !opts.Upsert {
		input.IfNoneMatch = aws.String("*")
	}

	if _, err := c.s3.PutObject(ctx, input); err != nil {
		return fmt.Errorf("s3 upload %s/%s: %w", name, path, err)
	}
	return nil
}

// PublicURL returns the public reference for path in bucket. Uses the
// configured public URL if set, otherwise builds a path-style URL.
func (c *Client) PublicURL(bucket backend.Bucket, path string) string {
	name := c.buckets[bucket]
	if c.publicURL != "" {
		return c.publicURL + "/" + name + "/" + path
	}
	return c.endpoint + "/" + name + "/" + path
}

// BucketName returns the physical bucket behind a logical one.
func (c *Client) BucketName(bucket backend.Bucket) string {
	return c.buckets[bucket]
}

func orDefault(v, fallback string) string {
	if v == "" {
		return fallback
	}
	return v
}

var _ backend.Storage = (*Client)(nil)
