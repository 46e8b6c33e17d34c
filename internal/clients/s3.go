package clients

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/url"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"

	"github.com/Cray-HPE/bos-sub000/internal/boserrors"
)

// ManifestSizeCap is the maximum manifest size the object store will
// hand back (spec §6.2: "manifest size cap 1 MiB").
const ManifestSizeCap = 1 << 20

// S3Config names the gateway and credentials an S3-compatible endpoint
// is reached through, mirroring BOS's S3_* environment variables
// (spec §6.4).
type S3Config struct {
	Gateway   string
	Protocol  string
	AccessKey string
	SecretKey string
	Region    string
}

// S3 is a typed adapter over the object store holding boot-image
// manifests and artifacts.
type S3 struct {
	client *s3.Client
}

func NewS3(ctx context.Context, cfg S3Config) (*S3, error) {
	awsCfg, err := config.LoadDefaultConfig(ctx,
		config.WithCredentialsProvider(credentials.NewStaticCredentialsProvider(cfg.AccessKey, cfg.SecretKey, "")),
		config.WithRegion(cfg.Region),
	)
	if err != nil {
		return nil, fmt.Errorf("s3: load config: %w", err)
	}
	endpoint := cfg.Protocol + "://" + cfg.Gateway
	client := s3.NewFromConfig(awsCfg, func(o *s3.Options) {
		o.BaseEndpoint = aws.String(endpoint)
		o.UsePathStyle = true
	})
	return &S3{client: client}, nil
}

// ParseS3URL splits an "s3://bucket/key/path" manifest reference into
// its bucket and key.
func ParseS3URL(raw string) (bucket, key string, err error) {
	u, err := url.Parse(raw)
	if err != nil {
		return "", "", fmt.Errorf("s3: malformed url %q: %w", raw, err)
	}
	if u.Scheme != "s3" {
		return "", "", fmt.Errorf("s3: not an s3:// url: %q", raw)
	}
	return u.Host, strings.TrimPrefix(u.Path, "/"), nil
}

// HeadETag returns the current ETag for bucket/key.
func (c *S3) HeadETag(ctx context.Context, bucket, key string) (string, error) {
	out, err := c.client.HeadObject(ctx, &s3.HeadObjectInput{
		Bucket: aws.String(bucket),
		Key:    aws.String(key),
	})
	if err != nil {
		return "", boserrors.New(boserrors.KindTransient, "s3.HeadETag", err)
	}
	if out.ETag == nil {
		return "", nil
	}
	return strings.Trim(*out.ETag, `"`), nil
}

// GetObject fetches bucket/key, refusing to read past ManifestSizeCap
// bytes.
func (c *S3) GetObject(ctx context.Context, bucket, key string) ([]byte, error) {
	out, err := c.client.GetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(bucket),
		Key:    aws.String(key),
	})
	if err != nil {
		return nil, boserrors.New(boserrors.KindTransient, "s3.GetObject", err)
	}
	defer out.Body.Close()

	var buf bytes.Buffer
	n, err := io.CopyN(&buf, out.Body, ManifestSizeCap+1)
	if err != nil && err != io.EOF {
		return nil, boserrors.New(boserrors.KindTransient, "s3.GetObject", err)
	}
	if n > ManifestSizeCap {
		return nil, boserrors.New(boserrors.KindValidation, "s3.GetObject",
			fmt.Errorf("object %s/%s exceeds %d byte cap", bucket, key, ManifestSizeCap))
	}
	return buf.Bytes(), nil
}
