// SPDX-License-Identifier: EPL-2.0

package objectstore

import (
	"context"
	"os"
	"path"
	"path/filepath"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/ossrs/go-oryx-lib/errors"
	"github.com/ossrs/go-oryx-lib/logger"

	"github.com/ik5/samplekit/audio"
)

// DefaultPrefix is used when Config.Prefix is empty.
const DefaultPrefix = "samples"

// Store publishes a finished project archive and returns its remote locator.
type Store interface {
	PutArchive(ctx context.Context, localPath string) (string, error)
}

// PutAPI is the part of *s3.Client the store needs.
type PutAPI interface {
	PutObject(ctx context.Context, in *s3.PutObjectInput, optFns ...func(*s3.Options)) (*s3.PutObjectOutput, error)
}

// Config points at an S3-compatible bucket. An empty Endpoint uses AWS.
type Config struct {
	Bucket          string
	Endpoint        string
	Region          string
	AccessKeyID     string
	SecretAccessKey string
	Prefix          string
}

// Enabled reports whether a bucket is configured.
func (c Config) Enabled() bool { return c.Bucket != "" }

type S3 struct {
	client PutAPI
	Bucket string
	Prefix string
}

// New wraps an existing client.
func New(client PutAPI, bucket, prefix string) *S3 {
	prefix = strings.Trim(prefix, "/")
	if prefix == "" {
		prefix = DefaultPrefix
	}
	return &S3{client: client, Bucket: bucket, Prefix: prefix}
}

// NewS3 builds a path-style client with static credentials, which works for
// AWS as well as R2 and MinIO.
func NewS3(ctx context.Context, c Config) (*S3, error) {
	if !c.Enabled() {
		return nil, errors.New("no bucket configured")
	}

	opts := []func(*config.LoadOptions) error{config.WithRegion(c.Region)}
	if c.AccessKeyID != "" {
		opts = append(opts, config.WithCredentialsProvider(
			credentials.NewStaticCredentialsProvider(c.AccessKeyID, c.SecretAccessKey, "")))
	}

	cfg, err := config.LoadDefaultConfig(ctx, opts...)
	if err != nil {
		return nil, errors.Wrapf(err, "load aws config")
	}

	client := s3.NewFromConfig(cfg, func(o *s3.Options) {
		if c.Endpoint != "" {
			o.BaseEndpoint = aws.String(c.Endpoint)
		}
		o.UsePathStyle = true
	})

	return New(client, c.Bucket, c.Prefix), nil
}

// Key is the object key for a local archive.
func (s *S3) Key(localPath string) string {
	return path.Join(s.Prefix, filepath.Base(localPath))
}

// Locator formats key as an s3:// URL.
func (s *S3) Locator(key string) string {
	return "s3://" + s.Bucket + "/" + key
}

func (s *S3) PutArchive(ctx context.Context, localPath string) (string, error) {
	f, err := os.Open(localPath)
	if err != nil {
		if os.IsNotExist(err) {
			return "", &audio.MissingSourceError{Path: localPath}
		}
		return "", errors.Wrapf(err, "open %v", localPath)
	}
	defer f.Close()

	st, err := f.Stat()
	if err != nil {
		return "", errors.Wrapf(err, "stat %v", localPath)
	}

	key := s.Key(localPath)
	_, err = s.client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:        aws.String(s.Bucket),
		Key:           aws.String(key),
		Body:          f,
		ContentLength: aws.Int64(st.Size()),
		ContentType:   aws.String("application/zip"),
	})
	if err != nil {
		return "", errors.Wrapf(err, "put %v", key)
	}

	loc := s.Locator(key)
	logger.Tf(ctx, "archive uploaded %v size=%v", loc, st.Size())

	return loc, nil
}
