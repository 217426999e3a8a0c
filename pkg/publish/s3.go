package publish

import (
	"bytes"
	"context"
	"path"
	"strings"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/s3"

	"github.com/vango-dev/docsave/internal/errors"
)

// S3API is the subset of the S3 client used by S3Store. *s3.Client
// satisfies it.
type S3API interface {
	PutObject(ctx context.Context, params *s3.PutObjectInput, optFns ...func(*s3.Options)) (*s3.PutObjectOutput, error)
}

// S3Store uploads artifacts to an S3 bucket.
//
// Example usage:
//
//	client := s3.New(s3.Options{Region: "eu-west-1", Credentials: creds})
//	store := publish.NewS3Store(client, "snapshots", "specs/my-spec/")
type S3Store struct {
	client    S3API
	bucket    string
	prefix    string
	generator string
}

// NewS3Store creates an S3Store writing keys under prefix.
func NewS3Store(client S3API, bucket, prefix string) *S3Store {
	return &S3Store{
		client: client,
		bucket: bucket,
		prefix: prefix,
	}
}

// WithGenerator records generator in the metadata of every object.
func (s *S3Store) WithGenerator(generator string) *S3Store {
	s.generator = generator
	return s
}

// Key returns the object key used for name.
func (s *S3Store) Key(name string) string {
	return s.prefix + name
}

// Put uploads body and returns its s3:// location.
func (s *S3Store) Put(ctx context.Context, name, contentType string, body []byte) (string, error) {
	if !validKey(name) {
		return "", errors.New("E051").WithSubject(name)
	}

	meta := map[string]string{
		"saved-at": time.Now().UTC().Format(time.RFC3339),
	}
	if s.generator != "" {
		meta["generator"] = s.generator
	}

	key := s.Key(name)
	_, err := s.client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:      aws.String(s.bucket),
		Key:         aws.String(key),
		Body:        bytes.NewReader(body),
		ContentType: aws.String(contentType),
		Metadata:    meta,
	})
	if err != nil {
		return "", errors.New("E050").WithSubject(name).WithDetail("s3 upload failed").Wrap(err)
	}
	return "s3://" + s.bucket + "/" + key, nil
}

// validKey rejects empty, absolute and parent-relative names.
func validKey(name string) bool {
	if name == "" || strings.HasPrefix(name, "/") {
		return false
	}
	clean := path.Clean(name)
	return clean == name && clean != "." && clean != ".." && !strings.HasPrefix(clean, "../")
}
