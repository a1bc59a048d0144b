// Package objstore wraps an S3-compatible object store (MinIO in development)
// behind the small surface the file catalog needs: put, get, list, stat,
// delete and server-side copy by object key.
//
// Every call carries a bounded timeout and a single retry for transient
// network errors. An unreachable backend surfaces as
// common.ErrStorageUnavailable so callers can degrade reads to empty results;
// a missing key surfaces as common.ErrNotFound.
package objstore

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"mime"
	"net/url"
	"path/filepath"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"
	"github.com/aws/smithy-go"
	"github.com/sethvargo/go-retry"

	"github.com/synchub/backend/internal/common"
	sc "github.com/synchub/backend/internal/server/config"
)

// ObjectInfo describes one stored object.
type ObjectInfo struct {
	Key          string
	Size         int64
	ContentType  string
	LastModified time.Time
	// Metadata holds per-object user metadata (string key/value pairs).
	Metadata map[string]string
}

// Store is the object-store contract the catalog depends on.
type Store interface {
	Put(ctx context.Context, key string, data []byte, contentType string, metadata map[string]string) error
	Get(ctx context.Context, key string) ([]byte, ObjectInfo, error)
	List(ctx context.Context, prefix string) ([]ObjectInfo, error)
	Stat(ctx context.Context, key string) (ObjectInfo, error)
	Delete(ctx context.Context, key string) error
	Copy(ctx context.Context, srcKey, dstKey string) error
}

// s3API is the subset of *s3.Client used by S3Store. Tests substitute a fake.
type s3API interface {
	PutObject(ctx context.Context, in *s3.PutObjectInput, optFns ...func(*s3.Options)) (*s3.PutObjectOutput, error)
	GetObject(ctx context.Context, in *s3.GetObjectInput, optFns ...func(*s3.Options)) (*s3.GetObjectOutput, error)
	ListObjectsV2(ctx context.Context, in *s3.ListObjectsV2Input, optFns ...func(*s3.Options)) (*s3.ListObjectsV2Output, error)
	HeadObject(ctx context.Context, in *s3.HeadObjectInput, optFns ...func(*s3.Options)) (*s3.HeadObjectOutput, error)
	DeleteObject(ctx context.Context, in *s3.DeleteObjectInput, optFns ...func(*s3.Options)) (*s3.DeleteObjectOutput, error)
	CopyObject(ctx context.Context, in *s3.CopyObjectInput, optFns ...func(*s3.Options)) (*s3.CopyObjectOutput, error)
	HeadBucket(ctx context.Context, in *s3.HeadBucketInput, optFns ...func(*s3.Options)) (*s3.HeadBucketOutput, error)
	CreateBucket(ctx context.Context, in *s3.CreateBucketInput, optFns ...func(*s3.Options)) (*s3.CreateBucketOutput, error)
}

// seams for testing client construction
var (
	loadDefaultAWSConfig = awsconfig.LoadDefaultConfig

	newS3ClientFromConfig = func(cfg aws.Config, optFns ...func(*s3.Options)) s3API {
		return s3.NewFromConfig(cfg, optFns...)
	}
)

// S3Store implements Store over an S3-compatible backend.
type S3Store struct {
	client  s3API
	bucket  string
	timeout time.Duration
}

// New builds an S3Store from server config using static credentials and a
// custom base endpoint (MinIO style).
func New(ctx context.Context, cfg *sc.Config) (*S3Store, error) {
	awsCfg, err := loadDefaultAWSConfig(ctx,
		awsconfig.WithRegion(cfg.S3Region),
		awsconfig.WithCredentialsProvider(credentials.NewStaticCredentialsProvider(
			cfg.S3RootUser,
			cfg.S3RootPassword,
			"",
		)))
	if err != nil {
		return nil, fmt.Errorf("aws config: %w", err)
	}

	client := newS3ClientFromConfig(awsCfg, func(o *s3.Options) {
		o.BaseEndpoint = aws.String(cfg.S3BaseEndpoint)
		o.UsePathStyle = true
	})

	return &S3Store{client: client, bucket: cfg.S3Bucket, timeout: cfg.StorageTimeout}, nil
}

// EnsureBucket creates the bucket if it does not exist yet.
func (s *S3Store) EnsureBucket(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	_, err := s.client.HeadBucket(ctx, &s3.HeadBucketInput{Bucket: aws.String(s.bucket)})
	if err == nil {
		return nil
	}
	var nf *types.NotFound
	if !errors.As(err, &nf) {
		return classify(err)
	}

	if _, err := s.client.CreateBucket(ctx, &s3.CreateBucketInput{Bucket: aws.String(s.bucket)}); err != nil {
		return classify(err)
	}
	return nil
}

// Put stores data under key with the given content type and user metadata.
// An empty contentType is inferred from the key's extension.
func (s *S3Store) Put(ctx context.Context, key string, data []byte, contentType string, metadata map[string]string) error {
	if contentType == "" {
		contentType = InferContentType(key)
	}
	return s.do(ctx, func(ctx context.Context) error {
		_, err := s.client.PutObject(ctx, &s3.PutObjectInput{
			Bucket:      aws.String(s.bucket),
			Key:         aws.String(key),
			Body:        bytes.NewReader(data),
			ContentType: aws.String(contentType),
			Metadata:    metadata,
		})
		return err
	})
}

// Get returns the object's bytes and descriptive info.
func (s *S3Store) Get(ctx context.Context, key string) ([]byte, ObjectInfo, error) {
	var data []byte
	var info ObjectInfo
	err := s.do(ctx, func(ctx context.Context) error {
		out, err := s.client.GetObject(ctx, &s3.GetObjectInput{
			Bucket: aws.String(s.bucket),
			Key:    aws.String(key),
		})
		if err != nil {
			return err
		}
		defer out.Body.Close()

		data, err = io.ReadAll(out.Body)
		if err != nil {
			return err
		}
		info = ObjectInfo{
			Key:          key,
			Size:         int64(len(data)),
			ContentType:  aws.ToString(out.ContentType),
			LastModified: aws.ToTime(out.LastModified),
			Metadata:     out.Metadata,
		}
		return nil
	})
	if err != nil {
		return nil, ObjectInfo{}, err
	}
	return data, info, nil
}

// List enumerates all objects under prefix, following pagination.
func (s *S3Store) List(ctx context.Context, prefix string) ([]ObjectInfo, error) {
	var result []ObjectInfo
	err := s.do(ctx, func(ctx context.Context) error {
		result = result[:0]
		var token *string
		for {
			out, err := s.client.ListObjectsV2(ctx, &s3.ListObjectsV2Input{
				Bucket:            aws.String(s.bucket),
				Prefix:            aws.String(prefix),
				ContinuationToken: token,
			})
			if err != nil {
				return err
			}
			for _, obj := range out.Contents {
				result = append(result, ObjectInfo{
					Key:          aws.ToString(obj.Key),
					Size:         aws.ToInt64(obj.Size),
					LastModified: aws.ToTime(obj.LastModified),
				})
			}
			if !aws.ToBool(out.IsTruncated) {
				return nil
			}
			token = out.NextContinuationToken
		}
	})
	if err != nil {
		return nil, err
	}
	return result, nil
}

// Stat returns object info including user metadata without fetching the body.
func (s *S3Store) Stat(ctx context.Context, key string) (ObjectInfo, error) {
	var info ObjectInfo
	err := s.do(ctx, func(ctx context.Context) error {
		out, err := s.client.HeadObject(ctx, &s3.HeadObjectInput{
			Bucket: aws.String(s.bucket),
			Key:    aws.String(key),
		})
		if err != nil {
			return err
		}
		info = ObjectInfo{
			Key:          key,
			Size:         aws.ToInt64(out.ContentLength),
			ContentType:  aws.ToString(out.ContentType),
			LastModified: aws.ToTime(out.LastModified),
			Metadata:     out.Metadata,
		}
		return nil
	})
	if err != nil {
		return ObjectInfo{}, err
	}
	return info, nil
}

// Delete removes the object. Deleting a missing key is not an error; S3
// reports success in that case.
func (s *S3Store) Delete(ctx context.Context, key string) error {
	return s.do(ctx, func(ctx context.Context) error {
		_, err := s.client.DeleteObject(ctx, &s3.DeleteObjectInput{
			Bucket: aws.String(s.bucket),
			Key:    aws.String(key),
		})
		return err
	})
}

// Copy performs a server-side copy from srcKey to dstKey within the bucket.
func (s *S3Store) Copy(ctx context.Context, srcKey, dstKey string) error {
	return s.do(ctx, func(ctx context.Context) error {
		_, err := s.client.CopyObject(ctx, &s3.CopyObjectInput{
			Bucket:     aws.String(s.bucket),
			CopySource: aws.String(s.bucket + "/" + url.PathEscape(srcKey)),
			Key:        aws.String(dstKey),
		})
		return err
	})
}

// do runs op with the per-call timeout and a single retry for transient
// errors. Not-found and auth errors are never retried.
func (s *S3Store) do(ctx context.Context, op func(ctx context.Context) error) error {
	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	b := retry.WithMaxRetries(1, retry.NewConstant(200*time.Millisecond))
	err := retry.Do(ctx, b, func(ctx context.Context) error {
		if err := op(ctx); err != nil {
			if isTransient(err) {
				return retry.RetryableError(err)
			}
			return err
		}
		return nil
	})
	return classify(err)
}

// isTransient reports whether err looks like a temporary network failure
// worth one more attempt.
func isTransient(err error) bool {
	if isNotFound(err) {
		return false
	}
	var apiErr smithy.APIError
	if errors.As(err, &apiErr) {
		switch apiErr.ErrorCode() {
		case "AccessDenied", "InvalidAccessKeyId", "SignatureDoesNotMatch":
			return false
		case "SlowDown", "InternalError", "ServiceUnavailable", "RequestTimeout":
			return true
		}
		return false
	}
	// No typed API error: connection refused, reset, DNS failure.
	return !errors.Is(err, context.Canceled) && !errors.Is(err, context.DeadlineExceeded)
}

func isNotFound(err error) bool {
	var noKey *types.NoSuchKey
	var notFound *types.NotFound
	if errors.As(err, &noKey) || errors.As(err, &notFound) {
		return true
	}
	var apiErr smithy.APIError
	return errors.As(err, &apiErr) && (apiErr.ErrorCode() == "NoSuchKey" || apiErr.ErrorCode() == "NotFound")
}

// classify maps SDK errors onto the shared error taxonomy.
func classify(err error) error {
	if err == nil {
		return nil
	}
	if isNotFound(err) {
		return fmt.Errorf("%w: %v", common.ErrNotFound, err)
	}
	var apiErr smithy.APIError
	if errors.As(err, &apiErr) {
		switch apiErr.ErrorCode() {
		case "AccessDenied", "InvalidAccessKeyId", "SignatureDoesNotMatch",
			"SlowDown", "InternalError", "ServiceUnavailable":
			return fmt.Errorf("%w: %v", common.ErrStorageUnavailable, err)
		}
		return err
	}
	// Transport-level failure: store unreachable.
	return fmt.Errorf("%w: %v", common.ErrStorageUnavailable, err)
}

// InferContentType guesses a MIME type from the filename extension, falling
// back to application/octet-stream.
func InferContentType(filename string) string {
	if ct := mime.TypeByExtension(filepath.Ext(filename)); ct != "" {
		return ct
	}
	return "application/octet-stream"
}
