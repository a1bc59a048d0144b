package objstore

import (
	"bytes"
	"context"
	"errors"
	"io"
	"testing"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"
	"github.com/aws/smithy-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/synchub/backend/internal/common"
	sc "github.com/synchub/backend/internal/server/config"
)

// fakeS3 implements s3API with per-method hooks and call counters.
type fakeS3 struct {
	putFn    func(*s3.PutObjectInput) (*s3.PutObjectOutput, error)
	getFn    func(*s3.GetObjectInput) (*s3.GetObjectOutput, error)
	listFn   func(*s3.ListObjectsV2Input) (*s3.ListObjectsV2Output, error)
	headFn   func(*s3.HeadObjectInput) (*s3.HeadObjectOutput, error)
	deleteFn func(*s3.DeleteObjectInput) (*s3.DeleteObjectOutput, error)
	copyFn   func(*s3.CopyObjectInput) (*s3.CopyObjectOutput, error)

	headBucketErr   error
	bucketsCreated  int
	putCalls        int
	getCalls        int
	listCalls       int
	deleteCalls     int
	lastPut         *s3.PutObjectInput
	lastListPrefix  string
	lastCopySource  string
	lastCopyDstKey  string
	lastDeletedKeys []string
}

func (f *fakeS3) PutObject(ctx context.Context, in *s3.PutObjectInput, _ ...func(*s3.Options)) (*s3.PutObjectOutput, error) {
	f.putCalls++
	f.lastPut = in
	if f.putFn != nil {
		return f.putFn(in)
	}
	return &s3.PutObjectOutput{}, nil
}

func (f *fakeS3) GetObject(ctx context.Context, in *s3.GetObjectInput, _ ...func(*s3.Options)) (*s3.GetObjectOutput, error) {
	f.getCalls++
	if f.getFn != nil {
		return f.getFn(in)
	}
	return nil, &types.NoSuchKey{}
}

func (f *fakeS3) ListObjectsV2(ctx context.Context, in *s3.ListObjectsV2Input, _ ...func(*s3.Options)) (*s3.ListObjectsV2Output, error) {
	f.listCalls++
	f.lastListPrefix = aws.ToString(in.Prefix)
	if f.listFn != nil {
		return f.listFn(in)
	}
	return &s3.ListObjectsV2Output{}, nil
}

func (f *fakeS3) HeadObject(ctx context.Context, in *s3.HeadObjectInput, _ ...func(*s3.Options)) (*s3.HeadObjectOutput, error) {
	if f.headFn != nil {
		return f.headFn(in)
	}
	return nil, &types.NotFound{}
}

func (f *fakeS3) DeleteObject(ctx context.Context, in *s3.DeleteObjectInput, _ ...func(*s3.Options)) (*s3.DeleteObjectOutput, error) {
	f.deleteCalls++
	f.lastDeletedKeys = append(f.lastDeletedKeys, aws.ToString(in.Key))
	if f.deleteFn != nil {
		return f.deleteFn(in)
	}
	return &s3.DeleteObjectOutput{}, nil
}

func (f *fakeS3) CopyObject(ctx context.Context, in *s3.CopyObjectInput, _ ...func(*s3.Options)) (*s3.CopyObjectOutput, error) {
	f.lastCopySource = aws.ToString(in.CopySource)
	f.lastCopyDstKey = aws.ToString(in.Key)
	if f.copyFn != nil {
		return f.copyFn(in)
	}
	return &s3.CopyObjectOutput{}, nil
}

func (f *fakeS3) HeadBucket(ctx context.Context, in *s3.HeadBucketInput, _ ...func(*s3.Options)) (*s3.HeadBucketOutput, error) {
	if f.headBucketErr != nil {
		return nil, f.headBucketErr
	}
	return &s3.HeadBucketOutput{}, nil
}

func (f *fakeS3) CreateBucket(ctx context.Context, in *s3.CreateBucketInput, _ ...func(*s3.Options)) (*s3.CreateBucketOutput, error) {
	f.bucketsCreated++
	return &s3.CreateBucketOutput{}, nil
}

func newTestStore(api s3API) *S3Store {
	return &S3Store{client: api, bucket: "synchub-files", timeout: 2 * time.Second}
}

func apiError(code string) error {
	return &smithy.GenericAPIError{Code: code, Message: code}
}

func TestPut_InfersContentTypeFromKey(t *testing.T) {
	fake := &fakeS3{}
	store := newTestStore(fake)

	err := store.Put(context.Background(), "documents/abc_report.pdf", []byte("x"), "", map[string]string{"file-id": "abc"})
	require.NoError(t, err)

	require.NotNil(t, fake.lastPut)
	assert.Equal(t, "application/pdf", aws.ToString(fake.lastPut.ContentType))
	assert.Equal(t, "synchub-files", aws.ToString(fake.lastPut.Bucket))
	assert.Equal(t, "abc", fake.lastPut.Metadata["file-id"])
}

func TestGet_MissingKeyIsNotFound(t *testing.T) {
	store := newTestStore(&fakeS3{})

	_, _, err := store.Get(context.Background(), "documents/nope")
	assert.ErrorIs(t, err, common.ErrNotFound)
}

func TestGet_ReturnsBodyAndInfo(t *testing.T) {
	fake := &fakeS3{
		getFn: func(in *s3.GetObjectInput) (*s3.GetObjectOutput, error) {
			return &s3.GetObjectOutput{
				Body:        io.NopCloser(bytes.NewReader([]byte("hello"))),
				ContentType: aws.String("text/plain"),
				Metadata:    map[string]string{"file-id": "f1"},
			}, nil
		},
	}
	store := newTestStore(fake)

	data, info, err := store.Get(context.Background(), "documents/f1_a.txt")
	require.NoError(t, err)
	assert.Equal(t, []byte("hello"), data)
	assert.Equal(t, int64(5), info.Size)
	assert.Equal(t, "text/plain", info.ContentType)
	assert.Equal(t, "f1", info.Metadata["file-id"])
}

func TestDo_RetriesTransientErrorOnce(t *testing.T) {
	calls := 0
	fake := &fakeS3{
		getFn: func(in *s3.GetObjectInput) (*s3.GetObjectOutput, error) {
			calls++
			if calls == 1 {
				return nil, apiError("SlowDown")
			}
			return &s3.GetObjectOutput{Body: io.NopCloser(bytes.NewReader([]byte("ok")))}, nil
		},
	}
	store := newTestStore(fake)

	data, _, err := store.Get(context.Background(), "k")
	require.NoError(t, err)
	assert.Equal(t, []byte("ok"), data)
	assert.Equal(t, 2, calls)
}

func TestDo_DoesNotRetryAuthError(t *testing.T) {
	fake := &fakeS3{
		getFn: func(in *s3.GetObjectInput) (*s3.GetObjectOutput, error) {
			return nil, apiError("AccessDenied")
		},
	}
	store := newTestStore(fake)

	_, _, err := store.Get(context.Background(), "k")
	assert.ErrorIs(t, err, common.ErrStorageUnavailable)
	assert.Equal(t, 1, fake.getCalls)
}

func TestDo_TransportFailureIsUnavailable(t *testing.T) {
	fake := &fakeS3{
		getFn: func(in *s3.GetObjectInput) (*s3.GetObjectOutput, error) {
			return nil, errors.New("dial tcp 127.0.0.1:9000: connect: connection refused")
		},
	}
	store := newTestStore(fake)

	_, _, err := store.Get(context.Background(), "k")
	assert.ErrorIs(t, err, common.ErrStorageUnavailable)
	assert.Equal(t, 2, fake.getCalls, "plain network errors get one retry")
}

func TestList_FollowsPagination(t *testing.T) {
	page := 0
	fake := &fakeS3{
		listFn: func(in *s3.ListObjectsV2Input) (*s3.ListObjectsV2Output, error) {
			page++
			if page == 1 {
				return &s3.ListObjectsV2Output{
					Contents: []types.Object{
						{Key: aws.String("documents/a"), Size: aws.Int64(1)},
						{Key: aws.String("documents/b"), Size: aws.Int64(2)},
					},
					IsTruncated:           aws.Bool(true),
					NextContinuationToken: aws.String("t1"),
				}, nil
			}
			assert.Equal(t, "t1", aws.ToString(in.ContinuationToken))
			return &s3.ListObjectsV2Output{
				Contents:    []types.Object{{Key: aws.String("documents/c"), Size: aws.Int64(3)}},
				IsTruncated: aws.Bool(false),
			}, nil
		},
	}
	store := newTestStore(fake)

	result, err := store.List(context.Background(), "documents/")
	require.NoError(t, err)
	require.Len(t, result, 3)
	assert.Equal(t, "documents/", fake.lastListPrefix)
	assert.Equal(t, "documents/c", result[2].Key)
}

func TestCopy_EscapesSourceKey(t *testing.T) {
	fake := &fakeS3{}
	store := newTestStore(fake)

	err := store.Copy(context.Background(), "documents/id_my report.pdf", "archives/id_my report.pdf")
	require.NoError(t, err)
	assert.Equal(t, "synchub-files/documents%2Fid_my%20report.pdf", fake.lastCopySource)
	assert.Equal(t, "archives/id_my report.pdf", fake.lastCopyDstKey)
}

func TestEnsureBucket_SkipsExisting(t *testing.T) {
	fake := &fakeS3{}
	store := newTestStore(fake)

	require.NoError(t, store.EnsureBucket(context.Background()))
	assert.Equal(t, 0, fake.bucketsCreated)
}

func TestEnsureBucket_CreatesMissing(t *testing.T) {
	fake := &fakeS3{headBucketErr: &types.NotFound{}}
	store := newTestStore(fake)

	require.NoError(t, store.EnsureBucket(context.Background()))
	assert.Equal(t, 1, fake.bucketsCreated)
}

func TestNew_WiresBucketAndTimeout(t *testing.T) {
	origNew := newS3ClientFromConfig
	t.Cleanup(func() { newS3ClientFromConfig = origNew })

	fake := &fakeS3{}
	newS3ClientFromConfig = func(cfg aws.Config, optFns ...func(*s3.Options)) s3API {
		return fake
	}

	cfg := &sc.Config{
		S3RootUser:     "minio",
		S3RootPassword: "minio123",
		S3Bucket:       "synchub-files",
		S3Region:       "us-east-1",
		S3BaseEndpoint: "http://127.0.0.1:9000",
		StorageTimeout: 5 * time.Second,
	}

	store, err := New(context.Background(), cfg)
	require.NoError(t, err)
	assert.Equal(t, "synchub-files", store.bucket)
	assert.Equal(t, 5*time.Second, store.timeout)
	assert.Same(t, s3API(fake), store.client)
}

func TestInferContentType(t *testing.T) {
	assert.Equal(t, "application/pdf", InferContentType("report.pdf"))
	assert.Equal(t, "application/octet-stream", InferContentType("blob"))
	assert.Equal(t, "application/octet-stream", InferContentType("weird.zzz"))
}
