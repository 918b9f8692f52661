package publish

import (
	"bytes"
	"context"
	"io"
	"path"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/go-git/go-billy/v5"
	"github.com/go-git/go-billy/v5/osfs"

	"github.com/arobison203/autoortho/errors"
)

// s3API is the subset of the S3 client the store uses. It exists so tests can
// substitute a mock without AWS credentials.
type s3API interface {
	PutObject(ctx context.Context, input *s3.PutObjectInput, opts ...func(*s3.Options)) (*s3.PutObjectOutput, error)
}

// S3Store implements Store over an S3-compatible bucket. Objects are keyed
// run-scoped: runs/<runID>/<label>/<filename>, so any run's outputs can be
// inspected without requiring a tag.
type S3Store struct {
	client s3API
	bucket string
	runID  string
	fs     billy.Filesystem
}

// S3Option configures an S3Store.
type S3Option func(*S3Store)

// WithS3Client substitutes the S3 client implementation. Primarily for tests.
func WithS3Client(client s3API) S3Option {
	return func(s *S3Store) { s.client = client }
}

// WithFilesystem substitutes the filesystem artifacts are read from.
func WithFilesystem(fsys billy.Filesystem) S3Option {
	return func(s *S3Store) { s.fs = fsys }
}

// NewS3Store creates a run-scoped artifact store for the given bucket and
// run. AWS credentials come from the default credential chain unless a custom
// client is injected.
func NewS3Store(ctx context.Context, bucket, region, runID string, opts ...S3Option) (*S3Store, error) {
	if bucket == "" {
		return nil, errors.New(errors.CodeInvalidConfig, "storage bucket is required")
	}
	if runID == "" {
		return nil, errors.New(errors.CodeInvalidConfig, "run id is required")
	}

	store := &S3Store{
		bucket: bucket,
		runID:  runID,
		fs:     osfs.New("/"),
	}
	for _, opt := range opts {
		opt(store)
	}

	if store.client == nil {
		cfg, err := awsconfig.LoadDefaultConfig(ctx, awsconfig.WithRegion(region))
		if err != nil {
			return nil, errors.Wrap(errors.CodeInvalidConfig, err, "loading AWS configuration")
		}
		store.client = s3.NewFromConfig(cfg)
	}

	return store, nil
}

// Upload implements Store. Each file becomes one object under the label's
// run-scoped prefix; the returned handle is the prefix URI.
func (s *S3Store) Upload(ctx context.Context, label string, paths []string) (string, error) {
	if label == "" {
		return "", errors.New(errors.CodePublishFailed, "storage label is required")
	}

	prefix := path.Join("runs", s.runID, label)
	for _, p := range paths {
		if err := s.putFile(ctx, prefix, p); err != nil {
			return "", err
		}
	}
	return "s3://" + s.bucket + "/" + prefix, nil
}

func (s *S3Store) putFile(ctx context.Context, prefix, filePath string) error {
	f, err := s.fs.Open(filePath)
	if err != nil {
		return errors.Wrapf(errors.CodePublishFailed, err, "opening artifact %s", filePath)
	}
	defer f.Close()

	data, err := io.ReadAll(f)
	if err != nil {
		return errors.Wrapf(errors.CodePublishFailed, err, "reading artifact %s", filePath)
	}

	key := path.Join(prefix, path.Base(filePath))
	_, err = s.client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:        aws.String(s.bucket),
		Key:           aws.String(key),
		Body:          bytes.NewReader(data),
		ContentType:   aws.String("application/octet-stream"),
		ContentLength: aws.Int64(int64(len(data))),
	})
	if err != nil {
		return errors.Wrapf(errors.CodePublishFailed, err, "uploading s3 object %s", key)
	}
	return nil
}
