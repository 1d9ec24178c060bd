package origin

import (
	"context"
	"io"
	"strings"

	"github.com/jmgilman/go/errors"
	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"

	"github.com/krisalay/image-cache/types"
)

type S3Options struct {
	Endpoint  string
	Bucket    string
	AccessKey string
	SecretKey string
	UseSSL    bool

	// Prefix is prepended to every object name.
	Prefix string

	MaxBytes int64

	// Client overrides the client built from the fields above.
	Client *minio.Client
}

// S3 fetches images from an S3 compatible bucket.
type S3 struct {
	client   *minio.Client
	bucket   string
	prefix   string
	maxBytes int64
}

// NewS3 builds a fetcher. It does not contact the store.
func NewS3(opts S3Options) (*S3, error) {
	if opts.Bucket == "" {
		return nil, errors.New(errors.CodeInvalidConfig, "s3 origin requires a bucket")
	}
	if opts.MaxBytes <= 0 {
		opts.MaxBytes = DefaultMaxBytes
	}

	client := opts.Client
	if client == nil {
		if opts.Endpoint == "" {
			return nil, errors.New(errors.CodeInvalidConfig, "s3 origin requires an endpoint")
		}
		var err error
		client, err = minio.New(opts.Endpoint, &minio.Options{
			Creds:  credentials.NewStaticV4(opts.AccessKey, opts.SecretKey, ""),
			Secure: opts.UseSSL,
		})
		if err != nil {
			return nil, errors.Wrap(err, errors.CodeInvalidConfig, "failed to create s3 client")
		}
	}

	return &S3{
		client:   client,
		bucket:   opts.Bucket,
		prefix:   strings.Trim(opts.Prefix, "/"),
		maxBytes: opts.MaxBytes,
	}, nil
}

// Fetch downloads the object named by key.
func (s *S3) Fetch(ctx context.Context, key string) (types.Object, error) {
	name := s.objectName(key)

	// GetObject is lazy; errors surface on Stat or Read.
	obj, err := s.client.GetObject(ctx, s.bucket, name, minio.GetObjectOptions{})
	if err != nil {
		return types.Object{}, translate(key, err)
	}
	defer func() { _ = obj.Close() }()

	info, err := obj.Stat()
	if err != nil {
		return types.Object{}, translate(key, err)
	}
	if info.Size > s.maxBytes {
		return types.Object{}, types.Unavailable(key, errors.Newf(errors.CodeInvalidInput, "object is %d bytes", info.Size))
	}

	body, err := io.ReadAll(obj)
	if err != nil {
		return types.Object{}, translate(key, err)
	}

	return types.Object{
		Payload: body,
		Format:  types.FormatFromContentType(info.ContentType),
	}, nil
}

func (s *S3) objectName(key string) string {
	key = strings.TrimPrefix(key, "/")
	if s.prefix == "" {
		return key
	}
	return s.prefix + "/" + key
}

// translate maps store error codes onto the fetch error taxonomy.
func translate(key string, err error) error {
	switch minio.ToErrorResponse(err).Code {
	case "NoSuchKey", "NoSuchBucket":
		return types.NotFound(key, err)
	}
	return types.Unavailable(key, err)
}
