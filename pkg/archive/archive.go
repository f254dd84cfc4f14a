package archive

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"path"
	"strings"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"

	merrors "github.com/vango-dev/morph/internal/errors"
	"github.com/vango-dev/morph/pkg/patch"
)

// ErrNotFound is returned by Get when no entry exists under the name.
var ErrNotFound = errors.New("archive: entry not found")

// DefaultRegion is used when neither the options nor the environment name
// one.
const DefaultRegion = "us-east-1"

// Client is the subset of *s3.Client the store uses.
type Client interface {
	PutObject(ctx context.Context, in *s3.PutObjectInput, optFns ...func(*s3.Options)) (*s3.PutObjectOutput, error)
	GetObject(ctx context.Context, in *s3.GetObjectInput, optFns ...func(*s3.Options)) (*s3.GetObjectOutput, error)
	DeleteObject(ctx context.Context, in *s3.DeleteObjectInput, optFns ...func(*s3.Options)) (*s3.DeleteObjectOutput, error)
	s3.ListObjectsV2APIClient
}

// Entry is one archived render.
type Entry struct {
	Definition string           `json:"definition"`
	Instance   uint64           `json:"instance"`
	HTML       string           `json:"html"`
	Mutations  []patch.Mutation `json:"mutations,omitempty"`
	Created    time.Time        `json:"created"`
}

// Options configures NewClient.
type Options struct {
	Region string

	// Endpoint overrides the S3 endpoint (MinIO, R2, LocalStack).
	Endpoint string

	// PathStyle forces path-style addressing.
	PathStyle bool
}

// NewClient builds an S3 client from opts on top of the default AWS
// configuration chain (environment, shared config files, instance roles).
// The region falls back to DefaultRegion when no source names one.
func NewClient(ctx context.Context, opts Options) (*s3.Client, error) {
	var loadOpts []func(*awsconfig.LoadOptions) error
	if opts.Region != "" {
		loadOpts = append(loadOpts, awsconfig.WithRegion(opts.Region))
	}
	cfg, err := awsconfig.LoadDefaultConfig(ctx, loadOpts...)
	if err != nil {
		return nil, merrors.New("E130").WithDetail("loading AWS configuration").Wrap(err)
	}
	if cfg.Region == "" {
		cfg.Region = DefaultRegion
	}
	return s3.NewFromConfig(cfg, func(o *s3.Options) {
		o.UsePathStyle = opts.PathStyle
		if opts.Endpoint != "" {
			o.BaseEndpoint = aws.String(opts.Endpoint)
		}
	}), nil
}

// Store reads and writes entries under a key prefix of one bucket.
type Store struct {
	client Client
	bucket string
	prefix string
}

// NewStore creates a store. An empty bucket is a configuration error (E131).
func NewStore(client Client, bucket, prefix string) (*Store, error) {
	if bucket == "" {
		return nil, merrors.New("E131")
	}
	if prefix != "" && !strings.HasSuffix(prefix, "/") {
		prefix += "/"
	}
	return &Store{client: client, bucket: bucket, prefix: prefix}, nil
}

// Bucket returns the bucket name.
func (s *Store) Bucket() string {
	return s.bucket
}

// Key returns the object key for name.
func (s *Store) Key(name string) string {
	return s.prefix + path.Clean("/" + name)[1:] + ".json"
}

// Put writes e under name, replacing any existing entry.
func (s *Store) Put(ctx context.Context, name string, e *Entry) error {
	if e.Created.IsZero() {
		e.Created = time.Now().UTC()
	}
	data, err := json.Marshal(e)
	if err != nil {
		return merrors.New("E130").WithDetail("encode " + name).Wrap(err)
	}
	_, err = s.client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:      aws.String(s.bucket),
		Key:         aws.String(s.Key(name)),
		Body:        bytes.NewReader(data),
		ContentType: aws.String("application/json"),
		Metadata: map[string]string{
			"definition": e.Definition,
		},
	})
	if err != nil {
		return merrors.New("E130").WithDetail("put " + s.Key(name)).Wrap(err)
	}
	return nil
}

// Get reads the entry stored under name.
func (s *Store) Get(ctx context.Context, name string) (*Entry, error) {
	out, err := s.client.GetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(s.Key(name)),
	})
	if err != nil {
		var nsk *types.NoSuchKey
		if errors.As(err, &nsk) {
			return nil, ErrNotFound
		}
		return nil, merrors.New("E130").WithDetail("get " + s.Key(name)).Wrap(err)
	}
	defer out.Body.Close()

	data, err := io.ReadAll(out.Body)
	if err != nil {
		return nil, merrors.New("E130").Wrap(err)
	}
	var e Entry
	if err := json.Unmarshal(data, &e); err != nil {
		return nil, merrors.New("E130").WithDetail("decode " + s.Key(name)).Wrap(err)
	}
	return &e, nil
}

// Delete removes the entry stored under name.
func (s *Store) Delete(ctx context.Context, name string) error {
	_, err := s.client.DeleteObject(ctx, &s3.DeleteObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(s.Key(name)),
	})
	if err != nil {
		return merrors.New("E130").WithDetail("delete " + s.Key(name)).Wrap(err)
	}
	return nil
}

// List returns the names of all entries, in key order.
func (s *Store) List(ctx context.Context) ([]string, error) {
	paginator := s3.NewListObjectsV2Paginator(s.client, &s3.ListObjectsV2Input{
		Bucket: aws.String(s.bucket),
		Prefix: aws.String(s.prefix),
	})

	var names []string
	for paginator.HasMorePages() {
		page, err := paginator.NextPage(ctx)
		if err != nil {
			return nil, merrors.New("E130").WithDetail("list " + s.prefix).Wrap(err)
		}
		for _, obj := range page.Contents {
			key := aws.ToString(obj.Key)
			if !strings.HasSuffix(key, ".json") {
				continue
			}
			names = append(names, strings.TrimSuffix(strings.TrimPrefix(key, s.prefix), ".json"))
		}
	}
	return names, nil
}
