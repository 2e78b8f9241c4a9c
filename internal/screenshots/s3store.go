package screenshots

import (
	"bytes"
	"context"
	"errors"
	"fmt"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"
)

// S3Store persists screenshots to a configured bucket, keyed
// "<runID>/<hash>.png", so they outlive the process for long-running
// check campaigns (SPEC_FULL §4.11).
type S3Store struct {
	client *s3.Client
	bucket string
	runID  string
}

// NewS3Store loads the default AWS config chain (env vars, shared config,
// instance role) and returns a Store bound to bucket.
func NewS3Store(ctx context.Context, bucket, runID string) (*S3Store, error) {
	cfg, err := config.LoadDefaultConfig(ctx)
	if err != nil {
		return nil, fmt.Errorf("screenshots: load AWS config: %w", err)
	}
	return &S3Store{client: s3.NewFromConfig(cfg), bucket: bucket, runID: runID}, nil
}

func (s *S3Store) key(hash string) string {
	return fmt.Sprintf("%s/%s.png", s.runID, hash)
}

func (s *S3Store) Put(hash string, png []byte) error {
	ctx := context.Background()
	if _, ok, err := s.Get(hash); err == nil && ok {
		return nil
	}
	_, err := s.client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:      aws.String(s.bucket),
		Key:         aws.String(s.key(hash)),
		Body:        bytes.NewReader(png),
		ContentType: aws.String("image/png"),
	})
	if err != nil {
		return fmt.Errorf("screenshots: put %s: %w", s.key(hash), err)
	}
	return nil
}

func (s *S3Store) Get(hash string) ([]byte, bool, error) {
	ctx := context.Background()
	out, err := s.client.GetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(s.key(hash)),
	})
	if err != nil {
		var nf *types.NoSuchKey
		if errors.As(err, &nf) {
			return nil, false, nil
		}
		return nil, false, fmt.Errorf("screenshots: get %s: %w", s.key(hash), err)
	}
	defer out.Body.Close()

	buf := new(bytes.Buffer)
	if _, err := buf.ReadFrom(out.Body); err != nil {
		return nil, false, fmt.Errorf("screenshots: read %s: %w", s.key(hash), err)
	}
	return buf.Bytes(), true, nil
}
