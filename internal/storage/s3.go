package storage

import (
	"context"
	"fmt"
	"io"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/google/uuid"

	"bankflow/pkg/domain"
	dErrors "bankflow/pkg/domain-errors"
)

// S3Store keeps blobs in an S3 bucket keyed by customer. Credentials and
// region come from the ambient AWS configuration.
type S3Store struct {
	client *s3.Client
	bucket string
}

func NewS3Store(ctx context.Context, bucket string) (*S3Store, error) {
	if bucket == "" {
		return nil, dErrors.New(dErrors.CodeStorage, "s3 bucket not configured")
	}
	cfg, err := awsconfig.LoadDefaultConfig(ctx)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeStorage, "load AWS configuration")
	}
	return &S3Store{client: s3.NewFromConfig(cfg), bucket: bucket}, nil
}

func (s *S3Store) Put(ctx context.Context, customerID domain.CustomerID, filename string, content io.Reader) (string, error) {
	key := fmt.Sprintf("documents/%s/%s_%s", customerID, uuid.NewString(), filename)

	_, err := s.client.PutObject(ctx, &s3.PutObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(key),
		Body:   content,
	})
	if err != nil {
		return "", dErrors.Wrap(err, dErrors.CodeStorage, "put object")
	}
	return key, nil
}

func (s *S3Store) Delete(ctx context.Context, ref string) error {
	_, err := s.client.DeleteObject(ctx, &s3.DeleteObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(ref),
	})
	if err != nil {
		return dErrors.Wrap(err, dErrors.CodeStorage, "delete object")
	}
	return nil
}
