package filestore

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"
	"github.com/dmitrijs2005/filekeeper/internal/common"
)

var (
	loadDefaultAWSConfig = config.LoadDefaultConfig

	newS3ClientFromConfig = func(cfg aws.Config, optFns ...func(*s3.Options)) objectAPI {
		return s3.NewFromConfig(cfg, optFns...)
	}
)

// objectAPI is the part of *s3.Client the store uses.
type objectAPI interface {
	HeadBucket(ctx context.Context, in *s3.HeadBucketInput, optFns ...func(*s3.Options)) (*s3.HeadBucketOutput, error)
	CreateBucket(ctx context.Context, in *s3.CreateBucketInput, optFns ...func(*s3.Options)) (*s3.CreateBucketOutput, error)
	PutObject(ctx context.Context, in *s3.PutObjectInput, optFns ...func(*s3.Options)) (*s3.PutObjectOutput, error)
	HeadObject(ctx context.Context, in *s3.HeadObjectInput, optFns ...func(*s3.Options)) (*s3.HeadObjectOutput, error)
	DeleteObject(ctx context.Context, in *s3.DeleteObjectInput, optFns ...func(*s3.Options)) (*s3.DeleteObjectOutput, error)
}

type S3Config struct {
	Endpoint    string
	Region      string
	AccessKey   string
	SecretKey   string
	Bucket      string
	ContentType string
	Ext         string
}

// S3Store keeps objects in a single bucket of an S3 compatible service
// (MinIO in development). The bucket is created on first write.
type S3Store struct {
	client objectAPI
	cfg    S3Config

	mu           sync.Mutex
	bucketExists bool
}

func NewS3Store(ctx context.Context, cfg S3Config) (*S3Store, error) {
	awsCfg, err := loadDefaultAWSConfig(ctx,
		config.WithRegion(cfg.Region),
		config.WithCredentialsProvider(credentials.NewStaticCredentialsProvider(
			cfg.AccessKey,
			cfg.SecretKey,
			"",
		)))
	if err != nil {
		return nil, fmt.Errorf("load aws config: %w", err)
	}

	client := newS3ClientFromConfig(awsCfg, func(o *s3.Options) {
		if cfg.Endpoint != "" {
			o.BaseEndpoint = aws.String(cfg.Endpoint)
		}
		o.UsePathStyle = true
	})

	return newS3Store(client, cfg), nil
}

func newS3Store(client objectAPI, cfg S3Config) *S3Store {
	return &S3Store{client: client, cfg: cfg}
}

func (s *S3Store) Write(ctx context.Context, data []byte) (string, error) {
	if err := ctxErr(ctx); err != nil {
		return "", fmt.Errorf("write: %w", err)
	}
	if err := s.ensureBucket(ctx); err != nil {
		return "", err
	}

	address := newAddress(s.cfg.Ext)
	in := &s3.PutObjectInput{
		Bucket:        aws.String(s.cfg.Bucket),
		Key:           aws.String(address),
		Body:          bytes.NewReader(data),
		ContentLength: aws.Int64(int64(len(data))),
	}
	if s.cfg.ContentType != "" {
		in.ContentType = aws.String(s.cfg.ContentType)
	}

	if _, err := s.client.PutObject(ctx, in); err != nil {
		return "", s.wrap(ctx, "put", address, err)
	}
	return address, nil
}

// Remove checks for the object first: DeleteObject succeeds on missing keys,
// and callers need to tell a missing object apart from a removed one.
func (s *S3Store) Remove(ctx context.Context, address string) error {
	if err := ctxErr(ctx); err != nil {
		return fmt.Errorf("remove %s: %w", address, err)
	}
	if err := validAddress(address); err != nil {
		return err
	}

	_, err := s.client.HeadObject(ctx, &s3.HeadObjectInput{
		Bucket: aws.String(s.cfg.Bucket),
		Key:    aws.String(address),
	})
	if err != nil {
		return s.wrap(ctx, "head", address, err)
	}

	_, err = s.client.DeleteObject(ctx, &s3.DeleteObjectInput{
		Bucket: aws.String(s.cfg.Bucket),
		Key:    aws.String(address),
	})
	if err != nil {
		return s.wrap(ctx, "delete", address, err)
	}
	return nil
}

func (s *S3Store) ensureBucket(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.bucketExists {
		return nil
	}

	bucket := aws.String(s.cfg.Bucket)
	if _, err := s.client.HeadBucket(ctx, &s3.HeadBucketInput{Bucket: bucket}); err != nil {
		_, err = s.client.CreateBucket(ctx, &s3.CreateBucketInput{Bucket: bucket})
		var owned *types.BucketAlreadyOwnedByYou
		if err != nil && !errors.As(err, &owned) {
			return s.wrap(ctx, "create bucket", s.cfg.Bucket, err)
		}
	}

	s.bucketExists = true
	return nil
}

func (s *S3Store) wrap(ctx context.Context, op, key string, err error) error {
	if ctx.Err() != nil {
		return fmt.Errorf("%s %s: %w", op, key, common.WrapTimeout(ctx.Err()))
	}

	var notFound *types.NotFound
	var noKey *types.NoSuchKey
	if errors.As(err, &notFound) || errors.As(err, &noKey) {
		return fmt.Errorf("%w: %s %s: %w", common.ErrStorage, op, key, common.ErrorNotFound)
	}
	return fmt.Errorf("%w: %s %s: %w", common.ErrStorage, op, key, err)
}
