package filestore

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"

	"github.com/patric-chuzhbe/arsipsurat/internal/models"
)

type s3API interface {
	PutObject(ctx context.Context, params *s3.PutObjectInput, optFns ...func(*s3.Options)) (*s3.PutObjectOutput, error)
	GetObject(ctx context.Context, params *s3.GetObjectInput, optFns ...func(*s3.Options)) (*s3.GetObjectOutput, error)
	DeleteObject(ctx context.Context, params *s3.DeleteObjectInput, optFns ...func(*s3.Options)) (*s3.DeleteObjectOutput, error)
}

// S3Config locates the bucket. Endpoint is set for MinIO and other
// S3-compatible servers, which are addressed path-style.
type S3Config struct {
	Bucket    string
	Region    string
	Endpoint  string
	AccessKey string
	SecretKey string
}

// S3 stores attachments as objects in a bucket, keyed by the generated name.
type S3 struct {
	client s3API
	bucket string
	policy Policy
	now    func() time.Time
}

// NewS3 builds an S3 client from static credentials.
func NewS3(ctx context.Context, cfg S3Config, policy Policy) (*S3, error) {
	options := []func(*awsconfig.LoadOptions) error{
		awsconfig.WithRegion(cfg.Region),
	}
	if cfg.AccessKey != "" {
		options = append(options, awsconfig.WithCredentialsProvider(
			credentials.NewStaticCredentialsProvider(cfg.AccessKey, cfg.SecretKey, ""),
		))
	}

	awsCfg, err := awsconfig.LoadDefaultConfig(ctx, options...)
	if err != nil {
		return nil, fmt.Errorf("in internal/filestore/s3.go/NewS3(): error while `awsconfig.LoadDefaultConfig()` calling: %w", err)
	}

	client := s3.NewFromConfig(awsCfg, func(o *s3.Options) {
		if cfg.Endpoint != "" {
			o.BaseEndpoint = aws.String(cfg.Endpoint)
			o.UsePathStyle = true
		}
	})

	return newS3WithClient(client, cfg.Bucket, policy), nil
}

func newS3WithClient(client s3API, bucket string, policy Policy) *S3 {
	return &S3{
		client: client,
		bucket: bucket,
		policy: policy,
		now:    time.Now,
	}
}

// Save checks the upload against the policy and puts it under a new key.
func (s *S3) Save(ctx context.Context, upload *models.Upload) (string, error) {
	checked, err := s.policy.check(upload)
	if err != nil {
		return "", err
	}

	data, err := readLimited(checked.content, s.policy.MaxSize)
	if err != nil {
		return "", err
	}

	name := generateName(s.now(), checked.ext)
	_, err = s.client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:        aws.String(s.bucket),
		Key:           aws.String(name),
		Body:          bytes.NewReader(data),
		ContentLength: aws.Int64(int64(len(data))),
		ContentType:   aws.String(checked.contentType),
	})
	if err != nil {
		return "", fmt.Errorf("in internal/filestore/s3.go/Save(): error while `s.client.PutObject()` calling: %w", err)
	}

	return name, nil
}

// Remove deletes the named object. S3 treats a missing key as deleted.
func (s *S3) Remove(ctx context.Context, name string) error {
	if !ValidName(name) {
		return nil
	}
	_, err := s.client.DeleteObject(ctx, &s3.DeleteObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(name),
	})
	if err != nil {
		return fmt.Errorf("in internal/filestore/s3.go/Remove(): error while `s.client.DeleteObject()` calling: %w", err)
	}

	return nil
}

// Open streams the named object.
func (s *S3) Open(ctx context.Context, name string) (*Object, error) {
	if !ValidName(name) {
		return nil, models.ErrAttachmentNotFound
	}

	out, err := s.client.GetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(name),
	})
	if err != nil {
		var noSuchKey *types.NoSuchKey
		if errors.As(err, &noSuchKey) {
			return nil, models.ErrAttachmentNotFound
		}
		return nil, fmt.Errorf("in internal/filestore/s3.go/Open(): error while `s.client.GetObject()` calling: %w", err)
	}

	return &Object{
		Body:        out.Body,
		Size:        aws.ToInt64(out.ContentLength),
		ContentType: aws.ToString(out.ContentType),
		ModTime:     aws.ToTime(out.LastModified),
	}, nil
}
