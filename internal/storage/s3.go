// Package storage dépose les images des posts dans un bucket S3.
package storage

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
)

// ErrForeignURL : l'URL ne désigne pas un objet du bucket.
var ErrForeignURL = errors.New("storage: url does not belong to bucket")

// ObjectAPI est la partie du client S3 utilisée ici.
type ObjectAPI interface {
	PutObject(ctx context.Context, params *s3.PutObjectInput, optFns ...func(*s3.Options)) (*s3.PutObjectOutput, error)
	DeleteObject(ctx context.Context, params *s3.DeleteObjectInput, optFns ...func(*s3.Options)) (*s3.DeleteObjectOutput, error)
}

type S3 struct {
	client ObjectAPI
	bucket string
	region string
}

type Options struct {
	Bucket          string
	Region          string
	AccessKeyID     string
	SecretAccessKey string
}

func NewS3(ctx context.Context, opts Options) (*S3, error) {
	cfg, err := config.LoadDefaultConfig(ctx,
		config.WithRegion(opts.Region),
		config.WithCredentialsProvider(credentials.NewStaticCredentialsProvider(
			opts.AccessKeyID,
			opts.SecretAccessKey,
			"",
		)),
	)
	if err != nil {
		return nil, fmt.Errorf("chargement config AWS: %w", err)
	}
	return NewS3WithClient(s3.NewFromConfig(cfg), opts.Bucket, opts.Region), nil
}

func NewS3WithClient(client ObjectAPI, bucket, region string) *S3 {
	return &S3{client: client, bucket: bucket, region: region}
}

func (s *S3) baseURL() string {
	return fmt.Sprintf("https://%s.s3.%s.amazonaws.com/", s.bucket, s.region)
}

// Upload dépose r sous folder/filename et renvoie son URL publique.
func (s *S3) Upload(ctx context.Context, r io.Reader, filename, contentType, folder string) (string, error) {
	key := fmt.Sprintf("%s/%s", folder, filename)

	_, err := s.client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:      aws.String(s.bucket),
		Key:         aws.String(key),
		Body:        r,
		ContentType: aws.String(contentType),
	})
	if err != nil {
		return "", fmt.Errorf("upload échoué: %w", err)
	}

	return s.baseURL() + key, nil
}

// Delete supprime l'objet désigné par une URL renvoyée par Upload.
func (s *S3) Delete(ctx context.Context, url string) error {
	key := strings.TrimPrefix(url, s.baseURL())
	if key == url || key == "" {
		return ErrForeignURL
	}

	_, err := s.client.DeleteObject(ctx, &s3.DeleteObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(key),
	})
	if err != nil {
		return fmt.Errorf("erreur suppression S3 : %w", err)
	}
	return nil
}
