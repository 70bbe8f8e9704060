package mapdata

import (
	"context"
	"os"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/golang/glog"
	"github.com/pkg/errors"
)

// objectGetter is the part of the S3 client the store uses.
type objectGetter interface {
	GetObject(ctx context.Context, params *s3.GetObjectInput, optFns ...func(*s3.Options)) (*s3.GetObjectOutput, error)
}

// S3Store reads chunks from objects in an S3 bucket. Object names are the
// same as the file names FileStore uses, under an optional prefix.
type S3Store struct {
	client objectGetter
	bucket string
	prefix string
}

// S3Config describes where chunks are stored.
type S3Config struct {
	Bucket string
	Prefix string
	Region string

	// Endpoint overrides the S3 endpoint, for S3-compatible servers.
	Endpoint string
}

// NewS3Store creates a store with its own S3 client. Credentials are taken
// from AWS_ACCESS_KEY_ID and AWS_SECRET_ACCESS_KEY when set; otherwise
// requests are anonymous, which suits public map buckets.
func NewS3Store(cfg S3Config) *S3Store {
	opts := s3.Options{
		Region:      cfg.Region,
		Credentials: envCredentials(),
	}
	if cfg.Endpoint != "" {
		opts.BaseEndpoint = aws.String(cfg.Endpoint)
		opts.UsePathStyle = true
	}
	return &S3Store{
		client: s3.New(opts),
		bucket: cfg.Bucket,
		prefix: cfg.Prefix,
	}
}

func envCredentials() aws.CredentialsProvider {
	id, secret := os.Getenv("AWS_ACCESS_KEY_ID"), os.Getenv("AWS_SECRET_ACCESS_KEY")
	if id == "" || secret == "" {
		return aws.AnonymousCredentials{}
	}
	token := os.Getenv("AWS_SESSION_TOKEN")
	return aws.CredentialsProviderFunc(func(context.Context) (aws.Credentials, error) {
		return aws.Credentials{
			AccessKeyID:     id,
			SecretAccessKey: secret,
			SessionToken:    token,
			Source:          "environment",
		}, nil
	})
}

func (s *S3Store) Load(ctx context.Context, key Key) (*Chunk, error) {
	name := s.prefix + FileName(key)
	out, err := s.client.GetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(name),
	})
	if err != nil {
		return nil, errors.Wrapf(ErrStorageAbsent, "s3://%s/%s: %v", s.bucket, name, err)
	}
	defer out.Body.Close()

	c, err := Decode(out.Body)
	if err != nil {
		return nil, errors.Wrapf(ErrStorageAbsent, "s3://%s/%s: %v", s.bucket, name, err)
	}
	if c.Key != key {
		return nil, errors.Wrapf(ErrStorageAbsent, "s3://%s/%s holds chunk %s", s.bucket, name, c.Key)
	}
	glog.V(2).Infof("loaded map chunk %s from s3://%s/%s", key, s.bucket, name)
	return c, nil
}
