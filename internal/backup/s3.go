package backup

import (
	"context"
	"fmt"
	"os"
	"path"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/s3"

	"github.com/julianstephens/pills/internal/constants"
	"github.com/julianstephens/pills/internal/logger"
)

// ObjectPutter is the subset of the S3 client used for uploads.
type ObjectPutter interface {
	PutObject(ctx context.Context, params *s3.PutObjectInput, optFns ...func(*s3.Options)) (*s3.PutObjectOutput, error)
}

type S3Config struct {
	Bucket   string
	Prefix   string
	Region   string
	Endpoint string // S3-compatible endpoint such as MinIO; enables path-style addressing
}

// Uploader copies backup files to an S3 bucket.
type Uploader struct {
	client ObjectPutter
	bucket string
	prefix string
}

func NewUploader(ctx context.Context, cfg S3Config) (*Uploader, error) {
	if cfg.Bucket == "" {
		return nil, fmt.Errorf("no backup bucket configured (set %s)", constants.EnvBackupBucket)
	}
	region := cfg.Region
	if region == "" {
		region = constants.DefaultAWSRegion
	}
	awsCfg, err := config.LoadDefaultConfig(ctx, config.WithRegion(region))
	if err != nil {
		return nil, fmt.Errorf("failed to load AWS config: %w", err)
	}
	client := s3.NewFromConfig(awsCfg, func(o *s3.Options) {
		if cfg.Endpoint != "" {
			o.BaseEndpoint = aws.String(cfg.Endpoint)
			o.UsePathStyle = true
		}
	})
	return NewUploaderWithClient(client, cfg.Bucket, cfg.Prefix), nil
}

func NewUploaderWithClient(client ObjectPutter, bucket, prefix string) *Uploader {
	return &Uploader{client: client, bucket: bucket, prefix: prefix}
}

// Key returns the object key for a backup.
func (u *Uploader) Key(info Info) string {
	return path.Join(u.prefix, info.Name)
}

func (u *Uploader) Upload(ctx context.Context, info Info) (string, error) {
	f, err := os.Open(info.Path)
	if err != nil {
		return "", err
	}
	defer f.Close()

	key := u.Key(info)
	_, err = u.client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:        aws.String(u.bucket),
		Key:           aws.String(key),
		Body:          f,
		ContentLength: aws.Int64(info.Size),
		ContentType:   aws.String("application/vnd.sqlite3"),
	})
	if err != nil {
		return "", fmt.Errorf("failed to upload %s to s3://%s/%s: %w", info.Name, u.bucket, key, err)
	}
	logger.Info("Uploaded backup", "bucket", u.bucket, "key", key)
	return fmt.Sprintf("s3://%s/%s", u.bucket, key), nil
}
