// Package blobs stores attachment content in S3-compatible object storage.
package blobs

import (
	"bytes"
	"context"
	"fmt"
	"mime"
	"net/http"
	"net/url"
	"path"
	"path/filepath"
	"strings"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	v4 "github.com/aws/aws-sdk-go-v2/aws/signer/v4"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/codevault/codevault/internal/models"
	"github.com/google/uuid"
)

// KeyPrefix is the folder every attachment is written under.
const KeyPrefix = "vault-files"

// PresignExpiry bounds the lifetime of download links.
const PresignExpiry = 15 * time.Minute

var (
	loadDefaultAWSConfig = config.LoadDefaultConfig

	newS3ClientFromConfig = func(cfg aws.Config, optFns ...func(*s3.Options)) *s3.Client {
		return s3.NewFromConfig(cfg, optFns...)
	}

	newS3PresignClient = func(c *s3.Client) *s3.PresignClient {
		return s3.NewPresignClient(c)
	}

	putObject = func(c *s3.Client, ctx context.Context, in *s3.PutObjectInput, optFns ...func(*s3.Options)) (*s3.PutObjectOutput, error) {
		return c.PutObject(ctx, in, optFns...)
	}

	presignGetObject = func(pc *s3.PresignClient, ctx context.Context, in *s3.GetObjectInput, optFns ...func(*s3.PresignOptions)) (*v4.PresignedHTTPRequest, error) {
		return pc.PresignGetObject(ctx, in, optFns...)
	}
)

// Options configures the connection to object storage.
type Options struct {
	AccessKey    string
	SecretKey    string
	Region       string
	BaseEndpoint string
	Bucket       string
}

// S3Store uploads attachments and issues download links.
type S3Store struct {
	client   *s3.Client
	presign  *s3.PresignClient
	bucket   string
	endpoint string
	now      func() time.Time
}

// NewS3Store builds an S3 client for opts. Path-style addressing is used so
// MinIO and other S3-compatible servers work without DNS bucket routing.
func NewS3Store(ctx context.Context, opts Options) (*S3Store, error) {
	cfg, err := loadDefaultAWSConfig(ctx,
		config.WithRegion(opts.Region),
		config.WithCredentialsProvider(credentials.NewStaticCredentialsProvider(
			opts.AccessKey,
			opts.SecretKey,
			"",
		)))
	if err != nil {
		return nil, fmt.Errorf("load aws config: %w", err)
	}

	client := newS3ClientFromConfig(cfg, func(o *s3.Options) {
		o.BaseEndpoint = aws.String(opts.BaseEndpoint)
		o.UsePathStyle = true
	})

	return &S3Store{
		client:   client,
		presign:  newS3PresignClient(client),
		bucket:   opts.Bucket,
		endpoint: strings.TrimRight(opts.BaseEndpoint, "/"),
		now:      time.Now,
	}, nil
}

// Upload writes data under a fresh key and returns the attachment metadata
// describing it.
func (s *S3Store) Upload(ctx context.Context, data []byte, name, contentType string) (*models.Attachment, error) {
	base := baseName(name)
	key := StorageKey(s.now(), base)
	mimeType := DetectMimeType(base, contentType, data)

	_, err := putObject(s.client, ctx, &s3.PutObjectInput{
		Bucket:        aws.String(s.bucket),
		Key:           aws.String(key),
		Body:          bytes.NewReader(data),
		ContentLength: aws.Int64(int64(len(data))),
		ContentType:   aws.String(mimeType),
	})
	if err != nil {
		return nil, fmt.Errorf("put object %s: %w", key, err)
	}

	return &models.Attachment{
		URL:         s.objectURL(key),
		StoragePath: key,
		FileName:    base,
		MimeType:    mimeType,
		SizeBytes:   int64(len(data)),
	}, nil
}

// PresignGet returns a short-lived GET URL for key.
func (s *S3Store) PresignGet(ctx context.Context, key string) (string, error) {
	req, err := presignGetObject(s.presign, ctx, &s3.GetObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(key),
	}, s3.WithPresignExpires(PresignExpiry))
	if err != nil {
		return "", fmt.Errorf("presign get %s: %w", key, err)
	}
	return req.URL, nil
}

func (s *S3Store) objectURL(key string) string {
	segments := strings.Split(key, "/")
	for i, seg := range segments {
		segments[i] = url.PathEscape(seg)
	}
	return s.endpoint + "/" + url.PathEscape(s.bucket) + "/" + strings.Join(segments, "/")
}

// StorageKey builds the object key for an upload at t.
func StorageKey(t time.Time, base string) string {
	return fmt.Sprintf("%s/%d_%s", KeyPrefix, t.UnixMilli(), base)
}

// DetectMimeType prefers the declared content type, then the file
// extension, then content sniffing.
func DetectMimeType(name, declared string, data []byte) string {
	if declared = strings.TrimSpace(declared); declared != "" {
		return declared
	}
	if byExt := mime.TypeByExtension(strings.ToLower(filepath.Ext(name))); byExt != "" {
		return byExt
	}
	return http.DetectContentType(data)
}

// baseName strips any client-side directory from name. Windows separators
// are honored since browsers on that platform may send full paths.
func baseName(name string) string {
	name = strings.ReplaceAll(name, "\\", "/")
	base := path.Base(strings.TrimSpace(name))
	if base == "." || base == "/" || base == "" {
		return uuid.NewString()
	}
	return base
}
