package cloud

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	awscreds "github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"

	"github.com/rescale/pdfmerge/internal/config"
	"github.com/rescale/pdfmerge/internal/constants"
)

// S3API is the subset of the S3 client used by S3Sink.
type S3API interface {
	PutObject(ctx context.Context, params *s3.PutObjectInput, optFns ...func(*s3.Options)) (*s3.PutObjectOutput, error)
}

// S3Sink uploads documents to an S3 (or S3-compatible) bucket.
type S3Sink struct {
	client S3API
	dest   Destination
	now    func() time.Time
}

// NewS3Sink creates an S3 client from the default AWS config chain. Static
// credentials and a custom endpoint are used when configured.
func NewS3Sink(ctx context.Context, dest Destination, out config.OutputConfig, httpClient *http.Client) (*S3Sink, error) {
	opts := []func(*awsconfig.LoadOptions) error{}
	if out.S3Region != "" {
		opts = append(opts, awsconfig.WithRegion(out.S3Region))
	}
	if httpClient != nil {
		opts = append(opts, awsconfig.WithHTTPClient(httpClient))
	}
	if out.S3AccessKeyID != "" {
		opts = append(opts, awsconfig.WithCredentialsProvider(
			awscreds.NewStaticCredentialsProvider(out.S3AccessKeyID, out.S3SecretAccessKey, ""),
		))
	}

	cfg, err := awsconfig.LoadDefaultConfig(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to load AWS config: %w", err)
	}

	client := s3.NewFromConfig(cfg, func(o *s3.Options) {
		if out.S3Endpoint != "" {
			o.BaseEndpoint = aws.String(out.S3Endpoint)
			o.UsePathStyle = true
		}
	})

	return newS3Sink(client, dest), nil
}

func newS3Sink(client S3API, dest Destination) *S3Sink {
	return &S3Sink{client: client, dest: dest, now: time.Now}
}

func (s *S3Sink) String() string { return s.dest.String() }

// Put uploads body under the destination prefix with a timestamped name.
func (s *S3Sink) Put(ctx context.Context, name string, body io.ReadSeeker, size int64) (string, error) {
	key := s.dest.key(stampedName(name, s.now()))

	input := &s3.PutObjectInput{
		Bucket:      aws.String(s.dest.Bucket),
		Key:         aws.String(key),
		Body:        body,
		ContentType: aws.String(constants.PDFMIMEType),
	}
	if size >= 0 {
		input.ContentLength = aws.Int64(size)
	}

	if _, err := s.client.PutObject(ctx, input); err != nil {
		return "", fmt.Errorf("failed to upload to s3://%s/%s: %w", s.dest.Bucket, key, err)
	}
	return fmt.Sprintf("s3://%s/%s", s.dest.Bucket, key), nil
}
