package s3

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/feature/s3/manager"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"
	"github.com/aws/smithy-go/middleware"
	smithyhttp "github.com/aws/smithy-go/transport/http"
	"github.com/tendant/medical-artists/pkg/medart"
)

// Config options for the S3 backend
type Config struct {
	Region          string // AWS region
	Bucket          string // S3 bucket name
	AccessKeyID     string // AWS access key ID
	SecretAccessKey string // AWS secret access key
	Endpoint        string // Optional custom endpoint for S3-compatible services
	UsePathStyle    bool   // Use path-style addressing (default: false)

	// MinIO/S3-compatible service options
	CreateBucketIfNotExist bool // Create bucket if it doesn't exist
}

// Backend is an S3-compatible implementation of medart.Presigner,
// medart.ObjectInspector and medart.Pinger
type Backend struct {
	client        *s3.Client
	bucket        string
	presignClient *s3.PresignClient
	config        Config
}

var (
	_ medart.Presigner       = (*Backend)(nil)
	_ medart.ObjectInspector = (*Backend)(nil)
	_ medart.Pinger          = (*Backend)(nil)
)

// New creates a new S3-compatible storage backend
func New(config Config) (*Backend, error) {
	if config.Bucket == "" {
		return nil, fmt.Errorf("bucket name is required: %w", medart.ErrStorageConfig)
	}
	if (config.AccessKeyID == "") != (config.SecretAccessKey == "") {
		return nil, fmt.Errorf("access key id and secret access key must be set together: %w", medart.ErrStorageConfig)
	}

	if config.Region == "" {
		config.Region = "us-east-1"
	}

	loadOpts := []func(*awsconfig.LoadOptions) error{
		awsconfig.WithRegion(config.Region),
	}
	if config.AccessKeyID != "" {
		loadOpts = append(loadOpts, awsconfig.WithCredentialsProvider(
			credentials.NewStaticCredentialsProvider(config.AccessKeyID, config.SecretAccessKey, ""),
		))
	}

	awsCfg, err := awsconfig.LoadDefaultConfig(context.Background(), loadOpts...)
	if err != nil {
		return nil, fmt.Errorf("failed to load AWS config: %w", err)
	}

	client := s3.NewFromConfig(awsCfg, func(o *s3.Options) {
		if config.Endpoint != "" {
			o.BaseEndpoint = aws.String(config.Endpoint)
		}
		o.UsePathStyle = config.UsePathStyle
		// S3-compatible providers reject checksum headers the SDK would
		// otherwise add to every PutObject.
		o.RequestChecksumCalculation = aws.RequestChecksumCalculationWhenRequired
		o.ResponseChecksumValidation = aws.ResponseChecksumValidationWhenRequired
	})

	backend := &Backend{
		client:        client,
		bucket:        config.Bucket,
		presignClient: s3.NewPresignClient(client),
		config:        config,
	}

	if config.CreateBucketIfNotExist {
		if err := backend.createBucketIfNotExists(context.Background()); err != nil {
			return nil, fmt.Errorf("failed to create bucket: %w", err)
		}
	}

	return backend, nil
}

// createBucketIfNotExists creates the bucket if it doesn't exist
func (b *Backend) createBucketIfNotExists(ctx context.Context) error {
	_, err := b.client.HeadBucket(ctx, &s3.HeadBucketInput{
		Bucket: aws.String(b.bucket),
	})
	if err == nil {
		return nil
	}

	var notFound *types.NotFound
	var noSuchBucket *types.NoSuchBucket
	if !errors.As(err, &notFound) && !errors.As(err, &noSuchBucket) &&
		!strings.Contains(err.Error(), "NoSuchBucket") {
		return fmt.Errorf("failed to check bucket: %w", classifyError(err))
	}

	createInput := &s3.CreateBucketInput{
		Bucket: aws.String(b.bucket),
	}
	if b.config.Region != "us-east-1" {
		createInput.CreateBucketConfiguration = &types.CreateBucketConfiguration{
			LocationConstraint: types.BucketLocationConstraint(b.config.Region),
		}
	}

	if _, err := b.client.CreateBucket(ctx, createInput); err != nil {
		if strings.Contains(err.Error(), "BucketAlreadyExists") ||
			strings.Contains(err.Error(), "BucketAlreadyOwnedByYou") {
			return nil
		}
		return classifyError(err)
	}
	return nil
}

// PresignPut returns a pre-signed PUT URL for the given content type. The
// signature covers only the host header, so the content type is advisory
// and ConfirmUpload checks the stored object.
func (b *Backend) PresignPut(ctx context.Context, in medart.PresignPutInput) (string, error) {
	expires := in.Expires
	if expires <= 0 {
		expires = medart.DefaultGrantTTL
	}

	result, err := b.presignClient.PresignPutObject(ctx, b.putObjectInput(in), func(opts *s3.PresignOptions) {
		opts.Expires = expires
		opts.ClientOptions = append(opts.ClientOptions, func(o *s3.Options) {
			o.RequestChecksumCalculation = aws.RequestChecksumCalculationWhenRequired
			o.APIOptions = append(o.APIOptions, restrictSignedHeaders)
		})
	})
	if err != nil {
		return "", fmt.Errorf("failed to generate presigned upload URL: %w", classifyError(err))
	}

	return result.URL, nil
}

func (b *Backend) putObjectInput(in medart.PresignPutInput) *s3.PutObjectInput {
	input := &s3.PutObjectInput{
		Bucket: aws.String(b.bucket),
		Key:    aws.String(in.Key),
	}
	if in.ContentType != "" {
		input.ContentType = aws.String(in.ContentType)
	}
	return input
}

// HeadObject retrieves metadata for an uploaded object
func (b *Backend) HeadObject(ctx context.Context, key string) (*medart.ObjectInfo, error) {
	result, err := b.client.HeadObject(ctx, &s3.HeadObjectInput{
		Bucket: aws.String(b.bucket),
		Key:    aws.String(key),
	})
	if err != nil {
		if isNotFound(err) {
			return nil, medart.ErrObjectNotFound
		}
		return nil, fmt.Errorf("failed to get object metadata: %w", classifyError(err))
	}

	info := &medart.ObjectInfo{
		Key:         key,
		Size:        aws.ToInt64(result.ContentLength),
		ContentType: aws.ToString(result.ContentType),
		ETag:        strings.Trim(aws.ToString(result.ETag), "\""),
	}
	if result.LastModified != nil {
		info.UpdatedAt = result.LastModified.UTC()
	} else {
		info.UpdatedAt = time.Now().UTC()
	}
	return info, nil
}

// Ping checks the bucket exists and the credentials can reach it
func (b *Backend) Ping(ctx context.Context) error {
	_, err := b.client.HeadBucket(ctx, &s3.HeadBucketInput{
		Bucket: aws.String(b.bucket),
	})
	if err != nil {
		return fmt.Errorf("bucket %s: %w", b.bucket, classifyError(err))
	}
	return nil
}

// Upload writes content directly to the bucket with the server's credentials.
// Used for operator tasks such as seeding the placeholder image.
func (b *Backend) Upload(ctx context.Context, key, contentType string, reader io.Reader) error {
	uploader := manager.NewUploader(b.client)

	input := &s3.PutObjectInput{
		Bucket: aws.String(b.bucket),
		Key:    aws.String(key),
		Body:   reader,
	}
	if contentType != "" {
		input.ContentType = aws.String(contentType)
	}

	if _, err := uploader.Upload(ctx, input); err != nil {
		return fmt.Errorf("failed to upload to S3: %w", classifyError(err))
	}
	return nil
}

func isNotFound(err error) bool {
	var notFound *types.NotFound
	var noSuchKey *types.NoSuchKey
	if errors.As(err, &notFound) || errors.As(err, &noSuchKey) {
		return true
	}
	var respErr *smithyhttp.ResponseError
	return errors.As(err, &respErr) && respErr.HTTPStatusCode() == 404 && !strings.Contains(err.Error(), "NoSuchBucket")
}

const signedHeaderAllowlistID = "MedartSignedHeaderAllowlist"

// restrictSignedHeaders strips every header before presigning so the
// signature covers host alone. Host is taken from the URL, not the header map.
func restrictSignedHeaders(stack *middleware.Stack) error {
	mw := middleware.FinalizeMiddlewareFunc(signedHeaderAllowlistID, func(
		ctx context.Context, in middleware.FinalizeInput, next middleware.FinalizeHandler,
	) (middleware.FinalizeOutput, middleware.Metadata, error) {
		if req, ok := in.Request.(*smithyhttp.Request); ok {
			for name := range req.Header {
				delete(req.Header, name)
			}
		}
		return next.HandleFinalize(ctx, in)
	})

	if err := stack.Finalize.Insert(mw, "PresignHTTPRequest", middleware.Before); err != nil {
		return stack.Finalize.Add(mw, middleware.Before)
	}
	return nil
}
