package s3

import (
	"context"
	"errors"
	"net/url"
	"os"
	"strings"
	"testing"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/smithy-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tendant/medical-artists/pkg/medart"
)

func offlineConfig() Config {
	return Config{
		Region:          "us-east-1",
		Bucket:          "medart-test",
		AccessKeyID:     "test-key",
		SecretAccessKey: "test-secret",
		Endpoint:        "http://localhost:9000",
		UsePathStyle:    true,
	}
}

func TestS3Backend_Configuration(t *testing.T) {
	t.Run("EmptyBucket", func(t *testing.T) {
		_, err := New(Config{Region: "us-east-1"})
		require.Error(t, err)
		assert.ErrorIs(t, err, medart.ErrStorageConfig)
		assert.Contains(t, err.Error(), "bucket name is required")
	})

	t.Run("HalfCredentials", func(t *testing.T) {
		_, err := New(Config{Bucket: "b", AccessKeyID: "only-id"})
		assert.ErrorIs(t, err, medart.ErrStorageConfig)
	})

	t.Run("DefaultRegion", func(t *testing.T) {
		cfg := offlineConfig()
		cfg.Region = ""
		backend, err := New(cfg)
		require.NoError(t, err)
		assert.Equal(t, "us-east-1", backend.config.Region)
	})
}

func TestS3Backend_PresignPut(t *testing.T) {
	backend, err := New(offlineConfig())
	require.NoError(t, err)

	raw, err := backend.PresignPut(context.Background(), medart.PresignPutInput{
		Key:         "users/u1/images/abc/original.png",
		ContentType: "image/png",
		Expires:     300 * time.Second,
	})
	require.NoError(t, err)

	u, err := url.Parse(raw)
	require.NoError(t, err)
	assert.Equal(t, "localhost:9000", u.Host)
	assert.Equal(t, "/medart-test/users/u1/images/abc/original.png", u.Path)

	q := u.Query()
	assert.Equal(t, "host", q.Get("X-Amz-SignedHeaders"))
	assert.Equal(t, "300", q.Get("X-Amz-Expires"))
	assert.Equal(t, "AWS4-HMAC-SHA256", q.Get("X-Amz-Algorithm"))
	assert.NotEmpty(t, q.Get("X-Amz-Signature"))

	for name := range q {
		lower := strings.ToLower(name)
		assert.False(t, strings.HasPrefix(lower, "x-amz-checksum"), "unexpected checksum parameter %s", name)
		assert.NotEqual(t, "x-amz-sdk-checksum-algorithm", lower)
	}
}

func TestS3Backend_PutObjectInputCarriesContentType(t *testing.T) {
	backend, err := New(offlineConfig())
	require.NoError(t, err)

	tests := []struct {
		name        string
		contentType string
		want        *string
	}{
		{"with content type", "image/png", aws.String("image/png")},
		{"without content type", "", nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			input := backend.putObjectInput(medart.PresignPutInput{Key: "k.png", ContentType: tt.contentType})
			assert.Equal(t, "medart-test", aws.ToString(input.Bucket))
			assert.Equal(t, "k.png", aws.ToString(input.Key))
			assert.Equal(t, tt.want, input.ContentType)

			raw, err := backend.PresignPut(context.Background(), medart.PresignPutInput{Key: "k.png", ContentType: tt.contentType})
			require.NoError(t, err)
			u, err := url.Parse(raw)
			require.NoError(t, err)
			assert.Equal(t, "host", u.Query().Get("X-Amz-SignedHeaders"))
		})
	}
}

func TestS3Backend_PresignPutDefaultExpiry(t *testing.T) {
	backend, err := New(offlineConfig())
	require.NoError(t, err)

	raw, err := backend.PresignPut(context.Background(), medart.PresignPutInput{Key: "k.png"})
	require.NoError(t, err)

	u, err := url.Parse(raw)
	require.NoError(t, err)
	assert.Equal(t, "300", u.Query().Get("X-Amz-Expires"))
}

func TestClassifyError(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want error
	}{
		{name: "bad key", err: &smithy.GenericAPIError{Code: "InvalidAccessKeyId"}, want: medart.ErrStorageAuth},
		{name: "bad signature", err: &smithy.GenericAPIError{Code: "SignatureDoesNotMatch"}, want: medart.ErrStorageAuth},
		{name: "denied", err: &smithy.GenericAPIError{Code: "AccessDenied"}, want: medart.ErrStorageAuth},
		{name: "missing bucket", err: &smithy.GenericAPIError{Code: "NoSuchBucket"}, want: medart.ErrStorageConfig},
		{name: "throttled", err: &smithy.GenericAPIError{Code: "SlowDown"}, want: medart.ErrStorageUnavailable},
		{name: "deadline", err: context.DeadlineExceeded, want: medart.ErrStorageUnavailable},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := classifyError(tt.err)
			assert.ErrorIs(t, got, tt.want)
			assert.ErrorIs(t, got, tt.err)
		})
	}

	plain := errors.New("boom")
	assert.Equal(t, plain, classifyError(plain))
	assert.Nil(t, classifyError(nil))
}

// TestS3Backend_Integration runs against a real S3-compatible service when
// MEDART_TEST_S3_ENDPOINT is set, e.g. a local MinIO.
func TestS3Backend_Integration(t *testing.T) {
	endpoint := os.Getenv("MEDART_TEST_S3_ENDPOINT")
	if endpoint == "" {
		t.Skip("MEDART_TEST_S3_ENDPOINT not set")
	}

	cfg := Config{
		Region:                 "us-east-1",
		Bucket:                 "medart-integration",
		AccessKeyID:            os.Getenv("MEDART_TEST_S3_ACCESS_KEY_ID"),
		SecretAccessKey:        os.Getenv("MEDART_TEST_S3_SECRET_ACCESS_KEY"),
		Endpoint:               endpoint,
		UsePathStyle:           true,
		CreateBucketIfNotExist: true,
	}
	backend, err := New(cfg)
	require.NoError(t, err)

	ctx := context.Background()
	require.NoError(t, backend.Ping(ctx))

	_, err = backend.HeadObject(ctx, "missing/"+time.Now().Format("150405.000000"))
	assert.ErrorIs(t, err, medart.ErrObjectNotFound)

	key := "integration/" + time.Now().Format("20060102150405") + ".png"
	require.NoError(t, backend.Upload(ctx, key, "image/png", strings.NewReader("\x89PNG fake")))

	info, err := backend.HeadObject(ctx, key)
	require.NoError(t, err)
	assert.Equal(t, int64(9), info.Size)
	assert.Equal(t, "image/png", info.ContentType)
}
