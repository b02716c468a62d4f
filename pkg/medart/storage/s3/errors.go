package s3

import (
	"context"
	"errors"
	"fmt"
	"net"

	"github.com/aws/smithy-go"
	smithyhttp "github.com/aws/smithy-go/transport/http"
	"github.com/tendant/medical-artists/pkg/medart"
)

// classifyError tags provider errors with the medart storage error kinds.
// The original error stays in the chain for server-side logging.
func classifyError(err error) error {
	if err == nil {
		return nil
	}

	var apiErr smithy.APIError
	if errors.As(err, &apiErr) {
		switch apiErr.ErrorCode() {
		case "InvalidAccessKeyId", "SignatureDoesNotMatch", "AccessDenied",
			"ExpiredToken", "InvalidToken", "Forbidden":
			return fmt.Errorf("%w: %w", medart.ErrStorageAuth, err)
		case "NoSuchBucket", "InvalidBucketName", "PermanentRedirect", "AuthorizationHeaderMalformed":
			return fmt.Errorf("%w: %w", medart.ErrStorageConfig, err)
		case "SlowDown", "ServiceUnavailable", "InternalError", "RequestTimeout":
			return fmt.Errorf("%w: %w", medart.ErrStorageUnavailable, err)
		}
	}

	var respErr *smithyhttp.ResponseError
	if errors.As(err, &respErr) {
		switch code := respErr.HTTPStatusCode(); {
		case code == 401 || code == 403:
			return fmt.Errorf("%w: %w", medart.ErrStorageAuth, err)
		case code >= 500:
			return fmt.Errorf("%w: %w", medart.ErrStorageUnavailable, err)
		}
	}

	var netErr net.Error
	if errors.As(err, &netErr) || errors.Is(err, context.DeadlineExceeded) {
		return fmt.Errorf("%w: %w", medart.ErrStorageUnavailable, err)
	}

	return err
}
