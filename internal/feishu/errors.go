package feishu

import (
	"errors"
	"fmt"
)

// ErrMissingCredentials is returned when the client has no app id or secret.
var ErrMissingCredentials = errors.New("feishu: app id and app secret are required")

// ErrNotFound reports an empty payload where the platform should return one.
var ErrNotFound = errors.New("feishu: resource not found")

// APIError carries a non-zero response code from the open platform.
type APIError struct {
	Op     string
	Status int
	Code   int
	Msg    string
}

func (e *APIError) Error() string {
	if e.Code != 0 {
		return fmt.Sprintf("feishu: %s failed: code=%d msg=%s", e.Op, e.Code, e.Msg)
	}
	return fmt.Sprintf("feishu: %s failed: http status %d", e.Op, e.Status)
}

// IsAPIError reports whether err wraps an *APIError.
func IsAPIError(err error) bool {
	var apiErr *APIError
	return errors.As(err, &apiErr)
}
