package activerest

import (
	"errors"
	"fmt"
)

// TransportError indicates that the server could not be reached at all:
// connection refused, DNS failure, timeout, or a similar fault below the
// HTTP layer. It is never produced for a response the server actually sent.
type TransportError struct {
	BaseURL string
	Err     error
}

// Error implements the error interface.
func (e *TransportError) Error() string {
	return fmt.Sprintf("server unreachable at %s: %v", e.BaseURL, e.Err)
}

// Unwrap returns the underlying transport fault.
func (e *TransportError) Unwrap() error {
	return e.Err
}

// HTTPError represents an application-level HTTP error response
// (status >= 400) that is not a recoverable validation failure.
type HTTPError struct {
	Status  int
	Message string
}

// Error implements the error interface.
func (e *HTTPError) Error() string {
	if e.Message == "" {
		return fmt.Sprintf("http error %d", e.Status)
	}

	return fmt.Sprintf("http error %d: %s", e.Status, e.Message)
}

// Static errors for invalid usage. These are returned before any request
// is issued.
var (
	ErrFilteredElementFetch      = errors.New("fetching a single element with filter conditions set is not supported")
	ErrUnsupportedConditionValue = errors.New("slice and map condition values are not supported")
	ErrMissingPrimaryKey         = errors.New("record has no primary key value")
	ErrClientRequired            = errors.New("client is required")
	ErrSchemaRequired            = errors.New("schema is required")
	ErrRecordFactoryRequired     = errors.New("record factory is required")
	ErrUnexpectedResponseBody    = errors.New("unexpected response body shape")
)

// IsTransportError checks whether the error is a transport failure.
func IsTransportError(err error) bool {
	transportErr := &TransportError{}

	return errors.As(err, &transportErr)
}

// IsHTTPError checks whether the error is an application HTTP error.
func IsHTTPError(err error) bool {
	httpErr := &HTTPError{}

	return errors.As(err, &httpErr)
}

// HTTPStatus returns the status code carried by an HTTPError, or 0 when
// the error is not one.
func HTTPStatus(err error) int {
	httpErr := &HTTPError{}
	if errors.As(err, &httpErr) {
		return httpErr.Status
	}

	return 0
}

// IsNotFound checks whether the error is an HTTP 404 response.
func IsNotFound(err error) bool {
	return HTTPStatus(err) == 404
}
