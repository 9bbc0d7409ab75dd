package transport

import "fmt"

// NetworkError wraps a transport-level failure (DNS, connection refused,
// timeout) on the original or retried request. Refresh-call failures are not
// NetworkErrors — those surface as session.AuthRequiredErr.
type NetworkError struct {
	Err error
}

func (e *NetworkError) Error() string {
	return fmt.Sprintf("network error: %v", e.Err)
}

func (e *NetworkError) Unwrap() error {
	return e.Err
}

// UpstreamError is a non-401, non-2xx response. Interpretation is left to the
// caller, keyed on Status; Body carries the response payload for error detail.
type UpstreamError struct {
	Status int
	Body   []byte
}

func (e *UpstreamError) Error() string {
	return fmt.Sprintf("upstream error: status %d", e.Status)
}

func (e *UpstreamError) NotFound() bool {
	return e.Status == 404
}
