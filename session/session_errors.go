package session

import "errors"

var (
	// AuthRequiredErr means there are no usable credentials: either none were
	// stored, or a refresh attempt failed and the stored pair was cleared.
	// Callers should send the user back through a login flow.
	AuthRequiredErr = errors.New("authentication required")

	RefreshRejectedErr = errors.New("refresh token rejected")
)
