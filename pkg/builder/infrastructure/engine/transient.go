package engine

import (
	"errors"
	"net"

	"github.com/docker/docker/errdefs"
	"github.com/docker/docker/pkg/jsonmessage"
)

// transientError reports whether a registry operation failed in a way worth
// retrying: a network timeout, a daemon side system, unavailable or deadline
// condition, or an error the registry reported inside the progress stream.
// Stream errors carrying an explicit client error code are not retried.
func transientError(err error) bool {
	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return true
	}
	var streamErr *jsonmessage.JSONError
	if errors.As(err, &streamErr) {
		return streamErr.Code == 0 || streamErr.Code >= 500
	}
	return errdefs.IsSystem(err) || errdefs.IsUnavailable(err) || errdefs.IsDeadline(err)
}
