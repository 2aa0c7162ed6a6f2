package remote

import (
	"context"
	"errors"
	"net"
)

// Sentinel transport errors a Client implementation wraps its
// underlying failures in, so Classify can tell them apart with
// errors.Is regardless of the concrete transport.
var (
	// ErrBadResponse is an upstream 5xx.
	ErrBadResponse = errors.New("remote: bad response")
	// ErrBadRequest is an upstream 4xx that is not an authentication
	// final failure.
	ErrBadRequest = errors.New("remote: bad request")
	// ErrAuthFailed is a final authentication failure; never
	// recoverable by retrying the same request.
	ErrAuthFailed = errors.New("remote: authentication failed")
)

// ErrorTier classifies an error for the sync engine's retry loop
// (§4.4, §7). Grounded in tonimelisma-onedrive-go's classifyError /
// ErrorTier split.
type ErrorTier int

const (
	// TierRecoverable errors are worth retrying after a session
	// refresh: upstream 5xx, non-auth 4xx, transient DNS failure.
	TierRecoverable ErrorTier = iota
	// TierFatal errors abort the run immediately.
	TierFatal
)

// Classify maps an error from a Client call to an ErrorTier. Anything
// not recognized defaults to fatal — unlike a filesystem sync tool
// skipping one bad item, a failed fetch or download here has no safe
// partial-progress interpretation, so silently continuing would risk
// writing an incomplete mirror.
func Classify(err error) ErrorTier {
	if err == nil {
		return TierRecoverable
	}

	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return TierFatal
	}

	if errors.Is(err, ErrAuthFailed) {
		return TierFatal
	}

	if errors.Is(err, ErrBadResponse) || errors.Is(err, ErrBadRequest) {
		return TierRecoverable
	}

	var dnsErr *net.DNSError
	if errors.As(err, &dnsErr) && dnsErr.Temporary() {
		return TierRecoverable
	}

	return TierFatal
}
