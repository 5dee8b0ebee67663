// Package apperr defines the failure kinds shared by the generate, publish and
// engagement paths. Callers match them with errors.Is / errors.As.
package apperr

import (
	"context"
	"errors"
	"fmt"
	"strings"
)

var (
	// ErrConfiguration is fatal and detected before any network call.
	ErrConfiguration = errors.New("configuration error")

	// ErrPermissionDenied means the acting user has the required auto-mode flag turned off.
	ErrPermissionDenied = errors.New("permission denied")

	// ErrNotConnected means there is no usable credential for the platform.
	ErrNotConnected = errors.New("platform not connected")

	// ErrUpstream matches every *UpstreamError.
	ErrUpstream = errors.New("upstream api error")

	// ErrProcessingTimeout means a local poll budget ran out while the remote side was still working.
	ErrProcessingTimeout = errors.New("processing timeout")

	// ErrCanceled means the caller's context ended between two steps.
	ErrCanceled = errors.New("canceled")
)

// UpstreamError is a rejection from a remote API.
type UpstreamError struct {
	Service    string
	Op         string
	StatusCode int
	Detail     string
	Err        error
}

func (e *UpstreamError) Error() string {
	var b strings.Builder
	b.WriteString(e.Service)
	if e.Op != "" {
		b.WriteString(" ")
		b.WriteString(e.Op)
	}
	if e.StatusCode != 0 {
		fmt.Fprintf(&b, ": http %d", e.StatusCode)
	}
	if e.Detail != "" {
		b.WriteString(": ")
		b.WriteString(e.Detail)
	} else if e.Err != nil {
		b.WriteString(": ")
		b.WriteString(e.Err.Error())
	}
	return b.String()
}

func (e *UpstreamError) Unwrap() error {
	return e.Err
}

func (e *UpstreamError) Is(target error) bool {
	return target == ErrUpstream
}

// Upstream builds an *UpstreamError.
func Upstream(service, op string, status int, detail string, err error) error {
	return &UpstreamError{Service: service, Op: op, StatusCode: status, Detail: strings.TrimSpace(detail), Err: err}
}

// Transport wraps a failed round trip. It is ErrCanceled only when the caller's
// ctx has ended; a client timeout stays an upstream failure.
func Transport(ctx context.Context, service, op string, err error) error {
	if ctx.Err() != nil {
		return Canceled(op, err)
	}
	return Upstream(service, op, 0, "", err)
}

// Configuration wraps a configuration problem.
func Configuration(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrConfiguration, fmt.Sprintf(format, args...))
}

// Canceled wraps a context error so it matches both ErrCanceled and the context error.
func Canceled(op string, cause error) error {
	return fmt.Errorf("%s: %w: %w", op, ErrCanceled, cause)
}

// CheckContext returns a Canceled error when ctx is done. State machines call it at every boundary.
func CheckContext(ctx context.Context, state string) error {
	if err := ctx.Err(); err != nil {
		return Canceled("before "+state, err)
	}
	return nil
}
