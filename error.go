package multiprobe

import (
	"errors"
	"fmt"

	"github.com/probelab/multiprobe/internal/transport"
)

var (
	// ErrPermission indicates the OS rejected the raw ICMP socket.
	ErrPermission = transport.ErrPermission

	// ErrNoTargets is returned when a session is created without any
	// target address.
	ErrNoTargets = errors.New("no target addresses")

	// ErrTooManyTargets guards the 16-bit sequence space: more than
	// 65535 in-flight requests could not be told apart.
	ErrTooManyTargets = errors.New("cannot probe more than 65535 addresses in one session")

	// ErrTimeoutTooShort rejects overall timeouts below 100ms.
	ErrTimeoutTooShort = errors.New("timeout shorter than 100ms")

	// ErrRetrySliceTooShort rejects configurations whose per-round
	// share of the timeout drops below 100ms.
	ErrRetrySliceTooShort = errors.New("time between retries shorter than 100ms")
)

// ResolveError reports a target name that could not be resolved to an
// address.
type ResolveError struct {
	Target string
	Err    error
}

func (e *ResolveError) Error() string {
	return fmt.Sprintf("cannot resolve %q: %v", e.Target, e.Err)
}

func (e *ResolveError) Unwrap() error { return e.Err }
