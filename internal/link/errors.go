package link

import (
	"errors"
	"fmt"
)

var (
	// ErrNoDevice means discovery found no brick.
	ErrNoDevice = errors.New("no brick found nearby")

	// ErrAmbiguous means several bricks matched and nobody picked one.
	ErrAmbiguous = errors.New("several bricks found, selection required")

	// ErrPingFailed means the peer answered the verification ping with something other than success.
	ErrPingFailed = errors.New("ping verification failed")

	// ErrUnsupportedNetwork is returned for a network this build cannot open.
	ErrUnsupportedNetwork = errors.New("unsupported network")
)

// DiscoveryError reports that no single brick could be chosen.
type DiscoveryError struct {
	Found int
	Err   error
}

func (e *DiscoveryError) Error() string {
	return fmt.Sprintf("discovery: %v (%d candidates)", e.Err, e.Found)
}

func (e *DiscoveryError) Unwrap() error { return e.Err }

// ConnectionError reports a failed connect or verification.
type ConnectionError struct {
	Address string
	Op      string
	Err     error
}

func (e *ConnectionError) Error() string {
	return fmt.Sprintf("%s %s: %v", e.Op, e.Address, e.Err)
}

func (e *ConnectionError) Unwrap() error { return e.Err }
