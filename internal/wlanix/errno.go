// Package wlanix defines the request and callback surface exposed to
// WLAN clients: the root handoff, the Wifi and Supplicant capability
// families, and the nl80211 message session. Requests are plain structs
// delivered over channels; each carries a one-shot Completer the server
// must reply on exactly once.
package wlanix

import "fmt"

// Errno is the failure taxonomy reported to clients on request errors.
type Errno int32

const (
	ErrInternal     Errno = 1
	ErrInvalidArgs  Errno = 2
	ErrBadState     Errno = 3
	ErrNotFound     Errno = 4
	ErrNotSupported Errno = 5
)

func (e Errno) Error() string {
	switch e {
	case ErrInternal:
		return "internal error"
	case ErrInvalidArgs:
		return "invalid arguments"
	case ErrBadState:
		return "bad state"
	case ErrNotFound:
		return "not found"
	case ErrNotSupported:
		return "not supported"
	default:
		return fmt.Sprintf("errno %d", int32(e))
	}
}
