package wlanix

import (
	"errors"
	"sync"

	"github.com/HerbHall/wlanix/internal/ifacemgr"
	"github.com/HerbHall/wlanix/internal/nl80211"
)

var (
	// ErrCallbackClosed reports that the receiver side hung up. Holders
	// drop the callback on this error.
	ErrCallbackClosed = errors.New("callback receiver is gone")
	// ErrCallbackFull reports that the receiver stopped draining its
	// buffer. The event is dropped.
	ErrCallbackFull = errors.New("callback buffer is full")
)

// callback is a one-way event pipe to a registered client. Send never
// blocks; a slow or departed receiver loses events rather than stalling
// the sender.
type callback[T any] struct {
	mu     sync.Mutex
	ch     chan T
	closed bool
}

func newCallback[T any](buf int) callback[T] {
	return callback[T]{ch: make(chan T, buf)}
}

// Send delivers one event, or reports why it could not.
func (c *callback[T]) Send(v T) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return ErrCallbackClosed
	}
	select {
	case c.ch <- v:
		return nil
	default:
		return ErrCallbackFull
	}
}

// Close hangs up the receiver side. Safe to call more than once and
// concurrently with Send.
func (c *callback[T]) Close() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if !c.closed {
		c.closed = true
		close(c.ch)
	}
}

// Closed reports whether the receiver hung up.
func (c *callback[T]) Closed() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.closed
}

// Events is the receive side of the pipe. It is closed by Close.
func (c *callback[T]) Events() <-chan T { return c.ch }

// WifiEvent is a lifecycle notification for WifiEventCallback.
type WifiEvent int

const (
	WifiEventStarted WifiEvent = iota
	WifiEventStopped
)

// WifiEventCallback receives WLAN subsystem start/stop notifications.
type WifiEventCallback struct {
	callback[WifiEvent]
}

func NewWifiEventCallback() *WifiEventCallback {
	return &WifiEventCallback{callback: newCallback[WifiEvent](16)}
}

// StaIfaceCallbackState is the coarse connection state reported through
// OnStateChanged.
type StaIfaceCallbackState int

const (
	StaStateDisconnected StaIfaceCallbackState = iota
	StaStateCompleted
)

// StaIfaceEvent is one notification on a supplicant sta-iface callback.
type StaIfaceEvent interface {
	isStaIfaceEvent()
}

// OnStateChanged reports a connection state transition for a network.
type OnStateChanged struct {
	NewState StaIfaceCallbackState
	Bssid    ifacemgr.MacAddr
	ID       uint32
	Ssid     []byte
}

// OnDisconnected reports the teardown of an established connection.
type OnDisconnected struct {
	Bssid            ifacemgr.MacAddr
	LocallyGenerated bool
	ReasonCode       ifacemgr.ReasonCode
}

// OnAssociationRejected reports a failed association attempt.
type OnAssociationRejected struct {
	Ssid       []byte
	Bssid      ifacemgr.MacAddr
	StatusCode ifacemgr.StatusCode
	TimedOut   bool
}

func (OnStateChanged) isStaIfaceEvent()        {}
func (OnDisconnected) isStaIfaceEvent()        {}
func (OnAssociationRejected) isStaIfaceEvent() {}

// SupplicantStaIfaceCallback receives connection lifecycle notifications
// for one supplicant sta iface.
type SupplicantStaIfaceCallback struct {
	callback[StaIfaceEvent]
}

func NewSupplicantStaIfaceCallback() *SupplicantStaIfaceCallback {
	return &SupplicantStaIfaceCallback{callback: newCallback[StaIfaceEvent](32)}
}

// Nl80211Multicast receives nl80211 messages for one multicast group.
type Nl80211Multicast struct {
	callback[nl80211.Message]
}

func NewNl80211Multicast() *Nl80211Multicast {
	return &Nl80211Multicast{callback: newCallback[nl80211.Message](64)}
}
