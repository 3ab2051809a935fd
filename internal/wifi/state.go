// Package wifi serves the Wifi capability family: subsystem power
// lifecycle, chip enumeration, and sta iface management. Shared state
// lives in State, which also owns the fan-out to lifecycle callbacks and
// the nl80211 multicast receivers.
package wifi

import (
	"errors"
	"sync"

	"go.uber.org/zap"

	"github.com/HerbHall/wlanix/internal/nl80211"
	"github.com/HerbHall/wlanix/internal/wlanix"
)

// IfaceName is the name every client iface is exposed under. Only one
// concurrent client iface is supported.
const IfaceName = "wlan"

// State is the shared WLAN subsystem state: the started flag, the single
// registered lifecycle callback, and the scan and MLME multicast
// receivers.
//
// Departed receivers are dropped lazily at send time rather than by any
// background reaping.
type State struct {
	logger *zap.Logger

	mu            sync.Mutex
	started       bool
	callback      *wlanix.WifiEventCallback
	scanMulticast *wlanix.Nl80211Multicast
	mlmeMulticast *wlanix.Nl80211Multicast
}

// NewState returns subsystem state with everything off and empty.
func NewState(logger *zap.Logger) *State {
	return &State{logger: logger.Named("wifi")}
}

// IsStarted reports whether the subsystem is started.
func (s *State) IsStarted() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.started
}

// SetStarted records the started flag and reports whether it changed.
func (s *State) SetStarted(started bool) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	changed := s.started != started
	s.started = started
	return changed
}

// RegisterCallback installs the lifecycle callback receiver. Only one is
// supported; a live predecessor is replaced with a warning.
func (s *State) RegisterCallback(cb *wlanix.WifiEventCallback) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.callback != nil && !s.callback.Closed() {
		s.logger.Warn("replacing existing wifi event callback")
	}
	s.callback = cb
}

// NotifyWifi delivers a lifecycle event to the registered callback, if
// one is live. Events with no receiver are dropped.
func (s *State) NotifyWifi(event wlanix.WifiEvent) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.callback == nil {
		return
	}
	err := s.callback.Send(event)
	switch {
	case errors.Is(err, wlanix.ErrCallbackClosed):
		s.callback = nil
	case errors.Is(err, wlanix.ErrCallbackFull):
		s.logger.Warn("wifi event callback not draining, dropping event")
	}
}

// CallbackCount reports whether a callback is currently registered, as a
// count of the single slot.
func (s *State) CallbackCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.callback == nil {
		return 0
	}
	return 1
}

// SetScanMulticast installs the scan multicast receiver. Only one
// receiver is supported; a live predecessor is replaced with a warning.
func (s *State) SetScanMulticast(m *wlanix.Nl80211Multicast) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.scanMulticast != nil && !s.scanMulticast.Closed() {
		s.logger.Warn("replacing existing scan multicast receiver")
	}
	s.scanMulticast = m
}

// SetMlmeMulticast installs the MLME multicast receiver. Only one
// receiver is supported; a live predecessor is replaced with a warning.
func (s *State) SetMlmeMulticast(m *wlanix.Nl80211Multicast) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.mlmeMulticast != nil && !s.mlmeMulticast.Closed() {
		s.logger.Warn("replacing existing mlme multicast receiver")
	}
	s.mlmeMulticast = m
}

// ScanMulticastSend delivers a message to the scan multicast receiver,
// if one is live. Messages with no receiver are dropped.
func (s *State) ScanMulticastSend(msg nl80211.Message) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.scanMulticast = s.multicastSend(s.scanMulticast, "scan", msg)
}

// MlmeMulticastSend delivers a message to the MLME multicast receiver,
// if one is live. Messages with no receiver are dropped.
func (s *State) MlmeMulticastSend(msg nl80211.Message) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.mlmeMulticast = s.multicastSend(s.mlmeMulticast, "mlme", msg)
}

// multicastSend sends on one receiver slot and returns the slot's new
// value. Callers hold s.mu.
func (s *State) multicastSend(m *wlanix.Nl80211Multicast, group string, msg nl80211.Message) *wlanix.Nl80211Multicast {
	if m == nil {
		s.logger.Debug("no multicast receiver, dropping message", zap.String("group", group))
		return nil
	}
	err := m.Send(msg)
	switch {
	case errors.Is(err, wlanix.ErrCallbackClosed):
		s.logger.Debug("multicast receiver gone, dropping it", zap.String("group", group))
		return nil
	case errors.Is(err, wlanix.ErrCallbackFull):
		s.logger.Warn("multicast receiver not draining, dropping message",
			zap.String("group", group))
	}
	return m
}
