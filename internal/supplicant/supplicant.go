// Package supplicant serves the Supplicant capability family: connection
// establishment, connection lifecycle callbacks, and the per-connection
// state tracking behind them.
package supplicant

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"go.uber.org/zap"

	"github.com/HerbHall/wlanix/internal/ifacemgr"
	"github.com/HerbHall/wlanix/internal/telemetry"
	"github.com/HerbHall/wlanix/internal/wifi"
	"github.com/HerbHall/wlanix/internal/wlanix"
)

// Server serves Supplicant capability sessions. All sessions for the
// single supported iface share one IfaceState, so callbacks registered on
// one session observe connections driven through another.
type Server struct {
	logger    *zap.Logger
	mgr       ifacemgr.IfaceManager
	wifiState *wifi.State
	tel       *telemetry.Sender
	iface     *IfaceState
}

func NewServer(logger *zap.Logger, mgr ifacemgr.IfaceManager, wifiState *wifi.State, tel *telemetry.Sender) *Server {
	return &Server{
		logger:    logger.Named("supplicant"),
		mgr:       mgr,
		wifiState: wifiState,
		tel:       tel,
		iface:     NewIfaceState(logger.Named("supplicant")),
	}
}

// IfaceState returns the shared per-iface state, mainly for tests.
func (s *Server) IfaceState() *IfaceState { return s.iface }

// ServeSupplicant serves one Supplicant capability session until the
// request channel closes or ctx is cancelled.
func (s *Server) ServeSupplicant(ctx context.Context, requests <-chan wlanix.SupplicantRequest) {
	for {
		select {
		case <-ctx.Done():
			return
		case req, ok := <-requests:
			if !ok {
				return
			}
			switch r := req.(type) {
			case wlanix.SupplicantAddStaInterface:
				s.addStaInterface(ctx, r)
			case wlanix.SupplicantRemoveInterface:
				s.removeInterface(ctx, r.IfaceName)
			case wlanix.SupplicantUnknown:
				s.logger.Warn("unknown Supplicant request", zap.Uint64("ordinal", r.Ordinal))
			}
		}
	}
}

// addStaInterface hands the session off to a sta-iface server. The iface
// must already exist; the supplicant never creates ifaces itself.
func (s *Server) addStaInterface(ctx context.Context, r wlanix.SupplicantAddStaInterface) {
	ifaceID, iface, err := s.firstIface(ctx)
	if err != nil {
		s.logger.Warn("AddStaInterface without a live iface, ignoring session",
			zap.String("name", r.IfaceName), zap.Error(err))
		return
	}
	go s.ServeStaIface(ctx, ifaceID, iface, r.Requests)
}

// removeInterface tears down the connection but leaves the iface itself
// alone; iface destruction belongs to the Wifi chip surface.
func (s *Server) removeInterface(ctx context.Context, name string) {
	_, iface, err := s.firstIface(ctx)
	if err != nil {
		s.logger.Warn("RemoveInterface without a live iface",
			zap.String("name", name), zap.Error(err))
		return
	}
	if err := iface.Disconnect(ctx); err != nil {
		s.logger.Error("disconnect on RemoveInterface", zap.Error(err))
	}
}

// firstIface resolves the single supported client iface. Iface ids are
// not exposed on this surface, so the first live iface is the iface.
func (s *Server) firstIface(ctx context.Context) (uint16, ifacemgr.ClientIface, error) {
	ifaces := s.mgr.ListIfaces()
	if len(ifaces) == 0 {
		return 0, nil, fmt.Errorf("no client iface exists")
	}
	iface, err := s.mgr.GetClientIface(ctx, ifaces[0])
	if err != nil {
		return 0, nil, fmt.Errorf("get client iface %d: %w", ifaces[0], err)
	}
	return ifaces[0], iface, nil
}

// IfaceState is the shared per-iface supplicant state: the single
// registered lifecycle callback and the tracker of the current
// connection, if any. A departed callback is dropped lazily at
// notification time.
type IfaceState struct {
	logger *zap.Logger

	mu       sync.Mutex
	callback *wlanix.SupplicantStaIfaceCallback
	tracker  *Tracker
}

func NewIfaceState(logger *zap.Logger) *IfaceState {
	return &IfaceState{logger: logger}
}

// AddCallback installs the lifecycle callback receiver. Only one is
// supported; a live predecessor is replaced with a warning.
func (st *IfaceState) AddCallback(cb *wlanix.SupplicantStaIfaceCallback) {
	st.mu.Lock()
	defer st.mu.Unlock()
	if st.callback != nil && !st.callback.Closed() {
		st.logger.Warn("replacing existing sta iface callback")
	}
	st.callback = cb
}

// Notify delivers an event to the registered callback, if one is live.
// Events with no receiver are dropped.
func (st *IfaceState) Notify(ev wlanix.StaIfaceEvent) {
	st.mu.Lock()
	defer st.mu.Unlock()
	if st.callback == nil {
		return
	}
	err := st.callback.Send(ev)
	switch {
	case errors.Is(err, wlanix.ErrCallbackClosed):
		st.callback = nil
	case errors.Is(err, wlanix.ErrCallbackFull):
		st.logger.Warn("sta iface callback not draining, dropping event")
	}
}

// CallbackCount reports whether a callback is currently registered, as a
// count of the single slot.
func (st *IfaceState) CallbackCount() int {
	st.mu.Lock()
	defer st.mu.Unlock()
	if st.callback == nil {
		return 0
	}
	return 1
}

// setTracker installs the tracker for a newly established connection.
func (st *IfaceState) setTracker(t *Tracker) {
	st.mu.Lock()
	defer st.mu.Unlock()
	st.tracker = t
}

// clearTracker removes the tracker, but only if it still is the given
// one; a newer connection's tracker is left in place.
func (st *IfaceState) clearTracker(t *Tracker) {
	st.mu.Lock()
	defer st.mu.Unlock()
	if st.tracker == t {
		st.tracker = nil
	}
}

// CurrentTracker returns the current connection's tracker, if any.
func (st *IfaceState) CurrentTracker() *Tracker {
	st.mu.Lock()
	defer st.mu.Unlock()
	return st.tracker
}
