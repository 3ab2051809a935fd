package wifi

import (
	"context"
	"math"

	"go.uber.org/zap"

	"github.com/HerbHall/wlanix/internal/ifacemgr"
	"github.com/HerbHall/wlanix/internal/telemetry"
	"github.com/HerbHall/wlanix/internal/wlanix"
)

// Server serves Wifi capability sessions against the station management
// service.
type Server struct {
	logger *zap.Logger
	state  *State
	mgr    ifacemgr.IfaceManager
	tel    *telemetry.Sender
}

func NewServer(logger *zap.Logger, state *State, mgr ifacemgr.IfaceManager, tel *telemetry.Sender) *Server {
	return &Server{
		logger: logger.Named("wifi"),
		state:  state,
		mgr:    mgr,
		tel:    tel,
	}
}

// ServeWifi serves one Wifi capability session until the request channel
// closes or ctx is cancelled. Requests are handled concurrently.
func (s *Server) ServeWifi(ctx context.Context, requests <-chan wlanix.WifiRequest) {
	for {
		select {
		case <-ctx.Done():
			return
		case req, ok := <-requests:
			if !ok {
				return
			}
			go s.handleWifi(ctx, req)
		}
	}
}

func (s *Server) handleWifi(ctx context.Context, req wlanix.WifiRequest) {
	switch r := req.(type) {
	case wlanix.WifiRegisterEventCallback:
		s.state.RegisterCallback(r.Callback)
	case wlanix.WifiStart:
		r.C.Reply(s.start(ctx))
	case wlanix.WifiStop:
		r.C.Reply(s.stop(ctx))
	case wlanix.WifiGetState:
		r.C.Reply(wlanix.WifiState{IsStarted: s.state.IsStarted()})
	case wlanix.WifiGetChipIds:
		r.C.Reply(s.chipIDs(ctx))
	case wlanix.WifiGetChip:
		if r.ChipID > math.MaxUint16 {
			r.C.Reply(wlanix.Fail[wlanix.Empty](wlanix.ErrInvalidArgs))
			return
		}
		go s.ServeChip(ctx, uint16(r.ChipID), r.Requests)
		r.C.Reply(wlanix.Ok(wlanix.Empty{}))
	case wlanix.WifiUnknown:
		s.logger.Warn("unknown Wifi request", zap.Uint64("ordinal", r.Ordinal))
	}
}

// start powers up every phy. The started transition fires the lifecycle
// callbacks and the connections-toggle telemetry exactly once, no matter
// how many times Start is called.
func (s *Server) start(ctx context.Context) wlanix.Result[wlanix.Empty] {
	phys, err := s.mgr.ListPhys(ctx)
	if err != nil {
		s.logger.Error("list phys", zap.Error(err))
		return wlanix.Fail[wlanix.Empty](wlanix.ErrInternal)
	}
	for _, phy := range phys {
		on, err := s.mgr.GetPowerState(ctx, phy)
		if err != nil {
			s.logger.Error("get power state", zap.Uint16("phy", phy), zap.Error(err))
			return wlanix.Fail[wlanix.Empty](wlanix.ErrInternal)
		}
		if on {
			s.logger.Info("phy already powered up", zap.Uint16("phy", phy))
			continue
		}
		if err := s.mgr.PowerUp(ctx, phy); err != nil {
			s.logger.Error("power up phy", zap.Uint16("phy", phy), zap.Error(err))
			return wlanix.Fail[wlanix.Empty](wlanix.ErrInternal)
		}
	}
	if s.state.SetStarted(true) {
		s.tel.Send(telemetry.ClientConnectionsToggle{Enabled: true})
		s.state.NotifyWifi(wlanix.WifiEventStarted)
	}
	return wlanix.Ok(wlanix.Empty{})
}

// stop destroys every iface before powering any phy down, so no phy loses
// power while an iface still sits on it. A single destroy failure is
// recorded in telemetry and the loop continues to the next iface.
func (s *Server) stop(ctx context.Context) wlanix.Result[wlanix.Empty] {
	for _, iface := range s.mgr.ListIfaces() {
		if err := s.mgr.DestroyIface(ctx, iface); err != nil {
			s.logger.Error("destroy iface", zap.Uint16("iface", iface), zap.Error(err))
			s.tel.Send(telemetry.IfaceDestructionFailure{})
			continue
		}
		s.tel.Send(telemetry.ClientIfaceDestroyed{IfaceID: iface})
	}
	phys, err := s.mgr.ListPhys(ctx)
	if err != nil {
		s.logger.Error("list phys", zap.Error(err))
		return wlanix.Fail[wlanix.Empty](wlanix.ErrInternal)
	}
	for _, phy := range phys {
		on, err := s.mgr.GetPowerState(ctx, phy)
		if err != nil {
			s.logger.Error("get power state", zap.Uint16("phy", phy), zap.Error(err))
			return wlanix.Fail[wlanix.Empty](wlanix.ErrInternal)
		}
		if !on {
			s.logger.Info("phy already powered down", zap.Uint16("phy", phy))
			continue
		}
		if err := s.mgr.PowerDown(ctx, phy); err != nil {
			s.logger.Error("power down phy", zap.Uint16("phy", phy), zap.Error(err))
			return wlanix.Fail[wlanix.Empty](wlanix.ErrInternal)
		}
	}
	if s.state.SetStarted(false) {
		s.tel.Send(telemetry.ClientConnectionsToggle{Enabled: false})
		s.state.NotifyWifi(wlanix.WifiEventStopped)
	}
	return wlanix.Ok(wlanix.Empty{})
}

func (s *Server) chipIDs(ctx context.Context) []uint32 {
	phys, err := s.mgr.ListPhys(ctx)
	if err != nil {
		s.logger.Error("list phys", zap.Error(err))
		return nil
	}
	ids := make([]uint32, 0, len(phys))
	for _, phy := range phys {
		ids = append(ids, uint32(phy))
	}
	return ids
}
