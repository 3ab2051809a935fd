package wifi

import (
	"context"

	"go.uber.org/zap"

	"github.com/HerbHall/wlanix/internal/telemetry"
	"github.com/HerbHall/wlanix/internal/wlanix"
)

// ServeChip serves one chip capability session. A chip maps one-to-one
// onto a phy of the station management service.
func (s *Server) ServeChip(ctx context.Context, chipID uint16, requests <-chan wlanix.WifiChipRequest) {
	logger := s.logger.Named("chip").With(zap.Uint16("chip", chipID))
	for {
		select {
		case <-ctx.Done():
			return
		case req, ok := <-requests:
			if !ok {
				return
			}
			go s.handleChip(ctx, logger, chipID, req)
		}
	}
}

func (s *Server) handleChip(ctx context.Context, logger *zap.Logger, chipID uint16, req wlanix.WifiChipRequest) {
	switch r := req.(type) {
	case wlanix.ChipCreateStaIface:
		r.C.Reply(s.createStaIface(ctx, logger, chipID, r.Requests))
	case wlanix.ChipGetStaIfaceNames:
		names := []string{}
		if len(s.mgr.ListIfaces()) > 0 {
			names = append(names, IfaceName)
		}
		r.C.Reply(names)
	case wlanix.ChipGetStaIface:
		if r.IfaceName != IfaceName || len(s.mgr.ListIfaces()) == 0 {
			r.C.Reply(wlanix.Fail[wlanix.Empty](wlanix.ErrNotFound))
			return
		}
		go s.ServeStaIface(ctx, r.Requests)
		r.C.Reply(wlanix.Ok(wlanix.Empty{}))
	case wlanix.ChipRemoveStaIface:
		r.C.Reply(s.removeStaIface(ctx, logger, r.IfaceName))
	case wlanix.ChipSetCountryCode:
		r.C.Reply(s.setCountryCode(ctx, logger, chipID, r.Code))
	case wlanix.ChipGetAvailableModes:
		r.C.Reply(availableModes(chipID))
	case wlanix.ChipGetId:
		r.C.Reply(uint32(chipID))
	case wlanix.ChipGetMode:
		// Only one mode exists, and it is always active.
		r.C.Reply(uint32(0))
	case wlanix.ChipGetCapabilities:
		// No capability bits are advertised.
		r.C.Reply(uint32(0))
	case wlanix.ChipTriggerSubsystemRestart:
		s.tel.Send(telemetry.RecoveryEvent{})
		r.C.Reply(wlanix.Ok(wlanix.Empty{}))
	case wlanix.WifiChipUnknown:
		logger.Warn("unknown WifiChip request", zap.Uint64("ordinal", r.Ordinal))
	}
}

func (s *Server) createStaIface(ctx context.Context, logger *zap.Logger, chipID uint16, requests <-chan wlanix.WifiStaIfaceRequest) wlanix.Result[wlanix.Empty] {
	ifaceID, err := s.mgr.CreateClientIface(ctx, chipID)
	if err != nil {
		logger.Error("create client iface", zap.Error(err))
		s.tel.Send(telemetry.IfaceCreationFailure{})
		return wlanix.Fail[wlanix.Empty](wlanix.ErrInternal)
	}
	s.tel.Send(telemetry.ClientIfaceCreated{IfaceID: ifaceID})
	go s.ServeStaIface(ctx, requests)
	return wlanix.Ok(wlanix.Empty{})
}

// removeStaIface destroys the first live iface. Iface ids are not exposed
// to clients, so the name is only checked for the fixed iface name.
func (s *Server) removeStaIface(ctx context.Context, logger *zap.Logger, name string) wlanix.Result[wlanix.Empty] {
	if name != IfaceName {
		return wlanix.Fail[wlanix.Empty](wlanix.ErrNotFound)
	}
	ifaces := s.mgr.ListIfaces()
	if len(ifaces) == 0 {
		return wlanix.Fail[wlanix.Empty](wlanix.ErrNotFound)
	}
	ifaceID := ifaces[0]
	if err := s.mgr.DestroyIface(ctx, ifaceID); err != nil {
		logger.Error("destroy iface", zap.Uint16("iface", ifaceID), zap.Error(err))
		s.tel.Send(telemetry.IfaceDestructionFailure{})
		return wlanix.Fail[wlanix.Empty](wlanix.ErrInternal)
	}
	s.tel.Send(telemetry.ClientIfaceDestroyed{IfaceID: ifaceID})
	return wlanix.Ok(wlanix.Empty{})
}

func (s *Server) setCountryCode(ctx context.Context, logger *zap.Logger, chipID uint16, code []byte) wlanix.Result[wlanix.Empty] {
	if len(code) != 2 {
		return wlanix.Fail[wlanix.Empty](wlanix.ErrInvalidArgs)
	}
	if err := s.mgr.SetCountry(ctx, chipID, [2]byte{code[0], code[1]}); err != nil {
		logger.Error("set country", zap.ByteString("code", code), zap.Error(err))
		return wlanix.Fail[wlanix.Empty](wlanix.ErrInternal)
	}
	return wlanix.Ok(wlanix.Empty{})
}

// availableModes reports the single supported concurrency mode: one
// station iface, nothing else.
func availableModes(chipID uint16) []wlanix.ChipMode {
	return []wlanix.ChipMode{{
		ID: uint32(chipID),
		AvailableCombinations: []wlanix.ChipConcurrencyCombination{{
			Limits: []wlanix.ChipConcurrencyCombinationLimit{{
				Types:     []wlanix.IfaceConcurrencyType{wlanix.IfaceConcurrencyTypeSta},
				MaxIfaces: 1,
			}},
		}},
	}}
}
