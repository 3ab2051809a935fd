package supplicant

import (
	"context"

	"go.uber.org/zap"

	"github.com/HerbHall/wlanix/internal/ifacemgr"
	"github.com/HerbHall/wlanix/internal/wlanix"
)

// ServeStaIface serves one supplicant sta-iface capability session.
// Requests are handled concurrently.
func (s *Server) ServeStaIface(ctx context.Context, ifaceID uint16, iface ifacemgr.ClientIface, requests <-chan wlanix.SupplicantStaIfaceRequest) {
	logger := s.logger.Named("staiface").With(zap.Uint16("iface", ifaceID))
	for {
		select {
		case <-ctx.Done():
			return
		case req, ok := <-requests:
			if !ok {
				return
			}
			go s.handleStaIface(ctx, logger, ifaceID, iface, req)
		}
	}
}

func (s *Server) handleStaIface(ctx context.Context, logger *zap.Logger, ifaceID uint16, iface ifacemgr.ClientIface, req wlanix.SupplicantStaIfaceRequest) {
	switch r := req.(type) {
	case wlanix.StaIfaceRegisterCallback:
		s.iface.AddCallback(r.Callback)

	case wlanix.StaIfaceAddNetwork:
		go s.ServeNetwork(ctx, ifaceID, iface, r.Requests)

	case wlanix.StaIfaceDisconnect:
		if err := iface.Disconnect(ctx); err != nil {
			logger.Error("disconnect", zap.Error(err))
		}
		r.C.Reply(wlanix.Empty{})

	case wlanix.StaIfaceGetMacAddress:
		info, err := s.mgr.QueryIface(ctx, ifaceID)
		if err != nil {
			logger.Error("query iface", zap.Error(err))
			r.C.Reply(wlanix.Fail[ifacemgr.MacAddr](wlanix.ErrInternal))
			return
		}
		r.C.Reply(wlanix.Ok(info.StaAddr))

	case wlanix.StaIfaceSetPowerSave:
		if err := iface.SetPowerSaveMode(ctx, r.Enable); err != nil {
			logger.Error("set power save", zap.Bool("enable", r.Enable), zap.Error(err))
		}
		r.C.Reply(wlanix.Empty{})

	case wlanix.StaIfaceSetSuspendModeEnabled:
		if err := iface.SetSuspendMode(ctx, r.Enable); err != nil {
			logger.Error("set suspend mode", zap.Bool("enable", r.Enable), zap.Error(err))
		}
		r.C.Reply(wlanix.Empty{})

	case wlanix.StaIfaceSetStaCountryCode:
		if len(r.Code) != 2 {
			r.C.Reply(wlanix.Fail[wlanix.Empty](wlanix.ErrInvalidArgs))
			return
		}
		if err := iface.SetCountry(ctx, [2]byte{r.Code[0], r.Code[1]}); err != nil {
			logger.Error("set country", zap.ByteString("code", r.Code), zap.Error(err))
			r.C.Reply(wlanix.Fail[wlanix.Empty](wlanix.ErrInternal))
			return
		}
		r.C.Reply(wlanix.Ok(wlanix.Empty{}))

	case wlanix.SupplicantStaIfaceUnknown:
		logger.Warn("unknown SupplicantStaIface request", zap.Uint64("ordinal", r.Ordinal))
	}
}
