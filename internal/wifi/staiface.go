package wifi

import (
	"context"

	"go.uber.org/zap"

	"github.com/HerbHall/wlanix/internal/wlanix"
)

// ServeStaIface serves one sta-iface capability session.
func (s *Server) ServeStaIface(ctx context.Context, requests <-chan wlanix.WifiStaIfaceRequest) {
	logger := s.logger.Named("staiface")
	for {
		select {
		case <-ctx.Done():
			return
		case req, ok := <-requests:
			if !ok {
				return
			}
			switch r := req.(type) {
			case wlanix.StaIfaceGetName:
				r.C.Reply(IfaceName)
			case wlanix.WifiStaIfaceUnknown:
				logger.Warn("unknown WifiStaIface request", zap.Uint64("ordinal", r.Ordinal))
			}
		}
	}
}
