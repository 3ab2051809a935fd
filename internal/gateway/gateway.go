// Package gateway is the dispatch root: it accepts root capability
// requests and hands each family off to its server. It also owns the
// nl80211 message surface.
package gateway

import (
	"context"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/HerbHall/wlanix/internal/ifacemgr"
	"github.com/HerbHall/wlanix/internal/supplicant"
	"github.com/HerbHall/wlanix/internal/telemetry"
	"github.com/HerbHall/wlanix/internal/wifi"
	"github.com/HerbHall/wlanix/internal/wlanix"
)

// Gateway ties the capability servers to one station management service
// and one telemetry pipeline.
type Gateway struct {
	logger     *zap.Logger
	mgr        ifacemgr.IfaceManager
	tel        *telemetry.Sender
	wifiState  *wifi.State
	wifi       *wifi.Server
	supplicant *supplicant.Server
}

func New(logger *zap.Logger, mgr ifacemgr.IfaceManager, tel *telemetry.Sender) *Gateway {
	state := wifi.NewState(logger)
	return &Gateway{
		logger:     logger.Named("gateway"),
		mgr:        mgr,
		tel:        tel,
		wifiState:  state,
		wifi:       wifi.NewServer(logger, state, mgr, tel),
		supplicant: supplicant.NewServer(logger, mgr, state, tel),
	}
}

// WifiState exposes the shared subsystem state, mainly for tests.
func (g *Gateway) WifiState() *wifi.State { return g.wifiState }

// Supplicant exposes the supplicant server, mainly for tests.
func (g *Gateway) Supplicant() *supplicant.Server { return g.supplicant }

// ServeRoot serves the root capability until the request channel closes
// or ctx is cancelled. Each handed-off session gets its own server
// goroutine and session id.
func (g *Gateway) ServeRoot(ctx context.Context, requests <-chan wlanix.WlanixRequest) {
	for {
		select {
		case <-ctx.Done():
			return
		case req, ok := <-requests:
			if !ok {
				return
			}
			switch r := req.(type) {
			case wlanix.GetWifi:
				session := uuid.NewString()
				g.logger.Info("wifi session opened", zap.String("session", session))
				go g.wifi.ServeWifi(ctx, r.Requests)
			case wlanix.GetSupplicant:
				session := uuid.NewString()
				g.logger.Info("supplicant session opened", zap.String("session", session))
				go g.supplicant.ServeSupplicant(ctx, r.Requests)
			case wlanix.GetNl80211:
				session := uuid.NewString()
				g.logger.Info("nl80211 session opened", zap.String("session", session))
				go g.ServeNl80211(ctx, session, r.Requests)
			case wlanix.WlanixUnknown:
				g.logger.Warn("unknown Wlanix request", zap.Uint64("ordinal", r.Ordinal))
			}
		}
	}
}
