package supplicant

import (
	"context"

	"go.uber.org/zap"

	"github.com/HerbHall/wlanix/internal/ifacemgr"
	"github.com/HerbHall/wlanix/internal/nl80211"
	"github.com/HerbHall/wlanix/internal/telemetry"
	"github.com/HerbHall/wlanix/internal/wlanix"
)

// networkState is the configuration accumulated on one network session
// before Select.
type networkState struct {
	ssid       []byte
	bssid      *ifacemgr.MacAddr
	passphrase []byte
}

// ServeNetwork serves one network configuration session. Requests are
// handled in order; configuration must land before Select.
func (s *Server) ServeNetwork(ctx context.Context, ifaceID uint16, iface ifacemgr.ClientIface, requests <-chan wlanix.SupplicantStaNetworkRequest) {
	logger := s.logger.Named("network").With(zap.Uint16("iface", ifaceID))
	var state networkState
	for {
		select {
		case <-ctx.Done():
			return
		case req, ok := <-requests:
			if !ok {
				return
			}
			switch r := req.(type) {
			case wlanix.NetworkSetSsid:
				state.ssid = append([]byte(nil), r.Ssid...)
			case wlanix.NetworkSetBssid:
				bssid := r.Bssid
				state.bssid = &bssid
			case wlanix.NetworkClearBssid:
				state.bssid = nil
			case wlanix.NetworkSetPskPassphrase:
				state.passphrase = append([]byte(nil), r.Passphrase...)
			case wlanix.NetworkSelect:
				s.selectNetwork(ctx, logger, ifaceID, iface, state, r.C)
			case wlanix.SupplicantStaNetworkUnknown:
				logger.Warn("unknown SupplicantStaNetwork request", zap.Uint64("ordinal", r.Ordinal))
			}
		}
	}
}

// selectNetwork drives a connect attempt. Whatever the outcome, exactly
// one Connect multicast goes out so nl80211 observers see the attempt
// resolve; failures carry a zero BSSID and a refusal status. On success
// the call then follows the connection's event stream until it ends, so
// further requests on this session wait behind the live connection.
func (s *Server) selectNetwork(ctx context.Context, logger *zap.Logger, ifaceID uint16, iface ifacemgr.ClientIface, state networkState, c *wlanix.Completer[wlanix.Result[wlanix.Empty]]) {
	connectedBssid := ifacemgr.MacAddr{}
	status := ifacemgr.StatusRefusedReasonUnspecified
	sent := false
	sendConnectResult := func() {
		if sent {
			return
		}
		sent = true
		s.wifiState.MlmeMulticastSend(nl80211.NewMessage(nl80211.CmdConnect, []nl80211.Attr{
			nl80211.AttrIfaceIndex(uint32(ifaceID)),
			nl80211.AttrMac(connectedBssid),
			nl80211.AttrStatusCode(uint16(status)),
		}))
	}
	defer sendConnectResult()

	if len(state.ssid) == 0 {
		logger.Warn("Select without an SSID")
		c.Reply(wlanix.Fail[wlanix.Empty](wlanix.ErrBadState))
		return
	}

	var creds *ifacemgr.Credentials
	if len(state.passphrase) > 0 {
		psk, err := derivePSK(state.passphrase, state.ssid)
		if err != nil {
			logger.Warn("invalid passphrase", zap.Error(err))
			c.Reply(wlanix.Fail[wlanix.Empty](wlanix.ErrInvalidArgs))
			return
		}
		creds = &ifacemgr.Credentials{Passphrase: state.passphrase, PSK: psk}
	}

	logger.Info("connecting", zap.ByteString("ssid", state.ssid))
	outcome, err := iface.ConnectToNetwork(ctx, state.ssid, creds, state.bssid)
	if err != nil {
		logger.Error("connect to network", zap.Error(err))
		s.tel.Send(telemetry.ConnectResult{Code: status})
		c.Reply(wlanix.Fail[wlanix.Empty](wlanix.ErrInternal))
		return
	}

	switch o := outcome.(type) {
	case ifacemgr.ConnectSuccess:
		connectedBssid = o.Bss.BSSID
		status = ifacemgr.StatusSuccess
		s.tel.Send(telemetry.ConnectResult{Code: status, Bssid: o.Bss.BSSID.String()})
		s.iface.Notify(wlanix.OnStateChanged{
			NewState: wlanix.StaStateCompleted,
			Bssid:    o.Bss.BSSID,
			Ssid:     o.Bss.SSID,
		})
		tracker := newTracker(s.logger, s.wifiState, s.tel, s.iface, iface, ifaceID, o.Bss)
		s.iface.setTracker(tracker)
		logger.Info("connected", zap.String("bssid", o.Bss.BSSID.String()))
		c.Reply(wlanix.Ok(wlanix.Empty{}))
		sendConnectResult()
		tracker.Run(ctx, o.Events)

	case ifacemgr.ConnectFail:
		status = o.Code
		if status == ifacemgr.StatusSuccess {
			status = ifacemgr.StatusRefusedReasonUnspecified
		}
		s.tel.Send(telemetry.ConnectResult{Code: status, Bssid: o.Bss.BSSID.String()})
		s.iface.Notify(wlanix.OnAssociationRejected{
			Ssid:       state.ssid,
			Bssid:      o.Bss.BSSID,
			StatusCode: status,
			TimedOut:   o.TimedOut,
		})
		logger.Info("connect rejected",
			zap.String("bssid", o.Bss.BSSID.String()),
			zap.Uint16("status", uint16(status)),
			zap.Bool("timed_out", o.TimedOut))
		// A clean rejection is a resolved attempt, not a gateway error;
		// it is surfaced through OnAssociationRejected.
		c.Reply(wlanix.Ok(wlanix.Empty{}))

	default:
		logger.Error("unhandled connect outcome")
		c.Reply(wlanix.Fail[wlanix.Empty](wlanix.ErrInternal))
	}
}
