package gateway

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/HerbHall/wlanix/internal/ifacemgr"
	"github.com/HerbHall/wlanix/internal/nl80211"
	"github.com/HerbHall/wlanix/internal/telemetry"
	"github.com/HerbHall/wlanix/internal/wifi"
	"github.com/HerbHall/wlanix/internal/wlanix"
)

// Multicast group names a client may subscribe to.
const (
	MulticastGroupScan = "scan"
	MulticastGroupMLME = "mlme"
)

// Scan capability limits advertised in wiphy dumps.
const (
	maxScanSSIDs      = 32
	maxSchedScanSSIDs = 16
)

// ServeNl80211 serves one nl80211 message session. Messages are handled
// strictly in order; only scan completion runs out of band.
func (g *Gateway) ServeNl80211(ctx context.Context, session string, requests <-chan wlanix.Nl80211Request) {
	logger := g.logger.Named("nl80211").With(zap.String("session", session))
	for {
		select {
		case <-ctx.Done():
			return
		case req, ok := <-requests:
			if !ok {
				return
			}
			switch r := req.(type) {
			case wlanix.Nl80211Message:
				g.handleMessage(ctx, logger, r)
			case wlanix.Nl80211GetMulticast:
				g.handleGetMulticast(logger, r)
			case wlanix.Nl80211Unknown:
				logger.Warn("unknown Nl80211 request", zap.Uint64("ordinal", r.Ordinal))
			}
		}
	}
}

func (g *Gateway) handleGetMulticast(logger *zap.Logger, r wlanix.Nl80211GetMulticast) {
	switch r.Group {
	case MulticastGroupScan:
		g.wifiState.SetScanMulticast(r.Multicast)
	case MulticastGroupMLME:
		g.wifiState.SetMlmeMulticast(r.Multicast)
	default:
		logger.Warn("unsupported multicast group", zap.String("group", r.Group))
		r.Multicast.Close()
	}
}

// handleMessage decodes and dispatches one command. Every path completes
// the request: a deferred internal-error reply covers any handler that
// returns without replying, and a decode failure never ends the session.
func (g *Gateway) handleMessage(ctx context.Context, logger *zap.Logger, r wlanix.Nl80211Message) {
	defer r.C.Reply(wlanix.Fail[[]nl80211.Message](wlanix.ErrInternal))

	if r.Message.Kind != nl80211.KindMessage {
		logger.Warn("non-command nl80211 message", zap.String("kind", r.Message.Kind.String()))
		return
	}
	cmd, attrs, err := nl80211.Decode(r.Message.Payload)
	if err != nil {
		logger.Warn("malformed nl80211 message", zap.Error(err))
		return
	}
	logger.Debug("nl80211 command", zap.String("cmd", cmd.String()))

	switch cmd {
	case nl80211.CmdGetWiphy:
		g.getWiphy(ctx, logger, r.C)
	case nl80211.CmdGetInterface:
		g.getInterface(ctx, logger, r.C)
	case nl80211.CmdGetStation:
		g.getStation(ctx, logger, attrs, r.C)
	case nl80211.CmdGetProtocolFeatures:
		// Only split wiphy dumps are advertised.
		reply(r.C, nl80211.NewMessage(nl80211.CmdGetProtocolFeatures, []nl80211.Attr{
			nl80211.AttrProtocolFeatures(1),
		}))
	case nl80211.CmdTriggerScan:
		g.triggerScan(ctx, logger, attrs, r.C)
	case nl80211.CmdAbortScan:
		g.abortScan(ctx, logger, attrs, r.C)
	case nl80211.CmdGetScan:
		g.getScan(ctx, logger, attrs, r.C)
	case nl80211.CmdGetReg:
		g.getReg(ctx, logger, r.C)
	default:
		// Unsupported commands succeed with nothing to say, so probing
		// clients keep going.
		logger.Warn("unsupported nl80211 command", zap.String("cmd", cmd.String()))
		reply(r.C)
	}
}

func reply(c *wlanix.Completer[wlanix.Result[[]nl80211.Message]], msgs ...nl80211.Message) {
	c.Reply(wlanix.Ok(msgs))
}

func replyErr(c *wlanix.Completer[wlanix.Result[[]nl80211.Message]], errno wlanix.Errno) {
	c.Reply(wlanix.Fail[[]nl80211.Message](errno))
}

// clientIface resolves the iface a command addresses via its iface index
// attribute.
func (g *Gateway) clientIface(ctx context.Context, attrs []nl80211.Attr) (uint16, ifacemgr.ClientIface, wlanix.Errno) {
	idx, ok := nl80211.FindIfaceIndex(attrs)
	if !ok {
		return 0, nil, wlanix.ErrInvalidArgs
	}
	iface, err := g.mgr.GetClientIface(ctx, uint16(idx))
	if err != nil {
		return 0, nil, wlanix.ErrNotFound
	}
	return uint16(idx), iface, 0
}

func (g *Gateway) getWiphy(ctx context.Context, logger *zap.Logger, c *wlanix.Completer[wlanix.Result[[]nl80211.Message]]) {
	phys, err := g.mgr.ListPhys(ctx)
	if err != nil {
		logger.Error("list phys", zap.Error(err))
		replyErr(c, wlanix.ErrInternal)
		return
	}
	msgs := make([]nl80211.Message, 0, len(phys)+1)
	for _, phy := range phys {
		msgs = append(msgs, nl80211.NewMessage(nl80211.CmdNewWiphy, []nl80211.Attr{
			nl80211.AttrWiphy(uint32(phy)),
			nl80211.AttrWiphyBands([]nl80211.Band{
				{Frequencies: nl80211.SupportedFrequencies()},
			}),
			nl80211.AttrMaxScanSSIDs(maxScanSSIDs),
			nl80211.AttrMaxScheduledScanSSIDs(maxSchedScanSSIDs),
			nl80211.AttrMaxMatchSets(0),
			nl80211.AttrFeatureFlags(0),
			nl80211.AttrExtendedFeatures(nil),
		}))
	}
	msgs = append(msgs, nl80211.NewDone())
	reply(c, msgs...)
}

func (g *Gateway) getInterface(ctx context.Context, logger *zap.Logger, c *wlanix.Completer[wlanix.Result[[]nl80211.Message]]) {
	msgs := []nl80211.Message{}
	for _, ifaceID := range g.mgr.ListIfaces() {
		info, err := g.mgr.QueryIface(ctx, ifaceID)
		if err != nil {
			logger.Error("query iface", zap.Uint16("iface", ifaceID), zap.Error(err))
			replyErr(c, wlanix.ErrInternal)
			return
		}
		msgs = append(msgs, nl80211.NewMessage(nl80211.CmdNewInterface, []nl80211.Attr{
			nl80211.AttrIfaceIndex(uint32(ifaceID)),
			nl80211.AttrIfaceName(wifi.IfaceName),
			nl80211.AttrMac(info.StaAddr),
		}))
	}
	msgs = append(msgs, nl80211.NewDone())
	reply(c, msgs...)
}

// Sentinel RSSI reported while no signal report has arrived.
const noSignalRSSIDbm = -127

func (g *Gateway) getStation(ctx context.Context, logger *zap.Logger, attrs []nl80211.Attr, c *wlanix.Completer[wlanix.Result[[]nl80211.Message]]) {
	ifaceID, iface, errno := g.clientIface(ctx, attrs)
	if errno != 0 {
		replyErr(c, errno)
		return
	}
	rssi := int8(noSignalRSSIDbm)
	if v, ok := iface.GetConnectedNetworkRSSI(); ok {
		rssi = v
	}
	reply(c, nl80211.NewMessage(nl80211.CmdNewStation, []nl80211.Attr{
		nl80211.AttrIfaceIndex(uint32(ifaceID)),
		nl80211.AttrStaInfo(nl80211.StaInfo{SignalDBm: rssi}),
	}))
}

// triggerScan acknowledges immediately and lets the scan run out of
// band; completion shows up on the scan multicast group.
func (g *Gateway) triggerScan(ctx context.Context, logger *zap.Logger, attrs []nl80211.Attr, c *wlanix.Completer[wlanix.Result[[]nl80211.Message]]) {
	ifaceID, iface, errno := g.clientIface(ctx, attrs)
	if errno != 0 {
		replyErr(c, errno)
		return
	}
	g.tel.Send(telemetry.ScanStart{})
	reply(c, nl80211.NewAck())

	go g.runScan(ctx, logger, ifaceID, iface)
}

func (g *Gateway) runScan(ctx context.Context, logger *zap.Logger, ifaceID uint16, iface ifacemgr.ClientIface) {
	end, err := iface.TriggerScan(ctx)
	if err != nil {
		logger.Error("scan failed", zap.Error(err))
		g.tel.Send(telemetry.ScanOutcome{Outcome: telemetry.ScanFailed})
		g.wifiState.ScanMulticastSend(nl80211.NewMessage(nl80211.CmdScanAborted, []nl80211.Attr{
			nl80211.AttrIfaceIndex(uint32(ifaceID)),
		}))
		return
	}
	switch end {
	case ifacemgr.ScanComplete:
		n := len(iface.GetLastScanResults())
		logger.Info("scan complete", zap.Int("results", n))
		g.tel.Send(telemetry.ScanOutcome{Outcome: telemetry.ScanComplete, NumResults: n})
		g.wifiState.ScanMulticastSend(nl80211.NewMessage(nl80211.CmdNewScanResults, []nl80211.Attr{
			nl80211.AttrIfaceIndex(uint32(ifaceID)),
		}))
	case ifacemgr.ScanCancelled:
		logger.Info("scan cancelled")
		g.tel.Send(telemetry.ScanOutcome{Outcome: telemetry.ScanCancelled})
		g.wifiState.ScanMulticastSend(nl80211.NewMessage(nl80211.CmdScanAborted, []nl80211.Attr{
			nl80211.AttrIfaceIndex(uint32(ifaceID)),
		}))
	}
}

func (g *Gateway) abortScan(ctx context.Context, logger *zap.Logger, attrs []nl80211.Attr, c *wlanix.Completer[wlanix.Result[[]nl80211.Message]]) {
	_, iface, errno := g.clientIface(ctx, attrs)
	if errno != 0 {
		replyErr(c, errno)
		return
	}
	if err := iface.AbortScan(ctx); err != nil {
		logger.Error("abort scan", zap.Error(err))
		replyErr(c, wlanix.ErrInternal)
		return
	}
	reply(c, nl80211.NewAck())
}

func (g *Gateway) getScan(ctx context.Context, logger *zap.Logger, attrs []nl80211.Attr, c *wlanix.Completer[wlanix.Result[[]nl80211.Message]]) {
	ifaceID, iface, errno := g.clientIface(ctx, attrs)
	if errno != 0 {
		replyErr(c, errno)
		return
	}
	results := iface.GetLastScanResults()
	msgs := make([]nl80211.Message, 0, len(results)+1)
	for _, res := range results {
		bss, err := bssAttr(res.Bss)
		if err != nil {
			logger.Warn("skipping scan result", zap.Error(err))
			continue
		}
		msgs = append(msgs, nl80211.NewMessage(nl80211.CmdNewScanResults, []nl80211.Attr{
			nl80211.AttrIfaceIndex(uint32(ifaceID)),
			bss,
		}))
	}
	msgs = append(msgs, nl80211.NewDone())
	reply(c, msgs...)
}

// bssAttr converts a scanned BSS into its nl80211 attribute form.
func bssAttr(bss ifacemgr.BssDescription) (nl80211.Attr, error) {
	freq, err := nl80211.ChannelCenterFreqMHz(bss.Channel)
	if err != nil {
		return nil, err
	}
	return nl80211.AttrBss(nl80211.Bss{
		BSSID:        [6]byte(bss.BSSID),
		FrequencyMHz: freq,
		IEs:          bss.IEs,
		// Userspace expects boottime; wall clock is the closest thing the
		// gateway has.
		LastSeenBoottimeNs: uint64(time.Now().UnixNano()),
		SignalMBM:          int32(bss.RSSIDbm) * 100,
		Capability:         bss.CapabilityInfo,
		ChainSignals:       []nl80211.ChainSignal{{ID: 0, RSSIDbm: bss.RSSIDbm}},
	}), nil
}

func (g *Gateway) getReg(ctx context.Context, logger *zap.Logger, c *wlanix.Completer[wlanix.Result[[]nl80211.Message]]) {
	phys, err := g.mgr.ListPhys(ctx)
	if err != nil || len(phys) == 0 {
		logger.Error("list phys", zap.Error(err))
		replyErr(c, wlanix.ErrInternal)
		return
	}
	code, err := g.mgr.GetCountry(ctx, phys[0])
	if err != nil {
		logger.Error("get country", zap.Error(err))
		replyErr(c, wlanix.ErrInternal)
		return
	}
	reply(c, nl80211.NewMessage(nl80211.CmdGetReg, []nl80211.Attr{
		nl80211.AttrRegAlpha2(code),
	}))
}
