package supplicant

import (
	"context"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/HerbHall/wlanix/internal/ifacemgr"
	"github.com/HerbHall/wlanix/internal/nl80211"
	"github.com/HerbHall/wlanix/internal/telemetry"
	"github.com/HerbHall/wlanix/internal/wifi"
	"github.com/HerbHall/wlanix/internal/wlanix"
)

// Tracker follows one established connection's event stream and turns it
// into callback notifications, MLME multicast messages, and telemetry.
// One tracker lives exactly as long as its connection.
type Tracker struct {
	logger    *zap.Logger
	wifiState *wifi.State
	tel       *telemetry.Sender
	ifaceSt   *IfaceState
	iface     ifacemgr.ClientIface
	ifaceID   uint16

	bss       ifacemgr.BssDescription
	startedAt time.Time

	mu sync.Mutex
	// Link quality as last reported; seeded from the connect-time BSS.
	rssi    int8
	snr     int8
	channel uint8
	// pending holds the disconnect that started an SME-driven reconnect.
	// Callback notification is suppressed until the reconnect resolves.
	pending *ifacemgr.DisconnectInfo
}

func newTracker(logger *zap.Logger, wifiState *wifi.State, tel *telemetry.Sender, ifaceSt *IfaceState, iface ifacemgr.ClientIface, ifaceID uint16, bss ifacemgr.BssDescription) *Tracker {
	return &Tracker{
		logger:    logger.Named("connection").With(zap.String("bssid", bss.BSSID.String())),
		wifiState: wifiState,
		tel:       tel,
		ifaceSt:   ifaceSt,
		iface:     iface,
		ifaceID:   ifaceID,
		bss:       bss,
		startedAt: time.Now(),
		rssi:      bss.RSSIDbm,
		snr:       bss.SNRDb,
		channel:   bss.Channel,
	}
}

// Bss returns the BSS this connection was established with.
func (t *Tracker) Bss() ifacemgr.BssDescription { return t.bss }

// Run consumes the connection event stream until it closes, ctx is
// cancelled, or the connection disconnects for good.
func (t *Tracker) Run(ctx context.Context, events <-chan ifacemgr.ConnectionEvent) {
	defer t.ifaceSt.clearTracker(t)
	for {
		select {
		case <-ctx.Done():
			return
		case ev, ok := <-events:
			if !ok {
				t.logger.Debug("connection event stream closed")
				return
			}
			if done := t.handle(ev); done {
				return
			}
		}
	}
}

// handle processes one event and reports whether the connection is over.
func (t *Tracker) handle(ev ifacemgr.ConnectionEvent) bool {
	switch e := ev.(type) {
	case ifacemgr.SignalReportEvent:
		t.mu.Lock()
		t.rssi = e.Ind.RSSIDbm
		t.snr = e.Ind.SNRDb
		t.mu.Unlock()
		t.iface.OnSignalReport(e.Ind)
		return false

	case ifacemgr.ChannelSwitchEvent:
		t.mu.Lock()
		t.channel = e.NewChannel
		t.mu.Unlock()
		t.logger.Info("channel switch", zap.Uint8("channel", e.NewChannel))
		return false

	case ifacemgr.DisconnectEvent:
		if e.Info.IsSMEReconnecting {
			// SME is already reconnecting. Telemetry records the
			// disconnect now; the callback and multicast notifications
			// wait until the reconnect resolves one way or the other.
			t.sendDisconnectTelemetry(e.Info)
			t.mu.Lock()
			if t.pending != nil {
				t.logger.Warn("disconnect while a reconnect is already pending, replacing it")
			}
			info := e.Info
			t.pending = &info
			t.mu.Unlock()
			t.logger.Info("disconnected, reconnect in progress",
				zap.String("source", e.Info.Source.Kind.String()))
			return false
		}
		t.disconnect(e.Info)
		return true

	case ifacemgr.ConnectResultEvent:
		return t.handleConnectResult(e)

	case ifacemgr.RoamResultEvent:
		return t.handleRoamResult(e)

	default:
		t.logger.Warn("unhandled connection event")
		return false
	}
}

func (t *Tracker) handleConnectResult(e ifacemgr.ConnectResultEvent) bool {
	if !e.IsReconnect {
		t.logger.Warn("connect result on established connection, ignoring",
			zap.Uint16("code", uint16(e.Code)))
		return false
	}

	t.mu.Lock()
	pending := t.pending
	t.pending = nil
	t.mu.Unlock()

	if pending == nil {
		t.logger.Warn("reconnect result without a pending reconnect, ignoring",
			zap.Uint16("code", uint16(e.Code)))
		return false
	}
	if e.Code == ifacemgr.StatusSuccess {
		t.startedAt = time.Now()
		t.logger.Info("reconnected")
		return false
	}
	// Telemetry already saw this disconnect when the reconnect began;
	// only the held notifications go out now.
	t.logger.Info("reconnect failed", zap.Uint16("code", uint16(e.Code)))
	t.notifyDisconnect(pending.Source)
	return true
}

func (t *Tracker) handleRoamResult(e ifacemgr.RoamResultEvent) bool {
	if e.Code == ifacemgr.StatusSuccess {
		// The engine keeps the same event stream across a successful roam.
		t.logger.Info("roamed")
		return false
	}
	info := e.Disconnect
	if info == nil {
		// A failed roam always ends the connection, even when the engine
		// did not attach disconnect details.
		info = &ifacemgr.DisconnectInfo{
			Source: ifacemgr.DisconnectSource{
				Kind:          ifacemgr.DisconnectSourceMLME,
				ReasonCode:    ifacemgr.ReasonUnspecified,
				MlmeEventName: "RoamResultIndication",
			},
		}
	}
	t.logger.Info("roam failed", zap.Uint16("code", uint16(e.Code)))
	t.disconnect(*info)
	return true
}

// disconnect records the disconnect and runs the teardown notifications.
func (t *Tracker) disconnect(info ifacemgr.DisconnectInfo) {
	t.sendDisconnectTelemetry(info)
	t.notifyDisconnect(info.Source)
}

// notifyDisconnect runs the teardown sequence: supplicant callbacks first,
// then the MLME multicast, then the iface notification.
func (t *Tracker) notifyDisconnect(source ifacemgr.DisconnectSource) {
	if source.Kind == ifacemgr.DisconnectSourceUser {
		t.logger.Info("disconnect requested", zap.String("reason", source.UserReason))
	}

	reason := source.ReasonCode
	if source.Kind == ifacemgr.DisconnectSourceUser {
		reason = ifacemgr.ReasonUnspecified
	}
	t.ifaceSt.Notify(wlanix.OnDisconnected{
		Bssid:            t.bss.BSSID,
		LocallyGenerated: source.Kind != ifacemgr.DisconnectSourceAP,
		ReasonCode:       reason,
	})
	t.ifaceSt.Notify(wlanix.OnStateChanged{
		NewState: wlanix.StaStateDisconnected,
		Bssid:    t.bss.BSSID,
		Ssid:     t.bss.SSID,
	})

	t.wifiState.MlmeMulticastSend(nl80211.NewMessage(nl80211.CmdDisconnect, []nl80211.Attr{
		nl80211.AttrIfaceIndex(uint32(t.ifaceID)),
		nl80211.AttrMac(t.bss.BSSID),
	}))

	t.iface.OnDisconnect(source)
}

// sendDisconnectTelemetry records a disconnect with the current link
// snapshot. Every disconnect is recorded, including one an in-flight SME
// reconnect may yet cancel.
func (t *Tracker) sendDisconnectTelemetry(info ifacemgr.DisconnectInfo) {
	source := info.Source
	t.mu.Lock()
	rssi, snr, channel := t.rssi, t.snr, t.channel
	t.mu.Unlock()
	t.tel.Send(telemetry.Disconnect{
		IfaceID:           t.ifaceID,
		ConnectedDuration: time.Since(t.startedAt),
		SourceKind:        source.Kind.String(),
		ReasonCode:        uint16(source.ReasonCode),
		IsSMEReconnecting: info.IsSMEReconnecting,
		Bssid:             t.bss.BSSID.String(),
		Ssid:              string(t.bss.SSID),
		RSSIDbm:           rssi,
		SNRDb:             snr,
		Channel:           channel,
	})
}
