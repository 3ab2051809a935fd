package supplicant

import (
	"context"
	"testing"
	"time"

	"github.com/HerbHall/wlanix/internal/ifacemgr"
	"github.com/HerbHall/wlanix/internal/nl80211"
	"github.com/HerbHall/wlanix/internal/telemetry"
	"github.com/HerbHall/wlanix/internal/wlanix"
)

// startTracker installs a tracker for an established connection on the
// fixture and returns the channel feeding its event stream.
func startTracker(t *testing.T, f *fixture) (*Tracker, chan ifacemgr.ConnectionEvent) {
	t.Helper()
	events := make(chan ifacemgr.ConnectionEvent)
	tr := newTracker(f.s.logger, f.s.wifiState, f.s.tel, f.s.iface, f.fake.Client, 1, testBss)
	f.s.iface.setTracker(tr)
	go tr.Run(context.Background(), events)
	return tr, events
}

// waitSignalReports blocks until the fake has seen n signal reports. Used
// to order assertions behind event processing.
func waitSignalReports(t *testing.T, f *fixture, n int) {
	t.Helper()
	deadline := time.Now().Add(5 * time.Second)
	for time.Now().Before(deadline) {
		if len(f.fake.Client.SignalReports()) >= n {
			return
		}
		time.Sleep(5 * time.Millisecond)
	}
	t.Fatalf("fake never saw %d signal reports", n)
}

func drainTelemetry(ch <-chan telemetry.Event) []telemetry.Event {
	var out []telemetry.Event
	for {
		select {
		case e := <-ch:
			out = append(out, e)
		default:
			return out
		}
	}
}

func TestDisconnect_sequence(t *testing.T) {
	f := newFixture(t)
	_, events := startTracker(t, f)

	events <- ifacemgr.DisconnectEvent{Info: ifacemgr.DisconnectInfo{
		Source: ifacemgr.DisconnectSource{
			Kind:       ifacemgr.DisconnectSourceAP,
			ReasonCode: 3,
		},
	}}

	ev := nextCallback(t, f.cb)
	dc, ok := ev.(wlanix.OnDisconnected)
	if !ok {
		t.Fatalf("first callback event is %T, want OnDisconnected", ev)
	}
	if dc.Bssid != testBss.BSSID || dc.LocallyGenerated || dc.ReasonCode != 3 {
		t.Errorf("OnDisconnected = %+v", dc)
	}

	ev = nextCallback(t, f.cb)
	sc, ok := ev.(wlanix.OnStateChanged)
	if !ok {
		t.Fatalf("second callback event is %T, want OnStateChanged", ev)
	}
	if sc.NewState != wlanix.StaStateDisconnected || sc.Bssid != testBss.BSSID {
		t.Errorf("OnStateChanged = %+v", sc)
	}

	cmd, attrs := nextMulticast(t, f.mlme)
	if cmd != nl80211.CmdDisconnect {
		t.Errorf("multicast cmd = %v, want CmdDisconnect", cmd)
	}
	if got := findMac(t, attrs); got != [6]byte(testBss.BSSID) {
		t.Errorf("multicast mac = %x, want %x", got, testBss.BSSID)
	}

	e := waitEvent(t, f.events, func(e telemetry.Event) bool {
		_, ok := e.(telemetry.Disconnect)
		return ok
	}).(telemetry.Disconnect)
	if e.SourceKind != "ap" || e.ReasonCode != 3 || e.Bssid != testBss.BSSID.String() {
		t.Errorf("Disconnect telemetry = %+v", e)
	}
	if e.RSSIDbm != testBss.RSSIDbm || e.Channel != testBss.Channel {
		t.Errorf("link snapshot = rssi %d channel %d", e.RSSIDbm, e.Channel)
	}

	got := f.fake.Client.Disconnects()
	if len(got) != 1 || got[0].Kind != ifacemgr.DisconnectSourceAP {
		t.Errorf("engine disconnect notifications = %+v", got)
	}

	deadline := time.Now().Add(5 * time.Second)
	for f.s.iface.CurrentTracker() != nil {
		if time.Now().After(deadline) {
			t.Fatal("tracker not cleared after disconnect")
		}
		time.Sleep(5 * time.Millisecond)
	}
}

func TestDisconnect_during_reconnect_holds_notifications(t *testing.T) {
	f := newFixture(t)
	_, events := startTracker(t, f)

	events <- ifacemgr.DisconnectEvent{Info: ifacemgr.DisconnectInfo{
		Source: ifacemgr.DisconnectSource{
			Kind:       ifacemgr.DisconnectSourceMLME,
			ReasonCode: 7,
		},
		IsSMEReconnecting: true,
	}}

	// Telemetry records the disconnect right away, before the reconnect
	// resolves.
	e := waitEvent(t, f.events, func(e telemetry.Event) bool {
		_, ok := e.(telemetry.Disconnect)
		return ok
	}).(telemetry.Disconnect)
	if !e.IsSMEReconnecting || e.ReasonCode != 7 {
		t.Errorf("Disconnect telemetry = %+v", e)
	}

	events <- ifacemgr.SignalReportEvent{Ind: ifacemgr.SignalReport{RSSIDbm: -50, SNRDb: 20}}
	waitSignalReports(t, f, 1)

	if n := len(f.cb.Events()); n != 0 {
		t.Errorf("%d callback events during reconnect, want 0", n)
	}

	// Reconnect succeeds; the held notifications are discarded and the
	// disconnect is not recorded a second time.
	events <- ifacemgr.ConnectResultEvent{IsReconnect: true, Code: ifacemgr.StatusSuccess}
	events <- ifacemgr.SignalReportEvent{Ind: ifacemgr.SignalReport{RSSIDbm: -48, SNRDb: 22}}
	waitSignalReports(t, f, 2)

	if n := len(f.cb.Events()); n != 0 {
		t.Errorf("%d callback events after successful reconnect, want 0", n)
	}
	for _, e := range drainTelemetry(f.events) {
		if _, ok := e.(telemetry.Disconnect); ok {
			t.Error("second Disconnect telemetry after successful reconnect")
		}
	}
}

func TestReconnect_success_resets_connect_time(t *testing.T) {
	f := newFixture(t)
	tr, events := startTracker(t, f)
	tr.startedAt = time.Now().Add(-time.Hour)

	events <- ifacemgr.DisconnectEvent{Info: ifacemgr.DisconnectInfo{
		Source: ifacemgr.DisconnectSource{
			Kind:       ifacemgr.DisconnectSourceMLME,
			ReasonCode: 7,
		},
		IsSMEReconnecting: true,
	}}
	e := waitEvent(t, f.events, func(e telemetry.Event) bool {
		_, ok := e.(telemetry.Disconnect)
		return ok
	}).(telemetry.Disconnect)
	if e.ConnectedDuration < time.Hour {
		t.Errorf("pre-reconnect duration = %v, want at least 1h", e.ConnectedDuration)
	}

	events <- ifacemgr.ConnectResultEvent{IsReconnect: true, Code: ifacemgr.StatusSuccess}
	events <- ifacemgr.DisconnectEvent{Info: ifacemgr.DisconnectInfo{
		Source: ifacemgr.DisconnectSource{
			Kind:       ifacemgr.DisconnectSourceAP,
			ReasonCode: 3,
		},
	}}

	e = waitEvent(t, f.events, func(e telemetry.Event) bool {
		_, ok := e.(telemetry.Disconnect)
		return ok
	}).(telemetry.Disconnect)
	if e.ConnectedDuration >= time.Hour {
		t.Errorf("post-reconnect duration = %v, want measured from the reconnect", e.ConnectedDuration)
	}
}

func TestSecond_reconnect_disconnect_replaces_pending(t *testing.T) {
	f := newFixture(t)
	_, events := startTracker(t, f)

	events <- ifacemgr.DisconnectEvent{Info: ifacemgr.DisconnectInfo{
		Source: ifacemgr.DisconnectSource{
			Kind:       ifacemgr.DisconnectSourceMLME,
			ReasonCode: 7,
		},
		IsSMEReconnecting: true,
	}}
	events <- ifacemgr.DisconnectEvent{Info: ifacemgr.DisconnectInfo{
		Source: ifacemgr.DisconnectSource{
			Kind:       ifacemgr.DisconnectSourceAP,
			ReasonCode: 4,
		},
		IsSMEReconnecting: true,
	}}
	events <- ifacemgr.ConnectResultEvent{IsReconnect: true, Code: ifacemgr.StatusRefusedReasonUnspecified}

	// The latest held disconnect wins; its AP source is reported.
	ev := nextCallback(t, f.cb)
	dc, ok := ev.(wlanix.OnDisconnected)
	if !ok {
		t.Fatalf("got %T, want OnDisconnected", ev)
	}
	if dc.LocallyGenerated || dc.ReasonCode != 4 {
		t.Errorf("OnDisconnected = %+v", dc)
	}
}

func TestReconnect_failure_reports_original_disconnect(t *testing.T) {
	f := newFixture(t)
	_, events := startTracker(t, f)

	events <- ifacemgr.DisconnectEvent{Info: ifacemgr.DisconnectInfo{
		Source: ifacemgr.DisconnectSource{
			Kind:       ifacemgr.DisconnectSourceMLME,
			ReasonCode: 7,
		},
		IsSMEReconnecting: true,
	}}
	events <- ifacemgr.ConnectResultEvent{IsReconnect: true, Code: ifacemgr.StatusRefusedReasonUnspecified}

	ev := nextCallback(t, f.cb)
	dc, ok := ev.(wlanix.OnDisconnected)
	if !ok {
		t.Fatalf("got %T, want OnDisconnected", ev)
	}
	if !dc.LocallyGenerated || dc.ReasonCode != 7 {
		t.Errorf("OnDisconnected = %+v", dc)
	}

	e := waitEvent(t, f.events, func(e telemetry.Event) bool {
		_, ok := e.(telemetry.Disconnect)
		return ok
	}).(telemetry.Disconnect)
	if !e.IsSMEReconnecting || e.SourceKind != "mlme" || e.ReasonCode != 7 {
		t.Errorf("Disconnect telemetry = %+v", e)
	}
}

func TestReconnect_result_without_pending_is_ignored(t *testing.T) {
	f := newFixture(t)
	_, events := startTracker(t, f)

	events <- ifacemgr.ConnectResultEvent{IsReconnect: true, Code: ifacemgr.StatusRefusedReasonUnspecified}
	events <- ifacemgr.SignalReportEvent{Ind: ifacemgr.SignalReport{RSSIDbm: -55, SNRDb: 18}}
	waitSignalReports(t, f, 1)

	if n := len(f.cb.Events()); n != 0 {
		t.Errorf("%d callback events, want 0", n)
	}
	if f.s.iface.CurrentTracker() == nil {
		t.Error("tracker cleared by a stray reconnect result")
	}
}

func TestRoam_failure_without_details(t *testing.T) {
	f := newFixture(t)
	_, events := startTracker(t, f)

	events <- ifacemgr.RoamResultEvent{Code: ifacemgr.StatusRefusedReasonUnspecified}

	ev := nextCallback(t, f.cb)
	dc, ok := ev.(wlanix.OnDisconnected)
	if !ok {
		t.Fatalf("got %T, want OnDisconnected", ev)
	}
	if !dc.LocallyGenerated || dc.ReasonCode != ifacemgr.ReasonUnspecified {
		t.Errorf("OnDisconnected = %+v", dc)
	}

	waitEvent(t, f.events, func(e telemetry.Event) bool {
		_, ok := e.(telemetry.Disconnect)
		return ok
	})

	got := f.fake.Client.Disconnects()
	if len(got) != 1 {
		t.Fatalf("engine disconnect notifications = %+v", got)
	}
	if got[0].Kind != ifacemgr.DisconnectSourceMLME || got[0].MlmeEventName != "RoamResultIndication" {
		t.Errorf("synthesized source = %+v", got[0])
	}
}

func TestUser_disconnect_reports_unspecified_reason(t *testing.T) {
	f := newFixture(t)
	_, events := startTracker(t, f)

	events <- ifacemgr.DisconnectEvent{Info: ifacemgr.DisconnectInfo{
		Source: ifacemgr.DisconnectSource{
			Kind:       ifacemgr.DisconnectSourceUser,
			UserReason: "wlan disabled from settings",
		},
	}}

	ev := nextCallback(t, f.cb)
	dc, ok := ev.(wlanix.OnDisconnected)
	if !ok {
		t.Fatalf("got %T, want OnDisconnected", ev)
	}
	if !dc.LocallyGenerated || dc.ReasonCode != ifacemgr.ReasonUnspecified {
		t.Errorf("OnDisconnected = %+v", dc)
	}

	e := waitEvent(t, f.events, func(e telemetry.Event) bool {
		_, ok := e.(telemetry.Disconnect)
		return ok
	}).(telemetry.Disconnect)
	if e.SourceKind != "user" {
		t.Errorf("SourceKind = %q, want user", e.SourceKind)
	}
}

func TestSignal_reports_update_link_snapshot(t *testing.T) {
	f := newFixture(t)
	_, events := startTracker(t, f)

	events <- ifacemgr.SignalReportEvent{Ind: ifacemgr.SignalReport{RSSIDbm: -70, SNRDb: 10}}
	events <- ifacemgr.ChannelSwitchEvent{NewChannel: 11}
	events <- ifacemgr.DisconnectEvent{Info: ifacemgr.DisconnectInfo{
		Source: ifacemgr.DisconnectSource{
			Kind:       ifacemgr.DisconnectSourceAP,
			ReasonCode: 1,
		},
	}}

	e := waitEvent(t, f.events, func(e telemetry.Event) bool {
		_, ok := e.(telemetry.Disconnect)
		return ok
	}).(telemetry.Disconnect)
	if e.RSSIDbm != -70 || e.SNRDb != 10 || e.Channel != 11 {
		t.Errorf("link snapshot = %+v", e)
	}

	reports := f.fake.Client.SignalReports()
	if len(reports) != 1 || reports[0].RSSIDbm != -70 {
		t.Errorf("forwarded signal reports = %+v", reports)
	}
}
