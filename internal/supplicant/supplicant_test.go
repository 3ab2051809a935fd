package supplicant

import (
	"context"
	"testing"
	"time"

	"go.uber.org/zap"

	"github.com/HerbHall/wlanix/internal/ifacemgr"
	"github.com/HerbHall/wlanix/internal/nl80211"
	"github.com/HerbHall/wlanix/internal/telemetry"
	"github.com/HerbHall/wlanix/internal/wifi"
	"github.com/HerbHall/wlanix/internal/wlanix"
)

var testBss = ifacemgr.BssDescription{
	BSSID:   ifacemgr.MacAddr{0xaa, 0xbb, 0xcc, 0x00, 0x11, 0x22},
	SSID:    []byte("test-network"),
	RSSIDbm: -40,
	SNRDb:   28,
	Channel: 6,
}

type fixture struct {
	s      *Server
	fake   *ifacemgr.Fake
	events <-chan telemetry.Event
	mlme   *wlanix.Nl80211Multicast
	cb     *wlanix.SupplicantStaIfaceCallback
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	logger := zap.NewNop()
	fake := ifacemgr.NewFake()
	fake.AddIface(1)
	tel, events := telemetry.NewSender(logger, 64)
	state := wifi.NewState(logger)
	mlme := wlanix.NewNl80211Multicast()
	state.SetMlmeMulticast(mlme)
	s := NewServer(logger, fake, state, tel)
	cb := wlanix.NewSupplicantStaIfaceCallback()
	s.iface.AddCallback(cb)
	return &fixture{s: s, fake: fake, events: events, mlme: mlme, cb: cb}
}

// selectNetwork drives one Select through a network session and returns
// the reply.
func (f *fixture) selectNetwork(t *testing.T, reqs ...wlanix.SupplicantStaNetworkRequest) wlanix.Result[wlanix.Empty] {
	t.Helper()
	ch := make(chan wlanix.SupplicantStaNetworkRequest)
	go f.s.ServeNetwork(context.Background(), 1, f.fake.Client, ch)
	for _, r := range reqs {
		ch <- r
	}
	c, result := wlanix.NewCompleter[wlanix.Result[wlanix.Empty]]()
	ch <- wlanix.NetworkSelect{C: c}
	close(ch)
	select {
	case res := <-result:
		return res
	case <-time.After(5 * time.Second):
		t.Fatal("Select did not complete")
		return wlanix.Result[wlanix.Empty]{}
	}
}

func nextCallback(t *testing.T, cb *wlanix.SupplicantStaIfaceCallback) wlanix.StaIfaceEvent {
	t.Helper()
	select {
	case ev, ok := <-cb.Events():
		if !ok {
			t.Fatal("callback channel closed")
		}
		return ev
	case <-time.After(5 * time.Second):
		t.Fatal("no callback event")
		return nil
	}
}

func nextMulticast(t *testing.T, m *wlanix.Nl80211Multicast) (nl80211.Cmd, []nl80211.Attr) {
	t.Helper()
	select {
	case msg := <-m.Events():
		if msg.Kind != nl80211.KindMessage {
			t.Fatalf("multicast kind = %v, want message", msg.Kind)
		}
		cmd, attrs, err := nl80211.Decode(msg.Payload)
		if err != nil {
			t.Fatalf("decode multicast: %v", err)
		}
		return cmd, attrs
	case <-time.After(5 * time.Second):
		t.Fatal("no multicast message")
		return 0, nil
	}
}

func waitEvent(t *testing.T, events <-chan telemetry.Event, match func(telemetry.Event) bool) telemetry.Event {
	t.Helper()
	deadline := time.After(5 * time.Second)
	for {
		select {
		case e := <-events:
			if match(e) {
				return e
			}
		case <-deadline:
			t.Fatal("telemetry event did not arrive")
			return nil
		}
	}
}

func findStatus(t *testing.T, attrs []nl80211.Attr) uint16 {
	t.Helper()
	for _, a := range attrs {
		if s, ok := a.(nl80211.AttrStatusCode); ok {
			return uint16(s)
		}
	}
	t.Fatal("no status code attribute")
	return 0
}

func findMac(t *testing.T, attrs []nl80211.Attr) [6]byte {
	t.Helper()
	for _, a := range attrs {
		if m, ok := a.(nl80211.AttrMac); ok {
			return [6]byte(m)
		}
	}
	t.Fatal("no mac attribute")
	return [6]byte{}
}

func TestSelect_success_notifies_and_multicasts(t *testing.T) {
	f := newFixture(t)
	connEvents := make(chan ifacemgr.ConnectionEvent)
	f.fake.Client.ConnectOutcome = ifacemgr.ConnectSuccess{Bss: testBss, Events: connEvents}

	res := f.selectNetwork(t, wlanix.NetworkSetSsid{Ssid: testBss.SSID})
	if res.Err != 0 {
		t.Fatalf("Select: %v", res.Err)
	}

	ev := nextCallback(t, f.cb)
	sc, ok := ev.(wlanix.OnStateChanged)
	if !ok {
		t.Fatalf("got %T, want OnStateChanged", ev)
	}
	if sc.NewState != wlanix.StaStateCompleted || sc.Bssid != testBss.BSSID {
		t.Errorf("OnStateChanged = %+v", sc)
	}

	cmd, attrs := nextMulticast(t, f.mlme)
	if cmd != nl80211.CmdConnect {
		t.Errorf("multicast cmd = %v, want CmdConnect", cmd)
	}
	if got := findStatus(t, attrs); got != uint16(ifacemgr.StatusSuccess) {
		t.Errorf("status = %d, want success", got)
	}
	if got := findMac(t, attrs); got != [6]byte(testBss.BSSID) {
		t.Errorf("mac = %x, want %x", got, testBss.BSSID)
	}

	waitEvent(t, f.events, func(e telemetry.Event) bool {
		cr, ok := e.(telemetry.ConnectResult)
		return ok && cr.Code == ifacemgr.StatusSuccess
	})

	if f.s.iface.CurrentTracker() == nil {
		t.Error("no connection tracker installed")
	}
}

func TestSelect_without_ssid(t *testing.T) {
	f := newFixture(t)

	res := f.selectNetwork(t)
	if res.Err != wlanix.ErrBadState {
		t.Fatalf("got %v, want ErrBadState", res.Err)
	}

	// The attempt still resolves on the multicast group, as a refusal
	// with no BSS.
	cmd, attrs := nextMulticast(t, f.mlme)
	if cmd != nl80211.CmdConnect {
		t.Errorf("multicast cmd = %v, want CmdConnect", cmd)
	}
	if got := findStatus(t, attrs); got != uint16(ifacemgr.StatusRefusedReasonUnspecified) {
		t.Errorf("status = %d, want refused", got)
	}
	if got := findMac(t, attrs); got != ([6]byte{}) {
		t.Errorf("mac = %x, want zero", got)
	}
}

func TestSelect_rejected_association(t *testing.T) {
	f := newFixture(t)
	f.fake.Client.ConnectOutcome = ifacemgr.ConnectFail{
		Bss:      testBss,
		Code:     ifacemgr.StatusRefusedReasonUnspecified,
		TimedOut: true,
	}

	// A clean rejection resolves the Select successfully; the failure is
	// surfaced through the association-rejected callback.
	res := f.selectNetwork(t, wlanix.NetworkSetSsid{Ssid: testBss.SSID})
	if res.Err != 0 {
		t.Fatalf("Select: %v", res.Err)
	}

	ev := nextCallback(t, f.cb)
	rej, ok := ev.(wlanix.OnAssociationRejected)
	if !ok {
		t.Fatalf("got %T, want OnAssociationRejected", ev)
	}
	if rej.Bssid != testBss.BSSID || !rej.TimedOut {
		t.Errorf("OnAssociationRejected = %+v", rej)
	}

	_, attrs := nextMulticast(t, f.mlme)
	if got := findMac(t, attrs); got != ([6]byte{}) {
		t.Errorf("mac = %x, want zero on failure", got)
	}
	if got := findStatus(t, attrs); got != uint16(ifacemgr.StatusRefusedReasonUnspecified) {
		t.Errorf("status = %d, want refused", got)
	}
}

func TestSelect_blocks_session_until_connection_ends(t *testing.T) {
	f := newFixture(t)
	connEvents := make(chan ifacemgr.ConnectionEvent)
	f.fake.Client.ConnectOutcome = ifacemgr.ConnectSuccess{Bss: testBss, Events: connEvents}

	ch := make(chan wlanix.SupplicantStaNetworkRequest)
	go f.s.ServeNetwork(context.Background(), 1, f.fake.Client, ch)
	ch <- wlanix.NetworkSetSsid{Ssid: testBss.SSID}
	c1, res1 := wlanix.NewCompleter[wlanix.Result[wlanix.Empty]]()
	ch <- wlanix.NetworkSelect{C: c1}
	if res := <-res1; res.Err != 0 {
		t.Fatalf("first Select: %v", res.Err)
	}

	c2, res2 := wlanix.NewCompleter[wlanix.Result[wlanix.Empty]]()
	go func() { ch <- wlanix.NetworkSelect{C: c2} }()

	select {
	case res := <-res2:
		t.Fatalf("second Select completed while the first connection is live: %+v", res)
	case <-time.After(50 * time.Millisecond):
	}

	close(connEvents)
	select {
	case <-res2:
	case <-time.After(5 * time.Second):
		t.Fatal("second Select did not run after the connection ended")
	}

	connects := 0
	for _, call := range f.fake.Client.Calls() {
		if call == "connect_to_network:"+string(testBss.SSID) {
			connects++
		}
	}
	if connects != 2 {
		t.Errorf("connect attempts = %d, want 2", connects)
	}
}

func TestAddCallback_replaces_existing(t *testing.T) {
	f := newFixture(t)
	second := wlanix.NewSupplicantStaIfaceCallback()
	f.s.iface.AddCallback(second)

	f.s.iface.Notify(wlanix.OnStateChanged{NewState: wlanix.StaStateCompleted})

	if got := f.s.iface.CallbackCount(); got != 1 {
		t.Errorf("callback count = %d, want 1", got)
	}
	ev := nextCallback(t, second)
	if _, ok := ev.(wlanix.OnStateChanged); !ok {
		t.Errorf("replacement callback got %T", ev)
	}
	select {
	case ev := <-f.cb.Events():
		t.Errorf("replaced callback still receives events, got %T", ev)
	default:
	}
}

func TestSelect_invalid_passphrase(t *testing.T) {
	f := newFixture(t)

	res := f.selectNetwork(t,
		wlanix.NetworkSetSsid{Ssid: testBss.SSID},
		wlanix.NetworkSetPskPassphrase{Passphrase: []byte("short")},
	)
	if res.Err != wlanix.ErrInvalidArgs {
		t.Fatalf("got %v, want ErrInvalidArgs", res.Err)
	}
}

func TestSelect_passes_derived_credentials(t *testing.T) {
	f := newFixture(t)
	connEvents := make(chan ifacemgr.ConnectionEvent)
	f.fake.Client.ConnectOutcome = ifacemgr.ConnectSuccess{Bss: testBss, Events: connEvents}

	res := f.selectNetwork(t,
		wlanix.NetworkSetSsid{Ssid: testBss.SSID},
		wlanix.NetworkSetPskPassphrase{Passphrase: []byte("correct horse battery")},
	)
	if res.Err != 0 {
		t.Fatalf("Select: %v", res.Err)
	}
}

func TestStaIface_get_mac_address(t *testing.T) {
	f := newFixture(t)

	c, ch := wlanix.NewCompleter[wlanix.Result[ifacemgr.MacAddr]]()
	f.s.handleStaIface(context.Background(), zap.NewNop(), 1, f.fake.Client,
		wlanix.StaIfaceGetMacAddress{C: c})

	res := <-ch
	if res.Err != 0 {
		t.Fatalf("GetMacAddress: %v", res.Err)
	}
	if res.Value != f.fake.Client.StaAddr {
		t.Errorf("mac = %v, want %v", res.Value, f.fake.Client.StaAddr)
	}
}

func TestStaIface_disconnect_calls_engine(t *testing.T) {
	f := newFixture(t)

	c, ch := wlanix.NewCompleter[wlanix.Empty]()
	f.s.handleStaIface(context.Background(), zap.NewNop(), 1, f.fake.Client,
		wlanix.StaIfaceDisconnect{C: c})
	<-ch

	calls := f.fake.Client.Calls()
	if len(calls) == 0 || calls[len(calls)-1] != "disconnect" {
		t.Errorf("calls = %v, want trailing disconnect", calls)
	}
}

func TestStaIface_country_code_validation(t *testing.T) {
	f := newFixture(t)

	c, ch := wlanix.NewCompleter[wlanix.Result[wlanix.Empty]]()
	f.s.handleStaIface(context.Background(), zap.NewNop(), 1, f.fake.Client,
		wlanix.StaIfaceSetStaCountryCode{Code: []byte("X"), C: c})
	if res := <-ch; res.Err != wlanix.ErrInvalidArgs {
		t.Errorf("got %v, want ErrInvalidArgs", res.Err)
	}
}

func TestRemoveInterface_disconnects_only(t *testing.T) {
	f := newFixture(t)

	f.s.removeInterface(context.Background(), wifi.IfaceName)

	calls := f.fake.Client.Calls()
	if len(calls) == 0 || calls[len(calls)-1] != "disconnect" {
		t.Errorf("calls = %v, want disconnect", calls)
	}
	if got := f.fake.ListIfaces(); len(got) != 1 {
		t.Errorf("iface destroyed by RemoveInterface, got %v", got)
	}
}
