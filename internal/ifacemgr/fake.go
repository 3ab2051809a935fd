package ifacemgr

import (
	"context"
	"fmt"
	"sync"
)

// Fake is an in-memory IfaceManager with scriptable outcomes and call
// recording. It backs the gateway's tests and the simulated station
// manager used when no real SME is configured.
//
// Configure the exported fields before serving requests through it;
// mutating them mid-flight races with the serving goroutines.
type Fake struct {
	// Client is returned by every GetClientIface call. The gateway only
	// ever addresses the first iface, so a single client is enough.
	Client *FakeClientIface

	ListPhysErr    error
	PowerUpErr     error
	PowerDownErr   error
	CreateIfaceErr error
	// DestroyIfaceErrs makes DestroyIface fail for specific iface ids.
	DestroyIfaceErrs map[uint16]error
	SetCountryErr    error
	GetCountryErr    error

	mu          sync.Mutex
	phys        []uint16
	power       map[uint16]bool
	ifaces      []uint16
	nextIfaceID uint16
	country     map[uint16][2]byte
	calls       []string
}

// NewFake returns a Fake with one powered-down phy and no ifaces.
func NewFake() *Fake {
	return &Fake{
		Client:      NewFakeClientIface(),
		phys:        []uint16{1},
		power:       map[uint16]bool{1: false},
		nextIfaceID: 1,
		country:     make(map[uint16][2]byte),
	}
}

// SetPhys replaces the phy list.
func (f *Fake) SetPhys(phys ...uint16) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.phys = phys
	for _, p := range phys {
		if _, ok := f.power[p]; !ok {
			f.power[p] = false
		}
	}
}

// SetPower forces a phy's power state.
func (f *Fake) SetPower(phyID uint16, on bool) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.power[phyID] = on
}

// AddIface registers an existing iface id.
func (f *Fake) AddIface(ifaceID uint16) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.ifaces = append(f.ifaces, ifaceID)
}

// Calls returns the recorded call log.
func (f *Fake) Calls() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]string(nil), f.calls...)
}

func (f *Fake) record(call string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls = append(f.calls, call)
}

func (f *Fake) ListPhys(_ context.Context) ([]uint16, error) {
	f.record("list_phys")
	if f.ListPhysErr != nil {
		return nil, f.ListPhysErr
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]uint16(nil), f.phys...), nil
}

func (f *Fake) GetPowerState(_ context.Context, phyID uint16) (bool, error) {
	f.record(fmt.Sprintf("get_power_state:%d", phyID))
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.power[phyID], nil
}

func (f *Fake) PowerUp(_ context.Context, phyID uint16) error {
	f.record(fmt.Sprintf("power_up:%d", phyID))
	if f.PowerUpErr != nil {
		return f.PowerUpErr
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	f.power[phyID] = true
	return nil
}

func (f *Fake) PowerDown(_ context.Context, phyID uint16) error {
	f.record(fmt.Sprintf("power_down:%d", phyID))
	if f.PowerDownErr != nil {
		return f.PowerDownErr
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	f.power[phyID] = false
	return nil
}

func (f *Fake) CreateClientIface(_ context.Context, phyID uint16) (uint16, error) {
	f.record(fmt.Sprintf("create_client_iface:%d", phyID))
	if f.CreateIfaceErr != nil {
		return 0, f.CreateIfaceErr
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	id := f.nextIfaceID
	f.nextIfaceID++
	f.ifaces = append(f.ifaces, id)
	return id, nil
}

func (f *Fake) DestroyIface(_ context.Context, ifaceID uint16) error {
	f.record(fmt.Sprintf("destroy_iface:%d", ifaceID))
	if err := f.DestroyIfaceErrs[ifaceID]; err != nil {
		return err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	for i, id := range f.ifaces {
		if id == ifaceID {
			f.ifaces = append(f.ifaces[:i], f.ifaces[i+1:]...)
			break
		}
	}
	return nil
}

func (f *Fake) ListIfaces() []uint16 {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]uint16(nil), f.ifaces...)
}

func (f *Fake) GetClientIface(_ context.Context, ifaceID uint16) (ClientIface, error) {
	f.record(fmt.Sprintf("get_client_iface:%d", ifaceID))
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, id := range f.ifaces {
		if id == ifaceID {
			return f.Client, nil
		}
	}
	return nil, fmt.Errorf("no iface %d", ifaceID)
}

func (f *Fake) QueryIface(_ context.Context, ifaceID uint16) (IfaceInfo, error) {
	f.record(fmt.Sprintf("query_iface:%d", ifaceID))
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, id := range f.ifaces {
		if id == ifaceID {
			return IfaceInfo{StaAddr: f.Client.StaAddr}, nil
		}
	}
	return IfaceInfo{}, fmt.Errorf("no iface %d", ifaceID)
}

func (f *Fake) SetCountry(_ context.Context, phyID uint16, code [2]byte) error {
	f.record(fmt.Sprintf("set_country:%d:%s", phyID, code[:]))
	if f.SetCountryErr != nil {
		return f.SetCountryErr
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	f.country[phyID] = code
	return nil
}

func (f *Fake) GetCountry(_ context.Context, phyID uint16) ([2]byte, error) {
	f.record(fmt.Sprintf("get_country:%d", phyID))
	if f.GetCountryErr != nil {
		return [2]byte{}, f.GetCountryErr
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	if code, ok := f.country[phyID]; ok {
		return code, nil
	}
	return [2]byte{'W', 'W'}, nil
}

// FakeClientIface is the scriptable ClientIface returned by Fake.
type FakeClientIface struct {
	StaAddr MacAddr

	ConnectOutcome ConnectOutcome
	ConnectErr     error
	DisconnectErr  error

	ScanEnd  ScanEnd
	ScanErr  error
	AbortErr error
	// ScanGate, when non-nil, blocks TriggerScan until the channel is
	// closed, letting tests observe the pre-completion state.
	ScanGate chan struct{}

	ScanResults []ScanResult
	RSSI        *int8

	PowerSaveErr error
	SuspendErr   error
	CountryErr   error

	mu            sync.Mutex
	calls         []string
	disconnects   []DisconnectSource
	signalReports []SignalReport
	powerSave     *bool
	suspend       *bool
}

// NewFakeClientIface returns a client iface with a fixed station address.
func NewFakeClientIface() *FakeClientIface {
	return &FakeClientIface{StaAddr: MacAddr{0x02, 0x00, 0x5e, 0x00, 0x00, 0x01}}
}

// Calls returns the recorded call log.
func (c *FakeClientIface) Calls() []string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]string(nil), c.calls...)
}

// Disconnects returns the sources passed to OnDisconnect.
func (c *FakeClientIface) Disconnects() []DisconnectSource {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]DisconnectSource(nil), c.disconnects...)
}

// SignalReports returns the indications passed to OnSignalReport.
func (c *FakeClientIface) SignalReports() []SignalReport {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]SignalReport(nil), c.signalReports...)
}

func (c *FakeClientIface) record(call string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.calls = append(c.calls, call)
}

func (c *FakeClientIface) ConnectToNetwork(_ context.Context, ssid []byte, _ *Credentials, _ *MacAddr) (ConnectOutcome, error) {
	c.record(fmt.Sprintf("connect_to_network:%s", ssid))
	if c.ConnectErr != nil {
		return nil, c.ConnectErr
	}
	if c.ConnectOutcome == nil {
		return nil, fmt.Errorf("no connect outcome configured")
	}
	return c.ConnectOutcome, nil
}

func (c *FakeClientIface) Disconnect(_ context.Context) error {
	c.record("disconnect")
	return c.DisconnectErr
}

func (c *FakeClientIface) TriggerScan(_ context.Context) (ScanEnd, error) {
	c.record("trigger_scan")
	if c.ScanGate != nil {
		<-c.ScanGate
	}
	return c.ScanEnd, c.ScanErr
}

func (c *FakeClientIface) AbortScan(_ context.Context) error {
	c.record("abort_scan")
	return c.AbortErr
}

func (c *FakeClientIface) GetLastScanResults() []ScanResult {
	c.record("get_last_scan_results")
	return append([]ScanResult(nil), c.ScanResults...)
}

func (c *FakeClientIface) GetConnectedNetworkRSSI() (int8, bool) {
	c.record("get_connected_network_rssi")
	if c.RSSI == nil {
		return 0, false
	}
	return *c.RSSI, true
}

func (c *FakeClientIface) SetPowerSaveMode(_ context.Context, enable bool) error {
	c.record(fmt.Sprintf("set_power_save_mode:%t", enable))
	if c.PowerSaveErr != nil {
		return c.PowerSaveErr
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	c.powerSave = &enable
	return nil
}

func (c *FakeClientIface) SetSuspendMode(_ context.Context, enable bool) error {
	c.record(fmt.Sprintf("set_suspend_mode:%t", enable))
	if c.SuspendErr != nil {
		return c.SuspendErr
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	c.suspend = &enable
	return nil
}

func (c *FakeClientIface) SetCountry(_ context.Context, code [2]byte) error {
	c.record(fmt.Sprintf("set_country:%s", code[:]))
	return c.CountryErr
}

func (c *FakeClientIface) OnDisconnect(source DisconnectSource) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.disconnects = append(c.disconnects, source)
}

func (c *FakeClientIface) OnSignalReport(ind SignalReport) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.signalReports = append(c.signalReports, ind)
}
