// Package ifacemgr defines the contract the wlanix gateway consumes from
// the underlying station management service, along with the domain types
// shared across the gateway. The gateway never talks to radio hardware
// itself; everything below this interface is an external collaborator.
package ifacemgr

import "context"

// IfaceManager is the device-level surface of the station management
// service. Every call may suspend arbitrarily long and fail independently.
type IfaceManager interface {
	ListPhys(ctx context.Context) ([]uint16, error)
	GetPowerState(ctx context.Context, phyID uint16) (bool, error)
	PowerUp(ctx context.Context, phyID uint16) error
	PowerDown(ctx context.Context, phyID uint16) error
	CreateClientIface(ctx context.Context, phyID uint16) (uint16, error)
	DestroyIface(ctx context.Context, ifaceID uint16) error

	// ListIfaces reports the currently known ifaces from local state and
	// never blocks.
	ListIfaces() []uint16

	GetClientIface(ctx context.Context, ifaceID uint16) (ClientIface, error)
	QueryIface(ctx context.Context, ifaceID uint16) (IfaceInfo, error)
	SetCountry(ctx context.Context, phyID uint16, code [2]byte) error
	GetCountry(ctx context.Context, phyID uint16) ([2]byte, error)
}

// ClientIface is the per-iface surface of the station management service.
type ClientIface interface {
	ConnectToNetwork(ctx context.Context, ssid []byte, creds *Credentials, bssid *MacAddr) (ConnectOutcome, error)
	Disconnect(ctx context.Context) error
	TriggerScan(ctx context.Context) (ScanEnd, error)
	AbortScan(ctx context.Context) error

	// GetLastScanResults reports the cached results of the most recent
	// scan from local state and never blocks.
	GetLastScanResults() []ScanResult

	// GetConnectedNetworkRSSI reports the last known signal strength of
	// the connected network, if any.
	GetConnectedNetworkRSSI() (int8, bool)

	SetPowerSaveMode(ctx context.Context, enable bool) error
	SetSuspendMode(ctx context.Context, enable bool) error
	SetCountry(ctx context.Context, code [2]byte) error

	// OnDisconnect and OnSignalReport are synchronous local notifications
	// that let the iface drop or refresh intermediate cached state. They
	// never block and have no failure mode observable to the caller.
	OnDisconnect(source DisconnectSource)
	OnSignalReport(ind SignalReport)
}
