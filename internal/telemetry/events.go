// Package telemetry collects gateway usage events, counts them in
// Prometheus, journals them to SQLite, and feeds the live event stream.
package telemetry

import (
	"time"

	"github.com/HerbHall/wlanix/internal/ifacemgr"
)

// Event is one telemetry record. Kind is a stable snake_case identifier
// used as the metric label and journal key.
type Event interface {
	Kind() string
}

// IfaceCreationFailure records a failed client iface creation.
type IfaceCreationFailure struct{}

// ClientIfaceCreated records a successful client iface creation.
type ClientIfaceCreated struct {
	IfaceID uint16 `json:"iface_id"`
}

// ClientIfaceDestroyed records a client iface teardown.
type ClientIfaceDestroyed struct {
	IfaceID uint16 `json:"iface_id"`
}

// IfaceDestructionFailure records a failed client iface teardown.
type IfaceDestructionFailure struct{}

// ClientConnectionsToggle records the WLAN subsystem being switched on
// or off.
type ClientConnectionsToggle struct {
	Enabled bool `json:"enabled"`
}

// RecoveryEvent records a requested subsystem restart.
type RecoveryEvent struct{}

// ScanStart records the start of a scan.
type ScanStart struct{}

// ScanOutcomeKind classifies how a scan ended.
type ScanOutcomeKind string

const (
	ScanComplete  ScanOutcomeKind = "complete"
	ScanCancelled ScanOutcomeKind = "cancelled"
	ScanFailed    ScanOutcomeKind = "failed"
)

// ScanOutcome records the end of a scan.
type ScanOutcome struct {
	Outcome    ScanOutcomeKind `json:"outcome"`
	NumResults int             `json:"num_results"`
}

// ConnectResult records the outcome of a connect attempt.
type ConnectResult struct {
	Code  ifacemgr.StatusCode `json:"code"`
	Bssid string              `json:"bssid"`
}

// Disconnect records the teardown of an established connection together
// with the last known link quality.
type Disconnect struct {
	IfaceID           uint16        `json:"iface_id"`
	ConnectedDuration time.Duration `json:"connected_duration"`
	SourceKind        string        `json:"source_kind"`
	ReasonCode        uint16        `json:"reason_code,omitempty"`
	IsSMEReconnecting bool          `json:"is_sme_reconnecting"`
	Bssid             string        `json:"bssid"`
	Ssid              string        `json:"ssid"`
	RSSIDbm           int8          `json:"rssi_dbm"`
	SNRDb             int8          `json:"snr_db"`
	Channel           uint8         `json:"channel"`
}

func (IfaceCreationFailure) Kind() string    { return "iface_creation_failure" }
func (ClientIfaceCreated) Kind() string      { return "client_iface_created" }
func (ClientIfaceDestroyed) Kind() string    { return "client_iface_destroyed" }
func (IfaceDestructionFailure) Kind() string { return "iface_destruction_failure" }
func (ClientConnectionsToggle) Kind() string { return "client_connections_toggle" }
func (RecoveryEvent) Kind() string           { return "recovery_event" }
func (ScanStart) Kind() string               { return "scan_start" }
func (ScanOutcome) Kind() string             { return "scan_outcome" }
func (ConnectResult) Kind() string           { return "connect_result" }
func (Disconnect) Kind() string              { return "disconnect" }
