package ifacemgr

import "fmt"

// MacAddr is an IEEE 802 MAC address.
type MacAddr [6]byte

func (m MacAddr) String() string {
	return fmt.Sprintf("%02x:%02x:%02x:%02x:%02x:%02x", m[0], m[1], m[2], m[3], m[4], m[5])
}

// StatusCode is an IEEE 802.11 association status code.
type StatusCode uint16

const (
	StatusSuccess                 StatusCode = 0
	StatusRefusedReasonUnspecified StatusCode = 1
)

// ReasonCode is an IEEE 802.11 deauthentication/disassociation reason code.
type ReasonCode uint16

const ReasonUnspecified ReasonCode = 1

// BssDescription is a snapshot of a BSS as last observed by the station
// management engine.
type BssDescription struct {
	BSSID          MacAddr
	SSID           []byte
	RSSIDbm        int8
	SNRDb          int8
	Channel        uint8
	CapabilityInfo uint16
	IEs            []byte
}

// ScanResult is one BSS observed during a scan.
type ScanResult struct {
	Bss BssDescription
}

// ScanEnd reports how a scan finished.
type ScanEnd int

const (
	ScanComplete ScanEnd = iota
	ScanCancelled
)

// DisconnectSourceKind identifies which party initiated a disconnect.
type DisconnectSourceKind int

const (
	DisconnectSourceAP DisconnectSourceKind = iota
	DisconnectSourceMLME
	DisconnectSourceUser
)

func (k DisconnectSourceKind) String() string {
	switch k {
	case DisconnectSourceAP:
		return "ap"
	case DisconnectSourceMLME:
		return "mlme"
	case DisconnectSourceUser:
		return "user"
	default:
		return fmt.Sprintf("unknown (%d)", int(k))
	}
}

// DisconnectSource describes the cause of a disconnect. AP- and
// MLME-sourced disconnects carry a reason code; user-sourced disconnects
// carry a free-form reason string instead.
type DisconnectSource struct {
	Kind          DisconnectSourceKind
	ReasonCode    ReasonCode
	MlmeEventName string
	UserReason    string
}

// DisconnectInfo is the payload of a disconnect transaction event.
type DisconnectInfo struct {
	Source            DisconnectSource
	IsSMEReconnecting bool
}

// SignalReport is a periodic signal quality indication for an established
// connection.
type SignalReport struct {
	RSSIDbm int8
	SNRDb   int8
}

// ConnectionEvent is one event on an established connection's transaction
// stream. Events arrive strictly in order; the stream closes when the
// connection is fully torn down.
type ConnectionEvent interface {
	isConnectionEvent()
}

// ConnectResultEvent reports the outcome of a connect or SME-driven
// reconnect attempt.
type ConnectResultEvent struct {
	Code        StatusCode
	IsReconnect bool
}

// RoamResultEvent reports the outcome of a roam attempt. On failure the
// engine may attach the disconnect it observed.
type RoamResultEvent struct {
	Code       StatusCode
	Disconnect *DisconnectInfo
}

// DisconnectEvent reports a disconnect, possibly with an in-flight
// reconnect attempt.
type DisconnectEvent struct {
	Info DisconnectInfo
}

// SignalReportEvent carries a signal quality update.
type SignalReportEvent struct {
	Ind SignalReport
}

// ChannelSwitchEvent reports that the connection moved to a new primary
// channel.
type ChannelSwitchEvent struct {
	NewChannel uint8
}

func (ConnectResultEvent) isConnectionEvent() {}
func (RoamResultEvent) isConnectionEvent()    {}
func (DisconnectEvent) isConnectionEvent()    {}
func (SignalReportEvent) isConnectionEvent()  {}
func (ChannelSwitchEvent) isConnectionEvent() {}

// ConnectOutcome is the terminal result of a connect attempt: either
// ConnectSuccess or ConnectFail.
type ConnectOutcome interface {
	isConnectOutcome()
}

// ConnectSuccess carries the negotiated BSS and the connection's
// transaction event stream.
type ConnectSuccess struct {
	Bss    BssDescription
	Events <-chan ConnectionEvent
}

// ConnectFail carries the rejecting BSS and status.
type ConnectFail struct {
	Bss      BssDescription
	Code     StatusCode
	TimedOut bool
}

func (ConnectSuccess) isConnectOutcome() {}
func (ConnectFail) isConnectOutcome()    {}

// Credentials carries the network credentials for a connect attempt. PSK is
// the derived pairwise master key when a WPA2 passphrase is in use.
type Credentials struct {
	Passphrase []byte
	PSK        [32]byte
}

// IfaceInfo is the static description of a virtual interface.
type IfaceInfo struct {
	StaAddr MacAddr
}
