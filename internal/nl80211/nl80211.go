// Package nl80211 implements the generic-netlink "nl80211" wire dialect
// spoken over the Nl80211 capability surface. It is a self-contained codec:
// messages are framed with a genl header (command, version, reserved)
// followed by netlink TLV attributes, little-endian, padded to 4 bytes.
package nl80211

import "fmt"

// Cmd identifies an nl80211 command. Values match the kernel's nl80211.h
// numbering so that standard tooling can make sense of captured payloads.
type Cmd uint8

const (
	CmdGetWiphy            Cmd = 1
	CmdNewWiphy            Cmd = 3
	CmdGetInterface        Cmd = 5
	CmdNewInterface        Cmd = 7
	CmdGetStation          Cmd = 17
	CmdNewStation          Cmd = 19
	CmdGetReg              Cmd = 31
	CmdGetScan             Cmd = 32
	CmdTriggerScan         Cmd = 33
	CmdNewScanResults      Cmd = 34
	CmdScanAborted         Cmd = 35
	CmdConnect             Cmd = 46
	CmdDisconnect          Cmd = 48
	CmdGetProtocolFeatures Cmd = 95
	CmdAbortScan           Cmd = 114
)

func (c Cmd) String() string {
	switch c {
	case CmdGetWiphy:
		return "get_wiphy"
	case CmdNewWiphy:
		return "new_wiphy"
	case CmdGetInterface:
		return "get_interface"
	case CmdNewInterface:
		return "new_interface"
	case CmdGetStation:
		return "get_station"
	case CmdNewStation:
		return "new_station"
	case CmdGetReg:
		return "get_reg"
	case CmdGetScan:
		return "get_scan"
	case CmdTriggerScan:
		return "trigger_scan"
	case CmdNewScanResults:
		return "new_scan_results"
	case CmdScanAborted:
		return "scan_aborted"
	case CmdConnect:
		return "connect"
	case CmdDisconnect:
		return "disconnect"
	case CmdGetProtocolFeatures:
		return "get_protocol_features"
	case CmdAbortScan:
		return "abort_scan"
	default:
		return fmt.Sprintf("unknown cmd (%d)", uint8(c))
	}
}

// MessageKind distinguishes payload-carrying messages from the control
// markers used to terminate or acknowledge multi-message responses.
type MessageKind uint8

const (
	KindMessage MessageKind = iota
	KindAck
	KindError
	KindDone
)

func (k MessageKind) String() string {
	switch k {
	case KindMessage:
		return "message"
	case KindAck:
		return "ack"
	case KindError:
		return "error"
	case KindDone:
		return "done"
	default:
		return fmt.Sprintf("unknown kind (%d)", uint8(k))
	}
}

// Message is one frame exchanged on the Nl80211 surface. Only KindMessage
// frames carry an encoded payload.
type Message struct {
	Kind    MessageKind
	Payload []byte
}

// NewMessage builds a payload-carrying message for the given command and
// attributes. Attribute order is preserved as given.
func NewMessage(cmd Cmd, attrs []Attr) Message {
	return Message{Kind: KindMessage, Payload: Encode(cmd, attrs)}
}

// NewAck builds an acknowledgement frame.
func NewAck() Message { return Message{Kind: KindAck} }

// NewError builds an error frame.
func NewError() Message { return Message{Kind: KindError} }

// NewDone builds the terminator for a multi-message response sequence.
func NewDone() Message { return Message{Kind: KindDone} }
