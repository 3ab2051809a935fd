package wlanix

// WifiRequest is one request on a Wifi capability session.
type WifiRequest interface {
	isWifiRequest()
}

// WifiRegisterEventCallback registers a subsystem lifecycle callback.
type WifiRegisterEventCallback struct {
	Callback *WifiEventCallback
}

// WifiStart powers up every phy and reports when all are up.
type WifiStart struct {
	C *Completer[Result[Empty]]
}

// WifiStop tears down all ifaces and powers every phy down.
type WifiStop struct {
	C *Completer[Result[Empty]]
}

// WifiGetState reports whether the subsystem is started.
type WifiGetState struct {
	C *Completer[WifiState]
}

// WifiState is the GetState reply payload.
type WifiState struct {
	IsStarted bool
}

// WifiGetChipIds lists the chip (phy) identifiers.
type WifiGetChipIds struct {
	C *Completer[[]uint32]
}

// WifiGetChip hands off a chip capability session for one chip id.
type WifiGetChip struct {
	ChipID   uint32
	Requests <-chan WifiChipRequest
	C        *Completer[Result[Empty]]
}

// WifiUnknown is a request with an unrecognized ordinal.
type WifiUnknown struct {
	Ordinal uint64
}

func (WifiRegisterEventCallback) isWifiRequest() {}
func (WifiStart) isWifiRequest()                 {}
func (WifiStop) isWifiRequest()                  {}
func (WifiGetState) isWifiRequest()              {}
func (WifiGetChipIds) isWifiRequest()            {}
func (WifiGetChip) isWifiRequest()               {}
func (WifiUnknown) isWifiRequest()               {}

// WifiChipRequest is one request on a chip capability session.
type WifiChipRequest interface {
	isWifiChipRequest()
}

// ChipCreateStaIface creates a client iface on the chip and hands off its
// capability session.
type ChipCreateStaIface struct {
	Requests <-chan WifiStaIfaceRequest
	C        *Completer[Result[Empty]]
}

// ChipGetStaIfaceNames lists the names of the chip's client ifaces.
type ChipGetStaIfaceNames struct {
	C *Completer[[]string]
}

// ChipGetStaIface hands off a capability session for an existing iface.
type ChipGetStaIface struct {
	IfaceName string
	Requests  <-chan WifiStaIfaceRequest
	C         *Completer[Result[Empty]]
}

// ChipRemoveStaIface destroys a client iface.
type ChipRemoveStaIface struct {
	IfaceName string
	C         *Completer[Result[Empty]]
}

// ChipSetCountryCode applies a two-letter regulatory country code.
type ChipSetCountryCode struct {
	Code []byte
	C    *Completer[Result[Empty]]
}

// ChipGetAvailableModes reports the supported iface concurrency modes.
type ChipGetAvailableModes struct {
	C *Completer[[]ChipMode]
}

// ChipGetId reports the chip identifier.
type ChipGetId struct {
	C *Completer[uint32]
}

// ChipGetMode reports the currently active mode.
type ChipGetMode struct {
	C *Completer[uint32]
}

// ChipGetCapabilities reports the chip capability mask.
type ChipGetCapabilities struct {
	C *Completer[uint32]
}

// ChipTriggerSubsystemRestart asks the vendor subsystem to restart.
type ChipTriggerSubsystemRestart struct {
	C *Completer[Result[Empty]]
}

// WifiChipUnknown is a request with an unrecognized ordinal.
type WifiChipUnknown struct {
	Ordinal uint64
}

func (ChipCreateStaIface) isWifiChipRequest()          {}
func (ChipGetStaIfaceNames) isWifiChipRequest()        {}
func (ChipGetStaIface) isWifiChipRequest()             {}
func (ChipRemoveStaIface) isWifiChipRequest()          {}
func (ChipSetCountryCode) isWifiChipRequest()          {}
func (ChipGetAvailableModes) isWifiChipRequest()       {}
func (ChipGetId) isWifiChipRequest()                   {}
func (ChipGetMode) isWifiChipRequest()                 {}
func (ChipGetCapabilities) isWifiChipRequest()         {}
func (ChipTriggerSubsystemRestart) isWifiChipRequest() {}
func (WifiChipUnknown) isWifiChipRequest()             {}

// IfaceConcurrencyType classifies an iface role in a concurrency limit.
type IfaceConcurrencyType int

const (
	IfaceConcurrencyTypeSta IfaceConcurrencyType = iota
	IfaceConcurrencyTypeAp
)

// ChipConcurrencyCombinationLimit bounds how many ifaces of the listed
// types may coexist.
type ChipConcurrencyCombinationLimit struct {
	Types     []IfaceConcurrencyType
	MaxIfaces uint32
}

// ChipConcurrencyCombination is one legal set of concurrent ifaces.
type ChipConcurrencyCombination struct {
	Limits []ChipConcurrencyCombinationLimit
}

// ChipMode describes one operating mode a chip supports.
type ChipMode struct {
	ID                    uint32
	AvailableCombinations []ChipConcurrencyCombination
}

// WifiStaIfaceRequest is one request on a sta-iface capability session.
type WifiStaIfaceRequest interface {
	isWifiStaIfaceRequest()
}

// StaIfaceGetName reports the iface name.
type StaIfaceGetName struct {
	C *Completer[string]
}

// WifiStaIfaceUnknown is a request with an unrecognized ordinal.
type WifiStaIfaceUnknown struct {
	Ordinal uint64
}

func (StaIfaceGetName) isWifiStaIfaceRequest()     {}
func (WifiStaIfaceUnknown) isWifiStaIfaceRequest() {}
