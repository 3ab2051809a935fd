package wlanix

import "github.com/HerbHall/wlanix/internal/ifacemgr"

// SupplicantRequest is one request on a Supplicant capability session.
type SupplicantRequest interface {
	isSupplicantRequest()
}

// SupplicantAddStaInterface hands off a sta-iface capability session for
// the named iface.
type SupplicantAddStaInterface struct {
	IfaceName string
	Requests  <-chan SupplicantStaIfaceRequest
}

// SupplicantRemoveInterface tears down the connection on the named iface.
type SupplicantRemoveInterface struct {
	IfaceName string
}

// SupplicantUnknown is a request with an unrecognized ordinal.
type SupplicantUnknown struct {
	Ordinal uint64
}

func (SupplicantAddStaInterface) isSupplicantRequest() {}
func (SupplicantRemoveInterface) isSupplicantRequest() {}
func (SupplicantUnknown) isSupplicantRequest()         {}

// SupplicantStaIfaceRequest is one request on a supplicant sta-iface
// capability session.
type SupplicantStaIfaceRequest interface {
	isSupplicantStaIfaceRequest()
}

// StaIfaceRegisterCallback registers a connection lifecycle callback.
type StaIfaceRegisterCallback struct {
	Callback *SupplicantStaIfaceCallback
}

// StaIfaceAddNetwork hands off a network configuration session.
type StaIfaceAddNetwork struct {
	Requests <-chan SupplicantStaNetworkRequest
}

// StaIfaceDisconnect drops the current connection, if any.
type StaIfaceDisconnect struct {
	C *Completer[Empty]
}

// StaIfaceGetMacAddress reports the iface's station address.
type StaIfaceGetMacAddress struct {
	C *Completer[Result[ifacemgr.MacAddr]]
}

// StaIfaceSetPowerSave toggles powersave mode.
type StaIfaceSetPowerSave struct {
	Enable bool
	C      *Completer[Empty]
}

// StaIfaceSetSuspendModeEnabled toggles suspend mode.
type StaIfaceSetSuspendModeEnabled struct {
	Enable bool
	C      *Completer[Empty]
}

// StaIfaceSetStaCountryCode applies a two-letter regulatory country code
// through the iface.
type StaIfaceSetStaCountryCode struct {
	Code []byte
	C    *Completer[Result[Empty]]
}

// SupplicantStaIfaceUnknown is a request with an unrecognized ordinal.
type SupplicantStaIfaceUnknown struct {
	Ordinal uint64
}

func (StaIfaceRegisterCallback) isSupplicantStaIfaceRequest()      {}
func (StaIfaceAddNetwork) isSupplicantStaIfaceRequest()            {}
func (StaIfaceDisconnect) isSupplicantStaIfaceRequest()            {}
func (StaIfaceGetMacAddress) isSupplicantStaIfaceRequest()         {}
func (StaIfaceSetPowerSave) isSupplicantStaIfaceRequest()          {}
func (StaIfaceSetSuspendModeEnabled) isSupplicantStaIfaceRequest() {}
func (StaIfaceSetStaCountryCode) isSupplicantStaIfaceRequest()     {}
func (SupplicantStaIfaceUnknown) isSupplicantStaIfaceRequest()     {}

// SupplicantStaNetworkRequest is one request on a network configuration
// session.
type SupplicantStaNetworkRequest interface {
	isSupplicantStaNetworkRequest()
}

// NetworkSetBssid pins the connect attempt to a specific BSS.
type NetworkSetBssid struct {
	Bssid ifacemgr.MacAddr
}

// NetworkClearBssid removes a previously pinned BSS.
type NetworkClearBssid struct{}

// NetworkSetSsid sets the target network name.
type NetworkSetSsid struct {
	Ssid []byte
}

// NetworkSetPskPassphrase sets a WPA2 passphrase for the target network.
type NetworkSetPskPassphrase struct {
	Passphrase []byte
}

// NetworkSelect initiates a connect attempt with the accumulated
// configuration.
type NetworkSelect struct {
	C *Completer[Result[Empty]]
}

// SupplicantStaNetworkUnknown is a request with an unrecognized ordinal.
type SupplicantStaNetworkUnknown struct {
	Ordinal uint64
}

func (NetworkSetBssid) isSupplicantStaNetworkRequest()             {}
func (NetworkClearBssid) isSupplicantStaNetworkRequest()           {}
func (NetworkSetSsid) isSupplicantStaNetworkRequest()              {}
func (NetworkSetPskPassphrase) isSupplicantStaNetworkRequest()     {}
func (NetworkSelect) isSupplicantStaNetworkRequest()               {}
func (SupplicantStaNetworkUnknown) isSupplicantStaNetworkRequest() {}
