package wlanix

// WlanixRequest is one request on the root capability. The Get* variants
// hand off a nested capability: the caller retains the send side of the
// Requests channel and the server serves the receive side until it closes.
type WlanixRequest interface {
	isWlanixRequest()
}

// GetWifi hands off a Wifi capability session.
type GetWifi struct {
	Requests <-chan WifiRequest
}

// GetSupplicant hands off a Supplicant capability session.
type GetSupplicant struct {
	Requests <-chan SupplicantRequest
}

// GetNl80211 hands off an nl80211 message session.
type GetNl80211 struct {
	Requests <-chan Nl80211Request
}

// WlanixUnknown is a request with an unrecognized ordinal.
type WlanixUnknown struct {
	Ordinal uint64
}

func (GetWifi) isWlanixRequest()       {}
func (GetSupplicant) isWlanixRequest() {}
func (GetNl80211) isWlanixRequest()    {}
func (WlanixUnknown) isWlanixRequest() {}
