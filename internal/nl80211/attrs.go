package nl80211

// Attribute type ids, from nl80211.h.
const (
	attrWiphy               uint16 = 1
	attrIfaceIndex          uint16 = 3
	attrIfaceName           uint16 = 4
	attrMac                 uint16 = 6
	attrStaInfo             uint16 = 21
	attrWiphyBands          uint16 = 22
	attrRegAlpha2           uint16 = 33
	attrMaxScanSSIDs        uint16 = 43
	attrBss                 uint16 = 47
	attrStatusCode          uint16 = 72
	attrMaxSchedScanSSIDs   uint16 = 94
	attrMaxMatchSets        uint16 = 133
	attrFeatureFlags        uint16 = 143
	attrProtocolFeatures    uint16 = 177
	attrExtendedFeatures    uint16 = 217
)

// Nested attribute ids inside a band entry.
const bandAttrFreqs uint16 = 1

// Nested attribute id inside a frequency entry.
const freqAttrFreq uint16 = 1

// Nested attribute ids inside NL80211_ATTR_BSS.
const (
	bssAttrBSSID              uint16 = 1
	bssAttrFrequency          uint16 = 2
	bssAttrCapability         uint16 = 5
	bssAttrInformationElement uint16 = 6
	bssAttrSignalMBM          uint16 = 7
	bssAttrStatus             uint16 = 9
	bssAttrLastSeenBoottime   uint16 = 15
	bssAttrChainSignal        uint16 = 19
)

// Nested attribute ids inside NL80211_ATTR_STA_INFO.
const (
	staInfoSignal    uint16 = 7
	staInfoTxPackets uint16 = 10
	staInfoTxFailed  uint16 = 12
)

// Attr is one typed nl80211 attribute. The concrete types below form the
// fixed vocabulary this dialect understands; Decode fails on anything else.
type Attr interface {
	isAttr()
}

// AttrWiphy identifies a physical device (NL80211_ATTR_WIPHY).
type AttrWiphy uint32

// AttrIfaceIndex identifies a virtual interface (NL80211_ATTR_IFINDEX).
type AttrIfaceIndex uint32

// AttrIfaceName carries an interface name (NL80211_ATTR_IFNAME).
type AttrIfaceName string

// AttrMac carries a MAC address (NL80211_ATTR_MAC).
type AttrMac [6]byte

// AttrMaxScanSSIDs reports the scan SSID capacity.
type AttrMaxScanSSIDs uint8

// AttrMaxScheduledScanSSIDs reports the scheduled-scan SSID capacity.
type AttrMaxScheduledScanSSIDs uint8

// AttrMaxMatchSets reports the scheduled-scan match set capacity.
type AttrMaxMatchSets uint8

// AttrFeatureFlags carries the NL80211_ATTR_FEATURE_FLAGS bitmask.
type AttrFeatureFlags uint32

// AttrExtendedFeatures carries the extended feature bytes.
type AttrExtendedFeatures []byte

// AttrProtocolFeatures carries the NL80211_ATTR_PROTOCOL_FEATURES bitmask.
type AttrProtocolFeatures uint32

// AttrStatusCode carries an IEEE 802.11 status code.
type AttrStatusCode uint16

// AttrRegAlpha2 carries the two-letter regulatory region.
type AttrRegAlpha2 [2]byte

// Band describes one supported band as a list of center frequencies in MHz.
type Band struct {
	Frequencies []uint32
}

// AttrWiphyBands carries the supported bands (NL80211_ATTR_WIPHY_BANDS).
type AttrWiphyBands []Band

// ChainSignal is a per-chain signal strength report.
type ChainSignal struct {
	ID      uint16
	RSSIDbm int8
}

// Bss describes one BSS entry as reported in scan results.
type Bss struct {
	BSSID              [6]byte
	FrequencyMHz       uint32
	IEs                []byte
	LastSeenBoottimeNs uint64
	SignalMBM          int32
	Capability         uint16
	Status             uint32
	ChainSignals       []ChainSignal
}

// AttrBss carries a BSS description (NL80211_ATTR_BSS).
type AttrBss Bss

// StaInfo carries per-station counters (NL80211_ATTR_STA_INFO).
type StaInfo struct {
	TxPackets uint32
	TxFailed  uint32
	SignalDBm int8
}

// AttrStaInfo carries station info.
type AttrStaInfo StaInfo

func (AttrWiphy) isAttr()                 {}
func (AttrIfaceIndex) isAttr()            {}
func (AttrIfaceName) isAttr()             {}
func (AttrMac) isAttr()                   {}
func (AttrMaxScanSSIDs) isAttr()          {}
func (AttrMaxScheduledScanSSIDs) isAttr() {}
func (AttrMaxMatchSets) isAttr()          {}
func (AttrFeatureFlags) isAttr()          {}
func (AttrExtendedFeatures) isAttr()      {}
func (AttrProtocolFeatures) isAttr()      {}
func (AttrStatusCode) isAttr()            {}
func (AttrRegAlpha2) isAttr()             {}
func (AttrWiphyBands) isAttr()            {}
func (AttrBss) isAttr()                   {}
func (AttrStaInfo) isAttr()               {}

// FindIfaceIndex returns the first interface index attribute, if any.
func FindIfaceIndex(attrs []Attr) (uint32, bool) {
	for _, a := range attrs {
		if idx, ok := a.(AttrIfaceIndex); ok {
			return uint32(idx), true
		}
	}
	return 0, false
}

// FindWiphy returns the first phy id attribute, if any.
func FindWiphy(attrs []Attr) (uint32, bool) {
	for _, a := range attrs {
		if id, ok := a.(AttrWiphy); ok {
			return uint32(id), true
		}
	}
	return 0, false
}
