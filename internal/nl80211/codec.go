package nl80211

import (
	"encoding/binary"
	"errors"
	"fmt"
)

// genlVersion is the family version stamped into every encoded header.
const genlVersion = 1

// ErrDecode is wrapped by every decoding failure. Callers are expected to
// answer a failed decode with a protocol-level error, not a raw fault.
var ErrDecode = errors.New("malformed nl80211 message")

func decodeErrf(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrDecode, fmt.Sprintf(format, args...))
}

// Encode serializes a command and its attributes. The result is a genl
// header (cmd, version, reserved) followed by the attributes in the order
// given, each padded to a 4-byte boundary. Encoding is deterministic.
func Encode(cmd Cmd, attrs []Attr) []byte {
	b := []byte{byte(cmd), genlVersion, 0, 0}
	for _, a := range attrs {
		b = appendAttr(b, a)
	}
	return b
}

// Decode parses an encoded message back into its command and attributes.
// It fails with an error wrapping ErrDecode on truncated input, malformed
// attribute framing, or an attribute type outside the supported vocabulary.
func Decode(b []byte) (Cmd, []Attr, error) {
	if len(b) < 4 {
		return 0, nil, decodeErrf("short genl header: %d bytes", len(b))
	}
	cmd := Cmd(b[0])
	attrs, err := decodeAttrs(b[4:])
	if err != nil {
		return 0, nil, err
	}
	return cmd, attrs, nil
}

func align4(n int) int {
	return (n + 3) &^ 3
}

func appendU16(b []byte, v uint16) []byte {
	return binary.LittleEndian.AppendUint16(b, v)
}

func appendU32(b []byte, v uint32) []byte {
	return binary.LittleEndian.AppendUint32(b, v)
}

// appendTLV appends one netlink attribute (length, type, payload, padding).
// The length field covers the 4-byte attribute header plus the payload.
func appendTLV(b []byte, typ uint16, payload []byte) []byte {
	b = appendU16(b, uint16(4+len(payload)))
	b = appendU16(b, typ)
	b = append(b, payload...)
	for i := len(payload); i < align4(len(payload)); i++ {
		b = append(b, 0)
	}
	return b
}

func appendAttr(b []byte, a Attr) []byte {
	switch v := a.(type) {
	case AttrWiphy:
		return appendTLV(b, attrWiphy, appendU32(nil, uint32(v)))
	case AttrIfaceIndex:
		return appendTLV(b, attrIfaceIndex, appendU32(nil, uint32(v)))
	case AttrIfaceName:
		// Netlink strings are NUL-terminated on the wire.
		return appendTLV(b, attrIfaceName, append([]byte(v), 0))
	case AttrMac:
		return appendTLV(b, attrMac, v[:])
	case AttrMaxScanSSIDs:
		return appendTLV(b, attrMaxScanSSIDs, []byte{byte(v)})
	case AttrMaxScheduledScanSSIDs:
		return appendTLV(b, attrMaxSchedScanSSIDs, []byte{byte(v)})
	case AttrMaxMatchSets:
		return appendTLV(b, attrMaxMatchSets, []byte{byte(v)})
	case AttrFeatureFlags:
		return appendTLV(b, attrFeatureFlags, appendU32(nil, uint32(v)))
	case AttrExtendedFeatures:
		return appendTLV(b, attrExtendedFeatures, []byte(v))
	case AttrProtocolFeatures:
		return appendTLV(b, attrProtocolFeatures, appendU32(nil, uint32(v)))
	case AttrStatusCode:
		return appendTLV(b, attrStatusCode, appendU16(nil, uint16(v)))
	case AttrRegAlpha2:
		return appendTLV(b, attrRegAlpha2, v[:])
	case AttrWiphyBands:
		return appendTLV(b, attrWiphyBands, encodeBands(v))
	case AttrBss:
		return appendTLV(b, attrBss, encodeBss(Bss(v)))
	case AttrStaInfo:
		return appendTLV(b, attrStaInfo, encodeStaInfo(StaInfo(v)))
	default:
		// All Attr implementations live in this package; a new variant
		// without an encoding arm is a programming error.
		panic(fmt.Sprintf("nl80211: unencodable attribute %T", a))
	}
}

func encodeBands(bands []Band) []byte {
	var b []byte
	for i, band := range bands {
		var freqs []byte
		for j, f := range band.Frequencies {
			entry := appendTLV(nil, freqAttrFreq, appendU32(nil, f))
			freqs = appendTLV(freqs, uint16(j), entry)
		}
		inner := appendTLV(nil, bandAttrFreqs, freqs)
		b = appendTLV(b, uint16(i), inner)
	}
	return b
}

func encodeBss(bss Bss) []byte {
	var b []byte
	b = appendTLV(b, bssAttrBSSID, bss.BSSID[:])
	b = appendTLV(b, bssAttrFrequency, appendU32(nil, bss.FrequencyMHz))
	b = appendTLV(b, bssAttrInformationElement, bss.IEs)
	b = appendTLV(b, bssAttrLastSeenBoottime, binary.LittleEndian.AppendUint64(nil, bss.LastSeenBoottimeNs))
	b = appendTLV(b, bssAttrSignalMBM, appendU32(nil, uint32(bss.SignalMBM)))
	b = appendTLV(b, bssAttrCapability, appendU16(nil, bss.Capability))
	b = appendTLV(b, bssAttrStatus, appendU32(nil, bss.Status))
	var chains []byte
	for _, cs := range bss.ChainSignals {
		chains = appendTLV(chains, cs.ID, []byte{byte(cs.RSSIDbm)})
	}
	b = appendTLV(b, bssAttrChainSignal, chains)
	return b
}

func encodeStaInfo(si StaInfo) []byte {
	var b []byte
	b = appendTLV(b, staInfoTxPackets, appendU32(nil, si.TxPackets))
	b = appendTLV(b, staInfoTxFailed, appendU32(nil, si.TxFailed))
	b = appendTLV(b, staInfoSignal, []byte{byte(si.SignalDBm)})
	return b
}

// tlv is one raw attribute as cut out of the wire bytes.
type tlv struct {
	typ     uint16
	payload []byte
}

func splitTLVs(b []byte) ([]tlv, error) {
	var out []tlv
	for len(b) > 0 {
		if len(b) < 4 {
			return nil, decodeErrf("truncated attribute header: %d bytes", len(b))
		}
		alen := int(binary.LittleEndian.Uint16(b[0:2]))
		typ := binary.LittleEndian.Uint16(b[2:4])
		if alen < 4 || alen > len(b) {
			return nil, decodeErrf("attribute %d has bad length %d", typ, alen)
		}
		out = append(out, tlv{typ: typ, payload: b[4:alen]})
		next := align4(alen)
		if next > len(b) {
			next = len(b)
		}
		b = b[next:]
	}
	return out, nil
}

func decodeAttrs(b []byte) ([]Attr, error) {
	tlvs, err := splitTLVs(b)
	if err != nil {
		return nil, err
	}
	var attrs []Attr
	for _, t := range tlvs {
		a, err := decodeAttr(t)
		if err != nil {
			return nil, err
		}
		attrs = append(attrs, a)
	}
	return attrs, nil
}

func decodeAttr(t tlv) (Attr, error) {
	switch t.typ {
	case attrWiphy:
		v, err := payloadU32(t)
		return AttrWiphy(v), err
	case attrIfaceIndex:
		v, err := payloadU32(t)
		return AttrIfaceIndex(v), err
	case attrIfaceName:
		if len(t.payload) == 0 || t.payload[len(t.payload)-1] != 0 {
			return nil, decodeErrf("iface name is not NUL-terminated")
		}
		return AttrIfaceName(t.payload[:len(t.payload)-1]), nil
	case attrMac:
		if len(t.payload) != 6 {
			return nil, decodeErrf("mac attribute has %d bytes", len(t.payload))
		}
		var m AttrMac
		copy(m[:], t.payload)
		return m, nil
	case attrMaxScanSSIDs:
		v, err := payloadU8(t)
		return AttrMaxScanSSIDs(v), err
	case attrMaxSchedScanSSIDs:
		v, err := payloadU8(t)
		return AttrMaxScheduledScanSSIDs(v), err
	case attrMaxMatchSets:
		v, err := payloadU8(t)
		return AttrMaxMatchSets(v), err
	case attrFeatureFlags:
		v, err := payloadU32(t)
		return AttrFeatureFlags(v), err
	case attrExtendedFeatures:
		return AttrExtendedFeatures(append([]byte(nil), t.payload...)), nil
	case attrProtocolFeatures:
		v, err := payloadU32(t)
		return AttrProtocolFeatures(v), err
	case attrStatusCode:
		v, err := payloadU16(t)
		return AttrStatusCode(v), err
	case attrRegAlpha2:
		if len(t.payload) != 2 {
			return nil, decodeErrf("regulatory region has %d bytes", len(t.payload))
		}
		var r AttrRegAlpha2
		copy(r[:], t.payload)
		return r, nil
	case attrWiphyBands:
		bands, err := decodeBands(t.payload)
		return AttrWiphyBands(bands), err
	case attrBss:
		bss, err := decodeBss(t.payload)
		return AttrBss(bss), err
	case attrStaInfo:
		si, err := decodeStaInfo(t.payload)
		return AttrStaInfo(si), err
	default:
		return nil, decodeErrf("unsupported attribute type %d", t.typ)
	}
}

func payloadU8(t tlv) (uint8, error) {
	if len(t.payload) != 1 {
		return 0, decodeErrf("attribute %d has %d bytes, want 1", t.typ, len(t.payload))
	}
	return t.payload[0], nil
}

func payloadU16(t tlv) (uint16, error) {
	if len(t.payload) != 2 {
		return 0, decodeErrf("attribute %d has %d bytes, want 2", t.typ, len(t.payload))
	}
	return binary.LittleEndian.Uint16(t.payload), nil
}

func payloadU32(t tlv) (uint32, error) {
	if len(t.payload) != 4 {
		return 0, decodeErrf("attribute %d has %d bytes, want 4", t.typ, len(t.payload))
	}
	return binary.LittleEndian.Uint32(t.payload), nil
}

func decodeBands(b []byte) ([]Band, error) {
	entries, err := splitTLVs(b)
	if err != nil {
		return nil, err
	}
	var bands []Band
	for _, entry := range entries {
		inner, err := splitTLVs(entry.payload)
		if err != nil {
			return nil, err
		}
		var band Band
		for _, t := range inner {
			if t.typ != bandAttrFreqs {
				return nil, decodeErrf("unsupported band attribute %d", t.typ)
			}
			freqEntries, err := splitTLVs(t.payload)
			if err != nil {
				return nil, err
			}
			for _, fe := range freqEntries {
				fattrs, err := splitTLVs(fe.payload)
				if err != nil {
					return nil, err
				}
				for _, fa := range fattrs {
					if fa.typ != freqAttrFreq {
						return nil, decodeErrf("unsupported frequency attribute %d", fa.typ)
					}
					v, err := payloadU32(tlv{typ: fa.typ, payload: fa.payload})
					if err != nil {
						return nil, err
					}
					band.Frequencies = append(band.Frequencies, v)
				}
			}
		}
		bands = append(bands, band)
	}
	return bands, nil
}

func decodeBss(b []byte) (Bss, error) {
	tlvs, err := splitTLVs(b)
	if err != nil {
		return Bss{}, err
	}
	var bss Bss
	for _, t := range tlvs {
		switch t.typ {
		case bssAttrBSSID:
			if len(t.payload) != 6 {
				return Bss{}, decodeErrf("bss bssid has %d bytes", len(t.payload))
			}
			copy(bss.BSSID[:], t.payload)
		case bssAttrFrequency:
			v, err := payloadU32(t)
			if err != nil {
				return Bss{}, err
			}
			bss.FrequencyMHz = v
		case bssAttrInformationElement:
			bss.IEs = append([]byte(nil), t.payload...)
		case bssAttrLastSeenBoottime:
			if len(t.payload) != 8 {
				return Bss{}, decodeErrf("bss boottime has %d bytes", len(t.payload))
			}
			bss.LastSeenBoottimeNs = binary.LittleEndian.Uint64(t.payload)
		case bssAttrSignalMBM:
			v, err := payloadU32(t)
			if err != nil {
				return Bss{}, err
			}
			bss.SignalMBM = int32(v)
		case bssAttrCapability:
			v, err := payloadU16(t)
			if err != nil {
				return Bss{}, err
			}
			bss.Capability = v
		case bssAttrStatus:
			v, err := payloadU32(t)
			if err != nil {
				return Bss{}, err
			}
			bss.Status = v
		case bssAttrChainSignal:
			chains, err := splitTLVs(t.payload)
			if err != nil {
				return Bss{}, err
			}
			for _, cs := range chains {
				if len(cs.payload) != 1 {
					return Bss{}, decodeErrf("chain signal has %d bytes", len(cs.payload))
				}
				bss.ChainSignals = append(bss.ChainSignals, ChainSignal{ID: cs.typ, RSSIDbm: int8(cs.payload[0])})
			}
		default:
			return Bss{}, decodeErrf("unsupported bss attribute %d", t.typ)
		}
	}
	return bss, nil
}

func decodeStaInfo(b []byte) (StaInfo, error) {
	tlvs, err := splitTLVs(b)
	if err != nil {
		return StaInfo{}, err
	}
	var si StaInfo
	for _, t := range tlvs {
		switch t.typ {
		case staInfoTxPackets:
			v, err := payloadU32(t)
			if err != nil {
				return StaInfo{}, err
			}
			si.TxPackets = v
		case staInfoTxFailed:
			v, err := payloadU32(t)
			if err != nil {
				return StaInfo{}, err
			}
			si.TxFailed = v
		case staInfoSignal:
			v, err := payloadU8(t)
			if err != nil {
				return StaInfo{}, err
			}
			si.SignalDBm = int8(v)
		default:
			return StaInfo{}, decodeErrf("unsupported sta info attribute %d", t.typ)
		}
	}
	return si, nil
}
