package nl80211

import "fmt"

// supportedChannels is the fixed channel list reported in NewWiphy replies:
// the 2.4 GHz channels 1-11 plus the 5 GHz 20 MHz primary allocation.
var supportedChannels = []uint8{
	1, 2, 3, 4, 5, 6, 7, 8, 9, 10, 11,
	36, 40, 44, 48, 52, 56, 60, 64,
	100, 104, 108, 112, 116, 120, 124, 128, 132, 136, 140, 144,
	149, 153, 157, 161, 165,
}

// ChannelCenterFreqMHz returns the 20 MHz primary center frequency of an
// IEEE 802.11 channel number.
func ChannelCenterFreqMHz(channel uint8) (uint32, error) {
	switch {
	case channel >= 1 && channel <= 13:
		return 2407 + 5*uint32(channel), nil
	case channel == 14:
		return 2484, nil
	case channel >= 36 && channel <= 177:
		return 5000 + 5*uint32(channel), nil
	default:
		return 0, fmt.Errorf("no center frequency for channel %d", channel)
	}
}

// SupportedFrequencies returns the center frequencies advertised for the
// fixed channel list, in channel order.
func SupportedFrequencies() []uint32 {
	freqs := make([]uint32, 0, len(supportedChannels))
	for _, ch := range supportedChannels {
		f, err := ChannelCenterFreqMHz(ch)
		if err != nil {
			// The channel list is static and always resolvable.
			panic(err)
		}
		freqs = append(freqs, f)
	}
	return freqs
}
