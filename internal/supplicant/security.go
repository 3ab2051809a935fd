package supplicant

import (
	"crypto/sha1"
	"fmt"

	"golang.org/x/crypto/pbkdf2"
)

// derivePSK computes the WPA2 pairwise master key from a passphrase and
// SSID per IEEE 802.11-2016 annex J.4.1: PBKDF2-HMAC-SHA1 with the SSID
// as salt, 4096 iterations, 256-bit output.
func derivePSK(passphrase, ssid []byte) ([32]byte, error) {
	var psk [32]byte
	if len(passphrase) < 8 || len(passphrase) > 63 {
		return psk, fmt.Errorf("passphrase length %d outside 8..63", len(passphrase))
	}
	for _, b := range passphrase {
		if b < 0x20 || b > 0x7e {
			return psk, fmt.Errorf("passphrase contains non-printable byte %#x", b)
		}
	}
	copy(psk[:], pbkdf2.Key(passphrase, ssid, 4096, 32, sha1.New))
	return psk, nil
}
