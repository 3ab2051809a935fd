package ifacemgr

import "go.uber.org/zap"

// NewSim returns a self-contained in-memory station manager for running
// the gateway without real hardware. Scans always find the same two
// networks and connect attempts to either of them succeed immediately.
func NewSim(logger *zap.Logger) *Fake {
	f := NewFake()
	f.Client.ScanResults = []ScanResult{
		{Bss: BssDescription{
			BSSID:          MacAddr{0x62, 0x73, 0x73, 0x69, 0x64, 0x31},
			SSID:           []byte("sim-open"),
			RSSIDbm:        -40,
			SNRDb:          30,
			Channel:        1,
			CapabilityInfo: 0x0401,
		}},
		{Bss: BssDescription{
			BSSID:          MacAddr{0x62, 0x73, 0x73, 0x69, 0x64, 0x32},
			SSID:           []byte("sim-psk"),
			RSSIDbm:        -62,
			SNRDb:          18,
			Channel:        36,
			CapabilityInfo: 0x0411,
		}},
	}
	f.Client.ScanEnd = ScanComplete

	events := make(chan ConnectionEvent, 8)
	f.Client.ConnectOutcome = ConnectSuccess{
		Bss:    f.Client.ScanResults[0].Bss,
		Events: events,
	}
	rssi := int8(-40)
	f.Client.RSSI = &rssi

	logger.Warn("using simulated station manager; no radio is driven")
	return f
}
