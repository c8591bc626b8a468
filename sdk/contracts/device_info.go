package contracts

// DeviceInfo contains information about a MIDI port.
type DeviceInfo struct {
	ID   int    // Port index as reported by the driver.
	Name string // Port name.
}
