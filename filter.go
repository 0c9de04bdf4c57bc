package usbtmc

import "github.com/google/gousb"

// DeviceFilter selects devices during enumeration. Matching runs on the
// cached descriptor only; the device is not opened.
type DeviceFilter interface {
	Matches(desc *gousb.DeviceDesc) bool
}

// Any matches every device.
type Any struct{}

func (Any) Matches(*gousb.DeviceDesc) bool { return true }

// ByVIDPID matches on the vendor/product identifier pair.
type ByVIDPID struct {
	Vendor  gousb.ID
	Product gousb.ID
}

func (f ByVIDPID) Matches(desc *gousb.DeviceDesc) bool {
	return desc.Vendor == f.Vendor && desc.Product == f.Product
}

// ByBusAddress matches on the bus number and device address. Addresses are
// reassigned on replug, so this pins one physical attachment.
type ByBusAddress struct {
	Bus     int
	Address int
}

func (f ByBusAddress) Matches(desc *gousb.DeviceDesc) bool {
	return desc.Bus == f.Bus && desc.Address == f.Address
}

// MatchAll composes filters with logical AND. An empty list matches
// everything.
type MatchAll []DeviceFilter

func (fs MatchAll) Matches(desc *gousb.DeviceDesc) bool {
	for _, f := range fs {
		if !f.Matches(desc) {
			return false
		}
	}
	return true
}

// DeviceInfo identifies one enumerated device. It doubles as a filter so a
// Devices() result can be passed straight to Connect.
type DeviceInfo struct {
	Vendor  gousb.ID
	Product gousb.ID
	Bus     int
	Address int
}

func (f DeviceInfo) Matches(desc *gousb.DeviceDesc) bool {
	return desc.Vendor == f.Vendor && desc.Product == f.Product &&
		desc.Bus == f.Bus && desc.Address == f.Address
}
