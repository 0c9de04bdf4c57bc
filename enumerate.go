package usbtmc

import (
	"fmt"
	"sort"

	"github.com/google/gousb"

	"github.com/tmclab/usbtmc/internal/protocol"
)

// isTMCSetting reports whether an alternate setting carries the USBTMC
// class/subclass/protocol triple.
func isTMCSetting(alt gousb.InterfaceSetting) bool {
	return alt.Class == gousb.Class(protocol.ClassCode) &&
		alt.SubClass == gousb.Class(protocol.SubclassCode) &&
		alt.Protocol == gousb.Protocol(protocol.ProtocolCode)
}

// isTMCDevice reports whether any alternate setting in the descriptor tree
// is a USBTMC interface.
func isTMCDevice(desc *gousb.DeviceDesc) bool {
	for _, cfg := range desc.Configs {
		for _, intf := range cfg.Interfaces {
			for _, alt := range intf.AltSettings {
				if isTMCSetting(alt) {
					return true
				}
			}
		}
	}
	return false
}

// Devices lists USBTMC-capable devices currently attached.
func Devices() ([]DeviceInfo, error) {
	ctx := gousb.NewContext()
	defer ctx.Close()
	return listDevices(ctx)
}

func listDevices(ctx *gousb.Context) ([]DeviceInfo, error) {
	var infos []DeviceInfo
	// The predicate never admits a device, so OpenDevices opens nothing and
	// the walk is a pure descriptor scan.
	_, err := ctx.OpenDevices(func(desc *gousb.DeviceDesc) bool {
		if isTMCDevice(desc) {
			infos = append(infos, DeviceInfo{
				Vendor:  desc.Vendor,
				Product: desc.Product,
				Bus:     desc.Bus,
				Address: desc.Address,
			})
		}
		return false
	})
	if err != nil {
		return nil, fmt.Errorf("usbtmc: enumerate devices: %w", err)
	}
	return infos, nil
}

// resolveMode picks the first USBTMC config/interface/alternate setting in
// descriptor order.
func resolveMode(desc *gousb.DeviceDesc) (protocol.DeviceMode, error) {
	cfgNums := make([]int, 0, len(desc.Configs))
	for num := range desc.Configs {
		cfgNums = append(cfgNums, num)
	}
	sort.Ints(cfgNums)

	for _, num := range cfgNums {
		cfg := desc.Configs[num]
		for _, intf := range cfg.Interfaces {
			for _, alt := range intf.AltSettings {
				if isTMCSetting(alt) {
					return protocol.DeviceMode{
						ConfigNumber:    num,
						InterfaceNumber: intf.Number,
						SettingNumber:   alt.Alternate,
					}, nil
				}
			}
		}
	}
	return protocol.DeviceMode{}, fmt.Errorf("%w: %s:%s", ErrDeviceIncompatible, desc.Vendor, desc.Product)
}

// resolveEndpoints walks the chosen alternate setting and picks the bulk
// endpoint pair plus the optional interrupt-in endpoint.
func resolveEndpoints(alt gousb.InterfaceSetting) (protocol.Endpoints, error) {
	addrs := make([]int, 0, len(alt.Endpoints))
	byAddr := make(map[int]gousb.EndpointDesc, len(alt.Endpoints))
	for addr, ep := range alt.Endpoints {
		addrs = append(addrs, int(addr))
		byAddr[int(addr)] = ep
	}
	sort.Ints(addrs)

	var eps protocol.Endpoints
	var haveOut, haveIn bool
	for _, addr := range addrs {
		ep := byAddr[addr]
		converted := protocol.Endpoint{
			Address:       uint8(ep.Address),
			MaxPacketSize: ep.MaxPacketSize,
			TransferType:  ep.TransferType,
			Direction:     ep.Direction,
		}
		switch {
		case ep.TransferType == gousb.TransferTypeBulk && ep.Direction == gousb.EndpointDirectionOut && !haveOut:
			eps.BulkOut = converted
			haveOut = true
		case ep.TransferType == gousb.TransferTypeBulk && ep.Direction == gousb.EndpointDirectionIn && !haveIn:
			eps.BulkIn = converted
			haveIn = true
		case ep.TransferType == gousb.TransferTypeInterrupt && ep.Direction == gousb.EndpointDirectionIn && eps.Interrupt == nil:
			intr := converted
			eps.Interrupt = &intr
		}
	}
	if !haveOut {
		return protocol.Endpoints{}, ErrBulkOutEndpointNotFound
	}
	if !haveIn {
		return protocol.Endpoints{}, ErrBulkInEndpointNotFound
	}
	return eps, nil
}

// findSetting locates the alternate setting resolveMode chose.
func findSetting(desc *gousb.DeviceDesc, mode protocol.DeviceMode) (gousb.InterfaceSetting, error) {
	cfg, ok := desc.Configs[mode.ConfigNumber]
	if !ok {
		return gousb.InterfaceSetting{}, fmt.Errorf("%w: config %d", ErrConfigurationNotFound, mode.ConfigNumber)
	}
	for _, intf := range cfg.Interfaces {
		if intf.Number != mode.InterfaceNumber {
			continue
		}
		for _, alt := range intf.AltSettings {
			if alt.Alternate == mode.SettingNumber {
				return alt, nil
			}
		}
		return gousb.InterfaceSetting{}, fmt.Errorf("%w: interface %d alt %d", ErrInterfaceSettingNotFound, mode.InterfaceNumber, mode.SettingNumber)
	}
	return gousb.InterfaceSetting{}, fmt.Errorf("%w: interface %d", ErrInterfaceNotFound, mode.InterfaceNumber)
}
