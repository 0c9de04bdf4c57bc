package usbtmc

import (
	"errors"
	"testing"

	"github.com/google/gousb"
)

func tmcSetting(alt int) gousb.InterfaceSetting {
	return gousb.InterfaceSetting{
		Number:    0,
		Alternate: alt,
		Class:     0xfe,
		SubClass:  0x03,
		Protocol:  0x01,
		Endpoints: map[gousb.EndpointAddress]gousb.EndpointDesc{
			0x02: {Address: 0x02, Number: 2, Direction: gousb.EndpointDirectionOut, MaxPacketSize: 512, TransferType: gousb.TransferTypeBulk},
			0x81: {Address: 0x81, Number: 1, Direction: gousb.EndpointDirectionIn, MaxPacketSize: 512, TransferType: gousb.TransferTypeBulk},
			0x83: {Address: 0x83, Number: 3, Direction: gousb.EndpointDirectionIn, MaxPacketSize: 64, TransferType: gousb.TransferTypeInterrupt},
		},
	}
}

func tmcDeviceDesc() *gousb.DeviceDesc {
	return &gousb.DeviceDesc{
		Vendor:  0x1ab1,
		Product: 0x04ce,
		Configs: map[int]gousb.ConfigDesc{
			1: {
				Number: 1,
				Interfaces: []gousb.InterfaceDesc{
					{Number: 0, AltSettings: []gousb.InterfaceSetting{tmcSetting(0)}},
				},
			},
		},
	}
}

func hidDeviceDesc() *gousb.DeviceDesc {
	return &gousb.DeviceDesc{
		Configs: map[int]gousb.ConfigDesc{
			1: {
				Number: 1,
				Interfaces: []gousb.InterfaceDesc{
					{Number: 0, AltSettings: []gousb.InterfaceSetting{{Class: 0x03}}},
				},
			},
		},
	}
}

func TestIsTMCDevice(t *testing.T) {
	if !isTMCDevice(tmcDeviceDesc()) {
		t.Fatalf("instrument descriptor not recognized")
	}
	if isTMCDevice(hidDeviceDesc()) {
		t.Fatalf("HID descriptor recognized as USBTMC")
	}
}

func TestResolveMode(t *testing.T) {
	mode, err := resolveMode(tmcDeviceDesc())
	if err != nil {
		t.Fatalf("resolve mode: %v", err)
	}
	if mode.ConfigNumber != 1 || mode.InterfaceNumber != 0 || mode.SettingNumber != 0 {
		t.Fatalf("mode: %+v", mode)
	}
}

func TestResolveModeSkipsForeignInterfaces(t *testing.T) {
	desc := tmcDeviceDesc()
	cfg := desc.Configs[1]
	cfg.Interfaces = append([]gousb.InterfaceDesc{
		{Number: 0, AltSettings: []gousb.InterfaceSetting{{Number: 0, Class: 0x03}}},
	}, gousb.InterfaceDesc{Number: 1, AltSettings: []gousb.InterfaceSetting{tmcSetting(0)}})
	cfg.Interfaces[1].AltSettings[0].Number = 1
	desc.Configs[1] = cfg

	mode, err := resolveMode(desc)
	if err != nil {
		t.Fatalf("resolve mode: %v", err)
	}
	if mode.InterfaceNumber != 1 {
		t.Fatalf("picked interface %d, want 1", mode.InterfaceNumber)
	}
}

func TestResolveModeIncompatible(t *testing.T) {
	if _, err := resolveMode(hidDeviceDesc()); !errors.Is(err, ErrDeviceIncompatible) {
		t.Fatalf("expected ErrDeviceIncompatible, got %v", err)
	}
}

func TestResolveEndpoints(t *testing.T) {
	eps, err := resolveEndpoints(tmcSetting(0))
	if err != nil {
		t.Fatalf("resolve endpoints: %v", err)
	}
	if eps.BulkOut.Address != 0x02 || eps.BulkOut.MaxPacketSize != 512 {
		t.Fatalf("bulk-out: %+v", eps.BulkOut)
	}
	if eps.BulkIn.Address != 0x81 || eps.BulkIn.MaxPacketSize != 512 {
		t.Fatalf("bulk-in: %+v", eps.BulkIn)
	}
	if eps.Interrupt == nil || eps.Interrupt.Address != 0x83 {
		t.Fatalf("interrupt: %+v", eps.Interrupt)
	}
	if eps.BulkOut.Number() != 2 || eps.BulkIn.Number() != 1 {
		t.Fatalf("endpoint numbers: out=%d in=%d", eps.BulkOut.Number(), eps.BulkIn.Number())
	}
}

func TestResolveEndpointsMissingBulkIn(t *testing.T) {
	alt := tmcSetting(0)
	delete(alt.Endpoints, 0x81)
	if _, err := resolveEndpoints(alt); !errors.Is(err, ErrBulkInEndpointNotFound) {
		t.Fatalf("expected ErrBulkInEndpointNotFound, got %v", err)
	}
}

func TestResolveEndpointsMissingBulkOut(t *testing.T) {
	alt := tmcSetting(0)
	delete(alt.Endpoints, 0x02)
	if _, err := resolveEndpoints(alt); !errors.Is(err, ErrBulkOutEndpointNotFound) {
		t.Fatalf("expected ErrBulkOutEndpointNotFound, got %v", err)
	}
}

func TestFindSetting(t *testing.T) {
	desc := tmcDeviceDesc()
	alt, err := findSetting(desc, DeviceMode{ConfigNumber: 1, InterfaceNumber: 0, SettingNumber: 0})
	if err != nil {
		t.Fatalf("find setting: %v", err)
	}
	if !isTMCSetting(alt) {
		t.Fatalf("resolved setting is not USBTMC: %+v", alt)
	}

	if _, err := findSetting(desc, DeviceMode{ConfigNumber: 2}); !errors.Is(err, ErrConfigurationNotFound) {
		t.Fatalf("expected ErrConfigurationNotFound, got %v", err)
	}
	if _, err := findSetting(desc, DeviceMode{ConfigNumber: 1, InterfaceNumber: 4}); !errors.Is(err, ErrInterfaceNotFound) {
		t.Fatalf("expected ErrInterfaceNotFound, got %v", err)
	}
	if _, err := findSetting(desc, DeviceMode{ConfigNumber: 1, InterfaceNumber: 0, SettingNumber: 2}); !errors.Is(err, ErrInterfaceSettingNotFound) {
		t.Fatalf("expected ErrInterfaceSettingNotFound, got %v", err)
	}
}
