package main

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/BurntSushi/toml"
	"github.com/google/gousb"

	"github.com/tmclab/usbtmc"
)

type fileConfig struct {
	VendorID  string `toml:"vendor_id"`
	ProductID string `toml:"product_id"`
	Bus       int    `toml:"bus"`
	Address   int    `toml:"address"`
	Timeout   string `toml:"timeout"`
}

// toolConfig is the resolved CLI configuration: a device filter plus the
// transfer timeout.
type toolConfig struct {
	filter  usbtmc.DeviceFilter
	timeout time.Duration
}

func defaultConfig() toolConfig {
	return toolConfig{
		filter:  usbtmc.Any{},
		timeout: usbtmc.DefaultTimeout,
	}
}

func loadConfig(path string) (toolConfig, error) {
	cfg := defaultConfig()

	var raw fileConfig
	meta, err := toml.DecodeFile(path, &raw)
	if err != nil {
		return toolConfig{}, fmt.Errorf("load config: %w", err)
	}

	var filters usbtmc.MatchAll

	if meta.IsDefined("vendor_id") != meta.IsDefined("product_id") {
		return toolConfig{}, fmt.Errorf("vendor_id and product_id must be set together")
	}
	if meta.IsDefined("vendor_id") {
		vid, err := parseUSBID(raw.VendorID)
		if err != nil {
			return toolConfig{}, fmt.Errorf("parse vendor_id: %w", err)
		}
		pid, err := parseUSBID(raw.ProductID)
		if err != nil {
			return toolConfig{}, fmt.Errorf("parse product_id: %w", err)
		}
		filters = append(filters, usbtmc.ByVIDPID{Vendor: vid, Product: pid})
	}

	if meta.IsDefined("bus") != meta.IsDefined("address") {
		return toolConfig{}, fmt.Errorf("bus and address must be set together")
	}
	if meta.IsDefined("bus") {
		filters = append(filters, usbtmc.ByBusAddress{Bus: raw.Bus, Address: raw.Address})
	}

	if len(filters) > 0 {
		cfg.filter = filters
	}

	if meta.IsDefined("timeout") {
		d, err := time.ParseDuration(strings.TrimSpace(raw.Timeout))
		if err != nil {
			return toolConfig{}, fmt.Errorf("parse timeout: %w", err)
		}
		cfg.timeout = d
	}

	return cfg, nil
}

// parseUSBID reads a USB identifier written the lsusb way: four hex digits,
// optional 0x prefix.
func parseUSBID(s string) (gousb.ID, error) {
	s = strings.TrimPrefix(strings.TrimSpace(s), "0x")
	v, err := strconv.ParseUint(s, 16, 16)
	if err != nil {
		return 0, err
	}
	return gousb.ID(v), nil
}
