// Package usbtmc speaks the USB Test & Measurement Class protocol to bench
// instruments: oscilloscopes, multimeters, signal and power supplies. It
// wraps the class-specific bulk message framing and control requests behind
// a small client for SCPI-style command/query exchanges.
package usbtmc

import (
	"fmt"
	"strings"
	"sync"
	"time"
	"unicode/utf8"

	"github.com/google/gousb"
	"github.com/rs/zerolog"

	"github.com/tmclab/usbtmc/internal/logging"
	"github.com/tmclab/usbtmc/internal/protocol"
	"github.com/tmclab/usbtmc/internal/transfer"
)

// DefaultTimeout applies to every transfer until SetTimeout changes it.
const DefaultTimeout = protocol.DefaultTimeout

// Type aliases so callers never import internal packages.
type (
	Endpoint     = protocol.Endpoint
	Endpoints    = protocol.Endpoints
	Capabilities = protocol.Capabilities
	DeviceMode   = protocol.DeviceMode
	PollConfig   = transfer.PollConfig
)

// Client is an open session with one USBTMC device. Safe for concurrent use
// at the method level, but the class protocol itself is not reentrant:
// interleaving two command/query exchanges corrupts both. Serialize them.
type Client struct {
	ctx     *gousb.Context
	dev     *gousb.Device
	cfg     *gousb.Config
	intf    *gousb.Interface
	session *transfer.Session
	mode    protocol.DeviceMode
	log     zerolog.Logger

	closeOnce sync.Once
	closeErr  error
	closed    bool
	closeMu   sync.Mutex
}

// Connect opens the first device the filter matches and prepares it for
// traffic: claims the USBTMC interface (detaching any kernel driver),
// queries capabilities, clears the device buffers and both bulk halts.
func Connect(filter DeviceFilter) (*Client, error) {
	ctx := gousb.NewContext()
	c, err := connectWith(ctx, filter)
	if err != nil {
		ctx.Close()
		return nil, err
	}
	return c, nil
}

func connectWith(ctx *gousb.Context, filter DeviceFilter) (*Client, error) {
	log := logging.New("usbtmc")

	dev, err := openFirst(ctx, filter)
	if err != nil {
		return nil, err
	}
	if dev == nil {
		return nil, ErrDeviceNotFound
	}

	c, err := setup(ctx, dev, log)
	if err != nil {
		dev.Close()
		return nil, err
	}
	return c, nil
}

// openFirst opens exactly one matching USBTMC device. The predicate admits
// only the first match, so no extra handles are opened then discarded.
func openFirst(ctx *gousb.Context, filter DeviceFilter) (*gousb.Device, error) {
	if filter == nil {
		filter = Any{}
	}
	found := false
	devs, err := ctx.OpenDevices(func(desc *gousb.DeviceDesc) bool {
		if found || !filter.Matches(desc) || !isTMCDevice(desc) {
			return false
		}
		found = true
		return true
	})
	if err != nil {
		for _, d := range devs {
			d.Close()
		}
		return nil, fmt.Errorf("usbtmc: open device: %w", err)
	}
	if len(devs) == 0 {
		return nil, nil
	}
	return devs[0], nil
}

func setup(ctx *gousb.Context, dev *gousb.Device, log zerolog.Logger) (*Client, error) {
	mode, err := resolveMode(dev.Desc)
	if err != nil {
		return nil, err
	}
	alt, err := findSetting(dev.Desc, mode)
	if err != nil {
		return nil, err
	}
	eps, err := resolveEndpoints(alt)
	if err != nil {
		return nil, err
	}

	// gousb detaches the kernel driver at claim time and reattaches it when
	// the interface is released.
	if err := dev.SetAutoDetach(true); err != nil {
		return nil, fmt.Errorf("usbtmc: enable kernel driver auto-detach: %w", err)
	}
	mode.KernelDriverDetached = true

	cfg, err := dev.Config(mode.ConfigNumber)
	if err != nil {
		return nil, fmt.Errorf("%w: config %d: %v", ErrConfigurationNotFound, mode.ConfigNumber, err)
	}
	intf, err := cfg.Interface(mode.InterfaceNumber, mode.SettingNumber)
	if err != nil {
		cfg.Close()
		return nil, fmt.Errorf("%w: interface %d alt %d: %v", ErrInterfaceNotFound, mode.InterfaceNumber, mode.SettingNumber, err)
	}

	out, err := intf.OutEndpoint(eps.BulkOut.Number())
	if err != nil {
		intf.Close()
		cfg.Close()
		return nil, fmt.Errorf("%w: 0x%02x: %v", ErrBulkOutEndpointNotFound, eps.BulkOut.Address, err)
	}
	in, err := intf.InEndpoint(eps.BulkIn.Number())
	if err != nil {
		intf.Close()
		cfg.Close()
		return nil, fmt.Errorf("%w: 0x%02x: %v", ErrBulkInEndpointNotFound, eps.BulkIn.Address, err)
	}

	tr := &usbTransport{dev: dev, out: out, in: in}
	session := transfer.NewSession(tr, uint8(mode.InterfaceNumber), eps)

	c := &Client{
		ctx:     ctx,
		dev:     dev,
		cfg:     cfg,
		intf:    intf,
		session: session,
		mode:    mode,
		log:     log,
	}

	// Leave dev to the caller on failure; only the claim is undone here.
	unclaim := func() {
		intf.Close()
		cfg.Close()
	}
	if _, err := session.GetCapabilities(); err != nil {
		unclaim()
		return nil, err
	}
	if err := session.ClearBuffers(); err != nil {
		unclaim()
		return nil, err
	}
	if err := session.ClearFeature(eps.BulkOut); err != nil {
		unclaim()
		return nil, err
	}
	if err := session.ClearFeature(eps.BulkIn); err != nil {
		unclaim()
		return nil, err
	}

	log.Info().
		Str("vid", dev.Desc.Vendor.String()).
		Str("pid", dev.Desc.Product.String()).
		Int("bus", dev.Desc.Bus).
		Int("addr", dev.Desc.Address).
		Int("interface", mode.InterfaceNumber).
		Msg("session established")
	return c, nil
}

// Command sends one SCPI-style command with no response expected.
func (c *Client) Command(cmd string) error {
	if err := c.guard(); err != nil {
		return err
	}
	return c.session.Write([]byte(cmd))
}

// Query sends a command and reads the textual response, trimmed of
// surrounding whitespace. Non-UTF-8 payloads fail with ErrNotUTF8; use
// QueryRaw for binary block responses.
func (c *Client) Query(cmd string) (string, error) {
	raw, err := c.QueryRaw(cmd)
	if err != nil {
		return "", err
	}
	if !utf8.Valid(raw) {
		return "", ErrNotUTF8
	}
	return strings.TrimSpace(string(raw)), nil
}

// QueryRaw sends a command and returns the raw response bytes, headers
// stripped, zero bytes preserved.
func (c *Client) QueryRaw(cmd string) ([]byte, error) {
	if err := c.guard(); err != nil {
		return nil, err
	}
	if err := c.session.Write([]byte(cmd)); err != nil {
		return nil, err
	}
	return c.session.Read()
}

// ReadStatusByte reads the IEEE 488 status byte without disturbing the bulk
// pipes.
func (c *Client) ReadStatusByte() (byte, error) {
	if err := c.guard(); err != nil {
		return 0, err
	}
	return c.session.ReadStatusByte()
}

// ClearBuffers resets the device's input and output message buffers and
// clears the bulk-out halt, the recovery step after a wedged exchange.
func (c *Client) ClearBuffers() error {
	if err := c.guard(); err != nil {
		return err
	}
	c.log.Debug().Msg("clearing device buffers")
	if err := c.session.ClearBuffers(); err != nil {
		return err
	}
	return c.session.ClearFeature(c.session.Endpoints().BulkOut)
}

// AbortBulkOut aborts an in-flight bulk-out transfer and reports how many
// bytes the device consumed before stopping.
func (c *Client) AbortBulkOut(transferBTag byte) (int, error) {
	if err := c.guard(); err != nil {
		return 0, err
	}
	c.log.Debug().Uint8("btag", transferBTag).Msg("aborting bulk-out transfer")
	return c.session.AbortBulkOut(transferBTag)
}

// AbortBulkIn aborts an in-flight bulk-in transfer and reports how many
// bytes the device sent before stopping.
func (c *Client) AbortBulkIn(transferBTag byte) (int, error) {
	if err := c.guard(); err != nil {
		return 0, err
	}
	c.log.Debug().Uint8("btag", transferBTag).Msg("aborting bulk-in transfer")
	return c.session.AbortBulkIn(transferBTag)
}

// IndicatorPulse blinks the device's activity indicator, useful to identify
// one instrument on a crowded bench. Fails when the device did not advertise
// the capability.
func (c *Client) IndicatorPulse() error {
	if err := c.guard(); err != nil {
		return err
	}
	if !c.session.Capabilities().AcceptsIndicatorPulse {
		return ErrIndicatorPulseNotSupported
	}
	return c.session.IndicatorPulse()
}

// SetTimeout changes the per-transfer timeout for subsequent operations.
func (c *Client) SetTimeout(d time.Duration) {
	c.session.SetTimeout(d)
}

// Timeout returns the current per-transfer timeout.
func (c *Client) Timeout() time.Duration {
	return c.session.Timeout()
}

// SetPollConfig bounds the status-polling loops of clear and abort
// operations. The zero value polls immediately and indefinitely.
func (c *Client) SetPollConfig(p PollConfig) {
	c.session.SetPollConfig(p)
}

// Capabilities returns the capabilities queried at connect time.
func (c *Client) Capabilities() Capabilities {
	return c.session.Capabilities()
}

// Mode returns the claimed configuration/interface/setting triple.
func (c *Client) Mode() DeviceMode {
	return c.mode
}

// Endpoints returns the endpoints the session operates on.
func (c *Client) Endpoints() Endpoints {
	return c.session.Endpoints()
}

// Close releases the interface, which also reattaches any detached kernel
// driver, then closes the device and context. Idempotent; later calls return
// the first result.
func (c *Client) Close() error {
	c.closeOnce.Do(func() {
		c.closeMu.Lock()
		c.closed = true
		c.closeMu.Unlock()
		c.closeErr = c.release()
		if err := c.ctx.Close(); err != nil {
			c.log.Error().Err(err).Msg("closing USB context")
			if c.closeErr == nil {
				c.closeErr = fmt.Errorf("usbtmc: close context: %w", err)
			}
		}
	})
	return c.closeErr
}

// release tears down interface, config and device in that order. The
// interface goes first so the kernel driver is reattached before the device
// handle disappears.
func (c *Client) release() error {
	var firstErr error
	c.intf.Close()
	if err := c.cfg.Close(); err != nil {
		c.log.Error().Err(err).Msg("releasing configuration")
		firstErr = fmt.Errorf("usbtmc: release configuration: %w", err)
	}
	if err := c.dev.Close(); err != nil {
		c.log.Error().Err(err).Msg("closing device")
		if firstErr == nil {
			firstErr = fmt.Errorf("usbtmc: close device: %w", err)
		}
	}
	return firstErr
}

func (c *Client) guard() error {
	c.closeMu.Lock()
	defer c.closeMu.Unlock()
	if c.closed {
		return ErrClosed
	}
	return nil
}
