package usbtmc

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/google/gousb"

	"github.com/tmclab/usbtmc/internal/transfer"
)

// CLEAR_FEATURE(ENDPOINT_HALT), chapter 9 standard request. gousb does not
// expose a halt-clear call, so the transport issues it directly.
const (
	reqClearFeature      = 0x01
	featureEndpointHalt  = 0x00
	requestTypeClearHalt = uint8(gousb.ControlOut | gousb.ControlEndpoint)
)

// usbTransport adapts a claimed gousb interface to the transfer.Transport
// boundary. The mutex covers ControlTimeout, which gousb exposes as a device
// field rather than a per-call argument.
type usbTransport struct {
	mu  sync.Mutex
	dev *gousb.Device
	out *gousb.OutEndpoint
	in  *gousb.InEndpoint
}

var _ transfer.Transport = (*usbTransport)(nil)

func (t *usbTransport) Control(rType, request uint8, val, idx uint16, buf []byte, timeout time.Duration) (int, error) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.dev.ControlTimeout = timeout
	return t.dev.Control(rType, request, val, idx, buf)
}

func (t *usbTransport) BulkOut(address uint8, buf []byte, timeout time.Duration) (int, error) {
	if uint8(t.out.Desc.Address) != address {
		return 0, fmt.Errorf("usbtmc: bulk-out endpoint 0x%02x not claimed", address)
	}
	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()
	return t.out.WriteContext(ctx, buf)
}

func (t *usbTransport) BulkIn(address uint8, buf []byte, timeout time.Duration) (int, error) {
	if uint8(t.in.Desc.Address) != address {
		return 0, fmt.Errorf("usbtmc: bulk-in endpoint 0x%02x not claimed", address)
	}
	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()
	return t.in.ReadContext(ctx, buf)
}

func (t *usbTransport) ClearHalt(address uint8) error {
	t.mu.Lock()
	defer t.mu.Unlock()
	_, err := t.dev.Control(requestTypeClearHalt, reqClearFeature, featureEndpointHalt, uint16(address), nil)
	if err != nil {
		return fmt.Errorf("usbtmc: clear halt on 0x%02x: %w", address, err)
	}
	return nil
}
