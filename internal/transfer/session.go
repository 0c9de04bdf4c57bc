package transfer

import (
	"sync"
	"time"

	"github.com/tmclab/usbtmc/internal/protocol"
)

// Transport is the host-USB collaborator the engines drive. Implementations
// execute exactly one blocking transfer per call, bounded by timeout.
type Transport interface {
	// Control performs a control transfer and reports bytes moved.
	Control(rType, request uint8, val, idx uint16, buf []byte, timeout time.Duration) (int, error)
	// BulkOut writes buf to the endpoint with the given address.
	BulkOut(address uint8, buf []byte, timeout time.Duration) (int, error)
	// BulkIn reads into buf from the endpoint with the given address.
	BulkIn(address uint8, buf []byte, timeout time.Duration) (int, error)
	// ClearHalt clears a halt condition on the given endpoint.
	ClearHalt(address uint8) error
}

// PollConfig bounds the CHECK_*_STATUS polling loops of the clear and abort
// state machines. The zero value re-polls immediately and never gives up,
// matching the class protocol's own shape.
type PollConfig struct {
	// Interval is slept between poll attempts.
	Interval time.Duration
	// MaxPolls caps poll attempts when positive.
	MaxPolls int
}

// Session is the shared context for one claimed USBTMC interface: the
// transport handle, the bTag generator and the mutable timeout. Methods are
// safe to call from multiple goroutines, but the protocol itself is not
// reentrant; callers must serialize command/query pairs.
type Session struct {
	tr    Transport
	btag  *protocol.BTag
	eps   protocol.Endpoints
	iface uint8

	mu      sync.Mutex
	timeout time.Duration
	poll    PollConfig
	caps    protocol.Capabilities
}

// NewSession wires a session over an already claimed interface. Capabilities
// are zero until GetCapabilities runs.
func NewSession(tr Transport, interfaceNumber uint8, eps protocol.Endpoints) *Session {
	return &Session{
		tr:      tr,
		btag:    protocol.NewBTag(),
		eps:     eps,
		iface:   interfaceNumber,
		timeout: protocol.DefaultTimeout,
	}
}

// SetTimeout changes the per-transfer timeout. Takes effect on the next
// transfer, not ones already in flight.
func (s *Session) SetTimeout(d time.Duration) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.timeout = d
}

// Timeout returns the current per-transfer timeout.
func (s *Session) Timeout() time.Duration {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.timeout
}

// SetPollConfig changes the status-poll bounds for clear and abort loops.
func (s *Session) SetPollConfig(p PollConfig) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.poll = p
}

// Capabilities returns the most recently queried device capabilities.
func (s *Session) Capabilities() protocol.Capabilities {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.caps
}

// Endpoints returns the endpoints the session operates on.
func (s *Session) Endpoints() protocol.Endpoints {
	return s.eps
}

func (s *Session) pollConfig() PollConfig {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.poll
}

// pollWait gates one iteration of a CHECK_*_STATUS loop. attempt 0 is the
// first check after the initiate request and is never delayed or capped.
func (s *Session) pollWait(attempt int) error {
	if attempt == 0 {
		return nil
	}
	p := s.pollConfig()
	if p.MaxPolls > 0 && attempt >= p.MaxPolls {
		return protocol.ErrPollLimitExceeded
	}
	if p.Interval > 0 {
		time.Sleep(p.Interval)
	}
	return nil
}
