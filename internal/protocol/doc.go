// Package protocol owns the USBTMC wire layer primitives.
//
// Ownership boundary:
// - 12-byte bulk transfer header codec
// - bTag sequence generation
// - endpoint, capability and device-mode models
// - device status vocabulary and protocol errors
//
// Everything here is pure; no transfers are executed from this package.
package protocol
