// Package transfer runs USBTMC message exchanges over a Transport: the bulk
// write and read engines and the control-endpoint request state machines.
// All operations are synchronous and block the calling goroutine for at most
// the session timeout per wire transfer.
package transfer
