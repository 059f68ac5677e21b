// Package fakeinst provides scripted instrument peers for tests: a TCP
// instrument, a Prologix GPIB adapter with a simulated bus, and an
// in-memory serial port.
package fakeinst
