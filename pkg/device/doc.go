// Package device is the base every instrument driver builds on.
//
// A Device owns exactly one transport and one sealed command registry.
// New opens the transport, registers the IEEE 488.2 common commands the
// model's allow-list selects, then the driver's own commands and the
// model's aliases, and finally seals the registry:
//
//	m := catalog.Default().MustLookup("agilent-n9342c")
//	d, err := device.New(ctx, t, m, device.WithLogger(logger))
//	if err != nil { ... }
//	defer d.Close()
//	reply, err := d.Call("IDNQ")
//
// An allow-list naming a token outside the common command set fails New
// before the transport is touched.
//
// # Error queue
//
// When the model names an error table, WriteChecked follows each command
// with SYST:ERR? and turns a non-zero code into a *fault.InstrumentError.
// WithErrorCheck(false) turns the extra round trip off.
//
// # Concurrency
//
// Command/reply pairs are serialized per Device. Two Devices never share
// state.
package device
