// Package instrument opens a typed driver from a resource string and a
// catalog record.
//
// # Resource Strings
//
//	tcp://host[:port]          raw socket, port defaults to the model's
//	TCPIP::host::port::SOCKET  same, VISA form
//	serial:///dev/ttyUSB0      serial port, settings from the model
//	ASRL/dev/ttyUSB0::INSTR    same, VISA form
//	usb:SERIALNUMBER           USB-serial port found by serial number
//	gpib://adapter[:port]/addr Prologix adapter on a TCP host
//
// The driver is chosen by the model's family. Models without a family,
// or with one no driver serves, get a bare device.Device.
package instrument
