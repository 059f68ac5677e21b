package transport

import (
	"fmt"
	"strings"
	"time"

	"go.bug.st/serial"
	"go.bug.st/serial/enumerator"

	"github.com/ogameasure/ogameasure-go/pkg/fault"
)

// PortLister enumerates serial ports with USB details.
type PortLister func() ([]*enumerator.PortDetails, error)

// USBSerialConfig configures a USB-serial link located by serial number.
type USBSerialConfig struct {
	SerialConfig

	// Lister enumerates ports (default: enumerator.GetDetailedPortsList).
	Lister PortLister
}

// DefaultUSBSerialConfig returns 9600 7O1 with 100 ms read and write timeouts.
func DefaultUSBSerialConfig() USBSerialConfig {
	return USBSerialConfig{
		SerialConfig: SerialConfig{
			Baud:         9600,
			DataBits:     7,
			Parity:       serial.OddParity,
			StopBits:     serial.OneStopBit,
			ReadTimeout:  100 * time.Millisecond,
			WriteTimeout: 100 * time.Millisecond,
			Terminator:   DefaultTerminator,
		},
	}
}

// NewUSBSerial creates a serial transport whose port is resolved at Open
// by matching the USB serial number.
func NewUSBSerial(serialNumber string, config USBSerialConfig) (*Serial, error) {
	if serialNumber == "" {
		return nil, fault.Configurationf("usb serial", "serial number is required")
	}
	lister := config.Lister
	if lister == nil {
		lister = enumerator.GetDetailedPortsList
	}

	sc := config.SerialConfig
	sc.Port = "usb:" + serialNumber
	s := newSerial(sc)
	s.resolve = func() (string, error) {
		return FindUSBPort(lister, serialNumber)
	}
	return s, nil
}

// FindUSBPort returns the port name whose USB serial number matches.
func FindUSBPort(lister PortLister, serialNumber string) (string, error) {
	ports, err := lister()
	if err != nil {
		return "", fault.Connection("enumerate ports", err)
	}
	for _, p := range ports {
		if p.IsUSB && strings.EqualFold(p.SerialNumber, serialNumber) {
			return p.Name, nil
		}
	}
	return "", fault.Connection("find usb port", fmt.Errorf("no port with serial number %q", serialNumber))
}
