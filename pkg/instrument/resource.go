package instrument

import (
	"fmt"
	"net"
	"net/url"
	"strconv"
	"strings"

	"github.com/ogameasure/ogameasure-go/pkg/catalog"
	"github.com/ogameasure/ogameasure-go/pkg/fault"
	"github.com/ogameasure/ogameasure-go/pkg/log"
	"github.com/ogameasure/ogameasure-go/pkg/transport"
)

// Media accepted in resource strings.
const (
	MediumTCP    = transport.MediumTCP
	MediumSerial = transport.MediumSerial
	MediumUSB    = "usb"
	MediumGPIB   = transport.MediumGPIB
)

// Resource is a parsed resource string.
type Resource struct {
	Medium string

	// Host is the instrument (tcp) or adapter (gpib) host.
	Host string
	// Port is the TCP port, 0 for the default.
	Port int

	// Path is the serial device path.
	Path string

	// Serial is the USB serial number.
	Serial string

	// Address is the GPIB bus address, -1 for the model's default.
	Address int
}

// ParseResource parses a resource string.
func ParseResource(s string) (Resource, error) {
	s = strings.TrimSpace(s)
	bad := func(format string, args ...any) (Resource, error) {
		return Resource{}, fault.Configurationf("resource "+strconv.Quote(s), format, args...)
	}

	switch {
	case strings.HasPrefix(strings.ToUpper(s), "TCPIP::"):
		parts := strings.Split(s, "::")
		if len(parts) != 4 || !strings.EqualFold(parts[3], "SOCKET") {
			return bad("want TCPIP::host::port::SOCKET")
		}
		port, err := strconv.Atoi(parts[2])
		if err != nil {
			return bad("port: %v", err)
		}
		return Resource{Medium: MediumTCP, Host: parts[1], Port: port, Address: -1}, nil

	case strings.HasPrefix(strings.ToUpper(s), "ASRL"):
		path, ok := strings.CutSuffix(s[4:], "::INSTR")
		if !ok || path == "" {
			return bad("want ASRL<port>::INSTR")
		}
		return Resource{Medium: MediumSerial, Path: path, Address: -1}, nil

	case strings.HasPrefix(s, "usb:"):
		serial := strings.TrimPrefix(strings.TrimPrefix(s, "usb:"), "//")
		if serial == "" {
			return bad("missing serial number")
		}
		return Resource{Medium: MediumUSB, Serial: serial, Address: -1}, nil

	case strings.HasPrefix(s, "serial:"):
		path := strings.TrimPrefix(s, "serial:")
		path = strings.TrimPrefix(path, "//")
		if path == "" {
			return bad("missing port")
		}
		return Resource{Medium: MediumSerial, Path: path, Address: -1}, nil
	}

	u, err := url.Parse(s)
	if err != nil {
		return bad("%v", err)
	}
	r := Resource{Medium: u.Scheme, Host: u.Hostname(), Address: -1}
	if p := u.Port(); p != "" {
		if r.Port, err = strconv.Atoi(p); err != nil {
			return bad("port: %v", err)
		}
	}
	if r.Host == "" {
		return bad("missing host")
	}
	switch u.Scheme {
	case MediumTCP:
		return r, nil
	case MediumGPIB:
		addr := strings.Trim(u.Path, "/")
		if addr != "" {
			if r.Address, err = strconv.Atoi(addr); err != nil {
				return bad("address: %v", err)
			}
		}
		return r, nil
	default:
		return bad("unknown medium %q", u.Scheme)
	}
}

func (r Resource) String() string {
	switch r.Medium {
	case MediumTCP:
		if r.Port == 0 {
			return "tcp://" + r.Host
		}
		return "tcp://" + net.JoinHostPort(r.Host, strconv.Itoa(r.Port))
	case MediumSerial:
		return "serial://" + r.Path
	case MediumUSB:
		return "usb:" + r.Serial
	case MediumGPIB:
		host := r.Host
		if r.Port != 0 {
			host = net.JoinHostPort(r.Host, strconv.Itoa(r.Port))
		}
		if r.Address < 0 {
			return "gpib://" + host
		}
		return fmt.Sprintf("gpib://%s/%d", host, r.Address)
	}
	return r.Medium
}

// Transport builds an unopened transport for the resource with the
// model's link defaults. A nil model uses the transport defaults.
func (r Resource) Transport(model *catalog.Model, logger log.Logger) (transport.Transport, error) {
	if model == nil {
		model = GenericModel()
	}

	switch r.Medium {
	case MediumTCP:
		cfg := model.TCPConfig(r.Host, r.Port)
		if cfg.Port == 0 {
			return nil, fault.Configurationf("resource "+r.String(), "no port given and model %s has no default", model.Key)
		}
		cfg.Logger = logger
		return transport.NewTCP(cfg)

	case MediumSerial, MediumUSB:
		cfg, err := model.SerialConfig(r.Path)
		if err != nil {
			return nil, fault.Configuration("resource "+r.String(), err)
		}
		cfg.Logger = logger
		if r.Medium == MediumSerial {
			return transport.NewSerial(cfg)
		}
		return transport.NewUSBSerial(r.Serial, transport.USBSerialConfig{SerialConfig: cfg})

	case MediumGPIB:
		cfg := model.PrologixConfig()
		if r.Address >= 0 {
			cfg.Address = r.Address
		}
		if r.Port != 0 {
			cfg.Port = r.Port
		}
		if model.Transport.Timeout > 0 {
			cfg.Timeout = model.Transport.Timeout
		}
		cfg.Logger = logger
		return transport.NewPrologixHost(r.Host, cfg)
	}
	return nil, fault.Configurationf("resource", "unknown medium %q", r.Medium)
}
