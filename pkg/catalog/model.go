package catalog

import (
	"fmt"
	"strings"
	"time"

	"github.com/ogameasure/ogameasure-go/pkg/fault"
	"github.com/ogameasure/ogameasure-go/pkg/transport"
)

// Families served by the drivers in this module.
const (
	FamilySigGen     = "siggen"
	FamilySpecAn     = "specan"
	FamilyAttenuator = "attenuator"
	FamilyPowerMeter = "powermeter"
	FamilyTempMon    = "tempmon"
	FamilyGauge      = "gauge"
	FamilySP100      = "sp100"
	FamilyAZD        = "azd"
)

// Limit keys.
const (
	LimitFrequency = "frequency"
	LimitPower     = "power"
)

// Model describes one instrument product.
type Model struct {
	// Key identifies the record, e.g. "agilent-n9342c".
	Key string `yaml:"key"`

	Manufacturer   string `yaml:"manufacturer"`
	Product        string `yaml:"product"`
	Classification string `yaml:"classification"`

	// Family selects the driver.
	Family string `yaml:"family"`

	// SCPI is the allow-list of IEEE 488.2 common commands, e.g.
	// "*IDN? *RST" or "ALL". Empty exposes none.
	SCPI string `yaml:"scpi,omitempty"`

	// Aliases maps extra names to registered command names.
	Aliases map[string]string `yaml:"aliases,omitempty"`

	// ErrorTable names a built-in SYST:ERR? table.
	ErrorTable string `yaml:"error_table,omitempty"`

	// Transport holds the default link settings.
	Transport TransportDefaults `yaml:"transport,omitempty"`

	// Limits holds accepted value ranges by quantity.
	Limits map[string]Range `yaml:"limits,omitempty"`

	// Channels lists valid switch or sensor channel numbers.
	Channels []int `yaml:"channels,omitempty"`

	// Options carries family-specific settings, e.g. command prefixes.
	Options map[string]string `yaml:"options,omitempty"`
}

// TransportDefaults are the link settings an instrument ships with.
type TransportDefaults struct {
	Terminator  string        `yaml:"terminator,omitempty"`
	Baud        int           `yaml:"baud,omitempty"`
	DataBits    int           `yaml:"data_bits,omitempty"`
	Parity      string        `yaml:"parity,omitempty"`
	StopBits    string        `yaml:"stop_bits,omitempty"`
	Port        int           `yaml:"port,omitempty"`
	GPIBAddress *int          `yaml:"gpib_address,omitempty"`
	Timeout     time.Duration `yaml:"timeout,omitempty"`
}

// Range is an inclusive value range.
type Range struct {
	Min  float64 `yaml:"min"`
	Max  float64 `yaml:"max"`
	Unit string  `yaml:"unit,omitempty"`
}

// Contains reports whether v lies within the range.
func (r Range) Contains(v float64) bool {
	return v >= r.Min && v <= r.Max
}

// Check returns a validation fault naming arg when v is out of range.
func (r Range) Check(arg string, v float64) error {
	if r.Contains(v) {
		return nil
	}
	return fault.Validationf(arg, v, "must be within %g..%g %s", r.Min, r.Max, r.Unit)
}

// Limit returns the named range.
func (m *Model) Limit(name string) (Range, bool) {
	r, ok := m.Limits[name]
	return r, ok
}

// Option returns the named option or def.
func (m *Model) Option(name, def string) string {
	if v, ok := m.Options[name]; ok {
		return v
	}
	return def
}

// HasChannel reports whether ch is listed. A model without a channel
// list accepts any channel.
func (m *Model) HasChannel(ch int) bool {
	if len(m.Channels) == 0 {
		return true
	}
	for _, c := range m.Channels {
		if c == ch {
			return true
		}
	}
	return false
}

// String returns "Manufacturer Product".
func (m *Model) String() string {
	return strings.TrimSpace(m.Manufacturer + " " + m.Product)
}

func (m *Model) validate() error {
	if m.Key == "" {
		return fault.Configurationf("catalog", "model %q has no key", m.String())
	}
	if m.Family == "" {
		return fault.Configurationf("catalog", "model %s has no family", m.Key)
	}
	if r, ok := m.Limits[LimitFrequency]; ok && r.Min > r.Max {
		return fault.Configurationf("catalog", "model %s: frequency min > max", m.Key)
	}
	if a := m.Transport.GPIBAddress; a != nil && (*a < transport.MinGPIBAddress || *a > transport.MaxGPIBAddress) {
		return fault.Configurationf("catalog", "model %s: gpib address %d out of range", m.Key, *a)
	}
	return nil
}

// SerialConfig returns a serial configuration for port with the model's
// defaults applied.
func (m *Model) SerialConfig(port string) (transport.SerialConfig, error) {
	cfg := transport.DefaultSerialConfig(port)
	d := m.Transport
	if d.Baud > 0 {
		cfg.Baud = d.Baud
	}
	if d.DataBits > 0 {
		cfg.DataBits = d.DataBits
	}
	if d.Parity != "" {
		p, err := transport.ParseParity(d.Parity)
		if err != nil {
			return cfg, fmt.Errorf("model %s: %w", m.Key, err)
		}
		cfg.Parity = p
	}
	if d.StopBits != "" {
		s, err := transport.ParseStopBits(d.StopBits)
		if err != nil {
			return cfg, fmt.Errorf("model %s: %w", m.Key, err)
		}
		cfg.StopBits = s
	}
	if d.Terminator != "" {
		cfg.Terminator = d.Terminator
	}
	if d.Timeout > 0 {
		cfg.ReadTimeout = d.Timeout
	}
	return cfg, nil
}

// TCPConfig returns a TCP configuration for host with the model's
// defaults applied. Port 0 selects the model's default port.
func (m *Model) TCPConfig(host string, port int) transport.TCPConfig {
	if port == 0 {
		port = m.Transport.Port
	}
	cfg := transport.DefaultTCPConfig(host, port)
	if m.Transport.Terminator != "" {
		cfg.Terminator = m.Transport.Terminator
	}
	if m.Transport.Timeout > 0 {
		cfg.Timeout = m.Transport.Timeout
	}
	return cfg
}

// PrologixConfig returns an adapter configuration addressing the model's
// default GPIB address.
func (m *Model) PrologixConfig() transport.PrologixConfig {
	cfg := transport.DefaultPrologixConfig()
	if m.Transport.GPIBAddress != nil {
		cfg.Address = *m.Transport.GPIBAddress
	}
	return cfg
}
