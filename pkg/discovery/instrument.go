package discovery

import (
	"strings"
	"time"

	"github.com/ogameasure/ogameasure-go/pkg/catalog"
	"github.com/ogameasure/ogameasure-go/pkg/transport"
)

// Service types.
const (
	ServiceSCPIRaw = "_scpi-raw._tcp"
	ServiceLXI     = "_lxi._tcp"
	ServiceHiSLIP  = "_hislip._tcp"
)

// Domain is the mDNS domain.
const Domain = "local."

// Services lists every service type FindAll browses, raw socket first.
var Services = []string{ServiceSCPIRaw, ServiceLXI, ServiceHiSLIP}

// DefaultSCPIPort is the raw SCPI socket port assumed when only the web
// or HiSLIP service was seen.
const DefaultSCPIPort = 5025

// BrowseTimeout is the default FindAll duration.
const BrowseTimeout = 3 * time.Second

// TXT record keys.
const (
	TXTKeyManufacturer = "Manufacturer"
	TXTKeyModel        = "Model"
	TXTKeySerial       = "SerialNumber"
	TXTKeyFirmware     = "FirmwareVersion"
)

// Instrument is one discovered service instance.
type Instrument struct {
	// Instance is the DNS-SD instance name.
	Instance string
	// Service is the service type the instance was found under.
	Service string
	// Host is the advertised host name.
	Host string
	// Port is the advertised port.
	Port int
	// Addresses are the IPv4 and IPv6 addresses, deduplicated.
	Addresses []string

	Manufacturer string
	Model        string
	Serial       string
	Firmware     string
}

// SCPIPort returns the raw socket port: Port for _scpi-raw._tcp entries,
// DefaultSCPIPort otherwise.
func (i *Instrument) SCPIPort() int {
	if i.Service == ServiceSCPIRaw && i.Port > 0 {
		return i.Port
	}
	return DefaultSCPIPort
}

// Address returns the first address, or the host name if none resolved.
func (i *Instrument) Address() string {
	if len(i.Addresses) > 0 {
		return i.Addresses[0]
	}
	return strings.TrimSuffix(i.Host, ".")
}

// TCPConfig returns a raw socket transport configuration for the
// instrument.
func (i *Instrument) TCPConfig() transport.TCPConfig {
	return transport.DefaultTCPConfig(i.Address(), i.SCPIPort())
}

// Match returns the catalog record whose product equals the advertised
// model, preferring one from the same manufacturer.
func (i *Instrument) Match(c *catalog.Catalog) (*catalog.Model, bool) {
	if i.Model == "" {
		return nil, false
	}
	var found *catalog.Model
	for _, key := range c.Keys() {
		m, _ := c.Lookup(key)
		if !strings.EqualFold(m.Product, i.Model) {
			continue
		}
		if sameVendor(m.Manufacturer, i.Manufacturer) {
			return m, true
		}
		if found == nil {
			found = m
		}
	}
	return found, found != nil
}

func (i *Instrument) String() string {
	var b strings.Builder
	b.WriteString(i.Instance)
	if i.Model != "" {
		b.WriteString(" (")
		b.WriteString(strings.TrimSpace(i.Manufacturer + " " + i.Model))
		b.WriteString(")")
	}
	return b.String()
}

// sameVendor compares the first words of two manufacturer names, so
// "Keysight Technologies" matches "Keysight".
func sameVendor(a, b string) bool {
	fa, fb := strings.Fields(a), strings.Fields(b)
	return len(fa) > 0 && len(fb) > 0 && strings.EqualFold(fa[0], fb[0])
}

// parseTXT splits "key=value" strings. Keys are matched
// case-insensitively per DNS-SD.
func parseTXT(text []string) map[string]string {
	out := make(map[string]string, len(text))
	for _, kv := range text {
		k, v, _ := strings.Cut(kv, "=")
		if k == "" {
			continue
		}
		out[strings.ToLower(k)] = v
	}
	return out
}

func (i *Instrument) applyTXT(text []string) {
	txt := parseTXT(text)
	i.Manufacturer = txt[strings.ToLower(TXTKeyManufacturer)]
	i.Model = txt[strings.ToLower(TXTKeyModel)]
	i.Serial = txt[strings.ToLower(TXTKeySerial)]
	i.Firmware = txt[strings.ToLower(TXTKeyFirmware)]
}
