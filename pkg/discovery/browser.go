package discovery

import (
	"context"
	"errors"
	"net"
	"slices"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/enbility/zeroconf/v3"

	"github.com/ogameasure/ogameasure-go/pkg/fault"
)

// BrowserConfig configures browser behavior.
type BrowserConfig struct {
	// BrowseTimeout is the FindAll duration when none is given.
	// Default: 3 seconds.
	BrowseTimeout time.Duration

	// Interface specifies which network interface to use.
	// Empty string means all interfaces.
	Interface string
}

// DefaultBrowserConfig returns the default browser configuration.
func DefaultBrowserConfig() BrowserConfig {
	return BrowserConfig{
		BrowseTimeout: BrowseTimeout,
	}
}

// browseFunc reports instances of service on found and address losses on
// lost until ctx is done.
type browseFunc func(ctx context.Context, service string, found, lost chan<- *Instrument) error

// Browser browses LXI services.
type Browser struct {
	config BrowserConfig
	browse browseFunc
}

// NewBrowser creates a browser.
func NewBrowser(config BrowserConfig) *Browser {
	if config.BrowseTimeout <= 0 {
		config.BrowseTimeout = BrowseTimeout
	}
	b := &Browser{config: config}
	b.browse = b.zeroconfBrowse
	return b
}

// Browse watches service until ctx is done. The channel yields an
// Instrument when an instance first appears and again whenever it gains
// addresses. It is closed when ctx is done.
func (b *Browser) Browse(ctx context.Context, service string) (<-chan *Instrument, error) {
	if service == "" {
		return nil, fault.Configurationf("browse", "empty service type")
	}

	out := make(chan *Instrument)
	found := make(chan *Instrument)
	lost := make(chan *Instrument)

	go func() {
		defer close(out)

		// Track instances by name, aggregating addresses across interfaces
		instances := make(map[string]*Instrument)

		for {
			select {
			case inst, ok := <-found:
				if !ok {
					return
				}
				existing, seen := instances[inst.Instance]
				if seen {
					n := len(existing.Addresses)
					existing.Addresses = mergeAddresses(existing.Addresses, inst.Addresses)
					if len(existing.Addresses) == n {
						continue
					}
				} else {
					instances[inst.Instance] = inst
					existing = inst
				}
				select {
				case out <- existing.clone():
				case <-ctx.Done():
					return
				}

			case inst, ok := <-lost:
				if !ok {
					lost = nil
					continue
				}
				if existing, seen := instances[inst.Instance]; seen {
					existing.Addresses = removeAddresses(existing.Addresses, inst.Addresses)
					if len(existing.Addresses) == 0 {
						delete(instances, inst.Instance)
					}
				}

			case <-ctx.Done():
				return
			}
		}
	}()

	go func() {
		_ = b.browse(ctx, service, found, lost)
	}()

	return out, nil
}

// FindAll browses every LXI service type for timeout (BrowseTimeout when
// zero) and returns the instruments seen, one per host, sorted by
// instance name. An instrument seen under _scpi-raw._tcp keeps that
// entry's instance name and port.
func (b *Browser) FindAll(ctx context.Context, timeout time.Duration) ([]*Instrument, error) {
	if timeout <= 0 {
		timeout = b.config.BrowseTimeout
	}
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	var (
		mu    sync.Mutex
		wg    sync.WaitGroup
		hosts = make(map[string]*Instrument)
	)
	for _, service := range Services {
		results, err := b.Browse(ctx, service)
		if err != nil {
			return nil, err
		}
		wg.Add(1)
		go func() {
			defer wg.Done()
			for inst := range results {
				mu.Lock()
				mergeInstrument(hosts, inst)
				mu.Unlock()
			}
		}()
	}
	wg.Wait()

	out := make([]*Instrument, 0, len(hosts))
	for _, inst := range hosts {
		out = append(out, inst)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Instance < out[j].Instance })
	return out, nil
}

// Browse watches service with the default configuration.
func Browse(ctx context.Context, service string) (<-chan *Instrument, error) {
	return NewBrowser(DefaultBrowserConfig()).Browse(ctx, service)
}

// FindAll browses every LXI service with the default configuration.
func FindAll(ctx context.Context, timeout time.Duration) ([]*Instrument, error) {
	return NewBrowser(DefaultBrowserConfig()).FindAll(ctx, timeout)
}

func mergeInstrument(hosts map[string]*Instrument, inst *Instrument) {
	key := hostKey(inst)
	existing, ok := hosts[key]
	if !ok {
		hosts[key] = inst
		return
	}
	existing.Addresses = mergeAddresses(existing.Addresses, inst.Addresses)
	if inst.Service == ServiceSCPIRaw && existing.Service != ServiceSCPIRaw {
		existing.Instance, existing.Service, existing.Port = inst.Instance, inst.Service, inst.Port
	}
	for _, f := range []struct{ dst, src *string }{
		{&existing.Manufacturer, &inst.Manufacturer},
		{&existing.Model, &inst.Model},
		{&existing.Serial, &inst.Serial},
		{&existing.Firmware, &inst.Firmware},
	} {
		if *f.dst == "" {
			*f.dst = *f.src
		}
	}
}

func hostKey(inst *Instrument) string {
	if host := strings.ToLower(strings.TrimSuffix(inst.Host, ".")); host != "" {
		return host
	}
	return inst.Address()
}

func (i *Instrument) clone() *Instrument {
	out := *i
	out.Addresses = slices.Clone(i.Addresses)
	return &out
}

// zeroconfBrowse runs an mDNS browse and converts its entries.
func (b *Browser) zeroconfBrowse(ctx context.Context, service string, found, lost chan<- *Instrument) error {
	entries := make(chan *zeroconf.ServiceEntry)
	removed := make(chan *zeroconf.ServiceEntry)

	go func() {
		for {
			select {
			case e, ok := <-entries:
				if !ok {
					return
				}
				select {
				case found <- fromEntry(service, e):
				case <-ctx.Done():
					return
				}
			case e, ok := <-removed:
				if !ok {
					removed = nil
					continue
				}
				select {
				case lost <- fromEntry(service, e):
				case <-ctx.Done():
					return
				}
			case <-ctx.Done():
				return
			}
		}
	}()

	err := zeroconf.Browse(ctx, service, Domain, entries, removed, b.options()...)
	if err != nil && !errors.Is(err, context.Canceled) && !errors.Is(err, context.DeadlineExceeded) {
		return fault.Connection("browse "+service, err)
	}
	return nil
}

// options returns zeroconf client options based on config.
func (b *Browser) options() []zeroconf.ClientOption {
	var opts []zeroconf.ClientOption

	if b.config.Interface != "" {
		iface, err := net.InterfaceByName(b.config.Interface)
		if err == nil {
			opts = append(opts, zeroconf.SelectIfaces([]net.Interface{*iface}))
		}
	}

	return opts
}

// fromEntry converts a zeroconf entry.
func fromEntry(service string, entry *zeroconf.ServiceEntry) *Instrument {
	addrs := make([]string, 0, len(entry.AddrIPv4)+len(entry.AddrIPv6))
	for _, ip := range entry.AddrIPv4 {
		addrs = append(addrs, ip.String())
	}
	for _, ip := range entry.AddrIPv6 {
		addrs = append(addrs, ip.String())
	}

	inst := &Instrument{
		Instance:  entry.Instance,
		Service:   service,
		Host:      entry.HostName,
		Port:      entry.Port,
		Addresses: mergeAddresses(nil, addrs),
	}
	inst.applyTXT(entry.Text)
	return inst
}

// mergeAddresses adds new addresses to existing list, avoiding duplicates.
func mergeAddresses(existing, new []string) []string {
	seen := make(map[string]bool, len(existing))
	for _, addr := range existing {
		seen[addr] = true
	}

	for _, addr := range new {
		if !seen[addr] {
			existing = append(existing, addr)
			seen[addr] = true
		}
	}
	return existing
}

// removeAddresses drops gone from addresses.
func removeAddresses(addresses, gone []string) []string {
	return slices.DeleteFunc(addresses, func(a string) bool { return slices.Contains(gone, a) })
}
