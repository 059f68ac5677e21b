package device

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/ogameasure/ogameasure-go/pkg/catalog"
	"github.com/ogameasure/ogameasure-go/pkg/dispatch"
	"github.com/ogameasure/ogameasure-go/pkg/fault"
	"github.com/ogameasure/ogameasure-go/pkg/log"
	"github.com/ogameasure/ogameasure-go/pkg/scpi"
	"github.com/ogameasure/ogameasure-go/pkg/transport"
)

// Device is an opened instrument with its command registry.
type Device struct {
	t      transport.Transport
	model  *catalog.Model
	common *scpi.Common
	reg    *dispatch.Registry
	desc   map[string]string

	errTable   *scpi.ErrorTable
	errorCheck bool

	logger log.Logger

	// mu serializes command/reply pairs.
	mu sync.Mutex
}

// New builds a Device for model over t and opens t. The registry is
// sealed before New returns.
func New(ctx context.Context, t transport.Transport, model *catalog.Model, opts ...Option) (*Device, error) {
	if t == nil {
		return nil, fault.Configurationf("device", "nil transport")
	}
	if model == nil {
		return nil, fault.Configurationf("device", "nil model")
	}

	var o options
	for _, opt := range opts {
		opt(&o)
	}

	d := &Device{
		t:      t,
		model:  model,
		reg:    dispatch.NewRegistry(),
		desc:   make(map[string]string),
		logger: log.OrNoop(o.logger),
	}
	d.common = scpi.NewCommon(d)

	if model.ErrorTable != "" {
		table, err := scpi.BuiltinErrorTable(model.ErrorTable)
		if err != nil {
			return nil, fmt.Errorf("model %s: %w", model.Key, err)
		}
		d.errTable = table
		d.errorCheck = true
	}
	if o.errorCheck != nil {
		d.errorCheck = *o.errorCheck
	}

	if err := d.register(o.commands); err != nil {
		return nil, fmt.Errorf("model %s: %w", model.Key, err)
	}

	if err := t.Open(ctx); err != nil {
		return nil, err
	}
	d.state("", "attached", model.Key)
	return d, nil
}

func (d *Device) register(cmds []Command) error {
	entries, err := dispatch.Select(scpi.Vocabulary(), d.model.SCPI)
	if err != nil {
		return err
	}
	for _, e := range entries {
		if err := d.reg.Register(e.Name, e.Token, d.logged(e.Name, scpi.Bind(d.common, e.Token))); err != nil {
			return err
		}
		d.desc[e.Name], _ = scpi.Describe(e.Token)
	}

	for _, c := range cmds {
		if err := d.reg.Register(c.Name, c.Token, d.logged(c.Name, c.Handler)); err != nil {
			return err
		}
		d.desc[c.Name] = c.Description
	}

	for alias, name := range d.model.Aliases {
		if err := d.reg.Alias(alias, name); err != nil {
			return err
		}
	}

	d.reg.Seal()
	return nil
}

// logged wraps h so that failures reach the capture log at driver layer.
func (d *Device) logged(name string, h dispatch.Handler) dispatch.Handler {
	if h == nil {
		return nil
	}
	return func(args ...string) (any, error) {
		v, err := h(args...)
		if err != nil {
			d.failure(log.LayerDriver, name, err)
		}
		return v, err
	}
}

// Model returns the model record.
func (d *Device) Model() *catalog.Model { return d.model }

// Transport returns the owned transport.
func (d *Device) Transport() transport.Transport { return d.t }

// Common returns the IEEE 488.2 command set. Its commands go through
// Write and Query.
func (d *Device) Common() *scpi.Common { return d.common }

// ErrorCheckEnabled reports whether WriteChecked reads the error queue.
func (d *Device) ErrorCheckEnabled() bool { return d.errorCheck }

// ErrorTable returns the model's error table, or nil.
func (d *Device) ErrorTable() *scpi.ErrorTable { return d.errTable }

// Close closes the transport. Closing twice returns nil.
func (d *Device) Close() error {
	if d.t.State() == transport.StateClosed {
		return nil
	}
	err := d.t.Close()
	d.state("attached", "detached", d.model.Key)
	return err
}

// Write sends one command line.
func (d *Device) Write(cmd string) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.write(cmd)
}

func (d *Device) write(cmd string) error {
	if err := d.t.Send(cmd); err != nil {
		d.failure(log.LayerCommand, cmd, err)
		return err
	}
	d.command(cmd, "", nil)
	return nil
}

// Query sends cmd and returns the reply line with surrounding whitespace
// removed.
func (d *Device) Query(cmd string) (string, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.query(cmd)
}

func (d *Device) query(cmd string) (string, error) {
	start := time.Now()
	if err := d.t.Send(cmd); err != nil {
		d.failure(log.LayerCommand, cmd, err)
		return "", err
	}
	line, err := d.t.ReadLine()
	if err != nil {
		err = fmt.Errorf("%s: %w", cmd, err)
		d.failure(log.LayerCommand, cmd, err)
		return "", err
	}
	reply := strings.TrimSpace(line)
	elapsed := time.Since(start)
	d.command(cmd, reply, &elapsed)
	return reply, nil
}

// QueryFloat runs Query and parses the reply as a float.
func (d *Device) QueryFloat(cmd string) (float64, error) {
	reply, err := d.Query(cmd)
	if err != nil {
		return 0, err
	}
	v, err := scpi.ParseFloat(reply)
	if err != nil {
		return 0, fault.Protocol(cmd, err)
	}
	return v, nil
}

// QueryInt runs Query and parses the reply as an integer.
func (d *Device) QueryInt(cmd string) (int, error) {
	reply, err := d.Query(cmd)
	if err != nil {
		return 0, err
	}
	v, err := scpi.ParseInt(reply)
	if err != nil {
		return 0, fault.Protocol(cmd, err)
	}
	return v, nil
}

// QueryFields runs Query and splits the reply on commas.
func (d *Device) QueryFields(cmd string) ([]string, error) {
	reply, err := d.Query(cmd)
	if err != nil {
		return nil, err
	}
	return scpi.Fields(reply), nil
}

// WriteChecked sends cmd and, when error checking is on, reads one entry
// of the instrument's error queue.
func (d *Device) WriteChecked(cmd string) error {
	d.mu.Lock()
	defer d.mu.Unlock()

	if err := d.write(cmd); err != nil {
		return err
	}
	if !d.errorCheck {
		return nil
	}
	return d.checkErrorQueue(cmd)
}

// CheckErrors reads one entry of the error queue regardless of the
// error check setting.
func (d *Device) CheckErrors() error {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.checkErrorQueue("")
}

func (d *Device) checkErrorQueue(after string) error {
	reply, err := d.query("SYST:ERR?")
	if err != nil {
		return err
	}
	code, msg, err := scpi.ParseSystemError(reply)
	if err != nil {
		return err
	}
	if err := d.errTable.Check(code, msg); err != nil {
		if after != "" {
			err = fmt.Errorf("%s: %w", after, err)
		}
		d.instrumentFailure(code, after, err)
		return err
	}
	return nil
}

var _ scpi.Conn = (*Device)(nil)

// Exchange runs fn with exclusive use of the transport. Drivers whose
// framing is not one command line per reply build on it.
func (d *Device) Exchange(op string, fn func(t transport.Transport) error) error {
	d.mu.Lock()
	defer d.mu.Unlock()

	if err := fn(d.t); err != nil {
		d.failure(log.LayerDriver, op, err)
		return err
	}
	d.command(op, "", nil)
	return nil
}

// Call runs the command registered under name, shortcut or alias.
func (d *Device) Call(name string, args ...string) (any, error) {
	e, ok := d.reg.Lookup(name)
	if !ok {
		err := fmt.Errorf("%w: %s", dispatch.ErrUnknownCommand, name)
		d.failure(log.LayerCommand, name, err)
		return nil, err
	}
	return e.Handler(args...)
}

// Commands returns the registered commands sorted by name.
func (d *Device) Commands() []dispatch.Entry { return d.reg.Entries() }

// Registry returns the sealed command registry.
func (d *Device) Registry() *dispatch.Registry { return d.reg }

// Description returns the one-line summary of a registered command.
func (d *Device) Description(name string) string {
	e, ok := d.reg.Lookup(name)
	if !ok {
		return ""
	}
	return d.desc[e.Name]
}

// CheckFamily returns a configuration fault unless model belongs to
// family.
func CheckFamily(model *catalog.Model, family string) error {
	if model == nil {
		return fault.Configurationf("device", "nil model")
	}
	if model.Family != family {
		return fault.Configurationf("device", "model %s is a %s, not a %s", model.Key, model.Family, family)
	}
	return nil
}
