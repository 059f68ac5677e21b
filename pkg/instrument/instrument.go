package instrument

import (
	"context"
	"io"

	"github.com/ogameasure/ogameasure-go/pkg/catalog"
	"github.com/ogameasure/ogameasure-go/pkg/device"
	"github.com/ogameasure/ogameasure-go/pkg/dispatch"
	"github.com/ogameasure/ogameasure-go/pkg/drivers/attenuator"
	"github.com/ogameasure/ogameasure-go/pkg/drivers/gauge"
	"github.com/ogameasure/ogameasure-go/pkg/drivers/motion/azd"
	"github.com/ogameasure/ogameasure-go/pkg/drivers/motion/sp100"
	"github.com/ogameasure/ogameasure-go/pkg/drivers/powermeter"
	"github.com/ogameasure/ogameasure-go/pkg/drivers/siggen"
	"github.com/ogameasure/ogameasure-go/pkg/drivers/specan"
	"github.com/ogameasure/ogameasure-go/pkg/drivers/tempmon"
	"github.com/ogameasure/ogameasure-go/pkg/log"
	"github.com/ogameasure/ogameasure-go/pkg/transport"
)

// Driver is the surface every driver shares through device.Device.
type Driver interface {
	Call(name string, args ...string) (any, error)
	Commands() []dispatch.Entry
	Describe(w io.Writer) error
	Write(cmd string) error
	Query(cmd string) (string, error)
	Model() *catalog.Model
	Transport() transport.Transport
	Close() error
}

var _ Driver = (*device.Device)(nil)

// Constructor opens a driver over t.
type Constructor func(ctx context.Context, t transport.Transport, model *catalog.Model, opts ...device.Option) (Driver, error)

func constructor[T Driver](newFn func(context.Context, transport.Transport, *catalog.Model, ...device.Option) (T, error)) Constructor {
	return func(ctx context.Context, t transport.Transport, model *catalog.Model, opts ...device.Option) (Driver, error) {
		d, err := newFn(ctx, t, model, opts...)
		if err != nil {
			return nil, err
		}
		return d, nil
	}
}

var constructors = map[string]Constructor{
	catalog.FamilySigGen:     constructor(siggen.New),
	catalog.FamilySpecAn:     constructor(specan.New),
	catalog.FamilyAttenuator: constructor(attenuator.New),
	catalog.FamilyPowerMeter: constructor(powermeter.New),
	catalog.FamilyTempMon:    constructor(tempmon.New),
	catalog.FamilyGauge:      constructor(gauge.New),
	catalog.FamilySP100:      constructor(sp100.New),
	catalog.FamilyAZD:        constructor(azd.New),
}

// ConstructorFor returns the driver constructor of family, falling back
// to device.New.
func ConstructorFor(family string) Constructor {
	if c, ok := constructors[family]; ok {
		return c
	}
	return constructor(device.New)
}

// GenericModel returns a model for an unlisted SCPI instrument. It keeps
// the transport defaults and binds the whole common command vocabulary.
func GenericModel() *catalog.Model {
	return &catalog.Model{Key: "generic", SCPI: "ALL"}
}

// Config configures Open.
type Config struct {
	// Logger receives capture events from the transport and the device.
	Logger log.Logger

	// Options are extra device options.
	Options []device.Option
}

// Open builds the transport for resource and opens the model's driver
// over it. A nil model opens a GenericModel. The transport is closed again
// if the driver fails to open.
func Open(ctx context.Context, resource string, model *catalog.Model, config Config) (Driver, error) {
	if model == nil {
		model = GenericModel()
	}
	r, err := ParseResource(resource)
	if err != nil {
		return nil, err
	}
	t, err := r.Transport(model, config.Logger)
	if err != nil {
		return nil, err
	}

	opts := config.Options
	if config.Logger != nil {
		opts = append([]device.Option{device.WithLogger(config.Logger)}, opts...)
	}
	d, err := ConstructorFor(model.Family)(ctx, t, model, opts...)
	if err != nil {
		_ = t.Close()
		return nil, err
	}
	return d, nil
}
