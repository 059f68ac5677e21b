package device

import (
	"time"

	"github.com/ogameasure/ogameasure-go/pkg/fault"
	"github.com/ogameasure/ogameasure-go/pkg/log"
	"github.com/ogameasure/ogameasure-go/pkg/transport"
)

func (d *Device) event(cat log.Category, layer log.Layer) log.Event {
	return log.Event{
		Timestamp:    time.Now(),
		ConnectionID: transport.ConnectionID(d.t),
		Direction:    log.DirectionOut,
		Layer:        layer,
		Category:     cat,
		Medium:       d.t.Medium(),
		Resource:     d.t.Resource(),
		Instrument:   d.model.Key,
	}
}

func (d *Device) command(text, reply string, elapsed *time.Duration) {
	if _, noop := d.logger.(log.NoopLogger); noop {
		return
	}
	e := d.event(log.CategoryMessage, log.LayerCommand)
	e.Command = &log.CommandEvent{Text: text, Reply: reply, Duration: elapsed}
	d.logger.Log(e)
}

func (d *Device) state(oldState, newState, reason string) {
	if _, noop := d.logger.(log.NoopLogger); noop {
		return
	}
	e := d.event(log.CategoryState, log.LayerDriver)
	e.StateChange = &log.StateChangeEvent{
		Entity:   log.StateEntityDriver,
		OldState: oldState,
		NewState: newState,
		Reason:   reason,
	}
	d.logger.Log(e)
}

func (d *Device) failure(layer log.Layer, op string, err error) {
	if _, noop := d.logger.(log.NoopLogger); noop {
		return
	}
	e := d.event(log.CategoryError, layer)
	e.Direction = log.DirectionIn
	e.Error = &log.ErrorEventData{Layer: layer, Message: err.Error(), Context: op}
	if kind, ok := fault.KindOf(err); ok {
		e.Error.Kind = kind.String()
	}
	d.logger.Log(e)
}

func (d *Device) instrumentFailure(code int, op string, err error) {
	if _, noop := d.logger.(log.NoopLogger); noop {
		return
	}
	e := d.event(log.CategoryError, log.LayerCommand)
	e.Direction = log.DirectionIn
	e.Error = &log.ErrorEventData{
		Layer:   log.LayerCommand,
		Message: err.Error(),
		Kind:    fault.KindProtocol.String(),
		Code:    &code,
		Context: op,
	}
	d.logger.Log(e)
}
