package transport

import (
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/ogameasure/ogameasure-go/pkg/fault"
	"github.com/ogameasure/ogameasure-go/pkg/log"
)

// capture emits protocol events for one link.
type capture struct {
	logger   log.Logger
	medium   string
	resource string

	mu     sync.RWMutex
	connID string
}

func newCapture(logger log.Logger, medium, resource string) *capture {
	return &capture{
		logger:   log.OrNoop(logger),
		medium:   medium,
		resource: resource,
	}
}

// begin assigns a fresh connection ID for a new open/close cycle.
func (c *capture) begin() string {
	id := uuid.New().String()
	c.mu.Lock()
	c.connID = id
	c.mu.Unlock()
	return id
}

// ConnectionID returns the ID of the current or last open cycle.
func (c *capture) ConnectionID() string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.connID
}

func (c *capture) event(dir log.Direction, cat log.Category) log.Event {
	return log.Event{
		Timestamp:    time.Now(),
		ConnectionID: c.ConnectionID(),
		Direction:    dir,
		Layer:        log.LayerTransport,
		Category:     cat,
		Medium:       c.medium,
		Resource:     c.resource,
	}
}

func (c *capture) frame(dir log.Direction, data []byte) {
	if _, noop := c.logger.(log.NoopLogger); noop {
		return
	}
	e := c.event(dir, log.CategoryMessage)
	e.Frame = log.NewFrameEvent(data)
	c.logger.Log(e)
}

func (c *capture) state(entity log.StateEntity, oldState, newState, reason string) {
	e := c.event(log.DirectionOut, log.CategoryState)
	e.StateChange = &log.StateChangeEvent{
		Entity:   entity,
		OldState: oldState,
		NewState: newState,
		Reason:   reason,
	}
	c.logger.Log(e)
}

func (c *capture) control(directive string, addr *int) {
	e := c.event(log.DirectionOut, log.CategoryControl)
	e.Control = &log.ControlEvent{Directive: directive, Address: addr}
	c.logger.Log(e)
}

func (c *capture) failure(op string, err error) {
	e := c.event(log.DirectionIn, log.CategoryError)
	e.Error = &log.ErrorEventData{
		Layer:   log.LayerTransport,
		Message: err.Error(),
		Context: op,
	}
	if kind, ok := fault.KindOf(err); ok {
		e.Error.Kind = kind.String()
	}
	c.logger.Log(e)
}
