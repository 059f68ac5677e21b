package bridge

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/ogameasure/ogameasure-go/pkg/store"
)

// Caller runs a registry command; every driver satisfies it.
type Caller interface {
	Call(name string, args ...string) (any, error)
}

// Sink receives readings.
type Sink interface {
	Put(r store.Reading) error
}

// Poller runs jobs on their schedules.
type Poller struct {
	jobs    []*Job
	callers map[string]Caller
	sinks   []Sink
	logger  *slog.Logger

	now   func() time.Time
	after func(time.Duration) <-chan time.Time
}

// NewPoller creates a poller. Every job's instrument must have a caller.
// A nil logger disables logging.
func NewPoller(jobs []*Job, callers map[string]Caller, sinks []Sink, logger *slog.Logger) (*Poller, error) {
	for _, j := range jobs {
		if callers[j.Instrument] == nil {
			return nil, fmt.Errorf("job %s %s: no instrument %q", j.Instrument, j.Command, j.Instrument)
		}
	}
	return &Poller{
		jobs:    jobs,
		callers: callers,
		sinks:   sinks,
		logger:  logger,
		now:     time.Now,
		after:   time.After,
	}, nil
}

// Poll runs job once and hands the reading to every sink. A failed call
// is recorded as a reading with Error set.
func (p *Poller) Poll(job *Job, at time.Time) store.Reading {
	r := store.Reading{
		Time:       at,
		Instrument: job.Instrument,
		Name:       job.Command,
		Args:       job.Args,
	}
	v, err := p.callers[job.Instrument].Call(job.Command, job.Args...)
	if err != nil {
		r.Error = err.Error()
		p.warn("poll failed", "instrument", job.Instrument, "command", job.Command, "error", err)
	} else {
		r.Value = v
		p.debug("polled", "instrument", job.Instrument, "command", job.Command, "value", v)
	}
	for _, s := range p.sinks {
		if err := s.Put(r); err != nil {
			p.warn("sink failed", "instrument", job.Instrument, "command", job.Command, "error", err)
		}
	}
	return r
}

// PollAll runs every job once, in configuration order.
func (p *Poller) PollAll() []store.Reading {
	out := make([]store.Reading, 0, len(p.jobs))
	for _, j := range p.jobs {
		out = append(out, p.Poll(j, p.now()))
	}
	return out
}

// Run polls until ctx is done or no schedule has a fire time left.
func (p *Poller) Run(ctx context.Context) error {
	now := p.now()
	next := make([]time.Time, len(p.jobs))
	for i, j := range p.jobs {
		next[i] = j.Next(now)
	}

	for {
		var due time.Time
		for _, t := range next {
			if !t.IsZero() && (due.IsZero() || t.Before(due)) {
				due = t
			}
		}
		if due.IsZero() {
			return nil
		}

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-p.after(due.Sub(p.now())):
		}
		if err := ctx.Err(); err != nil {
			return err
		}

		now = p.now()
		for i, j := range p.jobs {
			if next[i].IsZero() || next[i].After(now) {
				continue
			}
			p.Poll(j, next[i])
			next[i] = j.Next(now)
		}
	}
}

func (p *Poller) debug(msg string, args ...any) {
	if p.logger != nil {
		p.logger.Debug(msg, args...)
	}
}

func (p *Poller) warn(msg string, args ...any) {
	if p.logger != nil {
		p.logger.Warn(msg, args...)
	}
}
