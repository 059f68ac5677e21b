package bridge

import (
	"time"

	"github.com/gorhill/cronexpr"

	"github.com/ogameasure/ogameasure-go/pkg/fault"
)

// Job is one scheduled command on one instrument.
type Job struct {
	Instrument string
	Command    string
	Args       []string
	Schedule   string

	expr *cronexpr.Expression
}

// NewJob parses the poll's schedule.
func NewJob(instrument string, p PollConfig) (*Job, error) {
	if p.Command == "" {
		return nil, fault.Configurationf("bridge config", "%s: poll without command", instrument)
	}
	expr, err := cronexpr.Parse(p.Schedule)
	if err != nil {
		return nil, fault.Configurationf("bridge config", "%s %s: schedule %q: %v", instrument, p.Command, p.Schedule, err)
	}
	return &Job{
		Instrument: instrument,
		Command:    p.Command,
		Args:       p.Args,
		Schedule:   p.Schedule,
		expr:       expr,
	}, nil
}

// Next returns the first fire time after t, zero if the schedule has
// none left.
func (j *Job) Next(t time.Time) time.Time {
	return j.expr.Next(t)
}
