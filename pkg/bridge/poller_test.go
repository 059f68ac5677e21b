package bridge

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/ogameasure/ogameasure-go/pkg/store"
)

type mockCaller struct{ mock.Mock }

func (m *mockCaller) Call(name string, args ...string) (any, error) {
	ret := m.Called(name, args)
	return ret.Get(0), ret.Error(1)
}

type collectSink struct {
	mu       sync.Mutex
	readings []store.Reading
	err      error
	onPut    func(n int)
}

func (s *collectSink) Put(r store.Reading) error {
	s.mu.Lock()
	s.readings = append(s.readings, r)
	n := len(s.readings)
	s.mu.Unlock()
	if s.onPut != nil {
		s.onPut(n)
	}
	return s.err
}

func mustJob(t *testing.T, instrument, schedule, command string, args ...string) *Job {
	t.Helper()
	j, err := NewJob(instrument, PollConfig{Schedule: schedule, Command: command, Args: args})
	require.NoError(t, err)
	return j
}

// fakeClock fires every wait at once, advancing the clock.
type fakeClock struct {
	mu  sync.Mutex
	now time.Time
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fakeClock) After(d time.Duration) <-chan time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
	ch := make(chan time.Time, 1)
	ch <- c.now
	return ch
}

func TestPoll(t *testing.T) {
	caller := &mockCaller{}
	caller.On("Call", "Kelvin", []string{"1"}).Return(4.2, nil).Once()
	caller.On("Call", "Kelvin", []string{"1"}).Return(nil, errors.New("timeout")).Once()
	sink := &collectSink{}

	job := mustJob(t, "cryo", "@hourly", "Kelvin", "1")
	p, err := NewPoller([]*Job{job}, map[string]Caller{"cryo": caller}, []Sink{sink}, nil)
	require.NoError(t, err)

	at := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	r := p.Poll(job, at)
	assert.True(t, r.OK())
	assert.Equal(t, 4.2, r.Value)
	assert.Equal(t, at, r.Time)
	assert.Equal(t, "cryo", r.Instrument)
	assert.Equal(t, []string{"1"}, r.Args)

	r = p.Poll(job, at)
	assert.False(t, r.OK())
	assert.Equal(t, "timeout", r.Error)
	assert.Len(t, sink.readings, 2)
	caller.AssertExpectations(t)
}

func TestPollSinkErrorDoesNotStop(t *testing.T) {
	caller := &mockCaller{}
	caller.On("Call", "Pressure", []string(nil)).Return(1e-3, nil)
	failing := &collectSink{err: errors.New("disk full")}
	ok := &collectSink{}

	job := mustJob(t, "gauge", "@hourly", "Pressure")
	p, err := NewPoller([]*Job{job}, map[string]Caller{"gauge": caller}, []Sink{failing, ok}, nil)
	require.NoError(t, err)

	readings := p.PollAll()
	require.Len(t, readings, 1)
	assert.Len(t, ok.readings, 1)
}

func TestNewPollerUnknownInstrument(t *testing.T) {
	_, err := NewPoller([]*Job{mustJob(t, "ghost", "@hourly", "X")}, map[string]Caller{}, nil, nil)
	assert.Error(t, err)
}

func TestRunFollowsSchedules(t *testing.T) {
	caller := &mockCaller{}
	caller.On("Call", "Kelvin", []string(nil)).Return(4.2, nil)
	caller.On("Call", "Pressure", []string(nil)).Return(1e-3, nil)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	sink := &collectSink{onPut: func(n int) {
		if n == 5 {
			cancel()
		}
	}}

	jobs := []*Job{
		mustJob(t, "cryo", "*/10 * * * * * *", "Kelvin"),
		mustJob(t, "gauge", "*/20 * * * * * *", "Pressure"),
	}
	p, err := NewPoller(jobs, map[string]Caller{"cryo": caller, "gauge": caller}, []Sink{sink}, nil)
	require.NoError(t, err)
	clock := &fakeClock{now: time.Date(2026, 3, 1, 12, 0, 1, 0, time.UTC)}
	p.now, p.after = clock.Now, clock.After

	err = p.Run(ctx)
	assert.ErrorIs(t, err, context.Canceled)

	var got []string
	for _, r := range sink.readings {
		got = append(got, r.Time.Format("15:04:05")+" "+r.Name)
	}
	assert.Equal(t, []string{
		"12:00:10 Kelvin",
		"12:00:20 Kelvin",
		"12:00:20 Pressure",
		"12:00:30 Kelvin",
		"12:00:40 Kelvin",
		"12:00:40 Pressure",
	}, got)
}

func TestRunEndsWhenSchedulesExhausted(t *testing.T) {
	p, err := NewPoller([]*Job{mustJob(t, "cryo", "0 0 0 1 1 * 2020", "Kelvin")},
		map[string]Caller{"cryo": &mockCaller{}}, nil, nil)
	require.NoError(t, err)
	assert.NoError(t, p.Run(context.Background()))
}
