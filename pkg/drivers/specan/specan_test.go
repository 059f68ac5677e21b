package specan

import (
	"context"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ogameasure/ogameasure-go/internal/fakeinst"
	"github.com/ogameasure/ogameasure-go/pkg/catalog"
	"github.com/ogameasure/ogameasure-go/pkg/fault"
	"github.com/ogameasure/ogameasure-go/pkg/transport"
)

// analyzer answers queries from a table and queues an error for any
// SWE:TIME below one millisecond.
type analyzer struct {
	mu      sync.Mutex
	replies map[string]string
	errors  []string
}

func (a *analyzer) respond(line string) (string, bool) {
	a.mu.Lock()
	defer a.mu.Unlock()

	if line == "SYST:ERR?" {
		if len(a.errors) == 0 {
			return `+0,"No error"`, true
		}
		e := a.errors[0]
		a.errors = a.errors[1:]
		return e, true
	}
	if strings.HasPrefix(line, "SWE:TIME 0.000") {
		a.errors = append(a.errors, `-222,"Data out of range"`)
		return "", false
	}
	r, ok := a.replies[line]
	return r, ok
}

func newTestAnalyzer(t *testing.T) (*Analyzer, *fakeinst.Instrument) {
	t.Helper()
	fake := &analyzer{replies: map[string]string{
		"*IDN?":                  "Agilent Technologies,N9342C,CN0000001,A.03.20",
		"FREQ:CENT?":             "+1.50000000E+009",
		"FREQ:STAR?":             "+1.00000000E+009",
		"FREQ:STOP?":             "+2.00000000E+009",
		"FREQ:SPAN?":             "+1.00000000E+009",
		"BAND:AUTO?":             "1",
		"AVER:TRAC2:COUN?":       "+100",
		"SWE:TIME?":              "+2.50000000E-001",
		"TRACE:DATA? TRACE1":     "-70.5,-69.25,-71.0,-68.75,-70.0",
		"SYST:OPT?":              `"TG,PA"`,
		"SYST:DATE?":             `"20261015"`,
		"SYST:TIME?":             `"123045"`,
		"DISP:WIND:TRAC:Y:RLEV?": "-1.00000000E+001",
	}}
	inst, err := fakeinst.NewInstrument(fake.respond)
	require.NoError(t, err)
	t.Cleanup(func() { inst.Close() })

	m := catalog.Default().MustLookup("agilent-n9342c")
	cfg := m.TCPConfig(inst.Host(), inst.Port())
	cfg.Timeout = time.Second
	tr, err := transport.NewTCP(cfg)
	require.NoError(t, err)

	a, err := New(context.Background(), tr, m)
	require.NoError(t, err)
	t.Cleanup(func() { a.Close() })
	return a, inst
}

func TestSettersRunErrorCheck(t *testing.T) {
	a, inst := newTestAnalyzer(t)

	require.NoError(t, a.SetCenterFrequency(1.5, "GHz"))
	require.NoError(t, a.SetSpan(100, "MHz"))
	require.NoError(t, a.SetReferenceLevel(-10))
	require.NoError(t, a.SetAttenuationAuto(true))

	assert.Equal(t, []string{
		"FREQ:CENT 1.5000000000 GHz", "SYST:ERR?",
		"FREQ:SPAN 100.0000000000 MHz", "SYST:ERR?",
		"DISP:WIND:TRAC:Y:RLEV -10.000000 dBm", "SYST:ERR?",
		"POW:ATT:AUTO 1", "SYST:ERR?",
	}, inst.Received())
}

func TestInstrumentErrorCarriesExplanation(t *testing.T) {
	a, _ := newTestAnalyzer(t)

	err := a.SetSweepTime(100 * time.Microsecond)
	var ie *fault.InstrumentError
	require.ErrorAs(t, err, &ie)
	assert.Equal(t, -222, ie.Code)
	assert.Equal(t, "Data out of range", ie.Message)
	assert.Contains(t, ie.Explanation, "outside the legal range")
}

func TestFrequencyRangeFromModel(t *testing.T) {
	a, inst := newTestAnalyzer(t)

	assert.ErrorIs(t, a.SetCenterFrequency(8, "GHz"), fault.ErrValidation)
	assert.ErrorIs(t, a.SetStartFrequency(10, "kHz"), fault.ErrValidation)
	assert.Empty(t, inst.Received())

	require.NoError(t, a.SetResolutionBandwidth(30, "kHz"))
}

func TestQueries(t *testing.T) {
	a, _ := newTestAnalyzer(t)

	f, err := a.CenterFrequency()
	require.NoError(t, err)
	assert.Equal(t, 1.5e9, f)

	on, err := a.ResolutionBandwidthAuto()
	require.NoError(t, err)
	assert.True(t, on)

	n, err := a.AverageCount(2)
	require.NoError(t, err)
	assert.Equal(t, 100, n)

	st, err := a.SweepTime()
	require.NoError(t, err)
	assert.Equal(t, 250*time.Millisecond, st)

	opts, err := a.InstalledOptions()
	require.NoError(t, err)
	assert.Equal(t, []string{"TG,PA"}, opts)

	rl, err := a.ReferenceLevel()
	require.NoError(t, err)
	assert.Equal(t, -10.0, rl)
}

func TestTraceAndXAxis(t *testing.T) {
	a, _ := newTestAnalyzer(t)

	data, err := a.Trace(1)
	require.NoError(t, err)
	assert.Equal(t, []float64{-70.5, -69.25, -71.0, -68.75, -70.0}, data)

	x, err := a.XAxis()
	require.NoError(t, err)
	assert.Equal(t, []float64{1e9, 1.25e9, 1.5e9, 1.75e9, 2e9}, x)

	_, err = a.Trace(5)
	assert.ErrorIs(t, err, fault.ErrValidation)
}

func TestTraceNumberValidation(t *testing.T) {
	a, inst := newTestAnalyzer(t)

	assert.ErrorIs(t, a.SetAverageCount(10, 0), fault.ErrValidation)
	assert.ErrorIs(t, a.SetAverageCount(0, 1), fault.ErrValidation)
	assert.ErrorIs(t, a.SetAverage(true, 5), fault.ErrValidation)
	assert.ErrorIs(t, a.RestartAverage(9), fault.ErrValidation)
	assert.Empty(t, inst.Received())

	require.NoError(t, a.SetAverageCount(16, 1))
	require.NoError(t, a.RestartAverage(1))
	assert.Equal(t, []string{"AVER:TRAC1:COUN 16", "SYST:ERR?", "AVER:TRAC1:CLE", "SYST:ERR?"}, inst.Received())
}

func TestErrorQuery(t *testing.T) {
	a, _ := newTestAnalyzer(t)

	code, msg, err := a.ErrorQuery()
	require.NoError(t, err)
	assert.Equal(t, 0, code)
	assert.Equal(t, "No error", msg)

	v, err := a.Call("error_query")
	require.NoError(t, err)
	assert.Equal(t, []any{0, "No error"}, v)
}

func TestClock(t *testing.T) {
	a, inst := newTestAnalyzer(t)

	at := time.Date(2026, 10, 15, 12, 30, 45, 0, time.UTC)
	require.NoError(t, a.SetClock(at))
	assert.Equal(t, []string{`SYST:DATE "20261015"`, "SYST:ERR?", `SYST:TIME "123045"`, "SYST:ERR?"}, inst.Received())

	got, err := a.Clock(time.UTC)
	require.NoError(t, err)
	assert.True(t, at.Equal(got))
}

func TestCatalogAliases(t *testing.T) {
	a, inst := newTestAnalyzer(t)

	_, err := a.Call("frequency_center_set", "2", "GHz")
	require.NoError(t, err)
	_, err = a.Call("FREQSPAN", "10", "MHz")
	require.NoError(t, err)
	data, err := a.Call("trace_data_query")
	require.NoError(t, err)
	assert.Len(t, data, 5)

	assert.Equal(t, "FREQ:CENT 2.0000000000 GHz", inst.Received()[0])
	assert.Equal(t, "FREQ:SPAN 10.0000000000 MHz", inst.Received()[2])
}

func TestLinspace(t *testing.T) {
	assert.Empty(t, linspace(0, 1, 0))
	assert.Equal(t, []float64{3}, linspace(3, 5, 1))
	assert.Equal(t, []float64{0, 0.5, 1}, linspace(0, 1, 3))
}
