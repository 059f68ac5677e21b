// Package specan drives the Agilent N9342C/N9343C/N9344C handheld
// spectrum analyzers.
//
// Every setter reads the instrument's error queue afterwards, so a value
// the analyzer refuses surfaces as a *fault.InstrumentError carrying the
// vendor explanation.
package specan

import (
	"context"
	"fmt"
	"slices"
	"strings"
	"time"

	"github.com/ogameasure/ogameasure-go/pkg/catalog"
	"github.com/ogameasure/ogameasure-go/pkg/device"
	"github.com/ogameasure/ogameasure-go/pkg/fault"
	"github.com/ogameasure/ogameasure-go/pkg/scpi"
	"github.com/ogameasure/ogameasure-go/pkg/transport"
)

// Trace numbers accepted by the averaging and trace commands.
const (
	MinTrace = 1
	MaxTrace = 4
)

// Analyzer is a swept spectrum analyzer.
type Analyzer struct {
	*device.Device
}

// New opens an analyzer described by model over t.
func New(ctx context.Context, t transport.Transport, model *catalog.Model, opts ...device.Option) (*Analyzer, error) {
	if err := device.CheckFamily(model, catalog.FamilySpecAn); err != nil {
		return nil, err
	}
	a := &Analyzer{}
	d, err := device.New(ctx, t, model, append(slices.Clip(opts), device.WithCommands(a.commands()...))...)
	if err != nil {
		return nil, err
	}
	a.Device = d
	return a, nil
}

func checkTrace(ch int) error {
	if ch < MinTrace || ch > MaxTrace {
		return fault.Validationf("trace", ch, "must be %d..%d", MinTrace, MaxTrace)
	}
	return nil
}

// setFrequency writes a frequency argument. Tuned frequencies are
// checked against the model's range; spans and bandwidths are not.
func (a *Analyzer) setFrequency(cmd, arg string, v float64, unit string, tuned bool) error {
	hz, err := scpi.ToHz(v, unit)
	if err != nil {
		return err
	}
	if r, ok := a.Model().Limit(catalog.LimitFrequency); ok && tuned {
		if err := r.Check(arg, hz); err != nil {
			return err
		}
	}
	s, err := scpi.FormatFrequency(v, unit)
	if err != nil {
		return err
	}
	return a.WriteChecked(cmd + " " + s)
}

// ErrorQuery reads one entry of the error queue.
func (a *Analyzer) ErrorQuery() (int, string, error) {
	reply, err := a.Query("SYST:ERR?")
	if err != nil {
		return 0, "", err
	}
	return scpi.ParseSystemError(reply)
}

// InstalledOptions returns the SYST:OPT? list.
func (a *Analyzer) InstalledOptions() ([]string, error) {
	return a.QueryFields("SYST:OPT?")
}

// SetCenterFrequency sets the center frequency.
func (a *Analyzer) SetCenterFrequency(v float64, unit string) error {
	return a.setFrequency("FREQ:CENT", "center frequency", v, unit, true)
}

// CenterFrequency returns the center frequency in Hz.
func (a *Analyzer) CenterFrequency() (float64, error) { return a.QueryFloat("FREQ:CENT?") }

// SetStartFrequency sets the start frequency.
func (a *Analyzer) SetStartFrequency(v float64, unit string) error {
	return a.setFrequency("FREQ:STAR", "start frequency", v, unit, true)
}

// StartFrequency returns the start frequency in Hz.
func (a *Analyzer) StartFrequency() (float64, error) { return a.QueryFloat("FREQ:STAR?") }

// SetStopFrequency sets the stop frequency.
func (a *Analyzer) SetStopFrequency(v float64, unit string) error {
	return a.setFrequency("FREQ:STOP", "stop frequency", v, unit, true)
}

// StopFrequency returns the stop frequency in Hz.
func (a *Analyzer) StopFrequency() (float64, error) { return a.QueryFloat("FREQ:STOP?") }

// SetSpan sets the frequency span.
func (a *Analyzer) SetSpan(v float64, unit string) error {
	return a.setFrequency("FREQ:SPAN", "span", v, unit, false)
}

// Span returns the frequency span in Hz.
func (a *Analyzer) Span() (float64, error) { return a.QueryFloat("FREQ:SPAN?") }

// SetReferenceLevel sets the reference level in dBm.
func (a *Analyzer) SetReferenceLevel(dBm float64) error {
	return a.WriteChecked(fmt.Sprintf("DISP:WIND:TRAC:Y:RLEV %f dBm", dBm))
}

// ReferenceLevel returns the reference level in dBm.
func (a *Analyzer) ReferenceLevel() (float64, error) {
	return a.QueryFloat("DISP:WIND:TRAC:Y:RLEV?")
}

// SetAttenuation sets the input attenuation in dB.
func (a *Analyzer) SetAttenuation(dB float64) error {
	return a.WriteChecked(fmt.Sprintf("POW:ATT %f dB", dB))
}

// Attenuation returns the input attenuation in dB.
func (a *Analyzer) Attenuation() (float64, error) { return a.QueryFloat("POW:ATT?") }

// SetAttenuationAuto couples the attenuation to the reference level.
func (a *Analyzer) SetAttenuationAuto(on bool) error {
	return a.WriteChecked("POW:ATT:AUTO " + scpi.FormatBit(on))
}

// AttenuationAuto reports whether attenuation is coupled.
func (a *Analyzer) AttenuationAuto() (bool, error) { return a.queryBool("POW:ATT:AUTO?") }

// SetResolutionBandwidth sets the resolution bandwidth.
func (a *Analyzer) SetResolutionBandwidth(v float64, unit string) error {
	return a.setFrequency("BAND", "resolution bandwidth", v, unit, false)
}

// ResolutionBandwidth returns the resolution bandwidth in Hz.
func (a *Analyzer) ResolutionBandwidth() (float64, error) { return a.QueryFloat("BAND?") }

// SetResolutionBandwidthAuto couples the resolution bandwidth to the span.
func (a *Analyzer) SetResolutionBandwidthAuto(on bool) error {
	return a.WriteChecked("BAND:AUTO " + scpi.FormatBit(on))
}

// ResolutionBandwidthAuto reports whether the resolution bandwidth is coupled.
func (a *Analyzer) ResolutionBandwidthAuto() (bool, error) { return a.queryBool("BAND:AUTO?") }

// SetVideoBandwidth sets the video bandwidth.
func (a *Analyzer) SetVideoBandwidth(v float64, unit string) error {
	return a.setFrequency("BAND:VID", "video bandwidth", v, unit, false)
}

// VideoBandwidth returns the video bandwidth in Hz.
func (a *Analyzer) VideoBandwidth() (float64, error) { return a.QueryFloat("BAND:VID?") }

// SetVideoBandwidthAuto couples the video bandwidth to the resolution bandwidth.
func (a *Analyzer) SetVideoBandwidthAuto(on bool) error {
	return a.WriteChecked("BAND:VID:AUTO " + scpi.FormatBit(on))
}

// VideoBandwidthAuto reports whether the video bandwidth is coupled.
func (a *Analyzer) VideoBandwidthAuto() (bool, error) { return a.queryBool("BAND:VID:AUTO?") }

// SetAverageCount sets the number of sweeps averaged on trace ch.
func (a *Analyzer) SetAverageCount(n, ch int) error {
	if err := checkTrace(ch); err != nil {
		return err
	}
	if n < 1 {
		return fault.Validation("average count", n, "must be positive")
	}
	return a.WriteChecked(fmt.Sprintf("AVER:TRAC%d:COUN %d", ch, n))
}

// AverageCount returns the averaging count of trace ch.
func (a *Analyzer) AverageCount(ch int) (int, error) {
	if err := checkTrace(ch); err != nil {
		return 0, err
	}
	return a.QueryInt(fmt.Sprintf("AVER:TRAC%d:COUN?", ch))
}

// SetAverage switches averaging of trace ch.
func (a *Analyzer) SetAverage(on bool, ch int) error {
	if err := checkTrace(ch); err != nil {
		return err
	}
	return a.WriteChecked(fmt.Sprintf("AVER:TRAC%d %s", ch, scpi.FormatBit(on)))
}

// Average reports whether trace ch is averaged.
func (a *Analyzer) Average(ch int) (bool, error) {
	if err := checkTrace(ch); err != nil {
		return false, err
	}
	return a.queryBool(fmt.Sprintf("AVER:TRAC%d?", ch))
}

// RestartAverage clears the average of trace ch.
func (a *Analyzer) RestartAverage(ch int) error {
	if err := checkTrace(ch); err != nil {
		return err
	}
	return a.WriteChecked(fmt.Sprintf("AVER:TRAC%d:CLE", ch))
}

// SetSweepTime sets the sweep time.
func (a *Analyzer) SetSweepTime(d time.Duration) error {
	return a.WriteChecked(fmt.Sprintf("SWE:TIME %fs", d.Seconds()))
}

// SweepTime returns the sweep time.
func (a *Analyzer) SweepTime() (time.Duration, error) {
	s, err := a.QueryFloat("SWE:TIME?")
	if err != nil {
		return 0, err
	}
	return time.Duration(s * float64(time.Second)), nil
}

// Trace returns the displayed data of trace ch.
func (a *Analyzer) Trace(ch int) ([]float64, error) {
	if err := checkTrace(ch); err != nil {
		return nil, err
	}
	cmd := fmt.Sprintf("TRACE:DATA? TRACE%d", ch)
	reply, err := a.Query(cmd)
	if err != nil {
		return nil, err
	}
	data, err := scpi.ParseFloats(reply)
	if err != nil {
		return nil, fault.Protocol(cmd, err)
	}
	if a.ErrorCheckEnabled() {
		if err := a.CheckErrors(); err != nil {
			return nil, err
		}
	}
	return data, nil
}

// XAxis returns the frequency of every point of trace 1 in Hz.
func (a *Analyzer) XAxis() ([]float64, error) {
	start, err := a.StartFrequency()
	if err != nil {
		return nil, err
	}
	stop, err := a.StopFrequency()
	if err != nil {
		return nil, err
	}
	data, err := a.Trace(1)
	if err != nil {
		return nil, err
	}
	return linspace(start, stop, len(data)), nil
}

func linspace(start, stop float64, n int) []float64 {
	out := make([]float64, n)
	switch n {
	case 0:
	case 1:
		out[0] = start
	default:
		step := (stop - start) / float64(n-1)
		for i := range out {
			out[i] = start + step*float64(i)
		}
		out[n-1] = stop
	}
	return out
}

// SetClock sets the instrument date and time.
func (a *Analyzer) SetClock(t time.Time) error {
	if err := a.WriteChecked(fmt.Sprintf(`SYST:DATE "%s"`, t.Format("20060102"))); err != nil {
		return err
	}
	return a.WriteChecked(fmt.Sprintf(`SYST:TIME "%s"`, t.Format("150405")))
}

// Clock returns the instrument date and time in loc.
func (a *Analyzer) Clock(loc *time.Location) (time.Time, error) {
	date, err := a.Query("SYST:DATE?")
	if err != nil {
		return time.Time{}, err
	}
	clock, err := a.Query("SYST:TIME?")
	if err != nil {
		return time.Time{}, err
	}
	stamp := strings.Trim(date, `"`) + strings.Trim(clock, `"`)
	t, err := time.ParseInLocation("20060102150405", stamp, loc)
	if err != nil {
		return time.Time{}, fault.Protocol("SYST:DATE?/SYST:TIME?", err)
	}
	return t, nil
}

func (a *Analyzer) queryBool(cmd string) (bool, error) {
	reply, err := a.Query(cmd)
	if err != nil {
		return false, err
	}
	v, err := scpi.ParseBool(reply)
	if err != nil {
		return false, fault.Protocol(cmd, err)
	}
	return v, nil
}
