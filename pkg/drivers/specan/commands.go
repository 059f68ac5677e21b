package specan

import (
	"time"

	"github.com/ogameasure/ogameasure-go/pkg/device"
)

func (a *Analyzer) freqSetter(name, token, desc string, set func(float64, string) error) device.Command {
	return device.Command{Name: name, Token: token, Description: desc, Handler: func(args ...string) (any, error) {
		in := device.Args(args)
		v, err := in.Float(0, "frequency")
		if err != nil {
			return nil, err
		}
		return nil, set(v, in.String(1, "GHz"))
	}}
}

func floatQuery(name, token, desc string, get func() (float64, error)) device.Command {
	return device.Command{Name: name, Token: token, Description: desc, Handler: func(...string) (any, error) {
		return get()
	}}
}

func boolSetter(name, token, desc string, set func(bool) error) device.Command {
	return device.Command{Name: name, Token: token, Description: desc, Handler: func(args ...string) (any, error) {
		on, err := device.Args(args).Bool(0, "state")
		if err != nil {
			return nil, err
		}
		return nil, set(on)
	}}
}

func boolQuery(name, token, desc string, get func() (bool, error)) device.Command {
	return device.Command{Name: name, Token: token, Description: desc, Handler: func(...string) (any, error) {
		return get()
	}}
}

func (a *Analyzer) commands() []device.Command {
	return []device.Command{
		{Name: "ErrorQuery", Token: "SYST:ERR?", Description: "Query error queue", Handler: func(...string) (any, error) {
			code, msg, err := a.ErrorQuery()
			if err != nil {
				return nil, err
			}
			return []any{code, msg}, nil
		}},
		{Name: "InstalledOptions", Token: "SYST:OPT?", Description: "Query installed options", Handler: func(...string) (any, error) {
			return a.InstalledOptions()
		}},
		a.freqSetter("SetCenterFrequency", "FREQ:CENT", "Set center frequency", a.SetCenterFrequency),
		floatQuery("CenterFrequency", "FREQ:CENT?", "Query center frequency [Hz]", a.CenterFrequency),
		a.freqSetter("SetStartFrequency", "FREQ:STAR", "Set start frequency", a.SetStartFrequency),
		floatQuery("StartFrequency", "FREQ:STAR?", "Query start frequency [Hz]", a.StartFrequency),
		a.freqSetter("SetStopFrequency", "FREQ:STOP", "Set stop frequency", a.SetStopFrequency),
		floatQuery("StopFrequency", "FREQ:STOP?", "Query stop frequency [Hz]", a.StopFrequency),
		a.freqSetter("SetSpan", "FREQ:SPAN", "Set frequency span", a.SetSpan),
		floatQuery("Span", "FREQ:SPAN?", "Query frequency span [Hz]", a.Span),
		{Name: "SetReferenceLevel", Token: "DISP:WIND:TRAC:Y:RLEV", Description: "Set reference level [dBm]", Handler: func(args ...string) (any, error) {
			v, err := device.Args(args).Float(0, "reference level")
			if err != nil {
				return nil, err
			}
			return nil, a.SetReferenceLevel(v)
		}},
		floatQuery("ReferenceLevel", "DISP:WIND:TRAC:Y:RLEV?", "Query reference level [dBm]", a.ReferenceLevel),
		{Name: "SetAttenuation", Token: "POW:ATT", Description: "Set input attenuation [dB]", Handler: func(args ...string) (any, error) {
			v, err := device.Args(args).Float(0, "attenuation")
			if err != nil {
				return nil, err
			}
			return nil, a.SetAttenuation(v)
		}},
		floatQuery("Attenuation", "POW:ATT?", "Query input attenuation [dB]", a.Attenuation),
		boolSetter("SetAttenuationAuto", "POW:ATT:AUTO", "Couple attenuation", a.SetAttenuationAuto),
		boolQuery("AttenuationAuto", "POW:ATT:AUTO?", "Query attenuation coupling", a.AttenuationAuto),
		a.freqSetter("SetResolutionBandwidth", "BAND", "Set resolution bandwidth", a.SetResolutionBandwidth),
		floatQuery("ResolutionBandwidth", "BAND?", "Query resolution bandwidth [Hz]", a.ResolutionBandwidth),
		boolSetter("SetResolutionBandwidthAuto", "BAND:AUTO", "Couple resolution bandwidth", a.SetResolutionBandwidthAuto),
		boolQuery("ResolutionBandwidthAuto", "BAND:AUTO?", "Query resolution bandwidth coupling", a.ResolutionBandwidthAuto),
		a.freqSetter("SetVideoBandwidth", "BAND:VID", "Set video bandwidth", a.SetVideoBandwidth),
		floatQuery("VideoBandwidth", "BAND:VID?", "Query video bandwidth [Hz]", a.VideoBandwidth),
		boolSetter("SetVideoBandwidthAuto", "BAND:VID:AUTO", "Couple video bandwidth", a.SetVideoBandwidthAuto),
		boolQuery("VideoBandwidthAuto", "BAND:VID:AUTO?", "Query video bandwidth coupling", a.VideoBandwidthAuto),
		{Name: "SetAverageCount", Token: "AVER:COUN", Description: "Set averaging count", Handler: func(args ...string) (any, error) {
			in := device.Args(args)
			n, err := in.Int(0, "average count", 0)
			if err != nil {
				return nil, err
			}
			ch, err := in.Int(1, "trace", 1)
			if err != nil {
				return nil, err
			}
			return nil, a.SetAverageCount(n, ch)
		}},
		{Name: "AverageCount", Token: "AVER:COUN?", Description: "Query averaging count", Handler: func(args ...string) (any, error) {
			ch, err := device.Args(args).Int(0, "trace", 1)
			if err != nil {
				return nil, err
			}
			return a.AverageCount(ch)
		}},
		{Name: "SetAverage", Token: "AVER", Description: "Switch trace averaging", Handler: func(args ...string) (any, error) {
			in := device.Args(args)
			on, err := in.Bool(0, "average")
			if err != nil {
				return nil, err
			}
			ch, err := in.Int(1, "trace", 1)
			if err != nil {
				return nil, err
			}
			return nil, a.SetAverage(on, ch)
		}},
		{Name: "Average", Token: "AVER?", Description: "Query trace averaging", Handler: func(args ...string) (any, error) {
			ch, err := device.Args(args).Int(0, "trace", 1)
			if err != nil {
				return nil, err
			}
			return a.Average(ch)
		}},
		{Name: "RestartAverage", Token: "AVER:CLE", Description: "Restart trace averaging", Handler: func(args ...string) (any, error) {
			ch, err := device.Args(args).Int(0, "trace", 1)
			if err != nil {
				return nil, err
			}
			return nil, a.RestartAverage(ch)
		}},
		{Name: "SetSweepTime", Token: "SWE:TIME", Description: "Set sweep time [s]", Handler: func(args ...string) (any, error) {
			s, err := device.Args(args).Float(0, "sweep time")
			if err != nil {
				return nil, err
			}
			return nil, a.SetSweepTime(time.Duration(s * float64(time.Second)))
		}},
		{Name: "SweepTime", Token: "SWE:TIME?", Description: "Query sweep time", Handler: func(...string) (any, error) {
			return a.SweepTime()
		}},
		{Name: "Trace", Token: "TRACE:DATA?", Description: "Query trace data", Handler: func(args ...string) (any, error) {
			ch, err := device.Args(args).Int(0, "trace", 1)
			if err != nil {
				return nil, err
			}
			return a.Trace(ch)
		}},
		{Name: "XAxis", Description: "Frequencies of the trace points [Hz]", Handler: func(...string) (any, error) {
			return a.XAxis()
		}},
	}
}
