// Package attenuator drives the Agilent 11713B/C attenuator/switch
// drivers.
//
// Channels are addressed with SCPI channel lists such as (@101,102). The
// model record lists which channels a unit has; the 11713B carries one
// bank (101..110), the 11713C two (101..110, 201..210).
package attenuator

import (
	"context"
	"fmt"
	"slices"
	"strings"

	"github.com/ogameasure/ogameasure-go/pkg/catalog"
	"github.com/ogameasure/ogameasure-go/pkg/device"
	"github.com/ogameasure/ogameasure-go/pkg/fault"
	"github.com/ogameasure/ogameasure-go/pkg/scpi"
	"github.com/ogameasure/ogameasure-go/pkg/transport"
)

// Switch is an attenuator/switch driver.
type Switch struct {
	*device.Device
}

// New opens a switch driver described by model over t.
func New(ctx context.Context, t transport.Transport, model *catalog.Model, opts ...device.Option) (*Switch, error) {
	if err := device.CheckFamily(model, catalog.FamilyAttenuator); err != nil {
		return nil, err
	}
	s := &Switch{}
	d, err := device.New(ctx, t, model, append(slices.Clip(opts), device.WithCommands(s.commands()...))...)
	if err != nil {
		return nil, err
	}
	s.Device = d
	return s, nil
}

// channelList validates chs against the model and renders them.
func (s *Switch) channelList(chs []int) (string, error) {
	if len(chs) == 0 {
		return "", fault.Validation("channel list", chs, "empty")
	}
	for _, c := range chs {
		if !s.Model().HasChannel(c) {
			return "", fault.Validationf("channel", c, "not available on %s", s.Model().Product)
		}
	}
	return FormatChannels(chs), nil
}

func (s *Switch) writeChannels(cmd string, chs []int) error {
	list, err := s.channelList(chs)
	if err != nil {
		return err
	}
	return s.Write(cmd + " " + list)
}

func (s *Switch) queryChannels(cmd string, chs []int) ([]int, error) {
	list, err := s.channelList(chs)
	if err != nil {
		return nil, err
	}
	fields, err := s.QueryFields(cmd + " " + list)
	if err != nil {
		return nil, err
	}
	out := make([]int, len(fields))
	for i, f := range fields {
		v, err := scpi.ParseInt(f)
		if err != nil {
			return nil, fault.Protocol(cmd, err)
		}
		out[i] = v
	}
	return out, nil
}

// OpenChannels opens the switching paths of chs.
func (s *Switch) OpenChannels(chs ...int) error { return s.writeChannels(":ROUTe:OPEn", chs) }

// CloseChannels closes the switching paths of chs.
func (s *Switch) CloseChannels(chs ...int) error { return s.writeChannels(":ROUTe:CLOSe", chs) }

// OpenAll opens every switching path.
func (s *Switch) OpenAll() error { return s.Write(":ROUTe:OPEn:ALL") }

// CloseAll closes every switching path.
func (s *Switch) CloseAll() error { return s.Write(":ROUTe:CLOSe:ALL") }

// OpenState returns 1 for each of chs that is open, 0 otherwise.
func (s *Switch) OpenState(chs ...int) ([]int, error) { return s.queryChannels(":ROUTe:OPEn?", chs) }

// CloseState returns 1 for each of chs that is closed, 0 otherwise.
func (s *Switch) CloseState(chs ...int) ([]int, error) {
	return s.queryChannels(":ROUTe:CLOSe?", chs)
}

// SetAttenuatorModel declares the attenuator wired to output X or Y of
// bank.
func (s *Switch) SetAttenuatorModel(model, output string, bank int) error {
	if err := checkBank(bank); err != nil {
		return err
	}
	out, err := checkOutput(output)
	if err != nil {
		return err
	}
	m, err := ParseAttenuatorModel(model)
	if err != nil {
		return err
	}
	return s.Write(fmt.Sprintf(":CONFigure:BANK%d:%s %s", bank, out, m))
}

// AttenuatorModel returns the attenuator declared on output X or Y of bank.
func (s *Switch) AttenuatorModel(output string, bank int) (string, error) {
	if err := checkBank(bank); err != nil {
		return "", err
	}
	out, err := checkOutput(output)
	if err != nil {
		return "", err
	}
	reply, err := s.Query(fmt.Sprintf(":CONFigure:BANK%d:%s?", bank, out))
	if err != nil {
		return "", err
	}
	return scpi.Unquote(reply), nil
}

// SetAttenuation applies level dB on output X or Y of bank. The level is
// checked against the steps of the declared attenuator model.
func (s *Switch) SetAttenuation(level int, output string, bank int) error {
	model, err := s.AttenuatorModel(output, bank)
	if err != nil {
		return err
	}
	levels, err := Levels(model)
	if err != nil {
		return err
	}
	if !slices.Contains(levels, level) {
		return fault.Validationf("attenuation", level, "%s supports %d..%d dB in steps of %d", model, levels[0], levels[len(levels)-1], stepOf(levels))
	}
	out, _ := checkOutput(output)
	return s.Write(fmt.Sprintf("ATTenuator:BANK%d:%s %d", bank, out, level))
}

func stepOf(levels []int) int {
	if len(levels) < 2 {
		return 0
	}
	return levels[1] - levels[0]
}

// Attenuation returns the applied attenuation in dB.
func (s *Switch) Attenuation(output string, bank int) (float64, error) {
	if err := checkBank(bank); err != nil {
		return 0, err
	}
	out, err := checkOutput(output)
	if err != nil {
		return 0, err
	}
	return s.QueryFloat(fmt.Sprintf("ATTenuator:BANK%d:%s?", bank, out))
}

// SetSupplyVoltage selects the supply voltage of bank.
func (s *Switch) SetSupplyVoltage(v Voltage, bank int) error {
	if err := checkBank(bank); err != nil {
		return err
	}
	return s.Write(fmt.Sprintf("CONFigure:BANK%d %s", bank, v))
}

// SupplyVoltage returns the supply voltage setting of bank.
func (s *Switch) SupplyVoltage(bank int) (string, error) {
	if err := checkBank(bank); err != nil {
		return "", err
	}
	return s.Query(fmt.Sprintf("CONFigure:BANK%d?", bank))
}

// SetTTL switches the TTL drive of bank.
func (s *Switch) SetTTL(on bool, bank int) error {
	if err := checkBank(bank); err != nil {
		return err
	}
	return s.Write(fmt.Sprintf("CONFigure:BANK%d:TTL %s", bank, scpi.FormatOnOff(on)))
}

// TTL reports whether the TTL drive of bank is on.
func (s *Switch) TTL(bank int) (bool, error) {
	if err := checkBank(bank); err != nil {
		return false, err
	}
	n, err := s.QueryInt(fmt.Sprintf("CONFigure:BANK%d:TTL?", bank))
	return n == 1, err
}

// RelayCycles returns the switching count of each of chs.
func (s *Switch) RelayCycles(chs ...int) ([]int, error) {
	return s.queryChannels(":DIAGnostic:RELay:CYCles?", chs)
}

// ClearRelayCycles resets the switching count of chs.
func (s *Switch) ClearRelayCycles(chs ...int) error {
	return s.writeChannels(":DIAGnostic:RELay:CLEAr", chs)
}

func channelsArg(args []string) ([]int, error) {
	if len(args) == 0 {
		return nil, fault.Validation("channel list", nil, "argument is required")
	}
	return ParseChannels(strings.Join(args, ","))
}

func (s *Switch) commands() []device.Command {
	chWrite := func(name, token, desc string, f func(...int) error) device.Command {
		return device.Command{Name: name, Token: token, Description: desc, Handler: func(args ...string) (any, error) {
			chs, err := channelsArg(args)
			if err != nil {
				return nil, err
			}
			return nil, f(chs...)
		}}
	}
	chQuery := func(name, token, desc string, f func(...int) ([]int, error)) device.Command {
		return device.Command{Name: name, Token: token, Description: desc, Handler: func(args ...string) (any, error) {
			chs, err := channelsArg(args)
			if err != nil {
				return nil, err
			}
			return f(chs...)
		}}
	}
	bankArg := func(args []string, i int) (int, error) { return device.Args(args).Int(i, "bank", 1) }

	return []device.Command{
		chWrite("OpenChannels", ":ROUTe:OPEn", "Open switching paths", s.OpenChannels),
		chWrite("CloseChannels", ":ROUTe:CLOSe", "Close switching paths", s.CloseChannels),
		{Name: "OpenAll", Token: ":ROUTe:OPEn:ALL", Description: "Open all switching paths", Handler: func(...string) (any, error) {
			return nil, s.OpenAll()
		}},
		{Name: "CloseAll", Token: ":ROUTe:CLOSe:ALL", Description: "Close all switching paths", Handler: func(...string) (any, error) {
			return nil, s.CloseAll()
		}},
		chQuery("OpenState", ":ROUTe:OPEn?", "Query open paths", s.OpenState),
		chQuery("CloseState", ":ROUTe:CLOSe?", "Query closed paths", s.CloseState),
		{Name: "SetAttenuatorModel", Token: ":CONFigure:BANK:X", Description: "Declare attenuator model", Handler: func(args ...string) (any, error) {
			a := device.Args(args)
			bank, err := bankArg(args, 2)
			if err != nil {
				return nil, err
			}
			return nil, s.SetAttenuatorModel(a.String(0, ""), a.String(1, OutputX), bank)
		}},
		{Name: "AttenuatorModel", Token: ":CONFigure:BANK:X?", Description: "Query attenuator model", Handler: func(args ...string) (any, error) {
			bank, err := bankArg(args, 1)
			if err != nil {
				return nil, err
			}
			return s.AttenuatorModel(device.Args(args).String(0, OutputX), bank)
		}},
		{Name: "SetAttenuation", Token: "ATTenuator:BANK:X", Description: "Set attenuation level [dB]", Handler: func(args ...string) (any, error) {
			a := device.Args(args)
			level, err := a.Int(0, "attenuation", -1)
			if err != nil {
				return nil, err
			}
			bank, err := bankArg(args, 2)
			if err != nil {
				return nil, err
			}
			return nil, s.SetAttenuation(level, a.String(1, OutputX), bank)
		}},
		{Name: "Attenuation", Token: "ATTenuator:BANK:X?", Description: "Query attenuation level [dB]", Handler: func(args ...string) (any, error) {
			bank, err := bankArg(args, 1)
			if err != nil {
				return nil, err
			}
			return s.Attenuation(device.Args(args).String(0, OutputX), bank)
		}},
		{Name: "SetSupplyVoltage", Token: "CONFigure:BANK", Description: "Set bank supply voltage", Handler: func(args ...string) (any, error) {
			v, err := ParseVoltage(device.Args(args).String(0, ""))
			if err != nil {
				return nil, err
			}
			bank, err := bankArg(args, 1)
			if err != nil {
				return nil, err
			}
			return nil, s.SetSupplyVoltage(v, bank)
		}},
		{Name: "SupplyVoltage", Token: "CONFigure:BANK?", Description: "Query bank supply voltage", Handler: func(args ...string) (any, error) {
			bank, err := bankArg(args, 0)
			if err != nil {
				return nil, err
			}
			return s.SupplyVoltage(bank)
		}},
		{Name: "SetTTL", Token: "CONFigure:BANK:TTL", Description: "Switch bank TTL drive", Handler: func(args ...string) (any, error) {
			on, err := device.Args(args).Bool(0, "ttl")
			if err != nil {
				return nil, err
			}
			bank, err := bankArg(args, 1)
			if err != nil {
				return nil, err
			}
			return nil, s.SetTTL(on, bank)
		}},
		{Name: "TTLState", Token: "CONFigure:BANK:TTL?", Description: "Query bank TTL drive", Handler: func(args ...string) (any, error) {
			bank, err := bankArg(args, 0)
			if err != nil {
				return nil, err
			}
			return s.TTL(bank)
		}},
		chQuery("RelayCycles", ":DIAGnostic:RELay:CYCles?", "Query relay cycle counts", s.RelayCycles),
		chWrite("ClearRelayCycles", ":DIAGnostic:RELay:CLEAr", "Clear relay cycle counts", s.ClearRelayCycles),
	}
}
