package attenuator

import (
	"strings"

	"github.com/ogameasure/ogameasure-go/pkg/fault"
)

// Bank numbers.
const (
	MinBank = 1
	MaxBank = 2
)

func checkBank(bank int) error {
	if bank < MinBank || bank > MaxBank {
		return fault.Validationf("bank", bank, "must be %d or %d", MinBank, MaxBank)
	}
	return nil
}

// Attenuator outputs of a bank.
const (
	OutputX = "X"
	OutputY = "Y"
)

func checkOutput(out string) (string, error) {
	o := strings.ToUpper(strings.TrimSpace(out))
	if o != OutputX && o != OutputY {
		return "", fault.Validation("attenuator output", out, "must be X or Y")
	}
	return o, nil
}

// Voltage is a bank supply voltage setting.
type Voltage string

// Supply voltages.
const (
	VoltageOff  Voltage = "OFF"
	Voltage5    Voltage = "P5v"
	Voltage15   Voltage = "P15v"
	Voltage24   Voltage = "P24v"
	VoltageUser Voltage = "USER"
)

// ParseVoltage accepts OFF, USER, 5, 15, 24 or the P5v forms.
func ParseVoltage(s string) (Voltage, error) {
	v := strings.TrimSpace(s)
	switch strings.ToUpper(v) {
	case "OFF", "0":
		return VoltageOff, nil
	case "USER":
		return VoltageUser, nil
	case "5", "P5", "P5V":
		return Voltage5, nil
	case "15", "P15", "P15V":
		return Voltage15, nil
	case "24", "P24", "P24V":
		return Voltage24, nil
	}
	return "", fault.Validation("supply voltage", s, "must be OFF, 5, 15, 24 or USER")
}

// levelStep is the attenuation range of a model family in dB.
type levelStep struct {
	max, step int
}

// Attenuator models by base part number; the suffix letter names the
// frequency option.
var attenuatorLevels = map[string]levelStep{
	"AG8494":  {11, 1},
	"AG8495":  {70, 10},
	"AG8496":  {110, 10},
	"AG8497":  {90, 10},
	"AG84904": {11, 1},
	"AG84905": {60, 10},
	"AG84906": {90, 10},
	"AG84907": {70, 10},
	"AG84908": {65, 5},
}

// Supported attenuator model identifiers.
var attenuatorModels = map[string]bool{
	"AG8494g": true, "AG8495g": true, "AG8495k": true, "AG8496g": true,
	"AG8497k": true, "AG84904k": true, "AG84905m": true, "AG84906k": true,
	"AG84907k": true, "AG84908m": true,
}

// suffixAlias maps frequency option letters to the identifier the driver
// accepts.
var suffixAlias = map[byte]byte{'h': 'g', 'l': 'k', 'm': 'k'}

// ParseAttenuatorModel normalizes a model such as "8494H" or "AG84904l"
// to the identifier the driver accepts, e.g. "AG8494g".
func ParseAttenuatorModel(s string) (string, error) {
	m := strings.TrimSpace(s)
	if len(m) < 2 {
		return "", fault.Validation("attenuator model", s, "unsupported")
	}
	if !strings.HasPrefix(strings.ToUpper(m), "AG") {
		m = "AG" + m
	}
	m = "AG" + m[2:len(m)-1] + strings.ToLower(m[len(m)-1:])
	if attenuatorModels[m] {
		return m, nil
	}
	if alt, ok := suffixAlias[m[len(m)-1]]; ok {
		aliased := m[:len(m)-1] + string(alt)
		if attenuatorModels[aliased] {
			return aliased, nil
		}
	}
	return "", fault.Validation("attenuator model", s, "unsupported")
}

// baseModel strips the option letter from a model identifier.
func baseModel(m string) string {
	m = strings.ToUpper(strings.TrimSpace(strings.Trim(m, `"`)))
	if n := len(m); n > 0 && m[n-1] >= 'A' && m[n-1] <= 'Z' {
		if _, ok := attenuatorLevels[m[:n-1]]; ok {
			return m[:n-1]
		}
	}
	return m
}

// Levels returns the attenuation steps in dB of an attenuator model.
func Levels(model string) ([]int, error) {
	ls, ok := attenuatorLevels[baseModel(model)]
	if !ok {
		return nil, fault.Validation("attenuator model", model, "no attenuation table")
	}
	var out []int
	for v := 0; v <= ls.max; v += ls.step {
		out = append(out, v)
	}
	return out, nil
}
