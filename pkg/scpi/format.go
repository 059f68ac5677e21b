package scpi

import (
	"fmt"

	"github.com/ogameasure/ogameasure-go/pkg/fault"
)

// Frequency units accepted by FormatFrequency.
var frequencyUnits = map[string]float64{
	"GHz": 1e9,
	"MHz": 1e6,
	"kHz": 1e3,
	"Hz":  1,
}

// FormatFrequency renders a frequency argument with 10 decimals, e.g.
// "1.0000000000 GHz".
func FormatFrequency(v float64, unit string) (string, error) {
	if _, ok := frequencyUnits[unit]; !ok {
		return "", fault.Validation("frequency unit", unit, "must be GHz, MHz, kHz or Hz")
	}
	return fmt.Sprintf("%.10f %s", v, unit), nil
}

// ToHz converts v in unit to hertz.
func ToHz(v float64, unit string) (float64, error) {
	scale, ok := frequencyUnits[unit]
	if !ok {
		return 0, fault.Validation("frequency unit", unit, "must be GHz, MHz, kHz or Hz")
	}
	return v * scale, nil
}

// FormatOnOff renders ON or OFF.
func FormatOnOff(on bool) string {
	if on {
		return "ON"
	}
	return "OFF"
}

// FormatBit renders 1 or 0.
func FormatBit(on bool) string {
	if on {
		return "1"
	}
	return "0"
}
