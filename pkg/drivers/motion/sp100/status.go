package sp100

import (
	"fmt"
	"strconv"
)

// Flags is a decoded status word.
type Flags struct {
	// Code is the hex word as received.
	Code string
	// Set names the bits that are set, in bit order.
	Set []string
}

func decodeFlags(code string, names []string, empty string) (Flags, error) {
	v, err := strconv.ParseUint(code, 16, 32)
	if err != nil {
		return Flags{}, err
	}
	f := Flags{Code: code}
	for bit, name := range names {
		if v&(1<<bit) != 0 {
			f.Set = append(f.Set, name)
		}
	}
	if len(f.Set) == 0 && empty != "" {
		f.Set = []string{empty}
	}
	return f, nil
}

var controlBits = []string{"READY", "RUN", "ERROR", "SPO1", "BUSY-1", "BUSY-2", "BUSY-3", "BUSY-4"}

var axisBits = []string{
	"driving",
	"positioning completed",
	"(NA)",
	"(NA)",
	"origin return not completed",
	"(NA)",
	"(NA)",
	"anomalous occurrence",
	"software limit (+)",
	"software limit (-)",
	"limit sensor (+)",
	"limit sensor (-)",
	"(NA)",
	"(NA)",
	"(NA)",
	"alarm",
}

var sensorBits = []string{"+limit", "-limit", "org", "z", "alarm", "in position"}

var errorCodes = map[string]string{
	"00": "no error",
	"02": "driving command error",
	"03": "immediately stopped by emergency",
	"04": "driver error",
	"05": "program execution error",
	"06": "origin return not completed",
	"07": "limit error",
	"08": "mode error",
	"09": "positioning error",
	"10": "command error",
	"11": "data out of range",
	"12": "format error",
	"13": "command out of limit",
	"17": "normal error",
	"20": "flush memory error",
}

// ErrorCode is the controller error register.
type ErrorCode struct {
	Code        string
	Description string
}

func decodeErrorCode(code string) ErrorCode {
	desc, ok := errorCodes[code]
	if !ok {
		desc = "(NA)"
	}
	return ErrorCode{Code: code, Description: desc}
}

// Version is the firmware version and its release date.
type Version struct {
	Version string
	Date    string
}

// Mode is the controller operating mode.
type Mode int

// Operating modes.
const (
	ModeParameter Mode = iota
	ModeManual
	ModePosition
	ModeProgram
	ModeAuto
	ModeRemote
	ModeMonitor
	ModeLoad
	ModeSave
)

var modeNames = []string{"parameter", "manual", "position", "program", "auto", "remote", "monitor", "load", "save"}

func (m Mode) String() string {
	if m >= 0 && int(m) < len(modeNames) {
		return modeNames[m]
	}
	return fmt.Sprintf("mode %d", int(m))
}

// ParseMode accepts a mode name or its digit.
func ParseMode(s string) (Mode, error) {
	for i, name := range modeNames {
		if s == name || s == strconv.Itoa(i) {
			return Mode(i), nil
		}
	}
	return 0, fmt.Errorf("unknown mode %q", s)
}
