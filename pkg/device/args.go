package device

import (
	"strconv"
	"strings"

	"github.com/ogameasure/ogameasure-go/pkg/fault"
	"github.com/ogameasure/ogameasure-go/pkg/scpi"
)

// Args reads the textual arguments passed to a dispatch handler.
type Args []string

// Len returns the number of arguments.
func (a Args) Len() int { return len(a) }

// String returns argument i, or def when it is absent.
func (a Args) String(i int, def string) string {
	if i < len(a) && strings.TrimSpace(a[i]) != "" {
		return strings.TrimSpace(a[i])
	}
	return def
}

// Float parses argument i.
func (a Args) Float(i int, name string) (float64, error) {
	if i >= len(a) {
		return 0, fault.Validation(name, nil, "argument is required")
	}
	v, err := scpi.ParseFloat(a[i])
	if err != nil {
		return 0, fault.Validation(name, a[i], "not a number")
	}
	return v, nil
}

// Int parses argument i, or returns def when it is absent.
func (a Args) Int(i int, name string, def int) (int, error) {
	if i >= len(a) || strings.TrimSpace(a[i]) == "" {
		return def, nil
	}
	v, err := strconv.Atoi(strings.TrimSpace(a[i]))
	if err != nil {
		return 0, fault.Validation(name, a[i], "not an integer")
	}
	return v, nil
}

// Bool parses argument i as 1, 0, ON or OFF.
func (a Args) Bool(i int, name string) (bool, error) {
	if i >= len(a) {
		return false, fault.Validation(name, nil, "argument is required")
	}
	v, err := scpi.ParseBool(a[i])
	if err != nil {
		return false, fault.Validation(name, a[i], "want 1, 0, ON or OFF")
	}
	return v, nil
}

// Ints parses every argument from i on as an integer.
func (a Args) Ints(i int, name string) ([]int, error) {
	var out []int
	for ; i < len(a); i++ {
		v, err := a.Int(i, name, 0)
		if err != nil {
			return nil, err
		}
		out = append(out, v)
	}
	return out, nil
}
