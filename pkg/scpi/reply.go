package scpi

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/ogameasure/ogameasure-go/pkg/fault"
)

// Fields splits a reply on commas outside double quotes, trims each field
// and removes its quotes.
func Fields(reply string) []string {
	reply = strings.TrimSpace(reply)
	if reply == "" {
		return nil
	}

	var (
		fields []string
		b      strings.Builder
		quoted bool
	)
	for _, r := range reply {
		switch {
		case r == '"':
			quoted = !quoted
			b.WriteRune(r)
		case r == ',' && !quoted:
			fields = append(fields, Unquote(strings.TrimSpace(b.String())))
			b.Reset()
		default:
			b.WriteRune(r)
		}
	}
	fields = append(fields, Unquote(strings.TrimSpace(b.String())))
	return fields
}

// Field returns field i of reply.
func Field(reply string, i int) (string, error) {
	f := Fields(reply)
	if i < 0 || i >= len(f) {
		return "", fault.Protocol("parse reply", fmt.Errorf("field %d of %q: reply has %d fields", i, reply, len(f)))
	}
	return f[i], nil
}

// Unquote strips one pair of surrounding double quotes.
func Unquote(s string) string {
	if len(s) >= 2 && s[0] == '"' && s[len(s)-1] == '"' {
		return s[1 : len(s)-1]
	}
	return s
}

// ParseInt parses an integer reply. Instruments sometimes answer integer
// queries in float notation ("+1.00000000E+000"), which is accepted when
// the value is integral.
func ParseInt(s string) (int, error) {
	s = strings.TrimSpace(s)
	n, err := strconv.Atoi(strings.TrimPrefix(s, "+"))
	if err == nil {
		return n, nil
	}
	f, ferr := strconv.ParseFloat(s, 64)
	if ferr != nil || f != float64(int(f)) {
		return 0, err
	}
	return int(f), nil
}

// ParseFloat parses a float reply.
func ParseFloat(s string) (float64, error) {
	return strconv.ParseFloat(strings.TrimSpace(s), 64)
}

// ParseFloats parses every field of a reply as a float.
func ParseFloats(reply string) ([]float64, error) {
	fields := Fields(reply)
	out := make([]float64, len(fields))
	for i, f := range fields {
		v, err := ParseFloat(f)
		if err != nil {
			return nil, err
		}
		out[i] = v
	}
	return out, nil
}

// ParseBool parses 1, 0, ON or OFF.
func ParseBool(s string) (bool, error) {
	switch strings.ToUpper(strings.TrimSpace(s)) {
	case "1", "ON":
		return true, nil
	case "0", "OFF":
		return false, nil
	default:
		return strconv.ParseBool(s)
	}
}
