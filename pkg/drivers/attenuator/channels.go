package attenuator

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/ogameasure/ogameasure-go/pkg/fault"
)

// ParseChannels parses a channel list: "101", "101,102,105", "101:104" or
// the same wrapped in "(@...)".
func ParseChannels(s string) ([]int, error) {
	body := strings.TrimSpace(s)
	body = strings.TrimSuffix(strings.TrimPrefix(body, "(@"), ")")
	if body == "" {
		return nil, fault.Validation("channel list", s, "empty")
	}

	if lo, hi, ok := strings.Cut(body, ":"); ok {
		first, err1 := strconv.Atoi(strings.TrimSpace(lo))
		last, err2 := strconv.Atoi(strings.TrimSpace(hi))
		if err1 != nil || err2 != nil || last < first {
			return nil, fault.Validation("channel list", s, "malformed range")
		}
		out := make([]int, 0, last-first+1)
		for c := first; c <= last; c++ {
			out = append(out, c)
		}
		return out, nil
	}

	var out []int
	for _, f := range strings.Split(body, ",") {
		c, err := strconv.Atoi(strings.TrimSpace(f))
		if err != nil {
			return nil, fault.Validation("channel list", s, "malformed channel "+strconv.Quote(f))
		}
		out = append(out, c)
	}
	return out, nil
}

// FormatChannels renders channels as "(@101,102)".
func FormatChannels(chs []int) string {
	parts := make([]string, len(chs))
	for i, c := range chs {
		parts[i] = fmt.Sprintf("%03d", c)
	}
	return "(@" + strings.Join(parts, ",") + ")"
}
