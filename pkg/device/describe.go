package device

import (
	"fmt"
	"io"
	"strings"
)

// describeGroup is the number of rows between separator lines.
const describeGroup = 20

// Describe writes a two-column table of command names and descriptions,
// sorted by name.
func (d *Device) Describe(w io.Writer) error {
	entries := d.reg.Entries()

	nameWidth, descWidth := len("method name"), len("description")
	for _, e := range entries {
		nameWidth = max(nameWidth, len(e.Name))
		descWidth = max(descWidth, len(d.desc[e.Name]))
	}

	sep := strings.Repeat("-", nameWidth+1) + " : " + strings.Repeat("-", descWidth) + "\n"
	row := "%-" + fmt.Sprint(nameWidth+1) + "s : %s\n"

	var b strings.Builder
	b.WriteString(sep)
	fmt.Fprintf(&b, row, "method name", "description")
	for i, e := range entries {
		if i%describeGroup == 0 {
			b.WriteString(sep)
		}
		fmt.Fprintf(&b, row, e.Name, d.desc[e.Name])
	}
	b.WriteString(sep)

	_, err := io.WriteString(w, b.String())
	return err
}
