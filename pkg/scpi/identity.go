package scpi

// Identity is the parsed *IDN? reply.
type Identity struct {
	Manufacturer string
	Model        string
	Serial       string
	Firmware     string
}

// ParseIdentity splits an *IDN? reply. Missing fields are left empty.
func ParseIdentity(reply string) Identity {
	f := Fields(reply)
	var id Identity
	for i, dst := range []*string{&id.Manufacturer, &id.Model, &id.Serial, &id.Firmware} {
		if i < len(f) {
			*dst = f[i]
		}
	}
	return id
}

func (id Identity) String() string {
	return id.Manufacturer + " " + id.Model + " (" + id.Serial + ", " + id.Firmware + ")"
}
