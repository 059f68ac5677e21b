package transport

// Decode returns b as a string when every byte is 7-bit ASCII. Binary
// payloads are reported with ok false and must be used as raw bytes.
func Decode(b []byte) (s string, ok bool) {
	for _, c := range b {
		if c > 0x7f {
			return "", false
		}
	}
	return string(b), true
}
