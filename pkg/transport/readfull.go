package transport

import (
	"io"

	"github.com/ogameasure/ogameasure-go/pkg/fault"
)

// ReadFull reads exactly n raw bytes from t. A link that closes early is
// a connection fault.
func ReadFull(t Transport, n int) ([]byte, error) {
	out := make([]byte, 0, n)
	for len(out) < n {
		b, err := t.Receive(n - len(out))
		if err != nil {
			return out, err
		}
		if len(b) == 0 {
			return out, fault.Connection("read "+t.Resource(), io.ErrUnexpectedEOF)
		}
		out = append(out, b...)
	}
	return out, nil
}
