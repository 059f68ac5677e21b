package transport

import (
	"bufio"
	"bytes"
	"errors"
	"io"
	"net"
	"os"

	"github.com/ogameasure/ogameasure-go/pkg/fault"
)

// lineReader reads terminated lines and raw chunks from a medium. Bytes
// of a line cut short by a timeout are kept and prefixed to the next read,
// so a late reply is not split into two records.
type lineReader struct {
	br      *bufio.Reader
	partial []byte
}

func newLineReader(r io.Reader) *lineReader {
	return &lineReader{br: bufio.NewReader(r)}
}

// readLine reads until term has been seen and returns the bytes before it.
// An empty term reads through DefaultTerminator. On a timeout nothing is
// returned and the bytes read so far are kept; other errors return them.
func (l *lineReader) readLine(term string) ([]byte, error) {
	if term == "" {
		term = DefaultTerminator
	}
	last := term[len(term)-1]
	suffix := []byte(term)

	line := l.partial
	l.partial = nil
	if bytes.HasSuffix(line, suffix) {
		return line[:len(line)-len(suffix)], nil
	}
	for {
		chunk, err := l.br.ReadSlice(last)
		line = append(line, chunk...)
		switch {
		case err == nil:
			if bytes.HasSuffix(line, suffix) {
				return line[:len(line)-len(suffix)], nil
			}
		case errors.Is(err, bufio.ErrBufferFull):
		case isTimeout(err):
			l.partial = line
			return nil, err
		default:
			return line, err
		}
	}
}

// receive reads up to max bytes, draining kept and buffered bytes first.
func (l *lineReader) receive(max int) ([]byte, error) {
	if max <= 0 {
		return []byte{}, nil
	}
	if len(l.partial) > 0 {
		n := min(max, len(l.partial))
		out := append([]byte(nil), l.partial[:n]...)
		l.partial = l.partial[n:]
		if len(l.partial) == 0 {
			l.partial = nil
		}
		return out, nil
	}
	buf := make([]byte, max)
	n, err := l.br.Read(buf)
	return buf[:n], err
}

// pending returns the number of kept bytes.
func (l *lineReader) pending() int { return len(l.partial) }

func isTimeout(err error) bool {
	if fault.IsTimeout(err) || errors.Is(err, os.ErrDeadlineExceeded) {
		return true
	}
	var ne net.Error
	return errors.As(err, &ne) && ne.Timeout()
}

// ioFault classifies a read or write error from the medium.
func ioFault(op string, err error) error {
	if err == nil {
		return nil
	}
	if _, ok := fault.KindOf(err); ok {
		return err
	}
	if isTimeout(err) {
		return fault.Timeout(op, err)
	}
	return fault.Connection(op, err)
}

// lineResult maps the outcome of readLine to the Transport contract.
// A line cut short by a clean close is returned as is; a close with
// nothing read is a connection fault.
func lineResult(op string, line []byte, err error) (string, error) {
	if err == nil {
		return string(line), nil
	}
	if errors.Is(err, io.EOF) && len(line) > 0 {
		return string(line), nil
	}
	return "", ioFault(op, err)
}

// receiveResult maps the outcome of receive to the Transport contract.
// A clean remote close yields an empty result.
func receiveResult(op string, b []byte, err error) ([]byte, error) {
	if err == nil || (errors.Is(err, io.EOF)) {
		if b == nil {
			b = []byte{}
		}
		return b, nil
	}
	if len(b) > 0 {
		return b, nil
	}
	return nil, ioFault(op, err)
}
