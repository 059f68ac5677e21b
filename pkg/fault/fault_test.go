package fault

import (
	"errors"
	"fmt"
	"os"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestErrorMatchesOwnKindOnly(t *testing.T) {
	err := Connection("dial", errors.New("refused"))

	assert.True(t, errors.Is(err, ErrConnection))
	assert.False(t, errors.Is(err, ErrProtocol))
	assert.False(t, errors.Is(err, ErrTimeout))
	assert.Equal(t, "dial: refused", err.Error())
}

func TestTimeoutIsConnectionFault(t *testing.T) {
	err := Timeout("read", os.ErrDeadlineExceeded)

	assert.True(t, errors.Is(err, ErrConnection))
	assert.True(t, errors.Is(err, ErrTimeout))
	assert.True(t, errors.Is(err, os.ErrDeadlineExceeded))
	assert.True(t, IsTimeout(err))
}

func TestTimeoutNilCause(t *testing.T) {
	err := Timeout("read", nil)
	assert.True(t, IsTimeout(err))
}

func TestWrappedFaultKeepsKind(t *testing.T) {
	err := fmt.Errorf("query FREQ?: %w", Configuration("catalog", errors.New("bad")))
	kind, ok := KindOf(err)
	assert.True(t, ok)
	assert.Equal(t, KindConfiguration, kind)
}

func TestKindOfPlainError(t *testing.T) {
	_, ok := KindOf(errors.New("plain"))
	assert.False(t, ok)
}

func TestInstrumentError(t *testing.T) {
	err := &InstrumentError{Code: -222, Message: "Data out of range", Explanation: "clipped", Source: "N9342C"}

	assert.True(t, errors.Is(err, ErrProtocol))
	assert.Equal(t, "N9342C returned error -222: Data out of range (clipped)", err.Error())

	kind, ok := KindOf(fmt.Errorf("wrap: %w", err))
	assert.True(t, ok)
	assert.Equal(t, KindProtocol, kind)
}

func TestRangeError(t *testing.T) {
	err := Validation("bank", 3, "must be 1 or 2")

	var re *RangeError
	assert.True(t, errors.As(err, &re))
	assert.Equal(t, "bank", re.Arg)
	assert.True(t, errors.Is(err, ErrValidation))
	assert.Equal(t, "invalid bank 3: must be 1 or 2", err.Error())
}

func TestChecksumError(t *testing.T) {
	err := Checksum("sp100 read", "3D", "3E")
	assert.True(t, errors.Is(err, ErrChecksum))
	assert.Contains(t, err.Error(), "received 3E, calculated 3D")
}

func TestKindString(t *testing.T) {
	tests := []struct {
		kind Kind
		want string
	}{
		{KindConnection, "CONNECTION"},
		{KindProtocol, "PROTOCOL"},
		{KindChecksum, "CHECKSUM"},
		{KindValidation, "VALIDATION"},
		{KindConfiguration, "CONFIGURATION"},
		{Kind(99), "UNKNOWN"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, tt.kind.String())
	}
}
