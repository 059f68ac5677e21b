package console

import (
	"bytes"
	"context"
	"fmt"
	"strconv"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ogameasure/ogameasure-go/internal/fakeinst"
	"github.com/ogameasure/ogameasure-go/pkg/instrument"
)

var replies = map[string]string{
	"*IDN?": "ACME,X1,SN42,1.0",
	"FREQ?": "+1.00000E+09",
	"*OPC?": "1",
}

func newShell(t *testing.T) (*Shell, *bytes.Buffer, *fakeinst.Instrument) {
	t.Helper()
	inst, err := fakeinst.NewInstrument(fakeinst.Script(replies))
	require.NoError(t, err)
	t.Cleanup(func() { inst.Close() })

	resource := "tcp://" + inst.Host() + ":" + strconv.Itoa(inst.Port())
	drv, err := instrument.Open(context.Background(), resource, nil, instrument.Config{})
	require.NoError(t, err)
	t.Cleanup(func() { drv.Close() })

	var out bytes.Buffer
	return NewShell(drv, &out), &out, inst
}

func TestShellQuery(t *testing.T) {
	sh, out, _ := newShell(t)

	assert.False(t, sh.Execute("query FREQ?"))
	assert.Equal(t, "+1.00000E+09\n", out.String())
}

func TestShellRawLines(t *testing.T) {
	sh, out, inst := newShell(t)

	sh.Execute("*IDN?")
	assert.Equal(t, "ACME,X1,SN42,1.0\n", out.String())

	sh.Execute("FREQ 2GHZ")
	assert.Eventually(t, func() bool {
		return assert.ObjectsAreEqual([]string{"*IDN?", "FREQ 2GHZ"}, inst.Received())
	}, time.Second, 10*time.Millisecond)
}

func TestShellWriteThenRead(t *testing.T) {
	sh, out, _ := newShell(t)

	sh.Execute("write *OPC?")
	sh.Execute("read")
	assert.Equal(t, "1\n", out.String())
}

func TestShellCall(t *testing.T) {
	sh, out, _ := newShell(t)

	sh.Execute("call IDNQ")
	assert.Equal(t, "ACME, X1, SN42, 1.0\n", out.String())

	out.Reset()
	sh.Execute("call NoSuchCommand")
	assert.Contains(t, out.String(), "Error:")
}

func TestShellList(t *testing.T) {
	sh, out, _ := newShell(t)

	sh.Execute("list idn")
	assert.Contains(t, out.String(), "IdentificationQuery")
	assert.Contains(t, out.String(), "*IDN?")
	assert.NotContains(t, out.String(), "*RST")
}

func TestShellInfo(t *testing.T) {
	sh, out, _ := newShell(t)

	sh.Execute("info")
	assert.Contains(t, out.String(), "Model:      generic\n")
	assert.Contains(t, out.String(), "Medium:     tcp")
	assert.Contains(t, out.String(), "State:      OPEN")
	assert.Contains(t, out.String(), "Connection: ")
}

func TestShellTerm(t *testing.T) {
	sh, out, _ := newShell(t)

	sh.Execute("term crlf")
	sh.Execute("term")
	assert.Equal(t, "Terminator: \"\\r\\n\"\n", out.String())

	out.Reset()
	sh.Execute("term nul")
	assert.Contains(t, out.String(), "Usage: term")
}

func TestShellAddrNeedsGPIB(t *testing.T) {
	sh, out, _ := newShell(t)

	sh.Execute("addr 5")
	assert.Equal(t, "Error: not a GPIB link\n", out.String())
}

func TestShellAddrOverAdapter(t *testing.T) {
	adapter, err := fakeinst.NewAdapter()
	require.NoError(t, err)
	defer adapter.Close()
	adapter.Attach(5, fakeinst.Script(map[string]string{"*IDN?": "ACME,G5,0,1"}))
	adapter.Attach(7, fakeinst.Script(map[string]string{"*IDN?": "ACME,G7,0,1"}))

	resource := fmt.Sprintf("gpib://%s:%d/5", adapter.Host(), adapter.Port())
	drv, err := instrument.Open(context.Background(), resource, nil, instrument.Config{})
	require.NoError(t, err)
	defer drv.Close()

	var out bytes.Buffer
	sh := NewShell(drv, &out)

	sh.Execute("addr")
	sh.Execute("*IDN?")
	sh.Execute("addr 7")
	sh.Execute("*IDN?")
	assert.Equal(t, "Address: 5\nACME,G5,0,1\nAddress: 7\nACME,G7,0,1\n", out.String())
}

func TestShellUsage(t *testing.T) {
	sh, out, _ := newShell(t)

	for _, line := range []string{"write", "query", "call", "addr x"} {
		sh.Execute(line)
	}
	assert.Contains(t, out.String(), "Usage: write <line>")
	assert.Contains(t, out.String(), "Usage: query <line>")
	assert.Contains(t, out.String(), "Usage: call <name>")
	assert.Contains(t, out.String(), "Error: not a GPIB link")
}

func TestShellQuit(t *testing.T) {
	sh, _, _ := newShell(t)

	assert.False(t, sh.Execute(""))
	assert.False(t, sh.Execute("help"))
	assert.True(t, sh.Execute("quit"))
	assert.True(t, sh.Execute("EXIT"))
}

type level int

func (l level) String() string { return fmt.Sprintf("level %d", int(l)) }

func TestFormatResult(t *testing.T) {
	tests := []struct {
		in   any
		want string
	}{
		{nil, "OK"},
		{"text", "text"},
		{[]string{"a", "b"}, "a, b"},
		{1.5e9, "1.5e+09"},
		{level(3), "level 3"},
		{42, "42"},
		{struct{ A int }{1}, "{A:1}"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, FormatResult(tt.in))
	}
}
