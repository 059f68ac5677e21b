package instrument

import (
	"context"
	"net"
	"strconv"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ogameasure/ogameasure-go/internal/fakeinst"
	"github.com/ogameasure/ogameasure-go/pkg/catalog"
	"github.com/ogameasure/ogameasure-go/pkg/device"
	"github.com/ogameasure/ogameasure-go/pkg/drivers/siggen"
	"github.com/ogameasure/ogameasure-go/pkg/fault"
	"github.com/ogameasure/ogameasure-go/pkg/log"
	"github.com/ogameasure/ogameasure-go/pkg/transport"
)

type recordingLogger struct {
	mu     sync.Mutex
	events []log.Event
}

func (r *recordingLogger) Log(e log.Event) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, e)
}

func (r *recordingLogger) count() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.events)
}

func TestParseResource(t *testing.T) {
	tests := []struct {
		in   string
		want Resource
	}{
		{"tcp://192.168.1.5:5025", Resource{Medium: MediumTCP, Host: "192.168.1.5", Port: 5025, Address: -1}},
		{"tcp://sg.local", Resource{Medium: MediumTCP, Host: "sg.local", Address: -1}},
		{"TCPIP::10.0.0.2::5025::SOCKET", Resource{Medium: MediumTCP, Host: "10.0.0.2", Port: 5025, Address: -1}},
		{"serial:///dev/ttyUSB0", Resource{Medium: MediumSerial, Path: "/dev/ttyUSB0", Address: -1}},
		{"serial:COM3", Resource{Medium: MediumSerial, Path: "COM3", Address: -1}},
		{"ASRL/dev/ttyS1::INSTR", Resource{Medium: MediumSerial, Path: "/dev/ttyS1", Address: -1}},
		{"usb:A600XYZ", Resource{Medium: MediumUSB, Serial: "A600XYZ", Address: -1}},
		{"gpib://prologix.lan/13", Resource{Medium: MediumGPIB, Host: "prologix.lan", Address: 13}},
		{"gpib://prologix.lan:1235", Resource{Medium: MediumGPIB, Host: "prologix.lan", Port: 1235, Address: -1}},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := ParseResource(tt.in)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestParseResourceErrors(t *testing.T) {
	for _, in := range []string{
		"", "ftp://host", "tcp://", "tcp://h:port", "TCPIP::h::x::SOCKET", "TCPIP::h::5025",
		"ASRL::INSTR", "usb:", "serial:", "gpib://adapter/x",
	} {
		_, err := ParseResource(in)
		assert.ErrorIs(t, err, fault.ErrConfiguration, in)
	}
}

func TestResourceString(t *testing.T) {
	for _, in := range []string{"tcp://h:5025", "tcp://h", "serial:///dev/ttyUSB0", "usb:A6", "gpib://h/13", "gpib://h:1235"} {
		r, err := ParseResource(in)
		require.NoError(t, err)
		back, err := ParseResource(r.String())
		require.NoError(t, err)
		assert.Equal(t, r, back, in)
	}
}

func TestTransportDefaults(t *testing.T) {
	model := catalog.Default().MustLookup("agilent-e8247c")

	r, _ := ParseResource("tcp://10.0.0.2")
	tr, err := r.Transport(model, nil)
	require.NoError(t, err)
	assert.Equal(t, "TCPIP::10.0.0.2::5025::SOCKET", tr.Resource())

	r, _ = ParseResource("gpib://10.0.0.3")
	tr, err = r.Transport(model, nil)
	require.NoError(t, err)
	assert.Equal(t, "GPIB0::19::INSTR", tr.Resource())

	r, _ = ParseResource("gpib://10.0.0.3/7")
	tr, err = r.Transport(model, nil)
	require.NoError(t, err)
	assert.Equal(t, "GPIB0::7::INSTR", tr.Resource())
	assert.Equal(t, transport.MediumGPIB, tr.Medium())

	r, _ = ParseResource("serial:///dev/ttyUSB9")
	tr, err = r.Transport(nil, nil)
	require.NoError(t, err)
	assert.Equal(t, "ASRL/dev/ttyUSB9::INSTR", tr.Resource())

	r, _ = ParseResource("tcp://10.0.0.2")
	_, err = r.Transport(nil, nil)
	assert.ErrorIs(t, err, fault.ErrConfiguration)
}

func TestConstructorFor(t *testing.T) {
	for _, m := range []string{
		catalog.FamilySigGen, catalog.FamilySpecAn, catalog.FamilyAttenuator, catalog.FamilyPowerMeter,
		catalog.FamilyTempMon, catalog.FamilyGauge, catalog.FamilySP100, catalog.FamilyAZD, "",
	} {
		assert.NotNil(t, ConstructorFor(m), m)
	}
}

func TestOpenSigGen(t *testing.T) {
	inst, err := fakeinst.NewInstrument(fakeinst.Script(map[string]string{
		"*IDN?": "Agilent Technologies,E8247C,MY1,C.06",
		"FREQ?": "1.0000000000E+09",
	}))
	require.NoError(t, err)
	defer inst.Close()

	mem := &recordingLogger{}
	resource := "tcp://" + net.JoinHostPort(inst.Host(), strconv.Itoa(inst.Port()))
	d, err := Open(context.Background(), resource, catalog.Default().MustLookup("agilent-e8247c"), Config{Logger: mem})
	require.NoError(t, err)
	defer d.Close()

	g, ok := d.(*siggen.Generator)
	require.True(t, ok)

	f, err := g.Frequency()
	require.NoError(t, err)
	assert.Equal(t, 1e9, f)

	idn, err := d.Call("IDNQ")
	require.NoError(t, err)
	assert.Contains(t, idn, "E8247C")
	assert.NotZero(t, mem.count())
}

func TestOpenGenericModel(t *testing.T) {
	inst, err := fakeinst.NewInstrument(fakeinst.Script(map[string]string{"*IDN?": "ACME,X1,0,1"}))
	require.NoError(t, err)
	defer inst.Close()

	model := &catalog.Model{Key: "acme-x1", Product: "X1", SCPI: "*IDN?"}
	resource := "TCPIP::" + inst.Host() + "::" + strconv.Itoa(inst.Port()) + "::SOCKET"
	d, err := Open(context.Background(), resource, model, Config{})
	require.NoError(t, err)
	defer d.Close()

	_, ok := d.(*device.Device)
	assert.True(t, ok)
}

func TestOpenNilModel(t *testing.T) {
	inst, err := fakeinst.NewInstrument(fakeinst.Script(map[string]string{"*IDN?": "ACME,X1,0,1"}))
	require.NoError(t, err)
	defer inst.Close()

	resource := "tcp://" + inst.Host() + ":" + strconv.Itoa(inst.Port())
	d, err := Open(context.Background(), resource, nil, Config{})
	require.NoError(t, err)
	defer d.Close()

	assert.Equal(t, "generic", d.Model().Key)
	idn, err := d.Call("IDNQ")
	require.NoError(t, err)
	assert.Equal(t, []string{"ACME", "X1", "0", "1"}, idn)
}

func TestOpenFailureClosesTransport(t *testing.T) {
	model := catalog.Default().MustLookup("agilent-e8247c")
	_, err := Open(context.Background(), "tcp://127.0.0.1:1", model, Config{})
	assert.ErrorIs(t, err, fault.ErrConnection)
}
