package catalog

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.bug.st/serial"

	"github.com/ogameasure/ogameasure-go/pkg/dispatch"
	"github.com/ogameasure/ogameasure-go/pkg/fault"
	"github.com/ogameasure/ogameasure-go/pkg/scpi"
)

func TestDefaultCatalog(t *testing.T) {
	c := Default()
	require.NotNil(t, c)
	assert.Same(t, c, Default())

	for _, key := range []string{
		"agilent-e8247c", "agilent-e8257d", "anritsu-mg3692c",
		"agilent-n9342c", "agilent-n9343c", "agilent-n9344c",
		"agilent-11713b", "agilent-11713c", "anritsu-ml2437a",
		"lakeshore-218", "pfeiffer-tpg261", "cosmotechs-sp100",
		"orientalmotor-azd-ad",
	} {
		_, ok := c.Lookup(key)
		assert.True(t, ok, key)
	}
	assert.Equal(t, 13, c.Len())
}

func TestDefaultAllowListsAreValid(t *testing.T) {
	for _, key := range Default().Keys() {
		m, _ := Default().Lookup(key)
		_, err := dispatch.Select(scpi.Vocabulary(), m.SCPI)
		assert.NoError(t, err, key)
	}
}

func TestDefaultErrorTablesExist(t *testing.T) {
	for _, key := range Default().Keys() {
		m, _ := Default().Lookup(key)
		if m.ErrorTable == "" {
			continue
		}
		_, err := scpi.BuiltinErrorTable(m.ErrorTable)
		assert.NoError(t, err, key)
	}
}

func TestLookupIsCaseInsensitiveAndCopies(t *testing.T) {
	m, ok := Default().Lookup("Agilent-N9342C")
	require.True(t, ok)
	assert.Equal(t, "N9342C", m.Product)
	assert.Equal(t, FamilySpecAn, m.Family)
	assert.Equal(t, "agilent_n934x", m.ErrorTable)

	m.Limits[LimitFrequency] = Range{Min: 0, Max: 1}
	again, _ := Default().Lookup("agilent-n9342c")
	assert.Equal(t, 7e9, again.Limits[LimitFrequency].Max)
}

func TestByFamily(t *testing.T) {
	models := Default().ByFamily(FamilySpecAn)
	require.Len(t, models, 3)
	assert.Equal(t, "agilent-n9342c", models[0].Key)
	assert.Equal(t, "agilent-n9344c", models[2].Key)

	assert.Empty(t, Default().ByFamily("oscilloscope"))
}

func TestLakeshoreSerialDefaults(t *testing.T) {
	m := Default().MustLookup("lakeshore-218")

	cfg, err := m.SerialConfig("/dev/ttyUSB0")
	require.NoError(t, err)
	assert.Equal(t, 9600, cfg.Baud)
	assert.Equal(t, 7, cfg.DataBits)
	assert.Equal(t, serial.OddParity, cfg.Parity)
	assert.Equal(t, serial.OneStopBit, cfg.StopBits)
	assert.Equal(t, "\r\n", cfg.Terminator)
	assert.Equal(t, 3*time.Second, cfg.ReadTimeout)
}

func TestTCPAndPrologixDefaults(t *testing.T) {
	m := Default().MustLookup("agilent-e8247c")

	tcp := m.TCPConfig("10.0.0.5", 0)
	assert.Equal(t, 5025, tcp.Port)
	assert.Equal(t, 3*time.Second, tcp.Timeout)

	tcp = m.TCPConfig("10.0.0.5", 5024)
	assert.Equal(t, 5024, tcp.Port)

	assert.Equal(t, 19, m.PrologixConfig().Address)
}

func TestRange(t *testing.T) {
	m := Default().MustLookup("anritsu-mg3692c")
	r, ok := m.Limit(LimitPower)
	require.True(t, ok)

	assert.NoError(t, r.Check("power", -20))
	assert.NoError(t, r.Check("power", 30))
	err := r.Check("power", 31)
	assert.ErrorIs(t, err, fault.ErrValidation)
	assert.Contains(t, err.Error(), "-20..30 dBm")

	assert.Equal(t, "FREQ:CW", m.Option("frequency_command", "FREQ"))
	assert.Equal(t, "FREQ", Default().MustLookup("agilent-e8247c").Option("frequency_command", "FREQ"))
}

func TestHasChannel(t *testing.T) {
	b := Default().MustLookup("agilent-11713b")
	c := Default().MustLookup("agilent-11713c")

	assert.True(t, b.HasChannel(110))
	assert.False(t, b.HasChannel(201))
	assert.True(t, c.HasChannel(201))
	assert.True(t, (&Model{}).HasChannel(42))
}

func TestLoadRejectsBadInput(t *testing.T) {
	tests := []struct {
		name string
		yaml string
	}{
		{"unknown field", "models:\n  - key: a\n    family: siggen\n    colour: red\n"},
		{"duplicate key", "models:\n  - key: a\n    family: siggen\n  - key: A\n    family: specan\n"},
		{"missing key", "models:\n  - family: siggen\n"},
		{"missing family", "models:\n  - key: a\n"},
		{"bad gpib address", "models:\n  - key: a\n    family: siggen\n    transport:\n      gpib_address: 31\n"},
		{"malformed", "models: [\n"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Load(strings.NewReader(tt.yaml))
			assert.ErrorIs(t, err, fault.ErrConfiguration)
		})
	}
}

func TestLoadEmpty(t *testing.T) {
	c, err := Load(strings.NewReader(""))
	require.NoError(t, err)
	assert.Equal(t, 0, c.Len())
}

func TestLoadFileAndMerge(t *testing.T) {
	path := filepath.Join(t.TempDir(), "lab.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
models:
  - key: agilent-e8247c
    manufacturer: Agilent
    product: E8247C
    family: siggen
    scpi: "*IDN?"
    transport:
      gpib_address: 7
  - key: lab-synth
    product: Synth
    family: siggen
`), 0o644))

	user, err := LoadFile(path)
	require.NoError(t, err)

	merged := Default().Merge(user)
	assert.Equal(t, Default().Len()+1, merged.Len())

	m := merged.MustLookup("agilent-e8247c")
	assert.Equal(t, "*IDN?", m.SCPI)
	assert.Equal(t, 7, *m.Transport.GPIBAddress)

	orig := Default().MustLookup("agilent-e8247c")
	assert.Equal(t, 19, *orig.Transport.GPIBAddress)

	_, err = LoadFile(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.ErrorIs(t, err, fault.ErrConfiguration)
}
