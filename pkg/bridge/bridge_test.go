package bridge

import (
	"context"
	"path/filepath"
	"strconv"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ogameasure/ogameasure-go/internal/fakeinst"
	"github.com/ogameasure/ogameasure-go/pkg/catalog"
)

func TestBridgePollsIntoStore(t *testing.T) {
	inst, err := fakeinst.NewInstrument(fakeinst.Script(map[string]string{
		"FREQ?": "2.5000000000E+09",
		"POW?":  "-1.00000000E+01",
	}))
	require.NoError(t, err)
	defer inst.Close()

	resource := "TCPIP::" + inst.Host() + "::" + strconv.Itoa(inst.Port()) + "::SOCKET"
	cfg := Config{
		Store:     filepath.Join(t.TempDir(), "readings.db"),
		Retention: time.Hour,
		Instruments: []InstrumentConfig{{
			Name:     "lo",
			Model:    "agilent-e8247c",
			Resource: resource,
			Polls: []PollConfig{
				{Schedule: "@hourly", Command: "Frequency"},
				{Schedule: "@hourly", Command: "power_query"},
				{Schedule: "@hourly", Command: "NoSuchCommand"},
			},
		}},
	}

	b, err := Open(context.Background(), cfg, Options{Catalog: catalog.Default()})
	require.NoError(t, err)
	defer b.Close()

	_, ok := b.Driver("lo")
	assert.True(t, ok)

	readings := b.Poller().PollAll()
	require.Len(t, readings, 3)
	assert.Equal(t, 2.5e9, readings[0].Value)
	assert.Equal(t, -10.0, readings[1].Value)
	assert.False(t, readings[2].OK())

	r, found, err := b.Store().Latest("lo", "Frequency")
	require.NoError(t, err)
	require.True(t, found)
	assert.Equal(t, 2.5e9, r.Value)

	b.prune(time.Now().Add(2 * time.Hour))
	left, err := b.Store().Range("lo", "", time.Time{}, time.Time{})
	require.NoError(t, err)
	assert.Empty(t, left)
}

func TestBridgeUnknownModel(t *testing.T) {
	cfg := Config{Instruments: []InstrumentConfig{{
		Name: "x", Model: "acme-nothing", Resource: "tcp://127.0.0.1:5025",
		Polls: []PollConfig{{Schedule: "@hourly", Command: "X"}},
	}}}
	_, err := Open(context.Background(), cfg, Options{})
	assert.ErrorContains(t, err, "unknown model")
}

func TestBridgeStoreFailure(t *testing.T) {
	inst, err := fakeinst.NewInstrument(fakeinst.Script(nil))
	require.NoError(t, err)
	defer inst.Close()

	resource := "TCPIP::" + inst.Host() + "::" + strconv.Itoa(inst.Port()) + "::SOCKET"
	cfg := Config{
		Store: filepath.Join(t.TempDir(), "missing-dir", "readings.db"),
		Instruments: []InstrumentConfig{{
			Name: "lo", Model: "agilent-e8247c", Resource: resource,
			Polls: []PollConfig{{Schedule: "@hourly", Command: "Frequency"}},
		}},
	}
	_, err = Open(context.Background(), cfg, Options{})
	assert.ErrorContains(t, err, "open store")
}
