package bridge

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ogameasure/ogameasure-go/pkg/fault"
)

const sampleConfig = `
store: readings.db
retention: 720h
broker:
  url: tcp://localhost:1883
  topic_prefix: lab/
  qos: 0
instruments:
  - name: cryo
    model: lakeshore-218
    resource: serial:///dev/ttyUSB0
    polls:
      - schedule: "*/10 * * * * * *"
        command: Kelvin
        args: ["0"]
      - schedule: "@hourly"
        command: Clock
  - name: gauge
    model: pfeiffer-tpg261
    resource: usb:A600XYZ
    polls:
      - schedule: "0 * * * *"
        command: Pressure
`

func TestParseConfig(t *testing.T) {
	cfg, err := ParseConfig([]byte(sampleConfig))
	require.NoError(t, err)

	assert.Equal(t, "readings.db", cfg.Store)
	assert.Equal(t, 720*time.Hour, cfg.Retention)
	assert.Equal(t, "tcp://localhost:1883", cfg.Broker.URL)
	assert.Equal(t, "lab/", cfg.Broker.TopicPrefix)
	assert.Equal(t, byte(0), cfg.Broker.QoS)
	assert.Equal(t, "meas-bridge", cfg.Broker.ClientID)
	assert.Equal(t, 30*time.Second, cfg.Broker.KeepAlive)

	require.Len(t, cfg.Instruments, 2)
	assert.Equal(t, []string{"0"}, cfg.Instruments[0].Polls[0].Args)
	assert.Equal(t, "Pressure", cfg.Instruments[1].Polls[0].Command)
}

func TestLoadConfig(t *testing.T) {
	path := filepath.Join(t.TempDir(), "bridge.yaml")
	require.NoError(t, os.WriteFile(path, []byte(sampleConfig), 0o600))

	cfg, err := LoadConfig(path)
	require.NoError(t, err)
	assert.Len(t, cfg.Instruments, 2)

	_, err = LoadConfig(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.ErrorIs(t, err, fault.ErrConfiguration)
}

func TestConfigValidation(t *testing.T) {
	tests := []struct {
		name string
		yaml string
	}{
		{"no instruments", `instruments: []`},
		{"bad yaml", `instruments: [`},
		{"qos", `
broker: {qos: 3}
instruments: [{name: a, model: m, resource: r, polls: [{schedule: "@hourly", command: X}]}]`},
		{"missing name", `instruments: [{model: m, resource: r, polls: [{schedule: "@hourly", command: X}]}]`},
		{"duplicate", `
instruments:
  - {name: a, model: m, resource: r, polls: [{schedule: "@hourly", command: X}]}
  - {name: a, model: m, resource: r, polls: [{schedule: "@hourly", command: X}]}`},
		{"missing resource", `instruments: [{name: a, model: m, polls: [{schedule: "@hourly", command: X}]}]`},
		{"no polls", `instruments: [{name: a, model: m, resource: r}]`},
		{"bad schedule", `instruments: [{name: a, model: m, resource: r, polls: [{schedule: "every tuesday", command: X}]}]`},
		{"no command", `instruments: [{name: a, model: m, resource: r, polls: [{schedule: "@hourly"}]}]`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ParseConfig([]byte(tt.yaml))
			assert.ErrorIs(t, err, fault.ErrConfiguration)
		})
	}
}

func TestJobNext(t *testing.T) {
	job, err := NewJob("cryo", PollConfig{Schedule: "*/10 * * * * * *", Command: "Kelvin"})
	require.NoError(t, err)

	t0 := time.Date(2026, 3, 1, 12, 0, 3, 0, time.UTC)
	assert.Equal(t, time.Date(2026, 3, 1, 12, 0, 10, 0, time.UTC), job.Next(t0))

	past, err := NewJob("cryo", PollConfig{Schedule: "0 0 0 1 1 * 2020", Command: "Kelvin"})
	require.NoError(t, err)
	assert.True(t, past.Next(t0).IsZero())
}
