package bridge

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/ogameasure/ogameasure-go/pkg/fault"
)

// Config describes a bridge.
type Config struct {
	// Store is the bbolt file path. Empty disables the history.
	Store string `yaml:"store,omitempty"`

	// Retention prunes readings older than this. Zero keeps everything.
	Retention time.Duration `yaml:"retention,omitempty"`

	// Broker configures MQTT. An empty URL disables publishing.
	Broker BrokerConfig `yaml:"broker,omitempty"`

	// Catalog is an optional YAML catalog merged over the built-in one.
	Catalog string `yaml:"catalog,omitempty"`

	Instruments []InstrumentConfig `yaml:"instruments"`
}

// BrokerConfig configures the MQTT connection.
type BrokerConfig struct {
	URL         string        `yaml:"url,omitempty"`
	ClientID    string        `yaml:"client_id,omitempty"`
	Username    string        `yaml:"username,omitempty"`
	Password    string        `yaml:"password,omitempty"`
	TopicPrefix string        `yaml:"topic_prefix,omitempty"`
	QoS         byte          `yaml:"qos,omitempty"`
	Retain      bool          `yaml:"retain,omitempty"`
	KeepAlive   time.Duration `yaml:"keep_alive,omitempty"`
	Timeout     time.Duration `yaml:"timeout,omitempty"`
}

// InstrumentConfig is one polled instrument.
type InstrumentConfig struct {
	// Name labels readings and topics.
	Name string `yaml:"name"`
	// Model is the catalog key.
	Model string `yaml:"model"`
	// Resource is an instrument resource string, e.g. tcp://host:5025.
	Resource string       `yaml:"resource"`
	Polls    []PollConfig `yaml:"polls"`
}

// PollConfig is one scheduled command.
type PollConfig struct {
	Schedule string   `yaml:"schedule"`
	Command  string   `yaml:"command"`
	Args     []string `yaml:"args,omitempty"`
}

// DefaultBrokerConfig returns the broker defaults.
func DefaultBrokerConfig() BrokerConfig {
	return BrokerConfig{
		ClientID:    "meas-bridge",
		TopicPrefix: "ogameasure",
		QoS:         1,
		KeepAlive:   30 * time.Second,
		Timeout:     10 * time.Second,
	}
}

// LoadConfig reads a YAML configuration file.
func LoadConfig(path string) (Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Config{}, fault.Configuration("bridge config", err)
	}
	return ParseConfig(data)
}

// ParseConfig decodes a YAML configuration, fills broker defaults and
// validates it.
func ParseConfig(data []byte) (Config, error) {
	cfg := Config{Broker: DefaultBrokerConfig()}
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return Config{}, fault.Configuration("bridge config", err)
	}
	def := DefaultBrokerConfig()
	if cfg.Broker.ClientID == "" {
		cfg.Broker.ClientID = def.ClientID
	}
	if cfg.Broker.TopicPrefix == "" {
		cfg.Broker.TopicPrefix = def.TopicPrefix
	}
	if cfg.Broker.KeepAlive <= 0 {
		cfg.Broker.KeepAlive = def.KeepAlive
	}
	if cfg.Broker.Timeout <= 0 {
		cfg.Broker.Timeout = def.Timeout
	}
	return cfg, cfg.Validate()
}

// Validate checks names, schedules and QoS.
func (c Config) Validate() error {
	if c.Broker.QoS > 2 {
		return fault.Configurationf("bridge config", "qos %d must be 0..2", c.Broker.QoS)
	}
	if len(c.Instruments) == 0 {
		return fault.Configurationf("bridge config", "no instruments")
	}
	seen := make(map[string]bool, len(c.Instruments))
	for i, inst := range c.Instruments {
		where := fmt.Sprintf("instrument %d", i+1)
		switch {
		case inst.Name == "":
			return fault.Configurationf("bridge config", "%s: missing name", where)
		case seen[inst.Name]:
			return fault.Configurationf("bridge config", "%s: duplicate name %q", where, inst.Name)
		case inst.Model == "":
			return fault.Configurationf("bridge config", "%s: missing model", inst.Name)
		case inst.Resource == "":
			return fault.Configurationf("bridge config", "%s: missing resource", inst.Name)
		case len(inst.Polls) == 0:
			return fault.Configurationf("bridge config", "%s: no polls", inst.Name)
		}
		seen[inst.Name] = true
		for _, p := range inst.Polls {
			if _, err := NewJob(inst.Name, p); err != nil {
				return err
			}
		}
	}
	return nil
}
