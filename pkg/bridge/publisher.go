package bridge

import (
	"encoding/json"
	"fmt"
	"strings"

	mqtt "github.com/eclipse/paho.mqtt.golang"

	"github.com/ogameasure/ogameasure-go/pkg/fault"
	"github.com/ogameasure/ogameasure-go/pkg/store"
)

// Status payloads.
const (
	StatusOnline  = "online"
	StatusOffline = "offline"
)

// newClient builds the paho client.
var newClient = mqtt.NewClient

// ClientOptions returns paho options for config. The last will marks the
// status topic offline.
func ClientOptions(config BrokerConfig) *mqtt.ClientOptions {
	opts := mqtt.NewClientOptions()
	opts.AddBroker(config.URL)
	opts.SetClientID(config.ClientID)
	opts.SetUsername(config.Username)
	opts.SetPassword(config.Password)
	opts.SetKeepAlive(config.KeepAlive)
	opts.SetConnectTimeout(config.Timeout)
	opts.SetAutoReconnect(true)
	opts.SetWill(StatusTopic(config.TopicPrefix), StatusOffline, config.QoS, true)
	return opts
}

// StatusTopic returns the bridge status topic.
func StatusTopic(prefix string) string {
	return strings.TrimSuffix(prefix, "/") + "/status"
}

var topicEscaper = strings.NewReplacer("+", "_", "#", "_", "/", "_", " ", "_")

// Topic returns the reading topic <prefix>/<instrument>/<command>.
func Topic(prefix string, r store.Reading) string {
	return strings.TrimSuffix(prefix, "/") + "/" + topicEscaper.Replace(r.Instrument) + "/" + topicEscaper.Replace(r.Name)
}

// Publisher sends readings to an MQTT broker.
type Publisher struct {
	client mqtt.Client
	config BrokerConfig
}

// NewPublisher wraps a paho client.
func NewPublisher(client mqtt.Client, config BrokerConfig) *Publisher {
	if config.Timeout <= 0 {
		config.Timeout = DefaultBrokerConfig().Timeout
	}
	return &Publisher{client: client, config: config}
}

// Connect connects to the broker described by config and marks the
// status topic online.
func Connect(config BrokerConfig) (*Publisher, error) {
	p := NewPublisher(newClient(ClientOptions(config)), config)
	if err := p.wait("connect "+config.URL, p.client.Connect()); err != nil {
		return nil, err
	}
	if err := p.publish(StatusTopic(config.TopicPrefix), true, StatusOnline); err != nil {
		p.client.Disconnect(250)
		return nil, err
	}
	return p, nil
}

// Put publishes r as JSON.
func (p *Publisher) Put(r store.Reading) error {
	payload, err := json.Marshal(r)
	if err != nil {
		return fmt.Errorf("encode reading: %w", err)
	}
	return p.publish(Topic(p.config.TopicPrefix, r), p.config.Retain, payload)
}

// Close marks the status topic offline and disconnects.
func (p *Publisher) Close() error {
	err := p.publish(StatusTopic(p.config.TopicPrefix), true, StatusOffline)
	p.client.Disconnect(250)
	return err
}

func (p *Publisher) publish(topic string, retain bool, payload any) error {
	return p.wait("publish "+topic, p.client.Publish(topic, p.config.QoS, retain, payload))
}

func (p *Publisher) wait(op string, token mqtt.Token) error {
	if !token.WaitTimeout(p.config.Timeout) {
		return fault.Timeout(op, nil)
	}
	if err := token.Error(); err != nil {
		return fault.Connection(op, err)
	}
	return nil
}

var _ Sink = (*Publisher)(nil)
