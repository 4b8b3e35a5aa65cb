// Package mcpublish forwards device values read through mc.Client to an
// MQTT broker, for installations that want a live feed of polled values
// without polling the broker's subscribers against the PLC directly.
package mcpublish

import (
	"crypto/tls"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	pahomqtt "github.com/eclipse/paho.mqtt.golang"

	"melsec/mc"
)

// Config describes a single MQTT broker connection.
type Config struct {
	Name      string
	Broker    string
	Port      int
	ClientID  string
	Username  string
	Password  string
	UseTLS    bool
	RootTopic string
}

// ValueMessage is the JSON payload published for each device value.
type ValueMessage struct {
	Device    string      `json:"device"`
	Value     interface{} `json:"value"`
	Type      string      `json:"type"`
	Timestamp string      `json:"timestamp"`
}

// Publisher publishes device values to a single MQTT broker.
type Publisher struct {
	config Config
	mu     sync.RWMutex
	client pahomqtt.Client
	live   bool
}

// New creates a Publisher for cfg. Call Start to connect.
func New(cfg Config) *Publisher {
	return &Publisher{config: cfg}
}

// IsRunning reports whether the publisher is currently connected.
func (p *Publisher) IsRunning() bool {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.live
}

// Start connects to the configured broker.
func (p *Publisher) Start() error {
	p.mu.RLock()
	if p.live {
		p.mu.RUnlock()
		return nil
	}
	p.mu.RUnlock()

	opts := pahomqtt.NewClientOptions()
	if p.config.UseTLS {
		opts.AddBroker(fmt.Sprintf("ssl://%s:%d", p.config.Broker, p.config.Port))
		opts.SetTLSConfig(&tls.Config{MinVersion: tls.VersionTLS12})
	} else {
		opts.AddBroker(fmt.Sprintf("tcp://%s:%d", p.config.Broker, p.config.Port))
	}
	opts.SetClientID(p.config.ClientID)
	if p.config.Username != "" {
		opts.SetUsername(p.config.Username)
		opts.SetPassword(p.config.Password)
	}
	opts.SetAutoReconnect(true)
	opts.SetConnectRetry(true)
	opts.SetConnectRetryInterval(5 * time.Second)

	client := pahomqtt.NewClient(opts)
	token := client.Connect()
	if !token.WaitTimeout(5 * time.Second) {
		return fmt.Errorf("mcpublish: connect to %s:%d timed out", p.config.Broker, p.config.Port)
	}
	if token.Error() != nil {
		return token.Error()
	}

	p.mu.Lock()
	p.client = client
	p.live = true
	p.mu.Unlock()
	return nil
}

// Stop disconnects from the broker. Safe to call more than once.
func (p *Publisher) Stop() {
	p.mu.Lock()
	if !p.live || p.client == nil {
		p.mu.Unlock()
		return
	}
	client := p.client
	p.client = nil
	p.live = false
	p.mu.Unlock()

	client.Disconnect(250)
}

// Publish sends one device value as a retained MQTT message under
// RootTopic/<device>. It is a no-op (returns nil) when not connected, since
// a dropped sample should not interrupt a polling loop.
func (p *Publisher) Publish(addr mc.DeviceAddress, value mc.DeviceValue) error {
	p.mu.RLock()
	client := p.client
	live := p.live
	p.mu.RUnlock()
	if !live || client == nil {
		return nil
	}

	msg := ValueMessage{
		Device:    addr.String(),
		Value:     value.GoValue(),
		Type:      value.Type().String(),
		Timestamp: time.Now().UTC().Format(time.RFC3339),
	}
	payload, err := json.Marshal(msg)
	if err != nil {
		return err
	}

	topic := fmt.Sprintf("%s/%s", p.config.RootTopic, addr.String())
	token := client.Publish(topic, 1, true, payload)
	if !token.WaitTimeout(2 * time.Second) {
		return fmt.Errorf("mcpublish: publish to %s timed out", topic)
	}
	return token.Error()
}
