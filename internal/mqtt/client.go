// internal/mqtt/client.go
package mqtt

import (
	"errors"
	"fmt"
	"strconv"
	"sync"
	"time"

	paho "github.com/eclipse/paho.mqtt.golang"
	"github.com/sirupsen/logrus"

	"github.com/tamzrod/dmm-bridge/internal/bridge"
	"github.com/tamzrod/dmm-bridge/internal/config"
	"github.com/tamzrod/dmm-bridge/internal/status"
)

const (
	payloadAlive   = "alive"
	payloadOffline = "offline"
	disconnectMs   = 1000
)

// Submitter accepts commands for the instrument.
type Submitter interface {
	Submit(c bridge.Command) bool
}

// Config is what the MQTT transport needs.
type Config struct {
	Broker         string
	ClientID       string
	Username       string
	Password       string
	TopicPrefix    string
	QoS            byte
	Heartbeat      time.Duration
	ConnectTimeout time.Duration
}

func FromConfig(c config.MQTTConfig) Config {
	return Config{
		Broker:         c.Broker,
		ClientID:       c.ClientID,
		Username:       c.Username,
		Password:       c.Password,
		TopicPrefix:    c.TopicPrefix,
		QoS:            c.QoS,
		Heartbeat:      time.Duration(c.HeartbeatIntervalS) * time.Second,
		ConnectTimeout: time.Duration(c.ConnectTimeoutMs) * time.Millisecond,
	}
}

// Client is the MQTT command source and telemetry sink.
// Status goes out retained; "offline" is also the last will.
type Client struct {
	cfg    Config
	topics Topics
	client paho.Client
	submit Submitter
	log    *logrus.Entry

	stopCh chan struct{}
	wg     sync.WaitGroup

	mu        sync.RWMutex
	connected bool
}

// New prepares a client. Nothing connects until Start.
func New(cfg Config, submit Submitter, log *logrus.Entry) *Client {
	c := newClient(cfg, submit, log)

	opts := paho.NewClientOptions()
	opts.AddBroker(cfg.Broker)
	opts.SetClientID(cfg.ClientID)
	if cfg.Username != "" {
		opts.SetUsername(cfg.Username)
		opts.SetPassword(cfg.Password)
	}
	opts.SetWill(c.topics.Status(), payloadOffline, cfg.QoS, true)
	opts.SetAutoReconnect(true)
	opts.SetConnectRetry(false)
	opts.SetKeepAlive(30 * time.Second)
	opts.SetOnConnectHandler(c.onConnect)
	opts.SetConnectionLostHandler(c.onConnectionLost)

	c.client = paho.NewClient(opts)
	return c
}

func newClient(cfg Config, submit Submitter, log *logrus.Entry) *Client {
	return &Client{
		cfg:    cfg,
		topics: NewTopics(cfg.TopicPrefix),
		submit: submit,
		log:    log,
		stopCh: make(chan struct{}),
	}
}

// Start connects and begins the heartbeat.
func (c *Client) Start() error {
	if c.submit == nil {
		return errors.New("mqtt: submitter required")
	}
	c.log.Infof("connecting to %s", c.cfg.Broker)

	token := c.client.Connect()
	if !token.WaitTimeout(c.cfg.ConnectTimeout) {
		return fmt.Errorf("mqtt: connect to %s timed out", c.cfg.Broker)
	}
	if err := token.Error(); err != nil {
		return fmt.Errorf("mqtt: connect to %s: %w", c.cfg.Broker, err)
	}

	if c.cfg.Heartbeat > 0 {
		c.wg.Add(1)
		go c.heartbeatLoop()
	}
	return nil
}

// Stop ends the heartbeat and disconnects.
func (c *Client) Stop() {
	close(c.stopCh)
	c.wg.Wait()
	if c.client.IsConnected() {
		c.publish(c.topics.Status(), payloadOffline, true)
		c.client.Disconnect(disconnectMs)
	}
	c.log.Info("mqtt stopped")
}

// Connected reports the broker connection state.
func (c *Client) Connected() bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.connected
}

func (c *Client) onConnect(pc paho.Client) {
	c.mu.Lock()
	c.connected = true
	c.mu.Unlock()
	c.log.Infof("connected to %s", c.cfg.Broker)

	filters := make(map[string]byte)
	for _, t := range c.topics.Inbound() {
		filters[t] = c.cfg.QoS
	}
	token := pc.SubscribeMultiple(filters, func(_ paho.Client, m paho.Message) {
		if m.Retained() {
			c.log.Debugf("ignoring retained command on %s", m.Topic())
			return
		}
		c.handle(m.Topic(), m.Payload())
	})
	go func() {
		if token.WaitTimeout(c.cfg.ConnectTimeout) && token.Error() != nil {
			c.log.WithError(token.Error()).Error("subscribe failed")
		}
	}()
}

func (c *Client) onConnectionLost(_ paho.Client, err error) {
	c.mu.Lock()
	c.connected = false
	c.mu.Unlock()
	c.log.WithError(err).Warn("connection lost")
}

func (c *Client) handle(topic string, payload []byte) {
	cmd, ok := c.topics.CommandFor(topic, payload)
	if !ok {
		c.log.Warnf("ignoring message on %s: %q", topic, payload)
		return
	}
	c.log.Debugf("command from %s: %s", topic, cmd)
	c.submit.Submit(cmd)
}

func (c *Client) heartbeatLoop() {
	defer c.wg.Done()

	ticker := time.NewTicker(c.cfg.Heartbeat)
	defer ticker.Stop()

	c.publish(c.topics.Heartbeat(), payloadAlive, false)
	for {
		select {
		case <-c.stopCh:
			return
		case <-ticker.C:
			c.publish(c.topics.Heartbeat(), payloadAlive, false)
		}
	}
}

// ---- sink ----

func (c *Client) PublishValue(v float64) {
	c.publish(c.topics.Value(), strconv.FormatFloat(v, 'g', -1, 64), false)
}

func (c *Client) PublishFunction(label string) {
	c.publish(c.topics.Function(), label, true)
}

func (c *Client) PublishIdentification(idn string) {
	c.publish(c.topics.IDN(), idn, true)
}

func (c *Client) PublishStatus(s status.Snapshot) {
	c.publish(c.topics.Status(), s.String(), true)
}

// publish never waits on the broker. An immediate failure is logged.
func (c *Client) publish(topic, payload string, retained bool) {
	token := c.client.Publish(topic, c.cfg.QoS, retained, payload)
	select {
	case <-token.Done():
		if err := token.Error(); err != nil {
			c.log.WithError(err).Debugf("publish %s failed", topic)
		}
	default:
	}
}
