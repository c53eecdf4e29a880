package transport

import (
	"context"
	"errors"
	"fmt"
	"os"
	"time"

	pahomqtt "github.com/eclipse/paho.mqtt.golang"
)

const mqttDisconnectQuiesce = 250 // milliseconds

var ErrMQTTConnect = errors.New("transport: mqtt connection failed")

// publisher is the part of pahomqtt.Client the MQTT transport uses.
type publisher interface {
	Publish(topic string, qos byte, retained bool, payload interface{}) pahomqtt.Token
	Disconnect(quiesce uint)
}

// MQTT publishes every batch as one message on a topic, for collectors
// that ingest line protocol from a broker.
type MQTT struct {
	client  publisher
	topic   string
	qos     byte
	timeout time.Duration
}

func NewMQTT(conf Conf) (*MQTT, error) {
	clientID := conf.ClientID
	if clientID == "" {
		host, _ := os.Hostname()
		clientID = fmt.Sprintf("demmon-writer-%s-%d", host, os.Getpid())
	}

	opts := pahomqtt.NewClientOptions().
		AddBroker(conf.Addr).
		SetClientID(clientID).
		SetConnectTimeout(conf.timeout()).
		SetWriteTimeout(conf.timeout()).
		SetAutoReconnect(true)

	if conf.Username != "" {
		opts.SetUsername(conf.Username)
		opts.SetPassword(conf.Password)
	}

	client := pahomqtt.NewClient(opts)

	var connectErr error

	for i := 0; i < conf.dialAttempts(); i++ {
		connectErr = connect(client, conf.timeout())
		if connectErr != nil {
			time.Sleep(conf.DialBackoffTime) // sleep and retry
			continue
		}

		break
	}

	if connectErr != nil {
		return nil, connectErr
	}

	return newMQTT(client, conf), nil
}

func connect(client pahomqtt.Client, timeout time.Duration) error {
	token := client.Connect()
	if !token.WaitTimeout(timeout) {
		return fmt.Errorf("%w: timeout after %v", ErrMQTTConnect, timeout)
	}
	if err := token.Error(); err != nil {
		return fmt.Errorf("%w: %w", ErrMQTTConnect, err)
	}

	return nil
}

func newMQTT(client publisher, conf Conf) *MQTT {
	return &MQTT{
		client:  client,
		topic:   conf.Topic,
		qos:     byte(conf.QoS),
		timeout: conf.timeout(),
	}
}

func (m *MQTT) Send(_ context.Context, payload []byte) error {
	// paho keeps the slice until the packet is written
	body := append([]byte(nil), payload...)

	token := m.client.Publish(m.topic, m.qos, false, body)
	if !token.WaitTimeout(m.timeout) {
		return fmt.Errorf("%w: mqtt publish after %v", ErrTimeout, m.timeout)
	}
	if err := token.Error(); err != nil {
		return fmt.Errorf("transport: mqtt publish: %w", err)
	}

	return nil
}

func (m *MQTT) Close() error {
	m.client.Disconnect(mqttDisconnectQuiesce)
	return nil
}
