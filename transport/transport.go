// Package transport implements the delivery mechanisms a writer can flush
// batches through: InfluxDB 1.x over UDP, HTTP or a Unix socket, InfluxDB
// 2.x over HTTP, and MQTT.
package transport

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"
)

const (
	KindUDP     = "udp"
	KindHTTP    = "http"
	KindUnix    = "unix"
	KindInflux2 = "influx2"
	KindMQTT    = "mqtt"

	DefaultTimeout = 5 * time.Second
)

var (
	ErrUnknownKind = errors.New("transport: unknown kind")
	ErrMissingAddr = errors.New("transport: address is required")
	ErrTimeout     = errors.New("transport: timed out")
)

type Conf struct {
	Kind            string        `yaml:"kind"`
	Addr            string        `yaml:"addr"` // host:port, URL, socket path or broker URL
	Database        string        `yaml:"database"`
	RetentionPolicy string        `yaml:"retention_policy"`
	Precision       string        `yaml:"precision"` // epoch used for query results, "" for RFC3339
	Username        string        `yaml:"username"`
	Password        string        `yaml:"password"`
	Token           string        `yaml:"token"`
	Org             string        `yaml:"org"`
	Bucket          string        `yaml:"bucket"`
	Topic           string        `yaml:"topic"`
	QoS             int           `yaml:"qos"`
	ClientID        string        `yaml:"client_id"`
	PayloadSize     int           `yaml:"payload_size"`
	Timeout         time.Duration `yaml:"timeout"`

	DialAttempts    int           `yaml:"dial_attempts"`
	DialBackoffTime time.Duration `yaml:"dial_backoff_time"`
}

// Transport is what every implementation in this package provides.
type Transport interface {
	Send(ctx context.Context, payload []byte) error
	Close() error
}

// Pinger is implemented by transports that can check the server is up.
type Pinger interface {
	Ping(ctx context.Context) error
}

// Validate reports every problem with c, joined with "; ".
func (c *Conf) Validate() error {
	var errs []string

	switch c.Kind {
	case KindUDP, KindHTTP, KindUnix, KindInflux2, KindMQTT:
	default:
		errs = append(errs, fmt.Sprintf("kind %q is not one of udp, http, unix, influx2, mqtt", c.Kind))
	}

	if c.Addr == "" {
		errs = append(errs, "addr is required")
	}

	switch c.Kind {
	case KindHTTP, KindUnix:
		if c.Database == "" {
			errs = append(errs, "database is required")
		}
	case KindInflux2:
		if c.Org == "" || c.Bucket == "" {
			errs = append(errs, "org and bucket are required")
		}
	case KindMQTT:
		if c.Topic == "" {
			errs = append(errs, "topic is required")
		}
		if c.QoS < 0 || c.QoS > 2 {
			errs = append(errs, fmt.Sprintf("qos must be 0, 1 or 2, got %d", c.QoS))
		}
	}

	if c.Timeout < 0 {
		errs = append(errs, "timeout must not be negative")
	}

	if c.DialAttempts < 0 || c.DialBackoffTime < 0 {
		errs = append(errs, "dial_attempts and dial_backoff_time must not be negative")
	}

	if len(errs) > 0 {
		return fmt.Errorf("transport: invalid configuration: %s", strings.Join(errs, "; "))
	}

	return nil
}

func (c *Conf) dialAttempts() int {
	if c.DialAttempts <= 0 {
		return 1
	}
	return c.DialAttempts
}

func (c *Conf) timeout() time.Duration {
	if c.Timeout <= 0 {
		return DefaultTimeout
	}
	return c.Timeout
}

// New builds the transport selected by conf.Kind.
func New(conf Conf) (Transport, error) {
	if conf.Addr == "" {
		return nil, ErrMissingAddr
	}

	var (
		t   Transport
		err error
	)

	switch conf.Kind {
	case KindUDP:
		t, err = NewUDP(conf)
	case KindHTTP, KindUnix:
		t, err = NewHTTP(conf)
	case KindInflux2:
		t, err = NewInflux2(conf)
	case KindMQTT:
		t, err = NewMQTT(conf)
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownKind, conf.Kind)
	}

	if err != nil {
		return nil, err
	}

	return t, nil
}
