package transport

import (
	"context"
	"encoding/json"
	"fmt"
	"net/url"

	influx "github.com/influxdata/influxdb1-client"
)

const unixSocketURL = "http://127.0.0.1"

// HTTP writes to and queries an InfluxDB 1.x server over HTTP or, for
// KindUnix, over HTTP on a Unix domain socket.
type HTTP struct {
	client          *influx.Client
	database        string
	retentionPolicy string
}

func NewHTTP(conf Conf) (*HTTP, error) {
	cfg := influx.NewConfig()
	cfg.Username = conf.Username
	cfg.Password = conf.Password
	cfg.Timeout = conf.timeout()
	cfg.Precision = conf.Precision
	cfg.UserAgent = "demmon-writer"

	addr := conf.Addr
	if conf.Kind == KindUnix {
		cfg.UnixSocket = conf.Addr
		addr = unixSocketURL
	}

	u, err := url.Parse(addr)
	if err != nil {
		return nil, fmt.Errorf("transport: parsing address %q: %w", addr, err)
	}
	cfg.URL = *u

	client, err := influx.NewClient(cfg)
	if err != nil {
		return nil, err
	}

	return &HTTP{
		client:          client,
		database:        conf.Database,
		retentionPolicy: conf.RetentionPolicy,
	}, nil
}

// Send posts the batch to /write. The client applies its own timeout; ctx
// is not consulted.
func (h *HTTP) Send(_ context.Context, payload []byte) error {
	if _, err := h.client.WriteLineProtocol(string(payload), h.database, h.retentionPolicy, "", ""); err != nil {
		return fmt.Errorf("transport: http write: %w", err)
	}

	return nil
}

// Query runs an InfluxQL query and returns the response re-encoded as JSON.
func (h *HTTP) Query(ctx context.Context, query string) ([]byte, error) {
	resp, err := h.client.QueryContext(ctx, influx.Query{
		Command:         query,
		Database:        h.database,
		RetentionPolicy: h.retentionPolicy,
	})
	if err != nil {
		return nil, fmt.Errorf("transport: http query: %w", err)
	}

	return json.Marshal(resp)
}

func (h *HTTP) Ping(_ context.Context) error {
	_, _, err := h.client.Ping()
	return err
}

func (h *HTTP) Close() error {
	return nil
}
