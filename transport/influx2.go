package transport

import (
	"context"
	"fmt"

	influxdb2 "github.com/influxdata/influxdb-client-go/v2"
	"github.com/influxdata/influxdb-client-go/v2/api"
)

// Influx2 writes batches to an InfluxDB 2.x bucket. Flux results are not
// JSON, so it does not implement queries.
type Influx2 struct {
	client influxdb2.Client
	write  api.WriteAPIBlocking
}

func NewInflux2(conf Conf) (*Influx2, error) {
	opts := influxdb2.DefaultOptions().
		SetHTTPRequestTimeout(uint(conf.timeout().Seconds()))

	client := influxdb2.NewClientWithOptions(conf.Addr, conf.Token, opts)

	return &Influx2{
		client: client,
		write:  client.WriteAPIBlocking(conf.Org, conf.Bucket),
	}, nil
}

func (i *Influx2) Send(ctx context.Context, payload []byte) error {
	if err := i.write.WriteRecord(ctx, string(payload)); err != nil {
		return fmt.Errorf("transport: influx2 write: %w", err)
	}

	return nil
}

func (i *Influx2) Ping(ctx context.Context) error {
	ok, err := i.client.Ping(ctx)
	if err != nil {
		return err
	}

	if !ok {
		return fmt.Errorf("transport: influx2 server at %s not ready", i.client.ServerURL())
	}

	return nil
}

func (i *Influx2) Close() error {
	i.client.Close()
	return nil
}
