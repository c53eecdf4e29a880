package transport

import (
	"context"
	"fmt"
	"time"

	"github.com/influxdata/influxdb1-client/models"
	influxudp "github.com/influxdata/influxdb1-client/v2"
)

// UDP sends batches as InfluxDB 1.x UDP datagrams, splitting them so no
// datagram exceeds the configured payload size. It cannot run queries.
type UDP struct {
	client influxudp.Client
}

func NewUDP(conf Conf) (*UDP, error) {
	client, err := influxudp.NewUDPClient(influxudp.UDPConfig{
		Addr:        conf.Addr,
		PayloadSize: conf.PayloadSize,
	})
	if err != nil {
		return nil, fmt.Errorf("transport: udp: %w", err)
	}

	return &UDP{client: client}, nil
}

// Send re-parses the batch and writes every valid line. Unparseable lines
// are reported after the valid ones are sent.
func (u *UDP) Send(_ context.Context, payload []byte) error {
	points, parseErr := models.ParsePointsWithPrecision(payload, time.Now().UTC(), "n")

	if len(points) > 0 {
		bp, err := influxudp.NewBatchPoints(influxudp.BatchPointsConfig{Precision: "ns"})
		if err != nil {
			return err
		}

		for _, p := range points {
			bp.AddPoint(influxudp.NewPointFrom(p))
		}

		if err := u.client.Write(bp); err != nil {
			return fmt.Errorf("transport: udp write: %w", err)
		}
	}

	if parseErr != nil {
		return fmt.Errorf("transport: udp: dropped malformed lines: %w", parseErr)
	}

	return nil
}

func (u *UDP) Close() error {
	return u.client.Close()
}
