package types

import (
	"fmt"

	lineProto "github.com/influxdata/line-protocol"
)

// Decode parses one or more newline separated lines of line protocol.
// Lines without a timestamp are stamped with the current time.
func Decode(data []byte) ([]*Point, error) {
	parser := lineProto.NewParser(lineProto.NewMetricHandler())

	metrics, err := parser.Parse(data)
	if err != nil {
		return nil, fmt.Errorf("decoding line protocol: %w", err)
	}

	points := make([]*Point, 0, len(metrics))
	for _, m := range metrics {
		points = append(points, NewPointFromMetric(m))
	}

	return points, nil
}

// DecodeString is Decode for a string.
func DecodeString(line string) ([]*Point, error) {
	return Decode([]byte(line))
}
