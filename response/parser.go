// Package response converts InfluxDB JSON query responses into points.
package response

import (
	"errors"
	"fmt"
	"time"

	"github.com/buger/jsonparser"
	"github.com/nm-morais/demmon-writer/types"
)

const timeColumn = "time"

var (
	ErrMalformed = errors.New("response: malformed query response")
	ErrServer    = errors.New("response: server error")
	ErrBadTime   = errors.New("response: unparseable time value")
)

// Parser is the JSON response parser used by writers by default.
type Parser struct{}

func (Parser) Parse(raw []byte) ([]*types.Point, error) {
	return Parse(raw)
}

// Parse walks results, series and rows, emitting one point per row named
// after its series. The "time" column sets the timestamp and every other
// non-null column becomes a tag. Results without series yield no points.
func Parse(raw []byte) ([]*types.Point, error) {
	if msg, err := jsonparser.GetString(raw, "error"); err == nil {
		return nil, fmt.Errorf("%w: %s", ErrServer, msg)
	}

	var (
		points   []*types.Point
		parseErr error
	)

	_, err := jsonparser.ArrayEach(raw, func(result []byte, dataType jsonparser.ValueType, _ int, _ error) {
		if parseErr != nil {
			return
		}

		if dataType != jsonparser.Object {
			parseErr = fmt.Errorf("%w: result is %s, not an object", ErrMalformed, dataType)
			return
		}

		points, parseErr = parseResult(result, points)
	}, "results")
	if err != nil {
		return nil, fmt.Errorf("%w: results: %s", ErrMalformed, err)
	}

	if parseErr != nil {
		return nil, parseErr
	}

	return points, nil
}

func parseResult(result []byte, points []*types.Point) ([]*types.Point, error) {
	if msg, err := jsonparser.GetString(result, "error"); err == nil {
		return points, fmt.Errorf("%w: %s", ErrServer, msg)
	}

	series, dataType, _, err := jsonparser.Get(result, "series")
	if errors.Is(err, jsonparser.KeyPathNotFoundError) || dataType == jsonparser.Null {
		return points, nil
	}

	if err != nil || dataType != jsonparser.Array {
		return points, fmt.Errorf("%w: series is not an array", ErrMalformed)
	}

	var parseErr error

	_, err = jsonparser.ArrayEach(series, func(s []byte, _ jsonparser.ValueType, _ int, _ error) {
		if parseErr != nil {
			return
		}
		points, parseErr = parseSeries(s, points)
	})
	if err != nil {
		return points, fmt.Errorf("%w: series: %s", ErrMalformed, err)
	}

	return points, parseErr
}

func parseSeries(series []byte, points []*types.Point) ([]*types.Point, error) {
	name, err := jsonparser.GetString(series, "name")
	if err != nil || name == "" {
		return points, fmt.Errorf("%w: series without a name", ErrMalformed)
	}

	var columns []string

	_, err = jsonparser.ArrayEach(series, func(value []byte, dataType jsonparser.ValueType, _ int, _ error) {
		columns = append(columns, text(value, dataType))
	}, "columns")
	if err != nil {
		return points, fmt.Errorf("%w: series %q columns: %s", ErrMalformed, name, err)
	}

	var tags [][2]string

	err = jsonparser.ObjectEach(series, func(key, value []byte, dataType jsonparser.ValueType, _ int) error {
		if dataType != jsonparser.Null {
			tags = append(tags, [2]string{string(key), text(value, dataType)})
		}
		return nil
	}, "tags")
	if err != nil && !errors.Is(err, jsonparser.KeyPathNotFoundError) {
		return points, fmt.Errorf("%w: series %q tags: %s", ErrMalformed, name, err)
	}

	rows, dataType, _, err := jsonparser.Get(series, "values")
	if errors.Is(err, jsonparser.KeyPathNotFoundError) || dataType == jsonparser.Null {
		return points, nil
	}

	if err != nil || dataType != jsonparser.Array {
		return points, fmt.Errorf("%w: series %q values is not an array", ErrMalformed, name)
	}

	var rowErr error

	_, err = jsonparser.ArrayEach(rows, func(row []byte, _ jsonparser.ValueType, _ int, _ error) {
		if rowErr != nil {
			return
		}

		var p *types.Point
		if p, rowErr = parseRow(name, columns, tags, row); rowErr == nil {
			points = append(points, p)
		}
	})
	if err != nil {
		return points, fmt.Errorf("%w: series %q values: %s", ErrMalformed, name, err)
	}

	return points, rowErr
}

func parseRow(name string, columns []string, tags [][2]string, row []byte) (*types.Point, error) {
	p := types.NewPoint(name)
	for _, t := range tags {
		p.AddTag(t[0], t[1])
	}

	var (
		i      int
		rowErr error
	)

	_, err := jsonparser.ArrayEach(row, func(value []byte, dataType jsonparser.ValueType, _ int, _ error) {
		defer func() { i++ }()

		if rowErr != nil || i >= len(columns) || dataType == jsonparser.Null {
			return
		}

		column := columns[i]

		if column == timeColumn {
			ts, err := parseTime(value, dataType)
			if err != nil {
				rowErr = err
				return
			}
			p.SetTimestamp(ts)
			return
		}

		if v := text(value, dataType); v != "null" {
			p.AddTag(column, v)
		}
	})
	if err != nil {
		return nil, fmt.Errorf("%w: series %q row: %s", ErrMalformed, name, err)
	}

	if rowErr != nil {
		return nil, rowErr
	}

	return p, nil
}

// parseTime accepts RFC3339 strings and integer epoch nanoseconds.
func parseTime(value []byte, dataType jsonparser.ValueType) (time.Time, error) {
	switch dataType {
	case jsonparser.String:
		s, err := jsonparser.ParseString(value)
		if err != nil {
			return time.Time{}, fmt.Errorf("%w: %s", ErrBadTime, err)
		}

		ts, err := time.Parse(time.RFC3339Nano, s)
		if err != nil {
			return time.Time{}, fmt.Errorf("%w: %s", ErrBadTime, err)
		}

		return ts, nil
	case jsonparser.Number:
		ns, err := jsonparser.ParseInt(value)
		if err != nil {
			return time.Time{}, fmt.Errorf("%w: %s", ErrBadTime, err)
		}

		return time.Unix(0, ns), nil
	default:
		return time.Time{}, fmt.Errorf("%w: %s value %q", ErrBadTime, dataType, value)
	}
}

func text(value []byte, dataType jsonparser.ValueType) string {
	if dataType == jsonparser.String {
		if s, err := jsonparser.ParseString(value); err == nil {
			return s
		}
	}

	return string(value)
}
