package types

import (
	"fmt"
	"math"
	"time"

	lineProto "github.com/influxdata/line-protocol"
)

// Point is a single measurement sample. Tags and fields keep the order in
// which their keys were first added, so the encoded line is reproducible.
// A Point is not safe for concurrent mutation; once handed to a writer it
// must not be modified.
type Point struct {
	name      string             // e.g. "cpu_usage"
	tags      []*lineProto.Tag   // e.g. {"cpu": "cpu-total", "host": "host1"}
	fields    []*lineProto.Field // e.g. {"idle": 0.1, "busy": 0.9}
	timestamp time.Time
}

// NewPoint returns a Point for the given measurement, timestamped now.
// It panics if measurement is empty.
func NewPoint(measurement string) *Point {
	if measurement == "" {
		panic("types: point measurement must not be empty")
	}

	return &Point{
		name:      measurement,
		timestamp: time.Now(),
	}
}

// NewPointFromMetric copies a line-protocol metric into a Point.
func NewPointFromMetric(m lineProto.Metric) *Point {
	p := NewPoint(m.Name())
	for _, t := range m.TagList() {
		p.AddTag(t.Key, t.Value)
	}

	for _, f := range m.FieldList() {
		p.AddField(f.Key, f.Value)
	}

	return p.SetTimestamp(m.Time())
}

// AddTag sets tag key to value. An existing key keeps its position.
func (p *Point) AddTag(key, value string) *Point {
	for _, t := range p.tags {
		if t.Key == key {
			t.Value = value
			return p
		}
	}

	p.tags = append(p.tags, &lineProto.Tag{Key: key, Value: value})

	return p
}

// AddField sets field key to value. Integer kinds are stored as int64,
// float32 as float64; strings and bools are kept, anything else is stored
// as its fmt.Sprint form.
func (p *Point) AddField(key string, value interface{}) *Point {
	value = normalize(value)

	for _, f := range p.fields {
		if f.Key == key {
			f.Value = value
			return p
		}
	}

	p.fields = append(p.fields, &lineProto.Field{Key: key, Value: value})

	return p
}

// SetTimestamp overrides the point's timestamp.
func (p *Point) SetTimestamp(t time.Time) *Point {
	p.timestamp = t
	return p
}

// HasNoFields reports whether the point would encode to a malformed line.
func (p *Point) HasNoFields() bool {
	return len(p.fields) == 0
}

// Tag returns the value of tag key.
func (p *Point) Tag(key string) (string, bool) {
	for _, t := range p.tags {
		if t.Key == key {
			return t.Value, true
		}
	}

	return "", false
}

// Field returns the value of field key.
func (p *Point) Field(key string) (interface{}, bool) {
	for _, f := range p.fields {
		if f.Key == key {
			return f.Value, true
		}
	}

	return nil, false
}

// TagOrField looks key up among the tags first and then among the fields,
// returning the field in its encoded form. It returns "" when neither exists.
func (p *Point) TagOrField(key string) string {
	if v, ok := p.Tag(key); ok {
		return v
	}

	if v, ok := p.Field(key); ok {
		return FormatValue(v)
	}

	return ""
}

// Name implements lineProto.Metric.
func (p *Point) Name() string {
	return p.name
}

// Time implements lineProto.Metric.
func (p *Point) Time() time.Time {
	return p.timestamp
}

// TagList implements lineProto.Metric. The slice must not be modified.
func (p *Point) TagList() []*lineProto.Tag {
	return p.tags
}

// FieldList implements lineProto.Metric. The slice must not be modified.
func (p *Point) FieldList() []*lineProto.Field {
	return p.fields
}

func (p *Point) String() string {
	return p.ToLineProtocol("")
}

func normalize(value interface{}) interface{} {
	switch v := value.(type) {
	case int64, float64, string, bool:
		return v
	case int:
		return int64(v)
	case int8:
		return int64(v)
	case int16:
		return int64(v)
	case int32:
		return int64(v)
	case uint8:
		return int64(v)
	case uint16:
		return int64(v)
	case uint32:
		return int64(v)
	case uint:
		if uint64(v) > math.MaxInt64 {
			return float64(v)
		}
		return int64(v)
	case uint64:
		if v > math.MaxInt64 {
			return float64(v)
		}
		return int64(v)
	case float32:
		return float64(v)
	case time.Duration:
		return int64(v)
	default:
		return fmt.Sprint(v)
	}
}
