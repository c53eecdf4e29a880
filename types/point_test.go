package types

import (
	"math"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewPointPanicsOnEmptyMeasurement(t *testing.T) {
	assert.Panics(t, func() { NewPoint("") })
}

func TestNewPointDefaultsTimestampToNow(t *testing.T) {
	before := time.Now()
	p := NewPoint("cpu")
	after := time.Now()

	assert.False(t, p.Time().Before(before))
	assert.False(t, p.Time().After(after))
}

func TestAddTagUpsertKeepsPosition(t *testing.T) {
	p := NewPoint("cpu").
		AddTag("host", "a").
		AddTag("region", "eu").
		AddTag("host", "b")

	require.Len(t, p.TagList(), 2)
	assert.Equal(t, "host", p.TagList()[0].Key)
	assert.Equal(t, "b", p.TagList()[0].Value)
	assert.Equal(t, "region", p.TagList()[1].Key)
}

func TestAddFieldNormalizesValues(t *testing.T) {
	tests := []struct {
		name  string
		value interface{}
		want  interface{}
	}{
		{"int", 42, int64(42)},
		{"int32", int32(-7), int64(-7)},
		{"uint8", uint8(200), int64(200)},
		{"uint64 fits", uint64(10), int64(10)},
		{"uint64 overflow", uint64(math.MaxUint64), float64(math.MaxUint64)},
		{"float32", float32(0.5), float64(0.5)},
		{"float64", 1.25, 1.25},
		{"string", "up", "up"},
		{"bool", true, true},
		{"duration", 3 * time.Millisecond, int64(3000000)},
		{"other", []int{1, 2}, "[1 2]"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := NewPoint("m").AddField("v", tt.value)
			got, ok := p.Field("v")
			require.True(t, ok)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestAddFieldUpsert(t *testing.T) {
	p := NewPoint("m").AddField("a", 1).AddField("b", 2).AddField("a", "x")

	require.Len(t, p.FieldList(), 2)
	assert.Equal(t, "a", p.FieldList()[0].Key)
	assert.Equal(t, "x", p.FieldList()[0].Value)
}

func TestHasNoFields(t *testing.T) {
	p := NewPoint("m").AddTag("t", "v")
	assert.True(t, p.HasNoFields())

	p.AddField("f", 1)
	assert.False(t, p.HasNoFields())
}

func TestSetTimestampLastWins(t *testing.T) {
	t1 := time.Unix(10, 0)
	t2 := time.Unix(20, 5)

	p := NewPoint("m").SetTimestamp(t1).SetTimestamp(t2)
	assert.Equal(t, t2, p.Time())
}

func TestTagOrField(t *testing.T) {
	p := NewPoint("m").AddTag("host", "a").AddField("load", 3).AddField("host", "shadowed")

	assert.Equal(t, "a", p.TagOrField("host"))
	assert.Equal(t, "3i", p.TagOrField("load"))
	assert.Equal(t, "", p.TagOrField("missing"))
}
