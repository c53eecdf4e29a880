package writer

import (
	"sort"
	"time"

	kitgeneric "github.com/go-kit/kit/metrics/generic"
	"github.com/nm-morais/demmon-writer/internal/generic"
	"github.com/nm-morais/demmon-writer/types"
)

const statsPrefix = "demmon_writer_"

var (
	batchLinesBounds    = []float64{1, 10, 100, 1000, 10000}
	flushDurationBounds = []float64{0.001, 0.01, 0.1, 1, 10}
)

// Stats keeps a writer's instruments in memory so they can be exported as
// points, usually back through the same writer.
type Stats struct {
	tags map[string]string

	enqueued     *kitgeneric.Counter
	dropped      *kitgeneric.Counter
	flushed      *kitgeneric.Counter
	batches      *kitgeneric.Counter
	sendFailures *kitgeneric.Counter
	queueDepth   *kitgeneric.Gauge

	batchLines    *generic.Histogram
	flushDuration *generic.Histogram
}

func NewStats(tags map[string]string) *Stats {
	if tags == nil {
		tags = map[string]string{}
	}

	return &Stats{
		tags:          tags,
		enqueued:      kitgeneric.NewCounter("enqueued"),
		dropped:       kitgeneric.NewCounter("dropped"),
		flushed:       kitgeneric.NewCounter("flushed"),
		batches:       kitgeneric.NewCounter("batches"),
		sendFailures:  kitgeneric.NewCounter("send_failures"),
		queueDepth:    kitgeneric.NewGauge("queue_depth"),
		batchLines:    generic.NewHistogram("batch_lines", batchLinesBounds),
		flushDuration: generic.NewHistogram("flush_duration_seconds", flushDurationBounds),
	}
}

func (s *Stats) Instruments() Instruments {
	return Instruments{
		Enqueued:      s.enqueued,
		Dropped:       s.dropped,
		Flushed:       s.flushed,
		Batches:       s.batches,
		SendFailures:  s.sendFailures,
		BatchLines:    s.batchLines,
		FlushDuration: s.flushDuration,
		QueueDepth:    s.queueDepth,
	}
}

func (s *Stats) Enqueued() float64     { return s.enqueued.Value() }
func (s *Stats) Dropped() float64      { return s.dropped.Value() }
func (s *Stats) Flushed() float64      { return s.flushed.Value() }
func (s *Stats) Batches() float64      { return s.batches.Value() }
func (s *Stats) SendFailures() float64 { return s.sendFailures.Value() }

// Points exports every instrument as one point timestamped now. Counters
// carry a "count" field, the gauge a "value" field and histograms their
// bucket, count, sum and quantile fields.
func (s *Stats) Points(now time.Time) []*types.Point {
	points := make([]*types.Point, 0, 8)

	for _, c := range []*kitgeneric.Counter{s.enqueued, s.dropped, s.flushed, s.batches, s.sendFailures} {
		p := s.newPoint(c.Name, c.LabelValues(), now)
		points = append(points, p.AddField("count", c.Value()))
	}

	g := s.newPoint(s.queueDepth.Name, s.queueDepth.LabelValues(), now)
	points = append(points, g.AddField("value", s.queueDepth.Value()))

	for _, h := range []*generic.Histogram{s.batchLines, s.flushDuration} {
		p := s.newPoint(h.Name, h.LabelValues(), now)
		fields := h.Value()
		for _, k := range sortedKeys(fields) {
			p.AddField(k, fields[k])
		}
		points = append(points, p)
	}

	return points
}

func (s *Stats) newPoint(name string, labelValues []string, now time.Time) *types.Point {
	p := types.NewPoint(statsPrefix + name).SetTimestamp(now)

	tags := mergeTags(s.tags, labelValues)
	keys := make([]string, 0, len(tags))
	for k := range tags {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	for _, k := range keys {
		p.AddTag(k, tags[k])
	}

	return p
}

func mergeTags(tags map[string]string, labelValues []string) map[string]string {
	if len(labelValues)%2 != 0 {
		panic("mergeTags received a labelValues with an odd number of strings")
	}

	ret := make(map[string]string, len(tags)+len(labelValues)/2)

	for k, v := range tags {
		ret[k] = v
	}

	for i := 0; i < len(labelValues); i += 2 {
		ret[labelValues[i]] = labelValues[i+1]
	}

	return ret
}

func sortedKeys(m map[string]interface{}) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	return keys
}
