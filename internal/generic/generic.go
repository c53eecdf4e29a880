// Package generic implements an in-memory histogram that keeps both fixed
// bucket counts and streaming quantiles.
package generic

import (
	"fmt"
	"math"
	"sort"
	"sync"

	"github.com/VividCortex/gohistogram"
	"github.com/go-kit/kit/metrics"
	"go.uber.org/atomic"
)

var DefaultQuantiles = []float64{0.5, 0.9, 0.99}

type bucket struct {
	atomic.Float64
	upper float64 // bucket upper bound, inclusive
}

type Buckets []*bucket

func NewBuckets(upperBounds []float64) Buckets {
	sorted := append([]float64(nil), upperBounds...)
	sort.Float64s(sorted)

	bs := make(Buckets, 0, len(sorted)+1)
	for _, upper := range sorted {
		bs = append(bs, &bucket{upper: upper})
	}
	if len(sorted) == 0 || sorted[len(sorted)-1] != math.MaxFloat64 {
		bs = append(bs, &bucket{upper: math.MaxFloat64})
	}
	return bs
}

func (bs Buckets) get(val float64) *bucket {
	// Binary search to find the correct bucket for this observation. Bucket
	// upper bounds are inclusive.
	i, j := 0, len(bs)
	for i < j {
		h := i + (j-i)/2
		if val > bs[h].upper {
			i = h + 1
		} else {
			j = h
		}
	}
	return bs[i]
}

type Histogram struct {
	Name    string
	Buckets Buckets

	lvs   []string
	mtx   *sync.Mutex
	h     *gohistogram.NumericHistogram
	count *atomic.Int64
	sum   *atomic.Float64
}

// NewHistogram returns a histogram with the given inclusive bucket upper
// bounds. An overflow bucket is always added.
func NewHistogram(name string, uppers []float64) *Histogram {
	return &Histogram{
		Name:    name,
		Buckets: NewBuckets(uppers),
		mtx:     &sync.Mutex{},
		h:       gohistogram.NewHistogram(50),
		count:   atomic.NewInt64(0),
		sum:     atomic.NewFloat64(0),
	}
}

// With implements metrics.Histogram. The returned histogram shares the
// observations of h.
func (h *Histogram) With(labelValues ...string) metrics.Histogram {
	lvs := append(append([]string(nil), h.lvs...), labelValues...)
	return &Histogram{
		Name:    h.Name,
		Buckets: h.Buckets,
		lvs:     lvs,
		mtx:     h.mtx,
		h:       h.h,
		count:   h.count,
		sum:     h.sum,
	}
}

// LabelValues returns the label values set through With.
func (h *Histogram) LabelValues() []string {
	return h.lvs
}

func (h *Histogram) Observe(value float64) {
	if h == nil {
		return
	}
	h.Buckets.get(value).Add(1.0)
	h.count.Inc()
	h.sum.Add(value)

	h.mtx.Lock()
	h.h.Add(value)
	h.mtx.Unlock()
}

func (h *Histogram) Count() int64 {
	return h.count.Load()
}

func (h *Histogram) Sum() float64 {
	return h.sum.Load()
}

// Quantile returns an estimate of quantile q, or 0 with no observations.
func (h *Histogram) Quantile(q float64) float64 {
	if h.count.Load() == 0 {
		return 0
	}

	h.mtx.Lock()
	defer h.mtx.Unlock()

	return h.h.Quantile(q)
}

// Value returns the bucket counts keyed "le_<upper>" (the overflow bucket is
// "le_inf") together with count, sum and the default quantiles.
func (h *Histogram) Value() map[string]interface{} {
	values := make(map[string]interface{}, len(h.Buckets)+len(DefaultQuantiles)+2)
	for _, b := range h.Buckets {
		values[bucketKey(b.upper)] = b.Load()
	}
	values["count"] = h.Count()
	values["sum"] = h.Sum()
	for _, q := range DefaultQuantiles {
		values[fmt.Sprintf("p%d", int(math.Round(q*100)))] = h.Quantile(q)
	}
	return values
}

func bucketKey(upper float64) string {
	if upper == math.MaxFloat64 {
		return "le_inf"
	}
	return fmt.Sprintf("le_%g", upper)
}
