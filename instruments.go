package writer

import (
	"github.com/go-kit/kit/metrics"
	"github.com/go-kit/kit/metrics/discard"
)

// Instruments receives the writer's own measurements. Nil members are
// replaced with no-op implementations.
type Instruments struct {
	Enqueued      metrics.Counter   // lines accepted by Write
	Dropped       metrics.Counter   // lines rejected after Close
	Flushed       metrics.Counter   // lines handed to a successful Send
	Batches       metrics.Counter   // Send attempts
	SendFailures  metrics.Counter   // failed Send attempts
	BatchLines    metrics.Histogram // lines per batch
	FlushDuration metrics.Histogram // seconds spent in Send
	QueueDepth    metrics.Gauge     // lines found queued at each drain
}

func (i *Instruments) fill() {
	for _, c := range []*metrics.Counter{&i.Enqueued, &i.Dropped, &i.Flushed, &i.Batches, &i.SendFailures} {
		if *c == nil {
			*c = discard.NewCounter()
		}
	}

	for _, h := range []*metrics.Histogram{&i.BatchLines, &i.FlushDuration} {
		if *h == nil {
			*h = discard.NewHistogram()
		}
	}

	if i.QueueDepth == nil {
		i.QueueDepth = discard.NewGauge()
	}
}
