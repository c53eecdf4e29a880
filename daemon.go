package writer

import (
	"bytes"
	"context"
	"time"
)

// daemon is the single consumer of the queue. It accumulates lines into a
// batch and sends it once the batch holds BatchSize lines or the oldest
// pending flush is FlushInterval old. On stop it drains whatever was
// accepted and sends a final batch.
func (w *Writer) daemon() {
	defer close(w.stopped)

	var (
		batch     bytes.Buffer
		count     int
		lastFlush = time.Now()
		pending   []string
	)

	flush := func() {
		w.transmit(batch.Bytes(), count)
		batch.Reset()
		count = 0
		lastFlush = time.Now()
	}

	appendLines := func(lines []string) {
		for _, line := range lines {
			batch.WriteString(line)
			batch.WriteByte('\n')
			count++

			if w.shouldFlush(count, lastFlush) {
				flush()
			}
		}
	}

	timer := time.NewTimer(w.FlushInterval())
	defer timer.Stop()

	for {
		select {
		case <-w.stop:
			pending = w.queue.Drain(pending[:0])
			appendLines(pending)
			if count > 0 {
				flush()
			}
			return
		case <-w.queue.Ready():
			pending = w.queue.Drain(pending[:0])
			w.instruments.QueueDepth.Set(float64(len(pending)))
			appendLines(pending)
		case <-timer.C:
		}

		if w.shouldFlush(count, lastFlush) {
			flush()
		}

		resetTimer(timer, w.untilDeadline(lastFlush))
	}
}

func (w *Writer) shouldFlush(count int, lastFlush time.Time) bool {
	if count <= 0 {
		return false
	}

	return int64(count) >= w.batchSize.Load() || time.Since(lastFlush) >= w.flushInterval.Load()
}

func (w *Writer) untilDeadline(lastFlush time.Time) time.Duration {
	interval := w.flushInterval.Load()

	d := interval - time.Since(lastFlush)
	if d <= 0 {
		return interval
	}

	return d
}

// transmit sends one batch. Failures are logged and counted; the batch is
// discarded either way.
func (w *Writer) transmit(payload []byte, lines int) {
	w.instruments.Batches.Add(1)
	w.instruments.BatchLines.Observe(float64(lines))

	start := time.Now()
	err := w.transport.Send(context.Background(), payload)
	w.instruments.FlushDuration.Observe(time.Since(start).Seconds())

	if err != nil {
		w.instruments.SendFailures.Add(1)
		w.logger.Errorf("Error sending batch of %d lines: %s", lines, err)
		return
	}

	w.instruments.Flushed.Add(float64(lines))
	w.logger.Debugf("Sent batch of %d lines (%d bytes)", lines, len(payload))
}

func resetTimer(t *time.Timer, d time.Duration) {
	if !t.Stop() {
		select {
		case <-t.C:
		default:
		}
	}
	t.Reset(d)
}
