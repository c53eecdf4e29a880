package writer

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/nm-morais/demmon-writer/types"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeTransport struct {
	mu      sync.Mutex
	batches []string
	err     error
	closed  bool
	sent    chan string
}

func newFakeTransport() *fakeTransport {
	return &fakeTransport{sent: make(chan string, 1024)}
}

func (f *fakeTransport) Send(_ context.Context, payload []byte) error {
	f.mu.Lock()
	f.batches = append(f.batches, string(payload))
	err := f.err
	f.mu.Unlock()

	f.sent <- string(payload)

	return err
}

func (f *fakeTransport) Close() error {
	f.mu.Lock()
	f.closed = true
	f.mu.Unlock()

	return nil
}

func (f *fakeTransport) Batches() []string {
	f.mu.Lock()
	defer f.mu.Unlock()

	return append([]string(nil), f.batches...)
}

type fakeQuerier struct {
	*fakeTransport
	response string
	err      error
	queries  []string
}

func (f *fakeQuerier) Query(_ context.Context, query string) ([]byte, error) {
	f.queries = append(f.queries, query)
	return []byte(f.response), f.err
}

func testLogger() *logrus.Logger {
	logger := logrus.New()
	logger.SetOutput(io.Discard)
	return logger
}

func testConf(batchSize, interval int) *Conf {
	conf := DefaultConf()
	conf.BatchSize = batchSize
	conf.FlushInterval = interval
	return conf
}

func newTestWriter(t *testing.T, conf *Conf, tr Transport, opts ...Option) *Writer {
	t.Helper()

	opts = append([]Option{WithLogger(testLogger())}, opts...)
	w, err := New(conf, tr, opts...)
	require.NoError(t, err)

	return w
}

func lines(batch string) []string {
	return strings.Split(strings.TrimSuffix(batch, "\n"), "\n")
}

func point(i int) *types.Point {
	return types.NewPoint("m").AddField("v", i).SetTimestamp(time.Unix(0, int64(i)))
}

func waitBatch(t *testing.T, tr *fakeTransport, timeout time.Duration) string {
	t.Helper()

	select {
	case b := <-tr.sent:
		return b
	case <-time.After(timeout):
		t.Fatalf("no batch sent within %s", timeout)
		return ""
	}
}

func TestNewRequiresTransport(t *testing.T) {
	_, err := New(nil, nil)
	assert.ErrorIs(t, err, ErrNoTransport)
}

func TestNewRejectsInvalidConf(t *testing.T) {
	_, err := New(testConf(0, -1), newFakeTransport(), WithLogger(testLogger()))
	require.ErrorIs(t, err, ErrInvalidConf)
	assert.Contains(t, err.Error(), "batch_size")
	assert.Contains(t, err.Error(), "flush_interval")
}

func TestNewDefaults(t *testing.T) {
	w := newTestWriter(t, nil, newFakeTransport())
	defer w.Close()

	assert.Equal(t, DefaultBatchSize, w.BatchSize())
	assert.Equal(t, 3*time.Second, w.FlushInterval())
	assert.Equal(t, StateRunning, w.State())
}

func TestFlushByCount(t *testing.T) {
	tr := newFakeTransport()
	w := newTestWriter(t, testConf(10, 3600), tr)

	for i := 0; i < 10; i++ {
		w.Write(point(i))
	}

	batch := waitBatch(t, tr, 2*time.Second)
	got := lines(batch)
	require.Len(t, got, 10)
	assert.Equal(t, "m v=0i 0", got[0])
	assert.Equal(t, "m v=9i 9", got[9])

	require.NoError(t, w.Close())
	assert.Len(t, tr.Batches(), 1)
}

func TestFlushByTime(t *testing.T) {
	tr := newFakeTransport()
	w := newTestWriter(t, testConf(1000, 1), tr)
	defer w.Close()

	start := time.Now()
	w.Write(point(1))

	batch := waitBatch(t, tr, 3*time.Second)
	assert.Equal(t, []string{"m v=1i 1"}, lines(batch))
	assert.Less(t, int64(time.Since(start)), int64(3*time.Second))
}

func TestCloseFlushesPendingLines(t *testing.T) {
	tr := newFakeTransport()
	w := newTestWriter(t, testConf(1000, 3600), tr)

	for i := 0; i < 5; i++ {
		w.Write(point(i))
	}

	require.NoError(t, w.Close())

	batches := tr.Batches()
	require.Len(t, batches, 1)
	assert.Len(t, lines(batches[0]), 5)
}

func TestCloseWithNothingPendingSendsNothing(t *testing.T) {
	tr := newFakeTransport()
	w := newTestWriter(t, testConf(1000, 3600), tr)

	require.NoError(t, w.Close())
	assert.Empty(t, tr.Batches())
}

func TestCloseLifecycle(t *testing.T) {
	tr := newFakeTransport()
	w := newTestWriter(t, nil, tr)

	require.NoError(t, w.Close())
	assert.Equal(t, StateStopped, w.State())
	assert.True(t, tr.closed)
	assert.ErrorIs(t, w.Close(), ErrClosed)
}

func TestWriteAfterCloseIsDropped(t *testing.T) {
	tr := newFakeTransport()
	stats := NewStats(nil)
	w := newTestWriter(t, testConf(1, 3600), tr, WithInstruments(stats.Instruments()))

	require.NoError(t, w.Close())

	w.Write(point(1))
	w.Write(point(2))

	assert.Empty(t, tr.Batches())
	assert.Equal(t, 2.0, stats.Dropped())
	assert.Equal(t, 0.0, stats.Enqueued())
}

func TestWriteNilIsIgnored(t *testing.T) {
	tr := newFakeTransport()
	w := newTestWriter(t, nil, tr)

	w.Write(nil)

	require.NoError(t, w.Close())
	assert.Empty(t, tr.Batches())
}

func TestSendFailureDiscardsBatch(t *testing.T) {
	tr := newFakeTransport()
	tr.err = errors.New("connection refused")
	stats := NewStats(nil)
	w := newTestWriter(t, testConf(2, 3600), tr, WithInstruments(stats.Instruments()))

	for i := 0; i < 4; i++ {
		w.Write(point(i))
	}

	require.NoError(t, w.Close())

	batches := tr.Batches()
	require.Len(t, batches, 2)
	assert.Equal(t, []string{"m v=0i 0", "m v=1i 1"}, lines(batches[0]))
	assert.Equal(t, []string{"m v=2i 2", "m v=3i 3"}, lines(batches[1]))
	assert.Equal(t, 2.0, stats.SendFailures())
	assert.Equal(t, 2.0, stats.Batches())
	assert.Equal(t, 0.0, stats.Flushed())
}

func TestConcurrentWriters(t *testing.T) {
	const (
		producers = 8
		perWriter = 500
		batchSize = 100
	)

	tr := newFakeTransport()
	stats := NewStats(nil)
	w := newTestWriter(t, testConf(batchSize, 3600), tr, WithInstruments(stats.Instruments()))

	var wg sync.WaitGroup
	for p := 0; p < producers; p++ {
		wg.Add(1)
		go func(p int) {
			defer wg.Done()
			for i := 0; i < perWriter; i++ {
				w.Write(types.NewPoint(fmt.Sprintf("p%d", p)).AddField("i", i))
			}
		}(p)
	}
	wg.Wait()

	require.NoError(t, w.Close())

	total := 0
	for _, b := range tr.Batches() {
		n := len(lines(b))
		assert.LessOrEqual(t, n, batchSize)
		total += n
	}

	assert.Equal(t, producers*perWriter, total)
	assert.Equal(t, float64(producers*perWriter), stats.Flushed())
	assert.Equal(t, float64(producers*perWriter), stats.Enqueued())
}

func TestGlobalTags(t *testing.T) {
	tr := newFakeTransport()
	conf := testConf(1, 3600)
	conf.GlobalTags = []GlobalTag{{Key: "a", Value: "1"}}
	w := newTestWriter(t, conf, tr)

	w.AddGlobalTag("b", "2")
	assert.Equal(t, "a=1,b=2", w.GlobalTags())

	w.Write(types.NewPoint("m").AddTag("c", "3").AddField("v", 1).SetTimestamp(time.Unix(0, 7)))

	assert.Equal(t, "m,c=3,a=1,b=2 v=1i 7\n", waitBatch(t, tr, 2*time.Second))
	require.NoError(t, w.Close())
}

func TestBatchOfAndIntervalAt(t *testing.T) {
	w := newTestWriter(t, nil, newFakeTransport())
	defer w.Close()

	w.BatchOf(5)
	w.IntervalAt(10)
	assert.Equal(t, 5, w.BatchSize())
	assert.Equal(t, 10*time.Second, w.FlushInterval())

	w.BatchOf(0)
	w.IntervalAt(-1)
	assert.Equal(t, 5, w.BatchSize())
	assert.Equal(t, 10*time.Second, w.FlushInterval())
}

func TestBatchOfWhileRunning(t *testing.T) {
	tr := newFakeTransport()
	w := newTestWriter(t, testConf(1000, 3600), tr)
	defer w.Close()

	w.BatchOf(3)
	for i := 0; i < 3; i++ {
		w.Write(point(i))
	}

	assert.Len(t, lines(waitBatch(t, tr, 2*time.Second)), 3)
}

func TestStatsPoints(t *testing.T) {
	tr := newFakeTransport()
	stats := NewStats(map[string]string{"host": "h1"})
	w := newTestWriter(t, testConf(2, 3600), tr, WithInstruments(stats.Instruments()))

	w.Write(point(1))
	w.Write(point(2))
	require.NoError(t, w.Close())

	now := time.Unix(100, 0)
	points := stats.Points(now)

	byName := make(map[string]*types.Point)
	for _, p := range points {
		byName[p.Name()] = p
		assert.Equal(t, now, p.Time())
		host, ok := p.Tag("host")
		assert.True(t, ok)
		assert.Equal(t, "h1", host)
	}

	require.Contains(t, byName, "demmon_writer_flushed")
	count, _ := byName["demmon_writer_flushed"].Field("count")
	assert.Equal(t, 2.0, count)

	require.Contains(t, byName, "demmon_writer_batch_lines")
	batchCount, _ := byName["demmon_writer_batch_lines"].Field("count")
	assert.Equal(t, int64(1), batchCount)
	le10, _ := byName["demmon_writer_batch_lines"].Field("le_10")
	assert.Equal(t, 1.0, le10)
}

func TestStateString(t *testing.T) {
	assert.Equal(t, "running", StateRunning.String())
	assert.Equal(t, "State(9)", State(9).String())
}
