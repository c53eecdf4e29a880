// Package writer buffers line protocol points and flushes them in batches
// through a pluggable transport from a single background goroutine.
package writer

import (
	"context"
	"fmt"
	"io"
	"time"

	"github.com/nm-morais/demmon-writer/internal/queue"
	"github.com/nm-morais/demmon-writer/response"
	"github.com/nm-morais/demmon-writer/types"
	"github.com/sirupsen/logrus"
	"go.uber.org/atomic"
)

// Transport delivers a batch of newline terminated lines. The payload must
// not be retained after Send returns.
type Transport interface {
	Send(ctx context.Context, payload []byte) error
}

// Querier is implemented by transports that can run read queries. The
// returned bytes are the raw JSON response.
type Querier interface {
	Query(ctx context.Context, query string) ([]byte, error)
}

// ResponseParser turns a raw query response into points.
type ResponseParser interface {
	Parse(raw []byte) ([]*types.Point, error)
}

type State int32

const (
	StateCreated State = iota
	StateRunning
	StateStopping
	StateStopped
)

func (s State) String() string {
	switch s {
	case StateCreated:
		return "created"
	case StateRunning:
		return "running"
	case StateStopping:
		return "stopping"
	case StateStopped:
		return "stopped"
	default:
		return fmt.Sprintf("State(%d)", int32(s))
	}
}

type Option func(*Writer)

// WithLogger replaces the logger built from Conf.Logging.
func WithLogger(logger *logrus.Logger) Option {
	return func(w *Writer) {
		w.logger = logger
	}
}

func WithInstruments(instruments Instruments) Option {
	return func(w *Writer) {
		w.instruments = instruments
	}
}

// WithResponseParser sets the parser used by Query.
func WithResponseParser(parser ResponseParser) Option {
	return func(w *Writer) {
		w.parser = parser
	}
}

// WithoutQuerySupport makes Query fail with ErrQueryUnsupported.
func WithoutQuerySupport() Option {
	return func(w *Writer) {
		w.parser = nil
	}
}

type Writer struct {
	conf      *Conf
	transport Transport
	parser    ResponseParser

	queue      *queue.Queue
	globalTags *types.TagSet

	batchSize     *atomic.Int64
	flushInterval *atomic.Duration
	state         *atomic.Int32
	droppedLogged *atomic.Bool

	stop    chan struct{}
	stopped chan struct{}

	instruments Instruments
	logger      *logrus.Logger
}

// New validates conf, builds a writer around transport and starts its
// flush daemon. A nil conf means DefaultConf.
func New(conf *Conf, transport Transport, opts ...Option) (*Writer, error) {
	if transport == nil {
		return nil, ErrNoTransport
	}

	if conf == nil {
		conf = DefaultConf()
	}

	if err := conf.Validate(); err != nil {
		return nil, err
	}

	w := &Writer{
		conf:          conf,
		transport:     transport,
		parser:        response.Parser{},
		queue:         queue.New(conf.BatchSize),
		globalTags:    types.NewTagSet(),
		batchSize:     atomic.NewInt64(int64(conf.BatchSize)),
		flushInterval: atomic.NewDuration(conf.flushInterval()),
		state:         atomic.NewInt32(int32(StateCreated)),
		droppedLogged: atomic.NewBool(false),
		stop:          make(chan struct{}),
		stopped:       make(chan struct{}),
	}

	for _, opt := range opts {
		opt(w)
	}

	if w.logger == nil {
		logger, err := NewLogger(conf.Logging)
		if err != nil {
			return nil, fmt.Errorf("%w: logging: %s", ErrInvalidConf, err)
		}
		w.logger = logger
	}

	w.instruments.fill()

	for _, t := range conf.GlobalTags {
		w.globalTags.Add(t.Key, t.Value)
	}

	w.state.Store(int32(StateRunning))
	go w.daemon()

	w.logger.Infof("Writer started (batch=%d interval=%s transport=%T)",
		conf.BatchSize, conf.flushInterval(), transport)

	return w, nil
}

// Write encodes p and queues it for the next batch. It never blocks and
// never fails; points written after Close are dropped. p must not be
// modified afterwards.
func (w *Writer) Write(p *types.Point) {
	if p == nil {
		return
	}

	if !w.queue.Push(p.ToLineProtocol(w.globalTags.String())) {
		w.instruments.Dropped.Add(1)
		if w.droppedLogged.CAS(false, true) {
			w.logger.Warnf("Dropping points written after close (first: %s)", p.Name())
		}
		return
	}

	w.instruments.Enqueued.Add(1)
}

// BatchOf sets how many lines trigger a flush. It takes effect on the next
// daemon iteration; non-positive sizes are ignored.
func (w *Writer) BatchOf(size int) {
	if size <= 0 {
		w.logger.Warnf("Ignoring invalid batch size %d", size)
		return
	}

	w.batchSize.Store(int64(size))
}

// IntervalAt sets the maximum age, in seconds, of a pending batch. It takes
// effect on the next daemon iteration; non-positive intervals are ignored.
func (w *Writer) IntervalAt(seconds int) {
	if seconds <= 0 {
		w.logger.Warnf("Ignoring invalid flush interval %ds", seconds)
		return
	}

	w.flushInterval.Store(time.Duration(seconds) * time.Second)
}

// AddGlobalTag appends key=value to every point encoded from now on.
func (w *Writer) AddGlobalTag(key, value string) {
	w.globalTags.Add(key, value)
}

func (w *Writer) GlobalTags() string {
	return w.globalTags.String()
}

func (w *Writer) BatchSize() int {
	return int(w.batchSize.Load())
}

func (w *Writer) FlushInterval() time.Duration {
	return w.flushInterval.Load()
}

func (w *Writer) State() State {
	return State(w.state.Load())
}

// Close stops accepting points, flushes everything already written and
// waits for the flush daemon to exit. The transport is closed afterwards
// when it implements io.Closer. No transmission happens after Close
// returns.
func (w *Writer) Close() error {
	if !w.state.CAS(int32(StateRunning), int32(StateStopping)) {
		return ErrClosed
	}

	w.queue.Close()
	close(w.stop)
	<-w.stopped

	var err error
	if c, ok := w.transport.(io.Closer); ok {
		err = c.Close()
	}

	w.state.Store(int32(StateStopped))
	w.logger.Info("Writer stopped")

	return err
}
