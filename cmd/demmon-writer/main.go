// Command demmon-writer reads line protocol from stdin and ships it in
// batches through the configured transport, or runs a query against it.
package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	writer "github.com/nm-morais/demmon-writer"
	"github.com/nm-morais/demmon-writer/transport"
	"github.com/sirupsen/logrus"
)

const (
	pingTimeout  = 5 * time.Second
	queryTimeout = 30 * time.Second
)

func main() {
	opts, err := readCommandLineOptions(os.Args[1:])
	if isHelp(err) {
		os.Exit(0)
	}
	if err != nil {
		os.Exit(2)
	}

	conf, err := loadConfiguration(opts.ConfigPath)
	if err != nil {
		logrus.Fatal(err)
	}

	if opts.Verbose {
		conf.Writer.Logging.Level = "debug"
	}

	logger, err := writer.NewLogger(conf.Writer.Logging)
	if err != nil {
		logrus.Fatal(err)
	}

	tr, err := transport.New(conf.Transport)
	if err != nil {
		logger.Fatal(err)
	}

	if p, ok := tr.(transport.Pinger); ok {
		ctx, cancel := context.WithTimeout(context.Background(), pingTimeout)
		if err := p.Ping(ctx); err != nil {
			logger.Warnf("Ping to %s failed: %s", conf.Transport.Addr, err)
		}
		cancel()
	}

	stats := writer.NewStats(map[string]string{"transport": conf.Transport.Kind})

	w, err := writer.New(&conf.Writer, tr,
		writer.WithLogger(logger),
		writer.WithInstruments(stats.Instruments()),
	)
	if err != nil {
		logger.Fatal(err)
	}

	if opts.Query != "" {
		os.Exit(runQuery(w, opts.Query, logger))
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	done := make(chan struct{})

	go func() {
		defer close(done)

		written, skipped, err := pipe(os.Stdin, w, logger)
		if err != nil {
			logger.Errorf("Error reading stdin: %s", err)
		}
		logger.Infof("Read %d points from stdin (%d lines skipped)", written, skipped)
	}()

	select {
	case <-done:
	case <-ctx.Done():
		logger.Info("Interrupted, flushing pending points")
	}

	if opts.Stats {
		for _, p := range stats.Points(time.Now()) {
			w.Write(p)
		}
	}

	if err := w.Close(); err != nil {
		logger.Errorf("Error closing writer: %s", err)
	}

	logger.Infof("Sent %.0f of %.0f points in %.0f batches (%.0f failed)",
		stats.Flushed(), stats.Enqueued(), stats.Batches(), stats.SendFailures())
}

func runQuery(w *writer.Writer, query string, logger *logrus.Logger) int {
	defer w.Close()

	ctx, cancel := context.WithTimeout(context.Background(), queryTimeout)
	defer cancel()

	points, err := w.Query(ctx, query)
	if err != nil {
		logger.Error(err)
		return 1
	}

	if err := printPoints(os.Stdout, points); err != nil {
		logger.Error(err)
		return 1
	}

	return 0
}
