package writer

import "errors"

var (
	// ErrNoTransport is returned by New when no transport is given.
	ErrNoTransport = errors.New("writer: no transport configured")

	// ErrInvalidConf wraps the problems found by Conf.Validate.
	ErrInvalidConf = errors.New("writer: invalid configuration")

	// ErrQueryUnsupported is returned by Query when the writer was built
	// without a response parser or its transport cannot run queries.
	ErrQueryUnsupported = errors.New("writer: query feature not available")

	// ErrClosed is returned by Close on a writer that is already stopping
	// or stopped.
	ErrClosed = errors.New("writer: closed")
)
