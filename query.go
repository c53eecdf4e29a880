package writer

import (
	"context"
	"fmt"

	"github.com/nm-morais/demmon-writer/types"
)

// Query runs query through the transport and parses the response into
// points, one per returned row. Non-time columns are returned as tags.
func (w *Writer) Query(ctx context.Context, query string) ([]*types.Point, error) {
	if w.parser == nil {
		return nil, ErrQueryUnsupported
	}

	q, ok := w.transport.(Querier)
	if !ok {
		return nil, fmt.Errorf("%w: transport %T cannot run queries", ErrQueryUnsupported, w.transport)
	}

	raw, err := q.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("running query %q: %w", query, err)
	}

	points, err := w.parser.Parse(raw)
	if err != nil {
		return nil, fmt.Errorf("parsing response to %q: %w", query, err)
	}

	w.logger.Debugf("Query %q returned %d points", query, len(points))

	return points, nil
}
