package main

import (
	"bufio"
	"fmt"
	"io"
	"sort"
	"strings"
	"time"

	"github.com/nm-morais/demmon-writer/types"
	"github.com/sirupsen/logrus"
)

const maxLineSize = 1 << 20

type pointWriter interface {
	Write(p *types.Point)
}

// pipe decodes r line by line and hands every point to w. Malformed lines
// are logged and skipped.
func pipe(r io.Reader, w pointWriter, logger *logrus.Logger) (written, skipped int, err error) {
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 64*1024), maxLineSize)

	lineNo := 0
	for scanner.Scan() {
		lineNo++

		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}

		points, err := types.DecodeString(line)
		if err != nil {
			skipped++
			logger.Warnf("Skipping line %d: %s", lineNo, err)
			continue
		}

		for _, p := range points {
			w.Write(p)
			written++
		}
	}

	return written, skipped, scanner.Err()
}

// printPoints writes one row per point: timestamp, measurement, then the
// tags and fields sorted by key.
func printPoints(out io.Writer, points []*types.Point) error {
	for _, p := range points {
		pairs := make([]string, 0, len(p.TagList())+len(p.FieldList()))
		for _, t := range p.TagList() {
			pairs = append(pairs, t.Key+"="+t.Value)
		}
		for _, f := range p.FieldList() {
			pairs = append(pairs, f.Key+"="+types.FormatValue(f.Value))
		}
		sort.Strings(pairs)

		if _, err := fmt.Fprintf(out, "%s\t%s\t%s\n",
			p.Time().UTC().Format(time.RFC3339Nano), p.Name(), strings.Join(pairs, " ")); err != nil {
			return err
		}
	}

	return nil
}
