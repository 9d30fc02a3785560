package main

import (
	"bufio"
	"encoding/json"
	"errors"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/born-ml/anp/internal/metrics"
)

// errEmptyRecords is returned when the records carry no samples.
var errEmptyRecords = errors.New("records have zero total sample_size")

func newReduceCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "reduce RECORDS.jsonl...",
		Short: "Reduce JSON-lines logging records into metrics in bits",
		Args:  cobra.MinimumNArgs(1),
		RunE:  ReduceHandler,
	}
}

// ReduceHandler reads logging records and prints their reduction.
func ReduceHandler(cmd *cobra.Command, args []string) error {
	var records []metrics.Record
	for _, path := range args {
		recs, err := readRecords(path)
		if err != nil {
			return err
		}
		records = append(records, recs...)
	}

	total := 0.0
	for _, r := range records {
		total += r.Get(metrics.KeySampleSize)
	}
	if total <= 0 {
		return errEmptyRecords
	}

	agg := metrics.NewAggregator()
	metrics.ReduceMetrics(records, agg)
	renderMetrics(cmd.OutOrStdout(), agg.SmoothedValues())
	return nil
}

func readRecords(path string) ([]metrics.Record, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	var records []metrics.Record
	scanner := bufio.NewScanner(f)
	line := 0
	for scanner.Scan() {
		line++
		if len(scanner.Bytes()) == 0 {
			continue
		}
		var r metrics.Record
		if err := json.Unmarshal(scanner.Bytes(), &r); err != nil {
			return nil, fmt.Errorf("%s:%d: %w", path, line, err)
		}
		records = append(records, r)
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return records, nil
}
