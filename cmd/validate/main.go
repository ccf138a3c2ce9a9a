// Command validate runs the normalization stage against a raw CSV file
// without touching the database, reporting how many rows would be kept or
// dropped and failing loudly on schema problems. Useful for checking a
// hand-edited interchange file before an upsert, or for diagnosing a parsing
// regression from a fetched batch.
//
// Usage:
//
//	go run ./cmd/validate -csv data/raw/berlin_weather.csv
package main

import (
	"errors"
	"flag"
	"fmt"
	"os"
	"time"

	"github.com/berlinbi/weather-etl-service/internal/adapter/csvfile"
	"github.com/berlinbi/weather-etl-service/internal/domain"
)

func main() {
	csvPath := flag.String("csv", "data/raw/berlin_weather.csv", "path to the raw CSV interchange file")
	timezone := flag.String("timezone", "Europe/Berlin", "timezone the file's naive timestamps are in")
	flag.Parse()

	os.Exit(run(*csvPath, *timezone))
}

func run(csvPath, timezone string) int {
	loc, err := time.LoadLocation(timezone)
	if err != nil {
		fmt.Fprintf(os.Stderr, "FATAL: invalid timezone %q: %v\n", timezone, err)
		return 1
	}

	batch, err := csvfile.NewStore(csvPath).ReadBatch()
	if err != nil {
		fmt.Fprintf(os.Stderr, "FATAL: %v\n", err)
		return 1
	}

	normalized, err := domain.NormalizeBatch(batch, loc, "validate")
	if err != nil {
		var schemaErr *domain.SchemaError
		if errors.As(err, &schemaErr) {
			fmt.Fprintf(os.Stderr, "FAIL: batch rejected: %v\n", schemaErr)
			return 2
		}
		fmt.Fprintf(os.Stderr, "FATAL: %v\n", err)
		return 1
	}

	fmt.Printf("%s\n", csvPath)
	fmt.Printf("  columns: %d  rows: %d\n", len(batch.Columns), len(batch.Rows))
	fmt.Printf("  kept:    %d\n", len(normalized.Readings))
	fmt.Printf("  dropped: %d\n", normalized.Dropped)

	if len(normalized.Readings) > 0 {
		first := normalized.Readings[0]
		last := normalized.Readings[len(normalized.Readings)-1]
		fmt.Printf("  window:  %s .. %s\n",
			first.Timestamp.Format(time.RFC3339), last.Timestamp.Format(time.RFC3339))
	}

	if normalized.Dropped > 0 {
		fmt.Println("\nWARNING: batch has rows that would be dropped on upsert.")
		return 3
	}
	fmt.Println("\nAll rows valid.")
	return 0
}
