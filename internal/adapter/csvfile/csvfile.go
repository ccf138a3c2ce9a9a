// Package csvfile implements the durable interchange file between the fetch
// and upsert stages: a row-oriented UTF-8 CSV, overwritten wholesale on every
// fetch so the upsert stage can re-run without re-fetching.
package csvfile

import (
	"encoding/csv"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/berlinbi/weather-etl-service/internal/domain"
)

// Store reads and writes the raw-batch CSV at a fixed path.
type Store struct {
	path string
}

// NewStore creates a Store for the given file path. Parent directories are
// created on first write.
func NewStore(path string) *Store {
	return &Store{path: path}
}

// Path returns the interchange file location.
func (s *Store) Path() string {
	return s.path
}

// WriteBatch replaces the file with the batch: header first, then one line
// per row in batch order. Partial writes are avoided by writing a temp file
// and renaming it into place.
func (s *Store) WriteBatch(batch domain.RawBatch) error {
	if err := os.MkdirAll(filepath.Dir(s.path), 0o755); err != nil {
		return fmt.Errorf("create raw data dir: %w", err)
	}

	tmp, err := os.CreateTemp(filepath.Dir(s.path), ".weather-*.csv")
	if err != nil {
		return fmt.Errorf("create temp file: %w", err)
	}
	defer os.Remove(tmp.Name())

	w := csv.NewWriter(tmp)
	if err := w.Write(batch.Columns); err != nil {
		tmp.Close()
		return fmt.Errorf("write header: %w", err)
	}
	record := make([]string, len(batch.Columns))
	for _, row := range batch.Rows {
		for i, col := range batch.Columns {
			record[i] = row[col]
		}
		if err := w.Write(record); err != nil {
			tmp.Close()
			return fmt.Errorf("write row: %w", err)
		}
	}
	w.Flush()
	if err := w.Error(); err != nil {
		tmp.Close()
		return fmt.Errorf("flush csv: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("close temp file: %w", err)
	}

	if err := os.Rename(tmp.Name(), s.path); err != nil {
		return fmt.Errorf("replace %s: %w", s.path, err)
	}
	return nil
}

// ReadBatch loads the file into a raw batch. Header names are lowercased and
// trimmed; row values are keyed by the cleaned names. Rows shorter than the
// header leave the missing fields empty.
func (s *Store) ReadBatch() (domain.RawBatch, error) {
	f, err := os.Open(s.path)
	if err != nil {
		return domain.RawBatch{}, fmt.Errorf("open %s: %w", s.path, err)
	}
	defer f.Close()

	r := csv.NewReader(f)
	r.FieldsPerRecord = -1

	all, err := r.ReadAll()
	if err != nil {
		return domain.RawBatch{}, fmt.Errorf("read %s: %w", s.path, err)
	}
	if len(all) == 0 {
		return domain.RawBatch{}, fmt.Errorf("read %s: file has no header", s.path)
	}

	header := make([]string, len(all[0]))
	for i, h := range all[0] {
		header[i] = strings.ToLower(strings.TrimSpace(h))
	}

	batch := domain.RawBatch{Columns: header, Rows: make([]domain.RawRow, 0, len(all)-1)}
	for _, record := range all[1:] {
		row := make(domain.RawRow, len(header))
		for i, col := range header {
			if i < len(record) {
				row[col] = record[i]
			}
		}
		batch.Rows = append(batch.Rows, row)
	}
	return batch, nil
}
