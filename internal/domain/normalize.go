package domain

import (
	"strconv"
	"strings"
	"time"
)

// timestampAliases lists the recognized timestamp-like column names in
// priority order. The first match is renamed to the canonical "ts"; later
// matches are left alone and ignored by validation.
var timestampAliases = []string{"ts", "timestamp", "time", "datetime"}

// timestampLayouts are tried in order when parsing a row timestamp. The
// interchange file uses the first; the rest cover hand-fed CSVs.
var timestampLayouts = []string{
	"2006-01-02 15:04:05",
	"2006-01-02T15:04:05",
	"2006-01-02T15:04",
	"2006-01-02 15:04",
	time.RFC3339,
}

// NormalizedBatch is a validated row batch ready for upsert, together with
// the count of rows dropped during per-row validation. Dropped is surfaced so
// operators can spot systematic parsing regressions.
type NormalizedBatch struct {
	Readings []Reading
	Dropped  int
}

// NormalizeBatch turns a raw batch into upsertable readings.
//
// The first timestamp-like column is renamed to "ts" and parsed in loc, then
// stored as UTC. Rows whose timestamp or measurement fields cannot be parsed
// are dropped and counted; a required column missing from the header entirely
// fails the whole batch with a *SchemaError. Source tags every reading with
// its provenance.
func NormalizeBatch(batch RawBatch, loc *time.Location, source string) (NormalizedBatch, error) {
	columns, tsColumn, err := canonicalizeColumns(batch.Columns)
	if err != nil {
		return NormalizedBatch{}, err
	}

	if missing := missingColumn(columns); missing != "" {
		return NormalizedBatch{}, &SchemaError{Column: missing}
	}

	out := NormalizedBatch{Readings: make([]Reading, 0, len(batch.Rows))}
	for _, row := range batch.Rows {
		reading, ok := normalizeRow(row, tsColumn, loc)
		if !ok {
			out.Dropped++
			continue
		}
		reading.Source = source
		out.Readings = append(out.Readings, reading)
	}
	return out, nil
}

// canonicalizeColumns lowercases and trims header names and resolves which
// source column carries the timestamp. Returns the canonical column set and
// the original (cleaned) name of the timestamp column in the row maps.
func canonicalizeColumns(columns []string) ([]string, string, error) {
	cleaned := make([]string, len(columns))
	for i, c := range columns {
		cleaned[i] = strings.ToLower(strings.TrimSpace(c))
	}

	for _, alias := range timestampAliases {
		for i, c := range cleaned {
			if c != alias {
				continue
			}
			canonical := append([]string(nil), cleaned...)
			canonical[i] = "ts"
			return canonical, c, nil
		}
	}
	return nil, "", &SchemaError{Column: "ts"}
}

// missingColumn returns the first required column absent from the header, or
// "" when the schema is complete.
func missingColumn(columns []string) string {
	have := make(map[string]bool, len(columns))
	for _, c := range columns {
		have[c] = true
	}
	for _, required := range RequiredColumns {
		if !have[required] {
			return required
		}
	}
	return ""
}

// normalizeRow parses a single raw row. Returns ok=false when the row must be
// dropped: unparseable timestamp, empty city, or a non-empty measurement that
// fails to parse. An empty measurement is a legitimate null.
func normalizeRow(row RawRow, tsColumn string, loc *time.Location) (Reading, bool) {
	ts, ok := parseTimestamp(lookup(row, tsColumn), loc)
	if !ok {
		return Reading{}, false
	}

	city := strings.TrimSpace(lookup(row, "city"))
	if city == "" {
		return Reading{}, false
	}

	r := Reading{City: city, Timestamp: ts}

	fields := []struct {
		name string
		dst  **float64
	}{
		{"temperature", &r.Temperature},
		{"humidity", &r.Humidity},
		{"pressure", &r.Pressure},
		{"wind_speed", &r.WindSpeed},
	}
	for _, f := range fields {
		v, ok := parseMeasurement(lookup(row, f.name))
		if !ok {
			return Reading{}, false
		}
		*f.dst = v
	}

	code, ok := parseWeatherCode(lookup(row, "weather_code"))
	if !ok {
		return Reading{}, false
	}
	r.WeatherCode = code

	return r, true
}

// lookup fetches a field tolerating header-case and whitespace variants in
// the row keys.
func lookup(row RawRow, column string) string {
	if v, ok := row[column]; ok {
		return v
	}
	for k, v := range row {
		if strings.ToLower(strings.TrimSpace(k)) == column {
			return v
		}
	}
	return ""
}

func parseTimestamp(value string, loc *time.Location) (time.Time, bool) {
	value = strings.TrimSpace(value)
	if value == "" {
		return time.Time{}, false
	}
	for _, layout := range timestampLayouts {
		if t, err := time.ParseInLocation(layout, value, loc); err == nil {
			return t.UTC(), true
		}
	}
	return time.Time{}, false
}

func parseMeasurement(value string) (*float64, bool) {
	value = strings.TrimSpace(value)
	if value == "" {
		return nil, true
	}
	v, err := strconv.ParseFloat(value, 64)
	if err != nil {
		return nil, false
	}
	return &v, true
}

func parseWeatherCode(value string) (*int, bool) {
	value = strings.TrimSpace(value)
	if value == "" {
		return nil, true
	}
	// Some sources emit codes as floats ("3.0").
	v, err := strconv.ParseFloat(value, 64)
	if err != nil {
		return nil, false
	}
	code := int(v)
	return &code, true
}
