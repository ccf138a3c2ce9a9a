package domain

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func berlin(t *testing.T) *time.Location {
	t.Helper()
	loc, err := time.LoadLocation("Europe/Berlin")
	require.NoError(t, err)
	return loc
}

func validRow(ts string) RawRow {
	return RawRow{
		"city": "Berlin", "timestamp": ts,
		"temperature": "5.1", "humidity": "81", "pressure": "1011.2",
		"wind_speed": "10.3", "weather_code": "3",
	}
}

func TestNormalizeBatch_HappyPath(t *testing.T) {
	batch := RawBatch{
		Columns: RawColumns,
		Rows: []RawRow{
			validRow("2024-04-26 00:00:00"),
			validRow("2024-04-26 01:00:00"),
		},
	}

	got, err := NormalizeBatch(batch, berlin(t), "open-meteo")
	require.NoError(t, err)
	require.Len(t, got.Readings, 2)
	assert.Equal(t, 0, got.Dropped)

	first := got.Readings[0]
	assert.Equal(t, "Berlin", first.City)
	assert.Equal(t, "open-meteo", first.Source)
	// Local Berlin midnight in April is 22:00 UTC the previous day.
	assert.Equal(t, time.Date(2024, 4, 25, 22, 0, 0, 0, time.UTC), first.Timestamp)
	require.NotNil(t, first.Temperature)
	assert.Equal(t, 5.1, *first.Temperature)
	require.NotNil(t, first.WeatherCode)
	assert.Equal(t, 3, *first.WeatherCode)
}

func TestNormalizeBatch_TimestampAliasPriority(t *testing.T) {
	tests := []struct {
		name    string
		columns []string
	}{
		{"ts wins over timestamp", []string{"ts", "timestamp"}},
		{"timestamp wins over time", []string{"timestamp", "time"}},
		{"time wins over datetime", []string{"time", "datetime"}},
		{"datetime alone", []string{"datetime"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			columns := append([]string{"city", "temperature", "humidity", "pressure", "wind_speed", "weather_code"}, tt.columns...)
			row := RawRow{
				"city": "Berlin", "temperature": "5", "humidity": "80",
				"pressure": "1011", "wind_speed": "10", "weather_code": "0",
			}
			// The priority column carries a valid timestamp; any lower-priority
			// column carries garbage that must be ignored.
			row[tt.columns[0]] = "2024-04-26 12:00:00"
			for _, c := range tt.columns[1:] {
				row[c] = "not-a-time"
			}

			got, err := NormalizeBatch(RawBatch{Columns: columns, Rows: []RawRow{row}}, time.UTC, "test")
			require.NoError(t, err)
			require.Len(t, got.Readings, 1)
			assert.Equal(t, time.Date(2024, 4, 26, 12, 0, 0, 0, time.UTC), got.Readings[0].Timestamp)
		})
	}
}

func TestNormalizeBatch_NoTimestampColumn(t *testing.T) {
	batch := RawBatch{
		Columns: []string{"city", "temperature", "humidity", "pressure", "wind_speed", "weather_code"},
	}
	_, err := NormalizeBatch(batch, time.UTC, "test")

	var schemaErr *SchemaError
	require.ErrorAs(t, err, &schemaErr)
	assert.Equal(t, "ts", schemaErr.Column)
}

func TestNormalizeBatch_MissingRequiredColumn(t *testing.T) {
	batch := RawBatch{
		Columns: []string{"city", "timestamp", "temperature", "pressure", "wind_speed", "weather_code"},
		Rows:    []RawRow{validRow("2024-04-26 00:00:00")},
	}
	_, err := NormalizeBatch(batch, time.UTC, "test")

	var schemaErr *SchemaError
	require.ErrorAs(t, err, &schemaErr)
	assert.Equal(t, "humidity", schemaErr.Column)
}

func TestNormalizeBatch_DropsUnparseableTimestamps(t *testing.T) {
	rows := make([]RawRow, 0, 10)
	for i := 0; i < 10; i++ {
		rows = append(rows, validRow(time.Date(2024, 4, 26, i, 0, 0, 0, time.UTC).Format("2006-01-02 15:04:05")))
	}
	rows[4]["timestamp"] = ""

	got, err := NormalizeBatch(RawBatch{Columns: RawColumns, Rows: rows}, time.UTC, "test")
	require.NoError(t, err)
	assert.Len(t, got.Readings, 9)
	assert.Equal(t, 1, got.Dropped)
}

func TestNormalizeBatch_NullMeasurements(t *testing.T) {
	row := validRow("2024-04-26 00:00:00")
	row["wind_speed"] = ""
	row["weather_code"] = ""

	got, err := NormalizeBatch(RawBatch{Columns: RawColumns, Rows: []RawRow{row}}, time.UTC, "test")
	require.NoError(t, err)
	require.Len(t, got.Readings, 1)
	assert.Nil(t, got.Readings[0].WindSpeed)
	assert.Nil(t, got.Readings[0].WeatherCode)
	require.NotNil(t, got.Readings[0].Temperature)
}

func TestNormalizeBatch_DropsGarbageMeasurement(t *testing.T) {
	good := validRow("2024-04-26 00:00:00")
	bad := validRow("2024-04-26 01:00:00")
	bad["temperature"] = "warm"

	got, err := NormalizeBatch(RawBatch{Columns: RawColumns, Rows: []RawRow{good, bad}}, time.UTC, "test")
	require.NoError(t, err)
	assert.Len(t, got.Readings, 1)
	assert.Equal(t, 1, got.Dropped)
}

func TestNormalizeBatch_DropsEmptyCity(t *testing.T) {
	row := validRow("2024-04-26 00:00:00")
	row["city"] = "  "

	got, err := NormalizeBatch(RawBatch{Columns: RawColumns, Rows: []RawRow{row}}, time.UTC, "test")
	require.NoError(t, err)
	assert.Empty(t, got.Readings)
	assert.Equal(t, 1, got.Dropped)
}

func TestNormalizeBatch_FloatWeatherCode(t *testing.T) {
	row := validRow("2024-04-26 00:00:00")
	row["weather_code"] = "61.0"

	got, err := NormalizeBatch(RawBatch{Columns: RawColumns, Rows: []RawRow{row}}, time.UTC, "test")
	require.NoError(t, err)
	require.Len(t, got.Readings, 1)
	require.NotNil(t, got.Readings[0].WeatherCode)
	assert.Equal(t, 61, *got.Readings[0].WeatherCode)
}

func TestParseTimestamp_Layouts(t *testing.T) {
	tests := []struct {
		name  string
		value string
		ok    bool
	}{
		{"interchange layout", "2024-04-26 15:00:00", true},
		{"iso seconds", "2024-04-26T15:00:00", true},
		{"iso minutes", "2024-04-26T15:00", true},
		{"rfc3339", "2024-04-26T15:00:00Z", true},
		{"empty", "", false},
		{"garbage", "yesterday-ish", false},
		{"date only", "2024-04-26", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, ok := parseTimestamp(tt.value, time.UTC)
			assert.Equal(t, tt.ok, ok)
		})
	}
}
