package csvfile

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/berlinbi/weather-etl-service/internal/domain"
)

func testBatch() domain.RawBatch {
	return domain.RawBatch{
		Columns: domain.RawColumns,
		Rows: []domain.RawRow{
			{
				"city": "Berlin", "timestamp": "2024-04-26 00:00:00",
				"temperature": "5.1", "humidity": "81", "pressure": "1011.2",
				"wind_speed": "10.3", "weather_code": "3",
			},
			{
				"city": "Berlin", "timestamp": "2024-04-26 01:00:00",
				"temperature": "4.8", "humidity": "83", "pressure": "1011",
				"wind_speed": "", "weather_code": "61",
			},
		},
	}
}

func TestStore_RoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "raw", "berlin_weather.csv")
	s := NewStore(path)

	batch := testBatch()
	require.NoError(t, s.WriteBatch(batch))

	got, err := s.ReadBatch()
	require.NoError(t, err)

	assert.Equal(t, domain.RawColumns, got.Columns)
	if diff := cmp.Diff(batch.Rows, got.Rows); diff != "" {
		t.Errorf("rows mismatch (-want +got):\n%s", diff)
	}
}

func TestStore_WriteBatch_OverwritesWholesale(t *testing.T) {
	path := filepath.Join(t.TempDir(), "berlin_weather.csv")
	s := NewStore(path)

	require.NoError(t, s.WriteBatch(testBatch()))

	smaller := domain.RawBatch{
		Columns: domain.RawColumns,
		Rows: []domain.RawRow{{
			"city": "Berlin", "timestamp": "2024-04-27 00:00:00",
			"temperature": "7.2", "humidity": "70", "pressure": "1013",
			"wind_speed": "8.1", "weather_code": "0",
		}},
	}
	require.NoError(t, s.WriteBatch(smaller))

	got, err := s.ReadBatch()
	require.NoError(t, err)
	require.Len(t, got.Rows, 1)
	assert.Equal(t, "2024-04-27 00:00:00", got.Rows[0]["timestamp"])
}

func TestStore_ReadBatch_CleansHeader(t *testing.T) {
	path := filepath.Join(t.TempDir(), "weather.csv")
	require.NoError(t, os.WriteFile(path, []byte(
		"City , TIMESTAMP,temperature,humidity,pressure,wind_speed,weather_code\n"+
			"Berlin,2024-04-26 00:00:00,5.1,81,1011.2,10.3,3\n"), 0o644))

	got, err := NewStore(path).ReadBatch()
	require.NoError(t, err)
	assert.Equal(t, []string{"city", "timestamp", "temperature", "humidity", "pressure", "wind_speed", "weather_code"}, got.Columns)
	assert.Equal(t, "Berlin", got.Rows[0]["city"])
	assert.Equal(t, "2024-04-26 00:00:00", got.Rows[0]["timestamp"])
}

func TestStore_ReadBatch_ShortRow(t *testing.T) {
	path := filepath.Join(t.TempDir(), "weather.csv")
	require.NoError(t, os.WriteFile(path, []byte(
		"city,timestamp,temperature\nBerlin,2024-04-26 00:00:00\n"), 0o644))

	got, err := NewStore(path).ReadBatch()
	require.NoError(t, err)
	require.Len(t, got.Rows, 1)
	assert.Equal(t, "", got.Rows[0]["temperature"])
}

func TestStore_ReadBatch_MissingFile(t *testing.T) {
	_, err := NewStore(filepath.Join(t.TempDir(), "nope.csv")).ReadBatch()
	require.Error(t, err)
}

func TestStore_ReadBatch_EmptyFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "empty.csv")
	require.NoError(t, os.WriteFile(path, nil, 0o644))

	_, err := NewStore(path).ReadBatch()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "no header")
}
