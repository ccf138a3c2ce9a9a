package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func fpt(v float64) *float64 { return &v }
func ipt(v int) *int         { return &v }

func TestBatchFromForecast(t *testing.T) {
	f := Forecast{
		Hourly: HourlyForecast{
			Time:        []string{"2024-04-26T00:00", "2024-04-26T01:00"},
			Temperature: []*float64{fpt(5.1), fpt(4.8)},
			Humidity:    []*float64{fpt(81), nil},
			Pressure:    []*float64{fpt(1011.2), fpt(1011)},
			WindSpeed:   []*float64{fpt(10.3), fpt(9.7)},
			WeatherCode: []*int{ipt(3), ipt(61)},
		},
	}

	batch := BatchFromForecast(f, "Berlin")
	assert.Equal(t, RawColumns, batch.Columns)
	require.Len(t, batch.Rows, 2)

	first := batch.Rows[0]
	assert.Equal(t, "Berlin", first["city"])
	assert.Equal(t, "2024-04-26 00:00:00", first["timestamp"])
	assert.Equal(t, "5.1", first["temperature"])
	assert.Equal(t, "81", first["humidity"])
	assert.Equal(t, "1011.2", first["pressure"])
	assert.Equal(t, "3", first["weather_code"])

	// Null measurements become empty fields, not zeros.
	assert.Equal(t, "", batch.Rows[1]["humidity"])
}

func TestBatchFromForecast_UnparseableTimePassesThrough(t *testing.T) {
	f := Forecast{
		Hourly: HourlyForecast{
			Time:        []string{"not-a-time"},
			Temperature: []*float64{fpt(5)},
		},
	}

	batch := BatchFromForecast(f, "Berlin")
	require.Len(t, batch.Rows, 1)
	// Left verbatim for the normalizer to drop and count.
	assert.Equal(t, "not-a-time", batch.Rows[0]["timestamp"])
}

func TestBatchFromForecast_ShortMeasurementArrays(t *testing.T) {
	f := Forecast{
		Hourly: HourlyForecast{
			Time:        []string{"2024-04-26T00:00", "2024-04-26T01:00"},
			Temperature: []*float64{fpt(5.1)},
		},
	}

	batch := BatchFromForecast(f, "Berlin")
	require.Len(t, batch.Rows, 2)
	assert.Equal(t, "5.1", batch.Rows[0]["temperature"])
	assert.Equal(t, "", batch.Rows[1]["temperature"])
}

func TestBatchFromForecast_Empty(t *testing.T) {
	batch := BatchFromForecast(Forecast{}, "Berlin")
	assert.Equal(t, RawColumns, batch.Columns)
	assert.Empty(t, batch.Rows)
}

func TestSchemaError_Message(t *testing.T) {
	err := &SchemaError{Column: "humidity"}
	assert.Equal(t, `required column "humidity" missing from batch`, err.Error())
}
