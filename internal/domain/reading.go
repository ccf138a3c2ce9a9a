package domain

import (
	"strconv"
	"time"
)

// RawColumns is the header of the CSV interchange file written by the fetch
// stage and read back by the upsert stage.
var RawColumns = []string{"city", "timestamp", "temperature", "humidity", "pressure", "wind_speed", "weather_code"}

// RequiredColumns is the set of columns a batch must carry (after the
// timestamp column has been renamed to "ts") before it may be upserted.
// The check is ordered so a missing-column error is deterministic.
var RequiredColumns = []string{"city", "ts", "temperature", "humidity", "pressure", "wind_speed", "weather_code"}

// RawRow is one CSV row, field values keyed by header name.
type RawRow map[string]string

// RawBatch is an unvalidated row batch as read from the interchange file.
// Columns preserves header order; Rows preserve source order.
type RawBatch struct {
	Columns []string
	Rows    []RawRow
}

// Reading is one validated weather measurement for a city and hour.
// Measurement fields are pointers so an absent value survives as NULL in the
// store instead of a zero.
type Reading struct {
	City        string     `json:"city"`
	Timestamp   time.Time  `json:"ts"`
	Temperature *float64   `json:"temperature"`
	Humidity    *float64   `json:"humidity"`
	Pressure    *float64   `json:"pressure"`
	WindSpeed   *float64   `json:"wind_speed"`
	WeatherCode *int       `json:"weather_code"`
	Source      string     `json:"source,omitempty"`
}

// DailyAggregate is one row of the derived per-day rollup. It is computed by
// the store and only ever read by the pipeline.
type DailyAggregate struct {
	City           string    `json:"city"`
	Day            time.Time `json:"day"`
	AvgTemperature *float64  `json:"avg_temperature"`
	MinTemperature *float64  `json:"min_temperature"`
	MaxTemperature *float64  `json:"max_temperature"`
	AvgHumidity    *float64  `json:"avg_humidity"`
	Samples        int       `json:"samples"`
}

// Forecast is the Open-Meteo response payload: parallel arrays indexed by
// hour offset.
type Forecast struct {
	Latitude  float64        `json:"latitude"`
	Longitude float64        `json:"longitude"`
	Timezone  string         `json:"timezone"`
	Hourly    HourlyForecast `json:"hourly"`
}

// HourlyForecast holds the hourly variables requested from the API. Entries
// may be null for hours the source has no measurement for.
type HourlyForecast struct {
	Time        []string   `json:"time"`
	Temperature []*float64 `json:"temperature_2m"`
	Humidity    []*float64 `json:"relative_humidity_2m"`
	Pressure    []*float64 `json:"pressure_msl"`
	WindSpeed   []*float64 `json:"wind_speed_10m"`
	WeatherCode []*int     `json:"weathercode"`
}

// forecastTimeLayout is the minute-resolution ISO form Open-Meteo returns
// when no timeformat parameter is passed, e.g. "2024-04-26T15:00".
const forecastTimeLayout = "2006-01-02T15:04"

// rawTimeLayout is the form timestamps take in the interchange file.
const rawTimeLayout = "2006-01-02 15:04:05"

// BatchFromForecast flattens the parallel hourly arrays into one raw row per
// hour, in source order. Timestamps are reformatted to the interchange layout
// when parseable and passed through verbatim otherwise, leaving it to the
// normalizer to drop them.
func BatchFromForecast(f Forecast, city string) RawBatch {
	rows := make([]RawRow, 0, len(f.Hourly.Time))
	for i, t := range f.Hourly.Time {
		ts := t
		if parsed, err := time.Parse(forecastTimeLayout, t); err == nil {
			ts = parsed.Format(rawTimeLayout)
		}
		rows = append(rows, RawRow{
			"city":         city,
			"timestamp":    ts,
			"temperature":  formatMeasurement(at(f.Hourly.Temperature, i)),
			"humidity":     formatMeasurement(at(f.Hourly.Humidity, i)),
			"pressure":     formatMeasurement(at(f.Hourly.Pressure, i)),
			"wind_speed":   formatMeasurement(at(f.Hourly.WindSpeed, i)),
			"weather_code": formatCode(at(f.Hourly.WeatherCode, i)),
		})
	}
	return RawBatch{Columns: RawColumns, Rows: rows}
}

// at guards against the source arrays being shorter than the time array.
func at[T any](s []*T, i int) *T {
	if i >= len(s) {
		return nil
	}
	return s[i]
}

func formatMeasurement(v *float64) string {
	if v == nil {
		return ""
	}
	return strconv.FormatFloat(*v, 'f', -1, 64)
}

func formatCode(v *int) string {
	if v == nil {
		return ""
	}
	return strconv.Itoa(*v)
}
