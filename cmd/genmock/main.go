// Command genmock generates a deterministic mock Open-Meteo payload and the
// matching raw CSV interchange file. The fixtures cover a full 8-day hourly
// window (192 rows) so end-to-end tests and local demos can run without
// hitting the real API.
//
// Usage:
//
//	go run ./cmd/genmock -out data/mock
package main

import (
	"encoding/json"
	"flag"
	"fmt"
	"math"
	"os"
	"path/filepath"
	"time"

	"github.com/berlinbi/weather-etl-service/internal/adapter/csvfile"
	"github.com/berlinbi/weather-etl-service/internal/domain"
)

// baseDate anchors the mock window; fixed so regenerated fixtures are
// byte-identical.
var baseDate = time.Date(2024, time.April, 19, 0, 0, 0, 0, time.UTC)

func main() {
	outDir := flag.String("out", "data/mock", "output directory for mock fixtures")
	city := flag.String("city", "Berlin", "city label for the CSV fixture")
	days := flag.Int("days", 8, "number of days of hourly data")
	flag.Parse()

	if err := run(*outDir, *city, *days); err != nil {
		fmt.Fprintf(os.Stderr, "FATAL: %v\n", err)
		os.Exit(1)
	}
}

func run(outDir, city string, days int) error {
	forecast := mockForecast(days)

	if err := os.MkdirAll(outDir, 0o755); err != nil {
		return err
	}

	payloadPath := filepath.Join(outDir, "forecast.json")
	payload, err := json.MarshalIndent(forecast, "", "  ")
	if err != nil {
		return err
	}
	if err := os.WriteFile(payloadPath, payload, 0o644); err != nil {
		return err
	}

	csvPath := filepath.Join(outDir, "berlin_weather.csv")
	batch := domain.BatchFromForecast(forecast, city)
	if err := csvfile.NewStore(csvPath).WriteBatch(batch); err != nil {
		return err
	}

	fmt.Printf("Wrote %d hourly rows\n", len(batch.Rows))
	fmt.Printf("  %s\n", payloadPath)
	fmt.Printf("  %s\n", csvPath)
	return nil
}

// mockForecast synthesizes plausible Berlin spring weather: a daily
// temperature sine wave, anti-correlated humidity, slow pressure drift, and
// a rain code on every 30th hour. Hour 100 has a null temperature to keep
// null handling exercised downstream.
func mockForecast(days int) domain.Forecast {
	hours := days * 24
	f := domain.Forecast{
		Latitude:  52.52,
		Longitude: 13.41,
		Timezone:  "Europe/Berlin",
	}

	for i := 0; i < hours; i++ {
		ts := baseDate.Add(time.Duration(i) * time.Hour)
		f.Hourly.Time = append(f.Hourly.Time, ts.Format("2006-01-02T15:04"))

		phase := 2 * math.Pi * float64(i%24) / 24
		temp := 8 + 6*math.Sin(phase-math.Pi/2)
		humidity := 70 - 15*math.Sin(phase-math.Pi/2)
		pressure := 1010 + 4*math.Sin(2*math.Pi*float64(i)/float64(hours))
		wind := 8 + 5*math.Abs(math.Sin(phase))

		if i == 100 {
			f.Hourly.Temperature = append(f.Hourly.Temperature, nil)
		} else {
			f.Hourly.Temperature = append(f.Hourly.Temperature, round1(temp))
		}
		f.Hourly.Humidity = append(f.Hourly.Humidity, round1(humidity))
		f.Hourly.Pressure = append(f.Hourly.Pressure, round1(pressure))
		f.Hourly.WindSpeed = append(f.Hourly.WindSpeed, round1(wind))

		code := 2
		if i%30 == 0 {
			code = 61
		}
		f.Hourly.WeatherCode = append(f.Hourly.WeatherCode, &code)
	}
	return f
}

func round1(v float64) *float64 {
	r := math.Round(v*10) / 10
	return &r
}
