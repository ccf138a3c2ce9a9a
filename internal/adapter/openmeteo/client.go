package openmeteo

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/berlinbi/weather-etl-service/internal/config"
	"github.com/berlinbi/weather-etl-service/internal/domain"
)

// Client fetches hourly forecasts from the Open-Meteo API. One request covers
// the whole window (PastDays back, ForecastDays forward); a non-2xx status or
// network failure fails the fetch outright, with no retry. The operation is
// idempotent and re-triggerable, so retrying is left to the caller's schedule.
type Client struct {
	baseURL      string
	latitude     float64
	longitude    float64
	pastDays     int
	forecastDays int
	timezone     string
	httpClient   *http.Client
	logger       *slog.Logger
}

// NewClient creates an Open-Meteo client from service configuration.
func NewClient(cfg *config.Config, logger *slog.Logger) *Client {
	return &Client{
		baseURL:      cfg.OpenMeteoURL,
		latitude:     cfg.Latitude,
		longitude:    cfg.Longitude,
		pastDays:     cfg.PastDays,
		forecastDays: cfg.ForecastDays,
		timezone:     cfg.Timezone,
		httpClient: &http.Client{
			Timeout: cfg.FetchTimeout,
		},
		logger: logger,
	}
}

// hourlyVariables are the measurement columns requested from the API, in the
// order they map onto the interchange file.
const hourlyVariables = "temperature_2m,relative_humidity_2m,pressure_msl,wind_speed_10m,weathercode"

// FetchForecast issues the forecast request and decodes the hourly arrays.
func (c *Client) FetchForecast(ctx context.Context) (domain.Forecast, error) {
	params := url.Values{
		"latitude":      {strconv.FormatFloat(c.latitude, 'f', -1, 64)},
		"longitude":     {strconv.FormatFloat(c.longitude, 'f', -1, 64)},
		"hourly":        {hourlyVariables},
		"past_days":     {strconv.Itoa(c.pastDays)},
		"forecast_days": {strconv.Itoa(c.forecastDays)},
		"timezone":      {c.timezone},
	}

	fullURL := c.baseURL + "?" + params.Encode()
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, fullURL, nil)
	if err != nil {
		return domain.Forecast{}, fmt.Errorf("create request: %w", err)
	}

	start := time.Now()
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return domain.Forecast{}, fmt.Errorf("forecast request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return domain.Forecast{}, fmt.Errorf("open-meteo API error: status %d: %s", resp.StatusCode, body)
	}

	var forecast domain.Forecast
	if err := json.NewDecoder(resp.Body).Decode(&forecast); err != nil {
		return domain.Forecast{}, fmt.Errorf("decode forecast: %w", err)
	}

	c.logger.Debug("forecast fetched",
		"hours", len(forecast.Hourly.Time),
		"duration", time.Since(start),
	)
	return forecast, nil
}
