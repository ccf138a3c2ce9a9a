// Package postgres implements the persistent store: the weather table with
// its (city, ts) uniqueness constraint, the weather_daily materialized view,
// and the read-only query surface consumed by the presentation layer.
package postgres

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"time"

	_ "github.com/lib/pq"

	"github.com/berlinbi/weather-etl-service/internal/domain"
)

// Store wraps a Postgres connection pool.
type Store struct {
	db     *sql.DB
	logger *slog.Logger
}

// Open connects to Postgres and verifies the connection.
func Open(ctx context.Context, dsn string, logger *slog.Logger) (*Store, error) {
	db, err := sql.Open("postgres", dsn)
	if err != nil {
		return nil, fmt.Errorf("open postgres: %w", err)
	}
	db.SetMaxOpenConns(5)
	db.SetConnMaxIdleTime(5 * time.Minute)

	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping postgres: %w", err)
	}
	return &Store{db: db, logger: logger}, nil
}

// NewStore wraps an existing connection, used by tests.
func NewStore(db *sql.DB, logger *slog.Logger) *Store {
	return &Store{db: db, logger: logger}
}

// Close releases the connection pool.
func (s *Store) Close() error {
	return s.db.Close()
}

// Ping reports store reachability for health checks.
func (s *Store) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

const createWeatherTable = `
CREATE TABLE IF NOT EXISTS weather (
    id           BIGSERIAL PRIMARY KEY,
    city         TEXT        NOT NULL,
    ts           TIMESTAMPTZ NOT NULL,
    temperature  DOUBLE PRECISION,
    humidity     DOUBLE PRECISION,
    pressure     DOUBLE PRECISION,
    wind_speed   DOUBLE PRECISION,
    weather_code INTEGER,
    source       TEXT,
    UNIQUE (city, ts)
)`

const createDailyView = `
CREATE MATERIALIZED VIEW IF NOT EXISTS weather_daily AS
SELECT city,
       date_trunc('day', ts) AS day,
       avg(temperature)      AS avg_temperature,
       min(temperature)      AS min_temperature,
       max(temperature)      AS max_temperature,
       avg(humidity)         AS avg_humidity,
       count(*)              AS samples
FROM weather
GROUP BY city, date_trunc('day', ts)`

// EnsureSchema creates the weather table and the daily aggregate view when
// they do not exist yet.
func (s *Store) EnsureSchema(ctx context.Context) error {
	if _, err := s.db.ExecContext(ctx, createWeatherTable); err != nil {
		return fmt.Errorf("create weather table: %w", err)
	}
	if _, err := s.db.ExecContext(ctx, createDailyView); err != nil {
		return fmt.Errorf("create weather_daily view: %w", err)
	}
	return nil
}

// upsertReading writes one row, overwriting every non-key column on a
// (city, ts) collision. id, city and ts are excluded from the update set.
const upsertReading = `
INSERT INTO weather (city, ts, temperature, humidity, pressure, wind_speed, weather_code, source)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
ON CONFLICT (city, ts) DO UPDATE SET
    temperature  = EXCLUDED.temperature,
    humidity     = EXCLUDED.humidity,
    pressure     = EXCLUDED.pressure,
    wind_speed   = EXCLUDED.wind_speed,
    weather_code = EXCLUDED.weather_code,
    source       = EXCLUDED.source`

// UpsertReadings writes the whole batch inside a single transaction: either
// every row commits or none do. Returns the number of rows processed.
func (s *Store) UpsertReadings(ctx context.Context, readings []domain.Reading) (int, error) {
	if len(readings) == 0 {
		return 0, nil
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("begin upsert tx: %w", err)
	}
	defer tx.Rollback()

	stmt, err := tx.PrepareContext(ctx, upsertReading)
	if err != nil {
		return 0, fmt.Errorf("prepare upsert: %w", err)
	}
	defer stmt.Close()

	for _, r := range readings {
		_, err := stmt.ExecContext(ctx,
			r.City,
			r.Timestamp.UTC(),
			nullFloat(r.Temperature),
			nullFloat(r.Humidity),
			nullFloat(r.Pressure),
			nullFloat(r.WindSpeed),
			nullInt(r.WeatherCode),
			nullString(r.Source),
		)
		if err != nil {
			return 0, fmt.Errorf("upsert reading %s/%s: %w", r.City, r.Timestamp.Format(time.RFC3339), err)
		}
	}

	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("commit upsert tx: %w", err)
	}
	return len(readings), nil
}

// RefreshDailyAggregates recomputes the weather_daily view from scratch.
func (s *Store) RefreshDailyAggregates(ctx context.Context) error {
	if _, err := s.db.ExecContext(ctx, "REFRESH MATERIALIZED VIEW weather_daily"); err != nil {
		return fmt.Errorf("refresh weather_daily: %w", err)
	}
	return nil
}

// ReadingsByCity returns all readings for a city ordered by timestamp.
func (s *Store) ReadingsByCity(ctx context.Context, city string) ([]domain.Reading, error) {
	rows, err := s.db.QueryContext(ctx, `
        SELECT city, ts, temperature, humidity, pressure, wind_speed, weather_code, source
        FROM weather
        WHERE city = $1
        ORDER BY ts`, city)
	if err != nil {
		return nil, fmt.Errorf("query readings: %w", err)
	}
	defer rows.Close()

	var readings []domain.Reading
	for rows.Next() {
		var (
			r           domain.Reading
			temperature sql.NullFloat64
			humidity    sql.NullFloat64
			pressure    sql.NullFloat64
			windSpeed   sql.NullFloat64
			weatherCode sql.NullInt64
			source      sql.NullString
		)
		if err := rows.Scan(&r.City, &r.Timestamp, &temperature, &humidity, &pressure, &windSpeed, &weatherCode, &source); err != nil {
			return nil, fmt.Errorf("scan reading: %w", err)
		}
		r.Timestamp = r.Timestamp.UTC()
		r.Temperature = floatPtr(temperature)
		r.Humidity = floatPtr(humidity)
		r.Pressure = floatPtr(pressure)
		r.WindSpeed = floatPtr(windSpeed)
		r.WeatherCode = intPtr(weatherCode)
		r.Source = source.String
		readings = append(readings, r)
	}
	return readings, rows.Err()
}

// DailyAggregates returns the derived per-day rollup for a city ordered by day.
func (s *Store) DailyAggregates(ctx context.Context, city string) ([]domain.DailyAggregate, error) {
	rows, err := s.db.QueryContext(ctx, `
        SELECT city, day, avg_temperature, min_temperature, max_temperature, avg_humidity, samples
        FROM weather_daily
        WHERE city = $1
        ORDER BY day`, city)
	if err != nil {
		return nil, fmt.Errorf("query daily aggregates: %w", err)
	}
	defer rows.Close()

	var aggregates []domain.DailyAggregate
	for rows.Next() {
		var (
			a       domain.DailyAggregate
			avgTemp sql.NullFloat64
			minTemp sql.NullFloat64
			maxTemp sql.NullFloat64
			avgHum  sql.NullFloat64
		)
		if err := rows.Scan(&a.City, &a.Day, &avgTemp, &minTemp, &maxTemp, &avgHum, &a.Samples); err != nil {
			return nil, fmt.Errorf("scan daily aggregate: %w", err)
		}
		a.Day = a.Day.UTC()
		a.AvgTemperature = floatPtr(avgTemp)
		a.MinTemperature = floatPtr(minTemp)
		a.MaxTemperature = floatPtr(maxTemp)
		a.AvgHumidity = floatPtr(avgHum)
		aggregates = append(aggregates, a)
	}
	return aggregates, rows.Err()
}

func nullFloat(v *float64) sql.NullFloat64 {
	if v == nil {
		return sql.NullFloat64{}
	}
	return sql.NullFloat64{Float64: *v, Valid: true}
}

func nullInt(v *int) sql.NullInt64 {
	if v == nil {
		return sql.NullInt64{}
	}
	return sql.NullInt64{Int64: int64(*v), Valid: true}
}

func nullString(v string) sql.NullString {
	if v == "" {
		return sql.NullString{}
	}
	return sql.NullString{String: v, Valid: true}
}

func floatPtr(v sql.NullFloat64) *float64 {
	if !v.Valid {
		return nil
	}
	f := v.Float64
	return &f
}

func intPtr(v sql.NullInt64) *int {
	if !v.Valid {
		return nil
	}
	n := int(v.Int64)
	return &n
}
