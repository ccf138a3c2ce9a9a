// Package domain models Berlin weather readings and the rules for turning a
// raw fetch batch into storable rows.
//
// # Data Source
//
// Readings come from the Open-Meteo forecast API
// (https://api.open-meteo.com/v1/forecast), queried for a fixed coordinate
// with seven days of hourly history plus the current day. The response
// carries parallel arrays (time, temperature_2m, relative_humidity_2m,
// pressure_msl, wind_speed_10m, weathercode) indexed by hour offset.
//
// # Timestamp Conventions
//
// Open-Meteo returns naive local clock strings in the requested timezone,
// minute resolution: "2024-04-26T15:00". The fetch stage reformats them to
// "2024-04-26 15:00:00" for the interchange file; normalization parses them
// in the configured location and stores UTC instants.
//
// When a batch carries more than one timestamp-like column, the first match
// in the priority order ts, timestamp, time, datetime is renamed to the
// canonical "ts" and the rest are ignored.
//
// # Validation Policy
//
// A required column missing from the header fails the whole batch with a
// *SchemaError naming the column; nothing is written. A missing value inside
// a row is stored as NULL. A row whose timestamp (or a non-empty measurement)
// cannot be parsed is dropped and counted while processing continues; the
// dropped count is the only tolerated partial failure.
//
// # Weather Codes
//
// weathercode is a WMO categorical code denoting sky condition (0 clear,
// 1-3 cloudy, 51-67 rain, 71-77 snow, 95+ thunderstorm). It is stored as-is;
// interpretation belongs to the presentation layer.
package domain
