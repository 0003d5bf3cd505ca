// Package domain models daily weather and snow observations for alpine ski regions.
//
// # Data Source
//
// Observations arrive as a flat table with one row per region, country and day. The
// ingestion adapters (CSV file, remote CSV, SQLite, Postgres) map their columns onto
// [Observation] and record which columns were present in a [ColumnSet]. A missing
// column disables every computation that depends on it; a present column with an
// empty cell is a missing reading for that row only.
//
// # Column Conventions
//
//	date              day of the reading (time of day is ignored)
//	region            ski region or resort area, trimmed; blank means unknown
//	country           canonicalized by [CanonicalCountry]
//	temperature_c     daily mean air temperature, degrees Celsius
//	precipitation_mm  daily precipitation, millimetres
//	snow_depth_cm     snow depth on the ground, centimetres
//	wind_beaufort     daily mean wind, Beaufort scale (0-12)
//	elevation_m       station elevation, metres
//	new_snow_cm       derived by [DeriveNewSnow], never negative
//
// # New Snow
//
// Fresh snow is not measured directly. It is inferred from day-over-day increases in
// snow depth, accepted only when the weather makes snowfall plausible:
//
//	temperature <= 2.5 °C on either day, or
//	precipitation >= 2.0 mm on either day
//
// A column that is absent from the dataset satisfies its check. Deltas are taken
// between chronologically adjacent rows that carry a depth reading, regardless of how
// many days lie between them; gaps are not interpolated.
//
// # Countries
//
// Country strings are folded to a fixed set of display names. ISO 3166 alpha-2 and
// alpha-3 codes and local-language names collapse to the English name:
//
//	AT, AUT, Österreich  →  Austria
//	CH, CHE, Schweiz     →  Switzerland
//
// Unrecognized strings pass through trimmed.
package domain
