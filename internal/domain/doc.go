// Package domain models NYC Motor Vehicle Collisions crash records and the
// pure operations the dashboard runs over them.
//
// # Data Source
//
// Records come from the NYPD Motor Vehicle Collisions - Crashes table published
// on NYC Open Data (https://data.cityofnewyork.us/d/h9gi-nx95). Each row is one
// police-reported crash (form MV104-AN). The table is exported as CSV; the
// loader in internal/adapter/csvfile turns rows into [Record] values.
//
// # Conventions
//
// Coordinates:
//
//	LATITUDE and LONGITUDE are WGS-84 degrees. Many rows leave them blank, and
//	some carry 0 as an "unset" sentinel. Loaded record sets never contain
//	either: a [RecordSet] guarantees non-null coordinates and latitude != 0.
//
// Timestamps:
//
//	CRASH DATE and CRASH TIME are combined into one wall-clock timestamp. The
//	source has no zone; the value is kept as UTC so Hour and Minute match the
//	digits in the file. A row whose date or time is blank or unparsable keeps a
//	nil Timestamp and is only visible in "all day" views.
//
// Injury counts:
//
//	NUMBER OF {PERSONS,PEDESTRIANS,CYCLIST,MOTORIST} INJURED are non-negative
//	integers. Blank or invalid values stay nil rather than becoming 0. A nil
//	PersonsInjured never satisfies a minimum-injured threshold, including a
//	threshold of 0.
//
// # Immutability
//
// A RecordSet is never modified after construction. [Filter] and
// [TopStreets] return fresh values, so callers can share one loaded set
// across concurrent requests without locking.
package domain
