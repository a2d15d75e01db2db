// Package timezones resolves the optional "tz" parameter used when
// timestamps are rendered for a viewer.
package timezones

import (
	"errors"
	"strings"
	"time"
	_ "time/tzdata" // IANA database for hosts without zoneinfo
)

// ErrUnknownZone is returned for ids the IANA database does not know.
var ErrUnknownZone = errors.New("unknown time zone")

// Resolve returns the location for an IANA id such as "America/Chicago".
// Blank resolves to UTC.
func Resolve(id string) (*time.Location, error) {
	id = strings.TrimSpace(id)
	if id == "" || strings.EqualFold(id, "utc") {
		return time.UTC, nil
	}
	// LoadLocation also accepts "Local"; viewers never mean the server's zone.
	if id == "Local" {
		return nil, ErrUnknownZone
	}
	loc, err := time.LoadLocation(id)
	if err != nil {
		return nil, ErrUnknownZone
	}
	return loc, nil
}

// Valid reports whether id resolves.
func Valid(id string) bool {
	_, err := Resolve(id)
	return err == nil
}
