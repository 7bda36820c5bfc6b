package config

import (
	"fmt"
	"net"
	"regexp"
	"strconv"
	"time"

	"github.com/packscale/packscale/internal/aggregation"
)

var offsetPattern = regexp.MustCompile(`^([+-])(\d{2}):(\d{2})$`)

// GetServerAddress returns the HTTP listen address
func (c *Config) GetServerAddress() string {
	return net.JoinHostPort(c.Server.Host, strconv.Itoa(c.Server.HTTPPort))
}

// IsDevelopment returns true if running in development mode
func (c *Config) IsDevelopment() bool {
	return c.Logging.Level == "debug" && c.Logging.Format == "console"
}

// Location returns the engine timezone, UTC if unset or invalid
func (c *EngineConfig) Location() *time.Location {
	loc, err := ParseTimezone(c.Timezone)
	if err != nil {
		return time.UTC
	}
	return loc
}

// WeekStartDay returns the configured first day of the week
func (c *EngineConfig) WeekStartDay() time.Weekday {
	d, err := aggregation.ParseWeekStart(c.WeekStart)
	if err != nil {
		return time.Sunday
	}
	return d
}

// ParseTimezone parses a timezone. Supported formats:
//   - IANA timezone names: "America/Sao_Paulo", "Europe/Lisbon", "UTC"
//   - Offset format: "-03:00", "+09:00", "+00:00"
//
// An empty string means UTC.
func ParseTimezone(tz string) (*time.Location, error) {
	if tz == "" {
		return time.UTC, nil
	}
	if loc, err := time.LoadLocation(tz); err == nil {
		return loc, nil
	}
	if loc, err := parseOffsetTimezone(tz); err == nil {
		return loc, nil
	}
	return nil, fmt.Errorf("invalid timezone %q", tz)
}

// parseOffsetTimezone parses timezone offset format like "+09:00", "-05:00"
func parseOffsetTimezone(offset string) (*time.Location, error) {
	matches := offsetPattern.FindStringSubmatch(offset)
	if len(matches) != 4 {
		return nil, fmt.Errorf("invalid offset format: %s", offset)
	}

	sign := 1
	if matches[1] == "-" {
		sign = -1
	}

	hours, _ := strconv.Atoi(matches[2])
	minutes, _ := strconv.Atoi(matches[3])
	if hours > 14 || minutes > 59 {
		return nil, fmt.Errorf("offset out of range: %s", offset)
	}

	return time.FixedZone(offset, sign*(hours*3600+minutes*60)), nil
}
