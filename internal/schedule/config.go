package schedule

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"
)

// Config is the automatic-calling window: a daily time range, the weekdays it
// applies to, and the timezone those are interpreted in.
//
// Lifecycle: loaded on view-open, mutated only via an explicit save, compared
// against the last-saved snapshot to compute a dirty flag.
type Config struct {
	StartTime       string   `json:"startTime"` // "HH:MM", 24h
	EndTime         string   `json:"endTime"`   // "HH:MM", 24h
	ActiveDays      []string `json:"activeDays"`
	Timezone        string   `json:"timezone"` // IANA name
	AutoCallEnabled bool     `json:"autoCallEnabled"`
}

var ErrInvalidConfig = errors.New("schedule: invalid config")

// canonicalDays maps lowercased day names and common short forms to the
// canonical spelling.
var canonicalDays = map[string]string{
	"monday": "Monday", "mon": "Monday",
	"tuesday": "Tuesday", "tue": "Tuesday",
	"wednesday": "Wednesday", "wed": "Wednesday",
	"thursday": "Thursday", "thu": "Thursday",
	"friday": "Friday", "fri": "Friday",
	"saturday": "Saturday", "sat": "Saturday",
	"sunday": "Sunday", "sun": "Sunday",
}

var weekOrder = []string{"Monday", "Tuesday", "Wednesday", "Thursday", "Friday", "Saturday", "Sunday"}

// Normalize returns a copy with day names coerced to the canonical
// case-insensitive set, deduplicated, in week order. Unknown names are kept
// as-is so Validate can report them.
func (c Config) Normalize() Config {
	out := c
	seen := make(map[string]bool, len(c.ActiveDays))
	var unknown []string
	for _, d := range c.ActiveDays {
		canon, ok := canonicalDays[strings.ToLower(strings.TrimSpace(d))]
		if !ok {
			unknown = append(unknown, d)
			continue
		}
		seen[canon] = true
	}
	days := make([]string, 0, len(seen))
	for _, d := range weekOrder {
		if seen[d] {
			days = append(days, d)
		}
	}
	out.ActiveDays = append(days, unknown...)
	out.Timezone = strings.TrimSpace(c.Timezone)
	out.StartTime = strings.TrimSpace(c.StartTime)
	out.EndTime = strings.TrimSpace(c.EndTime)
	return out
}

// Validate checks a config at save time.
// An overnight range (end before start) is rejected rather than wrapped past
// midnight: wrapping would silently change dialing behavior for existing
// configs, and the operator can express the intent with two windows.
func (c Config) Validate() error {
	start, err := parseMinutes(c.StartTime)
	if err != nil {
		return fmt.Errorf("%w: startTime: %v", ErrInvalidConfig, err)
	}
	end, err := parseMinutes(c.EndTime)
	if err != nil {
		return fmt.Errorf("%w: endTime: %v", ErrInvalidConfig, err)
	}
	if start >= end {
		return fmt.Errorf("%w: startTime must be before endTime within the same day", ErrInvalidConfig)
	}
	for _, d := range c.ActiveDays {
		if _, ok := canonicalDays[strings.ToLower(strings.TrimSpace(d))]; !ok {
			return fmt.Errorf("%w: unknown day %q", ErrInvalidConfig, d)
		}
	}
	if c.Timezone == "" {
		return fmt.Errorf("%w: timezone is required", ErrInvalidConfig)
	}
	if _, err := time.LoadLocation(c.Timezone); err != nil {
		return fmt.Errorf("%w: timezone %q: %v", ErrInvalidConfig, c.Timezone, err)
	}
	return nil
}

// Equal implements dirty-state detection: set-equality on ActiveDays
// (order-insensitive) and field equality elsewhere.
func (c Config) Equal(other Config) bool {
	if c.StartTime != other.StartTime ||
		c.EndTime != other.EndTime ||
		c.Timezone != other.Timezone ||
		c.AutoCallEnabled != other.AutoCallEnabled {
		return false
	}
	return daySet(c.ActiveDays).equal(daySet(other.ActiveDays))
}

type set map[string]bool

func daySet(days []string) set {
	s := make(set, len(days))
	for _, d := range days {
		if canon, ok := canonicalDays[strings.ToLower(strings.TrimSpace(d))]; ok {
			s[canon] = true
		} else {
			s[d] = true
		}
	}
	return s
}

func (s set) equal(other set) bool {
	if len(s) != len(other) {
		return false
	}
	for k := range s {
		if !other[k] {
			return false
		}
	}
	return true
}

// IsWithinWindow reports whether the instant falls inside the configured
// automatic-calling window. It only answers the query; the consumer of the
// answer drives any dialing.
func IsWithinWindow(instant time.Time, c Config) bool {
	if !c.AutoCallEnabled {
		return false
	}
	loc, err := time.LoadLocation(c.Timezone)
	if err != nil {
		return false
	}
	local := instant.In(loc)

	if !daySet(c.ActiveDays)[local.Weekday().String()] {
		return false
	}

	start, err := parseMinutes(c.StartTime)
	if err != nil {
		return false
	}
	end, err := parseMinutes(c.EndTime)
	if err != nil {
		return false
	}
	minute := local.Hour()*60 + local.Minute()
	return minute >= start && minute < end
}

// parseMinutes converts "HH:MM" to minutes since midnight.
func parseMinutes(v string) (int, error) {
	parts := strings.Split(strings.TrimSpace(v), ":")
	if len(parts) != 2 {
		return 0, fmt.Errorf("expected HH:MM, got %q", v)
	}
	h, err := strconv.Atoi(parts[0])
	if err != nil || h < 0 || h > 23 {
		return 0, fmt.Errorf("invalid hour in %q", v)
	}
	m, err := strconv.Atoi(parts[1])
	if err != nil || m < 0 || m > 59 {
		return 0, fmt.Errorf("invalid minute in %q", v)
	}
	return h*60 + m, nil
}

// Default is the configuration used before an operator has saved one.
func Default() Config {
	return Config{
		StartTime:       "09:00",
		EndTime:         "17:00",
		ActiveDays:      []string{"Monday", "Tuesday", "Wednesday", "Thursday", "Friday"},
		Timezone:        "UTC",
		AutoCallEnabled: false,
	}
}
