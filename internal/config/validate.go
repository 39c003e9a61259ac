package config

import (
	"fmt"
	"time"

	"github.com/robfig/cron/v3"
)

// ValidationError represents a single configuration problem.
type ValidationError struct {
	Field   string
	Message string
}

func (e ValidationError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

// ValidationErrors is a collection of validation errors.
type ValidationErrors []ValidationError

func (e ValidationErrors) Error() string {
	if len(e) == 0 {
		return ""
	}
	if len(e) == 1 {
		return e[0].Error()
	}
	msg := fmt.Sprintf("%d validation errors:", len(e))
	for _, err := range e {
		msg += "\n  - " + err.Error()
	}
	return msg
}

// Validate checks the configuration. Returns nil if valid, or
// ValidationErrors describing every problem found.
func (c *Config) Validate() error {
	var errs ValidationErrors

	if _, err := time.LoadLocation(c.Timezone); err != nil {
		errs = append(errs, ValidationError{
			Field:   "timezone",
			Message: fmt.Sprintf("unknown IANA zone %q", c.Timezone),
		})
	}

	if _, err := cron.ParseStandard(c.RefreshCron); err != nil {
		errs = append(errs, ValidationError{
			Field:   "refresh",
			Message: fmt.Sprintf("invalid cron expression %q: %v", c.RefreshCron, err),
		})
	}

	switch c.Storage.Backend {
	case "json":
	case "sqlite", "postgres":
		if c.Storage.DSN == "" {
			errs = append(errs, ValidationError{
				Field:   "storage.dsn",
				Message: fmt.Sprintf("required for backend %q", c.Storage.Backend),
			})
		}
	default:
		errs = append(errs, ValidationError{
			Field:   "storage.backend",
			Message: fmt.Sprintf("unknown backend %q (expected json, sqlite or postgres)", c.Storage.Backend),
		})
	}

	seen := make(map[string]bool, len(c.Services))
	for i, s := range c.Services {
		field := fmt.Sprintf("services[%d]", i)
		if err := s.Validate(); err != nil {
			errs = append(errs, ValidationError{Field: field, Message: err.Error()})
		}
		if s.ID == "" {
			errs = append(errs, ValidationError{Field: field + ".id", Message: "required"})
		} else if seen[s.ID] {
			errs = append(errs, ValidationError{Field: field + ".id", Message: fmt.Sprintf("duplicate id %q", s.ID)})
		}
		seen[s.ID] = true
	}

	// Overlapping special events are allowed; list order is the
	// documented tiebreak. Only structurally broken entries are rejected.
	for i, sp := range c.SpecialEvents {
		if err := sp.Validate(); err != nil {
			errs = append(errs, ValidationError{
				Field:   fmt.Sprintf("special_events[%d]", i),
				Message: err.Error(),
			})
		}
	}

	if len(errs) > 0 {
		return errs
	}
	return nil
}
