package app

import (
	"errors"
	"fmt"
	"time"

	"github.com/go-playground/validator/v10"
)

// Config holds all the necessary configuration for an App instance to run.
type Config struct {
	TopologyPath string `validate:"required"`
	Variables    []string

	LogFormat       string `validate:"oneof=text json"`
	LogLevel        string `validate:"oneof=debug info warn error"`
	HealthcheckPort int    `validate:"min=0,max=65535"`

	// CheckOnly validates the topology, prints the report and stops.
	CheckOnly bool
	// Duration bounds a run. Zero runs until the context is cancelled.
	Duration    time.Duration `validate:"min=0"`
	Parallelism int           `validate:"min=0"`

	// EventsURL is the socket.io endpoint node events are forwarded to.
	EventsURL    string        `validate:"omitempty,url"`
	PollInterval time.Duration `validate:"min=0"`
	Probe        bool

	Seed       uint64
	RelayDelay time.Duration `validate:"min=0"`
	ContentDir string        `validate:"omitempty,dir"`
}

var configValidator = validator.New()

// NewConfig fills defaults and validates cfg.
func NewConfig(cfg Config) (*Config, error) {
	if cfg.LogFormat == "" {
		cfg.LogFormat = "text"
	}
	if cfg.LogLevel == "" {
		cfg.LogLevel = "info"
	}
	if err := configValidator.Struct(&cfg); err != nil {
		return nil, formatValidationError(err)
	}
	return &cfg, nil
}

func formatValidationError(err error) error {
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return err
	}

	errs := make([]error, 0, len(verrs))
	for _, e := range verrs {
		switch e.Tag() {
		case "required":
			errs = append(errs, fmt.Errorf("%s is a required configuration field and cannot be empty", e.Field()))
		case "oneof":
			errs = append(errs, fmt.Errorf("%s must be one of [%s], got '%v'", e.Field(), e.Param(), e.Value()))
		case "min", "max":
			errs = append(errs, fmt.Errorf("%s must be %s %s, got %v", e.Field(), bound(e.Tag()), e.Param(), e.Value()))
		default:
			errs = append(errs, fmt.Errorf("%s failed the '%s' check, got '%v'", e.Field(), e.Tag(), e.Value()))
		}
	}
	return errors.Join(errs...)
}

func bound(tag string) string {
	if tag == "min" {
		return "at least"
	}
	return "at most"
}
