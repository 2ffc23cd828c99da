package sim

import (
	"fmt"

	"github.com/google/uuid"
)

// DefaultDt is one month in seconds.
const DefaultDt int64 = 2629846

// Config groups run-level simulation parameters.
type Config struct {
	Duration int       // number of steps (must be > 0)
	Dt       int64     // seconds per step (0 = DefaultDt)
	SimID    uuid.UUID // zero value = generate a new id
}

// Validate checks parameter ranges.
func (c Config) Validate() error {
	if c.Duration <= 0 {
		return fmt.Errorf("duration must be positive, got %d", c.Duration)
	}
	if c.Dt < 0 {
		return fmt.Errorf("dt must be non-negative, got %d", c.Dt)
	}
	return nil
}
