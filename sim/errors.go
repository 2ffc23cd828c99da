package sim

import (
	"errors"
	"fmt"
)

// ErrConfig marks every configuration error.
var ErrConfig = errors.New("configuration error")

// ConfigError is a facility configuration rejected before the simulation runs.
type ConfigError struct {
	Prototype string
	Err       error
}

// ConfigErrorf builds a ConfigError for prototype from a format string.
func ConfigErrorf(prototype, format string, args ...any) *ConfigError {
	return &ConfigError{Prototype: prototype, Err: fmt.Errorf(format, args...)}
}

func (e *ConfigError) Error() string {
	return fmt.Sprintf("%s in %s: %v", ErrConfig, e.Prototype, e.Err)
}

// Unwrap exposes both ErrConfig and the underlying cause to errors.Is.
func (e *ConfigError) Unwrap() []error {
	return []error{ErrConfig, e.Err}
}

// StepError is a fatal failure during a simulation step.
type StepError struct {
	Prototype string
	AgentID   int
	Time      int
	Phase     string // enter, tick, trade, tock
	Err       error
}

func (e *StepError) Error() string {
	return fmt.Sprintf("[t %04d] %s %s (id %d): %v", e.Time, e.Phase, e.Prototype, e.AgentID, e.Err)
}

func (e *StepError) Unwrap() error { return e.Err }
