// Package clock abstracts wall-clock access so batch runs and tests can pin
// time.
package clock

import "time"

type Clock interface {
	Now() time.Time
}

type systemClock struct{}

func (systemClock) Now() time.Time {
	return time.Now().UTC()
}

// NewSystem returns a Clock backed by the system wall clock, in UTC.
func NewSystem() Clock {
	return systemClock{}
}
