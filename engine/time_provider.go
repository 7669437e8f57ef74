package engine

import (
	"time"

	"github.com/lixenwraith/soundscape/core"
)

// Clock is the control-plane time source
// Scheduling goes through AfterFunc so tests can drive ticks deterministically
type Clock interface {
	Now() time.Time
	AfterFunc(d time.Duration, fn func()) Timer
}

// Timer is a pending AfterFunc callback
type Timer interface {
	// Stop prevents the callback from firing; false if it already fired or was stopped
	Stop() bool
}

// TimeProvider provides the real system time with monotonic clock readings
type TimeProvider struct{}

// NewTimeProvider creates a new monotonic time provider
func NewTimeProvider() *TimeProvider {
	return &TimeProvider{}
}

// Now returns the current time with monotonic clock reading
func (p *TimeProvider) Now() time.Time {
	return time.Now()
}

// AfterFunc runs fn on its own goroutine after d
// A panic escaping fn goes through the crash handler so the terminal is restored
func (p *TimeProvider) AfterFunc(d time.Duration, fn func()) Timer {
	return time.AfterFunc(d, func() {
		defer func() {
			if r := recover(); r != nil {
				core.HandleCrash(r)
			}
		}()
		fn()
	})
}
