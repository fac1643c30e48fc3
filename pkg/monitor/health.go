package monitor

import "github.com/hookpulse/hookpulse/pkg/model"

// Unhealthy reports whether the window most recent checks (newest first)
// are all failures. Fewer checks than the window means the monitor has not
// earned an unhealthy verdict yet.
func Unhealthy(checks []model.MonitorCheck, window int) bool {
	if window <= 0 {
		window = 3
	}
	if len(checks) < window {
		return false
	}
	for _, check := range checks[:window] {
		if check.Status != model.CheckFailed {
			return false
		}
	}
	return true
}
