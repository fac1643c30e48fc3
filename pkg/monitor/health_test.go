package monitor

import (
	"testing"

	"github.com/hookpulse/hookpulse/pkg/model"
)

func checks(statuses ...model.CheckStatus) []model.MonitorCheck {
	var out []model.MonitorCheck
	for _, s := range statuses {
		out = append(out, model.MonitorCheck{Status: s})
	}
	return out
}

func TestUnhealthyRequiresFullWindowOfFailures(t *testing.T) {
	if !Unhealthy(checks(model.CheckFailed, model.CheckFailed, model.CheckFailed), 3) {
		t.Fatalf("expected three consecutive failures to be unhealthy")
	}
	if Unhealthy(checks(model.CheckFailed, model.CheckFailed, model.CheckSuccess), 3) {
		t.Fatalf("expected a success inside the window to be healthy")
	}
	if Unhealthy(checks(model.CheckSuccess, model.CheckFailed, model.CheckFailed), 3) {
		t.Fatalf("expected latest success to be healthy")
	}
}

func TestUnhealthyWithTooFewChecks(t *testing.T) {
	if Unhealthy(checks(model.CheckFailed, model.CheckFailed), 3) {
		t.Fatalf("expected fewer checks than the window to be healthy")
	}
	if Unhealthy(nil, 3) {
		t.Fatalf("expected no checks to be healthy")
	}
}

func TestUnhealthyOnlyLooksAtWindow(t *testing.T) {
	history := checks(model.CheckFailed, model.CheckFailed, model.CheckFailed, model.CheckSuccess, model.CheckSuccess)
	if !Unhealthy(history, 3) {
		t.Fatalf("expected the three newest failures to dominate older successes")
	}
}
