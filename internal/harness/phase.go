package harness

import "fmt"

// Phase is the state of a Harness.
type Phase string

const (
	PhaseIdle           Phase = "idle"
	PhaseHealthChecking Phase = "health_checking"
	PhaseProvisioning   Phase = "provisioning"
	PhaseLoadTesting    Phase = "load_testing"
	PhaseReporting      Phase = "reporting"
	PhaseAborted        Phase = "aborted"
)

// AbortError reports the phase that stopped a run.
type AbortError struct {
	Phase Phase
	Err   error
}

func (e *AbortError) Error() string {
	return fmt.Sprintf("run aborted during %s: %v", e.Phase, e.Err)
}

func (e *AbortError) Unwrap() error {
	return e.Err
}
