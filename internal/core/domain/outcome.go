package domain

// Policy holds the switches that steer reconciliation.
type Policy struct {
	Force           bool
	All             bool
	ExtractOnly     bool
	ContinueOnError bool
}

// Decision is what the policy wants done for one spec/device pair, before any
// collaborator is called.
type Decision int

const (
	DecisionInstall Decision = iota
	DecisionSkipExistingDriver
	DecisionSkipNoDevice
)

func (d Decision) String() string {
	switch d {
	case DecisionInstall:
		return "install"
	case DecisionSkipExistingDriver:
		return "skip-existing-driver"
	case DecisionSkipNoDevice:
		return "skip-no-device"
	default:
		return "unknown"
	}
}

type Action string

const (
	ActionInstalled             Action = "INSTALLED"
	ActionSkippedExistingDriver Action = "SKIPPED_EXISTING_DRIVER"
	ActionSkippedNoDevice       Action = "SKIPPED_NO_DEVICE"
	ActionPreparedAborted       Action = "PREPARED_ABORTED"
	ActionFailed                Action = "FAILED"
)

func (a Action) String() string {
	return string(a)
}

// IsFailure reports whether the action makes the run exit non-zero.
func (a Action) IsFailure() bool {
	return a == ActionFailed || a == ActionPreparedAborted
}

// SpecResult records what happened to one spec, or to one matched device of a spec.
type SpecResult struct {
	Spec   DriverSpec
	Device *AttachedDevice
	Action Action
	Err    error
}

// RunOutcome accumulates results in catalog order.
type RunOutcome struct {
	Results []SpecResult
	// Halted is set when the run stopped before the end of the catalog.
	Halted  bool
	HaltErr error
}

func (o *RunOutcome) Add(result SpecResult) {
	o.Results = append(o.Results, result)
}

func (o *RunOutcome) Halt(err error) {
	o.Halted = true
	o.HaltErr = err
}

// Actions lists the recorded actions in order.
func (o RunOutcome) Actions() []Action {
	actions := make([]Action, len(o.Results))
	for i, r := range o.Results {
		actions[i] = r.Action
	}
	return actions
}

func (o RunOutcome) Counts() map[Action]int {
	counts := make(map[Action]int)
	for _, r := range o.Results {
		counts[r.Action]++
	}
	return counts
}

func (o RunOutcome) HasFailures() bool {
	for _, r := range o.Results {
		if r.Action.IsFailure() {
			return true
		}
	}
	return false
}

// ExitCode is 0 unless the run halted or recorded a failure. Skips are not failures.
func (o RunOutcome) ExitCode() int {
	if o.Halted || o.HasFailures() {
		return 1
	}
	return 0
}
