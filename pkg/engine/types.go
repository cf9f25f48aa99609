package engine

import "github.com/sentinelhaus/confd/pkg/validator"

type Severity string

const (
	SeverityError   Severity = "error"
	SeverityWarning Severity = "warning"
)

type Finding struct {
	Severity Severity
	Message  string
}

// ValidationResult maps dotted field paths to findings for the most recently
// validated draft. It is replaced wholesale on each completed round, never
// merged.
type ValidationResult map[string]Finding

// PathValidation is the synthetic path carrying the validator-unreachable
// warning. It never blocks a save.
const PathValidation = "$validation"

func (r ValidationResult) HasErrors() bool {
	for _, f := range r {
		if f.Severity == SeverityError {
			return true
		}
	}
	return false
}

func (r ValidationResult) ErrorCount() int {
	n := 0
	for _, f := range r {
		if f.Severity == SeverityError {
			n++
		}
	}
	return n
}

func (r ValidationResult) Copy() ValidationResult {
	if r == nil {
		return nil
	}
	out := make(ValidationResult, len(r))
	for path, f := range r {
		out[path] = f
	}
	return out
}

// resultFromReport flattens a validator report. An error and a warning on the
// same path collapse to the error.
func resultFromReport(rep *validator.Report) ValidationResult {
	result := make(ValidationResult, len(rep.Errors)+len(rep.Warnings))
	for path, msg := range rep.Warnings {
		result[path] = Finding{Severity: SeverityWarning, Message: msg}
	}
	for path, msg := range rep.Errors {
		result[path] = Finding{Severity: SeverityError, Message: msg}
	}
	return result
}

type SaveState string

const (
	SaveStateIdle       SaveState = "idle"
	SaveStateValidating SaveState = "validating"
	SaveStateSaving     SaveState = "saving"
)
