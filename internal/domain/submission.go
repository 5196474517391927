package domain

type SubmissionStatus string

const (
	SubmissionIdle       SubmissionStatus = "IDLE"
	SubmissionSubmitting SubmissionStatus = "SUBMITTING"
	SubmissionSucceeded  SubmissionStatus = "SUCCEEDED"
	SubmissionFailed     SubmissionStatus = "FAILED"
)

var submissionTransitions = map[SubmissionStatus][]SubmissionStatus{
	SubmissionIdle:       {SubmissionSubmitting},
	SubmissionSubmitting: {SubmissionSucceeded, SubmissionFailed},
	SubmissionSucceeded:  {SubmissionSubmitting},
	SubmissionFailed:     {SubmissionSubmitting},
}

// CanTransitionTo reports whether from -> to is a legal submission step.
func CanTransitionTo(from, to SubmissionStatus) bool {
	for _, next := range submissionTransitions[from] {
		if next == to {
			return true
		}
	}
	return false
}

func (s SubmissionStatus) InFlight() bool {
	return s == SubmissionSubmitting
}

// String representation (for logging)
func (s SubmissionStatus) String() string {
	return string(s)
}
