package services

import "github.com/barterdesk/barterdesk/internal/client/session"

// StatusKind enumerates the states of the authentication workflow.
type StatusKind int

const (
	// StatusStart is the pristine form, before any edit.
	StatusStart StatusKind = iota
	// StatusValidating means fields are being edited and checked locally.
	StatusValidating
	// StatusLoading means a submission is in flight. At most one submission
	// is in flight per controller.
	StatusLoading
	// StatusSuccess means authentication completed and the session record
	// was persisted. The presentation layer should proceed past the form.
	StatusSuccess
	// StatusFailed means the attempt ended with a user-facing message.
	// Editing any field clears it back to StatusValidating.
	StatusFailed
)

func (k StatusKind) String() string {
	switch k {
	case StatusStart:
		return "start"
	case StatusValidating:
		return "validating"
	case StatusLoading:
		return "loading"
	case StatusSuccess:
		return "success"
	case StatusFailed:
		return "failed"
	default:
		return "unknown"
	}
}

// Status is the observable state of a SessionController. Record is populated
// only for StatusSuccess; Message only (and always) for StatusFailed.
type Status struct {
	Kind    StatusKind
	Record  session.Record
	Message string
}

// Terminal reports whether the status concludes a submission attempt.
func (s Status) Terminal() bool {
	return s.Kind == StatusSuccess || s.Kind == StatusFailed
}
