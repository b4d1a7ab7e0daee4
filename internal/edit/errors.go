package edit

import "errors"

var (
	// ErrBusy is returned when a submission arrives while another is in flight.
	// Nothing was changed; callers usually just show it as a status.
	ErrBusy = errors.New("a submission is already in progress")

	// ErrEmptyInstruction is returned for blank instructions.
	ErrEmptyInstruction = errors.New("instruction is empty")
)

// CollaboratorFailure reports a failed reasoning round trip. Message is the
// collaborator's error text, unchanged, for display.
type CollaboratorFailure struct {
	Message string
	Err     error
}

func (e *CollaboratorFailure) Error() string {
	return e.Message
}

func (e *CollaboratorFailure) Unwrap() error {
	return e.Err
}
