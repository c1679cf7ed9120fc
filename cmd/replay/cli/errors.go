package cli

// SilentError wraps an error whose message was already printed by the
// command. main checks for it to avoid printing the same error twice.
type SilentError struct {
	err error
}

// NewSilentError wraps an error as already-reported.
func NewSilentError(err error) *SilentError {
	return &SilentError{err: err}
}

func (e *SilentError) Error() string {
	return e.err.Error()
}

func (e *SilentError) Unwrap() error {
	return e.err
}
