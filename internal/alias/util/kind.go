package util

// WithKind tags err with the sentinel kind. Both the standard errors.Is and
// cockroachdb's errors.Is report kind as well as every error in err's own
// chain. The message is err's.
func WithKind(err, kind error) error {
	if err == nil {
		return nil
	}
	return &kindError{cause: err, kind: kind}
}

type kindError struct {
	cause error
	kind  error
}

func (e *kindError) Error() string   { return e.cause.Error() }
func (e *kindError) Unwrap() []error { return []error{e.cause, e.kind} }
