package storage

// parseError represents a document that could not be decoded.
type parseError struct {
	msg string
}

func (e *parseError) Error() string {
	return e.msg
}
