package backend

import "fmt"

// TransportError means the exchange itself failed: the request never completed, the body
// could not be decoded, or the status was non-2xx without an error payload.
type TransportError struct {
	Op  string
	Err error
}

func (e *TransportError) Error() string {
	return fmt.Sprintf("%s: %v", e.Op, e.Err)
}

func (e *TransportError) Unwrap() error {
	return e.Err
}

// ApplicationError is an error message reported by the backend in its JSON body.
type ApplicationError struct {
	StatusCode int
	Message    string
}

func (e *ApplicationError) Error() string {
	return e.Message
}
