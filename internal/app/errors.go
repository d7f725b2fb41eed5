package app

import "fmt"

// DomainError is a service-level failure that carries its own HTTP shape:
// mapError in http.go turns it into a status code, a stable machine-readable
// code, and a caller-facing message. Anything else the service returns maps
// to a generic 500.
type DomainError struct {
	Status  int
	Code    string
	Message string
	Details any
}

func (e *DomainError) Error() string {
	if e == nil {
		return ""
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

func domainError(status int, code, message string, details any) *DomainError {
	return &DomainError{
		Status:  status,
		Code:    code,
		Message: message,
		Details: details,
	}
}
