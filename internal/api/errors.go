package api

import "fmt"

// AuthError means the server rejected the caller's credentials.
type AuthError struct {
	Detail string
}

func (e *AuthError) Error() string {
	if e.Detail == "" {
		return "authentication failed"
	}
	return e.Detail
}

// RegistrationError is a conflict or validation rejection from the register
// endpoint (duplicate username, invalid email, ...). Detail is the server's
// message verbatim.
type RegistrationError struct {
	Detail string
}

func (e *RegistrationError) Error() string {
	if e.Detail == "" {
		return "registration failed"
	}
	return e.Detail
}

// NetworkError wraps a transport-level failure (connection refused, timeout).
type NetworkError struct {
	Err error
}

func (e *NetworkError) Error() string {
	return fmt.Sprintf("network error: %v", e.Err)
}

func (e *NetworkError) Unwrap() error { return e.Err }

// ServerError is any other non-2xx response.
type ServerError struct {
	Status int
	Detail string
}

func (e *ServerError) Error() string {
	if e.Detail == "" {
		return fmt.Sprintf("server error (status %d)", e.Status)
	}
	return fmt.Sprintf("%s (status %d)", e.Detail, e.Status)
}

// ValidationError is a client-side form check failure, raised before any
// request is dispatched.
type ValidationError struct {
	Detail string
}

func (e *ValidationError) Error() string { return e.Detail }
