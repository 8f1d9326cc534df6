package http

import "fmt"

// AppError carries a machine-readable code alongside the HTTP status
// it should map to. Handlers build one per failure mode and hand it to
// AppErrorResponse.
type AppError struct {
	Code    string                 `json:"code"`
	Message string                 `json:"message"`
	Field   string                 `json:"field,omitempty"`
	Params  map[string]interface{} `json:"params,omitempty"`
	Status  int                    `json:"-"`
	Err     error                  `json:"-"`
}

func NewAppError(code, message string, status int) *AppError {
	return &AppError{Code: code, Message: message, Status: status}
}

// WithField names the request field the error is about.
func (e *AppError) WithField(field string) *AppError {
	e.Field = field
	return e
}

func (e *AppError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

func (e *AppError) Unwrap() error { return e.Err }

// WithParam attaches one detail value to the error payload.
func (e *AppError) WithParam(key string, value interface{}) *AppError {
	if e.Params == nil {
		e.Params = make(map[string]interface{})
	}
	e.Params[key] = value
	return e
}

// WithError records the underlying cause without exposing it to the
// client.
func (e *AppError) WithError(err error) *AppError {
	e.Err = err
	return e
}
