package models

import (
	"strings"
)

// ValidationError reports a malformed search filter. It is raised before any
// network call and is never retried.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	if e.Field == "" {
		return e.Message
	}
	return e.Field + ": " + e.Message
}

// ValidationErrors collects every problem found in one filter value.
type ValidationErrors []*ValidationError

func (v ValidationErrors) Error() string {
	msgs := make([]string, 0, len(v))
	for _, e := range v {
		msgs = append(msgs, e.Error())
	}
	return strings.Join(msgs, "; ")
}

func (v ValidationErrors) Unwrap() []error {
	errs := make([]error, 0, len(v))
	for _, e := range v {
		errs = append(errs, e)
	}
	return errs
}

// FieldErrors groups messages by field name, the shape REST clients receive.
func (v ValidationErrors) FieldErrors() map[string][]string {
	out := make(map[string][]string, len(v))
	for _, e := range v {
		field := e.Field
		if field == "" {
			field = "filters"
		}
		out[field] = append(out[field], e.Message)
	}
	return out
}

func (v *ValidationErrors) add(field, message string) {
	*v = append(*v, &ValidationError{Field: field, Message: message})
}

func (v ValidationErrors) orNil() error {
	if len(v) == 0 {
		return nil
	}
	return v
}
