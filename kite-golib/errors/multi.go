package errors

import (
	"strings"
)

// Errors is a non-empty list of errors.
type Errors []error

func (m Errors) Error() string {
	msgs := make([]string, 0, len(m))
	for _, err := range m {
		msgs = append(msgs, err.Error())
	}
	return strings.Join(msgs, "\n")
}

// Is reports whether any of the underlying errors matches target
func (m Errors) Is(target error) bool {
	for _, err := range m {
		if Is(err, target) {
			return true
		}
	}
	return false
}

// Combine combines errors e & f into a single error, ignoring nils
func Combine(e, f error) error {
	switch {
	case e == nil:
		return f
	case f == nil:
		return e
	}

	var all Errors
	for _, err := range []error{e, f} {
		if errs, ok := err.(Errors); ok {
			all = append(all, errs...)
			continue
		}
		all = append(all, err)
	}
	return all
}

// Defer is a helper method for deferring error-returning functions
//
//   defer errors.Defer(&err, f.Close)
func Defer(err *error, f func() error) {
	*err = Combine(*err, f())
}
