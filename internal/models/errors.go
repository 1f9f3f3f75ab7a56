package models

import "fmt"

type ErrorKind int

const (
	KindConfiguration ErrorKind = iota + 1
	KindData
	KindIO
)

func (k ErrorKind) String() string {
	switch k {
	case KindConfiguration:
		return "configuration error"
	case KindData:
		return "data error"
	case KindIO:
		return "io error"
	default:
		return "error"
	}
}

// Error carries a kind so callers can tell configuration problems from bad
// data with errors.Is(err, models.ErrData) and friends.
type Error struct {
	Kind    ErrorKind
	Message string
	Err     error
}

var (
	ErrConfiguration = &Error{Kind: KindConfiguration}
	ErrData          = &Error{Kind: KindData}
	ErrIO            = &Error{Kind: KindIO}
)

func (e *Error) Error() string {
	msg := e.Kind.String()
	if e.Message != "" {
		msg += ": " + e.Message
	}
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

func (e *Error) Unwrap() error {
	return e.Err
}

// Is matches against the bare kind sentinels.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok {
		return false
	}
	return t.Message == "" && t.Err == nil && t.Kind == e.Kind
}

func ConfigErrorf(format string, args ...interface{}) error {
	return &Error{Kind: KindConfiguration, Message: fmt.Sprintf(format, args...)}
}

func DataErrorf(format string, args ...interface{}) error {
	return &Error{Kind: KindData, Message: fmt.Sprintf(format, args...)}
}

func IOError(message string, err error) error {
	return &Error{Kind: KindIO, Message: message, Err: err}
}
