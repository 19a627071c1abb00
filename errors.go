package bootimg

import (
	"fmt"

	"github.com/hashicorp/errwrap"
)

// ErrorKind classifies the fallible operations this library performs.
// It is a closed set, not a Go error type hierarchy, so callers can branch
// on it without type assertions.
type ErrorKind int

const (
	// ParseError covers both "no codec recognized the buffer" and a
	// recognized codec failing mid-parse.
	ParseError ErrorKind = iota
	IoOpen
	IoRead
	IoWrite
	UnknownTargetType
)

func (k ErrorKind) String() string {
	switch k {
	case ParseError:
		return "BootImageParseError"
	case IoOpen:
		return "IoOpen"
	case IoRead:
		return "IoRead"
	case IoWrite:
		return "IoWrite"
	case UnknownTargetType:
		return "UnknownTargetType"
	default:
		return "UnknownError"
	}
}

// Error is the structured error type every fallible operation in this
// package returns. It carries a Kind, the collaborator path (if any), and
// the wrapped underlying cause.
type Error struct {
	Kind ErrorKind
	Path string
	Msg  string
	Err  error
}

func (e *Error) Error() string {
	if e.Path != "" {
		return fmt.Sprintf("%s: %s: %s", e.Kind, e.Path, e.wrappedString())
	}
	return fmt.Sprintf("%s: %s", e.Kind, e.wrappedString())
}

func (e *Error) wrappedString() string {
	if e.Err == nil {
		return e.Msg
	}
	if e.Msg == "" {
		return e.Err.Error()
	}
	return errwrap.Wrapf(e.Msg+": {{err}}", e.Err).Error()
}

func (e *Error) Unwrap() error { return e.Err }

func newError(kind ErrorKind, msg string, cause error) *Error {
	return &Error{Kind: kind, Msg: msg, Err: cause}
}

func newIOError(kind ErrorKind, path string, cause error) *Error {
	return &Error{Kind: kind, Path: path, Err: cause}
}

// GetErrors unwraps a *Error chain into a flat list of human-readable
// messages, newest first.
func GetErrors(err error) []string {
	var out []string
	for err != nil {
		if be, ok := err.(*Error); ok {
			if be.Msg != "" {
				out = append(out, be.Msg)
			} else if be.Err == nil {
				out = append(out, be.Kind.String())
			}
			err = be.Err
			continue
		}
		out = append(out, err.Error())
		break
	}
	return out
}
