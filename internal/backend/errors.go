package backend

import (
	"context"
	"errors"
	"fmt"
	"net"
	"unicode/utf8"
)

// ConnectivityError reports that the backend could not be reached, timed
// out, or answered with a non-2xx status.
type ConnectivityError struct {
	Op         string
	StatusCode int
	// Msg is the backend's own error text, when it sent one.
	Msg string
	Err error
}

func (e *ConnectivityError) Error() string {
	switch {
	case e.StatusCode != 0 && e.Msg != "":
		return fmt.Sprintf("%s: status %d: %s", e.Op, e.StatusCode, e.Msg)
	case e.StatusCode != 0:
		return fmt.Sprintf("%s: status %d", e.Op, e.StatusCode)
	default:
		return fmt.Sprintf("%s: %v", e.Op, e.Err)
	}
}

func (e *ConnectivityError) Unwrap() error { return e.Err }

// Timeout reports whether the call hit its deadline.
func (e *ConnectivityError) Timeout() bool {
	if errors.Is(e.Err, context.DeadlineExceeded) {
		return true
	}
	var ne net.Error
	return errors.As(e.Err, &ne) && ne.Timeout()
}

// DataError reports a response that was received but could not be used:
// malformed JSON, an unexpected shape, or success:false.
type DataError struct {
	Op  string
	Msg string
}

func (e *DataError) Error() string {
	return fmt.Sprintf("%s: %s", e.Op, e.Msg)
}

// MaxDescription bounds strings returned by Describe.
const MaxDescription = 60

// Describe turns a gateway error into a short user-facing string.
func Describe(err error) string {
	if err == nil {
		return ""
	}
	var s string
	var ce *ConnectivityError
	var de *DataError
	switch {
	case errors.As(err, &ce) && ce.Timeout():
		s = "Backend timeout"
	case errors.As(err, &ce) && ce.StatusCode != 0 && ce.Msg != "":
		s = ce.Msg
	case errors.As(err, &ce) && ce.StatusCode != 0:
		s = fmt.Sprintf("Backend error (%d)", ce.StatusCode)
	case errors.As(err, &ce):
		s = "Backend unreachable"
	case errors.As(err, &de) && de.Msg != "":
		s = de.Msg
	default:
		s = err.Error()
	}
	return bound(s, MaxDescription)
}

// IsConnectivity reports whether err is a ConnectivityError.
func IsConnectivity(err error) bool {
	var ce *ConnectivityError
	return errors.As(err, &ce)
}

// IsTimeout reports whether err is a ConnectivityError caused by a deadline.
func IsTimeout(err error) bool {
	var ce *ConnectivityError
	return errors.As(err, &ce) && ce.Timeout()
}

func bound(s string, n int) string {
	if utf8.RuneCountInString(s) <= n {
		return s
	}
	r := []rune(s)
	return string(r[:n-3]) + "..."
}
