package beanbag

import (
	"errors"
	"fmt"

	"github.com/ajtowns/beanbag/transport"
)

// Kind classifies a request failure.
type Kind int

// Failure kinds, in pipeline order.
const (
	KindEncode         Kind = iota + 1 // Request body could not be encoded
	KindTransport                      // Transport or network failure
	KindBadStatus                      // Status outside [200, 300)
	KindBadContentType                 // Response content type does not match the format
	KindDecode                         // Response body could not be decoded
	KindArguments                      // Invalid invocation arguments
)

var kindNames = map[Kind]string{
	KindEncode:         "encode",
	KindTransport:      "transport",
	KindBadStatus:      "bad status",
	KindBadContentType: "bad content type",
	KindDecode:         "decode",
	KindArguments:      "arguments",
}

func (k Kind) String() string {
	if s, ok := kindNames[k]; ok {
		return s
	}
	return fmt.Sprintf("kind(%d)", int(k))
}

// Sentinel errors for use with errors.Is.
var (
	ErrEncode         = &Error{Kind: KindEncode, Message: "could not encode request body"}
	ErrTransport      = &Error{Kind: KindTransport, Message: "transport failure"}
	ErrBadStatus      = &Error{Kind: KindBadStatus, Message: "bad response code"}
	ErrBadContentType = &Error{Kind: KindBadContentType, Message: "bad content-type in response"}
	ErrDecode         = &Error{Kind: KindDecode, Message: "could not decode response"}
	ErrArguments      = &Error{Kind: KindArguments, Message: "invalid arguments"}
)

// Error is returned by every failing request. Request and Response are set
// whenever the pipeline got far enough to build or receive them.
type Error struct {
	Kind       Kind
	Message    string
	StatusCode int // Set for KindBadStatus and later kinds
	Request    *transport.Request
	Response   *transport.Response
	Err        error // Underlying cause, if any
}

func (e *Error) Error() string {
	msg := "beanbag: " + e.Message
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	if e.Response != nil && len(e.Response.Body) > 0 {
		msg += " - response: " + string(e.Response.Body)
	}
	return msg
}

// Is implements errors.Is for error comparison.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok {
		return false
	}
	return e.Kind == t.Kind
}

// Unwrap returns the underlying cause.
func (e *Error) Unwrap() error { return e.Err }

// IsBadStatus reports whether err is a non-2xx response, and returns its code.
func IsBadStatus(err error) (int, bool) {
	var e *Error
	if errors.As(err, &e) && e.Kind == KindBadStatus {
		return e.StatusCode, true
	}
	return 0, false
}

// IsNotFound checks if an error is a 404 response.
func IsNotFound(err error) bool {
	code, ok := IsBadStatus(err)
	return ok && code == 404
}
