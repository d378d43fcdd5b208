package finance

import "errors"

// Kind classifies an upstream failure for presentation purposes.
type Kind int

const (
	// KindGeneric covers non-2xx responses without a usable body.
	KindGeneric Kind = iota
	// KindConnectivity means the transport never completed.
	KindConnectivity
	// KindAuth means the upstream rejected the session (401).
	KindAuth
	// KindValidation carries field-level messages from a 400 response.
	KindValidation
	// KindNotFound is a 404 on a concrete resource.
	KindNotFound
	// KindServer is any 5xx response.
	KindServer
)

// Messages shown for failures that carry no usable upstream detail.
const (
	MsgConnectivity = "Network error. Please check your connection and try again."
	MsgSessionGone  = "Session expired. Please log in again."
	MsgServer       = "Server error. Please try again later."
	MsgGeneric      = "Request failed. Please try again."
)

// Error is a classified upstream failure. Message is always safe to show
// to the user verbatim.
type Error struct {
	Kind    Kind
	Status  int
	Message string
}

func (e *Error) Error() string {
	return e.Message
}

// IsAuth reports whether err is an authentication failure that should
// invalidate the local session.
func IsAuth(err error) bool {
	var fe *Error
	return errors.As(err, &fe) && fe.Kind == KindAuth
}

// IsNotFound reports whether err is a 404 on a concrete resource.
func IsNotFound(err error) bool {
	var fe *Error
	return errors.As(err, &fe) && fe.Kind == KindNotFound
}

// IsConnectivity reports whether the transport never completed.
func IsConnectivity(err error) bool {
	var fe *Error
	return errors.As(err, &fe) && fe.Kind == KindConnectivity
}

// UserMessage extracts the human-readable message for any error coming
// back through a port. Non-classified errors fall back to the generic one.
func UserMessage(err error) string {
	var fe *Error
	if errors.As(err, &fe) {
		return fe.Message
	}
	return MsgGeneric
}
