package jobs

import "errors"

// Payload and type errors never heal on retry; the worker dead-letters them at once.
var (
	ErrInvalidJobType      = errors.New("unknown notification job type")
	ErrInvalidJobPayload   = errors.New("invalid notification payload")
	ErrPayloadTypeMismatch = errors.New("payload does not match job type")
)

// Permanent reports whether err is one of the codec errors above, possibly wrapped.
func Permanent(err error) bool {
	return errors.Is(err, ErrInvalidJobPayload) ||
		errors.Is(err, ErrInvalidJobType) ||
		errors.Is(err, ErrPayloadTypeMismatch)
}
