package pipeline

import "errors"

// ErrCapabilityTimeout is returned when an external classifier or
// similarity call exceeded its deadline. The affected memory keeps its
// prior state; timed-out classification leaves it pending, never safe.
var ErrCapabilityTimeout = errors.New("capability timeout")
