package classify

import "errors"

// ErrUnknownStatus is returned when decoding an unrecognized status code.
var ErrUnknownStatus = errors.New("unknown status")
