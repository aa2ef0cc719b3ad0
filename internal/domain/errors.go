package domain

import "errors"

// ErrUnknownPlatform is returned by ParsePlatform for a tag outside the
// supported set.
var ErrUnknownPlatform = errors.New("unknown platform")
