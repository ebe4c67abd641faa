package ktx

import (
	"errors"
	"fmt"
)

// ErrFormat is the root of every structural failure detected while parsing.
var ErrFormat = errors.New("ktx: format error")

var (
	ErrInvalidMagic      = fmt.Errorf("%w: invalid identifier", ErrFormat)
	ErrKeyValueOverrun   = fmt.Errorf("%w: key/value block overrun", ErrFormat)
	ErrTexelSizeMismatch = fmt.Errorf("%w: texel data size mismatch", ErrFormat)
	ErrLayout            = fmt.Errorf("%w: unsupported image layout", ErrFormat)

	ErrWriter          = errors.New("ktx: writer")
	ErrStorageReleased = errors.New("ktx: storage released")
)
