package nn

import "errors"

// ErrConfiguration reports invalid module hyperparameters. It is returned at
// construction time, never from Forward.
var ErrConfiguration = errors.New("invalid configuration")
