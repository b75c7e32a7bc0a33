package corpus

import "errors"

// ErrDuplicateID means two corpus units share an id.
var ErrDuplicateID = errors.New("duplicate corpus unit id")
