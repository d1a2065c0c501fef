package note

import "errors"

var ErrMissingUser = errors.New("note must reference a user")
