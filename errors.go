package stripemap

import "errors"

// ErrKeyNotFound is returned by At and Ref.Get when the requested key has
// no live entry. It is the only error the Table surface can produce; every
// other operation is total.
var ErrKeyNotFound = errors.New("stripemap: key not found")
