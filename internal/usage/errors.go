package usage

import "errors"

// ErrLimitReached is returned by Consume when the buyer has used every deep
// feasibility report in the current weekly window.
var ErrLimitReached = errors.New("weekly report quota exhausted")
