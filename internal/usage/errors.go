package usage

import "errors"

// ErrLimitReached indicates the merchant exhausted the analysis quota for the
// current period.
var ErrLimitReached = errors.New("limit reached")
