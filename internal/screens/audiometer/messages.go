package audiometer

import "time"

// frameMsg ends a display frame and releases lamp suppression.
type frameMsg time.Time

// persistedMsg reports the outcome of a background store write.
type persistedMsg struct {
	What string
	Err  error
}
