package oracle

import (
	"fmt"
	"time"
)

// Clock returns the current time. Tests substitute a fixed clock.
type Clock func() time.Time

// nowMillis reads c as Unix milliseconds. A reading before the epoch cannot be
// represented in the payload and is reported as KindClock.
func nowMillis(c Clock) (uint64, error) {
	if c == nil {
		c = time.Now
	}
	now := c()
	if now.Before(time.Unix(0, 0)) {
		return 0, NewError(KindClock, "failed to get current timestamp",
			fmt.Errorf("clock reads %s, before the Unix epoch", now.UTC().Format(time.RFC3339)))
	}
	return uint64(now.UnixMilli()), nil
}
