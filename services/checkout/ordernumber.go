package checkout

import (
	"fmt"
	"time"
)

// formatOrderNumber derives the human-facing order number from the placement
// time: "ORD-" followed by the last six digits of the unix-millis clock.
// It is a display label, not an identifier: two orders placed in the same
// millisecond (or exactly 1000000 ms apart) share a number. The order UID
// is the unique key.
func formatOrderNumber(now time.Time) string {
	return fmt.Sprintf("ORD-%06d", now.UnixMilli()%1000000)
}
