package models

import (
	"fmt"
	"time"
)

// NewID builds the "<prefix>_<userID>_<unixms>" ids used for user-owned rows.
func NewID(prefix, userID string, now time.Time) string {
	return fmt.Sprintf("%s_%s_%d", prefix, userID, now.UnixMilli())
}
