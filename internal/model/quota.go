package model

import "time"

// Quota mirrors a row of the `quotas` table.  A user has zero or one row.
// A nil ValidUntil means the quota never expires.
type Quota struct {
	UserID     string     // quotas.user_id
	Limit      int        // quotas.listing_limit (>= 1)
	ValidUntil *time.Time // quotas.valid_until
	CreatedAt  time.Time  // quotas.created_at
}
