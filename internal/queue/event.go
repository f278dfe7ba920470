// Package queue carries listing lifecycle events over RabbitMQ.
package queue

import "time"

// Event types.
const (
	ListingCreated    = "listing.created"
	ListingDeleted    = "listing.deleted"
	ListingApproved   = "listing.approved"
	ListingUnapproved = "listing.unapproved"
	ListingFeatured   = "listing.featured"
	ListingUnfeatured = "listing.unfeatured"
	QuotaAssigned     = "quota.assigned"
)

// Event is the JSON payload of every message.  Fields that do not apply to
// a given type are left empty.
type Event struct {
	Type       string     `json:"type"`
	ListingID  string     `json:"listing_id,omitempty"`
	OwnerID    string     `json:"owner_id,omitempty"`
	ActorID    string     `json:"actor_id,omitempty"`
	Title      string     `json:"title,omitempty"`
	Limit      int        `json:"limit,omitempty"`
	ValidUntil *time.Time `json:"valid_until,omitempty"`
	OccurredAt time.Time  `json:"occurred_at"`
}
