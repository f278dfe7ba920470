package model

import "time"

// Operation types.
const (
	OperationSale   = "sale"
	OperationRental = "rental"
)

// Payment frequencies.
const (
	PaymentDaily    = "daily"
	PaymentWeekly   = "weekly"
	PaymentBiweekly = "biweekly"
	PaymentMonthly  = "monthly"
	PaymentOnce     = "once"
)

// Item conditions.
const (
	ConditionNew      = "new"
	ConditionUsed     = "used"
	ConditionRepaired = "repaired"
)

// Listing is a property posting from the `listings` table.  Category,
// region and sub-region names are joined in for display and text search.
// Images hold public URLs in upload order.
//
// Fields:
//
//	OwnerID          – the creating user; only the owner edits or deletes.
//	PaymentFrequency – optional, empty when not set.
//	Condition        – optional, empty when not set.
//	Approved         – admin gate on public visibility; new rows start false.
//	Featured         – true when an active featured marker exists (admin views only).
type Listing struct {
	ID               string    `json:"id"`                          // listings.id
	OwnerID          string    `json:"owner_id"`                    // listings.owner_id
	Title            string    `json:"title"`                       // listings.title
	Description      string    `json:"description"`                 // listings.description
	Price            float64   `json:"price"`                       // listings.price
	OperationType    string    `json:"operation_type"`              // listings.operation_type
	RegionID         uint64    `json:"region_id"`                   // listings.region_id
	RegionName       string    `json:"region_name"`                 // regions.name
	SubRegionID      uint64    `json:"subregion_id"`                // listings.subregion_id
	SubRegionName    string    `json:"subregion_name"`              // subregions.name
	CategoryID       uint64    `json:"category_id"`                 // listings.category_id
	CategoryName     string    `json:"category_name"`               // categories.name
	Images           []string  `json:"images"`                      // listings.images (JSON array)
	Phone            string    `json:"phone"`                       // listings.phone
	PaymentFrequency string    `json:"payment_frequency,omitempty"` // listings.payment_frequency
	Condition        string    `json:"condition,omitempty"`         // listings.item_condition
	Approved         bool      `json:"approved"`                    // listings.approved
	Featured         bool      `json:"featured,omitempty"`
	CreatedAt        time.Time `json:"created_at"`                  // listings.created_at
}

// ListingPatch carries the owner-editable scalar fields.  Nil means
// "leave unchanged".
type ListingPatch struct {
	Title       *string
	Description *string
	Price       *float64
}

// Empty reports whether the patch changes nothing.
func (p ListingPatch) Empty() bool {
	return p.Title == nil && p.Description == nil && p.Price == nil
}

// FeaturedMarker mirrors a row of the `featured` table.
type FeaturedMarker struct {
	ListingID string    // featured.listing_id
	Active    bool      // featured.active
	CreatedAt time.Time // featured.created_at
}
