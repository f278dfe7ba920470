// Package filter holds the listing search state shared by the browse
// endpoints.  Filter is a plain value: reducers return a modified copy and
// never mutate the receiver.
package filter

import (
	"net/url"
	"strconv"
	"strings"

	"github.com/iliyamo/realestate-classifieds/internal/model"
)

// Filter narrows a set of listings.  Two modes exist: when IDSearch is
// non-empty only the id/owner-id match applies and every other field is
// ignored; otherwise Query and the facets combine with AND.
type Filter struct {
	Query         string // substring of title, description or category name
	IDSearch      string // substring of listing id or owner id
	OperationType string
	CategoryID    uint64
	RegionID      uint64
	SubRegionID   uint64
	Condition     string
}

// Facet names an exact-match field of Filter.
type Facet int

const (
	FacetOperationType Facet = iota
	FacetCategory
	FacetRegion
	FacetSubRegion
	FacetCondition
)

// Query parameter names understood by FromValues.
const (
	ParamQuery         = "q"
	ParamID            = "id"
	ParamOperationType = "operation_type"
	ParamCategory      = "category_id"
	ParamRegion        = "region_id"
	ParamSubRegion     = "subregion_id"
	ParamCondition     = "condition"
)

// FromValues builds a Filter from URL query values.  Empty values and "all"
// leave a facet unset; unparsable ids are ignored.
func FromValues(v url.Values) Filter {
	f := Filter{}.
		WithQuery(v.Get(ParamQuery)).
		WithIDSearch(v.Get(ParamID))
	f = f.WithFacet(FacetOperationType, v.Get(ParamOperationType))
	f = f.WithFacet(FacetCategory, v.Get(ParamCategory))
	f = f.WithFacet(FacetRegion, v.Get(ParamRegion))
	f = f.WithFacet(FacetSubRegion, v.Get(ParamSubRegion))
	f = f.WithFacet(FacetCondition, v.Get(ParamCondition))
	return f
}

func (f Filter) WithQuery(q string) Filter {
	f.Query = strings.TrimSpace(q)
	return f
}

func (f Filter) WithIDSearch(s string) Filter {
	f.IDSearch = strings.TrimSpace(s)
	return f
}

// WithFacet sets one facet from its textual value.  Changing the region
// clears the sub-region since sub-regions belong to a single region.
func (f Filter) WithFacet(facet Facet, value string) Filter {
	value = strings.TrimSpace(value)
	if strings.EqualFold(value, "all") {
		value = ""
	}
	switch facet {
	case FacetOperationType:
		f.OperationType = strings.ToLower(value)
	case FacetCategory:
		f.CategoryID = parseID(value)
	case FacetRegion:
		if id := parseID(value); id != f.RegionID {
			f.RegionID = id
			f.SubRegionID = 0
		}
	case FacetSubRegion:
		f.SubRegionID = parseID(value)
	case FacetCondition:
		f.Condition = strings.ToLower(value)
	}
	return f
}

// Reset clears every field.
func (f Filter) Reset() Filter { return Filter{} }

// IDMode reports whether the id search overrides the other fields.
func (f Filter) IDMode() bool { return f.IDSearch != "" }

// Match applies the filter to a single listing.  Approval is not checked
// here; callers only pass approved listings.
func (f Filter) Match(l model.Listing) bool {
	if f.IDMode() {
		needle := strings.ToLower(f.IDSearch)
		return strings.Contains(strings.ToLower(l.ID), needle) ||
			strings.Contains(strings.ToLower(l.OwnerID), needle)
	}
	if f.Query != "" {
		needle := strings.ToLower(f.Query)
		if !strings.Contains(strings.ToLower(l.Title), needle) &&
			!strings.Contains(strings.ToLower(l.Description), needle) &&
			!strings.Contains(strings.ToLower(l.CategoryName), needle) {
			return false
		}
	}
	if f.OperationType != "" && l.OperationType != f.OperationType {
		return false
	}
	if f.CategoryID != 0 && l.CategoryID != f.CategoryID {
		return false
	}
	if f.RegionID != 0 && l.RegionID != f.RegionID {
		return false
	}
	if f.SubRegionID != 0 && l.SubRegionID != f.SubRegionID {
		return false
	}
	if f.Condition != "" && l.Condition != f.Condition {
		return false
	}
	return true
}

// Apply returns the listings that match, preserving order.
func (f Filter) Apply(in []model.Listing) []model.Listing {
	out := make([]model.Listing, 0, len(in))
	for _, l := range in {
		if f.Match(l) {
			out = append(out, l)
		}
	}
	return out
}

// Where renders the filter as SQL conditions over the listings table
// aliased "l" joined with categories aliased "c".  The conditions mirror
// Match and are meant to be AND-ed.
func (f Filter) Where() ([]string, []any) {
	var where []string
	var args []any

	if f.IDMode() {
		like := likePattern(f.IDSearch)
		where = append(where, "(LOWER(l.id) LIKE ? OR LOWER(l.owner_id) LIKE ?)")
		args = append(args, like, like)
		return where, args
	}
	if f.Query != "" {
		like := likePattern(f.Query)
		where = append(where, "(LOWER(l.title) LIKE ? OR LOWER(l.description) LIKE ? OR LOWER(c.name) LIKE ?)")
		args = append(args, like, like, like)
	}
	if f.OperationType != "" {
		where = append(where, "l.operation_type = ?")
		args = append(args, f.OperationType)
	}
	if f.CategoryID != 0 {
		where = append(where, "l.category_id = ?")
		args = append(args, f.CategoryID)
	}
	if f.RegionID != 0 {
		where = append(where, "l.region_id = ?")
		args = append(args, f.RegionID)
	}
	if f.SubRegionID != 0 {
		where = append(where, "l.subregion_id = ?")
		args = append(args, f.SubRegionID)
	}
	if f.Condition != "" {
		where = append(where, "l.item_condition = ?")
		args = append(args, f.Condition)
	}
	return where, args
}

func parseID(s string) uint64 {
	if s == "" {
		return 0
	}
	n, err := strconv.ParseUint(s, 10, 64)
	if err != nil {
		return 0
	}
	return n
}

var likeEscaper = strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)

func likePattern(s string) string {
	return "%" + likeEscaper.Replace(strings.ToLower(s)) + "%"
}
