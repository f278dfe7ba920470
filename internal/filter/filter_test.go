package filter

import (
	"net/url"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/iliyamo/realestate-classifieds/internal/model"
)

func sample() []model.Listing {
	return []model.Listing{
		{ID: "aaaa-1111", OwnerID: "user-one", Title: "Casa en Pachuca", Description: "Tres recámaras", CategoryID: 1, CategoryName: "Casa", RegionID: 1, SubRegionID: 10, OperationType: model.OperationSale, Condition: model.ConditionNew},
		{ID: "bbbb-2222", OwnerID: "user-two", Title: "Depto centro", Description: "Cerca del metro", CategoryID: 2, CategoryName: "Departamento", RegionID: 3, SubRegionID: 30, OperationType: model.OperationRental, Condition: model.ConditionUsed},
		{ID: "cccc-3333", OwnerID: "user-one", Title: "Terreno", Description: "Plano, con casa de campo", CategoryID: 3, CategoryName: "Terreno", RegionID: 1, SubRegionID: 11, OperationType: model.OperationSale},
	}
}

func ids(ls []model.Listing) []string {
	out := make([]string, 0, len(ls))
	for _, l := range ls {
		out = append(out, l.ID)
	}
	return out
}

func TestApply(t *testing.T) {
	tests := []struct {
		name   string
		filter Filter
		want   []string
	}{
		{"empty keeps all", Filter{}, []string{"aaaa-1111", "bbbb-2222", "cccc-3333"}},
		{"query matches title and description case-insensitively", Filter{Query: "CASA"}, []string{"aaaa-1111", "cccc-3333"}},
		{"query matches category name", Filter{Query: "departa"}, []string{"bbbb-2222"}},
		{"facets combine", Filter{OperationType: model.OperationSale, RegionID: 1, SubRegionID: 11}, []string{"cccc-3333"}},
		{"condition facet", Filter{Condition: model.ConditionUsed}, []string{"bbbb-2222"}},
		{"id search on listing id", Filter{IDSearch: "BBBB"}, []string{"bbbb-2222"}},
		{"id search on owner id", Filter{IDSearch: "user-one"}, []string{"aaaa-1111", "cccc-3333"}},
		{
			"id search ignores facets and query",
			Filter{IDSearch: "2222", Query: "nothing matches", OperationType: model.OperationSale, CategoryID: 9, RegionID: 9, Condition: model.ConditionRepaired},
			[]string{"bbbb-2222"},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, ids(tt.filter.Apply(sample())))
		})
	}
}

func TestFromValues(t *testing.T) {
	v := url.Values{}
	v.Set(ParamQuery, "  casa ")
	v.Set(ParamOperationType, "SALE")
	v.Set(ParamCategory, "all")
	v.Set(ParamRegion, "4")
	v.Set(ParamSubRegion, "nope")
	v.Set(ParamCondition, "Used")

	f := FromValues(v)

	assert.Equal(t, Filter{Query: "casa", OperationType: "sale", RegionID: 4, Condition: "used"}, f)
	assert.False(t, f.IDMode())
}

func TestWithFacet_RegionClearsSubRegion(t *testing.T) {
	f := Filter{RegionID: 1, SubRegionID: 10}

	assert.Equal(t, uint64(10), f.WithFacet(FacetRegion, "1").SubRegionID)

	changed := f.WithFacet(FacetRegion, "2")
	assert.Equal(t, uint64(2), changed.RegionID)
	assert.Zero(t, changed.SubRegionID)

	// receiver is untouched
	assert.Equal(t, uint64(10), f.SubRegionID)
	assert.Equal(t, Filter{}, changed.Reset())
}

func TestWhere_IDModeOverrides(t *testing.T) {
	where, args := Filter{IDSearch: "AB_c", Query: "x", RegionID: 2}.Where()

	require.Len(t, where, 1)
	assert.Contains(t, where[0], "l.owner_id")
	assert.Equal(t, []any{`%ab\_c%`, `%ab\_c%`}, args)
}

func TestWhere_Facets(t *testing.T) {
	where, args := Filter{Query: "50%", OperationType: "rental", CategoryID: 3, SubRegionID: 7, Condition: "new"}.Where()

	assert.Equal(t, []string{
		"(LOWER(l.title) LIKE ? OR LOWER(l.description) LIKE ? OR LOWER(c.name) LIKE ?)",
		"l.operation_type = ?",
		"l.category_id = ?",
		"l.subregion_id = ?",
		"l.item_condition = ?",
	}, where)
	assert.Equal(t, []any{`%50\%%`, `%50\%%`, `%50\%%`, "rental", uint64(3), uint64(7), "new"}, args)
}
