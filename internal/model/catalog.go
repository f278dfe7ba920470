package model

// Category, Region and SubRegion are read-only reference data used to fill
// filter and form controls.

type Category struct {
	ID   uint64 `json:"id"`
	Name string `json:"name"`
}

type Region struct {
	ID   uint64 `json:"id"`
	Name string `json:"name"`
}

type SubRegion struct {
	ID       uint64 `json:"id"`
	RegionID uint64 `json:"region_id"`
	Name     string `json:"name"`
}
