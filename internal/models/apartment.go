package models

// ApartmentGraph is an apartment's space/element composition.
type ApartmentGraph struct {
	ID      int64   `json:"id"`
	Code    string  `json:"code"`
	Name    string  `json:"name"`
	Address string  `json:"address"`
	Spaces  []Space `json:"spaces"`
}

// Space is a room or area inside an apartment.
type Space struct {
	ID          int64     `json:"id"`
	ApartmentID int64     `json:"apartment_id"`
	SpaceTypeID int64     `json:"space_type_id"`
	Name        string    `json:"name"`
	SortOrder   int       `json:"sort_order"`
	Elements    []Element `json:"elements"`
}

// Element is an auditable fixture or appliance within a space.
type Element struct {
	ID            int64  `json:"id"`
	SpaceID       int64  `json:"space_id"`
	ElementTypeID int64  `json:"element_type_id"`
	Name          string `json:"name"`
	SortOrder     int    `json:"sort_order"`
}

// ElementCount returns the number of elements across all spaces.
func (g *ApartmentGraph) ElementCount() int {
	n := 0
	for _, s := range g.Spaces {
		n += len(s.Elements)
	}

	return n
}
