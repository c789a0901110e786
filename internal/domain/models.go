package domain

// Item is an entry in the remote store. Identity is the ID.
type Item struct {
	ID int `json:"id"`
}

// PageRequest addresses one page of a server-ordered collection
type PageRequest struct {
	Filter string // only honoured by the available-items listing
	Offset int
	Limit  int
}

// Page is one page of a collection plus the total the server reports
// for the current query.
type Page struct {
	Items []Item `json:"items"`
	Total int    `json:"total"`
}

// DropEvent describes a finished drag: Active was dropped onto Over.
// HasOver is false when the drop landed outside any item.
type DropEvent struct {
	Active  int
	Over    int
	HasOver bool
}

// IDs returns the ids of items in order
func IDs(items []Item) []int {
	ids := make([]int, len(items))
	for i, it := range items {
		ids[i] = it.ID
	}
	return ids
}
