package model

// Item is the domain model for an inventory entry. Identity is assigned by
// the item service; an ItemID of zero means the item has not been
// persisted yet.
type Item struct {
	ItemID      int64   `json:"item_id"`
	Name        string  `json:"name"`
	Description string  `json:"description"`
	Quantity    int64   `json:"quantity"`
	Price       float64 `json:"price"`
}

// Payload is the write shape for create and update requests: every field
// except the identifier, which only the service may assign.
type Payload struct {
	Name        string  `json:"name"`
	Description string  `json:"description"`
	Quantity    int64   `json:"quantity"`
	Price       float64 `json:"price"`
}

// Payload copies the writable fields of an item.
func (i Item) Payload() Payload {
	return Payload{
		Name:        i.Name,
		Description: i.Description,
		Quantity:    i.Quantity,
		Price:       i.Price,
	}
}
