package models

import "time"

// Item represents a purchasable product in the catalog
type Item struct {
	ID    int64  `db:"id" json:"id"`
	Name  string `db:"name" json:"name"`
	Price int64  `db:"price" json:"price"`
}

// CartLine represents one item's presence in the cart.
// Name and UnitPrice are copied from the catalog when the line is created.
type CartLine struct {
	ItemID    int64  `json:"item_id"`
	Name      string `json:"name"`
	UnitPrice int64  `json:"unit_price"`
	Quantity  int    `json:"quantity"`
}

// Subtotal returns quantity times unit price
func (l CartLine) Subtotal() int64 {
	return l.UnitPrice * int64(l.Quantity)
}

// Receipt is produced by a successful checkout
type Receipt struct {
	Lines      []CartLine `json:"lines"`
	Total      int64      `json:"total"`
	CheckedOut time.Time  `json:"checked_out_at"`
}

// User is the current-user record kept in session storage
type User struct {
	Username string `json:"username"`
}
