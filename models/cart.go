package models

// CartItem is one line of a shared table cart. UnitPrice and LineTotal are
// always computed on the server from the menu; client-supplied values are
// ignored.
type CartItem struct {
	MenuItemID uint    `json:"menu_item_id"`
	Quantity   int     `json:"quantity"`
	UnitPrice  float64 `json:"unit_price"`
	LineTotal  float64 `json:"line_total"`
}
