package entity

import "time"

// Warehouse representa una bodega; el stock físico vive en sus StockLocation.
type Warehouse struct {
	ID        string
	Name      string
	Address   string
	CreatedAt time.Time
	UpdatedAt time.Time
}
