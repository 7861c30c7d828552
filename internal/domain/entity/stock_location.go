package entity

import "time"

// StockLocation es una ubicación (bin/zona) dentro de una bodega.
// Code es único dentro de la bodega.
type StockLocation struct {
	ID          string
	WarehouseID string
	Code        string
	Name        string
	CreatedAt   time.Time
}
