package entity

import "time"

// Product representa un producto o SKU del catálogo.
// SKU, UnitMeasure y Precision quedan fijos una vez creado; solo Name es metadato editable.
type Product struct {
	ID          string
	SKU         string // único, normalizado en mayúsculas
	Name        string
	UnitMeasure string
	Precision   int32 // decimales permitidos en cantidades (0 = unidades enteras)
	CreatedAt   time.Time
	UpdatedAt   time.Time
}
