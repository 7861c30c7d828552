package dto

import "time"

// CreateProductRequest entrada para crear un producto.
type CreateProductRequest struct {
	SKU         string `json:"sku" validate:"required,min=1,max=100"`
	Name        string `json:"name" validate:"required,min=1,max=200"`
	UnitMeasure string `json:"unit_measure" validate:"required"`
	Precision   int32  `json:"precision"`
}

// UpdateProductRequest entrada para actualizar un producto. Solo el nombre es editable:
// SKU, unidad y precisión quedan fijos una vez creado.
type UpdateProductRequest struct {
	Name *string `json:"name" validate:"omitempty,min=1,max=200"`
}

// ProductResponse salida de un producto.
type ProductResponse struct {
	ID          string    `json:"id"`
	SKU         string    `json:"sku"`
	Name        string    `json:"name"`
	UnitMeasure string    `json:"unit_measure"`
	Precision   int32     `json:"precision"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// ProductListResponse lista paginada de productos.
type ProductListResponse struct {
	Items []ProductResponse `json:"items"`
	Page  PageResponse      `json:"page"`
}
