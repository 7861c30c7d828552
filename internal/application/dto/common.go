package dto

// Límites de paginación de los listados.
const (
	DefaultPageLimit = 20
	MaxPageLimit     = 100
)

// PageRequest paginación ya acotada; se construye con NewPage.
type PageRequest struct {
	Limit  int
	Offset int
}

// NewPage acota limit a 1..MaxPageLimit (0 o negativo usa DefaultPageLimit) y offset a >= 0.
func NewPage(limit, offset int) PageRequest {
	switch {
	case limit <= 0:
		limit = DefaultPageLimit
	case limit > MaxPageLimit:
		limit = MaxPageLimit
	}
	return PageRequest{Limit: limit, Offset: max(offset, 0)}
}

// Response metadatos de la página para la respuesta.
func (p PageRequest) Response() PageResponse {
	return PageResponse{Limit: p.Limit, Offset: p.Offset}
}

// PageResponse metadatos de página en respuestas.
type PageResponse struct {
	Limit  int `json:"limit"`
	Offset int `json:"offset"`
}

// ErrorResponse cuerpo de error HTTP. Code es estable (INSUFFICIENT_STOCK, NOT_FOUND...),
// Message va en español para el operador.
type ErrorResponse struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}
