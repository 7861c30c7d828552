package domain

import (
	"errors"
	"fmt"
	"strings"

	"github.com/shopspring/decimal"
)

// Errores de dominio (sin dependencias de infraestructura).
var (
	ErrNotFound            = errors.New("recurso no encontrado")
	ErrInvalidInput        = errors.New("entrada inválida")
	ErrDuplicate           = errors.New("recurso duplicado")
	ErrUnauthorized        = errors.New("no autorizado")
	ErrForbidden           = errors.New("acceso denegado")
	ErrValidation          = errors.New("documento inválido")
	ErrInsufficientStock   = errors.New("stock insuficiente")
	ErrInvalidState        = errors.New("estado de documento inválido para la operación")
	ErrConcurrencyConflict = errors.New("conflicto de concurrencia, reintente la operación")
	ErrStorage             = errors.New("fallo de almacenamiento")
)

// LineProblem describe un problema de validación en una línea de documento.
// LineNo = 0 indica un problema del documento completo (ej. sin líneas).
type LineProblem struct {
	LineNo  int    `json:"line_no"`
	Field   string `json:"field,omitempty"`
	Message string `json:"message"`
}

func (p LineProblem) String() string {
	if p.LineNo == 0 {
		return p.Message
	}
	if p.Field != "" {
		return fmt.Sprintf("línea %d (%s): %s", p.LineNo, p.Field, p.Message)
	}
	return fmt.Sprintf("línea %d: %s", p.LineNo, p.Message)
}

// ValidationError lista todas las líneas inválidas de un documento, no solo la primera.
type ValidationError struct {
	DocumentID string
	Problems   []LineProblem
}

func (e *ValidationError) Error() string {
	parts := make([]string, 0, len(e.Problems))
	for _, p := range e.Problems {
		parts = append(parts, p.String())
	}
	return fmt.Sprintf("documento %s inválido: %s", e.DocumentID, strings.Join(parts, "; "))
}

func (e *ValidationError) Is(target error) bool { return target == ErrValidation }

// Shortage indica una clave (producto, ubicación) que quedaría en negativo.
type Shortage struct {
	LineNo     int             `json:"line_no"`
	ProductID  string          `json:"product_id"`
	LocationID string          `json:"location_id"`
	Available  decimal.Decimal `json:"available"`
	Requested  decimal.Decimal `json:"requested"`
}

// InsufficientStockError nombra cada línea/clave que dejaría un saldo negativo.
type InsufficientStockError struct {
	DocumentID string
	Shortages  []Shortage
}

func (e *InsufficientStockError) Error() string {
	parts := make([]string, 0, len(e.Shortages))
	for _, s := range e.Shortages {
		parts = append(parts, fmt.Sprintf("línea %d producto %s ubicación %s: disponible %s, requerido %s",
			s.LineNo, s.ProductID, s.LocationID, s.Available.String(), s.Requested.String()))
	}
	return fmt.Sprintf("stock insuficiente en documento %s: %s", e.DocumentID, strings.Join(parts, "; "))
}

func (e *InsufficientStockError) Is(target error) bool { return target == ErrInsufficientStock }

// InvalidStateError operación sobre un documento en un estado que no la admite.
type InvalidStateError struct {
	DocumentID string
	Status     string
	Operation  string
}

func (e *InvalidStateError) Error() string {
	return fmt.Sprintf("no se puede %s el documento %s en estado %s", e.Operation, e.DocumentID, e.Status)
}

func (e *InvalidStateError) Is(target error) bool { return target == ErrInvalidState }
