package domain_test

import (
	"errors"
	"fmt"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"

	"github.com/jhoicas/stock-ledger/internal/domain"
)

func TestTypedErrors_CoincidenConSentinelas(t *testing.T) {
	var err error = &domain.InsufficientStockError{DocumentID: "d1", Shortages: []domain.Shortage{
		{LineNo: 1, ProductID: "p", LocationID: "l", Available: decimal.NewFromInt(60), Requested: decimal.NewFromInt(1000)},
	}}
	wrapped := fmt.Errorf("post: %w", err)

	assert.True(t, errors.Is(wrapped, domain.ErrInsufficientStock))
	assert.False(t, errors.Is(wrapped, domain.ErrValidation))
	assert.Contains(t, err.Error(), "línea 1")
	assert.Contains(t, err.Error(), "disponible 60")

	var ise *domain.InsufficientStockError
	assert.True(t, errors.As(wrapped, &ise))
}

func TestValidationError_NombraCadaLinea(t *testing.T) {
	err := &domain.ValidationError{DocumentID: "d1", Problems: []domain.LineProblem{
		{LineNo: 1, Field: "quantity", Message: "la cantidad debe ser mayor que cero"},
		{LineNo: 3, Field: "location", Message: "ubicación no existe: l9"},
	}}

	assert.True(t, errors.Is(err, domain.ErrValidation))
	assert.Contains(t, err.Error(), "línea 1 (quantity)")
	assert.Contains(t, err.Error(), "línea 3 (location)")
}

func TestInvalidStateError(t *testing.T) {
	err := &domain.InvalidStateError{DocumentID: "d1", Status: "POSTED", Operation: "editar"}
	assert.True(t, errors.Is(err, domain.ErrInvalidState))
	assert.Equal(t, "no se puede editar el documento d1 en estado POSTED", err.Error())
}
