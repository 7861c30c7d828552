package http

import (
	"errors"

	"github.com/gofiber/fiber/v2"

	"github.com/jhoicas/stock-ledger/internal/application/dto"
	"github.com/jhoicas/stock-ledger/internal/domain"
)

// writeError traduce un error de dominio a la respuesta HTTP correspondiente.
// Los errores de contabilización llevan el detalle por línea.
func writeError(c *fiber.Ctx, err error) error {
	var verr *domain.ValidationError
	if errors.As(err, &verr) {
		out := dto.DocumentErrorResponse{Code: "VALIDATION", Message: "el documento tiene líneas inválidas"}
		for _, p := range verr.Problems {
			out.Problems = append(out.Problems, dto.LineProblemDTO{LineNo: p.LineNo, Field: p.Field, Message: p.Message})
		}
		return c.Status(fiber.StatusUnprocessableEntity).JSON(out)
	}

	var serr *domain.InsufficientStockError
	if errors.As(err, &serr) {
		out := dto.DocumentErrorResponse{Code: "INSUFFICIENT_STOCK", Message: "stock insuficiente"}
		for _, s := range serr.Shortages {
			out.Shortages = append(out.Shortages, dto.ShortageDTO{
				LineNo:     s.LineNo,
				ProductID:  s.ProductID,
				LocationID: s.LocationID,
				Available:  s.Available,
				Requested:  s.Requested,
			})
		}
		return c.Status(fiber.StatusConflict).JSON(out)
	}

	switch {
	case errors.Is(err, domain.ErrInsufficientStock):
		return c.Status(fiber.StatusConflict).JSON(dto.ErrorResponse{Code: "INSUFFICIENT_STOCK", Message: err.Error()})
	case errors.Is(err, domain.ErrInvalidState):
		return c.Status(fiber.StatusConflict).JSON(dto.ErrorResponse{Code: "INVALID_STATE", Message: err.Error()})
	case errors.Is(err, domain.ErrConcurrencyConflict):
		return c.Status(fiber.StatusConflict).JSON(dto.ErrorResponse{Code: "CONFLICT", Message: err.Error()})
	case errors.Is(err, domain.ErrDuplicate):
		return c.Status(fiber.StatusConflict).JSON(dto.ErrorResponse{Code: "DUPLICATE", Message: err.Error()})
	case errors.Is(err, domain.ErrNotFound):
		return c.Status(fiber.StatusNotFound).JSON(dto.ErrorResponse{Code: "NOT_FOUND", Message: err.Error()})
	case errors.Is(err, domain.ErrInvalidInput):
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Code: "VALIDATION", Message: err.Error()})
	case errors.Is(err, domain.ErrForbidden):
		return c.Status(fiber.StatusForbidden).JSON(dto.ErrorResponse{Code: "FORBIDDEN", Message: err.Error()})
	case errors.Is(err, domain.ErrStorage):
		return c.Status(fiber.StatusInternalServerError).JSON(dto.ErrorResponse{Code: "STORAGE", Message: "fallo de almacenamiento, intente más tarde"})
	}
	return c.Status(fiber.StatusInternalServerError).JSON(dto.ErrorResponse{Code: "INTERNAL", Message: err.Error()})
}

func badBody(c *fiber.Ctx) error {
	return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Code: "INVALID_BODY", Message: "cuerpo inválido"})
}
