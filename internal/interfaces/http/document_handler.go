package http

import (
	"strings"

	"github.com/gofiber/fiber/v2"

	"github.com/jhoicas/stock-ledger/internal/application/dto"
	"github.com/jhoicas/stock-ledger/internal/application/inventory"
	"github.com/jhoicas/stock-ledger/internal/domain/entity"
	"github.com/jhoicas/stock-ledger/internal/domain/repository"
)

// DocumentHandler maneja documentos de movimiento y su contabilización (protegido).
type DocumentHandler struct {
	docs    *inventory.DocumentUseCase
	engine  *inventory.PostingEngine
	voucher *inventory.VoucherUseCase
}

// NewDocumentHandler construye el handler.
func NewDocumentHandler(docs *inventory.DocumentUseCase, engine *inventory.PostingEngine, voucher *inventory.VoucherUseCase) *DocumentHandler {
	return &DocumentHandler{docs: docs, engine: engine, voucher: voucher}
}

// Create godoc
// @Summary      Crear documento en borrador
// @Description  Tipos: RECEIPT, DELIVERY, TRANSFER, ADJUSTMENT. Las líneas se validan al contabilizar.
// @Tags         documents
// @Security     Bearer
// @Accept       json
// @Produce      json
// @Param        body  body  dto.CreateDocumentRequest  true  "Documento"
// @Success      201   {object}  dto.DocumentResponse
// @Failure      400   {object}  dto.ErrorResponse
// @Router       /api/documents [post]
func (h *DocumentHandler) Create(c *fiber.Ctx) error {
	var in dto.CreateDocumentRequest
	if err := c.BodyParser(&in); err != nil {
		return badBody(c)
	}
	out, err := h.docs.CreateDocumentFromRequest(c.UserContext(), GetUserID(c), in)
	if err != nil {
		return writeError(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(out)
}

// GetByID godoc
// @Summary      Obtener documento
// @Tags         documents
// @Security     Bearer
// @Produce      json
// @Param        id   path  string  true  "ID del documento"
// @Success      200  {object}  dto.DocumentResponse
// @Failure      404  {object}  dto.ErrorResponse
// @Router       /api/documents/{id} [get]
func (h *DocumentHandler) GetByID(c *fiber.Ctx) error {
	doc, err := h.docs.GetDocument(c.UserContext(), c.Params("id"))
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(inventory.ToDocumentResponse(doc))
}

// List godoc
// @Summary      Listar documentos
// @Tags         documents
// @Security     Bearer
// @Produce      json
// @Param        type    query  string  false  "RECEIPT | DELIVERY | TRANSFER | ADJUSTMENT"
// @Param        status  query  string  false  "DRAFT | POSTED | VOIDED"
// @Param        limit   query  int     false  "Límite"  default(20)
// @Param        offset  query  int     false  "Offset"  default(0)
// @Success      200     {object}  dto.DocumentListResponse
// @Router       /api/documents [get]
func (h *DocumentHandler) List(c *fiber.Ctx) error {
	page := pageParams(c)
	filter := repository.DocumentFilter{
		Type:   entity.DocumentType(strings.ToUpper(c.Query("type"))),
		Status: entity.DocumentStatus(strings.ToUpper(c.Query("status"))),
		Limit:  page.Limit,
		Offset: page.Offset,
	}
	docs, err := h.docs.ListDocuments(c.UserContext(), filter)
	if err != nil {
		return writeError(c, err)
	}
	items := make([]dto.DocumentResponse, 0, len(docs))
	for _, d := range docs {
		items = append(items, *inventory.ToDocumentResponse(d))
	}
	return c.JSON(dto.DocumentListResponse{Items: items, Page: page.Response()})
}

// UpdateLines godoc
// @Summary      Reemplazar líneas de un borrador
// @Tags         documents
// @Security     Bearer
// @Accept       json
// @Produce      json
// @Param        id    path  string  true  "ID del documento"
// @Param        body  body  dto.UpdateDocumentLinesRequest  true  "Versión esperada y líneas"
// @Success      200   {object}  dto.DocumentResponse
// @Failure      409   {object}  dto.ErrorResponse
// @Router       /api/documents/{id}/lines [put]
func (h *DocumentHandler) UpdateLines(c *fiber.Ctx) error {
	var in dto.UpdateDocumentLinesRequest
	if err := c.BodyParser(&in); err != nil {
		return badBody(c)
	}
	out, err := h.docs.UpdateDraftFromRequest(c.UserContext(), c.Params("id"), in)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(out)
}

// Delete godoc
// @Summary      Descartar borrador
// @Tags         documents
// @Security     Bearer
// @Param        id   path  string  true  "ID del documento"
// @Success      204
// @Failure      409  {object}  dto.ErrorResponse
// @Router       /api/documents/{id} [delete]
func (h *DocumentHandler) Delete(c *fiber.Ctx) error {
	if err := h.docs.DiscardDraft(c.UserContext(), c.Params("id")); err != nil {
		return writeError(c, err)
	}
	return c.SendStatus(fiber.StatusNoContent)
}

// Post godoc
// @Summary      Contabilizar documento
// @Description  Todo o nada: si alguna línea es inválida (422) o deja saldo negativo (409) no se escribe nada.
// @Tags         documents
// @Security     Bearer
// @Produce      json
// @Param        id   path  string  true  "ID del documento"
// @Success      200  {object}  dto.PostingResultResponse
// @Failure      409  {object}  dto.DocumentErrorResponse
// @Failure      422  {object}  dto.DocumentErrorResponse
// @Router       /api/documents/{id}/post [post]
func (h *DocumentHandler) Post(c *fiber.Ctx) error {
	res, err := h.engine.Post(c.UserContext(), c.Params("id"), GetUserID(c))
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(inventory.ToPostingResultResponse(res))
}

// Void godoc
// @Summary      Anular documento contabilizado
// @Description  Genera asientos compensatorios; requiere rol admin.
// @Tags         documents
// @Security     Bearer
// @Produce      json
// @Param        id   path  string  true  "ID del documento"
// @Success      200  {object}  dto.PostingResultResponse
// @Failure      409  {object}  dto.DocumentErrorResponse
// @Router       /api/documents/{id}/void [post]
func (h *DocumentHandler) Void(c *fiber.Ctx) error {
	res, err := h.engine.Void(c.UserContext(), c.Params("id"), GetUserID(c))
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(inventory.ToPostingResultResponse(res))
}

// Duplicate godoc
// @Summary      Copiar documento como borrador nuevo
// @Tags         documents
// @Security     Bearer
// @Produce      json
// @Param        id   path  string  true  "ID del documento origen"
// @Success      201  {object}  dto.DocumentResponse
// @Failure      404  {object}  dto.ErrorResponse
// @Router       /api/documents/{id}/duplicate [post]
func (h *DocumentHandler) Duplicate(c *fiber.Ctx) error {
	doc, err := h.docs.DuplicateAsDraft(c.UserContext(), c.Params("id"), GetUserID(c))
	if err != nil {
		return writeError(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(inventory.ToDocumentResponse(doc))
}

// Voucher godoc
// @Summary      Comprobante PDF del documento
// @Tags         documents
// @Security     Bearer
// @Produce      application/pdf
// @Param        id   path  string  true  "ID del documento"
// @Success      200  {file}    binary
// @Failure      404  {object}  dto.ErrorResponse
// @Router       /api/documents/{id}/voucher.pdf [get]
func (h *DocumentHandler) Voucher(c *fiber.Ctx) error {
	id := c.Params("id")
	pdf, err := h.voucher.GenerateVoucherPDF(c.UserContext(), id)
	if err != nil {
		return writeError(c, err)
	}
	c.Set(fiber.HeaderContentType, "application/pdf")
	c.Set(fiber.HeaderContentDisposition, `inline; filename="documento-`+id+`.pdf"`)
	return c.Send(pdf)
}
