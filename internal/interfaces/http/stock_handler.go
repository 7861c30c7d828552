package http

import (
	"time"

	"github.com/gofiber/fiber/v2"

	"github.com/jhoicas/stock-ledger/internal/application/dto"
	"github.com/jhoicas/stock-ledger/internal/application/inventory"
	"github.com/jhoicas/stock-ledger/internal/domain/entity"
)

// StockHandler consultas de saldo y ledger (protegido).
type StockHandler struct {
	uc *inventory.StockQueryUseCase
}

// NewStockHandler construye el handler.
func NewStockHandler(uc *inventory.StockQueryUseCase) *StockHandler {
	return &StockHandler{uc: uc}
}

// Balance godoc
// @Summary      Saldo de un producto en una ubicación
// @Tags         stock
// @Security     Bearer
// @Produce      json
// @Param        product_id   query  string  true  "ID del producto"
// @Param        location_id  query  string  true  "ID de la ubicación"
// @Success      200  {object}  dto.BalanceResponse
// @Failure      400  {object}  dto.ErrorResponse
// @Router       /api/stock/balance [get]
func (h *StockHandler) Balance(c *fiber.Ctx) error {
	productID, locationID := c.Query("product_id"), c.Query("location_id")
	qty, err := h.uc.GetBalance(c.UserContext(), productID, locationID)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(dto.BalanceResponse{ProductID: productID, LocationID: locationID, Quantity: qty})
}

// ByLocation godoc
// @Summary      Saldos de una ubicación
// @Tags         stock
// @Security     Bearer
// @Produce      json
// @Param        id   path  string  true  "ID de la ubicación"
// @Success      200  {object}  dto.LocationStockResponse
// @Router       /api/stock/locations/{id} [get]
func (h *StockHandler) ByLocation(c *fiber.Ctx) error {
	id := c.Params("id")
	list, err := h.uc.ListByLocation(c.UserContext(), id)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(dto.LocationStockResponse{LocationID: id, Items: toBalanceResponses(list)})
}

// ByProduct godoc
// @Summary      Saldos de un producto en todas sus ubicaciones
// @Tags         stock
// @Security     Bearer
// @Produce      json
// @Param        id   path  string  true  "ID del producto"
// @Success      200  {array}  dto.BalanceResponse
// @Router       /api/stock/products/{id} [get]
func (h *StockHandler) ByProduct(c *fiber.Ctx) error {
	list, err := h.uc.ListByProduct(c.UserContext(), c.Params("id"))
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(toBalanceResponses(list))
}

// Ledger godoc
// @Summary      Asientos de una clave producto/ubicación
// @Description  Orden por timestamp y luego por inserción. since en RFC3339 filtra desde esa fecha.
// @Tags         stock
// @Security     Bearer
// @Produce      json
// @Param        product_id   query  string  true   "ID del producto"
// @Param        location_id  query  string  true   "ID de la ubicación"
// @Param        since        query  string  false  "RFC3339"
// @Success      200  {object}  dto.LedgerResponse
// @Failure      400  {object}  dto.ErrorResponse
// @Router       /api/stock/ledger [get]
func (h *StockHandler) Ledger(c *fiber.Ctx) error {
	productID, locationID := c.Query("product_id"), c.Query("location_id")
	var since *time.Time
	if s := c.Query("since"); s != "" {
		t, err := time.Parse(time.RFC3339, s)
		if err != nil {
			return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Code: "VALIDATION", Message: "since debe ser RFC3339"})
		}
		since = &t
	}
	seq, err := h.uc.GetLedger(c.UserContext(), productID, locationID, since)
	if err != nil {
		return writeError(c, err)
	}
	out := dto.LedgerResponse{ProductID: productID, LocationID: locationID, Entries: []dto.LedgerEntryResponse{}}
	for e, err := range seq {
		if err != nil {
			return writeError(c, err)
		}
		out.Entries = append(out.Entries, inventory.ToLedgerEntryResponse(e))
	}
	return c.JSON(out)
}

// Reconcile godoc
// @Summary      Recalcular un saldo desde el ledger
// @Description  Requiere rol admin. Informa la diferencia encontrada y corrige el saldo.
// @Tags         stock
// @Security     Bearer
// @Accept       json
// @Produce      json
// @Param        body  body  dto.ReconcileRequest  true  "Clave a reconciliar"
// @Success      200   {object}  dto.ReconcileResponse
// @Failure      400   {object}  dto.ErrorResponse
// @Router       /api/stock/reconcile [post]
func (h *StockHandler) Reconcile(c *fiber.Ctx) error {
	var in dto.ReconcileRequest
	if err := c.BodyParser(&in); err != nil {
		return badBody(c)
	}
	res, err := h.uc.Reconcile(c.UserContext(), in.ProductID, in.LocationID)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(dto.ReconcileResponse{
		ProductID:  res.ProductID,
		LocationID: res.LocationID,
		Previous:   res.Previous,
		Recomputed: res.Recomputed,
		Drift:      res.Drift,
	})
}

func toBalanceResponses(list []entity.StockBalance) []dto.BalanceResponse {
	out := make([]dto.BalanceResponse, 0, len(list))
	for _, b := range list {
		updated := b.UpdatedAt
		out = append(out, dto.BalanceResponse{
			ProductID:  b.ProductID,
			LocationID: b.LocationID,
			Quantity:   b.Quantity,
			UpdatedAt:  &updated,
		})
	}
	return out
}
