package http

import (
	"github.com/gofiber/fiber/v2"

	"github.com/jhoicas/stock-ledger/internal/application/inventory"
	"github.com/jhoicas/stock-ledger/internal/application/usecase"
	"github.com/jhoicas/stock-ledger/pkg/jwt"
)

// RouterDeps dependencias para el router.
type RouterDeps struct {
	WarehouseUC *usecase.WarehouseUseCase
	ProductUC   *usecase.ProductUseCase
	DocumentUC  *inventory.DocumentUseCase
	Engine      *inventory.PostingEngine
	StockUC     *inventory.StockQueryUseCase
	VoucherUC   *inventory.VoucherUseCase
	JWTSecret   string
}

// Router registra las rutas de la API. Todas requieren Bearer Token; las escrituras
// exigen admin o bodeguero y anular/reconciliar solo admin.
func Router(app *fiber.App, deps RouterDeps) {
	protected := app.Group("/api", AuthMiddleware(deps.JWTSecret))
	writers := RequireRole(jwt.RoleAdmin, jwt.RoleOperator)
	adminOnly := RequireRole(jwt.RoleAdmin)

	// Products
	products := protected.Group("/products")
	productHandler := NewProductHandler(deps.ProductUC)
	products.Post("/", writers, productHandler.Create)
	products.Get("/", productHandler.List)
	products.Get("/:id", productHandler.GetByID)
	products.Patch("/:id", writers, productHandler.Update)

	// Warehouses + ubicaciones
	warehouses := protected.Group("/warehouses")
	warehouseHandler := NewWarehouseHandler(deps.WarehouseUC)
	warehouses.Post("/", writers, warehouseHandler.Create)
	warehouses.Get("/", warehouseHandler.List)
	warehouses.Get("/:id", warehouseHandler.GetByID)
	warehouses.Put("/:id", writers, warehouseHandler.Update)
	warehouses.Post("/:id/locations", writers, warehouseHandler.CreateLocation)
	warehouses.Get("/:id/locations", warehouseHandler.ListLocations)

	// Documents
	documents := protected.Group("/documents")
	documentHandler := NewDocumentHandler(deps.DocumentUC, deps.Engine, deps.VoucherUC)
	documents.Post("/", writers, documentHandler.Create)
	documents.Get("/", documentHandler.List)
	documents.Get("/:id", documentHandler.GetByID)
	documents.Put("/:id/lines", writers, documentHandler.UpdateLines)
	documents.Delete("/:id", writers, documentHandler.Delete)
	documents.Post("/:id/post", writers, documentHandler.Post)
	documents.Post("/:id/void", adminOnly, documentHandler.Void)
	documents.Post("/:id/duplicate", writers, documentHandler.Duplicate)
	documents.Get("/:id/voucher.pdf", documentHandler.Voucher)

	// Stock
	stock := protected.Group("/stock")
	stockHandler := NewStockHandler(deps.StockUC)
	stock.Get("/balance", stockHandler.Balance)
	stock.Get("/ledger", stockHandler.Ledger)
	stock.Get("/locations/:id", stockHandler.ByLocation)
	stock.Get("/products/:id", stockHandler.ByProduct)
	stock.Post("/reconcile", adminOnly, stockHandler.Reconcile)
}
