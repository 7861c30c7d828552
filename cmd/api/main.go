package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gofiber/contrib/swagger"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/recover"

	"github.com/jhoicas/stock-ledger/internal/application/inventory"
	"github.com/jhoicas/stock-ledger/internal/application/usecase"
	"github.com/jhoicas/stock-ledger/internal/domain/repository"
	"github.com/jhoicas/stock-ledger/internal/infrastructure/memory"
	infrapdf "github.com/jhoicas/stock-ledger/internal/infrastructure/pdf"
	"github.com/jhoicas/stock-ledger/internal/infrastructure/postgres"
	httpRouter "github.com/jhoicas/stock-ledger/internal/interfaces/http"
	"github.com/jhoicas/stock-ledger/pkg/config"
	"github.com/jhoicas/stock-ledger/pkg/logger"
)

// storage repositorios fuera de transacción más el TxRunner del driver elegido.
type storage struct {
	tx         inventory.TxRunner
	products   repository.ProductRepository
	warehouses repository.WarehouseRepository
	locations  repository.StockLocationRepository
	documents  repository.DocumentRepository
	ledger     repository.LedgerRepository
	balances   repository.StockBalanceRepository
	close      func()
}

func main() {
	cfg, err := config.Load()
	if err != nil {
		panic("cargar configuración: " + err.Error())
	}

	log := logger.New(logger.Config{
		Env:   cfg.App.Env,
		Level: cfg.App.LogLevel,
	})
	log.Info().
		Str("env", cfg.App.Env).
		Str("app", cfg.App.Name).
		Str("storage", cfg.Storage.Driver).
		Msg("iniciando aplicación")

	ctx := context.Background()
	st, err := openStorage(ctx, cfg, log)
	if err != nil {
		log.Fatal().Err(err).Msg("inicializar almacenamiento")
	}
	defer st.close()

	productUC := usecase.NewProductUseCase(st.products)
	warehouseUC := usecase.NewWarehouseUseCase(st.warehouses, st.locations)
	documentUC := inventory.NewDocumentUseCase(st.tx, st.documents)
	engine := inventory.NewPostingEngine(st.tx, st.documents, st.products, st.locations, log)
	stockUC := inventory.NewStockQueryUseCase(st.tx, st.balances, st.ledger, log)

	// PDF: comprobante imprimible de documentos de movimiento
	voucherUC := inventory.NewVoucherUseCase(
		st.documents, st.products, st.locations, st.ledger,
		infrapdf.NewMarotoVoucherGenerator(cfg.App.Name),
	)

	app := fiber.New(fiber.Config{
		AppName:      cfg.App.Name,
		ReadTimeout:  time.Second * 10,
		WriteTimeout: time.Second * 30,
		IdleTimeout:  time.Second * 60,
	})
	app.Use(recover.New())

	// Swagger UI en local: http://localhost:<port>/docs
	app.Use(swagger.New(swagger.Config{
		BasePath: "/",
		FilePath: "./docs/swagger.json",
		Path:     "docs",
		Title:    "Stock Ledger API",
	}))

	app.Get("/health", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{"status": "ok", "service": cfg.App.Name, "storage": cfg.Storage.Driver})
	})

	httpRouter.Router(app, httpRouter.RouterDeps{
		WarehouseUC: warehouseUC,
		ProductUC:   productUC,
		DocumentUC:  documentUC,
		Engine:      engine,
		StockUC:     stockUC,
		VoucherUC:   voucherUC,
		JWTSecret:   cfg.JWT.Secret,
	})

	go func() {
		if err := app.Listen(cfg.HTTP.Addr()); err != nil {
			log.Error().Err(err).Msg("servidor HTTP finalizado")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info().Msg("señal de apagado recibida, cerrando servidor...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	// Las unidades de trabajo en curso terminan antes de que se cierre el pool.
	if err := app.ShutdownWithContext(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("apagado del servidor")
	}

	log.Info().Msg("aplicación detenida")
}

func openStorage(ctx context.Context, cfg *config.Config, log *logger.Logger) (*storage, error) {
	if cfg.Storage.Driver == config.StorageDriverMemory {
		log.Warn().Msg("almacenamiento en memoria: los datos se pierden al reiniciar")
		s := memory.NewStore()
		return &storage{
			tx:         memory.NewTxRunner(s),
			products:   s.Products(),
			warehouses: s.Warehouses(),
			locations:  s.Locations(),
			documents:  s.Documents(),
			ledger:     s.Ledger(),
			balances:   s.Balances(),
			close:      func() {},
		}, nil
	}

	pool, err := postgres.NewPool(ctx, cfg.DB)
	if err != nil {
		return nil, err
	}
	if cfg.DB.Migrate {
		if err := postgres.Migrate(ctx, pool); err != nil {
			pool.Close()
			return nil, err
		}
		log.Info().Msg("esquema aplicado")
	}
	return &storage{
		tx:         postgres.NewTxRunner(pool, cfg.Storage.LedgerPageSize),
		products:   postgres.NewProductRepository(pool),
		warehouses: postgres.NewWarehouseRepository(pool),
		locations:  postgres.NewStockLocationRepository(pool),
		documents:  postgres.NewDocumentRepository(pool),
		ledger:     postgres.NewLedgerRepository(pool, cfg.Storage.LedgerPageSize),
		balances:   postgres.NewStockBalanceRepository(pool),
		close:      pool.Close,
	}, nil
}
