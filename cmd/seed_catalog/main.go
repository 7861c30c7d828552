// seed_catalog carga productos al catálogo desde un CSV o un libro .xlsx.
//
// Uso: go run ./cmd/seed_catalog [-latin1] productos.csv|productos.xlsx
// Columnas: sku, nombre, unidad (opcional, UND por defecto), precisión (opcional, 0..6).
// Los SKU ya existentes se omiten; la conexión se toma de la misma configuración que la API.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"os"

	"github.com/jhoicas/stock-ledger/internal/application/usecase"
	"github.com/jhoicas/stock-ledger/internal/domain"
	"github.com/jhoicas/stock-ledger/internal/infrastructure/postgres"
	"github.com/jhoicas/stock-ledger/pkg/config"
	"github.com/jhoicas/stock-ledger/pkg/logger"
)

func main() {
	latin1 := flag.Bool("latin1", false, "el CSV viene en ISO-8859-1")
	flag.Parse()
	if flag.NArg() != 1 {
		fmt.Fprintln(os.Stderr, "uso: seed_catalog [-latin1] archivo.csv|archivo.xlsx")
		os.Exit(2)
	}
	path := flag.Arg(0)

	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Configuración: %v\n", err)
		os.Exit(1)
	}
	log := logger.New(logger.Config{Env: cfg.App.Env, Level: cfg.App.LogLevel}).Component("seed_catalog")

	f, err := os.Open(path)
	if err != nil {
		log.Fatal().Err(err).Str("file", path).Msg("abrir archivo")
	}
	defer f.Close()

	rows, err := readRows(path, f, *latin1)
	if err != nil {
		log.Fatal().Err(err).Str("file", path).Msg("leer archivo")
	}
	products, rowErrs := parseProducts(rows)
	for _, re := range rowErrs {
		log.Warn().Int("row", re.Row).Err(re.Err).Msg("fila omitida")
	}

	ctx := context.Background()
	pool, err := postgres.NewPool(ctx, cfg.DB)
	if err != nil {
		log.Fatal().Err(err).Msg("conexión a PostgreSQL")
	}
	defer pool.Close()

	uc := usecase.NewProductUseCase(postgres.NewProductRepository(pool))
	var created, skipped, failed int
	for _, p := range products {
		_, err := uc.Create(ctx, p)
		switch {
		case err == nil:
			created++
		case errors.Is(err, domain.ErrDuplicate):
			skipped++
		default:
			failed++
			log.Error().Err(err).Str("sku", p.SKU).Msg("alta de producto")
		}
	}

	log.Info().
		Int("created", created).
		Int("skipped", skipped).
		Int("failed", failed+len(rowErrs)).
		Msg("carga de catálogo terminada")
	if failed > 0 {
		os.Exit(1)
	}
}
