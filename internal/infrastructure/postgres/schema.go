package postgres

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"
)

// schema DDL idempotente del ledger de stock. ledger_entries es de solo-anexado:
// el trigger rechaza UPDATE y DELETE. Las líneas de borrador guardan las referencias
// tal cual llegan; se validan contra el catálogo al contabilizar.
var schema = []string{
	`CREATE TABLE IF NOT EXISTS products (
		id            UUID PRIMARY KEY,
		sku           TEXT NOT NULL UNIQUE,
		name          TEXT NOT NULL,
		unit_measure  TEXT NOT NULL,
		precision     INTEGER NOT NULL DEFAULT 0 CHECK (precision BETWEEN 0 AND 6),
		created_at    TIMESTAMPTZ NOT NULL,
		updated_at    TIMESTAMPTZ NOT NULL
	)`,
	`CREATE TABLE IF NOT EXISTS warehouses (
		id          UUID PRIMARY KEY,
		name        TEXT NOT NULL,
		address     TEXT NOT NULL DEFAULT '',
		created_at  TIMESTAMPTZ NOT NULL,
		updated_at  TIMESTAMPTZ NOT NULL
	)`,
	`CREATE TABLE IF NOT EXISTS stock_locations (
		id            UUID PRIMARY KEY,
		warehouse_id  UUID NOT NULL REFERENCES warehouses(id),
		code          TEXT NOT NULL,
		name          TEXT NOT NULL DEFAULT '',
		created_at    TIMESTAMPTZ NOT NULL,
		UNIQUE (warehouse_id, code)
	)`,
	`CREATE TABLE IF NOT EXISTS documents (
		id              UUID PRIMARY KEY,
		type            TEXT NOT NULL CHECK (type IN ('RECEIPT','DELIVERY','TRANSFER','ADJUSTMENT')),
		status          TEXT NOT NULL CHECK (status IN ('DRAFT','POSTED','VOIDED')),
		reference       TEXT NOT NULL DEFAULT '',
		notes           TEXT NOT NULL DEFAULT '',
		created_by      TEXT NOT NULL DEFAULT '',
		created_at      TIMESTAMPTZ NOT NULL,
		updated_at      TIMESTAMPTZ NOT NULL,
		posted_at       TIMESTAMPTZ,
		posted_by       TEXT NOT NULL DEFAULT '',
		voided_at       TIMESTAMPTZ,
		voided_by       TEXT NOT NULL DEFAULT '',
		void_reference  UUID,
		version         INTEGER NOT NULL DEFAULT 1
	)`,
	`CREATE INDEX IF NOT EXISTS idx_documents_created ON documents (created_at DESC, id)`,
	`CREATE TABLE IF NOT EXISTS document_lines (
		document_id       UUID NOT NULL REFERENCES documents(id) ON DELETE CASCADE,
		line_no           INTEGER NOT NULL,
		product_id        TEXT NOT NULL DEFAULT '',
		quantity          NUMERIC(20,6) NOT NULL,
		from_location_id  TEXT NOT NULL DEFAULT '',
		to_location_id    TEXT NOT NULL DEFAULT '',
		location_id       TEXT NOT NULL DEFAULT '',
		reason_code       TEXT NOT NULL DEFAULT '',
		PRIMARY KEY (document_id, line_no)
	)`,
	`CREATE TABLE IF NOT EXISTS ledger_entries (
		seq                   BIGSERIAL UNIQUE,
		id                    UUID PRIMARY KEY,
		ts                    TIMESTAMPTZ NOT NULL,
		product_id            UUID NOT NULL REFERENCES products(id),
		location_id           UUID NOT NULL REFERENCES stock_locations(id),
		delta                 NUMERIC(20,6) NOT NULL,
		balance_after         NUMERIC(20,6) NOT NULL CHECK (balance_after >= 0),
		document_type         TEXT NOT NULL,
		document_id           UUID NOT NULL,
		line_no               INTEGER NOT NULL,
		reverses_document_id  UUID,
		reverses_entry_id     UUID REFERENCES ledger_entries(id),
		created_by            TEXT NOT NULL DEFAULT ''
	)`,
	`CREATE INDEX IF NOT EXISTS idx_ledger_key ON ledger_entries (product_id, location_id, ts, seq)`,
	`CREATE INDEX IF NOT EXISTS idx_ledger_document ON ledger_entries (document_id, seq)`,
	`CREATE OR REPLACE FUNCTION ledger_entries_append_only() RETURNS trigger AS $$
	BEGIN
		RAISE EXCEPTION 'ledger_entries es de solo-anexado';
	END;
	$$ LANGUAGE plpgsql`,
	`DROP TRIGGER IF EXISTS trg_ledger_entries_append_only ON ledger_entries`,
	`CREATE TRIGGER trg_ledger_entries_append_only
		BEFORE UPDATE OR DELETE ON ledger_entries
		FOR EACH ROW EXECUTE FUNCTION ledger_entries_append_only()`,
	`CREATE TABLE IF NOT EXISTS stock_balances (
		product_id   UUID NOT NULL REFERENCES products(id),
		location_id  UUID NOT NULL REFERENCES stock_locations(id),
		quantity     NUMERIC(20,6) NOT NULL DEFAULT 0 CHECK (quantity >= 0),
		updated_at   TIMESTAMPTZ NOT NULL DEFAULT now(),
		PRIMARY KEY (product_id, location_id)
	)`,
	`CREATE INDEX IF NOT EXISTS idx_stock_balances_location ON stock_balances (location_id)`,
}

// Migrate aplica el esquema dentro de una transacción.
func Migrate(ctx context.Context, pool *pgxpool.Pool) error {
	tx, err := pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin migrate: %w", err)
	}
	defer func() { _ = tx.Rollback(ctx) }()
	for i, stmt := range schema {
		if _, err := tx.Exec(ctx, stmt); err != nil {
			return fmt.Errorf("migrate paso %d: %w", i+1, err)
		}
	}
	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("commit migrate: %w", err)
	}
	return nil
}
