// Package inventory contiene las reglas de dominio que convierten líneas de documento
// en deltas firmados sobre el libro de stock.
package inventory

import (
	"fmt"
	"sort"

	"github.com/shopspring/decimal"

	"github.com/jhoicas/stock-ledger/internal/domain"
	"github.com/jhoicas/stock-ledger/internal/domain/entity"
)

// Delta cambio firmado sobre una clave, originado por una línea de documento.
type Delta struct {
	LineNo   int
	Key      entity.StockKey
	Quantity decimal.Decimal
}

// MovementRule contrato común de los tipos de documento. El conjunto es cerrado:
// solo este paquete puede implementarlo.
type MovementRule interface {
	Type() entity.DocumentType
	// Validate revisa la forma de una línea (sin consultar catálogo).
	Validate(line entity.DocumentLine) []domain.LineProblem
	// Deltas devuelve los cambios de la línea; en traslados primero el débito y luego el crédito.
	Deltas(line entity.DocumentLine) []Delta
	// Locations devuelve las ubicaciones que la línea referencia.
	Locations(line entity.DocumentLine) []string
	sealed()
}

type receiptRule struct{}
type deliveryRule struct{}
type transferRule struct{}
type adjustmentRule struct{}

var rules = map[entity.DocumentType]MovementRule{
	entity.DocumentTypeReceipt:    receiptRule{},
	entity.DocumentTypeDelivery:   deliveryRule{},
	entity.DocumentTypeTransfer:   transferRule{},
	entity.DocumentTypeAdjustment: adjustmentRule{},
}

// RuleFor devuelve la regla del tipo de documento.
func RuleFor(t entity.DocumentType) (MovementRule, error) {
	r, ok := rules[t]
	if !ok {
		return nil, fmt.Errorf("tipo de documento %q: %w", t, domain.ErrInvalidInput)
	}
	return r, nil
}

// ── Receipt ──────────────────────────────────────────────────────────────────

func (receiptRule) Type() entity.DocumentType { return entity.DocumentTypeReceipt }
func (receiptRule) sealed()                   {}

func (receiptRule) Validate(l entity.DocumentLine) []domain.LineProblem {
	probs := positiveQuantity(l)
	if l.ToLocationID == "" {
		probs = append(probs, problem(l, "to_location_id", "ubicación destino requerida"))
	}
	return probs
}

func (receiptRule) Deltas(l entity.DocumentLine) []Delta {
	return []Delta{{LineNo: l.LineNo, Key: key(l.ProductID, l.ToLocationID), Quantity: l.Quantity}}
}

func (receiptRule) Locations(l entity.DocumentLine) []string { return []string{l.ToLocationID} }

// ── Delivery ─────────────────────────────────────────────────────────────────

func (deliveryRule) Type() entity.DocumentType { return entity.DocumentTypeDelivery }
func (deliveryRule) sealed()                   {}

func (deliveryRule) Validate(l entity.DocumentLine) []domain.LineProblem {
	probs := positiveQuantity(l)
	if l.FromLocationID == "" {
		probs = append(probs, problem(l, "from_location_id", "ubicación origen requerida"))
	}
	return probs
}

func (deliveryRule) Deltas(l entity.DocumentLine) []Delta {
	return []Delta{{LineNo: l.LineNo, Key: key(l.ProductID, l.FromLocationID), Quantity: l.Quantity.Neg()}}
}

func (deliveryRule) Locations(l entity.DocumentLine) []string { return []string{l.FromLocationID} }

// ── Transfer ─────────────────────────────────────────────────────────────────

func (transferRule) Type() entity.DocumentType { return entity.DocumentTypeTransfer }
func (transferRule) sealed()                   {}

func (transferRule) Validate(l entity.DocumentLine) []domain.LineProblem {
	probs := positiveQuantity(l)
	if l.FromLocationID == "" {
		probs = append(probs, problem(l, "from_location_id", "ubicación origen requerida"))
	}
	if l.ToLocationID == "" {
		probs = append(probs, problem(l, "to_location_id", "ubicación destino requerida"))
	}
	if l.FromLocationID != "" && l.FromLocationID == l.ToLocationID {
		probs = append(probs, problem(l, "to_location_id", "origen y destino deben ser distintos"))
	}
	return probs
}

func (transferRule) Deltas(l entity.DocumentLine) []Delta {
	return []Delta{
		{LineNo: l.LineNo, Key: key(l.ProductID, l.FromLocationID), Quantity: l.Quantity.Neg()},
		{LineNo: l.LineNo, Key: key(l.ProductID, l.ToLocationID), Quantity: l.Quantity},
	}
}

func (transferRule) Locations(l entity.DocumentLine) []string {
	return []string{l.FromLocationID, l.ToLocationID}
}

// ── Adjustment ───────────────────────────────────────────────────────────────

func (adjustmentRule) Type() entity.DocumentType { return entity.DocumentTypeAdjustment }
func (adjustmentRule) sealed()                   {}

func (adjustmentRule) Validate(l entity.DocumentLine) []domain.LineProblem {
	var probs []domain.LineProblem
	if l.ProductID == "" {
		probs = append(probs, problem(l, "product_id", "producto requerido"))
	}
	if l.Quantity.IsZero() {
		probs = append(probs, problem(l, "quantity", "el ajuste no puede ser cero"))
	}
	if l.LocationID == "" {
		probs = append(probs, problem(l, "location_id", "ubicación requerida"))
	}
	return probs
}

func (adjustmentRule) Deltas(l entity.DocumentLine) []Delta {
	return []Delta{{LineNo: l.LineNo, Key: key(l.ProductID, l.LocationID), Quantity: l.Quantity}}
}

func (adjustmentRule) Locations(l entity.DocumentLine) []string { return []string{l.LocationID} }

// ── Helpers ──────────────────────────────────────────────────────────────────

func positiveQuantity(l entity.DocumentLine) []domain.LineProblem {
	var probs []domain.LineProblem
	if l.ProductID == "" {
		probs = append(probs, problem(l, "product_id", "producto requerido"))
	}
	if !l.Quantity.GreaterThan(decimal.Zero) {
		probs = append(probs, problem(l, "quantity", "la cantidad debe ser mayor que cero"))
	}
	return probs
}

func problem(l entity.DocumentLine, field, msg string) domain.LineProblem {
	return domain.LineProblem{LineNo: l.LineNo, Field: field, Message: msg}
}

func key(productID, locationID string) entity.StockKey {
	return entity.StockKey{ProductID: productID, LocationID: locationID}
}

// CanonicalKeys devuelve las claves únicas de los deltas en orden canónico de bloqueo.
func CanonicalKeys(deltas []Delta) []entity.StockKey {
	seen := make(map[entity.StockKey]struct{}, len(deltas))
	keys := make([]entity.StockKey, 0, len(deltas))
	for _, d := range deltas {
		if _, ok := seen[d.Key]; ok {
			continue
		}
		seen[d.Key] = struct{}{}
		keys = append(keys, d.Key)
	}
	SortKeys(keys)
	return keys
}

// SortKeys ordena claves en orden canónico (product_id, location_id).
func SortKeys(keys []entity.StockKey) {
	sort.Slice(keys, func(i, j int) bool { return keys[i].Less(keys[j]) })
}
