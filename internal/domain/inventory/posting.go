package inventory

import (
	"github.com/shopspring/decimal"

	"github.com/jhoicas/stock-ledger/internal/domain"
	"github.com/jhoicas/stock-ledger/internal/domain/entity"
)

// Catalog resultado de resolver las referencias de un documento contra el catálogo.
// Products contiene solo los productos existentes; Locations solo las ubicaciones existentes.
type Catalog struct {
	Products  map[string]*entity.Product
	Locations map[string]bool
}

// References devuelve los IDs de productos y ubicaciones que usa el documento (sin repetir).
func References(doc *entity.Document) (productIDs, locationIDs []string) {
	rule, err := RuleFor(doc.Type)
	if err != nil {
		return nil, nil
	}
	seenP := map[string]bool{}
	seenL := map[string]bool{}
	for _, l := range doc.Lines {
		if l.ProductID != "" && !seenP[l.ProductID] {
			seenP[l.ProductID] = true
			productIDs = append(productIDs, l.ProductID)
		}
		for _, loc := range rule.Locations(l) {
			if loc != "" && !seenL[loc] {
				seenL[loc] = true
				locationIDs = append(locationIDs, loc)
			}
		}
	}
	return productIDs, locationIDs
}

// Validate verifica el documento completo para contabilizarlo y devuelve TODAS las
// líneas con problemas. Un slice vacío significa documento válido.
func Validate(doc *entity.Document, cat Catalog) []domain.LineProblem {
	rule, err := RuleFor(doc.Type)
	if err != nil {
		return []domain.LineProblem{{Field: "type", Message: "tipo de documento desconocido"}}
	}
	if len(doc.Lines) == 0 {
		return []domain.LineProblem{{Message: "el documento no tiene líneas"}}
	}
	var probs []domain.LineProblem
	for _, l := range doc.Lines {
		lineProbs := rule.Validate(l)
		if l.ProductID != "" {
			p, ok := cat.Products[l.ProductID]
			if !ok || p == nil {
				lineProbs = append(lineProbs, problem(l, "product_id", "producto no existe: "+l.ProductID))
			} else if !l.Quantity.IsZero() && !fitsPrecision(l.Quantity, p.Precision) {
				lineProbs = append(lineProbs, problem(l, "quantity", "la cantidad excede la precisión de la unidad del producto"))
			}
		}
		for _, loc := range rule.Locations(l) {
			if loc != "" && !cat.Locations[loc] {
				lineProbs = append(lineProbs, problem(l, "location", "ubicación no existe: "+loc))
			}
		}
		probs = append(probs, lineProbs...)
	}
	return probs
}

func fitsPrecision(q decimal.Decimal, precision int32) bool {
	return q.Equal(q.Truncate(precision))
}

// ComputeDeltas aplica la regla del tipo a cada línea, en orden de línea.
func ComputeDeltas(doc *entity.Document) ([]Delta, error) {
	rule, err := RuleFor(doc.Type)
	if err != nil {
		return nil, err
	}
	deltas := make([]Delta, 0, len(doc.Lines)*2)
	for _, l := range doc.Lines {
		deltas = append(deltas, rule.Deltas(l)...)
	}
	return deltas, nil
}

// ReversalDeltas genera un delta compensatorio por asiento, en el orden original.
func ReversalDeltas(entries []entity.LedgerEntry) []Delta {
	deltas := make([]Delta, 0, len(entries))
	for _, e := range entries {
		deltas = append(deltas, Delta{LineNo: e.LineNo, Key: e.Key(), Quantity: e.Delta.Neg()})
	}
	return deltas
}

// Projection resultado de aplicar deltas sobre los saldos actuales.
type Projection struct {
	BalanceAfter []decimal.Decimal // saldo corrido tras cada delta (mismo índice)
	Final        map[entity.StockKey]decimal.Decimal
}

// Project aplica los deltas de forma acumulada sobre current y reporta cada delta que
// dejaría su clave en negativo. Las claves ausentes en current valen cero.
func Project(current map[entity.StockKey]decimal.Decimal, deltas []Delta) (Projection, []domain.Shortage) {
	running := make(map[entity.StockKey]decimal.Decimal, len(current))
	for k, v := range current {
		running[k] = v
	}
	proj := Projection{BalanceAfter: make([]decimal.Decimal, len(deltas))}
	var shortages []domain.Shortage
	for i, d := range deltas {
		before := running[d.Key]
		after := before.Add(d.Quantity)
		if after.IsNegative() {
			shortages = append(shortages, domain.Shortage{
				LineNo:     d.LineNo,
				ProductID:  d.Key.ProductID,
				LocationID: d.Key.LocationID,
				Available:  before,
				Requested:  d.Quantity.Abs(),
			})
		}
		running[d.Key] = after
		proj.BalanceAfter[i] = after
	}
	proj.Final = running
	return proj, shortages
}
