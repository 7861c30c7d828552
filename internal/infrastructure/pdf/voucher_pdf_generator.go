// Package pdf genera el comprobante imprimible de un documento de movimiento.
//
// Layout de la página A4:
//
//	┌─────────────────────────────────────────────────────────────┐
//	│  HEADER: Tipo de documento + estado │ ID + fechas            │
//	│  ─────────────────────────────────────────────────────────  │
//	│  Referencia / Notas / Usuario                               │
//	│  ─────────────────────────────────────────────────────────  │
//	│  TABLA: # | SKU | Producto | Origen | Destino | Cantidad     │
//	│  ─────────────────────────────────────────────────────────  │
//	│  ASIENTOS: ubicación | delta | saldo resultante             │
//	│  ─────────────────────────────────────────────────────────  │
//	│  FOOTER: QR con el ID del documento                         │
//	└─────────────────────────────────────────────────────────────┘
package pdf

import (
	"context"
	"fmt"
	"time"

	maroto "github.com/johnfercher/maroto/v2"
	"github.com/johnfercher/maroto/v2/pkg/components/code"
	"github.com/johnfercher/maroto/v2/pkg/components/col"
	"github.com/johnfercher/maroto/v2/pkg/components/line"
	"github.com/johnfercher/maroto/v2/pkg/components/row"
	"github.com/johnfercher/maroto/v2/pkg/components/text"
	"github.com/johnfercher/maroto/v2/pkg/config"
	"github.com/johnfercher/maroto/v2/pkg/consts/align"
	"github.com/johnfercher/maroto/v2/pkg/consts/fontstyle"
	"github.com/johnfercher/maroto/v2/pkg/consts/pagesize"
	"github.com/johnfercher/maroto/v2/pkg/core"
	"github.com/johnfercher/maroto/v2/pkg/props"

	appinventory "github.com/jhoicas/stock-ledger/internal/application/inventory"
	"github.com/jhoicas/stock-ledger/internal/domain/entity"
)

// ── Paleta de colores ─────────────────────────────────────────────────────────

var (
	colorPrimary = &props.Color{Red: 0, Green: 70, Blue: 127}
	colorGray    = &props.Color{Red: 100, Green: 100, Blue: 100}
	colorRed     = &props.Color{Red: 170, Green: 30, Blue: 30}
)

var typeTitles = map[entity.DocumentType]string{
	entity.DocumentTypeReceipt:    "ENTRADA DE MERCANCÍA",
	entity.DocumentTypeDelivery:   "SALIDA DE MERCANCÍA",
	entity.DocumentTypeTransfer:   "TRASLADO ENTRE UBICACIONES",
	entity.DocumentTypeAdjustment: "AJUSTE DE INVENTARIO",
}

// ── Generator ─────────────────────────────────────────────────────────────────

var _ appinventory.VoucherGenerator = (*MarotoVoucherGenerator)(nil)

// MarotoVoucherGenerator implementa inventory.VoucherGenerator usando Maroto v2.
type MarotoVoucherGenerator struct {
	companyName string
}

// NewMarotoVoucherGenerator construye el generador; companyName va en los metadatos del PDF.
func NewMarotoVoucherGenerator(companyName string) *MarotoVoucherGenerator {
	return &MarotoVoucherGenerator{companyName: companyName}
}

// GenerateVoucherPDF genera el PDF y devuelve sus bytes.
func (g *MarotoVoucherGenerator) GenerateVoucherPDF(_ context.Context, v *appinventory.Voucher) ([]byte, error) {
	if v == nil || v.Document == nil {
		return nil, fmt.Errorf("pdf: comprobante vacío")
	}
	cfg := config.NewBuilder().
		WithPageSize(pagesize.A4).
		WithLeftMargin(10).WithRightMargin(10).
		WithTopMargin(10).WithBottomMargin(10).
		WithDefaultFont(&props.Font{Family: "helvetica", Size: 9}).
		WithTitle("Comprobante "+string(v.Document.Type), true).
		WithAuthor(g.companyName, true).
		Build()

	m := maroto.New(cfg)

	m.AddRows(headerRow(v.Document))
	m.AddRows(line.NewRow(1, props.Line{Color: colorPrimary, Thickness: 0.5}))
	m.AddRows(infoRow(v.Document))
	m.AddRows(line.NewRow(1, props.Line{Color: colorPrimary, Thickness: 0.3}))

	m.AddRows(linesHeaderRow())
	m.AddRows(lineRows(v.Document.Type, v.Lines)...)

	if len(v.Entries) > 0 {
		m.AddRows(line.NewRow(3))
		m.AddRows(sectionTitle("ASIENTOS DEL LEDGER", colorPrimary))
		m.AddRows(entryRows(v.Entries)...)
	}
	if len(v.Reversals) > 0 {
		m.AddRows(line.NewRow(3))
		m.AddRows(sectionTitle("ASIENTOS DE ANULACIÓN", colorRed))
		m.AddRows(entryRows(v.Reversals)...)
	}

	m.AddRows(line.NewRow(3))
	m.AddRows(line.NewRow(1, props.Line{Color: colorGray, Thickness: 0.3}))
	m.AddRows(footerRow(v.Document))

	doc, err := m.Generate()
	if err != nil {
		return nil, fmt.Errorf("pdf: generar comprobante: %w", err)
	}
	return doc.GetBytes(), nil
}

// ── Secciones ─────────────────────────────────────────────────────────────────

func headerRow(d *entity.Document) core.Row {
	statusColor := colorGray
	if d.Status == entity.DocumentStatusVoided {
		statusColor = colorRed
	}
	return row.New(18).Add(
		col.New(7).Add(
			text.New(nonEmpty(typeTitles[d.Type], string(d.Type)), props.Text{
				Style: fontstyle.Bold, Size: 13, Color: colorPrimary, Top: 1,
			}),
			text.New("Estado: "+string(d.Status), props.Text{
				Style: fontstyle.Bold, Size: 9, Top: 9, Color: statusColor,
			}),
		),
		col.New(5).Add(
			text.New(d.ID, props.Text{
				Size: 7, Align: align.Right, Top: 1, Color: colorGray,
			}),
			text.New("Creado: "+d.CreatedAt.Format("02/01/2006 15:04"), props.Text{
				Size: 8, Align: align.Right, Top: 7,
			}),
			text.New("Contabilizado: "+formatTime(d.PostedAt), props.Text{
				Size: 8, Align: align.Right, Top: 12, Color: colorGray,
			}),
		),
	)
}

func infoRow(d *entity.Document) core.Row {
	return row.New(14).Add(
		col.New(12).Add(
			text.New(fmt.Sprintf("Referencia: %s   |   Usuario: %s   |   Versión: %d",
				nonEmpty(d.Reference, "-"), nonEmpty(d.CreatedBy, "-"), d.Version,
			), props.Text{Size: 8, Top: 1}),
			text.New("Notas: "+nonEmpty(d.Notes, "-"), props.Text{Size: 8, Top: 7, Color: colorGray}),
		),
	)
}

func linesHeaderRow() core.Row {
	h := func(label string, size int, a align.Type) core.Col {
		return col.New(size).Add(text.New(label, props.Text{
			Style: fontstyle.Bold, Size: 8, Align: a, Color: colorPrimary, Top: 2, Left: 1, Right: 1,
		}))
	}
	return row.New(8).Add(
		h("#", 1, align.Center),
		h("SKU", 2, align.Left),
		h("Producto", 3, align.Left),
		h("Origen", 2, align.Left),
		h("Destino", 2, align.Left),
		h("Cantidad", 2, align.Right),
	)
}

// lineRows: en ajustes la ubicación única va en "Destino" si suma y en "Origen" si resta.
func lineRows(t entity.DocumentType, lines []appinventory.VoucherLine) []core.Row {
	out := make([]core.Row, 0, len(lines))
	for _, l := range lines {
		from, to := l.FromLocation, l.ToLocation
		if t == entity.DocumentTypeAdjustment {
			if l.Quantity.IsNegative() {
				from = l.Location
			} else {
				to = l.Location
			}
		}
		qty := l.Quantity.String()
		if l.UnitMeasure != "" {
			qty += " " + l.UnitMeasure
		}
		out = append(out, row.New(7).Add(
			col.New(1).Add(text.New(fmt.Sprint(l.LineNo), props.Text{Size: 8, Align: align.Center, Top: 1})),
			col.New(2).Add(text.New(l.SKU, props.Text{Size: 8, Top: 1, Left: 1})),
			col.New(3).Add(text.New(nonEmpty(l.ProductName, "-"), props.Text{Size: 8, Top: 1, Left: 1})),
			col.New(2).Add(text.New(nonEmpty(from, "-"), props.Text{Size: 8, Top: 1, Left: 1})),
			col.New(2).Add(text.New(nonEmpty(to, "-"), props.Text{Size: 8, Top: 1, Left: 1})),
			col.New(2).Add(text.New(qty, props.Text{Size: 8, Align: align.Right, Top: 1, Right: 1})),
		))
	}
	return out
}

func sectionTitle(title string, c *props.Color) core.Row {
	return row.New(6).Add(col.New(12).Add(
		text.New(title, props.Text{Style: fontstyle.Bold, Size: 8, Color: c, Top: 1}),
	))
}

func entryRows(entries []entity.LedgerEntry) []core.Row {
	out := make([]core.Row, 0, len(entries))
	for _, e := range entries {
		out = append(out, row.New(5).Add(
			col.New(1).Add(text.New(fmt.Sprint(e.LineNo), props.Text{Size: 7, Align: align.Center})),
			col.New(5).Add(text.New(e.LocationID, props.Text{Size: 7, Color: colorGray, Left: 1})),
			col.New(3).Add(text.New(signed(e.Delta.String()), props.Text{Size: 7, Align: align.Right})),
			col.New(3).Add(text.New("saldo "+e.BalanceAfter.String(), props.Text{Size: 7, Align: align.Right, Right: 1})),
		))
	}
	return out
}

func footerRow(d *entity.Document) core.Row {
	return row.New(35).Add(
		col.New(3).Add(code.NewQr(d.ID, props.Rect{Percent: 95, Center: true})),
		col.New(9).Add(
			text.New("Los movimientos contabilizados no se modifican: las correcciones se hacen\n"+
				"anulando el documento y contabilizando uno nuevo.", props.Text{
				Size: 7, Top: 6, Left: 3, Color: colorGray,
			}),
		),
	)
}

// ── helpers ───────────────────────────────────────────────────────────────────

func nonEmpty(s, fallback string) string {
	if s != "" {
		return s
	}
	return fallback
}

func formatTime(t *time.Time) string {
	if t == nil {
		return "-"
	}
	return t.Format("02/01/2006 15:04")
}

func signed(s string) string {
	if len(s) > 0 && s[0] != '-' && s != "0" {
		return "+" + s
	}
	return s
}
