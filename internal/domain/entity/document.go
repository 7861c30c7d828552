package entity

import (
	"time"

	"github.com/shopspring/decimal"
)

// DocumentType tipo de documento de movimiento.
type DocumentType string

// Tipos de documento de movimiento.
const (
	DocumentTypeReceipt    DocumentType = "RECEIPT"    // entrada a ubicación destino
	DocumentTypeDelivery   DocumentType = "DELIVERY"   // salida desde ubicación origen
	DocumentTypeTransfer   DocumentType = "TRANSFER"   // traslado origen -> destino
	DocumentTypeAdjustment DocumentType = "ADJUSTMENT" // ajuste con delta firmado
)

// Valid indica si el tipo pertenece al conjunto cerrado de documentos.
func (t DocumentType) Valid() bool {
	switch t {
	case DocumentTypeReceipt, DocumentTypeDelivery, DocumentTypeTransfer, DocumentTypeAdjustment:
		return true
	}
	return false
}

// DocumentStatus estado del ciclo de vida: DRAFT -> POSTED -> VOIDED.
type DocumentStatus string

const (
	DocumentStatusDraft  DocumentStatus = "DRAFT"
	DocumentStatusPosted DocumentStatus = "POSTED"
	DocumentStatusVoided DocumentStatus = "VOIDED"
)

// DocumentLine línea de un documento. Qué ubicaciones aplican depende del tipo:
// Receipt usa ToLocationID, Delivery FromLocationID, Transfer ambas y
// Adjustment LocationID con Quantity firmada.
type DocumentLine struct {
	LineNo         int
	ProductID      string
	Quantity       decimal.Decimal
	FromLocationID string
	ToLocationID   string
	LocationID     string
	ReasonCode     string // opaco, sin efecto en la contabilización
}

// Document documento de movimiento; es dueño exclusivo de sus líneas.
type Document struct {
	ID            string
	Type          DocumentType
	Status        DocumentStatus
	Reference     string
	Notes         string
	CreatedBy     string
	CreatedAt     time.Time
	UpdatedAt     time.Time
	PostedAt      *time.Time
	PostedBy      string
	VoidedAt      *time.Time
	VoidedBy      string
	VoidReference string // document_id de los asientos compensatorios
	Version       int
	Lines         []DocumentLine
}

// IsDraft indica si el documento aún es editable.
func (d *Document) IsDraft() bool { return d.Status == DocumentStatusDraft }

// Renumber asigna LineNo secuenciales (1..n) en el orden actual.
func (d *Document) Renumber() {
	for i := range d.Lines {
		d.Lines[i].LineNo = i + 1
	}
}
