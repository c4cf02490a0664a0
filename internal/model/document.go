// internal/model/document.go
package model

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// DocumentType is the fiscal document type code sent in the header
type DocumentType string

const (
	DocumentInvoice             DocumentType = "1" // final consumer invoice
	DocumentFiscalCreditInvoice DocumentType = "2"
	DocumentCreditNote          DocumentType = "3" // final consumer credit note
	DocumentFiscalCreditNote    DocumentType = "4"
)

// DocumentTypeFor selects the header type from credit-note status and
// whether a customer is named on the document
func DocumentTypeFor(creditNote, hasCustomer bool) DocumentType {
	switch {
	case hasCustomer && creditNote:
		return DocumentFiscalCreditNote
	case hasCustomer:
		return DocumentFiscalCreditInvoice
	case creditNote:
		return DocumentCreditNote
	default:
		return DocumentInvoice
	}
}

// IsCreditNote reports whether the type reverses a sale
func (t DocumentType) IsCreditNote() bool {
	return t == DocumentCreditNote || t == DocumentFiscalCreditNote
}

// FiscalHeader opens a document
type FiscalHeader struct {
	Type         DocumentType `json:"type"`
	Branch       string       `json:"branch"`
	POSReference string       `json:"pos_reference"`
	CustomerName string       `json:"customer_name"`
	CustomerCRIB string       `json:"customer_crib"`
	NKF          string       `json:"nkf"`
	NKFAffected  string       `json:"nkf_affected"`
}

// LineKind distinguishes sold rows from voided rows
type LineKind string

const (
	LineSale LineKind = "01"
	LineVoid LineKind = "02"
)

// DiscountType of an item-level discount
const (
	ItemDiscountNone   = "0"
	ItemDiscountAmount = "1"
)

// LineItem is one printed row. Description holds the 3 printer rows,
// row 3 being the item description proper.
type LineItem struct {
	Kind            LineKind        `json:"kind"`
	Description     [3]string       `json:"description"`
	ProductCode     string          `json:"product_code"`
	Quantity        decimal.Decimal `json:"quantity"`
	Price           decimal.Decimal `json:"price"`
	Unit            string          `json:"unit"`
	TaxID           string          `json:"tax_id"`
	DiscountType    string          `json:"discount_type"`
	DiscountAmount  decimal.Decimal `json:"discount_amount"`
	DiscountPercent decimal.Decimal `json:"discount_percent"`
}

// AdjustmentKind selects discount, surcharge or service charge
type AdjustmentKind string

const (
	AdjustmentDiscount  AdjustmentKind = "0"
	AdjustmentSurcharge AdjustmentKind = "1"
	AdjustmentService   AdjustmentKind = "2"
)

// Adjustment is applied at the subtotal boundary
type Adjustment struct {
	Kind        AdjustmentKind  `json:"kind"`
	Description string          `json:"description"`
	Amount      decimal.Decimal `json:"amount"`
	Percent     decimal.Decimal `json:"percent"`
}

// PaymentKind is either a payment or its reversal
type PaymentKind string

const (
	PaymentVoid PaymentKind = "0"
	PaymentPay  PaymentKind = "1"
)

// Tip payment method and description
const (
	TipMethod      = "10"
	TipDescription = "Tip"
)

// Payment is one tender line
type Payment struct {
	Kind        PaymentKind     `json:"kind"`
	Method      string          `json:"method"`
	Description string          `json:"description"`
	Amount      decimal.Decimal `json:"amount"`
}

// Customer named on a fiscal credit document
type Customer struct {
	Name string `json:"name"`
	CRIB string `json:"crib"`
}

// FiscalDocument is everything needed to print one POS transaction
type FiscalDocument struct {
	TransactionID string          `json:"transaction_id"`
	Reference     string          `json:"reference"`
	CreditNote    bool            `json:"credit_note"`
	Total         decimal.Decimal `json:"total"`
	Customer      *Customer       `json:"customer,omitempty"`
	Header        FiscalHeader    `json:"header"`
	Lines         []LineItem      `json:"lines"`
	Service       *Adjustment     `json:"service,omitempty"`
	Discount      *Adjustment     `json:"discount,omitempty"`
	Payments      []Payment       `json:"payments"`
	Tips          []Payment       `json:"tips"`
	Comment       string          `json:"comment,omitempty"`
	SourceFile    string          `json:"source_file,omitempty"`
}

// PrintStatus classifies the outcome of printing a document
type PrintStatus string

const (
	PrintStatusPrinted        PrintStatus = "PRINTED"
	PrintStatusRejected       PrintStatus = "REJECTED"
	PrintStatusTransportFault PrintStatus = "TRANSPORT_FAULT"
	PrintStatusNotPrintable   PrintStatus = "NOT_PRINTABLE"
)

// PrintOutcome is the journaled result of one print attempt
type PrintOutcome struct {
	ID             uuid.UUID       `json:"id" db:"id"`
	TransactionID  string          `json:"transaction_id" db:"transaction_id"`
	Reference      string          `json:"reference" db:"reference"`
	DocumentType   DocumentType    `json:"document_type" db:"document_type"`
	DocumentNumber string          `json:"document_number,omitempty" db:"document_number"`
	Status         PrintStatus     `json:"status" db:"status"`
	Step           string          `json:"step,omitempty" db:"step"`
	Total          decimal.Decimal `json:"total" db:"total"`
	LineCount      int             `json:"line_count" db:"line_count"`
	SourceFile     string          `json:"source_file,omitempty" db:"source_file"`
	ErrorMessage   string          `json:"error_message,omitempty" db:"error_message"`
	StartedAt      time.Time       `json:"started_at" db:"started_at"`
	DurationMs     int             `json:"duration_ms" db:"duration_ms"`
}

// Printed reports whether the document was closed on the device
func (o *PrintOutcome) Printed() bool {
	return o.Status == PrintStatusPrinted
}
