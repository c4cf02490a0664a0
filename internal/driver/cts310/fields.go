// internal/driver/cts310/fields.go
package cts310

import (
	"fmt"
	"time"

	"fiscal-hub/internal/model"
	"fiscal-hub/internal/protocol"
)

const defaultUnit = "Units"

// HeaderFields returns the positional fields of the open-document command
func HeaderFields(h *model.FiscalHeader) []string {
	return []string{
		string(h.Type),
		h.Branch,
		h.POSReference,
		h.CustomerName,
		h.CustomerCRIB,
		h.NKF,
		h.NKFAffected,
	}
}

// LineFields returns the caller-supplied fields of the add-line command.
// Quantity carries 3 implied decimals, amounts and percents 2.
func LineFields(item *model.LineItem) []string {
	unit := item.Unit
	if unit == "" {
		unit = defaultUnit
	}
	discountType := item.DiscountType
	if discountType == "" {
		discountType = model.ItemDiscountNone
	}

	return []string{
		string(item.Kind),
		item.Description[0],
		item.Description[1],
		item.Description[2],
		item.ProductCode,
		protocol.EncodeFixed(item.Quantity, 3),
		protocol.EncodeFixed(item.Price, 2),
		unit,
		item.TaxID,
		discountType,
		protocol.EncodeFixed(item.DiscountAmount, 2),
		protocol.EncodeFixed(item.DiscountPercent, 2),
	}
}

// AdjustmentFields returns the fields of the discount/surcharge/service command
func AdjustmentFields(a *model.Adjustment) []string {
	return []string{
		string(a.Kind),
		a.Description,
		protocol.EncodeFixed(a.Amount, 2),
		protocol.EncodeFixed(a.Percent, 2),
	}
}

// PaymentFields returns the fields of the payment command
func PaymentFields(p *model.Payment) []string {
	return []string{
		string(p.Kind),
		p.Method,
		p.Description,
		protocol.EncodeFixed(p.Amount, 2),
	}
}

// DateTimeFields returns [DDMMYYYY, HHMMSS]
func DateTimeFields(t time.Time) []string {
	return []string{t.Format(dateLayout), t.Format(timeLayout)}
}

// reportNumber formats a Z sequence number as 4 digits
func reportNumber(n int) string {
	return fmt.Sprintf("%04d", n)
}
