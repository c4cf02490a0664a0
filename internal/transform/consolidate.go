// internal/transform/consolidate.go
package transform

import (
	"fmt"

	"github.com/hashicorp/go-multierror"
	"github.com/shopspring/decimal"

	"fiscal-hub/internal/model"
	"fiscal-hub/internal/tcpos"
)

// group accumulates the records sharing one product code
type group struct {
	first *tcpos.Article
	taxID string

	// paid bucket; voided records never contribute to its amount
	paidQuantity decimal.Decimal
	paidAmount   decimal.Decimal
	discount     decimal.Decimal

	voidQuantity decimal.Decimal
}

// orderedLine is a line item tagged with the export position of the record
// that introduced it
type orderedLine struct {
	position int
	line     model.LineItem
}

// consolidate merges merchandise records by product code into at most one
// paid and one voided line per code, in order of first appearance. The paid
// line is priced at the paid bucket amount over the paid quantity; the
// voided line carries the voided quantity at price zero.
func (e *Engine) consolidate(articles []*tcpos.Article, creditNote bool) ([]orderedLine, error) {
	var (
		order  []string
		groups = make(map[string]*group)
		errs   *multierror.Error
	)

	for _, article := range articles {
		code := article.Data.Code

		quantity, err := parseAmount(article.QuantityWithPrecision)
		if err != nil {
			errs = multierror.Append(errs, fmt.Errorf("article %q quantity: %w", code, err))
			continue
		}
		// credit notes arrive with negative quantities for returned goods
		if creditNote {
			quantity = quantity.Neg()
		}

		g, ok := groups[code]
		if !ok {
			taxID, err := e.taxID(article)
			if err != nil {
				errs = multierror.Append(errs, fmt.Errorf("article %q: %w", code, err))
				continue
			}
			g = &group{first: article, taxID: taxID}
			groups[code] = g
			order = append(order, code)
		}

		if article.Deleted() {
			g.voidQuantity = g.voidQuantity.Add(quantity.Abs())
			continue
		}

		raw, ok := article.UnitPrice()
		if !ok {
			errs = multierror.Append(errs, fmt.Errorf("article %q: no price", code))
			continue
		}
		price, err := parseAmount(raw)
		if err != nil {
			errs = multierror.Append(errs, fmt.Errorf("article %q price: %w", code, err))
			continue
		}

		if quantity.IsNegative() {
			g.voidQuantity = g.voidQuantity.Add(quantity.Abs())
			continue
		}
		g.paidQuantity = g.paidQuantity.Add(quantity)
		g.paidAmount = g.paidAmount.Add(quantity.Mul(price.Abs()))

		if value, ok := article.DiscountValues.First(); ok {
			amount, err := parseAmount(value.Amount)
			if err != nil {
				errs = multierror.Append(errs, fmt.Errorf("article %q discount: %w", code, err))
				continue
			}
			g.discount = g.discount.Add(amount.Abs())
		}
	}

	if err := errs.ErrorOrNil(); err != nil {
		return nil, err
	}

	lines := make([]orderedLine, 0, len(order))
	for _, code := range order {
		g := groups[code]
		position := g.first.Position
		description := e.description(g.first.Data.Description, g.first.Data.PrintoutNotes)

		if g.paidQuantity.IsPositive() {
			line := model.LineItem{
				Kind:         model.LineSale,
				Description:  description,
				ProductCode:  code,
				Quantity:     g.paidQuantity,
				Price:        g.paidAmount.Div(g.paidQuantity).Round(2),
				Unit:         defaultUnit,
				TaxID:        g.taxID,
				DiscountType: model.ItemDiscountNone,
			}
			if g.discount.IsPositive() {
				line.DiscountType = model.ItemDiscountAmount
				line.DiscountAmount = g.discount
			}
			lines = append(lines, orderedLine{position: position, line: line})
		}

		if g.voidQuantity.IsPositive() {
			lines = append(lines, orderedLine{position: position, line: model.LineItem{
				Kind:         model.LineVoid,
				Description:  description,
				ProductCode:  code,
				Quantity:     g.voidQuantity,
				Price:        decimal.Zero,
				Unit:         defaultUnit,
				TaxID:        g.taxID,
				DiscountType: model.ItemDiscountNone,
			}})
		}
	}

	return lines, nil
}
