// internal/transform/engine.go
package transform

import (
	"errors"
	"fmt"
	"sort"
	"strings"

	"github.com/hashicorp/go-multierror"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"fiscal-hub/internal/config"
	"fiscal-hub/internal/model"
	"fiscal-hub/internal/tcpos"
)

// ErrNotPrintable is returned when no complete document can be built from a
// transaction. It wraps every extraction failure.
var ErrNotPrintable = errors.New("transform: transaction not printable")

// DefaultLineWidth is the printable width of a CTS310II row
const DefaultLineWidth = 48

const (
	defaultUnit           = "Units"
	exemptTaxID           = "0"
	serviceDescription    = "Service charge"
	discountDescription   = "Discount"
	menuComponentsMaxRows = 2
)

// Options controls how transactions map onto fiscal documents
type Options struct {
	LineWidth          int
	TaxIDs             map[string]string
	PaymentMethods     map[string]string
	TipMarkers         []string
	ApplyServiceCharge bool

	Branch              string
	DefaultPOSReference string
	DefaultCustomerName string
	DefaultCustomerCRIB string
	NKF                 string
	NKFAffected         string
}

// OptionsFromConfig collects the transformation settings
func OptionsFromConfig(cfg *config.Config) Options {
	return Options{
		LineWidth:           cfg.Fiscal.LineWidth,
		TaxIDs:              cfg.POS.TaxIDs,
		PaymentMethods:      cfg.POS.PaymentMethods,
		TipMarkers:          cfg.POS.TipMarkers,
		ApplyServiceCharge:  cfg.POS.ApplyServiceCharge,
		Branch:              cfg.Fiscal.Branch,
		DefaultPOSReference: cfg.Fiscal.DefaultPOSReference,
		DefaultCustomerName: cfg.Fiscal.DefaultCustomerName,
		DefaultCustomerCRIB: cfg.Fiscal.DefaultCustomerCRIB,
		NKF:                 cfg.Fiscal.NKF,
		NKFAffected:         cfg.Fiscal.NKFAffected,
	}
}

// Engine turns parsed POS transactions into fiscal documents. It holds no
// per-transaction state and is safe for concurrent use.
type Engine struct {
	options Options
	logger  *zap.Logger
}

// NewEngine creates a transformation engine
func NewEngine(options Options, logger *zap.Logger) *Engine {
	if options.LineWidth < 1 {
		options.LineWidth = DefaultLineWidth
	}

	payments := make(map[string]string, len(options.PaymentMethods))
	for name, method := range options.PaymentMethods {
		payments[strings.ToLower(name)] = method
	}
	options.PaymentMethods = payments

	return &Engine{
		options: options,
		logger:  logger.With(zap.String("component", "transform")),
	}
}

// Transform builds the fiscal document for one transaction. Any extraction
// failure rejects the whole transaction.
func (e *Engine) Transform(tx *tcpos.Transaction) (*model.FiscalDocument, error) {
	if tx == nil || tx.Data == nil || tx.Data.SubItems == nil {
		return nil, fmt.Errorf("%w: %w", ErrNotPrintable, tcpos.ErrMissingSubtree)
	}

	data := tx.Data
	var errs *multierror.Error

	total, err := parseAmount(data.Total)
	if err != nil {
		errs = multierror.Append(errs, fmt.Errorf("transaction total: %w", err))
	}
	creditNote := total.IsNegative() || strings.TrimSpace(data.VoidedTransGuid) != ""

	doc := &model.FiscalDocument{
		TransactionID: tx.ID(),
		Reference:     strings.TrimSpace(data.TransNum),
		CreditNote:    creditNote,
		Total:         total.Abs(),
		Customer:      e.customer(data.Customer),
		Comment:       Fold(data.Comment),
	}
	doc.Header = e.header(doc)

	if err := e.checkVatDetails(data.VatDetails); err != nil {
		errs = multierror.Append(errs, err)
	}

	merchandise, tips, err := e.partition(data.SubItems.Articles)
	if err != nil {
		errs = multierror.Append(errs, err)
	}
	doc.Tips = tips

	lines, err := e.consolidate(merchandise, creditNote)
	if err != nil {
		errs = multierror.Append(errs, err)
	}
	for i := range data.SubItems.Menus {
		menu := &data.SubItems.Menus[i]
		line, err := e.menuLine(menu, creditNote)
		if err != nil {
			errs = multierror.Append(errs, err)
			continue
		}
		lines = append(lines, orderedLine{position: menu.Position, line: *line})
	}

	// articles and menus print in the order the POS recorded them
	sort.SliceStable(lines, func(i, j int) bool { return lines[i].position < lines[j].position })
	for _, l := range lines {
		doc.Lines = append(doc.Lines, l.line)
	}

	if doc.Discount, err = e.discount(data.SubItems.Discounts); err != nil {
		errs = multierror.Append(errs, err)
	}
	if doc.Service, err = e.service(data.SubItems.ServiceSupplements); err != nil {
		errs = multierror.Append(errs, err)
	}
	if doc.Payments, err = e.payments(data.SubItems.Payments); err != nil {
		errs = multierror.Append(errs, err)
	}

	if len(doc.Lines) == 0 {
		errs = multierror.Append(errs, errors.New("no items"))
	}
	if len(doc.Payments) == 0 {
		errs = multierror.Append(errs, errors.New("no payments"))
	}

	if err := errs.ErrorOrNil(); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrNotPrintable, err)
	}

	e.logger.Debug("Transaction transformed",
		zap.String("transaction_id", doc.TransactionID),
		zap.String("reference", doc.Reference),
		zap.String("document_type", string(doc.Header.Type)),
		zap.Int("lines", len(doc.Lines)),
		zap.Int("payments", len(doc.Payments)),
		zap.Int("tips", len(doc.Tips)))

	return doc, nil
}

func (e *Engine) customer(c *tcpos.Customer) *model.Customer {
	if c == nil {
		return nil
	}
	name, crib := Fold(c.Name), Fold(c.Crib)
	if name == "" && crib == "" {
		return nil
	}
	return &model.Customer{Name: name, CRIB: crib}
}

func (e *Engine) header(doc *model.FiscalDocument) model.FiscalHeader {
	header := model.FiscalHeader{
		Type:         model.DocumentTypeFor(doc.CreditNote, doc.Customer != nil),
		Branch:       e.options.Branch,
		POSReference: doc.Reference,
		CustomerName: e.options.DefaultCustomerName,
		CustomerCRIB: e.options.DefaultCustomerCRIB,
		NKF:          e.options.NKF,
	}
	if header.POSReference == "" {
		header.POSReference = e.options.DefaultPOSReference
	}
	if doc.Customer != nil {
		if doc.Customer.Name != "" {
			header.CustomerName = truncate(doc.Customer.Name, e.options.LineWidth)
		}
		if doc.Customer.CRIB != "" {
			header.CustomerCRIB = doc.Customer.CRIB
		}
	}
	if doc.CreditNote {
		header.NKFAffected = e.options.NKFAffected
	}
	return header
}

// partition separates tip records from merchandise
func (e *Engine) partition(articles []tcpos.Article) ([]*tcpos.Article, []model.Payment, error) {
	var (
		merchandise []*tcpos.Article
		tips        []model.Payment
		errs        *multierror.Error
	)

	for i := range articles {
		article := &articles[i]
		if !e.isTip(article) {
			merchandise = append(merchandise, article)
			continue
		}
		if article.Deleted() {
			continue
		}

		raw, ok := article.UnitPrice()
		if !ok {
			errs = multierror.Append(errs, fmt.Errorf("tip %q: no price", article.Data.Code))
			continue
		}
		amount, err := parseAmount(raw)
		if err != nil {
			errs = multierror.Append(errs, fmt.Errorf("tip %q: %w", article.Data.Code, err))
			continue
		}
		if amount.IsZero() {
			continue
		}

		tips = append(tips, model.Payment{
			Kind:        model.PaymentPay,
			Method:      model.TipMethod,
			Description: model.TipDescription,
			Amount:      amount.Abs(),
		})
	}

	return merchandise, tips, errs.ErrorOrNil()
}

func (e *Engine) isTip(article *tcpos.Article) bool {
	marker := strings.TrimSpace(article.Data.ShortDescription)
	if marker == "" {
		return false
	}
	for _, tip := range e.options.TipMarkers {
		if marker == tip {
			return true
		}
	}
	return false
}

// taxID maps a POS tax percent onto the printer tax slot
func (e *Engine) taxID(article *tcpos.Article) (string, error) {
	if article.TaxExempt() {
		return exemptTaxID, nil
	}

	raw := strings.TrimSpace(*article.VatPercent)
	if id, ok := e.lookupTaxID(raw); ok {
		return id, nil
	}
	return "", fmt.Errorf("no tax id for %s%%", raw)
}

func (e *Engine) lookupTaxID(raw string) (string, bool) {
	if id, ok := e.options.TaxIDs[raw]; ok {
		return id, true
	}
	// "6.00" and "6" name the same rate
	if percent, err := decimal.NewFromString(raw); err == nil {
		if percent.IsZero() {
			return exemptTaxID, true
		}
		if id, ok := e.options.TaxIDs[percent.String()]; ok {
			return id, true
		}
	}
	return "", false
}

// checkVatDetails verifies every rate the transaction declares has a printer
// tax slot
func (e *Engine) checkVatDetails(details []tcpos.VatDetail) error {
	var errs *multierror.Error
	for _, detail := range details {
		raw := strings.TrimSpace(detail.Data.Percent)
		if raw == "" {
			continue
		}
		if _, ok := e.lookupTaxID(raw); !ok {
			errs = multierror.Append(errs, fmt.Errorf("vat rate %s (id %s) has no tax id", raw, detail.Data.ID))
		}
	}
	return errs.ErrorOrNil()
}

// description lays out title and printout notes on the 3 printer rows
func (e *Engine) description(title, notes string) [3]string {
	width := e.options.LineWidth
	title = truncate(Fold(title), width)
	notes = Fold(notes)

	var rows [3]string
	switch {
	case notes == "":
		rows[2] = title
	case len(notes) <= width:
		rows[1] = title
		rows[2] = notes
	default:
		rows[0] = title
		wrapped := WrapWords(notes, width, 2, true)
		if len(wrapped) > 0 {
			rows[1] = wrapped[0]
		}
		if len(wrapped) > 1 {
			rows[2] = wrapped[1]
		}
	}

	if rows[2] == "" {
		rows[2] = " "
	}
	return rows
}

func (e *Engine) menuLine(menu *tcpos.Menu, creditNote bool) (*model.LineItem, error) {
	code := menu.Data.Code
	quantity, err := parseAmount(menu.QuantityWithPrecision)
	if err != nil {
		return nil, fmt.Errorf("menu %q quantity: %w", code, err)
	}
	raw, ok := menu.UnitPrice()
	if !ok {
		return nil, fmt.Errorf("menu %q: no price", code)
	}
	price, err := parseAmount(raw)
	if err != nil {
		return nil, fmt.Errorf("menu %q price: %w", code, err)
	}
	taxID, err := e.taxID(&menu.Article)
	if err != nil {
		return nil, fmt.Errorf("menu %q: %w", code, err)
	}

	var components []string
	for _, component := range menu.Components {
		if name := Fold(component.Data.Description); name != "" && !component.Deleted() {
			components = append(components, name)
		}
	}

	width := e.options.LineWidth
	var rows [3]string
	rows[0] = truncate(Fold(menu.Data.Description), width)
	for i, row := range WrapWords(strings.Join(components, ", "), width, menuComponentsMaxRows, false) {
		rows[i+1] = row
	}
	if rows[2] == "" {
		rows[2] = " "
	}

	line := &model.LineItem{
		Kind:         model.LineSale,
		Description:  rows,
		ProductCode:  code,
		Quantity:     quantity.Abs(),
		Price:        price.Abs(),
		Unit:         defaultUnit,
		TaxID:        taxID,
		DiscountType: model.ItemDiscountNone,
	}
	if creditNote {
		quantity = quantity.Neg()
	}
	if menu.Deleted() || quantity.IsNegative() {
		line.Kind = model.LineVoid
		line.Price = decimal.Zero
	}
	return line, nil
}

func (e *Engine) discount(discounts []tcpos.Discount) (*model.Adjustment, error) {
	var (
		amount      decimal.Decimal
		description string
	)
	for _, d := range discounts {
		value, err := parseAmount(d.Amount)
		if err != nil {
			return nil, fmt.Errorf("discount: %w", err)
		}
		amount = amount.Add(value.Abs())
		if description == "" {
			description = truncate(Fold(d.Data.Description), e.options.LineWidth)
		}
	}
	if amount.IsZero() {
		return nil, nil
	}
	if description == "" {
		description = discountDescription
	}

	return &model.Adjustment{
		Kind:        model.AdjustmentDiscount,
		Description: description,
		Amount:      amount,
		Percent:     decimal.Zero,
	}, nil
}

func (e *Engine) service(supplements []tcpos.ServiceSupplement) (*model.Adjustment, error) {
	if !e.options.ApplyServiceCharge || len(supplements) == 0 {
		return nil, nil
	}
	percent, err := parseAmount(supplements[0].ServicePercent)
	if err != nil {
		return nil, fmt.Errorf("service supplement: %w", err)
	}
	if percent.IsZero() {
		return nil, nil
	}

	return &model.Adjustment{
		Kind:        model.AdjustmentService,
		Description: serviceDescription,
		Amount:      decimal.Zero,
		Percent:     percent.Abs(),
	}, nil
}

func (e *Engine) payments(records []tcpos.Payment) ([]model.Payment, error) {
	var (
		payments []model.Payment
		errs     *multierror.Error
	)
	for _, record := range records {
		kind := strings.TrimSpace(record.Data.Type)
		method, ok := e.options.PaymentMethods[strings.ToLower(kind)]
		if !ok {
			errs = multierror.Append(errs, fmt.Errorf("unknown payment method %q", kind))
			continue
		}
		amount, err := parseAmount(record.Amount)
		if err != nil {
			errs = multierror.Append(errs, fmt.Errorf("payment %q: %w", kind, err))
			continue
		}

		payments = append(payments, model.Payment{
			Kind:        model.PaymentPay,
			Method:      method,
			Description: truncate(Fold(kind), e.options.LineWidth),
			Amount:      amount.Abs(),
		})
	}
	return payments, errs.ErrorOrNil()
}

// parseAmount reads a POS decimal attribute; an absent value is zero
func parseAmount(raw string) (decimal.Decimal, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return decimal.Zero, nil
	}
	value, err := decimal.NewFromString(raw)
	if err != nil {
		return decimal.Zero, fmt.Errorf("invalid amount %q", raw)
	}
	return value, nil
}
