package transform

import (
	"strings"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"fiscal-hub/internal/config"
	"fiscal-hub/internal/model"
	"fiscal-hub/internal/tcpos"
)

func newTestEngine(t *testing.T, mutate ...func(*Options)) *Engine {
	t.Helper()

	options := OptionsFromConfig(config.Default())
	options.NKF = "NKF0001"
	options.NKFAffected = "NKF0000"
	for _, m := range mutate {
		m(&options)
	}
	return NewEngine(options, zap.NewNop())
}

func parse(t *testing.T, export string) *tcpos.Transaction {
	t.Helper()
	tx, err := tcpos.Parse(strings.NewReader(export))
	require.NoError(t, err)
	return tx
}

func dec(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

func assertDecimal(t *testing.T, expected string, actual decimal.Decimal, msgAndArgs ...interface{}) {
	t.Helper()
	assert.True(t, dec(expected).Equal(actual), "expected %s, got %s %v", expected, actual, msgAndArgs)
}

func TestTransform_Sale(t *testing.T) {
	t.Parallel()

	tx, err := tcpos.ParseFile("../tcpos/testdata/sale.xml")
	require.NoError(t, err)

	doc, err := newTestEngine(t).Transform(tx)
	require.NoError(t, err)

	assert.Equal(t, "a1f4c2d0-3b7e-4c55-9a61-0f2e8d9b7c11", doc.TransactionID)
	assert.Equal(t, "37", doc.Reference)
	assert.False(t, doc.CreditNote)
	assertDecimal(t, "32.60", doc.Total)
	assert.Nil(t, doc.Customer)

	assert.Equal(t, model.DocumentInvoice, doc.Header.Type)
	assert.Equal(t, "9001", doc.Header.Branch)
	assert.Equal(t, "37", doc.Header.POSReference)
	assert.Equal(t, "NKF0001", doc.Header.NKF)
	assert.Empty(t, doc.Header.NKFAffected)

	require.Len(t, doc.Lines, 4)

	paid := doc.Lines[0]
	assert.Equal(t, model.LineSale, paid.Kind)
	assert.Equal(t, [3]string{"", "", "Cafe Latte"}, paid.Description)
	assert.Equal(t, "1001", paid.ProductCode)
	assertDecimal(t, "2", paid.Quantity)
	assertDecimal(t, "5.00", paid.Price, "the voided record does not dilute the paid price")
	assert.Equal(t, "1", paid.TaxID)
	assert.Equal(t, "Units", paid.Unit)

	voided := doc.Lines[1]
	assert.Equal(t, model.LineVoid, voided.Kind)
	assertDecimal(t, "1", voided.Quantity)
	assert.True(t, voided.Price.IsZero())

	sandwich := doc.Lines[2]
	assert.Equal(t, [3]string{"", "Club Sandwich", "no onions"}, sandwich.Description)
	assert.Equal(t, "3", sandwich.TaxID)
	assertDecimal(t, "12.50", sandwich.Price)
	assert.Equal(t, model.ItemDiscountAmount, sandwich.DiscountType)
	assertDecimal(t, "1.25", sandwich.DiscountAmount)

	menu := doc.Lines[3]
	assert.Equal(t, [3]string{"Lunch Menu", "Soup of the day, Grilled fish", " "}, menu.Description)
	assertDecimal(t, "14.35", menu.Price)
	assert.Equal(t, "3003", menu.ProductCode)

	require.Len(t, doc.Tips, 1)
	assert.Equal(t, model.Payment{Kind: model.PaymentPay, Method: "10", Description: "Tip", Amount: dec("2.00")}, doc.Tips[0])

	require.NotNil(t, doc.Discount)
	assert.Equal(t, model.AdjustmentDiscount, doc.Discount.Kind)
	assert.Equal(t, "Happy hour", doc.Discount.Description)
	assertDecimal(t, "1.00", doc.Discount.Amount)
	assert.True(t, doc.Discount.Percent.IsZero())

	assert.Nil(t, doc.Service, "service charge is off by default")

	require.Len(t, doc.Payments, 2)
	assert.Equal(t, "00", doc.Payments[0].Method)
	assert.Equal(t, "Cash", doc.Payments[0].Description)
	assert.Equal(t, "02", doc.Payments[1].Method)
	assertDecimal(t, "12.60", doc.Payments[1].Amount)

	assert.Equal(t, "Table 4, thank you for visiting!", doc.Comment)
}

func TestTransform_ServiceCharge(t *testing.T) {
	t.Parallel()

	tx, err := tcpos.ParseFile("../tcpos/testdata/sale.xml")
	require.NoError(t, err)

	doc, err := newTestEngine(t, func(o *Options) { o.ApplyServiceCharge = true }).Transform(tx)
	require.NoError(t, err)

	require.NotNil(t, doc.Service)
	assert.Equal(t, model.AdjustmentService, doc.Service.Kind)
	assert.Equal(t, "Service charge", doc.Service.Description)
	assertDecimal(t, "10", doc.Service.Percent)
	assert.True(t, doc.Service.Amount.IsZero())
}

func TestTransform_CreditNote(t *testing.T) {
	t.Parallel()

	tx, err := tcpos.ParseFile("../tcpos/testdata/credit_note.xml")
	require.NoError(t, err)

	doc, err := newTestEngine(t).Transform(tx)
	require.NoError(t, err)

	assert.True(t, doc.CreditNote)
	assert.True(t, doc.Header.Type.IsCreditNote())
	assert.Equal(t, model.DocumentFiscalCreditNote, doc.Header.Type)
	assert.Equal(t, "Kas di Kultura", doc.Header.CustomerName)
	assert.Equal(t, "102345678", doc.Header.CustomerCRIB)
	assert.Equal(t, "NKF0000", doc.Header.NKFAffected)
	assertDecimal(t, "42.00", doc.Total)

	require.Len(t, doc.Lines, 1)
	assert.Equal(t, model.LineSale, doc.Lines[0].Kind)
	assertDecimal(t, "2", doc.Lines[0].Quantity)
	assertDecimal(t, "21.00", doc.Lines[0].Price)

	for _, line := range doc.Lines {
		assert.False(t, line.Quantity.IsNegative())
		assert.False(t, line.Price.IsNegative())
		assert.False(t, line.DiscountAmount.IsNegative())
	}
	for _, payment := range append(doc.Payments, doc.Tips...) {
		assert.False(t, payment.Amount.IsNegative())
	}
	assertDecimal(t, "42.00", doc.Payments[0].Amount)
}

func TestTransform_VoidedOriginalIsCreditNote(t *testing.T) {
	t.Parallel()

	tx := parse(t, `<tx><data SoftwareVersion="8.0" Total="3.00" VoidedTransGuid="a1f4c2d0">
		<subItems>
			<TCPOS.FrontEnd.BusinessLogic.TransArticle _vatPercent="6" quantityWithPrecision="-1" _enteredPrice="3.00">
				<Data Description="Juice" Code="5" />
			</TCPOS.FrontEnd.BusinessLogic.TransArticle>
			<TCPOS.FrontEnd.BusinessLogic.TransPayment amount="-3.00"><Data Type="cash" /></TCPOS.FrontEnd.BusinessLogic.TransPayment>
		</subItems></data></tx>`)

	doc, err := newTestEngine(t).Transform(tx)
	require.NoError(t, err)
	assert.Equal(t, model.DocumentCreditNote, doc.Header.Type)
	assert.Equal(t, model.LineSale, doc.Lines[0].Kind)
	assertDecimal(t, "3.00", doc.Payments[0].Amount)
}

func TestTransform_ConsolidatesPaidAndVoided(t *testing.T) {
	t.Parallel()

	tx := parse(t, `<tx><data SoftwareVersion="8.0" Total="8.00"><subItems>
		<TCPOS.FrontEnd.BusinessLogic.TransArticle _vatPercent="6" quantityWithPrecision="2" _enteredPrice="4.00">
			<Data Description="Beer" Code="77" />
		</TCPOS.FrontEnd.BusinessLogic.TransArticle>
		<TCPOS.FrontEnd.BusinessLogic.TransArticle _vatPercent="6" quantityWithPrecision="-1" _enteredPrice="4.00">
			<Data Description="Beer" Code="77" />
		</TCPOS.FrontEnd.BusinessLogic.TransArticle>
		<TCPOS.FrontEnd.BusinessLogic.TransArticle _vatPercent="6" quantityWithPrecision="1" _enteredPrice="4.00">
			<Data Description="Beer" Code="77" />
		</TCPOS.FrontEnd.BusinessLogic.TransArticle>
		<TCPOS.FrontEnd.BusinessLogic.TransArticle deleteOperatorID="2" _vatPercent="6" quantityWithPrecision="1" _enteredPrice="9.00">
			<Data Description="Wine" Code="78" />
		</TCPOS.FrontEnd.BusinessLogic.TransArticle>
		<TCPOS.FrontEnd.BusinessLogic.TransPayment amount="8.00"><Data Type="Cash" /></TCPOS.FrontEnd.BusinessLogic.TransPayment>
	</subItems></data></tx>`)

	doc, err := newTestEngine(t).Transform(tx)
	require.NoError(t, err)
	require.Len(t, doc.Lines, 3)

	assert.Equal(t, model.LineSale, doc.Lines[0].Kind)
	assertDecimal(t, "3", doc.Lines[0].Quantity)
	assertDecimal(t, "4.00", doc.Lines[0].Price, "paid bucket 12.00 over 3 paid")

	assert.Equal(t, model.LineVoid, doc.Lines[1].Kind)
	assertDecimal(t, "1", doc.Lines[1].Quantity)

	assert.Equal(t, "78", doc.Lines[2].ProductCode)
	assert.Equal(t, model.LineVoid, doc.Lines[2].Kind, "deleted records only void")
	assert.True(t, doc.Lines[2].Price.IsZero())
}

func TestTransform_PaidBucketPricing(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name     string
		records  [][2]string // quantity, entered price
		quantity string
		price    string
		voided   string
	}{
		{name: "void does not halve price", records: [][2]string{{"2", "5.00"}, {"-1", "5.00"}}, quantity: "2", price: "5.00", voided: "1"},
		{name: "line total matches paid amount", records: [][2]string{{"3", "4.00"}, {"-1", "4.00"}}, quantity: "3", price: "4.00", voided: "1"},
		{name: "mixed entered prices average", records: [][2]string{{"1", "4.00"}, {"1", "6.00"}, {"-1", "9.00"}}, quantity: "2", price: "5.00", voided: "1"},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			var export strings.Builder
			export.WriteString(`<tx><data SoftwareVersion="8.0" Total="1.00"><subItems>`)
			for _, r := range tt.records {
				export.WriteString(`<TCPOS.FrontEnd.BusinessLogic.TransArticle _vatPercent="6" quantityWithPrecision="` + r[0] + `" _enteredPrice="` + r[1] + `"><Data Description="Beer" Code="77" /></TCPOS.FrontEnd.BusinessLogic.TransArticle>`)
			}
			export.WriteString(`<TCPOS.FrontEnd.BusinessLogic.TransPayment amount="1.00"><Data Type="Cash" /></TCPOS.FrontEnd.BusinessLogic.TransPayment></subItems></data></tx>`)

			doc, err := newTestEngine(t).Transform(parse(t, export.String()))
			require.NoError(t, err)
			require.Len(t, doc.Lines, 2)

			paid := doc.Lines[0]
			assert.Equal(t, model.LineSale, paid.Kind)
			assertDecimal(t, tt.quantity, paid.Quantity)
			assertDecimal(t, tt.price, paid.Price)

			voided := doc.Lines[1]
			assert.Equal(t, model.LineVoid, voided.Kind)
			assertDecimal(t, tt.voided, voided.Quantity)
			assert.True(t, voided.Price.IsZero())
		})
	}
}

func TestTransform_KeepsExportOrder(t *testing.T) {
	t.Parallel()

	tx := parse(t, `<tx><data SoftwareVersion="8.0" Total="20.00"><subItems>
		<TCPOS.FrontEnd.BusinessLogic.TransArticle _vatPercent="6" quantityWithPrecision="1" _enteredPrice="2.00">
			<Data Description="Soda" Code="10" />
		</TCPOS.FrontEnd.BusinessLogic.TransArticle>
		<TCPOS.FrontEnd.BusinessLogic.TransMenu _vatPercent="6" quantityWithPrecision="1" _enteredPrice="12.00">
			<Data Description="Lunch Menu" Code="30" />
		</TCPOS.FrontEnd.BusinessLogic.TransMenu>
		<TCPOS.FrontEnd.BusinessLogic.TransArticle _vatPercent="6" quantityWithPrecision="1" _enteredPrice="4.00">
			<Data Description="Cake" Code="20" />
		</TCPOS.FrontEnd.BusinessLogic.TransArticle>
		<TCPOS.FrontEnd.BusinessLogic.TransArticle _vatPercent="6" quantityWithPrecision="1" _enteredPrice="2.00">
			<Data Description="Soda" Code="10" />
		</TCPOS.FrontEnd.BusinessLogic.TransArticle>
		<TCPOS.FrontEnd.BusinessLogic.TransPayment amount="20.00"><Data Type="Cash" /></TCPOS.FrontEnd.BusinessLogic.TransPayment>
	</subItems></data></tx>`)

	doc, err := newTestEngine(t).Transform(tx)
	require.NoError(t, err)

	var codes []string
	for _, line := range doc.Lines {
		codes = append(codes, line.ProductCode)
	}
	assert.Equal(t, []string{"10", "30", "20"}, codes, "menus keep their place among articles")
	assertDecimal(t, "2", doc.Lines[0].Quantity)
}

func TestTransform_TaxExemptAndMappedPercent(t *testing.T) {
	t.Parallel()

	tx := parse(t, `<tx><data SoftwareVersion="8.0" Total="3.00"><subItems>
		<TCPOS.FrontEnd.BusinessLogic.TransArticle quantityWithPrecision="1" _enteredPrice="1.00">
			<Data Description="Stamp" Code="1" />
		</TCPOS.FrontEnd.BusinessLogic.TransArticle>
		<TCPOS.FrontEnd.BusinessLogic.TransArticle _vatPercent="7.00" quantityWithPrecision="1" _enteredPrice="2.00">
			<Data Description="Bread" Code="2" />
		</TCPOS.FrontEnd.BusinessLogic.TransArticle>
		<TCPOS.FrontEnd.BusinessLogic.TransPayment amount="3.00"><Data Type="Cash" /></TCPOS.FrontEnd.BusinessLogic.TransPayment>
	</subItems></data></tx>`)

	doc, err := newTestEngine(t).Transform(tx)
	require.NoError(t, err)
	assert.Equal(t, "0", doc.Lines[0].TaxID)
	assert.Equal(t, "2", doc.Lines[1].TaxID)
}

func TestTransform_NotPrintable(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		export  string
		message string
	}{
		{
			name: "declared vat rate without tax id",
			export: `<tx><data SoftwareVersion="8.0" Total="1.00">
				<VatDetails><TCPOS.FrontEnd.BusinessLogic.VatDetail><Data ID="4" Percent="21" /></TCPOS.FrontEnd.BusinessLogic.VatDetail></VatDetails>
				<subItems>
				<TCPOS.FrontEnd.BusinessLogic.TransArticle _vatPercent="6" quantityWithPrecision="1" _enteredPrice="1.00">
					<Data Description="X" Code="1" />
				</TCPOS.FrontEnd.BusinessLogic.TransArticle>
				<TCPOS.FrontEnd.BusinessLogic.TransPayment amount="1.00"><Data Type="Cash" /></TCPOS.FrontEnd.BusinessLogic.TransPayment>
			</subItems></data></tx>`,
			message: "vat rate 21 (id 4) has no tax id",
		},
		{
			name: "unknown tax percent",
			export: `<tx><data SoftwareVersion="8.0" Total="1.00"><subItems>
				<TCPOS.FrontEnd.BusinessLogic.TransArticle _vatPercent="21" quantityWithPrecision="1" _enteredPrice="1.00">
					<Data Description="X" Code="1" />
				</TCPOS.FrontEnd.BusinessLogic.TransArticle>
				<TCPOS.FrontEnd.BusinessLogic.TransPayment amount="1.00"><Data Type="Cash" /></TCPOS.FrontEnd.BusinessLogic.TransPayment>
			</subItems></data></tx>`,
			message: "no tax id",
		},
		{
			name: "unknown payment method",
			export: `<tx><data SoftwareVersion="8.0" Total="1.00"><subItems>
				<TCPOS.FrontEnd.BusinessLogic.TransArticle _vatPercent="6" quantityWithPrecision="1" _enteredPrice="1.00">
					<Data Description="X" Code="1" />
				</TCPOS.FrontEnd.BusinessLogic.TransArticle>
				<TCPOS.FrontEnd.BusinessLogic.TransPayment amount="1.00"><Data Type="Bitcoin" /></TCPOS.FrontEnd.BusinessLogic.TransPayment>
			</subItems></data></tx>`,
			message: "unknown payment method",
		},
		{
			name:    "no items",
			export:  `<tx><data SoftwareVersion="8.0" Total="0"><subItems/></data></tx>`,
			message: "no items",
		},
		{
			name: "article without price",
			export: `<tx><data SoftwareVersion="8.0" Total="1.00"><subItems>
				<TCPOS.FrontEnd.BusinessLogic.TransArticle _vatPercent="6" quantityWithPrecision="1">
					<Data Description="X" Code="1" />
				</TCPOS.FrontEnd.BusinessLogic.TransArticle>
				<TCPOS.FrontEnd.BusinessLogic.TransPayment amount="1.00"><Data Type="Cash" /></TCPOS.FrontEnd.BusinessLogic.TransPayment>
			</subItems></data></tx>`,
			message: "no price",
		},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			doc, err := newTestEngine(t).Transform(parse(t, tt.export))
			require.ErrorIs(t, err, ErrNotPrintable)
			assert.Nil(t, doc)
			assert.Contains(t, err.Error(), tt.message)
		})
	}
}

func TestTransform_AggregatesFailures(t *testing.T) {
	t.Parallel()

	tx := parse(t, `<tx><data SoftwareVersion="8.0" Total="abc"><subItems>
		<TCPOS.FrontEnd.BusinessLogic.TransPayment amount="1.00"><Data Type="Bitcoin" /></TCPOS.FrontEnd.BusinessLogic.TransPayment>
	</subItems></data></tx>`)

	_, err := newTestEngine(t).Transform(tx)
	require.ErrorIs(t, err, ErrNotPrintable)
	for _, part := range []string{"transaction total", "unknown payment method", "no items", "no payments"} {
		assert.Contains(t, err.Error(), part)
	}
}

func TestTransform_MissingSubtree(t *testing.T) {
	t.Parallel()

	_, err := newTestEngine(t).Transform(&tcpos.Transaction{})
	require.ErrorIs(t, err, ErrNotPrintable)
	require.ErrorIs(t, err, tcpos.ErrMissingSubtree)
}

func TestDescriptionLayout(t *testing.T) {
	t.Parallel()

	e := newTestEngine(t)
	long := "extra hot with oat milk and a shot of vanilla syrup please no lid"

	tests := []struct {
		name     string
		title    string
		notes    string
		expected [3]string
	}{
		{name: "no notes", title: "Espresso", expected: [3]string{"", "", "Espresso"}},
		{name: "short notes", title: "Espresso", notes: "double", expected: [3]string{"", "Espresso", "double"}},
		{
			name:     "long notes",
			title:    "Latte",
			notes:    long,
			expected: [3]string{"Latte", "extra hot with oat milk and a shot of vanilla", "syrup please no lid"},
		},
		{name: "empty title", expected: [3]string{"", "", " "}},
		{name: "accents folded", title: "Crème brûlée", expected: [3]string{"", "", "Creme brulee"}},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			assert.Equal(t, tt.expected, e.description(tt.title, tt.notes))
		})
	}
}

func TestMenuComponentsTruncate(t *testing.T) {
	t.Parallel()

	var components strings.Builder
	for i := 0; i < 12; i++ {
		components.WriteString(`<TCPOS.FrontEnd.BusinessLogic.TransArticle quantityWithPrecision="1">
			<Data Description="Component number" Code="9" />
		</TCPOS.FrontEnd.BusinessLogic.TransArticle>`)
	}

	tx := parse(t, `<tx><data SoftwareVersion="8.0" Total="10.00"><subItems>
		<TCPOS.FrontEnd.BusinessLogic.TransMenu _vatPercent="6" quantityWithPrecision="1" _enteredPrice="10.00">
			<Data Description="Family Menu" Code="500" />
			<subItems>`+components.String()+`</subItems>
		</TCPOS.FrontEnd.BusinessLogic.TransMenu>
		<TCPOS.FrontEnd.BusinessLogic.TransPayment amount="10.00"><Data Type="Cash" /></TCPOS.FrontEnd.BusinessLogic.TransPayment>
	</subItems></data></tx>`)

	doc, err := newTestEngine(t).Transform(tx)
	require.NoError(t, err)
	require.Len(t, doc.Lines, 1)

	rows := doc.Lines[0].Description
	assert.Equal(t, "Family Menu", rows[0])
	for _, row := range rows {
		assert.LessOrEqual(t, len(row), 48)
	}
	assert.True(t, strings.HasPrefix(rows[1], "Component number, Component number,"))
	assert.NotEmpty(t, strings.TrimSpace(rows[2]))
	assert.False(t, strings.HasSuffix(rows[2], "Compo"), "words are never cut")
}
