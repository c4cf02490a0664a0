// internal/tcpos/schema.go
package tcpos

import (
	"encoding/xml"
	"strings"
)

// Transaction is one POS export file. The root element is named after the
// transaction UUID.
type Transaction struct {
	XMLName xml.Name
	Data    *Data `xml:"data"`
}

// ID returns the transaction UUID carried by the root element name
func (t *Transaction) ID() string {
	return t.XMLName.Local
}

// Data holds the transaction attributes and its sub-records
type Data struct {
	SoftwareVersion string      `xml:"SoftwareVersion,attr"`
	TransNum        string      `xml:"TransNum,attr"`
	Total           string      `xml:"Total,attr"`
	VoidedTransGuid string      `xml:"VoidedTransGuid,attr"`
	Comment         string      `xml:"Comment,attr"`
	Customer        *Customer   `xml:"Customer"`
	VatDetails      []VatDetail `xml:"VatDetails>TCPOS.FrontEnd.BusinessLogic.VatDetail"`
	SubItems        *SubItems   `xml:"subItems"`
}

// Customer named on the transaction
type Customer struct {
	Name string `xml:"Name,attr"`
	Crib string `xml:"Crib,attr"`
}

// VatDetail lists one tax rate used by the transaction
type VatDetail struct {
	Data struct {
		ID      string `xml:"ID,attr"`
		Percent string `xml:"Percent,attr"`
	} `xml:"Data"`
}

const (
	articleElement  = "TCPOS.FrontEnd.BusinessLogic.TransArticle"
	menuElement     = "TCPOS.FrontEnd.BusinessLogic.TransMenu"
	paymentElement  = "TCPOS.FrontEnd.BusinessLogic.TransPayment"
	discountElement = "TCPOS.FrontEnd.BusinessLogic.TransDiscount"
	serviceElement  = "TCPOS.FrontEnd.BusinessLogic.TransServiceSupplement"
)

// SubItems groups the typed sub-records of a transaction. Every collection
// decodes to a slice whether the export holds zero, one or many records.
type SubItems struct {
	Articles           []Article
	Menus              []Menu
	Payments           []Payment
	Discounts          []Discount
	ServiceSupplements []ServiceSupplement
}

// UnmarshalXML decodes the sub-records one element at a time, numbering
// articles and menus in export order
func (s *SubItems) UnmarshalXML(d *xml.Decoder, start xml.StartElement) error {
	position := 0
	for {
		token, err := d.Token()
		if err != nil {
			return err
		}

		switch el := token.(type) {
		case xml.EndElement:
			return nil
		case xml.StartElement:
			switch el.Name.Local {
			case articleElement:
				var article Article
				if err := d.DecodeElement(&article, &el); err != nil {
					return err
				}
				article.Position = position
				position++
				s.Articles = append(s.Articles, article)
			case menuElement:
				var menu Menu
				if err := d.DecodeElement(&menu, &el); err != nil {
					return err
				}
				menu.Position = position
				position++
				s.Menus = append(s.Menus, menu)
			case paymentElement:
				var payment Payment
				if err := d.DecodeElement(&payment, &el); err != nil {
					return err
				}
				s.Payments = append(s.Payments, payment)
			case discountElement:
				var discount Discount
				if err := d.DecodeElement(&discount, &el); err != nil {
					return err
				}
				s.Discounts = append(s.Discounts, discount)
			case serviceElement:
				var supplement ServiceSupplement
				if err := d.DecodeElement(&supplement, &el); err != nil {
					return err
				}
				s.ServiceSupplements = append(s.ServiceSupplements, supplement)
			default:
				if err := d.Skip(); err != nil {
					return err
				}
			}
		}
	}
}

// Article is a sold (or deleted) merchandise record
type Article struct {
	DeleteOperatorID      *string         `xml:"deleteOperatorID,attr"`
	VatPercent            *string         `xml:"_vatPercent,attr"`
	EnteredPrice          *string         `xml:"_enteredPrice,attr"`
	QuantityWithPrecision string          `xml:"quantityWithPrecision,attr"`
	Data                  ArticleData     `xml:"Data"`
	Price                 *PriceEntry     `xml:"prices>index_0"`
	MeasureUnit           MeasureUnit     `xml:"measureUnit"`
	DiscountValues        *DiscountValues `xml:"DiscountValues"`

	// Position is the record's index among the articles and menus of the
	// transaction; nested menu components keep zero
	Position int `xml:"-"`
}

// Deleted reports whether an operator removed the record from the sale
func (a *Article) Deleted() bool {
	return a.DeleteOperatorID != nil
}

// TaxExempt reports whether the record carries no tax percent
func (a *Article) TaxExempt() bool {
	return a.VatPercent == nil || strings.TrimSpace(*a.VatPercent) == ""
}

// UnitPrice returns the entered price, falling back to the first price
// level. The second result is false when neither is present.
func (a *Article) UnitPrice() (string, bool) {
	if a.EnteredPrice != nil {
		return *a.EnteredPrice, true
	}
	if a.Price != nil && a.Price.Price != "" {
		return a.Price.Price, true
	}
	return "", false
}

// ArticleData describes the article
type ArticleData struct {
	Description      string `xml:"Description,attr"`
	Code             string `xml:"Code,attr"`
	ShortDescription string `xml:"shortDescription,attr"`
	PrintoutNotes    string `xml:"printoutNotes,attr"`
}

// PriceEntry is one price level
type PriceEntry struct {
	Price string `xml:"Price,attr"`
}

// MeasureUnit of the article
type MeasureUnit struct {
	Code string `xml:"Code,attr"`
}

// DiscountValues holds the per-item discount records, named DiscountValue-<n>
type DiscountValues struct {
	Values []DiscountValue `xml:",any"`
}

// First returns the first DiscountValue-* record
func (d *DiscountValues) First() (*DiscountValue, bool) {
	if d == nil {
		return nil, false
	}
	for i := range d.Values {
		if strings.HasPrefix(d.Values[i].XMLName.Local, "DiscountValue-") {
			return &d.Values[i], true
		}
	}
	return nil, false
}

// DiscountValue is one item-level discount
type DiscountValue struct {
	XMLName xml.Name
	Amount  string `xml:"Amount,attr"`
}

// Menu is a combo record whose components are nested articles
type Menu struct {
	Article
	Components []Article `xml:"subItems>TCPOS.FrontEnd.BusinessLogic.TransArticle"`
}

// Payment is one tender record
type Payment struct {
	Amount string `xml:"amount,attr"`
	Data   struct {
		Type string `xml:"Type,attr"`
	} `xml:"Data"`
}

// Discount is a transaction-level discount record
type Discount struct {
	Amount string `xml:"amount,attr"`
	Data   struct {
		Description string `xml:"Description,attr"`
	} `xml:"Data"`
}

// ServiceSupplement is a service charge record
type ServiceSupplement struct {
	ServicePercent string `xml:"servicePercent,attr"`
}
