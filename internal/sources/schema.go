package sources

import (
	"fmt"
	"sort"

	apperrors "salespipe/internal/errors"
)

// Field identifies a canonical column an adapter must resolve from its
// source vocabulary.
type Field string

const (
	FieldTransactionID Field = "transaction_id"
	FieldDate          Field = "date"
	FieldProductName   Field = "product_name"
	FieldCategory      Field = "category"
	FieldRegion        Field = "region"
	FieldChannel       Field = "channel"
	FieldQuantity      Field = "quantity"
	FieldUnitPrice     Field = "unit_price"
	FieldRevenue       Field = "revenue"
	FieldPaymentMethod Field = "payment_method"
	FieldCustomerID    Field = "customer_id"
	FieldDiscountPct   Field = "discount_pct"
	FieldIsReturned    Field = "is_returned"
)

// CanonicalFields lists every column an adapter must map, in the order
// schema errors report them.
func CanonicalFields() []Field {
	return []Field{
		FieldTransactionID,
		FieldDate,
		FieldProductName,
		FieldCategory,
		FieldRegion,
		FieldChannel,
		FieldQuantity,
		FieldUnitPrice,
		FieldRevenue,
		FieldPaymentMethod,
		FieldCustomerID,
		FieldDiscountPct,
		FieldIsReturned,
	}
}

// SourceSpec declares how one raw sales export maps onto the canonical
// row shape.
type SourceSpec struct {
	// Name tags records with their origin and appears in logs and errors.
	Name string

	// IDPrefix namespaces transaction IDs so cross-source collisions
	// cannot occur. It is prepended unless the raw ID already carries it.
	IDPrefix string

	// DateLayout is the Go reference layout for this source's date column.
	DateLayout string

	// Columns maps each canonical field to the source column carrying it.
	Columns map[Field]string

	// TitleCaseRegion normalizes free-form region casing to title case.
	// Only the retail export is known to need this.
	TitleCaseRegion bool
}

// Validate reports whether the mapping covers every canonical field and
// carries the metadata adapters depend on.
func (s SourceSpec) Validate() error {
	if s.Name == "" {
		return apperrors.NewConfigError("source spec has no name", nil)
	}
	if s.IDPrefix == "" {
		return apperrors.NewConfigError(fmt.Sprintf("source %q has no ID prefix", s.Name), nil)
	}
	if s.DateLayout == "" {
		return apperrors.NewConfigError(fmt.Sprintf("source %q has no date layout", s.Name), nil)
	}

	var missing []string
	for _, field := range CanonicalFields() {
		if s.Columns[field] == "" {
			missing = append(missing, string(field))
		}
	}
	if len(missing) > 0 {
		sort.Strings(missing)
		return apperrors.NewConfigError(
			fmt.Sprintf("source %q does not map canonical fields", s.Name), nil).
			WithContext("fields", missing)
	}
	return nil
}

// Online returns the mapping for the online channel export.
func Online() SourceSpec {
	return SourceSpec{
		Name:       "online",
		IDPrefix:   "ONL-",
		DateLayout: "2006-01-02",
		Columns: map[Field]string{
			FieldTransactionID: "order_id",
			FieldDate:          "date",
			FieldProductName:   "product",
			FieldCategory:      "category",
			FieldRegion:        "region",
			FieldChannel:       "channel",
			FieldQuantity:      "quantity",
			FieldUnitPrice:     "unit_price",
			FieldRevenue:       "revenue",
			FieldPaymentMethod: "payment_method",
			FieldCustomerID:    "customer_id",
			FieldDiscountPct:   "discount_pct",
			FieldIsReturned:    "return_flag",
		},
	}
}

// Retail returns the mapping for the retail channel export. Retail
// writes day-first dates and inconsistently cased region names.
func Retail() SourceSpec {
	return SourceSpec{
		Name:       "retail",
		IDPrefix:   "RET-",
		DateLayout: "02/01/2006",
		Columns: map[Field]string{
			FieldTransactionID: "transaction_id",
			FieldDate:          "sale_date",
			FieldProductName:   "item_name",
			FieldCategory:      "product_cat",
			FieldRegion:        "store_region",
			FieldChannel:       "sales_channel",
			FieldQuantity:      "qty_sold",
			FieldUnitPrice:     "price_each",
			FieldRevenue:       "total_revenue",
			FieldPaymentMethod: "payment",
			FieldCustomerID:    "cust_id",
			FieldDiscountPct:   "discount",
			FieldIsReturned:    "returned",
		},
		TitleCaseRegion: true,
	}
}

// Wholesale returns the mapping for the wholesale channel export.
func Wholesale() SourceSpec {
	return SourceSpec{
		Name:       "wholesale",
		IDPrefix:   "WHL-",
		DateLayout: "2006/01/02",
		Columns: map[Field]string{
			FieldTransactionID: "ref_number",
			FieldDate:          "invoice_date",
			FieldProductName:   "product_name",
			FieldCategory:      "category",
			FieldRegion:        "territory",
			FieldChannel:       "channel",
			FieldQuantity:      "units",
			FieldUnitPrice:     "unit_cost",
			FieldRevenue:       "gross_revenue",
			FieldPaymentMethod: "payment_type",
			FieldCustomerID:    "account_id",
			FieldDiscountPct:   "promo_rate",
			FieldIsReturned:    "is_returned",
		},
	}
}

// BuiltinSpecs returns the three source mappings in merge priority
// order: online, retail, wholesale.
func BuiltinSpecs() []SourceSpec {
	return []SourceSpec{Online(), Retail(), Wholesale()}
}
