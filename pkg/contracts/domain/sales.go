package domain

import (
	"time"
)

// SalesRecord is the canonical per-transaction row every pipeline stage
// consumes. Source adapters produce it, the cleaner repairs and filters it,
// the aggregator reads it. Records are immutable once mapped; the cleaner
// returns new slices rather than mutating shared state.
type SalesRecord struct {
	TransactionID string    `json:"transaction_id" validate:"required"`
	Date          time.Time `json:"date"`
	ProductName   string    `json:"product_name" validate:"required"`
	Category      string    `json:"category" validate:"required"`
	Region        string    `json:"region" validate:"required"`
	Channel       string    `json:"channel" validate:"required"`
	Quantity      int       `json:"quantity" validate:"min=1"`
	UnitPrice     float64   `json:"unit_price" validate:"min=0"`
	Revenue       *float64  `json:"revenue,omitempty" validate:"omitempty,min=0"`
	PaymentMethod string    `json:"payment_method"`
	CustomerID    string    `json:"customer_id"`
	DiscountPct   float64   `json:"discount_pct" validate:"min=0,max=1"`
	IsReturned    bool      `json:"is_returned"`
	Source        string    `json:"source,omitempty"`

	// Derived calendar fields, populated by the cleaner on clean-table rows.
	Year      int    `json:"year,omitempty"`
	Month     int    `json:"month,omitempty" validate:"omitempty,min=1,max=12"`
	Quarter   int    `json:"quarter,omitempty" validate:"omitempty,min=1,max=4"`
	MonthName string `json:"month_name,omitempty"`
	Week      int    `json:"week,omitempty"`
}

// HasDate reports whether the record carries a parseable date. Adapters map
// unparseable source dates to the zero time; the cleaner drops such rows.
func (r SalesRecord) HasDate() bool {
	return !r.Date.IsZero()
}

// HasRevenue reports whether revenue is present (nil means the source left
// it blank and imputation has not filled it).
func (r SalesRecord) HasRevenue() bool {
	return r.Revenue != nil
}

// RevenueValue returns the revenue, or 0 when it is null.
func (r SalesRecord) RevenueValue() float64 {
	if r.Revenue == nil {
		return 0
	}
	return *r.Revenue
}

// ComputeDerived fills the calendar fields from Date. It is a no-op for
// records without a date.
func (r *SalesRecord) ComputeDerived() {
	if r.Date.IsZero() {
		return
	}
	r.Year = r.Date.Year()
	r.Month = int(r.Date.Month())
	r.Quarter = (r.Month + 2) / 3
	r.MonthName = r.Date.Format("Jan")
	_, r.Week = r.Date.ISOWeek()
}
