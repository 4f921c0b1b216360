// Package models defines the domain entities for the expense splitter.
package models

import (
	"slices"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// MaxDescriptionLength is the maximum allowed length for expenditure descriptions.
const MaxDescriptionLength = 500

// MaxTagNameLength is the maximum allowed length for a single tag.
const MaxTagNameLength = 30

// MaxTags is the maximum number of tags on one expenditure.
const MaxTags = 20

// MaxLocationLength is the maximum allowed length for the optional location.
const MaxLocationLength = 200

// Category is the closed set of expenditure categories.
type Category string

// Expenditure categories.
const (
	CategoryFood           Category = "food"
	CategoryTransportation Category = "transportation"
	CategoryHousing        Category = "housing"
	CategoryUtilities      Category = "utilities"
	CategoryHealthcare     Category = "healthcare"
	CategoryEntertainment  Category = "entertainment"
	CategoryShopping       Category = "shopping"
	CategoryEducation      Category = "education"
	CategoryPersonalCare   Category = "personal_care"
	CategoryDebtPayments   Category = "debt_payments"
	CategorySavings        Category = "savings"
	CategoryGifts          Category = "gifts"
	CategoryOther          Category = "other"
)

// Categories lists every valid category in display order.
var Categories = []Category{
	CategoryFood,
	CategoryTransportation,
	CategoryHousing,
	CategoryUtilities,
	CategoryHealthcare,
	CategoryEntertainment,
	CategoryShopping,
	CategoryEducation,
	CategoryPersonalCare,
	CategoryDebtPayments,
	CategorySavings,
	CategoryGifts,
	CategoryOther,
}

// Valid reports whether c is one of the known categories.
func (c Category) Valid() bool {
	return slices.Contains(Categories, c)
}

// CategoryNames returns the categories as plain strings.
func CategoryNames() []string {
	names := make([]string, len(Categories))
	for i, c := range Categories {
		names[i] = string(c)
	}
	return names
}

// ParseCategory normalizes s and returns the matching category.
func ParseCategory(s string) (Category, bool) {
	c := Category(strings.ToLower(strings.TrimSpace(s)))
	return c, c.Valid()
}

// PaymentMethod is the closed set of payment methods.
type PaymentMethod string

// Payment methods.
const (
	PaymentCash         PaymentMethod = "cash"
	PaymentCreditCard   PaymentMethod = "credit_card"
	PaymentDebitCard    PaymentMethod = "debit_card"
	PaymentUPI          PaymentMethod = "upi"
	PaymentBankTransfer PaymentMethod = "bank_transfer"
	PaymentOther        PaymentMethod = "other"
)

// PaymentMethods lists every valid payment method.
var PaymentMethods = []PaymentMethod{
	PaymentCash,
	PaymentCreditCard,
	PaymentDebitCard,
	PaymentUPI,
	PaymentBankTransfer,
	PaymentOther,
}

// Valid reports whether m is one of the known payment methods.
func (m PaymentMethod) Valid() bool {
	return slices.Contains(PaymentMethods, m)
}

// ParsePaymentMethod normalizes s and returns the matching payment method.
func ParsePaymentMethod(s string) (PaymentMethod, bool) {
	m := PaymentMethod(strings.ToLower(strings.TrimSpace(s)))
	return m, m.Valid()
}

// User is an authenticated caller. Only the identity matters to the ledger;
// the display fields label counterparties.
type User struct {
	ID        int64     `json:"id"`
	Username  string    `json:"username,omitempty"`
	Name      string    `json:"name,omitempty"`
	CreatedAt time.Time `json:"-"`
	UpdatedAt time.Time `json:"-"`
}

// Split is one participant's share of an expenditure. It only exists nested
// inside its parent Expenditure.
type Split struct {
	UserID    int64           `json:"user"`
	Amount    decimal.Decimal `json:"amount"`
	Paid      bool            `json:"paid"`
	SettledAt *time.Time      `json:"settledAt,omitempty"`
}

// Expenditure is a single recorded expense, optionally split among participants.
type Expenditure struct {
	ID            int64           `json:"id"`
	UserID        int64           `json:"user"`
	Amount        decimal.Decimal `json:"amount"`
	Category      Category        `json:"category"`
	Description   string          `json:"description"`
	Date          time.Time       `json:"date"`
	PaymentMethod PaymentMethod   `json:"paymentMethod"`
	Tags          []string        `json:"tags"`
	Location      string          `json:"location,omitempty"`
	TotalAmount   decimal.Decimal `json:"totalAmount"`
	PaidBy        int64           `json:"paidBy"`
	IsSettled     bool            `json:"isSettled"`
	Splits        []Split         `json:"splits"`
	CreatedAt     time.Time       `json:"createdAt"`
	UpdatedAt     time.Time       `json:"updatedAt"`
}

// Clone returns a deep copy so callers can mutate it without aliasing
// the original's slices.
func (e *Expenditure) Clone() *Expenditure {
	c := *e
	c.Tags = slices.Clone(e.Tags)
	c.Splits = make([]Split, len(e.Splits))
	for i, s := range e.Splits {
		if s.SettledAt != nil {
			at := *s.SettledAt
			s.SettledAt = &at
		}
		c.Splits[i] = s
	}
	return &c
}

// SplitFor returns the index of userID's split, or -1.
func (e *Expenditure) SplitFor(userID int64) int {
	for i := range e.Splits {
		if e.Splits[i].UserID == userID {
			return i
		}
	}
	return -1
}

// Involves reports whether userID owns, paid for, or has a split in e.
func (e *Expenditure) Involves(userID int64) bool {
	return e.UserID == userID || e.PaidBy == userID || e.SplitFor(userID) >= 0
}

// HasTag reports whether e carries the given tag (case-insensitive).
func (e *Expenditure) HasTag(tag string) bool {
	for _, t := range e.Tags {
		if strings.EqualFold(t, tag) {
			return true
		}
	}
	return false
}
