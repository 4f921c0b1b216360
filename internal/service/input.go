package service

import (
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"
	"gitlab.com/yelinaung/expense-splitter/internal/ledger"
	"gitlab.com/yelinaung/expense-splitter/internal/models"
)

// SplitInput is a participant's share as submitted by a client.
type SplitInput struct {
	UserID int64           `json:"user"`
	Amount decimal.Decimal `json:"amount"`
	Paid   bool            `json:"paid"`
}

// CreateInput is the body of a create request. The caller is always the
// payer, so a client cannot record a debt between two other users.
type CreateInput struct {
	Amount        *decimal.Decimal `json:"amount"`
	Category      string           `json:"category"`
	Description   string           `json:"description"`
	Date          *time.Time       `json:"date"`
	PaymentMethod string           `json:"paymentMethod"`
	Tags          []string         `json:"tags"`
	Location      string           `json:"location"`
	TotalAmount   *decimal.Decimal `json:"totalAmount"`
	IsSettled     bool             `json:"isSettled"`
	Splits        []SplitInput     `json:"splits"`
}

// UpdateInput carries the fields an owner may change. Nil fields are left
// alone; anything not listed here cannot be updated.
type UpdateInput struct {
	Amount        *decimal.Decimal `json:"amount"`
	Category      *string          `json:"category"`
	Description   *string          `json:"description"`
	Date          *time.Time       `json:"date"`
	PaymentMethod *string          `json:"paymentMethod"`
	Tags          *[]string        `json:"tags"`
	Location      *string          `json:"location"`
	TotalAmount   *decimal.Decimal `json:"totalAmount"`
	Splits        *[]SplitInput    `json:"splits"`
}

// build turns the input into a new expenditure owned by userID. Only the
// caller's own split may arrive already paid.
func (in CreateInput) build(userID int64, now time.Time) (*models.Expenditure, *ledger.ValidationError) {
	verr := &ledger.ValidationError{}

	e := &models.Expenditure{
		UserID:        userID,
		Amount:        decimal.Zero,
		Category:      parseCategory(in.Category),
		Description:   strings.TrimSpace(in.Description),
		Date:          now,
		PaymentMethod: parsePaymentMethod(in.PaymentMethod),
		Tags:          ledger.NormalizeTags(in.Tags),
		Location:      strings.TrimSpace(in.Location),
		PaidBy:        userID,
		IsSettled:     in.IsSettled,
	}
	if in.Amount != nil {
		e.Amount = *in.Amount
	}
	if in.Date != nil {
		e.Date = *in.Date
	}
	e.TotalAmount = e.Amount
	if in.TotalAmount != nil {
		e.TotalAmount = *in.TotalAmount
	}

	e.Splits = make([]models.Split, len(in.Splits))
	for i, si := range in.Splits {
		split := models.Split{UserID: si.UserID, Amount: si.Amount}
		if si.Paid {
			if si.UserID != userID {
				verr.Add(fmt.Sprintf("splits[%d].paid", i), "only your own split can be marked paid")
			} else {
				at := now
				split.Paid = true
				split.SettledAt = &at
			}
		}
		e.Splits[i] = split
	}
	ledger.RecomputeSettled(e)

	return e, verr
}

// apply writes the whitelisted fields onto e. Paid state of splits is never
// taken from the input.
func (in UpdateInput) apply(e *models.Expenditure) {
	if in.Amount != nil {
		// An unsplit expenditure whose total tracked its amount keeps tracking it.
		if in.TotalAmount == nil && len(e.Splits) == 0 && in.Splits == nil && e.TotalAmount.Equal(e.Amount) {
			e.TotalAmount = *in.Amount
		}
		e.Amount = *in.Amount
	}
	if in.Category != nil {
		e.Category = parseCategory(*in.Category)
	}
	if in.Description != nil {
		e.Description = strings.TrimSpace(*in.Description)
	}
	if in.Date != nil {
		e.Date = *in.Date
	}
	if in.PaymentMethod != nil {
		e.PaymentMethod = parsePaymentMethod(*in.PaymentMethod)
	}
	if in.Tags != nil {
		e.Tags = ledger.NormalizeTags(*in.Tags)
	}
	if in.Location != nil {
		e.Location = strings.TrimSpace(*in.Location)
	}
	if in.TotalAmount != nil {
		e.TotalAmount = *in.TotalAmount
	}
	if in.Splits != nil {
		next := make([]models.Split, len(*in.Splits))
		for i, si := range *in.Splits {
			next[i] = models.Split{UserID: si.UserID, Amount: si.Amount}
		}
		e.Splits = ledger.CarryOverPayments(e.Splits, next)
		ledger.RecomputeSettled(e)
	}
}

// parseCategory normalizes s. Unknown values pass through so that
// validation reports them.
func parseCategory(s string) models.Category {
	if c, ok := models.ParseCategory(s); ok {
		return c
	}
	return models.Category(s)
}

// parsePaymentMethod normalizes s, defaulting to other when empty.
func parsePaymentMethod(s string) models.PaymentMethod {
	if s == "" {
		return models.PaymentOther
	}
	if m, ok := models.ParsePaymentMethod(s); ok {
		return m
	}
	return models.PaymentMethod(s)
}
