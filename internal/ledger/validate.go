// Package ledger holds the split-settlement rules: split validation, the
// per-split settlement state machine, balance netting, filtering and
// statistics. Everything here is pure and independent of the store.
package ledger

import (
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/shopspring/decimal"
	"gitlab.com/yelinaung/expense-splitter/internal/models"
)

// SplitTolerance absorbs rounding when shares are computed client-side.
var SplitTolerance = decimal.New(1, -2)

// SumSplits adds up the split amounts.
func SumSplits(splits []models.Split) decimal.Decimal {
	sum := decimal.Zero
	for _, s := range splits {
		sum = sum.Add(s.Amount)
	}
	return sum
}

// ValidateSplits accepts an empty split list, or one whose amounts sum to
// total within SplitTolerance, inclusive.
func ValidateSplits(total decimal.Decimal, splits []models.Split) error {
	if len(splits) == 0 {
		return nil
	}
	sum := SumSplits(splits)
	if sum.Sub(total).Abs().GreaterThan(SplitTolerance) {
		return fmt.Errorf("%w: splits sum to %s, total is %s", ErrSplitSumMismatch, sum.String(), total.String())
	}
	return nil
}

// ValidateExpenditure checks every structural field of e and then the split
// sum. All failures are reported together.
func ValidateExpenditure(e *models.Expenditure) error {
	verr := &ValidationError{}

	if !e.Amount.IsPositive() {
		verr.Add("amount", "must be greater than 0")
	}
	if e.TotalAmount.IsNegative() {
		verr.Add("totalAmount", "must not be negative")
	}
	if !e.Category.Valid() {
		verr.Add("category", fmt.Sprintf("must be one of: %s", strings.Join(models.CategoryNames(), ", ")))
	}
	if !e.PaymentMethod.Valid() {
		verr.Add("paymentMethod", "is not a supported payment method")
	}

	desc := strings.TrimSpace(e.Description)
	switch {
	case desc == "":
		verr.Add("description", "is required")
	case utf8.RuneCountInString(desc) > models.MaxDescriptionLength:
		verr.Add("description", fmt.Sprintf("must be at most %d characters", models.MaxDescriptionLength))
	}

	if utf8.RuneCountInString(e.Location) > models.MaxLocationLength {
		verr.Add("location", fmt.Sprintf("must be at most %d characters", models.MaxLocationLength))
	}

	if len(e.Tags) > models.MaxTags {
		verr.Add("tags", fmt.Sprintf("at most %d tags are allowed", models.MaxTags))
	}
	for i, tag := range e.Tags {
		field := fmt.Sprintf("tags[%d]", i)
		if strings.TrimSpace(tag) == "" {
			verr.Add(field, "must not be empty")
		} else if utf8.RuneCountInString(tag) > models.MaxTagNameLength {
			verr.Add(field, fmt.Sprintf("must be at most %d characters", models.MaxTagNameLength))
		}
	}

	if e.PaidBy == 0 {
		verr.Add("paidBy", "is required")
	}

	splitErrs := validateSplitFields(e.Splits)
	verr.Merge(splitErrs)

	// Only meaningful once every share is structurally sound.
	if splitErrs.OrNil() == nil && !verr.Has("totalAmount") {
		if err := ValidateSplits(e.TotalAmount, e.Splits); err != nil {
			verr.addCause("splits", ErrSplitSumMismatch)
		}
	}

	return verr.OrNil()
}

func validateSplitFields(splits []models.Split) *ValidationError {
	verr := &ValidationError{}
	seen := make(map[int64]bool, len(splits))
	for i, s := range splits {
		field := fmt.Sprintf("splits[%d]", i)
		if s.UserID == 0 {
			verr.Add(field+".user", "is required")
		} else if seen[s.UserID] {
			verr.Add(field+".user", "participant appears more than once")
		}
		seen[s.UserID] = true
		if s.Amount.IsNegative() {
			verr.Add(field+".amount", "must not be negative")
		}
	}
	return verr
}

// NormalizeTags trims tags and drops empty entries and case-insensitive
// duplicates, keeping first-seen order.
func NormalizeTags(tags []string) []string {
	out := make([]string, 0, len(tags))
	seen := make(map[string]bool, len(tags))
	for _, t := range tags {
		t = strings.TrimSpace(t)
		if t == "" {
			continue
		}
		key := strings.ToLower(t)
		if seen[key] {
			continue
		}
		seen[key] = true
		out = append(out, t)
	}
	return out
}
