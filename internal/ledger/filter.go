package ledger

import (
	"cmp"
	"slices"
	"strings"
	"time"

	"github.com/shopspring/decimal"
	"gitlab.com/yelinaung/expense-splitter/internal/models"
)

// Role narrows a listing by the caller's relationship to an expenditure.
type Role string

// Listing roles.
const (
	RoleAll      Role = "all"
	RoleOwned    Role = "owned"
	RolePaidByMe Role = "paid_by_me"
	RoleOwedToMe Role = "owed_to_me"
	RoleOwedByMe Role = "owed_by_me"
)

// ParseRole accepts both snake_case and kebab-case spellings. An empty
// string means RoleAll.
func ParseRole(s string) (Role, bool) {
	s = strings.ReplaceAll(strings.ToLower(strings.TrimSpace(s)), "-", "_")
	if s == "" {
		return RoleAll, true
	}
	switch r := Role(s); r {
	case RoleAll, RoleOwned, RolePaidByMe, RoleOwedToMe, RoleOwedByMe:
		return r, true
	}
	return "", false
}

// Filter is the conjunction of criteria a listing applies. Nil or empty
// fields are not applied. From and To are both inclusive.
type Filter struct {
	UserID    int64
	Role      Role
	From      *time.Time
	To        *time.Time
	Category  models.Category
	Tag       string
	MinAmount *decimal.Decimal
	MaxAmount *decimal.Decimal
	Settled   *bool
}

// Matches reports whether e satisfies every criterion in f.
func (f Filter) Matches(e *models.Expenditure) bool {
	if !f.matchesRole(e) {
		return false
	}
	if f.From != nil && e.Date.Before(*f.From) {
		return false
	}
	if f.To != nil && e.Date.After(*f.To) {
		return false
	}
	if f.Category != "" && e.Category != f.Category {
		return false
	}
	if f.Tag != "" && !e.HasTag(f.Tag) {
		return false
	}
	if f.MinAmount != nil && e.Amount.LessThan(*f.MinAmount) {
		return false
	}
	if f.MaxAmount != nil && e.Amount.GreaterThan(*f.MaxAmount) {
		return false
	}
	if f.Settled != nil && e.IsSettled != *f.Settled {
		return false
	}
	return true
}

func (f Filter) matchesRole(e *models.Expenditure) bool {
	switch f.Role {
	case RoleOwned:
		return e.UserID == f.UserID
	case RolePaidByMe:
		return e.PaidBy == f.UserID
	case RoleOwedToMe:
		if e.PaidBy != f.UserID {
			return false
		}
		for _, s := range e.Splits {
			if s.UserID != f.UserID {
				return true
			}
		}
		return false
	case RoleOwedByMe:
		return e.PaidBy != f.UserID && e.SplitFor(f.UserID) >= 0
	default:
		return e.Involves(f.UserID)
	}
}

// Page limits.
const (
	DefaultPageSize = 10
	MaxPageSize     = 100
)

// Page selects a window of an ordered listing. Page is 1-based.
type Page struct {
	Page  int
	Limit int
}

// Normalize clamps p into the supported range.
func (p Page) Normalize() Page {
	if p.Page < 1 {
		p.Page = 1
	}
	if p.Limit < 1 {
		p.Limit = DefaultPageSize
	}
	if p.Limit > MaxPageSize {
		p.Limit = MaxPageSize
	}
	return p
}

// Offset is the number of records before the page.
func (p Page) Offset() int {
	return (p.Page - 1) * p.Limit
}

// Pagination describes where a page sits in the full result.
type Pagination struct {
	Total   int  `json:"total"`
	Page    int  `json:"page"`
	Limit   int  `json:"limit"`
	Pages   int  `json:"pages"`
	HasMore bool `json:"hasMore"`
}

// Paginate computes pagination metadata for total matches.
func Paginate(p Page, total int) Pagination {
	p = p.Normalize()
	pages := (total + p.Limit - 1) / p.Limit
	return Pagination{
		Total:   total,
		Page:    p.Page,
		Limit:   p.Limit,
		Pages:   pages,
		HasMore: p.Page < pages,
	}
}

// SortForListing orders expenditures newest first, breaking ties by id.
func SortForListing(es []models.Expenditure) {
	slices.SortFunc(es, func(a, b models.Expenditure) int {
		if c := b.Date.Compare(a.Date); c != 0 {
			return c
		}
		return cmp.Compare(b.ID, a.ID)
	})
}

// AmountSummary aggregates amount over a match set.
type AmountSummary struct {
	Count       int             `json:"count"`
	TotalAmount decimal.Decimal `json:"totalAmount"`
	AvgAmount   decimal.Decimal `json:"avgAmount"`
	MinAmount   decimal.Decimal `json:"minAmount"`
	MaxAmount   decimal.Decimal `json:"maxAmount"`
}

// SplitSummary is the caller's paid/owed position over a match set.
type SplitSummary struct {
	TotalPaid decimal.Decimal `json:"totalPaid"`
	TotalOwed decimal.Decimal `json:"totalOwed"`
	Balance   decimal.Decimal `json:"balance"`
}

// Summary is everything a listing reports about its unpaginated matches.
type Summary struct {
	Amounts AmountSummary
	Splits  SplitSummary
}

// Summarize computes the listing summary for userID over es. Averages are
// rounded to two places.
func Summarize(userID int64, es []models.Expenditure) Summary {
	sum := Summary{
		Amounts: SummarizeAmounts(es),
		Splits: SplitSummary{
			TotalPaid: decimal.Zero,
			TotalOwed: decimal.Zero,
		},
	}
	for i := range es {
		e := &es[i]
		if e.PaidBy == userID {
			sum.Splits.TotalPaid = sum.Splits.TotalPaid.Add(e.TotalAmount)
			continue
		}
		for _, s := range e.Splits {
			if s.UserID == userID && !s.Paid {
				sum.Splits.TotalOwed = sum.Splits.TotalOwed.Add(s.Amount)
			}
		}
	}
	sum.Splits.Balance = sum.Splits.TotalPaid.Sub(sum.Splits.TotalOwed)
	return sum
}

// SummarizeAmounts computes count, sum, average, min and max of amount.
func SummarizeAmounts(es []models.Expenditure) AmountSummary {
	s := AmountSummary{
		TotalAmount: decimal.Zero,
		AvgAmount:   decimal.Zero,
		MinAmount:   decimal.Zero,
		MaxAmount:   decimal.Zero,
	}
	for i, e := range es {
		s.TotalAmount = s.TotalAmount.Add(e.Amount)
		if i == 0 || e.Amount.LessThan(s.MinAmount) {
			s.MinAmount = e.Amount
		}
		if i == 0 || e.Amount.GreaterThan(s.MaxAmount) {
			s.MaxAmount = e.Amount
		}
	}
	s.Count = len(es)
	if s.Count > 0 {
		s.AvgAmount = average(s.TotalAmount, s.Count)
	}
	return s
}

func average(total decimal.Decimal, count int) decimal.Decimal {
	return total.Div(decimal.NewFromInt(int64(count))).Round(2)
}
