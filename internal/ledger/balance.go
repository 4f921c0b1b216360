package ledger

import (
	"cmp"
	"slices"
	"time"

	"github.com/shopspring/decimal"
	"gitlab.com/yelinaung/expense-splitter/internal/models"
)

// Counterparty identifies the other side of a balance.
type Counterparty struct {
	ID       int64  `json:"id"`
	Username string `json:"username,omitempty"`
	Name     string `json:"name,omitempty"`
}

// Transaction is one expenditure contributing to a counterparty balance.
// Amount is signed the same way as Settlement.TotalOwed.
type Transaction struct {
	ID          int64           `json:"id"`
	Description string          `json:"description"`
	Amount      decimal.Decimal `json:"amount"`
	Date        time.Time       `json:"date"`
}

// Settlement is the net position with one counterparty. A positive
// TotalOwed means the counterparty owes the user; negative means the user
// owes the counterparty.
type Settlement struct {
	Counterparty Counterparty    `json:"counterparty"`
	TotalOwed    decimal.Decimal `json:"totalOwed"`
	Transactions []Transaction   `json:"transactions"`
}

// BalanceSummary totals the receivable and payable sides.
type BalanceSummary struct {
	TotalToReceive decimal.Decimal `json:"totalToReceive"`
	TotalToPay     decimal.Decimal `json:"totalToPay"`
}

// BalanceReport is the output of AggregateBalances.
type BalanceReport struct {
	Settlements []Settlement   `json:"settlements"`
	Summary     BalanceSummary `json:"summary"`
}

// AggregateBalances nets userID's unsettled expenditures into one row per
// counterparty. Settled expenditures and ones where userID is neither payer
// nor participant are ignored.
//
// As payer, every other participant's unpaid split counts toward what they
// owe. As a participant, all of the user's own unpaid splits count toward
// what the user owes the payer.
func AggregateBalances(userID int64, expenditures []models.Expenditure) BalanceReport {
	byCounterparty := make(map[int64]*Settlement)

	record := func(counterparty int64, e *models.Expenditure, amount decimal.Decimal) {
		row, ok := byCounterparty[counterparty]
		if !ok {
			row = &Settlement{Counterparty: Counterparty{ID: counterparty}, TotalOwed: decimal.Zero}
			byCounterparty[counterparty] = row
		}
		row.TotalOwed = row.TotalOwed.Add(amount)
		row.Transactions = append(row.Transactions, Transaction{
			ID:          e.ID,
			Description: e.Description,
			Amount:      amount,
			Date:        e.Date,
		})
	}

	for i := range expenditures {
		e := &expenditures[i]
		if e.IsSettled {
			continue
		}

		if e.PaidBy == userID {
			for _, s := range e.Splits {
				if s.UserID == userID || s.Paid {
					continue
				}
				record(s.UserID, e, s.Amount)
			}
			continue
		}

		owed := decimal.Zero
		found := false
		for _, s := range e.Splits {
			if s.UserID == userID && !s.Paid {
				owed = owed.Add(s.Amount)
				found = true
			}
		}
		if found {
			record(e.PaidBy, e, owed.Neg())
		}
	}

	report := BalanceReport{
		Settlements: make([]Settlement, 0, len(byCounterparty)),
		Summary: BalanceSummary{
			TotalToReceive: decimal.Zero,
			TotalToPay:     decimal.Zero,
		},
	}
	for _, row := range byCounterparty {
		if row.TotalOwed.IsZero() {
			continue
		}
		slices.SortFunc(row.Transactions, func(a, b Transaction) int {
			if c := b.Date.Compare(a.Date); c != 0 {
				return c
			}
			return cmp.Compare(b.ID, a.ID)
		})
		if row.TotalOwed.IsPositive() {
			report.Summary.TotalToReceive = report.Summary.TotalToReceive.Add(row.TotalOwed)
		} else {
			report.Summary.TotalToPay = report.Summary.TotalToPay.Add(row.TotalOwed.Abs())
		}
		report.Settlements = append(report.Settlements, *row)
	}

	slices.SortFunc(report.Settlements, func(a, b Settlement) int {
		if c := b.TotalOwed.Cmp(a.TotalOwed); c != 0 {
			return c
		}
		return cmp.Compare(a.Counterparty.ID, b.Counterparty.ID)
	})

	return report
}

// CounterpartyIDs lists the counterparties in r, in report order.
func (r BalanceReport) CounterpartyIDs() []int64 {
	ids := make([]int64, len(r.Settlements))
	for i, s := range r.Settlements {
		ids[i] = s.Counterparty.ID
	}
	return ids
}

// Label fills in counterparty display fields from users.
func (r BalanceReport) Label(users map[int64]models.User) {
	for i := range r.Settlements {
		if u, ok := users[r.Settlements[i].Counterparty.ID]; ok {
			r.Settlements[i].Counterparty.Username = u.Username
			r.Settlements[i].Counterparty.Name = u.Name
		}
	}
}
