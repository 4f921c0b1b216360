package ledger

import (
	"time"

	"gitlab.com/yelinaung/expense-splitter/internal/models"
)

// AllSplitsPaid reports whether every split is paid. It is false for an
// empty list: an unsplit expenditure is only settled when marked so.
func AllSplitsPaid(splits []models.Split) bool {
	if len(splits) == 0 {
		return false
	}
	for _, s := range splits {
		if !s.Paid {
			return false
		}
	}
	return true
}

// RecomputeSettled derives IsSettled from the splits. Expenditures without
// splits keep their explicit flag.
func RecomputeSettled(e *models.Expenditure) {
	if len(e.Splits) == 0 {
		return
	}
	e.IsSettled = AllSplitsPaid(e.Splits)
}

// MarkPaid moves userID's split from unpaid to paid and recomputes the
// expenditure's settled flag. Paid is terminal.
func MarkPaid(e *models.Expenditure, userID int64, at time.Time) error {
	if e.IsSettled {
		return ErrNotFoundOrSettled
	}
	idx := e.SplitFor(userID)
	if idx < 0 {
		return ErrSplitNotFound
	}
	split := &e.Splits[idx]
	if split.Paid {
		return ErrSplitAlreadyPaid
	}
	split.Paid = true
	split.SettledAt = &at
	RecomputeSettled(e)
	return nil
}

// CarryOverPayments copies paid state from previous splits onto next for
// participants present in both. Paid state in next is otherwise cleared, so
// an owner editing the split list cannot flip anyone's share.
func CarryOverPayments(previous, next []models.Split) []models.Split {
	paid := make(map[int64]models.Split, len(previous))
	for _, s := range previous {
		if s.Paid {
			paid[s.UserID] = s
		}
	}
	out := make([]models.Split, len(next))
	for i, s := range next {
		s.Paid = false
		s.SettledAt = nil
		if old, ok := paid[s.UserID]; ok {
			s.Paid = true
			s.SettledAt = old.SettledAt
		}
		out[i] = s
	}
	return out
}
