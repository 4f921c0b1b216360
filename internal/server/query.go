package server

import (
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/shopspring/decimal"
	"gitlab.com/yelinaung/expense-splitter/internal/ledger"
	"gitlab.com/yelinaung/expense-splitter/internal/models"
)

const dateLayout = "2006-01-02"

// parseFilter reads listing criteria from the query string. The caller's
// identity is filled in by the service.
func parseFilter(q url.Values) (ledger.Filter, error) {
	verr := &ledger.ValidationError{}
	var f ledger.Filter

	f.From, f.To = parseDateRange(q, verr)

	if v := strings.TrimSpace(q.Get("category")); v != "" {
		c, ok := models.ParseCategory(v)
		if !ok {
			verr.Add("category", "must be one of: "+strings.Join(models.CategoryNames(), ", "))
		}
		f.Category = c
	}

	f.Tag = strings.TrimSpace(q.Get("tag"))
	f.MinAmount = parseAmount(q, "minAmount", verr)
	f.MaxAmount = parseAmount(q, "maxAmount", verr)

	role := q.Get("role")
	if role == "" {
		role = q.Get("splitRole")
	}
	r, ok := ledger.ParseRole(role)
	if !ok {
		verr.Add("role", "must be one of: all, owned, paid-by-me, owed-to-me, owed-by-me")
	}
	f.Role = r

	if v := strings.TrimSpace(q.Get("isSettled")); v != "" {
		settled, err := strconv.ParseBool(v)
		if err != nil {
			verr.Add("isSettled", "must be true or false")
		} else {
			f.Settled = &settled
		}
	}

	return f, verr.OrNil()
}

// parsePage reads page and limit. Missing values take the defaults.
func parsePage(q url.Values) (ledger.Page, error) {
	verr := &ledger.ValidationError{}
	p := ledger.Page{
		Page:  parsePositiveInt(q, "page", verr),
		Limit: parsePositiveInt(q, "limit", verr),
	}
	return p.Normalize(), verr.OrNil()
}

// parseStatsRange reads startDate and endDate only.
func parseStatsRange(q url.Values) (*time.Time, *time.Time, error) {
	verr := &ledger.ValidationError{}
	from, to := parseDateRange(q, verr)
	return from, to, verr.OrNil()
}

// parseDateRange accepts YYYY-MM-DD or RFC 3339. A date-only endDate covers
// the whole day.
func parseDateRange(q url.Values, verr *ledger.ValidationError) (*time.Time, *time.Time) {
	from, _ := parseTime(q, "startDate", verr)
	to, dateOnly := parseTime(q, "endDate", verr)
	if to != nil && dateOnly {
		end := to.AddDate(0, 0, 1).Add(-time.Nanosecond)
		to = &end
	}
	if from != nil && to != nil && to.Before(*from) {
		verr.Add("endDate", "must not be before startDate")
	}
	return from, to
}

func parseTime(q url.Values, key string, verr *ledger.ValidationError) (*time.Time, bool) {
	v := strings.TrimSpace(q.Get(key))
	if v == "" {
		return nil, false
	}
	if t, err := time.Parse(dateLayout, v); err == nil {
		return &t, true
	}
	if t, err := time.Parse(time.RFC3339, v); err == nil {
		return &t, false
	}
	verr.Add(key, "must be a date (YYYY-MM-DD) or RFC 3339 timestamp")
	return nil, false
}

func parseAmount(q url.Values, key string, verr *ledger.ValidationError) *decimal.Decimal {
	v := strings.TrimSpace(q.Get(key))
	if v == "" {
		return nil
	}
	d, err := decimal.NewFromString(v)
	if err != nil {
		verr.Add(key, "must be a number")
		return nil
	}
	return &d
}

func parsePositiveInt(q url.Values, key string, verr *ledger.ValidationError) int {
	v := strings.TrimSpace(q.Get(key))
	if v == "" {
		return 0
	}
	n, err := strconv.Atoi(v)
	if err != nil || n < 1 {
		verr.Add(key, "must be a positive integer")
		return 0
	}
	return n
}

func parseID(raw string) (int64, error) {
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || id < 1 {
		return 0, badRequestError{msg: "invalid expenditure id"}
	}
	return id, nil
}
