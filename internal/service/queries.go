package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"gitlab.com/yelinaung/expense-splitter/internal/gemini"
	"gitlab.com/yelinaung/expense-splitter/internal/ledger"
	"gitlab.com/yelinaung/expense-splitter/internal/logger"
	"gitlab.com/yelinaung/expense-splitter/internal/models"
	"gitlab.com/yelinaung/expense-splitter/internal/report"
	"go.opentelemetry.io/otel/attribute"
	"golang.org/x/sync/errgroup"
)

// ErrSuggestionFailed wraps errors from the category suggester.
var ErrSuggestionFailed = errors.New("category suggestion failed")

// Listing is one page of expenditures plus figures over every match.
type Listing struct {
	Expenditures []models.Expenditure `json:"expenditures"`
	Pagination   ledger.Pagination    `json:"pagination"`
	Summary      ledger.AmountSummary `json:"summary"`
	SplitSummary ledger.SplitSummary  `json:"splitSummary"`
}

// List returns the page p of expenditures visible to userID that match f.
// f.UserID is always replaced by userID.
func (s *Service) List(ctx context.Context, userID int64, f ledger.Filter, p ledger.Page) (*Listing, error) {
	ctx, span := s.start(ctx, "List")
	defer span.End()

	f.UserID = userID
	p = p.Normalize()

	var (
		page    []models.Expenditure
		total   int
		summary ledger.Summary
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		page, total, err = s.expenditures.Find(gctx, f, p)
		return err
	})
	g.Go(func() error {
		var err error
		summary, err = s.expenditures.Summarize(gctx, f)
		return err
	})
	if err := g.Wait(); err != nil {
		return nil, fail(span, err)
	}

	span.SetAttributes(attribute.Int("listing.total", total))
	return &Listing{
		Expenditures: page,
		Pagination:   ledger.Paginate(p, total),
		Summary:      summary.Amounts,
		SplitSummary: summary.Splits,
	}, nil
}

// Settlements nets userID's unsettled expenditures per counterparty.
func (s *Service) Settlements(ctx context.Context, userID int64) (ledger.BalanceReport, error) {
	ctx, span := s.start(ctx, "Settlements")
	defer span.End()

	unsettled := false
	es, err := s.expenditures.FindAll(ctx, ledger.Filter{UserID: userID, Settled: &unsettled})
	if err != nil {
		return ledger.BalanceReport{}, fail(span, err)
	}

	balances := ledger.AggregateBalances(userID, es)
	if ids := balances.CounterpartyIDs(); len(ids) > 0 {
		users, err := s.users.GetByIDs(ctx, ids)
		if err != nil {
			return ledger.BalanceReport{}, fail(span, fmt.Errorf("failed to load counterparties: %w", err))
		}
		balances.Label(users)
	}

	span.SetAttributes(attribute.Int("settlements.counterparties", len(balances.Settlements)))
	return balances, nil
}

// Statistics breaks down the expenditures userID owns within the optional
// date range.
func (s *Service) Statistics(ctx context.Context, userID int64, from, to *time.Time) (ledger.Statistics, error) {
	ctx, span := s.start(ctx, "Statistics")
	defer span.End()

	stats, err := s.statistics(ctx, userID, from, to)
	if err != nil {
		return ledger.Statistics{}, fail(span, err)
	}
	return stats, nil
}

// StatisticsChart renders the category breakdown of Statistics as a PNG.
func (s *Service) StatisticsChart(ctx context.Context, userID int64, from, to *time.Time) ([]byte, error) {
	ctx, span := s.start(ctx, "StatisticsChart")
	defer span.End()

	stats, err := s.statistics(ctx, userID, from, to)
	if err != nil {
		return nil, fail(span, err)
	}

	png, err := report.GenerateCategoryChart(stats.ByCategory, report.ChartTitle(from, to))
	if err != nil {
		return nil, fail(span, err)
	}
	return png, nil
}

func (s *Service) statistics(ctx context.Context, userID int64, from, to *time.Time) (ledger.Statistics, error) {
	es, err := s.expenditures.FindAll(ctx, ledger.Filter{
		UserID: userID,
		Role:   ledger.RoleOwned,
		From:   from,
		To:     to,
	})
	if err != nil {
		return ledger.Statistics{}, err
	}
	return ledger.ComputeStatistics(es), nil
}

// ExportCSV renders every expenditure visible to userID that matches f.
func (s *Service) ExportCSV(ctx context.Context, userID int64, f ledger.Filter) ([]byte, error) {
	ctx, span := s.start(ctx, "ExportCSV")
	defer span.End()

	f.UserID = userID
	es, err := s.expenditures.FindAll(ctx, f)
	if err != nil {
		return nil, fail(span, err)
	}
	if len(es) > report.MaxExportRows {
		logger.FromContext(ctx).Warn().
			Int("matches", len(es)).
			Int("limit", report.MaxExportRows).
			Msg("CSV export truncated")
	}

	data, err := report.GenerateExpendituresCSV(es)
	if err != nil {
		return nil, fail(span, err)
	}
	return data, nil
}

// SuggestCategory asks the configured suggester for a category.
func (s *Service) SuggestCategory(ctx context.Context, description string) (*gemini.CategorySuggestion, error) {
	ctx, span := s.start(ctx, "SuggestCategory")
	defer span.End()

	if s.suggester == nil {
		return nil, fail(span, ErrSuggestionsDisabled)
	}
	if strings.TrimSpace(description) == "" {
		verr := &ledger.ValidationError{}
		verr.Add("description", "is required")
		return nil, fail(span, verr)
	}

	suggestion, err := s.suggester.SuggestCategory(ctx, description)
	if err != nil {
		return nil, fail(span, fmt.Errorf("%w: %w", ErrSuggestionFailed, err))
	}

	span.SetAttributes(attribute.String("suggestion.category", string(suggestion.Category)))
	return suggestion, nil
}
