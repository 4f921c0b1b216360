// Package service orchestrates the ledger use cases on top of the stores.
package service

import (
	"context"
	"errors"
	"time"

	"gitlab.com/yelinaung/expense-splitter/internal/gemini"
	"gitlab.com/yelinaung/expense-splitter/internal/ledger"
	"gitlab.com/yelinaung/expense-splitter/internal/models"
	"gitlab.com/yelinaung/expense-splitter/internal/telemetry"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

const tracerName = "gitlab.com/yelinaung/expense-splitter/internal/service"

// ErrSuggestionsDisabled is returned by SuggestCategory when no suggester is configured.
var ErrSuggestionsDisabled = errors.New("category suggestions are not configured")

// ExpenditureStore persists expenditures together with their splits.
// Mutate must apply fn and write the result atomically with respect to other
// writers of the same expenditure.
type ExpenditureStore interface {
	Create(ctx context.Context, e *models.Expenditure) error
	GetByID(ctx context.Context, id int64) (*models.Expenditure, error)
	Mutate(ctx context.Context, id int64, fn func(*models.Expenditure) error) (*models.Expenditure, error)
	Delete(ctx context.Context, id int64) error
	Find(ctx context.Context, f ledger.Filter, p ledger.Page) ([]models.Expenditure, int, error)
	FindAll(ctx context.Context, f ledger.Filter) ([]models.Expenditure, error)
	Summarize(ctx context.Context, f ledger.Filter) (ledger.Summary, error)
	Ping(ctx context.Context) error
}

// UserStore records authenticated users and labels counterparties.
type UserStore interface {
	Upsert(ctx context.Context, user *models.User) error
	GetByIDs(ctx context.Context, ids []int64) (map[int64]models.User, error)
}

// CategorySuggester picks a category for a free-text description.
type CategorySuggester interface {
	SuggestCategory(ctx context.Context, description string) (*gemini.CategorySuggestion, error)
}

// Service implements the expenditure use cases.
type Service struct {
	expenditures ExpenditureStore
	users        UserStore
	suggester    CategorySuggester
	metrics      *telemetry.Metrics
	now          func() time.Time
	tracer       trace.Tracer
}

// Option configures a Service.
type Option func(*Service)

// WithSuggester enables category suggestions.
func WithSuggester(s CategorySuggester) Option {
	return func(svc *Service) {
		svc.suggester = s
	}
}

// WithMetrics records ledger counters on m.
func WithMetrics(m *telemetry.Metrics) Option {
	return func(svc *Service) {
		svc.metrics = m
	}
}

// WithClock overrides time.Now.
func WithClock(now func() time.Time) Option {
	return func(svc *Service) {
		svc.now = now
	}
}

// New creates a Service.
func New(expenditures ExpenditureStore, users UserStore, opts ...Option) *Service {
	s := &Service{
		expenditures: expenditures,
		users:        users,
		now:          time.Now,
		tracer:       otel.Tracer(tracerName),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Ping checks the expenditure store.
func (s *Service) Ping(ctx context.Context) error {
	return s.expenditures.Ping(ctx)
}

// Users exposes the user store, for the authentication middleware.
func (s *Service) Users() UserStore {
	return s.users
}

func (s *Service) start(ctx context.Context, name string) (context.Context, trace.Span) {
	return s.tracer.Start(ctx, "service."+name)
}

// fail records err on span and returns it unchanged.
func fail(span trace.Span, err error) error {
	span.RecordError(err)
	span.SetStatus(codes.Error, err.Error())
	return err
}

func (s *Service) rejected(ctx context.Context, op string, err error) {
	var verr *ledger.ValidationError
	if errors.As(err, &verr) {
		s.metrics.WriteRejected(ctx, op, errors.Is(err, ledger.ErrSplitSumMismatch))
	}
}
