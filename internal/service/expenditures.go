package service

import (
	"context"
	"errors"

	"gitlab.com/yelinaung/expense-splitter/internal/ledger"
	"gitlab.com/yelinaung/expense-splitter/internal/logger"
	"gitlab.com/yelinaung/expense-splitter/internal/models"
	"go.opentelemetry.io/otel/attribute"
)

// Create validates in and stores it as a new expenditure owned by userID.
// Nothing is stored when validation fails.
func (s *Service) Create(ctx context.Context, userID int64, in CreateInput) (*models.Expenditure, error) {
	ctx, span := s.start(ctx, "Create")
	defer span.End()

	e, verr := in.build(userID, s.now())
	if err := ledger.ValidateExpenditure(e); err != nil {
		var more *ledger.ValidationError
		if errors.As(err, &more) {
			verr.Merge(more)
		}
	}
	if err := verr.OrNil(); err != nil {
		s.rejected(ctx, "create", err)
		return nil, fail(span, err)
	}

	if err := s.expenditures.Create(ctx, e); err != nil {
		return nil, fail(span, err)
	}

	span.SetAttributes(attribute.Int64("expenditure.id", e.ID), attribute.Int("expenditure.splits", len(e.Splits)))
	s.metrics.ExpenditureCreated(ctx, len(e.Splits) > 0)

	logger.FromContext(ctx).Info().
		Int64("expenditure_id", e.ID).
		Str("amount", e.Amount.String()).
		Str("category", string(e.Category)).
		Str("description", logger.SanitizeDescription(e.Description)).
		Int("splits", len(e.Splits)).
		Msg("Expenditure created")

	return e, nil
}

// Get returns the expenditure if userID owns, paid for, or takes part in it.
// Anyone else gets ErrNotFound.
func (s *Service) Get(ctx context.Context, userID, id int64) (*models.Expenditure, error) {
	ctx, span := s.start(ctx, "Get")
	defer span.End()
	span.SetAttributes(attribute.Int64("expenditure.id", id))

	e, err := s.expenditures.GetByID(ctx, id)
	if err != nil {
		return nil, fail(span, err)
	}
	if !e.Involves(userID) {
		return nil, fail(span, ledger.ErrNotFound)
	}
	return e, nil
}

// Update applies the whitelisted fields of in. Only the owner may update;
// other involved users get ErrForbidden and everyone else ErrNotFound. The
// whole expenditure is revalidated before it is written.
func (s *Service) Update(ctx context.Context, userID, id int64, in UpdateInput) (*models.Expenditure, error) {
	ctx, span := s.start(ctx, "Update")
	defer span.End()
	span.SetAttributes(attribute.Int64("expenditure.id", id))

	updated, err := s.expenditures.Mutate(ctx, id, func(e *models.Expenditure) error {
		if err := authorizeOwner(e, userID); err != nil {
			return err
		}
		in.apply(e)
		return ledger.ValidateExpenditure(e)
	})
	if err != nil {
		s.rejected(ctx, "update", err)
		return nil, fail(span, err)
	}

	logger.FromContext(ctx).Info().
		Int64("expenditure_id", id).
		Bool("settled", updated.IsSettled).
		Msg("Expenditure updated")

	return updated, nil
}

// Delete removes the expenditure. Same visibility rules as Update.
func (s *Service) Delete(ctx context.Context, userID, id int64) error {
	ctx, span := s.start(ctx, "Delete")
	defer span.End()
	span.SetAttributes(attribute.Int64("expenditure.id", id))

	e, err := s.expenditures.GetByID(ctx, id)
	if err != nil {
		return fail(span, err)
	}
	if err := authorizeOwner(e, userID); err != nil {
		return fail(span, err)
	}
	if err := s.expenditures.Delete(ctx, id); err != nil {
		return fail(span, err)
	}

	logger.FromContext(ctx).Info().Int64("expenditure_id", id).Msg("Expenditure deleted")
	return nil
}

// MarkPaid marks userID's split of the expenditure as paid. A missing or
// already settled expenditure is reported as ErrNotFoundOrSettled.
func (s *Service) MarkPaid(ctx context.Context, userID, id int64) (*models.Expenditure, error) {
	ctx, span := s.start(ctx, "MarkPaid")
	defer span.End()
	span.SetAttributes(attribute.Int64("expenditure.id", id))

	now := s.now()
	updated, err := s.expenditures.Mutate(ctx, id, func(e *models.Expenditure) error {
		return ledger.MarkPaid(e, userID, now)
	})
	if errors.Is(err, ledger.ErrNotFound) {
		err = ledger.ErrNotFoundOrSettled
	}
	if err != nil {
		return nil, fail(span, err)
	}

	s.metrics.SplitPaid(ctx)
	if updated.IsSettled {
		s.metrics.ExpenditureSettled(ctx)
	}
	span.SetAttributes(attribute.Bool("expenditure.settled", updated.IsSettled))

	logger.FromContext(ctx).Info().
		Int64("expenditure_id", id).
		Bool("settled", updated.IsSettled).
		Msg("Split marked paid")

	return updated, nil
}

func authorizeOwner(e *models.Expenditure, userID int64) error {
	if !e.Involves(userID) {
		return ledger.ErrNotFound
	}
	if e.UserID != userID {
		return ledger.ErrForbidden
	}
	return nil
}
