package repository

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/jackc/pgx/v5"
	"gitlab.com/yelinaung/expense-splitter/internal/database"
	"gitlab.com/yelinaung/expense-splitter/internal/ledger"
	"gitlab.com/yelinaung/expense-splitter/internal/models"
)

const expenditureColumns = `e.id, e.user_id, e.amount, e.category, e.description, e.date, e.payment_method,
	e.tags, e.location, e.total_amount, e.paid_by, e.is_settled, e.created_at, e.updated_at`

// ExpenditureRepository handles expenditure database operations. Splits are
// stored in expenditure_splits and always read and written together with
// their parent row.
type ExpenditureRepository struct {
	db database.DB
}

// NewExpenditureRepository creates a new ExpenditureRepository.
func NewExpenditureRepository(db database.DB) *ExpenditureRepository {
	return &ExpenditureRepository{db: db}
}

// Ping checks that the database answers.
func (r *ExpenditureRepository) Ping(ctx context.Context) error {
	var one int
	if err := r.db.QueryRow(ctx, `SELECT 1`).Scan(&one); err != nil {
		return fmt.Errorf("failed to ping database: %w", err)
	}
	return nil
}

// Create inserts e and its splits in one transaction and fills in the
// generated id and timestamps.
func (r *ExpenditureRepository) Create(ctx context.Context, e *models.Expenditure) error {
	tx, err := r.db.Begin(ctx)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() { _ = tx.Rollback(ctx) }()

	err = tx.QueryRow(ctx, `
		INSERT INTO expenditures (user_id, amount, category, description, date, payment_method,
			tags, location, total_amount, paid_by, is_settled)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
		RETURNING id, created_at, updated_at
	`, e.UserID, e.Amount, e.Category, e.Description, e.Date, e.PaymentMethod,
		nonNilTags(e.Tags), e.Location, e.TotalAmount, e.PaidBy, e.IsSettled,
	).Scan(&e.ID, &e.CreatedAt, &e.UpdatedAt)
	if err != nil {
		return fmt.Errorf("failed to create expenditure: %w", err)
	}

	if err := insertSplits(ctx, tx, e.ID, e.Splits); err != nil {
		return err
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("failed to commit expenditure: %w", err)
	}
	return nil
}

// GetByID retrieves an expenditure with its splits.
func (r *ExpenditureRepository) GetByID(ctx context.Context, id int64) (*models.Expenditure, error) {
	e, err := getByID(ctx, r.db, id, false)
	if err != nil {
		return nil, err
	}
	return e, nil
}

// Mutate locks the expenditure row, applies fn to the loaded aggregate and
// writes the result back, all in one transaction. If fn returns an error
// nothing is written and the error is returned unchanged.
func (r *ExpenditureRepository) Mutate(
	ctx context.Context,
	id int64,
	fn func(*models.Expenditure) error,
) (*models.Expenditure, error) {
	tx, err := r.db.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() { _ = tx.Rollback(ctx) }()

	e, err := getByID(ctx, tx, id, true)
	if err != nil {
		return nil, err
	}

	if err := fn(e); err != nil {
		return nil, err
	}

	err = tx.QueryRow(ctx, `
		UPDATE expenditures SET
			amount = $2,
			category = $3,
			description = $4,
			date = $5,
			payment_method = $6,
			tags = $7,
			location = $8,
			total_amount = $9,
			is_settled = $10,
			updated_at = NOW()
		WHERE id = $1
		RETURNING updated_at
	`, e.ID, e.Amount, e.Category, e.Description, e.Date, e.PaymentMethod,
		nonNilTags(e.Tags), e.Location, e.TotalAmount, e.IsSettled,
	).Scan(&e.UpdatedAt)
	if err != nil {
		return nil, fmt.Errorf("failed to update expenditure: %w", err)
	}

	if _, err := tx.Exec(ctx, `DELETE FROM expenditure_splits WHERE expenditure_id = $1`, e.ID); err != nil {
		return nil, fmt.Errorf("failed to clear splits: %w", err)
	}
	if err := insertSplits(ctx, tx, e.ID, e.Splits); err != nil {
		return nil, err
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("failed to commit expenditure: %w", err)
	}
	return e, nil
}

// Delete removes an expenditure and its splits.
func (r *ExpenditureRepository) Delete(ctx context.Context, id int64) error {
	tag, err := r.db.Exec(ctx, `DELETE FROM expenditures WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("failed to delete expenditure: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ledger.ErrNotFound
	}
	return nil
}

// Find returns one page of expenditures matching f, newest first, and the
// total number of matches.
func (r *ExpenditureRepository) Find(
	ctx context.Context,
	f ledger.Filter,
	p ledger.Page,
) ([]models.Expenditure, int, error) {
	p = p.Normalize()
	w := buildWhere(f)

	var total int
	if err := r.db.QueryRow(ctx, `SELECT COUNT(*) FROM expenditures e WHERE `+w.sql(), w.args...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("failed to count expenditures: %w", err)
	}

	limit := w.arg(p.Limit)
	offset := w.arg(p.Offset())
	rows, err := r.db.Query(ctx, `
		SELECT `+expenditureColumns+`
		FROM expenditures e
		WHERE `+w.sql()+`
		ORDER BY e.date DESC, e.id DESC
		LIMIT `+limit+` OFFSET `+offset, w.args...)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to query expenditures: %w", err)
	}
	defer rows.Close()

	es, err := scanExpenditures(rows)
	if err != nil {
		return nil, 0, err
	}
	rows.Close()
	if err := loadSplits(ctx, r.db, es); err != nil {
		return nil, 0, err
	}
	return es, total, nil
}

// FindAll returns every expenditure matching f, newest first.
func (r *ExpenditureRepository) FindAll(ctx context.Context, f ledger.Filter) ([]models.Expenditure, error) {
	w := buildWhere(f)
	rows, err := r.db.Query(ctx, `
		SELECT `+expenditureColumns+`
		FROM expenditures e
		WHERE `+w.sql()+`
		ORDER BY e.date DESC, e.id DESC`, w.args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query expenditures: %w", err)
	}
	defer rows.Close()

	es, err := scanExpenditures(rows)
	if err != nil {
		return nil, err
	}
	rows.Close()
	if err := loadSplits(ctx, r.db, es); err != nil {
		return nil, err
	}
	return es, nil
}

// Summarize computes the listing summary over every match of f in SQL.
func (r *ExpenditureRepository) Summarize(ctx context.Context, f ledger.Filter) (ledger.Summary, error) {
	w := buildWhere(f)
	user := w.arg(f.UserID)

	var sum ledger.Summary
	err := r.db.QueryRow(ctx, `
		WITH matched AS (
			SELECT e.id, e.amount, e.total_amount, e.paid_by FROM expenditures e WHERE `+w.sql()+`
		)
		SELECT
			COUNT(*),
			COALESCE(SUM(amount), 0),
			COALESCE(ROUND(AVG(amount), 2), 0),
			COALESCE(MIN(amount), 0),
			COALESCE(MAX(amount), 0),
			COALESCE(SUM(total_amount) FILTER (WHERE paid_by = `+user+`), 0),
			COALESCE((
				SELECT SUM(s.amount)
				FROM expenditure_splits s
				JOIN matched m ON m.id = s.expenditure_id
				WHERE s.user_id = `+user+` AND NOT s.paid AND m.paid_by <> `+user+`
			), 0)
		FROM matched
	`, w.args...).Scan(
		&sum.Amounts.Count,
		&sum.Amounts.TotalAmount,
		&sum.Amounts.AvgAmount,
		&sum.Amounts.MinAmount,
		&sum.Amounts.MaxAmount,
		&sum.Splits.TotalPaid,
		&sum.Splits.TotalOwed,
	)
	if err != nil {
		return ledger.Summary{}, fmt.Errorf("failed to summarize expenditures: %w", err)
	}
	sum.Splits.Balance = sum.Splits.TotalPaid.Sub(sum.Splits.TotalOwed)
	return sum, nil
}

func getByID(ctx context.Context, db database.PGXDB, id int64, forUpdate bool) (*models.Expenditure, error) {
	query := `SELECT ` + expenditureColumns + ` FROM expenditures e WHERE e.id = $1`
	if forUpdate {
		query += ` FOR UPDATE`
	}

	rows, err := db.Query(ctx, query, id)
	if err != nil {
		return nil, fmt.Errorf("failed to get expenditure: %w", err)
	}
	defer rows.Close()

	es, err := scanExpenditures(rows)
	if err != nil {
		return nil, err
	}
	rows.Close()
	if len(es) == 0 {
		return nil, ledger.ErrNotFound
	}
	if err := loadSplits(ctx, db, es); err != nil {
		return nil, err
	}
	return &es[0], nil
}

func insertSplits(ctx context.Context, tx pgx.Tx, expenditureID int64, splits []models.Split) error {
	if len(splits) == 0 {
		return nil
	}

	batch := &pgx.Batch{}
	for i, s := range splits {
		batch.Queue(`
			INSERT INTO expenditure_splits (expenditure_id, position, user_id, amount, paid, settled_at)
			VALUES ($1, $2, $3, $4, $5, $6)
		`, expenditureID, i, s.UserID, s.Amount, s.Paid, s.SettledAt)
	}

	br := tx.SendBatch(ctx, batch)
	for range splits {
		if _, err := br.Exec(); err != nil {
			_ = br.Close()
			return fmt.Errorf("failed to insert split: %w", err)
		}
	}
	if err := br.Close(); err != nil {
		return fmt.Errorf("failed to insert splits: %w", err)
	}
	return nil
}

// loadSplits fills in Splits for every expenditure in es with one query.
func loadSplits(ctx context.Context, db database.PGXDB, es []models.Expenditure) error {
	if len(es) == 0 {
		return nil
	}

	ids := make([]int64, len(es))
	index := make(map[int64]int, len(es))
	for i := range es {
		ids[i] = es[i].ID
		index[es[i].ID] = i
		es[i].Splits = []models.Split{}
	}

	rows, err := db.Query(ctx, `
		SELECT expenditure_id, user_id, amount, paid, settled_at
		FROM expenditure_splits
		WHERE expenditure_id = ANY($1)
		ORDER BY expenditure_id, position
	`, ids)
	if err != nil {
		return fmt.Errorf("failed to query splits: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var expenditureID int64
		var s models.Split
		if err := rows.Scan(&expenditureID, &s.UserID, &s.Amount, &s.Paid, &s.SettledAt); err != nil {
			return fmt.Errorf("failed to scan split: %w", err)
		}
		i := index[expenditureID]
		es[i].Splits = append(es[i].Splits, s)
	}
	if err := rows.Err(); err != nil {
		return fmt.Errorf("error iterating splits: %w", err)
	}
	return nil
}

// scanExpenditures scans expenditure rows selected with expenditureColumns.
func scanExpenditures(rows pgx.Rows) ([]models.Expenditure, error) {
	es := []models.Expenditure{}
	for rows.Next() {
		var e models.Expenditure
		if err := rows.Scan(
			&e.ID, &e.UserID, &e.Amount, &e.Category, &e.Description, &e.Date, &e.PaymentMethod,
			&e.Tags, &e.Location, &e.TotalAmount, &e.PaidBy, &e.IsSettled, &e.CreatedAt, &e.UpdatedAt,
		); err != nil {
			return nil, fmt.Errorf("failed to scan expenditure: %w", err)
		}
		if e.Tags == nil {
			e.Tags = []string{}
		}
		es = append(es, e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating expenditures: %w", err)
	}
	return es, nil
}

func nonNilTags(tags []string) []string {
	if tags == nil {
		return []string{}
	}
	return tags
}

// where accumulates SQL predicates and their positional arguments.
type where struct {
	clauses []string
	args    []any
}

func (w *where) arg(v any) string {
	w.args = append(w.args, v)
	return "$" + strconv.Itoa(len(w.args))
}

func (w *where) add(clause string) {
	w.clauses = append(w.clauses, clause)
}

func (w *where) sql() string {
	if len(w.clauses) == 0 {
		return "TRUE"
	}
	return strings.Join(w.clauses, " AND ")
}

// buildWhere translates f into predicates over the expenditures table
// aliased as e.
func buildWhere(f ledger.Filter) *where {
	w := &where{}
	user := w.arg(f.UserID)
	hasSplit := func(cond string) string {
		return `EXISTS (SELECT 1 FROM expenditure_splits s WHERE s.expenditure_id = e.id AND ` + cond + `)`
	}

	switch f.Role {
	case ledger.RoleOwned:
		w.add(`e.user_id = ` + user)
	case ledger.RolePaidByMe:
		w.add(`e.paid_by = ` + user)
	case ledger.RoleOwedToMe:
		w.add(`e.paid_by = ` + user + ` AND ` + hasSplit(`s.user_id <> `+user))
	case ledger.RoleOwedByMe:
		w.add(`e.paid_by <> ` + user + ` AND ` + hasSplit(`s.user_id = `+user))
	default:
		w.add(`(e.user_id = ` + user + ` OR e.paid_by = ` + user + ` OR ` + hasSplit(`s.user_id = `+user) + `)`)
	}

	if f.From != nil {
		w.add(`e.date >= ` + w.arg(*f.From))
	}
	if f.To != nil {
		w.add(`e.date <= ` + w.arg(*f.To))
	}
	if f.Category != "" {
		w.add(`e.category = ` + w.arg(string(f.Category)))
	}
	if f.Tag != "" {
		w.add(`EXISTS (SELECT 1 FROM unnest(e.tags) t WHERE lower(t) = lower(` + w.arg(f.Tag) + `))`)
	}
	if f.MinAmount != nil {
		w.add(`e.amount >= ` + w.arg(*f.MinAmount))
	}
	if f.MaxAmount != nil {
		w.add(`e.amount <= ` + w.arg(*f.MaxAmount))
	}
	if f.Settled != nil {
		w.add(`e.is_settled = ` + w.arg(*f.Settled))
	}
	return w
}

// isNoRows reports whether err means the queried row does not exist.
func isNoRows(err error) bool {
	return errors.Is(err, pgx.ErrNoRows)
}
