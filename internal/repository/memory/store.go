// Package memory provides in-process stores with the same behaviour as the
// PostgreSQL repositories. Data is lost on restart.
package memory

import (
	"context"
	"slices"
	"sync"
	"time"

	"gitlab.com/yelinaung/expense-splitter/internal/ledger"
	"gitlab.com/yelinaung/expense-splitter/internal/models"
)

// Store holds expenditures and users behind one mutex. Every method hands
// out copies, so callers never share memory with the store.
type Store struct {
	mu           sync.RWMutex
	nextID       int64
	expenditures map[int64]*models.Expenditure
	users        map[int64]models.User
	now          func() time.Time
}

// New returns an empty Store.
func New() *Store {
	return &Store{
		expenditures: make(map[int64]*models.Expenditure),
		users:        make(map[int64]models.User),
		now:          time.Now,
	}
}

// Ping always succeeds.
func (s *Store) Ping(context.Context) error {
	return nil
}

// Create stores a copy of e and fills in the generated id and timestamps.
func (s *Store) Create(_ context.Context, e *models.Expenditure) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.nextID++
	now := s.now()
	e.ID = s.nextID
	e.CreatedAt = now
	e.UpdatedAt = now
	if e.Tags == nil {
		e.Tags = []string{}
	}
	if e.Splits == nil {
		e.Splits = []models.Split{}
	}
	s.expenditures[e.ID] = e.Clone()
	return nil
}

// GetByID returns a copy of the expenditure.
func (s *Store) GetByID(_ context.Context, id int64) (*models.Expenditure, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	e, ok := s.expenditures[id]
	if !ok {
		return nil, ledger.ErrNotFound
	}
	return e.Clone(), nil
}

// Mutate applies fn to a copy of the expenditure under the write lock and
// stores the copy only if fn succeeds.
func (s *Store) Mutate(
	_ context.Context,
	id int64,
	fn func(*models.Expenditure) error,
) (*models.Expenditure, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	current, ok := s.expenditures[id]
	if !ok {
		return nil, ledger.ErrNotFound
	}

	next := current.Clone()
	if err := fn(next); err != nil {
		return nil, err
	}
	next.ID = current.ID
	next.CreatedAt = current.CreatedAt
	next.UpdatedAt = s.now()
	s.expenditures[id] = next
	return next.Clone(), nil
}

// Delete removes an expenditure.
func (s *Store) Delete(_ context.Context, id int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.expenditures[id]; !ok {
		return ledger.ErrNotFound
	}
	delete(s.expenditures, id)
	return nil
}

// Find returns one page of matches, newest first, and the total number of
// matches.
func (s *Store) Find(_ context.Context, f ledger.Filter, p ledger.Page) ([]models.Expenditure, int, error) {
	matches := s.match(f)
	p = p.Normalize()

	start := min(p.Offset(), len(matches))
	end := min(start+p.Limit, len(matches))
	return slices.Clip(matches[start:end]), len(matches), nil
}

// FindAll returns every match, newest first.
func (s *Store) FindAll(_ context.Context, f ledger.Filter) ([]models.Expenditure, error) {
	return s.match(f), nil
}

// Summarize computes the listing summary over every match of f.
func (s *Store) Summarize(_ context.Context, f ledger.Filter) (ledger.Summary, error) {
	return ledger.Summarize(f.UserID, s.match(f)), nil
}

func (s *Store) match(f ledger.Filter) []models.Expenditure {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := []models.Expenditure{}
	for _, e := range s.expenditures {
		if f.Matches(e) {
			out = append(out, *e.Clone())
		}
	}
	ledger.SortForListing(out)
	return out
}

// Upsert creates or updates a user. Empty display fields do not overwrite
// stored ones.
func (s *Store) Upsert(_ context.Context, user *models.User) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.now()
	existing, ok := s.users[user.ID]
	if !ok {
		existing = models.User{ID: user.ID, CreatedAt: now}
	}
	if user.Username != "" {
		existing.Username = user.Username
	}
	if user.Name != "" {
		existing.Name = user.Name
	}
	existing.UpdatedAt = now
	s.users[user.ID] = existing

	*user = existing
	return nil
}

// GetByIDs returns the known users among ids, keyed by id.
func (s *Store) GetByIDs(_ context.Context, ids []int64) (map[int64]models.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	users := make(map[int64]models.User, len(ids))
	for _, id := range ids {
		if u, ok := s.users[id]; ok {
			users[id] = u
		}
	}
	return users, nil
}
