package memory

import (
	"context"
	"sync"

	"orcamento/internal/core"
	"orcamento/internal/sheets"
)

// Store is an in-process Exporter. Rows keep their first-insert order, like
// appended spreadsheet rows.
type Store struct {
	mu       sync.Mutex
	expenses map[string]core.Expense
	order    []string
	budgets  []core.BudgetGoal
	fail     error
	writes   int
}

var _ sheets.Exporter = (*Store)(nil)

func New() *Store {
	return &Store{expenses: map[string]core.Expense{}}
}

// FailWith makes every following call return err. nil restores normal operation.
func (s *Store) FailWith(err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.fail = err
}

func (s *Store) UpsertExpense(_ context.Context, e core.Expense) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.fail != nil {
		return s.fail
	}
	if _, ok := s.expenses[e.ID]; !ok {
		s.order = append(s.order, e.ID)
	}
	s.expenses[e.ID] = e
	s.writes++
	return nil
}

func (s *Store) DeleteExpense(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.fail != nil {
		return s.fail
	}
	if _, ok := s.expenses[id]; !ok {
		return nil
	}
	delete(s.expenses, id)
	for i, v := range s.order {
		if v == id {
			s.order = append(s.order[:i], s.order[i+1:]...)
			break
		}
	}
	s.writes++
	return nil
}

func (s *Store) ReplaceExpenses(_ context.Context, expenses []core.Expense) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.fail != nil {
		return s.fail
	}
	s.expenses = make(map[string]core.Expense, len(expenses))
	s.order = s.order[:0]
	for _, e := range expenses {
		if _, ok := s.expenses[e.ID]; !ok {
			s.order = append(s.order, e.ID)
		}
		s.expenses[e.ID] = e
	}
	s.writes++
	return nil
}

func (s *Store) ReplaceBudgets(_ context.Context, budgets []core.BudgetGoal) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.fail != nil {
		return s.fail
	}
	s.budgets = append([]core.BudgetGoal(nil), budgets...)
	s.writes++
	return nil
}

// Expenses returns the exported rows in sheet order.
func (s *Store) Expenses() []core.Expense {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]core.Expense, 0, len(s.order))
	for _, id := range s.order {
		out = append(out, s.expenses[id])
	}
	return out
}

// Expense returns the exported row for id.
func (s *Store) Expense(id string) (core.Expense, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	e, ok := s.expenses[id]
	return e, ok
}

func (s *Store) Budgets() []core.BudgetGoal {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]core.BudgetGoal(nil), s.budgets...)
}

// Writes counts successful mutating calls.
func (s *Store) Writes() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.writes
}
