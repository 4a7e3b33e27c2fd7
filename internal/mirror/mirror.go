// Package mirror keeps a local copy of API state for the dashboard client.
//
// Reads go to the API first. A successful fetch overwrites the local
// snapshot; the snapshot is served only when the API is unreachable. Writes
// are optimistic: they land in the snapshot at once and are sent to the API
// in the background, with no rollback when that fails.
package mirror

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"orcamento/internal/client"
	"orcamento/internal/core"
	"orcamento/internal/log"
	"orcamento/internal/report"
)

// Remote is the API surface the mirror reads and writes through.
type Remote interface {
	ListExpenses(ctx context.Context, f core.ExpenseFilterInput) (core.ExpensePage, error)
	UpsertExpense(ctx context.Context, req client.ExpenseRequest) (core.Expense, bool, error)
	DeleteExpense(ctx context.Context, id string) error
	ListBudgets(ctx context.Context) ([]core.BudgetGoal, error)
	SetBudget(ctx context.Context, category, limit string) (core.BudgetGoal, error)
	DeleteBudget(ctx context.Context, category string) error
	Summary(ctx context.Context, month string) (core.Summary, error)
	MonthlyTrend(ctx context.Context) ([]core.MonthlyTotal, error)
}

// Source says where a view came from.
type Source string

const (
	SourceRemote Source = "remote"
	SourceLocal  Source = "local"
)

// State describes the provenance of a read.
type State struct {
	Source Source
	// FetchedAt is when the data last came from the API. Zero for local
	// data that was never fetched.
	FetchedAt time.Time
}

// Stale reports whether the view was served from the local snapshot.
func (s State) Stale() bool {
	return s.Source == SourceLocal
}

const (
	keyExpenses = "expenses"
	keyBudgets  = "budgets"

	defaultWriteTimeout = 15 * time.Second
)

type Mirror struct {
	remote Remote
	local  *Local
	logger *log.Logger

	now          func() time.Time
	writeTimeout time.Duration

	mu   sync.Mutex
	snap *Snapshot

	wg sync.WaitGroup
}

// Option configures a Mirror.
type Option func(*Mirror)

func WithLogger(l *log.Logger) Option {
	return func(m *Mirror) { m.logger = l.WithComponent(log.ComponentMirror) }
}

// WithClock overrides the time source for local timestamps and the trend window.
func WithClock(now func() time.Time) Option {
	return func(m *Mirror) { m.now = now }
}

// WithWriteTimeout bounds each background write to the API.
func WithWriteTimeout(d time.Duration) Option {
	return func(m *Mirror) { m.writeTimeout = d }
}

func New(remote Remote, local *Local, opts ...Option) *Mirror {
	m := &Mirror{
		remote:       remote,
		local:        local,
		logger:       log.Discard(),
		now:          time.Now,
		writeTimeout: defaultWriteTimeout,
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// Expenses lists expenses. Offline, the filter runs over every expense the
// mirror has seen or written.
func (m *Mirror) Expenses(ctx context.Context, in core.ExpenseFilterInput) (core.ExpensePage, State, error) {
	f, err := in.Filter()
	if err != nil {
		return core.ExpensePage{}, State{}, err
	}

	page, err := m.remote.ListExpenses(ctx, in)
	if err == nil {
		complete := isUnfiltered(f) && f.Page == 1 && page.Total == int64(len(page.Data))
		fetched := m.now()
		err := m.update(func(s *Snapshot) {
			if complete {
				s.Expenses = slices.Clone(page.Data)
			} else {
				for _, e := range page.Data {
					s.Expenses = upsertExpense(s.Expenses, e)
				}
			}
			s.Fetched[keyExpenses] = fetched
		})
		if err != nil {
			m.logger.WarnContext(ctx, "Failed to update local snapshot", log.FieldError, err)
		}
		return page, State{Source: SourceRemote, FetchedAt: fetched}, nil
	}
	if !errors.Is(err, client.ErrUnreachable) {
		return core.ExpensePage{}, State{}, err
	}

	m.logger.InfoContext(ctx, "API unreachable, serving local expenses", log.FieldError, err)
	snap, lerr := m.snapshot()
	if lerr != nil {
		return core.ExpensePage{}, State{}, errors.Join(err, lerr)
	}
	return filterExpenses(snap.Expenses, f), m.localState(snap, keyExpenses), nil
}

// Budgets lists the configured budget goals ordered by category.
func (m *Mirror) Budgets(ctx context.Context) ([]core.BudgetGoal, State, error) {
	budgets, err := m.remote.ListBudgets(ctx)
	if err == nil {
		if budgets == nil {
			budgets = []core.BudgetGoal{}
		}
		fetched := m.now()
		err := m.update(func(s *Snapshot) {
			s.Budgets = slices.Clone(budgets)
			s.Fetched[keyBudgets] = fetched
		})
		if err != nil {
			m.logger.WarnContext(ctx, "Failed to update local snapshot", log.FieldError, err)
		}
		return budgets, State{Source: SourceRemote, FetchedAt: fetched}, nil
	}
	if !errors.Is(err, client.ErrUnreachable) {
		return nil, State{}, err
	}

	m.logger.InfoContext(ctx, "API unreachable, serving local budgets", log.FieldError, err)
	snap, lerr := m.snapshot()
	if lerr != nil {
		return nil, State{}, errors.Join(err, lerr)
	}
	return slices.Clone(snap.Budgets), m.localState(snap, keyBudgets), nil
}

// Summary reports totals for month ("YYYY-MM", or all time when empty).
// Offline, it is computed from the local snapshot.
func (m *Mirror) Summary(ctx context.Context, month string) (core.Summary, State, error) {
	s, err := m.remote.Summary(ctx, month)
	if err == nil {
		return s, State{Source: SourceRemote, FetchedAt: m.now()}, nil
	}
	if !errors.Is(err, client.ErrUnreachable) {
		return core.Summary{}, State{}, err
	}

	snap, lerr := m.snapshot()
	if lerr != nil {
		return core.Summary{}, State{}, errors.Join(err, lerr)
	}
	s, err = m.engine(snap).Summary(ctx, month)
	if err != nil {
		return core.Summary{}, State{}, err
	}
	return s, m.localState(snap, keyExpenses, keyBudgets), nil
}

// Trend returns the trailing monthly totals.
func (m *Mirror) Trend(ctx context.Context) ([]core.MonthlyTotal, State, error) {
	trend, err := m.remote.MonthlyTrend(ctx)
	if err == nil {
		return trend, State{Source: SourceRemote, FetchedAt: m.now()}, nil
	}
	if !errors.Is(err, client.ErrUnreachable) {
		return nil, State{}, err
	}

	snap, lerr := m.snapshot()
	if lerr != nil {
		return nil, State{}, errors.Join(err, lerr)
	}
	trend, err = m.engine(snap).MonthlyTrend(ctx)
	if err != nil {
		return nil, State{}, err
	}
	return trend, m.localState(snap, keyExpenses), nil
}

// SaveExpense validates in, applies it locally and sends it to the API in
// the background. An empty ID gets a fresh UUID. The channel yields the
// outcome of the remote write and is then closed.
func (m *Mirror) SaveExpense(ctx context.Context, in core.ExpenseInput) (core.Expense, <-chan error, error) {
	e, err := in.Expense()
	if err != nil {
		return core.Expense{}, nil, err
	}
	if e.ID == "" {
		e.ID = uuid.NewString()
	}

	now := m.now().UTC()
	e.CreatedAt, e.UpdatedAt = now, now
	if err := m.update(func(s *Snapshot) {
		if i := indexExpense(s.Expenses, e.ID); i >= 0 {
			e.CreatedAt = s.Expenses[i].CreatedAt
		}
		s.Expenses = upsertExpense(s.Expenses, e)
	}); err != nil {
		return core.Expense{}, nil, err
	}

	req := client.ExpenseRequest{
		ID:          e.ID,
		Description: e.Description,
		Amount:      e.Amount.String(),
		Category:    e.Category.String(),
		Date:        e.Date.String(),
		IsRecurring: e.IsRecurring,
	}
	done := m.persist(ctx, "save_expense", func(ctx context.Context) error {
		saved, _, err := m.remote.UpsertExpense(ctx, req)
		if err != nil {
			return err
		}
		err = m.update(func(s *Snapshot) { s.Expenses = upsertExpense(s.Expenses, saved) })
		return err
	})
	return e, done, nil
}

// DeleteExpense removes id locally and from the API.
func (m *Mirror) DeleteExpense(ctx context.Context, id string) (<-chan error, error) {
	if err := m.update(func(s *Snapshot) {
		if i := indexExpense(s.Expenses, id); i >= 0 {
			s.Expenses = slices.Delete(s.Expenses, i, i+1)
		}
	}); err != nil {
		return nil, err
	}
	return m.persist(ctx, "delete_expense", func(ctx context.Context) error {
		return m.remote.DeleteExpense(ctx, id)
	}), nil
}

// SetBudget sets the monthly limit for category locally and on the API.
func (m *Mirror) SetBudget(ctx context.Context, category, limit string) (core.BudgetGoal, <-chan error, error) {
	b, err := core.NewBudgetGoal(category, limit)
	if err != nil {
		return core.BudgetGoal{}, nil, err
	}

	now := m.now().UTC()
	b.CreatedAt, b.UpdatedAt = now, now
	if err := m.update(func(s *Snapshot) {
		if i := indexBudget(s.Budgets, b.Category); i >= 0 {
			b.CreatedAt = s.Budgets[i].CreatedAt
		}
		s.Budgets = upsertBudget(s.Budgets, b)
	}); err != nil {
		return core.BudgetGoal{}, nil, err
	}

	done := m.persist(ctx, "set_budget", func(ctx context.Context) error {
		saved, err := m.remote.SetBudget(ctx, b.Category.String(), b.MonthlyLimit.String())
		if err != nil {
			return err
		}
		err = m.update(func(s *Snapshot) { s.Budgets = upsertBudget(s.Budgets, saved) })
		return err
	})
	return b, done, nil
}

// DeleteBudget clears the limit for category locally and on the API.
func (m *Mirror) DeleteBudget(ctx context.Context, category string) (<-chan error, error) {
	c, err := core.ParseCategory(category)
	if err != nil {
		return nil, err
	}
	if err := m.update(func(s *Snapshot) {
		if i := indexBudget(s.Budgets, c); i >= 0 {
			s.Budgets = slices.Delete(s.Budgets, i, i+1)
		}
	}); err != nil {
		return nil, err
	}
	return m.persist(ctx, "delete_budget", func(ctx context.Context) error {
		return m.remote.DeleteBudget(ctx, c.String())
	}), nil
}

// Wait blocks until every background write has finished.
func (m *Mirror) Wait() {
	m.wg.Wait()
}

// persist runs fn in the background, detached from ctx cancellation.
// Failures are logged and reported on the returned channel only.
func (m *Mirror) persist(ctx context.Context, op string, fn func(context.Context) error) <-chan error {
	done := make(chan error, 1)
	m.wg.Add(1)
	go func() {
		defer m.wg.Done()
		defer close(done)

		ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), m.writeTimeout)
		defer cancel()

		err := fn(ctx)
		if err != nil {
			m.logger.WarnContext(ctx, "Remote write failed, local change kept",
				"operation", op,
				log.FieldError, err)
		} else {
			m.logger.DebugContext(ctx, "Remote write persisted", "operation", op)
		}
		done <- err
	}()
	return done
}

func (m *Mirror) engine(snap *Snapshot) *report.Engine {
	return report.NewEngine(snapshotStore{snap: snap},
		report.WithClock(m.now),
		report.WithLogger(m.logger))
}

// localState is the State of a view built from snap. FetchedAt is the
// oldest fetch among keys.
func (m *Mirror) localState(snap *Snapshot, keys ...string) State {
	st := State{Source: SourceLocal}
	for _, k := range keys {
		t, ok := snap.Fetched[k]
		if !ok {
			return State{Source: SourceLocal}
		}
		if st.FetchedAt.IsZero() || t.Before(st.FetchedAt) {
			st.FetchedAt = t
		}
	}
	return st
}

// snapshot returns a copy of the current snapshot, loading it on first use.
func (m *Mirror) snapshot() (*Snapshot, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.loadLocked(); err != nil {
		return nil, err
	}
	return m.snap.clone(), nil
}

// update applies fn to the snapshot and saves it.
func (m *Mirror) update(fn func(*Snapshot)) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.loadLocked(); err != nil {
		return err
	}
	fn(m.snap)
	if err := m.local.Save(m.snap); err != nil {
		return fmt.Errorf("save local snapshot: %w", err)
	}
	return nil
}

func (m *Mirror) loadLocked() error {
	if m.snap != nil {
		return nil
	}
	snap, err := m.local.Load()
	if err != nil {
		return err
	}
	m.snap = snap
	return nil
}

func (s *Snapshot) clone() *Snapshot {
	c := &Snapshot{
		Expenses: slices.Clone(s.Expenses),
		Budgets:  slices.Clone(s.Budgets),
		Fetched:  make(map[string]time.Time, len(s.Fetched)),
	}
	for k, v := range s.Fetched {
		c.Fetched[k] = v
	}
	return c
}

func indexExpense(list []core.Expense, id string) int {
	return slices.IndexFunc(list, func(e core.Expense) bool { return e.ID == id })
}

func upsertExpense(list []core.Expense, e core.Expense) []core.Expense {
	if i := indexExpense(list, e.ID); i >= 0 {
		list[i] = e
		return list
	}
	return append(list, e)
}

func indexBudget(list []core.BudgetGoal, c core.Category) int {
	return slices.IndexFunc(list, func(b core.BudgetGoal) bool { return b.Category == c })
}

// upsertBudget keeps the list ordered by category.
func upsertBudget(list []core.BudgetGoal, b core.BudgetGoal) []core.BudgetGoal {
	if i := indexBudget(list, b.Category); i >= 0 {
		list[i] = b
		return list
	}
	i, _ := slices.BinarySearchFunc(list, b.Category, func(x core.BudgetGoal, c core.Category) int {
		return strings.Compare(x.Category.String(), c.String())
	})
	return slices.Insert(list, i, b)
}
