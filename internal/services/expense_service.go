package services

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	"orcamento/internal/core"
	"orcamento/internal/log"
)

// ExpenseService validates expense writes, persists them and announces them
type ExpenseService struct {
	store     ExpenseStore
	publisher EventPublisher
	logger    *log.Logger
	newID     func() string
}

// NewExpenseService wires the service. publisher may be nil, in which case
// change events are skipped.
func NewExpenseService(store ExpenseStore, publisher EventPublisher, logger *log.Logger) *ExpenseService {
	if logger == nil {
		logger = log.Discard()
	}
	return &ExpenseService{
		store:     store,
		publisher: publisher,
		logger:    logger.WithComponent(log.ComponentExpense),
		newID:     uuid.NewString,
	}
}

// List returns a filtered page of expenses.
func (s *ExpenseService) List(ctx context.Context, in core.ExpenseFilterInput) (core.ExpensePage, error) {
	f, err := in.Filter()
	if err != nil {
		return core.ExpensePage{}, err
	}
	page, err := s.store.ListExpenses(ctx, f)
	if err != nil {
		return core.ExpensePage{}, fmt.Errorf("list expenses: %w", err)
	}
	return page, nil
}

// Get returns one expense.
func (s *ExpenseService) Get(ctx context.Context, id string) (core.Expense, error) {
	return s.store.GetExpense(ctx, id)
}

// Save creates the expense, or replaces every mutable field when the id
// already exists. A missing id is generated. created reports an insert.
func (s *ExpenseService) Save(ctx context.Context, in core.ExpenseInput) (e core.Expense, created bool, err error) {
	e, err = in.Expense()
	if err != nil {
		return core.Expense{}, false, err
	}
	if e.ID == "" {
		e.ID = s.newID()
	}

	saved, created, err := s.store.UpsertExpense(ctx, e)
	if err != nil {
		return core.Expense{}, false, fmt.Errorf("save expense: %w", err)
	}

	log.NewStructuredLogger(s.logger).LogExpenseSaved(ctx, saved.ID, saved.Amount.Cents, saved.Category.String(), created)

	s.publish(ctx, core.NewChangeEvent(core.EntityExpense, core.ActionUpserted, saved.ID))
	return saved, created, nil
}

// Update applies a partial change. The patch is validated in full before the
// store is touched, so a rejected patch leaves the row unchanged.
func (s *ExpenseService) Update(ctx context.Context, id string, in core.ExpensePatchInput) (core.Expense, error) {
	p, err := in.Patch()
	if err != nil {
		return core.Expense{}, err
	}

	updated, err := s.store.UpdateExpense(ctx, id, p)
	if err != nil {
		return core.Expense{}, fmt.Errorf("update expense: %w", err)
	}

	s.logger.InfoContext(ctx, "Expense updated", log.FieldExpenseID, id)
	s.publish(ctx, core.NewChangeEvent(core.EntityExpense, core.ActionUpdated, id))
	return updated, nil
}

// Delete removes an expense. Unknown ids are a NotFoundError.
func (s *ExpenseService) Delete(ctx context.Context, id string) error {
	if err := s.store.DeleteExpense(ctx, id); err != nil {
		return fmt.Errorf("delete expense: %w", err)
	}

	s.logger.InfoContext(ctx, "Expense deleted", log.FieldExpenseID, id)
	s.publish(ctx, core.NewChangeEvent(core.EntityExpense, core.ActionDeleted, id))
	return nil
}

func (s *ExpenseService) publish(ctx context.Context, ev core.ChangeEvent) {
	publish(ctx, s.publisher, s.logger, ev)
}

// publish never fails the caller: the write has already committed.
func publish(ctx context.Context, p EventPublisher, logger *log.Logger, ev core.ChangeEvent) {
	if p == nil {
		logger.DebugContext(ctx, "No event publisher configured, skipping change event",
			log.FieldEntity, ev.Entity, log.FieldAction, ev.Action)
		return
	}
	if err := p.Publish(ctx, ev); err != nil {
		logger.ErrorContext(ctx, "Failed to publish change event",
			log.FieldEntity, ev.Entity,
			log.FieldAction, ev.Action,
			log.FieldKey, ev.Key,
			log.FieldError, err)
	}
}
