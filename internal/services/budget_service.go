package services

import (
	"context"
	"fmt"

	"orcamento/internal/core"
	"orcamento/internal/log"
)

// BudgetService manages per-category monthly limits
type BudgetService struct {
	store     BudgetStore
	publisher EventPublisher
	logger    *log.Logger
}

func NewBudgetService(store BudgetStore, publisher EventPublisher, logger *log.Logger) *BudgetService {
	if logger == nil {
		logger = log.Discard()
	}
	return &BudgetService{
		store:     store,
		publisher: publisher,
		logger:    logger.WithComponent(log.ComponentBudget),
	}
}

// List returns all budgets ordered by category.
func (s *BudgetService) List(ctx context.Context) ([]core.BudgetGoal, error) {
	budgets, err := s.store.ListBudgets(ctx)
	if err != nil {
		return nil, fmt.Errorf("list budgets: %w", err)
	}
	return budgets, nil
}

// Set creates or replaces the limit for category.
func (s *BudgetService) Set(ctx context.Context, category, limit string) (core.BudgetGoal, error) {
	b, err := core.NewBudgetGoal(category, limit)
	if err != nil {
		return core.BudgetGoal{}, err
	}

	saved, err := s.store.UpsertBudget(ctx, b)
	if err != nil {
		return core.BudgetGoal{}, fmt.Errorf("set budget: %w", err)
	}

	s.logger.InfoContext(ctx, "Budget set",
		log.FieldCategory, saved.Category,
		log.FieldAmount, saved.MonthlyLimit.Cents)
	publish(ctx, s.publisher, s.logger, core.NewChangeEvent(core.EntityBudget, core.ActionUpserted, string(saved.Category)))
	return saved, nil
}

// Delete removes the budget for category. It is idempotent for valid
// categories and a ValidationError for unknown ones.
func (s *BudgetService) Delete(ctx context.Context, category string) error {
	c, err := core.ParseCategory(category)
	if err != nil {
		return err
	}
	if err := s.store.DeleteBudget(ctx, c); err != nil {
		return fmt.Errorf("delete budget: %w", err)
	}

	s.logger.InfoContext(ctx, "Budget deleted", log.FieldCategory, c)
	publish(ctx, s.publisher, s.logger, core.NewChangeEvent(core.EntityBudget, core.ActionDeleted, string(c)))
	return nil
}

// Categories enumerates the full registry with each category's current
// limit, nil where no budget is set.
func (s *BudgetService) Categories(ctx context.Context) ([]core.CategoryBudget, error) {
	budgets, err := s.List(ctx)
	if err != nil {
		return nil, err
	}
	limits := make(map[core.Category]core.Money, len(budgets))
	for _, b := range budgets {
		limits[b.Category] = b.MonthlyLimit
	}

	out := make([]core.CategoryBudget, 0, len(core.Categories()))
	for _, c := range core.Categories() {
		cb := core.CategoryBudget{Name: c}
		if limit, ok := limits[c]; ok {
			l := limit
			cb.MonthlyLimit = &l
		}
		out = append(out, cb)
	}
	return out, nil
}
