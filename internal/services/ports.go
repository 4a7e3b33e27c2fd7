package services

import (
	"context"

	"orcamento/internal/core"
)

// ExpenseStore is the persistence the expense service needs.
type ExpenseStore interface {
	UpsertExpense(ctx context.Context, e core.Expense) (core.Expense, bool, error)
	GetExpense(ctx context.Context, id string) (core.Expense, error)
	UpdateExpense(ctx context.Context, id string, p core.ExpensePatch) (core.Expense, error)
	DeleteExpense(ctx context.Context, id string) error
	ListExpenses(ctx context.Context, f core.ExpenseFilter) (core.ExpensePage, error)
}

// BudgetStore is the persistence the budget service needs.
type BudgetStore interface {
	ListBudgets(ctx context.Context) ([]core.BudgetGoal, error)
	UpsertBudget(ctx context.Context, b core.BudgetGoal) (core.BudgetGoal, error)
	DeleteBudget(ctx context.Context, category core.Category) error
}

// EventPublisher announces committed writes. *amqp.Client satisfies it.
type EventPublisher interface {
	Publish(ctx context.Context, ev core.ChangeEvent) error
}
