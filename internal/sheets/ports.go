package sheets

import (
	"context"

	"orcamento/internal/core"
)

// Ports for outbound spreadsheet adapters.
type (
	// ExpenseExporter mirrors single expense rows, keyed by expense id.
	ExpenseExporter interface {
		UpsertExpense(ctx context.Context, e core.Expense) error
		// DeleteExpense removes the row for id. A missing row is not an error.
		DeleteExpense(ctx context.Context, id string) error
	}

	// BudgetExporter rewrites the budget table as a whole.
	BudgetExporter interface {
		ReplaceBudgets(ctx context.Context, budgets []core.BudgetGoal) error
	}

	// Exporter is a full spreadsheet target, including bulk resync.
	Exporter interface {
		ExpenseExporter
		BudgetExporter
		ReplaceExpenses(ctx context.Context, expenses []core.Expense) error
	}
)

// Column headers of the exported tables.
var (
	ExpenseHeader = []string{"ID", "Date", "Description", "Amount", "Category", "Recurring", "Updated At"}
	BudgetHeader  = []string{"Category", "Monthly Limit", "Updated At"}
)
