package memory

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"orcamento/internal/core"
)

func TestStoreUpsertKeepsInsertOrder(t *testing.T) {
	s := New()
	ctx := context.Background()

	require.NoError(t, s.UpsertExpense(ctx, core.Expense{ID: "a", Description: "first"}))
	require.NoError(t, s.UpsertExpense(ctx, core.Expense{ID: "b", Description: "second"}))
	require.NoError(t, s.UpsertExpense(ctx, core.Expense{ID: "a", Description: "first (edited)"}))

	got := s.Expenses()
	require.Len(t, got, 2)
	assert.Equal(t, "first (edited)", got[0].Description)
	assert.Equal(t, "b", got[1].ID)
}

func TestStoreDeleteIsIdempotent(t *testing.T) {
	s := New()
	ctx := context.Background()

	require.NoError(t, s.UpsertExpense(ctx, core.Expense{ID: "a"}))
	require.NoError(t, s.DeleteExpense(ctx, "a"))
	require.NoError(t, s.DeleteExpense(ctx, "a"))

	_, ok := s.Expense("a")
	assert.False(t, ok)
	assert.Equal(t, 2, s.Writes())
}

func TestStoreReplace(t *testing.T) {
	s := New()
	ctx := context.Background()

	require.NoError(t, s.UpsertExpense(ctx, core.Expense{ID: "stale"}))
	require.NoError(t, s.ReplaceExpenses(ctx, []core.Expense{{ID: "x"}, {ID: "y"}}))
	require.NoError(t, s.ReplaceBudgets(ctx, []core.BudgetGoal{{Category: core.CategoryLeisure}}))

	assert.Len(t, s.Expenses(), 2)
	_, ok := s.Expense("stale")
	assert.False(t, ok)
	assert.Equal(t, []core.BudgetGoal{{Category: core.CategoryLeisure}}, s.Budgets())
}

func TestStoreFailWith(t *testing.T) {
	s := New()
	boom := errors.New("quota exceeded")
	s.FailWith(boom)

	assert.ErrorIs(t, s.UpsertExpense(context.Background(), core.Expense{ID: "a"}), boom)
	assert.ErrorIs(t, s.ReplaceBudgets(context.Background(), nil), boom)

	s.FailWith(nil)
	assert.NoError(t, s.UpsertExpense(context.Background(), core.Expense{ID: "a"}))
	assert.Equal(t, 1, s.Writes())
}
