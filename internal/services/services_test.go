package services

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"path/filepath"
	"sync"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"orcamento/internal/core"
	"orcamento/internal/log"
	"orcamento/internal/storage"
)

type recordingPublisher struct {
	mu     sync.Mutex
	events []core.ChangeEvent
	err    error
}

func (p *recordingPublisher) Publish(_ context.Context, ev core.ChangeEvent) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, ev)
	return p.err
}

func (p *recordingPublisher) last() core.ChangeEvent {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.events[len(p.events)-1]
}

func newRepo(t *testing.T) *storage.Repository {
	t.Helper()
	repo, err := storage.NewSQLiteRepository(filepath.Join(t.TempDir(), "services.db"))
	require.NoError(t, err)
	t.Cleanup(func() { repo.Close() })
	return repo
}

func TestExpenseServiceSave(t *testing.T) {
	pub := &recordingPublisher{}
	svc := NewExpenseService(newRepo(t), pub, nil)
	ctx := context.Background()

	e, created, err := svc.Save(ctx, core.ExpenseInput{
		Description: "Market",
		Amount:      "120.50",
		Category:    "Alimentação",
		Date:        "2024-03-05",
	})
	require.NoError(t, err)
	assert.True(t, created)
	_, err = uuid.Parse(e.ID)
	assert.NoError(t, err, "generated id is a uuid")
	assert.Equal(t, core.ChangeEvent{Entity: core.EntityExpense, Action: core.ActionUpserted, Key: e.ID, Timestamp: pub.last().Timestamp}, pub.last())

	again, created, err := svc.Save(ctx, core.ExpenseInput{
		ID:          e.ID,
		Description: "Market (fixed)",
		Amount:      "121",
		Category:    "Alimentação",
		Date:        "2024-03-05",
	})
	require.NoError(t, err)
	assert.False(t, created)
	assert.Equal(t, int64(12100), again.Amount.Cents)
	assert.Equal(t, e.CreatedAt, again.CreatedAt)
}

func TestExpenseServiceSaveLogsWrite(t *testing.T) {
	var buf bytes.Buffer
	logger := log.New(log.Config{Format: "json", Output: &buf, Level: slog.LevelInfo})
	svc := NewExpenseService(newRepo(t), nil, logger)

	e, _, err := svc.Save(context.Background(), core.ExpenseInput{
		Description: "Market",
		Amount:      "120.50",
		Category:    "Alimentação",
		Date:        "2024-03-05",
	})
	require.NoError(t, err)

	var rec map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &rec))
	assert.Equal(t, "Expense saved", rec["msg"])
	assert.Equal(t, log.ComponentExpense, rec[log.FieldComponent])
	assert.Equal(t, e.ID, rec[log.FieldExpenseID])
	assert.Equal(t, float64(12050), rec[log.FieldAmount])
	assert.Equal(t, "Alimentação", rec[log.FieldCategory])
	assert.Equal(t, log.OpCreate, rec[log.FieldOperation])
	assert.Equal(t, true, rec[log.FieldCreated])
}

func TestExpenseServiceSaveValidation(t *testing.T) {
	pub := &recordingPublisher{}
	repo := newRepo(t)
	svc := NewExpenseService(repo, pub, nil)

	_, _, err := svc.Save(context.Background(), core.ExpenseInput{Description: "x", Amount: "0", Category: "Lazer", Date: "2024-01-01"})
	assert.ErrorIs(t, err, core.ErrValidation)
	assert.Empty(t, pub.events)

	page, err := repo.ListExpenses(context.Background(), core.ExpenseFilter{})
	require.NoError(t, err)
	assert.Equal(t, int64(0), page.Total)
}

func TestExpenseServicePublishFailureDoesNotFailWrite(t *testing.T) {
	pub := &recordingPublisher{err: errors.New("broker down")}
	svc := NewExpenseService(newRepo(t), pub, nil)

	e, _, err := svc.Save(context.Background(), core.ExpenseInput{Description: "Bus", Amount: "4.50", Category: "Transporte", Date: "2024-01-01"})
	require.NoError(t, err)

	got, err := svc.Get(context.Background(), e.ID)
	require.NoError(t, err)
	assert.Equal(t, "Bus", got.Description)
	assert.Len(t, pub.events, 1)
}

func TestExpenseServiceNilPublisher(t *testing.T) {
	svc := NewExpenseService(newRepo(t), nil, nil)
	_, _, err := svc.Save(context.Background(), core.ExpenseInput{ID: "fixed", Description: "Bus", Amount: "4.50", Category: "Transporte", Date: "2024-01-01"})
	require.NoError(t, err)
	require.NoError(t, svc.Delete(context.Background(), "fixed"))
}

func TestExpenseServiceRejectedPatchLeavesRowUnchanged(t *testing.T) {
	pub := &recordingPublisher{}
	svc := NewExpenseService(newRepo(t), pub, nil)
	ctx := context.Background()

	e, _, err := svc.Save(ctx, core.ExpenseInput{Description: "Rent", Amount: "1500", Category: "Moradia", Date: "2024-03-01"})
	require.NoError(t, err)

	neg := "-10"
	desc := "Rent (new)"
	_, err = svc.Update(ctx, e.ID, core.ExpensePatchInput{Amount: &neg, Description: &desc})
	assert.ErrorIs(t, err, core.ErrValidation)

	got, err := svc.Get(ctx, e.ID)
	require.NoError(t, err)
	assert.Equal(t, e.Amount, got.Amount)
	assert.Equal(t, "Rent", got.Description)
	assert.Len(t, pub.events, 1, "no event for rejected patch")

	amount := "1600"
	updated, err := svc.Update(ctx, e.ID, core.ExpensePatchInput{Amount: &amount})
	require.NoError(t, err)
	assert.Equal(t, int64(160000), updated.Amount.Cents)
	assert.Equal(t, core.ActionUpdated, pub.last().Action)
}

func TestExpenseServiceDeleteMissing(t *testing.T) {
	pub := &recordingPublisher{}
	svc := NewExpenseService(newRepo(t), pub, nil)

	err := svc.Delete(context.Background(), "missing")
	assert.ErrorIs(t, err, core.ErrNotFound)
	assert.Empty(t, pub.events)
}

func TestExpenseServiceList(t *testing.T) {
	svc := NewExpenseService(newRepo(t), nil, nil)

	page, err := svc.List(context.Background(), core.ExpenseFilterInput{Category: "Transporte"})
	require.NoError(t, err)
	assert.Equal(t, int64(0), page.Total)
	assert.Empty(t, page.Data)

	_, err = svc.List(context.Background(), core.ExpenseFilterInput{StartDate: "yesterday"})
	assert.ErrorIs(t, err, core.ErrValidation)
}

func TestBudgetService(t *testing.T) {
	pub := &recordingPublisher{}
	svc := NewBudgetService(newRepo(t), pub, nil)
	ctx := context.Background()

	b, err := svc.Set(ctx, "Alimentação", "1500.00")
	require.NoError(t, err)
	assert.Equal(t, int64(150000), b.MonthlyLimit.Cents)
	assert.Equal(t, core.EntityBudget, pub.last().Entity)
	assert.Equal(t, "Alimentação", pub.last().Key)

	_, err = svc.Set(ctx, "Alimentação", "-1")
	assert.ErrorIs(t, err, core.ErrValidation)

	cats, err := svc.Categories(ctx)
	require.NoError(t, err)
	require.Len(t, cats, 8)
	require.NotNil(t, cats[0].MonthlyLimit)
	assert.Equal(t, int64(150000), cats[0].MonthlyLimit.Cents)
	assert.Nil(t, cats[1].MonthlyLimit)

	require.NoError(t, svc.Delete(ctx, "Alimentação"))
	require.NoError(t, svc.Delete(ctx, "Alimentação"))
	assert.ErrorIs(t, svc.Delete(ctx, "Groceries"), core.ErrValidation)

	budgets, err := svc.List(ctx)
	require.NoError(t, err)
	assert.Empty(t, budgets)
}
