package core

import (
	"encoding/json"
	"errors"
	"strconv"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDateValidate(t *testing.T) {
	assert.NoError(t, NewDate(2025, 1, 1).Validate())
	assert.NoError(t, NewDate(2025, 12, 31).Validate())
	assert.Error(t, Date{Time: time.Time{}}.Validate())
}

func TestParseDate(t *testing.T) {
	d, err := ParseDate("2024-03-05")
	require.NoError(t, err)
	assert.Equal(t, "2024-03-05", d.String())

	for _, bad := range []string{"", "2024-3-5", "05/03/2024", "2024-02-30", "2024-13-01"} {
		_, err := ParseDate(bad)
		assert.ErrorIs(t, err, ErrInvalidDate, bad)
	}
}

func TestDateJSON(t *testing.T) {
	b, err := json.Marshal(NewDate(2024, 3, 5))
	require.NoError(t, err)
	assert.Equal(t, `"2024-03-05"`, string(b))

	var d Date
	require.NoError(t, json.Unmarshal(b, &d))
	assert.Equal(t, NewDate(2024, 3, 5), d)
	assert.Error(t, json.Unmarshal([]byte(`"nope"`), &d))
}

func TestCategories(t *testing.T) {
	cats := Categories()
	require.Len(t, cats, 8)
	assert.Equal(t, CategoryFood, cats[0])
	assert.Equal(t, CategoryOther, cats[7])

	cats[0] = "mutated"
	assert.Equal(t, CategoryFood, Categories()[0])

	for _, name := range CategoryNames() {
		assert.True(t, IsValidCategory(name), name)
	}
	assert.False(t, IsValidCategory("alimentação"))
	assert.False(t, IsValidCategory("Groceries"))

	c, err := ParseCategory("  Saúde ")
	require.NoError(t, err)
	assert.Equal(t, CategoryHealth, c)

	_, err = ParseCategory("Groceries")
	assert.ErrorIs(t, err, ErrValidation)
	assert.Contains(t, ValidationFields(err), "category")
}

func TestExpenseInput(t *testing.T) {
	valid := ExpenseInput{
		Description: " Market ",
		Amount:      "120.50",
		Category:    "Alimentação",
		Date:        "2024-03-05",
	}
	e, err := valid.Expense()
	require.NoError(t, err)
	assert.Equal(t, "Market", e.Description)
	assert.Equal(t, int64(12050), e.Amount.Cents)
	assert.Equal(t, CategoryFood, e.Category)
	assert.Equal(t, "2024-03-05", e.Date.String())

	cases := []struct {
		name  string
		edit  func(*ExpenseInput)
		field string
	}{
		{"empty description", func(in *ExpenseInput) { in.Description = "   " }, "description"},
		{"long description", func(in *ExpenseInput) { in.Description = strings.Repeat("á", MaxDescriptionLength+1) }, "description"},
		{"zero amount", func(in *ExpenseInput) { in.Amount = "0" }, "amount"},
		{"negative amount", func(in *ExpenseInput) { in.Amount = "-5" }, "amount"},
		{"rounds to zero", func(in *ExpenseInput) { in.Amount = "0.004" }, "amount"},
		{"missing amount", func(in *ExpenseInput) { in.Amount = "" }, "amount"},
		{"bad category", func(in *ExpenseInput) { in.Category = "Food" }, "category"},
		{"bad date", func(in *ExpenseInput) { in.Date = "2024-02-30" }, "date"},
		{"missing date", func(in *ExpenseInput) { in.Date = "" }, "date"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			in := valid
			tc.edit(&in)
			_, err := in.Expense()
			require.Error(t, err)
			assert.True(t, errors.Is(err, ErrValidation))
			assert.Contains(t, ValidationFields(err), tc.field)
		})
	}

	exact := valid
	exact.Description = strings.Repeat("á", MaxDescriptionLength)
	_, err = exact.Expense()
	assert.NoError(t, err)
}

func TestExpenseValidate(t *testing.T) {
	good := Expense{
		ID:          "abc",
		Date:        NewDate(2025, 1, 1),
		Description: "ok",
		Amount:      Money{Cents: 100},
		Category:    CategoryLeisure,
	}
	assert.NoError(t, good.Validate())

	bad := good
	bad.Amount = Money{Cents: 0}
	assert.ErrorIs(t, bad.Validate(), ErrValidation)

	bad = good
	bad.Category = "x"
	assert.ErrorIs(t, bad.Validate(), ErrValidation)
}

func TestExpensePatch(t *testing.T) {
	_, err := ExpensePatchInput{}.Patch()
	require.Error(t, err)
	assert.Contains(t, ValidationFields(err), "fields")

	neg := "-3"
	_, err = ExpensePatchInput{Amount: &neg}.Patch()
	assert.Contains(t, ValidationFields(err), "amount")

	amt := "9.99"
	rec := true
	p, err := ExpensePatchInput{Amount: &amt, IsRecurring: &rec}.Patch()
	require.NoError(t, err)

	before := Expense{ID: "1", Description: "Bus", Amount: Money{Cents: 450}, Category: CategoryTransport, Date: NewDate(2024, 1, 2)}
	after := p.Apply(before)
	assert.Equal(t, int64(999), after.Amount.Cents)
	assert.True(t, after.IsRecurring)
	assert.Equal(t, "Bus", after.Description)
	assert.Equal(t, CategoryTransport, after.Category)
}

func TestNewBudgetGoal(t *testing.T) {
	b, err := NewBudgetGoal("Alimentação", "1500.00")
	require.NoError(t, err)
	assert.Equal(t, int64(150000), b.MonthlyLimit.Cents)

	b, err = NewBudgetGoal("Lazer", "0")
	require.NoError(t, err)
	assert.Equal(t, int64(0), b.MonthlyLimit.Cents)

	_, err = NewBudgetGoal("Lazer", "-1")
	assert.Contains(t, ValidationFields(err), "limit")

	_, err = NewBudgetGoal("Nope", "10")
	assert.Contains(t, ValidationFields(err), "category")
}

func TestExpenseFilterInput(t *testing.T) {
	f, err := ExpenseFilterInput{}.Filter()
	require.NoError(t, err)
	assert.Equal(t, 1, f.Page)
	assert.Equal(t, DefaultPageLimit, f.Limit)
	assert.Nil(t, f.Category)
	assert.Equal(t, 0, f.Offset())

	f, err = ExpenseFilterInput{Category: "Transporte", Page: "3", Limit: "10", StartDate: "2024-01-01", EndDate: "2024-01-31"}.Filter()
	require.NoError(t, err)
	assert.Equal(t, CategoryTransport, *f.Category)
	assert.Equal(t, 20, f.Offset())

	_, err = ExpenseFilterInput{StartDate: "2024-02-01", EndDate: "2024-01-01"}.Filter()
	assert.Contains(t, ValidationFields(err), "startDate")

	_, err = ExpenseFilterInput{Limit: "101"}.Filter()
	assert.Contains(t, ValidationFields(err), "limit")

	_, err = ExpenseFilterInput{Page: "0"}.Filter()
	assert.Contains(t, ValidationFields(err), "page")

	_, err = ExpenseFilterInput{Page: "92233720368547760", Limit: "100"}.Filter()
	assert.Contains(t, ValidationFields(err), "page")

	f, err = ExpenseFilterInput{Page: strconv.Itoa(MaxPage), Limit: "100"}.Filter()
	require.NoError(t, err)
	assert.Positive(t, f.Offset())

	direct := ExpenseFilter{Page: MaxPage + 1}
	assert.Contains(t, ValidationFields(direct.Validate()), "page")

	_, err = ExpenseFilterInput{Category: "Other"}.Filter()
	assert.Contains(t, ValidationFields(err), "category")
}

func TestParseMonth(t *testing.T) {
	m, ok := ParseMonth("2024-03")
	require.True(t, ok)
	assert.Equal(t, "2024-03", m.String())
	assert.Equal(t, NewDate(2024, 3, 1), m.First())
	assert.Equal(t, "2023-04", m.AddMonths(-11).String())
	assert.Equal(t, "2025-01", Month{Year: 2024, Month: time.December}.AddMonths(1).String())

	for _, bad := range []string{"", "2024-13", "2024-00", "2024-3", "24-03", "2024-03-01"} {
		_, ok := ParseMonth(bad)
		assert.False(t, ok, bad)
	}
}

func TestPercentJSON(t *testing.T) {
	b, err := json.Marshal(Percent(8))
	require.NoError(t, err)
	assert.Equal(t, "8.0", string(b))

	b, err = json.Marshal(CategorySummary{Category: CategoryFood})
	require.NoError(t, err)
	assert.Contains(t, string(b), `"budget_pct":null`)
}

func TestErrorTaxonomy(t *testing.T) {
	nf := &NotFoundError{Entity: "expense", Key: "x"}
	assert.ErrorIs(t, nf, ErrNotFound)
	assert.NotErrorIs(t, nf, ErrValidation)

	cause := errors.New("dial tcp: connection refused")
	su := &StoreUnavailableError{Err: cause}
	assert.ErrorIs(t, su, ErrStoreUnavailable)
	assert.ErrorIs(t, su, cause)

	ve := &ValidationError{}
	assert.NoError(t, ve.OrNil())
	ve.Add("b", "second")
	ve.Add("a", "first")
	ve.Add("a", "ignored")
	assert.Equal(t, "validation failed: a: first; b: second", ve.Error())
}
