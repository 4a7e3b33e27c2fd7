package core

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"
	"unicode/utf8"
)

// MaxDescriptionLength bounds Expense.Description, counted in characters.
const MaxDescriptionLength = 200

const dateLayout = "2006-01-02"

type (
	// Date is a calendar date without a time component, always at UTC midnight.
	Date struct {
		time.Time
	}

	// Expense is a single spending event.
	Expense struct {
		ID          string    `json:"id"`
		Description string    `json:"description"`
		Amount      Money     `json:"amount"`
		Category    Category  `json:"category"`
		Date        Date      `json:"date"`
		IsRecurring bool      `json:"isRecurring"`
		CreatedAt   time.Time `json:"created_at"`
		UpdatedAt   time.Time `json:"updated_at"`
	}

	// ExpenseInput is the raw, unvalidated shape of a full expense write.
	ExpenseInput struct {
		ID          string
		Description string
		Amount      string
		Category    string
		Date        string
		IsRecurring bool
	}

	// ExpensePatch carries the fields of a partial update; nil means unchanged.
	ExpensePatch struct {
		Description *string
		Amount      *Money
		Category    *Category
		Date        *Date
		IsRecurring *bool
	}

	// ExpensePatchInput is the raw shape of a partial update.
	ExpensePatchInput struct {
		Description *string
		Amount      *string
		Category    *string
		Date        *string
		IsRecurring *bool
	}

	// BudgetGoal is the monthly limit for one category.
	BudgetGoal struct {
		Category     Category  `json:"category"`
		MonthlyLimit Money     `json:"monthly_limit"`
		CreatedAt    time.Time `json:"created_at"`
		UpdatedAt    time.Time `json:"updated_at"`
	}
)

var ErrInvalidDate = errors.New("invalid date")

// NewDate creates a Date from year, month, day.
func NewDate(year, month, day int) Date {
	return Date{Time: time.Date(year, time.Month(month), day, 0, 0, 0, 0, time.UTC)}
}

// DateOf truncates t to its calendar date in t's location.
func DateOf(t time.Time) Date {
	y, m, d := t.Date()
	return NewDate(y, int(m), d)
}

// ParseDate parses a YYYY-MM-DD string. Out-of-range days such as 2024-02-30
// are rejected rather than normalised.
func ParseDate(s string) (Date, error) {
	t, err := time.Parse(dateLayout, strings.TrimSpace(s))
	if err != nil {
		return Date{}, fmt.Errorf("%w: %q", ErrInvalidDate, s)
	}
	return Date{Time: t}, nil
}

func (d Date) Validate() error {
	if d.IsZero() {
		return errors.New("date cannot be zero")
	}
	return nil
}

// String formats the date as YYYY-MM-DD.
func (d Date) String() string {
	return d.Format(dateLayout)
}

// Before reports whether d is strictly before o.
func (d Date) Before(o Date) bool {
	return d.Time.Before(o.Time)
}

func (d Date) MarshalJSON() ([]byte, error) {
	return json.Marshal(d.String())
}

func (d *Date) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return fmt.Errorf("%w: %s", ErrInvalidDate, data)
	}
	parsed, err := ParseDate(s)
	if err != nil {
		return err
	}
	*d = parsed
	return nil
}

// Validate checks the Expense invariants.
func (e Expense) Validate() error {
	ve := &ValidationError{}
	if strings.TrimSpace(e.ID) == "" {
		ve.Add("id", "is required")
	}
	validateDescription(ve, e.Description)
	if e.Amount.Cents <= 0 {
		ve.Add("amount", "must be greater than zero")
	}
	if !IsValidCategory(string(e.Category)) {
		ve.Add("category", "must be one of: "+strings.Join(CategoryNames(), ", "))
	}
	if err := e.Date.Validate(); err != nil {
		ve.Add("date", "must be a date in YYYY-MM-DD format")
	}
	return ve.OrNil()
}

// Expense parses and validates the input. The ID may be empty; callers that
// generate identifiers fill it in afterwards.
func (in ExpenseInput) Expense() (Expense, error) {
	ve := &ValidationError{}
	e := Expense{
		ID:          strings.TrimSpace(in.ID),
		Description: strings.TrimSpace(in.Description),
		IsRecurring: in.IsRecurring,
	}
	validateDescription(ve, e.Description)
	if amt, ok := parsePositiveAmount(ve, "amount", in.Amount); ok {
		e.Amount = amt
	}
	if c, err := ParseCategory(in.Category); err != nil {
		mergeInto(ve, err)
	} else {
		e.Category = c
	}
	if strings.TrimSpace(in.Date) == "" {
		ve.Add("date", "is required")
	} else if d, err := ParseDate(in.Date); err != nil {
		ve.Add("date", "must be a date in YYYY-MM-DD format")
	} else {
		e.Date = d
	}
	if len(e.ID) > 64 {
		ve.Add("id", "must be at most 64 characters")
	}
	if err := ve.OrNil(); err != nil {
		return Expense{}, err
	}
	return e, nil
}

// Patch parses and validates a partial update. At least one field is required.
func (in ExpensePatchInput) Patch() (ExpensePatch, error) {
	ve := &ValidationError{}
	var p ExpensePatch
	if in.Description != nil {
		desc := strings.TrimSpace(*in.Description)
		validateDescription(ve, desc)
		p.Description = &desc
	}
	if in.Amount != nil {
		if amt, ok := parsePositiveAmount(ve, "amount", *in.Amount); ok {
			p.Amount = &amt
		}
	}
	if in.Category != nil {
		if c, err := ParseCategory(*in.Category); err != nil {
			mergeInto(ve, err)
		} else {
			p.Category = &c
		}
	}
	if in.Date != nil {
		if d, err := ParseDate(*in.Date); err != nil {
			ve.Add("date", "must be a date in YYYY-MM-DD format")
		} else {
			p.Date = &d
		}
	}
	if in.IsRecurring != nil {
		v := *in.IsRecurring
		p.IsRecurring = &v
	}
	if err := ve.OrNil(); err != nil {
		return ExpensePatch{}, err
	}
	if p.IsEmpty() {
		return ExpensePatch{}, NewValidationError("fields", "at least one field must be supplied")
	}
	return p, nil
}

// IsEmpty reports whether the patch changes nothing.
func (p ExpensePatch) IsEmpty() bool {
	return p.Description == nil && p.Amount == nil && p.Category == nil && p.Date == nil && p.IsRecurring == nil
}

// Apply returns e with the patch fields applied.
func (p ExpensePatch) Apply(e Expense) Expense {
	if p.Description != nil {
		e.Description = *p.Description
	}
	if p.Amount != nil {
		e.Amount = *p.Amount
	}
	if p.Category != nil {
		e.Category = *p.Category
	}
	if p.Date != nil {
		e.Date = *p.Date
	}
	if p.IsRecurring != nil {
		e.IsRecurring = *p.IsRecurring
	}
	return e
}

// NewBudgetGoal validates a category/limit pair. A zero limit is allowed and
// is distinct from having no budget at all.
func NewBudgetGoal(category, limit string) (BudgetGoal, error) {
	ve := &ValidationError{}
	var b BudgetGoal
	if c, err := ParseCategory(category); err != nil {
		mergeInto(ve, err)
	} else {
		b.Category = c
	}
	if strings.TrimSpace(limit) == "" {
		ve.Add("limit", "is required")
	} else if cents, err := ParseDecimalToCents(limit); err != nil {
		ve.Add("limit", "must be a decimal number")
	} else if cents < 0 {
		ve.Add("limit", "must be zero or greater")
	} else {
		b.MonthlyLimit = Money{Cents: cents}
	}
	if err := ve.OrNil(); err != nil {
		return BudgetGoal{}, err
	}
	return b, nil
}

func validateDescription(ve *ValidationError, desc string) {
	switch {
	case strings.TrimSpace(desc) == "":
		ve.Add("description", "is required")
	case utf8.RuneCountInString(desc) > MaxDescriptionLength:
		ve.Add("description", fmt.Sprintf("must be at most %d characters", MaxDescriptionLength))
	}
}

func parsePositiveAmount(ve *ValidationError, field, raw string) (Money, bool) {
	if strings.TrimSpace(raw) == "" {
		ve.Add(field, "is required")
		return Money{}, false
	}
	cents, err := ParseDecimalToCents(raw)
	if err != nil {
		ve.Add(field, "must be a decimal number")
		return Money{}, false
	}
	if cents <= 0 {
		ve.Add(field, "must be greater than zero")
		return Money{}, false
	}
	return Money{Cents: cents}, true
}

func mergeInto(ve *ValidationError, err error) {
	for k, v := range ValidationFields(err) {
		ve.Add(k, v)
	}
}
