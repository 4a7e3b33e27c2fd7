package core

import (
	"math"
	"strconv"
	"strings"
)

const (
	DefaultPageLimit = 20
	MaxPageLimit     = 100
	// MaxPage keeps (page-1)*limit well inside int range.
	MaxPage          = math.MaxInt32
)

// ExpenseFilter selects expenses for listing. All set filters are ANDed.
type ExpenseFilter struct {
	Category  *Category
	StartDate *Date
	EndDate   *Date
	Search    string
	Page      int
	Limit     int
}

// ExpenseFilterInput holds raw query parameters; empty strings mean unset.
type ExpenseFilterInput struct {
	Category  string
	StartDate string
	EndDate   string
	Search    string
	Page      string
	Limit     string
}

// ExpensePage is one page of a listing plus the total match count.
type ExpensePage struct {
	Data  []Expense `json:"data"`
	Total int64     `json:"total"`
	Page  int       `json:"page"`
	Limit int       `json:"limit"`
}

// Filter parses the raw parameters, applying pagination defaults.
func (in ExpenseFilterInput) Filter() (ExpenseFilter, error) {
	ve := &ValidationError{}
	f := ExpenseFilter{
		Search: strings.TrimSpace(in.Search),
		Page:   1,
		Limit:  DefaultPageLimit,
	}
	if strings.TrimSpace(in.Category) != "" {
		if c, err := ParseCategory(in.Category); err != nil {
			mergeInto(ve, err)
		} else {
			f.Category = &c
		}
	}
	if s := strings.TrimSpace(in.StartDate); s != "" {
		if d, err := ParseDate(s); err != nil {
			ve.Add("startDate", "must be a date in YYYY-MM-DD format")
		} else {
			f.StartDate = &d
		}
	}
	if s := strings.TrimSpace(in.EndDate); s != "" {
		if d, err := ParseDate(s); err != nil {
			ve.Add("endDate", "must be a date in YYYY-MM-DD format")
		} else {
			f.EndDate = &d
		}
	}
	if s := strings.TrimSpace(in.Page); s != "" {
		n, err := strconv.Atoi(s)
		if err != nil || n < 1 || n > MaxPage {
			ve.Add("page", "must be an integer between 1 and "+strconv.Itoa(MaxPage))
		} else {
			f.Page = n
		}
	}
	if s := strings.TrimSpace(in.Limit); s != "" {
		n, err := strconv.Atoi(s)
		if err != nil || n < 1 || n > MaxPageLimit {
			ve.Add("limit", "must be an integer between 1 and "+strconv.Itoa(MaxPageLimit))
		} else {
			f.Limit = n
		}
	}
	if err := ve.OrNil(); err != nil {
		return ExpenseFilter{}, err
	}
	if err := f.Validate(); err != nil {
		return ExpenseFilter{}, err
	}
	return f, nil
}

// Validate checks cross-field constraints and fills pagination defaults.
func (f *ExpenseFilter) Validate() error {
	if f.Page < 1 {
		f.Page = 1
	}
	if f.Limit < 1 {
		f.Limit = DefaultPageLimit
	}
	if f.Limit > MaxPageLimit {
		f.Limit = MaxPageLimit
	}
	if f.Page > MaxPage {
		return NewValidationError("page", "must be an integer between 1 and "+strconv.Itoa(MaxPage))
	}
	if f.StartDate != nil && f.EndDate != nil && f.EndDate.Before(*f.StartDate) {
		return NewValidationError("startDate", "must not be after endDate")
	}
	return nil
}

// Offset is the number of rows to skip for the current page.
func (f ExpenseFilter) Offset() int {
	return (f.Page - 1) * f.Limit
}
