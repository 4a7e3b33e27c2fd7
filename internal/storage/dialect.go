package storage

import (
	"database/sql"
	"database/sql/driver"
	"fmt"
	"strconv"
	"strings"
	"time"

	"modernc.org/sqlite"

	"orcamento/internal/core"
)

// Dialect selects the SQL flavour of the underlying database.
type Dialect string

const (
	DialectSQLite   Dialect = "sqlite"
	DialectPostgres Dialect = "postgres"
)

// sqliteLowerFunc folds case over all of Unicode. SQLite's built-in LOWER
// only folds ASCII.
const sqliteLowerFunc = "orcamento_lower"

func init() {
	sqlite.MustRegisterDeterministicScalarFunction(sqliteLowerFunc, 1, unicodeLower)
}

func unicodeLower(_ *sqlite.FunctionContext, args []driver.Value) (driver.Value, error) {
	switch v := args[0].(type) {
	case nil:
		return nil, nil
	case string:
		return strings.ToLower(v), nil
	case []byte:
		return strings.ToLower(string(v)), nil
	default:
		return nil, fmt.Errorf("%s: unsupported type %T", sqliteLowerFunc, v)
	}
}

// sqliteTimeLayout is fixed width so lexical order equals time order.
const sqliteTimeLayout = "2006-01-02T15:04:05.000000Z"

func (d Dialect) driverName() string {
	if d == DialectPostgres {
		return "pgx"
	}
	return "sqlite"
}

// rebind rewrites ? placeholders to $1..$n for postgres.
func (d Dialect) rebind(query string) string {
	if d != DialectPostgres {
		return query
	}
	var b strings.Builder
	b.Grow(len(query) + 16)
	n := 0
	inQuote := false
	for _, r := range query {
		switch {
		case r == '\'':
			inQuote = !inQuote
			b.WriteRune(r)
		case r == '?' && !inQuote:
			n++
			b.WriteByte('$')
			b.WriteString(strconv.Itoa(n))
		default:
			b.WriteRune(r)
		}
	}
	return b.String()
}

// monthExpr renders a YYYY-MM expression over a date column.
func (d Dialect) monthExpr(col string) string {
	if d == DialectPostgres {
		return fmt.Sprintf("to_char(%s, 'YYYY-MM')", col)
	}
	return fmt.Sprintf("substr(%s, 1, 7)", col)
}

// lowerExpr renders a case-folded expression over a text column.
func (d Dialect) lowerExpr(col string) string {
	if d == DialectPostgres {
		return fmt.Sprintf("LOWER(%s)", col)
	}
	return fmt.Sprintf("%s(%s)", sqliteLowerFunc, col)
}

// readTxOptions gives a consistent snapshot for multi-statement reads.
// SQLite runs on a single connection, so a plain transaction already
// excludes writers.
func (d Dialect) readTxOptions() *sql.TxOptions {
	if d == DialectPostgres {
		return &sql.TxOptions{Isolation: sql.LevelRepeatableRead, ReadOnly: true}
	}
	return nil
}

// timeArg converts a timestamp into the parameter form the dialect stores.
func (d Dialect) timeArg(t time.Time) any {
	if d == DialectPostgres {
		return t
	}
	return t.UTC().Format(sqliteTimeLayout)
}

// dateValue scans DATE columns returned either as time.Time or as text.
type dateValue struct {
	core.Date
}

func (v *dateValue) Scan(src any) error {
	switch s := src.(type) {
	case time.Time:
		v.Date = core.DateOf(s)
		return nil
	case string:
		return v.parse(s)
	case []byte:
		return v.parse(string(s))
	default:
		return fmt.Errorf("scan date: unsupported type %T", src)
	}
}

func (v *dateValue) parse(s string) error {
	if len(s) > 10 {
		s = s[:10]
	}
	d, err := core.ParseDate(s)
	if err != nil {
		return fmt.Errorf("scan date: %w", err)
	}
	v.Date = d
	return nil
}

// timeValue scans timestamp columns returned either as time.Time or as text.
type timeValue struct {
	time.Time
}

var timeLayouts = []string{
	sqliteTimeLayout,
	time.RFC3339Nano,
	"2006-01-02 15:04:05.999999999-07:00",
	"2006-01-02 15:04:05",
}

func (v *timeValue) Scan(src any) error {
	switch s := src.(type) {
	case time.Time:
		v.Time = s.UTC()
		return nil
	case string:
		return v.parse(s)
	case []byte:
		return v.parse(string(s))
	default:
		return fmt.Errorf("scan timestamp: unsupported type %T", src)
	}
}

func (v *timeValue) parse(s string) error {
	for _, layout := range timeLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			v.Time = t.UTC()
			return nil
		}
	}
	return fmt.Errorf("scan timestamp: unrecognised value %q", s)
}
