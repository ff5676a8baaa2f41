package database

import (
	"errors"
	"fmt"
	"regexp"
	"strings"
)

// ErrNoFields is returned by Build when no column was set.
var ErrNoFields = errors.New("no fields to update")

var identifier = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_]*$`)

type assignment struct {
	column string
	value  any
}

// Update collects column/value pairs for a partial UPDATE. Column and table
// names must be identifiers fixed in code; values always travel as bind
// parameters.
type Update struct {
	table string
	sets  []assignment
}

func NewUpdate(table string) *Update {
	return &Update{table: table}
}

func (u *Update) Set(column string, value any) *Update {
	u.sets = append(u.sets, assignment{column: column, value: value})
	return u
}

// SetIf adds the pair only when present is true.
func (u *Update) SetIf(present bool, column string, value any) *Update {
	if present {
		u.Set(column, value)
	}
	return u
}

// SetString adds the pair only when the pointer is non-nil and not empty.
func (u *Update) SetString(column string, value *string) *Update {
	return u.SetIf(value != nil && *value != "", column, derefString(value))
}

// SetBytes adds the pair only when data is non-empty.
func (u *Update) SetBytes(column string, data []byte) *Update {
	return u.SetIf(len(data) > 0, column, data)
}

func (u *Update) Len() int {
	return len(u.sets)
}

// Build renders the statement. Every where pair is ANDed after the SET list.
func (u *Update) Build(where ...Condition) (string, []any, error) {
	if len(u.sets) == 0 {
		return "", nil, ErrNoFields
	}
	if !identifier.MatchString(u.table) {
		return "", nil, fmt.Errorf("invalid table name %q", u.table)
	}

	args := make([]any, 0, len(u.sets)+len(where))
	sets := make([]string, 0, len(u.sets))
	for _, s := range u.sets {
		if !identifier.MatchString(s.column) {
			return "", nil, fmt.Errorf("invalid column name %q", s.column)
		}
		args = append(args, s.value)
		sets = append(sets, fmt.Sprintf("%s = $%d", s.column, len(args)))
	}

	var b strings.Builder
	b.WriteString("UPDATE ")
	b.WriteString(u.table)
	b.WriteString(" SET ")
	b.WriteString(strings.Join(sets, ", "))

	for i, w := range where {
		if !identifier.MatchString(w.Column) {
			return "", nil, fmt.Errorf("invalid column name %q", w.Column)
		}
		args = append(args, w.Value)
		if i == 0 {
			b.WriteString(" WHERE ")
		} else {
			b.WriteString(" AND ")
		}
		fmt.Fprintf(&b, "%s = $%d", w.Column, len(args))
	}

	return b.String(), args, nil
}

// Condition is an equality predicate used by Build.
type Condition struct {
	Column string
	Value  any
}

func Where(column string, value any) Condition {
	return Condition{Column: column, Value: value}
}

func derefString(s *string) any {
	if s == nil {
		return nil
	}
	return *s
}
