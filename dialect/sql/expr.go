package sql

import (
	"fmt"
	"slices"
	"strings"
)

// NoLimit marks a Select without a LIMIT clause.
const NoLimit = -1

// labelSep joins a table reference and a column name into a result label.
const labelSep = "__"

// CheckLabel fails unless the label of column in table splits back into
// exactly these two names. Names must not contain the separator, table
// names must not end with '_' and column names must not start with it.
func CheckLabel(table, column string) error {
	switch {
	case strings.Contains(table, labelSep):
		return fmt.Errorf("sql: table %q contains label separator %q", table, labelSep)
	case strings.Contains(column, labelSep):
		return fmt.Errorf("sql: column %q contains label separator %q", column, labelSep)
	case strings.HasSuffix(table, "_"):
		return fmt.Errorf("sql: table %q ends with '_'", table)
	case strings.HasPrefix(column, "_"):
		return fmt.Errorf("sql: column %q starts with '_'", column)
	}
	return nil
}

// TableRef names a source table and its optional alias.
type TableRef struct {
	Name  string
	Alias string
}

// Ref returns the name the table is referred to by in the statement.
func (t TableRef) Ref() string {
	if t.Alias != "" {
		return t.Alias
	}
	return t.Name
}

// String returns the FROM/JOIN form of the reference, e.g. "employees AS e".
func (t TableRef) String() string {
	if t.Alias != "" && t.Alias != t.Name {
		return t.Name + " AS " + t.Alias
	}
	return t.Name
}

// Column returns a reference to a column of t.
func (t TableRef) Column(name string) ColumnRef {
	return ColumnRef{Table: t.Ref(), Name: name}
}

// ColumnRef is a column qualified by the reference of its table.
type ColumnRef struct {
	Table string
	Name  string
}

// String returns the qualified column, e.g. "e.name".
func (c ColumnRef) String() string {
	if c.Table == "" {
		return c.Name
	}
	return c.Table + "." + c.Name
}

// Label returns the result label the column is selected under. Rows are
// keyed by labels so that joined tables with equal column names never clash.
func (c ColumnRef) Label() string {
	if c.Table == "" {
		return c.Name
	}
	return c.Table + labelSep + c.Name
}

// Selection is one item of a select list.
type Selection struct {
	Expr  string
	Label string
}

// String returns the select-list form "expr AS label".
func (s Selection) String() string {
	if s.Label == "" || s.Label == s.Expr {
		return s.Expr
	}
	return s.Expr + " AS " + s.Label
}

// Select returns a selection of the column under its label.
func (c ColumnRef) Select() Selection {
	return Selection{Expr: c.String(), Label: c.Label()}
}

// Join is a LEFT JOIN of a table on a predicate.
type Join struct {
	Table TableRef
	On    Predicate
}

// Order is one ORDER BY term.
type Order struct {
	Column ColumnRef
	Desc   bool
}

// String returns the ORDER BY form of o.
func (o Order) String() string {
	if o.Desc {
		return o.Column.String() + " DESC"
	}
	return o.Column.String()
}

// Select is an immutable abstract SELECT statement. Every With method
// returns a modified copy and leaves the receiver untouched.
type Select struct {
	From    TableRef
	Sub     *Select // Sub-select used as the FROM source when set.
	Joins   []Join
	Columns []Selection
	Where   Predicate
	OrderBy []Order
	Limit   int
	Offset  int
}

// NewSelect returns a Select over the given table without limit or offset.
func NewSelect(from TableRef, columns ...Selection) Select {
	return Select{
		From:    from,
		Columns: slices.Clone(columns),
		Limit:   NoLimit,
	}
}

// HasPaging reports whether a limit or an offset is set.
func (s Select) HasPaging() bool {
	return s.Limit != NoLimit || s.Offset > 0
}

// WithColumns returns a copy selecting the given columns.
func (s Select) WithColumns(columns ...Selection) Select {
	s.Columns = slices.Clone(columns)
	return s
}

// WithJoin returns a copy with an additional LEFT JOIN.
func (s Select) WithJoin(j Join) Select {
	s.Joins = append(slices.Clip(s.Joins), j)
	return s
}

// WithWhere returns a copy whose predicate is replaced by p.
func (s Select) WithWhere(p Predicate) Select {
	s.Where = p
	return s
}

// WithOrder returns a copy with an additional ORDER BY term.
func (s Select) WithOrder(o Order) Select {
	s.OrderBy = append(slices.Clip(s.OrderBy), o)
	return s
}

// WithLimit returns a copy with the limit replaced by n.
func (s Select) WithLimit(n int) Select {
	s.Limit = n
	return s
}

// WithOffset returns a copy with the offset replaced by n.
func (s Select) WithOffset(n int) Select {
	s.Offset = n
	return s
}

// AggregateLabel is the label of the single column of aggregate selects.
const AggregateLabel = "agg"

// Aggregation is an aggregate function applied to a column, or to all
// rows when Column is nil.
type Aggregation struct {
	Func   string
	Column *ColumnRef
}

// CountAll returns the count(*) aggregation.
func CountAll() Aggregation { return Aggregation{Func: "count"} }

// Max returns the max(c) aggregation.
func Max(c ColumnRef) Aggregation { return Aggregation{Func: "max", Column: &c} }

// Min returns the min(c) aggregation.
func Min(c ColumnRef) Aggregation { return Aggregation{Func: "min", Column: &c} }

// Sum returns the sum(c) aggregation.
func Sum(c ColumnRef) Aggregation { return Aggregation{Func: "sum", Column: &c} }

// Avg returns the avg(c) aggregation.
func Avg(c ColumnRef) Aggregation { return Aggregation{Func: "avg", Column: &c} }

// selection renders the aggregation. Over a paged sub-select the column is
// addressed by its label in the inner select list.
func (a Aggregation) selection(paged bool) Selection {
	arg := "*"
	switch {
	case a.Column != nil && paged:
		arg = a.Column.Label()
	case a.Column != nil:
		arg = a.Column.String()
	}
	return Selection{Expr: a.Func + "(" + arg + ")", Label: AggregateLabel}
}

// Count returns the count-shaped rewrite of s. Without paging it counts the
// filtered rows directly; with a limit or an offset the paged select becomes
// a sub-select, so the count is taken within the current page window.
func (s Select) Count() Select {
	return s.Aggregate(CountAll())
}

// Aggregate returns the rewrite of s selecting only agg. Paging is kept the
// same way as in Count.
func (s Select) Aggregate(agg Aggregation) Select {
	if !s.HasPaging() {
		s.Columns = []Selection{agg.selection(false)}
		s.OrderBy = nil
		return s
	}
	inner := s
	return Select{
		From:    TableRef{Alias: "paged"},
		Sub:     &inner,
		Columns: []Selection{agg.selection(true)},
		Limit:   NoLimit,
	}
}
