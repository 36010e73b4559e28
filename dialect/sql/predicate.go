package sql

import (
	sq "github.com/Masterminds/squirrel"
)

// Predicate is a boolean SQL expression. Predicates render with "?"
// placeholders; the engine rewrites them for the target dialect.
type Predicate = sq.Sqlizer

// And returns a predicate that is true when all ps are. Nil predicates are
// skipped, and a single predicate is returned unwrapped.
func And(ps ...Predicate) Predicate {
	conj := make(sq.And, 0, len(ps))
	for _, p := range ps {
		if p != nil {
			conj = append(conj, p)
		}
	}
	switch len(conj) {
	case 0:
		return nil
	case 1:
		return conj[0]
	}
	return conj
}

// Or returns a predicate that is true when any of ps is.
func Or(ps ...Predicate) Predicate {
	return sq.Or(ps)
}

// Not returns the negation of p.
func Not(p Predicate) Predicate {
	return not{p}
}

type not struct{ p Predicate }

func (n not) ToSql() (string, []any, error) {
	s, args, err := n.p.ToSql()
	if err != nil {
		return "", nil, err
	}
	return "NOT (" + s + ")", args, nil
}

// Expr returns a raw predicate, e.g. Expr("1 = 1") or Expr("age > ?", 30).
func Expr(sql string, args ...any) Predicate {
	return sq.Expr(sql, args...)
}

// FieldEQ returns a predicate that checks if the column equals v.
func FieldEQ(c ColumnRef, v any) Predicate {
	return sq.Eq{c.String(): v}
}

// FieldNEQ returns a predicate that checks if the column does not equal v.
func FieldNEQ(c ColumnRef, v any) Predicate {
	return sq.NotEq{c.String(): v}
}

// FieldGT returns a predicate that checks if the column is greater than v.
func FieldGT(c ColumnRef, v any) Predicate {
	return sq.Gt{c.String(): v}
}

// FieldGTE returns a predicate that checks if the column is greater than or equal to v.
func FieldGTE(c ColumnRef, v any) Predicate {
	return sq.GtOrEq{c.String(): v}
}

// FieldLT returns a predicate that checks if the column is less than v.
func FieldLT(c ColumnRef, v any) Predicate {
	return sq.Lt{c.String(): v}
}

// FieldLTE returns a predicate that checks if the column is less than or equal to v.
func FieldLTE(c ColumnRef, v any) Predicate {
	return sq.LtOrEq{c.String(): v}
}

// FieldIn returns a predicate that checks if the column value is in vs.
// An empty list yields a predicate that is always false.
func FieldIn[T any](c ColumnRef, vs ...T) Predicate {
	return sq.Eq{c.String(): vs}
}

// FieldLike returns a predicate that matches the column against a LIKE pattern.
func FieldLike(c ColumnRef, pattern string) Predicate {
	return sq.Like{c.String(): pattern}
}

// FieldIsNull returns a predicate that checks if the column is NULL.
func FieldIsNull(c ColumnRef) Predicate {
	return sq.Eq{c.String(): nil}
}

// FieldNotNull returns a predicate that checks if the column is not NULL.
func FieldNotNull(c ColumnRef) Predicate {
	return sq.NotEq{c.String(): nil}
}

// ColumnsEQ returns a predicate comparing two columns, as used in join conditions.
func ColumnsEQ(a, b ColumnRef) Predicate {
	return sq.Expr(a.String() + " = " + b.String())
}

// EQ returns a predicate that checks if the column equals v.
func (c ColumnRef) EQ(v any) Predicate { return FieldEQ(c, v) }

// NEQ returns a predicate that checks if the column does not equal v.
func (c ColumnRef) NEQ(v any) Predicate { return FieldNEQ(c, v) }

// GT returns a predicate that checks if the column is greater than v.
func (c ColumnRef) GT(v any) Predicate { return FieldGT(c, v) }

// GTE returns a predicate that checks if the column is greater than or equal to v.
func (c ColumnRef) GTE(v any) Predicate { return FieldGTE(c, v) }

// LT returns a predicate that checks if the column is less than v.
func (c ColumnRef) LT(v any) Predicate { return FieldLT(c, v) }

// LTE returns a predicate that checks if the column is less than or equal to v.
func (c ColumnRef) LTE(v any) Predicate { return FieldLTE(c, v) }

// In returns a predicate that checks if the column value is in vs.
func (c ColumnRef) In(vs ...any) Predicate { return FieldIn(c, vs...) }

// Like returns a predicate that matches the column against a LIKE pattern.
func (c ColumnRef) Like(pattern string) Predicate { return FieldLike(c, pattern) }

// IsNull returns a predicate that checks if the column is NULL.
func (c ColumnRef) IsNull() Predicate { return FieldIsNull(c) }

// NotNull returns a predicate that checks if the column is not NULL.
func (c ColumnRef) NotNull() Predicate { return FieldNotNull(c) }

// Field is a column reference with type-safe predicate methods.
//
// Usage:
//
//	name := sql.Field[string]{employees.MustLookup("name").Ref()}
//	seq.Filter(name.EQ("Alice"))
type Field[T any] struct {
	ColumnRef
}

// EQ returns a predicate that checks if the field equals the given value.
func (f Field[T]) EQ(v T) Predicate { return FieldEQ(f.ColumnRef, v) }

// NEQ returns a predicate that checks if the field does not equal the given value.
func (f Field[T]) NEQ(v T) Predicate { return FieldNEQ(f.ColumnRef, v) }

// GT returns a predicate that checks if the field is greater than the given value.
func (f Field[T]) GT(v T) Predicate { return FieldGT(f.ColumnRef, v) }

// GTE returns a predicate that checks if the field is greater than or equal to the given value.
func (f Field[T]) GTE(v T) Predicate { return FieldGTE(f.ColumnRef, v) }

// LT returns a predicate that checks if the field is less than the given value.
func (f Field[T]) LT(v T) Predicate { return FieldLT(f.ColumnRef, v) }

// LTE returns a predicate that checks if the field is less than or equal to the given value.
func (f Field[T]) LTE(v T) Predicate { return FieldLTE(f.ColumnRef, v) }

// In returns a predicate that checks if the field value is in the given list.
func (f Field[T]) In(vs ...T) Predicate { return FieldIn(f.ColumnRef, vs...) }
