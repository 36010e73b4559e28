package sql

import (
	"errors"
	"strings"
)

// Row is one result row with its values keyed by column label.
type Row struct {
	index  map[string]int
	values []any
}

// NewRow returns a row with the given labels and values, which must have
// the same length. It is mostly useful for materializing rows that did not
// come from a query, e.g. in tests.
func NewRow(labels []string, values []any) Row {
	index := make(map[string]int, len(labels))
	for i, l := range labels {
		index[l] = i
	}
	return Row{index: index, values: values}
}

// RowOf returns a row from a label to value map.
func RowOf(values map[string]any) Row {
	labels := make([]string, 0, len(values))
	vs := make([]any, 0, len(values))
	for l, v := range values {
		labels = append(labels, l)
		vs = append(vs, v)
	}
	return NewRow(labels, vs)
}

func (r Row) lookup(label string) (int, bool) {
	if i, ok := r.index[label]; ok {
		return i, true
	}
	// PostgreSQL folds unquoted labels to lower case.
	i, ok := r.index[strings.ToLower(label)]
	return i, ok
}

// Has reports whether the row carries the label, NULL or not.
func (r Row) Has(label string) bool {
	_, ok := r.lookup(label)
	return ok
}

// Value returns the raw driver value under label and whether the label
// exists. A NULL value is returned as nil with ok set to true.
func (r Row) Value(label string) (v any, ok bool) {
	i, ok := r.lookup(label)
	if !ok {
		return nil, false
	}
	return r.values[i], true
}

// Len returns the number of values in the row.
func (r Row) Len() int { return len(r.values) }

// RowIterator is a single-pass iterator over query results.
//
//	it, err := engine.Query(ctx, sel)
//	if err != nil {
//	    return err
//	}
//	defer it.Close()
//	for it.Next() {
//	    row := it.Row()
//	}
//	return it.Err()
type RowIterator struct {
	rows    ColumnScanner
	labels  []string
	current Row
	err     error
	closed  bool
}

// NewRowIterator wraps rows into a RowIterator.
func NewRowIterator(rows ColumnScanner) (*RowIterator, error) {
	labels, err := rows.Columns()
	if err != nil {
		return nil, errors.Join(err, rows.Close())
	}
	return &RowIterator{rows: rows, labels: labels}, nil
}

// Next advances to the next row. It returns false when the rows are
// exhausted or an error occurred; the rows are closed in both cases.
func (it *RowIterator) Next() bool {
	if it.closed {
		return false
	}
	if !it.rows.Next() {
		it.err = it.rows.Err()
		it.err = errors.Join(it.err, it.Close())
		return false
	}
	values := make([]any, len(it.labels))
	dest := make([]any, len(it.labels))
	for i := range values {
		dest[i] = &values[i]
	}
	if err := it.rows.Scan(dest...); err != nil {
		it.err = errors.Join(err, it.Close())
		return false
	}
	// Drivers may reuse byte buffers between rows.
	for i, v := range values {
		if b, ok := v.([]byte); ok {
			values[i] = append([]byte(nil), b...)
		}
	}
	it.current = NewRow(it.labels, values)
	return true
}

// Row returns the current row.
func (it *RowIterator) Row() Row { return it.current }

// Err returns the error, if any, that was encountered during iteration.
func (it *RowIterator) Err() error { return it.err }

// Close releases the underlying rows. It is safe to call more than once.
func (it *RowIterator) Close() error {
	if it.closed {
		return nil
	}
	it.closed = true
	return it.rows.Close()
}
