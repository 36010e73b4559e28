package sequence

import (
	"context"
	"errors"
	"iter"

	"github.com/syssam/tabula"
	"github.com/syssam/tabula/dialect/sql"
	"github.com/syssam/tabula/schema"
)

// ErrIteratorDone is returned by Iterator.Next when there are no more entities.
var ErrIteratorDone = errors.New("sequence: iterator done")

// Iterator materializes one entity per row. It is not safe for concurrent use.
type Iterator[E any] struct {
	rows           *sql.RowIterator
	mapper         schema.Mapper[E]
	withReferences bool
	table          string
	peeked         bool
	more           bool
	err            error
}

// HasNext reports whether Next will return an entity. Repeated calls do not
// consume rows.
func (it *Iterator[E]) HasNext() bool {
	if !it.peeked {
		it.more = it.rows.Next()
		it.peeked = true
		if !it.more {
			if err := it.rows.Err(); err != nil {
				it.err = tabula.NewQueryError(it.table, "select", err)
			}
		}
	}
	return it.more
}

// Next returns the entity of the next row. It returns ErrIteratorDone after
// the last row, or the error that ended the iteration.
func (it *Iterator[E]) Next() (E, error) {
	var zero E
	if !it.HasNext() {
		if it.err != nil {
			return zero, it.err
		}
		return zero, ErrIteratorDone
	}
	it.peeked = false
	e, err := it.mapper.CreateEntity(it.rows.Row(), it.withReferences)
	if err != nil {
		it.err = err
		it.more = false
		it.peeked = true
		return zero, errors.Join(err, it.rows.Close())
	}
	return e, nil
}

// Err returns the error that ended the iteration, if any.
func (it *Iterator[E]) Err() error { return it.err }

// Close releases the rows. It is safe to call more than once.
func (it *Iterator[E]) Close() error { return it.rows.Close() }

// Seq returns an iterator over the entities of s for use with range. The
// query runs when the loop starts, and again for every loop. A failing query
// or row is yielded as the error of a final pair.
//
//	for e, err := range employees.Seq(ctx) {
//	    if err != nil {
//	        return err
//	    }
//	    ...
//	}
func (s Sequence[E]) Seq(ctx context.Context) iter.Seq2[E, error] {
	return func(yield func(E, error) bool) {
		var zero E
		it, err := s.Iterator(ctx)
		if err != nil {
			yield(zero, err)
			return
		}
		defer it.Close()
		for {
			e, err := it.Next()
			if errors.Is(err, ErrIteratorDone) {
				return
			}
			if !yield(e, err) || err != nil {
				return
			}
		}
	}
}

// ForEach calls fn for every entity in row order and stops at the first error.
func (s Sequence[E]) ForEach(ctx context.Context, fn func(E) error) error {
	for e, err := range s.Seq(ctx) {
		if err != nil {
			return err
		}
		if err := fn(e); err != nil {
			return err
		}
	}
	return nil
}

// ToSlice returns all entities in row order.
func (s Sequence[E]) ToSlice(ctx context.Context) ([]E, error) {
	var out []E
	if err := MapTo(ctx, s, &out, func(e E) E { return e }); err != nil {
		return nil, err
	}
	return out, nil
}

// First returns the first entity, or a tabula.NotFoundError when the
// sequence is empty.
func (s Sequence[E]) First(ctx context.Context) (E, error) {
	var zero E
	it, err := s.Take(1).Iterator(ctx)
	if err != nil {
		return zero, err
	}
	defer it.Close()
	e, err := it.Next()
	if errors.Is(err, ErrIteratorDone) {
		return zero, tabula.NewNotFoundError(s.mapper.Schema().Name())
	}
	return e, err
}

// Find returns the first entity matching p.
func (s Sequence[E]) Find(ctx context.Context, p sql.Predicate) (E, error) {
	return s.Filter(p).First(ctx)
}
