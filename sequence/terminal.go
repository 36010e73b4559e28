package sequence

import (
	"context"

	"github.com/syssam/tabula/dialect/sql"
)

// The functions below enumerate the whole sequence into a destination in
// row order. Maps keep the value of the last row for a repeated key.

// FilterTo appends the entities matching p to dst.
func FilterTo[E any](ctx context.Context, s Sequence[E], dst *[]E, p sql.Predicate) error {
	return MapTo(ctx, s.Filter(p), dst, func(e E) E { return e })
}

// MapTo appends fn of every entity to dst.
func MapTo[E, R any](ctx context.Context, s Sequence[E], dst *[]R, fn func(E) R) error {
	return s.ForEach(ctx, func(e E) error {
		*dst = append(*dst, fn(e))
		return nil
	})
}

// AssociateTo stores the key/value pair fn returns for every entity in dst.
func AssociateTo[E any, K comparable, V any](ctx context.Context, s Sequence[E], dst map[K]V, fn func(E) (K, V)) error {
	return s.ForEach(ctx, func(e E) error {
		k, v := fn(e)
		dst[k] = v
		return nil
	})
}

// AssociateByTo stores value(e) under key(e) for every entity in dst.
func AssociateByTo[E any, K comparable, V any](ctx context.Context, s Sequence[E], dst map[K]V, key func(E) K, value func(E) V) error {
	return AssociateTo(ctx, s, dst, func(e E) (K, V) {
		return key(e), value(e)
	})
}

// AssociateBy returns the entities keyed by key.
//
//	byID, err := sequence.AssociateBy(ctx, employees, func(e *Employee) int { return e.ID })
func AssociateBy[E any, K comparable](ctx context.Context, s Sequence[E], key func(E) K) (map[K]E, error) {
	dst := make(map[K]E)
	if err := AssociateByTo(ctx, s, dst, key, func(e E) E { return e }); err != nil {
		return nil, err
	}
	return dst, nil
}

// Associate returns the key/value pairs fn returns for every entity.
func Associate[E any, K comparable, V any](ctx context.Context, s Sequence[E], fn func(E) (K, V)) (map[K]V, error) {
	dst := make(map[K]V)
	if err := AssociateTo(ctx, s, dst, fn); err != nil {
		return nil, err
	}
	return dst, nil
}
